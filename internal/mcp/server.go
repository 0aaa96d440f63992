// Package mcp exposes the migration runner as an MCP server so an agent
// can act as the producer: it pulls conversion tasks and submits Ansible
// content, while the server drives budgets, validation and reporting.
package mcp

import (
	"context"
	"fmt"
	"sync"
	"time"

	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"

	"x2ansible/internal/checklist"
	"x2ansible/internal/logging"
)

// DefaultNextTaskTimeout bounds how long get_next_task blocks before
// telling the agent to poll again.
var DefaultNextTaskTimeout = 10 * time.Second

// Server wraps the MCP SDK server and manages a single migration session.
type Server struct {
	MCPServer *sdkmcp.Server

	mu      sync.Mutex
	session *Session
}

// NewServer creates an MCP server with the migration tools registered.
func NewServer(version string) *Server {
	s := &Server{}
	s.MCPServer = sdkmcp.NewServer(
		&sdkmcp.Implementation{Name: "x2ansible", Version: version},
		nil,
	)
	s.registerTools()
	return s
}

func (s *Server) registerTools() {
	sdkmcp.AddTool(s.MCPServer, &sdkmcp.Tool{
		Name:        "start_migration",
		Description: "Scan a Chef/Puppet/Salt module, build the conversion checklist and start the run. Returns a session ID.",
	}, s.handleStartMigration)

	sdkmcp.AddTool(s.MCPServer, &sdkmcp.Tool{
		Name:        "get_next_task",
		Description: "Pull the next conversion task (source artifact to rewrite as Ansible). Returns done=true when the run has finished.",
	}, s.handleGetNextTask)

	sdkmcp.AddTool(s.MCPServer, &sdkmcp.Tool{
		Name:        "submit_result",
		Description: "Submit converted Ansible content for a task. The server persists and validates it, re-dispatching on failure while budget remains.",
	}, s.handleSubmitResult)

	sdkmcp.AddTool(s.MCPServer, &sdkmcp.Tool{
		Name:        "get_report",
		Description: "Wait for the run to finish and return the migration summary report.",
	}, s.handleGetReport)
}

// --- Tool input/output types ---

type startMigrationInput struct {
	ModulePath            string `json:"module_path" jsonschema:"path to the source module directory"`
	Technology            string `json:"technology" jsonschema:"source technology (chef, puppet, salt)"`
	OutputDir             string `json:"output_dir,omitempty" jsonschema:"Ansible role output directory"`
	Parallel              int    `json:"parallel,omitempty" jsonschema:"number of parallel item workers (default 1)"`
	MaxWriteAttempts      int    `json:"max_write_attempts,omitempty" jsonschema:"write budget per item (default 3)"`
	MaxValidationAttempts int    `json:"max_validation_attempts,omitempty" jsonschema:"validation budget per item (default 3)"`
	Force                 bool   `json:"force,omitempty" jsonschema:"cancel any existing session and start fresh"`
}

type startMigrationOutput struct {
	SessionID  string `json:"session_id"`
	Module     string `json:"module"`
	TotalItems int    `json:"total_items"`
	Status     string `json:"status"`
}

type getNextTaskInput struct {
	SessionID string `json:"session_id" jsonschema:"session ID from start_migration"`
	TimeoutMS int    `json:"timeout_ms,omitempty" jsonschema:"max wait in milliseconds (default 10000)"`
}

type getNextTaskOutput struct {
	Done      bool  `json:"done"`
	Available bool  `json:"available"`
	Task      *Task `json:"task,omitempty"`
}

type submitResultInput struct {
	SessionID string `json:"session_id" jsonschema:"session ID from start_migration"`
	TaskID    int64  `json:"task_id" jsonschema:"task ID from get_next_task"`
	Content   string `json:"content" jsonschema:"converted Ansible file content"`
}

type submitResultOutput struct {
	OK string `json:"ok"`
}

type getReportInput struct {
	SessionID string `json:"session_id" jsonschema:"session ID from start_migration"`
}

type getReportOutput struct {
	Status  string                   `json:"status"`
	Report  string                   `json:"report,omitempty"`
	Summary *checklist.SummaryReport `json:"summary,omitempty"`
	Error   string                   `json:"error,omitempty"`
}

// --- Tool handlers ---

func (s *Server) handleStartMigration(_ context.Context, _ *sdkmcp.CallToolRequest, input startMigrationInput) (*sdkmcp.CallToolResult, startMigrationOutput, error) {
	logger := logging.New("mcp-session")

	s.mu.Lock()
	if s.session != nil {
		select {
		case <-s.session.Done():
			s.session.Cancel()
		default:
			if !input.Force {
				id := s.session.ID
				s.mu.Unlock()
				return nil, startMigrationOutput{}, fmt.Errorf("a migration session is already running (id=%s)", id)
			}
			logger.Warn("force-replacing active session", "old_id", s.session.ID)
			s.session.Cancel()
		}
		s.session = nil
	}
	s.mu.Unlock()

	sess, err := NewSession(StartMigrationInput{
		ModulePath:            input.ModulePath,
		Technology:            input.Technology,
		OutputDir:             input.OutputDir,
		Parallel:              input.Parallel,
		MaxWriteAttempts:      input.MaxWriteAttempts,
		MaxValidationAttempts: input.MaxValidationAttempts,
	})
	if err != nil {
		return nil, startMigrationOutput{}, fmt.Errorf("start migration: %w", err)
	}

	s.mu.Lock()
	s.session = sess
	s.mu.Unlock()

	logger.Info("session started", "id", sess.ID, "module", sess.ModuleName, "items", sess.TotalItems)
	return nil, startMigrationOutput{
		SessionID:  sess.ID,
		Module:     sess.ModuleName,
		TotalItems: sess.TotalItems,
		Status:     string(StateRunning),
	}, nil
}

func (s *Server) handleGetNextTask(ctx context.Context, _ *sdkmcp.CallToolRequest, input getNextTaskInput) (*sdkmcp.CallToolResult, getNextTaskOutput, error) {
	sess, err := s.getSession(input.SessionID)
	if err != nil {
		return nil, getNextTaskOutput{}, err
	}

	timeout := DefaultNextTaskTimeout
	if input.TimeoutMS > 0 {
		timeout = time.Duration(input.TimeoutMS) * time.Millisecond
	}

	task, done, available, err := sess.NextTask(ctx, timeout)
	if err != nil {
		return nil, getNextTaskOutput{}, fmt.Errorf("get_next_task: %w", err)
	}
	if done {
		return nil, getNextTaskOutput{Done: true}, nil
	}
	if !available {
		return nil, getNextTaskOutput{}, nil
	}
	return nil, getNextTaskOutput{Available: true, Task: &task}, nil
}

func (s *Server) handleSubmitResult(_ context.Context, _ *sdkmcp.CallToolRequest, input submitResultInput) (*sdkmcp.CallToolResult, submitResultOutput, error) {
	sess, err := s.getSession(input.SessionID)
	if err != nil {
		return nil, submitResultOutput{}, err
	}
	if err := sess.Submit(input.TaskID, input.Content); err != nil {
		return nil, submitResultOutput{}, fmt.Errorf("submit_result: %w", err)
	}
	return nil, submitResultOutput{OK: "content accepted"}, nil
}

func (s *Server) handleGetReport(ctx context.Context, _ *sdkmcp.CallToolRequest, input getReportInput) (*sdkmcp.CallToolResult, getReportOutput, error) {
	sess, err := s.getSession(input.SessionID)
	if err != nil {
		return nil, getReportOutput{}, err
	}

	select {
	case <-sess.Done():
	case <-ctx.Done():
		return nil, getReportOutput{}, ctx.Err()
	}

	if sessErr := sess.Err(); sessErr != nil {
		summary := sess.Report()
		return nil, getReportOutput{
			Status:  string(StateError),
			Report:  checklist.RenderMarkdown(sess.Checklist(), summary),
			Summary: &summary,
			Error:   sessErr.Error(),
		}, nil
	}

	summary := sess.Report()
	return nil, getReportOutput{
		Status:  string(StateDone),
		Report:  checklist.RenderMarkdown(sess.Checklist(), summary),
		Summary: &summary,
	}, nil
}

// SessionID returns the current session's ID, or empty string if none.
func (s *Server) SessionID() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.session != nil {
		return s.session.ID
	}
	return ""
}

// Shutdown cancels any active session, releasing the runner goroutine.
func (s *Server) Shutdown() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.session != nil {
		s.session.Cancel()
		s.session = nil
	}
}

func (s *Server) getSession(id string) (*Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.session == nil {
		return nil, fmt.Errorf("no active session (call start_migration first)")
	}
	if s.session.ID != id {
		return nil, fmt.Errorf("session_id mismatch: have %s, got %s", s.session.ID, id)
	}
	return s.session, nil
}
