package mcp

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"time"

	"x2ansible/internal/checklist"
	"x2ansible/internal/convert"
	"x2ansible/internal/inventory"
	"x2ansible/internal/logging"
)

// sessionSeq keeps IDs unique even when sessions start within the same
// millisecond.
var sessionSeq atomic.Int64

// SessionState tracks the lifecycle of a migration session.
type SessionState string

const (
	StateRunning SessionState = "running"
	StateDone    SessionState = "done"
	StateError   SessionState = "error"
)

// StartMigrationInput mirrors the tool arguments for start_migration.
type StartMigrationInput struct {
	ModulePath            string `json:"module_path"`
	Technology            string `json:"technology"`
	OutputDir             string `json:"output_dir,omitempty"`
	Parallel              int    `json:"parallel,omitempty"`
	MaxWriteAttempts      int    `json:"max_write_attempts,omitempty"`
	MaxValidationAttempts int    `json:"max_validation_attempts,omitempty"`
}

// Session holds the state for one migration run driven by MCP tool calls.
// The agent is the producer: each item's write attempt becomes a Task it
// pulls with get_next_task and answers with submit_result. Validation stays
// server-side.
type Session struct {
	ID           string
	ModuleName   string
	TotalItems   int
	SourceDir    string
	dispatcher   *Dispatcher
	checklistRef *checklist.Checklist

	mu     sync.Mutex
	state  SessionState
	report checklist.SummaryReport
	err    error

	doneCh chan struct{}
	cancel context.CancelFunc
}

// NewSession scans the source module, builds the checklist, spawns the
// runner goroutine and returns immediately. The runner blocks on the agent
// pulling tasks, so nothing is written until get_next_task is called.
func NewSession(input StartMigrationInput) (*Session, error) {
	tech, err := inventory.ParseTechnology(input.Technology)
	if err != nil {
		return nil, err
	}
	entries, err := inventory.Scan(input.ModulePath, tech)
	if err != nil {
		return nil, fmt.Errorf("scan %s: %w", input.ModulePath, err)
	}
	if len(entries) == 0 {
		return nil, fmt.Errorf("no convertible artifacts under %s", input.ModulePath)
	}

	moduleName := filepath.Base(filepath.Clean(input.ModulePath))
	cl, err := checklist.Build(moduleName, entries)
	if err != nil {
		return nil, err
	}

	outputDir := input.OutputDir
	if outputDir == "" {
		outputDir = filepath.Join(input.ModulePath, "..", "ansible", "roles", moduleName)
	}
	if err := os.MkdirAll(outputDir, 0o755); err != nil {
		return nil, fmt.Errorf("create output dir: %w", err)
	}

	budgets := checklist.DefaultBudgets()
	if input.MaxWriteAttempts > 0 {
		budgets.MaxWriteAttempts = input.MaxWriteAttempts
	}
	if input.MaxValidationAttempts > 0 {
		budgets.MaxValidationAttempts = input.MaxValidationAttempts
	}

	disp := NewDispatcher()
	runCtx, runCancel := context.WithCancel(context.Background())

	sess := &Session{
		ID:           fmt.Sprintf("s-%d-%d", time.Now().UnixMilli(), sessionSeq.Add(1)),
		ModuleName:   moduleName,
		TotalItems:   len(cl.Items),
		SourceDir:    input.ModulePath,
		dispatcher:   disp,
		checklistRef: cl,
		state:        StateRunning,
		doneCh:       make(chan struct{}),
		cancel:       runCancel,
	}

	cfg := checklist.RunConfig{
		Budgets:     budgets,
		Concurrency: input.Parallel,
		Produce:     sess.produce,
		Validate:    convert.YAMLValidator{}.Validate,
		Store:       &convert.DirStore{Root: outputDir},
	}

	go sess.run(runCtx, cfg)
	return sess, nil
}

// produce reads the item's source artifact, publishes it as a task and
// waits for the agent's content.
func (s *Session) produce(ctx context.Context, item *checklist.Item) (string, error) {
	data, err := os.ReadFile(filepath.Join(s.SourceDir, item.SourcePath))
	if err != nil {
		if os.IsNotExist(err) {
			return "", fmt.Errorf("source %s vanished: %w: %w", item.SourcePath, checklist.ErrFatal, err)
		}
		return "", fmt.Errorf("read source %s: %w", item.SourcePath, err)
	}

	return s.dispatcher.Dispatch(ctx, Task{
		SourcePath: item.SourcePath,
		TargetPath: item.TargetPath,
		Category:   item.Category,
		Attempt:    item.WriteAttempts,
		SourceText: string(data),
		Feedback:   item.Note,
	})
}

func (s *Session) run(ctx context.Context, cfg checklist.RunConfig) {
	defer close(s.doneCh)
	defer s.cancel()
	logger := logging.New("mcp-session")

	runErr := checklist.Run(ctx, s.checklistRef, cfg)
	report, recErr := checklist.Reconcile(s.checklistRef)

	s.mu.Lock()
	defer s.mu.Unlock()

	switch {
	case runErr != nil:
		s.state = StateError
		s.err = runErr
		s.report = report
		logger.Error("migration aborted", "module", s.ModuleName, "error", runErr)
	case recErr != nil:
		s.state = StateError
		s.err = recErr
		logger.Error("reconciliation failed", "module", s.ModuleName, "error", recErr)
	default:
		s.state = StateDone
		s.report = report
		logger.Info("migration complete",
			"module", s.ModuleName,
			"completed", report.Completed,
			"errors", report.Errors)
	}
}

// NextTask blocks until the runner publishes a task, the run completes, or
// the timeout elapses. available=false with done=false means the timeout
// hit while workers were busy; the agent should poll again.
func (s *Session) NextTask(ctx context.Context, timeout time.Duration) (task Task, done, available bool, err error) {
	select {
	case <-s.doneCh:
		return Task{}, true, false, nil
	default:
	}

	timer := time.NewTimer(timeout)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return Task{}, false, false, ctx.Err()
	case <-s.doneCh:
		return Task{}, true, false, nil
	case <-timer.C:
		return Task{}, false, false, nil
	case task := <-s.dispatcher.TaskCh():
		return task, false, true, nil
	}
}

// Submit routes agent content to the producer waiting on taskID.
func (s *Session) Submit(taskID int64, content string) error {
	return s.dispatcher.Submit(taskID, content)
}

// State returns the session state.
func (s *Session) State() SessionState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Report returns the reconciled summary; valid once Done is closed.
func (s *Session) Report() checklist.SummaryReport {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.report
}

// Checklist returns the underlying checklist. Safe to read once Done is
// closed; the runner owns it until then.
func (s *Session) Checklist() *checklist.Checklist {
	return s.checklistRef
}

// Err returns the run error, if any.
func (s *Session) Err() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.err
}

// Done closes when the migration run finishes.
func (s *Session) Done() <-chan struct{} { return s.doneCh }

// Cancel aborts the runner goroutine.
func (s *Session) Cancel() {
	if s.cancel != nil {
		s.cancel()
	}
}
