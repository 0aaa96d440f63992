package mcp_test

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"x2ansible/internal/checklist"
	mcpserver "x2ansible/internal/mcp"
)

func writeChefModule(t *testing.T, root string) string {
	t.Helper()
	dir := filepath.Join(root, "nginx")
	files := map[string]string{
		"metadata.rb":        "name 'nginx'\nversion '1.0.0'\n",
		"recipes/default.rb": "package 'nginx'\n",
	}
	for rel, content := range files {
		path := filepath.Join(dir, rel)
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			t.Fatal(err)
		}
		if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
			t.Fatal(err)
		}
	}
	return dir
}

// drive acts as the agent: pull tasks and answer them until the run is done.
func drive(ctx context.Context, t *testing.T, sess *mcpserver.Session, answer func(mcpserver.Task) string) {
	t.Helper()
	for {
		task, done, available, err := sess.NextTask(ctx, time.Second)
		if err != nil {
			t.Fatalf("NextTask: %v", err)
		}
		if done {
			return
		}
		if !available {
			continue
		}
		if err := sess.Submit(task.ID, answer(task)); err != nil {
			t.Fatalf("Submit: %v", err)
		}
	}
}

func TestSession_AgentCompletesRun(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	moduleDir := writeChefModule(t, t.TempDir())
	outDir := t.TempDir()

	sess, err := mcpserver.NewSession(mcpserver.StartMigrationInput{
		ModulePath: moduleDir,
		Technology: "chef",
		OutputDir:  outDir,
	})
	if err != nil {
		t.Fatalf("NewSession: %v", err)
	}
	defer sess.Cancel()

	if sess.ID == "" || sess.ModuleName != "nginx" {
		t.Fatalf("session = %+v", sess)
	}
	if sess.State() != mcpserver.StateRunning {
		t.Fatalf("state = %s", sess.State())
	}
	if sess.TotalItems != 2 {
		t.Fatalf("total items = %d, want 2", sess.TotalItems)
	}

	drive(ctx, t, sess, func(task mcpserver.Task) string {
		if task.SourceText == "" {
			t.Errorf("task %d has no source text", task.ID)
		}
		return "---\n# converted from " + task.SourcePath + "\n"
	})

	select {
	case <-sess.Done():
	case <-ctx.Done():
		t.Fatal("timed out waiting for session")
	}

	if sess.Err() != nil {
		t.Fatalf("session error: %v", sess.Err())
	}
	if sess.State() != mcpserver.StateDone {
		t.Errorf("state = %s, want done", sess.State())
	}

	report := sess.Report()
	if report.Completed != 2 || report.Total != 2 {
		t.Errorf("report = %+v", report)
	}

	// Submitted content must have landed in the role tree.
	data, err := os.ReadFile(filepath.Join(outDir, "tasks", "main.yml"))
	if err != nil {
		t.Fatalf("converted task not written: %v", err)
	}
	if !strings.Contains(string(data), "converted from recipes/default.rb") {
		t.Errorf("tasks/main.yml = %q", data)
	}
}

func TestSession_FailedValidationRedispatchesWithFeedback(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	moduleDir := writeChefModule(t, t.TempDir())

	sess, err := mcpserver.NewSession(mcpserver.StartMigrationInput{
		ModulePath: moduleDir,
		Technology: "chef",
		OutputDir:  t.TempDir(),
	})
	if err != nil {
		t.Fatalf("NewSession: %v", err)
	}
	defer sess.Cancel()

	// First attempt per item is broken YAML; the rewrite must carry the
	// validator's feedback and a higher attempt number.
	rewrites := 0
	drive(ctx, t, sess, func(task mcpserver.Task) string {
		if task.Attempt == 1 {
			return "---\nkey: [unclosed\n"
		}
		rewrites++
		if task.Feedback == "" {
			t.Errorf("rewrite of %s has no feedback", task.SourcePath)
		}
		return "---\nok: true\n"
	})

	<-sess.Done()
	if sess.Err() != nil {
		t.Fatalf("session error: %v", sess.Err())
	}
	if rewrites != 2 {
		t.Errorf("rewrites = %d, want 2", rewrites)
	}

	report := sess.Report()
	if report.Completed != 2 {
		t.Errorf("report = %+v", report)
	}
	if report.WriteAttempts != 4 || report.ValidationAttempts != 4 {
		t.Errorf("attempts = %d/%d, want 4/4", report.WriteAttempts, report.ValidationAttempts)
	}
	for _, item := range sess.Checklist().Items {
		if item.Status != checklist.StatusComplete {
			t.Errorf("%s: status = %s", item.SourcePath, item.Status)
		}
	}
}

func TestNewSession_BadInput(t *testing.T) {
	if _, err := mcpserver.NewSession(mcpserver.StartMigrationInput{
		ModulePath: t.TempDir(),
		Technology: "cfengine",
	}); err == nil {
		t.Error("unknown technology accepted")
	}
	if _, err := mcpserver.NewSession(mcpserver.StartMigrationInput{
		ModulePath: t.TempDir(),
		Technology: "chef",
	}); err == nil {
		t.Error("empty module accepted")
	}
}
