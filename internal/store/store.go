// Package store persists migration run history so the status and report
// commands can inspect past runs without re-migrating.
package store

import (
	"errors"

	"x2ansible/internal/checklist"
)

// DefaultDBPath is where the CLI keeps its run history.
const DefaultDBPath = ".x2ansible/history.db"

// ErrNotFound is returned when a requested run does not exist.
var ErrNotFound = errors.New("store: run not found")

// Run is one recorded migration run with its aggregate summary. Items are
// stored separately, keyed by run ID, in discovery order.
type Run struct {
	ID            int64
	ModuleName    string
	Technology    string
	StartedAt     string
	FinishedAt    string
	FailureReason string
	Summary       checklist.SummaryReport
}

// Store records and retrieves migration runs.
type Store interface {
	// SaveRun persists a run and its items, returning the new run ID.
	SaveRun(run *Run, items []checklist.Item) (int64, error)
	// GetRun loads one run and its items in discovery order.
	GetRun(id int64) (*Run, []checklist.Item, error)
	// LastRun loads the most recent run for a module, or ErrNotFound.
	LastRun(moduleName string) (*Run, []checklist.Item, error)
	// ListRuns returns all runs, newest first, without items.
	ListRuns() ([]*Run, error)
	Close() error
}
