// Package checklist implements the migration bookkeeping core: the
// conversion item data model, the attempt-budgeted write/validate state
// machine, the bounded-concurrency run loop and the reconciliation report.
//
// Content generation and correctness judging are injected capabilities
// (ProduceFunc, ValidateFunc); the package never calls a model or the
// network itself.
package checklist

import (
	"context"
	"fmt"
)

// SourceEntry describes one artifact of the source module inventory.
type SourceEntry struct {
	SourcePath string   `json:"source_path" yaml:"source_path"`
	TargetPath string   `json:"target_path" yaml:"target_path"`
	Category   Category `json:"category" yaml:"category"`
}

// Checklist is the ordered set of conversion items for one module. Item
// order is discovery order and is preserved through the concurrent run into
// the final report.
type Checklist struct {
	ModuleName string `json:"module_name"`
	Items      []Item `json:"items"`

	// FailureReason is set when a fatal collaborator failure aborted the
	// run, leaving non-terminal items pending.
	FailureReason string `json:"failure_reason,omitempty"`
}

// Build creates a checklist from a source inventory. Every entry becomes a
// pending item; duplicate target paths are rejected because two conversions
// must never claim the same destination file.
func Build(moduleName string, inventory []SourceEntry) (*Checklist, error) {
	seen := make(map[string]string, len(inventory))
	items := make([]Item, 0, len(inventory))
	for _, e := range inventory {
		if prev, dup := seen[e.TargetPath]; dup {
			return nil, fmt.Errorf("%w: %s claimed by both %s and %s",
				ErrDuplicateTarget, e.TargetPath, prev, e.SourcePath)
		}
		seen[e.TargetPath] = e.SourcePath
		items = append(items, Item{
			SourcePath: e.SourcePath,
			TargetPath: e.TargetPath,
			Category:   e.Category,
			Status:     StatusPending,
		})
	}
	return &Checklist{ModuleName: moduleName, Items: items}, nil
}

// Done reports whether every item has reached a terminal status.
func (c *Checklist) Done() bool {
	for i := range c.Items {
		if !c.Items[i].Status.Terminal() {
			return false
		}
	}
	return true
}

// ProduceFunc generates target artifact content for an item. In the real
// system this is backed by an LLM-driven writer; tests and the stub adapter
// use deterministic implementations. A returned error normally consumes
// write budget; wrap ErrFatal to abort the run instead.
type ProduceFunc func(ctx context.Context, item *Item) (string, error)

// Verdict is the outcome of one validation attempt.
type Verdict string

const (
	VerdictPass         Verdict = "pass"
	VerdictFail         Verdict = "fail"
	VerdictInconclusive Verdict = "inconclusive"
)

// ValidateFunc judges whether generated content is a faithful conversion of
// the source artifact. The detail string is carried into the item note.
type ValidateFunc func(ctx context.Context, content, sourcePath string) (Verdict, string, error)

// ContentStore persists generated content. A store failure is treated as
// fatal: the destination is unusable, so retrying the producer cannot help.
type ContentStore interface {
	Write(targetPath string, content []byte) error
}
