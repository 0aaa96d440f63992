package checklist

import (
	"context"
	"fmt"
)

// Phase is an internal state of the per-item machine. Phases are distinct
// from Item.Status: the status only changes when the machine reaches a
// terminal phase, so an aborted run leaves items pending rather than
// half-transitioned.
type Phase string

const (
	PhaseNotStarted   Phase = "not_started"
	PhaseWriting      Phase = "writing"
	PhaseWritten      Phase = "written"
	PhaseValidating   Phase = "validating"
	PhaseNeedsRewrite Phase = "needs_rewrite"
	PhaseComplete     Phase = "complete"
	PhaseMissing      Phase = "missing"
	PhaseError        Phase = "error"
)

// Budgets caps the retry loops of one item.
type Budgets struct {
	MaxWriteAttempts      int
	MaxValidationAttempts int
}

// DefaultBudgets matches the production defaults of the migration agent.
func DefaultBudgets() Budgets {
	return Budgets{MaxWriteAttempts: 3, MaxValidationAttempts: 3}
}

// Machine binds write and validation outcomes to status transitions for a
// single item. One machine instance is owned by exactly one worker at a
// time; it never touches other items.
type Machine struct {
	Budgets  Budgets
	Produce  ProduceFunc
	Validate ValidateFunc
	Writer   *WriteController
	Verifier *ValidationController
}

// NewMachine wires a machine with its two controllers.
func NewMachine(budgets Budgets, produce ProduceFunc, validate ValidateFunc, store ContentStore) *Machine {
	return &Machine{
		Budgets:  budgets,
		Produce:  produce,
		Validate: validate,
		Writer:   &WriteController{Store: store},
		Verifier: &ValidationController{},
	}
}

// Run drives the item from not-started to a terminal status:
//
//	NotStarted → Writing → Written → Validating → {Complete | NeedsRewrite | Missing | Error}
//
// A validation failure loops back to Writing (full rewrite); the write
// budget is shared across the whole item lifetime, not reset per round.
// Exhausting the write budget without ever producing content classifies
// the item missing; exhausting either budget once content exists
// classifies it error. The returned error is non-nil only for fatal
// collaborator failures, in which case the item stays non-terminal.
func (m *Machine) Run(ctx context.Context, item *Item) error {
	if item.Status.Terminal() {
		return nil
	}

	phase := PhaseWriting
	var content string

	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		switch phase {
		case PhaseWriting:
			if item.WriteAttempts >= m.Budgets.MaxWriteAttempts {
				// Write budget gone. Missing only if nothing was ever
				// produced; otherwise content exists but is unverified.
				if item.Produced() {
					finish(item, StatusError, "write budget exhausted before validation passed")
				} else {
					finish(item, StatusMissing, "write budget exhausted, no content produced")
				}
				return nil
			}
			out, err := m.Writer.Attempt(ctx, item, m.Produce)
			if err != nil {
				return err
			}
			if !out.Success {
				item.Note = out.ErrorDetail
				// stay in Writing; the budget check above bounds the loop
				continue
			}
			content = out.Content
			phase = PhaseWritten

		case PhaseWritten:
			phase = PhaseValidating

		case PhaseValidating:
			out, err := m.Verifier.Attempt(ctx, item, content, m.Validate)
			if err != nil {
				return err
			}
			if out.Verdict == VerdictPass {
				note := out.Detail
				if note == "" {
					note = "validated"
				}
				finish(item, StatusComplete, note)
				return nil
			}
			if item.ValidationAttempts >= m.Budgets.MaxValidationAttempts {
				finish(item, StatusError, fmt.Sprintf("validation budget exhausted: %s", out.Detail))
				return nil
			}
			item.Note = out.Detail
			phase = PhaseNeedsRewrite

		case PhaseNeedsRewrite:
			// Full rewrite: regenerate content on the shared write budget.
			phase = PhaseWriting

		default:
			return fmt.Errorf("checklist: unexpected phase %q for %s", phase, item.SourcePath)
		}
	}
}

// finish sets the terminal status and note in one place so counters are
// frozen exactly when the status becomes terminal.
func finish(item *Item, status Status, note string) {
	item.Status = status
	item.Note = note
}
