package checklist

import "errors"

var (
	// ErrFatal marks a collaborator failure as non-retriable. Producers,
	// validators and stores wrap it to abort the whole run instead of
	// consuming attempt budget.
	ErrFatal = errors.New("checklist: fatal collaborator failure")

	// ErrDuplicateTarget is returned when two inventory entries map to the
	// same target path.
	ErrDuplicateTarget = errors.New("checklist: duplicate target path")

	// ErrInconsistent is returned by Reconcile when the per-status counts do
	// not add up to the item total. Unreachable if the state machine covers
	// every transition; kept as a tripwire for tests.
	ErrInconsistent = errors.New("checklist: reconciliation law violated")
)
