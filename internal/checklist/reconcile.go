package checklist

import "fmt"

// SummaryReport aggregates terminal item statuses and attempt totals for
// one checklist. Total always equals Completed+Pending+Missing+Errors.
type SummaryReport struct {
	Total     int `json:"total"`
	Completed int `json:"completed"`
	Pending   int `json:"pending"`
	Missing   int `json:"missing"`
	Errors    int `json:"errors"`

	WriteAttempts      int `json:"write_attempts"`
	ValidationAttempts int `json:"validation_attempts"`
}

// Succeeded reports whether every item completed.
func (r SummaryReport) Succeeded() bool {
	return r.Completed == r.Total
}

// Reconcile walks the checklist and aggregates counts. It is a pure read:
// the checklist is never mutated, so it can run on a live snapshot or a
// finished run alike. ErrInconsistent is returned if an item carries a
// status outside the known set, which would break the reconciliation law.
func Reconcile(cl *Checklist) (SummaryReport, error) {
	r := SummaryReport{Total: len(cl.Items)}
	for i := range cl.Items {
		it := &cl.Items[i]
		r.WriteAttempts += it.WriteAttempts
		r.ValidationAttempts += it.ValidationAttempts
		switch it.Status {
		case StatusComplete:
			r.Completed++
		case StatusPending:
			r.Pending++
		case StatusMissing:
			r.Missing++
		case StatusError:
			r.Errors++
		default:
			return SummaryReport{}, fmt.Errorf("%w: item %s has status %q",
				ErrInconsistent, it.SourcePath, it.Status)
		}
	}
	if r.Total != r.Completed+r.Pending+r.Missing+r.Errors {
		return SummaryReport{}, fmt.Errorf("%w: %d items, %d classified",
			ErrInconsistent, r.Total, r.Completed+r.Pending+r.Missing+r.Errors)
	}
	return r, nil
}
