package format

import (
	"fmt"
	"time"

	"x2ansible/internal/checklist"
	"x2ansible/internal/store"
)

// ItemTable renders one row per conversion item with a totals footer.
func ItemTable(m Mode, items []checklist.Item) string {
	t := NewTable(m)
	t.Header("Source", "Target", "Category", "Status", "W", "V", "Note")
	t.RightAlign(5, 6)

	var writes, validations int
	for _, it := range items {
		t.Row(it.SourcePath, it.TargetPath, string(it.Category),
			StatusMark(it.Status)+" "+string(it.Status),
			it.WriteAttempts, it.ValidationAttempts, Truncate(it.Note, 60))
		writes += it.WriteAttempts
		validations += it.ValidationAttempts
	}
	t.Footer("", "", "", fmt.Sprintf("%d items", len(items)), writes, validations, "")
	return t.String()
}

// RunTable renders the run history, one row per recorded run.
func RunTable(m Mode, runs []*store.Run) string {
	t := NewTable(m)
	t.Header("ID", "Module", "Tech", "Finished", "Total", "Done", "Err", "Duration", "Result")
	t.RightAlign(1, 5, 6, 7)

	for _, run := range runs {
		result := "PASS"
		switch {
		case run.FailureReason != "":
			result = "ABORTED"
		case !run.Summary.Succeeded():
			result = "PARTIAL"
		}
		t.Row(run.ID, run.ModuleName, run.Technology, run.FinishedAt,
			run.Summary.Total, run.Summary.Completed, run.Summary.Errors,
			RunDuration(run), result)
	}
	return t.String()
}

// RunDuration formats the wall time of a run as "Xm Ys" or "Ys". Returns
// "-" when either timestamp is missing or unparseable.
func RunDuration(run *store.Run) string {
	started, err1 := time.Parse(time.RFC3339, run.StartedAt)
	finished, err2 := time.Parse(time.RFC3339, run.FinishedAt)
	if err1 != nil || err2 != nil || finished.Before(started) {
		return "-"
	}
	s := int(finished.Sub(started).Seconds())
	if s >= 60 {
		return fmt.Sprintf("%dm %ds", s/60, s%60)
	}
	return fmt.Sprintf("%ds", s)
}

// StatusMark returns a one-glyph marker for an item status.
func StatusMark(s checklist.Status) string {
	switch s {
	case checklist.StatusComplete:
		return "✓"
	case checklist.StatusMissing, checklist.StatusError:
		return "✗"
	default:
		return "…"
	}
}

// Truncate shortens s to maxLen characters, appending "..." if truncated.
func Truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	if maxLen <= 3 {
		return s[:maxLen]
	}
	return s[:maxLen-3] + "..."
}
