package checklist

// Category classifies a conversion item by the kind of Ansible artifact it
// produces. Categories drive report grouping and target naming only; the
// write/validate loop treats every item the same way.
type Category string

const (
	CategoryTemplate   Category = "Template"
	CategoryTask       Category = "Task"
	CategoryVariable   Category = "Variable"
	CategoryStaticFile Category = "StaticFile"
	CategoryStructure  Category = "Structure"
)

// Categories returns all categories in report order.
func Categories() []Category {
	return []Category{
		CategoryTemplate,
		CategoryTask,
		CategoryVariable,
		CategoryStaticFile,
		CategoryStructure,
	}
}

// Status is the reconciliation status of a conversion item.
type Status string

const (
	// StatusPending means the item never reached the write loop (or the run
	// was aborted before it became terminal).
	StatusPending Status = "pending"
	// StatusComplete means the item was written and passed validation.
	StatusComplete Status = "complete"
	// StatusMissing means the write budget was exhausted without ever
	// producing content.
	StatusMissing Status = "missing"
	// StatusError means content was produced but never confirmed correct
	// before the validation budget ran out.
	StatusError Status = "error"
)

// Terminal reports whether the status ends the item's processing.
func (s Status) Terminal() bool {
	return s == StatusComplete || s == StatusMissing || s == StatusError
}

// Item is one source-artifact-to-target-artifact mapping tracked by the
// checklist, with its status and attempt counters.
type Item struct {
	SourcePath string   `json:"source_path"`
	TargetPath string   `json:"target_path"`
	Category   Category `json:"category"`
	Status     Status   `json:"status"`

	// Note holds the last outcome description, rendered in reports.
	Note string `json:"note,omitempty"`

	WriteAttempts      int `json:"write_attempts"`
	ValidationAttempts int `json:"validation_attempts"`

	// Content retains the last successfully produced content. Kept even for
	// error items so an unverified conversion can be inspected by hand.
	Content string `json:"-"`
}

// Produced reports whether any write attempt ever yielded content.
func (it *Item) Produced() bool {
	return it.Content != ""
}
