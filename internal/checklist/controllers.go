package checklist

import (
	"context"
	"errors"
	"fmt"
)

// WriteOutcome is returned by one write attempt.
type WriteOutcome struct {
	Success     bool
	Content     string
	ErrorDetail string
}

// WriteController drives a single "produce target content" attempt. It is
// stateless beyond mutating the passed item's counter; the caller owns the
// budget check before re-invoking.
type WriteController struct {
	Store ContentStore
}

// Attempt calls produce exactly once and increments the item's write
// counter. On success the content is persisted to the item's target path.
// The returned error is non-nil only for fatal failures (ErrFatal from the
// producer, or a store write failure); everything else is reported through
// the outcome and consumes budget.
func (wc *WriteController) Attempt(ctx context.Context, item *Item, produce ProduceFunc) (WriteOutcome, error) {
	item.WriteAttempts++

	content, err := produce(ctx, item)
	if err != nil {
		if errors.Is(err, ErrFatal) {
			return WriteOutcome{}, fmt.Errorf("produce %s: %w", item.SourcePath, err)
		}
		return WriteOutcome{ErrorDetail: err.Error()}, nil
	}
	if content == "" {
		return WriteOutcome{ErrorDetail: "producer returned empty content"}, nil
	}

	if wc.Store != nil {
		if err := wc.Store.Write(item.TargetPath, []byte(content)); err != nil {
			return WriteOutcome{}, fmt.Errorf("persist %s: %w: %w", item.TargetPath, ErrFatal, err)
		}
	}

	item.Content = content
	return WriteOutcome{Success: true, Content: content}, nil
}

// ValidationOutcome is returned by one validation attempt.
type ValidationOutcome struct {
	Verdict Verdict
	Detail  string
}

// ValidationController drives a single "judge correctness" attempt over
// content already produced by the write loop.
type ValidationController struct{}

// Attempt calls validate exactly once and increments the item's validation
// counter. A validator error is downgraded to an inconclusive verdict: it
// consumes budget but is not progress. Only ErrFatal aborts.
func (vc *ValidationController) Attempt(ctx context.Context, item *Item, content string, validate ValidateFunc) (ValidationOutcome, error) {
	item.ValidationAttempts++

	verdict, detail, err := validate(ctx, content, item.SourcePath)
	if err != nil {
		if errors.Is(err, ErrFatal) {
			return ValidationOutcome{}, fmt.Errorf("validate %s: %w", item.SourcePath, err)
		}
		return ValidationOutcome{Verdict: VerdictInconclusive, Detail: err.Error()}, nil
	}
	return ValidationOutcome{Verdict: verdict, Detail: detail}, nil
}
