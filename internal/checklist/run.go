package checklist

import (
	"context"
	"sync"

	"golang.org/x/sync/errgroup"

	"x2ansible/internal/logging"
)

// RunConfig configures one checklist run.
type RunConfig struct {
	Budgets     Budgets
	Concurrency int // number of parallel item workers; <=1 means serial

	Produce  ProduceFunc
	Validate ValidateFunc
	Store    ContentStore
}

// Run processes every pending item of the checklist to a terminal status,
// mutating the checklist in place. Items are independent, so they are
// processed by a bounded worker pool; each worker owns one item at a time
// and runs its full write/validate loop before picking the next. Results
// land in the item's original slot, preserving discovery order in the
// report regardless of completion order.
//
// A fatal collaborator failure cancels the remaining work: items that have
// not reached a terminal status stay pending, the failure reason is
// recorded on the checklist and returned.
func Run(ctx context.Context, cl *Checklist, cfg RunConfig) error {
	logger := logging.New("checklist")
	if cfg.Concurrency < 1 {
		cfg.Concurrency = 1
	}

	logger.Info("run started",
		"module", cl.ModuleName,
		"items", len(cl.Items),
		"workers", cfg.Concurrency,
		"max_write_attempts", cfg.Budgets.MaxWriteAttempts,
		"max_validation_attempts", cfg.Budgets.MaxValidationAttempts)

	// Guards item slots against a worker finishing while another starts;
	// each slot still has a single writer at a time.
	var mu sync.Mutex

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(cfg.Concurrency)

	for i := range cl.Items {
		g.Go(func() error {
			mu.Lock()
			item := cl.Items[i]
			mu.Unlock()

			m := NewMachine(cfg.Budgets, cfg.Produce, cfg.Validate, cfg.Store)
			err := m.Run(gctx, &item)

			mu.Lock()
			cl.Items[i] = item
			mu.Unlock()

			if err != nil {
				logger.Error("item aborted", "source", item.SourcePath, "error", err)
				return err
			}
			logger.Info("item finished",
				"source", item.SourcePath,
				"status", string(item.Status),
				"write_attempts", item.WriteAttempts,
				"validation_attempts", item.ValidationAttempts)
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		cl.FailureReason = err.Error()
		logger.Error("run aborted", "module", cl.ModuleName, "reason", cl.FailureReason)
		return err
	}

	logger.Info("run finished", "module", cl.ModuleName)
	return nil
}
