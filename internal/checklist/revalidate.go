package checklist

import (
	"context"
	"errors"

	"golang.org/x/sync/errgroup"

	"x2ansible/internal/logging"
)

// ContentLoader reads previously generated content back for re-validation.
type ContentLoader interface {
	Load(targetPath string) ([]byte, error)
}

// RevalidateConfig configures a validation-only pass.
type RevalidateConfig struct {
	Concurrency int
	Validate    ValidateFunc
	Loader      ContentLoader
}

// Revalidate runs a single validation round over an already-migrated
// module without rewriting anything. Each item gets exactly one validation
// attempt: a readable target that passes is complete, one that fails is
// error, an absent target is missing. Used by the standalone validate
// command to re-check a migration after manual edits.
func Revalidate(ctx context.Context, cl *Checklist, cfg RevalidateConfig) error {
	logger := logging.New("checklist")
	if cfg.Concurrency < 1 {
		cfg.Concurrency = 1
	}

	vc := &ValidationController{}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(cfg.Concurrency)
	for i := range cl.Items {
		g.Go(func() error {
			item := &cl.Items[i]

			data, err := cfg.Loader.Load(item.TargetPath)
			if err != nil {
				finish(item, StatusMissing, "target artifact not found")
				return nil
			}
			item.Content = string(data)

			out, err := vc.Attempt(gctx, item, item.Content, cfg.Validate)
			if err != nil {
				return err
			}
			switch out.Verdict {
			case VerdictPass:
				note := out.Detail
				if note == "" {
					note = "validated"
				}
				finish(item, StatusComplete, note)
			default:
				finish(item, StatusError, out.Detail)
			}
			logger.Info("revalidated", "target", item.TargetPath, "status", string(item.Status))
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		if errors.Is(err, ErrFatal) {
			cl.FailureReason = err.Error()
		}
		return err
	}
	return nil
}
