package resolve

import (
	"context"
	"errors"
	"log/slog"
	"runtime"

	"golang.org/x/sync/errgroup"

	"github.com/meigma/unpack/metadata"
)

// Option configures ResolveAll.
type Option func(*config)

type config struct {
	concurrency int
	logger      *slog.Logger
}

// WithConcurrency bounds how many sections resolve at once.
// Values < 1 use GOMAXPROCS.
func WithConcurrency(n int) Option {
	return func(c *config) {
		c.concurrency = n
	}
}

// WithLogger sets the logger for resolution events.
// If not set, logging is disabled.
func WithLogger(logger *slog.Logger) Option {
	return func(c *config) {
		c.logger = logger
	}
}

// ResolveAll resolves every section of md. Sections share nothing, so they
// resolve as independent tasks.
//
// The returned slice has one entry per section; entries for sections that
// failed are nil. Failures are returned joined, each as a *SectionError, and
// never prevent other sections from resolving. ResolveAll only stops early
// when ctx is canceled.
func ResolveAll(ctx context.Context, md metadata.Metadata, opts ...Option) ([]*Plan, error) {
	cfg := config{}
	for _, opt := range opts {
		opt(&cfg)
	}
	if cfg.concurrency < 1 {
		cfg.concurrency = runtime.GOMAXPROCS(0)
	}
	logger := cfg.logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	table := md.FileSections()
	plans := make([]*Plan, md.NumSections())
	errs := make([]error, md.NumSections())

	var g errgroup.Group
	g.SetLimit(cfg.concurrency)
	for i := range md.NumSections() {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			plan, err := Resolve(table, md.Section(i))
			if err != nil {
				logger.Debug("section resolution failed", "section", i, "error", err)
				errs[i] = &SectionError{Section: i, Err: err}
				return nil
			}
			logger.Debug("section resolved", "section", i, "steps", plan.NumSteps(), "levels", len(plan.levels))
			plans[i] = plan
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return plans, errors.Join(errs...)
}
