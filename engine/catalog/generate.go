package catalog

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/WessleyAI/vehicle-select/engine/domain"
	"github.com/WessleyAI/vehicle-select/pkg/fn"
	"github.com/WessleyAI/vehicle-select/pkg/metrics"
)

// Resolver produces the filtered make and model lists.
type Resolver interface {
	Makes(ctx context.Context, year int) ([]string, error)
	Models(ctx context.Context, year int, mk string) ([]string, error)
}

// Generator walks model years and collects resolved makes and models.
type Generator struct {
	res     Resolver
	log     *slog.Logger
	workers int
	retry   fn.RetryOpts
	met     *metrics.Registry
}

// Option configures a Generator.
type Option func(*Generator)

// WithWorkers bounds how many makes of one year resolve concurrently.
func WithWorkers(n int) Option {
	return func(g *Generator) {
		if n > 0 {
			g.workers = n
		}
	}
}

// WithRetry sets the per-resolution retry policy.
func WithRetry(opts fn.RetryOpts) Option {
	return func(g *Generator) { g.retry = opts }
}

// WithMetrics records build progress.
func WithMetrics(reg *metrics.Registry) Option {
	return func(g *Generator) { g.met = reg }
}

// NewGenerator creates a Generator.
func NewGenerator(res Resolver, logger *slog.Logger, opts ...Option) *Generator {
	if logger == nil {
		logger = slog.Default()
	}
	g := &Generator{
		res:     res,
		log:     logger,
		workers: 4,
		retry:   fn.DefaultRetry,
	}
	for _, o := range opts {
		o(g)
	}
	if g.retry.MaxAttempts < 1 {
		g.retry.MaxAttempts = 1
	}
	return g
}

// Build resolves every year in years. Years without makes and makes without
// specific models are skipped. Resolutions that still fail after retries are
// skipped too and returned joined in the error next to the partial catalog.
func (g *Generator) Build(ctx context.Context, years []int) (Catalog, error) {
	cat := Catalog{}
	var failures []error
	for _, year := range years {
		if err := ctx.Err(); err != nil {
			return cat, errors.Join(append(failures, err)...)
		}
		start := time.Now()
		g.log.Info("processing year", "year", year)

		makes, err := g.makes(ctx, year)
		switch {
		case errors.Is(err, domain.ErrNoMakes):
			g.log.Warn("no makes found", "year", year)
			g.count("skipped_year")
			continue
		case err != nil:
			g.log.Error("makes failed", "year", year, "err", err)
			failures = append(failures, fmt.Errorf("year %d: %w", year, err))
			continue
		}
		cat.Set(year, "", nil)

		results := fn.ParMapResult(makes, g.workers, func(mk string) fn.Result[[]string] {
			return g.models(ctx, year, mk)
		})
		for i, r := range results {
			mk := makes[i]
			models, err := r.Unwrap()
			switch {
			case errors.Is(err, domain.ErrNoModels):
				g.log.Warn("no models found", "year", year, "make", mk)
				g.count("skipped_make")
			case err != nil:
				g.log.Error("models failed", "year", year, "make", mk, "err", err)
				failures = append(failures, fmt.Errorf("year %d make %s: %w", year, mk, err))
			default:
				cat.Set(year, mk, models)
				g.count("make")
			}
		}
		if g.met != nil {
			g.met.Histogram("vselect_catalog_year_duration_seconds", "Time to build one catalog year.", nil).Since(start)
		}
	}
	return cat, errors.Join(failures...)
}

func (g *Generator) makes(ctx context.Context, year int) ([]string, error) {
	return g.withRetry(ctx, func(ctx context.Context) ([]string, error) {
		return g.res.Makes(ctx, year)
	})
}

func (g *Generator) models(ctx context.Context, year int, mk string) fn.Result[[]string] {
	models, err := g.withRetry(ctx, func(ctx context.Context) ([]string, error) {
		return g.res.Models(ctx, year, mk)
	})
	return fn.FromPair(models, err)
}

// withRetry retries fetch failures only. Empty results are final.
func (g *Generator) withRetry(ctx context.Context, call func(context.Context) ([]string, error)) ([]string, error) {
	opts := g.retry
	opts.Retryable = func(err error) bool { return errors.Is(err, domain.ErrFetch) }
	return fn.Retry(ctx, opts, func(ctx context.Context) fn.Result[[]string] {
		list, err := call(ctx)
		return fn.FromPair(list, err)
	}).Unwrap()
}

func (g *Generator) count(what string) {
	if g.met == nil {
		return
	}
	g.met.Counter(metrics.WithLabels("vselect_catalog_entries_total", "kind", what), "Catalog build entries by kind.").Inc()
}
