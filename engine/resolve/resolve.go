// Package resolve runs one resolution step: three parallel category fetches
// followed by the make or model resolver. A failure in any fetch fails the
// whole step; nothing is retried.
package resolve

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/WessleyAI/vehicle-select/engine/domain"
	"github.com/WessleyAI/vehicle-select/engine/selector"
	"github.com/WessleyAI/vehicle-select/pkg/fn"
	"github.com/WessleyAI/vehicle-select/pkg/metrics"
)

// Fetcher is the registry collaborator. One call covers one category.
type Fetcher interface {
	MakesForVehicleType(ctx context.Context, cat domain.Category, year int) ([]domain.RawRecord, error)
	ModelsForMakeYear(ctx context.Context, mk string, year int, cat domain.Category) ([]domain.RawRecord, error)
}

// Service resolves make and model lists from the registry.
type Service struct {
	fetch  Fetcher
	filter *selector.ModelFilter
	log    *slog.Logger
	met    *metrics.Registry
}

// Option configures a Service.
type Option func(*Service)

// WithModelFilter replaces the default model filter.
func WithModelFilter(f *selector.ModelFilter) Option {
	return func(s *Service) { s.filter = f }
}

// WithMetrics records resolution outcomes into reg.
func WithMetrics(reg *metrics.Registry) Option {
	return func(s *Service) { s.met = reg }
}

// New creates a Service.
func New(fetch Fetcher, logger *slog.Logger, opts ...Option) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	s := &Service{
		fetch:  fetch,
		filter: selector.NewModelFilter(selector.DefaultRules()),
		log:    logger,
	}
	for _, o := range opts {
		o(s)
	}
	return s
}

type makesKey struct{ year int }

type modelsKey struct {
	year int
	mk   string
}

// Makes returns the consumer makes registered for year. Errors are
// domain.ErrNoMakes or a *domain.FetchError.
func (s *Service) Makes(ctx context.Context, year int) ([]string, error) {
	start := time.Now()
	stage := fn.TracedStage[makesKey, []string]("resolve.makes", func(ctx context.Context, k makesKey) fn.Result[[]string] {
		in, err := s.fetchAll(ctx, domain.LevelMakes, func(ctx context.Context, cat domain.Category) ([]domain.RawRecord, error) {
			return s.fetch.MakesForVehicleType(ctx, cat, k.year)
		})
		if err != nil {
			return fn.Err[[]string](err)
		}
		makes, err := selector.ResolveMakes(in)
		return fn.FromPair(makes, err)
	})

	makes, err := stage(ctx, makesKey{year: year}).Unwrap()
	s.record(domain.LevelMakes, start, err)
	switch {
	case errors.Is(err, domain.ErrNoMakes):
		s.log.Warn("no makes found", "year", year)
	case err != nil:
		s.log.Error("makes resolution failed", "year", year, "err", err)
	default:
		s.log.Debug("makes resolved", "year", year, "count", len(makes))
	}
	return makes, err
}

// Models returns the offered models of mk for year, always ending with
// the catch-all entry. domain.ErrNoModels accompanies a usable list; a
// *domain.FetchError means there is no list.
func (s *Service) Models(ctx context.Context, year int, mk string) ([]string, error) {
	start := time.Now()
	var models []string
	stage := fn.TracedStage[modelsKey, []string]("resolve.models", func(ctx context.Context, k modelsKey) fn.Result[[]string] {
		in, err := s.fetchAll(ctx, domain.LevelModels, func(ctx context.Context, cat domain.Category) ([]domain.RawRecord, error) {
			return s.fetch.ModelsForMakeYear(ctx, k.mk, k.year, cat)
		})
		if err != nil {
			return fn.Err[[]string](err)
		}
		var rerr error
		models, rerr = s.filter.Resolve(k.mk, in)
		return fn.FromPair(models, rerr)
	})

	_, err := stage(ctx, modelsKey{year: year, mk: mk}).Unwrap()
	s.record(domain.LevelModels, start, err)
	switch {
	case errors.Is(err, domain.ErrNoModels):
		s.log.Warn("no specific models found", "year", year, "make", mk)
		return models, err
	case err != nil:
		s.log.Error("models resolution failed", "year", year, "make", mk, "err", err)
		return nil, err
	}
	s.log.Debug("models resolved", "year", year, "make", mk, "count", len(models)-1)
	return models, nil
}

type categoryFetch func(ctx context.Context, cat domain.Category) ([]domain.RawRecord, error)

// fetchAll issues one call per category concurrently and waits for all.
func (s *Service) fetchAll(ctx context.Context, level domain.Level, f categoryFetch) (domain.CategoryResults, error) {
	calls := make([]func() fn.Result[[]domain.RawRecord], len(domain.Categories))
	for i, cat := range domain.Categories {
		calls[i] = func() fn.Result[[]domain.RawRecord] {
			recs, err := f(ctx, cat)
			if err != nil {
				return fn.Err[[]domain.RawRecord](domain.NewFetchError(level, cat, err))
			}
			return fn.Ok(recs)
		}
	}

	lists, err := fn.FanOutResult(calls...).Unwrap()
	if err != nil {
		return domain.CategoryResults{}, err
	}
	var out domain.CategoryResults
	for i, cat := range domain.Categories {
		out.Set(cat, lists[i])
	}
	return out, nil
}

func (s *Service) record(level domain.Level, start time.Time, err error) {
	if s.met == nil {
		return
	}
	outcome := "ok"
	switch {
	case errors.Is(err, domain.ErrNoMakes), errors.Is(err, domain.ErrNoModels):
		outcome = "empty"
	case err != nil:
		outcome = "fetch_error"
	}
	s.met.Counter(metrics.WithLabels("vselect_resolutions_total", "level", string(level), "outcome", outcome),
		"Resolutions by level and outcome").Inc()
	s.met.Histogram(metrics.WithLabels("vselect_resolution_duration_seconds", "level", string(level)),
		"Resolution latency including the three registry calls", nil).Since(start)
}
