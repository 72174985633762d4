// Package session holds one user's cascading year/make/model selection and
// drives resolution as the selection narrows.
//
// Resolutions are not cancelled when superseded. Makes and models each carry
// a generation counter: choosing a year bumps both, choosing or clearing a
// make bumps only the models counter. A completion whose generation is no
// longer current is discarded so a slow, stale response never overwrites a
// newer selection.
package session

import (
	"context"
	"errors"
	"log/slog"
	"slices"
	"sync"
	"time"

	"github.com/WessleyAI/vehicle-select/engine/domain"
)

// Status is the user-visible resolution state.
type Status string

const (
	StatusIdle     Status = "idle"
	StatusLoading  Status = "loading"
	StatusResolved Status = "resolved"
	StatusError    Status = "error"
)

// Resolver produces the make and model lists. *resolve.Service satisfies it.
type Resolver interface {
	Makes(ctx context.Context, year int) ([]string, error)
	Models(ctx context.Context, year int, mk string) ([]string, error)
}

// View is a snapshot of the selection and its lists.
type View struct {
	Year    int      `json:"year,omitempty"`
	Make    string   `json:"make,omitempty"`
	Model   string   `json:"model,omitempty"`
	Makes   []string `json:"makes"`
	Models  []string `json:"models"`
	Status  Status   `json:"status"`
	Message string   `json:"message,omitempty"`
}

// Loading reports whether dependent selectors should be disabled.
func (v View) Loading() bool { return v.Status == StatusLoading }

// Selector is safe for concurrent use.
type Selector struct {
	mu       sync.Mutex
	res      Resolver
	log      *slog.Logger
	now      func() time.Time
	onSelect func(context.Context, domain.Vehicle) error

	makesGen     uint64
	modelsGen    uint64
	makesPending bool
	view         View
}

// Option configures a Selector.
type Option func(*Selector)

// WithOnSelect registers the callback fired with the finalized triple.
func WithOnSelect(f func(context.Context, domain.Vehicle) error) Option {
	return func(s *Selector) { s.onSelect = f }
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(s *Selector) { s.log = l }
}

// WithClock overrides the clock used for year bounds.
func WithClock(now func() time.Time) Option {
	return func(s *Selector) { s.now = now }
}

// New creates an idle Selector.
func New(res Resolver, opts ...Option) *Selector {
	s := &Selector{
		res:  res,
		log:  slog.Default(),
		now:  time.Now,
		view: View{Status: StatusIdle},
	}
	for _, o := range opts {
		o(s)
	}
	return s
}

// View returns the current snapshot.
func (s *Selector) View() View {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshot()
}

// Years lists the selectable model years, newest first.
func (s *Selector) Years() []int {
	return domain.ModelYears(s.now())
}

// SelectYear sets the year, clears make and model, and resolves makes.
// Year 0 clears the whole selection.
func (s *Selector) SelectYear(ctx context.Context, year int) (View, error) {
	if year == 0 {
		s.mu.Lock()
		defer s.mu.Unlock()
		s.makesGen++
		s.modelsGen++
		s.makesPending = false
		s.view = View{Status: StatusIdle}
		return s.snapshot(), nil
	}
	if err := domain.ValidateYear(year, s.now()); err != nil {
		return s.View(), err
	}

	s.mu.Lock()
	s.makesGen++
	s.modelsGen++
	gen := s.makesGen
	s.makesPending = true
	s.view = View{Year: year, Status: StatusLoading}
	s.mu.Unlock()

	makes, err := s.res.Makes(ctx, year)

	s.mu.Lock()
	defer s.mu.Unlock()
	if gen != s.makesGen {
		s.log.Debug("discarding stale makes", "year", year)
		return s.snapshot(), nil
	}
	s.makesPending = false
	if err != nil {
		s.view.Makes = nil
		s.view.Status = StatusError
		s.view.Message = domain.UserMessage(domain.LevelMakes, err)
	} else {
		s.view.Makes = makes
		s.view.Status = StatusResolved
	}
	return s.snapshot(), nil
}

// SelectMake sets the make, clears the model, and resolves models. An
// empty make clears make and model; a makes load still running for the
// current year is unaffected.
func (s *Selector) SelectMake(ctx context.Context, mk string) (View, error) {
	s.mu.Lock()
	year := s.view.Year
	if mk == "" || year == 0 {
		s.clearMake()
		v := s.snapshot()
		s.mu.Unlock()
		if mk != "" {
			return v, domain.NewValidationError("year", "", domain.ErrIncompleteSelection)
		}
		return v, nil
	}
	if !slices.Contains(s.view.Makes, mk) {
		v := s.snapshot()
		s.mu.Unlock()
		return v, domain.NewValidationError("make", mk, domain.ErrUnsupportedMake)
	}
	s.modelsGen++
	gen := s.modelsGen
	s.view.Make, s.view.Model, s.view.Models = mk, "", nil
	s.view.Status, s.view.Message = StatusLoading, ""
	s.mu.Unlock()

	models, err := s.res.Models(ctx, year, mk)

	s.mu.Lock()
	defer s.mu.Unlock()
	if gen != s.modelsGen {
		s.log.Debug("discarding stale models", "year", year, "make", mk)
		return s.snapshot(), nil
	}
	switch {
	case errors.Is(err, domain.ErrNoModels):
		s.view.Models = models
		s.view.Status = StatusError
		s.view.Message = domain.MsgNoModels
	case err != nil:
		s.view.Models = nil
		s.view.Status = StatusError
		s.view.Message = domain.UserMessage(domain.LevelModels, err)
	default:
		s.view.Models = models
		s.view.Status = StatusResolved
	}
	return s.snapshot(), nil
}

// SelectModel finalizes the selection and notifies the consumer callback.
func (s *Selector) SelectModel(ctx context.Context, model string) (View, error) {
	s.mu.Lock()
	if s.view.Year == 0 || s.view.Make == "" || s.view.Loading() {
		v := s.snapshot()
		s.mu.Unlock()
		return v, domain.NewValidationError("make", v.Make, domain.ErrIncompleteSelection)
	}
	if !slices.Contains(s.view.Models, model) {
		v := s.snapshot()
		s.mu.Unlock()
		return v, domain.NewValidationError("model", model, domain.ErrUnknownModel)
	}
	s.view.Model = model
	v := s.snapshot()
	cb := s.onSelect
	s.mu.Unlock()

	if cb != nil {
		vehicle := domain.Vehicle{Year: v.Year, Make: v.Make, Model: v.Model}
		if err := cb(ctx, vehicle); err != nil {
			s.log.Error("selection callback failed", "year", v.Year, "make", v.Make, "model", v.Model, "err", err)
			return v, err
		}
	}
	return v, nil
}

// clearMake drops make, model and models and settles the status on what
// the makes level shows. Must hold mu.
func (s *Selector) clearMake() {
	s.modelsGen++
	s.view.Make, s.view.Model, s.view.Models = "", "", nil
	switch {
	case s.makesPending:
		// the makes load for this year completes the status
	case s.view.Year == 0:
		s.view.Status, s.view.Message = StatusIdle, ""
	case s.view.Makes != nil:
		s.view.Status, s.view.Message = StatusResolved, ""
	}
}

// snapshot copies the view. Must hold mu.
func (s *Selector) snapshot() View {
	v := s.view
	v.Makes = slices.Clone(s.view.Makes)
	v.Models = slices.Clone(s.view.Models)
	return v
}
