package main

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/WessleyAI/vehicle-select/engine/domain"
	"github.com/WessleyAI/vehicle-select/engine/session"
	"github.com/WessleyAI/vehicle-select/pkg/metrics"
)

// server holds the API dependencies.
type server struct {
	res      session.Resolver
	sessions *session.Store
	log      *slog.Logger
	met      *metrics.Registry
	now      func() time.Time
	sink     selectionSink
	breaker  func() string
}

type serverOption func(*server)

func withSink(s selectionSink) serverOption {
	return func(srv *server) { srv.sink = s }
}

func withBreakerState(f func() string) serverOption {
	return func(srv *server) { srv.breaker = f }
}

func withClock(now func() time.Time) serverOption {
	return func(srv *server) { srv.now = now }
}

func newServer(res session.Resolver, logger *slog.Logger, met *metrics.Registry, opts ...serverOption) *server {
	s := &server{res: res, log: logger, met: met, now: time.Now}
	for _, o := range opts {
		o(s)
	}
	if s.sink == nil {
		s.sink = logSink(logger)
	}
	s.sessions = session.NewStore(func() *session.Selector {
		return session.New(s.res,
			session.WithLogger(s.log),
			session.WithClock(s.now),
			session.WithOnSelect(s.sink),
		)
	})
	return s
}

func (s *server) routes() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/health", s.handleHealth)
	mux.Handle("GET /metrics", s.met.Handler())
	mux.HandleFunc("GET /api/v1/years", s.handleYears)
	mux.HandleFunc("GET /api/v1/makes", s.handleMakes)
	mux.HandleFunc("GET /api/v1/models", s.handleModels)
	mux.HandleFunc("POST /api/v1/sessions", s.handleCreateSession)
	mux.HandleFunc("GET /api/v1/sessions/{id}", s.handleGetSession)
	mux.HandleFunc("DELETE /api/v1/sessions/{id}", s.handleDeleteSession)
	mux.HandleFunc("PUT /api/v1/sessions/{id}/year", s.handleSelectYear)
	mux.HandleFunc("PUT /api/v1/sessions/{id}/make", s.handleSelectMake)
	mux.HandleFunc("PUT /api/v1/sessions/{id}/model", s.handleSelectModel)
	return mux
}

// --- Helpers ---

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

// statusFor maps selection errors onto HTTP status codes.
func statusFor(err error) int {
	switch {
	case errors.Is(err, session.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, domain.ErrIncompleteSelection):
		return http.StatusConflict
	case errors.Is(err, domain.ErrYearOutOfRange),
		errors.Is(err, domain.ErrUnsupportedMake),
		errors.Is(err, domain.ErrUnknownModel):
		return http.StatusBadRequest
	default:
		return http.StatusBadGateway
	}
}

// --- Lookup handlers ---

func (s *server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	resp := map[string]string{"status": "ok"}
	if s.breaker != nil {
		resp["vpic_breaker"] = s.breaker()
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *server) handleYears(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"years": domain.ModelYears(s.now())})
}

// MakesResponse is the body of GET /api/v1/makes.
type MakesResponse struct {
	Year    int      `json:"year"`
	Makes   []string `json:"makes"`
	Message string   `json:"message,omitempty"`
}

func (s *server) handleMakes(w http.ResponseWriter, r *http.Request) {
	year, err := domain.ParseYear(r.URL.Query().Get("year"), s.now())
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	makes, err := s.res.Makes(r.Context(), year)
	resp := MakesResponse{Year: year, Makes: makes, Message: domain.UserMessage(domain.LevelMakes, err)}
	if resp.Makes == nil {
		resp.Makes = []string{}
	}
	status := http.StatusOK
	if err != nil && !errors.Is(err, domain.ErrNoMakes) {
		status = http.StatusBadGateway
	}
	writeJSON(w, status, resp)
}

// ModelsResponse is the body of GET /api/v1/models.
type ModelsResponse struct {
	Year    int      `json:"year"`
	Make    string   `json:"make"`
	Models  []string `json:"models"`
	Message string   `json:"message,omitempty"`
}

func (s *server) handleModels(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	year, err := domain.ParseYear(q.Get("year"), s.now())
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	mk := q.Get("make")
	if err := domain.ValidateMake(mk); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	models, err := s.res.Models(r.Context(), year, mk)
	resp := ModelsResponse{Year: year, Make: mk, Models: models, Message: domain.UserMessage(domain.LevelModels, err)}
	status := http.StatusOK
	if err != nil && !errors.Is(err, domain.ErrNoModels) {
		status = http.StatusBadGateway
		resp.Models = nil
	}
	if resp.Models == nil {
		resp.Models = []string{}
	}
	writeJSON(w, status, resp)
}

// --- Session handlers ---

// SessionResponse wraps a session view with its id.
type SessionResponse struct {
	ID string `json:"id"`
	session.View
}

func (s *server) sessionGauge() {
	s.met.Gauge("vselect_sessions_active", "Live selection sessions.").Set(int64(s.sessions.Len()))
}

func (s *server) handleCreateSession(w http.ResponseWriter, _ *http.Request) {
	id, sel := s.sessions.Create()
	s.sessionGauge()
	writeJSON(w, http.StatusCreated, SessionResponse{ID: id, View: sel.View()})
}

func (s *server) handleGetSession(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	sel, err := s.sessions.Get(id)
	if err != nil {
		writeError(w, http.StatusNotFound, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, SessionResponse{ID: id, View: sel.View()})
}

func (s *server) handleDeleteSession(w http.ResponseWriter, r *http.Request) {
	s.sessions.Delete(r.PathValue("id"))
	s.sessionGauge()
	w.WriteHeader(http.StatusNoContent)
}

type selectRequest struct {
	Year  int    `json:"year"`
	Make  string `json:"make"`
	Model string `json:"model"`
}

// selectHandler decodes the body, looks up the session and applies step.
func (s *server) selectHandler(step func(*session.Selector, *http.Request, selectRequest) (session.View, error)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := r.PathValue("id")
		sel, err := s.sessions.Get(id)
		if err != nil {
			writeError(w, http.StatusNotFound, err.Error())
			return
		}
		var req selectRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}
		view, err := step(sel, r, req)
		if err != nil {
			status := statusFor(err)
			if status == http.StatusBadGateway {
				s.log.Error("selection step failed", "session", id, "err", err)
				writeError(w, status, "selection recorded but could not be delivered")
				return
			}
			writeError(w, status, err.Error())
			return
		}
		writeJSON(w, http.StatusOK, SessionResponse{ID: id, View: view})
	}
}

func (s *server) handleSelectYear(w http.ResponseWriter, r *http.Request) {
	s.selectHandler(func(sel *session.Selector, r *http.Request, req selectRequest) (session.View, error) {
		return sel.SelectYear(r.Context(), req.Year)
	})(w, r)
}

func (s *server) handleSelectMake(w http.ResponseWriter, r *http.Request) {
	s.selectHandler(func(sel *session.Selector, r *http.Request, req selectRequest) (session.View, error) {
		return sel.SelectMake(r.Context(), req.Make)
	})(w, r)
}

func (s *server) handleSelectModel(w http.ResponseWriter, r *http.Request) {
	s.selectHandler(func(sel *session.Selector, r *http.Request, req selectRequest) (session.View, error) {
		return sel.SelectModel(r.Context(), req.Model)
	})(w, r)
}
