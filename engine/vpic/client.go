// Package vpic is the NHTSA vPIC registry client that supplies raw make and
// model records per vehicle category.
package vpic

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"golang.org/x/time/rate"

	"github.com/WessleyAI/vehicle-select/engine/domain"
	"github.com/WessleyAI/vehicle-select/pkg/metrics"
	"github.com/WessleyAI/vehicle-select/pkg/resilience"
)

// DefaultBaseURL is the public vPIC vehicles API.
const DefaultBaseURL = "https://vpic.nhtsa.dot.gov/api/vehicles"

const userAgent = "wessley-vehicle-select/1.0 (vehicle selection)"

// Config controls client behavior.
type Config struct {
	BaseURL   string
	Timeout   time.Duration
	RateLimit time.Duration // minimum spacing between calls; 0 disables
	Burst     int
	Breaker   resilience.BreakerOpts
}

// DefaultConfig returns production settings. The half-open breaker lets
// one full resolution step (a call per category) through as its probe.
func DefaultConfig() Config {
	breaker := resilience.DefaultBreakerOpts
	breaker.HalfOpenMax = len(domain.Categories)
	return Config{
		BaseURL:   DefaultBaseURL,
		Timeout:   15 * time.Second,
		RateLimit: 50 * time.Millisecond,
		Burst:     6,
		Breaker:   breaker,
	}
}

// Client issues single-category registry calls. Safe for concurrent use.
type Client struct {
	baseURL string
	http    *http.Client
	limiter *rate.Limiter
	breaker *resilience.Breaker
	met     *metrics.Registry
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the underlying HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.http = hc }
}

// WithMetrics records upstream call counters into reg.
func WithMetrics(reg *metrics.Registry) Option {
	return func(c *Client) { c.met = reg }
}

// New creates a Client.
func New(cfg Config, opts ...Option) *Client {
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 15 * time.Second
	}
	limit := rate.Inf
	if cfg.RateLimit > 0 {
		limit = rate.Every(cfg.RateLimit)
	}
	if cfg.Burst <= 0 {
		cfg.Burst = len(domain.Categories)
	}
	c := &Client{
		baseURL: cfg.BaseURL,
		http:    &http.Client{Timeout: cfg.Timeout},
		limiter: rate.NewLimiter(limit, cfg.Burst),
		breaker: resilience.NewBreaker(cfg.Breaker),
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

// response is the vPIC envelope shared by every endpoint.
type response struct {
	Count          int                `json:"Count"`
	Message        string             `json:"Message"`
	SearchCriteria string             `json:"SearchCriteria"`
	Results        []domain.RawRecord `json:"Results"`
}

// MakesForVehicleType lists makes registered for a category and model year.
func (c *Client) MakesForVehicleType(ctx context.Context, cat domain.Category, year int) ([]domain.RawRecord, error) {
	u := fmt.Sprintf("%s/GetMakesForVehicleType/%s?year=%d&format=json",
		c.baseURL, url.PathEscape(string(cat)), year)
	return c.get(ctx, "makes", cat, u)
}

// ModelsForMakeYear lists models of mk registered for a model year and category.
func (c *Client) ModelsForMakeYear(ctx context.Context, mk string, year int, cat domain.Category) ([]domain.RawRecord, error) {
	u := fmt.Sprintf("%s/GetModelsForMakeYear/make/%s/modelyear/%d/vehicletype/%s?format=json",
		c.baseURL, url.PathEscape(mk), year, url.PathEscape(string(cat)))
	return c.get(ctx, "models", cat, u)
}

func (c *Client) get(ctx context.Context, endpoint string, cat domain.Category, u string) ([]domain.RawRecord, error) {
	ctx, span := otel.Tracer("engine/vpic").Start(ctx, "vpic."+endpoint)
	defer span.End()
	span.SetAttributes(attribute.String("vpic.category", string(cat)))

	start := time.Now()
	var recs []domain.RawRecord
	err := c.breaker.Call(ctx, func(ctx context.Context) error {
		if err := c.limiter.Wait(ctx); err != nil {
			return err
		}
		var err error
		recs, err = c.do(ctx, u)
		return err
	})
	c.observe(endpoint, start, err)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, fmt.Errorf("vpic %s %q: %w", endpoint, cat, err)
	}
	span.SetAttributes(attribute.Int("vpic.results", len(recs)))
	return recs, nil
}

func (c *Client) do(ctx context.Context, u string) ([]domain.RawRecord, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read body: %w", err)
	}

	var r response
	if err := json.Unmarshal(body, &r); err != nil {
		return nil, fmt.Errorf("decode: %w", err)
	}
	return r.Results, nil
}

func (c *Client) observe(endpoint string, start time.Time, err error) {
	if c.met == nil {
		return
	}
	outcome := "ok"
	if err != nil {
		outcome = "error"
	}
	c.met.Counter(metrics.WithLabels("vselect_vpic_requests_total", "endpoint", endpoint, "outcome", outcome),
		"vPIC calls by endpoint and outcome").Inc()
	c.met.Histogram(metrics.WithLabels("vselect_vpic_request_duration_seconds", "endpoint", endpoint),
		"vPIC call latency", nil).Since(start)
	c.met.Gauge("vselect_vpic_breaker_state", "vPIC circuit breaker state (0 closed, 1 open, 2 half-open)").
		Set(int64(c.breaker.State()))
}

// BreakerState reports the upstream circuit breaker state.
func (c *Client) BreakerState() resilience.State { return c.breaker.State() }
