// Package main implements the vehicle selection API server.
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/nats-io/nats.go"

	"github.com/WessleyAI/vehicle-select/engine/domain"
	"github.com/WessleyAI/vehicle-select/engine/resolve"
	"github.com/WessleyAI/vehicle-select/engine/vpic"
	"github.com/WessleyAI/vehicle-select/internal/config"
	"github.com/WessleyAI/vehicle-select/internal/logging"
	"github.com/WessleyAI/vehicle-select/pkg/metrics"
	"github.com/WessleyAI/vehicle-select/pkg/mid"
	"github.com/WessleyAI/vehicle-select/pkg/natsutil"
	"github.com/WessleyAI/vehicle-select/pkg/resilience"
)

func main() {
	cfg, err := config.Load(nil, os.Getenv("VSELECT_CONFIG"))
	if err != nil {
		fmt.Fprintln(os.Stderr, "config:", err)
		os.Exit(1)
	}
	logger := logging.Setup(cfg)

	if err := run(cfg, logger); err != nil {
		logger.Error("server exited with error", "err", err)
		os.Exit(1)
	}
}

func run(cfg *config.Config, logger *slog.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	met := metrics.New()

	// --- Upstream registry ---
	client := vpic.New(vpicConfig(cfg, logger), vpic.WithMetrics(met))
	svc := resolve.New(client, logger, resolve.WithMetrics(met))

	// --- Selection sink ---
	sink := logSink(logger)
	if cfg.NATSURL != "" {
		nc, err := nats.Connect(cfg.NATSURL, nats.Name("vselect-api"), nats.MaxReconnects(-1))
		if err != nil {
			return fmt.Errorf("nats connect: %w", err)
		}
		defer nc.Drain()
		sink = natsSink(nc, cfg.NATSSubject, logger)
		logger.Info("publishing selections", "url", cfg.NATSURL, "subject", cfg.NATSSubject)
	}

	srv := newServer(svc, logger, met,
		withSink(sink),
		withBreakerState(func() string { return client.BreakerState().String() }),
	)

	var limiter *resilience.Limiter
	if cfg.RateLimit > 0 {
		limiter = resilience.NewLimiter(resilience.LimiterOpts{Rate: cfg.RateLimit, Burst: cfg.RateBurst})
	}

	handler := mid.Chain(srv.routes(),
		mid.Recover(logger),
		mid.RequestID(),
		mid.Logger(logger),
		mid.CORS(cfg.CORSOrigin),
		mid.OTel("vselect-api"),
		mid.RateLimit(limiter),
	)

	httpSrv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      handler,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	// --- Graceful shutdown ---
	errCh := make(chan error, 1)
	go func() {
		logger.Info("api server starting", "port", cfg.Port, "config", cfg.ConfigFile)
		errCh <- httpSrv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
	case <-ctx.Done():
		logger.Info("shutdown signal received")
	}

	shutCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return httpSrv.Shutdown(shutCtx)
}

func vpicConfig(cfg *config.Config, logger *slog.Logger) vpic.Config {
	vc := cfg.VPIC()
	vc.Breaker.OnStateChange = func(from, to resilience.State) {
		logger.Warn("vpic circuit breaker", "from", from.String(), "to", to.String())
	}
	return vc
}

// SelectionEvent is published for every finalized selection.
type SelectionEvent struct {
	Year       int       `json:"year"`
	Make       string    `json:"make"`
	Model      string    `json:"model"`
	SelectedAt time.Time `json:"selected_at"`
}

func newSelectionEvent(v domain.Vehicle) SelectionEvent {
	return SelectionEvent{Year: v.Year, Make: v.Make, Model: v.Model, SelectedAt: time.Now().UTC()}
}

type selectionSink func(context.Context, domain.Vehicle) error

func logSink(logger *slog.Logger) selectionSink {
	return func(ctx context.Context, v domain.Vehicle) error {
		logger.InfoContext(ctx, "vehicle selected", "year", v.Year, "make", v.Make, "model", v.Model)
		return nil
	}
}

func natsSink(p natsutil.MsgPublisher, subject string, logger *slog.Logger) selectionSink {
	return func(ctx context.Context, v domain.Vehicle) error {
		if err := natsutil.Publish(ctx, p, subject, newSelectionEvent(v)); err != nil {
			return err
		}
		logger.DebugContext(ctx, "selection published", "subject", subject, "year", v.Year, "make", v.Make, "model", v.Model)
		return nil
	}
}
