package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"runtime"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/okian/gradeadjust/internal/adapters/http/api"
	"github.com/okian/gradeadjust/internal/adapters/http/swagger"
	app "github.com/okian/gradeadjust/internal/app"
	"github.com/okian/gradeadjust/internal/config"
	"github.com/okian/gradeadjust/internal/domain/grading"
	"github.com/okian/gradeadjust/pkg/logger"
	"github.com/okian/gradeadjust/pkg/metrics"
)

// HTTP server timeout constants.
const (
	readTimeout               = 10 * time.Second
	writeTimeout              = 10 * time.Second
	idleTimeout               = 60 * time.Second
	readHeaderTimeout         = 5 * time.Second
	shutdownTimeout           = 30 * time.Second
	nanosecondsPerMillisecond = 1e6
)

func main() {
	// Root context with cancel on SIGINT/SIGTERM.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx); err != nil {
		_, _ = fmt.Fprintln(os.Stderr, err)
		stop()
		os.Exit(1)
	}
}

func run(ctx context.Context) error {
	// Load configuration (defaults -> .env -> optional file -> env)
	cfg, err := config.Load(ctx)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	if err := logger.InitWith(os.Stdout, cfg.LogFormat); err != nil {
		return fmt.Errorf("failed to initialize logging: %w", err)
	}
	defer func() { _ = logger.Sync() }()

	log := logger.Get()

	// Apply configured log level (fallback to info on invalid input)
	if err := logger.SetLevelString(cfg.LogLevel); err != nil {
		log.Warn(ctx, "invalid log_level; falling back to info", logger.String("log_level", cfg.LogLevel), logger.Error(err))
		_ = logger.SetLevelString("info")
	}

	rules, err := grading.New(cfg.GradingOptions()...)
	if err != nil {
		return fmt.Errorf("%w: %w", config.ErrInvalidConfig, err)
	}

	registry := prometheus.NewRegistry()
	m := metrics.NewManager(append(cfg.MetricsOptions(), metrics.WithPrometheusRegistry(registry))...)

	svc := app.New(
		app.WithRules(rules),
		app.WithLogger(log.Named("service")),
		app.WithMetrics(m),
	)

	go startSystemMetricsUpdater(ctx, m)

	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           newRouter(ctx, cfg, svc, m, registry, log),
		ReadTimeout:       readTimeout,
		WriteTimeout:      writeTimeout,
		IdleTimeout:       idleTimeout,
		ReadHeaderTimeout: readHeaderTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info(ctx, "starting HTTP server",
			logger.String("addr", cfg.Addr),
			logger.Int("min_grade", rules.MinGrade),
			logger.Int("max_grade", rules.MaxGrade),
			logger.Float64("fast_below_seconds", rules.FastBelow),
			logger.Float64("slow_above_seconds", rules.SlowAbove),
		)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	// Wait for shutdown signal or a listener failure
	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("HTTP server failed: %w", err)
		}
	case <-ctx.Done():
	}
	log.Info(ctx, "shutting down server...")

	// Graceful shutdown with timeout
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error(ctx, "server shutdown failed", logger.Error(err))
		return err
	}

	log.Info(ctx, "server stopped")
	return nil
}

// newRouter registers the business API and the documentation routes.
func newRouter(ctx context.Context, cfg *config.Config, svc *app.Service, m *metrics.Manager, g prometheus.Gatherer, log logger.Logger) http.Handler {
	r := chi.NewRouter()

	apiServer := api.NewServer(svc, svc,
		api.WithMetrics(m),
		api.WithGatherer(g),
		api.WithLogger(log.Named("http")),
		api.WithAllowedOrigins(cfg.CORSAllowedOrigins),
	)
	apiServer.Register(ctx, r)
	swagger.Register(ctx, r)

	return r
}

// startSystemMetricsUpdater refreshes system gauges on m's refresh interval
// until ctx is done.
func startSystemMetricsUpdater(ctx context.Context, m *metrics.Manager) {
	ticker := time.NewTicker(m.RefreshInterval())
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			updateSystemMetrics(m)
		}
	}
}

// updateSystemMetrics updates system-level metrics.
func updateSystemMetrics(m *metrics.Manager) {
	var ms runtime.MemStats
	runtime.ReadMemStats(&ms)
	m.UpdateSystem(ms.Alloc, runtime.NumGoroutine())

	if ms.NumGC > 0 {
		avgPauseMs := float64(ms.PauseTotalNs) / float64(ms.NumGC) / nanosecondsPerMillisecond
		m.RecordGCPause(avgPauseMs)
	}
}
