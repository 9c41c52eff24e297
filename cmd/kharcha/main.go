package main

import (
	"context"
	"errors"
	"net/http"
	"time"

	"kharcha/internal/backend"
	"kharcha/internal/cache"
	"kharcha/internal/cli"
	apphttp "kharcha/internal/http"
	"kharcha/internal/ledger"
	"kharcha/internal/log"
	"kharcha/internal/metrics"
)

const (
	shutdownTimeout = 30 * time.Second
	sweepInterval   = time.Minute
)

func main() {
	cfg, logger := cli.Bootstrap(log.ComponentApp)
	m := metrics.New()

	backendCfg, err := backend.FromAppConfig(cfg)
	if err != nil {
		cli.Fatal(logger, "Invalid backend configuration", err)
	}
	res, err := backend.NewFactory(logger.Logger, m).CreateBackend(context.Background(), backendCfg)
	if err != nil {
		cli.Fatal(logger, "Failed to initialize backend", err, "backend", cfg.DataBackend)
	}

	sessions := ledger.NewSessions(res.Store, cfg.SessionMax, cfg.SessionTTL)
	m.GaugeFunc("sessions_active", "Ledger sessions currently mounted.", func() float64 {
		return float64(sessions.Len())
	})

	janitor := cache.NewJanitor()
	janitor.Register(sessions)
	janitor.Start(sweepInterval)

	srv := apphttp.NewServer(apphttp.Config{
		Addr:               ":" + cfg.Port,
		Location:           cfg.Location(),
		RateLimitPerMinute: cfg.RateLimitPerMinute,
	}, sessions, res.Store, m, logger)

	ctx, done := cli.GracefulShutdown(logger, shutdownTimeout, func(ctx context.Context) {
		if err := srv.Shutdown(ctx); err != nil {
			logger.Error("Server shutdown error", log.FieldError, err)
		}
		janitor.Stop()
		if err := res.Cleanup(); err != nil {
			logger.Error("Backend cleanup error", log.FieldError, err)
		}
	})

	logger.Info("Starting kharcha server",
		"port", cfg.Port,
		"backend", cfg.DataBackend,
		"timezone", cfg.Location().String())
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		cli.Fatal(logger, "Server error", err, "port", cfg.Port)
	}

	cli.WaitForShutdown(ctx, done)
	logger.Info("Server stopped gracefully")
}
