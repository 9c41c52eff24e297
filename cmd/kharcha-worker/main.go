package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"time"

	"golang.org/x/sync/errgroup"

	"kharcha/internal/amqp"
	"kharcha/internal/backend"
	"kharcha/internal/cli"
	"kharcha/internal/log"
	"kharcha/internal/metrics"
	"kharcha/internal/sheets/google"
	"kharcha/internal/worker"
)

const shutdownTimeout = 30 * time.Second

func main() {
	metricsAddr := flag.String("metrics-addr", "", "serve /metrics on this address (disabled when empty)")
	flag.Parse()

	cfg, logger := cli.Bootstrap(log.ComponentWorker)
	if err := cfg.ValidateMirror(); err != nil {
		cli.Fatal(logger, "Mirror configuration validation failed", err)
	}
	m := metrics.New()

	backendCfg, err := backend.FromAppConfig(cfg)
	if err != nil {
		cli.Fatal(logger, "Invalid backend configuration", err)
	}
	// The worker only reads; it must not publish events of its own.
	backendCfg.AMQPURL = ""
	res, err := backend.NewFactory(logger.Logger, m).CreateBackend(context.Background(), backendCfg)
	if err != nil {
		cli.Fatal(logger, "Failed to initialize backend", err, "backend", cfg.DataBackend)
	}

	mirror, err := google.New(context.Background(), google.Config{
		SpreadsheetID:   cfg.GoogleSpreadsheetID,
		SheetName:       cfg.GoogleSheetName,
		CredentialsJSON: cfg.GoogleServiceAccountJSON,
		CredentialsFile: cfg.GoogleCredentialsFile,
	})
	if err != nil {
		cli.Fatal(logger, "Failed to initialize Google Sheets client", err)
	}

	client, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
	if err != nil {
		cli.Fatal(logger, "Failed to initialize AMQP client", err)
	}

	var metricsSrv *http.Server
	if *metricsAddr != "" {
		mux := http.NewServeMux()
		mux.Handle("GET /metrics", m.Handler())
		metricsSrv = &http.Server{Addr: *metricsAddr, Handler: mux, ReadHeaderTimeout: 10 * time.Second}
	}

	ctx, done := cli.GracefulShutdown(logger, shutdownTimeout, func(ctx context.Context) {
		if err := client.Close(); err != nil {
			logger.Error("AMQP close error", log.FieldError, err)
		}
		if err := res.Cleanup(); err != nil {
			logger.Error("Backend cleanup error", log.FieldError, err)
		}
	})

	g, gctx := errgroup.WithContext(ctx)
	if metricsSrv != nil {
		g.Go(func() error {
			if err := metricsSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				return fmt.Errorf("metrics server: %w", err)
			}
			return nil
		})
		g.Go(func() error {
			<-gctx.Done()
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			return metricsSrv.Shutdown(shutdownCtx)
		})
	}

	w := worker.NewMirrorWorker(res.Store, mirror, m)

	// Catch up on anything published while the worker was down.
	logger.Info("Performing startup resync")
	if err := w.Resync(gctx); err != nil {
		logger.Error("Startup resync failed", log.FieldError, err)
	}

	logger.Info("Starting kharcha-worker",
		"exchange", cfg.AMQPExchange,
		"queue", cfg.AMQPQueue,
		"spreadsheet_id", cfg.GoogleSpreadsheetID)
	g.Go(func() error {
		if err := client.Consume(gctx, w.HandleChange); err != nil && !errors.Is(err, context.Canceled) {
			return fmt.Errorf("consume changes: %w", err)
		}
		return nil
	})

	if err := g.Wait(); err != nil {
		cli.Fatal(logger, "Worker stopped with error", err)
	}

	cli.WaitForShutdown(ctx, done)
	logger.Info("Worker stopped")
}
