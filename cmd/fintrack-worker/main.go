package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"time"

	"fintrack/internal/backend"
	"fintrack/internal/cli"
	applog "fintrack/internal/log"
	"fintrack/internal/metrics"
	"fintrack/internal/sheets"
	gsheet "fintrack/internal/sheets/google"
	mem "fintrack/internal/sheets/memory"
	"fintrack/internal/worker"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/sync/errgroup"
)

func main() {
	cli.LoadEnvFile()

	cfg, err := cli.LoadAndValidateConfig()
	if err != nil {
		applog.New(applog.DefaultConfig()).Error("Configuration validation failed", applog.FieldError, err)
		os.Exit(1)
	}

	logger := cli.SetupLogger(cfg, applog.ComponentWorker, os.Stdout)
	logger.Info("Starting fintrack-worker", "event_broker", cfg.EventBroker)

	root, stop := context.WithCancel(context.Background())
	defer stop()

	var sink sheets.EntrySink
	if cfg.MirrorEnabled() {
		client, err := gsheet.New(root, gsheet.Config{
			SpreadsheetID:   cfg.GoogleSpreadsheetID,
			SheetName:       cfg.GoogleSheetName,
			CredentialsFile: cfg.GoogleServiceAccountFile,
			CredentialsJSON: cfg.GoogleServiceAccountJSON,
		}, logger.WithComponent(applog.ComponentSheets).Logger)
		if err != nil {
			logger.Error("Failed to initialize Google Sheets client", applog.FieldError, err)
			os.Exit(1)
		}
		sink = client
		logger.Info("Google Sheets client initialized", "spreadsheet_id", cfg.GoogleSpreadsheetID, "sheet", cfg.GoogleSheetName)
	} else {
		sink = mem.New()
		logger.Warn("GOOGLE_SPREADSHEET_ID not set, mirroring into memory only")
	}

	consumer, err := backend.NewConsumer(root, cfg)
	if err != nil {
		logger.Error("Failed to initialize event consumer", applog.FieldError, err, "event_broker", cfg.EventBroker)
		os.Exit(1)
	}

	reg := prometheus.NewRegistry()
	mirror := worker.NewMirrorWorker(sink, logger, metrics.New(reg))

	var metricsSrv *http.Server
	if cfg.WorkerMetricsPort != "" {
		metricsSrv = &http.Server{
			Addr:              ":" + cfg.WorkerMetricsPort,
			Handler:           promhttp.HandlerFor(reg, promhttp.HandlerOpts{}),
			ReadHeaderTimeout: 5 * time.Second,
		}
	}

	ctx, done := cli.GracefulShutdown(root, logger, cfg.ShutdownTimeout, func(ctx context.Context) error {
		var errs []error
		if metricsSrv != nil {
			errs = append(errs, metricsSrv.Shutdown(ctx))
		}
		errs = append(errs, consumer.Close())
		return errors.Join(errs...)
	})

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return mirror.Run(gctx, consumer)
	})
	if metricsSrv != nil {
		g.Go(func() error {
			logger.Info("Serving worker metrics", "addr", metricsSrv.Addr)
			if err := metricsSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				return err
			}
			return nil
		})
	}
	g.Go(func() error {
		<-gctx.Done()
		stop()
		return nil
	})

	exitCode := 0
	if err := g.Wait(); err != nil {
		logger.Error("Worker stopped with error", applog.FieldError, err)
		exitCode = 1
	}
	<-done
	os.Exit(exitCode)
}
