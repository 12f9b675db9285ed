package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"time"

	"fintrack/internal/backend"
	"fintrack/internal/cache"
	"fintrack/internal/cli"
	apphttp "fintrack/internal/http"
	applog "fintrack/internal/log"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"golang.org/x/sync/errgroup"
)

func main() {
	cli.LoadEnvFile()

	cfg, err := cli.LoadAndValidateConfig()
	if err != nil {
		applog.New(applog.DefaultConfig()).Error("Configuration validation failed", applog.FieldError, err)
		os.Exit(1)
	}

	logger := cli.SetupLogger(cfg, applog.ComponentApp, os.Stdout)

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	result, err := backend.NewFactory(logger.Logger, reg).Create(context.Background(), cfg)
	if err != nil {
		logger.Error("Failed to initialize backend", applog.FieldError, err, "backend", cfg.DataBackend)
		os.Exit(1)
	}

	janitor := cache.NewJanitor(time.Minute, logger.WithComponent(applog.ComponentCache).Logger)
	janitor.Register(result.Cleaner)

	srv := apphttp.NewServer(apphttp.Config{
		Addr:               cfg.Addr(),
		ReadTimeout:        cfg.ReadTimeout,
		WriteTimeout:       cfg.WriteTimeout,
		IdleTimeout:        cfg.IdleTimeout,
		RateLimitPerMinute: cfg.RateLimitPerMinute,
		Logger:             logger.WithComponent(applog.ComponentHTTP),
		Metrics:            result.Metrics,
		Gatherer:           reg,
	}, result.Ledger)

	root, stop := context.WithCancel(context.Background())
	defer stop()

	ctx, done := cli.GracefulShutdown(root, logger, cfg.ShutdownTimeout, func(ctx context.Context) error {
		return errors.Join(srv.Shutdown(ctx), result.Cleanup())
	})

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info("Starting fintrack server",
			"addr", cfg.Addr(),
			"data_backend", cfg.DataBackend,
			"event_broker", cfg.EventBroker)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		janitor.Run(gctx)
		return nil
	})
	// A failed listener ends the process the same way a signal does.
	g.Go(func() error {
		<-gctx.Done()
		stop()
		return nil
	})

	exitCode := 0
	if err := g.Wait(); err != nil {
		logger.Error("Server error", applog.FieldError, err, "addr", cfg.Addr())
		exitCode = 1
	}
	<-done
	os.Exit(exitCode)
}
