package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"fintrack/internal/backend"
	"fintrack/internal/cli"
	applog "fintrack/internal/log"

	"github.com/prometheus/client_golang/prometheus"
)

func main() {
	cli.LoadEnvFile()

	cfg, err := cli.LoadAndValidateConfig()
	if err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
	// Terminal output stays clean unless a level is asked for.
	if _, ok := os.LookupEnv("LOG_LEVEL"); !ok {
		cfg.LogLevel = "warn"
	}
	logger := cli.SetupLogger(cfg, applog.ComponentCLI, os.Stderr)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	open := func(ctx context.Context) (cli.Ledger, func() error, error) {
		result, err := backend.NewFactory(logger.Logger, prometheus.NewRegistry()).Create(ctx, cfg)
		if err != nil {
			return nil, nil, err
		}
		return result.Ledger, result.Cleanup, nil
	}

	if err := cli.Run(ctx, open, os.Args[1:], os.Stdin, os.Stdout, os.Stderr); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		stop()
		os.Exit(1)
	}
}
