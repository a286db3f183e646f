package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/okian/gradeadjust/internal/config"
	"github.com/okian/gradeadjust/internal/domain/grading"
	"github.com/okian/gradeadjust/internal/probe"
	"github.com/okian/gradeadjust/pkg/logger"
)

func main() {
	var (
		baseURL = flag.String("url", probe.DefaultBaseURL, "Base URL of the service")
		wait    = flag.Duration("wait", probe.DefaultWait, "How long to wait for the service to become ready")
		timeout = flag.Duration("timeout", probe.DefaultTimeout, "HTTP request timeout")
		verbose = flag.Bool("verbose", false, "List passing scenarios and log debug output")
	)
	flag.Usage = func() {
		_, _ = fmt.Fprintf(flag.CommandLine.Output(), `Grade adjust probe

Waits for the service, replays a grid of /predict requests and checks each
answer against the grading rules. Rules are read from the same GRADEADJUST_*
environment, .env and config file as the server.

Usage:
  probe [options]

Options:
`)
		flag.PrintDefaults()
	}
	flag.Parse()

	if err := logger.Init(); err != nil {
		_, _ = fmt.Fprintln(os.Stderr, "failed to initialize logging:", err)
		os.Exit(1)
	}
	if *verbose {
		_ = logger.SetLevelString("debug")
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	rules, err := loadRules(ctx)
	if err != nil {
		_, _ = fmt.Fprintln(os.Stderr, "probe failed:", err)
		stop()
		os.Exit(1)
	}

	cfg := &probe.Config{
		BaseURL: *baseURL,
		Timeout: *timeout,
		Wait:    *wait,
		Verbose: *verbose,
		Rules:   rules,
		Logger:  logger.Named("probe"),
	}

	if _, err := probe.Run(ctx, cfg, os.Stdout); err != nil {
		_, _ = fmt.Fprintln(os.Stderr, "probe failed:", err)
		stop()
		os.Exit(1)
	}
}

// loadRules builds the rules the service under test runs with.
func loadRules(ctx context.Context) (grading.Rules, error) {
	cfg, err := config.Load(ctx)
	if err != nil {
		return grading.Rules{}, fmt.Errorf("failed to load config: %w", err)
	}
	return grading.New(cfg.GradingOptions()...)
}
