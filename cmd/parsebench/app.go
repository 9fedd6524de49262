package main

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/parsebench/parsebench-go/internal/backend"
	"github.com/parsebench/parsebench-go/internal/config"
	"github.com/parsebench/parsebench-go/internal/connectors"
	"github.com/parsebench/parsebench-go/internal/coordinator"
	"github.com/parsebench/parsebench-go/internal/domain"
	"github.com/parsebench/parsebench-go/internal/equivalence"
	"github.com/parsebench/parsebench-go/internal/observability"
	"github.com/parsebench/parsebench-go/internal/results"
)

// app is the wiring shared by run and compare.
type app struct {
	cfg      config.Config
	logger   *slog.Logger
	registry *backend.Registry
	coord    *coordinator.Coordinator
	shutdown func(context.Context) error
}

func newApp(ctx context.Context, opts *rootOptions) (*app, error) {
	cfg, err := config.LoadFromEnv()
	if err != nil {
		return nil, err
	}
	if opts.fixturesDir != "" {
		cfg.FixturesDir = opts.fixturesDir
	}
	if opts.concurrency > 0 {
		cfg.Concurrency = opts.concurrency
	}

	logger := observability.InitLogger(cfg.LogLevel)
	shutdown := observability.NoopShutdown
	if cfg.OTelEnabled {
		sd, err := observability.InitTracer(ctx, "parsebench")
		if err != nil {
			logger.Error("otel init failed", "error", err)
		} else {
			shutdown = sd
		}
	}

	metrics, err := observability.NewMetrics()
	if err != nil {
		return nil, err
	}

	return &app{
		cfg:      cfg,
		logger:   logger,
		registry: backend.DefaultRegistry(),
		coord:    connectors.NewCoordinator(cfg, logger, metrics),
		shutdown: shutdown,
	}, nil
}

func (a *app) close(ctx context.Context) {
	if err := a.shutdown(ctx); err != nil {
		a.logger.Warn("otel shutdown failed", "error", err)
	}
}

func (a *app) backends(names []string) ([]backend.Backend, error) {
	if len(names) == 0 {
		return nil, fmt.Errorf("at least one --backend is required")
	}
	out := make([]backend.Backend, 0, len(names))
	for _, n := range names {
		b, err := a.registry.Get(n)
		if err != nil {
			return nil, err
		}
		out = append(out, b)
	}
	return out, nil
}

// sink saves summaries when save is set and publishes them when CloudWatch
// publishing is configured.
func (a *app) sink(ctx context.Context, save bool) (*connectors.SummarySink, func() error, error) {
	var store results.Store
	closeStore := func() error { return nil }
	if save {
		s, closeFn, err := connectors.OpenStore(ctx, a.cfg)
		if err != nil {
			return nil, nil, err
		}
		store, closeStore = s, closeFn
	}
	pub, err := connectors.NewPublisher(ctx, a.cfg)
	if err != nil {
		_ = closeStore()
		return nil, nil, err
	}
	return connectors.NewSummarySink(store, pub, a.logger), closeStore, nil
}

func parseDocumentType(raw string) (domain.DocumentType, error) {
	dt := domain.DocumentType(raw)
	if !dt.Valid() {
		return "", fmt.Errorf("invalid --document-type %q (expected html|xml)", raw)
	}
	return dt, nil
}

// resolveTolerances picks the table file (flag, then config, then the
// defaults) and applies field=value overrides on top.
func resolveTolerances(cfg config.Config, file string, overrides []string) (equivalence.Tolerances, error) {
	if file != "" {
		cfg.TolerancesFile = file
	}
	tol, err := connectors.LoadTolerances(cfg)
	if err != nil {
		return nil, err
	}
	if len(overrides) == 0 {
		return tol, nil
	}
	extra, err := equivalence.ParseOverrides(overrides)
	if err != nil {
		return nil, err
	}
	return tol.Merge(extra), nil
}
