package connectors

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/parsebench/parsebench-go/internal/backend"
	"github.com/parsebench/parsebench-go/internal/config"
	awsconn "github.com/parsebench/parsebench-go/internal/connectors/aws"
	"github.com/parsebench/parsebench-go/internal/connectors/aws/cloudwatch"
	"github.com/parsebench/parsebench-go/internal/coordinator"
	"github.com/parsebench/parsebench-go/internal/equivalence"
	"github.com/parsebench/parsebench-go/internal/observability"
	"github.com/parsebench/parsebench-go/internal/ratelimit"
	"github.com/parsebench/parsebench-go/internal/results"
)

// OpenStore returns the configured results.Store and a function releasing
// it. The postgres store is migrated before it is returned.
func OpenStore(ctx context.Context, cfg config.Config) (results.Store, func() error, error) {
	switch cfg.Store {
	case config.StorePostgres:
		pg, err := results.OpenPostgres(ctx, cfg.DatabaseURL)
		if err != nil {
			return nil, nil, err
		}
		if err := pg.Migrate(ctx); err != nil {
			_ = pg.Close()
			return nil, nil, err
		}
		return pg, pg.Close, nil
	case config.StoreFile, "":
		return results.NewFileStore(cfg.ResultsDir), func() error { return nil }, nil
	default:
		return nil, nil, fmt.Errorf("connectors: unknown store %q", cfg.Store)
	}
}

// NewPublisher returns a CloudWatch publisher, or nil when publishing is
// disabled.
func NewPublisher(ctx context.Context, cfg config.Config) (Publisher, error) {
	if !cfg.PublishCloudWatch {
		return nil, nil
	}
	awsCfg, err := awsconn.NewAWSConfig(ctx, cfg.AWSRegion, cfg.AWSProfile, cfg.RoleARN)
	if err != nil {
		return nil, fmt.Errorf("connectors: aws config: %w", err)
	}
	return cloudwatch.New(awsCfg, cfg.CloudWatchNamespace), nil
}

// NewCoordinator builds a Coordinator from the run settings in cfg.
func NewCoordinator(cfg config.Config, logger *slog.Logger, metrics *observability.Metrics) *coordinator.Coordinator {
	return coordinator.New(
		coordinator.WithConcurrency(cfg.Concurrency),
		coordinator.WithDocumentTimeout(cfg.DocTimeout),
		coordinator.WithWarmup(cfg.Warmup),
		coordinator.WithLimiter(ratelimit.NewBackendLimiter(cfg.RateLimit)),
		coordinator.WithMeasurer(backend.NewMeasurer(cfg.MemoryTracking)),
		coordinator.WithLogger(logger),
		coordinator.WithMetrics(metrics),
	)
}

// LoadTolerances returns the table in cfg.TolerancesFile, or the defaults
// when no file is configured.
func LoadTolerances(cfg config.Config) (equivalence.Tolerances, error) {
	if cfg.TolerancesFile == "" {
		return equivalence.DefaultTolerances(), nil
	}
	return equivalence.LoadTolerances(cfg.TolerancesFile)
}
