// Command api runs the HTTP API serving stored benchmark summaries and
// feature equivalence checks.
package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"time"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/parsebench/parsebench-go/internal/api"
	"github.com/parsebench/parsebench-go/internal/config"
	"github.com/parsebench/parsebench-go/internal/connectors"
	"github.com/parsebench/parsebench-go/internal/observability"
	"github.com/parsebench/parsebench-go/internal/ratelimit"
)

func main() {
	cfg, err := config.LoadFromEnv()
	if err != nil {
		slog.Error("config error", "error", err)
		os.Exit(1)
	}

	logger := observability.InitLogger(cfg.LogLevel)
	ctx := context.Background()

	if cfg.OTelEnabled {
		shutdown, err := observability.InitTracer(ctx, "parsebench-api")
		if err != nil {
			logger.Error("otel init failed", "error", err)
		} else {
			defer shutdown(context.Background())
		}
	}

	store, closeStore, err := connectors.OpenStore(ctx, cfg)
	if err != nil {
		logger.Error("open results store failed", "error", err)
		os.Exit(1)
	}
	defer closeStore()

	oidcCfg := api.OIDCConfig{
		IssuerURL: cfg.OIDCIssuer,
		Audience:  cfg.OIDCAudience,
		Enabled:   cfg.OIDCEnabled(),
	}
	srv, err := api.New(ctx, store, cfg.CORSOrigins, oidcCfg,
		api.WithLogger(logger),
		api.WithBudget(ratelimit.NewBudget(cfg.APIBudget, time.Minute)),
	)
	if err != nil {
		logger.Error("api init failed", "error", err)
		os.Exit(1)
	}

	var handler http.Handler = srv
	if cfg.OTelEnabled {
		handler = otelhttp.NewHandler(handler, "parsebench-api")
	}

	addr := ":" + cfg.APIPort
	logger.Info("starting API server", "addr", addr, "store", cfg.Store, "oidc_enabled", oidcCfg.Enabled)
	if err := http.ListenAndServe(addr, handler); err != nil {
		logger.Error("server error", "error", err)
		os.Exit(1)
	}
}
