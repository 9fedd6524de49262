// Command mcp-parsebench runs the MCP tool server for parser benchmarks.
// Uses stdio transport for integration with AI assistants.
package main

import (
	"context"
	"log/slog"
	"os"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/parsebench/parsebench-go/internal/backend"
	"github.com/parsebench/parsebench-go/internal/config"
	"github.com/parsebench/parsebench-go/internal/connectors"
	"github.com/parsebench/parsebench-go/internal/mcpserver"
	"github.com/parsebench/parsebench-go/internal/observability"
)

func main() {
	cfg, err := config.LoadFromEnv()
	if err != nil {
		slog.Error("config error", "error", err)
		os.Exit(1)
	}

	ctx := context.Background()
	logger := observability.InitLogger(cfg.LogLevel)

	tol, err := connectors.LoadTolerances(cfg)
	if err != nil {
		logger.Error("load tolerances failed", "error", err)
		os.Exit(1)
	}
	store, closeStore, err := connectors.OpenStore(ctx, cfg)
	if err != nil {
		logger.Error("open results store failed", "error", err)
		os.Exit(1)
	}
	defer closeStore()

	metrics, err := observability.NewMetrics()
	if err != nil {
		logger.Error("metrics init failed", "error", err)
		os.Exit(1)
	}

	server := mcp.NewServer(&mcp.Implementation{
		Name:    "parsebench",
		Version: "v1.0.0",
	}, nil)
	mcpserver.RegisterTools(server, mcpserver.Deps{
		Registry:    backend.DefaultRegistry(),
		Coordinator: connectors.NewCoordinator(cfg, logger, metrics),
		Store:       store,
		FixturesDir: cfg.FixturesDir,
		Tolerances:  tol,
	})

	if err := server.Run(ctx, &mcp.StdioTransport{}); err != nil {
		logger.Error("mcp server error", "error", err)
		os.Exit(1)
	}
}
