// Package mcpserver exposes the benchmark engine via MCP tools.
package mcpserver

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/parsebench/parsebench-go/internal/backend"
	"github.com/parsebench/parsebench-go/internal/coordinator"
	"github.com/parsebench/parsebench-go/internal/domain"
	"github.com/parsebench/parsebench-go/internal/equivalence"
	"github.com/parsebench/parsebench-go/internal/fixtures"
	"github.com/parsebench/parsebench-go/internal/results"
)

// Deps are the collaborators the tools run against.
type Deps struct {
	Registry    *backend.Registry
	Coordinator *coordinator.Coordinator
	Store       results.Store
	FixturesDir string
	// Tolerances applies when a call omits its own table. Nil means the
	// built-in defaults.
	Tolerances equivalence.Tolerances
}

// RegisterTools registers all parsebench MCP tools on the given server.
func RegisterTools(server *mcp.Server, deps Deps) {
	if deps.Tolerances == nil {
		deps.Tolerances = equivalence.DefaultTolerances()
	}

	mcp.AddTool(server,
		&mcp.Tool{
			Name:        "evaluate_features",
			Description: "Decide whether two backends' features for one document are equivalent under a tolerance table",
		},
		evaluateFeaturesHandler(deps),
	)

	mcp.AddTool(server,
		&mcp.Tool{
			Name:        "run_benchmark",
			Description: "Run one backend over the fixture corpus and return its summary statistics",
		},
		runBenchmarkHandler(deps),
	)

	mcp.AddTool(server,
		&mcp.Tool{
			Name:        "compare_backends",
			Description: "Run two backends over the fixture corpus and report per-document equivalence verdicts",
		},
		compareBackendsHandler(deps),
	)

	mcp.AddTool(server,
		&mcp.Tool{
			Name:        "list_results",
			Description: "List stored benchmark summaries",
		},
		listResultsHandler(deps),
	)
}

type evaluateInput struct {
	DocumentID string             `json:"document_id"`
	FeaturesA  domain.Features    `json:"features_a"`
	FeaturesB  domain.Features    `json:"features_b"`
	Tolerances map[string]float64 `json:"tolerances,omitempty"`
}

func evaluateFeaturesHandler(deps Deps) mcp.ToolHandlerFor[evaluateInput, any] {
	return func(_ context.Context, _ *mcp.CallToolRequest, input evaluateInput) (*mcp.CallToolResult, any, error) {
		if input.DocumentID == "" {
			return errorResult("document_id is required"), nil, nil
		}

		verdict, err := equivalence.Evaluate(input.FeaturesA, input.FeaturesB,
			tolerancesOr(input.Tolerances, deps.Tolerances), input.DocumentID)
		if errors.Is(err, equivalence.ErrInvalidTolerance) || errors.Is(err, domain.ErrInvalidFeatures) {
			return errorResult(err.Error()), nil, nil
		}
		if err != nil {
			return nil, nil, fmt.Errorf("evaluate_features: %w", err)
		}

		return textResult(verdict)
	}
}

type runInput struct {
	Backend      string `json:"backend"`
	DocumentType string `json:"document_type,omitempty"`
	Save         bool   `json:"save,omitempty"`
}

func runBenchmarkHandler(deps Deps) mcp.ToolHandlerFor[runInput, any] {
	return func(ctx context.Context, _ *mcp.CallToolRequest, input runInput) (*mcp.CallToolResult, any, error) {
		if input.Backend == "" {
			return errorResult("backend is required"), nil, nil
		}
		b, err := deps.Registry.Get(input.Backend)
		if err != nil {
			return errorResult(err.Error()), nil, nil
		}
		docType, docs, res := loadCorpus(deps.FixturesDir, input.DocumentType)
		if res != nil {
			return res, nil, nil
		}

		summary := deps.Coordinator.Run(ctx, b, docType, docs)
		if input.Save {
			if err := deps.Store.SaveSummary(ctx, summary); err != nil {
				return nil, nil, fmt.Errorf("run_benchmark: %w", err)
			}
		}

		return textResult(summary)
	}
}

type compareInput struct {
	BackendA     string             `json:"backend_a"`
	BackendB     string             `json:"backend_b"`
	DocumentType string             `json:"document_type,omitempty"`
	Tolerances   map[string]float64 `json:"tolerances,omitempty"`
}

func compareBackendsHandler(deps Deps) mcp.ToolHandlerFor[compareInput, any] {
	return func(ctx context.Context, _ *mcp.CallToolRequest, input compareInput) (*mcp.CallToolResult, any, error) {
		if input.BackendA == "" || input.BackendB == "" {
			return errorResult("backend_a and backend_b are required"), nil, nil
		}
		a, err := deps.Registry.Get(input.BackendA)
		if err != nil {
			return errorResult(err.Error()), nil, nil
		}
		b, err := deps.Registry.Get(input.BackendB)
		if err != nil {
			return errorResult(err.Error()), nil, nil
		}
		_, docs, res := loadCorpus(deps.FixturesDir, input.DocumentType)
		if res != nil {
			return res, nil, nil
		}

		cmp, err := deps.Coordinator.ComparePair(ctx, a, b, docs, tolerancesOr(input.Tolerances, deps.Tolerances))
		if errors.Is(err, equivalence.ErrInvalidTolerance) {
			return errorResult(err.Error()), nil, nil
		}
		if err != nil {
			return nil, nil, fmt.Errorf("compare_backends: %w", err)
		}

		return textResult(cmp)
	}
}

type listResultsInput struct {
	DocumentType string `json:"document_type,omitempty"`
}

func listResultsHandler(deps Deps) mcp.ToolHandlerFor[listResultsInput, any] {
	return func(ctx context.Context, _ *mcp.CallToolRequest, input listResultsInput) (*mcp.CallToolResult, any, error) {
		sums, err := deps.Store.ListSummaries(ctx)
		if err != nil {
			return nil, nil, fmt.Errorf("list_results: %w", err)
		}

		out := make([]domain.Summary, 0, len(sums))
		for _, s := range sums {
			if input.DocumentType == "" || s.DocumentType == input.DocumentType {
				out = append(out, s)
			}
		}
		return textResult(out)
	}
}

// loadCorpus resolves the document type (html when empty) and loads its
// fixtures. A non-nil result reports a caller error.
func loadCorpus(dir, rawType string) (domain.DocumentType, []domain.Document, *mcp.CallToolResult) {
	docType := domain.DocumentHTML
	if rawType != "" {
		docType = domain.DocumentType(rawType)
	}
	if !docType.Valid() {
		return "", nil, errorResult(fmt.Sprintf("document_type must be html or xml, got %q", rawType))
	}
	docs, err := fixtures.Load(dir, docType)
	if err != nil {
		return "", nil, errorResult(err.Error())
	}
	return docType, docs, nil
}

// tolerancesOr converts a call's table, falling back to def when the call
// sent none. An empty table is kept as is and compares nothing.
func tolerancesOr(raw map[string]float64, def equivalence.Tolerances) equivalence.Tolerances {
	if raw == nil {
		return def
	}
	t := make(equivalence.Tolerances, len(raw))
	for name, v := range raw {
		t[domain.Field(name)] = v
	}
	return t
}

func textResult(v any) (*mcp.CallToolResult, any, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return nil, nil, fmt.Errorf("marshal result: %w", err)
	}
	return &mcp.CallToolResult{
		Content: []mcp.Content{
			&mcp.TextContent{Text: string(data)},
		},
	}, nil, nil
}

func errorResult(msg string) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		Content: []mcp.Content{
			&mcp.TextContent{Text: msg},
		},
		IsError: true,
	}
}
