// Package api serves stored benchmark results and ad-hoc equivalence
// evaluation over HTTP.
package api

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/coreos/go-oidc/v3/oidc"

	"github.com/parsebench/parsebench-go/internal/ratelimit"
	"github.com/parsebench/parsebench-go/internal/results"
)

// Server is the HTTP API server for benchmark results.
type Server struct {
	store   results.Store
	budget  *ratelimit.Budget
	logger  *slog.Logger
	mux     *http.ServeMux
	handler http.Handler
}

// Option configures a Server.
type Option func(*Server)

// WithBudget limits POST /evaluate calls per caller.
func WithBudget(b *ratelimit.Budget) Option {
	return func(s *Server) { s.budget = b }
}

func WithLogger(l *slog.Logger) Option {
	return func(s *Server) {
		if l != nil {
			s.logger = l
		}
	}
}

// New creates a Server backed by store. When oidcCfg is enabled the issuer
// is discovered immediately and every route except health requires a
// bearer token.
func New(ctx context.Context, store results.Store, corsOrigins []string, oidcCfg OIDCConfig, opts ...Option) (*Server, error) {
	s := &Server{store: store, logger: slog.Default(), mux: http.NewServeMux()}
	for _, opt := range opts {
		opt(s)
	}
	s.routes()

	var h http.Handler = s.mux
	if oidcCfg.Enabled {
		provider, err := oidc.NewProvider(ctx, oidcCfg.IssuerURL)
		if err != nil {
			return nil, fmt.Errorf("api: oidc discovery: %w", err)
		}
		h = oidcAuth(provider, oidcCfg.Audience)(h)
	}
	s.handler = requestID(logging(s.logger, cors(corsOrigins, h)))
	return s, nil
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.handler.ServeHTTP(w, r)
}

func (s *Server) routes() {
	s.mux.HandleFunc("GET /api/v1/health", s.handleHealth)
	s.mux.HandleFunc("GET /api/v1/results", s.handleListResults)
	s.mux.HandleFunc("GET /api/v1/results/{backend}/{doctype}", s.handleGetResult)
	s.mux.HandleFunc("POST /api/v1/evaluate", s.handleEvaluate)
}
