// Package coordinator drives backends over a document corpus: it collects
// one Sample per document, reduces them into Summaries, and pairs two
// backends' Samples into equivalence Verdicts.
package coordinator

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"

	"github.com/parsebench/parsebench-go/internal/backend"
	"github.com/parsebench/parsebench-go/internal/domain"
	"github.com/parsebench/parsebench-go/internal/equivalence"
	"github.com/parsebench/parsebench-go/internal/observability"
	"github.com/parsebench/parsebench-go/internal/ratelimit"
	"github.com/parsebench/parsebench-go/internal/stats"
)

// Coordinator runs backends over documents.
type Coordinator struct {
	concurrency int
	docTimeout  time.Duration
	warmup      int
	limiter     *ratelimit.BackendLimiter
	measurer    *backend.Measurer
	logger      *slog.Logger
	metrics     *observability.Metrics
	tracer      trace.Tracer
}

// Option configures a Coordinator.
type Option func(*Coordinator)

// WithConcurrency bounds how many documents are parsed at once. Values
// below 1 mean 1.
func WithConcurrency(n int) Option {
	return func(c *Coordinator) {
		if n < 1 {
			n = 1
		}
		c.concurrency = n
	}
}

// WithDocumentTimeout sets the per-document parse timeout; 0 disables it.
func WithDocumentTimeout(d time.Duration) Option {
	return func(c *Coordinator) { c.docTimeout = d }
}

// WithLimiter throttles parses per backend.
func WithLimiter(l *ratelimit.BackendLimiter) Option {
	return func(c *Coordinator) { c.limiter = l }
}

// WithMeasurer replaces the default memory-tracking Measurer.
func WithMeasurer(m *backend.Measurer) Option {
	return func(c *Coordinator) {
		if m != nil {
			c.measurer = m
		}
	}
}

// WithLogger sets the logger for parse failures. nil keeps the default.
func WithLogger(l *slog.Logger) Option {
	return func(c *Coordinator) {
		if l != nil {
			c.logger = l
		}
	}
}

// WithMetrics records each Sample on m. nil disables metrics.
func WithMetrics(m *observability.Metrics) Option {
	return func(c *Coordinator) { c.metrics = m }
}

// WithWarmup parses the first document n times per backend before
// measuring. Warmup parses produce no Samples.
func WithWarmup(n int) Option {
	return func(c *Coordinator) {
		if n < 0 {
			n = 0
		}
		c.warmup = n
	}
}

// New creates a Coordinator. Defaults: sequential, no timeout, no warmup,
// memory tracking on.
func New(opts ...Option) *Coordinator {
	c := &Coordinator{
		concurrency: 1,
		measurer:    backend.NewMeasurer(true),
		logger:      slog.Default(),
		tracer:      observability.Tracer(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Collect parses every document with b and returns exactly one Sample per
// document in input order. Failures of any kind become failed Samples.
func (c *Coordinator) Collect(ctx context.Context, b backend.Backend, docs []domain.Document) []domain.Sample {
	samples := make([]domain.Sample, len(docs))
	if len(docs) == 0 {
		return samples
	}
	c.warm(ctx, b, docs[0])

	var g errgroup.Group
	g.SetLimit(c.concurrency)
	for i, doc := range docs {
		g.Go(func() error {
			samples[i] = c.sample(ctx, b, doc)
			return nil
		})
	}
	_ = g.Wait()
	return samples
}

func (c *Coordinator) warm(ctx context.Context, b backend.Backend, doc domain.Document) {
	for i := 0; i < c.warmup && ctx.Err() == nil; i++ {
		m := c.measurer.MeasureTimeout(ctx, b, doc.Content, c.docTimeout)
		if m.Err != nil {
			c.logger.Debug("warmup parse failed", "backend", b.Name(), "document_id", doc.ID, "error", m.Err)
		}
	}
}

func (c *Coordinator) sample(ctx context.Context, b backend.Backend, doc domain.Document) domain.Sample {
	name := b.Name()
	if err := c.limiter.Wait(ctx, name); err != nil {
		return c.failed(ctx, name, doc.ID, backend.Measurement{Err: err})
	}
	if err := ctx.Err(); err != nil {
		return c.failed(ctx, name, doc.ID, backend.Measurement{Err: err})
	}

	m := c.measurer.MeasureTimeout(ctx, b, doc.Content, c.docTimeout)
	if m.Err != nil {
		return c.failed(ctx, name, doc.ID, m)
	}
	c.metrics.RecordSample(ctx, name, true, m.DurationMs)
	return domain.NewSuccessSample(name, doc.ID, m.DurationMs, m.MemoryDeltaMB, m.Features)
}

func (c *Coordinator) failed(ctx context.Context, name, docID string, m backend.Measurement) domain.Sample {
	if errors.Is(m.Err, backend.ErrTimeout) {
		c.logger.Warn("parse timed out", "backend", name, "document_id", docID,
			"abandoned", c.measurer.Abandoned())
	} else {
		c.logger.Warn("parse failed", "backend", name, "document_id", docID, "error", m.Err)
	}
	c.metrics.RecordSample(ctx, name, false, m.DurationMs)
	return domain.NewFailedSample(name, docID, m.DurationMs, m.MemoryDeltaMB, m.Err.Error())
}

// Run collects Samples for b over docs and reduces them into a Summary
// labelled with the backend name and document type.
func (c *Coordinator) Run(ctx context.Context, b backend.Backend, docType domain.DocumentType, docs []domain.Document) domain.Summary {
	ctx, span := c.tracer.Start(ctx, "coordinator.Run", trace.WithAttributes(
		attribute.String("backend", b.Name()),
		attribute.String("document_type", string(docType)),
		attribute.Int("documents", len(docs)),
	))
	defer span.End()

	samples := c.Collect(ctx, b, docs)
	summary := stats.Reduce(samples, domain.TotalBytes(docs))
	summary.BackendName = b.Name()
	summary.DocumentType = string(docType)

	span.SetAttributes(attribute.Int("failed", summary.Failed))
	c.logger.Info("benchmark run complete",
		"backend", summary.BackendName,
		"document_type", summary.DocumentType,
		"total", summary.Total,
		"succeeded", summary.Succeeded,
		"failed", summary.Failed,
		"avg_duration_ms", summary.AvgDurationMs,
		"throughput_docs_per_sec", summary.ThroughputDocsPerSec,
	)
	return summary
}

// PairResult carries both backends' Samples alongside their Comparison so
// callers can also summarize each side.
type PairResult struct {
	Comparison domain.Comparison
	SamplesA   []domain.Sample
	SamplesB   []domain.Sample
}

// ComparePair runs a and b over the same documents and evaluates each
// document both backends parsed. It fails only when tol is invalid.
func (c *Coordinator) ComparePair(ctx context.Context, a, b backend.Backend, docs []domain.Document, tol equivalence.Tolerances) (domain.Comparison, error) {
	res, err := c.ComparePairDetailed(ctx, a, b, docs, tol)
	return res.Comparison, err
}

// ComparePairDetailed is ComparePair that also returns the raw Samples.
func (c *Coordinator) ComparePairDetailed(ctx context.Context, a, b backend.Backend, docs []domain.Document, tol equivalence.Tolerances) (PairResult, error) {
	if err := tol.Validate(); err != nil {
		return PairResult{}, fmt.Errorf("compare %s vs %s: %w", a.Name(), b.Name(), err)
	}

	ctx, span := c.tracer.Start(ctx, "coordinator.ComparePair", trace.WithAttributes(
		attribute.String("backend_a", a.Name()),
		attribute.String("backend_b", b.Name()),
		attribute.Int("documents", len(docs)),
	))
	defer span.End()

	samplesA := c.Collect(ctx, a, docs)
	samplesB := c.Collect(ctx, b, docs)

	cmp := domain.Comparison{
		BackendA: a.Name(),
		BackendB: b.Name(),
		Verdicts: []domain.Verdict{},
		Skipped:  []domain.SkippedComparison{},
	}
	for i, doc := range docs {
		sa, sb := samplesA[i], samplesB[i]
		if !sa.Succeeded || !sb.Succeeded {
			cmp.Skipped = append(cmp.Skipped, domain.SkippedComparison{
				DocumentID: doc.ID,
				Kind:       domain.SkipBackendFailed,
				Reason:     failureReason(sa, sb),
			})
			c.metrics.RecordSkipped(ctx, string(domain.SkipBackendFailed))
			continue
		}

		v, err := equivalence.Evaluate(*sa.Features, *sb.Features, tol, doc.ID)
		if errors.Is(err, domain.ErrInvalidFeatures) {
			c.logger.Warn("comparison skipped", "document_id", doc.ID, "error", err)
			cmp.Skipped = append(cmp.Skipped, domain.SkippedComparison{
				DocumentID: doc.ID,
				Kind:       domain.SkipInvalidFeatures,
				Reason:     err.Error(),
			})
			c.metrics.RecordSkipped(ctx, string(domain.SkipInvalidFeatures))
			continue
		}
		if err != nil {
			// Tolerances were validated above.
			span.SetStatus(codes.Error, err.Error())
			return PairResult{}, fmt.Errorf("compare %s vs %s: %w", a.Name(), b.Name(), err)
		}
		cmp.Verdicts = append(cmp.Verdicts, v)
		c.metrics.RecordVerdict(ctx, v.Equivalent)
	}

	cmp.Equivalent = true
	for _, v := range cmp.Verdicts {
		if !v.Equivalent {
			cmp.Equivalent = false
			break
		}
	}

	span.SetAttributes(
		attribute.Int("verdicts", len(cmp.Verdicts)),
		attribute.Int("skipped", len(cmp.Skipped)),
		attribute.Bool("equivalent", cmp.Equivalent),
	)
	c.logger.Info("comparison complete",
		"backend_a", cmp.BackendA,
		"backend_b", cmp.BackendB,
		"verdicts", len(cmp.Verdicts),
		"skipped", len(cmp.Skipped),
		"divergent", len(cmp.DivergentDocuments()),
		"equivalent", cmp.Equivalent,
	)
	return PairResult{Comparison: cmp, SamplesA: samplesA, SamplesB: samplesB}, nil
}

func failureReason(a, b domain.Sample) string {
	var parts []string
	for _, s := range []domain.Sample{a, b} {
		if !s.Succeeded {
			parts = append(parts, s.BackendName+" failed: "+s.ErrorReason)
		}
	}
	return strings.Join(parts, "; ")
}
