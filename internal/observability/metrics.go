package observability

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// Metrics holds OTel metric instruments for benchmark runs. A nil *Metrics
// records nothing.
type Metrics struct {
	Samples        metric.Int64Counter
	ParseDuration  metric.Float64Histogram
	Verdicts       metric.Int64Counter
	SkippedCompare metric.Int64Counter
}

// NewMetrics creates the instruments on the global meter provider.
func NewMetrics() (*Metrics, error) {
	return NewMetricsFrom(otel.Meter("parsebench"))
}

// NewMetricsFrom creates the instruments on the given meter.
func NewMetricsFrom(meter metric.Meter) (*Metrics, error) {
	samples, err := meter.Int64Counter("parsebench.samples",
		metric.WithDescription("Number of measured parse attempts"),
	)
	if err != nil {
		return nil, err
	}

	parseDuration, err := meter.Float64Histogram("parsebench.parse.duration_ms",
		metric.WithDescription("Wall time of successful parses"),
		metric.WithUnit("ms"),
	)
	if err != nil {
		return nil, err
	}

	verdicts, err := meter.Int64Counter("parsebench.verdicts",
		metric.WithDescription("Number of per-document equivalence verdicts"),
	)
	if err != nil {
		return nil, err
	}

	skipped, err := meter.Int64Counter("parsebench.comparisons.skipped",
		metric.WithDescription("Number of documents excluded from comparison"),
	)
	if err != nil {
		return nil, err
	}

	return &Metrics{
		Samples:        samples,
		ParseDuration:  parseDuration,
		Verdicts:       verdicts,
		SkippedCompare: skipped,
	}, nil
}

// RecordSample records one parse attempt.
func (m *Metrics) RecordSample(ctx context.Context, backend string, succeeded bool, durationMs float64) {
	if m == nil {
		return
	}
	outcome := "failure"
	if succeeded {
		outcome = "success"
	}
	m.Samples.Add(ctx, 1,
		metric.WithAttributes(
			attribute.String("backend", backend),
			attribute.String("outcome", outcome),
		),
	)
	if succeeded {
		m.ParseDuration.Record(ctx, durationMs,
			metric.WithAttributes(attribute.String("backend", backend)),
		)
	}
}

// RecordVerdict records one evaluated document.
func (m *Metrics) RecordVerdict(ctx context.Context, equivalent bool) {
	if m == nil {
		return
	}
	m.Verdicts.Add(ctx, 1,
		metric.WithAttributes(attribute.Bool("equivalent", equivalent)),
	)
}

// RecordSkipped records one document excluded from comparison.
func (m *Metrics) RecordSkipped(ctx context.Context, kind string) {
	if m == nil {
		return
	}
	m.SkippedCompare.Add(ctx, 1,
		metric.WithAttributes(attribute.String("kind", kind)),
	)
}
