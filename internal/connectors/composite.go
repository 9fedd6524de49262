// Package connectors composes the persistence and metric-publishing
// adapters that consume benchmark Summaries, and builds them from config.
package connectors

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/parsebench/parsebench-go/internal/domain"
	"github.com/parsebench/parsebench-go/internal/results"
)

// Publisher exports a Summary as metrics.
type Publisher interface {
	PublishSummary(ctx context.Context, s domain.Summary) error
}

// SummarySink fans a finished Summary out to a results.Store and a
// Publisher. Either may be nil.
type SummarySink struct {
	store  results.Store
	pub    Publisher
	logger *slog.Logger
}

// NewSummarySink creates a SummarySink.
func NewSummarySink(store results.Store, pub Publisher, logger *slog.Logger) *SummarySink {
	if logger == nil {
		logger = slog.Default()
	}
	return &SummarySink{store: store, pub: pub, logger: logger}
}

// Enabled reports whether Record does anything.
func (s *SummarySink) Enabled() bool {
	return s != nil && (s.store != nil || s.pub != nil)
}

// Record saves and publishes sum. A failed save does not prevent
// publishing; both errors are returned.
func (s *SummarySink) Record(ctx context.Context, sum domain.Summary) error {
	if !s.Enabled() {
		return nil
	}
	var errs []error
	if s.store != nil {
		if err := s.store.SaveSummary(ctx, sum); err != nil {
			errs = append(errs, fmt.Errorf("save %s/%s: %w", sum.BackendName, sum.DocumentType, err))
		} else {
			s.logger.Info("summary saved", "backend", sum.BackendName, "document_type", sum.DocumentType)
		}
	}
	if s.pub != nil {
		if err := s.pub.PublishSummary(ctx, sum); err != nil {
			errs = append(errs, fmt.Errorf("publish %s/%s: %w", sum.BackendName, sum.DocumentType, err))
		} else {
			s.logger.Info("summary published", "backend", sum.BackendName, "document_type", sum.DocumentType)
		}
	}
	return errors.Join(errs...)
}
