// Package cloudwatch publishes benchmark Summaries as CloudWatch metrics.
package cloudwatch

import (
	"context"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	cw "github.com/aws/aws-sdk-go-v2/service/cloudwatch"
	cwtypes "github.com/aws/aws-sdk-go-v2/service/cloudwatch/types"

	"github.com/parsebench/parsebench-go/internal/domain"
)

// DefaultNamespace is used when the publisher is created without one.
const DefaultNamespace = "ParseBench"

// API is the subset of the CloudWatch client used by this package.
type API interface {
	PutMetricData(ctx context.Context, params *cw.PutMetricDataInput, optFns ...func(*cw.Options)) (*cw.PutMetricDataOutput, error)
}

// Publisher sends one batch of metrics per Summary.
type Publisher struct {
	api       API
	namespace string
	now       func() time.Time
}

// New creates a Publisher from an AWS config.
func New(cfg aws.Config, namespace string) *Publisher {
	return NewFromAPI(cw.NewFromConfig(cfg), namespace)
}

// NewFromAPI creates a Publisher from an explicit API implementation (for testing).
func NewFromAPI(api API, namespace string) *Publisher {
	if namespace == "" {
		namespace = DefaultNamespace
	}
	return &Publisher{api: api, namespace: namespace, now: time.Now}
}

// PublishSummary writes the summary's latency, throughput and failure
// metrics under Backend and DocumentType dimensions.
func (p *Publisher) PublishSummary(ctx context.Context, s domain.Summary) error {
	ts := aws.Time(p.now().UTC())
	dims := []cwtypes.Dimension{
		{Name: aws.String("Backend"), Value: aws.String(s.BackendName)},
		{Name: aws.String("DocumentType"), Value: aws.String(s.DocumentType)},
	}
	datum := func(name string, value float64, unit cwtypes.StandardUnit) cwtypes.MetricDatum {
		return cwtypes.MetricDatum{
			MetricName: aws.String(name),
			Dimensions: dims,
			Timestamp:  ts,
			Value:      aws.Float64(value),
			Unit:       unit,
		}
	}

	_, err := p.api.PutMetricData(ctx, &cw.PutMetricDataInput{
		Namespace: aws.String(p.namespace),
		MetricData: []cwtypes.MetricDatum{
			datum("AvgDurationMs", s.AvgDurationMs, cwtypes.StandardUnitMilliseconds),
			datum("MedianDurationMs", s.MedianDurationMs, cwtypes.StandardUnitMilliseconds),
			datum("P95DurationMs", s.P95DurationMs, cwtypes.StandardUnitMilliseconds),
			datum("P99DurationMs", s.P99DurationMs, cwtypes.StandardUnitMilliseconds),
			datum("ThroughputDocsPerSec", s.ThroughputDocsPerSec, cwtypes.StandardUnitCountSecond),
			datum("SuccessRate", s.SuccessRate(), cwtypes.StandardUnitPercent),
			datum("FailedParses", float64(s.Failed), cwtypes.StandardUnitCount),
		},
	})
	if err != nil {
		return fmt.Errorf("cloudwatch: put metric data %s/%s: %w", s.BackendName, s.DocumentType, err)
	}
	return nil
}
