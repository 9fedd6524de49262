// Package stats reduces per-document samples into a run Summary.
//
// Reduce is pure: it never mutates its input, never returns an error and
// may be called from any number of goroutines. Degenerate input (no samples,
// or no successful samples) yields zeroed statistics rather than NaN.
package stats

import (
	"math"
	"slices"

	"github.com/parsebench/parsebench-go/internal/domain"
)

const bytesPerMB = 1024 * 1024

// Percentile ranks used for Summary.P95DurationMs and Summary.P99DurationMs.
const (
	P95 = 0.95
	P99 = 0.99
)

// Reduce aggregates samples for one (backend, document type) pair.
// Statistics cover successful samples only. BackendName and DocumentType
// are left for the caller to fill in.
func Reduce(samples []domain.Sample, totalInputBytes int64) domain.Summary {
	if totalInputBytes < 0 {
		totalInputBytes = 0
	}

	sum := domain.Summary{
		Total:      len(samples),
		TotalBytes: totalInputBytes,
		Errors:     []string{},
	}

	durations := make([]float64, 0, len(samples))
	memory := make([]float64, 0, len(samples))
	for _, s := range samples {
		if !s.Succeeded {
			sum.Failed++
			sum.Errors = append(sum.Errors, s.DocumentID+": "+s.ErrorReason)
			continue
		}
		sum.Succeeded++
		durations = append(durations, s.DurationMs)
		memory = append(memory, s.MemoryDeltaMB)
	}

	if len(durations) == 0 {
		return sum
	}

	sorted := slices.Clone(durations)
	slices.Sort(sorted)

	sum.TotalDurationMs = Sum(durations)
	sum.AvgDurationMs = Mean(durations)
	sum.MedianDurationMs = medianSorted(sorted)
	sum.MinDurationMs = sorted[0]
	sum.MaxDurationMs = sorted[len(sorted)-1]
	sum.P95DurationMs = Percentile(sorted, P95)
	sum.P99DurationMs = Percentile(sorted, P99)

	sum.ThroughputDocsPerSec = Throughput(float64(sum.Succeeded), sum.TotalDurationMs)
	sum.ThroughputMBPerSec = Throughput(float64(totalInputBytes)/bytesPerMB, sum.TotalDurationMs)

	sum.AvgMemoryMB = Mean(memory)
	sum.MaxMemoryMB = slices.Max(memory)

	return sum
}

// Percentile returns the nearest-rank value at p from an ascending slice:
// index floor(len*p), falling back to the maximum when the index runs off
// the end. With 20 or fewer samples p99 is always the maximum.
func Percentile(sorted []float64, p float64) float64 {
	n := len(sorted)
	if n == 0 {
		return 0
	}
	idx := int(math.Floor(float64(n) * p))
	if idx < 0 {
		idx = 0
	}
	if idx < n {
		return sorted[idx]
	}
	return sorted[n-1]
}

// Throughput returns amount per second for totalMs of work, or 0 when no
// time was recorded.
func Throughput(amount, totalMs float64) float64 {
	if totalMs == 0 {
		return 0
	}
	return amount / (totalMs / 1000)
}

// Sum adds values.
func Sum(values []float64) float64 {
	var total float64
	for _, v := range values {
		total += v
	}
	return total
}

// Mean returns the arithmetic mean, or 0 for no values.
func Mean(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	return Sum(values) / float64(len(values))
}

// Median returns the middle value, averaging the two middle values for an
// even count. The input is not modified.
func Median(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	sorted := slices.Clone(values)
	slices.Sort(sorted)
	return medianSorted(sorted)
}

func medianSorted(sorted []float64) float64 {
	n := len(sorted)
	if n%2 == 1 {
		return sorted[n/2]
	}
	return (sorted[n/2-1] + sorted[n/2]) / 2
}
