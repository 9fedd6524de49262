package backend

import (
	"context"
	"errors"
	"fmt"
	"runtime"
	"sync"
	"sync/atomic"
	"time"

	"github.com/parsebench/parsebench-go/internal/domain"
)

const bytesPerMB = 1024 * 1024

// ErrTimeout marks a parse that did not finish within its per-document timeout.
var ErrTimeout = errors.New("timeout")

// Measurement is the outcome of one timed Parse call.
type Measurement struct {
	DurationMs    float64
	MemoryDeltaMB float64
	Features      domain.Features
	Err           error
}

// Measurer times Parse calls and, when TrackMemory is set, records the
// heap delta across the call. Memory windows are serialized so concurrent
// documents never share one window; timing-only measurement runs in
// parallel.
type Measurer struct {
	TrackMemory bool

	mu sync.Mutex
	// abandoned counts timed-out parses that are still running. While it is
	// non-zero their allocations pollute the heap, so deltas read as 0.
	abandoned atomic.Int64
	now       func() time.Time
	heapUse   func() uint64
}

// NewMeasurer creates a Measurer.
func NewMeasurer(trackMemory bool) *Measurer {
	return &Measurer{
		TrackMemory: trackMemory,
		now:         time.Now,
		heapUse:     heapAlloc,
	}
}

// Measure runs b.Parse once with no deadline of its own.
func (m *Measurer) Measure(ctx context.Context, b Backend, content []byte) Measurement {
	return m.MeasureTimeout(ctx, b, content, 0)
}

// MeasureTimeout runs b.Parse once. Panics inside Parse are returned as
// Err. With a positive timeout, a parse still running when it expires is
// abandoned and reported as ErrTimeout. The abandoned call gives up the
// memory window at once, and memory deltas read as 0 until it returns.
// Cancellation of ctx is reported as ctx.Err().
func (m *Measurer) MeasureTimeout(ctx context.Context, b Backend, content []byte, timeout time.Duration) Measurement {
	m.lock()
	if timeout <= 0 {
		defer m.unlock()
		return m.measure(ctx, b, content)
	}

	// Whoever flips released first hands the window back: the parse when it
	// finishes in time, the caller when it gives up waiting.
	var released atomic.Bool
	pctx, cancel := context.WithTimeout(ctx, timeout)
	done := make(chan Measurement, 1)
	start := m.now()
	go func() {
		defer cancel()
		out := m.measure(pctx, b, content)
		if released.CompareAndSwap(false, true) {
			m.unlock()
		} else {
			m.abandoned.Add(-1)
		}
		done <- out
	}()

	select {
	case out := <-done:
		if errors.Is(out.Err, context.DeadlineExceeded) && ctx.Err() == nil {
			out.Err = ErrTimeout
		}
		return out
	case <-pctx.Done():
		m.abandoned.Add(1)
		if !released.CompareAndSwap(false, true) {
			m.abandoned.Add(-1)
			out := <-done
			if errors.Is(out.Err, context.DeadlineExceeded) && ctx.Err() == nil {
				out.Err = ErrTimeout
			}
			return out
		}
		m.unlock()
		out := Measurement{DurationMs: msSince(start, m.now()), Err: ErrTimeout}
		if err := ctx.Err(); err != nil {
			out.Err = err
		}
		return out
	}
}

func (m *Measurer) measure(ctx context.Context, b Backend, content []byte) Measurement {
	track := m.TrackMemory && m.abandoned.Load() == 0
	var before uint64
	if track {
		before = m.heapUse()
	}
	start := m.now()
	f, err := safeParse(ctx, b, content)
	end := m.now()

	out := Measurement{
		DurationMs: msSince(start, end),
		Features:   f,
		Err:        err,
	}
	if track && m.abandoned.Load() == 0 {
		out.MemoryDeltaMB = (float64(m.heapUse()) - float64(before)) / bytesPerMB
	}
	return out
}

func (m *Measurer) lock() {
	if m.TrackMemory {
		m.mu.Lock()
	}
}

func (m *Measurer) unlock() {
	if m.TrackMemory {
		m.mu.Unlock()
	}
}

// Abandoned reports how many timed-out parses are still running.
func (m *Measurer) Abandoned() int {
	return int(m.abandoned.Load())
}

func msSince(start, end time.Time) float64 {
	return float64(end.Sub(start).Nanoseconds()) / 1e6
}

func safeParse(ctx context.Context, b Backend, content []byte) (f domain.Features, err error) {
	defer func() {
		if r := recover(); r != nil {
			f = domain.Features{}
			err = fmt.Errorf("%s panicked: %v", b.Name(), r)
		}
	}()
	return b.Parse(ctx, content)
}

func heapAlloc() uint64 {
	var ms runtime.MemStats
	runtime.ReadMemStats(&ms)
	return ms.HeapAlloc
}
