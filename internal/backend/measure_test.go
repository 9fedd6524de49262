package backend

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/parsebench/parsebench-go/internal/domain"
)

type funcBackend struct {
	name  string
	parse func(ctx context.Context, content []byte) (domain.Features, error)
}

func (f funcBackend) Name() string { return f.name }

func (f funcBackend) Parse(ctx context.Context, content []byte) (domain.Features, error) {
	return f.parse(ctx, content)
}

// steppedClock returns start, start+step, start+2*step, ...
func steppedClock(step time.Duration) func() time.Time {
	start := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	var n atomic.Int64
	return func() time.Time {
		return start.Add(time.Duration(n.Add(1)-1) * step)
	}
}

func TestMeasurer_Success(t *testing.T) {
	t.Parallel()
	m := NewMeasurer(false)
	m.now = steppedClock(15 * time.Millisecond)

	want := domain.Features{TitleLength: 4, LinkCount: 2}
	b := funcBackend{name: "fake", parse: func(context.Context, []byte) (domain.Features, error) {
		return want, nil
	}}

	got := m.Measure(context.Background(), b, []byte("<p>"))
	require.NoError(t, got.Err)
	assert.Equal(t, want, got.Features)
	assert.InDelta(t, 15.0, got.DurationMs, 1e-9)
	assert.Zero(t, got.MemoryDeltaMB)
}

func TestMeasurer_TracksHeapDelta(t *testing.T) {
	t.Parallel()
	m := NewMeasurer(true)
	readings := []uint64{10 * bytesPerMB, 12*bytesPerMB + bytesPerMB/2}
	var i int
	m.heapUse = func() uint64 {
		v := readings[i]
		i++
		return v
	}

	b := funcBackend{name: "fake", parse: func(context.Context, []byte) (domain.Features, error) {
		return domain.Features{}, nil
	}}
	got := m.Measure(context.Background(), b, nil)
	assert.InDelta(t, 2.5, got.MemoryDeltaMB, 1e-9)
}

func TestMeasurer_NegativeHeapDelta(t *testing.T) {
	t.Parallel()
	m := NewMeasurer(true)
	readings := []uint64{4 * bytesPerMB, 3 * bytesPerMB}
	var i int
	m.heapUse = func() uint64 {
		v := readings[i]
		i++
		return v
	}
	b := funcBackend{name: "fake", parse: func(context.Context, []byte) (domain.Features, error) {
		return domain.Features{}, nil
	}}
	assert.InDelta(t, -1.0, m.Measure(context.Background(), b, nil).MemoryDeltaMB, 1e-9)
}

func TestMeasurer_Error(t *testing.T) {
	t.Parallel()
	boom := errors.New("boom")
	b := funcBackend{name: "fake", parse: func(context.Context, []byte) (domain.Features, error) {
		return domain.Features{TitleLength: 3}, boom
	}}
	got := NewMeasurer(false).Measure(context.Background(), b, nil)
	assert.ErrorIs(t, got.Err, boom)
}

func TestMeasurer_RecoversPanic(t *testing.T) {
	t.Parallel()
	b := funcBackend{name: "fake", parse: func(context.Context, []byte) (domain.Features, error) {
		panic("nil map write")
	}}
	got := NewMeasurer(true).Measure(context.Background(), b, nil)
	require.Error(t, got.Err)
	assert.Equal(t, "fake panicked: nil map write", got.Err.Error())
	assert.Equal(t, domain.Features{}, got.Features)
	assert.GreaterOrEqual(t, got.DurationMs, 0.0)
}

func TestMeasurer_SerializesMemoryWindows(t *testing.T) {
	t.Parallel()
	m := NewMeasurer(true)

	var inFlight, maxSeen atomic.Int64
	b := funcBackend{name: "fake", parse: func(context.Context, []byte) (domain.Features, error) {
		n := inFlight.Add(1)
		defer inFlight.Add(-1)
		for {
			cur := maxSeen.Load()
			if n <= cur || maxSeen.CompareAndSwap(cur, n) {
				break
			}
		}
		time.Sleep(2 * time.Millisecond)
		return domain.Features{}, nil
	}}

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			m.Measure(context.Background(), b, nil)
		}()
	}
	wg.Wait()
	assert.Equal(t, int64(1), maxSeen.Load())
}

func TestMeasurer_Timeout(t *testing.T) {
	t.Parallel()
	release := make(chan struct{})
	defer close(release)
	b := funcBackend{name: "slow", parse: func(context.Context, []byte) (domain.Features, error) {
		<-release
		return domain.Features{}, nil
	}}

	got := NewMeasurer(false).MeasureTimeout(context.Background(), b, nil, 20*time.Millisecond)
	require.ErrorIs(t, got.Err, ErrTimeout)
	assert.Equal(t, "timeout", got.Err.Error())
	assert.GreaterOrEqual(t, got.DurationMs, 0.0)
}

func TestMeasurer_TimeoutHonouredByBackend(t *testing.T) {
	t.Parallel()
	b := funcBackend{name: "polite", parse: func(ctx context.Context, _ []byte) (domain.Features, error) {
		<-ctx.Done()
		return domain.Features{}, ctx.Err()
	}}

	got := NewMeasurer(true).MeasureTimeout(context.Background(), b, nil, 10*time.Millisecond)
	assert.ErrorIs(t, got.Err, ErrTimeout)
}

func TestMeasurer_FastParseBeatsTimeout(t *testing.T) {
	t.Parallel()
	b := funcBackend{name: "fast", parse: func(context.Context, []byte) (domain.Features, error) {
		return domain.Features{LinkCount: 1}, nil
	}}
	got := NewMeasurer(true).MeasureTimeout(context.Background(), b, nil, time.Minute)
	require.NoError(t, got.Err)
	assert.Equal(t, 1, got.Features.LinkCount)
}

func TestMeasurer_ParentCancelIsNotTimeout(t *testing.T) {
	t.Parallel()
	ctx, cancel := context.WithCancel(context.Background())
	b := funcBackend{name: "blocked", parse: func(ctx context.Context, _ []byte) (domain.Features, error) {
		cancel()
		<-ctx.Done()
		return domain.Features{}, ctx.Err()
	}}
	got := NewMeasurer(false).MeasureTimeout(ctx, b, nil, time.Minute)
	assert.ErrorIs(t, got.Err, context.Canceled)
	assert.NotErrorIs(t, got.Err, ErrTimeout)
}

func TestMeasurer_TimeoutReleasesMemoryWindow(t *testing.T) {
	t.Parallel()
	release := make(chan struct{})
	returned := make(chan struct{})
	stuck := funcBackend{name: "stuck", parse: func(context.Context, []byte) (domain.Features, error) {
		defer close(returned)
		<-release
		return domain.Features{}, nil
	}}
	fast := funcBackend{name: "fast", parse: func(context.Context, []byte) (domain.Features, error) {
		return domain.Features{LinkCount: 1}, nil
	}}

	m := NewMeasurer(true)
	var heap atomic.Uint64
	m.heapUse = func() uint64 { return heap.Add(bytesPerMB) }

	got := m.MeasureTimeout(context.Background(), stuck, nil, 10*time.Millisecond)
	require.ErrorIs(t, got.Err, ErrTimeout)
	assert.Equal(t, 1, m.Abandoned())

	start := time.Now()
	next := m.MeasureTimeout(context.Background(), fast, nil, time.Second)
	assert.Less(t, time.Since(start), 500*time.Millisecond)
	require.NoError(t, next.Err)
	assert.Equal(t, 1, next.Features.LinkCount)
	assert.Zero(t, next.MemoryDeltaMB)

	close(release)
	<-returned
	require.Eventually(t, func() bool { return m.Abandoned() == 0 }, time.Second, time.Millisecond)

	after := m.Measure(context.Background(), fast, nil)
	assert.InDelta(t, 1.0, after.MemoryDeltaMB, 1e-9)
}
