// Package ratelimit provides per-backend token-bucket throttles and
// per-caller request budgets.
package ratelimit

import (
	"context"
	"fmt"
	"math"
	"sync"

	"golang.org/x/time/rate"
)

// BackendLimiter throttles document parses per backend using token buckets.
// Each backend gets its own bucket on first use.
type BackendLimiter struct {
	mu       sync.RWMutex
	limiters map[string]*rate.Limiter

	perSecond float64
	burst     int
}

// NewBackendLimiter creates a limiter allowing perSecond documents per
// backend. A non-positive rate disables throttling.
func NewBackendLimiter(perSecond float64) *BackendLimiter {
	burst := int(math.Ceil(perSecond))
	if burst < 1 {
		burst = 1
	}
	return &BackendLimiter{
		limiters:  make(map[string]*rate.Limiter),
		perSecond: perSecond,
		burst:     burst,
	}
}

// Enabled reports whether Wait can block.
func (bl *BackendLimiter) Enabled() bool {
	return bl != nil && bl.perSecond > 0
}

// Wait blocks until a token is available for the named backend, or ctx is cancelled.
func (bl *BackendLimiter) Wait(ctx context.Context, backend string) error {
	if !bl.Enabled() {
		return nil
	}
	if err := bl.limiter(backend).Wait(ctx); err != nil {
		return fmt.Errorf("rate limit %s: %w", backend, err)
	}
	return nil
}

func (bl *BackendLimiter) limiter(backend string) *rate.Limiter {
	bl.mu.RLock()
	l, ok := bl.limiters[backend]
	bl.mu.RUnlock()
	if ok {
		return l
	}

	bl.mu.Lock()
	defer bl.mu.Unlock()
	if l, ok = bl.limiters[backend]; ok {
		return l
	}
	l = rate.NewLimiter(rate.Limit(bl.perSecond), bl.burst)
	bl.limiters[backend] = l
	return l
}
