package ratelimit

import (
	"errors"
	"fmt"
	"sync"
	"time"
)

// ErrBudgetExceeded is returned by Budget.Take once a caller has used its
// allowance for the current window.
var ErrBudgetExceeded = errors.New("request budget exceeded")

// Budget tracks per-caller operation counts within fixed time windows.
type Budget struct {
	mu     sync.Mutex
	counts map[string]*windowCounter

	maxPerWindow int
	windowSize   time.Duration
	now          func() time.Time
}

type windowCounter struct {
	count     int
	windowEnd time.Time
}

// NewBudget creates a budget allowing maxPerWindow calls per
// (caller, operation) within windowSize. maxPerWindow <= 0 means unlimited.
func NewBudget(maxPerWindow int, windowSize time.Duration) *Budget {
	return &Budget{
		counts:       make(map[string]*windowCounter),
		maxPerWindow: maxPerWindow,
		windowSize:   windowSize,
		now:          time.Now,
	}
}

func budgetKey(caller, operation string) string {
	return caller + "|" + operation
}

// Take records one call and returns ErrBudgetExceeded, without recording,
// when the caller is already at the limit.
func (b *Budget) Take(caller, operation string) error {
	if b == nil || b.maxPerWindow <= 0 {
		return nil
	}
	b.mu.Lock()
	defer b.mu.Unlock()

	key := budgetKey(caller, operation)
	now := b.now()
	wc, ok := b.counts[key]
	if !ok || now.After(wc.windowEnd) {
		b.counts[key] = &windowCounter{count: 1, windowEnd: now.Add(b.windowSize)}
		return nil
	}
	if wc.count >= b.maxPerWindow {
		return fmt.Errorf("%w: %s %s (%d/%d in window)",
			ErrBudgetExceeded, caller, operation, wc.count, b.maxPerWindow)
	}
	wc.count++
	return nil
}
