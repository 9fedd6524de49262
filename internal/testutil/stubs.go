// Package testutil holds test doubles shared across package tests.
package testutil

import (
	"context"
	"path/filepath"
	"runtime"
	"sync"
	"sync/atomic"
	"time"

	"github.com/parsebench/parsebench-go/internal/domain"
)

// FixturesDir returns the absolute path of the repository fixture corpus.
func FixturesDir() string {
	_, filename, _, _ := runtime.Caller(0)
	return filepath.Join(filepath.Dir(filename), "..", "..", "testdata", "fixtures")
}

// StubBackend satisfies backend.Backend with canned per-document results
// keyed by content.
type StubBackend struct {
	BackendName string
	// Results maps document content to the Features returned for it.
	Results map[string]domain.Features
	// Errors maps document content to a parse error.
	Errors map[string]error
	// Panics lists contents whose parse panics.
	Panics map[string]bool
	// Delay is slept before each parse, honouring ctx.
	Delay time.Duration
	// Block parses never return until ctx is done.
	Block map[string]bool

	calls    atomic.Int64
	inFlight atomic.Int64
	maxSeen  atomic.Int64

	mu   sync.Mutex
	seen []string
}

func (s *StubBackend) Name() string { return s.BackendName }

func (s *StubBackend) Parse(ctx context.Context, content []byte) (domain.Features, error) {
	key := string(content)
	s.calls.Add(1)
	n := s.inFlight.Add(1)
	defer s.inFlight.Add(-1)
	for {
		m := s.maxSeen.Load()
		if n <= m || s.maxSeen.CompareAndSwap(m, n) {
			break
		}
	}
	s.mu.Lock()
	s.seen = append(s.seen, key)
	s.mu.Unlock()

	if s.Block[key] {
		<-ctx.Done()
		return domain.Features{}, ctx.Err()
	}
	if s.Delay > 0 {
		select {
		case <-time.After(s.Delay):
		case <-ctx.Done():
			return domain.Features{}, ctx.Err()
		}
	}
	if s.Panics[key] {
		panic("stub backend exploded on " + key)
	}
	if err, ok := s.Errors[key]; ok {
		return domain.Features{}, err
	}
	return s.Results[key], nil
}

// Calls is the number of Parse invocations so far.
func (s *StubBackend) Calls() int { return int(s.calls.Load()) }

// MaxConcurrent is the highest number of simultaneous Parse calls observed.
func (s *StubBackend) MaxConcurrent() int { return int(s.maxSeen.Load()) }

// Seen returns parsed contents in call order.
func (s *StubBackend) Seen() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.seen...)
}

// Docs builds in-memory documents whose content equals their ID.
func Docs(ids ...string) []domain.Document {
	docs := make([]domain.Document, len(ids))
	for i, id := range ids {
		docs[i] = domain.Document{ID: id, Content: []byte(id), ByteSize: int64(len(id)), MIMEType: "text/html"}
	}
	return docs
}
