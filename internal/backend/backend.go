// Package backend defines the parser contract under benchmark and the two
// implementations compared by default: a CSS-selector parser built on
// goquery and an XPath parser built on htmlquery.
package backend

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/parsebench/parsebench-go/internal/domain"
)

// ErrEmptyDocument is returned for empty or whitespace-only content.
var ErrEmptyDocument = errors.New("document is empty")

// Backend parses one document into Features. Malformed input must produce
// an error, never partially zeroed Features.
type Backend interface {
	Name() string
	Parse(ctx context.Context, content []byte) (domain.Features, error)
}

// decode mirrors a lenient UTF-8 decode: invalid bytes become U+FFFD.
func decode(content []byte) (string, error) {
	if len(bytes.TrimSpace(content)) == 0 {
		return "", ErrEmptyDocument
	}
	return strings.ToValidUTF8(string(content), "�"), nil
}

// Registry resolves backends by name.
type Registry struct {
	backends map[string]Backend
}

// NewRegistry builds a registry; later backends replace earlier ones with
// the same name.
func NewRegistry(backends ...Backend) *Registry {
	r := &Registry{backends: make(map[string]Backend, len(backends))}
	for _, b := range backends {
		r.backends[b.Name()] = b
	}
	return r
}

// DefaultRegistry holds the goquery and htmlquery backends.
func DefaultRegistry() *Registry {
	return NewRegistry(NewGoqueryBackend(), NewHTMLQueryBackend())
}

// Get returns the named backend.
func (r *Registry) Get(name string) (Backend, error) {
	b, ok := r.backends[name]
	if !ok {
		return nil, fmt.Errorf("unknown backend %q (available: %s)", name, strings.Join(r.Names(), ", "))
	}
	return b, nil
}

// Names lists registered backends, sorted.
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.backends))
	for n := range r.backends {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}
