// Package results persists benchmark Summaries.
package results

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/parsebench/parsebench-go/internal/domain"
)

// ErrNotFound is returned when no summary exists for a backend/type pair.
var ErrNotFound = errors.New("results: summary not found")

// Store saves and loads Summaries keyed by backend and document type.
type Store interface {
	SaveSummary(ctx context.Context, s domain.Summary) error
	LoadSummary(ctx context.Context, backend, docType string) (domain.Summary, error)
	ListSummaries(ctx context.Context) ([]domain.Summary, error)
}

const (
	filePrefix = "benchmark_"
	fileSuffix = ".json"
)

// FileStore keeps one indented JSON file per backend and document type.
type FileStore struct {
	Dir string
}

func NewFileStore(dir string) *FileStore {
	return &FileStore{Dir: dir}
}

// Path returns the file holding the summary for backend and docType.
func (fs *FileStore) Path(backend, docType string) string {
	return filepath.Join(fs.Dir, filePrefix+backend+"_"+docType+fileSuffix)
}

func (fs *FileStore) SaveSummary(_ context.Context, s domain.Summary) error {
	if err := checkKey(s.BackendName, s.DocumentType); err != nil {
		return err
	}
	if err := WriteJSON(fs.Path(s.BackendName, s.DocumentType), s); err != nil {
		return fmt.Errorf("results: save %s/%s: %w", s.BackendName, s.DocumentType, err)
	}
	return nil
}

func (fs *FileStore) LoadSummary(_ context.Context, backend, docType string) (domain.Summary, error) {
	if err := checkKey(backend, docType); err != nil {
		return domain.Summary{}, err
	}
	return readSummary(fs.Path(backend, docType))
}

func (fs *FileStore) ListSummaries(_ context.Context) ([]domain.Summary, error) {
	matches, err := filepath.Glob(filepath.Join(fs.Dir, filePrefix+"*"+fileSuffix))
	if err != nil {
		return nil, fmt.Errorf("results: list: %w", err)
	}
	sort.Strings(matches)

	out := make([]domain.Summary, 0, len(matches))
	for _, path := range matches {
		s, err := readSummary(path)
		if err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, nil
}

func readSummary(path string) (domain.Summary, error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return domain.Summary{}, ErrNotFound
	}
	if err != nil {
		return domain.Summary{}, fmt.Errorf("results: read %s: %w", filepath.Base(path), err)
	}
	var s domain.Summary
	if err := json.Unmarshal(data, &s); err != nil {
		return domain.Summary{}, fmt.Errorf("results: decode %s: %w", filepath.Base(path), err)
	}
	if s.Errors == nil {
		s.Errors = []string{}
	}
	return s, nil
}

// checkKey rejects names that would escape the results directory or be
// ambiguous in a file name.
func checkKey(backend, docType string) error {
	for _, v := range []string{backend, docType} {
		if v == "" || strings.ContainsAny(v, `/\`) || strings.Contains(v, "..") {
			return fmt.Errorf("results: invalid key %q", v)
		}
	}
	return nil
}

// WriteJSON writes v as indented JSON, creating parent directories.
func WriteJSON(path string, v any) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return err
		}
	}
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	enc := json.NewEncoder(f)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		_ = f.Close()
		return err
	}
	return f.Close()
}
