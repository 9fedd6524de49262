// Package fixtures loads the benchmark corpus from disk.
package fixtures

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/gabriel-vasile/mimetype"

	"github.com/parsebench/parsebench-go/internal/domain"
)

// ErrNoFixtures is returned when a corpus holds no files of the requested type.
var ErrNoFixtures = errors.New("no fixture files found")

// Load reads every *.<docType> file in the immediate subdirectories of dir.
// Subdirectories and files are visited in name order; files directly under
// dir are ignored. Document IDs are "<subdir>/<file>".
func Load(dir string, docType domain.DocumentType) ([]domain.Document, error) {
	if !docType.Valid() {
		return nil, fmt.Errorf("fixtures: unknown document type %q", docType)
	}
	groups, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("fixtures: read %s: %w", dir, err)
	}

	var docs []domain.Document
	for _, g := range groups {
		if !g.IsDir() {
			continue
		}
		entries, err := os.ReadDir(filepath.Join(dir, g.Name()))
		if err != nil {
			return nil, fmt.Errorf("fixtures: read %s: %w", g.Name(), err)
		}
		for _, e := range entries {
			if e.IsDir() || !strings.EqualFold(filepath.Ext(e.Name()), docType.Extension()) {
				continue
			}
			doc, err := readDocument(filepath.Join(dir, g.Name(), e.Name()), g.Name()+"/"+e.Name())
			if err != nil {
				return nil, err
			}
			docs = append(docs, doc)
		}
	}

	if len(docs) == 0 {
		return nil, fmt.Errorf("fixtures: %s in %s: %w", docType.Extension(), dir, ErrNoFixtures)
	}
	return docs, nil
}

func readDocument(path, id string) (domain.Document, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return domain.Document{}, fmt.Errorf("fixtures: read %s: %w", id, err)
	}
	return domain.Document{
		ID:       id,
		Content:  content,
		ByteSize: int64(len(content)),
		MIMEType: mimetype.Detect(content).String(),
	}, nil
}
