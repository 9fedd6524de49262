package equivalence

import (
	"errors"
	"fmt"
	"math"
	"os"
	"sort"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/parsebench/parsebench-go/internal/domain"
)

// ErrInvalidTolerance marks a tolerance table with an unknown field or a
// negative/NaN tolerance.
var ErrInvalidTolerance = errors.New("invalid tolerance")

// Tolerances maps a field to the largest absolute difference accepted
// between two backends. Fields missing from the table are not compared.
type Tolerances map[domain.Field]float64

// DefaultTolerances returns the stock table. The values absorb whitespace
// and normalization differences between parsers, not parser bugs.
func DefaultTolerances() Tolerances {
	return Tolerances{
		domain.FieldTitleLength:           2,
		domain.FieldMetaDescriptionLength: 16,
		domain.FieldOGTagCount:            1,
		domain.FieldLinkImageCount:        2,
		domain.FieldTextLength:            2048,
	}
}

// Validate rejects unknown fields and negative or NaN tolerances.
func (t Tolerances) Validate() error {
	for _, f := range t.Fields() {
		tol := t[f]
		if !f.Valid() {
			return fmt.Errorf("%w: unknown field %q", ErrInvalidTolerance, f)
		}
		if math.IsNaN(tol) || tol < 0 {
			return fmt.Errorf("%w: %s must be a non-negative number, got %v", ErrInvalidTolerance, f, tol)
		}
	}
	return nil
}

// Fields returns the configured fields, sorted.
func (t Tolerances) Fields() []domain.Field {
	fields := make([]domain.Field, 0, len(t))
	for f := range t {
		fields = append(fields, f)
	}
	sort.Slice(fields, func(i, j int) bool { return fields[i] < fields[j] })
	return fields
}

// Merge returns a new table with overrides applied on top of t.
func (t Tolerances) Merge(overrides Tolerances) Tolerances {
	out := make(Tolerances, len(t)+len(overrides))
	for f, v := range t {
		out[f] = v
	}
	for f, v := range overrides {
		out[f] = v
	}
	return out
}

// ParseOverrides parses "field=value" pairs, as given on the command line.
func ParseOverrides(pairs []string) (Tolerances, error) {
	out := make(Tolerances, len(pairs))
	for _, p := range pairs {
		name, raw, found := strings.Cut(p, "=")
		if !found {
			return nil, fmt.Errorf("%w: %q is not field=value", ErrInvalidTolerance, p)
		}
		v, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
		if err != nil {
			return nil, fmt.Errorf("%w: %s: %v", ErrInvalidTolerance, name, err)
		}
		out[domain.Field(strings.TrimSpace(name))] = v
	}
	if err := out.Validate(); err != nil {
		return nil, err
	}
	return out, nil
}

// LoadTolerances reads a YAML mapping of field name to tolerance. The file
// replaces the defaults entirely, so a field left out of the file is not
// compared.
func LoadTolerances(path string) (Tolerances, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("tolerances: read %s: %w", path, err)
	}
	var raw map[string]float64
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("tolerances: parse %s: %w", path, err)
	}
	t := make(Tolerances, len(raw))
	for name, v := range raw {
		t[domain.Field(name)] = v
	}
	if err := t.Validate(); err != nil {
		return nil, fmt.Errorf("tolerances: %s: %w", path, err)
	}
	return t, nil
}

// MarshalYAML renders the table with sorted keys.
func (t Tolerances) MarshalYAML() (any, error) {
	node := &yaml.Node{Kind: yaml.MappingNode}
	for _, f := range t.Fields() {
		node.Content = append(node.Content,
			&yaml.Node{Kind: yaml.ScalarNode, Value: string(f)},
			&yaml.Node{Kind: yaml.ScalarNode, Value: strconv.FormatFloat(t[f], 'f', -1, 64)},
		)
	}
	return node, nil
}
