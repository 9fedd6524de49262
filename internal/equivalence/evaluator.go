// Package equivalence decides whether two backends extracted the same
// structure from a document, within per-field tolerances.
package equivalence

import (
	"fmt"

	"github.com/parsebench/parsebench-go/internal/domain"
)

// Evaluate compares a and b field by field for every field in tol.
//
// A known field with no entry in tol is skipped and reported in
// Verdict.UncheckedFields; it never counts as a failure. A zero tolerance
// would reject real parsers over whitespace normalization, so omission is
// the only way to switch a field off.
//
// Negative counts on either side return an error wrapping
// domain.ErrInvalidFeatures; a bad tolerance table returns an error
// wrapping ErrInvalidTolerance.
func Evaluate(a, b domain.Features, tol Tolerances, documentID string) (domain.Verdict, error) {
	if err := domain.ValidateFeatures(a); err != nil {
		return domain.Verdict{}, fmt.Errorf("document %s: features a: %w", documentID, err)
	}
	if err := domain.ValidateFeatures(b); err != nil {
		return domain.Verdict{}, fmt.Errorf("document %s: features b: %w", documentID, err)
	}
	if err := tol.Validate(); err != nil {
		return domain.Verdict{}, err
	}

	v := domain.Verdict{
		DocumentID: documentID,
		Equivalent: true,
		FieldDiffs: make(map[domain.Field]domain.FieldDiff, len(tol)),
	}
	for _, f := range domain.AllFields() {
		limit, ok := tol[f]
		if !ok {
			v.UncheckedFields = append(v.UncheckedFields, f)
			continue
		}
		va, vb := f.Value(a), f.Value(b)
		diff := absInt(va - vb)
		within := float64(diff) <= limit
		v.FieldDiffs[f] = domain.FieldDiff{
			ValueA:             va,
			ValueB:             vb,
			AbsoluteDifference: diff,
			Tolerance:          limit,
			WithinTolerance:    within,
		}
		if !within {
			v.Equivalent = false
		}
	}
	return v, nil
}

func absInt(n int) int {
	if n < 0 {
		return -n
	}
	return n
}
