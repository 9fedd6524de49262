package domain

import (
	"errors"
	"fmt"
	"reflect"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"
)

// ErrInvalidFeatures marks a Features record that breaks the backend
// contract (negative counts).
var ErrInvalidFeatures = errors.New("invalid features")

var validate = sync.OnceValue(func() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name, _, _ := strings.Cut(fld.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		return name
	})
	return v
})

// ValidateFeatures checks that every count is non-negative. The returned
// error wraps ErrInvalidFeatures and names each offending field.
func ValidateFeatures(f Features) error {
	err := validate().Struct(f)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return fmt.Errorf("%w: %v", ErrInvalidFeatures, err)
	}
	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		msgs = append(msgs, fmt.Sprintf("%s must be non-negative, got %v", fe.Field(), fe.Value()))
	}
	return fmt.Errorf("%w: %s", ErrInvalidFeatures, strings.Join(msgs, "; "))
}

// Validate checks the Sample invariant: Features present iff Succeeded,
// ErrorReason present iff not Succeeded.
func (s Sample) Validate() error {
	if s.DocumentID == "" {
		return fmt.Errorf("document_id is required")
	}
	if s.DurationMs < 0 {
		return fmt.Errorf("duration_ms must be non-negative, got %f", s.DurationMs)
	}
	if s.Succeeded {
		if s.Features == nil {
			return fmt.Errorf("successful sample %s has no features", s.DocumentID)
		}
		if s.ErrorReason != "" {
			return fmt.Errorf("successful sample %s has error_reason %q", s.DocumentID, s.ErrorReason)
		}
		return ValidateFeatures(*s.Features)
	}
	if s.Features != nil {
		return fmt.Errorf("failed sample %s carries features", s.DocumentID)
	}
	if s.ErrorReason == "" {
		return fmt.Errorf("failed sample %s has no error_reason", s.DocumentID)
	}
	return nil
}

// ValidateSummary checks the count invariant of a Summary.
func ValidateSummary(s Summary) error {
	if s.Succeeded+s.Failed != s.Total {
		return fmt.Errorf("succeeded (%d) + failed (%d) != total (%d)", s.Succeeded, s.Failed, s.Total)
	}
	if s.Succeeded == 0 && (s.TotalDurationMs != 0 || s.ThroughputDocsPerSec != 0 || s.ThroughputMBPerSec != 0) {
		return fmt.Errorf("summary with no successes reports non-zero timing")
	}
	return nil
}
