package domain

import (
	"errors"
	"strings"
	"testing"
)

func TestValidateFeatures(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name     string
		features Features
		wantErr  bool
		mention  []string
	}{
		{name: "zero value", features: Features{}, wantErr: false},
		{name: "populated", features: Features{TitleLength: 5, TextLength: 100, LinkCount: 2}, wantErr: false},
		{name: "negative title", features: Features{TitleLength: -1}, wantErr: true, mention: []string{"title_length"}},
		{
			name:     "several negatives",
			features: Features{OGTagCount: -2, ImageCount: -3},
			wantErr:  true,
			mention:  []string{"og_tag_count", "image_count"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			err := ValidateFeatures(tt.features)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ValidateFeatures() error = %v, wantErr %v", err, tt.wantErr)
			}
			if err == nil {
				return
			}
			if !errors.Is(err, ErrInvalidFeatures) {
				t.Errorf("error %v does not wrap ErrInvalidFeatures", err)
			}
			for _, m := range tt.mention {
				if !strings.Contains(err.Error(), m) {
					t.Errorf("error %q does not mention %s", err, m)
				}
			}
		})
	}
}

func TestSampleValidate(t *testing.T) {
	t.Parallel()
	f := Features{TitleLength: 1}
	tests := []struct {
		name    string
		sample  Sample
		wantErr bool
	}{
		{name: "success", sample: NewSuccessSample("b", "d", 1, 0, f), wantErr: false},
		{name: "failure", sample: NewFailedSample("b", "d", 1, 0, "boom"), wantErr: false},
		{name: "missing document id", sample: Sample{Succeeded: true, Features: &f}, wantErr: true},
		{name: "success without features", sample: Sample{DocumentID: "d", Succeeded: true}, wantErr: true},
		{name: "success with reason", sample: Sample{DocumentID: "d", Succeeded: true, Features: &f, ErrorReason: "x"}, wantErr: true},
		{name: "failure with features", sample: Sample{DocumentID: "d", Features: &f, ErrorReason: "x"}, wantErr: true},
		{name: "failure without reason", sample: Sample{DocumentID: "d"}, wantErr: true},
		{name: "negative duration", sample: Sample{DocumentID: "d", DurationMs: -1, ErrorReason: "x"}, wantErr: true},
		{name: "success with negative counts", sample: Sample{DocumentID: "d", Succeeded: true, Features: &Features{LinkCount: -1}}, wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			err := tt.sample.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestValidateSummary(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name    string
		summary Summary
		wantErr bool
	}{
		{name: "empty", summary: Summary{}, wantErr: false},
		{name: "consistent", summary: Summary{Total: 3, Succeeded: 2, Failed: 1, TotalDurationMs: 4}, wantErr: false},
		{name: "count mismatch", summary: Summary{Total: 3, Succeeded: 1, Failed: 1}, wantErr: true},
		{name: "timing without successes", summary: Summary{Total: 1, Failed: 1, TotalDurationMs: 2}, wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			err := ValidateSummary(tt.summary)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateSummary() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}
