// Package domain holds the value types shared by the benchmark engine:
// per-document samples, aggregated summaries and equivalence verdicts.
package domain

const unknownFailure = "unknown failure"

// Features is the structural signal a backend extracts from one document.
// Lengths are counted in Unicode code points.
type Features struct {
	TitleLength           int `json:"title_length" validate:"min=0"`
	MetaDescriptionLength int `json:"meta_description_length" validate:"min=0"`
	OGTagCount            int `json:"og_tag_count" validate:"min=0"`
	LinkCount             int `json:"link_count" validate:"min=0"`
	ImageCount            int `json:"image_count" validate:"min=0"`
	TextLength            int `json:"text_length" validate:"min=0"`
}

// Document is one corpus entry handed to a backend.
type Document struct {
	ID       string `json:"id"`
	Content  []byte `json:"-"`
	ByteSize int64  `json:"byte_size"`
	MIMEType string `json:"mime_type,omitempty"`
}

// TotalBytes sums ByteSize over docs.
func TotalBytes(docs []Document) int64 {
	var n int64
	for _, d := range docs {
		n += d.ByteSize
	}
	return n
}

// Sample is the measured outcome of one parse attempt. Exactly one of
// Features and ErrorReason is set, as decided by Succeeded.
type Sample struct {
	BackendName   string    `json:"backend_name"`
	DocumentID    string    `json:"document_id"`
	Succeeded     bool      `json:"succeeded"`
	DurationMs    float64   `json:"duration_ms"`
	MemoryDeltaMB float64   `json:"memory_delta_mb"`
	Features      *Features `json:"features,omitempty"`
	ErrorReason   string    `json:"error_reason,omitempty"`
}

// NewSuccessSample records a successful parse.
func NewSuccessSample(backend, documentID string, durationMs, memoryDeltaMB float64, f Features) Sample {
	return Sample{
		BackendName:   backend,
		DocumentID:    documentID,
		Succeeded:     true,
		DurationMs:    nonNegative(durationMs),
		MemoryDeltaMB: memoryDeltaMB,
		Features:      &f,
	}
}

// NewFailedSample records a failed parse. durationMs is the time to failure.
func NewFailedSample(backend, documentID string, durationMs, memoryDeltaMB float64, reason string) Sample {
	if reason == "" {
		reason = unknownFailure
	}
	return Sample{
		BackendName:   backend,
		DocumentID:    documentID,
		DurationMs:    nonNegative(durationMs),
		MemoryDeltaMB: memoryDeltaMB,
		ErrorReason:   reason,
	}
}

func nonNegative(v float64) float64 {
	if v < 0 {
		return 0
	}
	return v
}

// Summary aggregates the samples of one (backend, document type) run.
// All time and throughput fields are zero when Succeeded is zero.
type Summary struct {
	BackendName  string `json:"backend_name"`
	DocumentType string `json:"document_type"`

	Total      int   `json:"total"`
	Succeeded  int   `json:"succeeded"`
	Failed     int   `json:"failed"`
	TotalBytes int64 `json:"total_bytes"`

	TotalDurationMs  float64 `json:"total_duration_ms"`
	AvgDurationMs    float64 `json:"avg_duration_ms"`
	MedianDurationMs float64 `json:"median_duration_ms"`
	P95DurationMs    float64 `json:"p95_duration_ms"`
	P99DurationMs    float64 `json:"p99_duration_ms"`
	MinDurationMs    float64 `json:"min_duration_ms"`
	MaxDurationMs    float64 `json:"max_duration_ms"`

	AvgMemoryMB float64 `json:"avg_memory_mb"`
	MaxMemoryMB float64 `json:"max_memory_mb"`

	ThroughputDocsPerSec float64 `json:"throughput_docs_per_sec"`
	ThroughputMBPerSec   float64 `json:"throughput_mb_per_sec"`

	// Errors holds "<document_id>: <reason>" for every failed sample.
	Errors []string `json:"errors"`
}

// SuccessRate returns Succeeded/Total as a percentage, or 0 for an empty run.
func (s Summary) SuccessRate() float64 {
	if s.Total == 0 {
		return 0
	}
	return float64(s.Succeeded) / float64(s.Total) * 100
}

// FieldDiff is the comparison of one field between two backends.
type FieldDiff struct {
	ValueA             int     `json:"value_a"`
	ValueB             int     `json:"value_b"`
	AbsoluteDifference int     `json:"absolute_difference"`
	Tolerance          float64 `json:"tolerance"`
	WithinTolerance    bool    `json:"within_tolerance"`
}

// Verdict is the equivalence outcome for one document.
type Verdict struct {
	DocumentID string              `json:"document_id"`
	Equivalent bool                `json:"equivalent"`
	FieldDiffs map[Field]FieldDiff `json:"field_diffs"`
	// UncheckedFields lists known fields with no configured tolerance.
	// They are not evaluated and do not affect Equivalent.
	UncheckedFields []Field `json:"unchecked_fields,omitempty"`
}

// DivergentFields returns the fields outside tolerance, sorted.
func (v Verdict) DivergentFields() []Field {
	var out []Field
	for _, f := range AllFields() {
		if d, ok := v.FieldDiffs[f]; ok && !d.WithinTolerance {
			out = append(out, f)
		}
	}
	return out
}

// SkippedComparison records a document that was not evaluated.
type SkippedComparison struct {
	DocumentID string   `json:"document_id"`
	Kind       SkipKind `json:"kind"`
	Reason     string   `json:"reason"`
}

// Comparison is the result of comparing two backends over one corpus.
type Comparison struct {
	BackendA   string              `json:"backend_a"`
	BackendB   string              `json:"backend_b"`
	Verdicts   []Verdict           `json:"verdicts"`
	Skipped    []SkippedComparison `json:"skipped"`
	Equivalent bool                `json:"equivalent"`
}

// DivergentDocuments returns the IDs of non-equivalent verdicts in order.
func (c Comparison) DivergentDocuments() []string {
	var ids []string
	for _, v := range c.Verdicts {
		if !v.Equivalent {
			ids = append(ids, v.DocumentID)
		}
	}
	return ids
}
