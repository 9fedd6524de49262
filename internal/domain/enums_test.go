package domain

import "testing"

func TestDocumentTypeValid(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name  string
		dt    DocumentType
		valid bool
	}{
		{name: "html", dt: DocumentHTML, valid: true},
		{name: "xml", dt: DocumentXML, valid: true},
		{name: "bogus", dt: DocumentType("pdf"), valid: false},
		{name: "empty", dt: DocumentType(""), valid: false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := tt.dt.Valid(); got != tt.valid {
				t.Errorf("DocumentType(%q).Valid() = %v, want %v", tt.dt, got, tt.valid)
			}
		})
	}
}

func TestDocumentTypeExtension(t *testing.T) {
	t.Parallel()
	if got := DocumentHTML.Extension(); got != ".html" {
		t.Errorf("Extension() = %q, want .html", got)
	}
	if got := DocumentXML.Extension(); got != ".xml" {
		t.Errorf("Extension() = %q, want .xml", got)
	}
}

func TestFieldStringValues(t *testing.T) {
	t.Parallel()
	// Field names are tolerance-file keys; changing them breaks configs.
	tests := []struct {
		field Field
		want  string
	}{
		{FieldTitleLength, "title_length"},
		{FieldMetaDescriptionLength, "meta_description_length"},
		{FieldOGTagCount, "og_tag_count"},
		{FieldLinkCount, "link_count"},
		{FieldImageCount, "image_count"},
		{FieldLinkImageCount, "link_image_count"},
		{FieldTextLength, "text_length"},
	}
	for _, tt := range tests {
		if string(tt.field) != tt.want {
			t.Errorf("Field = %q, want %q", tt.field, tt.want)
		}
		if !tt.field.Valid() {
			t.Errorf("Field(%q).Valid() = false", tt.field)
		}
	}
	if Field("word_count").Valid() {
		t.Error("unknown field should not be valid")
	}
}

func TestFieldValue(t *testing.T) {
	t.Parallel()
	f := Features{
		TitleLength:           1,
		MetaDescriptionLength: 2,
		OGTagCount:            3,
		LinkCount:             4,
		ImageCount:            5,
		TextLength:            6,
	}
	tests := []struct {
		field Field
		want  int
	}{
		{FieldTitleLength, 1},
		{FieldMetaDescriptionLength, 2},
		{FieldOGTagCount, 3},
		{FieldLinkCount, 4},
		{FieldImageCount, 5},
		{FieldLinkImageCount, 9},
		{FieldTextLength, 6},
		{Field("bogus"), 0},
	}
	for _, tt := range tests {
		if got := tt.field.Value(f); got != tt.want {
			t.Errorf("%s.Value() = %d, want %d", tt.field, got, tt.want)
		}
	}
}

func TestAllFieldsSortedAndValid(t *testing.T) {
	t.Parallel()
	fields := AllFields()
	if len(fields) != 7 {
		t.Fatalf("AllFields() returned %d fields, want 7", len(fields))
	}
	for i, f := range fields {
		if !f.Valid() {
			t.Errorf("AllFields()[%d] = %q is not valid", i, f)
		}
		if i > 0 && fields[i-1] >= f {
			t.Errorf("AllFields() not sorted at %d: %q >= %q", i, fields[i-1], f)
		}
	}
}

func TestSkipKindValid(t *testing.T) {
	t.Parallel()
	for _, k := range []SkipKind{SkipBackendFailed, SkipInvalidFeatures} {
		if !k.Valid() {
			t.Errorf("SkipKind(%q).Valid() = false", k)
		}
	}
	if SkipKind("other").Valid() {
		t.Error("unknown skip kind should not be valid")
	}
}
