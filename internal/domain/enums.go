package domain

import "sort"

// DocumentType selects which fixture files a run parses.
type DocumentType string

const (
	DocumentHTML DocumentType = "html"
	DocumentXML  DocumentType = "xml"
)

func (d DocumentType) Valid() bool {
	switch d {
	case DocumentHTML, DocumentXML:
		return true
	}
	return false
}

// Extension returns the file extension (with dot) for fixtures of this type.
func (d DocumentType) Extension() string {
	return "." + string(d)
}

// Field names a comparable feature of a parsed document. Field names are
// also the keys of a tolerance table.
type Field string

const (
	FieldTitleLength           Field = "title_length"
	FieldMetaDescriptionLength Field = "meta_description_length"
	FieldOGTagCount            Field = "og_tag_count"
	FieldLinkCount             Field = "link_count"
	FieldImageCount            Field = "image_count"
	// FieldLinkImageCount is link_count + image_count.
	FieldLinkImageCount Field = "link_image_count"
	FieldTextLength     Field = "text_length"
)

func (f Field) Valid() bool {
	switch f {
	case FieldTitleLength, FieldMetaDescriptionLength, FieldOGTagCount,
		FieldLinkCount, FieldImageCount, FieldLinkImageCount, FieldTextLength:
		return true
	}
	return false
}

// Value extracts the field from a Features record. Unknown fields yield 0.
func (f Field) Value(ft Features) int {
	switch f {
	case FieldTitleLength:
		return ft.TitleLength
	case FieldMetaDescriptionLength:
		return ft.MetaDescriptionLength
	case FieldOGTagCount:
		return ft.OGTagCount
	case FieldLinkCount:
		return ft.LinkCount
	case FieldImageCount:
		return ft.ImageCount
	case FieldLinkImageCount:
		return ft.LinkCount + ft.ImageCount
	case FieldTextLength:
		return ft.TextLength
	}
	return 0
}

// AllFields returns every known field, sorted by name.
func AllFields() []Field {
	fields := []Field{
		FieldTitleLength, FieldMetaDescriptionLength, FieldOGTagCount,
		FieldLinkCount, FieldImageCount, FieldLinkImageCount, FieldTextLength,
	}
	sort.Slice(fields, func(i, j int) bool { return fields[i] < fields[j] })
	return fields
}

// SkipKind explains why a document was left out of an equivalence comparison.
type SkipKind string

const (
	SkipBackendFailed   SkipKind = "backend_failed"
	SkipInvalidFeatures SkipKind = "invalid_features"
)

func (k SkipKind) Valid() bool {
	switch k {
	case SkipBackendFailed, SkipInvalidFeatures:
		return true
	}
	return false
}
