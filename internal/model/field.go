package model

import "strings"

// FieldName identifies one of the fixed event fields.
type FieldName string

const (
	FieldTitle       FieldName = "title"
	FieldDescription FieldName = "description"
	FieldDate        FieldName = "date"
	FieldLocation    FieldName = "location"
	FieldOrganizer   FieldName = "organizer"
	FieldTicketInfo  FieldName = "ticketInfo"
	FieldContactInfo FieldName = "contactInfo"
	FieldWebsite     FieldName = "website"
	FieldCategories  FieldName = "categories"
	FieldTags        FieldName = "tags"
)

// AllFields returns every field in canonical order.
func AllFields() []FieldName {
	return []FieldName{
		FieldTitle,
		FieldDescription,
		FieldDate,
		FieldLocation,
		FieldOrganizer,
		FieldTicketInfo,
		FieldContactInfo,
		FieldWebsite,
		FieldCategories,
		FieldTags,
	}
}

// IsList reports whether the field carries a list of values.
func (f FieldName) IsList() bool {
	return f == FieldCategories || f == FieldTags
}

// Valid reports whether f is one of the known fields.
func (f FieldName) Valid() bool {
	for _, k := range AllFields() {
		if k == f {
			return true
		}
	}
	return false
}

// ParsedField is a single candidate value for a field produced by one source.
// Confidence is only comparable between candidates for the same field.
type ParsedField struct {
	Value      string   `json:"value"`
	Values     []string `json:"values,omitempty"`
	Confidence float64  `json:"confidence"`
	SourceText string   `json:"source_text,omitempty"`
	Span       *[2]int  `json:"span,omitempty"`
}

// NewListField builds a ParsedField for a list-valued field. Value is the
// comma-joined rendering of values.
func NewListField(values []string, confidence float64) *ParsedField {
	if len(values) == 0 {
		return nil
	}
	cp := make([]string, len(values))
	copy(cp, values)
	return &ParsedField{
		Value:      strings.Join(cp, ", "),
		Values:     cp,
		Confidence: ClampConfidence(confidence),
	}
}

// Empty reports whether the field carries no usable value.
func (p *ParsedField) Empty() bool {
	return p == nil || (strings.TrimSpace(p.Value) == "" && len(p.Values) == 0)
}

// FieldSet holds one optional slot per known field.
type FieldSet struct {
	Title       *ParsedField `json:"title,omitempty"`
	Description *ParsedField `json:"description,omitempty"`
	Date        *ParsedField `json:"date,omitempty"`
	Location    *ParsedField `json:"location,omitempty"`
	Organizer   *ParsedField `json:"organizer,omitempty"`
	TicketInfo  *ParsedField `json:"ticketInfo,omitempty"`
	ContactInfo *ParsedField `json:"contactInfo,omitempty"`
	Website     *ParsedField `json:"website,omitempty"`
	Categories  *ParsedField `json:"categories,omitempty"`
	Tags        *ParsedField `json:"tags,omitempty"`
}

func (s *FieldSet) slot(name FieldName) **ParsedField {
	switch name {
	case FieldTitle:
		return &s.Title
	case FieldDescription:
		return &s.Description
	case FieldDate:
		return &s.Date
	case FieldLocation:
		return &s.Location
	case FieldOrganizer:
		return &s.Organizer
	case FieldTicketInfo:
		return &s.TicketInfo
	case FieldContactInfo:
		return &s.ContactInfo
	case FieldWebsite:
		return &s.Website
	case FieldCategories:
		return &s.Categories
	case FieldTags:
		return &s.Tags
	}
	return nil
}

// Get returns the slot for name, or nil when unset or unknown.
func (s FieldSet) Get(name FieldName) *ParsedField {
	p := s.slot(name)
	if p == nil {
		return nil
	}
	return *p
}

// Set stores f in the slot for name, clamping its confidence. Empty fields
// clear the slot. Unknown names are ignored.
func (s *FieldSet) Set(name FieldName, f *ParsedField) {
	p := s.slot(name)
	if p == nil {
		return
	}
	if f.Empty() {
		*p = nil
		return
	}
	f.Confidence = ClampConfidence(f.Confidence)
	*p = f
}

// Each calls fn for every populated slot in canonical order.
func (s FieldSet) Each(fn func(FieldName, *ParsedField)) {
	for _, name := range AllFields() {
		if f := s.Get(name); !f.Empty() {
			fn(name, f)
		}
	}
}

// Len returns the number of populated slots.
func (s FieldSet) Len() int {
	n := 0
	s.Each(func(FieldName, *ParsedField) { n++ })
	return n
}

// fieldWeights are the per-field weights used for a result's overall confidence.
var fieldWeights = map[FieldName]float64{
	FieldTitle:       20,
	FieldDate:        20,
	FieldLocation:    15,
	FieldDescription: 10,
	FieldOrganizer:   10,
	FieldTicketInfo:  10,
	FieldContactInfo: 5,
	FieldWebsite:     5,
	FieldCategories:  3,
	FieldTags:        2,
}

// OverallConfidence is the share of total field weight covered by populated
// fields, as a percentage.
func OverallConfidence(fields FieldSet) float64 {
	var got, total float64
	for _, name := range AllFields() {
		w := fieldWeights[name]
		total += w
		if !fields.Get(name).Empty() {
			got += w
		}
	}
	if total == 0 {
		return 0
	}
	return ClampConfidence(got / total * 100)
}

// ClampConfidence bounds a confidence score to [0,100].
func ClampConfidence(c float64) float64 {
	switch {
	case c != c: // NaN
		return 0
	case c < 0:
		return 0
	case c > 100:
		return 100
	}
	return c
}
