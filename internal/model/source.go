package model

import (
	"encoding/base64"
	"encoding/json"

	"github.com/rotisserie/eris"
)

// SourceType identifies the kind of input a ProcessingResult came from.
type SourceType string

const (
	SourceText  SourceType = "text"
	SourceImage SourceType = "image"
	SourceURL   SourceType = "url"

	// SourceManual marks values typed in by the user. It is provenance only;
	// no extractor handles it.
	SourceManual SourceType = "manual"
)

// Valid reports whether t is an input source type.
func (t SourceType) Valid() bool {
	switch t {
	case SourceText, SourceImage, SourceURL:
		return true
	}
	return false
}

// DataSourceInput is one caller-supplied input to be parsed. Higher priority
// wins ties during fusion.
type DataSourceInput struct {
	Type     SourceType `json:"type"`
	Data     []byte     `json:"data"`
	Priority int        `json:"priority,omitempty"`
}

// NewTextInput builds a text source.
func NewTextInput(text string, priority int) DataSourceInput {
	return DataSourceInput{Type: SourceText, Data: []byte(text), Priority: priority}
}

// NewURLInput builds a URL source.
func NewURLInput(u string, priority int) DataSourceInput {
	return DataSourceInput{Type: SourceURL, Data: []byte(u), Priority: priority}
}

// NewImageInput builds an image source from raw bytes.
func NewImageInput(img []byte, priority int) DataSourceInput {
	return DataSourceInput{Type: SourceImage, Data: img, Priority: priority}
}

// String returns the payload as text (text and url sources).
func (d DataSourceInput) String() string {
	return string(d.Data)
}

type dataSourceJSON struct {
	Type     SourceType `json:"type"`
	Data     string     `json:"data"`
	Priority int        `json:"priority,omitempty"`
}

// MarshalJSON encodes image payloads as base64 and everything else as a
// plain string.
func (d DataSourceInput) MarshalJSON() ([]byte, error) {
	out := dataSourceJSON{Type: d.Type, Priority: d.Priority}
	if d.Type == SourceImage {
		out.Data = base64.StdEncoding.EncodeToString(d.Data)
	} else {
		out.Data = string(d.Data)
	}
	return json.Marshal(out)
}

// UnmarshalJSON is the inverse of MarshalJSON.
func (d *DataSourceInput) UnmarshalJSON(b []byte) error {
	var in dataSourceJSON
	if err := json.Unmarshal(b, &in); err != nil {
		return eris.Wrap(err, "model: decode data source")
	}
	if !in.Type.Valid() {
		return eris.Errorf("model: unknown source type %q", in.Type)
	}
	d.Type = in.Type
	d.Priority = in.Priority
	if in.Type == SourceImage {
		raw, err := base64.StdEncoding.DecodeString(in.Data)
		if err != nil {
			return eris.Wrap(err, "model: decode image data")
		}
		d.Data = raw
		return nil
	}
	d.Data = []byte(in.Data)
	return nil
}

// ProcessingResult is the parsed-field output of a single source.
type ProcessingResult struct {
	SourceType        SourceType `json:"source_type"`
	Priority          int        `json:"priority,omitempty"`
	Fields            FieldSet   `json:"fields"`
	Categories        []string   `json:"categories,omitempty"`
	Tags              []string   `json:"tags,omitempty"`
	OverallConfidence float64    `json:"overall_confidence"`
	Succeeded         bool       `json:"succeeded"`
	Error             string     `json:"error,omitempty"`
	DurationMS        int64      `json:"duration_ms,omitempty"`
}

// FailedResult builds an unsuccessful result for a source.
func FailedResult(t SourceType, priority int, err error) *ProcessingResult {
	msg := "unknown error"
	if err != nil {
		msg = err.Error()
	}
	return &ProcessingResult{
		SourceType: t,
		Priority:   priority,
		Succeeded:  false,
		Error:      msg,
	}
}

// Finalize mirrors Categories/Tags into their field slots when the slots are
// empty and recomputes OverallConfidence.
func (r *ProcessingResult) Finalize() {
	if r.Fields.Categories.Empty() && len(r.Categories) > 0 {
		r.Fields.Set(FieldCategories, NewListField(r.Categories, 50))
	}
	if r.Fields.Tags.Empty() && len(r.Tags) > 0 {
		r.Fields.Set(FieldTags, NewListField(r.Tags, 50))
	}
	if r.Categories == nil && !r.Fields.Categories.Empty() {
		r.Categories = append([]string(nil), r.Fields.Categories.Values...)
	}
	if r.Tags == nil && !r.Fields.Tags.Empty() {
		r.Tags = append([]string(nil), r.Fields.Tags.Values...)
	}
	r.OverallConfidence = OverallConfidence(r.Fields)
}
