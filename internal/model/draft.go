package model

import "strings"

// DraftField is the fused value for one field of an EventDraft.
type DraftField struct {
	Value      string     `json:"value"`
	Values     []string   `json:"values,omitempty"`
	Confidence float64    `json:"confidence"`
	Source     SourceType `json:"source"`
	Manual     bool       `json:"manual,omitempty"`
}

// EventDraft is the merged, best-guess event produced by fusion. Consumers
// treat it as read-only apart from ApplyManualEdit.
type EventDraft struct {
	Title       *DraftField `json:"title,omitempty"`
	Description *DraftField `json:"description,omitempty"`
	Date        *DraftField `json:"date,omitempty"`
	Location    *DraftField `json:"location,omitempty"`
	Organizer   *DraftField `json:"organizer,omitempty"`
	TicketInfo  *DraftField `json:"ticketInfo,omitempty"`
	ContactInfo *DraftField `json:"contactInfo,omitempty"`
	Website     *DraftField `json:"website,omitempty"`
	Categories  *DraftField `json:"categories,omitempty"`
	Tags        *DraftField `json:"tags,omitempty"`

	OverallConfidence float64 `json:"overall_confidence"`
	DurationHours     float64 `json:"duration_hours,omitempty"`
}

func (d *EventDraft) slot(name FieldName) **DraftField {
	switch name {
	case FieldTitle:
		return &d.Title
	case FieldDescription:
		return &d.Description
	case FieldDate:
		return &d.Date
	case FieldLocation:
		return &d.Location
	case FieldOrganizer:
		return &d.Organizer
	case FieldTicketInfo:
		return &d.TicketInfo
	case FieldContactInfo:
		return &d.ContactInfo
	case FieldWebsite:
		return &d.Website
	case FieldCategories:
		return &d.Categories
	case FieldTags:
		return &d.Tags
	}
	return nil
}

// Field returns the fused slot for name, or nil when unset.
func (d *EventDraft) Field(name FieldName) *DraftField {
	if d == nil {
		return nil
	}
	p := d.slot(name)
	if p == nil {
		return nil
	}
	return *p
}

// SetField stores f for name. A nil f clears the slot.
func (d *EventDraft) SetField(name FieldName, f *DraftField) {
	p := d.slot(name)
	if p == nil {
		return
	}
	if f != nil {
		f.Confidence = ClampConfidence(f.Confidence)
	}
	*p = f
}

// ApplyManualEdit overrides a field with a user-entered value. Manual values
// carry confidence 100 and are never replaced by later fusion runs. List
// fields split value on commas.
func (d *EventDraft) ApplyManualEdit(name FieldName, value string) bool {
	if !name.Valid() {
		return false
	}
	value = strings.TrimSpace(value)
	if value == "" {
		d.SetField(name, nil)
		return true
	}
	f := &DraftField{
		Value:      value,
		Confidence: 100,
		Source:     SourceManual,
		Manual:     true,
	}
	if name.IsList() {
		for _, part := range strings.Split(value, ",") {
			if part = strings.TrimSpace(part); part != "" {
				f.Values = append(f.Values, part)
			}
		}
		f.Value = strings.Join(f.Values, ", ")
	}
	d.SetField(name, f)
	return true
}

// ManualFields returns the fields that carry manual overrides, in canonical order.
func (d *EventDraft) ManualFields() []FieldName {
	var out []FieldName
	for _, name := range AllFields() {
		if f := d.Field(name); f != nil && f.Manual {
			out = append(out, name)
		}
	}
	return out
}

// Clone returns a deep copy of the draft.
func (d *EventDraft) Clone() *EventDraft {
	if d == nil {
		return nil
	}
	out := &EventDraft{
		OverallConfidence: d.OverallConfidence,
		DurationHours:     d.DurationHours,
	}
	for _, name := range AllFields() {
		if f := d.Field(name); f != nil {
			cp := *f
			cp.Values = append([]string(nil), f.Values...)
			out.SetField(name, &cp)
		}
	}
	return out
}
