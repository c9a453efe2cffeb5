package model

// Conflict is a losing candidate for a field, retained for audit.
type Conflict struct {
	SourceType SourceType `json:"source_type"`
	Value      string     `json:"value"`
	Confidence float64    `json:"confidence"`
}

// FusedField records the winner of fusion for one field and every
// qualifying candidate it beat.
type FusedField struct {
	Field             FieldName  `json:"field"`
	Value             string     `json:"value"`
	Values            []string   `json:"values,omitempty"`
	Confidence        float64    `json:"confidence"`
	WinningSourceType SourceType `json:"winning_source_type"`
	Strategy          string     `json:"strategy"`
	Conflicts         []Conflict `json:"conflicts"`
}

// FusionResult is the audit trail of one fusion pass.
type FusionResult struct {
	Fields            map[FieldName]FusedField `json:"fields"`
	Conflicts         []FusedField             `json:"conflicts"`
	Recommendations   []string                 `json:"recommendations"`
	OverallConfidence float64                  `json:"overall_confidence"`
	Strategy          string                   `json:"strategy"`
	Threshold         float64                  `json:"threshold"`
	SourcesUsed       int                      `json:"sources_used"`
	ManualFields      []FieldName              `json:"manual_fields,omitempty"`
}

// ConflictCount returns the number of losing candidates across all fields.
func (r *FusionResult) ConflictCount() int {
	if r == nil {
		return 0
	}
	n := 0
	for _, f := range r.Conflicts {
		n += len(f.Conflicts)
	}
	return n
}
