package model

// Importance ranks how much a field matters to a usable event.
type Importance string

const (
	ImportanceCritical   Importance = "critical"
	ImportanceImportant  Importance = "important"
	ImportanceNiceToHave Importance = "nice_to_have"
)

// GapStatus classifies a field's current state.
type GapStatus string

const (
	StatusMissing       GapStatus = "missing"
	StatusLowConfidence GapStatus = "low_confidence"
	StatusPartial       GapStatus = "partial"
	StatusGood          GapStatus = "good"
)

// Readiness is the overall verdict on a draft.
type Readiness string

const (
	ReadinessReady     Readiness = "ready"
	ReadinessNeedsWork Readiness = "needs_work"
	ReadinessMinimal   Readiness = "minimal"
)

// Likelihood estimates how plausibly a suggested source closes a gap.
type Likelihood string

const (
	LikelihoodHigh   Likelihood = "high"
	LikelihoodMedium Likelihood = "medium"
	LikelihoodLow    Likelihood = "low"
)

// ActionType is the kind of next step recommended to the caller.
type ActionType string

const (
	ActionAddSource     ActionType = "add_source"
	ActionManualEdit    ActionType = "manual_edit"
	ActionReadyToCreate ActionType = "ready_to_create"
)

// GapEntry describes one field of the draft.
type GapEntry struct {
	Field        FieldName  `json:"field"`
	DisplayName  string     `json:"display_name"`
	Status       GapStatus  `json:"status"`
	CurrentValue string     `json:"current_value,omitempty"`
	Confidence   float64    `json:"confidence"`
	Importance   Importance `json:"importance"`
}

// SourceSuggestion recommends a source type that could close current gaps.
type SourceSuggestion struct {
	SourceType  SourceType  `json:"source_type"`
	DisplayName string      `json:"display_name"`
	Icon        string      `json:"icon"`
	Likelihood  Likelihood  `json:"likelihood"`
	Reasoning   string      `json:"reasoning"`
	Examples    []string    `json:"examples"`
	Fields      []FieldName `json:"fields"`
	Score       float64     `json:"score"`
}

// NextBestAction is the single most useful next step.
type NextBestAction struct {
	Type       ActionType `json:"type"`
	SourceType SourceType `json:"source_type,omitempty"`
	Message    string     `json:"message"`
}

// GapAnalysisResult is the outcome of analyzing a draft.
type GapAnalysisResult struct {
	Completeness   float64            `json:"completeness"`
	Readiness      Readiness          `json:"readiness"`
	Gaps           []GapEntry         `json:"gaps"`
	Suggestions    []SourceSuggestion `json:"suggestions"`
	NextBestAction NextBestAction     `json:"next_best_action"`
}

// Entry returns the gap entry for field, if present.
func (r *GapAnalysisResult) Entry(field FieldName) (GapEntry, bool) {
	for _, g := range r.Gaps {
		if g.Field == field {
			return g, true
		}
	}
	return GapEntry{}, false
}

// ImportanceOf returns the fixed importance of a field.
func ImportanceOf(f FieldName) Importance {
	switch f {
	case FieldTitle, FieldDate, FieldLocation:
		return ImportanceCritical
	case FieldDescription, FieldOrganizer, FieldTicketInfo:
		return ImportanceImportant
	}
	return ImportanceNiceToHave
}

// ImportanceWeights maps an importance level to its scoring weight.
type ImportanceWeights map[Importance]float64

// DefaultImportanceWeights are the weights used for completeness and fused
// confidence when none are configured.
func DefaultImportanceWeights() ImportanceWeights {
	return ImportanceWeights{
		ImportanceCritical:   3,
		ImportanceImportant:  2,
		ImportanceNiceToHave: 0.5,
	}
}

// Of returns the weight for field f.
func (w ImportanceWeights) Of(f FieldName) float64 {
	return w[ImportanceOf(f)]
}
