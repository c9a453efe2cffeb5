// Package gaps scores a fused EventDraft against a fixed field-importance
// table and recommends what to do next.
package gaps

import (
	"fmt"
	"sort"
	"strings"

	"github.com/sells-group/eventdraft/internal/model"
)

// Status thresholds on a field's confidence.
const (
	GoodThreshold    = 75
	PartialThreshold = 50
)

// Readiness thresholds on completeness.
const (
	ReadyCompleteness     = 80
	NeedsWorkCompleteness = 50
)

var credits = map[model.GapStatus]float64{
	model.StatusGood:          1,
	model.StatusPartial:       0.5,
	model.StatusLowConfidence: 0.25,
	model.StatusMissing:       0,
}

var displayNames = map[model.FieldName]string{
	model.FieldTitle:       "Title",
	model.FieldDescription: "Description",
	model.FieldDate:        "Date & time",
	model.FieldLocation:    "Location",
	model.FieldOrganizer:   "Organizer",
	model.FieldTicketInfo:  "Ticket info",
	model.FieldContactInfo: "Contact info",
	model.FieldWebsite:     "Website",
	model.FieldCategories:  "Categories",
	model.FieldTags:        "Tags",
}

// DisplayName returns the human-readable label for a field.
func DisplayName(f model.FieldName) string {
	if n, ok := displayNames[f]; ok {
		return n
	}
	return string(f)
}

// Analyzer runs gap analysis. It is stateless apart from its weights.
type Analyzer struct {
	weights model.ImportanceWeights
}

// New returns an Analyzer. Nil or incomplete weights fall back to
// model.DefaultImportanceWeights for the missing levels.
func New(weights model.ImportanceWeights) *Analyzer {
	w := model.DefaultImportanceWeights()
	for k, v := range weights {
		if v > 0 {
			w[k] = v
		}
	}
	return &Analyzer{weights: w}
}

// Weights returns the importance weights in use.
func (a *Analyzer) Weights() model.ImportanceWeights {
	return a.weights
}

// StatusFor classifies a single draft field.
func StatusFor(f *model.DraftField) model.GapStatus {
	if f == nil || (strings.TrimSpace(f.Value) == "" && len(f.Values) == 0) {
		return model.StatusMissing
	}
	c := model.ClampConfidence(f.Confidence)
	switch {
	case c >= GoodThreshold:
		return model.StatusGood
	case c >= PartialThreshold:
		return model.StatusPartial
	}
	return model.StatusLowConfidence
}

// Analyze inspects d and never fails; a nil draft is treated as empty.
func (a *Analyzer) Analyze(d *model.EventDraft) *model.GapAnalysisResult {
	entries := make([]model.GapEntry, 0, len(model.AllFields()))
	for _, name := range model.AllFields() {
		f := d.Field(name)
		e := model.GapEntry{
			Field:       name,
			DisplayName: DisplayName(name),
			Status:      StatusFor(f),
			Importance:  model.ImportanceOf(name),
		}
		if e.Status != model.StatusMissing {
			e.CurrentValue = f.Value
			e.Confidence = model.ClampConfidence(f.Confidence)
		}
		entries = append(entries, e)
	}

	res := &model.GapAnalysisResult{Gaps: entries}
	res.Completeness = a.Completeness(entries)
	res.Readiness = Readiness(entries, res.Completeness)
	res.Suggestions = a.suggest(d, entries)
	res.NextBestAction = nextBestAction(entries, res.Suggestions)
	return res
}

// Completeness is the importance-weighted share of status credit, as a
// percentage.
func (a *Analyzer) Completeness(entries []model.GapEntry) float64 {
	var got, total float64
	for _, e := range entries {
		w := a.weights[e.Importance]
		total += w
		got += w * credits[e.Status]
	}
	if total == 0 {
		return 0
	}
	return model.ClampConfidence(100 * got / total)
}

// Readiness turns statuses and completeness into a verdict.
func Readiness(entries []model.GapEntry, completeness float64) model.Readiness {
	notGood := 0
	for _, e := range entries {
		if e.Importance == model.ImportanceCritical && e.Status != model.StatusGood {
			notGood++
		}
	}
	switch {
	case notGood == 0 && completeness >= ReadyCompleteness:
		return model.ReadinessReady
	case notGood <= 1 && completeness >= NeedsWorkCompleteness:
		return model.ReadinessNeedsWork
	}
	return model.ReadinessMinimal
}

// sourceProfile describes which fields a source type tends to supply.
type sourceProfile struct {
	source      model.SourceType
	displayName string
	icon        string
	examples    []string
	fields      []model.FieldName
}

// profiles are listed in tie-break order.
var profiles = []sourceProfile{
	{
		source:      model.SourceImage,
		displayName: "Flyer or poster image",
		icon:        "camera",
		examples:    []string{"Photo of a printed flyer", "Screenshot of a social media post", "Scanned ticket"},
		fields:      []model.FieldName{model.FieldTitle, model.FieldDate, model.FieldLocation, model.FieldTicketInfo},
	},
	{
		source:      model.SourceURL,
		displayName: "Event web page",
		icon:        "link",
		examples:    []string{"Ticketing page", "Venue or organizer website", "Social media event link"},
		fields:      []model.FieldName{model.FieldOrganizer, model.FieldWebsite, model.FieldTicketInfo},
	},
	{
		source:      model.SourceText,
		displayName: "Pasted text or manual entry",
		icon:        "pencil",
		examples:    []string{"Paste the event announcement", "Type a short description", "Add a contact email or phone"},
		fields:      []model.FieldName{model.FieldDescription, model.FieldContactInfo, model.FieldCategories, model.FieldTags},
	},
}

// covers reports whether p plausibly improves gap e. A field already
// supplied by p's source type is not expected to improve with more of it.
func (p sourceProfile) covers(d *model.EventDraft, e model.GapEntry) bool {
	if e.Status == model.StatusGood {
		return false
	}
	if f := d.Field(e.Field); f != nil && f.Source == p.source {
		return false
	}
	for _, name := range p.fields {
		if name == e.Field {
			return true
		}
	}
	return false
}

func (a *Analyzer) suggest(d *model.EventDraft, entries []model.GapEntry) []model.SourceSuggestion {
	type ranked struct {
		s     model.SourceSuggestion
		order int
	}
	var out []ranked
	for i, p := range profiles {
		var covered []model.GapEntry
		for _, e := range entries {
			if p.covers(d, e) {
				covered = append(covered, e)
			}
		}
		if len(covered) == 0 {
			continue
		}
		s := model.SourceSuggestion{
			SourceType:  p.source,
			DisplayName: p.displayName,
			Icon:        p.icon,
			Examples:    append([]string(nil), p.examples...),
			Likelihood:  model.LikelihoodLow,
		}
		names := make([]string, 0, len(covered))
		for _, e := range covered {
			s.Fields = append(s.Fields, e.Field)
			s.Score += a.weights[e.Importance]
			names = append(names, e.DisplayName)
			s.Likelihood = stronger(s.Likelihood, likelihoodFor(e.Importance))
		}
		s.Reasoning = fmt.Sprintf("Usually includes %s", joinNames(names))
		out = append(out, ranked{s: s, order: i})
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].s.Score != out[j].s.Score {
			return out[i].s.Score > out[j].s.Score
		}
		return out[i].order < out[j].order
	})
	suggestions := make([]model.SourceSuggestion, len(out))
	for i, r := range out {
		suggestions[i] = r.s
	}
	return suggestions
}

func likelihoodFor(imp model.Importance) model.Likelihood {
	switch imp {
	case model.ImportanceCritical:
		return model.LikelihoodHigh
	case model.ImportanceImportant:
		return model.LikelihoodMedium
	}
	return model.LikelihoodLow
}

var likelihoodRank = map[model.Likelihood]int{
	model.LikelihoodLow:    0,
	model.LikelihoodMedium: 1,
	model.LikelihoodHigh:   2,
}

func stronger(a, b model.Likelihood) model.Likelihood {
	if likelihoodRank[b] > likelihoodRank[a] {
		return b
	}
	return a
}

// nextBestAction recommends a source for the first blocking gap it can
// close, falls back to a manual edit, and otherwise declares the draft
// ready. Blocking gaps are critical or important fields that are not good.
func nextBestAction(entries []model.GapEntry, suggestions []model.SourceSuggestion) model.NextBestAction {
	var blocking []model.GapEntry
	for _, e := range entries {
		if e.Status != model.StatusGood && e.Importance != model.ImportanceNiceToHave {
			blocking = append(blocking, e)
		}
	}

	for _, s := range suggestions {
		var closes []string
		for _, e := range blocking {
			if containsField(s.Fields, e.Field) {
				closes = append(closes, e.DisplayName)
			}
		}
		if len(closes) > 0 {
			return model.NextBestAction{
				Type:       model.ActionAddSource,
				SourceType: s.SourceType,
				Message:    fmt.Sprintf("Add a %s to fill in %s.", strings.ToLower(s.DisplayName), joinNames(closes)),
			}
		}
	}

	// Any remaining gap no suggestion covers, blocking or not, needs a hand edit.
	var stuck []string
	for _, e := range entries {
		if e.Status != model.StatusGood && !suggested(suggestions, e.Field) {
			stuck = append(stuck, e.DisplayName)
		}
	}
	if len(stuck) > 0 {
		return model.NextBestAction{
			Type:    model.ActionManualEdit,
			Message: fmt.Sprintf("Edit %s by hand; another source is unlikely to improve it.", joinNames(stuck)),
		}
	}
	return model.NextBestAction{
		Type:    model.ActionReadyToCreate,
		Message: "All key details are in place. Ready to create the event.",
	}
}

func suggested(suggestions []model.SourceSuggestion, f model.FieldName) bool {
	for _, s := range suggestions {
		if containsField(s.Fields, f) {
			return true
		}
	}
	return false
}

func containsField(fields []model.FieldName, f model.FieldName) bool {
	for _, x := range fields {
		if x == f {
			return true
		}
	}
	return false
}

func joinNames(names []string) string {
	switch len(names) {
	case 0:
		return ""
	case 1:
		return names[0]
	}
	return strings.Join(names[:len(names)-1], ", ") + " and " + names[len(names)-1]
}
