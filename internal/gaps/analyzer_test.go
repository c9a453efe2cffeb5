package gaps

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/eventdraft/internal/model"
)

func draftWith(fields map[model.FieldName]float64, src model.SourceType) *model.EventDraft {
	d := &model.EventDraft{}
	for name, conf := range fields {
		d.SetField(name, &model.DraftField{Value: "x", Confidence: conf, Source: src})
	}
	return d
}

func TestStatusFor(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		f    *model.DraftField
		want model.GapStatus
	}{
		{"nil", nil, model.StatusMissing},
		{"blank", &model.DraftField{Value: "  ", Confidence: 90}, model.StatusMissing},
		{"low", &model.DraftField{Value: "x", Confidence: 49.9}, model.StatusLowConfidence},
		{"partial low edge", &model.DraftField{Value: "x", Confidence: 50}, model.StatusPartial},
		{"partial high edge", &model.DraftField{Value: "x", Confidence: 74.9}, model.StatusPartial},
		{"good", &model.DraftField{Value: "x", Confidence: 75}, model.StatusGood},
		{"clamped", &model.DraftField{Value: "x", Confidence: 500}, model.StatusGood},
		{"list only", &model.DraftField{Values: []string{"music"}, Confidence: 80}, model.StatusGood},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, StatusFor(tt.f))
		})
	}
}

func TestAnalyze_CriticalGap(t *testing.T) {
	t.Parallel()

	d := draftWith(map[model.FieldName]float64{
		model.FieldTitle: 90,
		model.FieldDate:  85,
	}, model.SourceText)

	res := New(nil).Analyze(d)

	assert.Equal(t, model.ReadinessMinimal, res.Readiness)
	assert.InDelta(t, 100*6.0/17, res.Completeness, 0.001)

	loc, ok := res.Entry(model.FieldLocation)
	require.True(t, ok)
	assert.Equal(t, model.StatusMissing, loc.Status)
	assert.Equal(t, model.ImportanceCritical, loc.Importance)

	require.NotEmpty(t, res.Suggestions)
	top := res.Suggestions[0]
	assert.Equal(t, model.SourceImage, top.SourceType)
	assert.Equal(t, model.LikelihoodHigh, top.Likelihood)
	assert.Contains(t, top.Fields, model.FieldLocation)
	assert.Equal(t, "camera", top.Icon)
	assert.NotEmpty(t, top.Examples)

	assert.Equal(t, model.ActionAddSource, res.NextBestAction.Type)
	assert.Equal(t, model.SourceImage, res.NextBestAction.SourceType)
	assert.Contains(t, res.NextBestAction.Message, "Location")
}

func TestAnalyze_ReadyDraft(t *testing.T) {
	t.Parallel()

	d := draftWith(map[model.FieldName]float64{
		model.FieldTitle:       90,
		model.FieldDate:        95,
		model.FieldLocation:    85,
		model.FieldDescription: 80,
		model.FieldOrganizer:   80,
		model.FieldTicketInfo:  85,
	}, model.SourceText)

	res := New(nil).Analyze(d)

	assert.GreaterOrEqual(t, res.Completeness, 80.0)
	assert.Equal(t, model.ReadinessReady, res.Readiness)
	assert.Equal(t, model.ActionReadyToCreate, res.NextBestAction.Type)
	assert.Empty(t, res.NextBestAction.SourceType)
}

func TestAnalyze_EmptyDraft(t *testing.T) {
	t.Parallel()

	for _, d := range []*model.EventDraft{nil, {}} {
		res := New(nil).Analyze(d)
		assert.Zero(t, res.Completeness)
		assert.Equal(t, model.ReadinessMinimal, res.Readiness)
		require.Len(t, res.Gaps, len(model.AllFields()))
		for _, g := range res.Gaps {
			assert.Equal(t, model.StatusMissing, g.Status)
		}
		require.Len(t, res.Suggestions, 3)
		assert.Equal(t, model.SourceImage, res.Suggestions[0].SourceType)
		assert.Equal(t, model.ActionAddSource, res.NextBestAction.Type)
	}
}

func TestAnalyze_NeedsWork(t *testing.T) {
	t.Parallel()

	d := draftWith(map[model.FieldName]float64{
		model.FieldTitle:       90,
		model.FieldDate:        90,
		model.FieldLocation:    60,
		model.FieldDescription: 80,
		model.FieldOrganizer:   80,
	}, model.SourceText)

	res := New(nil).Analyze(d)
	// 3+3+1.5+2+2 of 17
	assert.InDelta(t, 100*11.5/17, res.Completeness, 0.001)
	assert.Equal(t, model.ReadinessNeedsWork, res.Readiness)
}

func TestAnalyze_ManualEditWhenNoSourceHelps(t *testing.T) {
	t.Parallel()

	d := draftWith(map[model.FieldName]float64{
		model.FieldTitle:       90,
		model.FieldDate:        90,
		model.FieldLocation:    55,
		model.FieldDescription: 80,
		model.FieldOrganizer:   80,
		model.FieldTicketInfo:  80,
	}, model.SourceImage)

	res := New(nil).Analyze(d)
	assert.Equal(t, model.ActionManualEdit, res.NextBestAction.Type)
	assert.Contains(t, res.NextBestAction.Message, "Location")
	for _, s := range res.Suggestions {
		assert.NotEqual(t, model.SourceImage, s.SourceType)
		assert.NotContains(t, s.Fields, model.FieldLocation)
	}
}

func TestAnalyze_ManualEditForUncoverableNiceToHave(t *testing.T) {
	t.Parallel()

	d := draftWith(map[model.FieldName]float64{
		model.FieldTitle:       90,
		model.FieldDate:        90,
		model.FieldLocation:    90,
		model.FieldDescription: 80,
		model.FieldOrganizer:   80,
		model.FieldTicketInfo:  80,
		model.FieldWebsite:     90,
		model.FieldContactInfo: 30,
		model.FieldCategories:  30,
		model.FieldTags:        30,
	}, model.SourceText)

	res := New(nil).Analyze(d)
	assert.Empty(t, res.Suggestions)
	assert.Equal(t, model.ReadinessReady, res.Readiness)
	assert.Equal(t, model.ActionManualEdit, res.NextBestAction.Type)
	assert.Contains(t, res.NextBestAction.Message, "Tags")
	assert.Empty(t, res.NextBestAction.SourceType)
}

func TestAnalyze_SuggestionRanking(t *testing.T) {
	t.Parallel()

	// Only organizer and website are missing.
	d := draftWith(map[model.FieldName]float64{
		model.FieldTitle:       90,
		model.FieldDate:        90,
		model.FieldLocation:    90,
		model.FieldDescription: 90,
		model.FieldTicketInfo:  90,
		model.FieldContactInfo: 90,
		model.FieldCategories:  90,
		model.FieldTags:        90,
	}, model.SourceText)

	res := New(nil).Analyze(d)
	require.Len(t, res.Suggestions, 1)
	s := res.Suggestions[0]
	assert.Equal(t, model.SourceURL, s.SourceType)
	assert.Equal(t, []model.FieldName{model.FieldOrganizer, model.FieldWebsite}, s.Fields)
	assert.Equal(t, model.LikelihoodMedium, s.Likelihood)
	assert.InDelta(t, 2.5, s.Score, 0.001)
	assert.Equal(t, "Usually includes Organizer and Website", s.Reasoning)
	assert.Equal(t, model.ReadinessReady, res.Readiness)
	assert.Equal(t, model.ActionAddSource, res.NextBestAction.Type)
	assert.Equal(t, model.SourceURL, res.NextBestAction.SourceType)
}

func TestAnalyze_ClampsAndBounds(t *testing.T) {
	t.Parallel()

	d := draftWith(map[model.FieldName]float64{
		model.FieldTitle: math.Inf(1),
		model.FieldDate:  -20,
	}, model.SourceText)
	// SetField clamps; bypass it to simulate a hand-built draft.
	d.Location = &model.DraftField{Value: "x", Confidence: 1e6}

	res := New(nil).Analyze(d)
	assert.GreaterOrEqual(t, res.Completeness, 0.0)
	assert.LessOrEqual(t, res.Completeness, 100.0)
	for _, g := range res.Gaps {
		assert.GreaterOrEqual(t, g.Confidence, 0.0)
		assert.LessOrEqual(t, g.Confidence, 100.0)
	}
}

func TestNew_Weights(t *testing.T) {
	t.Parallel()

	a := New(model.ImportanceWeights{model.ImportanceNiceToHave: 1, model.ImportanceCritical: -1})
	assert.Equal(t, 1.0, a.Weights()[model.ImportanceNiceToHave])
	assert.Equal(t, 3.0, a.Weights()[model.ImportanceCritical])

	// With literal 3/2/1 weights a draft with every critical and important
	// field good sits just under the ready bar.
	d := draftWith(map[model.FieldName]float64{
		model.FieldTitle: 90, model.FieldDate: 90, model.FieldLocation: 90,
		model.FieldDescription: 90, model.FieldOrganizer: 90, model.FieldTicketInfo: 90,
	}, model.SourceText)
	res := a.Analyze(d)
	assert.InDelta(t, 100*15.0/19, res.Completeness, 0.001)
	assert.Equal(t, model.ReadinessNeedsWork, res.Readiness)
}

func TestJoinNames(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "", joinNames(nil))
	assert.Equal(t, "A", joinNames([]string{"A"}))
	assert.Equal(t, "A and B", joinNames([]string{"A", "B"}))
	assert.Equal(t, "A, B and C", joinNames([]string{"A", "B", "C"}))
}
