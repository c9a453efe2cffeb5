package fusion

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/eventdraft/internal/gaps"
	"github.com/sells-group/eventdraft/internal/model"
)

func result(t model.SourceType, fields map[model.FieldName]float64, values map[model.FieldName]string) *model.ProcessingResult {
	r := &model.ProcessingResult{SourceType: t, Succeeded: true}
	for name, conf := range fields {
		r.Fields.Set(name, &model.ParsedField{Value: values[name], Confidence: conf})
	}
	r.Finalize()
	return r
}

func titleResult(t model.SourceType, title string, conf float64) *model.ProcessingResult {
	return result(t,
		map[model.FieldName]float64{model.FieldTitle: conf},
		map[model.FieldName]string{model.FieldTitle: title})
}

func TestFuse_HighestConfidenceWins(t *testing.T) {
	t.Parallel()

	image := titleResult(model.SourceImage, "Summer Fete", 92)
	text := titleResult(model.SourceText, "Fete", 60)

	draft, fr := New(nil).Fuse([]*model.ProcessingResult{text, image}, nil)

	require.NotNil(t, draft.Title)
	assert.Equal(t, "Summer Fete", draft.Title.Value)
	assert.Equal(t, model.SourceImage, draft.Title.Source)

	fused := fr.Fields[model.FieldTitle]
	assert.Equal(t, model.SourceImage, fused.WinningSourceType)
	require.Len(t, fused.Conflicts, 1)
	assert.Equal(t, model.Conflict{SourceType: model.SourceText, Value: "Fete", Confidence: 60}, fused.Conflicts[0])

	assert.Equal(t, 1, fr.ConflictCount())
	require.Len(t, fr.Recommendations, 1)
	assert.Contains(t, fr.Recommendations[0], "title")
	assert.Contains(t, fr.Recommendations[0], string(StrategyHighestConfidence))
	assert.Equal(t, 2, fr.SourcesUsed)
}

func TestFuse_Idempotent(t *testing.T) {
	t.Parallel()

	r := result(model.SourceText,
		map[model.FieldName]float64{model.FieldTitle: 90, model.FieldDate: 95, model.FieldLocation: 85},
		map[model.FieldName]string{model.FieldTitle: "Jazz Night", model.FieldDate: "2026-10-16T20:00", model.FieldLocation: "The Horns"})

	for _, strategy := range []Strategy{StrategyHighestConfidence, StrategySourcePriority, StrategyConsensus} {
		e := New(&Config{Defaults: DefaultConfig{Strategy: strategy}})
		single, _ := e.Fuse([]*model.ProcessingResult{r}, nil)
		for n := 2; n <= 4; n++ {
			dup := make([]*model.ProcessingResult, n)
			for i := range dup {
				dup[i] = r
			}
			multi, _ := e.Fuse(dup, nil)
			assert.Equal(t, single, multi, "strategy=%s n=%d", strategy, n)
		}
	}
}

func TestFuse_Deterministic(t *testing.T) {
	t.Parallel()

	inputs := []*model.ProcessingResult{
		titleResult(model.SourceText, "A", 80),
		titleResult(model.SourceURL, "B", 80),
		titleResult(model.SourceImage, "C", 80),
	}
	e := New(nil)
	d1, f1 := e.Fuse(inputs, nil)
	d2, f2 := e.Fuse(inputs, nil)
	assert.Equal(t, d1, d2)
	assert.Equal(t, f1, f2)
	assert.Equal(t, "C", d1.Title.Value)
}

func TestFuse_ThresholdHundred(t *testing.T) {
	t.Parallel()

	cfg := &Config{Defaults: DefaultConfig{Strategy: StrategyHighestConfidence, ConfidenceThreshold: 100}}
	e := New(cfg)

	draft, fr := e.Fuse([]*model.ProcessingResult{
		titleResult(model.SourceImage, "Summer Fete", 99.9),
		titleResult(model.SourceText, "Fete", 60),
	}, nil)
	for _, name := range model.AllFields() {
		assert.Nil(t, draft.Field(name), name)
	}
	assert.Empty(t, fr.Fields)

	exact := result(model.SourceURL,
		map[model.FieldName]float64{model.FieldWebsite: 100, model.FieldTitle: 90},
		map[model.FieldName]string{model.FieldWebsite: "https://fete.org", model.FieldTitle: "Fete"})
	draft, _ = e.Fuse([]*model.ProcessingResult{exact, titleResult(model.SourceText, "Other", 60)}, nil)

	set := 0
	for _, name := range model.AllFields() {
		if draft.Field(name) != nil {
			set++
		}
	}
	assert.Equal(t, 1, set)
	require.NotNil(t, draft.Website)
	assert.Equal(t, model.SourceURL, draft.Website.Source)
	assert.Equal(t, "https://fete.org", draft.Website.Value)
}

func TestFuse_TieBreaks(t *testing.T) {
	t.Parallel()

	t.Run("type precedence", func(t *testing.T) {
		t.Parallel()
		draft, _ := New(nil).Fuse([]*model.ProcessingResult{
			titleResult(model.SourceText, "text", 80),
			titleResult(model.SourceURL, "url", 80),
			titleResult(model.SourceImage, "image", 80),
		}, nil)
		assert.Equal(t, "image", draft.Title.Value)
	})

	t.Run("declared priority first", func(t *testing.T) {
		t.Parallel()
		text := titleResult(model.SourceText, "text", 80)
		text.Priority = 5
		draft, _ := New(nil).Fuse([]*model.ProcessingResult{
			titleResult(model.SourceImage, "image", 80), text,
		}, nil)
		assert.Equal(t, "text", draft.Title.Value)
	})

	t.Run("configurable precedence", func(t *testing.T) {
		t.Parallel()
		cfg := NewDefaultConfig()
		cfg.Precedence = map[string]int{"text": 3, "url": 2, "image": 1}
		draft, _ := New(cfg).Fuse([]*model.ProcessingResult{
			titleResult(model.SourceImage, "image", 80),
			titleResult(model.SourceText, "text", 80),
		}, nil)
		assert.Equal(t, "text", draft.Title.Value)
	})

	t.Run("input order last", func(t *testing.T) {
		t.Parallel()
		draft, fr := New(nil).Fuse([]*model.ProcessingResult{
			titleResult(model.SourceText, "first", 80),
			titleResult(model.SourceText, "second", 80),
		}, nil)
		assert.Equal(t, "first", draft.Title.Value)
		assert.Equal(t, "second", fr.Fields[model.FieldTitle].Conflicts[0].Value)
	})
}

func TestFuse_SourcePriorityStrategy(t *testing.T) {
	t.Parallel()

	low := titleResult(model.SourceImage, "confident", 95)
	high := titleResult(model.SourceText, "preferred", 50)
	high.Priority = 10

	e := New(&Config{Defaults: DefaultConfig{Strategy: StrategySourcePriority}})
	draft, fr := e.Fuse([]*model.ProcessingResult{low, high}, nil)
	assert.Equal(t, "preferred", draft.Title.Value)
	assert.Equal(t, string(StrategySourcePriority), fr.Fields[model.FieldTitle].Strategy)

	// Without declared priorities the type precedence decides.
	draft, _ = e.Fuse([]*model.ProcessingResult{
		titleResult(model.SourceText, "text", 99),
		titleResult(model.SourceURL, "url", 40),
	}, nil)
	assert.Equal(t, "url", draft.Title.Value)
}

func TestFuse_ConsensusStrategy(t *testing.T) {
	t.Parallel()

	e := New(&Config{Defaults: DefaultConfig{Strategy: StrategyConsensus}})
	draft, fr := e.Fuse([]*model.ProcessingResult{
		titleResult(model.SourceImage, "Summer Fete", 95),
		titleResult(model.SourceText, "village  fete", 60),
		titleResult(model.SourceURL, "Village Fete", 70),
	}, nil)
	assert.Equal(t, "Village Fete", draft.Title.Value)
	assert.Equal(t, model.SourceURL, draft.Title.Source)
	assert.Len(t, fr.Fields[model.FieldTitle].Conflicts, 2)
}

func TestFuse_PerFieldOverride(t *testing.T) {
	t.Parallel()

	cfg := NewDefaultConfig()
	cfg.Fields = map[string]FieldConfig{
		"title": {Strategy: StrategySourcePriority, ConfidenceThreshold: 10},
	}
	text := titleResult(model.SourceText, "priority", 20)
	text.Priority = 1
	draft, _ := New(cfg).Fuse([]*model.ProcessingResult{
		titleResult(model.SourceImage, "confident", 90), text,
	}, nil)
	assert.Equal(t, "priority", draft.Title.Value)
}

func TestFuse_SkipsFailedAndEmpty(t *testing.T) {
	t.Parallel()

	failed := titleResult(model.SourceImage, "ghost", 99)
	failed.Succeeded = false

	draft, fr := New(nil).Fuse([]*model.ProcessingResult{
		nil,
		failed,
		titleResult(model.SourceText, "Real", 70),
	}, nil)
	assert.Equal(t, "Real", draft.Title.Value)
	assert.Empty(t, fr.Fields[model.FieldTitle].Conflicts)
	assert.Equal(t, 1, fr.SourcesUsed)
	assert.Empty(t, fr.Recommendations)

	draft, fr = New(nil).Fuse(nil, nil)
	assert.Nil(t, draft.Title)
	assert.Zero(t, fr.OverallConfidence)
}

func TestFuse_ManualOverridesSurvive(t *testing.T) {
	t.Parallel()

	prev := &model.EventDraft{}
	require.True(t, prev.ApplyManualEdit(model.FieldTitle, "My Own Title"))

	draft, fr := New(nil).Fuse([]*model.ProcessingResult{
		titleResult(model.SourceImage, "Summer Fete", 99),
	}, prev)
	require.NotNil(t, draft.Title)
	assert.Equal(t, "My Own Title", draft.Title.Value)
	assert.Equal(t, model.SourceManual, draft.Title.Source)
	assert.Equal(t, 100.0, draft.Title.Confidence)
	assert.Equal(t, []model.FieldName{model.FieldTitle}, fr.ManualFields)
	_, fused := fr.Fields[model.FieldTitle]
	assert.False(t, fused)

	draft.Title.Value = "changed"
	assert.Equal(t, "My Own Title", prev.Title.Value)
}

func TestFuse_DoesNotMutateInputs(t *testing.T) {
	t.Parallel()

	r := titleResult(model.SourceText, "Fete", 60)
	r.Fields.Title.Confidence = 60
	before := *r.Fields.Title

	draft, _ := New(nil).Fuse([]*model.ProcessingResult{r}, nil)
	draft.Title.Value = "mutated"
	assert.Equal(t, before, *r.Fields.Title)
}

func TestFuse_OverallConfidenceWeighted(t *testing.T) {
	t.Parallel()

	r := result(model.SourceText,
		map[model.FieldName]float64{model.FieldTitle: 90, model.FieldTags: 40},
		map[model.FieldName]string{model.FieldTitle: "Jazz", model.FieldTags: "jazz"})
	_, fr := New(nil).Fuse([]*model.ProcessingResult{r}, nil)

	// (3*90 + 0.5*40) / 3.5
	assert.InDelta(t, 82.857, fr.OverallConfidence, 0.001)
}

func TestFuse_MonotonicCompleteness(t *testing.T) {
	t.Parallel()

	base := []*model.ProcessingResult{
		result(model.SourceText,
			map[model.FieldName]float64{model.FieldTitle: 90, model.FieldDate: 60},
			map[model.FieldName]string{model.FieldTitle: "Jazz", model.FieldDate: "2026-10-16"}),
	}
	e := New(nil)
	analyzer := gaps.New(nil)

	d0, _ := e.Fuse(base, nil)
	c0 := analyzer.Analyze(d0).Completeness

	for _, field := range model.AllFields() {
		if d0.Field(field) != nil {
			continue
		}
		for _, conf := range []float64{DefaultThreshold, 45, 60, 100} {
			extra := result(model.SourceURL,
				map[model.FieldName]float64{field: conf, model.FieldTitle: 20},
				map[model.FieldName]string{field: "value", model.FieldTitle: "weak"})
			d1, _ := e.Fuse(append(append([]*model.ProcessingResult(nil), base...), extra), nil)
			c1 := analyzer.Analyze(d1).Completeness
			assert.GreaterOrEqual(t, c1, c0, "field=%s conf=%v", field, conf)
		}
	}
}

func TestParseStrategy(t *testing.T) {
	t.Parallel()

	s, err := ParseStrategy("")
	require.NoError(t, err)
	assert.Equal(t, StrategyHighestConfidence, s)

	s, err = ParseStrategy(" Consensus ")
	require.NoError(t, err)
	assert.Equal(t, StrategyConsensus, s)

	_, err = ParseStrategy("loudest")
	assert.True(t, errors.Is(err, ErrUnknownStrategy))
}

func TestLoadConfig(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	path := filepath.Join(dir, "fusion.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
fusion:
  defaults:
    strategy: highest_confidence
    confidence_threshold: 40
  source_precedence:
    url: 5
    image: 4
    text: 1
  fields:
    title:
      strategy: consensus
    website:
      confidence_threshold: 80
`), 0o600))

	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, 5, cfg.Precedence["url"])

	title := cfg.GetFieldConfig(model.FieldTitle)
	assert.Equal(t, StrategyConsensus, title.Strategy)
	assert.Equal(t, 40.0, title.ConfidenceThreshold)

	website := cfg.GetFieldConfig(model.FieldWebsite)
	assert.Equal(t, StrategyHighestConfidence, website.Strategy)
	assert.Equal(t, 80.0, website.ConfidenceThreshold)

	date := cfg.GetFieldConfig(model.FieldDate)
	assert.Equal(t, 40.0, date.ConfidenceThreshold)
}

func TestLoadConfig_Errors(t *testing.T) {
	t.Parallel()

	_, err := LoadConfig(filepath.Join(t.TempDir(), "missing.yaml"))
	require.Error(t, err)

	dir := t.TempDir()
	bad := filepath.Join(dir, "bad.yaml")
	require.NoError(t, os.WriteFile(bad, []byte("fusion:\n  defaults:\n    strategy: loudest\n"), 0o600))
	_, err = LoadConfig(bad)
	assert.True(t, errors.Is(err, ErrUnknownStrategy))

	field := filepath.Join(dir, "field.yaml")
	require.NoError(t, os.WriteFile(field, []byte("fusion:\n  fields:\n    colour:\n      strategy: consensus\n"), 0o600))
	_, err = LoadConfig(field)
	assert.Error(t, err)

	garbage := filepath.Join(dir, "garbage.yaml")
	require.NoError(t, os.WriteFile(garbage, []byte("fusion: [unclosed"), 0o600))
	_, err = LoadConfig(garbage)
	assert.Error(t, err)
}

func TestConfig_Override(t *testing.T) {
	t.Parallel()

	base := NewDefaultConfig()
	base.Fields = map[string]FieldConfig{"title": {Strategy: StrategyConsensus, ConfidenceThreshold: 40}}

	th := 55.0
	out, err := base.Override("source_priority", &th)
	require.NoError(t, err)
	assert.Equal(t, StrategySourcePriority, out.Defaults.Strategy)
	assert.Equal(t, 55.0, out.Defaults.ConfidenceThreshold)
	assert.Equal(t, StrategyConsensus, out.GetFieldConfig(model.FieldTitle).Strategy)
	assert.Equal(t, StrategyHighestConfidence, base.Defaults.Strategy, "base untouched")

	same, err := base.Override("", nil)
	require.NoError(t, err)
	assert.Equal(t, base.Defaults, same.Defaults)

	_, err = base.Override("loudest", nil)
	assert.ErrorIs(t, err, ErrUnknownStrategy)

	bad := 120.0
	_, err = base.Override("", &bad)
	assert.Error(t, err)
}
