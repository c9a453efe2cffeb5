package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEventDraft_ApplyManualEdit(t *testing.T) {
	t.Parallel()

	d := &EventDraft{}
	d.SetField(FieldTitle, &DraftField{Value: "Fete", Confidence: 60, Source: SourceText})

	require.True(t, d.ApplyManualEdit(FieldTitle, "  Summer Fete "))
	f := d.Field(FieldTitle)
	require.NotNil(t, f)
	assert.Equal(t, "Summer Fete", f.Value)
	assert.Equal(t, 100.0, f.Confidence)
	assert.Equal(t, SourceManual, f.Source)
	assert.True(t, f.Manual)

	t.Run("list fields split on commas", func(t *testing.T) {
		t.Parallel()
		d := &EventDraft{}
		require.True(t, d.ApplyManualEdit(FieldTags, "free, outdoor,,family-friendly"))
		assert.Equal(t, []string{"free", "outdoor", "family-friendly"}, d.Tags.Values)
		assert.Equal(t, "free, outdoor, family-friendly", d.Tags.Value)
	})

	t.Run("unknown field rejected", func(t *testing.T) {
		t.Parallel()
		d := &EventDraft{}
		assert.False(t, d.ApplyManualEdit(FieldName("venue"), "x"))
	})

	t.Run("empty value clears field", func(t *testing.T) {
		t.Parallel()
		d := &EventDraft{}
		d.ApplyManualEdit(FieldWebsite, "https://example.org")
		d.ApplyManualEdit(FieldWebsite, "")
		assert.Nil(t, d.Website)
	})
}

func TestEventDraft_ManualFieldsAndClone(t *testing.T) {
	t.Parallel()

	d := &EventDraft{DurationHours: 2}
	d.SetField(FieldDate, &DraftField{Value: "2026-10-16", Confidence: 90, Source: SourceText})
	d.ApplyManualEdit(FieldLocation, "Village Hall")
	d.ApplyManualEdit(FieldCategories, "community")

	assert.Equal(t, []FieldName{FieldLocation, FieldCategories}, d.ManualFields())

	cp := d.Clone()
	cp.Location.Value = "Elsewhere"
	cp.Categories.Values[0] = "music"
	assert.Equal(t, "Village Hall", d.Location.Value)
	assert.Equal(t, "community", d.Categories.Values[0])
	assert.Equal(t, 2.0, cp.DurationHours)

	var nilDraft *EventDraft
	assert.Nil(t, nilDraft.Clone())
	assert.Nil(t, nilDraft.Field(FieldTitle))
}
