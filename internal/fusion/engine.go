// Package fusion merges per-source ProcessingResults into a single
// EventDraft, one field at a time, keeping every losing candidate as an
// auditable conflict.
package fusion

import (
	"fmt"
	"sort"
	"strings"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/eventdraft/internal/model"
)

// Strategy selects how a field's winner is chosen.
type Strategy string

const (
	StrategyHighestConfidence Strategy = "highest_confidence"
	StrategySourcePriority    Strategy = "source_priority"
	StrategyConsensus         Strategy = "consensus"
)

// ErrUnknownStrategy is returned for strategy names that are not recognised.
var ErrUnknownStrategy = eris.New("fusion: unknown strategy")

// Valid reports whether s is a known strategy.
func (s Strategy) Valid() bool {
	switch s {
	case StrategyHighestConfidence, StrategySourcePriority, StrategyConsensus:
		return true
	}
	return false
}

// ParseStrategy converts a name into a Strategy. An empty name selects the
// default.
func ParseStrategy(name string) (Strategy, error) {
	if name == "" {
		return StrategyHighestConfidence, nil
	}
	s := Strategy(strings.ToLower(strings.TrimSpace(name)))
	if !s.Valid() {
		return "", eris.Wrapf(ErrUnknownStrategy, "fusion: %q", name)
	}
	return s, nil
}

// candidate is one qualifying source value for a field.
type candidate struct {
	source   model.SourceType
	priority int
	index    int
	field    *model.ParsedField
}

// Engine fuses ProcessingResults. It holds only configuration and is safe
// for concurrent use.
type Engine struct {
	cfg     *Config
	weights model.ImportanceWeights
}

// New creates an Engine. A nil cfg uses NewDefaultConfig.
func New(cfg *Config) *Engine {
	if cfg == nil {
		cfg = NewDefaultConfig()
	}
	if len(cfg.Precedence) == 0 {
		cfg.Precedence = DefaultPrecedence()
	}
	if cfg.Defaults.Strategy == "" {
		cfg.Defaults.Strategy = StrategyHighestConfidence
	}
	return &Engine{cfg: cfg, weights: model.DefaultImportanceWeights()}
}

// Config returns the engine's configuration.
func (e *Engine) Config() *Config {
	return e.cfg
}

// Fuse merges the successful results into a draft. Fields carrying a manual
// override in previous are copied verbatim and not re-fused. Inputs are not
// mutated, and identical inputs always produce identical output.
func (e *Engine) Fuse(results []*model.ProcessingResult, previous *model.EventDraft) (*model.EventDraft, *model.FusionResult) {
	draft := &model.EventDraft{}
	fr := &model.FusionResult{
		Fields:    make(map[model.FieldName]model.FusedField),
		Strategy:  string(e.cfg.Defaults.Strategy),
		Threshold: e.cfg.Defaults.ConfidenceThreshold,
	}

	for _, r := range results {
		if r != nil && r.Succeeded {
			fr.SourcesUsed++
		}
	}

	for _, name := range model.AllFields() {
		if prev := previous.Field(name); prev != nil && prev.Manual {
			cp := *prev
			cp.Values = append([]string(nil), prev.Values...)
			draft.SetField(name, &cp)
			fr.ManualFields = append(fr.ManualFields, name)
			continue
		}

		fc := e.cfg.GetFieldConfig(name)
		cands := collect(results, name, fc.ConfidenceThreshold)
		if len(cands) == 0 {
			continue
		}

		winner, rest := e.pick(fc.Strategy, cands)
		fused := model.FusedField{
			Field:             name,
			Value:             winner.field.Value,
			Values:            append([]string(nil), winner.field.Values...),
			Confidence:        model.ClampConfidence(winner.field.Confidence),
			WinningSourceType: winner.source,
			Strategy:          string(fc.Strategy),
			Conflicts:         make([]model.Conflict, 0, len(rest)),
		}
		for _, c := range rest {
			fused.Conflicts = append(fused.Conflicts, model.Conflict{
				SourceType: c.source,
				Value:      c.field.Value,
				Confidence: model.ClampConfidence(c.field.Confidence),
			})
		}
		fr.Fields[name] = fused

		draft.SetField(name, &model.DraftField{
			Value:      fused.Value,
			Values:     append([]string(nil), fused.Values...),
			Confidence: fused.Confidence,
			Source:     fused.WinningSourceType,
		})

		if len(fused.Conflicts) > 0 {
			fr.Conflicts = append(fr.Conflicts, fused)
			fr.Recommendations = append(fr.Recommendations, recommendation(fused))
			zap.L().Debug("fusion: conflict resolved",
				zap.String("field", string(name)),
				zap.String("strategy", fused.Strategy),
				zap.String("winner", string(fused.WinningSourceType)),
				zap.Float64("confidence", fused.Confidence),
				zap.Int("losers", len(fused.Conflicts)),
			)
		}
	}

	draft.OverallConfidence = e.overall(draft)
	fr.OverallConfidence = draft.OverallConfidence
	return draft, fr
}

// collect gathers the non-empty candidates at or above threshold, in input order.
func collect(results []*model.ProcessingResult, name model.FieldName, threshold float64) []candidate {
	var out []candidate
	for i, r := range results {
		if r == nil || !r.Succeeded {
			continue
		}
		f := r.Fields.Get(name)
		if f.Empty() || model.ClampConfidence(f.Confidence) < threshold {
			continue
		}
		out = append(out, candidate{source: r.SourceType, priority: r.Priority, index: i, field: f})
	}
	return out
}

// pick orders the candidates under strategy and splits off the winner.
func (e *Engine) pick(strategy Strategy, cands []candidate) (candidate, []candidate) {
	sorted := make([]candidate, len(cands))
	copy(sorted, cands)

	switch strategy {
	case StrategySourcePriority:
		sort.SliceStable(sorted, func(i, j int) bool {
			a, b := sorted[i], sorted[j]
			if a.priority != b.priority {
				return a.priority > b.priority
			}
			if pa, pb := e.precedence(a.source), e.precedence(b.source); pa != pb {
				return pa > pb
			}
			if a.field.Confidence != b.field.Confidence {
				return a.field.Confidence > b.field.Confidence
			}
			return a.index < b.index
		})
	case StrategyConsensus:
		support := make(map[string]int)
		for _, c := range cands {
			support[normalize(c.field.Value)]++
		}
		sort.SliceStable(sorted, func(i, j int) bool {
			a, b := sorted[i], sorted[j]
			if sa, sb := support[normalize(a.field.Value)], support[normalize(b.field.Value)]; sa != sb {
				return sa > sb
			}
			return e.confidenceLess(a, b)
		})
	default:
		sort.SliceStable(sorted, func(i, j int) bool {
			return e.confidenceLess(sorted[i], sorted[j])
		})
	}
	return sorted[0], sorted[1:]
}

// confidenceLess orders by confidence, then declared priority, then source
// type precedence, then input position.
func (e *Engine) confidenceLess(a, b candidate) bool {
	if a.field.Confidence != b.field.Confidence {
		return a.field.Confidence > b.field.Confidence
	}
	if a.priority != b.priority {
		return a.priority > b.priority
	}
	if pa, pb := e.precedence(a.source), e.precedence(b.source); pa != pb {
		return pa > pb
	}
	return a.index < b.index
}

func (e *Engine) precedence(t model.SourceType) int {
	return e.cfg.Precedence[string(t)]
}

// overall is the importance-weighted mean of the draft's field confidences.
func (e *Engine) overall(d *model.EventDraft) float64 {
	var sum, weight float64
	for _, name := range model.AllFields() {
		f := d.Field(name)
		if f == nil {
			continue
		}
		w := e.weights.Of(name)
		sum += w * f.Confidence
		weight += w
	}
	if weight == 0 {
		return 0
	}
	return model.ClampConfidence(sum / weight)
}

func normalize(v string) string {
	return strings.ToLower(strings.Join(strings.Fields(v), " "))
}

func recommendation(f model.FusedField) string {
	return fmt.Sprintf("%s: kept %s value %q (confidence %.0f) over %d other candidate(s) using %s",
		f.Field, f.WinningSourceType, f.Value, f.Confidence, len(f.Conflicts), f.Strategy)
}
