package textparse

import "github.com/sells-group/eventdraft/internal/model"

// MatchFunc inspects a document and returns a candidate value, or nil.
type MatchFunc func(doc *Document) *model.ParsedField

// Matcher is a named step of a cascade.
type Matcher struct {
	Name  string
	Match MatchFunc
}

// Cascade is an ordered list of matchers for one field.
type Cascade []Matcher

// Run evaluates matchers in order and returns the first non-empty result
// together with the name of the matcher that produced it.
func (c Cascade) Run(doc *Document) (*model.ParsedField, string) {
	for _, m := range c {
		if f := m.Match(doc); !f.Empty() {
			f.Confidence = model.ClampConfidence(f.Confidence)
			return f, m.Name
		}
	}
	return nil, ""
}

// Names lists the matcher names in evaluation order.
func (c Cascade) Names() []string {
	out := make([]string, len(c))
	for i, m := range c {
		out[i] = m.Name
	}
	return out
}
