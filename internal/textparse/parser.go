package textparse

import (
	"strings"
	"time"

	"github.com/sells-group/eventdraft/internal/classify"
	"github.com/sells-group/eventdraft/internal/model"
)

const (
	categoriesMatchedConfidence = 70
	categoriesOtherConfidence   = 30
	tagsHashtagConfidence       = 80
	tagsInferredConfidence      = 60
)

// Parser turns free text into a ProcessingResult. A Parser holds no
// mutable state and is safe for concurrent use.
type Parser struct {
	now      func() time.Time
	cascades map[model.FieldName]Cascade
}

// Option configures a Parser.
type Option func(*Parser)

// WithNow sets the clock used to resolve relative dates.
func WithNow(now func() time.Time) Option {
	return func(p *Parser) { p.now = now }
}

// WithCascade replaces the matcher cascade for a scalar field.
func WithCascade(field model.FieldName, c Cascade) Option {
	return func(p *Parser) { p.cascades[field] = c }
}

// New returns a Parser with the default cascades.
func New(opts ...Option) *Parser {
	p := &Parser{
		now: time.Now,
		cascades: map[model.FieldName]Cascade{
			model.FieldTitle:       titleCascade(),
			model.FieldDescription: descriptionCascade(),
			model.FieldDate:        DateCascade(),
			model.FieldLocation:    locationCascade(),
			model.FieldOrganizer:   organizerCascade(),
			model.FieldTicketInfo:  ticketCascade(),
			model.FieldContactInfo: contactCascade(),
			model.FieldWebsite:     websiteCascade(),
		},
	}
	for _, o := range opts {
		o(p)
	}
	return p
}

// DateCascade is the two-phase date matcher: natural-language phrases
// first, explicit calendar dates only when none is found.
func DateCascade() Cascade {
	return Cascade{
		{Name: "relative", Match: matchRelativeDate},
		{Name: "explicit", Match: matchExplicitDate},
	}
}

// Now returns the parser's current time.
func (p *Parser) Now() time.Time {
	return p.now()
}

// Cascade returns the matcher cascade configured for field.
func (p *Parser) Cascade(field model.FieldName) Cascade {
	return p.cascades[field]
}

// scalarOrder is the evaluation order.
var scalarOrder = []model.FieldName{
	model.FieldTitle,
	model.FieldDescription,
	model.FieldDate,
	model.FieldLocation,
	model.FieldOrganizer,
	model.FieldTicketInfo,
	model.FieldContactInfo,
	model.FieldWebsite,
}

// Parse extracts every field from text. It never fails; fields with no
// match are left unset.
func (p *Parser) Parse(text string) *model.ProcessingResult {
	start := time.Now()
	res := &model.ProcessingResult{
		SourceType: model.SourceText,
		Succeeded:  true,
	}
	if strings.TrimSpace(text) == "" {
		res.Finalize()
		return res
	}

	doc := NewDocument(text, p.now())
	for _, name := range scalarOrder {
		if f, _ := p.cascades[name].Run(doc); f != nil {
			res.Fields.Set(name, f)
		}
	}

	cats := classify.TopCategories(doc.Text)
	res.Categories = classify.Strings(cats)
	catConf := float64(categoriesOtherConfidence)
	if len(cats) > 0 && cats[0] != classify.CategoryOther {
		catConf = categoriesMatchedConfidence
	}
	res.Fields.Set(model.FieldCategories, model.NewListField(res.Categories, catConf))

	if tags := classify.InferTags(doc.Text); len(tags) > 0 {
		res.Tags = tags
		tagConf := float64(tagsInferredConfidence)
		if len(classify.Hashtags(doc.Text)) > 0 {
			tagConf = tagsHashtagConfidence
		}
		res.Fields.Set(model.FieldTags, model.NewListField(tags, tagConf))
	}

	res.Finalize()
	res.DurationMS = time.Since(start).Milliseconds()
	return res
}

// Parse runs a default Parser against the wall clock.
func Parse(text string) *model.ProcessingResult {
	return New().Parse(text)
}
