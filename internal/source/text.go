package source

import (
	"context"

	"github.com/sells-group/eventdraft/internal/model"
	"github.com/sells-group/eventdraft/internal/textparse"
)

// Text parses pasted text. It never fails on content.
type Text struct {
	parser *textparse.Parser
}

// NewText creates a Text extractor. A nil parser uses the defaults.
func NewText(p *textparse.Parser) *Text {
	if p == nil {
		p = textparse.New()
	}
	return &Text{parser: p}
}

// Extract implements Extractor.
func (t *Text) Extract(ctx context.Context, in model.DataSourceInput) (*model.ProcessingResult, error) {
	if err := checkType(in, model.SourceText); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	res := t.parser.Parse(in.String())
	res.SourceType = model.SourceText
	res.Priority = in.Priority
	return res, nil
}
