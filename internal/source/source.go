// Package source turns each kind of DataSourceInput into a ProcessingResult.
// Text is parsed directly; images go through a vision model or OCR; URLs are
// scraped and then parsed as text.
package source

import (
	"context"

	"github.com/rotisserie/eris"
	"golang.org/x/time/rate"

	"github.com/sells-group/eventdraft/internal/model"
	"github.com/sells-group/eventdraft/internal/resilience"
	"github.com/sells-group/eventdraft/internal/textparse"
)

// ErrUnsupportedSource is returned for inputs no extractor is registered for.
var ErrUnsupportedSource = eris.New("source: unsupported source type")

// Extractor parses one input. A returned error means the source failed;
// a result with no fields is still a success.
type Extractor interface {
	Extract(ctx context.Context, in model.DataSourceInput) (*model.ProcessingResult, error)
}

// Registry dispatches inputs to the extractor registered for their type.
type Registry struct {
	extractors map[model.SourceType]Extractor
}

// NewRegistry creates an empty Registry.
func NewRegistry() *Registry {
	return &Registry{extractors: make(map[model.SourceType]Extractor)}
}

// Register sets the extractor for t, replacing any previous one.
func (r *Registry) Register(t model.SourceType, e Extractor) *Registry {
	r.extractors[t] = e
	return r
}

// Supports reports whether an extractor is registered for t.
func (r *Registry) Supports(t model.SourceType) bool {
	_, ok := r.extractors[t]
	return ok
}

// Extract implements Extractor.
func (r *Registry) Extract(ctx context.Context, in model.DataSourceInput) (*model.ProcessingResult, error) {
	e, ok := r.extractors[in.Type]
	if !ok {
		return nil, eris.Wrapf(ErrUnsupportedSource, "source: %q", in.Type)
	}
	return e.Extract(ctx, in)
}

// options are shared by the collaborator-backed extractors.
type options struct {
	parser  *textparse.Parser
	limiter *rate.Limiter
	policy  resilience.Policy
}

// Option configures an extractor.
type Option func(*options)

// WithParser sets the text parser used on extracted text.
func WithParser(p *textparse.Parser) Option {
	return func(o *options) { o.parser = p }
}

// WithLimiter throttles outbound collaborator calls.
func WithLimiter(l *rate.Limiter) Option {
	return func(o *options) { o.limiter = l }
}

// WithRetryPolicy sets the backoff for transient collaborator failures.
func WithRetryPolicy(p resilience.Policy) Option {
	return func(o *options) { o.policy = p }
}

func buildOptions(opts []Option) options {
	o := options{
		parser:  textparse.New(),
		limiter: rate.NewLimiter(rate.Inf, 0),
		policy:  resilience.DefaultPolicy(),
	}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// call waits for the limiter and runs fn under the retry policy.
func call[T any](ctx context.Context, o options, collaborator string, fn func(context.Context) (T, error)) (T, error) {
	p := o.policy
	if p.OnRetry == nil {
		p.OnRetry = resilience.LogRetries(collaborator, "extract")
	}
	return resilience.DoVal(ctx, p, func(ctx context.Context) (T, error) {
		if err := o.limiter.Wait(ctx); err != nil {
			var zero T
			return zero, eris.Wrapf(err, "source: %s rate limit wait", collaborator)
		}
		return fn(ctx)
	})
}

func checkType(in model.DataSourceInput, want model.SourceType) error {
	if in.Type != want {
		return eris.Errorf("source: %s extractor given %q input", want, in.Type)
	}
	return nil
}
