package source

import (
	"context"
	"net/url"
	"strings"
	"time"

	"github.com/rotisserie/eris"

	"github.com/sells-group/eventdraft/internal/model"
	"github.com/sells-group/eventdraft/internal/scrape"
	"github.com/sells-group/eventdraft/internal/textparse"
)

// Confidences for values taken from page metadata rather than the body.
const (
	pageTitleConfidence       = 85
	pageDescriptionConfidence = 70
	pageURLConfidence         = 95
)

// ErrInvalidURL is returned for inputs that are not fetchable http(s) URLs.
var ErrInvalidURL = eris.New("source: invalid url")

// PageScraper fetches a page. *scrape.Chain satisfies it.
type PageScraper interface {
	Scrape(ctx context.Context, targetURL string) (*scrape.Result, error)
}

// URL scrapes an event page and parses its readable text.
type URL struct {
	opts    options
	scraper PageScraper
}

// NewURL creates a URL extractor.
func NewURL(s PageScraper, opts ...Option) *URL {
	return &URL{opts: buildOptions(opts), scraper: s}
}

// Extract implements Extractor.
func (u *URL) Extract(ctx context.Context, in model.DataSourceInput) (*model.ProcessingResult, error) {
	if err := checkType(in, model.SourceURL); err != nil {
		return nil, err
	}
	target, err := ValidateURL(in.String())
	if err != nil {
		return nil, err
	}

	start := time.Now()
	page, err := call(ctx, u.opts, "scrape", func(ctx context.Context) (*scrape.Result, error) {
		return u.scraper.Scrape(ctx, target)
	})
	if err != nil {
		return nil, eris.Wrapf(err, "source: scrape %s", target)
	}

	res := u.opts.parser.Parse(scrape.Plaintext(page.Page.Content))
	mergePageMetadata(res, page.Page, target)
	res.Finalize()

	res.SourceType = model.SourceURL
	res.Priority = in.Priority
	res.Succeeded = true
	res.DurationMS = time.Since(start).Milliseconds()
	return res, nil
}

// mergePageMetadata lets the page's own title and description compete with
// what the body parse found, and records the page itself as the website.
func mergePageMetadata(res *model.ProcessingResult, page scrape.Page, target string) {
	if t := strings.TrimSpace(page.Title); t != "" {
		if cur := res.Fields.Title; cur.Empty() || cur.Confidence < pageTitleConfidence {
			res.Fields.Set(model.FieldTitle, &model.ParsedField{
				Value:      t,
				Confidence: pageTitleConfidence,
				SourceText: "page title",
			})
		}
	}
	if d := strings.TrimSpace(page.Description); d != "" && res.Fields.Description.Empty() {
		res.Fields.Set(model.FieldDescription, &model.ParsedField{
			Value:      d,
			Confidence: pageDescriptionConfidence,
			SourceText: "page description",
		})
	}
	if res.Fields.Website.Empty() {
		res.Fields.Set(model.FieldWebsite, &model.ParsedField{
			Value:      textparse.NormalizeURL(target),
			Confidence: pageURLConfidence,
			SourceText: target,
		})
	}
}

// ValidateURL trims s, adds https:// when no scheme is given and requires
// an http(s) URL with a host.
func ValidateURL(s string) (string, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return "", eris.Wrap(ErrInvalidURL, "source: empty url")
	}
	if !strings.Contains(s, "://") {
		s = "https://" + s
	}
	parsed, err := url.Parse(s)
	if err != nil {
		return "", eris.Wrapf(ErrInvalidURL, "source: %s", err.Error())
	}
	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return "", eris.Wrapf(ErrInvalidURL, "source: unsupported scheme %q", parsed.Scheme)
	}
	if parsed.Hostname() == "" || strings.ContainsAny(parsed.Host, " \t") {
		return "", eris.Wrapf(ErrInvalidURL, "source: missing host in %q", s)
	}
	return parsed.String(), nil
}
