package scrape

import (
	"context"
	"html"
	"regexp"
	"strings"

	"github.com/microcosm-cc/bluemonday"
)

// Page is the readable content of one fetched URL.
type Page struct {
	URL         string
	Title       string
	Description string
	Content     string
	StatusCode  int
}

// Result holds a scraped page with its source.
type Result struct {
	Page   Page
	Source string // e.g. "local_http", "jina", "firecrawl"
}

// Scraper fetches a single URL and returns its content.
type Scraper interface {
	Scrape(ctx context.Context, url string) (*Result, error)
	Name() string
	Supports(url string) bool
}

var (
	textPolicy   = bluemonday.StrictPolicy()
	skipBlockRe  = regexp.MustCompile(`(?is)<(nav|footer|header)[^>]*>.*?</(nav|footer|header)>`)
	lineBreakRe  = regexp.MustCompile(`(?i)<(br|/p|/div|/li|/h[1-6]|/tr|/section|/article|/blockquote)[^>]*>`)
	spaceRunRe   = regexp.MustCompile(`[ \t\f\v\r]+`)
	blankLinesRe = regexp.MustCompile(`\n{3,}`)
)

// Plaintext strips markup from s, keeping block boundaries as line breaks
// so line-oriented parsing still works. Text without tags passes through
// with whitespace normalized.
func Plaintext(s string) string {
	s = skipBlockRe.ReplaceAllString(s, "")
	s = lineBreakRe.ReplaceAllString(s, "\n")
	s = html.UnescapeString(textPolicy.Sanitize(s))

	lines := strings.Split(s, "\n")
	for i, l := range lines {
		lines[i] = strings.TrimSpace(spaceRunRe.ReplaceAllString(l, " "))
	}
	s = strings.Join(lines, "\n")
	s = blankLinesRe.ReplaceAllString(s, "\n\n")
	return strings.TrimSpace(s)
}
