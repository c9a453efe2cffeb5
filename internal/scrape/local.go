package scrape

import (
	"context"
	"html"
	"io"
	"net"
	"net/http"
	"regexp"
	"strings"
	"time"

	"github.com/rotisserie/eris"
)

// LocalScraper fetches HTML via net/http, detects blocks, and converts to
// plaintext. Free, no API calls. Falls through to Jina/Firecrawl when blocked.
type LocalScraper struct {
	client *http.Client
}

// NewLocalScraper creates a LocalScraper with sensible defaults.
func NewLocalScraper() *LocalScraper {
	return &LocalScraper{
		client: &http.Client{
			Timeout: 15 * time.Second,
			Transport: &http.Transport{
				DialContext: (&net.Dialer{
					Timeout: 10 * time.Second,
				}).DialContext,
				TLSHandshakeTimeout: 10 * time.Second,
			},
		},
	}
}

func (l *LocalScraper) Name() string           { return "local_http" }
func (l *LocalScraper) Supports(_ string) bool { return true }

// Scrape fetches a URL, detects blocks, strips HTML to plaintext.
func (l *LocalScraper) Scrape(ctx context.Context, targetURL string) (*Result, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, targetURL, nil)
	if err != nil {
		return nil, eris.Wrap(err, "local_http: create request")
	}
	req.Header.Set("User-Agent", "Mozilla/5.0 (compatible; EventDraftBot/1.0)")

	resp, err := l.client.Do(req)
	if err != nil {
		return nil, eris.Wrap(err, "local_http: fetch")
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 512*1024))
	if err != nil {
		return nil, eris.Wrap(err, "local_http: read body")
	}

	if blocked, blockType := DetectBlock(resp, body); blocked {
		return nil, eris.Errorf("local_http: blocked (%s)", blockType)
	}

	if resp.StatusCode >= 400 {
		return nil, eris.Errorf("local_http: status %d", resp.StatusCode)
	}

	text := Plaintext(string(body))
	if len(text) < minContentLen {
		return nil, eris.New("local_http: empty page")
	}

	return &Result{
		Page: Page{
			URL:         targetURL,
			Title:       extractTitle(body),
			Description: extractMeta(body, "description"),
			Content:     text,
			StatusCode:  resp.StatusCode,
		},
		Source: "local_http",
	}, nil
}

var (
	titleRe  = regexp.MustCompile(`(?is)<title[^>]*>(.*?)</title>`)
	ogTitle  = regexp.MustCompile(`(?i)<meta[^>]+property=["']og:title["'][^>]+content=["']([^"']*)["']`)
	metaTags = regexp.MustCompile(`(?i)<meta[^>]+name=["']([a-z:]+)["'][^>]+content=["']([^"']*)["']`)
)

// extractTitle prefers og:title and falls back to <title>.
func extractTitle(body []byte) string {
	for _, re := range []*regexp.Regexp{ogTitle, titleRe} {
		if m := re.FindSubmatch(body); len(m) > 1 {
			if t := strings.TrimSpace(html.UnescapeString(string(m[1]))); t != "" {
				return t
			}
		}
	}
	return ""
}

// extractMeta returns the content of <meta name="name">.
func extractMeta(body []byte, name string) string {
	for _, m := range metaTags.FindAllSubmatch(body, -1) {
		if strings.EqualFold(string(m[1]), name) {
			return strings.TrimSpace(html.UnescapeString(string(m[2])))
		}
	}
	return ""
}
