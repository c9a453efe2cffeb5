package textparse

import (
	"regexp"
	"strings"

	"github.com/sells-group/eventdraft/internal/model"
)

const (
	contactConfidence = 90
	websiteConfidence = 95
)

var (
	phoneRe = regexp.MustCompile(`\+?\(?\d[\d\s().\-]{8,}\d`)

	websiteRe = regexp.MustCompile(`(?i)\b(?:https?://[^\s<>"']+|www\.[^\s<>"']+|[a-z0-9][a-z0-9\-]*(?:\.[a-z0-9\-]+)*\.(?:com|org|net|io|co\.uk|org\.uk|uk|events|info|biz|eu|ie)(?:/[^\s<>"']*)?)`)
	schemeRe  = regexp.MustCompile(`(?i)^https?://`)
)

func contactCascade() Cascade {
	return Cascade{
		{Name: "email_phone", Match: matchContact},
	}
}

func websiteCascade() Cascade {
	return Cascade{
		{Name: "url", Match: matchWebsite},
	}
}

// matchContact collects every email and phone number, in that order.
func matchContact(doc *Document) *model.ParsedField {
	var found []string
	seen := make(map[string]bool)
	add := func(v string) {
		if !seen[v] {
			seen[v] = true
			found = append(found, v)
		}
	}
	for _, e := range emailRe.FindAllString(doc.Text, -1) {
		add(e)
	}
	noURLs := websiteRe.ReplaceAllString(emailRe.ReplaceAllString(doc.Text, " "), " ")
	for _, p := range phoneRe.FindAllString(noURLs, -1) {
		p = strings.TrimSpace(p)
		if n := countDigits(p); n >= 10 && n <= 13 && !looksLikeDate(p) {
			add(p)
		}
	}
	if len(found) == 0 {
		return nil
	}
	return &model.ParsedField{
		Value:      strings.Join(found, ", "),
		Confidence: contactConfidence,
	}
}

// matchWebsite takes the first link that is not part of an email address.
func matchWebsite(doc *Document) *model.ParsedField {
	text := emailRe.ReplaceAllStringFunc(doc.Text, func(s string) string {
		return strings.Repeat(" ", len(s))
	})
	loc := websiteRe.FindStringIndex(text)
	if loc == nil {
		return nil
	}
	raw := strings.TrimRight(text[loc[0]:loc[1]], ".,;:!?)]")
	return &model.ParsedField{
		Value:      NormalizeURL(raw),
		Confidence: websiteConfidence,
		SourceText: raw,
		Span:       span(loc[0], loc[0]+len(raw)),
	}
}

// NormalizeURL prefixes https:// when s carries no scheme.
func NormalizeURL(s string) string {
	s = strings.TrimSpace(s)
	if s == "" || schemeRe.MatchString(s) {
		return s
	}
	return "https://" + s
}

func countDigits(s string) int {
	n := 0
	for _, r := range s {
		if r >= '0' && r <= '9' {
			n++
		}
	}
	return n
}

func looksLikeDate(s string) bool {
	return isoDateRe.MatchString(s) || numericDateRe.MatchString(s)
}
