package textparse

import (
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/sells-group/eventdraft/internal/model"
)

const (
	titleMinLen = 3
	titleMaxLen = 100
)

var (
	urlFragmentRe   = regexp.MustCompile(`(?i)https?://|www\.|\b[a-z0-9-]+\.(?:com|org|net|co\.uk|org\.uk|io|uk|events?)\b`)
	markdownPrefix  = regexp.MustCompile(`^[#*\-•>\s]+`)
	markdownEmph    = regexp.MustCompile(`[*_]{1,3}`)
	trailingPunctRe = regexp.MustCompile(`[\s,;:\-–|!]+$`)
)

func titleCascade() Cascade {
	return Cascade{
		{Name: "first_line", Match: matchTitleLine},
	}
}

// matchTitleLine reports the document's heading line as the title.
func matchTitleLine(doc *Document) *model.ParsedField {
	if doc.TitleLine < 0 || doc.TitleLine >= len(doc.Lines) {
		return nil
	}
	ln := doc.Lines[doc.TitleLine]
	title := cleanTitle(ln.Text)
	conf := 70.0
	if utf8.RuneCountInString(title) > 5 {
		conf = 90
	}
	return &model.ParsedField{
		Value:      title,
		Confidence: conf,
		SourceText: ln.Text,
		Span:       span(ln.Start, ln.End),
	}
}

// titleLineIndex picks the first line that looks like a heading rather than
// contact details, a link or a bare date. It returns -1 when none does.
func titleLineIndex(lines []Line) int {
	for i, ln := range lines {
		n := utf8.RuneCountInString(ln.Text)
		if n < titleMinLen || n > titleMaxLen {
			continue
		}
		if strings.Contains(ln.Text, "@") || urlFragmentRe.MatchString(ln.Text) {
			continue
		}
		if isDateOnly(ln.Text) {
			continue
		}
		if utf8.RuneCountInString(cleanTitle(ln.Text)) < titleMinLen {
			continue
		}
		return i
	}
	return -1
}

func cleanTitle(s string) string {
	s = markdownPrefix.ReplaceAllString(s, "")
	s = markdownEmph.ReplaceAllString(s, "")
	if idx := scheduleIndex(s); idx > 0 {
		if head := trailingPunctRe.ReplaceAllString(strings.TrimSpace(s[:idx]), ""); utf8.RuneCountInString(head) >= titleMinLen {
			s = head
		}
	}
	s = strings.TrimSpace(s)
	if isAllCaps(s) {
		s = cases.Title(language.English).String(strings.ToLower(s))
	}
	return s
}

func isAllCaps(s string) bool {
	letters := 0
	for _, r := range s {
		if unicode.IsLetter(r) {
			if unicode.IsLower(r) {
				return false
			}
			letters++
		}
	}
	return letters >= 2
}
