package textparse

import (
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/sells-group/eventdraft/internal/model"
)

// MaxDescriptionLen caps the description in runes.
const MaxDescriptionLen = 500

var (
	emailRe   = regexp.MustCompile(`[A-Za-z0-9._%+\-]+@[A-Za-z0-9.\-]+\.[A-Za-z]{2,}`)
	hashtagRe = regexp.MustCompile(`#[\p{L}\p{N}_]+`)
)

func descriptionCascade() Cascade {
	return Cascade{
		{Name: "remaining_lines", Match: matchRemainingLines},
	}
}

// matchRemainingLines joins every line other than the heading line that
// carries no date, time, email or hashtag.
func matchRemainingLines(doc *Document) *model.ParsedField {
	var parts []string
	start, end := -1, -1
	for i, ln := range doc.Lines {
		if i == doc.TitleLine {
			continue
		}
		if carriesStructuredData(ln.Text) {
			continue
		}
		parts = append(parts, ln.Text)
		if start < 0 {
			start = ln.Start
		}
		end = ln.End
	}
	if len(parts) == 0 {
		return nil
	}
	desc := truncateRunes(strings.Join(parts, " "), MaxDescriptionLen)
	conf := 60.0
	if utf8.RuneCountInString(desc) > 20 {
		conf = 80
	}
	return &model.ParsedField{
		Value:      desc,
		Confidence: conf,
		Span:       span(start, end),
	}
}

func carriesStructuredData(line string) bool {
	if emailRe.MatchString(line) || hashtagRe.MatchString(line) {
		return true
	}
	if scheduleIndex(line) >= 0 || clockTimeRe.MatchString(line) {
		return true
	}
	return false
}

func truncateRunes(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	r := []rune(s)
	return strings.TrimSpace(string(r[:n]))
}
