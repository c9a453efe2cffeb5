package textparse

import (
	"regexp"
	"strings"

	"github.com/sells-group/eventdraft/internal/model"
)

const organizerConfidence = 80

const capitalisedRun = `((?:[Tt]he[ \t]+)?[A-Z][\w'&.\-]*(?:[ \t]+(?:[A-Z][\w'&.\-]*|of|the|and|&|for))*)`

var (
	hostedByRe = regexp.MustCompile(`(?i:hosted|organi[sz]ed|presented|run|brought\s+to\s+you)\s+by\s+` + capitalisedRun)
	byRe       = regexp.MustCompile(`\b(?:[Bb]y)\s+` + capitalisedRun)
	fromRe     = regexp.MustCompile(`\b(?:[Ff]rom)\s+` + capitalisedRun)

	organizerStopRe = regexp.MustCompile(`\s+(?:at|on|in|for|from|-)\s+`)
)

func organizerCascade() Cascade {
	return Cascade{
		{Name: "hosted_by", Match: organizerMatcher(hostedByRe)},
		{Name: "by", Match: organizerMatcher(byRe)},
		{Name: "from", Match: organizerMatcher(fromRe)},
	}
}

func organizerMatcher(re *regexp.Regexp) MatchFunc {
	return func(doc *Document) *model.ParsedField {
		for _, m := range re.FindAllStringSubmatchIndex(doc.Text, -1) {
			val := doc.Text[m[2]:m[3]]
			if loc := organizerStopRe.FindStringIndex(val); loc != nil {
				val = val[:loc[0]]
			}
			val = trailingConnectorRe.ReplaceAllString(strings.TrimRight(val, ".-"), "")
			val = strings.TrimSpace(val)
			if val == "" || isCalendarWord(val) {
				continue
			}
			return &model.ParsedField{
				Value:      val,
				Confidence: organizerConfidence,
				SourceText: doc.Text[m[0]:m[1]],
				Span:       span(m[2], m[2]+len(val)),
			}
		}
		return nil
	}
}
