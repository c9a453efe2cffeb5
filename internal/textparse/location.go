package textparse

import (
	"regexp"
	"strings"

	"github.com/sells-group/eventdraft/internal/model"
)

const (
	explicitLocationConfidence = 85
	venueScanConfidence        = 75
)

var (
	labelledLocationRe = regexp.MustCompile(`(?im)^\s*(?:venue|location|address|where|place)\s*[:\-]\s*(.+)$`)
	heldAtRe           = regexp.MustCompile(`(?i)\bheld\s+at\s+([^,.\n]+)`)
	atNameRe           = regexp.MustCompile(`\b[Aa]t[ \t]+((?:[Tt]he[ \t]+)?[A-Z][\w'&.\-]*(?:[ \t]+(?:[A-Z][\w'&.\-]*|of|on|the|and|&))*)`)

	// connector words that may trail a capitalised run and are not part of the name.
	trailingConnectorRe = regexp.MustCompile(`(?i)(?:\s+(?:of|on|the|and|&))+$`)

	venueKeywordRe = regexp.MustCompile(`(?i)\b(?:hall|centre|center|church|chapel|school|college|university|park|road|street|st|lane|avenue|ave|square|pub|inn|arms|tavern|bar|club|theatre|theater|library|museum|gallery|stadium|arena|field|green|common|community|venue|hotel|house|barn|cafe|café)\b`)
)

func locationCascade() Cascade {
	return Cascade{
		{Name: "labelled", Match: matchLabelledLocation},
		{Name: "held_at", Match: matchHeldAt},
		{Name: "at_name", Match: matchAtName},
		{Name: "venue_keyword_line", Match: matchVenueLine},
	}
}

func matchLabelledLocation(doc *Document) *model.ParsedField {
	m := labelledLocationRe.FindStringSubmatchIndex(doc.Text)
	if m == nil {
		return nil
	}
	val := strings.TrimSpace(doc.Text[m[2]:m[3]])
	return &model.ParsedField{
		Value:      val,
		Confidence: explicitLocationConfidence,
		SourceText: strings.TrimSpace(doc.Text[m[0]:m[1]]),
		Span:       span(m[2], m[3]),
	}
}

func matchHeldAt(doc *Document) *model.ParsedField {
	m := heldAtRe.FindStringSubmatchIndex(doc.Text)
	if m == nil {
		return nil
	}
	val := cutAtSchedule(strings.TrimSpace(doc.Text[m[2]:m[3]]))
	if val == "" {
		return nil
	}
	return &model.ParsedField{
		Value:      val,
		Confidence: explicitLocationConfidence,
		SourceText: doc.Text[m[0]:m[1]],
		Span:       span(m[2], m[2]+len(val)),
	}
}

// matchAtName handles "at The Horns" style mentions. Captures that are a
// weekday, month or time word are ignored.
func matchAtName(doc *Document) *model.ParsedField {
	for _, m := range atNameRe.FindAllStringSubmatchIndex(doc.Text, -1) {
		val := trailingConnectorRe.ReplaceAllString(stopAtCalendarWord(doc.Text[m[2]:m[3]]), "")
		val = strings.TrimRight(val, ".-")
		if val == "" || isCalendarWord(val) {
			continue
		}
		return &model.ParsedField{
			Value:      val,
			Confidence: explicitLocationConfidence,
			SourceText: doc.Text[m[0]:m[1]],
			Span:       span(m[2], m[2]+len(val)),
		}
	}
	return nil
}

// matchVenueLine falls back to the first non-title line naming a venue noun.
func matchVenueLine(doc *Document) *model.ParsedField {
	for i, ln := range doc.Lines {
		if i == doc.TitleLine {
			continue
		}
		if strings.Contains(ln.Text, "@") || strings.Contains(strings.ToLower(ln.Text), "http") {
			continue
		}
		if !venueKeywordRe.MatchString(ln.Text) {
			continue
		}
		return &model.ParsedField{
			Value:      strings.Trim(ln.Text, " ,.;"),
			Confidence: venueScanConfidence,
			SourceText: ln.Text,
			Span:       span(ln.Start, ln.End),
		}
	}
	return nil
}

var calendarWordRe = regexp.MustCompile(`(?i)^(?:the\s+)?(?:` + weekdayAlt + `|` + monthAlt + `|noon|midday|midnight|night|lunch(?:time)?|tonight|today|tomorrow|weekend|` + holidayAlt + `)\b`)

// holidayAlt names holidays that follow "at" in schedule phrases ("at Christmas").
const holidayAlt = `christmas(?:\s+eve|\s+day)?|xmas|easter|halloween|new\s+year(?:'s)?(?:\s+eve|\s+day)?|boxing\s+day|bonfire\s+night|midsummer|thanksgiving|hanukkah|diwali|eid|half[\s-]term|bank\s+holiday`

func isCalendarWord(s string) bool {
	return calendarWordRe.MatchString(strings.TrimSpace(s))
}

// stopAtCalendarWord truncates a capitalised run before the first weekday,
// month or time word after its first word ("The Horns on Friday").
func stopAtCalendarWord(s string) string {
	fields := strings.Fields(s)
	for i := 1; i < len(fields); i++ {
		if isCalendarWord(fields[i]) {
			return strings.Join(fields[:i], " ")
		}
	}
	return s
}

// cutAtSchedule drops a trailing date/time phrase from a captured value.
func cutAtSchedule(s string) string {
	if idx := scheduleIndex(s); idx > 0 {
		s = s[:idx]
	}
	s = trailingConnectorRe.ReplaceAllString(stopAtCalendarWord(strings.TrimSpace(s)), "")
	return trailingPunctRe.ReplaceAllString(s, "")
}
