package textparse

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/sells-group/eventdraft/internal/model"
)

const ticketConfidence = 85

const money = `[£$€]\s?\d+(?:[.,]\d{2})?`

var (
	priceRangeRe = regexp.MustCompile(money + `\s*(?:-|–|to)\s*` + money)
	// longest first so "free entry" wins over "free".
	freeRe = regexp.MustCompile(`(?i)\b(?:free\s+of\s+charge|free\s+admission|free\s+entry|no\s+charge|entry\s+(?:is\s+)?free|free)\b`)

	advanceRe = regexp.MustCompile(`(?i)(` + money + `)\s*(?:in\s+)?(?:adv(?:ance)?\.?|online|early\s+bird)`)
	doorRe    = regexp.MustCompile(`(?i)(` + money + `)\s*(?:on\s+(?:the\s+)?door|otd|at\s+(?:the\s+)?door|on\s+the\s+night)`)

	labelledTicketRe = regexp.MustCompile(`(?im)^\s*(?:tickets?|entry|admission|price|cost)\s*[:\-]\s*(.+)$`)
	singlePriceRe    = regexp.MustCompile(`(?i)` + money + `(?:\s*(?:per\s+person|pp|each|per\s+ticket|adults?|entry|admission|tickets?))?`)
)

func ticketCascade() Cascade {
	return Cascade{
		{Name: "price_range", Match: regexpField(priceRangeRe, ticketConfidence)},
		{Name: "free", Match: regexpField(freeRe, ticketConfidence)},
		{Name: "advance_door", Match: matchAdvanceDoor},
		{Name: "labelled", Match: matchLabelledTicket},
		{Name: "single_price", Match: regexpField(singlePriceRe, ticketConfidence)},
	}
}

// regexpField returns the first whole match of re as the field value.
func regexpField(re *regexp.Regexp, conf float64) MatchFunc {
	return func(doc *Document) *model.ParsedField {
		loc := re.FindStringIndex(doc.Text)
		if loc == nil {
			return nil
		}
		val := strings.TrimSpace(doc.Text[loc[0]:loc[1]])
		return &model.ParsedField{
			Value:      val,
			Confidence: conf,
			SourceText: val,
			Span:       span(loc[0], loc[1]),
		}
	}
}

// matchAdvanceDoor needs both an advance and a door price.
func matchAdvanceDoor(doc *Document) *model.ParsedField {
	adv := advanceRe.FindStringSubmatchIndex(doc.Text)
	door := doorRe.FindStringSubmatchIndex(doc.Text)
	if adv == nil || door == nil {
		return nil
	}
	start, end := min(adv[0], door[0]), max(adv[1], door[1])
	return &model.ParsedField{
		Value: fmt.Sprintf("%s advance / %s on the door",
			compactMoney(doc.Text[adv[2]:adv[3]]), compactMoney(doc.Text[door[2]:door[3]])),
		Confidence: ticketConfidence,
		SourceText: doc.Text[start:end],
		Span:       span(start, end),
	}
}

func matchLabelledTicket(doc *Document) *model.ParsedField {
	m := labelledTicketRe.FindStringSubmatchIndex(doc.Text)
	if m == nil {
		return nil
	}
	return &model.ParsedField{
		Value:      strings.TrimSpace(doc.Text[m[2]:m[3]]),
		Confidence: ticketConfidence,
		SourceText: strings.TrimSpace(doc.Text[m[0]:m[1]]),
		Span:       span(m[2], m[3]),
	}
}

func compactMoney(s string) string {
	return strings.Join(strings.Fields(s), "")
}
