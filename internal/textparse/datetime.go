package textparse

import (
	"regexp"
	"strconv"
	"time"

	"github.com/sells-group/eventdraft/internal/model"
)

const (
	dateLayout     = "2006-01-02"
	dateTimeLayout = "2006-01-02T15:04"
)

const (
	relativeBaseConfidence  = 90
	relativeWordBonus       = 10
	relativeExplicitBonus   = 20
	relativeMaxConfidence   = 95
	explicitDateConfidence  = 85
	explicitTimedConfidence = 95
)

var weekdays = map[string]time.Weekday{
	"sunday":    time.Sunday,
	"monday":    time.Monday,
	"tuesday":   time.Tuesday,
	"wednesday": time.Wednesday,
	"thursday":  time.Thursday,
	"friday":    time.Friday,
	"saturday":  time.Saturday,
}

var months = map[string]time.Month{
	"january": time.January, "jan": time.January,
	"february": time.February, "feb": time.February,
	"march": time.March, "mar": time.March,
	"april": time.April, "apr": time.April,
	"may":  time.May,
	"june": time.June, "jun": time.June,
	"july": time.July, "jul": time.July,
	"august": time.August, "aug": time.August,
	"september": time.September, "sept": time.September, "sep": time.September,
	"october": time.October, "oct": time.October,
	"november": time.November, "nov": time.November,
	"december": time.December, "dec": time.December,
}

const (
	weekdayAlt  = `sunday|monday|tuesday|wednesday|thursday|friday|saturday`
	weekdayAbbr = `(?:sun|mon|tues?|wed|thu(?:rs)?|fri|sat)[a-z]*`
	monthAlt    = `january|february|march|april|may|june|july|august|september|october|november|december|jan|feb|mar|apr|jun|jul|aug|sept|sep|oct|nov|dec`
	ordinal     = `(?:st|nd|rd|th)?`
)

var (
	todayRe    = regexp.MustCompile(`\b(?:today|tonight)\b`)
	tomorrowRe = regexp.MustCompile(`\btomorrow\b`)
	nextDayRe  = regexp.MustCompile(`\bnext\s+(` + weekdayAlt + `)\b`)
	thisDayRe  = regexp.MustCompile(`\bthis\s+(` + weekdayAlt + `)\b`)
	inDaysRe   = regexp.MustCompile(`\bin\s+(\d{1,3})\s+days?\b`)

	isoDateRe      = regexp.MustCompile(`\b(\d{4})-(\d{1,2})-(\d{1,2})\b`)
	numericDateRe  = regexp.MustCompile(`\b(\d{1,2})[/.](\d{1,2})[/.](\d{4}|\d{2})\b`)
	dayMonthRe     = regexp.MustCompile(`\b(?:` + weekdayAbbr + `,?\s+)?(\d{1,2})` + ordinal + `\s+(?:of\s+)?(` + monthAlt + `)\b\.?,?(?:\s+(\d{4}))?`)
	monthDayRe     = regexp.MustCompile(`\b(` + monthAlt + `)\b\.?\s+(\d{1,2})` + ordinal + `\b(?:,?\s+(\d{4}))?`)
	atTimeRe       = regexp.MustCompile(`\bat\s+(\d{1,2})(?::([0-5]\d))?\s*(am|pm)?\b`)
	meridiemTimeRe = regexp.MustCompile(`\b(\d{1,2})(?:[:.]([0-5]\d))?\s*(am|pm)\b`)
	clockTimeRe    = regexp.MustCompile(`\b([01]?\d|2[0-3]):([0-5]\d)\b`)
	noonRe         = regexp.MustCompile(`\b(?:noon|midday)\b`)
)

// timeWords map a time-of-day word to its clock time.
var timeWords = []struct {
	re     *regexp.Regexp
	hour   int
	minute int
}{
	{regexp.MustCompile(`\bmorning\b`), 9, 0},
	{regexp.MustCompile(`\bafternoon\b`), 14, 0},
	{regexp.MustCompile(`\bevening\b`), 19, 0},
	{regexp.MustCompile(`\b(?:night|tonight)\b`), 20, 0},
	{regexp.MustCompile(`\bnoon\b`), 12, 0},
	{regexp.MustCompile(`\blunch(?:time)?\b`), 12, 30},
}

// clock is a resolved time of day.
type clock struct {
	hour, minute int
	text         string
}

// relativeMatch is a natural-language date phrase resolved against a reference day.
type relativeMatch struct {
	date  time.Time
	text  string
	start int
	end   int
}

// ResolveRelativeDate resolves the first natural-language date phrase in
// text against now. "next X" always moves to a future X, even when today
// is X. "this X" stays on today when today is X and only rolls to next week
// once X has passed.
func ResolveRelativeDate(text string, now time.Time) (time.Time, bool) {
	doc := NewDocument(text, now)
	m := findRelative(doc)
	if m == nil {
		return time.Time{}, false
	}
	return m.date, true
}

func findRelative(doc *Document) *relativeMatch {
	today := doc.today()
	lower := doc.Lower

	if loc := todayRe.FindStringIndex(lower); loc != nil {
		return &relativeMatch{date: today, text: doc.Text[loc[0]:loc[1]], start: loc[0], end: loc[1]}
	}
	if loc := tomorrowRe.FindStringIndex(lower); loc != nil {
		return &relativeMatch{date: today.AddDate(0, 0, 1), text: doc.Text[loc[0]:loc[1]], start: loc[0], end: loc[1]}
	}
	if m := nextDayRe.FindStringSubmatchIndex(lower); m != nil {
		target := weekdays[lower[m[2]:m[3]]]
		days := (int(target) - int(today.Weekday()) + 7) % 7
		if days == 0 {
			days = 7
		}
		return &relativeMatch{date: today.AddDate(0, 0, days), text: doc.Text[m[0]:m[1]], start: m[0], end: m[1]}
	}
	if m := thisDayRe.FindStringSubmatchIndex(lower); m != nil {
		target := weekdays[lower[m[2]:m[3]]]
		days := int(target) - int(today.Weekday())
		if days < 0 {
			days += 7
		}
		return &relativeMatch{date: today.AddDate(0, 0, days), text: doc.Text[m[0]:m[1]], start: m[0], end: m[1]}
	}
	if m := inDaysRe.FindStringSubmatchIndex(lower); m != nil {
		n, err := strconv.Atoi(lower[m[2]:m[3]])
		if err == nil {
			return &relativeMatch{date: today.AddDate(0, 0, n), text: doc.Text[m[0]:m[1]], start: m[0], end: m[1]}
		}
	}
	return nil
}

// matchRelativeDate is phase one of date extraction.
func matchRelativeDate(doc *Document) *model.ParsedField {
	rel := findRelative(doc)
	if rel == nil {
		return nil
	}
	conf := float64(relativeBaseConfidence)
	value := rel.date.Format(dateLayout)
	if c, ok := findAtTime(doc.Lower); ok {
		conf += relativeExplicitBonus
		value = withClock(rel.date, c).Format(dateTimeLayout)
	} else if c, ok := findTimeWord(doc.Lower); ok {
		conf += relativeWordBonus
		value = withClock(rel.date, c).Format(dateTimeLayout)
	}
	if conf > relativeMaxConfidence {
		conf = relativeMaxConfidence
	}
	return &model.ParsedField{
		Value:      value,
		Confidence: conf,
		SourceText: rel.text,
		Span:       span(rel.start, rel.end),
	}
}

// matchExplicitDate is phase two: calendar dates written out in full.
func matchExplicitDate(doc *Document) *model.ParsedField {
	d, text, loc, ok := findExplicitDate(doc)
	if !ok {
		return nil
	}
	f := &model.ParsedField{
		Value:      d.Format(dateLayout),
		Confidence: explicitDateConfidence,
		SourceText: text,
		Span:       span(loc[0], loc[1]),
	}
	if c, ok := findAnyTime(doc.Lower); ok {
		f.Value = withClock(d, c).Format(dateTimeLayout)
		f.Confidence = explicitTimedConfidence
	}
	return f
}

func findExplicitDate(doc *Document) (time.Time, string, []int, bool) {
	lower := doc.Lower
	today := doc.today()

	for _, m := range isoDateRe.FindAllStringSubmatchIndex(lower, -1) {
		y, _ := strconv.Atoi(lower[m[2]:m[3]])
		mo, _ := strconv.Atoi(lower[m[4]:m[5]])
		d, _ := strconv.Atoi(lower[m[6]:m[7]])
		if t, ok := calendarDate(y, mo, d, doc.Now.Location()); ok {
			return t, doc.Text[m[0]:m[1]], m[:2], true
		}
	}
	for _, m := range numericDateRe.FindAllStringSubmatchIndex(lower, -1) {
		d, _ := strconv.Atoi(lower[m[2]:m[3]])
		mo, _ := strconv.Atoi(lower[m[4]:m[5]])
		y, _ := strconv.Atoi(lower[m[6]:m[7]])
		if y < 100 {
			y += 2000
		}
		if t, ok := calendarDate(y, mo, d, doc.Now.Location()); ok {
			return t, doc.Text[m[0]:m[1]], m[:2], true
		}
	}
	for _, m := range dayMonthRe.FindAllStringSubmatchIndex(lower, -1) {
		d, _ := strconv.Atoi(lower[m[2]:m[3]])
		mo := months[lower[m[4]:m[5]]]
		if t, ok := resolveYear(d, mo, lower, m[6], m[7], today); ok {
			return t, doc.Text[m[0]:m[1]], m[:2], true
		}
	}
	for _, m := range monthDayRe.FindAllStringSubmatchIndex(lower, -1) {
		mo := months[lower[m[2]:m[3]]]
		d, _ := strconv.Atoi(lower[m[4]:m[5]])
		if t, ok := resolveYear(d, mo, lower, m[6], m[7], today); ok {
			return t, doc.Text[m[0]:m[1]], m[:2], true
		}
	}
	return time.Time{}, "", nil, false
}

// resolveYear uses the explicit year when present, otherwise the next
// occurrence of day/month on or after today.
func resolveYear(day int, month time.Month, lower string, ys, ye int, today time.Time) (time.Time, bool) {
	if ys >= 0 {
		y, _ := strconv.Atoi(lower[ys:ye])
		return calendarDate(y, int(month), day, today.Location())
	}
	t, ok := calendarDate(today.Year(), int(month), day, today.Location())
	if !ok {
		return t, false
	}
	if t.Before(today) {
		return calendarDate(today.Year()+1, int(month), day, today.Location())
	}
	return t, true
}

// calendarDate rejects dates that time.Date would normalize (e.g. 31/02).
func calendarDate(y, m, d int, loc *time.Location) (time.Time, bool) {
	if m < 1 || m > 12 || d < 1 || d > 31 || y < 1900 || y > 2200 {
		return time.Time{}, false
	}
	t := time.Date(y, time.Month(m), d, 0, 0, 0, 0, loc)
	if t.Day() != d || int(t.Month()) != m {
		return time.Time{}, false
	}
	return t, true
}

// findAtTime finds "at H:MM", "at Hpm" style times. A bare "at 2" is
// ignored since it is usually a street number.
func findAtTime(lower string) (clock, bool) {
	for _, m := range atTimeRe.FindAllStringSubmatchIndex(lower, -1) {
		hasMinutes := m[4] >= 0
		hasMeridiem := m[6] >= 0
		if !hasMinutes && !hasMeridiem {
			continue
		}
		h, _ := strconv.Atoi(lower[m[2]:m[3]])
		mins := 0
		if hasMinutes {
			mins, _ = strconv.Atoi(lower[m[4]:m[5]])
		}
		meridiem := ""
		if hasMeridiem {
			meridiem = lower[m[6]:m[7]]
		}
		if c, ok := toClock(h, mins, meridiem); ok {
			c.text = lower[m[0]:m[1]]
			return c, true
		}
	}
	return clock{}, false
}

// findTimeWord returns the time-of-day word that appears earliest in text.
func findTimeWord(lower string) (clock, bool) {
	best := -1
	var out clock
	for _, tw := range timeWords {
		loc := tw.re.FindStringIndex(lower)
		if loc == nil {
			continue
		}
		if best == -1 || loc[0] < best {
			best = loc[0]
			out = clock{hour: tw.hour, minute: tw.minute, text: lower[loc[0]:loc[1]]}
		}
	}
	return out, best >= 0
}

// findAnyTime finds an explicit clock time anywhere in text.
func findAnyTime(lower string) (clock, bool) {
	if c, ok := findAtTime(lower); ok {
		return c, true
	}
	for _, m := range meridiemTimeRe.FindAllStringSubmatchIndex(lower, -1) {
		h, _ := strconv.Atoi(lower[m[2]:m[3]])
		mins := 0
		if m[4] >= 0 {
			mins, _ = strconv.Atoi(lower[m[4]:m[5]])
		}
		if c, ok := toClock(h, mins, lower[m[6]:m[7]]); ok {
			c.text = lower[m[0]:m[1]]
			return c, true
		}
	}
	if m := clockTimeRe.FindStringSubmatch(lower); m != nil {
		h, _ := strconv.Atoi(m[1])
		mins, _ := strconv.Atoi(m[2])
		return clock{hour: h, minute: mins, text: m[0]}, true
	}
	if loc := noonRe.FindStringIndex(lower); loc != nil {
		return clock{hour: 12, text: lower[loc[0]:loc[1]]}, true
	}
	return clock{}, false
}

func toClock(h, mins int, meridiem string) (clock, bool) {
	switch meridiem {
	case "am", "pm":
		if h < 1 || h > 12 {
			return clock{}, false
		}
		if meridiem == "pm" && h != 12 {
			h += 12
		}
		if meridiem == "am" && h == 12 {
			h = 0
		}
	default:
		if h > 23 {
			return clock{}, false
		}
	}
	return clock{hour: h, minute: mins}, true
}

func withClock(d time.Time, c clock) time.Time {
	return time.Date(d.Year(), d.Month(), d.Day(), c.hour, c.minute, 0, 0, d.Location())
}

// scheduleIndex returns the byte offset of the earliest date or time phrase
// in s, or -1.
func scheduleIndex(s string) int {
	lower := foldASCII(s)
	best := -1
	consider := func(loc []int) {
		if loc != nil && (best == -1 || loc[0] < best) {
			best = loc[0]
		}
	}
	for _, re := range []*regexp.Regexp{
		todayRe, tomorrowRe, nextDayRe, thisDayRe, inDaysRe,
		isoDateRe, numericDateRe, dayMonthRe, monthDayRe, atTimeRe, meridiemTimeRe,
	} {
		consider(re.FindStringIndex(lower))
	}
	return best
}

var dateNoiseRe = regexp.MustCompile(`\b(?:` + weekdayAlt + `|` + monthAlt + `|on|at|from|to|until|till|the|of|and|doors|open|starts?|` + weekdayAbbr + `)\b|\d+(?:st|nd|rd|th)?|am|pm`)

// isDateOnly reports whether s is essentially just a date/time expression.
func isDateOnly(s string) bool {
	if scheduleIndex(s) < 0 && !anyWeekday(s) {
		return false
	}
	lower := foldASCII(s)
	for _, re := range []*regexp.Regexp{todayRe, tomorrowRe, nextDayRe, thisDayRe, inDaysRe, isoDateRe, numericDateRe, dayMonthRe, monthDayRe, atTimeRe, meridiemTimeRe, clockTimeRe} {
		lower = re.ReplaceAllString(lower, " ")
	}
	lower = dateNoiseRe.ReplaceAllString(lower, " ")
	letters := 0
	for _, r := range lower {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') {
			letters++
		}
	}
	return letters < 3
}

var weekdayWordRe = regexp.MustCompile(`\b(?:` + weekdayAlt + `)\b`)

func anyWeekday(s string) bool {
	return weekdayWordRe.MatchString(foldASCII(s))
}
