package classify

import (
	"math"
	"regexp"
	"strconv"
	"strings"
)

// typicalDurations maps event-type keywords to a typical length in hours.
var typicalDurations = map[string]float64{
	"quiz":           2,
	"concert":        2.5,
	"gig":            3,
	"festival":       8,
	"fete":           4,
	"fair":           4,
	"workshop":       2,
	"class":          1,
	"lesson":         1,
	"course":         2,
	"lecture":        1,
	"talk":           1,
	"seminar":        2,
	"conference":     8,
	"meeting":        1.5,
	"market":         4,
	"film":           2,
	"screening":      2,
	"cinema":         2,
	"theatre":        2.5,
	"pantomime":      2.5,
	"dinner":         2.5,
	"lunch":          1.5,
	"brunch":         2,
	"breakfast":      1,
	"party":          4,
	"disco":          3,
	"ceilidh":        3,
	"tournament":     6,
	"match":          2,
	"marathon":       5,
	"fun run":        2,
	"walk":           2,
	"hike":           4,
	"service":        1,
	"mass":           1,
	"yoga":           1,
	"pilates":        1,
	"coffee morning": 2,
	"bingo":          2,
	"tasting":        2,
	"exhibition":     3,
	"networking":     2,
	"storytime":      0.5,
	"open mic":       3,
}

var compiledDurations = func() map[string]*regexp.Regexp {
	out := make(map[string]*regexp.Regexp, len(typicalDurations))
	for kw := range typicalDurations {
		out[kw] = wordBoundary(kw)
	}
	return out
}()

var (
	hoursPattern   = regexp.MustCompile(`(?i)\b(\d+(?:\.\d+)?)\s*-?\s*(?:hours?|hrs?)\b`)
	minutesPattern = regexp.MustCompile(`(?i)\b(\d+)\s*-?\s*(?:minutes?|mins?)\b`)
)

// InferDuration estimates an event's length in hours. An explicit
// "N hours"/"N minutes" phrase wins; otherwise the longest typical duration
// across all matching event-type keywords is used. Returns 0 when unknown.
func InferDuration(text string) float64 {
	if h, ok := explicitDuration(text); ok {
		return h
	}
	lower := strings.ToLower(text)
	var best float64
	for kw, re := range compiledDurations {
		if re.MatchString(lower) && typicalDurations[kw] > best {
			best = typicalDurations[kw]
		}
	}
	return best
}

func explicitDuration(text string) (float64, bool) {
	var total float64
	found := false
	if m := hoursPattern.FindStringSubmatch(text); m != nil {
		if h, err := strconv.ParseFloat(m[1], 64); err == nil && h > 0 {
			total += h
			found = true
		}
	}
	if m := minutesPattern.FindStringSubmatch(text); m != nil {
		if mins, err := strconv.Atoi(m[1]); err == nil && mins > 0 {
			total += float64(mins) / 60
			found = true
		}
	}
	if !found {
		return 0, false
	}
	return math.Round(total*100) / 100, true
}
