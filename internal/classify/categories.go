// Package classify infers event categories, tags and typical duration from
// free text using keyword tables.
package classify

import (
	"regexp"
	"sort"
	"strings"
)

// Category is an event category label.
type Category string

const (
	CategoryMusic          Category = "music"
	CategoryFoodDrink      Category = "food_drink"
	CategorySports         Category = "sports"
	CategoryArtsCulture    Category = "arts_culture"
	CategoryCommunity      Category = "community"
	CategoryFamily         Category = "family"
	CategoryEducation      Category = "education"
	CategoryCharity        Category = "charity"
	CategoryReligious      Category = "religious"
	CategoryOutdoor        Category = "outdoor"
	CategoryNightlife      Category = "nightlife"
	CategoryHealthWellness Category = "health_wellness"
	CategoryBusiness       Category = "business"
	CategoryOther          Category = "other"
)

// MaxCategories is the number of categories returned by TopCategories.
const MaxCategories = 2

type keywordRule struct {
	category Category
	keywords []string
}

// categoryTable is ordered; earlier rows win score ties.
var categoryTable = []keywordRule{
	{CategoryMusic, []string{"music", "concert", "gig", "jazz", "live band", "choir", "orchestra", "acoustic", "open mic", "singer", "karaoke", "folk", "blues", "classical", "opera", "ceilidh", "rock"}},
	{CategoryFoodDrink, []string{"food", "drink", "beer", "wine", "cider", "tasting", "dinner", "lunch", "breakfast", "brunch", "barbecue", "bbq", "cake", "bake", "street food", "supper", "curry", "cocktail", "coffee"}},
	{CategorySports, []string{"sport", "football", "cricket", "rugby", "tennis", "golf", "marathon", "fun run", "5k", "10k", "swim", "cycling", "tournament", "match", "netball", "bowls"}},
	{CategoryArtsCulture, []string{"exhibition", "gallery", "theatre", "theater", "film", "cinema", "screening", "museum", "poetry", "craft", "dance", "ballet", "comedy", "painting", "photography", "artist", "artwork", "book club", "book launch", "pantomime"}},
	{CategoryCommunity, []string{"community", "village", "neighbourhood", "neighborhood", "fete", "fair", "residents", "coffee morning", "jumble sale", "bingo", "quiz", "meetup"}},
	{CategoryFamily, []string{"family", "kids", "children", "child", "toddler", "baby", "parents", "half term", "storytime", "all ages", "soft play"}},
	{CategoryEducation, []string{"workshop", "class", "course", "lecture", "talk", "seminar", "training", "learn", "lesson", "tutorial"}},
	{CategoryCharity, []string{"charity", "fundraiser", "fundraising", "donation", "appeal", "raffle", "auction", "sponsored", "in aid of"}},
	{CategoryReligious, []string{"church", "worship", "mass", "prayer", "mosque", "temple", "synagogue", "carol", "bible", "evensong"}},
	{CategoryOutdoor, []string{"outdoor", "park", "garden", "walk", "hike", "nature", "picnic", "beach", "trail", "open air"}},
	{CategoryNightlife, []string{"nightclub", "club night", "disco", "party", "late night", "rave", "cocktail bar"}},
	{CategoryHealthWellness, []string{"yoga", "pilates", "meditation", "wellness", "fitness", "health", "mindfulness", "zumba", "tai chi"}},
	{CategoryBusiness, []string{"networking", "business", "conference", "expo", "startup", "entrepreneur", "trade show", "careers fair"}},
}

type compiledKeyword struct {
	word string
	re   *regexp.Regexp
}

type compiledRule struct {
	category Category
	keywords []compiledKeyword
}

var compiledCategories = compileRules(categoryTable)

func compileRules(rules []keywordRule) []compiledRule {
	out := make([]compiledRule, 0, len(rules))
	for _, r := range rules {
		cr := compiledRule{category: r.category}
		for _, kw := range r.keywords {
			cr.keywords = append(cr.keywords, compiledKeyword{word: kw, re: wordBoundary(kw)})
		}
		out = append(out, cr)
	}
	return out
}

func wordBoundary(kw string) *regexp.Regexp {
	return regexp.MustCompile(`\b` + regexp.QuoteMeta(kw) + `\b`)
}

// CategoryScore is a category with its accumulated keyword score.
type CategoryScore struct {
	Category Category
	Score    int
}

// ScoreCategories scores every category against text. A keyword matching
// on word boundaries adds 2; one found only as a substring adds 1. Only
// non-zero scores are returned, highest first, ties in table order.
func ScoreCategories(text string) []CategoryScore {
	lower := strings.ToLower(text)
	var scores []CategoryScore
	for _, rule := range compiledCategories {
		score := 0
		for _, kw := range rule.keywords {
			switch {
			case kw.re.MatchString(lower):
				score += 2
			case strings.Contains(lower, kw.word):
				score++
			}
		}
		if score > 0 {
			scores = append(scores, CategoryScore{Category: rule.category, Score: score})
		}
	}
	sort.SliceStable(scores, func(i, j int) bool {
		return scores[i].Score > scores[j].Score
	})
	return scores
}

// TopCategories returns up to MaxCategories categories for text, or
// [other] when nothing matched.
func TopCategories(text string) []Category {
	scores := ScoreCategories(text)
	if len(scores) == 0 {
		return []Category{CategoryOther}
	}
	if len(scores) > MaxCategories {
		scores = scores[:MaxCategories]
	}
	out := make([]Category, len(scores))
	for i, s := range scores {
		out[i] = s.Category
	}
	return out
}

// Strings converts categories to plain strings.
func Strings(cats []Category) []string {
	out := make([]string, len(cats))
	for i, c := range cats {
		out[i] = string(c)
	}
	return out
}
