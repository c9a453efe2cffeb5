package classify

import (
	"regexp"
	"strings"
)

// MaxTags caps the number of tags returned by InferTags.
const MaxTags = 10

var (
	hashtagPattern = regexp.MustCompile(`#([\p{L}\p{N}_]+)`)
	pricePattern   = regexp.MustCompile(`[£$€]\s?\d`)
)

type contextTag struct {
	tag      string
	patterns []*regexp.Regexp
}

var contextTags = []contextTag{
	{"free", words("free", "no charge", "free entry", "free admission")},
	{"family-friendly", words("family", "kids", "children", "all ages", "child friendly", "child-friendly")},
	{"outdoor", words("park", "garden", "beach", "field", "outdoor", "outdoors", "open air")},
	{"indoor", words("hall", "centre", "center", "church", "pub", "library", "indoors")},
	{"online", words("zoom", "online", "livestream", "virtual")},
}

func words(kws ...string) []*regexp.Regexp {
	out := make([]*regexp.Regexp, len(kws))
	for i, kw := range kws {
		out[i] = wordBoundary(kw)
	}
	return out
}

// Hashtags returns the lowercased hashtags in text without the leading '#'.
func Hashtags(text string) []string {
	var out []string
	for _, m := range hashtagPattern.FindAllStringSubmatch(text, -1) {
		out = append(out, strings.ToLower(m[1]))
	}
	return dedupe(out)
}

// InferTags returns hashtags followed by contextual tags (free/paid,
// family, indoor/outdoor, online), deduplicated and capped at MaxTags.
func InferTags(text string) []string {
	tags := Hashtags(text)
	lower := strings.ToLower(text)

	free := false
	for _, ct := range contextTags {
		for _, re := range ct.patterns {
			if re.MatchString(lower) {
				tags = append(tags, ct.tag)
				if ct.tag == "free" {
					free = true
				}
				break
			}
		}
	}
	if !free && pricePattern.MatchString(text) {
		tags = append(tags, "paid")
	}

	tags = dedupe(tags)
	if len(tags) > MaxTags {
		tags = tags[:MaxTags]
	}
	return tags
}

func dedupe(in []string) []string {
	if len(in) == 0 {
		return nil
	}
	seen := make(map[string]bool, len(in))
	out := in[:0]
	for _, s := range in {
		if s == "" || seen[s] {
			continue
		}
		seen[s] = true
		out = append(out, s)
	}
	return out
}
