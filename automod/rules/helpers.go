package rules

import (
	"strings"
	"unicode"
)

func NormalizeHashtag(raw string) string {
	return strings.ToLower(raw)
}

// ExtractHashtags pulls hashtag tokens out of post text, in order of
// appearance. A token counts as a hashtag when it starts with '#' followed by
// at least one letter or digit. Repeated tags count every time they appear:
// the hashtag criterion thresholds token volume, not vocabulary.
func ExtractHashtags(text string) []string {
	var tags []string
	for _, tok := range strings.Fields(text) {
		if !strings.HasPrefix(tok, "#") {
			continue
		}
		tag := strings.TrimLeft(tok, "#")
		tag = strings.TrimRightFunc(tag, func(r rune) bool {
			return !unicode.IsLetter(r) && !unicode.IsDigit(r)
		})
		if tag == "" {
			continue
		}
		tags = append(tags, NormalizeHashtag(tag))
	}
	return tags
}
