package classifier

import (
	"regexp"
	"strings"
)

// Models are asked for bare JSON but routinely wrap it in markdown code
// fences anyway. These helpers strip the fences and locate the payload.
var (
	codeFencePattern  = regexp.MustCompile("```(?:json)?")
	jsonArrayPattern  = regexp.MustCompile(`(?s)\[.*\]`)
	jsonObjectPattern = regexp.MustCompile(`(?s)\{.*\}`)
)

// ExtractJSONArray returns the first JSON array found in a model response,
// with any code-fence markers removed. Empty string when none is present.
func ExtractJSONArray(content string) string {
	cleaned := strings.TrimSpace(codeFencePattern.ReplaceAllString(content, ""))
	return jsonArrayPattern.FindString(cleaned)
}

// ExtractJSONObject returns the first JSON object found in a model response,
// with any code-fence markers removed. Empty string when none is present.
func ExtractJSONObject(content string) string {
	cleaned := strings.TrimSpace(codeFencePattern.ReplaceAllString(content, ""))
	return jsonObjectPattern.FindString(cleaned)
}
