package profile

import (
	"strings"
)

// DefaultSummaryLength is the preview length used when none is configured.
const DefaultSummaryLength = 400

// Summarize returns a whitespace-collapsed preview of at most maxChars
// characters. Truncated previews end at a word boundary followed by "...".
func Summarize(text string, maxChars int) string {
	s := strings.Join(strings.Fields(text), " ")
	if s == "" {
		return ""
	}
	if maxChars <= 0 {
		maxChars = DefaultSummaryLength
	}
	runes := []rune(s)
	if len(runes) <= maxChars {
		return s
	}
	cut := string(runes[:maxChars])
	if i := strings.LastIndex(cut, " "); i > 0 {
		cut = cut[:i]
	}
	return cut + "..."
}
