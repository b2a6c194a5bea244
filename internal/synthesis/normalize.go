package synthesis

import (
	"regexp"
	"strings"
)

var commaNoSpace = regexp.MustCompile(`,(\S)`)

// NormalizeForSpeech rewrites characters the speech engine renders as
// disruptive pauses. Dashes become commas, comma runs collapse, and every
// comma is followed by exactly one space. Normalizing already-normalized
// text yields the same text.
func NormalizeForSpeech(text string) string {
	text = strings.ReplaceAll(text, "—", ", ")
	text = strings.ReplaceAll(text, "–", ", ")
	for strings.Contains(text, "  ") {
		text = strings.ReplaceAll(text, "  ", " ")
	}
	for strings.Contains(text, ", ,") || strings.Contains(text, ",,") || strings.Contains(text, " ,") {
		text = strings.ReplaceAll(text, ", ,", ",")
		text = strings.ReplaceAll(text, ",,", ",")
		text = strings.ReplaceAll(text, " ,", ",")
	}
	text = commaNoSpace.ReplaceAllString(text, ", $1")
	return text
}
