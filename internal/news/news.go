package news

import (
	"time"
	"unicode"
	"unicode/utf8"
)

// Story is a single collected headline. Theme and Significance are zero until
// the analyzer assigns them; they are set once and never changed afterwards.
type Story struct {
	Title        string
	Source       string
	Link         string
	Timestamp    time.Time
	Theme        string
	Significance float64
}

// Keywords extracts the lexical fingerprint of a title: lowercase tokens longer
// than three runes consisting entirely of letters. Used for duplicate detection.
func Keywords(title string) map[string]struct{} {
	out := make(map[string]struct{})
	for _, word := range fieldsLower(title) {
		if utf8.RuneCountInString(word) <= 3 {
			continue
		}
		if !allLetters(word) {
			continue
		}
		out[word] = struct{}{}
	}
	return out
}

// Overlap returns the Jaccard ratio of two keyword sets.
func Overlap(a, b map[string]struct{}) float64 {
	if len(a) == 0 && len(b) == 0 {
		return 0
	}
	inter := 0
	for w := range a {
		if _, ok := b[w]; ok {
			inter++
		}
	}
	union := len(a) + len(b) - inter
	if union == 0 {
		return 0
	}
	return float64(inter) / float64(union)
}

func fieldsLower(s string) []string {
	var out []string
	var cur []rune
	flush := func() {
		if len(cur) > 0 {
			out = append(out, string(cur))
			cur = cur[:0]
		}
	}
	for _, r := range s {
		if unicode.IsSpace(r) {
			flush()
			continue
		}
		cur = append(cur, unicode.ToLower(r))
	}
	flush()
	return out
}

func allLetters(s string) bool {
	for _, r := range s {
		if !unicode.IsLetter(r) {
			return false
		}
	}
	return true
}
