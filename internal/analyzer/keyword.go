package analyzer

import (
	"regexp"
	"strings"

	"github.com/dynamicdevices/audionews/internal/logger"
	"github.com/dynamicdevices/audionews/internal/metrics"
	"github.com/dynamicdevices/audionews/internal/news"
)

// themeKeywords is the fixed classification table for the deterministic
// fallback path. Order matters: a story can land in several themes and the
// digest walks themes in this order.
var themeKeywords = []struct {
	theme    string
	keywords []string
}{
	{"politics", []string{"government", "minister", "parliament", "election", "policy", "mp", "labour", "conservative"}},
	{"economy", []string{"economy", "inflation", "bank", "interest", "market", "business", "financial", "gdp"}},
	{"health", []string{"health", "nhs", "medical", "hospital", "covid", "vaccine", "doctor"}},
	{"international", []string{"ukraine", "russia", "china", "usa", "europe", "war", "conflict"}},
	{"climate", []string{"climate", "environment", "green", "carbon", "renewable", "energy"}},
	{"technology", []string{"technology", "tech", "ai", "digital", "cyber", "internet"}},
	{"crime", []string{"police", "court", "crime", "arrest", "investigation", "trial"}},
}

// ClassifyByKeyword is the explicit no-model alternate path. It buckets
// stories by title keyword match, deduplicates with the stricter fallback
// threshold, and drops themes below the minimum story count.
func (a *Analyzer) ClassifyByKeyword(stories []news.Story) []ThemeBucket {
	var out []ThemeBucket

	for _, tk := range themeKeywords {
		var accepted []news.Story
		var acceptedKeywords []map[string]struct{}

		for _, story := range stories {
			if !matchesAny(strings.ToLower(story.Title), tk.keywords) {
				continue
			}
			keywords := news.Keywords(story.Title)
			if duplicateOf(keywords, acceptedKeywords, a.fallbackThreshold) {
				metrics.Global.IncrementDuplicatesFiltered()
				continue
			}
			story.Theme = tk.theme
			accepted = append(accepted, story)
			acceptedKeywords = append(acceptedKeywords, keywords)
		}

		if len(accepted) < a.fallbackMin {
			continue
		}
		out = append(out, ThemeBucket{Theme: tk.theme, Stories: accepted})
	}

	logger.Info("keyword classification complete", "themes", len(out))
	return out
}

// matchesAny reports whether the lowercased title contains any keyword.
// Keywords of three letters or fewer match on word boundaries only, so "ai"
// does not match inside "rain".
func matchesAny(lowerTitle string, keywords []string) bool {
	for _, kw := range keywords {
		if len(kw) <= 3 {
			if shortKeyword(kw).MatchString(lowerTitle) {
				return true
			}
			continue
		}
		if strings.Contains(lowerTitle, kw) {
			return true
		}
	}
	return false
}

// Compiled once at startup; the table is fixed.
var shortKeywordPatterns = func() map[string]*regexp.Regexp {
	patterns := make(map[string]*regexp.Regexp)
	for _, tk := range themeKeywords {
		for _, kw := range tk.keywords {
			if len(kw) <= 3 {
				patterns[kw] = regexp.MustCompile(`\b` + regexp.QuoteMeta(kw) + `\b`)
			}
		}
	}
	return patterns
}()

func shortKeyword(kw string) *regexp.Regexp {
	return shortKeywordPatterns[kw]
}
