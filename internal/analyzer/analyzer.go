// Package analyzer sends collected stories to the model capability and turns
// its reply into ranked, deduplicated theme buckets.
package analyzer

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/dynamicdevices/audionews/internal/ai"
	"github.com/dynamicdevices/audionews/internal/config"
	"github.com/dynamicdevices/audionews/internal/logger"
	"github.com/dynamicdevices/audionews/internal/metrics"
	"github.com/dynamicdevices/audionews/internal/news"
)

var (
	// ErrAnalysisUnavailable means no analysis capability is configured or
	// there is nothing to analyze. The keyword fallback is never invoked
	// implicitly; the caller chooses ClassifyByKeyword as an explicit
	// alternate path.
	ErrAnalysisUnavailable = errors.New("analysis capability unavailable")

	// ErrMalformedReply means no structured payload could be recovered from
	// the model reply after every recovery attempt.
	ErrMalformedReply = errors.New("malformed analysis reply")
)

// ThemeBucket is one theme with its stories ordered by descending
// significance. Buckets are a slice, not a map: theme order is part of the
// analysis result and drives synthesis order.
type ThemeBucket struct {
	Theme   string
	Stories []news.Story
}

type Analyzer struct {
	capability        ai.Capability
	loc               *config.Locale
	threshold         float64
	fallbackThreshold float64
	fallbackMin       int
}

func New(capability ai.Capability, loc *config.Locale, tun config.Tunables) *Analyzer {
	return &Analyzer{
		capability:        capability,
		loc:               loc,
		threshold:         tun.DedupeThreshold,
		fallbackThreshold: tun.FallbackDedupeThreshold,
		fallbackMin:       tun.FallbackMinStories,
	}
}

// Analyze categorizes and ranks stories with a single model call.
func (a *Analyzer) Analyze(ctx context.Context, stories []news.Story) ([]ThemeBucket, error) {
	if a.capability == nil {
		return nil, fmt.Errorf("%w: no provider configured", ErrAnalysisUnavailable)
	}
	if len(stories) == 0 {
		return nil, fmt.Errorf("%w: no stories to analyze", ErrAnalysisUnavailable)
	}

	lines := make([]string, len(stories))
	for i, s := range stories {
		lines[i] = fmt.Sprintf("%d. %s (Source: %s)", i+1, s.Title, s.Source)
	}

	prompt := config.ExpandTemplate(a.loc.AnalysisPrompt, map[string]string{
		"region":    a.loc.Region,
		"headlines": strings.Join(lines, "\n"),
	})

	reply, err := a.capability.Complete(ctx, ai.Request{
		System:      a.loc.SystemMessage,
		Prompt:      prompt,
		MaxTokens:   2000,
		Temperature: 0.3,
	})
	if err != nil {
		return nil, fmt.Errorf("analysis request failed: %w", err)
	}

	themes, err := parseAnalysisReply(reply)
	if err != nil {
		return nil, err
	}

	buckets := a.assemble(themes, stories)
	for _, b := range buckets {
		logger.Info("theme analyzed", "theme", b.Theme, "stories", len(b.Stories))
	}
	return buckets, nil
}

// assemble resolves reply entries to stories, drops out-of-range indices
// silently, deduplicates by keyword overlap and sorts by significance.
func (a *Analyzer) assemble(themes []themeEntries, stories []news.Story) []ThemeBucket {
	var out []ThemeBucket

	for _, th := range themes {
		var accepted []news.Story
		var acceptedKeywords []map[string]struct{}

		for _, entry := range th.Entries {
			idx := entry.Index - 1
			if idx < 0 || idx >= len(stories) {
				continue
			}
			story := stories[idx]
			keywords := news.Keywords(story.Title)

			if duplicateOf(keywords, acceptedKeywords, a.threshold) {
				logger.Debug("skipping duplicate story", "theme", th.Theme, "title", story.Title)
				metrics.Global.IncrementDuplicatesFiltered()
				continue
			}

			story.Theme = th.Theme
			story.Significance = entry.Significance
			accepted = append(accepted, story)
			acceptedKeywords = append(acceptedKeywords, keywords)
		}

		if len(accepted) == 0 {
			continue
		}
		sort.SliceStable(accepted, func(i, j int) bool {
			return accepted[i].Significance > accepted[j].Significance
		})
		out = append(out, ThemeBucket{Theme: th.Theme, Stories: accepted})
	}

	return out
}

// duplicateOf reports whether the keyword set overlaps any accepted set above
// the threshold.
func duplicateOf(keywords map[string]struct{}, accepted []map[string]struct{}, threshold float64) bool {
	if len(keywords) == 0 {
		return false
	}
	for _, prev := range accepted {
		if len(prev) == 0 {
			continue
		}
		if news.Overlap(keywords, prev) > threshold {
			return true
		}
	}
	return false
}
