// Package synthesis folds theme buckets into a single spoken-word digest.
// Each theme's prompt carries the fragments already emitted this run so the
// model does not repeat coverage across themes.
package synthesis

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/dynamicdevices/audionews/internal/ai"
	"github.com/dynamicdevices/audionews/internal/analyzer"
	"github.com/dynamicdevices/audionews/internal/config"
	"github.com/dynamicdevices/audionews/internal/logger"
	"github.com/dynamicdevices/audionews/internal/news"
)

// ErrSynthesisUnavailable means no synthesis capability is configured or
// there are no theme buckets. There is no templated-text substitute.
var ErrSynthesisUnavailable = errors.New("synthesis capability unavailable")

const (
	storiesPerPrompt = 5
	synthesisTokens  = 1000
	synthesisTemp    = 0.7
)

type Synthesizer struct {
	capability ai.Capability
	loc        *config.Locale
	retention  string
	window     int
}

func New(capability ai.Capability, loc *config.Locale, tun config.Tunables) *Synthesizer {
	return &Synthesizer{
		capability: capability,
		loc:        loc,
		retention:  tun.MemoryRetention,
		window:     tun.MemoryWindow,
	}
}

// Synthesize produces the full digest text for the given date. Themes are
// processed strictly in bucket order as a sequential fold: every fragment's
// prompt depends on all fragments before it.
func (s *Synthesizer) Synthesize(ctx context.Context, buckets []analyzer.ThemeBucket, date time.Time) (string, error) {
	if s.capability == nil {
		return "", fmt.Errorf("%w: no provider configured", ErrSynthesisUnavailable)
	}
	if len(buckets) == 0 {
		return "", fmt.Errorf("%w: no themes to synthesize", ErrSynthesisUnavailable)
	}

	digest := s.opening(date)

	var memory []string
	for _, bucket := range buckets {
		fragment, err := s.synthesizeTheme(ctx, bucket, memory)
		if err != nil {
			return "", fmt.Errorf("synthesis failed for theme %q: %w", bucket.Theme, err)
		}
		if fragment == "" {
			logger.Warn("theme produced no content", "theme", bucket.Theme)
			continue
		}
		digest = strings.TrimRight(digest, " ") + " " + fragment
		memory = append(memory, fmt.Sprintf("[%s]: %s", bucket.Theme, fragment))
	}

	digest = strings.TrimRight(digest, " ") + " " + strings.Join(s.loc.Closing, " ")
	return NormalizeForSpeech(digest), nil
}

// opening renders the locale's introduction sentence. Ampersands in the
// region name become "and" because the speech engine pauses on them.
func (s *Synthesizer) opening(date time.Time) string {
	return config.ExpandTemplate(s.loc.Opening, map[string]string{
		"greeting":  s.loc.Greeting,
		"region":    strings.ReplaceAll(s.loc.Region, "&", "and"),
		"date":      date.Format(s.loc.DateFormat),
		"publisher": s.loc.Publisher,
		"service":   s.loc.ServiceName,
	})
}

func (s *Synthesizer) synthesizeTheme(ctx context.Context, bucket analyzer.ThemeBucket, memory []string) (string, error) {
	prompt := config.ExpandTemplate(s.loc.SynthesisPrompt, map[string]string{
		"theme":            bucket.Theme,
		"headlines":        headlineBlock(bucket.Stories),
		"previous_context": s.previousBlock(memory),
	})

	reply, err := s.capability.Complete(ctx, ai.Request{
		System:      s.loc.SystemMessage,
		Prompt:      prompt,
		MaxTokens:   synthesisTokens,
		Temperature: synthesisTemp,
	})
	if err != nil {
		return "", err
	}
	return collapseFragment(reply), nil
}

// headlineBlock lists up to the top five stories of a bucket.
func headlineBlock(stories []news.Story) string {
	n := len(stories)
	if n > storiesPerPrompt {
		n = storiesPerPrompt
	}
	lines := make([]string, n)
	for i := 0; i < n; i++ {
		st := stories[i]
		if st.Significance > 0 {
			lines[i] = fmt.Sprintf("- %s (Source: %s, Significance: %g/10)", st.Title, st.Source, st.Significance)
		} else {
			lines[i] = fmt.Sprintf("- %s (Source: %s)", st.Title, st.Source)
		}
	}
	return strings.Join(lines, "\n")
}

// previousBlock renders the anti-repetition context. Retention "full" keeps
// every fragment emitted this run; "window" keeps only the most recent N.
// Full retention grows with theme count, which is acceptable at the theme
// counts we run but is the reason the window mode exists.
func (s *Synthesizer) previousBlock(memory []string) string {
	if len(memory) == 0 {
		return ""
	}
	entries := memory
	if s.retention == "window" && s.window > 0 && len(entries) > s.window {
		entries = entries[len(entries)-s.window:]
	}
	return "PREVIOUSLY COVERED CONTENT (DO NOT REPEAT):\n" + strings.Join(entries, "\n") + "\n\n"
}

// collapseFragment strips a fragment and removes internal line breaks. The
// speech engine reads a newline as a pause, which must not land mid-sentence.
func collapseFragment(fragment string) string {
	fragment = strings.TrimSpace(fragment)
	fragment = strings.ReplaceAll(fragment, "\r\n", " ")
	fragment = strings.ReplaceAll(fragment, "\r", " ")
	fragment = strings.ReplaceAll(fragment, "\n", " ")
	for strings.Contains(fragment, "  ") {
		fragment = strings.ReplaceAll(fragment, "  ", " ")
	}
	return fragment
}
