// Package collector turns raw scraped markup into deduplicated story records.
// One failing source must never abort a run: every error on this path is
// logged, counted, and converted into zero stories.
package collector

import (
	"context"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/PuerkitoBio/goquery"

	"github.com/dynamicdevices/audionews/internal/config"
	"github.com/dynamicdevices/audionews/internal/logger"
	"github.com/dynamicdevices/audionews/internal/metrics"
	"github.com/dynamicdevices/audionews/internal/news"
)

// Known non-headline boilerplate; matched case-insensitively as a prefix.
var boilerplatePrefixes = []string{
	"cookie",
	"accept",
	"subscribe",
	"sign up",
	"follow us",
}

// Elements inspected per extraction rule before giving up on it.
const elementsPerRule = 15

type Collector struct {
	fetcher      Fetcher
	rules        []string
	maxPerSource int
	pacing       time.Duration
	now          func() time.Time
}

func New(fetcher Fetcher, loc *config.Locale, tun config.Tunables) *Collector {
	return &Collector{
		fetcher:      fetcher,
		rules:        loc.ExtractionRules,
		maxPerSource: tun.MaxPerSource,
		pacing:       tun.SourcePacing.Std(),
		now:          time.Now,
	}
}

// Collect extracts headline stories from one source's markup. The ordered
// extraction rules are tried in turn and the first rule yielding at least one
// story wins; rules are never merged. Never returns an error.
func (c *Collector) Collect(sourceName, rawMarkup, originURL string) []news.Story {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(rawMarkup))
	if err != nil {
		logger.Warn("failed to parse markup", "source", sourceName, "error", err)
		return nil
	}

	seen := make(map[string]struct{})
	var stories []news.Story

	for _, rule := range c.rules {
		doc.Find(rule).EachWithBreak(func(i int, s *goquery.Selection) bool {
			if i >= elementsPerRule || len(stories) >= c.maxPerSource {
				return false
			}
			title := strings.TrimSpace(s.Text())
			if !c.acceptTitle(title, seen) {
				return true
			}
			stories = append(stories, news.Story{
				Title:     title,
				Source:    sourceName,
				Link:      extractLink(s, originURL),
				Timestamp: c.now(),
			})
			seen[title] = struct{}{}
			return true
		})
		if len(stories) > 0 {
			break
		}
	}

	logger.Info("collected stories", "source", sourceName, "count", len(stories))
	return stories
}

// acceptTitle applies the length bounds, boilerplate exclusion and
// within-source exact dedupe.
func (c *Collector) acceptTitle(title string, seen map[string]struct{}) bool {
	if title == "" {
		return false
	}
	n := utf8.RuneCountInString(title)
	if n <= 15 || n >= 200 {
		return false
	}
	lower := strings.ToLower(title)
	for _, prefix := range boilerplatePrefixes {
		if strings.HasPrefix(lower, prefix) {
			return false
		}
	}
	if _, dup := seen[title]; dup {
		return false
	}
	return true
}

// extractLink resolves the story link from the element's own anchor, a child
// anchor, or the closest ancestor anchor.
func extractLink(s *goquery.Selection, originURL string) string {
	anchor := s.Find("a").First()
	if anchor.Length() == 0 {
		anchor = s.Closest("a")
	}
	href, ok := anchor.Attr("href")
	if !ok || href == "" {
		return ""
	}
	switch {
	case strings.HasPrefix(href, "/"):
		return strings.TrimSuffix(originURL, "/") + href
	case strings.HasPrefix(href, "http"):
		return href
	}
	return ""
}

// CollectAll fetches every source sequentially with a pacing delay between
// fetches. Per-source failures contribute zero stories and never propagate.
func (c *Collector) CollectAll(ctx context.Context, sources []config.Source) []news.Story {
	var all []news.Story

	for i, src := range sources {
		if i > 0 && c.pacing > 0 {
			select {
			case <-ctx.Done():
				return all
			case <-time.After(c.pacing):
			}
		}

		logger.Info("scanning source", "source", src.Name, "url", src.URL)
		body, err := c.fetcher.Fetch(ctx, src.URL)
		if err != nil {
			logger.Warn("source fetch failed", "source", src.Name, "error", err)
			metrics.Global.IncrementSourceFailures()
			continue
		}

		var stories []news.Story
		if src.Type == "rss" {
			stories = c.collectRSS(src.Name, body)
		} else {
			stories = c.Collect(src.Name, body, src.URL)
		}
		metrics.Global.AddStoriesCollected(len(stories))
		all = append(all, stories...)
	}

	return all
}
