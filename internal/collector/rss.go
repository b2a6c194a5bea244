package collector

import (
	"strings"

	"github.com/mmcdole/gofeed"

	"github.com/dynamicdevices/audionews/internal/logger"
	"github.com/dynamicdevices/audionews/internal/news"
)

// collectRSS parses an RSS/Atom body and runs item titles through the same
// filters as scraped headlines. Feed links are already absolute.
func (c *Collector) collectRSS(sourceName, body string) []news.Story {
	parser := gofeed.NewParser()
	feed, err := parser.ParseString(body)
	if err != nil {
		logger.Warn("failed to parse feed", "source", sourceName, "error", err)
		return nil
	}

	seen := make(map[string]struct{})
	var stories []news.Story

	for _, item := range feed.Items {
		if len(stories) >= c.maxPerSource {
			break
		}
		title := strings.TrimSpace(item.Title)
		if !c.acceptTitle(title, seen) {
			continue
		}
		ts := c.now()
		if item.PublishedParsed != nil {
			ts = *item.PublishedParsed
		}
		stories = append(stories, news.Story{
			Title:     title,
			Source:    sourceName,
			Link:      item.Link,
			Timestamp: ts,
		})
		seen[title] = struct{}{}
	}

	logger.Info("collected stories", "source", sourceName, "count", len(stories))
	return stories
}
