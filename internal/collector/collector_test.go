package collector

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/dynamicdevices/audionews/internal/config"
)

func testCollector(rules []string, maxPerSource int) *Collector {
	loc := &config.Locale{ExtractionRules: rules}
	tun := config.Tunables{MaxPerSource: maxPerSource}
	return New(nil, loc, tun)
}

func TestCollect_FirstMatchingRuleWins(t *testing.T) {
	markup := `
		<div class="headline">Government announces new housing policy today</div>
		<div class="headline">Bank of England raises interest rates again</div>
		<h3>Completely different headline from a weaker rule</h3>`

	c := testCollector([]string{".headline", "h3"}, 12)
	stories := c.Collect("Test Source", markup, "https://example.com")

	require.Len(t, stories, 2)
	require.Equal(t, "Government announces new housing policy today", stories[0].Title)
	require.Equal(t, "Bank of England raises interest rates again", stories[1].Title)
	for _, s := range stories {
		require.Equal(t, "Test Source", s.Source)
	}
}

func TestCollect_FallsThroughToLaterRule(t *testing.T) {
	markup := `<h3>Completely different headline from a weaker rule</h3>`

	c := testCollector([]string{".headline", "h3"}, 12)
	stories := c.Collect("Test Source", markup, "https://example.com")

	require.Len(t, stories, 1)
	require.Equal(t, "Completely different headline from a weaker rule", stories[0].Title)
}

func TestCollect_TitleFilters(t *testing.T) {
	long := ""
	for i := 0; i < 40; i++ {
		long += "verylong "
	}
	markup := fmt.Sprintf(`
		<div class="headline">Too short</div>
		<div class="headline">%s</div>
		<div class="headline">Cookie settings and consent preferences here</div>
		<div class="headline">Subscribe to our excellent daily newsletter</div>
		<div class="headline">Sign up for breaking news alerts now</div>
		<div class="headline">A perfectly reasonable news headline</div>
		<div class="headline">A perfectly reasonable news headline</div>`, long)

	c := testCollector([]string{".headline"}, 12)
	stories := c.Collect("Test Source", markup, "https://example.com")

	require.Len(t, stories, 1)
	require.Equal(t, "A perfectly reasonable news headline", stories[0].Title)
}

func TestCollect_CapsAtMaxPerSource(t *testing.T) {
	markup := ""
	for i := 0; i < 5; i++ {
		markup += fmt.Sprintf(`<div class="headline">Unique headline number %d about events</div>`, i)
	}

	c := testCollector([]string{".headline"}, 3)
	stories := c.Collect("Test Source", markup, "https://example.com")
	require.Len(t, stories, 3)
}

func TestCollect_LinkResolution(t *testing.T) {
	markup := `
		<div class="headline"><a href="/uk/story-one">Relative link headline about events</a></div>
		<div class="headline"><a href="https://other.example.com/two">Absolute link headline about events</a></div>
		<a href="mailto:news@example.com"><div class="headline">Unusable link headline about events</div></a>`

	c := testCollector([]string{".headline"}, 12)
	stories := c.Collect("Test Source", markup, "https://example.com/")

	require.Len(t, stories, 3)
	require.Equal(t, "https://example.com/uk/story-one", stories[0].Link)
	require.Equal(t, "https://other.example.com/two", stories[1].Link)
	require.Equal(t, "", stories[2].Link)
}

type fakeFetcher struct {
	pages map[string]string
	calls int
}

func (f *fakeFetcher) Fetch(ctx context.Context, url string) (string, error) {
	f.calls++
	page, ok := f.pages[url]
	if !ok {
		return "", fmt.Errorf("connection refused")
	}
	return page, nil
}

func TestCollectAll_FailingSourceContributesNothing(t *testing.T) {
	fetcher := &fakeFetcher{pages: map[string]string{
		"https://good.example.com": `<div class="headline">A perfectly reasonable news headline</div>`,
	}}
	loc := &config.Locale{ExtractionRules: []string{".headline"}}
	tun := config.Tunables{MaxPerSource: 12}
	c := New(fetcher, loc, tun)

	sources := []config.Source{
		{Name: "Broken", URL: "https://broken.example.com"},
		{Name: "Good", URL: "https://good.example.com"},
	}
	stories := c.CollectAll(context.Background(), sources)

	require.Equal(t, 2, fetcher.calls)
	require.Len(t, stories, 1)
	require.Equal(t, "Good", stories[0].Source)
}

func TestCollectAll_RoutesRSSSources(t *testing.T) {
	feed := `<?xml version="1.0" encoding="UTF-8"?>
<rss version="2.0"><channel><title>Feed</title>
<item><title>Parliament votes on controversial new measures</title><link>https://example.com/vote</link></item>
<item><title>Short one</title><link>https://example.com/short</link></item>
</channel></rss>`

	fetcher := &fakeFetcher{pages: map[string]string{
		"https://feed.example.com/rss": feed,
	}}
	loc := &config.Locale{ExtractionRules: []string{".headline"}}
	tun := config.Tunables{MaxPerSource: 12}
	c := New(fetcher, loc, tun)

	stories := c.CollectAll(context.Background(), []config.Source{
		{Name: "Feed", URL: "https://feed.example.com/rss", Type: "rss"},
	})

	require.Len(t, stories, 1)
	require.Equal(t, "Parliament votes on controversial new measures", stories[0].Title)
	require.Equal(t, "https://example.com/vote", stories[0].Link)
}
