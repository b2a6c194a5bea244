package analyzer

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/dynamicdevices/audionews/internal/ai"
	"github.com/dynamicdevices/audionews/internal/config"
	"github.com/dynamicdevices/audionews/internal/news"
)

type fakeCapability struct {
	reply string
	err   error
	calls int
	last  ai.Request
}

func (f *fakeCapability) Complete(ctx context.Context, req ai.Request) (string, error) {
	f.calls++
	f.last = req
	return f.reply, f.err
}

func (f *fakeCapability) Name() string { return "fake" }

func testLocale() *config.Locale {
	return &config.Locale{
		Region:         "UK",
		SystemMessage:  "You are a news editor.",
		AnalysisPrompt: "Group these {region} headlines:\n{headlines}",
	}
}

func testTunables() config.Tunables {
	return config.Tunables{
		DedupeThreshold:         0.4,
		FallbackDedupeThreshold: 0.5,
		FallbackMinStories:      2,
	}
}

func stories(titles ...string) []news.Story {
	out := make([]news.Story, len(titles))
	for i, title := range titles {
		out[i] = news.Story{Title: title, Source: "Test"}
	}
	return out
}

func TestAnalyze_ExampleScenario(t *testing.T) {
	cap := &fakeCapability{reply: `{"economy": [{"index":1,"significance":8},{"index":2,"significance":6}], "climate": [{"index":3,"significance":7}]}`}
	a := New(cap, testLocale(), testTunables())

	buckets, err := a.Analyze(context.Background(),
		stories("Inflation rises to 4%", "Bank raises interest rates", "New climate bill passes"))
	require.NoError(t, err)

	require.Len(t, buckets, 2)
	require.Equal(t, "economy", buckets[0].Theme)
	require.Equal(t, "climate", buckets[1].Theme)

	require.Len(t, buckets[0].Stories, 2)
	require.Equal(t, "Inflation rises to 4%", buckets[0].Stories[0].Title)
	require.Equal(t, 8.0, buckets[0].Stories[0].Significance)
	require.Equal(t, "Bank raises interest rates", buckets[0].Stories[1].Title)

	require.Len(t, buckets[1].Stories, 1)
	require.Equal(t, "New climate bill passes", buckets[1].Stories[0].Title)
	require.Equal(t, "climate", buckets[1].Stories[0].Theme)

	require.Contains(t, cap.last.Prompt, "1. Inflation rises to 4% (Source: Test)")
	require.Contains(t, cap.last.Prompt, "Group these UK headlines")
	require.Equal(t, "You are a news editor.", cap.last.System)
}

func TestAnalyze_StripsCodeFences(t *testing.T) {
	cap := &fakeCapability{reply: "```json\n{\"economy\": [{\"index\":1,\"significance\":5}]}\n```"}
	a := New(cap, testLocale(), testTunables())

	buckets, err := a.Analyze(context.Background(), stories("Inflation rises to 4%"))
	require.NoError(t, err)
	require.Len(t, buckets, 1)
	require.Equal(t, "economy", buckets[0].Theme)
}

func TestAnalyze_FlattensNestedLists(t *testing.T) {
	cap := &fakeCapability{reply: `{"economy": [[{"index":1,"significance":5}],[{"index":2,"significance":3}]]}`}
	a := New(cap, testLocale(), testTunables())

	buckets, err := a.Analyze(context.Background(),
		stories("Inflation rises to 4%", "Bank raises interest rates"))
	require.NoError(t, err)
	require.Len(t, buckets, 1)
	require.Len(t, buckets[0].Stories, 2)
}

func TestAnalyze_RecoversJSONFromProse(t *testing.T) {
	cap := &fakeCapability{reply: `Here is my analysis: {"economy": [{"index":1,"significance":5}]} Hope that helps!`}
	a := New(cap, testLocale(), testTunables())

	buckets, err := a.Analyze(context.Background(), stories("Inflation rises to 4%"))
	require.NoError(t, err)
	require.Len(t, buckets, 1)
}

func TestAnalyze_DropsOutOfRangeIndices(t *testing.T) {
	cap := &fakeCapability{reply: `{"economy": [{"index":0,"significance":9},{"index":1,"significance":5},{"index":7,"significance":8}]}`}
	a := New(cap, testLocale(), testTunables())

	buckets, err := a.Analyze(context.Background(), stories("Inflation rises to 4%"))
	require.NoError(t, err)
	require.Len(t, buckets, 1)
	require.Len(t, buckets[0].Stories, 1)
	require.Equal(t, "Inflation rises to 4%", buckets[0].Stories[0].Title)
}

func TestAnalyze_DeduplicatesWithinTheme(t *testing.T) {
	cap := &fakeCapability{reply: `{"economy": [{"index":1,"significance":8},{"index":2,"significance":6}]}`}
	a := New(cap, testLocale(), testTunables())

	buckets, err := a.Analyze(context.Background(),
		stories("Bank raises interest rates again today", "Bank raises interest rates once more"))
	require.NoError(t, err)
	require.Len(t, buckets, 1)
	require.Len(t, buckets[0].Stories, 1)
	require.Equal(t, "Bank raises interest rates again today", buckets[0].Stories[0].Title)
}

func TestAnalyze_SortsBySignificanceDescending(t *testing.T) {
	cap := &fakeCapability{reply: `{"economy": [{"index":1,"significance":2},{"index":2,"significance":9}]}`}
	a := New(cap, testLocale(), testTunables())

	buckets, err := a.Analyze(context.Background(),
		stories("Inflation rises to 4%", "Bank raises interest rates"))
	require.NoError(t, err)
	require.Len(t, buckets[0].Stories, 2)
	require.Equal(t, 9.0, buckets[0].Stories[0].Significance)
	require.Equal(t, 2.0, buckets[0].Stories[1].Significance)
}

func TestAnalyze_EmptyThemesAreSkipped(t *testing.T) {
	cap := &fakeCapability{reply: `{"economy": [], "climate": [{"index":1,"significance":5}]}`}
	a := New(cap, testLocale(), testTunables())

	buckets, err := a.Analyze(context.Background(), stories("New climate bill passes"))
	require.NoError(t, err)
	require.Len(t, buckets, 1)
	require.Equal(t, "climate", buckets[0].Theme)
}

func TestAnalyze_UnavailableWithoutCapability(t *testing.T) {
	a := New(nil, testLocale(), testTunables())
	_, err := a.Analyze(context.Background(), stories("Inflation rises to 4%"))
	require.ErrorIs(t, err, ErrAnalysisUnavailable)
}

func TestAnalyze_UnavailableWithoutStories(t *testing.T) {
	a := New(&fakeCapability{}, testLocale(), testTunables())
	_, err := a.Analyze(context.Background(), nil)
	require.ErrorIs(t, err, ErrAnalysisUnavailable)
}

func TestAnalyze_MalformedReply(t *testing.T) {
	cap := &fakeCapability{reply: "I could not categorize these headlines, sorry."}
	a := New(cap, testLocale(), testTunables())
	_, err := a.Analyze(context.Background(), stories("Inflation rises to 4%"))
	require.ErrorIs(t, err, ErrMalformedReply)
}

func TestAnalyze_PropagatesCapabilityError(t *testing.T) {
	cap := &fakeCapability{err: errors.New("rate limited")}
	a := New(cap, testLocale(), testTunables())
	_, err := a.Analyze(context.Background(), stories("Inflation rises to 4%"))
	require.Error(t, err)
	require.NotErrorIs(t, err, ErrAnalysisUnavailable)
}

func TestClassifyByKeyword_BucketsAndMinimum(t *testing.T) {
	a := New(nil, testLocale(), testTunables())

	buckets := a.ClassifyByKeyword(stories(
		"Bank of England raises interest rates",
		"Stock market falls amid economic fears",
		"Police arrest suspect in city centre",
	))

	// Crime has only one story and is dropped by the minimum.
	require.Len(t, buckets, 1)
	require.Equal(t, "economy", buckets[0].Theme)
	require.Len(t, buckets[0].Stories, 2)
	require.Equal(t, "economy", buckets[0].Stories[0].Theme)
}

func TestClassifyByKeyword_DeduplicatesWithStricterThreshold(t *testing.T) {
	a := New(nil, testLocale(), testTunables())

	buckets := a.ClassifyByKeyword(stories(
		"Bank raises interest rates amid market pressure",
		"Bank raises interest rates amid market concern",
		"Inflation surges past official government target",
	))

	require.Len(t, buckets, 1)
	require.Equal(t, "economy", buckets[0].Theme)
	require.Len(t, buckets[0].Stories, 2)
	require.Equal(t, "Bank raises interest rates amid market pressure", buckets[0].Stories[0].Title)
}

func TestClassifyByKeyword_ShortKeywordsMatchWholeWordsOnly(t *testing.T) {
	a := New(nil, testLocale(), testTunables())

	buckets := a.ClassifyByKeyword(stories(
		"Heavy rain expected across Spain this weekend",
		"More rain forecast for the Spanish plain",
	))
	require.Empty(t, buckets)

	buckets = a.ClassifyByKeyword(stories(
		"AI systems transform modern newsroom workflows",
		"New AI rules proposed for digital platforms",
	))
	require.Len(t, buckets, 1)
	require.Equal(t, "technology", buckets[0].Theme)
}
