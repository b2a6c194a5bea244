// Package digest runs the full pipeline for one locale: collect, analyze,
// synthesize, render, persist.
package digest

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/dynamicdevices/audionews/internal/analyzer"
	"github.com/dynamicdevices/audionews/internal/collector"
	"github.com/dynamicdevices/audionews/internal/config"
	"github.com/dynamicdevices/audionews/internal/logger"
	"github.com/dynamicdevices/audionews/internal/metrics"
	"github.com/dynamicdevices/audionews/internal/synthesis"
	"github.com/dynamicdevices/audionews/internal/tts"
)

// RunResult describes one locale run, whether freshly generated or satisfied
// from existing artifacts.
type RunResult struct {
	Locale          string
	Regenerated     bool
	TextPath        string
	AudioPath       string
	Stats           tts.Stats
	StoriesAnalyzed int
}

type Orchestrator struct {
	loc                *config.Locale
	tun                config.Tunables
	collector          *collector.Collector
	analyzer           *analyzer.Analyzer
	synthesizer        *synthesis.Synthesizer
	renderer           *tts.Renderer
	store              *Store
	useKeywordFallback bool
	aiEnabled          bool
	now                func() time.Time
}

type Options struct {
	Locale             *config.Locale
	Tunables           config.Tunables
	Collector          *collector.Collector
	Analyzer           *analyzer.Analyzer
	Synthesizer        *synthesis.Synthesizer
	Renderer           *tts.Renderer
	Store              *Store
	UseKeywordFallback bool
	AIEnabled          bool
}

func NewOrchestrator(opts Options) *Orchestrator {
	return &Orchestrator{
		loc:                opts.Locale,
		tun:                opts.Tunables,
		collector:          opts.Collector,
		analyzer:           opts.Analyzer,
		synthesizer:        opts.Synthesizer,
		renderer:           opts.Renderer,
		store:              opts.Store,
		useKeywordFallback: opts.UseKeywordFallback,
		aiEnabled:          opts.AIEnabled,
		now:                time.Now,
	}
}

// Run generates the digest for one locale and date. If both artifacts for
// the date already exist and the audio looks complete, the run short-circuits
// without a single external call: model and speech invocations are billed.
//
// A failed run leaves the filesystem untouched. Audio is rendered before the
// text is written, and a text-write failure removes the fresh audio so the
// next run is not short-circuited by a half-finished pair.
func (o *Orchestrator) Run(ctx context.Context, date time.Time) (*RunResult, error) {
	started := o.now()
	textPath := o.store.TextPath(o.loc.ID, date)
	audioPath := o.store.AudioPath(o.loc.ID, date)

	if ok, audioSize := o.store.HaveArtifacts(textPath, audioPath, o.tun.MinAudioBytes); ok {
		logger.Info("artifacts already exist, skipping regeneration",
			"locale", o.loc.ID, "text", textPath, "audio", audioPath, "audio_bytes", audioSize)
		return &RunResult{
			Locale:    o.loc.ID,
			TextPath:  textPath,
			AudioPath: audioPath,
			Stats:     tts.Stats{SizeBytes: audioSize},
		}, nil
	}

	stories := o.collector.CollectAll(ctx, o.loc.Sources)
	logger.Info("collection complete", "locale", o.loc.ID, "stories", len(stories))
	if len(stories) == 0 {
		return nil, fmt.Errorf("no stories collected for locale %s", o.loc.ID)
	}

	var buckets []analyzer.ThemeBucket
	if o.useKeywordFallback {
		buckets = o.analyzer.ClassifyByKeyword(stories)
		if len(buckets) == 0 {
			return nil, fmt.Errorf("keyword classification produced no themes for locale %s", o.loc.ID)
		}
	} else {
		var err error
		buckets, err = o.analyzer.Analyze(ctx, stories)
		if err != nil {
			return nil, err
		}
	}

	text, err := o.synthesizer.Synthesize(ctx, buckets, date)
	if err != nil {
		return nil, err
	}

	stats, err := o.renderer.Render(ctx, text, o.loc.Voice, audioPath)
	if err != nil {
		return nil, err
	}

	if err := o.store.WriteDigestText(textPath, text, o.now(), o.aiEnabled && !o.useKeywordFallback); err != nil {
		os.Remove(audioPath)
		return nil, err
	}

	metrics.Global.IncrementDigestsGenerated()
	metrics.Global.RecordRunDuration(o.now().Sub(started))
	metrics.Global.SetLastRun()

	analyzed := 0
	for _, b := range buckets {
		analyzed += len(b.Stories)
	}

	logger.Info("digest complete",
		"locale", o.loc.ID,
		"stories", analyzed,
		"duration", stats.Duration,
		"wps", fmt.Sprintf("%.2f", stats.WordsPerSecond),
		"audio_bytes", stats.SizeBytes)

	return &RunResult{
		Locale:          o.loc.ID,
		Regenerated:     true,
		TextPath:        textPath,
		AudioPath:       audioPath,
		Stats:           stats,
		StoriesAnalyzed: analyzed,
	}, nil
}
