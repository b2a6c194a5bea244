// Package tts renders digest text to an audio artifact through a
// speech-synthesis service, with bounded retries for transient failures.
//
// There is no lower-fidelity fallback engine. A render that cannot complete
// at full voice quality fails the run; shipping degraded audio is treated as
// worse than shipping nothing.
package tts

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/dynamicdevices/audionews/internal/logger"
	"github.com/dynamicdevices/audionews/internal/metrics"
)

// Speech is the synthesis capability. The returned stream holds the encoded
// audio bytes and must be closed by the caller.
type Speech interface {
	Synthesize(ctx context.Context, text, voice string) (io.ReadCloser, error)
}

// Policy is the retry schedule for transient failures.
type Policy struct {
	MaxAttempts   int
	InitialDelay  time.Duration
	BackoffFactor float64
	MaxDelay      time.Duration
}

// Stats describes a produced audio artifact. DurationEstimated is set when
// the artifact could not be decoded and the duration was derived from word
// count instead.
type Stats struct {
	Duration          time.Duration
	WordCount         int
	WordsPerSecond    float64
	SizeBytes         int64
	DurationEstimated bool
}

// FatalError terminates a render. It carries the number of attempts made so
// operators can tell exhaustion from a first-attempt hard failure.
type FatalError struct {
	Attempts int
	Err      error
}

func (e *FatalError) Error() string {
	return fmt.Sprintf("speech synthesis failed after %d attempt(s): %v", e.Attempts, e.Err)
}

func (e *FatalError) Unwrap() error { return e.Err }

// Estimated speaking rate used when the artifact cannot be decoded.
const estimateWordsPerSecond = 2.0

type Renderer struct {
	speech Speech
	policy Policy
	sleep  func(time.Duration)
}

func NewRenderer(speech Speech, policy Policy) *Renderer {
	return &Renderer{speech: speech, policy: policy, sleep: time.Sleep}
}

// Render streams synthesized audio for text to dest, creating parent
// directories as needed. Retryable failures back off exponentially up to the
// policy ceiling; a non-retryable failure or attempt exhaustion returns a
// FatalError. On success dest exists in full; on failure it does not exist.
func (r *Renderer) Render(ctx context.Context, text, voice, dest string) (Stats, error) {
	delay := r.policy.InitialDelay

	for attempt := 1; attempt <= r.policy.MaxAttempts; attempt++ {
		metrics.Global.IncrementRenderAttempts()
		if attempt > 1 {
			logger.Info("retrying audio render", "attempt", attempt, "max", r.policy.MaxAttempts)
		}

		err := r.renderOnce(ctx, text, voice, dest)
		if err == nil {
			return r.stats(text, dest), nil
		}

		if !Retryable(err) {
			logger.Error("non-retryable render failure", "error", err)
			return Stats{}, &FatalError{Attempts: attempt, Err: err}
		}
		if attempt == r.policy.MaxAttempts {
			logger.Error("render attempts exhausted", "attempts", attempt, "error", err)
			return Stats{}, &FatalError{Attempts: attempt, Err: err}
		}

		metrics.Global.IncrementRenderRetries()
		logger.Warn("transient render failure", "attempt", attempt, "delay", delay, "error", err)
		r.sleep(delay)
		delay = time.Duration(float64(delay) * r.policy.BackoffFactor)
		if delay > r.policy.MaxDelay {
			delay = r.policy.MaxDelay
		}
	}

	return Stats{}, &FatalError{Attempts: r.policy.MaxAttempts, Err: fmt.Errorf("no attempts configured")}
}

// renderOnce writes one complete artifact or nothing. Audio streams into a
// temp file in the destination directory and is renamed only once the stream
// has been fully consumed.
func (r *Renderer) renderOnce(ctx context.Context, text, voice, dest string) error {
	if err := os.MkdirAll(filepath.Dir(dest), 0o755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}

	stream, err := r.speech.Synthesize(ctx, text, voice)
	if err != nil {
		return err
	}
	defer stream.Close()

	tmp, err := os.CreateTemp(filepath.Dir(dest), ".audio-*.tmp")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	if _, err := io.Copy(tmp, stream); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return fmt.Errorf("failed to stream audio: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("failed to finalize audio file: %w", err)
	}
	if err := os.Rename(tmp.Name(), dest); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("failed to move audio file: %w", err)
	}
	return nil
}

// stats measures the produced artifact. A decode failure only degrades the
// reported duration to an estimate; the artifact itself is kept.
func (r *Renderer) stats(text, dest string) Stats {
	wordCount := len(strings.Fields(text))

	var sizeBytes int64
	if info, err := os.Stat(dest); err == nil {
		sizeBytes = info.Size()
	}

	duration, err := mp3Duration(dest)
	estimated := false
	if err != nil {
		logger.Warn("audio analysis failed, estimating duration", "error", err)
		duration = time.Duration(float64(wordCount) / estimateWordsPerSecond * float64(time.Second))
		estimated = true
	}

	wps := 0.0
	if secs := duration.Seconds(); secs > 0 {
		wps = float64(wordCount) / secs
	}

	return Stats{
		Duration:          duration,
		WordCount:         wordCount,
		WordsPerSecond:    wps,
		SizeBytes:         sizeBytes,
		DurationEstimated: estimated,
	}
}
