package tts

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

// fakeSpeech fails with err for the first failures calls, then streams audio.
type fakeSpeech struct {
	failures int
	err      error
	audio    string
	calls    int
}

func (f *fakeSpeech) Synthesize(ctx context.Context, text, voice string) (io.ReadCloser, error) {
	f.calls++
	if f.calls <= f.failures {
		return nil, f.err
	}
	return io.NopCloser(strings.NewReader(f.audio)), nil
}

func testRenderer(speech Speech, policy Policy) (*Renderer, *[]time.Duration) {
	r := NewRenderer(speech, policy)
	var delays []time.Duration
	r.sleep = func(d time.Duration) { delays = append(delays, d) }
	return r, &delays
}

func TestRender_RetriesTransientFailuresThenSucceeds(t *testing.T) {
	speech := &fakeSpeech{
		failures: 2,
		err:      errors.New("connection refused"),
		audio:    "fake audio payload",
	}
	r, delays := testRenderer(speech, Policy{
		MaxAttempts:   4,
		InitialDelay:  2 * time.Second,
		BackoffFactor: 3,
		MaxDelay:      5 * time.Second,
	})

	dest := filepath.Join(t.TempDir(), "audio", "out.mp3")
	stats, err := r.Render(context.Background(), "one two three four", "voice-a", dest)
	require.NoError(t, err)
	require.Equal(t, 3, speech.calls)

	// Second delay is 2s*3 capped at the 5s ceiling.
	require.Equal(t, []time.Duration{2 * time.Second, 5 * time.Second}, *delays)

	data, readErr := os.ReadFile(dest)
	require.NoError(t, readErr)
	require.Equal(t, "fake audio payload", string(data))
	require.Equal(t, int64(len("fake audio payload")), stats.SizeBytes)
}

func TestRender_NonRetryableFailsImmediately(t *testing.T) {
	speech := &fakeSpeech{failures: 10, err: errors.New("voice not found")}
	r, delays := testRenderer(speech, Policy{
		MaxAttempts:   4,
		InitialDelay:  time.Second,
		BackoffFactor: 2,
		MaxDelay:      30 * time.Second,
	})

	dest := filepath.Join(t.TempDir(), "out.mp3")
	_, err := r.Render(context.Background(), "some digest text", "voice-a", dest)

	var fatal *FatalError
	require.ErrorAs(t, err, &fatal)
	require.Equal(t, 1, fatal.Attempts)
	require.Equal(t, 1, speech.calls)
	require.Empty(t, *delays)

	_, statErr := os.Stat(dest)
	require.True(t, os.IsNotExist(statErr), "no artifact may exist after a failed render")
}

func TestRender_ExhaustionIsFatal(t *testing.T) {
	speech := &fakeSpeech{failures: 10, err: errors.New("network is unreachable")}
	r, delays := testRenderer(speech, Policy{
		MaxAttempts:   3,
		InitialDelay:  time.Second,
		BackoffFactor: 2,
		MaxDelay:      30 * time.Second,
	})

	dest := filepath.Join(t.TempDir(), "out.mp3")
	_, err := r.Render(context.Background(), "some digest text", "voice-a", dest)

	var fatal *FatalError
	require.ErrorAs(t, err, &fatal)
	require.Equal(t, 3, fatal.Attempts)
	require.Equal(t, 3, speech.calls)
	require.Equal(t, []time.Duration{time.Second, 2 * time.Second}, *delays)

	_, statErr := os.Stat(dest)
	require.True(t, os.IsNotExist(statErr))
}

func TestRender_EstimatesDurationWhenArtifactUnreadable(t *testing.T) {
	speech := &fakeSpeech{audio: "definitely not mpeg frames"}
	r, _ := testRenderer(speech, Policy{MaxAttempts: 1, InitialDelay: time.Second, BackoffFactor: 2, MaxDelay: time.Second})

	dest := filepath.Join(t.TempDir(), "out.mp3")
	stats, err := r.Render(context.Background(), "one two three four", "voice-a", dest)
	require.NoError(t, err)

	require.True(t, stats.DurationEstimated)
	require.Equal(t, 4, stats.WordCount)
	// 4 words at the 2.0 words-per-second estimate.
	require.Equal(t, 2*time.Second, stats.Duration)
	require.InDelta(t, 2.0, stats.WordsPerSecond, 0.001)
}

func TestRetryable(t *testing.T) {
	tests := []struct {
		err  error
		want bool
	}{
		{errors.New("Network is unreachable"), true},
		{errors.New("Cannot connect to host"), true},
		{errors.New("connection refused"), true},
		{errors.New("Temporary failure in name resolution"), true},
		{errors.New("server returned 401"), true},
		{errors.New("TLS handshake timeout"), true},
		{errors.New("Authentication failed"), true},
		{fmt.Errorf("wrapped: %w", errors.New("connection refused")), true},
		{errors.New("voice not found"), false},
		{errors.New("invalid request body"), false},
		{nil, false},
	}
	for _, tt := range tests {
		if got := Retryable(tt.err); got != tt.want {
			t.Errorf("Retryable(%v) = %v, want %v", tt.err, got, tt.want)
		}
	}
}
