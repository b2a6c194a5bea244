package digest

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// Store resolves and writes digest artifacts. Paths are namespaced by locale
// and date, so concurrent runs for different locales never touch the same
// files.
type Store struct {
	baseDir string
}

func NewStore(baseDir string) *Store {
	return &Store{baseDir: baseDir}
}

const artifactDateFormat = "2006_01_02"

func (s *Store) TextPath(localeID string, date time.Time) string {
	name := fmt.Sprintf("news_digest_ai_%s.txt", date.Format(artifactDateFormat))
	return filepath.Join(s.baseDir, localeID, name)
}

func (s *Store) AudioPath(localeID string, date time.Time) string {
	name := fmt.Sprintf("news_digest_ai_%s.mp3", date.Format(artifactDateFormat))
	return filepath.Join(s.baseDir, localeID, "audio", name)
}

// HaveArtifacts reports whether both artifacts exist and the audio file is
// plausibly complete, along with the audio file's byte size. Tiny audio
// files are treated as leftovers from a failed run and do not satisfy the
// check.
func (s *Store) HaveArtifacts(textPath, audioPath string, minAudioBytes int64) (bool, int64) {
	if _, err := os.Stat(textPath); err != nil {
		return false, 0
	}
	info, err := os.Stat(audioPath)
	if err != nil {
		return false, 0
	}
	return info.Size() > minAudioBytes, info.Size()
}

// WriteDigestText persists the digest with its metadata header. The file is
// written to a temp name and renamed, so a crash never leaves a truncated
// digest behind.
func (s *Store) WriteDigestText(path, body string, generatedAt time.Time, aiEnabled bool) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}

	mode := "DISABLED"
	if aiEnabled {
		mode = "ENABLED"
	}
	border := strings.Repeat("=", 40)

	var b strings.Builder
	b.WriteString("AI-ENHANCED NEWS DIGEST\n")
	b.WriteString(border + "\n")
	b.WriteString(fmt.Sprintf("Generated: %s\n", generatedAt.Format("2006-01-02 15:04:05")))
	b.WriteString(fmt.Sprintf("AI Analysis: %s\n", mode))
	b.WriteString("Type: AI-synthesized content for accessibility\n")
	b.WriteString(border + "\n\n")
	b.WriteString(body)

	tmp, err := os.CreateTemp(filepath.Dir(path), ".digest-*.tmp")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	if _, err := tmp.WriteString(b.String()); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return fmt.Errorf("failed to write digest text: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("failed to finalize digest text: %w", err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("failed to move digest text: %w", err)
	}
	return nil
}
