package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Duration wraps time.Duration so tunables can be written as "1s" in YAML.
type Duration time.Duration

func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	var raw string
	if err := value.Decode(&raw); err != nil {
		return err
	}
	parsed, err := time.ParseDuration(raw)
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", raw, err)
	}
	*d = Duration(parsed)
	return nil
}

func (d Duration) Std() time.Duration {
	return time.Duration(d)
}

// Source is one news origin for a locale. Type selects the collector path:
// "html" (default) scrapes headlines with extraction rules, "rss" parses a feed.
type Source struct {
	Name string `yaml:"name"`
	URL  string `yaml:"url"`
	Type string `yaml:"type"`
}

// TTS holds the audio-render retry schedule.
type TTS struct {
	MaxAttempts   int      `yaml:"max_attempts"`
	InitialDelay  Duration `yaml:"initial_delay"`
	BackoffFactor float64  `yaml:"backoff_factor"`
	MaxDelay      Duration `yaml:"max_delay"`
}

// Tunables are pipeline knobs shared by every locale.
type Tunables struct {
	MaxPerSource            int      `yaml:"max_per_source"`
	SourcePacing            Duration `yaml:"source_pacing"`
	DedupeThreshold         float64  `yaml:"dedupe_threshold"`
	FallbackDedupeThreshold float64  `yaml:"fallback_dedupe_threshold"`
	FallbackMinStories      int      `yaml:"fallback_min_stories"`
	MemoryRetention         string   `yaml:"memory_retention"` // full | window
	MemoryWindow            int      `yaml:"memory_window"`
	MinAudioBytes           int64    `yaml:"min_audio_bytes"`
	TTS                     TTS      `yaml:"tts"`
}

// Locale describes one output variant: its sources, extraction rules, voice,
// and phrase/prompt templates. Templates use {name} placeholders expanded by
// ExpandTemplate.
type Locale struct {
	ID              string   `yaml:"-"`
	Name            string   `yaml:"name"`
	Greeting        string   `yaml:"greeting"`
	Region          string   `yaml:"region"`
	Publisher       string   `yaml:"publisher"`
	ServiceName     string   `yaml:"service_name"`
	Voice           string   `yaml:"voice"`
	DateFormat      string   `yaml:"date_format"`
	Opening         string   `yaml:"opening"`
	Closing         []string `yaml:"closing"`
	SystemMessage   string   `yaml:"system_message"`
	AnalysisPrompt  string   `yaml:"analysis_prompt"`
	SynthesisPrompt string   `yaml:"synthesis_prompt"`
	ExtractionRules []string `yaml:"extraction_rules"`
	Sources         []Source `yaml:"sources"`
}

// Locales is the parsed locale table plus shared tunables.
type Locales struct {
	Defaults Tunables           `yaml:"defaults"`
	Table    map[string]*Locale `yaml:"locales"`
	Order    []string           `yaml:"-"`
}

// LoadLocales reads the locale table from a YAML file. Locale iteration order
// follows the file, so digests for "all" runs are generated in a stable order.
func LoadLocales(path string) (*Locales, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read locales file: %w", err)
	}

	var doc struct {
		Defaults Tunables  `yaml:"defaults"`
		Locales  yaml.Node `yaml:"locales"`
	}
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("failed to parse locales file: %w", err)
	}

	out := &Locales{
		Defaults: doc.Defaults,
		Table:    make(map[string]*Locale),
	}
	applyTunableDefaults(&out.Defaults)

	if doc.Locales.Kind != yaml.MappingNode {
		return nil, fmt.Errorf("locales file: 'locales' must be a mapping")
	}
	// Walk the mapping node directly to preserve file order.
	for i := 0; i+1 < len(doc.Locales.Content); i += 2 {
		id := doc.Locales.Content[i].Value
		loc := &Locale{}
		if err := doc.Locales.Content[i+1].Decode(loc); err != nil {
			return nil, fmt.Errorf("locale %s: %w", id, err)
		}
		loc.ID = id
		if loc.DateFormat == "" {
			loc.DateFormat = "January 2, 2006"
		}
		out.Table[id] = loc
		out.Order = append(out.Order, id)
	}

	return out, out.Validate()
}

func applyTunableDefaults(t *Tunables) {
	if t.MaxPerSource == 0 {
		t.MaxPerSource = 12
	}
	if t.SourcePacing == 0 {
		t.SourcePacing = Duration(1 * time.Second)
	}
	if t.DedupeThreshold == 0 {
		t.DedupeThreshold = 0.4
	}
	if t.FallbackDedupeThreshold == 0 {
		t.FallbackDedupeThreshold = 0.5
	}
	if t.FallbackMinStories == 0 {
		t.FallbackMinStories = 2
	}
	if t.MemoryRetention == "" {
		t.MemoryRetention = "full"
	}
	if t.MinAudioBytes == 0 {
		t.MinAudioBytes = 50000
	}
	if t.TTS.MaxAttempts == 0 {
		t.TTS.MaxAttempts = 4
	}
	if t.TTS.InitialDelay == 0 {
		t.TTS.InitialDelay = Duration(2 * time.Second)
	}
	if t.TTS.BackoffFactor == 0 {
		t.TTS.BackoffFactor = 2.0
	}
	if t.TTS.MaxDelay == 0 {
		t.TTS.MaxDelay = Duration(30 * time.Second)
	}
}

func (l *Locales) Validate() error {
	if len(l.Table) == 0 {
		return fmt.Errorf("locales file defines no locales")
	}
	switch l.Defaults.MemoryRetention {
	case "full", "window":
	default:
		return fmt.Errorf("memory_retention must be 'full' or 'window'")
	}
	if l.Defaults.MemoryRetention == "window" && l.Defaults.MemoryWindow <= 0 {
		return fmt.Errorf("memory_window must be positive when memory_retention is 'window'")
	}
	for id, loc := range l.Table {
		if loc.Voice == "" {
			return fmt.Errorf("locale %s: voice is required", id)
		}
		if len(loc.Sources) == 0 {
			return fmt.Errorf("locale %s: at least one source is required", id)
		}
		if loc.Opening == "" || len(loc.Closing) == 0 {
			return fmt.Errorf("locale %s: opening and closing phrases are required", id)
		}
		if loc.AnalysisPrompt == "" || loc.SynthesisPrompt == "" {
			return fmt.Errorf("locale %s: analysis_prompt and synthesis_prompt are required", id)
		}
		for _, src := range loc.Sources {
			switch src.Type {
			case "", "html", "rss":
			default:
				return fmt.Errorf("locale %s: source %s has unknown type %q", id, src.Name, src.Type)
			}
			if src.URL == "" {
				return fmt.Errorf("locale %s: source %s has no url", id, src.Name)
			}
			if (src.Type == "" || src.Type == "html") && len(loc.ExtractionRules) == 0 {
				return fmt.Errorf("locale %s: extraction_rules are required for html sources", id)
			}
		}
	}
	return nil
}

// Get returns the locale by id.
func (l *Locales) Get(id string) (*Locale, error) {
	loc, ok := l.Table[id]
	if !ok {
		return nil, fmt.Errorf("unknown locale %q", id)
	}
	return loc, nil
}
