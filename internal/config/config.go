package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

// Config holds process-level settings loaded from the environment once at
// startup. Per-locale settings live in the YAML locale table (locales.go).
type Config struct {
	// Model provider settings
	Provider        string // anthropic | openai | gemini | "" (no analysis capability)
	AnthropicAPIKey string
	OpenAIAPIKey    string
	GeminiAPIKey    string
	MaxModelCalls   int // maximum model requests per run (0 = unlimited)

	// Speech synthesis settings
	SpeechEndpoint string
	SpeechTimeout  time.Duration
	ForceIPv4      bool

	// Output settings
	OutputDir   string
	LocalesPath string

	// App settings
	RequestTimeout time.Duration
}

func Load() (*Config, error) {
	cfg := &Config{
		// Default values
		Provider:       "anthropic",
		MaxModelCalls:  40,
		SpeechEndpoint: "https://speech.dynamicdevices.co.uk/v1/synthesize",
		SpeechTimeout:  60 * time.Second,
		ForceIPv4:      true,
		OutputDir:      "docs",
		LocalesPath:    "configs/locales.yaml",
		RequestTimeout: 30 * time.Second,
	}

	// Load from environment
	cfg.AnthropicAPIKey = os.Getenv("ANTHROPIC_API_KEY")
	cfg.OpenAIAPIKey = os.Getenv("OPENAI_API_KEY")
	cfg.GeminiAPIKey = os.Getenv("GEMINI_API_KEY")

	if provider := os.Getenv("AI_PROVIDER"); provider != "" {
		cfg.Provider = provider
	}
	cfg.SpeechEndpoint = getEnvOrDefault("SPEECH_ENDPOINT", cfg.SpeechEndpoint)
	cfg.OutputDir = getEnvOrDefault("OUTPUT_DIR", cfg.OutputDir)
	cfg.LocalesPath = getEnvOrDefault("LOCALES_PATH", cfg.LocalesPath)
	cfg.MaxModelCalls = getEnvIntOrDefault("MAX_MODEL_CALLS", cfg.MaxModelCalls)

	if v := os.Getenv("FORCE_IPV4"); v != "" {
		cfg.ForceIPv4 = v == "true"
	}
	if v := os.Getenv("SPEECH_TIMEOUT"); v != "" {
		if d, err := time.ParseDuration(v); err == nil && d > 0 {
			cfg.SpeechTimeout = d
		}
	}
	if v := os.Getenv("REQUEST_TIMEOUT"); v != "" {
		if d, err := time.ParseDuration(v); err == nil && d > 0 {
			cfg.RequestTimeout = d
		}
	}

	return cfg, cfg.Validate()
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvIntOrDefault(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

// ProviderKey returns the API key matching the selected provider.
func (c *Config) ProviderKey() string {
	switch c.Provider {
	case "anthropic":
		return c.AnthropicAPIKey
	case "openai":
		return c.OpenAIAPIKey
	case "gemini":
		return c.GeminiAPIKey
	}
	return ""
}

func (c *Config) Validate() error {
	switch c.Provider {
	case "", "anthropic", "openai", "gemini":
	default:
		return fmt.Errorf("AI_PROVIDER must be one of anthropic, openai, gemini")
	}
	if c.SpeechEndpoint == "" {
		return fmt.Errorf("SPEECH_ENDPOINT is required")
	}
	if c.OutputDir == "" {
		return fmt.Errorf("OUTPUT_DIR is required")
	}
	if c.LocalesPath == "" {
		return fmt.Errorf("LOCALES_PATH is required")
	}
	return nil
}
