// Package ai abstracts the language-model capability behind a single
// completion interface with one implementation per provider. The pipeline
// depends only on Capability, never on a concrete vendor client.
package ai

import (
	"context"
	"errors"
	"fmt"
)

// Request is a single natural-language completion request.
type Request struct {
	System      string
	Prompt      string
	MaxTokens   int
	Temperature float32
}

// Capability accepts an instruction string and returns the model's reply text.
type Capability interface {
	Complete(ctx context.Context, req Request) (string, error)
	Name() string
}

var ErrBudgetExhausted = errors.New("model call budget exhausted")

// New builds a provider by name. An empty provider or missing key yields a nil
// capability: the pipeline then fails with its Unavailable errors instead of
// silently degrading, and the caller may pick the keyword fallback explicitly.
func New(ctx context.Context, provider, apiKey string) (Capability, error) {
	if provider == "" || apiKey == "" {
		return nil, nil
	}
	switch provider {
	case "anthropic":
		return NewAnthropic(apiKey), nil
	case "openai":
		return NewOpenAI(apiKey), nil
	case "gemini":
		return NewGemini(ctx, apiKey)
	default:
		return nil, fmt.Errorf("unknown AI provider %q", provider)
	}
}
