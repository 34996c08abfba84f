// Package llm provides text generators backed by hosted or local models.
package llm

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"policy-guide/internal/guidance"
)

const (
	ProviderGemini = "gemini"
	ProviderOpenAI = "openai"
	ProviderOllama = "ollama"

	DefaultGeminiModel = "gemini-2.5-flash"
	DefaultOpenAIModel = "gpt-4o-mini"
	DefaultOllamaModel = "llama3.1"
)

var (
	ErrMissingAPIKey   = errors.New("missing API key")
	ErrUnknownProvider = errors.New("unknown provider")
)

type Settings struct {
	Provider string
	Model    string
	APIKey   string
	BaseURL  string
}

// DefaultModel returns the model used when none is configured.
func DefaultModel(provider string) string {
	switch normalizeProvider(provider) {
	case ProviderOpenAI:
		return DefaultOpenAIModel
	case ProviderOllama:
		return DefaultOllamaModel
	default:
		return DefaultGeminiModel
	}
}

func New(ctx context.Context, s Settings) (guidance.Generator, error) {
	switch normalizeProvider(s.Provider) {
	case ProviderGemini:
		return NewGemini(ctx, s.APIKey, s.BaseURL)
	case ProviderOpenAI:
		return NewOpenAI(s.APIKey, s.Model, s.BaseURL)
	case ProviderOllama:
		return NewOllama(s.Model, s.BaseURL)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownProvider, s.Provider)
	}
}

func normalizeProvider(p string) string {
	p = strings.ToLower(strings.TrimSpace(p))
	if p == "" || p == "google" {
		return ProviderGemini
	}
	return p
}
