package llm

import (
	"context"
	"fmt"
	"strings"

	"policy-guide/internal/guidance"

	"google.golang.org/genai"
)

type Gemini struct {
	client *genai.Client
}

// NewGemini builds a client for the Gemini API. baseURL is optional and
// replaces the public endpoint.
func NewGemini(ctx context.Context, apiKey, baseURL string) (*Gemini, error) {
	if strings.TrimSpace(apiKey) == "" {
		return nil, fmt.Errorf("gemini: %w", ErrMissingAPIKey)
	}
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:      apiKey,
		Backend:     genai.BackendGeminiAPI,
		HTTPOptions: genai.HTTPOptions{BaseURL: strings.TrimSpace(baseURL)},
	})
	if err != nil {
		return nil, fmt.Errorf("create gemini client: %w", err)
	}
	return &Gemini{client: client}, nil
}

func (g *Gemini) Generate(ctx context.Context, req guidance.Request) (string, error) {
	model := req.Model
	if model == "" {
		model = DefaultGeminiModel
	}

	cfg := &genai.GenerateContentConfig{}
	if req.SystemInstruction != "" {
		cfg.SystemInstruction = genai.NewContentFromText(req.SystemInstruction, genai.RoleUser)
	}

	resp, err := g.client.Models.GenerateContent(ctx, model, genai.Text(req.Content), cfg)
	if err != nil {
		return "", fmt.Errorf("gemini generate content: %w", err)
	}
	if resp == nil {
		return "", nil
	}
	return resp.Text(), nil
}
