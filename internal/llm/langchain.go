package llm

import (
	"context"
	"fmt"
	"strings"

	"policy-guide/internal/guidance"

	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/ollama"
	"github.com/tmc/langchaingo/llms/openai"
)

// LangChain adapts any langchaingo model. The model name is fixed when the
// backend is constructed, so Request.Model is informational here.
type LangChain struct {
	model llms.Model
}

func NewLangChain(model llms.Model) *LangChain {
	return &LangChain{model: model}
}

func NewOpenAI(apiKey, model, baseURL string) (*LangChain, error) {
	if strings.TrimSpace(apiKey) == "" {
		return nil, fmt.Errorf("openai: %w", ErrMissingAPIKey)
	}
	if model == "" {
		model = DefaultOpenAIModel
	}
	opts := []openai.Option{openai.WithToken(apiKey), openai.WithModel(model)}
	if baseURL != "" {
		opts = append(opts, openai.WithBaseURL(baseURL))
	}
	m, err := openai.New(opts...)
	if err != nil {
		return nil, fmt.Errorf("create openai client: %w", err)
	}
	return NewLangChain(m), nil
}

func NewOllama(model, serverURL string) (*LangChain, error) {
	if model == "" {
		model = DefaultOllamaModel
	}
	opts := []ollama.Option{ollama.WithModel(model)}
	if serverURL != "" {
		opts = append(opts, ollama.WithServerURL(serverURL))
	}
	m, err := ollama.New(opts...)
	if err != nil {
		return nil, fmt.Errorf("create ollama client: %w", err)
	}
	return NewLangChain(m), nil
}

func (l *LangChain) Generate(ctx context.Context, req guidance.Request) (string, error) {
	msgs := make([]llms.MessageContent, 0, 2)
	if req.SystemInstruction != "" {
		msgs = append(msgs, llms.TextParts(llms.ChatMessageTypeSystem, req.SystemInstruction))
	}
	msgs = append(msgs, llms.TextParts(llms.ChatMessageTypeHuman, req.Content))

	resp, err := l.model.GenerateContent(ctx, msgs)
	if err != nil {
		return "", fmt.Errorf("langchain generate content: %w", err)
	}
	if resp == nil || len(resp.Choices) == 0 || resp.Choices[0] == nil {
		return "", nil
	}
	return resp.Choices[0].Content, nil
}
