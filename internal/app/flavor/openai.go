package flavor

import (
	"context"
	"fmt"
	"strings"
	"time"

	openai "github.com/sashabaranov/go-openai"
)

const defaultOpenAIModel = "gpt-4o-mini"

type timeoutFn func(context.Context) (context.Context, context.CancelFunc)

func withTimeout(d time.Duration) timeoutFn {
	return func(ctx context.Context) (context.Context, context.CancelFunc) {
		return context.WithTimeout(ctx, d)
	}
}

type openAIProvider struct {
	client  *openai.Client
	model   string
	timeout timeoutFn
}

func newOpenAIProvider(cfg Config) (*openAIProvider, error) {
	if cfg.OpenAIAPIKey == "" {
		return nil, fmt.Errorf("openai API key is required")
	}

	model := cfg.OpenAIModel
	if model == "" {
		model = defaultOpenAIModel
	}

	return &openAIProvider{
		client:  openai.NewClient(cfg.OpenAIAPIKey),
		model:   model,
		timeout: withTimeout(cfg.timeout()),
	}, nil
}

func (p *openAIProvider) GenerateText(ctx context.Context, prompt string, opts Options) (string, error) {
	ctx, cancel := p.timeout(ctx)
	defer cancel()

	resp, err := p.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:       p.model,
		MaxTokens:   opts.MaxTokens,
		Temperature: opts.Temperature,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleUser, Content: prompt},
		},
	})
	if err != nil {
		return "", fmt.Errorf("openai generate: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("openai generate: empty response")
	}
	return strings.TrimSpace(resp.Choices[0].Message.Content), nil
}
