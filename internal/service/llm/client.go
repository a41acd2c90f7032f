// Package llm adapts eino chat models to the completion contract used by
// the enrichment step.
package llm

import (
	"context"
	"errors"
	"fmt"
	"strings"

	dsvc "StockPulse/internal/domain/service"

	"github.com/cloudwego/eino-ext/components/model/deepseek"
	"github.com/cloudwego/eino-ext/components/model/openai"
	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"
)

const (
	ProviderOpenAI   = "openai"
	ProviderDeepSeek = "deepseek"
)

var ErrEmptyCompletion = errors.New("llm: empty completion")

// Config selects and authenticates a chat model.
type Config struct {
	Provider  string
	BaseURL   string
	APIKey    string
	Model     string
	MaxTokens int
}

// Client implements CompletionClient over any eino chat model.
type Client struct {
	chat model.BaseChatModel
}

var _ dsvc.CompletionClient = (*Client)(nil)

// New builds the chat model for cfg.Provider.
func New(ctx context.Context, cfg Config) (*Client, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("llm: api key is required for provider %s", cfg.Provider)
	}

	var (
		chat model.BaseChatModel
		err  error
	)
	switch cfg.Provider {
	case ProviderDeepSeek:
		chat, err = deepseek.NewChatModel(ctx, &deepseek.ChatModelConfig{
			APIKey:    cfg.APIKey,
			BaseURL:   cfg.BaseURL,
			Model:     cfg.Model,
			MaxTokens: cfg.MaxTokens,
		})
	case ProviderOpenAI, "":
		maxTokens := cfg.MaxTokens
		chat, err = openai.NewChatModel(ctx, &openai.ChatModelConfig{
			BaseURL:   cfg.BaseURL,
			APIKey:    cfg.APIKey,
			Model:     cfg.Model,
			MaxTokens: &maxTokens,
		})
	default:
		return nil, fmt.Errorf("llm: unknown provider %q", cfg.Provider)
	}
	if err != nil {
		return nil, fmt.Errorf("llm: create %s model: %w", cfg.Provider, err)
	}
	return NewWithModel(chat), nil
}

// NewWithModel wraps an already constructed chat model.
func NewWithModel(chat model.BaseChatModel) *Client {
	return &Client{chat: chat}
}

// Complete sends the prompt as a single user message.
func (c *Client) Complete(ctx context.Context, prompt string, maxTokens int, temperature float32) (string, error) {
	msg, err := c.chat.Generate(ctx,
		[]*schema.Message{schema.UserMessage(prompt)},
		model.WithMaxTokens(maxTokens),
		model.WithTemperature(temperature),
	)
	if err != nil {
		return "", fmt.Errorf("llm: generate: %w", err)
	}
	if msg == nil || strings.TrimSpace(msg.Content) == "" {
		return "", ErrEmptyCompletion
	}
	return msg.Content, nil
}
