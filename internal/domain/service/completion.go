package service

import "context"

// CompletionClient is a black-box text-completion service. Errors are treated
// as transient by callers.
type CompletionClient interface {
	Complete(ctx context.Context, prompt string, maxTokens int, temperature float32) (string, error)
}

// CompletionFunc adapts a function to CompletionClient.
type CompletionFunc func(ctx context.Context, prompt string, maxTokens int, temperature float32) (string, error)

func (f CompletionFunc) Complete(ctx context.Context, prompt string, maxTokens int, temperature float32) (string, error) {
	return f(ctx, prompt, maxTokens, temperature)
}
