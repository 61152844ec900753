package llm

import (
	"context"
	"errors"
)

// Client abstracts text-completion providers for psychological analysis.
type Client interface {
	Complete(ctx context.Context, input CompletionInput) (string, error)
}

// CompletionInput captures one completion request. Prompts are built by the
// caller; the client only transports them.
type CompletionInput struct {
	SystemPrompt string
	UserPrompt   string
	MaxTokens    int
	Temperature  float32
}

// ErrNotImplemented is returned by the placeholder client.
var ErrNotImplemented = errors.New("LLM not implemented")

// PlaceholderClient is a stub implementation used when no provider is configured.
type PlaceholderClient struct{}

// Complete returns ErrNotImplemented.
func (PlaceholderClient) Complete(ctx context.Context, input CompletionInput) (string, error) {
	_ = ctx
	_ = input
	return "", ErrNotImplemented
}
