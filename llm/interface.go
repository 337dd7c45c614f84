package llm

import "context"

// Client produces a text completion for a prompt.
type Client interface {
	GetCompletion(ctx context.Context, prompt string) (string, error)
}

type Config struct {
	APIKey    string
	ModelName string
	// BaseURL overrides the OpenAI endpoint, e.g. for a compatible proxy.
	BaseURL string
}
