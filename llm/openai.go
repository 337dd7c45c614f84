package llm

import (
	"context"
	"errors"
	"fmt"

	"github.com/sashabaranov/go-openai"

	"github.com/santiagomed/stepseq/logger"
)

const systemPrompt = "You are a concise assistant embedded in a command-line workflow. Answer with the requested text only."

// OpenAIClient is a Client backed by the OpenAI chat completion API.
type OpenAIClient struct {
	openAIClient *openai.Client
	config       *Config
	logger       logger.Logger
}

// NewOpenAIClient creates a new LLM client
func NewOpenAIClient(cfg *Config, l logger.Logger) (*OpenAIClient, error) {
	if cfg == nil || cfg.APIKey == "" {
		return nil, errors.New("OpenAI API key is required")
	}
	if l == nil {
		l = logger.NewNullLogger()
	}
	clientConfig := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		clientConfig.BaseURL = cfg.BaseURL
	}
	return &OpenAIClient{
		openAIClient: openai.NewClientWithConfig(clientConfig),
		config:       cfg,
		logger:       l,
	}, nil
}

// GetCompletion sends a request to the OpenAI API and returns the generated text
func (c *OpenAIClient) GetCompletion(ctx context.Context, prompt string) (string, error) {
	resp, err := c.openAIClient.CreateChatCompletion(
		ctx,
		openai.ChatCompletionRequest{
			Model: c.config.ModelName,
			Messages: []openai.ChatCompletionMessage{
				{
					Role:    openai.ChatMessageRoleSystem,
					Content: systemPrompt,
				},
				{
					Role:    openai.ChatMessageRoleUser,
					Content: prompt,
				},
			},
		},
	)

	e := &openai.APIError{}
	if errors.As(err, &e) {
		switch e.HTTPStatusCode {
		case 401:
			return "", fmt.Errorf("unauthorized: invalid OpenAI API key")
		case 429:
			return "", fmt.Errorf("rate limited by OpenAI API")
		case 500:
			return "", fmt.Errorf("OpenAI server error")
		default:
			return "", fmt.Errorf("OpenAI API error: %v", e)
		}
	}
	if err != nil {
		return "", fmt.Errorf("OpenAI request failed: %w", err)
	}

	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("no choices returned from OpenAI")
	}
	usage := resp.Usage
	c.logger.WithField("prompt_tokens", usage.PromptTokens).
		WithField("completion_tokens", usage.CompletionTokens).
		Debug("OpenAI completion received")

	return resp.Choices[0].Message.Content, nil
}
