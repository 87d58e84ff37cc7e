package completion

import (
	"context"
	"errors"
	"strings"

	openai "github.com/sashabaranov/go-openai"
)

type chatClient interface {
	CreateChatCompletion(ctx context.Context, req openai.ChatCompletionRequest) (openai.ChatCompletionResponse, error)
}

// OpenAI is a Backend backed by the chat completions API.
type OpenAI struct {
	client chatClient
}

// NewOpenAI creates a backend for apiKey. baseURL overrides the API endpoint
// when non-empty.
func NewOpenAI(apiKey, baseURL string) *OpenAI {
	cfg := openai.DefaultConfig(apiKey)
	if baseURL != "" {
		cfg.BaseURL = baseURL
	}
	return &OpenAI{client: openai.NewClientWithConfig(cfg)}
}

func (o *OpenAI) Complete(ctx context.Context, system, user string, opts Options) (string, error) {
	if o == nil || o.client == nil {
		return "", ErrUnavailable
	}
	req := openai.ChatCompletionRequest{
		Model:       opts.Model,
		MaxTokens:   opts.MaxTokens,
		Temperature: opts.Temperature,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: system},
			{Role: openai.ChatMessageRoleUser, Content: user},
		},
	}
	resp, err := o.client.CreateChatCompletion(ctx, req)
	if err != nil {
		return "", &CallError{Model: opts.Model, Err: err}
	}
	if len(resp.Choices) == 0 {
		return "", &CallError{Model: opts.Model, Err: errors.New("no choices returned")}
	}
	return strings.TrimSpace(resp.Choices[0].Message.Content), nil
}
