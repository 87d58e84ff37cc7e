package completion

import (
	"context"
	"errors"
	"testing"
	"time"

	openai "github.com/sashabaranov/go-openai"
)

type blockingBackend struct{}

func (blockingBackend) Complete(ctx context.Context, _, _ string, _ Options) (string, error) {
	<-ctx.Done()
	return "", ctx.Err()
}

func TestWithTimeoutReturnsCallError(t *testing.T) {
	b := WithTimeout(blockingBackend{}, 10*time.Millisecond)
	_, err := b.Complete(context.Background(), "s", "u", Options{Model: "gpt-4"})
	var callErr *CallError
	if !errors.As(err, &callErr) {
		t.Fatalf("expected CallError, got %v", err)
	}
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("expected deadline exceeded, got %v", err)
	}
}

func TestUnavailable(t *testing.T) {
	if _, err := (Unavailable{}).Complete(context.Background(), "", "", Options{}); !errors.Is(err, ErrUnavailable) {
		t.Fatalf("expected ErrUnavailable, got %v", err)
	}
}

type fakeChat struct {
	req  openai.ChatCompletionRequest
	resp openai.ChatCompletionResponse
	err  error
}

func (f *fakeChat) CreateChatCompletion(_ context.Context, req openai.ChatCompletionRequest) (openai.ChatCompletionResponse, error) {
	f.req = req
	return f.resp, f.err
}

func TestOpenAIComplete(t *testing.T) {
	fake := &fakeChat{resp: openai.ChatCompletionResponse{Choices: []openai.ChatCompletionChoice{
		{Message: openai.ChatCompletionMessage{Content: "  hola  "}},
	}}}
	o := &OpenAI{client: fake}
	out, err := o.Complete(context.Background(), "sys", "usr", Options{Model: "gpt-4", MaxTokens: 200, Temperature: 0.1})
	if err != nil {
		t.Fatalf("complete: %v", err)
	}
	if out != "hola" {
		t.Fatalf("expected trimmed content, got %q", out)
	}
	if fake.req.Model != "gpt-4" || fake.req.MaxTokens != 200 || len(fake.req.Messages) != 2 {
		t.Fatalf("unexpected request %+v", fake.req)
	}
	if fake.req.Messages[0].Role != openai.ChatMessageRoleSystem || fake.req.Messages[1].Content != "usr" {
		t.Fatalf("unexpected messages %+v", fake.req.Messages)
	}
}

func TestOpenAIWrapsErrors(t *testing.T) {
	o := &OpenAI{client: &fakeChat{err: errors.New("boom")}}
	_, err := o.Complete(context.Background(), "", "", Options{Model: "gpt-4"})
	var callErr *CallError
	if !errors.As(err, &callErr) || callErr.Model != "gpt-4" {
		t.Fatalf("expected CallError, got %v", err)
	}

	o = &OpenAI{client: &fakeChat{}}
	if _, err := o.Complete(context.Background(), "", "", Options{}); !errors.As(err, &callErr) {
		t.Fatalf("expected CallError for empty choices, got %v", err)
	}
}
