// Package completion defines the text-completion contract used by the
// analysis stages and its concrete backends.
package completion

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// Options tune a single completion request.
type Options struct {
	Model       string
	MaxTokens   int
	Temperature float32
}

// Backend turns a system instruction and a user message into text.
type Backend interface {
	Complete(ctx context.Context, system, user string, opts Options) (string, error)
}

// ErrUnavailable is returned when no backend is configured.
var ErrUnavailable = errors.New("completion backend unavailable")

// CallError wraps a transport or timeout failure of a backend call.
type CallError struct {
	Model string
	Err   error
}

func (e *CallError) Error() string {
	return fmt.Sprintf("completion call to %s failed: %v", e.Model, e.Err)
}

func (e *CallError) Unwrap() error { return e.Err }

// MalformedOutputError reports backend text that does not follow the
// requested format. Raw keeps the offending content for logging.
type MalformedOutputError struct {
	Raw string
	Err error
}

func (e *MalformedOutputError) Error() string {
	if e.Err == nil {
		return "malformed completion output"
	}
	return "malformed completion output: " + e.Err.Error()
}

func (e *MalformedOutputError) Unwrap() error { return e.Err }

// Unavailable is a Backend that always fails with ErrUnavailable. It stands
// in when no API key is configured.
type Unavailable struct{}

func (Unavailable) Complete(context.Context, string, string, Options) (string, error) {
	return "", ErrUnavailable
}

// WithTimeout bounds every call made through b by d.
func WithTimeout(b Backend, d time.Duration) Backend {
	if d <= 0 {
		return b
	}
	return &timeoutBackend{next: b, timeout: d}
}

type timeoutBackend struct {
	next    Backend
	timeout time.Duration
}

func (t *timeoutBackend) Complete(ctx context.Context, system, user string, opts Options) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, t.timeout)
	defer cancel()
	out, err := t.next.Complete(ctx, system, user, opts)
	if err != nil && ctx.Err() != nil {
		var callErr *CallError
		if !errors.As(err, &callErr) {
			return "", &CallError{Model: opts.Model, Err: err}
		}
	}
	return out, err
}
