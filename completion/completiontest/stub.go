// Package completiontest provides scripted completion backends for tests.
package completiontest

import (
	"context"
	"strings"
	"sync"

	"github.com/SzematPro/ai-task-manager/completion"
)

// Call records one request seen by a Stub.
type Call struct {
	System string
	User   string
	Opts   completion.Options
}

// Stub answers each request with Fn, or with Reply/Err when Fn is nil.
type Stub struct {
	Fn    func(system, user string, opts completion.Options) (string, error)
	Reply string
	Err   error

	mu    sync.Mutex
	calls []Call
}

func (s *Stub) Complete(ctx context.Context, system, user string, opts completion.Options) (string, error) {
	s.mu.Lock()
	s.calls = append(s.calls, Call{System: system, User: user, Opts: opts})
	s.mu.Unlock()
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if s.Fn != nil {
		return s.Fn(system, user, opts)
	}
	return s.Reply, s.Err
}

// Calls returns a copy of the recorded requests.
func (s *Stub) Calls() []Call {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Call, len(s.calls))
	copy(out, s.calls)
	return out
}

// Failing returns a Stub that always fails with completion.ErrUnavailable.
func Failing() *Stub {
	return &Stub{Err: completion.ErrUnavailable}
}

// BySystem routes requests to a reply keyed by a substring of the system
// instruction. Unmatched requests fail with completion.ErrUnavailable.
func BySystem(replies map[string]string) *Stub {
	return &Stub{Fn: func(system, _ string, _ completion.Options) (string, error) {
		for marker, reply := range replies {
			if strings.Contains(system, marker) {
				return reply, nil
			}
		}
		return "", completion.ErrUnavailable
	}}
}
