package analysis

import (
	"context"
	"errors"
	"strings"

	log "github.com/sirupsen/logrus"

	"github.com/SzematPro/ai-task-manager/completion"
)

// maxSuggestions caps what is returned to callers.
const maxSuggestions = 5

// Suggester proposes follow-up tasks from recent task titles.
type Suggester struct {
	backend completion.Backend
	opts    completion.Options
	logger  *log.Logger
}

func NewSuggester(backend completion.Backend, logger *log.Logger) *Suggester {
	if backend == nil {
		backend = completion.Unavailable{}
	}
	if logger == nil {
		logger = log.StandardLogger()
	}
	return &Suggester{backend: backend, opts: DefaultSuggestOptions, logger: logger}
}

// Suggest returns an empty list on any failure or when there is no history.
func (s *Suggester) Suggest(ctx context.Context, recent []string) []string {
	if len(recent) == 0 {
		return []string{}
	}
	raw, err := s.backend.Complete(ctx, suggestInstruction, "Recent tasks: "+strings.Join(recent, ", "), s.opts)
	if err != nil {
		if !errors.Is(err, completion.ErrUnavailable) {
			s.logger.WithError(err).Warn("task suggestions failed")
		}
		return []string{}
	}
	var out []string
	if err := completion.DecodeArray(raw, &out); err != nil {
		s.logger.WithError(err).WithField("raw", raw).Warn("task suggestions returned malformed output")
		return []string{}
	}
	out = list(out)
	if len(out) > maxSuggestions {
		out = out[:maxSuggestions]
	}
	return out
}
