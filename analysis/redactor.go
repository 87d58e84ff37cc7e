package analysis

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"unicode"

	"github.com/bytedance/sonic"
	log "github.com/sirupsen/logrus"

	"github.com/SzematPro/ai-task-manager/completion"
	"github.com/SzematPro/ai-task-manager/domain"
)

// MaxTitleRunes bounds stored titles.
const MaxTitleRunes = 100

// Redactor rewrites raw input into a concise professional title.
type Redactor struct {
	backend completion.Backend
	opts    completion.Options
	logger  *log.Logger
}

func NewRedactor(backend completion.Backend, logger *log.Logger) *Redactor {
	if backend == nil {
		backend = completion.Unavailable{}
	}
	if logger == nil {
		logger = log.StandardLogger()
	}
	return &Redactor{backend: backend, opts: DefaultRedactOptions, logger: logger}
}

// WithOptions overrides the completion options.
func (r *Redactor) WithOptions(opts completion.Options) *Redactor {
	r.opts = opts
	return r
}

// Redact never fails. Without a usable answer it returns translated, or
// original when translated is blank.
func (r *Redactor) Redact(ctx context.Context, original, translated string, a domain.Analysis) (title string) {
	fallback := strings.TrimSpace(translated)
	if fallback == "" {
		fallback = strings.TrimSpace(original)
	}
	defer func() {
		if rec := recover(); rec != nil {
			r.logger.WithField("panic", rec).Error("title redaction failed")
			title = TruncateTitle(fallback)
		}
	}()

	out, err := r.redactRemote(ctx, original, translated, a)
	if err != nil {
		if !errors.Is(err, completion.ErrUnavailable) {
			r.logger.WithError(err).Warn("title redaction failed, using fallback")
		}
		return TruncateTitle(fallback)
	}
	if out == "" {
		return TruncateTitle(fallback)
	}
	return TruncateTitle(out)
}

func (r *Redactor) redactRemote(ctx context.Context, original, translated string, a domain.Analysis) (string, error) {
	payload, err := sonic.ConfigStd.MarshalIndent(a, "", "  ")
	if err != nil {
		return "", fmt.Errorf("encode analysis: %w", err)
	}
	user := fmt.Sprintf("Original text: %q\nTranslated text: %q\nAI Analysis: %s\n\nCreate a professional task title for database storage.",
		original, translated, payload)
	out, err := r.backend.Complete(ctx, redactInstruction, user, r.opts)
	if err != nil {
		return "", err
	}
	return stripQuotes(out), nil
}

func stripQuotes(s string) string {
	s = strings.TrimSpace(s)
	for len(s) >= 2 {
		first, last := s[0], s[len(s)-1]
		if (first == '"' && last == '"') || (first == '\'' && last == '\'') || (first == '`' && last == '`') {
			s = strings.TrimSpace(s[1 : len(s)-1])
			continue
		}
		break
	}
	return s
}

// TruncateTitle cuts s to MaxTitleRunes, backing up to the last word
// boundary when one exists.
func TruncateTitle(s string) string {
	runes := []rune(s)
	if len(runes) <= MaxTitleRunes {
		return s
	}
	cut := runes[:MaxTitleRunes]
	for i := len(cut) - 1; i > 0; i-- {
		if unicode.IsSpace(cut[i]) {
			return strings.TrimRightFunc(string(cut[:i]), unicode.IsSpace)
		}
	}
	return string(cut)
}
