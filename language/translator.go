package language

import (
	"context"
	"errors"
	"fmt"

	log "github.com/sirupsen/logrus"

	"github.com/SzematPro/ai-task-manager/completion"
)

// TranslationResult carries a translated text and how much to trust it.
type TranslationResult struct {
	OriginalText   string  `json:"originalText"`
	TranslatedText string  `json:"translatedText"`
	SourceLanguage string  `json:"sourceLanguage"`
	TargetLanguage string  `json:"targetLanguage"`
	Confidence     float64 `json:"confidence"`
}

const (
	backendConfidence    = 0.95
	phraseBookConfidence = 0.8
	unmatchedConfidence  = 0.3
)

// DefaultTranslateOptions are the completion settings used for translation.
var DefaultTranslateOptions = completion.Options{Model: "gpt-4", MaxTokens: 1000, Temperature: 0.1}

const translateInstruction = `You are a professional translator specializing in task management and productivity contexts. Translate the following text from %s to %s.

IMPORTANT GUIDELINES:
- Preserve the original meaning and intent completely
- Maintain the urgency and priority level of the task
- Keep all important details and context
- Handle mixed languages (like Spanglish) by translating to proper English
- Return only the translated text, no explanations or additional text
- Ensure the translation is natural and professional in English`

// Translator converts text to a target language. When the backend fails it
// consults its phrase book.
type Translator struct {
	backend completion.Backend
	opts    completion.Options
	book    PhraseBook
	logger  *log.Logger
}

// NewTranslator creates a translator. A nil book uses Builtin.
func NewTranslator(backend completion.Backend, book PhraseBook, logger *log.Logger) *Translator {
	if backend == nil {
		backend = completion.Unavailable{}
	}
	if book == nil {
		book = Builtin
	}
	if logger == nil {
		logger = log.StandardLogger()
	}
	return &Translator{backend: backend, opts: DefaultTranslateOptions, book: book, logger: logger}
}

// WithOptions overrides the completion options.
func (t *Translator) WithOptions(opts completion.Options) *Translator {
	t.opts = opts
	return t
}

// Translate never fails. Identity translations report confidence 1.
func (t *Translator) Translate(ctx context.Context, text, source, target string) TranslationResult {
	res := TranslationResult{
		OriginalText:   text,
		TranslatedText: text,
		SourceLanguage: source,
		TargetLanguage: target,
		Confidence:     1,
	}
	if source == target {
		return res
	}

	out, err := t.backend.Complete(ctx, fmt.Sprintf(translateInstruction, displayName(source), displayName(target)), text, t.opts)
	if err == nil {
		if out != "" {
			res.TranslatedText = out
		}
		res.Confidence = backendConfidence
		return res
	}
	if !errors.Is(err, completion.ErrUnavailable) {
		t.logger.WithError(err).WithFields(log.Fields{
			"source": source,
			"target": target,
		}).Warn("translation failed, using phrase book")
	}

	res.TranslatedText, res.Confidence = t.lookup(text, source, target)
	return res
}

func (t *Translator) lookup(text, source, target string) (out string, confidence float64) {
	defer func() {
		if r := recover(); r != nil {
			t.logger.WithField("panic", r).Error("phrase book lookup panicked")
			out, confidence = text, 0
		}
	}()
	if translated, ok := t.book.Lookup(text, source, target); ok {
		return translated, phraseBookConfidence
	}
	return text, unmatchedConfidence
}
