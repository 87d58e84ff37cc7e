// Package language detects the language of task input and normalizes it to
// English before analysis.
package language

import (
	"context"
	"errors"
	"fmt"
	"strings"

	log "github.com/sirupsen/logrus"

	"github.com/SzematPro/ai-task-manager/completion"
)

var errUnsupportedLanguage = errors.New("unsupported language")

// DetectionResult is the outcome of language detection. Confidence 0 with
// language en means no evaluation happened.
type DetectionResult struct {
	Language         string  `json:"language"`
	Confidence       float64 `json:"confidence"`
	NeedsTranslation bool    `json:"needsTranslation"`
}

const detectInstruction = `You are a language detection expert. Analyze the given text and determine its language. Return a JSON response with the following format:

{
  "language": "language_code (e.g., 'en', 'es', 'fr', 'de', 'it', 'pt')",
  "confidence": "number between 0 and 1",
  "needsTranslation": "boolean (true if not English, false if English)"
}

Guidelines:
- Detect the primary language of the text
- Return language codes: 'en' for English, 'es' for Spanish, 'fr' for French, 'de' for German, 'it' for Italian, 'pt' for Portuguese
- Set confidence between 0 and 1 (1 being most confident)
- Set needsTranslation to true if the language is not English, false if it's English
- Return only the JSON object`

// DefaultDetectOptions are the completion settings used for detection.
var DefaultDetectOptions = completion.Options{Model: "gpt-3.5-turbo", MaxTokens: 100, Temperature: 0.1}

// Detector classifies input text, falling back to a marker lexicon when the
// backend cannot answer.
type Detector struct {
	backend  completion.Backend
	opts     completion.Options
	fallback *Lexicon
	logger   *log.Logger
}

// NewDetector creates a detector. A nil backend always uses the lexicon.
func NewDetector(backend completion.Backend, logger *log.Logger) *Detector {
	if backend == nil {
		backend = completion.Unavailable{}
	}
	if logger == nil {
		logger = log.StandardLogger()
	}
	return &Detector{backend: backend, opts: DefaultDetectOptions, fallback: SpanishMarkers, logger: logger}
}

// WithOptions overrides the completion options.
func (d *Detector) WithOptions(opts completion.Options) *Detector {
	d.opts = opts
	return d
}

// WithLexicon replaces the fallback marker lexicon.
func (d *Detector) WithLexicon(l *Lexicon) *Detector {
	if l != nil {
		d.fallback = l
	}
	return d
}

// Detect never fails: backend errors downgrade to the lexicon path.
func (d *Detector) Detect(ctx context.Context, text string) DetectionResult {
	if strings.TrimSpace(text) == "" {
		return DetectionResult{Language: English}
	}
	res, err := d.detectRemote(ctx, text)
	if err == nil {
		return res
	}
	entry := d.logger.WithError(err)
	var malformed *completion.MalformedOutputError
	if errors.As(err, &malformed) {
		entry.WithField("raw", malformed.Raw).Warn("language detection returned malformed output, using lexicon")
	} else if !errors.Is(err, completion.ErrUnavailable) {
		entry.Warn("language detection failed, using lexicon")
	}
	return d.detectLexicon(text)
}

func (d *Detector) detectRemote(ctx context.Context, text string) (DetectionResult, error) {
	raw, err := d.backend.Complete(ctx, detectInstruction, fmt.Sprintf("Detect the language of this text: %q", text), d.opts)
	if err != nil {
		return DetectionResult{}, err
	}
	var p struct {
		Language   string            `json:"language"`
		Confidence completion.Number `json:"confidence"`
	}
	if err := completion.DecodeObject(raw, &p); err != nil {
		return DetectionResult{}, err
	}
	lang, ok := normalizeCode(p.Language)
	if !ok {
		return DetectionResult{}, fmt.Errorf("%w: %q", errUnsupportedLanguage, p.Language)
	}
	conf := float64(p.Confidence)
	if conf == 0 {
		conf = 0.5
	}
	return newResult(lang, conf), nil
}

func (d *Detector) detectLexicon(text string) DetectionResult {
	matches := d.fallback.Matches(text)
	if matches >= 2 {
		return newResult(d.fallback.Language, min(0.9, 0.5+0.1*float64(matches)))
	}
	return newResult(English, 0.3)
}

func newResult(lang string, confidence float64) DetectionResult {
	return DetectionResult{
		Language:         lang,
		Confidence:       clampUnit(confidence),
		NeedsTranslation: lang != English,
	}
}

// normalizeCode maps a backend answer to a supported code. It accepts
// region tags ("ES-mx") and English display names ("Spanish"). Empty
// answers mean en.
func normalizeCode(code string) (string, bool) {
	code = strings.ToLower(strings.TrimSpace(code))
	if code == "" {
		return English, true
	}
	if i := strings.IndexAny(code, "-_"); i > 0 {
		code = code[:i]
	}
	if Supported(code) {
		return code, true
	}
	for c, name := range names {
		if strings.EqualFold(name, code) {
			return c, true
		}
	}
	return "", false
}

func clampUnit(v float64) float64 {
	if v != v || v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
