// Package pipeline runs one task submission through every analysis stage.
package pipeline

import (
	"context"
	"errors"
	"strings"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/SzematPro/ai-task-manager/analysis"
	"github.com/SzematPro/ai-task-manager/domain"
	"github.com/SzematPro/ai-task-manager/language"
)

// ErrEmptyInput rejects blank submissions before any backend call.
var ErrEmptyInput = errors.New("input is required")

// Stage names reported in Result.Timings.
const (
	StageLanguage = "language"
	StageAnalyze  = "analyze"
	StageRedact   = "redact"
)

// Result is the outcome of a submission.
type Result struct {
	OriginalText          string          `json:"originalText"`
	TranslatedText        string          `json:"translatedText"`
	ProfessionalTitle     string          `json:"professionalTitle"`
	SourceLanguage        string          `json:"sourceLanguage"`
	WasTranslated         bool            `json:"wasTranslated"`
	TranslationConfidence float64         `json:"translationConfidence"`
	Analysis              domain.Analysis `json:"analysis"`

	Timings map[string]time.Duration `json:"-"`
}

// Processor chains language normalization, analysis and redaction.
type Processor struct {
	languages *language.Pipeline
	analyzer  *analysis.Analyzer
	redactor  *analysis.Redactor
	logger    *log.Logger
}

func NewProcessor(languages *language.Pipeline, analyzer *analysis.Analyzer, redactor *analysis.Redactor, logger *log.Logger) *Processor {
	if logger == nil {
		logger = log.StandardLogger()
	}
	return &Processor{languages: languages, analyzer: analyzer, redactor: redactor, logger: logger}
}

// Process runs the stages in order. Only blank input and a cancelled
// context produce an error; every stage degrades on its own.
func (p *Processor) Process(ctx context.Context, input, currentDate string) (Result, error) {
	if strings.TrimSpace(input) == "" {
		return Result{}, ErrEmptyInput
	}
	timings := make(map[string]time.Duration, 3)

	start := time.Now()
	lang := p.languages.Process(ctx, input)
	timings[StageLanguage] = time.Since(start)

	start = time.Now()
	a := p.analyzer.Analyze(ctx, lang.TranslatedText, currentDate)
	timings[StageAnalyze] = time.Since(start)

	start = time.Now()
	title := p.redactor.Redact(ctx, lang.OriginalText, lang.TranslatedText, a)
	timings[StageRedact] = time.Since(start)

	if err := ctx.Err(); err != nil {
		return Result{}, err
	}

	p.logger.WithFields(log.Fields{
		"language":   lang.SourceLanguage,
		"translated": lang.WasTranslated,
		"confidence": a.Confidence,
		"category":   a.Category,
	}).Debug("task processed")

	return Result{
		OriginalText:          lang.OriginalText,
		TranslatedText:        lang.TranslatedText,
		ProfessionalTitle:     title,
		SourceLanguage:        lang.SourceLanguage,
		WasTranslated:         lang.WasTranslated,
		TranslationConfidence: lang.TranslationConfidence,
		Analysis:              a,
		Timings:               timings,
	}, nil
}

// Task turns a result into a task owned by ownerID, titled with the
// professional title.
func (r Result) Task(ownerID string) domain.Task {
	t := domain.NewTaskFromAnalysis(ownerID, r.ProfessionalTitle, r.Analysis)
	t.OriginalText = r.OriginalText
	t.SourceLanguage = r.SourceLanguage
	return t
}
