package language

import (
	"context"

	log "github.com/sirupsen/logrus"
)

// Result bundles the normalized text handed to analysis. ProfessionalTitle
// is a placeholder equal to TranslatedText until redaction runs.
type Result struct {
	OriginalText          string  `json:"originalText"`
	TranslatedText        string  `json:"translatedText"`
	ProfessionalTitle     string  `json:"professionalTitle"`
	SourceLanguage        string  `json:"sourceLanguage"`
	WasTranslated         bool    `json:"wasTranslated"`
	TranslationConfidence float64 `json:"translationConfidence"`
}

// Pipeline runs detection then, when needed, translation to English.
type Pipeline struct {
	detector   *Detector
	translator *Translator
	logger     *log.Logger
}

func NewPipeline(d *Detector, t *Translator, logger *log.Logger) *Pipeline {
	if logger == nil {
		logger = log.StandardLogger()
	}
	return &Pipeline{detector: d, translator: t, logger: logger}
}

// Process never fails. A panic in any stage yields a pass-through result.
func (p *Pipeline) Process(ctx context.Context, input string) (res Result) {
	defer func() {
		if r := recover(); r != nil {
			p.logger.WithField("panic", r).Error("multilingual processing failed")
			res = passThrough(input)
		}
	}()

	detection := p.detector.Detect(ctx, input)
	res = Result{
		OriginalText:          input,
		TranslatedText:        input,
		SourceLanguage:        detection.Language,
		TranslationConfidence: 1,
	}
	if detection.NeedsTranslation {
		tr := p.translator.Translate(ctx, input, detection.Language, English)
		res.TranslatedText = tr.TranslatedText
		res.WasTranslated = true
		res.TranslationConfidence = tr.Confidence
	}
	res.ProfessionalTitle = res.TranslatedText

	p.logger.WithFields(log.Fields{
		"language":   res.SourceLanguage,
		"confidence": detection.Confidence,
		"translated": res.WasTranslated,
	}).Debug("input normalized")
	return res
}

func passThrough(input string) Result {
	return Result{
		OriginalText:      input,
		TranslatedText:    input,
		ProfessionalTitle: input,
		SourceLanguage:    English,
	}
}
