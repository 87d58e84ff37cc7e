package analysis

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/SzematPro/ai-task-manager/completion"
	"github.com/SzematPro/ai-task-manager/domain"
)

const (
	fallbackContext = "Basic task analysis - AI analysis unavailable"
	fallbackBlocker = "AI analysis unavailable"
	fallbackDueDays = 3
)

var fallbackActions = []string{
	"Review the task requirements",
	"Plan your approach",
	"Set a timeline for completion",
	"Track your progress",
}

// Analyzer extracts a domain.Analysis from English task text.
type Analyzer struct {
	backend completion.Backend
	opts    completion.Options
	now     func() time.Time
	logger  *log.Logger
}

// NewAnalyzer creates an analyzer. A nil backend always yields the fallback
// analysis.
func NewAnalyzer(backend completion.Backend, logger *log.Logger) *Analyzer {
	if backend == nil {
		backend = completion.Unavailable{}
	}
	if logger == nil {
		logger = log.StandardLogger()
	}
	return &Analyzer{backend: backend, opts: DefaultAnalyzeOptions, now: time.Now, logger: logger}
}

// WithOptions overrides the completion options.
func (a *Analyzer) WithOptions(opts completion.Options) *Analyzer {
	a.opts = opts
	return a
}

// WithClock replaces the clock used when no reference date is given.
func (a *Analyzer) WithClock(now func() time.Time) *Analyzer {
	if now != nil {
		a.now = now
	}
	return a
}

// ReferenceDate parses a YYYY-MM-DD reference date. Blank or invalid input
// resolves to today in UTC.
func (a *Analyzer) ReferenceDate(raw string) domain.Date {
	if d, err := domain.ParseDate(raw); err == nil {
		return d
	}
	return domain.DateOf(a.now().UTC())
}

// Analyze never fails. Backend or parse failures yield Fallback; a failure
// while building the fallback yields domain.MinimalAnalysis.
func (a *Analyzer) Analyze(ctx context.Context, text, referenceDate string) (out domain.Analysis) {
	defer func() {
		if r := recover(); r != nil {
			a.logger.WithField("panic", r).Error("fallback analysis failed, using minimal defaults")
			out = domain.MinimalAnalysis(text)
		}
	}()

	ref := a.ReferenceDate(referenceDate)
	res, err := a.analyzeRemote(ctx, text, ref)
	if err == nil {
		return res
	}

	entry := a.logger.WithError(err)
	var malformed *completion.MalformedOutputError
	switch {
	case errors.As(err, &malformed):
		entry.WithField("raw", malformed.Raw).Warn("analysis returned malformed output, using fallback")
	case errors.Is(err, completion.ErrUnavailable):
		entry.Debug("analysis backend unavailable, using fallback")
	default:
		entry.Warn("analysis failed, using fallback")
	}
	return Fallback(text, ref)
}

func (a *Analyzer) analyzeRemote(ctx context.Context, text string, ref domain.Date) (res domain.Analysis, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("analysis panicked: %v", r)
		}
	}()
	raw, err := a.backend.Complete(ctx, analyzeInstruction(ref), analyzeUserMessage(text), a.opts)
	if err != nil {
		return domain.Analysis{}, err
	}
	var payload rawAnalysis
	if err := completion.DecodeObject(raw, &payload); err != nil {
		return domain.Analysis{}, err
	}
	res = payload.toAnalysis(text)
	if payload.DueDate != nil && strings.TrimSpace(*payload.DueDate) != "" && *payload.DueDate != "null" {
		due, parseErr := domain.ParseDate(*payload.DueDate)
		repaired := parseErr != nil
		if parseErr == nil {
			due, repaired = RepairDueDate(due, ref, res.Priority)
		} else {
			due = SubstituteDueDate(ref, res.Priority)
		}
		if repaired {
			a.logger.WithFields(log.Fields{
				"raw":       *payload.DueDate,
				"reference": ref.String(),
				"repaired":  due.String(),
			}).Info("repaired implausible due date")
		}
		res.DueDate = domain.DatePtr(due)
	}
	return res, nil
}

// Fallback is the deterministic analysis used when the backend cannot help.
func Fallback(text string, ref domain.Date) domain.Analysis {
	a := domain.MinimalAnalysis(text)
	a.DueDate = domain.DatePtr(ref.AddDays(fallbackDueDays))
	a.Context = fallbackContext
	a.SuggestedActions = append([]string(nil), fallbackActions...)
	a.Confidence = domain.FallbackConfidence
	a.Reasoning = []string{"Fallback analysis used - AI analysis unavailable"}
	a.Blockers = []string{fallbackBlocker}
	a.SuccessCriteria = []string{"Task completed successfully"}
	return a
}

// rawAnalysis is the tolerant wire shape of the backend answer.
type rawAnalysis struct {
	Title             string            `json:"title"`
	Priority          string            `json:"priority"`
	Category          string            `json:"category"`
	DueDate           *string           `json:"due_date"`
	Urgency           completion.Number `json:"urgency"`
	Importance        completion.Number `json:"importance"`
	Complexity        string            `json:"complexity"`
	Tags              []string          `json:"tags"`
	EstimatedDuration *string           `json:"estimatedDuration"`
	Subtasks          []string          `json:"subtasks"`
	Context           *string           `json:"context"`
	SuggestedActions  []string          `json:"suggestedActions"`
	Confidence        completion.Number `json:"confidence"`
	Reasoning         []string          `json:"reasoning"`
	TimeSensitivity   string            `json:"timeSensitivity"`
	EmotionalContext  *string           `json:"emotionalContext"`
	WorkContext       string            `json:"workContext"`
	EnergyLevel       string            `json:"energyLevel"`
	SocialContext     string            `json:"socialContext"`
	LocationContext   *string           `json:"locationContext"`
	ToolsNeeded       []string          `json:"toolsNeeded"`
	Blockers          []string          `json:"blockers"`
	SuccessCriteria   []string          `json:"successCriteria"`
}

// toAnalysis applies every default at the parse boundary. The due date is
// handled by the caller.
func (r rawAnalysis) toAnalysis(input string) domain.Analysis {
	title := strings.TrimSpace(r.Title)
	if title == "" {
		title = input
	}
	category := strings.TrimSpace(r.Category)
	if category == "" {
		category = domain.DefaultCategory
	}
	return domain.Analysis{
		Title:             title,
		Priority:          domain.ParsePriority(r.Priority),
		Category:          category,
		Urgency:           score(r.Urgency, domain.DefaultScore, domain.ClampScore),
		Importance:        score(r.Importance, domain.DefaultScore, domain.ClampScore),
		Complexity:        domain.ParseComplexity(r.Complexity),
		Tags:              list(r.Tags),
		EstimatedDuration: optional(r.EstimatedDuration),
		Subtasks:          list(r.Subtasks),
		Context:           optional(r.Context),
		SuggestedActions:  list(r.SuggestedActions),
		Confidence:        score(r.Confidence, domain.DefaultConfidence, domain.ClampConfidence),
		Reasoning:         list(r.Reasoning),
		TimeSensitivity:   domain.ParseTimeSensitivity(r.TimeSensitivity),
		EmotionalContext:  optional(r.EmotionalContext),
		WorkContext:       domain.ParseWorkContext(r.WorkContext),
		EnergyLevel:       domain.ParseEnergyLevel(r.EnergyLevel),
		SocialContext:     domain.ParseSocialContext(r.SocialContext),
		LocationContext:   optional(r.LocationContext),
		ToolsNeeded:       list(r.ToolsNeeded),
		Blockers:          list(r.Blockers),
		SuccessCriteria:   list(r.SuccessCriteria),
	}
}

// score treats zero as missing.
func score(n completion.Number, def int, clamp func(int) int) int {
	v := n.Int()
	if v == 0 {
		v = def
	}
	return clamp(v)
}

func optional(s *string) string {
	if s == nil {
		return ""
	}
	v := strings.TrimSpace(*s)
	if v == "null" {
		return ""
	}
	return v
}

func list(in []string) []string {
	out := make([]string, 0, len(in))
	for _, s := range in {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}
