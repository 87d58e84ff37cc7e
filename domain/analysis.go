package domain

const (
	DefaultCategory   = "General"
	DefaultScore      = 5
	DefaultConfidence = 80

	// FallbackConfidence marks an analysis produced without a backend.
	FallbackConfidence = 30
	// MinimalConfidence marks the last-resort analysis.
	MinimalConfidence = 50
)

// Analysis is the structured annotation set derived from a task description.
type Analysis struct {
	Title             string          `json:"title"`
	Priority          Priority        `json:"priority"`
	Category          string          `json:"category"`
	DueDate           *Date           `json:"due_date"`
	Urgency           int             `json:"urgency"`
	Importance        int             `json:"importance"`
	Complexity        Complexity      `json:"complexity"`
	Tags              []string        `json:"tags"`
	EstimatedDuration string          `json:"estimatedDuration,omitempty"`
	Subtasks          []string        `json:"subtasks"`
	Context           string          `json:"context,omitempty"`
	SuggestedActions  []string        `json:"suggestedActions"`
	Confidence        int             `json:"confidence"`
	Reasoning         []string        `json:"reasoning"`
	TimeSensitivity   TimeSensitivity `json:"timeSensitivity"`
	EmotionalContext  string          `json:"emotionalContext,omitempty"`
	WorkContext       WorkContext     `json:"workContext"`
	EnergyLevel       EnergyLevel     `json:"energyLevel"`
	SocialContext     SocialContext   `json:"socialContext"`
	LocationContext   string          `json:"locationContext,omitempty"`
	ToolsNeeded       []string        `json:"toolsNeeded"`
	Blockers          []string        `json:"blockers"`
	SuccessCriteria   []string        `json:"successCriteria"`
}

// MinimalAnalysis is the last-resort analysis: every field at its default and
// no due date.
func MinimalAnalysis(title string) Analysis {
	return Analysis{
		Title:            title,
		Priority:         PriorityMedium,
		Category:         DefaultCategory,
		Urgency:          DefaultScore,
		Importance:       DefaultScore,
		Complexity:       ComplexityModerate,
		Tags:             []string{},
		Subtasks:         []string{},
		SuggestedActions: []string{},
		Confidence:       MinimalConfidence,
		Reasoning:        []string{},
		TimeSensitivity:  TimeFlexible,
		WorkContext:      WorkPersonal,
		EnergyLevel:      EnergyMedium,
		SocialContext:    SocialSolo,
		ToolsNeeded:      []string{},
		Blockers:         []string{},
		SuccessCriteria:  []string{},
	}
}

// ClampScore bounds urgency and importance to 1..10.
func ClampScore(v int) int {
	return clamp(v, 1, 10)
}

// ClampConfidence bounds confidence to 0..100.
func ClampConfidence(v int) int {
	return clamp(v, 0, 100)
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}

func cloneStrings(s []string) []string {
	if s == nil {
		return []string{}
	}
	out := make([]string, len(s))
	copy(out, s)
	return out
}
