package domain

import "strings"

// Status is the lifecycle state of a task.
type Status string

const (
	StatusPending Status = "pending"
	// StatusInProgress only appears on rows written by the structured CRUD
	// flow; the analysis pipeline never produces it.
	StatusInProgress Status = "in_progress"
	StatusCompleted  Status = "completed"
)

// Priority of a task.
type Priority string

const (
	PriorityLow    Priority = "low"
	PriorityMedium Priority = "medium"
	PriorityHigh   Priority = "high"
)

type Complexity string

const (
	ComplexitySimple   Complexity = "simple"
	ComplexityModerate Complexity = "moderate"
	ComplexityComplex  Complexity = "complex"
)

type TimeSensitivity string

const (
	TimeFlexible TimeSensitivity = "flexible"
	TimeSoon     TimeSensitivity = "soon"
	TimeUrgent   TimeSensitivity = "urgent"
)

type WorkContext string

const (
	WorkPersonal     WorkContext = "personal"
	WorkProfessional WorkContext = "professional"
)

type EnergyLevel string

const (
	EnergyLow    EnergyLevel = "low"
	EnergyMedium EnergyLevel = "medium"
	EnergyHigh   EnergyLevel = "high"
)

type SocialContext string

const (
	SocialSolo          SocialContext = "solo"
	SocialCollaborative SocialContext = "collaborative"
	SocialTeam          SocialContext = "team"
)

// canonical lowercases and trims an enum value before comparison.
func canonical[T ~string](v T) T {
	return T(strings.ToLower(strings.TrimSpace(string(v))))
}

// parseEnum lowercases raw and returns it when it is one of allowed,
// otherwise def. It never fails so enum fields are never left empty.
func parseEnum[T ~string](raw string, def T, allowed ...T) T {
	v := canonical(T(raw))
	for _, a := range allowed {
		if v == a {
			return v
		}
	}
	return def
}

func ParseStatus(s string) Status {
	return parseEnum(s, StatusPending, StatusPending, StatusInProgress, StatusCompleted)
}

func ParsePriority(s string) Priority {
	return parseEnum(s, PriorityMedium, PriorityLow, PriorityMedium, PriorityHigh)
}

func ParseComplexity(s string) Complexity {
	return parseEnum(s, ComplexityModerate, ComplexitySimple, ComplexityModerate, ComplexityComplex)
}

func ParseTimeSensitivity(s string) TimeSensitivity {
	return parseEnum(s, TimeFlexible, TimeFlexible, TimeSoon, TimeUrgent)
}

func ParseWorkContext(s string) WorkContext {
	return parseEnum(s, WorkPersonal, WorkPersonal, WorkProfessional)
}

func ParseEnergyLevel(s string) EnergyLevel {
	return parseEnum(s, EnergyMedium, EnergyLow, EnergyMedium, EnergyHigh)
}

func ParseSocialContext(s string) SocialContext {
	return parseEnum(s, SocialSolo, SocialSolo, SocialCollaborative, SocialTeam)
}

// Valid reports whether s is one of the known statuses.
func (s Status) Valid() bool {
	return s == StatusPending || s == StatusInProgress || s == StatusCompleted
}

// Valid reports whether p is one of the known priorities.
func (p Priority) Valid() bool {
	return p == PriorityLow || p == PriorityMedium || p == PriorityHigh
}

// Valid reports whether c is one of the known complexities.
func (c Complexity) Valid() bool {
	return c == ComplexitySimple || c == ComplexityModerate || c == ComplexityComplex
}

// Rank maps a priority to its sort ordinal.
func (p Priority) Rank() int {
	switch p {
	case PriorityHigh:
		return 3
	case PriorityMedium:
		return 2
	case PriorityLow:
		return 1
	}
	return 0
}
