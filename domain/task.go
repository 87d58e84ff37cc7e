package domain

import (
	"errors"
	"strings"
	"time"
)

var (
	ErrInvalidStatus     = errors.New("invalid status")
	ErrInvalidPriority   = errors.New("invalid priority")
	ErrInvalidComplexity = errors.New("invalid complexity")
)

// Task is the canonical, analysis-bearing task record owned by a single user.
type Task struct {
	ID                string          `json:"id"`
	OwnerID           string          `json:"ownerId"`
	Title             string          `json:"title"`
	Description       string          `json:"description,omitempty"`
	Status            Status          `json:"status"`
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
	EmotionalContext  string          `json:"emotionalContext,omitempty"`
	LocationContext   string          `json:"locationContext,omitempty"`
	SuggestedActions  []string        `json:"suggestedActions"`
	Blockers          []string        `json:"blockers"`
	SuccessCriteria   []string        `json:"successCriteria"`
	ToolsNeeded       []string        `json:"toolsNeeded"`
	Reasoning         []string        `json:"reasoning"`
	Confidence        int             `json:"confidence"`
	TimeSensitivity   TimeSensitivity `json:"timeSensitivity"`
	WorkContext       WorkContext     `json:"workContext"`
	EnergyLevel       EnergyLevel     `json:"energyLevel"`
	SocialContext     SocialContext   `json:"socialContext"`
	OriginalText      string          `json:"originalText,omitempty"`
	SourceLanguage    string          `json:"sourceLanguage,omitempty"`
	CreatedAt         time.Time       `json:"createdAt"`
	UpdatedAt         time.Time       `json:"updatedAt"`
}

// Completed reports whether the task is done.
func (t Task) Completed() bool {
	return t.Status == StatusCompleted
}

// NewTaskFromAnalysis builds a pending task carrying every annotation of a.
// title wins over a.Title when set.
func NewTaskFromAnalysis(ownerID, title string, a Analysis) Task {
	if strings.TrimSpace(title) == "" {
		title = a.Title
	}
	t := Task{
		OwnerID:           ownerID,
		Title:             title,
		Status:            StatusPending,
		Priority:          a.Priority,
		Category:          a.Category,
		Urgency:           a.Urgency,
		Importance:        a.Importance,
		Complexity:        a.Complexity,
		Tags:              cloneStrings(a.Tags),
		EstimatedDuration: a.EstimatedDuration,
		Subtasks:          cloneStrings(a.Subtasks),
		Context:           a.Context,
		EmotionalContext:  a.EmotionalContext,
		LocationContext:   a.LocationContext,
		SuggestedActions:  cloneStrings(a.SuggestedActions),
		Blockers:          cloneStrings(a.Blockers),
		SuccessCriteria:   cloneStrings(a.SuccessCriteria),
		ToolsNeeded:       cloneStrings(a.ToolsNeeded),
		Reasoning:         cloneStrings(a.Reasoning),
		Confidence:        a.Confidence,
		TimeSensitivity:   a.TimeSensitivity,
		WorkContext:       a.WorkContext,
		EnergyLevel:       a.EnergyLevel,
		SocialContext:     a.SocialContext,
	}
	if a.DueDate != nil {
		t.DueDate = DatePtr(*a.DueDate)
	}
	t.Normalize()
	return t
}

// Normalize enforces the record invariants: enums hold a known value,
// scores are clamped, lists are never nil.
func (t *Task) Normalize() {
	t.Title = strings.TrimSpace(t.Title)
	t.Status = ParseStatus(string(t.Status))
	t.Priority = ParsePriority(string(t.Priority))
	t.Complexity = ParseComplexity(string(t.Complexity))
	t.TimeSensitivity = ParseTimeSensitivity(string(t.TimeSensitivity))
	t.WorkContext = ParseWorkContext(string(t.WorkContext))
	t.EnergyLevel = ParseEnergyLevel(string(t.EnergyLevel))
	t.SocialContext = ParseSocialContext(string(t.SocialContext))
	if strings.TrimSpace(t.Category) == "" {
		t.Category = DefaultCategory
	}
	if t.Urgency == 0 {
		t.Urgency = DefaultScore
	}
	if t.Importance == 0 {
		t.Importance = DefaultScore
	}
	t.Urgency = ClampScore(t.Urgency)
	t.Importance = ClampScore(t.Importance)
	t.Confidence = ClampConfidence(t.Confidence)
	t.Tags = nonNil(t.Tags)
	t.Subtasks = nonNil(t.Subtasks)
	t.SuggestedActions = nonNil(t.SuggestedActions)
	t.Blockers = nonNil(t.Blockers)
	t.SuccessCriteria = nonNil(t.SuccessCriteria)
	t.ToolsNeeded = nonNil(t.ToolsNeeded)
	t.Reasoning = nonNil(t.Reasoning)
}

// Clone returns a deep copy so callers cannot mutate shared slices.
func (t Task) Clone() Task {
	c := t
	c.Tags = cloneStrings(t.Tags)
	c.Subtasks = cloneStrings(t.Subtasks)
	c.SuggestedActions = cloneStrings(t.SuggestedActions)
	c.Blockers = cloneStrings(t.Blockers)
	c.SuccessCriteria = cloneStrings(t.SuccessCriteria)
	c.ToolsNeeded = cloneStrings(t.ToolsNeeded)
	c.Reasoning = cloneStrings(t.Reasoning)
	if t.DueDate != nil {
		c.DueDate = DatePtr(*t.DueDate)
	}
	return c
}

// CreateInput is the structured (non-AI) creation payload. The legacy
// dueDate key is read as a fallback for due_date.
type CreateInput struct {
	Title         string   `json:"title"`
	Description   string   `json:"description,omitempty"`
	DueDate       *Date    `json:"due_date,omitempty"`
	LegacyDueDate *Date    `json:"dueDate,omitempty"`
	Priority      Priority `json:"priority,omitempty"`
	Category      string   `json:"category,omitempty"`
	Tags          []string `json:"tags,omitempty"`
}

// Validate rejects an explicit priority outside the known set. An empty
// priority falls back to the default.
func (in CreateInput) Validate() error {
	if in.Priority != "" && !canonical(in.Priority).Valid() {
		return ErrInvalidPriority
	}
	return nil
}

// Task converts the input into a pending task with default annotations.
func (in CreateInput) Task(ownerID string) Task {
	t := Task{
		OwnerID:     ownerID,
		Title:       in.Title,
		Description: in.Description,
		Status:      StatusPending,
		Priority:    in.Priority,
		Category:    in.Category,
		Tags:        cloneStrings(in.Tags),
		Confidence:  100,
	}
	switch {
	case in.DueDate != nil && !in.DueDate.IsZero():
		t.DueDate = DatePtr(*in.DueDate)
	case in.LegacyDueDate != nil && !in.LegacyDueDate.IsZero():
		t.DueDate = DatePtr(*in.LegacyDueDate)
	}
	t.Normalize()
	return t
}

// TaskUpdate carries a partial update. Nil fields are left untouched.
type TaskUpdate struct {
	Title             *string     `json:"title,omitempty"`
	Description       *string     `json:"description,omitempty"`
	Status            *Status     `json:"status,omitempty"`
	Priority          *Priority   `json:"priority,omitempty"`
	Category          *string     `json:"category,omitempty"`
	DueDate           *Date       `json:"due_date,omitempty"`
	ClearDueDate      bool        `json:"clearDueDate,omitempty"`
	Urgency           *int        `json:"urgency,omitempty"`
	Importance        *int        `json:"importance,omitempty"`
	Complexity        *Complexity `json:"complexity,omitempty"`
	Tags              []string    `json:"tags,omitempty"`
	EstimatedDuration *string     `json:"estimatedDuration,omitempty"`
}

// Empty reports whether the update changes nothing.
func (u TaskUpdate) Empty() bool {
	return u.Title == nil && u.Description == nil && u.Status == nil && u.Priority == nil &&
		u.Category == nil && u.DueDate == nil && !u.ClearDueDate && u.Urgency == nil &&
		u.Importance == nil && u.Complexity == nil && u.Tags == nil && u.EstimatedDuration == nil
}

// Validate rejects enum values outside the known sets, so a typo never
// silently resets a field to its default.
func (u TaskUpdate) Validate() error {
	if u.Status != nil && !canonical(*u.Status).Valid() {
		return ErrInvalidStatus
	}
	if u.Priority != nil && !canonical(*u.Priority).Valid() {
		return ErrInvalidPriority
	}
	if u.Complexity != nil && !canonical(*u.Complexity).Valid() {
		return ErrInvalidComplexity
	}
	return nil
}

// Apply returns t with the update merged in and UpdatedAt set to now.
func (u TaskUpdate) Apply(t Task, now time.Time) Task {
	out := t.Clone()
	if u.Title != nil && strings.TrimSpace(*u.Title) != "" {
		out.Title = *u.Title
	}
	if u.Description != nil {
		out.Description = *u.Description
	}
	if u.Status != nil {
		out.Status = *u.Status
	}
	if u.Priority != nil {
		out.Priority = *u.Priority
	}
	if u.Category != nil {
		out.Category = *u.Category
	}
	if u.ClearDueDate {
		out.DueDate = nil
	} else if u.DueDate != nil && !u.DueDate.IsZero() {
		out.DueDate = DatePtr(*u.DueDate)
	}
	if u.Urgency != nil {
		out.Urgency = *u.Urgency
	}
	if u.Importance != nil {
		out.Importance = *u.Importance
	}
	if u.Complexity != nil {
		out.Complexity = *u.Complexity
	}
	if u.Tags != nil {
		out.Tags = cloneStrings(u.Tags)
	}
	if u.EstimatedDuration != nil {
		out.EstimatedDuration = *u.EstimatedDuration
	}
	out.UpdatedAt = now
	out.Normalize()
	return out
}
