// Package board holds a user's task collection and derives its filtered,
// sorted view.
package board

import (
	"cmp"
	"slices"
	"strings"

	"github.com/SzematPro/ai-task-manager/domain"
)

// Wildcard disables a filter dimension. An empty value does too.
const Wildcard = "all"

type SortField string

const (
	SortDueDate           SortField = "due_date"
	SortPriority          SortField = "priority"
	SortUrgency           SortField = "urgency"
	SortCreatedAt         SortField = "created_at"
	SortEstimatedDuration SortField = "estimatedDuration"
)

type Direction string

const (
	Ascending  Direction = "asc"
	Descending Direction = "desc"
)

// ParseSortField reports false for unknown fields.
func ParseSortField(s string) (SortField, bool) {
	switch f := SortField(strings.TrimSpace(s)); f {
	case SortDueDate, SortPriority, SortUrgency, SortCreatedAt, SortEstimatedDuration:
		return f, true
	case "dueDate":
		return SortDueDate, true
	case "createdAt":
		return SortCreatedAt, true
	}
	return "", false
}

// ParseDirection reports false for anything but asc or desc.
func ParseDirection(s string) (Direction, bool) {
	switch d := Direction(strings.ToLower(strings.TrimSpace(s))); d {
	case Ascending, Descending:
		return d, true
	}
	return "", false
}

// Filter narrows the view. DueFrom and DueTo bound due dates inclusively;
// tasks without a due date always pass them.
type Filter struct {
	Status   string       `json:"status"`
	Priority string       `json:"priority"`
	Category string       `json:"category"`
	DueFrom  *domain.Date `json:"dueFrom,omitempty"`
	DueTo    *domain.Date `json:"dueTo,omitempty"`
}

type Sort struct {
	Field     SortField `json:"field"`
	Direction Direction `json:"direction"`
}

// View is the complete specification of a derived task list.
type View struct {
	Filter Filter `json:"filter"`
	Sort   Sort   `json:"sort"`
	Query  string `json:"query"`
}

// DefaultView shows everything, newest first.
func DefaultView() View {
	return View{
		Filter: Filter{Status: Wildcard, Priority: Wildcard, Category: Wildcard},
		Sort:   Sort{Field: SortCreatedAt, Direction: Descending},
	}
}

// Apply filters and sorts tasks into a fresh slice. It is pure: the same
// inputs always give the same order, and tasks is never modified.
func Apply(tasks []domain.Task, v View) []domain.Task {
	query := strings.ToLower(strings.TrimSpace(v.Query))
	out := make([]domain.Task, 0, len(tasks))
	for _, t := range tasks {
		if !matchesQuery(t, query) || !v.Filter.matches(t) {
			continue
		}
		out = append(out, t.Clone())
	}
	slices.SortFunc(out, v.Sort.compare)
	return out
}

func matchesQuery(t domain.Task, query string) bool {
	if query == "" {
		return true
	}
	if strings.Contains(strings.ToLower(t.Title), query) || strings.Contains(strings.ToLower(t.Category), query) {
		return true
	}
	for _, tag := range t.Tags {
		if strings.Contains(strings.ToLower(tag), query) {
			return true
		}
	}
	return false
}

func (f Filter) matches(t domain.Task) bool {
	if !matchValue(f.Status, string(t.Status)) || !matchValue(f.Priority, string(t.Priority)) || !matchValue(f.Category, t.Category) {
		return false
	}
	if t.DueDate == nil {
		return true
	}
	if f.DueFrom != nil && t.DueDate.Before(f.DueFrom.Time) {
		return false
	}
	if f.DueTo != nil && t.DueDate.After(f.DueTo.Time) {
		return false
	}
	return true
}

func matchValue(filter, value string) bool {
	return filter == "" || filter == Wildcard || filter == value
}

// compare orders completed tasks last, then by the sort field, then by
// creation time (newest first) and ID.
func (s Sort) compare(a, b domain.Task) int {
	if ac, bc := a.Completed(), b.Completed(); ac != bc {
		if ac {
			return 1
		}
		return -1
	}
	if c := s.compareField(a, b); c != 0 {
		return c
	}
	if c := b.CreatedAt.Compare(a.CreatedAt); c != 0 {
		return c
	}
	return strings.Compare(a.ID, b.ID)
}

func (s Sort) compareField(a, b domain.Task) int {
	field := s.Field
	if field == "" {
		field = SortCreatedAt
	}
	if field == SortDueDate {
		// Missing due dates stay last in either direction.
		switch {
		case a.DueDate == nil && b.DueDate == nil:
			return 0
		case a.DueDate == nil:
			return 1
		case b.DueDate == nil:
			return -1
		}
	}

	var c int
	switch field {
	case SortDueDate:
		c = a.DueDate.Compare(b.DueDate.Time)
	case SortPriority:
		c = cmp.Compare(a.Priority.Rank(), b.Priority.Rank())
	case SortUrgency:
		c = cmp.Compare(a.Urgency, b.Urgency)
	case SortEstimatedDuration:
		c = cmp.Compare(durationBucket(a.EstimatedDuration), durationBucket(b.EstimatedDuration))
	default:
		c = a.CreatedAt.Compare(b.CreatedAt)
	}
	if s.Direction == Descending {
		return -c
	}
	return c
}

// durationBucket maps a free-text duration onto a coarse ordinal.
func durationBucket(d string) int {
	d = strings.ToLower(d)
	switch {
	case strings.TrimSpace(d) == "":
		return 0
	case strings.Contains(d, "minute"):
		return 1
	case strings.Contains(d, "hour"):
		return 2
	case strings.Contains(d, "day"):
		return 3
	}
	return 0
}
