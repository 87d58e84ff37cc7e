package analysis

import "github.com/SzematPro/ai-task-manager/domain"

// Plausible reports whether due can be trusted relative to ref: not in the
// past, not in an earlier year or month, and at most one year ahead.
func Plausible(due, ref domain.Date) bool {
	switch {
	case due.Before(ref.Time):
		return false
	case due.Year() < ref.Year():
		return false
	case due.Year() == ref.Year() && due.Month() < ref.Month():
		return false
	case due.Year() > ref.Year()+1:
		return false
	}
	return true
}

// SubstituteDueDate picks a due date from priority alone: 2 days for high,
// 14 for low, 7 otherwise. A date spilling past ref's month becomes the
// first day of the next month.
func SubstituteDueDate(ref domain.Date, p domain.Priority) domain.Date {
	offset := 7
	switch p {
	case domain.PriorityHigh:
		offset = 2
	case domain.PriorityLow:
		offset = 14
	}
	candidate := ref.AddDays(offset)
	if candidate.Year() == ref.Year() && candidate.Month() == ref.Month() {
		return candidate
	}
	return ref.FirstOfNextMonth()
}

// RepairDueDate returns due unchanged when plausible, otherwise the
// substitute date. The second result reports whether a repair happened.
func RepairDueDate(due, ref domain.Date, p domain.Priority) (domain.Date, bool) {
	if Plausible(due, ref) {
		return due, false
	}
	return SubstituteDueDate(ref, p), true
}
