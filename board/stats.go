package board

import "github.com/SzematPro/ai-task-manager/domain"

// Stats summarizes a task collection.
type Stats struct {
	Total      int `json:"total"`
	Pending    int `json:"pending"`
	InProgress int `json:"inProgress"`
	Completed  int `json:"completed"`
	Overdue    int `json:"overdue"`
}

// ComputeStats counts tasks by status. A task is overdue when it is not
// completed and its due date is before today.
func ComputeStats(tasks []domain.Task, today domain.Date) Stats {
	s := Stats{Total: len(tasks)}
	for _, t := range tasks {
		switch t.Status {
		case domain.StatusPending:
			s.Pending++
		case domain.StatusInProgress:
			s.InProgress++
		case domain.StatusCompleted:
			s.Completed++
		}
		if !t.Completed() && t.DueDate != nil && t.DueDate.Before(today.Time) {
			s.Overdue++
		}
	}
	return s
}
