package domain

import (
	"time"

	"github.com/bytedance/sonic"
	"github.com/google/uuid"
)

const (
	EventTaskCreated = "task-created"
	EventTaskUpdated = "task-updated"
	EventTaskDeleted = "task-deleted"
)

// Event describes a task mutation published to the event stream.
type Event struct {
	ID        string                 `json:"id"`
	Type      string                 `json:"type"`
	TaskID    string                 `json:"taskId"`
	Data      sonic.NoCopyRawMessage `json:"data,omitempty"`
	Timestamp int64                  `json:"timestamp"`
}

// EventEnvelope wraps an event with the user whose board changed.
type EventEnvelope struct {
	UserID string `json:"userId"`
	Event  Event  `json:"event"`
}

// NewEvent encodes task as the payload of a kind event.
func NewEvent(kind string, task Task) (Event, error) {
	data, err := sonic.Marshal(task)
	if err != nil {
		return Event{}, err
	}
	return Event{
		ID:        uuid.NewString(),
		Type:      kind,
		TaskID:    task.ID,
		Data:      data,
		Timestamp: time.Now().UnixMilli(),
	}, nil
}
