package storage

import (
	"context"
	"slices"
	"sync"
	"time"

	"github.com/SzematPro/ai-task-manager/domain"
)

// Memory keeps tasks in process. It is the default repository when no
// external store is configured.
type Memory struct {
	mu    sync.RWMutex
	tasks map[string][]domain.Task
	now   func() time.Time
}

func NewMemory() *Memory {
	return &Memory{tasks: map[string][]domain.Task{}, now: time.Now}
}

func (m *Memory) List(ctx context.Context, ownerID string) ([]domain.Task, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]domain.Task, 0, len(m.tasks[ownerID]))
	for _, t := range m.tasks[ownerID] {
		out = append(out, t.Clone())
	}
	return out, nil
}

func (m *Memory) Insert(ctx context.Context, task domain.Task) (domain.Task, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.index(task.OwnerID, task.ID) >= 0 {
		return domain.Task{}, ErrDuplicate
	}
	m.tasks[task.OwnerID] = append(m.tasks[task.OwnerID], task.Clone())
	return task.Clone(), nil
}

func (m *Memory) Update(ctx context.Context, ownerID, id string, u domain.TaskUpdate) (domain.Task, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	i := m.index(ownerID, id)
	if i < 0 {
		return domain.Task{}, ErrNotFound
	}
	updated := u.Apply(m.tasks[ownerID][i], m.now().UTC())
	m.tasks[ownerID][i] = updated
	return updated.Clone(), nil
}

func (m *Memory) Delete(ctx context.Context, ownerID, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	i := m.index(ownerID, id)
	if i < 0 {
		return ErrNotFound
	}
	m.tasks[ownerID] = slices.Delete(m.tasks[ownerID], i, i+1)
	return nil
}

func (m *Memory) index(ownerID, id string) int {
	return slices.IndexFunc(m.tasks[ownerID], func(t domain.Task) bool { return t.ID == id })
}
