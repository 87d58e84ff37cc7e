package board

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"

	"github.com/SzematPro/ai-task-manager/domain"
	"github.com/SzematPro/ai-task-manager/pipeline"
)

var (
	ErrTaskNotFound     = errors.New("task not found")
	ErrTaskLimitReached = errors.New("task limit reached")
)

// Repository persists a user's tasks.
type Repository interface {
	List(ctx context.Context, ownerID string) ([]domain.Task, error)
	Insert(ctx context.Context, task domain.Task) (domain.Task, error)
	Update(ctx context.Context, ownerID, id string, u domain.TaskUpdate) (domain.Task, error)
	Delete(ctx context.Context, ownerID, id string) error
}

// Processor turns natural-language input into an analysed result.
type Processor interface {
	Process(ctx context.Context, input, currentDate string) (pipeline.Result, error)
}

// Publisher receives task events. Publish must not block for long.
type Publisher interface {
	Publish(ctx context.Context, ownerID string, ev domain.Event)
}

// Options configure a Board. Zero values are usable.
type Options struct {
	// MaxTasks caps the collection size; 0 means unlimited.
	MaxTasks  int
	Now       func() time.Time
	Logger    *log.Logger
	Publisher Publisher
}

// Board is the state container for one user's tasks. Every mutation ends in
// recompute, the only place the filtered view is derived. The lock is
// never held across repository or processor calls.
type Board struct {
	ownerID   string
	repo      Repository
	processor Processor
	opts      Options
	logger    *log.Logger

	mu       sync.RWMutex
	tasks    []domain.Task
	view     View
	filtered []domain.Task
	reserved int
}

// New creates an empty board for ownerID.
func New(ownerID string, repo Repository, processor Processor, opts Options) *Board {
	if opts.Now == nil {
		opts.Now = time.Now
	}
	logger := opts.Logger
	if logger == nil {
		logger = log.StandardLogger()
	}
	b := &Board{
		ownerID:   ownerID,
		repo:      repo,
		processor: processor,
		opts:      opts,
		logger:    logger,
		view:      DefaultView(),
	}
	b.recompute()
	return b
}

// Load replaces the collection with the repository contents. Its error is
// the only persistence failure surfaced to callers.
func (b *Board) Load(ctx context.Context) error {
	tasks, err := b.repo.List(ctx, b.ownerID)
	if err != nil {
		return fmt.Errorf("load tasks: %w", err)
	}
	for i := range tasks {
		tasks[i].Normalize()
	}
	b.mu.Lock()
	b.tasks = tasks
	b.recompute()
	b.mu.Unlock()
	return nil
}

// AddTask runs input through the processor and stores the resulting task.
func (b *Board) AddTask(ctx context.Context, input, currentDate string) (domain.Task, pipeline.Result, error) {
	if strings.TrimSpace(input) == "" {
		return domain.Task{}, pipeline.Result{}, pipeline.ErrEmptyInput
	}
	if err := b.reserve(); err != nil {
		return domain.Task{}, pipeline.Result{}, err
	}

	res, err := b.processor.Process(ctx, input, currentDate)
	if err != nil {
		b.release()
		return domain.Task{}, pipeline.Result{}, err
	}
	task := b.insert(ctx, res.Task(b.ownerID))
	return task, res, nil
}

// CreateTask stores a task from structured input, skipping analysis.
func (b *Board) CreateTask(ctx context.Context, in domain.CreateInput) (domain.Task, error) {
	if strings.TrimSpace(in.Title) == "" {
		return domain.Task{}, pipeline.ErrEmptyInput
	}
	if err := b.reserve(); err != nil {
		return domain.Task{}, err
	}
	return b.insert(ctx, in.Task(b.ownerID)), nil
}

// insert stores a task whose slot was taken by reserve.
func (b *Board) insert(ctx context.Context, task domain.Task) domain.Task {
	now := b.opts.Now().UTC()
	task.ID = uuid.NewString()
	task.OwnerID = b.ownerID
	task.CreatedAt = now
	task.UpdatedAt = now

	if stored, err := b.repo.Insert(ctx, task); err != nil {
		b.logger.WithError(err).WithField("taskId", task.ID).Warn("persist task failed, keeping in memory")
	} else {
		task = stored
		task.Normalize()
	}

	b.mu.Lock()
	b.tasks = append(b.tasks, task)
	b.reserved--
	b.recompute()
	b.mu.Unlock()

	b.publish(ctx, domain.EventTaskCreated, task)
	return task.Clone()
}

// UpdateTask merges u into the task with the given id.
func (b *Board) UpdateTask(ctx context.Context, id string, u domain.TaskUpdate) (domain.Task, error) {
	return b.mutate(ctx, id, func(domain.Task) domain.TaskUpdate { return u })
}

// ToggleTask flips a task between completed and pending.
func (b *Board) ToggleTask(ctx context.Context, id string) (domain.Task, error) {
	return b.mutate(ctx, id, func(t domain.Task) domain.TaskUpdate {
		next := domain.StatusCompleted
		if t.Completed() {
			next = domain.StatusPending
		}
		return domain.TaskUpdate{Status: &next}
	})
}

func (b *Board) mutate(ctx context.Context, id string, change func(domain.Task) domain.TaskUpdate) (domain.Task, error) {
	b.mu.Lock()
	i := b.indexOf(id)
	if i < 0 {
		b.mu.Unlock()
		return domain.Task{}, ErrTaskNotFound
	}
	u := change(b.tasks[i])
	updated := u.Apply(b.tasks[i], b.opts.Now().UTC())
	b.tasks[i] = updated
	b.recompute()
	b.mu.Unlock()

	if _, err := b.repo.Update(ctx, b.ownerID, id, u); err != nil {
		b.logger.WithError(err).WithField("taskId", id).Warn("persist task update failed, keeping in memory")
	}
	b.publish(ctx, domain.EventTaskUpdated, updated)
	return updated.Clone(), nil
}

// DeleteTask removes the task with the given id.
func (b *Board) DeleteTask(ctx context.Context, id string) error {
	b.mu.Lock()
	i := b.indexOf(id)
	if i < 0 {
		b.mu.Unlock()
		return ErrTaskNotFound
	}
	removed := b.tasks[i]
	b.tasks = append(b.tasks[:i:i], b.tasks[i+1:]...)
	b.recompute()
	b.mu.Unlock()

	if err := b.repo.Delete(ctx, b.ownerID, id); err != nil {
		b.logger.WithError(err).WithField("taskId", id).Warn("persist task delete failed, keeping in memory")
	}
	b.publish(ctx, domain.EventTaskDeleted, removed)
	return nil
}

func (b *Board) SetFilter(f Filter) {
	b.mu.Lock()
	b.view.Filter = f
	b.recompute()
	b.mu.Unlock()
}

func (b *Board) SetSort(s Sort) {
	b.mu.Lock()
	b.view.Sort = s
	b.recompute()
	b.mu.Unlock()
}

func (b *Board) SetSearchQuery(q string) {
	b.mu.Lock()
	b.view.Query = q
	b.recompute()
	b.mu.Unlock()
}

// SetView replaces filter, sort and query at once.
func (b *Board) SetView(v View) {
	b.mu.Lock()
	b.view = v
	b.recompute()
	b.mu.Unlock()
}

func (b *Board) View() View {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.view
}

// Tasks returns a copy of the canonical collection.
func (b *Board) Tasks() []domain.Task {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return cloneAll(b.tasks)
}

// FilteredTasks returns a copy of the derived view.
func (b *Board) FilteredTasks() []domain.Task {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return cloneAll(b.filtered)
}

// Query derives a view without changing the board's own view.
func (b *Board) Query(v View) []domain.Task {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return Apply(b.tasks, v)
}

func (b *Board) Stats() Stats {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return ComputeStats(b.tasks, domain.DateOf(b.opts.Now().UTC()))
}

// recompute derives the filtered view. Callers hold the write lock.
func (b *Board) recompute() {
	b.filtered = Apply(b.tasks, b.view)
}

func (b *Board) indexOf(id string) int {
	for i := range b.tasks {
		if b.tasks[i].ID == id {
			return i
		}
	}
	return -1
}

func (b *Board) reserve() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.opts.MaxTasks > 0 && len(b.tasks)+b.reserved >= b.opts.MaxTasks {
		return ErrTaskLimitReached
	}
	b.reserved++
	return nil
}

func (b *Board) release() {
	b.mu.Lock()
	b.reserved--
	b.mu.Unlock()
}

func (b *Board) publish(ctx context.Context, kind string, task domain.Task) {
	if b.opts.Publisher == nil {
		return
	}
	ev, err := domain.NewEvent(kind, task)
	if err != nil {
		b.logger.WithError(err).Warn("encode task event failed")
		return
	}
	b.opts.Publisher.Publish(ctx, b.ownerID, ev)
}

func cloneAll(tasks []domain.Task) []domain.Task {
	out := make([]domain.Task, len(tasks))
	for i, t := range tasks {
		out[i] = t.Clone()
	}
	return out
}
