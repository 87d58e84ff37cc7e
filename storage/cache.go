package storage

import (
	"context"
	"time"

	"github.com/bytedance/sonic"
	"github.com/redis/go-redis/v9"

	"github.com/SzematPro/ai-task-manager/domain"
)

type backend interface {
	List(ctx context.Context, ownerID string) ([]domain.Task, error)
	Insert(ctx context.Context, task domain.Task) (domain.Task, error)
	Update(ctx context.Context, ownerID, id string, u domain.TaskUpdate) (domain.Task, error)
	Delete(ctx context.Context, ownerID, id string) error
}

// Cache wraps a repository with a Redis copy of each owner's task list.
// Writes go to the base repository and then evict the owner's entry.
type Cache struct {
	base  backend
	redis *redis.Client
	ttl   time.Duration
}

// NewCache creates a caching wrapper using the provided Redis client and TTL.
func NewCache(base backend, client *redis.Client, ttl time.Duration) *Cache {
	if base == nil {
		panic("storage.NewCache: base repository is nil")
	}
	if ttl < 0 {
		ttl = 0
	}
	return &Cache{base: base, redis: client, ttl: ttl}
}

func (c *Cache) List(ctx context.Context, ownerID string) ([]domain.Task, error) {
	if tasks, ok := c.load(ctx, ownerID); ok {
		return tasks, nil
	}
	tasks, err := c.base.List(ctx, ownerID)
	if err != nil {
		return nil, err
	}
	c.store(ctx, ownerID, tasks)
	return tasks, nil
}

func (c *Cache) Insert(ctx context.Context, task domain.Task) (domain.Task, error) {
	stored, err := c.base.Insert(ctx, task)
	if err != nil {
		return domain.Task{}, err
	}
	c.evict(ctx, task.OwnerID)
	return stored, nil
}

func (c *Cache) Update(ctx context.Context, ownerID, id string, u domain.TaskUpdate) (domain.Task, error) {
	updated, err := c.base.Update(ctx, ownerID, id, u)
	if err != nil {
		return domain.Task{}, err
	}
	c.evict(ctx, ownerID)
	return updated, nil
}

func (c *Cache) Delete(ctx context.Context, ownerID, id string) error {
	if err := c.base.Delete(ctx, ownerID, id); err != nil {
		return err
	}
	c.evict(ctx, ownerID)
	return nil
}

func (c *Cache) load(ctx context.Context, ownerID string) ([]domain.Task, bool) {
	if c.redis == nil {
		return nil, false
	}
	data, err := c.redis.Get(ctx, tasksCacheKey(ownerID)).Bytes()
	if err != nil {
		if err != redis.Nil {
			// On redis errors fall back to the backing store without failing.
			_ = c.redis.Del(ctx, tasksCacheKey(ownerID)).Err()
		}
		return nil, false
	}
	var tasks []domain.Task
	if err := sonic.Unmarshal(data, &tasks); err != nil {
		_ = c.redis.Del(ctx, tasksCacheKey(ownerID)).Err()
		return nil, false
	}
	return tasks, true
}

func (c *Cache) store(ctx context.Context, ownerID string, tasks []domain.Task) {
	if c.redis == nil || c.ttl == 0 {
		return
	}
	data, err := sonic.Marshal(tasks)
	if err != nil {
		return
	}
	_ = c.redis.Set(ctx, tasksCacheKey(ownerID), data, c.ttl).Err()
}

func (c *Cache) evict(ctx context.Context, ownerID string) {
	if c.redis == nil {
		return
	}
	_ = c.redis.Del(ctx, tasksCacheKey(ownerID)).Err()
}

func tasksCacheKey(ownerID string) string {
	return "tasks:" + ownerID
}
