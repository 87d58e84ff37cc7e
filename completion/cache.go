package completion

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
	log "github.com/sirupsen/logrus"
)

// Cache memoizes completions in Redis. Only deterministic requests
// (temperature below 0.5) are cached.
type Cache struct {
	next  Backend
	redis *redis.Client
	ttl   time.Duration
}

// NewCache wraps next with a Redis-backed response cache.
func NewCache(next Backend, client *redis.Client, ttl time.Duration) *Cache {
	if next == nil {
		panic("completion.NewCache: backend is nil")
	}
	if ttl < 0 {
		ttl = 0
	}
	return &Cache{next: next, redis: client, ttl: ttl}
}

func (c *Cache) Complete(ctx context.Context, system, user string, opts Options) (string, error) {
	if !c.cacheable(opts) {
		return c.next.Complete(ctx, system, user, opts)
	}
	key := cacheKey(system, user, opts)
	out, err := c.redis.Get(ctx, key).Result()
	if err == nil {
		return out, nil
	}
	if err != redis.Nil {
		log.WithError(err).Debug("completion cache read failed")
	}

	out, err = c.next.Complete(ctx, system, user, opts)
	if err != nil {
		return "", err
	}
	if err := c.redis.Set(ctx, key, out, c.ttl).Err(); err != nil {
		log.WithError(err).Debug("completion cache write failed")
	}
	return out, nil
}

func (c *Cache) cacheable(opts Options) bool {
	return c.redis != nil && c.ttl > 0 && opts.Temperature < 0.5
}

func cacheKey(system, user string, opts Options) string {
	h := sha256.New()
	for _, part := range []string{opts.Model, strconv.Itoa(opts.MaxTokens), strconv.FormatFloat(float64(opts.Temperature), 'f', 2, 32), system, user} {
		h.Write([]byte(part))
		h.Write([]byte{0})
	}
	return "completion:" + hex.EncodeToString(h.Sum(nil))
}
