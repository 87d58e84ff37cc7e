package board

import (
	"context"
	"sync"
	"time"
)

// Registry keeps one loaded Board per owner. With an idle TTL set, a board
// not accessed for that long is dropped and reloaded from the repository on
// next access, which picks up rows written by other replicas.
type Registry struct {
	newBoard func(ownerID string) *Board
	idleTTL  time.Duration
	now      func() time.Time

	mu     sync.Mutex
	boards map[string]*registryEntry
}

type registryEntry struct {
	board    *Board
	lastUsed time.Time
}

// NewRegistry creates boards with newBoard on first access.
func NewRegistry(newBoard func(ownerID string) *Board) *Registry {
	return &Registry{newBoard: newBoard, now: time.Now, boards: make(map[string]*registryEntry)}
}

// WithIdleTTL evicts boards idle for longer than ttl. Zero keeps them forever.
func (r *Registry) WithIdleTTL(ttl time.Duration) *Registry {
	r.idleTTL = ttl
	return r
}

// WithClock overrides the clock used for idle tracking.
func (r *Registry) WithClock(now func() time.Time) *Registry {
	if now != nil {
		r.now = now
	}
	return r
}

// Get returns the owner's board, loading it from the repository the first
// time. A failed load is not cached so the next call retries.
func (r *Registry) Get(ctx context.Context, ownerID string) (*Board, error) {
	r.mu.Lock()
	now := r.now()
	r.evictIdle(now)
	if e, ok := r.boards[ownerID]; ok {
		e.lastUsed = now
		r.mu.Unlock()
		return e.board, nil
	}
	r.mu.Unlock()

	b := r.newBoard(ownerID)
	if err := b.Load(ctx); err != nil {
		return nil, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if e, ok := r.boards[ownerID]; ok {
		return e.board, nil
	}
	r.boards[ownerID] = &registryEntry{board: b, lastUsed: r.now()}
	return b, nil
}

// Len reports how many boards are loaded.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.boards)
}

// evictIdle must be called with r.mu held.
func (r *Registry) evictIdle(now time.Time) {
	if r.idleTTL <= 0 {
		return
	}
	for owner, e := range r.boards {
		if now.Sub(e.lastUsed) > r.idleTTL {
			delete(r.boards, owner)
		}
	}
}
