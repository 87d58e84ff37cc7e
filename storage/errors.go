// Package storage holds the task repositories: an in-memory store, Azure
// Table storage, PostgreSQL and a Redis read-through cache that wraps any of
// them.
package storage

import "errors"

var (
	ErrNotFound  = errors.New("task not found")
	ErrDuplicate = errors.New("task already exists")
	// ErrConflict is returned when a concurrent writer kept winning the
	// optimistic update.
	ErrConflict = errors.New("task update conflict")
)
