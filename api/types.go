package api

import (
	"context"

	"github.com/SzematPro/ai-task-manager/board"
	"github.com/SzematPro/ai-task-manager/pipeline"
)

// Processor analyses a natural-language submission.
type Processor interface {
	Process(ctx context.Context, input, currentDate string) (pipeline.Result, error)
}

// Boards hands out the loaded board of a user.
type Boards interface {
	Get(ctx context.Context, ownerID string) (*board.Board, error)
}

// Suggester proposes follow-up tasks from recent titles.
type Suggester interface {
	Suggest(ctx context.Context, recent []string) []string
}

// Authenticator is implemented by types able to extract user IDs from headers.
type Authenticator interface {
	UserIDFromAuthHeader(string) (string, error)
}

// Deduper prevents processing of duplicate submissions.
type Deduper interface {
	// Add records the idempotency key and returns true if it was newly added.
	Add(ctx context.Context, userID, key string) (bool, error)
	// Remove deletes a previously added key, used when processing fails.
	Remove(ctx context.Context, userID, key string) error
}

// Dependencies are the collaborators the routes need. Deduper and
// Suggester may be nil.
type Dependencies struct {
	Processor Processor
	Boards    Boards
	Suggester Suggester
	Auth      Authenticator
	Deduper   Deduper
}
