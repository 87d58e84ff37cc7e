package storage

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/SzematPro/ai-task-manager/domain"
)

const schemaQuery = `
CREATE TABLE IF NOT EXISTS tasks (
	id                 TEXT PRIMARY KEY,
	owner_id           TEXT NOT NULL,
	title              TEXT NOT NULL,
	description        TEXT NOT NULL DEFAULT '',
	status             TEXT NOT NULL,
	priority           TEXT NOT NULL,
	category           TEXT NOT NULL,
	due_date           DATE,
	urgency            INTEGER NOT NULL,
	importance         INTEGER NOT NULL,
	complexity         TEXT NOT NULL,
	tags               TEXT[] NOT NULL DEFAULT '{}',
	estimated_duration TEXT NOT NULL DEFAULT '',
	subtasks           TEXT[] NOT NULL DEFAULT '{}',
	context            TEXT NOT NULL DEFAULT '',
	emotional_context  TEXT NOT NULL DEFAULT '',
	location_context   TEXT NOT NULL DEFAULT '',
	suggested_actions  TEXT[] NOT NULL DEFAULT '{}',
	blockers           TEXT[] NOT NULL DEFAULT '{}',
	success_criteria   TEXT[] NOT NULL DEFAULT '{}',
	tools_needed       TEXT[] NOT NULL DEFAULT '{}',
	reasoning          TEXT[] NOT NULL DEFAULT '{}',
	confidence         INTEGER NOT NULL,
	time_sensitivity   TEXT NOT NULL,
	work_context       TEXT NOT NULL,
	energy_level       TEXT NOT NULL,
	social_context     TEXT NOT NULL,
	original_text      TEXT NOT NULL DEFAULT '',
	source_language    TEXT NOT NULL DEFAULT '',
	created_at         TIMESTAMPTZ NOT NULL,
	updated_at         TIMESTAMPTZ NOT NULL
);
CREATE INDEX IF NOT EXISTS tasks_owner_id_idx ON tasks (owner_id);`

const taskColumns = `id, owner_id, title, description, status, priority, category, due_date,
	urgency, importance, complexity, tags, estimated_duration, subtasks, context,
	emotional_context, location_context, suggested_actions, blockers, success_criteria,
	tools_needed, reasoning, confidence, time_sensitivity, work_context, energy_level,
	social_context, original_text, source_language, created_at, updated_at`

const (
	listTasksQuery = `SELECT ` + taskColumns + ` FROM tasks WHERE owner_id = $1 ORDER BY created_at`

	selectTaskForUpdateQuery = `SELECT ` + taskColumns + ` FROM tasks WHERE owner_id = $1 AND id = $2 FOR UPDATE`

	insertTaskQuery = `INSERT INTO tasks (` + taskColumns + `)
	VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16,
		$17, $18, $19, $20, $21, $22, $23, $24, $25, $26, $27, $28, $29, $30, $31)`

	updateTaskQuery = `UPDATE tasks SET title = $3, description = $4, status = $5, priority = $6,
	category = $7, due_date = $8, urgency = $9, importance = $10, complexity = $11, tags = $12,
	estimated_duration = $13, updated_at = $14
	WHERE owner_id = $1 AND id = $2`

	deleteTaskQuery = `DELETE FROM tasks WHERE owner_id = $1 AND id = $2`
)

// PostgresConfig holds the pool settings.
type PostgresConfig struct {
	URL            string
	ConnectTimeout time.Duration
	PingTimeout    time.Duration
}

// Postgres stores tasks in a PostgreSQL table.
type Postgres struct {
	pool *pgxpool.Pool
	now  func() time.Time
}

// ConnectPostgres opens a pool and pings the server.
func ConnectPostgres(ctx context.Context, cfg PostgresConfig) (*Postgres, error) {
	poolCfg, err := pgxpool.ParseConfig(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("parse postgres config: %w", err)
	}
	if cfg.ConnectTimeout > 0 {
		poolCfg.ConnConfig.ConnectTimeout = cfg.ConnectTimeout
	}
	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, fmt.Errorf("connect postgres: %w", err)
	}
	pingCtx := ctx
	if cfg.PingTimeout > 0 {
		var cancel context.CancelFunc
		pingCtx, cancel = context.WithTimeout(ctx, cfg.PingTimeout)
		defer cancel()
	}
	if err := pool.Ping(pingCtx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}
	return &Postgres{pool: pool, now: time.Now}, nil
}

func (s *Postgres) Close() {
	s.pool.Close()
}

// Migrate creates the tasks table when missing.
func (s *Postgres) Migrate(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, schemaQuery)
	return err
}

func (s *Postgres) List(ctx context.Context, ownerID string) ([]domain.Task, error) {
	rows, err := s.pool.Query(ctx, listTasksQuery, ownerID)
	if err != nil {
		return nil, err
	}
	tasks, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (domain.Task, error) {
		return scanTask(row)
	})
	if err != nil {
		return nil, err
	}
	return tasks, nil
}

func (s *Postgres) Insert(ctx context.Context, t domain.Task) (domain.Task, error) {
	_, err := s.pool.Exec(ctx, insertTaskQuery,
		t.ID, t.OwnerID, t.Title, t.Description, t.Status, t.Priority, t.Category, dueDateParam(t.DueDate),
		t.Urgency, t.Importance, t.Complexity, t.Tags, t.EstimatedDuration, t.Subtasks, t.Context,
		t.EmotionalContext, t.LocationContext, t.SuggestedActions, t.Blockers, t.SuccessCriteria,
		t.ToolsNeeded, t.Reasoning, t.Confidence, t.TimeSensitivity, t.WorkContext, t.EnergyLevel,
		t.SocialContext, t.OriginalText, t.SourceLanguage, t.CreatedAt, t.UpdatedAt)
	if err != nil {
		return domain.Task{}, mapPgError(err)
	}
	return t, nil
}

// Update locks the row, merges u and writes the editable columns back.
func (s *Postgres) Update(ctx context.Context, ownerID, id string, u domain.TaskUpdate) (domain.Task, error) {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return domain.Task{}, err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	current, err := scanTask(tx.QueryRow(ctx, selectTaskForUpdateQuery, ownerID, id))
	if err != nil {
		return domain.Task{}, mapPgError(err)
	}
	t := u.Apply(current, s.now().UTC())
	_, err = tx.Exec(ctx, updateTaskQuery, ownerID, id,
		t.Title, t.Description, t.Status, t.Priority, t.Category, dueDateParam(t.DueDate),
		t.Urgency, t.Importance, t.Complexity, t.Tags, t.EstimatedDuration, t.UpdatedAt)
	if err != nil {
		return domain.Task{}, mapPgError(err)
	}
	if err := tx.Commit(ctx); err != nil {
		return domain.Task{}, err
	}
	return t, nil
}

func (s *Postgres) Delete(ctx context.Context, ownerID, id string) error {
	tag, err := s.pool.Exec(ctx, deleteTaskQuery, ownerID, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func scanTask(row pgx.Row) (domain.Task, error) {
	var (
		t   domain.Task
		due pgtype.Date
	)
	err := row.Scan(
		&t.ID, &t.OwnerID, &t.Title, &t.Description, &t.Status, &t.Priority, &t.Category, &due,
		&t.Urgency, &t.Importance, &t.Complexity, &t.Tags, &t.EstimatedDuration, &t.Subtasks, &t.Context,
		&t.EmotionalContext, &t.LocationContext, &t.SuggestedActions, &t.Blockers, &t.SuccessCriteria,
		&t.ToolsNeeded, &t.Reasoning, &t.Confidence, &t.TimeSensitivity, &t.WorkContext, &t.EnergyLevel,
		&t.SocialContext, &t.OriginalText, &t.SourceLanguage, &t.CreatedAt, &t.UpdatedAt,
	)
	if err != nil {
		return domain.Task{}, err
	}
	if due.Valid {
		t.DueDate = domain.DatePtr(domain.DateOf(due.Time))
	}
	t.CreatedAt = t.CreatedAt.UTC()
	t.UpdatedAt = t.UpdatedAt.UTC()
	t.Normalize()
	return t, nil
}

func dueDateParam(d *domain.Date) pgtype.Date {
	if d == nil {
		return pgtype.Date{}
	}
	return pgtype.Date{Time: d.Time, Valid: true}
}

func mapPgError(err error) error {
	if errors.Is(err, pgx.ErrNoRows) {
		return ErrNotFound
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == pgerrcode.UniqueViolation {
		return ErrDuplicate
	}
	return err
}
