package main

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"
	log "github.com/sirupsen/logrus"

	"github.com/SzematPro/ai-task-manager/analysis"
	"github.com/SzematPro/ai-task-manager/api"
	"github.com/SzematPro/ai-task-manager/board"
	"github.com/SzematPro/ai-task-manager/completion"
	"github.com/SzematPro/ai-task-manager/config"
	"github.com/SzematPro/ai-task-manager/events"
	"github.com/SzematPro/ai-task-manager/language"
	"github.com/SzematPro/ai-task-manager/pipeline"
	"github.com/SzematPro/ai-task-manager/storage"
)

// app owns every long-lived dependency of the server.
type app struct {
	processor *pipeline.Processor
	suggester *analysis.Suggester
	boards    *board.Registry
	auth      *api.Auth
	deduper   *api.RedisDeduper

	closers []func()
}

func newApp(ctx context.Context, cfg *config.Config, logger *log.Logger) (*app, error) {
	a := &app{}
	if err := a.open(ctx, cfg, logger); err != nil {
		a.Close()
		return nil, err
	}
	return a, nil
}

func (a *app) open(ctx context.Context, cfg *config.Config, logger *log.Logger) error {
	var rc *redis.Client
	if cfg.Redis.ConnectionString != "" {
		opts, rerr := config.RedisOptions(cfg.Redis.ConnectionString)
		if rerr != nil {
			return fmt.Errorf("redis: %w", rerr)
		}
		rc = redis.NewClient(opts)
		a.closers = append(a.closers, func() { _ = rc.Close() })
		a.deduper = api.NewRedisDeduper(rc, cfg.Redis.DeduperTTL)
	} else {
		logger.Warn("REDIS_CONNECTION_STRING not set, idempotency and caching disabled")
	}

	var backend completion.Backend
	a.processor, backend = newProcessor(cfg, rc, logger)
	a.suggester = analysis.NewSuggester(backend, logger)

	var err error
	a.auth, err = api.NewAuth(api.AuthConfig{
		Domain:       cfg.Auth.Domain,
		Audience:     cfg.Auth.Audience,
		SharedSecret: cfg.Auth.SharedSecret,
		KeyCacheTTL:  cfg.Auth.KeyCacheTTL,
	})
	if err != nil {
		return fmt.Errorf("auth: %w", err)
	}

	repo, err := a.openRepository(ctx, cfg, rc)
	if err != nil {
		return err
	}
	publisher, err := a.openPublisher(cfg, logger)
	if err != nil {
		return err
	}

	a.boards = board.NewRegistry(func(ownerID string) *board.Board {
		return board.New(ownerID, repo, a.processor, board.Options{
			MaxTasks:  cfg.MaxTasks,
			Logger:    logger,
			Publisher: publisher,
		})
	}).WithIdleTTL(cfg.BoardIdleTTL)
	return nil
}

// newProcessor builds the analysis pipeline. It also returns the completion
// backend so other components can share its cache and timeout.
func newProcessor(cfg *config.Config, rc *redis.Client, logger *log.Logger) (*pipeline.Processor, completion.Backend) {
	var backend completion.Backend = completion.Unavailable{}
	if cfg.Completion.APIKey != "" {
		backend = completion.NewOpenAI(cfg.Completion.APIKey, cfg.Completion.BaseURL)
	} else {
		logger.Warn("OPENAI_API_KEY not set, using offline fallbacks")
	}
	backend = completion.WithTimeout(backend, cfg.Completion.Timeout)
	if rc != nil {
		backend = completion.NewCache(backend, rc, cfg.Redis.CompletionTTL)
	}

	var book language.PhraseBook = language.Builtin
	if cfg.Completion.PhraseBookFile != "" {
		extra, err := language.LoadPhraseBook(cfg.Completion.PhraseBookFile)
		if err != nil {
			logger.WithError(err).Warn("phrase book not loaded, using built-in phrases")
		} else {
			book = language.Chain{extra, language.Builtin}
		}
	}

	languages := language.NewPipeline(
		language.NewDetector(backend, logger),
		language.NewTranslator(backend, book, logger),
		logger,
	)
	processor := pipeline.NewProcessor(
		languages,
		analysis.NewAnalyzer(backend, logger),
		analysis.NewRedactor(backend, logger),
		logger,
	)
	return processor, backend
}

func (a *app) openRepository(ctx context.Context, cfg *config.Config, rc *redis.Client) (board.Repository, error) {
	var repo board.Repository
	switch cfg.Storage.Backend {
	case config.BackendTables:
		tables, err := storage.NewTables(cfg.Storage.ConnectionString, cfg.Storage.TasksTable)
		if err != nil {
			return nil, fmt.Errorf("storage: %w", err)
		}
		repo = tables
	case config.BackendPostgres:
		pg, err := storage.ConnectPostgres(ctx, postgresConfig(cfg))
		if err != nil {
			return nil, err
		}
		a.closers = append(a.closers, pg.Close)
		repo = pg
	default:
		return storage.NewMemory(), nil
	}
	if rc != nil {
		return storage.NewCache(repo, rc, cfg.Redis.TasksCacheTTL), nil
	}
	return repo, nil
}

func (a *app) openPublisher(cfg *config.Config, logger *log.Logger) (board.Publisher, error) {
	if cfg.Events.Queue == "" {
		return events.LogPublisher{Logger: logger}, nil
	}
	pub, err := events.NewQueuePublisher(cfg.Storage.ConnectionString, cfg.Events.Queue, events.Options{
		Workers:        cfg.Events.Workers,
		Buffer:         cfg.Events.Buffer,
		SendTimeout:    cfg.Events.SendTimeout,
		HandoffTimeout: cfg.Events.HandoffTimeout,
	}, logger)
	if err != nil {
		return nil, fmt.Errorf("events: %w", err)
	}
	a.closers = append(a.closers, pub.Close)
	return pub, nil
}

func (a *app) dependencies() api.Dependencies {
	deps := api.Dependencies{
		Processor: a.processor,
		Boards:    a.boards,
		Suggester: a.suggester,
		Auth:      a.auth,
	}
	if a.deduper != nil {
		deps.Deduper = a.deduper
	}
	return deps
}

// Close releases resources in reverse order of acquisition.
func (a *app) Close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		a.closers[i]()
	}
	a.closers = nil
}

func postgresConfig(cfg *config.Config) storage.PostgresConfig {
	return storage.PostgresConfig{
		URL:            cfg.Storage.PostgresURL,
		ConnectTimeout: cfg.Storage.ConnectTimeout,
		PingTimeout:    cfg.Storage.PingTimeout,
	}
}
