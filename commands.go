package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/bytedance/sonic"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"go.opentelemetry.io/otel"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"

	"github.com/SzematPro/ai-task-manager/api"
	"github.com/SzematPro/ai-task-manager/config"
	"github.com/SzematPro/ai-task-manager/domain"
	"github.com/SzematPro/ai-task-manager/events"
	"github.com/SzematPro/ai-task-manager/storage"
)

const shutdownTimeout = 10 * time.Second

func newRootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:           "ai-task-manager",
		Short:         "Turns free-form notes in any language into analysed tasks",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.AddCommand(newServeCommand(), newAnalyzeCommand(), newInitStorageCommand(), newEnvCommand(), newGenTokenCommand())
	return root
}

func newServeCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, logger, err := loadConfig()
			if err != nil {
				return err
			}
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return serve(ctx, cfg, logger)
		},
	}
}

func serve(ctx context.Context, cfg *config.Config, logger *log.Logger) error {
	tp := sdktrace.NewTracerProvider()
	otel.SetTracerProvider(tp)
	defer func() {
		if err := tp.Shutdown(context.Background()); err != nil {
			logger.WithError(err).Warn("tracer shutdown failed")
		}
	}()

	a, err := newApp(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer a.Close()

	e := api.NewEcho(cfg.CORSOrigins, logger)
	api.Register(e, a.dependencies(), logger)

	errCh := make(chan error, 1)
	go func() {
		logger.WithField("addr", cfg.ListenAddr()).Info("listening")
		errCh <- e.Start(cfg.ListenAddr())
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}
	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return e.Shutdown(shutdownCtx)
}

func newAnalyzeCommand() *cobra.Command {
	var currentDate string
	cmd := &cobra.Command{
		Use:   "analyze <text>",
		Short: "Run one submission through the pipeline and print the result as JSON",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.ReadEnv()
			if err != nil {
				return fmt.Errorf("config: %w", err)
			}
			logger := newLogger(cfg.Debug)
			processor, _ := newProcessor(cfg, nil, logger)
			res, err := processor.Process(cmd.Context(), strings.Join(args, " "), currentDate)
			if err != nil {
				return err
			}
			out, err := sonic.ConfigStd.MarshalIndent(res, "", "  ")
			if err != nil {
				return err
			}
			_, err = fmt.Fprintln(cmd.OutOrStdout(), string(out))
			return err
		},
	}
	cmd.Flags().StringVar(&currentDate, "date", domain.DateOf(time.Now()).String(), "reference date for relative expressions (YYYY-MM-DD)")
	return cmd
}

func newInitStorageCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "init-storage",
		Short: "Create the tasks table, the events queue and the Postgres schema",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, logger, err := loadConfig()
			if err != nil {
				return err
			}
			return initStorage(cmd.Context(), cfg, logger)
		},
	}
}

func initStorage(ctx context.Context, cfg *config.Config, logger *log.Logger) error {
	logger.Info("storage init starting")
	switch cfg.Storage.Backend {
	case config.BackendTables:
		tables, err := storage.NewTables(cfg.Storage.ConnectionString, cfg.Storage.TasksTable)
		if err != nil {
			return fmt.Errorf("tables: %w", err)
		}
		if err := tables.EnsureTable(ctx); err != nil {
			return fmt.Errorf("create table: %w", err)
		}
	case config.BackendPostgres:
		pg, err := storage.ConnectPostgres(ctx, postgresConfig(cfg))
		if err != nil {
			return err
		}
		defer pg.Close()
		if err := pg.Migrate(ctx); err != nil {
			return err
		}
	}
	if cfg.Events.Queue != "" {
		pub, err := events.NewQueuePublisher(cfg.Storage.ConnectionString, cfg.Events.Queue, events.Options{Workers: 1}, logger)
		if err != nil {
			return fmt.Errorf("queue: %w", err)
		}
		defer pub.Close()
		if err := pub.EnsureQueue(ctx); err != nil {
			return fmt.Errorf("create queue: %w", err)
		}
	}
	logger.Info("storage init complete")
	return nil
}

func newEnvCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "env",
		Short: "List the environment variables the service reads",
		RunE: func(cmd *cobra.Command, args []string) error {
			_, err := fmt.Fprint(cmd.OutOrStdout(), config.Usage())
			return err
		},
	}
}

func newGenTokenCommand() *cobra.Command {
	var (
		count  int
		prefix string
		start  int
		ttl    time.Duration
	)
	cmd := &cobra.Command{
		Use:   "gen-token [user-id]",
		Short: "Mint bearer tokens signed with LOCAL_AUTH_SHARED_SECRET",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if count < 1 || start < 1 {
				return errors.New("count and start must be at least 1")
			}
			if len(args) > 0 && count > 1 {
				return errors.New("explicit user ID cannot be provided when generating multiple tokens")
			}
			cfg, err := config.ReadEnv()
			if err != nil {
				return fmt.Errorf("config: %w", err)
			}
			for i := 0; i < count; i++ {
				userID := prefix
				switch {
				case len(args) > 0:
					userID = args[0]
				case count > 1:
					userID = fmt.Sprintf("%s-%d", prefix, start+i)
				}
				token, err := api.SignLocalToken(cfg.Auth.SharedSecret, userID, cfg.Auth.Audience, ttl)
				if err != nil {
					return err
				}
				if _, err := fmt.Fprintln(cmd.OutOrStdout(), token); err != nil {
					return err
				}
			}
			return nil
		},
	}
	cmd.Flags().IntVar(&count, "count", 1, "number of tokens to generate")
	cmd.Flags().StringVar(&prefix, "prefix", "dev-user", "user ID, or its prefix when count > 1")
	cmd.Flags().IntVar(&start, "start", 1, "starting index for generated user IDs when count > 1")
	cmd.Flags().DurationVar(&ttl, "ttl", time.Hour, "token lifetime")
	return cmd
}

func loadConfig() (*config.Config, *log.Logger, error) {
	cfg, err := config.Read()
	if err != nil {
		return nil, nil, fmt.Errorf("config: %w", err)
	}
	return cfg, newLogger(cfg.Debug), nil
}

func newLogger(debug bool) *log.Logger {
	logger := log.New()
	logger.SetFormatter(&log.JSONFormatter{})
	if debug {
		logger.SetLevel(log.DebugLevel)
	}
	return logger
}
