package main

import (
	"context"
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	cli "github.com/urfave/cli/v3"

	"github.com/evaldomacielf-sketch/jurisnexo-sub000/internal/nexo"
	"github.com/evaldomacielf-sketch/jurisnexo-sub000/pkg/cmd"
	"github.com/evaldomacielf-sketch/jurisnexo-sub000/pkg/log"
	"github.com/evaldomacielf-sketch/jurisnexo-sub000/pkg/otelhelper"
	"github.com/evaldomacielf-sketch/jurisnexo-sub000/pkg/workflow"
)

func main() {
	command := &cli.Command{
		Name:                  "jurisnexo-worker",
		EnableShellCompletion: true,
		Usage:                 "Start workers to execute queued workflow runs",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "worker-id",
				Aliases: []string{"id"},
				Usage:   "Custom worker ID (auto-generated if not provided)",
				Value:   "",
				Sources: cli.EnvVars("WORKER_ID"),
			},
			&cli.StringFlag{
				Name:     "database-url",
				Usage:    "Database connection URL for persistence",
				Required: true,
				Sources:  cli.EnvVars("DATABASE_URL"),
			},
			&cli.StringFlag{
				Name:    "event-bus",
				Usage:   "Event bus type (kafka, gochannel)",
				Value:   "gochannel",
				Sources: cli.EnvVars("EVENT_BUS_TYPE"),
			},
			&cli.StringFlag{
				Name:    "redis-url",
				Usage:   "Redis URL for execution claims (empty disables fencing)",
				Value:   "",
				Sources: cli.EnvVars("REDIS_URL"),
			},
			&cli.StringFlag{
				Name:     "core-api-url",
				Usage:    "Base URL of the JurisNexo core internal API",
				Required: true,
				Sources:  cli.EnvVars("CORE_API_URL"),
			},
			&cli.StringFlag{
				Name:    "core-api-token",
				Usage:   "Service token for the core internal API",
				Sources: cli.EnvVars("CORE_API_TOKEN"),
			},
			&cli.IntFlag{
				Name:    "max-attempts",
				Usage:   "Queue-level delivery attempts per execution",
				Value:   defaultMaxAttempts,
				Sources: cli.EnvVars("MAX_ATTEMPTS"),
			},
			&cli.StringFlag{
				Name:    "log-level",
				Usage:   "Log level (debug, info, warn, error)",
				Value:   "info",
				Sources: cli.EnvVars("LOG_LEVEL"),
			},
		},
		Action: func(ctx context.Context, command *cli.Command) error {
			log.Setup(command.String("log-level"))

			workerID := command.String("worker-id")
			if workerID == "" {
				workerID = "worker-" + uuid.New().String()[:8]
			}

			logger := log.WithModule("jurisnexo-worker").With("worker_id", workerID)

			logger.InfoContext(ctx, "Initializing JurisNexo workflow worker")

			tracer, err := otelhelper.NewTracer(ctx, "jurisnexo-worker")
			if err != nil {
				logger.WarnContext(ctx, "Tracing disabled", "error", err)
			}

			core := nexo.NewClient(command.String("core-api-url"), command.String("core-api-token"))
			registry := cmd.NewRegistry(logger, core)

			eventBus := cmd.NewEventBus(command.String("event-bus"), "jurisnexo-worker", logger)
			defer func() {
				if err := eventBus.Close(); err != nil {
					logger.ErrorContext(ctx, "Failed to close event bus", "error", err)
				}
			}()

			persistence := cmd.NewPersistence(ctx, logger, command.String("database-url"))
			defer func() {
				if err := persistence.Close(ctx); err != nil {
					logger.ErrorContext(ctx, "Failed to close persistence", "error", err)
				}
			}()

			var claim workflow.ExecutionClaim = workflow.NoopExecutionClaim{}

			if redisURL := command.String("redis-url"); redisURL != "" {
				opts, err := redis.ParseURL(redisURL)
				if err != nil {
					return err
				}

				claim = workflow.NewRedisExecutionClaim(redis.NewClient(opts), logger)
			}

			executor := workflow.NewExecutor(persistence, registry, logger, tracer)

			worker := NewWorkerManager(
				workerID,
				persistence,
				eventBus,
				claim,
				executor,
				logger,
				RetryPolicy{
					MaxAttempts: int(command.Int("max-attempts")),
					BaseBackoff: 5 * time.Second,
				},
			)

			if err := worker.Start(ctx); err != nil {
				logger.ErrorContext(ctx, "Failed to start worker", "error", err)
			}

			return nil
		},
	}

	err := command.Run(context.Background(), os.Args)
	if err != nil {
		panic(err)
	}
}
