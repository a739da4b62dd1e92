package main

import (
	"context"
	"os"
	"time"

	cli "github.com/urfave/cli/v3"

	"github.com/evaldomacielf-sketch/jurisnexo-sub000/internal/nexo"
	"github.com/evaldomacielf-sketch/jurisnexo-sub000/pkg/cmd"
	"github.com/evaldomacielf-sketch/jurisnexo-sub000/pkg/log"
	"github.com/evaldomacielf-sketch/jurisnexo-sub000/pkg/workflow"
)

func main() {
	logger := log.WithModule("scheduler")

	command := &cli.Command{
		Name:                  "jurisnexo-scheduler",
		Usage:                 "Emit time-based trigger events from CRM deadlines and invoices",
		EnableShellCompletion: true,
		Flags: []cli.Flag{
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
			&cli.StringFlag{
				Name:    "deadline-cron",
				Usage:   "Cron expression for the deadline scan",
				Value:   "0 * * * *",
				Sources: cli.EnvVars("DEADLINE_CRON"),
			},
			&cli.DurationFlag{
				Name:    "deadline-window",
				Usage:   "How far ahead the deadline scan looks",
				Value:   72 * time.Hour,
				Sources: cli.EnvVars("DEADLINE_WINDOW"),
			},
			&cli.StringFlag{
				Name:    "invoice-cron",
				Usage:   "Cron expression for the overdue invoice scan",
				Value:   "0 8 * * *",
				Sources: cli.EnvVars("INVOICE_CRON"),
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

			logger.InfoContext(ctx, "Initializing JurisNexo scheduler")

			core := nexo.NewClient(command.String("core-api-url"), command.String("core-api-token"))

			persistence := cmd.NewPersistence(ctx, logger, command.String("database-url"))
			defer func() {
				if err := persistence.Close(ctx); err != nil {
					logger.ErrorContext(ctx, "Failed to close persistence", "error", err)
				}
			}()

			eventBus := cmd.NewEventBus(command.String("event-bus"), "jurisnexo-scheduler", logger)
			defer func() {
				if err := eventBus.Close(); err != nil {
					logger.ErrorContext(ctx, "Failed to close event bus", "error", err)
				}
			}()

			matcher := workflow.NewTriggerMatcher(persistence, logger)
			dispatcher := workflow.NewDispatcher(persistence, eventBus, matcher, logger)

			scheduler := NewScheduler(
				core,
				dispatcher,
				logger,
				command.Duration("deadline-window"),
				command.String("deadline-cron"),
				command.String("invoice-cron"),
			)

			return scheduler.Start(ctx)
		},
	}

	err := command.Run(context.Background(), os.Args)
	if err != nil {
		panic(err)
	}
}
