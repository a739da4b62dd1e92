// Package main provides the JurisNexo workflow API server implementation.
package main

import (
	"log/slog"
	"strconv"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v3"
	"github.com/gofiber/fiber/v3/middleware/cors"
	"github.com/gofiber/fiber/v3/middleware/healthcheck"
	fiberlogger "github.com/gofiber/fiber/v3/middleware/logger"

	"github.com/evaldomacielf-sketch/jurisnexo-sub000/pkg/eventbus"
	"github.com/evaldomacielf-sketch/jurisnexo-sub000/pkg/persistence"
	"github.com/evaldomacielf-sketch/jurisnexo-sub000/pkg/registry"
	"github.com/evaldomacielf-sketch/jurisnexo-sub000/pkg/services"
	"github.com/evaldomacielf-sketch/jurisnexo-sub000/pkg/web"
	"github.com/evaldomacielf-sketch/jurisnexo-sub000/pkg/workflow"
)

type API struct {
	logger      *slog.Logger
	persistence persistence.Persistence
	registry    *registry.Registry
	eventBus    eventbus.EventBus
	validate    *validator.Validate
}

func NewAPI(
	logger *slog.Logger,
	p persistence.Persistence,
	reg *registry.Registry,
	eventBus eventbus.EventBus,
) *API {
	return &API{
		persistence: p,
		logger:      logger,
		registry:    reg,
		eventBus:    eventBus,
		validate:    validator.New(validator.WithRequiredStructEnabled()),
	}
}

func (a *API) App() *fiber.App {
	workflowService := services.NewWorkflow(a.persistence, a.registry)
	historyService := services.NewHistory(a.persistence)
	matcher := workflow.NewTriggerMatcher(a.persistence, a.logger)
	dispatcher := workflow.NewDispatcher(a.persistence, a.eventBus, matcher, a.logger)

	handlers := web.NewAPIHandlers(workflowService, historyService, dispatcher, a.validate, a.registry)

	app := fiber.New()
	app.Use(cors.New())
	app.Use(fiberlogger.New(fiberlogger.Config{
		DisableColors: true,
	}))

	app.Get(healthcheck.DefaultLivenessEndpoint, healthcheck.NewHealthChecker())
	app.Get(healthcheck.DefaultReadinessEndpoint, healthcheck.NewHealthChecker())

	app.Get("/", func(c fiber.Ctx) error {
		return c.SendString("JurisNexo Workflow API")
	})

	app.Get("/health", handlers.HealthCheck)

	w := app.Group("/workflows", web.RequireTenant)
	w.Get("/", handlers.GetWorkflows)
	w.Post("/", handlers.CreateWorkflow)
	w.Get("/:id", handlers.GetWorkflow)
	w.Patch("/:id", handlers.UpdateWorkflow)
	w.Delete("/:id", handlers.DeleteWorkflow)
	w.Post("/:id/toggle", handlers.ToggleWorkflow)
	w.Post("/:id/duplicate", handlers.DuplicateWorkflow)
	w.Post("/:id/executions", handlers.RunWorkflow)

	app.Post("/events", web.RequireTenant, handlers.TriggerEvent)

	e := app.Group("/executions", web.RequireTenant)
	e.Get("/", handlers.GetExecutions)
	e.Get("/stats", handlers.GetStats)
	e.Get("/:id", handlers.GetExecution)

	return app
}

func (a *API) Start(port int) error {
	app := a.App()

	return app.Listen(":" + strconv.Itoa(port))
}
