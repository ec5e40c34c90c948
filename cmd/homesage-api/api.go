// Package main provides the Homesage API server implementation.
package main

import (
	"log/slog"
	"strconv"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v3"
	"github.com/gofiber/fiber/v3/middleware/cors"
	"github.com/gofiber/fiber/v3/middleware/healthcheck"
	"github.com/gofiber/fiber/v3/middleware/logger"
	"go.opentelemetry.io/otel/trace"

	"github.com/homesage/homesage/pkg/agent"
	"github.com/homesage/homesage/pkg/claude"
	"github.com/homesage/homesage/pkg/eventbus"
	"github.com/homesage/homesage/pkg/homeassistant"
	"github.com/homesage/homesage/pkg/persistence"
	"github.com/homesage/homesage/pkg/registry"
	"github.com/homesage/homesage/pkg/services"
	"github.com/homesage/homesage/pkg/web"
)

type API struct {
	logger      *slog.Logger
	persistence persistence.Persistence
	registry    *registry.Registry
	eventBus    eventbus.EventBus
	ha          *homeassistant.Client
	model       *claude.Client
	tracer      trace.Tracer
	validate    *validator.Validate
}

func NewAPI(
	logger *slog.Logger,
	persistence persistence.Persistence,
	registry *registry.Registry,
	eventBus eventbus.EventBus,
	ha *homeassistant.Client,
	model *claude.Client,
	tracer trace.Tracer,
) *API {
	return &API{
		logger:      logger,
		persistence: persistence,
		registry:    registry,
		eventBus:    eventBus,
		ha:          ha,
		model:       model,
		tracer:      tracer,
		validate:    validator.New(validator.WithRequiredStructEnabled()),
	}
}

func (a *API) App() *fiber.App {
	homeAgent := agent.NewAgent(a.eventBus.GenerateID(), a.ha, a.model, a.registry, a.eventBus, a.tracer, a.logger)

	conversationService := services.NewConversation(a.persistence, homeAgent, a.logger)
	actionService := services.NewAction(a.persistence, homeAgent, a.logger)
	analysisService := services.NewAnalysis(a.persistence, homeAgent, a.logger)

	handlers := web.NewAPIHandlers(conversationService, actionService, analysisService, a.ha, a.eventBus, a.validate)

	app := fiber.New()
	app.Use(cors.New())
	app.Use(logger.New(logger.Config{
		DisableColors: true,
	}))

	app.Get(healthcheck.DefaultLivenessEndpoint, healthcheck.NewHealthChecker())
	app.Get(healthcheck.DefaultReadinessEndpoint, healthcheck.NewHealthChecker())

	app.Get("/", func(c fiber.Ctx) error {
		return c.SendString("Homesage API")
	})

	app.Post("/chat", handlers.Chat)

	app.Post("/actions", handlers.ExecuteAction)
	app.Get("/actions", handlers.GetActions)

	app.Post("/analysis", handlers.RunAnalysis)
	app.Get("/analysis", handlers.GetAnalyses)
	app.Get("/analysis/latest", handlers.GetLatestAnalysis)

	conversations := app.Group("/conversations")
	conversations.Get("/", handlers.GetConversations)
	conversations.Get("/:id", handlers.GetConversation)
	conversations.Delete("/:id", handlers.DeleteConversation)

	app.Get("/entities", handlers.GetEntities)
	app.Get("/entities/:id", handlers.GetEntity)

	app.Post("/events/state_changed", handlers.StateChanged)

	app.Get("/health", handlers.HealthCheck)

	return app
}

func (a *API) Start(port int) error {
	app := a.App()

	err := app.Listen(":" + strconv.Itoa(port))

	return err
}
