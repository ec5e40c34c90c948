package main

import (
	"context"
	"fmt"
	"os"

	"github.com/google/uuid"
	cli "github.com/urfave/cli/v3"

	"github.com/homesage/homesage/pkg/agent"
	"github.com/homesage/homesage/pkg/cmd"
	"github.com/homesage/homesage/pkg/config"
	"github.com/homesage/homesage/pkg/log"
	"github.com/homesage/homesage/pkg/otelhelper"
	"github.com/homesage/homesage/pkg/services"
)

func main() {
	command := &cli.Command{
		Name:                  "homesage-agent",
		Usage:                 "Start the event-driven action worker",
		EnableShellCompletion: true,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "agent-id",
				Aliases: []string{"id"},
				Usage:   "Custom agent ID (auto-generated if not provided)",
				Value:   "",
				Sources: cli.EnvVars("AGENT_ID"),
			},
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "Path to the YAML configuration file",
				Sources: cli.EnvVars("CONFIG_FILE"),
			},
			&cli.StringFlag{
				Name:    "database-url",
				Usage:   "Database connection URL for persistence",
				Sources: cli.EnvVars("DATABASE_URL"),
			},
			&cli.StringFlag{
				Name:    "event-bus",
				Usage:   "Event bus provider (kafka, gochannel)",
				Sources: cli.EnvVars("EVENT_BUS"),
			},
			&cli.StringFlag{
				Name:    "ha-url",
				Usage:   "Home Assistant base URL",
				Sources: cli.EnvVars("HA_URL"),
			},
			&cli.StringFlag{
				Name:    "ha-token",
				Usage:   "Home Assistant long-lived access token",
				Sources: cli.EnvVars("HA_TOKEN"),
			},
			&cli.StringFlag{
				Name:    "anthropic-api-key",
				Usage:   "Anthropic API key",
				Sources: cli.EnvVars("ANTHROPIC_API_KEY"),
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

			agentID := command.String("agent-id")
			if agentID == "" {
				agentID = fmt.Sprintf("agent-%s", uuid.New().String()[:8])
			}

			logger := log.WithModule("agent").With("agent_id", agentID)

			logger.InfoContext(ctx, "Initializing Homesage Agent")

			cfg, err := loadConfig(command)
			if err != nil {
				return err
			}

			persistence := cmd.NewPersistence(ctx, logger, cfg.DatabaseURL)

			defer func() {
				if err := persistence.Close(ctx); err != nil {
					logger.ErrorContext(ctx, "Failed to close persistence", "error", err)
				}
			}()

			eventBus := cmd.NewEventBus(cfg.EventBus, "homesage-agent", logger)
			defer func() {
				if err := eventBus.Close(); err != nil {
					logger.ErrorContext(ctx, "Failed to close event bus", "error", err)
				}
			}()

			tracer, err := otelhelper.NewTracer(ctx, "homesage-agent")
			if err != nil {
				logger.WarnContext(ctx, "Tracing disabled", "error", err)

				tracer = nil
			}

			ha := cmd.NewHomeAssistantClient(cfg, logger)
			model := cmd.NewClaudeClient(cfg, logger)
			registry := cmd.NewRegistry(logger)

			homeAgent := agent.NewAgent(agentID, ha, model, registry, eventBus, tracer, logger)
			actionService := services.NewAction(persistence, homeAgent, logger)

			worker := NewWorker(agentID, eventBus, actionService, logger)
			worker.Start(ctx)

			return nil
		},
	}

	if err := command.Run(context.Background(), os.Args); err != nil {
		panic(err)
	}
}

// loadConfig reads the config file (when given), then lets command line
// flags override its values before validating.
func loadConfig(command *cli.Command) (*config.Config, error) {
	cfg := config.Default()

	if path := command.String("config"); path != "" {
		loaded, err := config.Load(path)
		if err != nil {
			return nil, err
		}

		cfg = loaded
	}

	if url := command.String("database-url"); url != "" {
		cfg.DatabaseURL = url
	}

	if bus := command.String("event-bus"); bus != "" {
		cfg.EventBus = bus
	}

	if url := command.String("ha-url"); url != "" {
		cfg.HomeAssistant.URL = url
	}

	if token := command.String("ha-token"); token != "" {
		cfg.HomeAssistant.Token = token
	}

	if key := command.String("anthropic-api-key"); key != "" {
		cfg.Anthropic.APIKey = key
	}

	if command.IsSet("log-level") {
		cfg.LogLevel = command.String("log-level")
	}

	return cfg, cfg.Validate()
}
