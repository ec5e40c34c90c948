package main

import (
	"context"
	"os"

	cli "github.com/urfave/cli/v3"

	"github.com/homesage/homesage/pkg/cmd"
	"github.com/homesage/homesage/pkg/config"
	"github.com/homesage/homesage/pkg/log"
	"github.com/homesage/homesage/pkg/otelhelper"
)

func main() {
	logger := log.WithModule("api")

	command := &cli.Command{
		Name:                  "homesage-api",
		Usage:                 "Chat with and control a Home Assistant installation",
		EnableShellCompletion: true,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "Path to the YAML configuration file",
				Sources: cli.EnvVars("CONFIG_FILE"),
			},
			&cli.IntFlag{
				Name:    "port",
				Aliases: []string{"p"},
				Usage:   "Port to run the API server on",
				Sources: cli.EnvVars("PORT"),
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

			logger.InfoContext(ctx, "Initializing Homesage API")

			cfg, err := loadConfig(command)
			if err != nil {
				return err
			}

			registry := cmd.NewRegistry(logger)
			persistence := cmd.NewPersistence(ctx, logger, cfg.DatabaseURL)

			defer func() {
				err := persistence.Close(ctx)
				if err != nil {
					logger.ErrorContext(ctx, "Failed to close persistence", "error", err)
				}
			}()

			eventBus := cmd.NewEventBus(cfg.EventBus, "homesage-api", logger)
			defer func() {
				if err := eventBus.Close(); err != nil {
					logger.ErrorContext(ctx, "Failed to close event bus", "error", err)
				}
			}()

			tracer, err := otelhelper.NewTracer(ctx, "homesage-api")
			if err != nil {
				logger.WarnContext(ctx, "Tracing disabled", "error", err)

				tracer = nil
			}

			ha := cmd.NewHomeAssistantClient(cfg, logger)
			model := cmd.NewClaudeClient(cfg, logger)

			api := NewAPI(
				logger,
				persistence,
				registry,
				eventBus,
				ha,
				model,
				tracer,
			)

			err = api.Start(cfg.Port)
			if err != nil {
				logger.ErrorContext(ctx, "Failed to start API server", "error", err)
			}

			return nil
		},
	}

	err := command.Run(context.Background(), os.Args)
	if err != nil {
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

	if port := command.Int("port"); port != 0 {
		cfg.Port = port
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
