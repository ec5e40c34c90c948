// Package config loads and validates the bridge configuration from a YAML
// file with environment variable overrides.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

// ErrInvalidAPIKey is returned when the Anthropic API key does not look like a real key.
var ErrInvalidAPIKey = errors.New("anthropic API key must start with sk-ant-")

const anthropicKeyPrefix = "sk-ant-"

// HomeAssistantConfig holds the Home Assistant connection settings.
type HomeAssistantConfig struct {
	URL     string        `yaml:"url"     validate:"required,url"`
	Token   string        `yaml:"token"   validate:"required"`
	Timeout time.Duration `yaml:"timeout"`
}

// AnthropicConfig holds the Anthropic API settings.
type AnthropicConfig struct {
	APIKey    string `yaml:"api_key"    validate:"required"`
	Model     string `yaml:"model"`
	MaxTokens int    `yaml:"max_tokens" validate:"min=0"`
}

// WatcherConfig holds the entity watcher settings.
type WatcherConfig struct {
	PollInterval     time.Duration `yaml:"poll_interval"`
	AnalysisSchedule string        `yaml:"analysis_schedule"`
}

// Config is the full bridge configuration.
type Config struct {
	LogLevel    string `yaml:"log_level"    validate:"omitempty,oneof=debug info warn error"`
	Port        int    `yaml:"port"         validate:"min=0,max=65535"`
	DatabaseURL string `yaml:"database_url"`
	EventBus    string `yaml:"event_bus"    validate:"omitempty,oneof=kafka gochannel"`

	HomeAssistant HomeAssistantConfig `yaml:"home_assistant"`
	Anthropic     AnthropicConfig     `yaml:"anthropic"`
	Watcher       WatcherConfig       `yaml:"watcher"`
}

// Default returns the configuration defaults applied before file and
// environment values.
func Default() *Config {
	return &Config{
		LogLevel:    "info",
		Port:        9080,
		DatabaseURL: "file://./data",
		EventBus:    "gochannel",
		HomeAssistant: HomeAssistantConfig{
			Timeout: 30 * time.Second,
		},
		Anthropic: AnthropicConfig{
			MaxTokens: 4096,
		},
		Watcher: WatcherConfig{
			PollInterval:     30 * time.Second,
			AnalysisSchedule: "0 6 * * *",
		},
	}
}

// Load reads the configuration file (if path is non-empty), applies
// environment variable overrides, and validates the result.
func Load(path string) (*Config, error) {
	config := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}

		if err := yaml.Unmarshal(data, config); err != nil {
			return nil, fmt.Errorf("failed to parse config file: %w", err)
		}
	}

	config.applyEnv()

	if err := config.Validate(); err != nil {
		return nil, err
	}

	return config, nil
}

// applyEnv overrides file values with environment variables.
func (c *Config) applyEnv() {
	if value := os.Getenv("LOG_LEVEL"); value != "" {
		c.LogLevel = value
	}

	if value := os.Getenv("PORT"); value != "" {
		if port, err := strconv.Atoi(value); err == nil {
			c.Port = port
		}
	}

	if value := os.Getenv("DATABASE_URL"); value != "" {
		c.DatabaseURL = value
	}

	if value := os.Getenv("EVENT_BUS"); value != "" {
		c.EventBus = value
	}

	if value := os.Getenv("HA_URL"); value != "" {
		c.HomeAssistant.URL = value
	}

	if value := os.Getenv("HA_TOKEN"); value != "" {
		c.HomeAssistant.Token = value
	}

	if value := os.Getenv("ANTHROPIC_API_KEY"); value != "" {
		c.Anthropic.APIKey = value
	}

	if value := os.Getenv("ANTHROPIC_MODEL"); value != "" {
		c.Anthropic.Model = value
	}
}

// Validate checks the configuration for errors.
func (c *Config) Validate() error {
	validate := validator.New(validator.WithRequiredStructEnabled())

	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	if !strings.HasPrefix(c.Anthropic.APIKey, anthropicKeyPrefix) {
		return ErrInvalidAPIKey
	}

	return nil
}
