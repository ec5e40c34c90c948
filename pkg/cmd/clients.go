package cmd

import (
	"log/slog"

	"github.com/homesage/homesage/pkg/claude"
	"github.com/homesage/homesage/pkg/config"
	"github.com/homesage/homesage/pkg/homeassistant"
)

// NewHomeAssistantClient creates a Home Assistant REST client from the
// bridge configuration.
func NewHomeAssistantClient(cfg *config.Config, logger *slog.Logger) *homeassistant.Client {
	haConfig := homeassistant.DefaultConfig(cfg.HomeAssistant.URL, cfg.HomeAssistant.Token)
	if cfg.HomeAssistant.Timeout > 0 {
		haConfig.Timeout = cfg.HomeAssistant.Timeout
	}

	return homeassistant.NewClient(haConfig, logger)
}

// NewClaudeClient creates an Anthropic Messages API client from the bridge
// configuration.
func NewClaudeClient(cfg *config.Config, logger *slog.Logger) *claude.Client {
	claudeConfig := claude.DefaultConfig(cfg.Anthropic.APIKey)
	if cfg.Anthropic.Model != "" {
		claudeConfig.Model = cfg.Anthropic.Model
	}

	if cfg.Anthropic.MaxTokens > 0 {
		claudeConfig.MaxTokens = cfg.Anthropic.MaxTokens
	}

	return claude.NewClient(claudeConfig, logger)
}
