package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "homesage.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	return path
}

func TestLoad(t *testing.T) {
	path := writeConfig(t, `
log_level: debug
port: 9090
database_url: postgres://localhost/homesage
event_bus: kafka
home_assistant:
  url: http://homeassistant.local:8123
  token: long-lived-token
anthropic:
  api_key: sk-ant-test-key
  model: claude-sonnet-4-20250514
watcher:
  poll_interval: 10s
  analysis_schedule: "0 7 * * *"
`)

	config, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "debug", config.LogLevel)
	assert.Equal(t, 9090, config.Port)
	assert.Equal(t, "postgres://localhost/homesage", config.DatabaseURL)
	assert.Equal(t, "kafka", config.EventBus)
	assert.Equal(t, "http://homeassistant.local:8123", config.HomeAssistant.URL)
	assert.Equal(t, 10*time.Second, config.Watcher.PollInterval)
	assert.Equal(t, "0 7 * * *", config.Watcher.AnalysisSchedule)

	// Defaults survive for fields the file omits.
	assert.Equal(t, 4096, config.Anthropic.MaxTokens)
	assert.Equal(t, 30*time.Second, config.HomeAssistant.Timeout)
}

func TestLoad_EnvOverrides(t *testing.T) {
	path := writeConfig(t, `
home_assistant:
  url: http://homeassistant.local:8123
  token: file-token
anthropic:
  api_key: sk-ant-file-key
`)

	t.Setenv("HA_TOKEN", "env-token")
	t.Setenv("ANTHROPIC_API_KEY", "sk-ant-env-key")
	t.Setenv("LOG_LEVEL", "warn")
	t.Setenv("PORT", "8123")

	config, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "env-token", config.HomeAssistant.Token)
	assert.Equal(t, "sk-ant-env-key", config.Anthropic.APIKey)
	assert.Equal(t, "warn", config.LogLevel)
	assert.Equal(t, 8123, config.Port)
}

func TestLoad_InvalidAPIKey(t *testing.T) {
	path := writeConfig(t, `
home_assistant:
  url: http://homeassistant.local:8123
  token: token
anthropic:
  api_key: not-a-real-key
`)

	_, err := Load(path)
	assert.ErrorIs(t, err, ErrInvalidAPIKey)
}

func TestLoad_MissingRequiredFields(t *testing.T) {
	path := writeConfig(t, `
anthropic:
  api_key: sk-ant-test-key
`)

	_, err := Load(path)
	assert.Error(t, err)
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load("/nonexistent/homesage.yaml")
	assert.Error(t, err)
}

func TestValidate_BadEventBus(t *testing.T) {
	config := Default()
	config.HomeAssistant.URL = "http://homeassistant.local:8123"
	config.HomeAssistant.Token = "token"
	config.Anthropic.APIKey = "sk-ant-key"
	config.EventBus = "rabbitmq"

	assert.Error(t, config.Validate())
}
