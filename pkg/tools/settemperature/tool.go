// Package settemperature provides the tool that sets thermostat temperatures.
package settemperature

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/homesage/homesage/pkg/models"
	"github.com/homesage/homesage/pkg/protocol"
)

var (
	ErrEntityIDRequired    = errors.New("entity_id is required")
	ErrTemperatureRequired = errors.New("temperature is required")
)

type Tool struct {
	ha protocol.HomeAssistant
}

func NewTool(ha protocol.HomeAssistant) *Tool {
	return &Tool{ha: ha}
}

func (t *Tool) Execute(ctx context.Context, input map[string]any, logger *slog.Logger) (string, error) {
	entityID, _ := input["entity_id"].(string)
	if entityID == "" {
		return "", ErrEntityIDRequired
	}

	temperature, ok := input["temperature"].(float64)
	if !ok {
		return "", ErrTemperatureRequired
	}

	err := t.ha.CallService(ctx, models.ServiceCall{
		Domain:  "climate",
		Service: "set_temperature",
		Data:    map[string]any{"entity_id": entityID, "temperature": temperature},
	})
	if err != nil {
		return "", fmt.Errorf("failed to set temperature on %s: %w", entityID, err)
	}

	logger.InfoContext(ctx, "Set temperature", "entity_id", entityID, "temperature", temperature)

	return fmt.Sprintf("Set %s to %g°C", entityID, temperature), nil
}
