// Package turnon provides the tool that turns on devices, lights, switches, and scenes.
package turnon

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/homesage/homesage/pkg/models"
	"github.com/homesage/homesage/pkg/protocol"
)

var ErrEntityIDRequired = errors.New("entity_id is required")

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

	entity := models.Entity{EntityID: entityID}

	err := t.ha.CallService(ctx, models.ServiceCall{
		Domain:  entity.Domain(),
		Service: "turn_on",
		Data:    map[string]any{"entity_id": entityID},
	})
	if err != nil {
		return "", fmt.Errorf("failed to turn on %s: %w", entityID, err)
	}

	logger.InfoContext(ctx, "Turned on device", "entity_id", entityID)

	return "Turned on " + entityID, nil
}
