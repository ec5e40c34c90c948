// Package triggerautomation provides the tool that triggers Home Assistant automations.
package triggerautomation

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

	err := t.ha.CallService(ctx, models.ServiceCall{
		Domain:  "automation",
		Service: "trigger",
		Data:    map[string]any{"entity_id": entityID},
	})
	if err != nil {
		return "", fmt.Errorf("failed to trigger %s: %w", entityID, err)
	}

	logger.InfoContext(ctx, "Triggered automation", "entity_id", entityID)

	return "Triggered " + entityID, nil
}
