// Package setbrightness provides the tool that adjusts light brightness.
package setbrightness

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/homesage/homesage/pkg/models"
	"github.com/homesage/homesage/pkg/protocol"
)

var (
	ErrEntityIDRequired   = errors.New("entity_id is required")
	ErrBrightnessRequired = errors.New("brightness is required")
	ErrBrightnessRange    = errors.New("brightness must be between 0 and 100")
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

	brightness, ok := input["brightness"].(float64)
	if !ok {
		return "", ErrBrightnessRequired
	}

	if brightness < 0 || brightness > 100 {
		return "", ErrBrightnessRange
	}

	err := t.ha.CallService(ctx, models.ServiceCall{
		Domain:  "light",
		Service: "turn_on",
		Data:    map[string]any{"entity_id": entityID, "brightness_pct": brightness},
	})
	if err != nil {
		return "", fmt.Errorf("failed to set brightness on %s: %w", entityID, err)
	}

	logger.InfoContext(ctx, "Set brightness", "entity_id", entityID, "brightness", brightness)

	return fmt.Sprintf("Set %s brightness to %g%%", entityID, brightness), nil
}
