// Package protocol defines the interfaces and contracts for pluggable tools.
package protocol

import (
	"context"
	"log/slog"

	"github.com/homesage/homesage/pkg/models"
)

// HomeAssistant is the surface tools need from the Home Assistant client.
type HomeAssistant interface {
	CallService(ctx context.Context, call models.ServiceCall) error
}

// Tool executes one device-control capability exposed to the model.
// The returned string is the human-readable confirmation fed back to the
// model as a tool_result block.
type Tool interface {
	Execute(ctx context.Context, input map[string]any, logger *slog.Logger) (string, error)
}

// ToolFactory creates tool instances and provides metadata about the tool.
type ToolFactory interface {
	// Create creates a tool bound to the given Home Assistant client.
	Create(ha HomeAssistant) (Tool, error)

	// ID returns the tool name as exposed to the model.
	ID() string

	// Name returns the human-readable name of the tool.
	Name() string

	// Description returns what the tool does, phrased for the model.
	Description() string

	// Schema returns the JSON Schema of the tool's input.
	Schema() map[string]any
}
