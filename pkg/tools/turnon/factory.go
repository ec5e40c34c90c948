package turnon

import (
	"github.com/homesage/homesage/pkg/protocol"
)

func NewToolFactory() protocol.ToolFactory {
	return &ToolFactory{}
}

type ToolFactory struct{}

func (f *ToolFactory) ID() string {
	return "turn_on_device"
}

func (f *ToolFactory) Name() string {
	return "Turn on device"
}

func (f *ToolFactory) Description() string {
	return "Turn on a device, light, switch, or scene"
}

func (f *ToolFactory) Schema() map[string]any {
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"entity_id": map[string]any{
				"type":        "string",
				"description": "The entity ID to turn on (e.g., light.living_room)",
			},
		},
		"required": []string{"entity_id"},
	}
}

func (f *ToolFactory) Create(ha protocol.HomeAssistant) (protocol.Tool, error) {
	return NewTool(ha), nil
}
