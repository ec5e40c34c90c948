package turnoff

import (
	"github.com/homesage/homesage/pkg/protocol"
)

func NewToolFactory() protocol.ToolFactory {
	return &ToolFactory{}
}

type ToolFactory struct{}

func (f *ToolFactory) ID() string {
	return "turn_off_device"
}

func (f *ToolFactory) Name() string {
	return "Turn off device"
}

func (f *ToolFactory) Description() string {
	return "Turn off a device, light, or switch"
}

func (f *ToolFactory) Schema() map[string]any {
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"entity_id": map[string]any{
				"type":        "string",
				"description": "The entity ID to turn off",
			},
		},
		"required": []string{"entity_id"},
	}
}

func (f *ToolFactory) Create(ha protocol.HomeAssistant) (protocol.Tool, error) {
	return NewTool(ha), nil
}
