package settemperature

import (
	"github.com/homesage/homesage/pkg/protocol"
)

func NewToolFactory() protocol.ToolFactory {
	return &ToolFactory{}
}

type ToolFactory struct{}

func (f *ToolFactory) ID() string {
	return "set_temperature"
}

func (f *ToolFactory) Name() string {
	return "Set temperature"
}

func (f *ToolFactory) Description() string {
	return "Set thermostat temperature"
}

func (f *ToolFactory) Schema() map[string]any {
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"entity_id": map[string]any{
				"type":        "string",
				"description": "The climate entity ID",
			},
			"temperature": map[string]any{
				"type":        "number",
				"description": "Temperature to set",
			},
		},
		"required": []string{"entity_id", "temperature"},
	}
}

func (f *ToolFactory) Create(ha protocol.HomeAssistant) (protocol.Tool, error) {
	return NewTool(ha), nil
}
