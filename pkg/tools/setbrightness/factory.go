package setbrightness

import (
	"github.com/homesage/homesage/pkg/protocol"
)

func NewToolFactory() protocol.ToolFactory {
	return &ToolFactory{}
}

type ToolFactory struct{}

func (f *ToolFactory) ID() string {
	return "set_brightness"
}

func (f *ToolFactory) Name() string {
	return "Set brightness"
}

func (f *ToolFactory) Description() string {
	return "Set light brightness (0-100%)"
}

func (f *ToolFactory) Schema() map[string]any {
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"entity_id": map[string]any{
				"type":        "string",
				"description": "The light entity ID",
			},
			"brightness": map[string]any{
				"type":        "number",
				"description": "Brightness percentage (0-100)",
				"minimum":     0,
				"maximum":     100,
			},
		},
		"required": []string{"entity_id", "brightness"},
	}
}

func (f *ToolFactory) Create(ha protocol.HomeAssistant) (protocol.Tool, error) {
	return NewTool(ha), nil
}
