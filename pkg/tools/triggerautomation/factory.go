package triggerautomation

import (
	"github.com/homesage/homesage/pkg/protocol"
)

func NewToolFactory() protocol.ToolFactory {
	return &ToolFactory{}
}

type ToolFactory struct{}

func (f *ToolFactory) ID() string {
	return "trigger_automation"
}

func (f *ToolFactory) Name() string {
	return "Trigger automation"
}

func (f *ToolFactory) Description() string {
	return "Trigger an automation"
}

func (f *ToolFactory) Schema() map[string]any {
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"entity_id": map[string]any{
				"type":        "string",
				"description": "The automation entity ID",
			},
		},
		"required": []string{"entity_id"},
	}
}

func (f *ToolFactory) Create(ha protocol.HomeAssistant) (protocol.Tool, error) {
	return NewTool(ha), nil
}
