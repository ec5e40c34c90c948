package models

import "time"

// ToolCall is a tool invocation requested by the model.
type ToolCall struct {
	ID    string         `json:"id"`
	Name  string         `json:"name"`
	Input map[string]any `json:"input"`
}

// ServiceCall is a Home Assistant service invocation produced by a tool.
type ServiceCall struct {
	Domain  string         `json:"domain"  validate:"required"`
	Service string         `json:"service" validate:"required"`
	Data    map[string]any `json:"data,omitempty"`
}

// ActionResult records the outcome of one executed tool call.
type ActionResult struct {
	Tool       string         `json:"tool"`
	Input      map[string]any `json:"input,omitempty"`
	Output     string         `json:"output,omitempty"`
	Error      string         `json:"error,omitempty"`
	ExecutedAt time.Time      `json:"executed_at"`
}

// Succeeded reports whether the action completed without error.
func (r ActionResult) Succeeded() bool {
	return r.Error == ""
}

// ActionLogEntry is a persisted action result tied to its conversation.
type ActionLogEntry struct {
	ID             string `json:"id"`
	ConversationID string `json:"conversation_id,omitempty"`
	ActionResult
}
