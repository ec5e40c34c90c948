package models

// RegisteredTool is a tool registered in the system with its metadata, the
// shape exported to API clients and to the model.
type RegisteredTool struct {
	Name        string         `json:"name"`
	Description string         `json:"description"`
	InputSchema map[string]any `json:"input_schema"`
}
