// Package claude implements a client for the Anthropic Messages API.
package claude

import (
	"time"

	"github.com/homesage/homesage/pkg/models"
)

// DefaultModel is used when no model is configured.
const DefaultModel = "claude-sonnet-4-20250514"

// APIVersion is the anthropic-version header sent on every request.
const APIVersion = "2023-06-01"

// Stop reasons returned by the API.
const (
	StopReasonEndTurn   = "end_turn"
	StopReasonToolUse   = "tool_use"
	StopReasonMaxTokens = "max_tokens"
)

// Config holds connection settings for the Anthropic API.
type Config struct {
	APIKey    string
	BaseURL   string
	Model     string
	MaxTokens int
	Timeout   time.Duration
}

// DefaultConfig returns sensible defaults for the given key.
func DefaultConfig(apiKey string) Config {
	return Config{
		APIKey:    apiKey,
		BaseURL:   "https://api.anthropic.com/v1",
		Model:     DefaultModel,
		MaxTokens: 4096,
		Timeout:   2 * time.Minute,
	}
}

// Tool is a tool definition in the messages API request.
type Tool struct {
	Name        string         `json:"name"`
	Description string         `json:"description,omitempty"`
	InputSchema map[string]any `json:"input_schema"`
}

// MessageRequest is the body of POST /v1/messages.
type MessageRequest struct {
	Model     string           `json:"model"`
	MaxTokens int              `json:"max_tokens"`
	System    string           `json:"system,omitempty"`
	Messages  []models.Message `json:"messages"`
	Tools     []Tool           `json:"tools,omitempty"`
	Stream    bool             `json:"stream,omitempty"`
}

// Usage reports token consumption for a request.
type Usage struct {
	InputTokens  int `json:"input_tokens"`
	OutputTokens int `json:"output_tokens"`
}

// APIError is the error object embedded in non-2xx responses.
type APIError struct {
	Type    string `json:"type"`
	Message string `json:"message"`
}

// MessageResponse is the body of a successful messages call.
type MessageResponse struct {
	ID         string                `json:"id"`
	Model      string                `json:"model"`
	Role       string                `json:"role"`
	Content    []models.ContentBlock `json:"content"`
	StopReason string                `json:"stop_reason"`
	Usage      Usage                 `json:"usage"`
	Error      *APIError             `json:"error,omitempty"`
}

// Text concatenates the text blocks of the response.
func (r *MessageResponse) Text() string {
	var out string

	for _, block := range r.Content {
		if block.Type == models.ContentTypeText {
			out += block.Text
		}
	}

	return out
}

// ToolCalls returns the tool_use blocks of the response.
func (r *MessageResponse) ToolCalls() []models.ToolCall {
	var calls []models.ToolCall

	for _, block := range r.Content {
		if block.Type == models.ContentTypeToolUse {
			calls = append(calls, models.ToolCall{ID: block.ID, Name: block.Name, Input: block.Input})
		}
	}

	return calls
}
