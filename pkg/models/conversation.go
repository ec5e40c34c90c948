package models

import "time"

// Message roles used on the Anthropic messages API.
const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// Content block types on the Anthropic messages API.
const (
	ContentTypeText       = "text"
	ContentTypeToolUse    = "tool_use"
	ContentTypeToolResult = "tool_result"
)

// MaxConversationMessages is the rolling history window kept per conversation.
const MaxConversationMessages = 10

// ContentBlock is one block of a message: text, a tool invocation requested
// by the model, or the result of executing one.
type ContentBlock struct {
	Type string `json:"type"`
	Text string `json:"text,omitempty"`

	// tool_use fields.
	ID    string         `json:"id,omitempty"`
	Name  string         `json:"name,omitempty"`
	Input map[string]any `json:"input,omitempty"`

	// tool_result fields.
	ToolUseID string `json:"tool_use_id,omitempty"`
	Content   string `json:"content,omitempty"`
	IsError   bool   `json:"is_error,omitempty"`
}

// TextBlock builds a plain text content block.
func TextBlock(text string) ContentBlock {
	return ContentBlock{Type: ContentTypeText, Text: text}
}

// ToolResultBlock builds a tool_result block answering a tool_use block.
func ToolResultBlock(toolUseID, content string, isError bool) ContentBlock {
	return ContentBlock{
		Type:      ContentTypeToolResult,
		ToolUseID: toolUseID,
		Content:   content,
		IsError:   isError,
	}
}

// Message is a single conversation turn.
type Message struct {
	Role    string         `json:"role"    validate:"required,oneof=user assistant"`
	Content []ContentBlock `json:"content"`
}

// UserMessage builds a user turn with a single text block.
func UserMessage(text string) Message {
	return Message{Role: RoleUser, Content: []ContentBlock{TextBlock(text)}}
}

// AssistantMessage builds an assistant turn from the given blocks.
func AssistantMessage(blocks ...ContentBlock) Message {
	return Message{Role: RoleAssistant, Content: blocks}
}

// Text concatenates the message's text blocks.
func (m Message) Text() string {
	var out string

	for _, block := range m.Content {
		if block.Type == ContentTypeText {
			out += block.Text
		}
	}

	return out
}

// HasToolResult reports whether the message carries a tool_result block.
func (m Message) HasToolResult() bool {
	for _, block := range m.Content {
		if block.Type == ContentTypeToolResult {
			return true
		}
	}

	return false
}

// ToolCalls returns the tool_use blocks of the message.
func (m Message) ToolCalls() []ToolCall {
	var calls []ToolCall

	for _, block := range m.Content {
		if block.Type == ContentTypeToolUse {
			calls = append(calls, ToolCall{ID: block.ID, Name: block.Name, Input: block.Input})
		}
	}

	return calls
}

// Conversation is a persisted chat session with its rolling message history.
type Conversation struct {
	ID        string    `json:"id"`
	Messages  []Message `json:"messages"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Append adds messages to the history and trims it to the rolling window.
func (c *Conversation) Append(messages ...Message) {
	c.Messages = append(c.Messages, messages...)
	c.Trim(MaxConversationMessages)
	c.UpdatedAt = time.Now().UTC()
}

// Trim keeps only the last max messages, then drops leading turns until the
// history opens with a plain user turn. An assistant turn at the head, or a
// user turn of tool_result blocks whose matching tool_use was trimmed away,
// is rejected by the messages API.
func (c *Conversation) Trim(max int) {
	if len(c.Messages) > max {
		c.Messages = c.Messages[len(c.Messages)-max:]
	}

	for len(c.Messages) > 0 && (c.Messages[0].Role != RoleUser || c.Messages[0].HasToolResult()) {
		c.Messages = c.Messages[1:]
	}
}
