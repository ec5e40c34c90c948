// Package web provides HTTP request and response types for the bridge API.
package web

import "github.com/homesage/homesage/pkg/models"

// ChatRequest represents the request body for a conversation turn.
// An empty ConversationID starts a new conversation.
type ChatRequest struct {
	ConversationID string `json:"conversation_id,omitempty" validate:"omitempty,max=255"`
	Message        string `json:"message"                   validate:"required,min=1"`
}

// ExecuteActionRequest represents the request body for a one-shot natural language action.
type ExecuteActionRequest struct {
	Action string `json:"action" validate:"required,min=1"`
}

// StateChangedRequest represents an entity state change pushed by an external watcher.
type StateChangedRequest struct {
	EntityID string `json:"entity_id" validate:"required"`
	OldState string `json:"old_state"`
	NewState string `json:"new_state" validate:"required"`
}

// ConversationSummary is the list representation of a conversation.
type ConversationSummary struct {
	ID           string `json:"id"`
	MessageCount int    `json:"message_count"`
	LastMessage  string `json:"last_message,omitempty"`
	CreatedAt    string `json:"created_at"`
	UpdatedAt    string `json:"updated_at"`
}

// TransformConversationSummary builds the list representation of a conversation.
func TransformConversationSummary(conversation *models.Conversation) ConversationSummary {
	summary := ConversationSummary{
		ID:           conversation.ID,
		MessageCount: len(conversation.Messages),
		CreatedAt:    conversation.CreatedAt.Format("2006-01-02T15:04:05Z07:00"),
		UpdatedAt:    conversation.UpdatedAt.Format("2006-01-02T15:04:05Z07:00"),
	}

	if len(conversation.Messages) > 0 {
		summary.LastMessage = conversation.Messages[len(conversation.Messages)-1].Text()
	}

	return summary
}
