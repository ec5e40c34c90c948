// Package persistence provides standardized error types for persistence operations.
package persistence

import (
	"errors"
	"fmt"
)

// Standard persistence error types that all implementations should use.
var (
	// ErrConversationNotFound indicates a conversation was not found by the given identifier.
	ErrConversationNotFound = errors.New("conversation not found")

	// ErrAnalysisNotFound indicates no analysis exists yet.
	ErrAnalysisNotFound = errors.New("analysis not found")
)

// ConversationError wraps conversation-related errors with additional context.
type ConversationError struct {
	Op             string // Operation being performed (e.g., "GetByID", "Save", "Delete")
	ConversationID string // Conversation ID if applicable
	Err            error  // Underlying error
}

func (e *ConversationError) Error() string {
	return fmt.Sprintf("%s operation failed for conversation %s: %v", e.Op, e.ConversationID, e.Err)
}

func (e *ConversationError) Unwrap() error {
	return e.Err
}

// Is implements error comparison for conversation errors.
func (e *ConversationError) Is(target error) bool {
	return errors.Is(e.Err, target)
}

// NewConversationError creates a new conversation error with context.
func NewConversationError(op, conversationID string, err error) *ConversationError {
	return &ConversationError{
		Op:             op,
		ConversationID: conversationID,
		Err:            err,
	}
}

// IsConversationNotFound checks if an error indicates a conversation was not found.
func IsConversationNotFound(err error) bool {
	return errors.Is(err, ErrConversationNotFound)
}

// IsAnalysisNotFound checks if an error indicates no analysis exists yet.
func IsAnalysisNotFound(err error) bool {
	return errors.Is(err, ErrAnalysisNotFound)
}
