package services

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/homesage/homesage/pkg/agent"
	"github.com/homesage/homesage/pkg/models"
	"github.com/homesage/homesage/pkg/persistence"
)

// ErrConversationNotFound is returned when a conversation is not found.
var ErrConversationNotFound = persistence.ErrConversationNotFound

// ChatAgent runs a single conversation turn against the model.
type ChatAgent interface {
	Chat(ctx context.Context, conversation *models.Conversation, userMessage string) (*agent.ChatResult, error)
}

// Conversation is the service behind the chat endpoints. It owns conversation
// lifecycle and persistence; the agent owns the model interaction.
type Conversation struct {
	persistence persistence.Persistence
	agent       ChatAgent
	logger      *slog.Logger
}

// NewConversation creates a new conversation service.
func NewConversation(p persistence.Persistence, chatAgent ChatAgent, logger *slog.Logger) *Conversation {
	return &Conversation{
		persistence: p,
		agent:       chatAgent,
		logger:      logger.With("module", "services"),
	}
}

// HealthCheck checks the health of the persistence layer.
func (c *Conversation) HealthCheck(ctx context.Context) (string, bool) {
	if c.persistence == nil {
		return "Persistence layer not initialized", false
	}

	err := c.persistence.HealthCheck(ctx)
	if err != nil {
		return "Persistence layer is unhealthy: " + err.Error(), false
	}

	return "Persistence layer is healthy", true
}

// ChatRequest is one user turn. An empty ConversationID starts a new conversation.
type ChatRequest struct {
	ConversationID string
	Message        string
}

// Chat runs a conversation turn and persists the updated history and the
// executed actions.
func (c *Conversation) Chat(ctx context.Context, req ChatRequest) (*agent.ChatResult, error) {
	req.Message = strings.TrimSpace(req.Message)
	if req.Message == "" {
		return nil, NewValidationError("Chat", "MESSAGE_REQUIRED", "message cannot be empty", ErrMessageRequired)
	}

	conversation, err := c.loadOrCreate(ctx, req.ConversationID)
	if err != nil {
		return nil, err
	}

	result, err := c.agent.Chat(ctx, conversation, req.Message)
	if err != nil {
		return nil, fmt.Errorf("chat failed: %w", err)
	}

	if err := c.persistence.SaveConversation(ctx, conversation); err != nil {
		return nil, fmt.Errorf("failed to save conversation: %w", err)
	}

	c.logActions(ctx, conversation.ID, result.Actions)

	return result, nil
}

// Conversations lists all stored conversations.
func (c *Conversation) Conversations(ctx context.Context) ([]*models.Conversation, error) {
	conversations, err := c.persistence.Conversations(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list conversations: %w", err)
	}

	return conversations, nil
}

// FetchByID retrieves a conversation by its ID.
func (c *Conversation) FetchByID(ctx context.Context, id string) (*models.Conversation, error) {
	return c.persistence.ConversationByID(ctx, id)
}

// Delete removes a conversation by its ID.
func (c *Conversation) Delete(ctx context.Context, id string) error {
	return c.persistence.DeleteConversation(ctx, id)
}

func (c *Conversation) loadOrCreate(ctx context.Context, id string) (*models.Conversation, error) {
	if id == "" {
		return &models.Conversation{
			ID:        uuid.New().String(),
			CreatedAt: time.Now().UTC(),
		}, nil
	}

	conversation, err := c.persistence.ConversationByID(ctx, id)
	if persistence.IsConversationNotFound(err) {
		// A client-supplied ID starts a fresh conversation under that ID.
		return &models.Conversation{
			ID:        id,
			CreatedAt: time.Now().UTC(),
		}, nil
	}

	if err != nil {
		return nil, fmt.Errorf("failed to load conversation: %w", err)
	}

	return conversation, nil
}

func (c *Conversation) logActions(ctx context.Context, conversationID string, actions []models.ActionResult) {
	for _, action := range actions {
		err := c.persistence.AppendAction(ctx, &models.ActionLogEntry{
			ID:             uuid.New().String(),
			ConversationID: conversationID,
			ActionResult:   action,
		})
		if err != nil {
			// The reply already went out; losing a log entry is not fatal.
			c.logger.ErrorContext(ctx, "Failed to log action", "tool", action.Tool, "error", err)
		}
	}
}
