package postgresql

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/homesage/homesage/pkg/models"
	"github.com/homesage/homesage/pkg/persistence"
)

// ConversationRepository handles conversation storage in PostgreSQL.
// The message history is stored as a JSONB document.
type ConversationRepository struct {
	db     *sql.DB
	logger *slog.Logger
}

// NewConversationRepository creates a new conversation repository.
func NewConversationRepository(db *sql.DB, logger *slog.Logger) *ConversationRepository {
	return &ConversationRepository{db: db, logger: logger}
}

// GetAll returns all conversations, most recently updated first.
func (r *ConversationRepository) GetAll(ctx context.Context) ([]*models.Conversation, error) {
	query := `
		SELECT id, messages, created_at, updated_at
		FROM conversations
		ORDER BY updated_at DESC
	`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query conversations: %w", err)
	}
	defer rows.Close()

	conversations := make([]*models.Conversation, 0)

	for rows.Next() {
		conversation, err := scanConversation(rows)
		if err != nil {
			return nil, err
		}

		conversations = append(conversations, conversation)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate conversations: %w", err)
	}

	return conversations, nil
}

// GetByID returns a conversation by its ID.
func (r *ConversationRepository) GetByID(ctx context.Context, id string) (*models.Conversation, error) {
	query := `
		SELECT id, messages, created_at, updated_at
		FROM conversations
		WHERE id = $1
	`

	row := r.db.QueryRowContext(ctx, query, id)

	conversation, err := scanConversation(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, persistence.NewConversationError("GetByID", id, persistence.ErrConversationNotFound)
	}

	if err != nil {
		return nil, persistence.NewConversationError("GetByID", id, err)
	}

	return conversation, nil
}

// Save upserts a conversation.
func (r *ConversationRepository) Save(ctx context.Context, conversation *models.Conversation) error {
	now := time.Now().UTC()
	if conversation.CreatedAt.IsZero() {
		conversation.CreatedAt = now
	}

	if conversation.UpdatedAt.IsZero() {
		conversation.UpdatedAt = now
	}

	messages, err := json.Marshal(conversation.Messages)
	if err != nil {
		return persistence.NewConversationError("Save", conversation.ID, err)
	}

	query := `
		INSERT INTO conversations (id, messages, created_at, updated_at)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (id) DO UPDATE SET
			messages = EXCLUDED.messages,
			updated_at = EXCLUDED.updated_at
	`

	_, err = r.db.ExecContext(ctx, query, conversation.ID, messages, conversation.CreatedAt, conversation.UpdatedAt)
	if err != nil {
		return persistence.NewConversationError("Save", conversation.ID, err)
	}

	return nil
}

// Delete removes a conversation.
func (r *ConversationRepository) Delete(ctx context.Context, id string) error {
	result, err := r.db.ExecContext(ctx, "DELETE FROM conversations WHERE id = $1", id)
	if err != nil {
		return persistence.NewConversationError("Delete", id, err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return persistence.NewConversationError("Delete", id, err)
	}

	if affected == 0 {
		return persistence.NewConversationError("Delete", id, persistence.ErrConversationNotFound)
	}

	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanConversation(row rowScanner) (*models.Conversation, error) {
	var (
		conversation models.Conversation
		messages     []byte
	)

	err := row.Scan(&conversation.ID, &messages, &conversation.CreatedAt, &conversation.UpdatedAt)
	if err != nil {
		return nil, err
	}

	if err := json.Unmarshal(messages, &conversation.Messages); err != nil {
		return nil, fmt.Errorf("failed to parse conversation messages: %w", err)
	}

	return &conversation, nil
}
