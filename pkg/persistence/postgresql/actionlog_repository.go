package postgresql

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/homesage/homesage/pkg/models"
)

// ActionLogRepository handles the executed-action log in PostgreSQL.
type ActionLogRepository struct {
	db     *sql.DB
	logger *slog.Logger
}

// NewActionLogRepository creates a new action log repository.
func NewActionLogRepository(db *sql.DB, logger *slog.Logger) *ActionLogRepository {
	return &ActionLogRepository{db: db, logger: logger}
}

// Append adds an entry to the action log.
func (r *ActionLogRepository) Append(ctx context.Context, entry *models.ActionLogEntry) error {
	input, err := json.Marshal(entry.Input)
	if err != nil {
		return fmt.Errorf("failed to marshal action input: %w", err)
	}

	query := `
		INSERT INTO action_log (id, conversation_id, tool, input, output, error, executed_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`

	_, err = r.db.ExecContext(ctx, query,
		entry.ID,
		nullString(entry.ConversationID),
		entry.Tool,
		input,
		entry.Output,
		entry.Error,
		entry.ExecutedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to append action log entry: %w", err)
	}

	return nil
}

// List returns logged actions, newest first, capped at limit when positive.
func (r *ActionLogRepository) List(ctx context.Context, limit int) ([]*models.ActionLogEntry, error) {
	if limit <= 0 {
		limit = 100
	}

	query := `
		SELECT id, conversation_id, tool, input, output, error, executed_at
		FROM action_log
		ORDER BY executed_at DESC
		LIMIT $1
	`

	rows, err := r.db.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query action log: %w", err)
	}
	defer rows.Close()

	entries := make([]*models.ActionLogEntry, 0)

	for rows.Next() {
		var (
			entry          models.ActionLogEntry
			conversationID sql.NullString
			input          []byte
		)

		err := rows.Scan(&entry.ID, &conversationID, &entry.Tool, &input, &entry.Output, &entry.Error, &entry.ExecutedAt)
		if err != nil {
			return nil, fmt.Errorf("failed to scan action log entry: %w", err)
		}

		entry.ConversationID = conversationID.String

		if len(input) > 0 {
			if err := json.Unmarshal(input, &entry.Input); err != nil {
				return nil, fmt.Errorf("failed to parse action input: %w", err)
			}
		}

		entries = append(entries, &entry)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate action log: %w", err)
	}

	return entries, nil
}

func nullString(value string) sql.NullString {
	return sql.NullString{String: value, Valid: value != ""}
}
