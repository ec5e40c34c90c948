package services

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/google/uuid"

	"github.com/homesage/homesage/pkg/agent"
	"github.com/homesage/homesage/pkg/models"
	"github.com/homesage/homesage/pkg/persistence"
)

// ActionAgent runs one-shot natural language actions against the model.
type ActionAgent interface {
	ExecuteAction(ctx context.Context, action string) (*agent.ActionOutcome, error)
}

// Action is the service behind the one-shot action endpoint.
type Action struct {
	persistence persistence.Persistence
	agent       ActionAgent
	logger      *slog.Logger
}

// NewAction creates a new action service.
func NewAction(p persistence.Persistence, actionAgent ActionAgent, logger *slog.Logger) *Action {
	return &Action{
		persistence: p,
		agent:       actionAgent,
		logger:      logger.With("module", "services"),
	}
}

// Execute interprets a natural language command, runs the resulting tool
// calls, and records them in the action log.
func (a *Action) Execute(ctx context.Context, action string) (*agent.ActionOutcome, error) {
	action = strings.TrimSpace(action)
	if action == "" {
		return nil, NewValidationError("Execute", "ACTION_REQUIRED", "action cannot be empty", ErrActionRequired)
	}

	outcome, err := a.agent.ExecuteAction(ctx, action)
	if err != nil {
		return nil, fmt.Errorf("action execution failed: %w", err)
	}

	for _, result := range outcome.Actions {
		err := a.persistence.AppendAction(ctx, &models.ActionLogEntry{
			ID:           uuid.New().String(),
			ActionResult: result,
		})
		if err != nil {
			a.logger.ErrorContext(ctx, "Failed to log action", "tool", result.Tool, "error", err)
		}
	}

	return outcome, nil
}

// Log returns recently executed actions, newest first.
func (a *Action) Log(ctx context.Context, limit int) ([]*models.ActionLogEntry, error) {
	entries, err := a.persistence.Actions(ctx, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list actions: %w", err)
	}

	return entries, nil
}
