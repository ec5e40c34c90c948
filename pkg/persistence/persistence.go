// Package persistence provides data storage abstraction for conversations,
// action logs, and system analyses.
package persistence

import (
	"context"

	"github.com/homesage/homesage/pkg/models"
)

type Persistence interface {
	Conversations(ctx context.Context) ([]*models.Conversation, error)
	ConversationByID(ctx context.Context, id string) (*models.Conversation, error)
	SaveConversation(ctx context.Context, conversation *models.Conversation) error
	DeleteConversation(ctx context.Context, id string) error

	AppendAction(ctx context.Context, entry *models.ActionLogEntry) error
	Actions(ctx context.Context, limit int) ([]*models.ActionLogEntry, error)

	SaveAnalysis(ctx context.Context, analysis *models.Analysis) error
	LatestAnalysis(ctx context.Context) (*models.Analysis, error)
	Analyses(ctx context.Context, limit int) ([]*models.Analysis, error)

	HealthCheck(ctx context.Context) error

	Close(ctx context.Context) error
}
