// Package postgresql provides PostgreSQL persistence for conversations, action logs, and analyses.
package postgresql

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	// PostgreSQL driver.
	_ "github.com/lib/pq"

	"github.com/homesage/homesage/pkg/models"
	"github.com/homesage/homesage/pkg/persistence/sqlbase"
)

// Persistence implements the persistence layer for PostgreSQL.
type Persistence struct {
	db               *sql.DB
	logger           *slog.Logger
	conversationRepo *ConversationRepository
	actionLogRepo    *ActionLogRepository
	analysisRepo     *AnalysisRepository
}

// NewPersistence creates a new PostgreSQL persistence layer.
func NewPersistence(ctx context.Context, logger *slog.Logger, databaseURL string) (*Persistence, error) {
	database, err := sql.Open("postgres", databaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to PostgreSQL database: %w", err)
	}

	err = database.PingContext(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	migrationManager := sqlbase.NewMigrationManager(logger, database, migrations())

	postgres := &Persistence{
		db:               database,
		logger:           logger,
		conversationRepo: NewConversationRepository(database, logger),
		actionLogRepo:    NewActionLogRepository(database, logger),
		analysisRepo:     NewAnalysisRepository(database, logger),
	}

	// Run migrations on initialization
	err = migrationManager.RunMigrations(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	return postgres, nil
}

// Close closes the database connection.
func (p *Persistence) Close(ctx context.Context) error {
	if p.db != nil {
		err := p.db.Close()
		if err != nil {
			return fmt.Errorf("failed to close database connection: %w", err)
		}
	}

	return nil
}

// HealthCheck verifies the database connection is healthy.
func (p *Persistence) HealthCheck(ctx context.Context) error {
	err := p.db.PingContext(ctx)
	if err != nil {
		return fmt.Errorf("failed to ping database: %w", err)
	}

	return nil
}

// Conversations returns all conversations, most recently updated first.
func (p *Persistence) Conversations(ctx context.Context) ([]*models.Conversation, error) {
	return p.conversationRepo.GetAll(ctx)
}

// ConversationByID returns a conversation by its ID.
func (p *Persistence) ConversationByID(ctx context.Context, id string) (*models.Conversation, error) {
	return p.conversationRepo.GetByID(ctx, id)
}

// SaveConversation saves a conversation to the database.
func (p *Persistence) SaveConversation(ctx context.Context, conversation *models.Conversation) error {
	return p.conversationRepo.Save(ctx, conversation)
}

// DeleteConversation deletes a conversation by its ID.
func (p *Persistence) DeleteConversation(ctx context.Context, id string) error {
	return p.conversationRepo.Delete(ctx, id)
}

// AppendAction adds an entry to the action log.
func (p *Persistence) AppendAction(ctx context.Context, entry *models.ActionLogEntry) error {
	return p.actionLogRepo.Append(ctx, entry)
}

// Actions returns logged actions, newest first.
func (p *Persistence) Actions(ctx context.Context, limit int) ([]*models.ActionLogEntry, error) {
	return p.actionLogRepo.List(ctx, limit)
}

// SaveAnalysis saves an analysis to the database.
func (p *Persistence) SaveAnalysis(ctx context.Context, analysis *models.Analysis) error {
	return p.analysisRepo.Save(ctx, analysis)
}

// LatestAnalysis returns the most recent analysis.
func (p *Persistence) LatestAnalysis(ctx context.Context) (*models.Analysis, error) {
	return p.analysisRepo.Latest(ctx)
}

// Analyses returns stored analyses, newest first.
func (p *Persistence) Analyses(ctx context.Context, limit int) ([]*models.Analysis, error) {
	return p.analysisRepo.List(ctx, limit)
}
