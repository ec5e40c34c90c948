package postgresql

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"

	"github.com/homesage/homesage/pkg/models"
	"github.com/homesage/homesage/pkg/persistence"
)

// AnalysisRepository handles system analysis storage in PostgreSQL.
type AnalysisRepository struct {
	db     *sql.DB
	logger *slog.Logger
}

// NewAnalysisRepository creates a new analysis repository.
func NewAnalysisRepository(db *sql.DB, logger *slog.Logger) *AnalysisRepository {
	return &AnalysisRepository{db: db, logger: logger}
}

// Save stores an analysis.
func (r *AnalysisRepository) Save(ctx context.Context, analysis *models.Analysis) error {
	query := `
		INSERT INTO analyses (id, trigger_type, summary, entity_count, unavailable_count, error_log_line_count, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`

	_, err := r.db.ExecContext(ctx, query,
		analysis.ID,
		string(analysis.Trigger),
		analysis.Summary,
		analysis.EntityCount,
		analysis.UnavailableCount,
		analysis.ErrorLogLineCount,
		analysis.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to save analysis %s: %w", analysis.ID, err)
	}

	return nil
}

// Latest returns the most recent analysis.
func (r *AnalysisRepository) Latest(ctx context.Context) (*models.Analysis, error) {
	query := `
		SELECT id, trigger_type, summary, entity_count, unavailable_count, error_log_line_count, created_at
		FROM analyses
		ORDER BY created_at DESC
		LIMIT 1
	`

	analysis, err := scanAnalysis(r.db.QueryRowContext(ctx, query))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, persistence.ErrAnalysisNotFound
	}

	if err != nil {
		return nil, err
	}

	return analysis, nil
}

// List returns stored analyses, newest first, capped at limit when positive.
func (r *AnalysisRepository) List(ctx context.Context, limit int) ([]*models.Analysis, error) {
	if limit <= 0 {
		limit = 50
	}

	query := `
		SELECT id, trigger_type, summary, entity_count, unavailable_count, error_log_line_count, created_at
		FROM analyses
		ORDER BY created_at DESC
		LIMIT $1
	`

	rows, err := r.db.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query analyses: %w", err)
	}
	defer rows.Close()

	analyses := make([]*models.Analysis, 0)

	for rows.Next() {
		analysis, err := scanAnalysis(rows)
		if err != nil {
			return nil, err
		}

		analyses = append(analyses, analysis)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate analyses: %w", err)
	}

	return analyses, nil
}

func scanAnalysis(row rowScanner) (*models.Analysis, error) {
	var (
		analysis models.Analysis
		trigger  string
	)

	err := row.Scan(
		&analysis.ID,
		&trigger,
		&analysis.Summary,
		&analysis.EntityCount,
		&analysis.UnavailableCount,
		&analysis.ErrorLogLineCount,
		&analysis.CreatedAt,
	)
	if err != nil {
		return nil, err
	}

	analysis.Trigger = models.AnalysisTrigger(trigger)

	return &analysis, nil
}
