package services

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/homesage/homesage/pkg/models"
	"github.com/homesage/homesage/pkg/persistence"
)

// ErrAnalysisNotFound is returned when no analysis has been run yet.
var ErrAnalysisNotFound = persistence.ErrAnalysisNotFound

// AnalysisAgent produces system health analyses.
type AnalysisAgent interface {
	AnalyzeSystem(ctx context.Context, trigger models.AnalysisTrigger) (*models.Analysis, error)
}

// Analysis is the service behind the system analysis endpoints and the
// watcher's scheduled runs.
type Analysis struct {
	persistence persistence.Persistence
	agent       AnalysisAgent
	logger      *slog.Logger
}

// NewAnalysis creates a new analysis service.
func NewAnalysis(p persistence.Persistence, analysisAgent AnalysisAgent, logger *slog.Logger) *Analysis {
	return &Analysis{
		persistence: p,
		agent:       analysisAgent,
		logger:      logger.With("module", "services"),
	}
}

// Run performs a system analysis and stores the result.
func (a *Analysis) Run(ctx context.Context, trigger models.AnalysisTrigger) (*models.Analysis, error) {
	analysis, err := a.agent.AnalyzeSystem(ctx, trigger)
	if err != nil {
		return nil, fmt.Errorf("analysis failed: %w", err)
	}

	if err := a.persistence.SaveAnalysis(ctx, analysis); err != nil {
		return nil, fmt.Errorf("failed to save analysis: %w", err)
	}

	a.logger.InfoContext(ctx, "Analysis completed",
		"analysis_id", analysis.ID,
		"trigger", analysis.Trigger,
		"unavailable_count", analysis.UnavailableCount)

	return analysis, nil
}

// Latest returns the most recent analysis.
func (a *Analysis) Latest(ctx context.Context) (*models.Analysis, error) {
	return a.persistence.LatestAnalysis(ctx)
}

// List returns stored analyses, newest first.
func (a *Analysis) List(ctx context.Context, limit int) ([]*models.Analysis, error) {
	analyses, err := a.persistence.Analyses(ctx, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list analyses: %w", err)
	}

	return analyses, nil
}
