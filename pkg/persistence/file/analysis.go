package file

import (
	"context"
	"encoding/json"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/homesage/homesage/pkg/models"
	"github.com/homesage/homesage/pkg/persistence"
)

func (fp *Persistence) analysesDir() string {
	return filepath.Join(fp.root, "analyses")
}

func (fp *Persistence) analysisPath(id string) string {
	return filepath.Join(fp.analysesDir(), id+".json")
}

// SaveAnalysis writes an analysis to the file system.
func (fp *Persistence) SaveAnalysis(ctx context.Context, analysis *models.Analysis) error {
	fp.mu.Lock()
	defer fp.mu.Unlock()

	if err := os.MkdirAll(fp.analysesDir(), dirPerm); err != nil {
		return fmt.Errorf("failed to create analyses directory: %w", err)
	}

	data, err := json.MarshalIndent(analysis, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal analysis %s: %w", analysis.ID, err)
	}

	if err := os.WriteFile(fp.analysisPath(analysis.ID), data, 0o600); err != nil {
		return fmt.Errorf("failed to write analysis %s: %w", analysis.ID, err)
	}

	return nil
}

// LatestAnalysis returns the most recent analysis.
func (fp *Persistence) LatestAnalysis(ctx context.Context) (*models.Analysis, error) {
	analyses, err := fp.Analyses(ctx, 1)
	if err != nil {
		return nil, err
	}

	if len(analyses) == 0 {
		return nil, persistence.ErrAnalysisNotFound
	}

	return analyses[0], nil
}

// Analyses returns stored analyses, newest first, capped at limit when positive.
func (fp *Persistence) Analyses(ctx context.Context, limit int) ([]*models.Analysis, error) {
	fp.mu.Lock()
	defer fp.mu.Unlock()

	if _, err := os.Stat(fp.analysesDir()); os.IsNotExist(err) {
		return []*models.Analysis{}, nil
	}

	root := os.DirFS(fp.analysesDir())

	jsonFiles, err := fs.Glob(root, "*.json")
	if err != nil {
		return nil, fmt.Errorf("failed to list analysis files: %w", err)
	}

	analyses := make([]*models.Analysis, 0, len(jsonFiles))

	for _, file := range jsonFiles {
		id := strings.TrimSuffix(file, ".json")

		data, err := os.ReadFile(fp.analysisPath(id))
		if err != nil {
			return nil, fmt.Errorf("failed to read analysis %s: %w", id, err)
		}

		var analysis models.Analysis
		if err := json.Unmarshal(data, &analysis); err != nil {
			return nil, fmt.Errorf("failed to parse analysis %s: %w", id, err)
		}

		analyses = append(analyses, &analysis)
	}

	sort.Slice(analyses, func(i, j int) bool {
		return analyses[i].CreatedAt.After(analyses[j].CreatedAt)
	})

	if limit > 0 && len(analyses) > limit {
		analyses = analyses[:limit]
	}

	return analyses, nil
}
