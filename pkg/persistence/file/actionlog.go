package file

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/homesage/homesage/pkg/models"
)

func (fp *Persistence) actionLogPath() string {
	return filepath.Join(fp.root, "actions.jsonl")
}

// AppendAction appends an entry to the action log, one JSON document per line.
func (fp *Persistence) AppendAction(ctx context.Context, entry *models.ActionLogEntry) error {
	fp.mu.Lock()
	defer fp.mu.Unlock()

	if err := os.MkdirAll(fp.root, dirPerm); err != nil {
		return fmt.Errorf("failed to create persistence root: %w", err)
	}

	data, err := json.Marshal(entry)
	if err != nil {
		return fmt.Errorf("failed to marshal action log entry: %w", err)
	}

	file, err := os.OpenFile(fp.actionLogPath(), os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o600)
	if err != nil {
		return fmt.Errorf("failed to open action log: %w", err)
	}
	defer file.Close()

	if _, err := file.Write(append(data, '\n')); err != nil {
		return fmt.Errorf("failed to append action log entry: %w", err)
	}

	return nil
}

// Actions returns logged actions, newest first, capped at limit when positive.
func (fp *Persistence) Actions(ctx context.Context, limit int) ([]*models.ActionLogEntry, error) {
	fp.mu.Lock()
	defer fp.mu.Unlock()

	file, err := os.Open(fp.actionLogPath())
	if os.IsNotExist(err) {
		return []*models.ActionLogEntry{}, nil
	}

	if err != nil {
		return nil, fmt.Errorf("failed to open action log: %w", err)
	}
	defer file.Close()

	var entries []*models.ActionLogEntry

	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}

		var entry models.ActionLogEntry
		if err := json.Unmarshal(line, &entry); err != nil {
			return nil, fmt.Errorf("failed to parse action log entry: %w", err)
		}

		entries = append(entries, &entry)
	}

	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read action log: %w", err)
	}

	// The log is append-only, so reversing yields newest first.
	for i, j := 0, len(entries)-1; i < j; i, j = i+1, j-1 {
		entries[i], entries[j] = entries[j], entries[i]
	}

	if limit > 0 && len(entries) > limit {
		entries = entries[:limit]
	}

	return entries, nil
}
