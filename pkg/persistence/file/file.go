// Package file provides file-based persistence for conversations, action logs, and analyses.
package file

import (
	"context"
	"os"
	"strings"
	"sync"

	"github.com/homesage/homesage/pkg/persistence"
)

// Persistence implements the persistence.Persistence interface using the file system.
// Conversations and analyses are stored as one JSON document per record, the
// action log as an append-only JSON lines file.
type Persistence struct {
	root string

	mu sync.Mutex
}

// NewPersistence creates a new instance of Persistence with the specified root directory.
func NewPersistence(root string) persistence.Persistence {
	cleanRoot := strings.Replace(root, "file://", "", 1)

	return &Persistence{root: cleanRoot}
}

// Close performs any necessary cleanup. For file-based persistence, there is nothing to clean up.
func (fp *Persistence) Close(_ context.Context) error {
	return nil
}

// HealthCheck checks if the file persistence layer is healthy by verifying the root directory exists.
func (fp *Persistence) HealthCheck(_ context.Context) error {
	if _, err := os.Stat(fp.root); os.IsNotExist(err) {
		return os.ErrNotExist
	}

	return nil
}
