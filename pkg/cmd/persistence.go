package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/homesage/homesage/pkg/persistence"
	"github.com/homesage/homesage/pkg/persistence/file"
	"github.com/homesage/homesage/pkg/persistence/postgresql"
	"github.com/homesage/homesage/pkg/persistence/redis"
)

// NewPersistence creates a persistence layer from a database URL. The URL
// scheme picks the backend: postgres://, redis://, or file:// (the default
// for bare paths).
func NewPersistence(ctx context.Context, logger *slog.Logger, databaseURL string) persistence.Persistence {
	switch parsePersistenceProvider(databaseURL) {
	case "postgres", "postgresql":
		p, err := postgresql.NewPersistence(ctx, logger, databaseURL)
		if err != nil {
			panic(fmt.Errorf("failed to create PostgreSQL persistence: %w", err))
		}

		return p
	case "redis", "rediss":
		p, err := redis.NewPersistence(ctx, logger, databaseURL)
		if err != nil {
			panic(fmt.Errorf("failed to create Redis persistence: %w", err))
		}

		return p
	default:
		return file.NewPersistence(databaseURL)
	}
}

func parsePersistenceProvider(databaseURL string) string {
	provider, _, found := strings.Cut(databaseURL, "://")
	if !found {
		return "file"
	}

	return provider
}
