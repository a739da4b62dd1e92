package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/evaldomacielf-sketch/jurisnexo-sub000/pkg/persistence"
	"github.com/evaldomacielf-sketch/jurisnexo-sub000/pkg/persistence/file"
	"github.com/evaldomacielf-sketch/jurisnexo-sub000/pkg/persistence/postgresql"
)

// NewPersistence selects the store from the database URL scheme. postgres://
// URLs get the SQL store with migrations applied; anything else is treated
// as a filesystem root for the JSON document store.
func NewPersistence(ctx context.Context, logger *slog.Logger, databaseURL string) persistence.Persistence {
	if strings.HasPrefix(databaseURL, "postgres://") || strings.HasPrefix(databaseURL, "postgresql://") {
		p, err := postgresql.NewPersistence(ctx, logger, databaseURL)
		if err != nil {
			panic(fmt.Errorf("failed to initialize postgres persistence: %w", err))
		}

		return p
	}

	return file.NewPersistence(databaseURL)
}
