package testhelpers

import (
	"context"
	"path/filepath"
	"testing"

	"go.uber.org/zap"

	"github.com/Bennie-Haelen/llm-based-metadata-creation/pkg/database"
	"github.com/Bennie-Haelen/llm-based-metadata-creation/pkg/retry"
)

// NewSQLiteStore opens a migrated SQLite store in a per-test temp dir.
// It is closed when the test ends.
func NewSQLiteStore(t *testing.T) *database.Store {
	t.Helper()

	store, err := database.Open(context.Background(), &database.Config{
		Dialect: database.DialectSQLite,
		DSN:     filepath.Join(t.TempDir(), "prompts.db"),
		Retry:   &retry.Config{MaxRetries: 0},
	}, zap.NewNop())
	if err != nil {
		t.Fatalf("failed to open sqlite store: %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })

	if err := database.RunMigrations(store, zap.NewNop()); err != nil {
		t.Fatalf("failed to run migrations: %v", err)
	}
	return store
}
