package database

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/Bennie-Haelen/llm-based-metadata-creation/pkg/apperrors"
	"github.com/Bennie-Haelen/llm-based-metadata-creation/pkg/retry"
)

func TestParseDialect(t *testing.T) {
	tests := map[string]Dialect{
		"sqlite":     DialectSQLite,
		"SQLite3":    DialectSQLite,
		"mysql":      DialectMySQL,
		"postgres":   DialectPostgres,
		"postgresql": DialectPostgres,
		" pg ":       DialectPostgres,
	}
	for in, want := range tests {
		got, err := ParseDialect(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got, in)
	}

	_, err := ParseDialect("oracle")
	assert.ErrorIs(t, err, apperrors.ErrUnsupported)
}

func TestDialect_Rebind(t *testing.T) {
	query := "SELECT id FROM prompts WHERE name = ? AND template <> '?' AND id > ?"

	assert.Equal(t, query, DialectSQLite.Rebind(query))
	assert.Equal(t, query, DialectMySQL.Rebind(query))
	assert.Equal(t,
		"SELECT id FROM prompts WHERE name = $1 AND template <> '?' AND id > $2",
		DialectPostgres.Rebind(query))
}

func openTestSQLite(t *testing.T) *Store {
	t.Helper()
	dsn := filepath.Join(t.TempDir(), "nested", "prompts.db")
	store, err := Open(context.Background(), &Config{
		Dialect: DialectSQLite,
		DSN:     dsn,
		Retry:   &retry.Config{MaxRetries: 0},
	}, zap.NewNop())
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func TestOpen_SQLiteCreatesDirectory(t *testing.T) {
	store := openTestSQLite(t)

	assert.Equal(t, DialectSQLite, store.Dialect)
	assert.Nil(t, store.Pool)
	require.NoError(t, store.SQL.Ping())
}

func TestOpen_RequiresDSN(t *testing.T) {
	_, err := Open(context.Background(), &Config{Dialect: DialectSQLite}, zap.NewNop())
	require.Error(t, err)
}

func TestRunMigrations_SQLiteIsIdempotent(t *testing.T) {
	store := openTestSQLite(t)

	require.NoError(t, RunMigrations(store, zap.NewNop()))
	require.NoError(t, RunMigrations(store, zap.NewNop()))

	// The shared handle must still be usable after migrating.
	for _, table := range []string{"prompts", "llm_conversations"} {
		var name string
		err := store.SQL.QueryRow(
			"SELECT name FROM sqlite_master WHERE type = 'table' AND name = ?", table,
		).Scan(&name)
		require.NoError(t, err, table)
		assert.Equal(t, table, name)
	}
}
