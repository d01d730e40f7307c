//go:build integration

package repositories

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/Bennie-Haelen/llm-based-metadata-creation/pkg/testhelpers"
)

func cleanPostgres(t *testing.T, pg *testhelpers.PostgresStore) {
	t.Helper()
	_, err := pg.Pool.Exec(context.Background(), "TRUNCATE prompts, llm_conversations")
	require.NoError(t, err)
}

func TestPromptRepository_Postgres(t *testing.T) {
	pg := testhelpers.SharedPostgresStore(t)
	cleanPostgres(t, pg)

	repo := NewPromptRepository(pg.Store)
	_, isPG := repo.(*pgPromptRepository)
	require.True(t, isPG)

	exercisePromptRepository(t, repo)
}

func TestConversationRepository_Postgres(t *testing.T) {
	pg := testhelpers.SharedPostgresStore(t)
	cleanPostgres(t, pg)

	exerciseConversationRepository(t, NewConversationRepository(pg.Store))
}
