//go:build integration

package testhelpers

import (
	"context"
	"testing"
)

func TestSharedPostgresStore_MigrationsApplied(t *testing.T) {
	pg := SharedPostgresStore(t)

	for _, table := range []string{"prompts", "llm_conversations"} {
		var exists bool
		err := pg.Pool.QueryRow(context.Background(),
			"SELECT EXISTS (SELECT 1 FROM information_schema.tables WHERE table_schema = 'public' AND table_name = $1)",
			table).Scan(&exists)
		if err != nil {
			t.Fatalf("query %s: %v", table, err)
		}
		if !exists {
			t.Errorf("expected table %s to exist", table)
		}
	}
}

func TestSharedPostgresStore_IsShared(t *testing.T) {
	if SharedPostgresStore(t) != SharedPostgresStore(t) {
		t.Error("expected one store per test binary")
	}
}
