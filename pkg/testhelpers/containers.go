// Package testhelpers provides migrated prompt stores for repository and service tests.
package testhelpers

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
	"go.uber.org/zap"

	"github.com/Bennie-Haelen/llm-based-metadata-creation/pkg/database"
)

const (
	// PostgresImage is the image the Postgres store is tested against.
	PostgresImage = "postgres:16-alpine"

	postgresUser     = "metadata"
	postgresPassword = "test_password"
	postgresDB       = "prompts"
)

// PostgresStore is a migrated Postgres prompt store running in a container.
type PostgresStore struct {
	*database.Store
	Container testcontainers.Container
	DSN       string
}

var (
	pgOnce  sync.Once
	pgStore *PostgresStore
	pgErr   error
)

// SharedPostgresStore starts one Postgres container per test binary and returns its
// store. Tests are skipped with -short since Docker is required.
func SharedPostgresStore(t *testing.T) *PostgresStore {
	t.Helper()
	if testing.Short() {
		t.Skip("postgres store needs Docker; skipped in short mode")
	}

	pgOnce.Do(func() {
		pgStore, pgErr = startPostgres(context.Background())
	})
	if pgErr != nil {
		t.Fatalf("start postgres store: %v", pgErr)
	}
	return pgStore
}

func startPostgres(ctx context.Context) (*PostgresStore, error) {
	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: testcontainers.ContainerRequest{
			Image:        PostgresImage,
			ExposedPorts: []string{"5432/tcp"},
			Env: map[string]string{
				"POSTGRES_DB":       postgresDB,
				"POSTGRES_USER":     postgresUser,
				"POSTGRES_PASSWORD": postgresPassword,
			},
			// The init run logs readiness once before the real server does.
			WaitingFor: wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(time.Minute),
		},
		Started: true,
	})
	if err != nil {
		return nil, fmt.Errorf("start container: %w", err)
	}

	endpoint, err := container.PortEndpoint(ctx, "5432/tcp", "")
	if err != nil {
		_ = container.Terminate(ctx)
		return nil, fmt.Errorf("container endpoint: %w", err)
	}
	dsn := fmt.Sprintf("postgres://%s:%s@%s/%s?sslmode=disable",
		postgresUser, postgresPassword, endpoint, postgresDB)

	store, err := database.Open(ctx, &database.Config{Dialect: database.DialectPostgres, DSN: dsn}, zap.NewNop())
	if err != nil {
		_ = container.Terminate(ctx)
		return nil, fmt.Errorf("open store: %w", err)
	}
	if err := database.RunMigrations(store, zap.NewNop()); err != nil {
		_ = store.Close()
		_ = container.Terminate(ctx)
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &PostgresStore{Store: store, Container: container, DSN: dsn}, nil
}
