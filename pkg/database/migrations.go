package database

import (
	"embed"
	"errors"
	"fmt"

	"github.com/golang-migrate/migrate/v4"
	migratedb "github.com/golang-migrate/migrate/v4/database"
	"github.com/golang-migrate/migrate/v4/database/mysql"
	"github.com/golang-migrate/migrate/v4/database/pgx/v5"
	"github.com/golang-migrate/migrate/v4/database/sqlite"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"go.uber.org/zap"
)

//go:embed migrations
var migrationFiles embed.FS

// RunMigrations applies pending migrations for the store's dialect.
// It is idempotent and safe to call multiple times.
func RunMigrations(store *Store, logger *zap.Logger) error {
	logger = logger.Named("migrations")

	src, err := iofs.New(migrationFiles, "migrations/"+string(store.Dialect))
	if err != nil {
		return fmt.Errorf("failed to open migration source: %w", err)
	}

	db := store.SQL
	if store.reopen != nil {
		if db, err = store.reopen(); err != nil {
			return fmt.Errorf("failed to open migration connection: %w", err)
		}
	}

	var driver migratedb.Driver
	switch store.Dialect {
	case DialectSQLite:
		driver, err = sqlite.WithInstance(db, &sqlite.Config{})
	case DialectMySQL:
		driver, err = mysql.WithInstance(db, &mysql.Config{})
	case DialectPostgres:
		driver, err = pgx.WithInstance(db, &pgx.Config{})
	default:
		err = fmt.Errorf("unsupported dialect %q", store.Dialect)
	}
	if err != nil {
		if db != store.SQL {
			db.Close()
		}
		src.Close()
		return fmt.Errorf("failed to create migration driver: %w", err)
	}

	m, err := migrate.NewWithInstance("iofs", src, string(store.Dialect), driver)
	if err != nil {
		return fmt.Errorf("failed to create migration instance: %w", err)
	}

	defer func() {
		// The SQLite driver would close the shared handle, so only the source is released.
		if db == store.SQL {
			if err := src.Close(); err != nil {
				logger.Warn("Failed to close migration source", zap.Error(err))
			}
			return
		}
		srcErr, dbErr := m.Close()
		if srcErr != nil {
			logger.Warn("Failed to close migration source", zap.Error(srcErr))
		}
		if dbErr != nil {
			logger.Warn("Failed to close migration database", zap.Error(dbErr))
		}
	}()

	err = m.Up()
	if errors.Is(err, migrate.ErrNoChange) {
		logger.Info("No migrations to apply (database up-to-date)")
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	version, _, _ := m.Version()
	logger.Info("Applied migrations successfully",
		zap.String("dialect", string(store.Dialect)),
		zap.Uint("version", version))
	return nil
}
