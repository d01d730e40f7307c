package database

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-sql-driver/mysql"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jackc/pgx/v5/stdlib"
	"go.uber.org/zap"
	_ "modernc.org/sqlite" // registers the "sqlite" driver

	"github.com/Bennie-Haelen/llm-based-metadata-creation/pkg/logging"
	"github.com/Bennie-Haelen/llm-based-metadata-creation/pkg/retry"
)

// Config selects and locates the prompt store database.
type Config struct {
	Dialect Dialect
	DSN     string
	// Password is merged into the DSN when the DSN carries none.
	Password string
	Retry    *retry.Config
}

// Store is an open prompt store database. SQL is always set; Pool is set for Postgres only
// and backs SQL through the pgx stdlib adapter.
type Store struct {
	Dialect Dialect
	SQL     *sql.DB
	Pool    *pgxpool.Pool

	// reopen returns a second handle for golang-migrate, whose drivers close the handle they
	// are given. Nil for SQLite, where a second handle may not see the same database.
	reopen func() (*sql.DB, error)
}

// Open connects to the configured database, retrying transient failures.
func Open(ctx context.Context, cfg *Config, logger *zap.Logger) (*Store, error) {
	logger = logger.Named("store")
	if strings.TrimSpace(cfg.DSN) == "" {
		return nil, fmt.Errorf("store dsn is required")
	}

	store, err := retry.DoWithResult(ctx, cfg.Retry, func() (*Store, error) {
		return open(ctx, cfg)
	})
	if err != nil {
		return nil, fmt.Errorf("open %s store %s: %w", cfg.Dialect, logging.SanitizeDSN(cfg.DSN), err)
	}

	logger.Info("Opened prompt store",
		zap.String("dialect", string(cfg.Dialect)),
		zap.String("dsn", logging.SanitizeDSN(cfg.DSN)))
	return store, nil
}

func open(ctx context.Context, cfg *Config) (*Store, error) {
	switch cfg.Dialect {
	case DialectSQLite:
		return openSQLite(ctx, cfg.DSN)
	case DialectMySQL:
		return openMySQL(ctx, cfg.DSN, cfg.Password)
	case DialectPostgres:
		return openPostgres(ctx, cfg.DSN, cfg.Password)
	default:
		return nil, fmt.Errorf("unsupported dialect %q", cfg.Dialect)
	}
}

func openSQLite(ctx context.Context, dsn string) (*Store, error) {
	path := strings.TrimPrefix(dsn, "file:")
	if i := strings.IndexByte(path, '?'); i >= 0 {
		path = path[:i]
	}
	if path != ":memory:" && path != "" {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, fmt.Errorf("create store directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, err
	}
	// SQLite allows one writer; a single connection avoids SQLITE_BUSY from the async recorder.
	db.SetMaxOpenConns(1)
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, err
	}
	return &Store{Dialect: DialectSQLite, SQL: db}, nil
}

func openMySQL(ctx context.Context, dsn, password string) (*Store, error) {
	mcfg, err := mysql.ParseDSN(dsn)
	if err != nil {
		return nil, fmt.Errorf("parse mysql dsn: %w", err)
	}
	if mcfg.Passwd == "" {
		mcfg.Passwd = password
	}
	mcfg.ParseTime = true

	connector, err := mysql.NewConnector(mcfg)
	if err != nil {
		return nil, err
	}
	db := sql.OpenDB(connector)
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, err
	}
	return &Store{
		Dialect: DialectMySQL,
		SQL:     db,
		reopen:  func() (*sql.DB, error) { return sql.OpenDB(connector), nil },
	}, nil
}

func openPostgres(ctx context.Context, dsn, password string) (*Store, error) {
	pool, err := NewPool(ctx, &PoolConfig{URL: dsn, Password: password})
	if err != nil {
		return nil, err
	}
	return &Store{
		Dialect: DialectPostgres,
		SQL:     stdlib.OpenDBFromPool(pool),
		Pool:    pool,
		reopen:  func() (*sql.DB, error) { return stdlib.OpenDBFromPool(pool), nil },
	}, nil
}

// Close releases the connections.
func (s *Store) Close() error {
	err := s.SQL.Close()
	if s.Pool != nil {
		s.Pool.Close()
	}
	return err
}
