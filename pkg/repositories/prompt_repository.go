package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/Bennie-Haelen/llm-based-metadata-creation/pkg/apperrors"
	"github.com/Bennie-Haelen/llm-based-metadata-creation/pkg/database"
	"github.com/Bennie-Haelen/llm-based-metadata-creation/pkg/models"
)

// PromptRepository provides data access for named prompt templates.
type PromptRepository interface {
	// GetByName returns apperrors.ErrNotFound when no template has the name.
	GetByName(ctx context.Context, name string) (*models.Prompt, error)
	List(ctx context.Context) ([]*models.Prompt, error)
	// Upsert inserts the template or replaces the text of the one with the same name.
	Upsert(ctx context.Context, p *models.Prompt) error
	// Delete returns apperrors.ErrNotFound when no template has the name.
	Delete(ctx context.Context, name string) error
}

// NewPromptRepository returns the repository for the store's dialect.
// Postgres goes through the pgx pool; SQLite and MySQL through database/sql.
func NewPromptRepository(store *database.Store) PromptRepository {
	if store.Dialect == database.DialectPostgres && store.Pool != nil {
		return &pgPromptRepository{pool: store.Pool}
	}
	return &sqlPromptRepository{db: store.SQL, dialect: store.Dialect}
}

// ============================================================================
// database/sql (SQLite, MySQL)
// ============================================================================

type sqlPromptRepository struct {
	db      *sql.DB
	dialect database.Dialect
}

var _ PromptRepository = (*sqlPromptRepository)(nil)

func (r *sqlPromptRepository) GetByName(ctx context.Context, name string) (*models.Prompt, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT id, name, template, created_at, updated_at FROM prompts WHERE name = ?`, name)

	var p models.Prompt
	if err := row.Scan(&p.ID, &p.Name, &p.Template, &p.CreatedAt, &p.UpdatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("prompt %q: %w", name, apperrors.ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get prompt: %w", err)
	}
	return &p, nil
}

func (r *sqlPromptRepository) List(ctx context.Context) ([]*models.Prompt, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, name, template, created_at, updated_at FROM prompts ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("failed to list prompts: %w", err)
	}
	defer rows.Close()

	var prompts []*models.Prompt
	for rows.Next() {
		var p models.Prompt
		if err := rows.Scan(&p.ID, &p.Name, &p.Template, &p.CreatedAt, &p.UpdatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan prompt: %w", err)
		}
		prompts = append(prompts, &p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate prompts: %w", err)
	}
	return prompts, nil
}

func (r *sqlPromptRepository) Upsert(ctx context.Context, p *models.Prompt) error {
	now := time.Now().UTC()

	query := `
		INSERT INTO prompts (name, template, created_at, updated_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(name) DO UPDATE SET template = excluded.template, updated_at = excluded.updated_at`
	if r.dialect == database.DialectMySQL {
		query = `
		INSERT INTO prompts (name, template, created_at, updated_at)
		VALUES (?, ?, ?, ?)
		ON DUPLICATE KEY UPDATE template = VALUES(template), updated_at = VALUES(updated_at)`
	}

	if _, err := r.db.ExecContext(ctx, query, p.Name, p.Template, now, now); err != nil {
		return fmt.Errorf("failed to upsert prompt: %w", err)
	}

	// Read back id and created_at, which differ from now when the row already existed.
	stored, err := r.GetByName(ctx, p.Name)
	if err != nil {
		return err
	}
	*p = *stored
	return nil
}

func (r *sqlPromptRepository) Delete(ctx context.Context, name string) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM prompts WHERE name = ?`, name)
	if err != nil {
		return fmt.Errorf("failed to delete prompt: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to delete prompt: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("prompt %q: %w", name, apperrors.ErrNotFound)
	}
	return nil
}

// ============================================================================
// pgx (PostgreSQL)
// ============================================================================

type pgPromptRepository struct {
	pool *pgxpool.Pool
}

var _ PromptRepository = (*pgPromptRepository)(nil)

func (r *pgPromptRepository) GetByName(ctx context.Context, name string) (*models.Prompt, error) {
	row := r.pool.QueryRow(ctx,
		`SELECT id, name, template, created_at, updated_at FROM prompts WHERE name = $1`, name)

	var p models.Prompt
	if err := row.Scan(&p.ID, &p.Name, &p.Template, &p.CreatedAt, &p.UpdatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("prompt %q: %w", name, apperrors.ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get prompt: %w", err)
	}
	return &p, nil
}

func (r *pgPromptRepository) List(ctx context.Context) ([]*models.Prompt, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT id, name, template, created_at, updated_at FROM prompts ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("failed to list prompts: %w", err)
	}
	defer rows.Close()

	var prompts []*models.Prompt
	for rows.Next() {
		var p models.Prompt
		if err := rows.Scan(&p.ID, &p.Name, &p.Template, &p.CreatedAt, &p.UpdatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan prompt: %w", err)
		}
		prompts = append(prompts, &p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate prompts: %w", err)
	}
	return prompts, nil
}

func (r *pgPromptRepository) Upsert(ctx context.Context, p *models.Prompt) error {
	query := `
		INSERT INTO prompts (name, template, created_at, updated_at)
		VALUES ($1, $2, now(), now())
		ON CONFLICT (name) DO UPDATE SET template = EXCLUDED.template, updated_at = now()
		RETURNING id, created_at, updated_at`

	if err := r.pool.QueryRow(ctx, query, p.Name, p.Template).Scan(&p.ID, &p.CreatedAt, &p.UpdatedAt); err != nil {
		return fmt.Errorf("failed to upsert prompt: %w", err)
	}
	return nil
}

func (r *pgPromptRepository) Delete(ctx context.Context, name string) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM prompts WHERE name = $1`, name)
	if err != nil {
		return fmt.Errorf("failed to delete prompt: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("prompt %q: %w", name, apperrors.ErrNotFound)
	}
	return nil
}
