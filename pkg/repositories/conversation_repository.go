package repositories

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/Bennie-Haelen/llm-based-metadata-creation/pkg/apperrors"
	"github.com/Bennie-Haelen/llm-based-metadata-creation/pkg/database"
	"github.com/Bennie-Haelen/llm-based-metadata-creation/pkg/models"
)

// ConversationRepository provides data access for LLM conversation records.
type ConversationRepository interface {
	Save(ctx context.Context, conv *models.LLMConversation) error
	Update(ctx context.Context, conv *models.LLMConversation) error
	ListByRun(ctx context.Context, runID uuid.UUID) ([]*models.LLMConversation, error)
	ListRecent(ctx context.Context, limit int) ([]*models.LLMConversation, error)
}

// conversationRepository works on every dialect through database/sql;
// Postgres reaches it through the pgx stdlib adapter.
type conversationRepository struct {
	db      *sql.DB
	dialect database.Dialect
}

// NewConversationRepository creates a new ConversationRepository.
func NewConversationRepository(store *database.Store) ConversationRepository {
	return &conversationRepository{db: store.SQL, dialect: store.Dialect}
}

var _ ConversationRepository = (*conversationRepository)(nil)

const conversationColumns = `id, run_id, context, provider, endpoint, model,
	system_message, prompt, temperature, response_content,
	prompt_tokens, completion_tokens, total_tokens, duration_ms,
	status, error_message, created_at`

func (r *conversationRepository) Save(ctx context.Context, conv *models.LLMConversation) error {
	conv.CreatedAt = time.Now().UTC()
	if conv.ID == uuid.Nil {
		conv.ID = uuid.New()
	}

	var contextJSON any
	if conv.Context != nil {
		data, err := json.Marshal(conv.Context)
		if err != nil {
			return fmt.Errorf("failed to marshal context: %w", err)
		}
		contextJSON = string(data)
	}

	query := r.dialect.Rebind(`
		INSERT INTO llm_conversations (` + conversationColumns + `)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)

	_, err := r.db.ExecContext(ctx, query,
		conv.ID.String(), conv.RunID.String(), contextJSON, conv.Provider, conv.Endpoint, conv.Model,
		conv.SystemMessage, conv.Prompt, conv.Temperature, nullString(conv.ResponseContent),
		conv.PromptTokens, conv.CompletionTokens, conv.TotalTokens, conv.DurationMs,
		conv.Status, nullString(conv.ErrorMessage), conv.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to save llm conversation: %w", err)
	}
	return nil
}

func (r *conversationRepository) Update(ctx context.Context, conv *models.LLMConversation) error {
	query := r.dialect.Rebind(`
		UPDATE llm_conversations
		SET response_content = ?,
		    prompt_tokens = ?,
		    completion_tokens = ?,
		    total_tokens = ?,
		    duration_ms = ?,
		    status = ?,
		    error_message = ?
		WHERE id = ?`)

	result, err := r.db.ExecContext(ctx, query,
		nullString(conv.ResponseContent),
		conv.PromptTokens, conv.CompletionTokens, conv.TotalTokens,
		conv.DurationMs, conv.Status, nullString(conv.ErrorMessage),
		conv.ID.String(),
	)
	if err != nil {
		return fmt.Errorf("failed to update llm conversation: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to update llm conversation: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("conversation %s: %w", conv.ID, apperrors.ErrNotFound)
	}
	return nil
}

func (r *conversationRepository) ListByRun(ctx context.Context, runID uuid.UUID) ([]*models.LLMConversation, error) {
	query := r.dialect.Rebind(`
		SELECT ` + conversationColumns + `
		FROM llm_conversations
		WHERE run_id = ?
		ORDER BY created_at ASC`)

	rows, err := r.db.QueryContext(ctx, query, runID.String())
	if err != nil {
		return nil, fmt.Errorf("failed to query conversations: %w", err)
	}
	defer rows.Close()

	return scanConversationRows(rows)
}

func (r *conversationRepository) ListRecent(ctx context.Context, limit int) ([]*models.LLMConversation, error) {
	if limit <= 0 {
		limit = 50
	}
	query := r.dialect.Rebind(`
		SELECT ` + conversationColumns + `
		FROM llm_conversations
		ORDER BY created_at DESC
		LIMIT ?`)

	rows, err := r.db.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query conversations: %w", err)
	}
	defer rows.Close()

	return scanConversationRows(rows)
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

func nullIntPtr(n sql.NullInt64) *int {
	if !n.Valid {
		return nil
	}
	v := int(n.Int64)
	return &v
}

func scanConversationRows(rows *sql.Rows) ([]*models.LLMConversation, error) {
	var conversations []*models.LLMConversation
	for rows.Next() {
		conv, err := scanConversationRow(rows)
		if err != nil {
			return nil, err
		}
		conversations = append(conversations, conv)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating rows: %w", err)
	}
	return conversations, nil
}

func scanConversationRow(rows *sql.Rows) (*models.LLMConversation, error) {
	var (
		conv                        models.LLMConversation
		id, runID                   string
		contextJSON                 []byte
		temperature                 sql.NullFloat64
		response, errorMessage      sql.NullString
		promptTok, complTok, totTok sql.NullInt64
	)

	err := rows.Scan(
		&id, &runID, &contextJSON, &conv.Provider, &conv.Endpoint, &conv.Model,
		&conv.SystemMessage, &conv.Prompt, &temperature, &response,
		&promptTok, &complTok, &totTok, &conv.DurationMs,
		&conv.Status, &errorMessage, &conv.CreatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to scan conversation: %w", err)
	}

	if conv.ID, err = uuid.Parse(id); err != nil {
		return nil, fmt.Errorf("failed to parse conversation id: %w", err)
	}
	if conv.RunID, err = uuid.Parse(runID); err != nil {
		return nil, fmt.Errorf("failed to parse run id: %w", err)
	}
	if temperature.Valid {
		conv.Temperature = &temperature.Float64
	}
	conv.ResponseContent = response.String
	conv.ErrorMessage = errorMessage.String
	conv.PromptTokens = nullIntPtr(promptTok)
	conv.CompletionTokens = nullIntPtr(complTok)
	conv.TotalTokens = nullIntPtr(totTok)

	if len(contextJSON) > 0 {
		if err := json.Unmarshal(contextJSON, &conv.Context); err != nil {
			return nil, fmt.Errorf("failed to unmarshal context: %w", err)
		}
	}
	return &conv, nil
}
