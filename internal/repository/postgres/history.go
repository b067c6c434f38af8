package postgres

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/utafrali/PromptEnhancerPro/internal/domain"
	"github.com/utafrali/PromptEnhancerPro/pkg/database"
)

// PromptHistoryRepository implements repository.PromptHistoryRepository
// using PostgreSQL.
type PromptHistoryRepository struct {
	db database.DBTX
}

// NewPromptHistoryRepository creates a PostgreSQL-backed history repository.
func NewPromptHistoryRepository(db database.DBTX) *PromptHistoryRepository {
	return &PromptHistoryRepository{db: db}
}

// Create inserts one history row. Params are stored as JSONB.
func (r *PromptHistoryRepository) Create(ctx context.Context, h *domain.PromptHistory) (err error) {
	query := `
		INSERT INTO prompt_history (id, user_id, model_id, provider, input_prompt, enhanced_prompt, params_json, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`

	params, err := json.Marshal(h.Params)
	if err != nil {
		return fmt.Errorf("marshal history params: %w", err)
	}

	ctx, end := database.TraceQuery(ctx, "prompt_history.Create", query)
	defer func() { end(err) }()

	_, err = r.db.Exec(ctx, query,
		h.ID,
		h.UserID,
		h.ModelID,
		h.Provider,
		h.InputPrompt,
		h.EnhancedPrompt,
		params,
		h.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert prompt history: %w", err)
	}
	return nil
}

// ListByUser returns a page of the user's history, newest first.
func (r *PromptHistoryRepository) ListByUser(ctx context.Context, userID string, limit, offset int) (_ []domain.PromptHistory, _ int, err error) {
	countQuery := `SELECT COUNT(*) FROM prompt_history WHERE user_id = $1`
	listQuery := `
		SELECT id, user_id, model_id, provider, input_prompt, enhanced_prompt, params_json, created_at
		FROM prompt_history
		WHERE user_id = $1
		ORDER BY created_at DESC, id DESC
		LIMIT $2 OFFSET $3`

	ctx, end := database.TraceQuery(ctx, "prompt_history.ListByUser", listQuery)
	defer func() { end(err) }()

	var total int
	if err = r.db.QueryRow(ctx, countQuery, userID).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count prompt history: %w", err)
	}
	if total == 0 {
		return []domain.PromptHistory{}, 0, nil
	}

	rows, err := r.db.Query(ctx, listQuery, userID, limit, offset)
	if err != nil {
		return nil, 0, fmt.Errorf("list prompt history: %w", err)
	}
	defer rows.Close()

	entries := make([]domain.PromptHistory, 0, limit)
	for rows.Next() {
		var (
			h      domain.PromptHistory
			params []byte
		)
		if err = rows.Scan(
			&h.ID,
			&h.UserID,
			&h.ModelID,
			&h.Provider,
			&h.InputPrompt,
			&h.EnhancedPrompt,
			&params,
			&h.CreatedAt,
		); err != nil {
			return nil, 0, fmt.Errorf("scan prompt history: %w", err)
		}
		if len(params) > 0 {
			if err = json.Unmarshal(params, &h.Params); err != nil {
				return nil, 0, fmt.Errorf("decode history params: %w", err)
			}
		}
		entries = append(entries, h)
	}
	if err = rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("iterate prompt history: %w", err)
	}
	return entries, total, nil
}
