package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/utafrali/PromptEnhancerPro/internal/domain"
	"github.com/utafrali/PromptEnhancerPro/internal/repository"
	"github.com/utafrali/PromptEnhancerPro/pkg/database"
	apperrors "github.com/utafrali/PromptEnhancerPro/pkg/errors"
)

// PasswordResetRepository implements repository.PasswordResetRepository
// using PostgreSQL.
type PasswordResetRepository struct {
	db database.DBTX
}

// NewPasswordResetRepository creates a PostgreSQL-backed reset token repository.
func NewPasswordResetRepository(db database.DBTX) *PasswordResetRepository {
	return &PasswordResetRepository{db: db}
}

// Create inserts a new reset token.
func (r *PasswordResetRepository) Create(ctx context.Context, t *domain.PasswordResetToken) (err error) {
	query := `
		INSERT INTO password_reset_tokens (id, user_id, token, created_at, expires_at, used_at, is_used)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`

	ctx, end := database.TraceQuery(ctx, "password_reset_tokens.Create", query)
	defer func() { end(err) }()

	_, err = r.db.Exec(ctx, query,
		t.ID,
		t.UserID,
		t.Token,
		t.CreatedAt,
		t.ExpiresAt,
		t.UsedAt,
		t.Used,
	)
	if err != nil {
		switch {
		case isUniqueViolation(err):
			return apperrors.Conflict("password reset token collision")
		case isForeignKeyViolation(err):
			return apperrors.NotFound("user", t.UserID)
		}
		return fmt.Errorf("insert password reset token: %w", err)
	}
	return nil
}

// GetByToken looks a token up by its exact secret.
func (r *PasswordResetRepository) GetByToken(ctx context.Context, token string) (_ *domain.PasswordResetToken, err error) {
	query := `
		SELECT id, user_id, token, created_at, expires_at, used_at, is_used
		FROM password_reset_tokens
		WHERE token = $1`

	ctx, end := database.TraceQuery(ctx, "password_reset_tokens.GetByToken", query)
	defer func() {
		if errors.Is(err, apperrors.ErrNotFound) {
			end(nil)
			return
		}
		end(err)
	}()

	var t domain.PasswordResetToken
	err = r.db.QueryRow(ctx, query, token).Scan(
		&t.ID,
		&t.UserID,
		&t.Token,
		&t.CreatedAt,
		&t.ExpiresAt,
		&t.UsedAt,
		&t.Used,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrNotFound
		}
		return nil, fmt.Errorf("scan password reset token: %w", err)
	}
	return &t, nil
}

// MarkUsed consumes the token if nobody else has.
func (r *PasswordResetRepository) MarkUsed(ctx context.Context, id string, usedAt time.Time) (err error) {
	query := `
		UPDATE password_reset_tokens
		SET is_used = true, used_at = $2
		WHERE id = $1 AND is_used = false`

	ctx, end := database.TraceQuery(ctx, "password_reset_tokens.MarkUsed", query)
	defer func() { end(err) }()

	ct, err := r.db.Exec(ctx, query, id, usedAt)
	if err != nil {
		return fmt.Errorf("mark password reset token used: %w", err)
	}
	if ct.RowsAffected() == 0 {
		return repository.ErrTokenAlreadyUsed
	}
	return nil
}
