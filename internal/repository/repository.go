package repository

import (
	"context"
	"errors"
	"time"

	"github.com/utafrali/PromptEnhancerPro/internal/domain"
)

// ErrTokenAlreadyUsed is returned by MarkUsed when another caller consumed
// the token first.
var ErrTokenAlreadyUsed = errors.New("password reset token already used")

// UserRepository defines the interface for user persistence operations.
// Emails are passed already normalized.
type UserRepository interface {
	// Create inserts a new user. A duplicate email yields ErrAlreadyExists.
	Create(ctx context.Context, user *domain.User) error

	// GetByID retrieves a user by id.
	GetByID(ctx context.Context, id string) (*domain.User, error)

	// GetByEmail retrieves a user by normalized email.
	GetByEmail(ctx context.Context, email string) (*domain.User, error)

	// UpdatePassword replaces the password hash and bumps updated_at.
	UpdatePassword(ctx context.Context, id, passwordHash string, updatedAt time.Time) error
}

// PasswordResetRepository defines the interface for reset token persistence.
type PasswordResetRepository interface {
	// Create inserts a new token row.
	Create(ctx context.Context, token *domain.PasswordResetToken) error

	// GetByToken looks a row up by its exact secret.
	GetByToken(ctx context.Context, token string) (*domain.PasswordResetToken, error)

	// MarkUsed flips used to true only if it is still false. Zero rows
	// affected yields ErrTokenAlreadyUsed.
	MarkUsed(ctx context.Context, id string, usedAt time.Time) error
}

// PromptHistoryRepository defines the interface for enhancement history.
type PromptHistoryRepository interface {
	// Create inserts one history row.
	Create(ctx context.Context, entry *domain.PromptHistory) error

	// ListByUser returns a page of the user's rows, newest first, and the
	// total row count.
	ListByUser(ctx context.Context, userID string, limit, offset int) ([]domain.PromptHistory, int, error)
}

// TxRepositories are repositories bound to one transaction.
type TxRepositories struct {
	Users  UserRepository
	Resets PasswordResetRepository
}

// Transactor runs fn inside a single database transaction. The transaction
// commits when fn returns nil and rolls back otherwise.
type Transactor interface {
	WithinTx(ctx context.Context, fn func(ctx context.Context, repos TxRepositories) error) error
}
