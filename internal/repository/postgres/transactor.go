package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/utafrali/PromptEnhancerPro/internal/repository"
	"github.com/utafrali/PromptEnhancerPro/pkg/database"
)

// Transactor implements repository.Transactor on a pgx pool.
type Transactor struct {
	db database.DBTX
}

// NewTransactor creates a Transactor.
func NewTransactor(db database.DBTX) *Transactor {
	return &Transactor{db: db}
}

// WithinTx runs fn with repositories bound to a new transaction.
func (t *Transactor) WithinTx(ctx context.Context, fn func(ctx context.Context, repos repository.TxRepositories) error) error {
	tx, err := t.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}

	repos := repository.TxRepositories{
		Users:  NewUserRepository(tx),
		Resets: NewPasswordResetRepository(tx),
	}

	if err := fn(ctx, repos); err != nil {
		if rbErr := tx.Rollback(ctx); rbErr != nil {
			return errors.Join(err, fmt.Errorf("rollback transaction: %w", rbErr))
		}
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}
