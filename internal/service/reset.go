package service

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/utafrali/PromptEnhancerPro/internal/auth"
	"github.com/utafrali/PromptEnhancerPro/internal/domain"
	"github.com/utafrali/PromptEnhancerPro/internal/repository"
	apperrors "github.com/utafrali/PromptEnhancerPro/pkg/errors"
)

// resetSecretBytes is the entropy of a reset secret before encoding.
const resetSecretBytes = 32

// ResetTokenManager issues and redeems single-use password reset tokens.
type ResetTokenManager struct {
	users  repository.UserRepository
	resets repository.PasswordResetRepository
	tx     repository.Transactor
	hasher *auth.Hasher
	ttl    time.Duration
	logger *slog.Logger

	now    func() time.Time
	random io.Reader
}

// NewResetTokenManager creates a manager whose tokens live for ttl.
func NewResetTokenManager(
	users repository.UserRepository,
	resets repository.PasswordResetRepository,
	tx repository.Transactor,
	hasher *auth.Hasher,
	ttl time.Duration,
	logger *slog.Logger,
) *ResetTokenManager {
	return &ResetTokenManager{
		users:  users,
		resets: resets,
		tx:     tx,
		hasher: hasher,
		ttl:    ttl,
		logger: logger,
		now:    func() time.Time { return time.Now().UTC() },
		random: rand.Reader,
	}
}

// TTL returns the lifetime of new tokens.
func (m *ResetTokenManager) TTL() time.Duration {
	return m.ttl
}

// bind returns a copy of m whose repositories belong to a transaction.
func (m *ResetTokenManager) bind(repos repository.TxRepositories) *ResetTokenManager {
	bound := *m
	bound.users = repos.Users
	bound.resets = repos.Resets
	return &bound
}

// newSecret returns 32 random bytes, URL-safe base64 without padding.
func (m *ResetTokenManager) newSecret() (string, error) {
	buf := make([]byte, resetSecretBytes)
	if _, err := io.ReadFull(m.random, buf); err != nil {
		return "", fmt.Errorf("generate reset secret: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(buf), nil
}

// Create issues a new token for user. Earlier unused tokens stay valid.
func (m *ResetTokenManager) Create(ctx context.Context, user *domain.User) (*domain.PasswordResetToken, error) {
	secret, err := m.newSecret()
	if err != nil {
		return nil, err
	}

	now := m.now()
	token := &domain.PasswordResetToken{
		ID:        uuid.New().String(),
		UserID:    user.ID,
		Token:     secret,
		CreatedAt: now,
		ExpiresAt: now.Add(m.ttl),
	}
	if err := m.resets.Create(ctx, token); err != nil {
		return nil, fmt.Errorf("create reset token: %w", err)
	}
	return token, nil
}

// Validate returns the token for secret if it is unused and not expired.
// Unknown, used and expired tokens all yield the same INVALID_RESET_TOKEN error.
func (m *ResetTokenManager) Validate(ctx context.Context, secret string) (*domain.PasswordResetToken, error) {
	if secret == "" {
		return nil, invalidResetToken()
	}
	token, err := m.resets.GetByToken(ctx, secret)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return nil, invalidResetToken()
		}
		return nil, fmt.Errorf("get reset token: %w", err)
	}
	if !token.IsValid(m.now()) {
		return nil, invalidResetToken()
	}
	return token, nil
}

// Consume marks token used. Losing a race to another consumer yields
// INVALID_RESET_TOKEN.
func (m *ResetTokenManager) Consume(ctx context.Context, token *domain.PasswordResetToken) error {
	now := m.now()
	if err := m.resets.MarkUsed(ctx, token.ID, now); err != nil {
		if errors.Is(err, repository.ErrTokenAlreadyUsed) {
			return invalidResetToken()
		}
		return fmt.Errorf("consume reset token: %w", err)
	}
	token.Used = true
	token.UsedAt = &now
	return nil
}

// ApplyNewPassword replaces user's password hash. It does not touch any token.
func (m *ResetTokenManager) ApplyNewPassword(ctx context.Context, user *domain.User, newPassword string) error {
	hash, err := m.hasher.Hash(newPassword)
	if err != nil {
		return err
	}
	return m.applyHash(ctx, user, hash)
}

func (m *ResetTokenManager) applyHash(ctx context.Context, user *domain.User, hash string) error {
	now := m.now()
	if err := m.users.UpdatePassword(ctx, user.ID, hash, now); err != nil {
		return fmt.Errorf("update password: %w", err)
	}
	user.PasswordHash = hash
	user.UpdatedAt = now
	return nil
}

// Redeem validates secret, checks its owner, consumes the token and sets the
// new password in one transaction. Either all of it commits or none does.
func (m *ResetTokenManager) Redeem(ctx context.Context, secret, newPassword string) (*domain.User, error) {
	// Hash outside the transaction; bcrypt is slow.
	hash, err := m.hasher.Hash(newPassword)
	if err != nil {
		return nil, err
	}

	var user *domain.User
	err = m.tx.WithinTx(ctx, func(ctx context.Context, repos repository.TxRepositories) error {
		txm := m.bind(repos)

		token, err := txm.Validate(ctx, secret)
		if err != nil {
			return err
		}

		owner, err := txm.users.GetByID(ctx, token.UserID)
		if err != nil {
			if errors.Is(err, apperrors.ErrNotFound) {
				return userUnavailable()
			}
			return fmt.Errorf("get reset token owner: %w", err)
		}
		if !owner.IsActive {
			return userUnavailable()
		}

		if err := txm.Consume(ctx, token); err != nil {
			return err
		}
		if err := txm.applyHash(ctx, owner, hash); err != nil {
			return err
		}
		user = owner
		return nil
	})
	if err != nil {
		return nil, err
	}
	return user, nil
}
