package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/utafrali/PromptEnhancerPro/internal/auth"
	"github.com/utafrali/PromptEnhancerPro/internal/domain"
	"github.com/utafrali/PromptEnhancerPro/internal/repository"
	apperrors "github.com/utafrali/PromptEnhancerPro/pkg/errors"
)

// resetIssueTimeout bounds token creation and the mailer publish, which run
// after the reset request has been answered.
const resetIssueTimeout = 10 * time.Second

// ForgotPasswordMessage is the only reply to a reset request, whether or not
// the address belongs to an account.
const ForgotPasswordMessage = "If an account with that email exists, a password reset link has been sent."

// EventPublisher publishes domain events. Failures are logged by callers and
// never fail the request.
type EventPublisher interface {
	PublishUserRegistered(ctx context.Context, user *domain.User) error
	PublishPasswordResetRequested(ctx context.Context, user *domain.User, resetURL string, expiresAt time.Time) error
	PublishPromptEnhanced(ctx context.Context, h *domain.PromptHistory) error
}

// AuthService implements registration, login, bearer authentication and
// password reset.
type AuthService struct {
	users    repository.UserRepository
	resets   *ResetTokenManager
	hasher   *auth.Hasher
	issuer   *auth.TokenIssuer
	events   EventPublisher
	resetURL string
	logger   *slog.Logger

	// pending tracks reset issuances still running after their request returned.
	pending sync.WaitGroup

	// dummyHash is verified against when the user does not exist so that
	// login takes the same time either way.
	dummyHash string
}

// NewAuthService creates a new auth service.
func NewAuthService(
	users repository.UserRepository,
	resets *ResetTokenManager,
	hasher *auth.Hasher,
	issuer *auth.TokenIssuer,
	events EventPublisher,
	resetURL string,
	logger *slog.Logger,
) (*AuthService, error) {
	dummy, err := hasher.Hash(uuid.NewString())
	if err != nil {
		return nil, fmt.Errorf("prepare dummy hash: %w", err)
	}
	return &AuthService{
		users:     users,
		resets:    resets,
		hasher:    hasher,
		issuer:    issuer,
		events:    events,
		resetURL:  resetURL,
		logger:    logger,
		dummyHash: dummy,
	}, nil
}

// RegisterInput holds the parameters for registering a new user.
type RegisterInput struct {
	Email    string
	Password string
}

// LoginInput holds the parameters for user login.
type LoginInput struct {
	Email    string
	Password string
}

// Register creates an active account. Emails are compared case-insensitively.
func (s *AuthService) Register(ctx context.Context, input RegisterInput) (*domain.User, error) {
	email := domain.NormalizeEmail(input.Email)
	if email == "" {
		return nil, apperrors.InvalidInput("email is required")
	}

	if _, err := s.users.GetByEmail(ctx, email); err == nil {
		authEventsTotal.WithLabelValues("register", "duplicate").Inc()
		return nil, apperrors.AlreadyExists("user", "email", email)
	} else if !errors.Is(err, apperrors.ErrNotFound) {
		return nil, fmt.Errorf("check existing user: %w", err)
	}

	hash, err := s.hasher.Hash(input.Password)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	user := &domain.User{
		ID:           uuid.New().String(),
		Email:        email,
		PasswordHash: hash,
		IsActive:     true,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	// The unique index still catches a concurrent registration.
	if err := s.users.Create(ctx, user); err != nil {
		if errors.Is(err, apperrors.ErrAlreadyExists) {
			authEventsTotal.WithLabelValues("register", "duplicate").Inc()
			return nil, err
		}
		return nil, fmt.Errorf("create user: %w", err)
	}

	if err := s.events.PublishUserRegistered(ctx, user); err != nil {
		s.logger.ErrorContext(ctx, "failed to publish user.registered event",
			slog.String("user_id", user.ID),
			slog.String("error", err.Error()),
		)
	}

	authEventsTotal.WithLabelValues("register", "success").Inc()
	s.logger.InfoContext(ctx, "user registered",
		slog.String("user_id", user.ID),
	)
	return user, nil
}

// Login checks credentials and issues a bearer token. Unknown email, wrong
// password and inactive account are indistinguishable to the caller.
func (s *AuthService) Login(ctx context.Context, input LoginInput) (*domain.AccessToken, error) {
	email := domain.NormalizeEmail(input.Email)

	user, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		if !errors.Is(err, apperrors.ErrNotFound) {
			return nil, fmt.Errorf("get user by email: %w", err)
		}
		s.hasher.Verify(input.Password, s.dummyHash)
		return nil, s.loginFailed(ctx, "unknown_email")
	}

	if !s.hasher.Verify(input.Password, user.PasswordHash) {
		return nil, s.loginFailed(ctx, "wrong_password")
	}
	if !user.IsActive {
		return nil, s.loginFailed(ctx, "inactive")
	}

	token, expiresAt, err := s.issuer.Issue(user.ID)
	if err != nil {
		return nil, err
	}

	authEventsTotal.WithLabelValues("login", "success").Inc()
	s.logger.InfoContext(ctx, "user logged in",
		slog.String("user_id", user.ID),
	)
	return &domain.AccessToken{
		AccessToken: token,
		TokenType:   domain.TokenTypeBearer,
		ExpiresAt:   expiresAt,
	}, nil
}

func (s *AuthService) loginFailed(ctx context.Context, reason string) error {
	authEventsTotal.WithLabelValues("login", "failure").Inc()
	s.logger.DebugContext(ctx, "login rejected", slog.String("reason", reason))
	return invalidCredentials()
}

// Authenticate resolves a bearer token to an active user.
func (s *AuthService) Authenticate(ctx context.Context, token string) (*domain.User, error) {
	claims, err := s.issuer.Decode(token)
	if err != nil {
		var tokenErr *auth.TokenError
		if errors.As(err, &tokenErr) {
			s.logger.DebugContext(ctx, "bearer token rejected", slog.String("reason", tokenErr.Reason))
		}
		return nil, invalidAccessToken()
	}
	if _, err := uuid.Parse(claims.Subject); err != nil {
		s.logger.DebugContext(ctx, "bearer token rejected", slog.String("reason", "malformed_subject"))
		return nil, invalidAccessToken()
	}

	user, err := s.users.GetByID(ctx, claims.Subject)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			s.logger.DebugContext(ctx, "bearer token rejected", slog.String("reason", "unknown_subject"))
			return nil, invalidAccessToken()
		}
		return nil, fmt.Errorf("get token subject: %w", err)
	}
	if !user.IsActive {
		s.logger.DebugContext(ctx, "bearer token rejected", slog.String("reason", "inactive"))
		return nil, invalidAccessToken()
	}
	return user, nil
}

// RequestPasswordReset answers identically whether or not the account
// exists. Only the user lookup, which happens on every path, runs on the
// request; for an active account the token is created and the link published
// in the background, so neither the insert nor the publish shows up in the
// response time. A failing lookup is the only error reported.
func (s *AuthService) RequestPasswordReset(ctx context.Context, email string) error {
	email = domain.NormalizeEmail(email)

	user, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		if !errors.Is(err, apperrors.ErrNotFound) {
			return fmt.Errorf("get user by email: %w", err)
		}
		authEventsTotal.WithLabelValues("password_reset_request", "unknown_email").Inc()
		s.logger.InfoContext(ctx, "password reset requested for unknown email")
		return nil
	}
	if !user.IsActive {
		authEventsTotal.WithLabelValues("password_reset_request", "inactive").Inc()
		s.logger.InfoContext(ctx, "password reset requested for inactive user",
			slog.String("user_id", user.ID),
		)
		return nil
	}

	s.pending.Add(1)
	go func() {
		defer s.pending.Done()
		issueCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), resetIssueTimeout)
		defer cancel()
		s.issuePasswordReset(issueCtx, user)
	}()
	return nil
}

func (s *AuthService) issuePasswordReset(ctx context.Context, user *domain.User) {
	token, err := s.resets.Create(ctx, user)
	if err != nil {
		authEventsTotal.WithLabelValues("password_reset_request", "error").Inc()
		s.logger.ErrorContext(ctx, "failed to create password reset token",
			slog.String("user_id", user.ID),
			slog.String("error", err.Error()),
		)
		return
	}

	if err := s.events.PublishPasswordResetRequested(ctx, user, s.resetLink(token.Token), token.ExpiresAt); err != nil {
		s.logger.ErrorContext(ctx, "failed to publish password reset event",
			slog.String("user_id", user.ID),
			slog.String("error", err.Error()),
		)
	}

	authEventsTotal.WithLabelValues("password_reset_request", "issued").Inc()
	s.logger.InfoContext(ctx, "password reset token issued",
		slog.String("user_id", user.ID),
		slog.Time("expires_at", token.ExpiresAt),
	)
}

// Drain waits for background reset issuances to finish or for ctx to end.
func (s *AuthService) Drain(ctx context.Context) error {
	done := make(chan struct{})
	go func() {
		s.pending.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return fmt.Errorf("drain password reset issuance: %w", ctx.Err())
	}
}

func (s *AuthService) resetLink(secret string) string {
	u, err := url.Parse(s.resetURL)
	if err != nil {
		return s.resetURL + "?token=" + url.QueryEscape(secret)
	}
	q := u.Query()
	q.Set("token", secret)
	u.RawQuery = q.Encode()
	return u.String()
}

// ConfirmPasswordReset redeems a reset token and sets the new password.
func (s *AuthService) ConfirmPasswordReset(ctx context.Context, token, newPassword string) error {
	user, err := s.resets.Redeem(ctx, token, newPassword)
	if err != nil {
		var appErr *apperrors.AppError
		if errors.As(err, &appErr) {
			authEventsTotal.WithLabelValues("password_reset_confirm", "rejected").Inc()
			s.logger.InfoContext(ctx, "password reset rejected", slog.String("code", appErr.Code))
			return err
		}
		return fmt.Errorf("redeem reset token: %w", err)
	}

	authEventsTotal.WithLabelValues("password_reset_confirm", "success").Inc()
	s.logger.InfoContext(ctx, "password reset completed",
		slog.String("user_id", user.ID),
	)
	return nil
}
