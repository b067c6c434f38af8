package service

import (
	"errors"
	"net/http"

	apperrors "github.com/utafrali/PromptEnhancerPro/pkg/errors"
)

// Enhancement failure kinds. Returned errors wrap exactly one of them.
var (
	ErrProviderNotConfigured = errors.New("provider not configured")
	ErrProviderCall          = errors.New("provider call failed")
	ErrProviderFormat        = errors.New("provider response malformed")
	ErrProviderEmpty         = errors.New("provider returned empty response")
)

// Credential lifecycle failures.
var (
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrInvalidResetToken  = errors.New("invalid or expired reset token")
	ErrUserUnavailable    = errors.New("user unavailable")
)

const (
	msgInvalidCredentials = "invalid credentials"
	msgInvalidToken       = "invalid or expired token"
)

func invalidCredentials() *apperrors.AppError {
	return apperrors.New("UNAUTHORIZED", msgInvalidCredentials, http.StatusUnauthorized,
		errors.Join(apperrors.ErrUnauthorized, ErrInvalidCredentials))
}

func invalidAccessToken() *apperrors.AppError {
	return apperrors.Unauthorized(msgInvalidToken)
}

func invalidResetToken() *apperrors.AppError {
	return apperrors.New("INVALID_RESET_TOKEN", msgInvalidToken, http.StatusBadRequest, ErrInvalidResetToken)
}

func userUnavailable() *apperrors.AppError {
	return apperrors.New("USER_UNAVAILABLE", "user is not available", http.StatusBadRequest, ErrUserUnavailable)
}
