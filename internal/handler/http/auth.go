package http

import (
	"context"
	"errors"
	"log/slog"
	"mime"
	"net/http"
	"strings"

	"github.com/utafrali/PromptEnhancerPro/internal/domain"
	"github.com/utafrali/PromptEnhancerPro/internal/service"
	apperrors "github.com/utafrali/PromptEnhancerPro/pkg/errors"
	"github.com/utafrali/PromptEnhancerPro/pkg/httputil"
	"github.com/utafrali/PromptEnhancerPro/pkg/middleware"
	"github.com/utafrali/PromptEnhancerPro/pkg/validator"
)

// maxBodyBytes caps every request body.
const maxBodyBytes = 1 << 20

// AuthService is the account surface the handlers need.
type AuthService interface {
	Register(ctx context.Context, input service.RegisterInput) (*domain.User, error)
	Login(ctx context.Context, input service.LoginInput) (*domain.AccessToken, error)
	Authenticate(ctx context.Context, token string) (*domain.User, error)
	RequestPasswordReset(ctx context.Context, email string) error
	ConfirmPasswordReset(ctx context.Context, token, newPassword string) error
}

// AuthHandler handles HTTP requests for auth endpoints.
type AuthHandler struct {
	service AuthService
	logger  *slog.Logger
}

// NewAuthHandler creates a new auth HTTP handler.
func NewAuthHandler(svc AuthService, logger *slog.Logger) *AuthHandler {
	return &AuthHandler{service: svc, logger: logger}
}

// --- Request DTOs ---

// RegisterRequest is the JSON request body for user registration. bcrypt
// reads at most 72 bytes of a password, so longer ones are refused.
type RegisterRequest struct {
	Email    string `json:"email" validate:"required,email,max=320"`
	Password string `json:"password" validate:"required,min=8,maxbytes=72"`
}

func (r *RegisterRequest) Normalize() { r.Email = strings.TrimSpace(r.Email) }

// LoginRequest is the login body. It arrives as JSON {email,password} or as
// an OAuth2 password form {username,password}.
type LoginRequest struct {
	Email    string `json:"email" validate:"required,max=320"`
	Password string `json:"password" validate:"required,max=1024"`
}

// ForgotPasswordRequest is the JSON request body for forgot password.
type ForgotPasswordRequest struct {
	Email string `json:"email" validate:"required,email,max=320"`
}

func (r *ForgotPasswordRequest) Normalize() { r.Email = strings.TrimSpace(r.Email) }

// ResetPasswordRequest is the JSON request body for password reset.
type ResetPasswordRequest struct {
	Token       string `json:"token" validate:"required,max=128"`
	NewPassword string `json:"new_password" validate:"required,min=8,maxbytes=72"`
}

// messageResponse is the body of endpoints that only acknowledge.
type messageResponse struct {
	Message string `json:"message"`
}

// --- Handlers ---

// Register handles POST /api/v1/auth/register
func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req RegisterRequest
	if err := validator.DecodeAndValidate(w, r, &req, maxBodyBytes); err != nil {
		httputil.WriteError(w, r, requestError(err), h.logger)
		return
	}

	user, err := h.service.Register(r.Context(), service.RegisterInput{
		Email:    req.Email,
		Password: req.Password,
	})
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteData(w, http.StatusCreated, user)
}

// Login handles POST /api/v1/auth/login
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	req, err := decodeLogin(w, r)
	if err != nil {
		httputil.WriteError(w, r, requestError(err), h.logger)
		return
	}

	token, err := h.service.Login(r.Context(), service.LoginInput{
		Email:    req.Email,
		Password: req.Password,
	})
	if err != nil {
		if errors.Is(err, apperrors.ErrUnauthorized) {
			w.Header().Set("WWW-Authenticate", "Bearer")
		}
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteData(w, http.StatusOK, token)
}

// Me handles GET /api/v1/auth/me. The user was loaded while authenticating
// the bearer token.
func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	user, ok := authenticatedUser(r)
	if !ok {
		httputil.WriteError(w, r, apperrors.Unauthorized("invalid or expired token"), h.logger)
		return
	}
	httputil.WriteData(w, http.StatusOK, user)
}

// ForgotPassword handles POST /api/v1/auth/forgot-password. The reply does
// not depend on whether the address is registered.
func (h *AuthHandler) ForgotPassword(w http.ResponseWriter, r *http.Request) {
	var req ForgotPasswordRequest
	if err := validator.DecodeAndValidate(w, r, &req, maxBodyBytes); err != nil {
		httputil.WriteError(w, r, requestError(err), h.logger)
		return
	}

	if err := h.service.RequestPasswordReset(r.Context(), req.Email); err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteData(w, http.StatusOK, messageResponse{Message: service.ForgotPasswordMessage})
}

// ResetPassword handles POST /api/v1/auth/reset-password
func (h *AuthHandler) ResetPassword(w http.ResponseWriter, r *http.Request) {
	var req ResetPasswordRequest
	if err := validator.DecodeAndValidate(w, r, &req, maxBodyBytes); err != nil {
		httputil.WriteError(w, r, requestError(err), h.logger)
		return
	}

	if err := h.service.ConfirmPasswordReset(r.Context(), req.Token, req.NewPassword); err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteData(w, http.StatusOK, messageResponse{Message: "password has been reset successfully"})
}

func authenticatedUser(r *http.Request) (*domain.User, bool) {
	claims := middleware.ClaimsFromContext(r.Context())
	if claims == nil {
		return nil, false
	}
	user, ok := claims.Principal.(*domain.User)
	return user, ok && user != nil
}

// decodeLogin reads credentials from a JSON body or, for OAuth2 password-flow
// clients, from a form with username and password, and validates them.
func decodeLogin(w http.ResponseWriter, r *http.Request) (LoginRequest, error) {
	var req LoginRequest
	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if mediaType != contentTypeForm {
		err := validator.DecodeAndValidate(w, r, &req, maxBodyBytes)
		return req, err
	}

	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := r.ParseForm(); err != nil {
		return LoginRequest{}, err
	}
	req.Email = r.PostForm.Get("username")
	req.Password = r.PostForm.Get("password")
	return req, validator.Validate(&req)
}

// requestError maps body decoding failures to client errors. Validation
// errors pass through unchanged.
func requestError(err error) error {
	var valErr *validator.ValidationError
	if errors.As(err, &valErr) {
		return err
	}
	var tooLarge *http.MaxBytesError
	if errors.As(err, &tooLarge) {
		return apperrors.New("PAYLOAD_TOO_LARGE", "request body too large",
			http.StatusRequestEntityTooLarge, apperrors.ErrInvalidInput)
	}
	return apperrors.InvalidInput("invalid request body")
}
