package http

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/utafrali/PromptEnhancerPro/internal/domain"
	"github.com/utafrali/PromptEnhancerPro/pkg/httputil"
	"github.com/utafrali/PromptEnhancerPro/pkg/middleware"
	"github.com/utafrali/PromptEnhancerPro/pkg/pagination"
	"github.com/utafrali/PromptEnhancerPro/pkg/validator"
)

// PromptService is the enhancement surface the handlers need.
type PromptService interface {
	Enhance(ctx context.Context, userID string, params domain.EnhancementParams) (string, error)
	History(ctx context.Context, userID string, params pagination.Params) (*pagination.Result[domain.PromptHistory], error)
	Models() []domain.ModelDescriptor
}

// PromptHandler handles enhancement, model catalogue and history requests.
type PromptHandler struct {
	service PromptService
	logger  *slog.Logger
}

// NewPromptHandler creates a new prompt HTTP handler.
func NewPromptHandler(svc PromptService, logger *slog.Logger) *PromptHandler {
	return &PromptHandler{service: svc, logger: logger}
}

// EnhanceResponse carries the enhanced prompt.
type EnhanceResponse struct {
	EnhancedPrompt string `json:"enhancedPrompt"`
}

// Enhance handles POST /api/v1/enhance. Anonymous callers are allowed.
func (h *PromptHandler) Enhance(w http.ResponseWriter, r *http.Request) {
	var params domain.EnhancementParams
	if err := validator.DecodeAndValidate(w, r, &params, maxBodyBytes); err != nil {
		httputil.WriteError(w, r, requestError(err), h.logger)
		return
	}

	enhanced, err := h.service.Enhance(r.Context(), middleware.UserIDFromContext(r.Context()), params)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteData(w, http.StatusOK, EnhanceResponse{EnhancedPrompt: enhanced})
}

// Models handles GET /api/v1/models
func (h *PromptHandler) Models(w http.ResponseWriter, _ *http.Request) {
	httputil.WriteData(w, http.StatusOK, h.service.Models())
}

// History handles GET /api/v1/history
func (h *PromptHandler) History(w http.ResponseWriter, r *http.Request) {
	result, err := h.service.History(r.Context(), middleware.UserIDFromContext(r.Context()), pagination.FromRequest(r))
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}
	httputil.WriteData(w, http.StatusOK, result)
}
