package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/utafrali/PromptEnhancerPro/internal/domain"
	"github.com/utafrali/PromptEnhancerPro/internal/prompt"
	"github.com/utafrali/PromptEnhancerPro/internal/provider"
	apperrors "github.com/utafrali/PromptEnhancerPro/pkg/errors"
	"github.com/utafrali/PromptEnhancerPro/pkg/httpclient"
)

// EnhancerConfig configures an Enhancer.
type EnhancerConfig struct {
	// Model is the provider model that runs the meta-prompt.
	Model string
	// Timeout bounds one provider call. Zero means no extra bound.
	Timeout time.Duration
}

// Enhancer turns enhancement parameters into an enhanced prompt with exactly
// one provider call. It keeps no state between calls and writes no history.
type Enhancer struct {
	provider provider.Provider
	registry *prompt.Registry
	cfg      EnhancerConfig
	logger   *slog.Logger
}

// NewEnhancer creates an Enhancer.
func NewEnhancer(p provider.Provider, registry *prompt.Registry, cfg EnhancerConfig, logger *slog.Logger) *Enhancer {
	return &Enhancer{provider: p, registry: registry, cfg: cfg, logger: logger}
}

// Registry returns the model registry used to resolve target models.
func (e *Enhancer) Registry() *prompt.Registry {
	return e.registry
}

// ProviderName returns the name of the underlying provider.
func (e *Enhancer) ProviderName() string {
	return e.provider.Name()
}

// Enhance builds the meta-prompt for params, calls the provider once and
// returns the sanitized reply.
func (e *Enhancer) Enhance(ctx context.Context, params domain.EnhancementParams) (string, error) {
	name := e.provider.Name()

	if !e.provider.Configured() {
		enhancementsTotal.WithLabelValues(name, outcomeNotConfigured).Inc()
		return "", apperrors.New("PROVIDER_NOT_CONFIGURED",
			"AI provider API key is not configured. Set GEMINI_API_KEY or GOOGLE_API_KEY.",
			http.StatusInternalServerError, ErrProviderNotConfigured)
	}

	model := e.registry.Resolve(params.TargetAIModel)
	metaPrompt := prompt.BuildMetaPrompt(params, model)

	callCtx := ctx
	if e.cfg.Timeout > 0 {
		var cancel context.CancelFunc
		callCtx, cancel = context.WithTimeout(ctx, e.cfg.Timeout)
		defer cancel()
	}

	start := time.Now()
	raw, err := e.provider.Generate(callCtx, e.cfg.Model, metaPrompt)
	enhancementDuration.WithLabelValues(name).Observe(time.Since(start).Seconds())
	if err != nil {
		if errors.Is(err, provider.ErrBadResponse) {
			enhancementsTotal.WithLabelValues(name, outcomeBadResponse).Inc()
			e.logger.WarnContext(ctx, "provider returned malformed response",
				slog.String("provider", name),
				slog.String("error", err.Error()),
			)
			return "", apperrors.BadGateway("PROVIDER_BAD_RESPONSE",
				fmt.Sprintf("Unexpected %s response format.", name),
				fmt.Errorf("%w: %w", ErrProviderFormat, err))
		}

		enhancementsTotal.WithLabelValues(name, outcomeCallFailed).Inc()
		attrs := []any{
			slog.String("provider", name),
			slog.String("model", e.cfg.Model),
			slog.String("error", err.Error()),
		}
		var upErr *httpclient.UpstreamError
		if errors.As(err, &upErr) {
			attrs = append(attrs,
				slog.Int("upstream_status", upErr.StatusCode),
				slog.Bool("temporary", upErr.Temporary()),
			)
		}
		e.logger.ErrorContext(ctx, "provider call failed", attrs...)
		return "", apperrors.BadGateway("PROVIDER_CALL_FAILED",
			fmt.Sprintf("Failed to call %s API: %s", name, describeCallError(err)),
			fmt.Errorf("%w: %w", ErrProviderCall, err))
	}

	if strings.TrimSpace(raw) == "" {
		enhancementsTotal.WithLabelValues(name, outcomeEmpty).Inc()
		return "", apperrors.BadGateway("PROVIDER_EMPTY_RESPONSE",
			fmt.Sprintf("%s API returned empty response.", name), ErrProviderEmpty)
	}

	enhancementsTotal.WithLabelValues(name, outcomeSuccess).Inc()
	return prompt.Sanitize(raw, model.DisplayName()), nil
}

// describeCallError returns a client-safe summary of a provider failure.
func describeCallError(err error) string {
	var upErr *httpclient.UpstreamError
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		return "request timed out"
	case errors.Is(err, context.Canceled):
		return "request cancelled"
	case errors.Is(err, httpclient.ErrCircuitOpen):
		return "provider temporarily unavailable"
	case errors.As(err, &upErr):
		if upErr.Message != "" {
			return upErr.Message
		}
		return fmt.Sprintf("status %d", upErr.StatusCode)
	default:
		return "connection error"
	}
}
