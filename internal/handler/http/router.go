package http

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/utafrali/PromptEnhancerPro/pkg/health"
	"github.com/utafrali/PromptEnhancerPro/pkg/middleware"
)

// ServiceName labels metrics and spans emitted by the router.
const ServiceName = "prompt-enhancer-pro-backend"

// NewRouter creates a chi router with all backend routes registered.
func NewRouter(
	authService AuthService,
	promptService PromptService,
	healthHandler *health.Handler,
	logger *slog.Logger,
	corsConfig middleware.CORSConfig,
) http.Handler {
	r := chi.NewRouter()

	// Global middleware
	r.Use(middleware.RequestLogging(logger))
	r.Use(middleware.Recovery(logger))
	r.Use(middleware.Tracing(ServiceName))
	r.Use(middleware.RequestLogger(logger))
	r.Use(middleware.CORS(corsConfig))
	r.Use(middleware.PrometheusMetrics(ServiceName))

	// Health check endpoints
	r.Get("/health", healthHandler.ServiceHandler())
	r.Get("/health/live", healthHandler.LivenessHandler())
	r.Get("/health/ready", healthHandler.ReadinessHandler())
	r.Handle("/metrics", promhttp.Handler())

	validate := tokenValidator(authService)
	authHandler := NewAuthHandler(authService, logger)
	promptHandler := NewPromptHandler(promptService, logger)

	r.Route("/api/v1", func(r chi.Router) {
		r.Route("/auth", func(r chi.Router) {
			r.With(ContentTypeJSON).Post("/register", authHandler.Register)
			r.With(ContentTypes(contentTypeJSON, contentTypeForm)).Post("/login", authHandler.Login)
			r.With(ContentTypeJSON).Post("/forgot-password", authHandler.ForgotPassword)
			r.With(ContentTypeJSON).Post("/reset-password", authHandler.ResetPassword)

			r.With(middleware.Auth(validate)).Get("/me", authHandler.Me)
		})

		r.Get("/models", promptHandler.Models)
		r.With(ContentTypeJSON, middleware.OptionalAuth(validate)).Post("/enhance", promptHandler.Enhance)
		r.With(middleware.Auth(validate)).Get("/history", promptHandler.History)
	})

	return r
}
