package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/utafrali/PromptEnhancerPro/internal/auth"
	"github.com/utafrali/PromptEnhancerPro/internal/config"
	"github.com/utafrali/PromptEnhancerPro/internal/event"
	handler "github.com/utafrali/PromptEnhancerPro/internal/handler/http"
	"github.com/utafrali/PromptEnhancerPro/internal/prompt"
	"github.com/utafrali/PromptEnhancerPro/internal/provider"
	"github.com/utafrali/PromptEnhancerPro/internal/provider/gemini"
	"github.com/utafrali/PromptEnhancerPro/internal/provider/mock"
	"github.com/utafrali/PromptEnhancerPro/internal/repository/postgres"
	"github.com/utafrali/PromptEnhancerPro/internal/service"
	"github.com/utafrali/PromptEnhancerPro/migrations"
	"github.com/utafrali/PromptEnhancerPro/pkg/database"
	"github.com/utafrali/PromptEnhancerPro/pkg/health"
	"github.com/utafrali/PromptEnhancerPro/pkg/httpclient"
	pkgkafka "github.com/utafrali/PromptEnhancerPro/pkg/kafka"
	"github.com/utafrali/PromptEnhancerPro/pkg/middleware"
	"github.com/utafrali/PromptEnhancerPro/pkg/tracing"
)

// Version is reported in traces.
const Version = "0.1.0"

// App wires together all dependencies and runs the backend.
type App struct {
	cfg            *config.Config
	logger         *slog.Logger
	pool           *pgxpool.Pool
	producer       *pkgkafka.Producer
	authService    *service.AuthService
	httpServer     *http.Server
	tracerShutdown tracing.ShutdownFunc
}

// NewApp creates a new application instance, initializing all dependencies.
func NewApp(cfg *config.Config, logger *slog.Logger) (*App, error) {
	ctx, cancel := context.WithTimeout(context.Background(), cfg.DBConnectTimeout)
	defer cancel()

	// Initialize OpenTelemetry tracing.
	tracerShutdown, err := tracing.InitTracer(ctx, tracing.Config{
		ServiceName:    handler.ServiceName,
		ServiceVersion: Version,
		Environment:    cfg.Environment,
		OTLPEndpoint:   cfg.OTelEndpoint,
		SampleRate:     cfg.OTelSampleRate,
		Enabled:        cfg.OTelEnabled,
	})
	if err != nil {
		return nil, fmt.Errorf("init tracer: %w", err)
	}

	// Initialize PostgreSQL connection pool.
	pgCfg := database.PostgresConfig{
		Host:     cfg.PostgresHost,
		Port:     cfg.PostgresPort,
		User:     cfg.PostgresUser,
		Password: cfg.PostgresPass,
		DBName:   cfg.PostgresDB,
		SSLMode:  cfg.PostgresSSL,
		MaxConns: cfg.DBMaxConns,
		MinConns: cfg.DBMinConns,
	}

	pool, err := database.NewPostgresPool(ctx, &pgCfg, logger)
	if err != nil {
		return nil, abort(fmt.Errorf("connect to postgres: %w", err), tracerShutdown)
	}
	logger.Info("connected to PostgreSQL",
		slog.String("host", cfg.PostgresHost),
		slog.Int("port", cfg.PostgresPort),
		slog.String("database", cfg.PostgresDB),
	)
	if err := database.RegisterPoolMetrics(prometheus.DefaultRegisterer, pool, handler.ServiceName); err != nil {
		logger.Warn("pool metrics not registered", slog.String("error", err.Error()))
	}

	if cfg.RunMigrations {
		if err := database.RunMigrations(ctx, pool, migrations.FS, logger); err != nil {
			return nil, abort(fmt.Errorf("run migrations: %w", err), tracerShutdown, closePool(pool))
		}
		logger.Info("database migrations completed")
	}

	if threshold := cfg.SlowQueryThreshold(); threshold > 0 {
		database.SetSlowQueryLogging(threshold, logger)
	}

	// Kafka is optional; without it domain events are dropped.
	var (
		producer      *pkgkafka.Producer
		eventProducer *event.Producer
	)
	if cfg.KafkaEnabled {
		producer = pkgkafka.NewProducer(pkgkafka.DefaultProducerConfig(cfg.KafkaBrokers), logger)
		eventProducer = event.NewProducer(producer, logger)
		logger.Info("kafka producer initialized", slog.Any("brokers", cfg.KafkaBrokers))
	} else {
		eventProducer = event.NewProducer(nil, logger)
		logger.Info("kafka disabled, domain events will not be published")
	}

	aiProvider := newProvider(cfg, logger)
	if !aiProvider.Configured() {
		logger.Warn("AI provider API key is not configured; enhancement requests will fail",
			slog.String("provider", aiProvider.Name()),
		)
	}

	// Build the dependency graph.
	hasher := auth.NewHasher(cfg.BcryptCost)
	issuer := auth.NewTokenIssuer(cfg.AuthSecretKey, cfg.AccessTokenTTL())
	userRepo := postgres.NewUserRepository(pool)
	resetRepo := postgres.NewPasswordResetRepository(pool)
	historyRepo := postgres.NewPromptHistoryRepository(pool)
	transactor := postgres.NewTransactor(pool)

	resetTokens := service.NewResetTokenManager(userRepo, resetRepo, transactor, hasher, cfg.ResetTokenTTL(), logger)
	authService, err := service.NewAuthService(userRepo, resetTokens, hasher, issuer, eventProducer, cfg.PasswordResetURL, logger)
	if err != nil {
		closers := []func() error{closePool(pool)}
		if producer != nil {
			closers = append(closers, producer.Close)
		}
		return nil, abort(fmt.Errorf("create auth service: %w", err), tracerShutdown, closers...)
	}
	enhancer := service.NewEnhancer(aiProvider, prompt.DefaultRegistry(), service.EnhancerConfig{
		Model:   cfg.GeminiModelName,
		Timeout: cfg.ProviderTimeout,
	}, logger)
	promptService := service.NewPromptService(enhancer, historyRepo, eventProducer, logger)

	// Health checks.
	healthHandler := health.NewHandler(handler.ServiceName)
	healthHandler.RegisterCritical("postgres", func(ctx context.Context) error {
		return pool.Ping(ctx)
	})
	if producer != nil {
		healthHandler.RegisterNonCritical("kafka", func(ctx context.Context) error {
			return producer.Ping(ctx)
		})
	}

	// HTTP router.
	router := handler.NewRouter(authService, promptService, healthHandler, logger,
		middleware.DefaultCORSConfig(cfg.CORSAllowedOrigins))

	httpServer := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.HTTPPort),
		Handler:           router,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      cfg.ProviderTimeout + 15*time.Second,
		IdleTimeout:       60 * time.Second,
		ReadHeaderTimeout: 10 * time.Second,
	}

	return &App{
		cfg:            cfg,
		logger:         logger,
		pool:           pool,
		producer:       producer,
		authService:    authService,
		httpServer:     httpServer,
		tracerShutdown: tracerShutdown,
	}, nil
}

// abort releases what NewApp acquired before a failure, newest first, and
// always flushes the tracer.
func abort(cause error, tracerShutdown tracing.ShutdownFunc, closers ...func() error) error {
	errs := []error{cause}
	for i := len(closers) - 1; i >= 0; i-- {
		errs = append(errs, closers[i]())
	}
	if tracerShutdown != nil {
		errs = append(errs, tracerShutdown(context.Background()))
	}
	return errors.Join(errs...)
}

func closePool(pool *pgxpool.Pool) func() error {
	return func() error {
		pool.Close()
		return nil
	}
}

// newProvider selects the generative-AI backend. Gemini calls go through a
// circuit breaker and are never retried.
func newProvider(cfg *config.Config, logger *slog.Logger) provider.Provider {
	if cfg.AIProvider == "mock" {
		return mock.New()
	}

	clientCfg := httpclient.DefaultConfig()
	clientCfg.Timeout = cfg.ProviderTimeout
	breaker := httpclient.NewCircuitBreakerClient(
		httpclient.New(clientCfg),
		httpclient.DefaultCircuitBreakerConfig("gemini"),
		logger,
	)
	return gemini.New(breaker, gemini.Config{
		APIKey:  cfg.ProviderAPIKey(),
		BaseURL: cfg.GeminiBaseURL,
	})
}

// Run starts the HTTP server and blocks until the context is canceled.
func (a *App) Run(ctx context.Context) error {
	errCh := make(chan error, 1)

	go func() {
		a.logger.Info("starting HTTP server",
			slog.String("addr", a.httpServer.Addr),
		)
		if err := a.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- fmt.Errorf("http server: %w", err)
		}
	}()

	select {
	case <-ctx.Done():
		a.logger.Info("shutdown signal received")
	case err := <-errCh:
		return errors.Join(err, a.Shutdown())
	}

	return a.Shutdown()
}

// Shutdown gracefully stops all components in order: HTTP server, pending
// password reset issuance, tracer, Kafka producer, PostgreSQL pool.
func (a *App) Shutdown() error {
	a.logger.Info("shutting down application...")

	var errs []error

	// Enhancement requests may be waiting on the provider.
	httpCtx, httpCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer httpCancel()
	if err := a.httpServer.Shutdown(httpCtx); err != nil {
		a.logger.Error("http server shutdown error", slog.String("error", err.Error()))
		errs = append(errs, err)
	}

	if a.authService != nil {
		drainCtx, drainCancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer drainCancel()
		if err := a.authService.Drain(drainCtx); err != nil {
			a.logger.Error("password reset drain error", slog.String("error", err.Error()))
			errs = append(errs, err)
		}
	}

	if a.tracerShutdown != nil {
		tracerCtx, tracerCancel := context.WithTimeout(context.Background(), 3*time.Second)
		defer tracerCancel()
		if err := a.tracerShutdown(tracerCtx); err != nil {
			a.logger.Error("tracer shutdown error", slog.String("error", err.Error()))
			errs = append(errs, err)
		}
	}

	if a.producer != nil {
		if err := a.producer.Close(); err != nil {
			a.logger.Error("kafka producer close error", slog.String("error", err.Error()))
			errs = append(errs, err)
		}
	}

	a.pool.Close()

	a.logger.Info("application shutdown complete")
	return errors.Join(errs...)
}
