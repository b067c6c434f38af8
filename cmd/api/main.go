package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/utafrali/PromptEnhancerPro/internal/app"
	"github.com/utafrali/PromptEnhancerPro/internal/config"
	pkgconfig "github.com/utafrali/PromptEnhancerPro/pkg/config"
	"github.com/utafrali/PromptEnhancerPro/pkg/logger"
)

func main() {
	if err := run(); err != nil {
		slog.Error("fatal error", slog.String("error", err.Error()))
		os.Exit(1)
	}
}

func run() error {
	// A local .env only fills variables the environment leaves unset.
	if env := os.Getenv("ENVIRONMENT"); env == "" || env == "development" {
		if err := pkgconfig.LoadDotEnv(); err != nil {
			return fmt.Errorf("load .env: %w", err)
		}
	}

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	log := logger.New("prompt-enhancer-pro-backend", cfg.LogLevel)
	slog.SetDefault(log)
	log.Info("starting prompt enhancer backend",
		slog.String("environment", cfg.Environment),
		slog.Int("http_port", cfg.HTTPPort),
		slog.String("ai_provider", cfg.AIProvider),
		slog.Bool("kafka_enabled", cfg.KafkaEnabled),
	)

	application, err := app.NewApp(cfg, log)
	if err != nil {
		return fmt.Errorf("initialize application: %w", err)
	}

	// Create a context that is canceled on SIGINT or SIGTERM.
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if err := application.Run(ctx); err != nil {
		return fmt.Errorf("run application: %w", err)
	}

	log.Info("prompt enhancer backend stopped")
	return nil
}
