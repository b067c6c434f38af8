package config

import (
	"fmt"
	"time"

	pkgconfig "github.com/utafrali/PromptEnhancerPro/pkg/config"
)

const defaultSecret = "change-this-to-a-secure-secret"

// Config holds all configuration for the backend.
type Config struct {
	Environment string `env:"ENVIRONMENT" envDefault:"development"`
	LogLevel    string `env:"LOG_LEVEL" envDefault:"info"`

	// HTTP server
	HTTPPort int `env:"HTTP_PORT" envDefault:"8000"`

	// PostgreSQL
	PostgresHost     string        `env:"POSTGRES_HOST" envDefault:"localhost"`
	PostgresPort     int           `env:"POSTGRES_PORT" envDefault:"5432"`
	PostgresUser     string        `env:"POSTGRES_USER" envDefault:"prompt_enhancer"`
	PostgresPass     string        `env:"POSTGRES_PASSWORD" envDefault:"prompt_enhancer"`
	PostgresDB       string        `env:"POSTGRES_DB" envDefault:"prompt_enhancer"`
	PostgresSSL      string        `env:"POSTGRES_SSL_MODE" envDefault:"disable"`
	DBMaxConns       int32         `env:"DB_MAX_CONNS" envDefault:"10"`
	DBMinConns       int32         `env:"DB_MIN_CONNS" envDefault:"2"`
	SlowQueryMillis  int           `env:"SLOW_QUERY_THRESHOLD_MS" envDefault:"200"`
	RunMigrations    bool          `env:"DB_RUN_MIGRATIONS" envDefault:"true"`
	DBConnectTimeout time.Duration `env:"DB_CONNECT_TIMEOUT" envDefault:"30s"`

	// Kafka
	KafkaEnabled bool     `env:"KAFKA_ENABLED" envDefault:"false"`
	KafkaBrokers []string `env:"KAFKA_BROKERS" envDefault:"localhost:9092" envSeparator:","`

	// Auth
	AuthSecretKey            string `env:"AUTH_SECRET_KEY" envDefault:"change-this-to-a-secure-secret"`
	AccessTokenExpireMinutes int    `env:"AUTH_ACCESS_TOKEN_EXPIRE_MINUTES" envDefault:"60"`
	// ResetTokenExpireMinutes of 0 means "same as the access token".
	ResetTokenExpireMinutes int    `env:"AUTH_RESET_TOKEN_EXPIRE_MINUTES" envDefault:"0"`
	BcryptCost              int    `env:"BCRYPT_COST" envDefault:"12"`
	PasswordResetURL        string `env:"PASSWORD_RESET_URL" envDefault:"http://localhost:5173/reset-password"`

	// AI provider
	AIProvider      string        `env:"AI_PROVIDER" envDefault:"gemini"`
	GeminiAPIKey    string        `env:"GEMINI_API_KEY"`
	GoogleAPIKey    string        `env:"GOOGLE_API_KEY"`
	GeminiModelName string        `env:"GEMINI_MODEL_NAME" envDefault:"gemini-2.5-flash"`
	GeminiBaseURL   string        `env:"GEMINI_BASE_URL" envDefault:"https://generativelanguage.googleapis.com"`
	ProviderTimeout time.Duration `env:"PROVIDER_TIMEOUT" envDefault:"60s"`

	// CORS
	CORSAllowedOrigins []string `env:"CORS_ALLOWED_ORIGINS" envDefault:"http://localhost:5173,http://127.0.0.1:5173" envSeparator:","`

	// OpenTelemetry
	OTelEnabled    bool    `env:"OTEL_ENABLED" envDefault:"false"`
	OTelEndpoint   string  `env:"OTEL_EXPORTER_OTLP_ENDPOINT" envDefault:"localhost:4318"`
	OTelSampleRate float64 `env:"OTEL_SAMPLE_RATE" envDefault:"1.0"`
}

// Load reads configuration from environment variables.
func Load() (*Config, error) {
	cfg := &Config{}
	if err := pkgconfig.Load(cfg); err != nil {
		return nil, fmt.Errorf("load backend config: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	if c.HTTPPort < 1 || c.HTTPPort > 65535 {
		return fmt.Errorf("invalid HTTP port: %d", c.HTTPPort)
	}
	if c.AccessTokenExpireMinutes < 1 {
		return fmt.Errorf("AUTH_ACCESS_TOKEN_EXPIRE_MINUTES must be positive, got %d", c.AccessTokenExpireMinutes)
	}
	if c.ResetTokenExpireMinutes < 0 {
		return fmt.Errorf("AUTH_RESET_TOKEN_EXPIRE_MINUTES must not be negative, got %d", c.ResetTokenExpireMinutes)
	}
	if c.BcryptCost < 4 || c.BcryptCost > 31 {
		return fmt.Errorf("BCRYPT_COST must be between 4 and 31, got %d", c.BcryptCost)
	}
	if c.ProviderTimeout <= 0 {
		return fmt.Errorf("PROVIDER_TIMEOUT must be positive, got %s", c.ProviderTimeout)
	}
	if c.DBConnectTimeout <= 0 {
		return fmt.Errorf("DB_CONNECT_TIMEOUT must be positive, got %s", c.DBConnectTimeout)
	}
	switch c.AIProvider {
	case "gemini", "mock":
	default:
		return fmt.Errorf("unknown AI_PROVIDER %q (want gemini or mock)", c.AIProvider)
	}

	if !c.IsDevelopment() {
		if c.AuthSecretKey == defaultSecret {
			return fmt.Errorf("AUTH_SECRET_KEY must be explicitly set via environment variable in %q mode", c.Environment)
		}
		if len(c.AuthSecretKey) < 32 {
			return fmt.Errorf("AUTH_SECRET_KEY must be at least 32 characters long, got %d", len(c.AuthSecretKey))
		}
	}
	return nil
}

// IsDevelopment reports whether the service runs in development mode.
func (c *Config) IsDevelopment() bool {
	return c.Environment == "development"
}

// AccessTokenTTL is the lifetime of issued bearer tokens.
func (c *Config) AccessTokenTTL() time.Duration {
	return time.Duration(c.AccessTokenExpireMinutes) * time.Minute
}

// ResetTokenTTL is the lifetime of password-reset tokens. It falls back to
// the access-token lifetime when not set.
func (c *Config) ResetTokenTTL() time.Duration {
	if c.ResetTokenExpireMinutes == 0 {
		return c.AccessTokenTTL()
	}
	return time.Duration(c.ResetTokenExpireMinutes) * time.Minute
}

// ProviderAPIKey returns the first configured provider credential.
func (c *Config) ProviderAPIKey() string {
	if c.GeminiAPIKey != "" {
		return c.GeminiAPIKey
	}
	return c.GoogleAPIKey
}

// SlowQueryThreshold returns the slow query log threshold; 0 disables it.
func (c *Config) SlowQueryThreshold() time.Duration {
	return time.Duration(c.SlowQueryMillis) * time.Millisecond
}
