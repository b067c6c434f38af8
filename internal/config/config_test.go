package config

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setEnvs(t *testing.T, envs map[string]string) {
	t.Helper()
	for k, v := range envs {
		t.Setenv(k, v)
	}
}

func TestLoad_Defaults(t *testing.T) {
	setEnvs(t, map[string]string{"ENVIRONMENT": "development"})

	cfg, err := Load()

	require.NoError(t, err)
	assert.Equal(t, 8000, cfg.HTTPPort)
	assert.Equal(t, "gemini", cfg.AIProvider)
	assert.Equal(t, "gemini-2.5-flash", cfg.GeminiModelName)
	assert.Equal(t, 60*time.Minute, cfg.AccessTokenTTL())
	assert.Equal(t, 60*time.Second, cfg.ProviderTimeout)
	assert.Equal(t, 12, cfg.BcryptCost)
}

func TestLoad_Production_RejectsDefaultSecret(t *testing.T) {
	setEnvs(t, map[string]string{
		"ENVIRONMENT":     "production",
		"AUTH_SECRET_KEY": defaultSecret,
	})

	cfg, err := Load()

	assert.Nil(t, cfg)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "AUTH_SECRET_KEY must be explicitly set")
}

func TestLoad_Production_RejectsShortSecret(t *testing.T) {
	setEnvs(t, map[string]string{
		"ENVIRONMENT":     "production",
		"AUTH_SECRET_KEY": "too-short",
	})

	_, err := Load()

	require.Error(t, err)
	assert.Contains(t, err.Error(), "at least 32 characters")
}

func TestLoad_Production_AcceptsStrongSecret(t *testing.T) {
	setEnvs(t, map[string]string{
		"ENVIRONMENT":     "production",
		"AUTH_SECRET_KEY": strings.Repeat("k", 40),
	})

	cfg, err := Load()

	require.NoError(t, err)
	assert.False(t, cfg.IsDevelopment())
}

func TestLoad_InvalidValues(t *testing.T) {
	tests := []struct {
		name string
		env  map[string]string
		want string
	}{
		{"port", map[string]string{"HTTP_PORT": "70000"}, "invalid HTTP port"},
		{"access ttl", map[string]string{"AUTH_ACCESS_TOKEN_EXPIRE_MINUTES": "0"}, "AUTH_ACCESS_TOKEN_EXPIRE_MINUTES"},
		{"reset ttl", map[string]string{"AUTH_RESET_TOKEN_EXPIRE_MINUTES": "-5"}, "AUTH_RESET_TOKEN_EXPIRE_MINUTES"},
		{"bcrypt cost", map[string]string{"BCRYPT_COST": "40"}, "BCRYPT_COST"},
		{"provider", map[string]string{"AI_PROVIDER": "openai"}, "unknown AI_PROVIDER"},
		{"timeout", map[string]string{"PROVIDER_TIMEOUT": "0s"}, "PROVIDER_TIMEOUT"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv("ENVIRONMENT", "development")
			setEnvs(t, tt.env)

			_, err := Load()

			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestResetTokenTTL(t *testing.T) {
	cfg := &Config{AccessTokenExpireMinutes: 30}
	assert.Equal(t, 30*time.Minute, cfg.ResetTokenTTL())

	cfg.ResetTokenExpireMinutes = 15
	assert.Equal(t, 15*time.Minute, cfg.ResetTokenTTL())
}

func TestProviderAPIKey_FirstNonEmptyWins(t *testing.T) {
	cfg := &Config{GoogleAPIKey: "google"}
	assert.Equal(t, "google", cfg.ProviderAPIKey())

	cfg.GeminiAPIKey = "gemini"
	assert.Equal(t, "gemini", cfg.ProviderAPIKey())

	assert.Empty(t, (&Config{}).ProviderAPIKey())
}

func TestLoad_ListValues(t *testing.T) {
	setEnvs(t, map[string]string{
		"KAFKA_BROKERS":        "k1:9092,k2:9092",
		"CORS_ALLOWED_ORIGINS": "https://app.example.com",
	})

	cfg, err := Load()

	require.NoError(t, err)
	assert.Equal(t, []string{"k1:9092", "k2:9092"}, cfg.KafkaBrokers)
	assert.Equal(t, []string{"https://app.example.com"}, cfg.CORSAllowedOrigins)
}
