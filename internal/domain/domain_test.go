package domain

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalizeEmail(t *testing.T) {
	assert.Equal(t, "user@example.com", NormalizeEmail("  User@Example.COM "))
	assert.Equal(t, "", NormalizeEmail("   "))
}

func TestUser_JSONHidesPasswordHash(t *testing.T) {
	u := User{ID: "u1", Email: "a@b.c", PasswordHash: "secret", IsActive: true}

	data, err := json.Marshal(u)
	require.NoError(t, err)

	assert.NotContains(t, string(data), "secret")
	assert.NotContains(t, string(data), "updated_at")
	assert.Contains(t, string(data), `"is_active":true`)
}

func TestPasswordResetToken_IsValid(t *testing.T) {
	now := time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)

	tests := []struct {
		name  string
		token PasswordResetToken
		want  bool
	}{
		{"fresh", PasswordResetToken{ExpiresAt: now.Add(time.Hour)}, true},
		{"expires exactly now", PasswordResetToken{ExpiresAt: now}, true},
		{"expired", PasswordResetToken{ExpiresAt: now.Add(-time.Second)}, false},
		{"used", PasswordResetToken{ExpiresAt: now.Add(time.Hour), Used: true}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.token.IsValid(now))
		})
	}
}

func TestModelDescriptor_DisplayName(t *testing.T) {
	assert.Equal(t, "Midjourney (Image)", ModelDescriptor{ID: "midjourney", Label: "Midjourney (Image)"}.DisplayName())
	assert.Equal(t, "custom-model", ModelDescriptor{ID: "custom-model"}.DisplayName())
}

func TestEnhancementParams_JSONNames(t *testing.T) {
	var p EnhancementParams
	err := json.Unmarshal([]byte(`{"initialPrompt":"a cat","targetAiModel":"midjourney","promptLanguage":"en","colorPalette":"pastel"}`), &p)
	require.NoError(t, err)

	assert.Equal(t, "a cat", p.InitialPrompt)
	assert.Equal(t, "midjourney", p.TargetAIModel)
	assert.Equal(t, "en", p.PromptLanguage)
	assert.Equal(t, "pastel", p.ColorPalette)
}
