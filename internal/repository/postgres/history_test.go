package postgres

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	pgxmock "github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/utafrali/PromptEnhancerPro/internal/domain"
)

func sampleHistory(userID *string) *domain.PromptHistory {
	return &domain.PromptHistory{
		ID:             "5e0c1b8a-3d2f-4c1e-9a7b-6f5e4d3c2b1a",
		UserID:         userID,
		ModelID:        "midjourney",
		Provider:       "midjourney",
		InputPrompt:    "a cat",
		EnhancedPrompt: "a fluffy cat on a velvet cushion --ar 16:9",
		Params:         domain.EnhancementParams{InitialPrompt: "a cat", TargetAIModel: "midjourney", PromptLanguage: "en"},
		CreatedAt:      time.Now().UTC().Truncate(time.Microsecond),
	}
}

func TestPromptHistoryRepository_Create(t *testing.T) {
	mock := newMock(t)
	repo := NewPromptHistoryRepository(mock)
	userID := "0b7f9a52-7c1e-4a8e-9d55-0f6a3f1b2c3d"
	h := sampleHistory(&userID)
	params, err := json.Marshal(h.Params)
	require.NoError(t, err)

	mock.ExpectExec("INSERT INTO prompt_history").
		WithArgs(h.ID, h.UserID, h.ModelID, h.Provider, h.InputPrompt, h.EnhancedPrompt, params, h.CreatedAt).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	require.NoError(t, repo.Create(context.Background(), h))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPromptHistoryRepository_Create_Anonymous(t *testing.T) {
	mock := newMock(t)
	repo := NewPromptHistoryRepository(mock)
	h := sampleHistory(nil)

	mock.ExpectExec("INSERT INTO prompt_history").
		WithArgs(h.ID, (*string)(nil), h.ModelID, h.Provider, h.InputPrompt, h.EnhancedPrompt, pgxmock.AnyArg(), h.CreatedAt).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	require.NoError(t, repo.Create(context.Background(), h))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPromptHistoryRepository_ListByUser(t *testing.T) {
	mock := newMock(t)
	repo := NewPromptHistoryRepository(mock)
	userID := "0b7f9a52-7c1e-4a8e-9d55-0f6a3f1b2c3d"
	h := sampleHistory(&userID)
	params, err := json.Marshal(h.Params)
	require.NoError(t, err)

	mock.ExpectQuery("SELECT COUNT").
		WithArgs(userID).
		WillReturnRows(pgxmock.NewRows([]string{"count"}).AddRow(3))
	mock.ExpectQuery("SELECT .+ FROM prompt_history\\s+WHERE user_id = \\$1\\s+ORDER BY created_at DESC").
		WithArgs(userID, 1, 2).
		WillReturnRows(pgxmock.NewRows([]string{"id", "user_id", "model_id", "provider", "input_prompt", "enhanced_prompt", "params_json", "created_at"}).
			AddRow(h.ID, h.UserID, h.ModelID, h.Provider, h.InputPrompt, h.EnhancedPrompt, params, h.CreatedAt))

	entries, total, err := repo.ListByUser(context.Background(), userID, 1, 2)

	require.NoError(t, err)
	assert.Equal(t, 3, total)
	require.Len(t, entries, 1)
	assert.Equal(t, h.EnhancedPrompt, entries[0].EnhancedPrompt)
	assert.Equal(t, "midjourney", entries[0].Params.TargetAIModel)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPromptHistoryRepository_ListByUser_Empty(t *testing.T) {
	mock := newMock(t)
	repo := NewPromptHistoryRepository(mock)

	mock.ExpectQuery("SELECT COUNT").
		WithArgs("user-1").
		WillReturnRows(pgxmock.NewRows([]string{"count"}).AddRow(0))

	entries, total, err := repo.ListByUser(context.Background(), "user-1", 20, 0)

	require.NoError(t, err)
	assert.Equal(t, 0, total)
	assert.NotNil(t, entries)
	assert.Empty(t, entries)
	assert.NoError(t, mock.ExpectationsWereMet())
}
