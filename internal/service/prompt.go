package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/utafrali/PromptEnhancerPro/internal/domain"
	"github.com/utafrali/PromptEnhancerPro/internal/repository"
	"github.com/utafrali/PromptEnhancerPro/pkg/pagination"
)

// PromptService exposes enhancement to callers and keeps their history.
type PromptService struct {
	enhancer *Enhancer
	history  repository.PromptHistoryRepository
	events   EventPublisher
	logger   *slog.Logger
}

// NewPromptService creates a new prompt service.
func NewPromptService(
	enhancer *Enhancer,
	history repository.PromptHistoryRepository,
	events EventPublisher,
	logger *slog.Logger,
) *PromptService {
	return &PromptService{
		enhancer: enhancer,
		history:  history,
		events:   events,
		logger:   logger,
	}
}

// Enhance runs one enhancement. userID is empty for anonymous callers. A
// successful result is recorded in history; recording failures are logged
// and do not affect the result.
func (s *PromptService) Enhance(ctx context.Context, userID string, params domain.EnhancementParams) (string, error) {
	enhanced, err := s.enhancer.Enhance(ctx, params)
	if err != nil {
		return "", err
	}

	model := s.enhancer.Registry().Resolve(params.TargetAIModel)
	provider := model.Provider
	if provider == "" {
		provider = s.enhancer.ProviderName()
	}

	entry := &domain.PromptHistory{
		ID:             uuid.New().String(),
		ModelID:        params.TargetAIModel,
		Provider:       provider,
		InputPrompt:    params.InitialPrompt,
		EnhancedPrompt: enhanced,
		Params:         params,
		CreatedAt:      time.Now().UTC(),
	}
	if userID != "" {
		entry.UserID = &userID
	}

	if err := s.history.Create(ctx, entry); err != nil {
		s.logger.ErrorContext(ctx, "failed to record prompt history",
			slog.String("model_id", entry.ModelID),
			slog.String("error", err.Error()),
		)
	} else if err := s.events.PublishPromptEnhanced(ctx, entry); err != nil {
		s.logger.ErrorContext(ctx, "failed to publish prompt.enhanced event",
			slog.String("history_id", entry.ID),
			slog.String("error", err.Error()),
		)
	}

	s.logger.InfoContext(ctx, "prompt enhanced",
		slog.String("model_id", entry.ModelID),
		slog.String("language", params.PromptLanguage),
		slog.Int("input_length", len(params.InitialPrompt)),
		slog.Int("output_length", len(enhanced)),
	)
	return enhanced, nil
}

// History returns a page of the user's enhancements, newest first.
func (s *PromptService) History(ctx context.Context, userID string, params pagination.Params) (*pagination.Result[domain.PromptHistory], error) {
	entries, total, err := s.history.ListByUser(ctx, userID, params.PerPage, params.Offset)
	if err != nil {
		return nil, fmt.Errorf("list prompt history: %w", err)
	}
	result := pagination.NewResult(entries, total, params)
	return &result, nil
}

// Models returns the target models in display order.
func (s *PromptService) Models() []domain.ModelDescriptor {
	return s.enhancer.Registry().All()
}
