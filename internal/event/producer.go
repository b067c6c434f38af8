package event

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/utafrali/PromptEnhancerPro/internal/domain"
	pkgkafka "github.com/utafrali/PromptEnhancerPro/pkg/kafka"
	"github.com/utafrali/PromptEnhancerPro/pkg/logger"
)

// Kafka topics for backend events.
const (
	TopicUserRegistered         = "prompt_enhancer.user.registered"
	TopicPasswordResetRequested = "prompt_enhancer.user.password_reset_requested"
	TopicPromptEnhanced         = "prompt_enhancer.prompt.enhanced"
)

// Aggregate types.
const (
	AggregateTypeUser   = "user"
	AggregateTypePrompt = "prompt"
)

// Source identifies events emitted by this backend.
const Source = "prompt-enhancer-backend"

// UserRegisteredData is the payload for a user.registered event.
type UserRegisteredData struct {
	ID    string `json:"id"`
	Email string `json:"email"`
}

// PasswordResetRequestedData is the payload consumed by the mailer. It
// carries the reset link, so the topic must be access controlled.
type PasswordResetRequestedData struct {
	UserID    string    `json:"user_id"`
	Email     string    `json:"email"`
	ResetURL  string    `json:"reset_url"`
	ExpiresAt time.Time `json:"expires_at"`
}

// PromptEnhancedData is the payload for a prompt.enhanced event. Prompt
// text is left out.
type PromptEnhancedData struct {
	HistoryID string  `json:"history_id"`
	UserID    *string `json:"user_id,omitempty"`
	ModelID   string  `json:"model_id"`
	Provider  string  `json:"provider"`
	Language  string  `json:"language"`
}

// Publisher is the Kafka surface the producer needs.
type Publisher interface {
	Publish(ctx context.Context, topic string, event *pkgkafka.Event) error
}

// Producer publishes backend domain events. A Producer without a publisher
// drops events silently, which is how Kafka is switched off.
type Producer struct {
	kafka  Publisher
	logger *slog.Logger
}

// NewProducer creates an event producer. kafka may be nil.
func NewProducer(kafka Publisher, logger *slog.Logger) *Producer {
	return &Producer{kafka: kafka, logger: logger}
}

// Enabled reports whether events are actually sent.
func (p *Producer) Enabled() bool {
	return p != nil && p.kafka != nil
}

// PublishUserRegistered publishes a user.registered event.
func (p *Producer) PublishUserRegistered(ctx context.Context, user *domain.User) error {
	return p.publish(ctx, TopicUserRegistered, user.ID, AggregateTypeUser, UserRegisteredData{
		ID:    user.ID,
		Email: user.Email,
	})
}

// PublishPasswordResetRequested publishes the reset link for user.
func (p *Producer) PublishPasswordResetRequested(ctx context.Context, user *domain.User, resetURL string, expiresAt time.Time) error {
	return p.publish(ctx, TopicPasswordResetRequested, user.ID, AggregateTypeUser, PasswordResetRequestedData{
		UserID:    user.ID,
		Email:     user.Email,
		ResetURL:  resetURL,
		ExpiresAt: expiresAt,
	})
}

// PublishPromptEnhanced publishes a prompt.enhanced event for a history row.
func (p *Producer) PublishPromptEnhanced(ctx context.Context, h *domain.PromptHistory) error {
	return p.publish(ctx, TopicPromptEnhanced, h.ID, AggregateTypePrompt, PromptEnhancedData{
		HistoryID: h.ID,
		UserID:    h.UserID,
		ModelID:   h.ModelID,
		Provider:  h.Provider,
		Language:  h.Params.PromptLanguage,
	})
}

func (p *Producer) publish(ctx context.Context, topic, aggregateID, aggregateType string, data any) error {
	if !p.Enabled() {
		return nil
	}

	evt, err := pkgkafka.NewEvent(topic, aggregateID, aggregateType, Source, data)
	if err != nil {
		return fmt.Errorf("create %s event: %w", topic, err)
	}
	if rid := logger.RequestIDFromContext(ctx); rid != "" {
		evt.WithRequestID(rid)
	}
	if uid := logger.UserIDFromContext(ctx); uid != "" {
		evt.WithMetadata("actor_user_id", uid)
	}

	if err := p.kafka.Publish(ctx, topic, evt); err != nil {
		return fmt.Errorf("publish %s event: %w", topic, err)
	}

	p.logger.DebugContext(ctx, "published event",
		slog.String("topic", topic),
		slog.String("aggregate_id", aggregateID),
	)
	return nil
}
