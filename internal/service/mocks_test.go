package service

import (
	"context"
	"io"
	"log/slog"
	"sync"
	"time"

	"github.com/stretchr/testify/mock"

	"github.com/utafrali/PromptEnhancerPro/internal/domain"
	"github.com/utafrali/PromptEnhancerPro/internal/repository"
	apperrors "github.com/utafrali/PromptEnhancerPro/pkg/errors"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// --- Mock User Repository ---

type mockUserRepository struct {
	mock.Mock
}

func (m *mockUserRepository) Create(ctx context.Context, user *domain.User) error {
	args := m.Called(ctx, user)
	return args.Error(0)
}

func (m *mockUserRepository) GetByID(ctx context.Context, id string) (*domain.User, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.User), args.Error(1)
}

func (m *mockUserRepository) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	args := m.Called(ctx, email)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.User), args.Error(1)
}

func (m *mockUserRepository) UpdatePassword(ctx context.Context, id, passwordHash string, updatedAt time.Time) error {
	args := m.Called(ctx, id, passwordHash, updatedAt)
	return args.Error(0)
}

// --- Mock Password Reset Repository ---

type mockResetRepository struct {
	mock.Mock
}

func (m *mockResetRepository) Create(ctx context.Context, token *domain.PasswordResetToken) error {
	args := m.Called(ctx, token)
	return args.Error(0)
}

func (m *mockResetRepository) GetByToken(ctx context.Context, token string) (*domain.PasswordResetToken, error) {
	args := m.Called(ctx, token)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.PasswordResetToken), args.Error(1)
}

func (m *mockResetRepository) MarkUsed(ctx context.Context, id string, usedAt time.Time) error {
	args := m.Called(ctx, id, usedAt)
	return args.Error(0)
}

// --- Mock Prompt History Repository ---

type mockHistoryRepository struct {
	mock.Mock
}

func (m *mockHistoryRepository) Create(ctx context.Context, entry *domain.PromptHistory) error {
	args := m.Called(ctx, entry)
	return args.Error(0)
}

func (m *mockHistoryRepository) ListByUser(ctx context.Context, userID string, limit, offset int) ([]domain.PromptHistory, int, error) {
	args := m.Called(ctx, userID, limit, offset)
	if args.Get(0) == nil {
		return nil, args.Int(1), args.Error(2)
	}
	return args.Get(0).([]domain.PromptHistory), args.Int(1), args.Error(2)
}

// --- Transactor passing the plain repositories through ---

type passthroughTx struct {
	users     repository.UserRepository
	resets    repository.PasswordResetRepository
	calls     int
	rollbacks int
}

func (p *passthroughTx) WithinTx(ctx context.Context, fn func(ctx context.Context, repos repository.TxRepositories) error) error {
	p.calls++
	err := fn(ctx, repository.TxRepositories{Users: p.users, Resets: p.resets})
	if err != nil {
		p.rollbacks++
	}
	return err
}

// --- Mock Event Publisher ---

type mockEvents struct {
	mock.Mock
}

func (m *mockEvents) PublishUserRegistered(ctx context.Context, user *domain.User) error {
	args := m.Called(ctx, user)
	return args.Error(0)
}

func (m *mockEvents) PublishPasswordResetRequested(ctx context.Context, user *domain.User, resetURL string, expiresAt time.Time) error {
	args := m.Called(ctx, user, resetURL, expiresAt)
	return args.Error(0)
}

func (m *mockEvents) PublishPromptEnhanced(ctx context.Context, h *domain.PromptHistory) error {
	args := m.Called(ctx, h)
	return args.Error(0)
}

// --- In-memory store with a serialized conditional update ---

type memStore struct {
	mu     sync.Mutex
	users  map[string]*domain.User
	tokens map[string]*domain.PasswordResetToken
}

func newMemStore() *memStore {
	return &memStore{
		users:  make(map[string]*domain.User),
		tokens: make(map[string]*domain.PasswordResetToken),
	}
}

type memUsers struct{ s *memStore }

func (r memUsers) Create(_ context.Context, u *domain.User) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, existing := range r.s.users {
		if existing.Email == u.Email {
			return apperrors.AlreadyExists("user", "email", u.Email)
		}
	}
	cp := *u
	r.s.users[u.ID] = &cp
	return nil
}

func (r memUsers) GetByID(_ context.Context, id string) (*domain.User, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	u, ok := r.s.users[id]
	if !ok {
		return nil, apperrors.ErrNotFound
	}
	cp := *u
	return &cp, nil
}

func (r memUsers) GetByEmail(_ context.Context, email string) (*domain.User, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, u := range r.s.users {
		if u.Email == email {
			cp := *u
			return &cp, nil
		}
	}
	return nil, apperrors.ErrNotFound
}

func (r memUsers) UpdatePassword(_ context.Context, id, hash string, at time.Time) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	u, ok := r.s.users[id]
	if !ok {
		return apperrors.NotFound("user", id)
	}
	u.PasswordHash = hash
	u.UpdatedAt = at
	return nil
}

type memResets struct{ s *memStore }

func (r memResets) Create(_ context.Context, t *domain.PasswordResetToken) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	cp := *t
	r.s.tokens[t.Token] = &cp
	return nil
}

func (r memResets) GetByToken(_ context.Context, token string) (*domain.PasswordResetToken, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	t, ok := r.s.tokens[token]
	if !ok {
		return nil, apperrors.ErrNotFound
	}
	cp := *t
	return &cp, nil
}

func (r memResets) MarkUsed(_ context.Context, id string, at time.Time) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, t := range r.s.tokens {
		if t.ID != id {
			continue
		}
		if t.Used {
			return repository.ErrTokenAlreadyUsed
		}
		t.Used = true
		t.UsedAt = &at
		return nil
	}
	return repository.ErrTokenAlreadyUsed
}

type memTx struct{ s *memStore }

func (m memTx) WithinTx(ctx context.Context, fn func(ctx context.Context, repos repository.TxRepositories) error) error {
	return fn(ctx, repository.TxRepositories{Users: memUsers(m), Resets: memResets(m)})
}

// --- Fake provider ---

type fakeProvider struct {
	mu         sync.Mutex
	configured bool
	reply      string
	err        error
	delay      time.Duration
	calls      int
	lastModel  string
	lastPrompt string
}

func (f *fakeProvider) Name() string     { return "fake" }
func (f *fakeProvider) Configured() bool { return f.configured }

func (f *fakeProvider) Generate(ctx context.Context, model, prompt string) (string, error) {
	f.mu.Lock()
	f.calls++
	f.lastModel = model
	f.lastPrompt = prompt
	f.mu.Unlock()

	if f.delay > 0 {
		select {
		case <-time.After(f.delay):
		case <-ctx.Done():
			return "", ctx.Err()
		}
	}
	return f.reply, f.err
}
