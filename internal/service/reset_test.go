package service

import (
	"bytes"
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/utafrali/PromptEnhancerPro/internal/auth"
	"github.com/utafrali/PromptEnhancerPro/internal/domain"
	"github.com/utafrali/PromptEnhancerPro/internal/repository"
	apperrors "github.com/utafrali/PromptEnhancerPro/pkg/errors"
)

var fixedNow = time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

func newMemResetManager(store *memStore) *ResetTokenManager {
	m := NewResetTokenManager(memUsers{store}, memResets{store}, memTx{store},
		auth.NewHasher(bcrypt.MinCost), time.Hour, testLogger())
	m.now = func() time.Time { return fixedNow }
	return m
}

func seedUser(t *testing.T, store *memStore, email, password string, active bool) *domain.User {
	t.Helper()
	hash, err := auth.NewHasher(bcrypt.MinCost).Hash(password)
	require.NoError(t, err)
	u := &domain.User{ID: uuid.NewSHA1(uuid.NameSpaceURL, []byte(email)).String(), Email: email, PasswordHash: hash, IsActive: active, CreatedAt: fixedNow, UpdatedAt: fixedNow}
	require.NoError(t, memUsers{store}.Create(context.Background(), u))
	return u
}

func requireCode(t *testing.T, err error, code string) {
	t.Helper()
	var appErr *apperrors.AppError
	require.True(t, errors.As(err, &appErr), "expected AppError, got %v", err)
	assert.Equal(t, code, appErr.Code)
}

func TestResetTokenManager_Create(t *testing.T) {
	store := newMemStore()
	m := newMemResetManager(store)
	m.random = bytes.NewReader(bytes.Repeat([]byte{0xAB}, 32))
	user := seedUser(t, store, "a@example.com", "password1", true)

	tok, err := m.Create(context.Background(), user)

	require.NoError(t, err)
	assert.Equal(t, user.ID, tok.UserID)
	assert.Len(t, tok.Token, 43)
	assert.Equal(t, "q6urq6urq6urq6urq6urq6urq6urq6urq6urq6urq6s", tok.Token)
	assert.Equal(t, fixedNow.Add(time.Hour), tok.ExpiresAt)
	assert.False(t, tok.Used)
}

func TestResetTokenManager_CreateUsesFreshSecrets(t *testing.T) {
	store := newMemStore()
	m := newMemResetManager(store)
	user := seedUser(t, store, "a@example.com", "password1", true)

	first, err := m.Create(context.Background(), user)
	require.NoError(t, err)
	second, err := m.Create(context.Background(), user)
	require.NoError(t, err)

	assert.NotEqual(t, first.Token, second.Token)

	// Earlier tokens are not invalidated.
	_, err = m.Validate(context.Background(), first.Token)
	assert.NoError(t, err)
	_, err = m.Validate(context.Background(), second.Token)
	assert.NoError(t, err)
}

func TestResetTokenManager_CreateRandomFailure(t *testing.T) {
	store := newMemStore()
	m := newMemResetManager(store)
	m.random = bytes.NewReader(nil)

	_, err := m.Create(context.Background(), &domain.User{ID: "u"})

	require.Error(t, err)
	assert.Contains(t, err.Error(), "generate reset secret")
}

func TestResetTokenManager_Lifecycle(t *testing.T) {
	store := newMemStore()
	m := newMemResetManager(store)
	user := seedUser(t, store, "a@example.com", "old-password", true)
	ctx := context.Background()

	tok, err := m.Create(ctx, user)
	require.NoError(t, err)

	_, err = m.Validate(ctx, tok.Token)
	require.NoError(t, err)

	updated, err := m.Redeem(ctx, tok.Token, "new-password")
	require.NoError(t, err)
	assert.Equal(t, user.ID, updated.ID)

	_, err = m.Validate(ctx, tok.Token)
	requireCode(t, err, "INVALID_RESET_TOKEN")
	assert.ErrorIs(t, err, ErrInvalidResetToken)

	stored, err := memUsers{store}.GetByID(ctx, user.ID)
	require.NoError(t, err)
	hasher := auth.NewHasher(bcrypt.MinCost)
	assert.True(t, hasher.Verify("new-password", stored.PasswordHash))
	assert.False(t, hasher.Verify("old-password", stored.PasswordHash))

	storedTok, err := memResets{store}.GetByToken(ctx, tok.Token)
	require.NoError(t, err)
	assert.True(t, storedTok.Used)
	require.NotNil(t, storedTok.UsedAt)
	assert.Equal(t, fixedNow, *storedTok.UsedAt)
}

func TestResetTokenManager_ValidateExpiry(t *testing.T) {
	store := newMemStore()
	m := newMemResetManager(store)
	user := seedUser(t, store, "a@example.com", "password1", true)
	ctx := context.Background()

	tok, err := m.Create(ctx, user)
	require.NoError(t, err)

	m.now = func() time.Time { return tok.ExpiresAt }
	_, err = m.Validate(ctx, tok.Token)
	assert.NoError(t, err, "token is still valid at its expiry instant")

	m.now = func() time.Time { return tok.ExpiresAt.Add(time.Nanosecond) }
	_, err = m.Validate(ctx, tok.Token)
	requireCode(t, err, "INVALID_RESET_TOKEN")
}

func TestResetTokenManager_ValidateUnknownAndEmpty(t *testing.T) {
	m := newMemResetManager(newMemStore())

	_, err := m.Validate(context.Background(), "does-not-exist")
	requireCode(t, err, "INVALID_RESET_TOKEN")

	_, err = m.Validate(context.Background(), "")
	requireCode(t, err, "INVALID_RESET_TOKEN")
}

func TestResetTokenManager_ValidateRepositoryError(t *testing.T) {
	resets := new(mockResetRepository)
	resets.On("GetByToken", mock.Anything, "tok").Return(nil, errors.New("db down"))
	m := NewResetTokenManager(new(mockUserRepository), resets, nil, auth.NewHasher(bcrypt.MinCost), time.Hour, testLogger())

	_, err := m.Validate(context.Background(), "tok")

	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrInvalidResetToken)
}

func TestResetTokenManager_ConcurrentRedeem(t *testing.T) {
	store := newMemStore()
	m := newMemResetManager(store)
	user := seedUser(t, store, "a@example.com", "password1", true)

	tok, err := m.Create(context.Background(), user)
	require.NoError(t, err)

	const workers = 8
	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		successes int
		rejected  int
	)
	start := make(chan struct{})
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			<-start
			_, err := m.Redeem(context.Background(), tok.Token, "new-password")
			mu.Lock()
			defer mu.Unlock()
			if err == nil {
				successes++
			} else if errors.Is(err, ErrInvalidResetToken) {
				rejected++
			}
		}()
	}
	close(start)
	wg.Wait()

	assert.Equal(t, 1, successes)
	assert.Equal(t, workers-1, rejected)
}

func TestResetTokenManager_RedeemInactiveOwner(t *testing.T) {
	store := newMemStore()
	m := newMemResetManager(store)
	user := seedUser(t, store, "a@example.com", "password1", false)

	tok, err := m.Create(context.Background(), user)
	require.NoError(t, err)

	_, err = m.Redeem(context.Background(), tok.Token, "new-password")

	requireCode(t, err, "USER_UNAVAILABLE")
	assert.ErrorIs(t, err, ErrUserUnavailable)

	stored, err := memResets{store}.GetByToken(context.Background(), tok.Token)
	require.NoError(t, err)
	assert.False(t, stored.Used)
}

func TestResetTokenManager_RedeemLosesRaceInsideTx(t *testing.T) {
	users := new(mockUserRepository)
	resets := new(mockResetRepository)
	tx := &passthroughTx{users: users, resets: resets}
	m := NewResetTokenManager(users, resets, tx, auth.NewHasher(bcrypt.MinCost), time.Hour, testLogger())
	m.now = func() time.Time { return fixedNow }

	tok := &domain.PasswordResetToken{ID: "t1", UserID: "u1", Token: "secret", ExpiresAt: fixedNow.Add(time.Minute)}
	resets.On("GetByToken", mock.Anything, "secret").Return(tok, nil)
	users.On("GetByID", mock.Anything, "u1").Return(&domain.User{ID: "u1", IsActive: true}, nil)
	resets.On("MarkUsed", mock.Anything, "t1", fixedNow).Return(repository.ErrTokenAlreadyUsed)

	_, err := m.Redeem(context.Background(), "secret", "new-password")

	requireCode(t, err, "INVALID_RESET_TOKEN")
	users.AssertNotCalled(t, "UpdatePassword", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	assert.Equal(t, 1, tx.rollbacks)
}

func TestResetTokenManager_RedeemPasswordWriteFailureRollsBack(t *testing.T) {
	users := new(mockUserRepository)
	resets := new(mockResetRepository)
	tx := &passthroughTx{users: users, resets: resets}
	m := NewResetTokenManager(users, resets, tx, auth.NewHasher(bcrypt.MinCost), time.Hour, testLogger())
	m.now = func() time.Time { return fixedNow }

	tok := &domain.PasswordResetToken{ID: "t1", UserID: "u1", Token: "secret", ExpiresAt: fixedNow.Add(time.Minute)}
	resets.On("GetByToken", mock.Anything, "secret").Return(tok, nil)
	users.On("GetByID", mock.Anything, "u1").Return(&domain.User{ID: "u1", IsActive: true}, nil)
	resets.On("MarkUsed", mock.Anything, "t1", fixedNow).Return(nil)
	users.On("UpdatePassword", mock.Anything, "u1", mock.AnythingOfType("string"), fixedNow).Return(errors.New("disk full"))

	_, err := m.Redeem(context.Background(), "secret", "new-password")

	require.Error(t, err)
	assert.Contains(t, err.Error(), "update password")
	assert.Equal(t, 1, tx.rollbacks)
}

func TestResetTokenManager_ApplyNewPassword(t *testing.T) {
	store := newMemStore()
	m := newMemResetManager(store)
	user := seedUser(t, store, "a@example.com", "password1", true)

	require.NoError(t, m.ApplyNewPassword(context.Background(), user, "another-password"))

	stored, err := memUsers{store}.GetByID(context.Background(), user.ID)
	require.NoError(t, err)
	assert.True(t, auth.NewHasher(bcrypt.MinCost).Verify("another-password", stored.PasswordHash))
	assert.Equal(t, fixedNow, stored.UpdatedAt)
}
