package auth

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/blakestevenson/marquee/internal/apperr"
	"github.com/blakestevenson/marquee/internal/auth/providers"
)

const testSecret = "0123456789abcdef0123456789abcdef"

// memStore is an in-memory Store
type memStore struct {
	mu         sync.Mutex
	nextID     int64
	users      map[int64]*User
	creds      map[int64]*providers.Credentials
	tokens     map[string]*RefreshToken
	tokenIDSeq int64
}

func newMemStore() *memStore {
	return &memStore{
		users:  map[int64]*User{},
		creds:  map[int64]*providers.Credentials{},
		tokens: map[string]*RefreshToken{},
	}
}

func (m *memStore) CreateUser(_ context.Context, name, email string) (*User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.users {
		if u.Email == email {
			return nil, ErrUserExists
		}
	}
	m.nextID++
	now := time.Now()
	u := &User{ID: m.nextID, Name: name, Email: email, IsActive: true, CreatedAt: now, UpdatedAt: now}
	m.users[u.ID] = u
	cp := *u
	return &cp, nil
}

func (m *memStore) DeleteUser(_ context.Context, id int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.users, id)
	return nil
}

func (m *memStore) GetUserByID(_ context.Context, id int64) (*User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[id]
	if !ok {
		return nil, ErrUserNotFound
	}
	cp := *u
	return &cp, nil
}

func (m *memStore) GetUserByEmail(_ context.Context, email string) (*User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.users {
		if strings.EqualFold(u.Email, email) {
			cp := *u
			return &cp, nil
		}
	}
	return nil, ErrUserNotFound
}

func (m *memStore) CreateCredentials(_ context.Context, userID int64, providerType string, data []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.creds[userID] = &providers.Credentials{ID: userID, UserID: userID, ProviderType: providerType, Data: data}
	return nil
}

func (m *memStore) GetCredentials(_ context.Context, userID int64, _ string) (*providers.Credentials, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.creds[userID]
	if !ok {
		return nil, providers.ErrProviderNotFound
	}
	return c, nil
}

func (m *memStore) UpdateCredentials(_ context.Context, id int64, data []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.creds[id].Data = data
	return nil
}

func (m *memStore) TouchCredentials(context.Context, int64) error { return nil }

func (m *memStore) CreateRefreshToken(_ context.Context, userID int64, hash string, expiresAt time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.tokenIDSeq++
	m.tokens[hash] = &RefreshToken{ID: m.tokenIDSeq, UserID: userID, ExpiresAt: expiresAt}
	return nil
}

func (m *memStore) GetRefreshToken(_ context.Context, hash string) (*RefreshToken, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	t, ok := m.tokens[hash]
	if !ok {
		return nil, ErrInvalidToken
	}
	cp := *t
	return &cp, nil
}

func (m *memStore) ConsumeRefreshToken(_ context.Context, id int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, t := range m.tokens {
		if t.ID == id && t.RevokedAt == nil {
			now := time.Now()
			t.RevokedAt = &now
			return nil
		}
	}
	return ErrTokenRevoked
}

func (m *memStore) RevokeRefreshTokenByHash(_ context.Context, hash string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if t, ok := m.tokens[hash]; ok && t.RevokedAt == nil {
		now := time.Now()
		t.RevokedAt = &now
	}
	return nil
}

func newTestService(t *testing.T) (*service, *memStore) {
	t.Helper()
	store := newMemStore()
	svc := NewService(
		store,
		NewJWTManager(testSecret, time.Minute, time.Hour),
		providers.NewPasswordProvider(store, bcrypt.MinCost),
		zap.NewNop(),
	).(*service)
	return svc, store
}

func signup(t *testing.T, svc Service) *AuthResponse {
	t.Helper()
	resp, err := svc.Signup(context.Background(), SignupRequest{
		Name:     "Ada Lovelace",
		Email:    "Ada@Example.com",
		Password: "analytical1",
	})
	require.NoError(t, err)
	return resp
}

func TestSignup(t *testing.T) {
	svc, _ := newTestService(t)

	resp := signup(t, svc)
	assert.Equal(t, "ada@example.com", resp.User.Email)
	assert.Equal(t, "Ada Lovelace", resp.User.Name)
	assert.NotEmpty(t, resp.Tokens.AccessToken)
	assert.NotEmpty(t, resp.Tokens.RefreshToken)
	assert.Equal(t, "Bearer", resp.Tokens.TokenType)

	t.Run("duplicate email", func(t *testing.T) {
		_, err := svc.Signup(context.Background(), SignupRequest{
			Name:     "Someone Else",
			Email:    "ada@example.com",
			Password: "password9",
		})
		assert.ErrorIs(t, err, ErrUserExists)
	})

	t.Run("invalid input", func(t *testing.T) {
		_, err := svc.Signup(context.Background(), SignupRequest{
			Name:     "A",
			Email:    "not-an-email",
			Password: "lettersonly",
		})
		var ve *apperr.ValidationError
		require.ErrorAs(t, err, &ve)
		assert.Equal(t, "Invalid input", ve.Message)
		assert.Contains(t, ve.Details, "name")
		assert.Contains(t, ve.Details, "email")
		assert.Contains(t, ve.Details, "password")
	})
}

func TestLogin(t *testing.T) {
	svc, store := newTestService(t)
	signup(t, svc)

	t.Run("success", func(t *testing.T) {
		resp, err := svc.Login(context.Background(), LoginRequest{Email: "ADA@example.com", Password: "analytical1"})
		require.NoError(t, err)
		assert.Equal(t, int64(1), resp.User.ID)
	})

	t.Run("wrong password", func(t *testing.T) {
		_, err := svc.Login(context.Background(), LoginRequest{Email: "ada@example.com", Password: "wrongpass1"})
		assert.ErrorIs(t, err, ErrInvalidCredentials)
	})

	t.Run("unknown email", func(t *testing.T) {
		_, err := svc.Login(context.Background(), LoginRequest{Email: "nobody@example.com", Password: "analytical1"})
		assert.ErrorIs(t, err, ErrInvalidCredentials)
	})

	t.Run("inactive user", func(t *testing.T) {
		store.users[1].IsActive = false
		defer func() { store.users[1].IsActive = true }()

		_, err := svc.Login(context.Background(), LoginRequest{Email: "ada@example.com", Password: "analytical1"})
		assert.ErrorIs(t, err, ErrUserInactive)
	})
}

func TestRefreshTokenRotation(t *testing.T) {
	svc, _ := newTestService(t)
	resp := signup(t, svc)

	rotated, err := svc.RefreshToken(context.Background(), resp.Tokens.RefreshToken)
	require.NoError(t, err)
	assert.NotEqual(t, resp.Tokens.RefreshToken, rotated.RefreshToken)

	_, err = svc.RefreshToken(context.Background(), resp.Tokens.RefreshToken)
	assert.ErrorIs(t, err, ErrTokenRevoked)

	_, err = svc.RefreshToken(context.Background(), "unknown")
	assert.ErrorIs(t, err, ErrInvalidToken)

	t.Run("expired", func(t *testing.T) {
		svc.now = func() time.Time { return time.Now().Add(2 * time.Hour) }
		defer func() { svc.now = time.Now }()

		_, err := svc.RefreshToken(context.Background(), rotated.RefreshToken)
		assert.ErrorIs(t, err, ErrInvalidToken)
	})
}

func TestRefreshTokenConcurrentRotation(t *testing.T) {
	svc, _ := newTestService(t)
	resp := signup(t, svc)

	const attempts = 8
	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		succeeded int
		revoked   int
	)
	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := svc.RefreshToken(context.Background(), resp.Tokens.RefreshToken)
			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				succeeded++
			case errors.Is(err, ErrTokenRevoked):
				revoked++
			default:
				t.Errorf("unexpected error: %v", err)
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, succeeded)
	assert.Equal(t, attempts-1, revoked)
}

// ConsumeRefreshToken failing for a reason other than revocation must not
// mint a new pair
func TestRefreshTokenStoreFailure(t *testing.T) {
	svc, store := newTestService(t)
	resp := signup(t, svc)

	failing := &consumeFailStore{memStore: store, err: errors.New("connection reset")}
	svc.store = failing

	_, err := svc.RefreshToken(context.Background(), resp.Tokens.RefreshToken)
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrTokenRevoked)
	assert.Equal(t, 1, len(store.tokens))
}

type consumeFailStore struct {
	*memStore
	err error
}

func (s *consumeFailStore) ConsumeRefreshToken(context.Context, int64) error {
	return s.err
}

func TestValidateToken(t *testing.T) {
	svc, store := newTestService(t)
	resp := signup(t, svc)

	claims, err := svc.ValidateToken(context.Background(), resp.Tokens.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, resp.User.ID, claims.UserID)
	assert.Equal(t, "ada@example.com", claims.Email)

	delete(store.users, resp.User.ID)
	_, err = svc.ValidateToken(context.Background(), resp.Tokens.AccessToken)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestRevokeToken(t *testing.T) {
	svc, _ := newTestService(t)
	resp := signup(t, svc)

	require.NoError(t, svc.RevokeToken(context.Background(), resp.Tokens.RefreshToken))

	_, err := svc.RefreshToken(context.Background(), resp.Tokens.RefreshToken)
	assert.ErrorIs(t, err, ErrTokenRevoked)
}

func TestChangePassword(t *testing.T) {
	svc, _ := newTestService(t)
	resp := signup(t, svc)
	ctx := context.Background()

	err := svc.ChangePassword(ctx, resp.User.ID, ChangePasswordRequest{CurrentPassword: "nope12345", NewPassword: "newsecret2"})
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	err = svc.ChangePassword(ctx, resp.User.ID, ChangePasswordRequest{CurrentPassword: "analytical1", NewPassword: "short"})
	assert.True(t, apperr.IsValidation(err))

	require.NoError(t, svc.ChangePassword(ctx, resp.User.ID, ChangePasswordRequest{CurrentPassword: "analytical1", NewPassword: "newsecret2"}))

	_, err = svc.Login(ctx, LoginRequest{Email: "ada@example.com", Password: "analytical1"})
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	_, err = svc.Login(ctx, LoginRequest{Email: "ada@example.com", Password: "newsecret2"})
	assert.NoError(t, err)
}
