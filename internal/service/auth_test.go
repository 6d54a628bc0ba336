package service

import (
	"context"
	"regexp"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bookmate/bookmate-server/internal/domain"
	domainerrors "github.com/bookmate/bookmate-server/internal/errors"
	"github.com/bookmate/bookmate-server/internal/store"
)

func TestAuthService_Register(t *testing.T) {
	env := setupTest(t)
	ctx := context.Background()

	resp, err := env.auth.Register(ctx, RegisterRequest{
		Name:     "Alice",
		Email:    "  Alice@Example.com ",
		Password: "correct horse battery",
	})
	require.NoError(t, err)

	assert.Equal(t, "US001", resp.User.UserID)
	assert.Equal(t, "alice@example.com", resp.User.Email)
	assert.Empty(t, resp.User.PasswordHash)
	assert.NotEmpty(t, resp.AccessToken)
	assert.NotEmpty(t, resp.RefreshToken)
	assert.Equal(t, "Bearer", resp.TokenType)

	stored, err := env.store.LoadUser(ctx, "alice@example.com")
	require.NoError(t, err)
	require.NotNil(t, stored)
	assert.NotEqual(t, "correct horse battery", stored.PasswordHash)
	assert.Contains(t, stored.PasswordHash, "$argon2id$")

	second := env.register(t, "bob@example.com")
	assert.Equal(t, "US002", second.UserID)
}

func TestAuthService_RegisterDuplicateEmail(t *testing.T) {
	env := setupTest(t)
	env.register(t, "alice@example.com")

	_, err := env.auth.Register(context.Background(), RegisterRequest{
		Name: "Alice again", Email: "ALICE@example.com", Password: "another password",
	})
	assert.ErrorIs(t, err, domainerrors.ErrAlreadyExists)
}

func TestAuthService_RegisterValidation(t *testing.T) {
	env := setupTest(t)

	tests := []struct {
		name string
		req  RegisterRequest
		want string
	}{
		{"missing name", RegisterRequest{Email: "a@b.co", Password: "longenough"}, "name is required"},
		{"bad email", RegisterRequest{Name: "A", Email: "nope", Password: "longenough"}, "email must be a valid email address"},
		{"short password", RegisterRequest{Name: "A", Email: "a@b.co", Password: "short"}, "password must be at least 8 characters"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := env.auth.Register(context.Background(), tt.req)
			require.ErrorIs(t, err, domainerrors.ErrValidation)
			assert.EqualError(t, err, tt.want)
		})
	}
}

// failingAllocator makes user allocation fail.
type failingAllocator struct {
	store.RecordStore
}

func (failingAllocator) AllocateUserID(context.Context) (string, error) {
	return "", store.ErrAllocationContention
}

func TestAuthService_RegisterFallbackID(t *testing.T) {
	env := setupTest(t)
	svc := NewAuthService(failingAllocator{env.store}, env.tokens, nil)

	resp, err := svc.Register(context.Background(), RegisterRequest{
		Name: "Carol", Email: "carol@example.com", Password: "long password",
	})
	require.NoError(t, err)
	assert.Regexp(t, regexp.MustCompile(`^U_[0-9a-f]{8}$`), resp.User.UserID)
}

func TestAuthService_Login(t *testing.T) {
	env := setupTest(t)
	env.register(t, "alice@example.com")
	ctx := context.Background()

	resp, err := env.auth.Login(ctx, LoginRequest{Email: "ALICE@example.com ", Password: "correct horse battery"})
	require.NoError(t, err)
	assert.Equal(t, "US001", resp.User.UserID)

	_, err = env.auth.Login(ctx, LoginRequest{Email: "alice@example.com", Password: "wrong password"})
	assert.ErrorIs(t, err, domainerrors.ErrInvalidCredentials)

	_, err = env.auth.Login(ctx, LoginRequest{Email: "nobody@example.com", Password: "wrong password"})
	assert.ErrorIs(t, err, domainerrors.ErrInvalidCredentials)
}

func TestAuthService_AuthenticateAndLogout(t *testing.T) {
	env := setupTest(t)
	ctx := context.Background()

	resp, err := env.auth.Register(ctx, RegisterRequest{
		Name: "Alice", Email: "alice@example.com", Password: "correct horse battery",
	})
	require.NoError(t, err)

	p, err := env.auth.Authenticate(ctx, resp.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, "US001", p.User.UserID)
	assert.Equal(t, resp.SessionID, p.SessionID)
	assert.Empty(t, p.User.PasswordHash)

	require.NoError(t, env.auth.Logout(ctx, p.SessionID))
	require.NoError(t, env.auth.Logout(ctx, p.SessionID))

	_, err = env.auth.Authenticate(ctx, resp.AccessToken)
	assert.ErrorIs(t, err, domainerrors.ErrUnauthorized)
}

func TestAuthService_AuthenticateRejectsGarbage(t *testing.T) {
	env := setupTest(t)

	_, err := env.auth.Authenticate(context.Background(), "v4.local.garbage")
	assert.ErrorIs(t, err, domainerrors.ErrUnauthorized)
}

func TestAuthService_AuthenticateExpiredSession(t *testing.T) {
	env := setupTest(t)
	ctx := context.Background()

	resp, err := env.auth.Register(ctx, RegisterRequest{
		Name: "Alice", Email: "alice@example.com", Password: "correct horse battery",
	})
	require.NoError(t, err)

	env.auth.now = func() time.Time { return time.Now().Add(48 * time.Hour) }
	_, err = env.auth.Authenticate(ctx, resp.AccessToken)
	assert.ErrorIs(t, err, domainerrors.ErrTokenExpired)
}

// noUserIDLookups fails the test if the user-id lookup is used.
type noUserIDLookups struct {
	store.RecordStore
	t *testing.T
}

func (s noUserIDLookups) GetUserByID(context.Context, string) (*domain.User, error) {
	s.t.Error("GetUserByID called")
	return nil, store.ErrUserNotFound
}

func TestAuthService_AuthenticateLoadsUserByEmail(t *testing.T) {
	env := setupTest(t)
	ctx := context.Background()

	resp, err := env.auth.Register(ctx, RegisterRequest{
		Name: "Alice", Email: "alice@example.com", Password: "correct horse battery",
	})
	require.NoError(t, err)

	svc := NewAuthService(noUserIDLookups{RecordStore: env.store, t: t}, env.tokens, nil)
	p, err := svc.Authenticate(ctx, resp.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, "US001", p.User.UserID)

	_, err = svc.Refresh(ctx, RefreshRequest{SessionID: resp.SessionID, RefreshToken: resp.RefreshToken})
	require.NoError(t, err)
}

func TestAuthService_AuthenticateReplacedAccount(t *testing.T) {
	env := setupTest(t)
	ctx := context.Background()

	resp, err := env.auth.Register(ctx, RegisterRequest{
		Name: "Alice", Email: "alice@example.com", Password: "correct horse battery",
	})
	require.NoError(t, err)

	stored, err := env.store.LoadUser(ctx, "alice@example.com")
	require.NoError(t, err)
	stored.UserID = "US777"
	require.NoError(t, env.store.SaveUser(ctx, stored))

	_, err = env.auth.Authenticate(ctx, resp.AccessToken)
	assert.ErrorIs(t, err, domainerrors.ErrUnauthorized)
}

func TestAuthService_Refresh(t *testing.T) {
	env := setupTest(t)
	ctx := context.Background()

	resp, err := env.auth.Register(ctx, RegisterRequest{
		Name: "Alice", Email: "alice@example.com", Password: "correct horse battery",
	})
	require.NoError(t, err)

	next, err := env.auth.Refresh(ctx, RefreshRequest{SessionID: resp.SessionID, RefreshToken: resp.RefreshToken})
	require.NoError(t, err)
	assert.Equal(t, resp.SessionID, next.SessionID)
	assert.NotEqual(t, resp.RefreshToken, next.RefreshToken)
	assert.Empty(t, next.User.PasswordHash)

	p, err := env.auth.Authenticate(ctx, next.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, resp.SessionID, p.SessionID)

	tests := []struct {
		name string
		req  RefreshRequest
		want error
	}{
		{"reused token", RefreshRequest{SessionID: resp.SessionID, RefreshToken: resp.RefreshToken}, domainerrors.ErrUnauthorized},
		{"wrong session", RefreshRequest{SessionID: "sess-missing", RefreshToken: next.RefreshToken}, domainerrors.ErrUnauthorized},
		{"missing token", RefreshRequest{SessionID: resp.SessionID}, domainerrors.ErrValidation},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := env.auth.Refresh(ctx, tt.req)
			assert.ErrorIs(t, err, tt.want)
		})
	}

	env.auth.now = func() time.Time { return time.Now().Add(48 * time.Hour) }
	_, err = env.auth.Refresh(ctx, RefreshRequest{SessionID: resp.SessionID, RefreshToken: next.RefreshToken})
	assert.ErrorIs(t, err, domainerrors.ErrTokenExpired)
}

func TestAuthService_Me(t *testing.T) {
	env := setupTest(t)
	env.register(t, "alice@example.com")

	u, err := env.auth.Me(context.Background(), "US001")
	require.NoError(t, err)
	assert.Equal(t, "alice@example.com", u.Email)

	_, err = env.auth.Me(context.Background(), "US999")
	assert.ErrorIs(t, err, domainerrors.ErrNotFound)
}
