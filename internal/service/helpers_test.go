package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/bookmate/bookmate-server/internal/auth"
	"github.com/bookmate/bookmate-server/internal/domain"
	"github.com/bookmate/bookmate-server/internal/store"
)

type testEnv struct {
	store  *store.Store
	tokens *auth.TokenService
	auth   *AuthService
	books  *BookService
}

// setupTest wires services over a temporary Badger store.
func setupTest(t *testing.T) *testEnv {
	t.Helper()
	dir := t.TempDir()

	st, err := store.New(dir, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = st.Close() })

	key, err := auth.LoadOrCreateKey(dir)
	require.NoError(t, err)
	tokens, err := auth.NewTokenService(key, 15*time.Minute, 24*time.Hour)
	require.NoError(t, err)

	return &testEnv{
		store:  st,
		tokens: tokens,
		auth:   NewAuthService(st, tokens, nil),
		books:  NewBookService(st, nil, nil),
	}
}

func (e *testEnv) register(t *testing.T, email string) *domain.User {
	t.Helper()
	resp, err := e.auth.Register(context.Background(), RegisterRequest{
		Name:     "Reader",
		Email:    email,
		Password: "correct horse battery",
	})
	require.NoError(t, err)
	return resp.User
}

func (e *testEnv) add(t *testing.T, owner *domain.User, req AddBookRequest) *domain.Book {
	t.Helper()
	b, err := e.books.AddBook(context.Background(), owner, req)
	require.NoError(t, err)
	return b
}

func addReq(title, author string) AddBookRequest {
	return AddBookRequest{
		Title:      title,
		Author:     author,
		Genre:      "Science Fiction",
		Status:     string(domain.StatusToRead),
		TotalPages: 300,
	}
}

func intPtr(v int) *int       { return &v }
func strPtr(v string) *string { return &v }
