package api

import (
	"encoding/json/v2"
	"net/http"
	"testing"
	"time"

	"github.com/danielgtaylor/huma/v2/humatest"
	"github.com/stretchr/testify/require"

	"github.com/bookmate/bookmate-server/internal/auth"
	"github.com/bookmate/bookmate-server/internal/ratelimit"
	"github.com/bookmate/bookmate-server/internal/recommend"
	"github.com/bookmate/bookmate-server/internal/search"
	"github.com/bookmate/bookmate-server/internal/service"
	"github.com/bookmate/bookmate-server/internal/store"
)

// testEnvelope mirrors Envelope with typed data for decoding responses.
type testEnvelope[T any] struct {
	V       int    `json:"v"`
	Success bool   `json:"success"`
	Data    T      `json:"data"`
	Error   string `json:"error"`
	Code    string `json:"code"`
	Message string `json:"message"`
	Details any    `json:"details"`
}

// testServer wraps the API server for handler tests.
type testServer struct {
	*Server
	api    humatest.TestAPI
	store  *store.Store
	tokens *auth.TokenService
}

type testOptions struct {
	recommendURL string
	uploader     service.ExportUploader
	limiter      *ratelimit.Limiter
	accessTTL    time.Duration
}

// setupTestServer wires the API over a temporary Badger store and search index.
func setupTestServer(t *testing.T, opts testOptions) *testServer {
	t.Helper()
	dir := t.TempDir()

	st, err := store.New(dir, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = st.Close() })

	index, err := search.Open(search.Options{DataPath: dir})
	require.NoError(t, err)
	t.Cleanup(func() { _ = index.Close() })

	key, err := auth.LoadOrCreateKey(dir)
	require.NoError(t, err)
	accessTTL := opts.accessTTL
	if accessTTL == 0 {
		accessTTL = 15 * time.Minute
	}
	tokens, err := auth.NewTokenService(key, accessTTL, 24*time.Hour)
	require.NoError(t, err)

	client, err := recommend.New(recommend.Options{URL: opts.recommendURL, Timeout: 5 * time.Second})
	require.NoError(t, err)
	t.Cleanup(client.Close)

	services := &Services{
		Auth:           service.NewAuthService(st, tokens, nil),
		Book:           service.NewBookService(st, index, nil),
		Query:          service.NewQueryService(st, nil),
		Dashboard:      service.NewDashboardService(st, nil),
		Export:         service.NewExportService(st, opts.uploader, nil),
		Recommendation: service.NewRecommendationService(st, client, nil),
		Search:         service.NewSearchService(st, index, nil),
	}

	s := NewServer(st, index, services, Options{AuthRateLimiter: opts.limiter}, nil)

	return &testServer{
		Server: s,
		api:    humatest.Wrap(t, s.API()),
		store:  st,
		tokens: tokens,
	}
}

// decode unmarshals a response envelope.
func decode[T any](t *testing.T, resp interface{ Bytes() []byte }) testEnvelope[T] {
	t.Helper()
	var env testEnvelope[T]
	require.NoError(t, json.Unmarshal(resp.Bytes(), &env), "body: %s", resp.Bytes())
	return env
}

func bearer(token string) string {
	return "Authorization: Bearer " + token
}

// registerUser creates a reader and returns its access token and user ID.
func (ts *testServer) registerUser(t *testing.T, email string) (token, userID string) {
	t.Helper()

	resp := ts.api.Post("/api/v1/auth/register", map[string]any{
		"name":     "Reader",
		"email":    email,
		"password": "correct horse battery",
	})
	require.Equal(t, http.StatusOK, resp.Code, "register failed: %s", resp.Body.String())

	env := decode[AuthResponse](t, resp.Body)
	return env.Data.AccessToken, env.Data.User.UserID
}

// addBook adds a To Read book and returns its ID.
func (ts *testServer) addBook(t *testing.T, token string, body map[string]any) string {
	t.Helper()

	resp := ts.api.Post("/api/v1/books", bearer(token), body)
	require.Equal(t, http.StatusCreated, resp.Code, "add book failed: %s", resp.Body.String())

	return decode[BookResponse](t, resp.Body).Data.BookID
}

func bookBody(title, author string) map[string]any {
	return map[string]any{
		"title":       title,
		"author":      author,
		"genre":       "Science Fiction",
		"status":      "To Read",
		"total_pages": 300,
	}
}
