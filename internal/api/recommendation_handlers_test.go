package api

import (
	"encoding/json/v2"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bookmate/bookmate-server/internal/service"
)

func TestRecommendations(t *testing.T) {
	var received map[string]any
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		_ = json.Unmarshal(body, &received)
		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, `{
			"recommendations": [{"title": "Hyperion", "author": "Dan Simmons", "genre": "Science Fiction", "description": "<b>Pilgrims</b> on Hyperion"}],
			"top_genres": ["Science Fiction"],
			"top_authors": ["Frank Herbert"]
		}`)
	}))
	t.Cleanup(upstream.Close)

	ts := setupTestServer(t, testOptions{recommendURL: upstream.URL})
	token, _ := ts.registerUser(t, "alice@example.com")

	resp := ts.api.Post("/api/v1/recommendations", bearer(token))
	require.Equal(t, http.StatusOK, resp.Code, resp.Body.String())
	empty := decode[service.RecommendationResult](t, resp.Body).Data
	assert.False(t, empty.Available)
	assert.Equal(t, service.MsgNoHistory, empty.Message)

	ts.addBook(t, token, bookBody("Dune", "Frank Herbert"))

	resp = ts.api.Post("/api/v1/recommendations", bearer(token))
	require.Equal(t, http.StatusOK, resp.Code, resp.Body.String())
	res := decode[service.RecommendationResult](t, resp.Body).Data
	assert.True(t, res.Available)
	require.Len(t, res.Recommendations, 1)
	assert.Equal(t, "Hyperion", res.Recommendations[0].Title)
	assert.Equal(t, "**Pilgrims** on Hyperion", res.Recommendations[0].Description)
	assert.Equal(t, []string{"Science Fiction"}, res.TopGenres)
	require.Len(t, res.History, 1)

	require.Contains(t, received, "reading_history")
	history, ok := received["reading_history"].([]any)
	require.True(t, ok)
	assert.Len(t, history, 1)
}

func TestRecommendations_SoftFailures(t *testing.T) {
	down := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "boom", http.StatusBadGateway)
	}))
	t.Cleanup(down.Close)

	tests := []struct {
		name string
		url  string
		want string
	}{
		{"not configured", "", service.MsgNotConfigured},
		{"upstream error", down.URL, service.MsgServiceDown},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ts := setupTestServer(t, testOptions{recommendURL: tt.url})
			token, _ := ts.registerUser(t, "alice@example.com")
			ts.addBook(t, token, bookBody("Dune", "Frank Herbert"))

			resp := ts.api.Post("/api/v1/recommendations", bearer(token))
			require.Equal(t, http.StatusOK, resp.Code, resp.Body.String())

			env := decode[service.RecommendationResult](t, resp.Body)
			assert.True(t, env.Success)
			assert.False(t, env.Data.Available)
			assert.Equal(t, tt.want, env.Data.Message)
			assert.Empty(t, env.Data.Recommendations)
		})
	}
}
