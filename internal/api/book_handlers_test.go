package api

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAddBook_EndToEnd(t *testing.T) {
	ts := setupTestServer(t, testOptions{})
	token, _ := ts.registerUser(t, "alice@example.com")

	assert.Equal(t, "BS_US001_001", ts.addBook(t, token, bookBody("Dune", "Frank Herbert")))

	resp := ts.api.Post("/api/v1/books", bearer(token), bookBody("  dune ", "FRANK HERBERT"))
	assert.Equal(t, http.StatusConflict, resp.Code, resp.Body.String())
	assert.Equal(t, "ALREADY_EXISTS", decode[any](t, resp.Body).Code)

	assert.Equal(t, "BS_US001_002", ts.addBook(t, token, bookBody("Foundation", "Asimov")))

	resp = ts.api.Delete("/api/v1/books/BS_US001_002", bearer(token))
	require.Equal(t, http.StatusOK, resp.Code, resp.Body.String())
	assert.Equal(t, "BS_US001_003", ts.addBook(t, token, bookBody("Hyperion", "Dan Simmons")))
}

func TestAddBook_Fields(t *testing.T) {
	ts := setupTestServer(t, testOptions{})
	token, _ := ts.registerUser(t, "alice@example.com")

	resp := ts.api.Post("/api/v1/books", bearer(token), map[string]any{
		"title":        "The Name of the Wind",
		"author":       "Patrick Rothfuss",
		"genre":        "Other",
		"custom_genre": "Epic Fantasy",
		"status":       "reading",
		"rating":       5,
		"tags":         []string{" fantasy ", ""},
		"tag_list":     "favourite, ,series",
		"total_pages":  662,
		"pages_read":   100,
		"due_date":     "2000-01-01",
	})
	require.Equal(t, http.StatusCreated, resp.Code, resp.Body.String())

	b := decode[BookResponse](t, resp.Body).Data
	assert.Equal(t, "Epic Fantasy", b.Genre)
	assert.Equal(t, "Reading", b.Status)
	assert.Equal(t, 5, b.Rating)
	assert.Equal(t, []string{"fantasy", "favourite", "series"}, b.Tags)
	assert.True(t, b.Overdue)
	assert.InDelta(t, 15.1, b.ProgressPercent, 0.05)
	assert.False(t, b.Archived)
}

func TestAddBook_ValidationErrors(t *testing.T) {
	ts := setupTestServer(t, testOptions{})
	token, _ := ts.registerUser(t, "alice@example.com")

	tests := []struct {
		name   string
		change map[string]any
	}{
		{"unknown genre", map[string]any{"genre": "Cookbooks"}},
		{"other without custom genre", map[string]any{"genre": "Other"}},
		{"bad status", map[string]any{"status": "Abandoned"}},
		{"rating out of range", map[string]any{"status": "Completed", "rating": 9}},
		{"blank title", map[string]any{"title": "   "}},
		{"bad due date", map[string]any{"due_date": "01/02/2025"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			body := bookBody("Dune", "Frank Herbert")
			for k, v := range tt.change {
				body[k] = v
			}
			resp := ts.api.Post("/api/v1/books", bearer(token), body)
			assert.Equal(t, http.StatusBadRequest, resp.Code, resp.Body.String())
			assert.Equal(t, "VALIDATION", decode[any](t, resp.Body).Code)
		})
	}
}

func TestGetBook_ScopedToOwner(t *testing.T) {
	ts := setupTestServer(t, testOptions{})
	alice, _ := ts.registerUser(t, "alice@example.com")
	bob, _ := ts.registerUser(t, "bob@example.com")
	id := ts.addBook(t, alice, bookBody("Dune", "Frank Herbert"))

	resp := ts.api.Get("/api/v1/books/"+id, bearer(alice))
	require.Equal(t, http.StatusOK, resp.Code)
	assert.Equal(t, "Dune", decode[BookResponse](t, resp.Body).Data.Title)

	resp = ts.api.Get("/api/v1/books/"+id, bearer(bob))
	assert.Equal(t, http.StatusNotFound, resp.Code)
	assert.Equal(t, "NOT_FOUND", decode[any](t, resp.Body).Code)
}

func TestDeleteBook_MissingSucceeds(t *testing.T) {
	ts := setupTestServer(t, testOptions{})
	token, _ := ts.registerUser(t, "alice@example.com")

	resp := ts.api.Delete("/api/v1/books/BS_US001_999", bearer(token))
	assert.Equal(t, http.StatusOK, resp.Code, resp.Body.String())
}

func TestEditBook(t *testing.T) {
	ts := setupTestServer(t, testOptions{})
	token, _ := ts.registerUser(t, "alice@example.com")
	id := ts.addBook(t, token, bookBody("Dune", "Frank Herbert"))

	resp := ts.api.Patch("/api/v1/books/"+id, bearer(token), map[string]any{
		"status":     "Completed",
		"pages_read": 120,
	})
	assert.Equal(t, http.StatusBadRequest, resp.Code, resp.Body.String())
	assert.Equal(t, "VALIDATION", decode[any](t, resp.Body).Code)

	resp = ts.api.Get("/api/v1/books/"+id, bearer(token))
	require.Equal(t, http.StatusOK, resp.Code)
	unchanged := decode[BookResponse](t, resp.Body).Data
	assert.Equal(t, "To Read", unchanged.Status)
	assert.Equal(t, 0, unchanged.PagesRead)

	resp = ts.api.Patch("/api/v1/books/"+id, bearer(token), map[string]any{
		"status":     "Completed",
		"pages_read": 300,
		"rating":     4,
	})
	require.Equal(t, http.StatusOK, resp.Code, resp.Body.String())
	b := decode[BookResponse](t, resp.Body).Data
	assert.Equal(t, "Completed", b.Status)
	assert.Equal(t, 4, b.Rating)
	assert.InDelta(t, 100.0, b.ProgressPercent, 0.001)

	resp = ts.api.Patch("/api/v1/books/BS_US001_999", bearer(token), map[string]any{"rating": 3})
	assert.Equal(t, http.StatusNotFound, resp.Code)
}

func TestArchiveLifecycle(t *testing.T) {
	ts := setupTestServer(t, testOptions{})
	token, _ := ts.registerUser(t, "alice@example.com")
	id := ts.addBook(t, token, bookBody("Dune", "Frank Herbert"))

	resp := ts.api.Post("/api/v1/books/"+id+"/archive", bearer(token))
	assert.Equal(t, http.StatusConflict, resp.Code, resp.Body.String())
	assert.Equal(t, "CONFLICT", decode[any](t, resp.Body).Code)

	resp = ts.api.Patch("/api/v1/books/"+id, bearer(token), map[string]any{"status": "Completed", "pages_read": 300})
	require.Equal(t, http.StatusOK, resp.Code, resp.Body.String())

	resp = ts.api.Post("/api/v1/books/"+id+"/archive", bearer(token))
	require.Equal(t, http.StatusOK, resp.Code, resp.Body.String())
	archived := decode[BookResponse](t, resp.Body).Data
	assert.True(t, archived.Archived)
	assert.NotNil(t, archived.ArchivedDate)

	resp = ts.api.Get("/api/v1/books", bearer(token))
	require.Equal(t, http.StatusOK, resp.Code)
	assert.Empty(t, decode[BookPageResponse](t, resp.Body).Data.Books)

	resp = ts.api.Get("/api/v1/books/archived", bearer(token))
	require.Equal(t, http.StatusOK, resp.Code)
	assert.Equal(t, 1, decode[BookListResponse](t, resp.Body).Data.Total)

	resp = ts.api.Delete("/api/v1/books/"+id+"/archive", bearer(token))
	require.Equal(t, http.StatusOK, resp.Code, resp.Body.String())
	assert.False(t, decode[BookResponse](t, resp.Body).Data.Archived)

	resp = ts.api.Get("/api/v1/books", bearer(token))
	require.Equal(t, http.StatusOK, resp.Code)
	assert.Len(t, decode[BookPageResponse](t, resp.Body).Data.Books, 1)
}

func TestListBooks_OverdueFirstAndPaged(t *testing.T) {
	ts := setupTestServer(t, testOptions{})
	token, _ := ts.registerUser(t, "alice@example.com")

	ts.addBook(t, token, bookBody("Dune", "Frank Herbert"))
	ts.addBook(t, token, bookBody("Foundation", "Asimov"))
	late := bookBody("Hyperion", "Dan Simmons")
	late["due_date"] = "2001-01-01"
	ts.addBook(t, token, late)

	resp := ts.api.Get("/api/v1/books?limit=2", bearer(token))
	require.Equal(t, http.StatusOK, resp.Code, resp.Body.String())
	first := decode[BookPageResponse](t, resp.Body).Data
	require.Len(t, first.Books, 2)
	assert.Equal(t, "Hyperion", first.Books[0].Title)
	assert.True(t, first.Books[0].Overdue)
	assert.True(t, first.HasMore)
	require.NotEmpty(t, first.NextCursor)

	resp = ts.api.Get("/api/v1/books?limit=2&cursor="+first.NextCursor, bearer(token))
	require.Equal(t, http.StatusOK, resp.Code, resp.Body.String())
	second := decode[BookPageResponse](t, resp.Body).Data
	require.Len(t, second.Books, 1)
	assert.False(t, second.HasMore)

	resp = ts.api.Get("/api/v1/books?cursor=bm90LWEtbnVtYmVy", bearer(token))
	assert.Equal(t, http.StatusBadRequest, resp.Code)
}

func TestListByTag(t *testing.T) {
	ts := setupTestServer(t, testOptions{})
	token, _ := ts.registerUser(t, "alice@example.com")

	tagged := bookBody("Dune", "Frank Herbert")
	tagged["tags"] = []string{"Classic"}
	ts.addBook(t, token, tagged)
	ts.addBook(t, token, bookBody("Foundation", "Asimov"))

	resp := ts.api.Get("/api/v1/books/tags/cLaSsIc", bearer(token))
	require.Equal(t, http.StatusOK, resp.Code, resp.Body.String())
	list := decode[BookListResponse](t, resp.Body).Data
	require.Len(t, list.Books, 1)
	assert.Equal(t, "Dune", list.Books[0].Title)
}

func TestCatalog(t *testing.T) {
	ts := setupTestServer(t, testOptions{})
	token, _ := ts.registerUser(t, "alice@example.com")

	resp := ts.api.Get("/api/v1/catalog", bearer(token))
	require.Equal(t, http.StatusOK, resp.Code, resp.Body.String())

	c := decode[CatalogResponse](t, resp.Body).Data
	assert.Contains(t, c.Genres, "Other")
	assert.Contains(t, c.Genres, "Science Fiction")
	assert.Equal(t, []string{"To Read", "Reading", "Completed"}, c.Statuses)
	assert.Contains(t, c.Comparators, "gte")
}
