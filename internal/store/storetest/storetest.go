// Package storetest runs the same behavioural checks against every
// store.RecordStore backend.
package storetest

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bookmate/bookmate-server/internal/domain"
	"github.com/bookmate/bookmate-server/internal/store"
)

// Opener returns a fresh, empty store. It registers its own cleanup.
type Opener func(t *testing.T) store.RecordStore

// Run executes the suite.
func Run(t *testing.T, open Opener) {
	t.Run("Users", func(t *testing.T) { testUsers(t, open(t)) })
	t.Run("Books", func(t *testing.T) { testBooks(t, open(t)) })
	t.Run("UpdateBook", func(t *testing.T) { testUpdateBook(t, open(t)) })
	t.Run("Queries", func(t *testing.T) { testQueries(t, open(t)) })
	t.Run("Pagination", func(t *testing.T) { testPagination(t, open(t)) })
	t.Run("Sessions", func(t *testing.T) { testSessions(t, open(t)) })
	t.Run("AllocateUserID", func(t *testing.T) { testAllocateUserID(t, open(t)) })
	t.Run("AllocateUserIDSeeded", func(t *testing.T) { testAllocateUserIDSeeded(t, open(t)) })
	t.Run("AllocateBookID", func(t *testing.T) { testAllocateBookID(t, open(t)) })
	t.Run("AllocateConcurrent", func(t *testing.T) { testAllocateConcurrent(t, open(t)) })
}

// NewBook builds a valid book for tests.
func NewBook(userID, bookID, title string, status domain.Status) *domain.Book {
	b := &domain.Book{
		UserID:     userID,
		BookID:     bookID,
		Title:      title,
		Author:     "Author of " + title,
		Genre:      "Science Fiction",
		Status:     status,
		Tags:       []string{},
		Timestamp:  time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC),
		TotalPages: 100,
		Email:      "owner@example.com",
	}
	switch status {
	case domain.StatusReading:
		b.PagesRead = 50
	case domain.StatusCompleted:
		b.PagesRead = 100
	}
	return b
}

func ids(books []*domain.Book) []string {
	out := make([]string, len(books))
	for i, b := range books {
		out[i] = b.BookID
	}
	return out
}

func testUsers(t *testing.T, s store.RecordStore) {
	ctx := context.Background()

	got, err := s.LoadUser(ctx, "nobody@example.com")
	require.NoError(t, err)
	assert.Nil(t, got)

	_, err = s.GetUserByID(ctx, "US001")
	assert.ErrorIs(t, err, store.ErrUserNotFound)

	alice := &domain.User{
		UserID:       "US001",
		Email:        "alice@example.com",
		Name:         "Alice",
		PasswordHash: "$argon2id$hash",
		CreatedAt:    time.Date(2026, 2, 3, 4, 5, 6, 0, time.UTC),
	}
	require.NoError(t, s.SaveUser(ctx, alice))
	require.NoError(t, s.SaveUser(ctx, &domain.User{UserID: "US002", Email: "bob@example.com", Name: "Bob"}))

	got, err = s.LoadUser(ctx, "alice@example.com")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "US001", got.UserID)
	assert.Equal(t, "Alice", got.Name)
	assert.Equal(t, "$argon2id$hash", got.PasswordHash)
	assert.True(t, alice.CreatedAt.Equal(got.CreatedAt))

	byID, err := s.GetUserByID(ctx, "US002")
	require.NoError(t, err)
	assert.Equal(t, "bob@example.com", byID.Email)

	// Upsert replaces.
	alice.Name = "Alice Liddell"
	require.NoError(t, s.SaveUser(ctx, alice))
	got, err = s.LoadUser(ctx, "alice@example.com")
	require.NoError(t, err)
	assert.Equal(t, "Alice Liddell", got.Name)

	all, err := store.Collect(s.UserIDs(ctx))
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"US001", "US002"}, all)
}

func testBooks(t *testing.T, s store.RecordStore) {
	ctx := context.Background()

	_, err := s.GetBook(ctx, "US001", "BS_US001_001")
	assert.ErrorIs(t, err, store.ErrBookNotFound)

	dune := NewBook("US001", "BS_US001_001", "Dune", domain.StatusReading)
	rating := 5
	dune.Rating = &rating
	dune.Tags = []string{"classic", "space"}
	dune.DueDate = "2026-05-01"
	require.NoError(t, s.SaveBook(ctx, dune))
	require.NoError(t, s.SaveBook(ctx, NewBook("US001", "BS_US001_002", "Foundation", domain.StatusToRead)))
	require.NoError(t, s.SaveBook(ctx, NewBook("US002", "BS_US002_001", "Emma", domain.StatusCompleted)))

	got, err := s.GetBook(ctx, "US001", "BS_US001_001")
	require.NoError(t, err)
	assert.Equal(t, "Dune", got.Title)
	assert.Equal(t, 5, got.RatingValue())
	assert.Equal(t, []string{"classic", "space"}, got.Tags)
	assert.Equal(t, "2026-05-01", got.DueDate)
	assert.Equal(t, 50, got.PagesRead)
	assert.False(t, got.Archived)
	assert.Nil(t, got.ArchivedDate)
	assert.True(t, dune.Timestamp.Equal(got.Timestamp))

	// Partition isolation.
	_, err = s.GetBook(ctx, "US002", "BS_US001_001")
	assert.ErrorIs(t, err, store.ErrBookNotFound)

	mine, err := s.GetUserBooks(ctx, "US001")
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"BS_US001_001", "BS_US001_002"}, ids(mine))

	none, err := s.GetUserBooks(ctx, "US999")
	require.NoError(t, err)
	assert.Empty(t, none)

	all, err := store.Collect(s.ScanBooks(ctx))
	require.NoError(t, err)
	assert.Len(t, all, 3)

	require.NoError(t, s.DeleteBook(ctx, "US001", "BS_US001_002"))
	require.NoError(t, s.DeleteBook(ctx, "US001", "BS_US001_002"), "deleting twice is a no-op")
	_, err = s.GetBook(ctx, "US001", "BS_US001_002")
	assert.ErrorIs(t, err, store.ErrBookNotFound)
}

func testUpdateBook(t *testing.T, s store.RecordStore) {
	ctx := context.Background()

	b := NewBook("US001", "BS_US001_001", "Dune", domain.StatusReading)
	require.NoError(t, s.SaveBook(ctx, b))

	completed := domain.StatusCompleted
	pages := 100
	rating := 4
	updated, err := s.UpdateBook(ctx, "US001", "BS_US001_001", domain.BookUpdate{
		Status:    &completed,
		PagesRead: &pages,
		Rating:    &rating,
	})
	require.NoError(t, err)
	assert.Equal(t, domain.StatusCompleted, updated.Status)
	assert.Equal(t, 100, updated.PagesRead)
	assert.Equal(t, 4, updated.RatingValue())
	assert.Equal(t, "Dune", updated.Title, "untouched attributes survive")

	got, err := s.GetBook(ctx, "US001", "BS_US001_001")
	require.NoError(t, err)
	assert.Equal(t, domain.StatusCompleted, got.Status)

	// The status index follows the update.
	reading, err := s.BooksByStatus(ctx, "US001", domain.StatusReading)
	require.NoError(t, err)
	assert.Empty(t, reading)
	done, err := s.BooksByStatus(ctx, "US001", domain.StatusCompleted)
	require.NoError(t, err)
	assert.Equal(t, []string{"BS_US001_001"}, ids(done))

	at := time.Date(2026, 4, 1, 9, 0, 0, 0, time.UTC)
	updated, err = s.UpdateBook(ctx, "US001", "BS_US001_001", domain.BookUpdate{Archive: domain.ArchiveSet, ArchivedAt: at})
	require.NoError(t, err)
	assert.True(t, updated.Archived)
	require.NotNil(t, updated.ArchivedDate)
	assert.True(t, at.Equal(*updated.ArchivedDate))

	updated, err = s.UpdateBook(ctx, "US001", "BS_US001_001", domain.BookUpdate{Archive: domain.ArchiveRemove})
	require.NoError(t, err)
	assert.False(t, updated.Archived)

	got, err = s.GetBook(ctx, "US001", "BS_US001_001")
	require.NoError(t, err)
	assert.False(t, got.Archived)

	zero := 0
	updated, err = s.UpdateBook(ctx, "US001", "BS_US001_001", domain.BookUpdate{Rating: &zero})
	require.NoError(t, err)
	assert.Nil(t, updated.Rating)

	_, err = s.UpdateBook(ctx, "US001", "BS_US001_404", domain.BookUpdate{Rating: &rating})
	assert.ErrorIs(t, err, store.ErrBookNotFound)
}

func testQueries(t *testing.T, s store.RecordStore) {
	ctx := context.Background()

	mk := func(userID, bookID string, status domain.Status, genre string) {
		b := NewBook(userID, bookID, bookID, status)
		b.Genre = genre
		require.NoError(t, s.SaveBook(ctx, b))
	}
	mk("US001", "BS_US001_001", domain.StatusCompleted, "Fantasy")
	mk("US001", "BS_US001_002", domain.StatusReading, "Fantasy")
	mk("US001", "BS_US001_003", domain.StatusCompleted, "Horror")
	mk("US001", "BS_US001_004", domain.StatusCompleted, "Fantasy: Epic")
	mk("US002", "BS_US002_001", domain.StatusCompleted, "Fantasy")

	completed, err := s.BooksByStatus(ctx, "US001", domain.StatusCompleted)
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"BS_US001_001", "BS_US001_003", "BS_US001_004"}, ids(completed))

	toRead, err := s.BooksByStatus(ctx, "US001", domain.StatusToRead)
	require.NoError(t, err)
	assert.Empty(t, toRead)

	fantasy, err := s.BooksByGenre(ctx, "US001", "Fantasy")
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"BS_US001_001", "BS_US001_002"}, ids(fantasy))

	epic, err := s.BooksByGenre(ctx, "US001", "Fantasy: Epic")
	require.NoError(t, err)
	assert.Equal(t, []string{"BS_US001_004"}, ids(epic))

	// Genre matching is exact.
	lower, err := s.BooksByGenre(ctx, "US001", "fantasy")
	require.NoError(t, err)
	assert.Empty(t, lower)
}

func testPagination(t *testing.T, s store.RecordStore) {
	ctx := context.Background()

	for i := 1; i <= 7; i++ {
		id := fmt.Sprintf("BS_US001_%03d", i)
		require.NoError(t, s.SaveBook(ctx, NewBook("US001", id, id, domain.StatusToRead)))
	}
	require.NoError(t, s.SaveBook(ctx, NewBook("US002", "BS_US002_001", "other", domain.StatusToRead)))

	first, err := s.ListUserBooks(ctx, "US001", store.PaginationParams{Limit: 3})
	require.NoError(t, err)
	assert.Equal(t, []string{"BS_US001_001", "BS_US001_002", "BS_US001_003"}, ids(first.Items))
	assert.True(t, first.HasMore)
	require.NotEmpty(t, first.NextCursor)

	second, err := s.ListUserBooks(ctx, "US001", store.PaginationParams{Limit: 3, Cursor: first.NextCursor})
	require.NoError(t, err)
	assert.Equal(t, []string{"BS_US001_004", "BS_US001_005", "BS_US001_006"}, ids(second.Items))
	assert.True(t, second.HasMore)

	third, err := s.ListUserBooks(ctx, "US001", store.PaginationParams{Limit: 3, Cursor: second.NextCursor})
	require.NoError(t, err)
	assert.Equal(t, []string{"BS_US001_007"}, ids(third.Items))
	assert.False(t, third.HasMore)
	assert.Empty(t, third.NextCursor)

	_, err = s.ListUserBooks(ctx, "US001", store.PaginationParams{Cursor: "!!!"})
	assert.ErrorIs(t, err, store.ErrInvalidCursor)

	fetch := func(ctx context.Context, p store.PaginationParams) (*store.PaginatedResult[*domain.Book], error) {
		return s.ListUserBooks(ctx, "US001", p)
	}
	batches := store.Batches(ctx, 3, fetch)

	// Restartable: ranging twice gives the same batches.
	for range 2 {
		var sizes []int
		total := 0
		for batch, err := range batches {
			require.NoError(t, err)
			sizes = append(sizes, len(batch))
			total += len(batch)
		}
		assert.Equal(t, []int{3, 3, 1}, sizes)
		assert.Equal(t, 7, total)
	}
}

func testSessions(t *testing.T, s store.RecordStore) {
	ctx := context.Background()

	_, err := s.GetSession(ctx, "ses-missing")
	assert.ErrorIs(t, err, store.ErrSessionNotFound)

	now := time.Now().UTC().Truncate(time.Second)
	session := &domain.Session{
		ID:               "ses-1",
		UserID:           "US001",
		Email:            "alice@example.com",
		RefreshTokenHash: "abc",
		CreatedAt:        now,
		ExpiresAt:        now.Add(time.Hour),
	}
	require.NoError(t, s.CreateSession(ctx, session))

	got, err := s.GetSession(ctx, "ses-1")
	require.NoError(t, err)
	assert.Equal(t, "US001", got.UserID)
	assert.True(t, session.ExpiresAt.Equal(got.ExpiresAt))

	require.NoError(t, s.RotateSession(ctx, "ses-1", "abc", "def"))
	got, err = s.GetSession(ctx, "ses-1")
	require.NoError(t, err)
	assert.Equal(t, "def", got.RefreshTokenHash)
	assert.ErrorIs(t, s.RotateSession(ctx, "ses-1", "abc", "ghi"), store.ErrSessionNotFound, "stale hash")
	assert.ErrorIs(t, s.RotateSession(ctx, "ses-missing", "abc", "ghi"), store.ErrSessionNotFound)

	require.NoError(t, s.DeleteSession(ctx, "ses-1"))
	require.NoError(t, s.DeleteSession(ctx, "ses-1"))
	_, err = s.GetSession(ctx, "ses-1")
	assert.ErrorIs(t, err, store.ErrSessionNotFound)
}

func testAllocateUserID(t *testing.T, s store.RecordStore) {
	ctx := context.Background()

	for _, want := range []string{"US001", "US002", "US003"} {
		got, err := s.AllocateUserID(ctx)
		require.NoError(t, err)
		assert.Equal(t, want, got)
	}
}

func testAllocateUserIDSeeded(t *testing.T, s store.RecordStore) {
	ctx := context.Background()

	for i, uid := range []string{"US001", "US002", "US005", "U_deadbeef"} {
		require.NoError(t, s.SaveUser(ctx, &domain.User{UserID: uid, Email: fmt.Sprintf("u%d@example.com", i)}))
	}

	got, err := s.AllocateUserID(ctx)
	require.NoError(t, err)
	assert.Equal(t, "US006", got)
}

func testAllocateBookID(t *testing.T, s store.RecordStore) {
	ctx := context.Background()

	first, err := s.AllocateBookID(ctx, "US001")
	require.NoError(t, err)
	assert.Equal(t, "BS_US001_001", first)
	require.NoError(t, s.SaveBook(ctx, NewBook("US001", first, "Dune", domain.StatusToRead)))

	second, err := s.AllocateBookID(ctx, "US001")
	require.NoError(t, err)
	assert.Equal(t, "BS_US001_002", second)
	require.NoError(t, s.SaveBook(ctx, NewBook("US001", second, "Foundation", domain.StatusToRead)))

	// Counters are per user.
	other, err := s.AllocateBookID(ctx, "US002")
	require.NoError(t, err)
	assert.Equal(t, "BS_US002_001", other)

	// Deleted IDs are not reused.
	require.NoError(t, s.DeleteBook(ctx, "US001", second))
	third, err := s.AllocateBookID(ctx, "US001")
	require.NoError(t, err)
	assert.Equal(t, "BS_US001_003", third)

	// A partition populated without the counter continues its sequence.
	require.NoError(t, s.SaveBook(ctx, NewBook("US003", "BS_US003_004", "a", domain.StatusToRead)))
	require.NoError(t, s.SaveBook(ctx, NewBook("US003", "BS_US003_abc", "b", domain.StatusToRead)))
	seeded, err := s.AllocateBookID(ctx, "US003")
	require.NoError(t, err)
	assert.Equal(t, "BS_US003_005", seeded)
}

func testAllocateConcurrent(t *testing.T, s store.RecordStore) {
	ctx := context.Background()
	const n = 16

	var (
		wg   sync.WaitGroup
		mu   sync.Mutex
		seen = make(map[string]bool)
		errs []error
	)
	for range n {
		wg.Go(func() {
			bookID, err := s.AllocateBookID(ctx, "US001")
			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				errs = append(errs, err)
				return
			}
			seen[bookID] = true
		})
	}
	wg.Wait()

	require.Empty(t, errs)
	assert.Len(t, seen, n, "every allocation is distinct")
	for i := 1; i <= n; i++ {
		assert.True(t, seen[fmt.Sprintf("BS_US001_%03d", i)])
	}
}
