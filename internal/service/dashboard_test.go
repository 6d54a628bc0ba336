package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bookmate/bookmate-server/internal/domain"
)

func TestComputeStats(t *testing.T) {
	at := func(m time.Month, d int) time.Time { return time.Date(2025, m, d, 10, 0, 0, 0, time.UTC) }
	books := []*domain.Book{
		{BookID: "b1", Title: "Dune", Genre: "Science Fiction", Status: domain.StatusCompleted, Rating: intPtr(5), Timestamp: at(1, 5)},
		{BookID: "b2", Title: "Emma", Genre: "Romance", Status: domain.StatusCompleted, Rating: intPtr(3), Timestamp: at(1, 20)},
		{BookID: "b3", Title: "It", Genre: "Horror", Status: domain.StatusReading, Rating: intPtr(4), Timestamp: at(2, 2)},
		{BookID: "b4", Title: "Foundation", Genre: "Science Fiction", Status: domain.StatusToRead, Timestamp: at(3, 9)},
	}

	s := ComputeStats(books)

	assert.Equal(t, 4, s.TotalBooks)
	assert.Equal(t, 2, s.CompletedBooks)
	assert.Equal(t, 50.0, s.CompletionPercent)
	require.NotNil(t, s.AverageRating)
	assert.Equal(t, 4.0, *s.AverageRating)
	require.NotNil(t, s.AveragePerMonth)
	assert.Equal(t, 1.33, *s.AveragePerMonth)
	require.NotNil(t, s.LatestBook)
	assert.Equal(t, "Foundation", s.LatestBook.Title)

	var pending []string
	for _, p := range s.Pending {
		pending = append(pending, p.BookID)
	}
	assert.Equal(t, []string{"b3", "b4"}, pending)

	var top []string
	for _, p := range s.TopRated {
		top = append(top, p.BookID)
	}
	assert.Equal(t, []string{"b1", "b3", "b2"}, top)

	assert.Equal(t, []domain.Count{{Key: "Science Fiction", Count: 2}, {Key: "Horror", Count: 1}, {Key: "Romance", Count: 1}}, s.ByGenre)
	assert.Equal(t, []domain.Count{{Key: "Completed", Count: 2}, {Key: "Reading", Count: 1}, {Key: "To Read", Count: 1}}, s.ByStatus)
	assert.Equal(t, []domain.Count{{Key: "2025-01", Count: 2}, {Key: "2025-02", Count: 1}, {Key: "2025-03", Count: 1}}, s.ByMonth)
}

func TestComputeStats_Empty(t *testing.T) {
	s := ComputeStats(nil)

	assert.Zero(t, s.TotalBooks)
	assert.Zero(t, s.CompletionPercent)
	assert.Nil(t, s.AverageRating)
	assert.Nil(t, s.AveragePerMonth)
	assert.Nil(t, s.LatestBook)
	assert.NotNil(t, s.Pending)
	assert.NotNil(t, s.ByMonth)
}

func TestComputeStats_TopRatedCapped(t *testing.T) {
	var books []*domain.Book
	for i := range 8 {
		books = append(books, &domain.Book{
			BookID:    string(rune('a' + i)),
			Status:    domain.StatusCompleted,
			Rating:    intPtr(1 + i%5),
			Timestamp: time.Date(2025, 1, 1+i, 0, 0, 0, 0, time.UTC),
		})
	}
	s := ComputeStats(books)
	require.Len(t, s.TopRated, 5)
	assert.Equal(t, 5, s.TopRated[0].Rating)
}

func TestDashboardService_Stats(t *testing.T) {
	env := setupTest(t)
	alice := env.register(t, "alice@example.com")
	env.add(t, alice, addReq("Dune", "Frank Herbert"))

	s, err := NewDashboardService(env.store, nil).Stats(context.Background(), alice.UserID)
	require.NoError(t, err)
	assert.Equal(t, 1, s.TotalBooks)
	assert.Len(t, s.Pending, 1)
}
