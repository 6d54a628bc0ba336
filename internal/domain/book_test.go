package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func intPtr(v int) *int { return &v }

func TestParseStatus(t *testing.T) {
	tests := []struct {
		in   string
		want Status
		ok   bool
	}{
		{"To Read", StatusToRead, true},
		{"to read", StatusToRead, true},
		{" Reading ", StatusReading, true},
		{"COMPLETED", StatusCompleted, true},
		{"done", "", false},
		{"", "", false},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, ok := ParseStatus(tt.in)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestValidateProgress(t *testing.T) {
	tests := []struct {
		name   string
		status Status
		read   int
		total  int
		want   error
	}{
		{"completed all pages", StatusCompleted, 300, 300, nil},
		{"completed short", StatusCompleted, 299, 300, ErrCompletedPages},
		{"reading middle", StatusReading, 10, 300, nil},
		{"reading zero", StatusReading, 0, 300, ErrReadingPages},
		{"reading all", StatusReading, 300, 300, ErrReadingPages},
		{"to read zero", StatusToRead, 0, 300, nil},
		{"to read started", StatusToRead, 1, 300, ErrToReadPages},
		{"over total", StatusReading, 301, 300, ErrPagesRange},
		{"negative", StatusToRead, -1, 300, ErrPagesRange},
		{"no pages", StatusToRead, 0, 0, ErrTotalPages},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ValidateProgress(tt.status, tt.read, tt.total))
		})
	}
}

func TestBook_Rating(t *testing.T) {
	b := &Book{}
	assert.Equal(t, 0, b.RatingValue())
	assert.False(t, b.IsRated())

	b.Rating = intPtr(4)
	assert.Equal(t, 4, b.RatingValue())
	assert.True(t, b.IsRated())
}

func TestBook_ProgressPercent(t *testing.T) {
	assert.InDelta(t, 50.0, (&Book{PagesRead: 100, TotalPages: 200}).ProgressPercent(), 0.001)
	assert.Zero(t, (&Book{PagesRead: 5}).ProgressPercent())
}

func TestBook_IsOverdue(t *testing.T) {
	today := time.Date(2026, 3, 10, 15, 30, 0, 0, time.UTC)

	tests := []struct {
		name string
		book Book
		want bool
	}{
		{"past due", Book{Status: StatusReading, DueDate: "2026-03-09"}, true},
		{"due today", Book{Status: StatusReading, DueDate: "2026-03-10"}, false},
		{"future", Book{Status: StatusToRead, DueDate: "2026-04-01"}, false},
		{"completed", Book{Status: StatusCompleted, DueDate: "2020-01-01"}, false},
		{"no due date", Book{Status: StatusReading}, false},
		{"garbage", Book{Status: StatusReading, DueDate: "soon"}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.book.IsOverdue(today))
		})
	}
}

func TestBook_SameTitleAuthor(t *testing.T) {
	b := &Book{Title: "Dune", Author: "Frank Herbert"}

	assert.True(t, b.SameTitleAuthor("Dune", "Frank Herbert"))
	assert.True(t, b.SameTitleAuthor("  dune ", "FRANK HERBERT"))
	assert.False(t, b.SameTitleAuthor("Dune Messiah", "Frank Herbert"))
	assert.False(t, b.SameTitleAuthor("Dune", "Brian Herbert"))
	// Punctuation is significant.
	assert.False(t, b.SameTitleAuthor("Dune.", "Frank Herbert"))
}

func TestBook_Clone(t *testing.T) {
	at := time.Now()
	b := &Book{Title: "Dune", Rating: intPtr(5), Tags: []string{"sf"}, ArchivedDate: &at}

	cp := b.Clone()
	*cp.Rating = 1
	cp.Tags[0] = "changed"
	*cp.ArchivedDate = at.Add(time.Hour)

	assert.Equal(t, 5, *b.Rating)
	assert.Equal(t, "sf", b.Tags[0])
	assert.Equal(t, at, *b.ArchivedDate)
}

func TestSortOverdueFirst(t *testing.T) {
	today := time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC)
	books := []*Book{
		{BookID: "a", Status: StatusReading},
		{BookID: "b", Status: StatusReading, DueDate: "2026-03-01"},
		{BookID: "c", Status: StatusToRead},
		{BookID: "d", Status: StatusToRead, DueDate: "2026-02-01"},
	}

	SortOverdueFirst(books, today)

	ids := make([]string, len(books))
	for i, b := range books {
		ids[i] = b.BookID
	}
	assert.Equal(t, []string{"b", "d", "a", "c"}, ids)
}

func TestBookUpdate_Apply(t *testing.T) {
	t.Run("partial", func(t *testing.T) {
		b := &Book{Status: StatusToRead, TotalPages: 300, Rating: intPtr(3)}
		reading := StatusReading
		u := BookUpdate{Status: &reading, PagesRead: intPtr(50)}
		require.False(t, u.IsEmpty())

		u.Apply(b)

		assert.Equal(t, StatusReading, b.Status)
		assert.Equal(t, 50, b.PagesRead)
		assert.Equal(t, 300, b.TotalPages)
		assert.Equal(t, 3, b.RatingValue())
	})

	t.Run("zero rating clears", func(t *testing.T) {
		b := &Book{Rating: intPtr(4)}
		BookUpdate{Rating: intPtr(0)}.Apply(b)
		assert.Nil(t, b.Rating)
	})

	t.Run("archive round trip keeps date", func(t *testing.T) {
		at := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
		b := &Book{Status: StatusCompleted}

		BookUpdate{Archive: ArchiveSet, ArchivedAt: at}.Apply(b)
		assert.True(t, b.Archived)
		require.NotNil(t, b.ArchivedDate)
		assert.Equal(t, at, *b.ArchivedDate)

		BookUpdate{Archive: ArchiveRemove}.Apply(b)
		assert.False(t, b.Archived)
		require.NotNil(t, b.ArchivedDate)
	})

	t.Run("empty", func(t *testing.T) {
		assert.True(t, BookUpdate{}.IsEmpty())
	})
}
