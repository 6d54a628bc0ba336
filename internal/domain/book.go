package domain

import (
	"errors"
	"slices"
	"strings"
	"time"
)

// Status is a book's reading state.
type Status string

// Reading states.
const (
	StatusToRead    Status = "To Read"
	StatusReading   Status = "Reading"
	StatusCompleted Status = "Completed"
)

// Statuses lists every status in display order.
var Statuses = []Status{StatusToRead, StatusReading, StatusCompleted}

// ParseStatus accepts any casing of a status name ("completed", "To read").
func ParseStatus(s string) (Status, bool) {
	for _, st := range Statuses {
		if strings.EqualFold(strings.TrimSpace(s), string(st)) {
			return st, true
		}
	}
	return "", false
}

// DueDateLayout is the wire and storage format of Book.DueDate.
const DueDateLayout = "2006-01-02"

// Book is one entry in a reader's collection, keyed by (UserID, BookID).
type Book struct {
	UserID       string     `json:"user_id"`
	BookID       string     `json:"book_id"`
	Title        string     `json:"title"`
	Author       string     `json:"author"`
	Genre        string     `json:"genre"`
	Rating       *int       `json:"rating,omitzero"`
	Status       Status     `json:"status"`
	Tags         []string   `json:"tags"`
	Timestamp    time.Time  `json:"timestamp"`
	TotalPages   int        `json:"total_pages"`
	PagesRead    int        `json:"pages_read"`
	Email        string     `json:"email"`
	DueDate      string     `json:"due_date,omitzero"`
	Archived     bool       `json:"archived,omitzero"`
	ArchivedDate *time.Time `json:"archived_date,omitzero"`
}

// RatingValue returns the rating, or 0 when the book is unrated.
func (b *Book) RatingValue() int {
	if b.Rating == nil {
		return 0
	}
	return *b.Rating
}

// IsRated reports whether the book carries a 1-5 rating.
func (b *Book) IsRated() bool {
	return b.RatingValue() > 0
}

// ProgressPercent returns pages read as a percentage of total pages.
func (b *Book) ProgressPercent() float64 {
	if b.TotalPages <= 0 {
		return 0
	}
	return float64(b.PagesRead) / float64(b.TotalPages) * 100
}

// IsOverdue reports whether the due date has passed for an unfinished book.
// Dates are compared by calendar day in today's location; a missing or
// unparseable due date is never overdue.
func (b *Book) IsOverdue(today time.Time) bool {
	if b.Status == StatusCompleted || b.DueDate == "" {
		return false
	}
	due, err := time.ParseInLocation(DueDateLayout, b.DueDate, today.Location())
	if err != nil {
		return false
	}
	y, m, d := today.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, today.Location()).After(due)
}

// SameTitleAuthor reports whether the book has the given title and author,
// ignoring case and surrounding whitespace. No Unicode or punctuation
// normalization is applied.
func (b *Book) SameTitleAuthor(title, author string) bool {
	return foldKey(b.Title) == foldKey(title) && foldKey(b.Author) == foldKey(author)
}

func foldKey(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// Clone returns a deep copy.
func (b *Book) Clone() *Book {
	cp := *b
	if b.Rating != nil {
		r := *b.Rating
		cp.Rating = &r
	}
	if b.ArchivedDate != nil {
		t := *b.ArchivedDate
		cp.ArchivedDate = &t
	}
	cp.Tags = slices.Clone(b.Tags)
	return &cp
}

// SortOverdueFirst orders books with overdue entries first, keeping the
// existing order otherwise.
func SortOverdueFirst(books []*Book, today time.Time) {
	slices.SortStableFunc(books, func(a, b *Book) int {
		ao, bo := a.IsOverdue(today), b.IsOverdue(today)
		switch {
		case ao == bo:
			return 0
		case ao:
			return -1
		default:
			return 1
		}
	})
}

// Progress rule violations.
var (
	ErrCompletedPages = errors.New("for 'Completed' status, pages read must equal total pages")
	ErrReadingPages   = errors.New("for 'Reading' status, pages read must be greater than 0 and less than total pages")
	ErrToReadPages    = errors.New("for 'To Read' status, pages read must be 0")
	ErrPagesRange     = errors.New("pages read must be between 0 and total pages")
	ErrTotalPages     = errors.New("total pages must be at least 1")
)

// ValidateProgress checks that a status agrees with the page counts.
func ValidateProgress(status Status, pagesRead, totalPages int) error {
	if totalPages < 1 {
		return ErrTotalPages
	}
	if pagesRead < 0 || pagesRead > totalPages {
		return ErrPagesRange
	}
	switch status {
	case StatusCompleted:
		if pagesRead != totalPages {
			return ErrCompletedPages
		}
	case StatusReading:
		if pagesRead <= 0 || pagesRead >= totalPages {
			return ErrReadingPages
		}
	case StatusToRead:
		if pagesRead != 0 {
			return ErrToReadPages
		}
	}
	return nil
}
