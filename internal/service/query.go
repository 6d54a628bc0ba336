package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/bookmate/bookmate-server/internal/domain"
	domainerrors "github.com/bookmate/bookmate-server/internal/errors"
	"github.com/bookmate/bookmate-server/internal/store"
)

// QueryService filters a reader's collection by status, genre or rating.
// Every query is scoped to the caller's own books.
type QueryService struct {
	store  store.BookStore
	logger *slog.Logger
}

// NewQueryService creates a query service.
func NewQueryService(st store.BookStore, logger *slog.Logger) *QueryService {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &QueryService{store: st, logger: logger}
}

// ByStatus returns the caller's books with status.
func (s *QueryService) ByStatus(ctx context.Context, userID, status string) ([]*domain.Book, error) {
	st, ok := domain.ParseStatus(status)
	if !ok {
		return nil, domainerrors.Validationf("invalid status %q: use 'To Read', 'Reading' or 'Completed'", status)
	}
	books, err := s.store.BooksByStatus(ctx, userID, st)
	if err != nil {
		return nil, fmt.Errorf("query by status: %w", err)
	}
	return nonNilBooks(books), nil
}

// ByGenre returns the caller's books whose genre equals genre exactly.
func (s *QueryService) ByGenre(ctx context.Context, userID, genre string) ([]*domain.Book, error) {
	genre = strings.TrimSpace(genre)
	if genre == "" {
		return nil, domainerrors.Validation("genre is required")
	}
	books, err := s.store.BooksByGenre(ctx, userID, genre)
	if err != nil {
		return nil, fmt.Errorf("query by genre: %w", err)
	}
	return nonNilBooks(books), nil
}

// DefaultComparator applies when a rating query names none.
const DefaultComparator = domain.CmpGte

// ByRating returns the caller's rated books satisfying "rating <cmp> value".
// There is no rating index, so this walks the caller's partition page by
// page.
func (s *QueryService) ByRating(ctx context.Context, userID string, value int, cmp string) ([]*domain.Book, error) {
	if value < 1 || value > 5 {
		return nil, domainerrors.Validation("rating value must be between 1 and 5")
	}
	c := DefaultComparator
	if cmp != "" {
		var err error
		if c, err = domain.ParseComparator(cmp); err != nil {
			return nil, domainerrors.Validation(err.Error())
		}
	}

	out := []*domain.Book{}
	pages := store.Batches(ctx, store.DefaultPageSize, func(ctx context.Context, p store.PaginationParams) (*store.PaginatedResult[*domain.Book], error) {
		return s.store.ListUserBooks(ctx, userID, p)
	})
	for batch, err := range pages {
		if err != nil {
			return nil, fmt.Errorf("query by rating: %w", err)
		}
		for _, b := range batch {
			if c.MatchesRating(b, value) {
				out = append(out, b)
			}
		}
	}
	return out, nil
}

func nonNilBooks(books []*domain.Book) []*domain.Book {
	if books == nil {
		return []*domain.Book{}
	}
	return books
}
