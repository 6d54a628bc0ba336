package store

import (
	"context"
	"errors"
	"fmt"
	"iter"

	"github.com/bookmate/bookmate-server/internal/domain"
)

// SaveBook upserts a book keyed by (user_id, book_id).
func (s *Store) SaveBook(ctx context.Context, book *domain.Book) error {
	if err := s.books.Put(ctx, book); err != nil {
		return fmt.Errorf("save book: %w", err)
	}
	return nil
}

// GetBook returns one book, or ErrBookNotFound.
func (s *Store) GetBook(ctx context.Context, userID, bookID string) (*domain.Book, error) {
	b, err := s.books.Get(ctx, userID+":"+bookID)
	if errors.Is(err, ErrNotFound) {
		return nil, ErrBookNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get book: %w", err)
	}
	return b, nil
}

// GetUserBooks returns every book of a user, ordered by book ID.
func (s *Store) GetUserBooks(ctx context.Context, userID string) ([]*domain.Book, error) {
	books, err := Collect(s.books.Scan(ctx, userID+":"))
	if err != nil {
		return nil, fmt.Errorf("get user books: %w", err)
	}
	return books, nil
}

// ListUserBooks returns one page of a user's books.
func (s *Store) ListUserBooks(ctx context.Context, userID string, params PaginationParams) (*PaginatedResult[*domain.Book], error) {
	page, err := s.books.Page(ctx, userID+":", params)
	if err != nil {
		return nil, fmt.Errorf("list user books: %w", err)
	}
	return page, nil
}

// ScanBooks yields every book in the store.
func (s *Store) ScanBooks(ctx context.Context) iter.Seq2[*domain.Book, error] {
	return s.books.Scan(ctx, "")
}

// DeleteBook removes a book. The user's book counter is left alone, so the
// ID is never handed out again.
func (s *Store) DeleteBook(ctx context.Context, userID, bookID string) error {
	if err := s.books.Delete(ctx, userID+":"+bookID); err != nil {
		return fmt.Errorf("delete book: %w", err)
	}
	return nil
}

// UpdateBook applies a partial update and returns the stored result.
func (s *Store) UpdateBook(ctx context.Context, userID, bookID string, update domain.BookUpdate) (*domain.Book, error) {
	b, err := s.books.Update(ctx, userID+":"+bookID, func(b *domain.Book) error {
		update.Apply(b)
		return nil
	})
	if errors.Is(err, ErrNotFound) {
		return nil, ErrBookNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("update book: %w", err)
	}
	return b, nil
}

// BooksByStatus reads the (owner, status) index.
func (s *Store) BooksByStatus(ctx context.Context, userID string, status domain.Status) ([]*domain.Book, error) {
	books, err := s.books.ByIndex(ctx, "owner_status", userID+":"+string(status)+":")
	if err != nil {
		return nil, fmt.Errorf("books by status: %w", err)
	}
	return books, nil
}

// BooksByGenre reads the (owner, genre) index. Free-text genres may contain
// the key separator, so matches are checked against the record.
func (s *Store) BooksByGenre(ctx context.Context, userID, genre string) ([]*domain.Book, error) {
	books, err := s.books.ByIndex(ctx, "owner_genre", userID+":"+genre+":")
	if err != nil {
		return nil, fmt.Errorf("books by genre: %w", err)
	}
	out := books[:0]
	for _, b := range books {
		if b.Genre == genre {
			out = append(out, b)
		}
	}
	return out, nil
}
