// Package service holds BookMate's business rules: registration and
// sessions, the book lifecycle, queries, dashboards, exports, search and
// recommendations.
package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/bookmate/bookmate-server/internal/domain"
	domainerrors "github.com/bookmate/bookmate-server/internal/errors"
	"github.com/bookmate/bookmate-server/internal/store"
)

// BookIndexer keeps a search index in step with book writes.
type BookIndexer interface {
	IndexBook(b *domain.Book) error
	DeleteBook(userID, bookID string) error
}

// BookService owns the book lifecycle.
type BookService struct {
	store   store.RecordStore
	indexer BookIndexer // optional
	logger  *slog.Logger
	now     func() time.Time
}

// NewBookService creates a book service. indexer may be nil.
func NewBookService(st store.RecordStore, indexer BookIndexer, logger *slog.Logger) *BookService {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &BookService{store: st, indexer: indexer, logger: logger, now: time.Now}
}

// AddBookRequest is a new collection entry.
type AddBookRequest struct {
	Title       string   `json:"title" validate:"required,max=500"`
	Author      string   `json:"author" validate:"required,max=500"`
	Genre       string   `json:"genre" validate:"required"`
	CustomGenre string   `json:"custom_genre" validate:"max=100"`
	Status      string   `json:"status" validate:"required,status"`
	Rating      *int     `json:"rating" validate:"omitnil,min=1,max=5"`
	Tags        []string `json:"tags" validate:"max=50"`
	TotalPages  int      `json:"total_pages" validate:"min=0"`
	PagesRead   int      `json:"pages_read" validate:"min=0"`
	DueDate     string   `json:"due_date" validate:"omitempty,isodate"`
}

// AddBook validates and stores a new book for owner. Title and author must
// not match an existing book of the same owner, ignoring case and
// surrounding whitespace.
func (s *BookService) AddBook(ctx context.Context, owner *domain.User, req AddBookRequest) (*domain.Book, error) {
	req.Title = strings.TrimSpace(req.Title)
	req.Author = strings.TrimSpace(req.Author)
	req.CustomGenre = strings.TrimSpace(req.CustomGenre)
	if err := validateStruct(req); err != nil {
		return nil, err
	}

	genre := req.Genre
	switch {
	case !domain.IsGenreOption(genre):
		return nil, domainerrors.Validationf("unknown genre %q", genre)
	case genre == domain.GenreOther:
		if req.CustomGenre == "" {
			return nil, domainerrors.Validation("custom_genre is required when genre is 'Other'")
		}
		genre = req.CustomGenre
	}

	status, _ := domain.ParseStatus(req.Status)
	rating := req.Rating
	if status == domain.StatusToRead {
		rating = nil
	}

	dups, err := s.collect(ctx, owner.UserID, func(b *domain.Book) bool {
		return b.SameTitleAuthor(req.Title, req.Author)
	})
	if err != nil {
		return nil, err
	}
	if len(dups) > 0 {
		return nil, domainerrors.AlreadyExistsf("'%s' by %s is already in your collection", req.Title, req.Author)
	}

	bookID, err := s.store.AllocateBookID(ctx, owner.UserID)
	if err != nil {
		return nil, fmt.Errorf("allocate book id: %w", err)
	}

	book := &domain.Book{
		UserID:     owner.UserID,
		BookID:     bookID,
		Title:      req.Title,
		Author:     req.Author,
		Genre:      genre,
		Rating:     rating,
		Status:     status,
		Tags:       domain.CleanTags(req.Tags),
		Timestamp:  s.now().UTC(),
		TotalPages: req.TotalPages,
		PagesRead:  req.PagesRead,
		Email:      owner.Email,
		DueDate:    req.DueDate,
	}
	if err := s.store.SaveBook(ctx, book); err != nil {
		return nil, fmt.Errorf("save book: %w", err)
	}

	s.logger.Info("book added", "user_id", owner.UserID, "book_id", bookID)
	s.reindex(book)
	return book, nil
}

// GetBook returns one of the caller's books.
func (s *BookService) GetBook(ctx context.Context, userID, bookID string) (*domain.Book, error) {
	b, err := s.store.GetBook(ctx, userID, bookID)
	if err != nil {
		return nil, bookErr(err, bookID)
	}
	return b, nil
}

// ListActive returns one page of the caller's unarchived books, overdue
// books first. The cursor is an offset into that ordering.
func (s *BookService) ListActive(ctx context.Context, userID string, params store.PaginationParams) (*store.PaginatedResult[*domain.Book], error) {
	params.Normalize()

	start := 0
	if params.Cursor != "" {
		raw, err := store.DecodeCursor(params.Cursor)
		if err != nil {
			return nil, domainerrors.Validation("invalid cursor")
		}
		start, err = strconv.Atoi(raw)
		if err != nil || start < 0 {
			return nil, domainerrors.Validation("invalid cursor")
		}
	}

	active, err := s.collect(ctx, userID, func(b *domain.Book) bool { return !b.Archived })
	if err != nil {
		return nil, err
	}
	domain.SortOverdueFirst(active, s.now())

	result := &store.PaginatedResult[*domain.Book]{Items: []*domain.Book{}}
	if start >= len(active) {
		return result, nil
	}
	end := min(start+params.Limit, len(active))
	result.Items = active[start:end]
	if end < len(active) {
		result.HasMore = true
		result.NextCursor = store.EncodeCursor(strconv.Itoa(end))
	}
	return result, nil
}

// ListArchived returns the caller's archived books.
func (s *BookService) ListArchived(ctx context.Context, userID string) ([]*domain.Book, error) {
	return s.collect(ctx, userID, func(b *domain.Book) bool { return b.Archived })
}

// ByTag returns the caller's books carrying tag, ignoring case.
func (s *BookService) ByTag(ctx context.Context, userID, tag string) ([]*domain.Book, error) {
	if strings.TrimSpace(tag) == "" {
		return nil, domainerrors.Validation("tag is required")
	}
	return s.collect(ctx, userID, func(b *domain.Book) bool { return b.HasTag(tag) })
}

// collect walks the caller's books in pages and keeps those matching keep.
func (s *BookService) collect(ctx context.Context, userID string, keep func(*domain.Book) bool) ([]*domain.Book, error) {
	out := []*domain.Book{}
	pages := store.Batches(ctx, store.DefaultPageSize, func(ctx context.Context, p store.PaginationParams) (*store.PaginatedResult[*domain.Book], error) {
		return s.store.ListUserBooks(ctx, userID, p)
	})
	for batch, err := range pages {
		if err != nil {
			return nil, fmt.Errorf("list books: %w", err)
		}
		for _, b := range batch {
			if keep(b) {
				out = append(out, b)
			}
		}
	}
	return out, nil
}

// EditBookRequest changes progress fields. Nil fields keep their value;
// an empty due_date clears it and a zero rating clears the rating.
type EditBookRequest struct {
	Status     *string `json:"status" validate:"omitnil,status"`
	PagesRead  *int    `json:"pages_read" validate:"omitnil,min=0"`
	TotalPages *int    `json:"total_pages" validate:"omitnil,min=1"`
	DueDate    *string `json:"due_date"`
	Rating     *int    `json:"rating" validate:"omitnil,min=0,max=5"`
}

// EditBook applies req. When req changes status or page counts, the
// resulting status and page counts must agree. A rejected edit leaves the
// stored book unchanged.
func (s *BookService) EditBook(ctx context.Context, userID, bookID string, req EditBookRequest) (*domain.Book, error) {
	if err := validateStruct(req); err != nil {
		return nil, err
	}
	if req.DueDate != nil && *req.DueDate != "" {
		if _, err := time.Parse(domain.DueDateLayout, *req.DueDate); err != nil {
			return nil, domainerrors.Validation("due_date must be a date in YYYY-MM-DD format")
		}
	}

	cur, err := s.GetBook(ctx, userID, bookID)
	if err != nil {
		return nil, err
	}

	var upd domain.BookUpdate
	next := cur.Clone()
	if req.Status != nil {
		st, _ := domain.ParseStatus(*req.Status)
		upd.Status = &st
	}
	upd.PagesRead = req.PagesRead
	upd.TotalPages = req.TotalPages
	upd.DueDate = req.DueDate
	upd.Rating = req.Rating
	if upd.IsEmpty() {
		return cur, nil
	}
	upd.Apply(next)

	// Books added without a page count keep total_pages 0, so only edits
	// touching progress are held to the status rules.
	touchesProgress := upd.Status != nil || upd.PagesRead != nil || upd.TotalPages != nil
	if touchesProgress {
		if err := domain.ValidateProgress(next.Status, next.PagesRead, next.TotalPages); err != nil {
			return nil, domainerrors.Validation(err.Error())
		}
	}

	updated, err := s.store.UpdateBook(ctx, userID, bookID, upd)
	if err != nil {
		return nil, bookErr(err, bookID)
	}
	s.logger.Info("book updated", "user_id", userID, "book_id", bookID)
	s.reindex(updated)
	return updated, nil
}

// DeleteBook removes a book. Deleting a missing book succeeds.
func (s *BookService) DeleteBook(ctx context.Context, userID, bookID string) error {
	if err := s.store.DeleteBook(ctx, userID, bookID); err != nil {
		return fmt.Errorf("delete book: %w", err)
	}
	s.logger.Info("book deleted", "user_id", userID, "book_id", bookID)
	if s.indexer != nil {
		if err := s.indexer.DeleteBook(userID, bookID); err != nil {
			s.logger.Warn("remove book from search index", "book_id", bookID, "error", err)
		}
	}
	return nil
}

// Archive hides a completed book from the active list.
func (s *BookService) Archive(ctx context.Context, userID, bookID string) (*domain.Book, error) {
	cur, err := s.GetBook(ctx, userID, bookID)
	if err != nil {
		return nil, err
	}
	if cur.Status != domain.StatusCompleted {
		return nil, domainerrors.Conflict("only completed books can be archived")
	}
	updated, err := s.store.UpdateBook(ctx, userID, bookID, domain.BookUpdate{
		Archive:    domain.ArchiveSet,
		ArchivedAt: s.now().UTC(),
	})
	if err != nil {
		return nil, bookErr(err, bookID)
	}
	s.logger.Info("book archived", "user_id", userID, "book_id", bookID)
	s.reindex(updated)
	return updated, nil
}

// Unarchive returns a book to the active list.
func (s *BookService) Unarchive(ctx context.Context, userID, bookID string) (*domain.Book, error) {
	updated, err := s.store.UpdateBook(ctx, userID, bookID, domain.BookUpdate{Archive: domain.ArchiveRemove})
	if err != nil {
		return nil, bookErr(err, bookID)
	}
	s.logger.Info("book unarchived", "user_id", userID, "book_id", bookID)
	s.reindex(updated)
	return updated, nil
}

func (s *BookService) reindex(b *domain.Book) {
	if s.indexer == nil {
		return
	}
	if err := s.indexer.IndexBook(b); err != nil {
		s.logger.Warn("index book", "book_id", b.BookID, "error", err)
	}
}

func bookErr(err error, bookID string) error {
	if errors.Is(err, store.ErrNotFound) {
		return domainerrors.NotFoundf("book %s not found", bookID)
	}
	return fmt.Errorf("book %s: %w", bookID, err)
}
