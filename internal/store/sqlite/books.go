package sqlite

import (
	"context"
	"database/sql"
	"encoding/json/v2"
	"errors"
	"fmt"
	"iter"
	"strings"

	"github.com/bookmate/bookmate-server/internal/domain"
	"github.com/bookmate/bookmate-server/internal/store"
)

// bookColumns must match the scan order in scanBook.
const bookColumns = `user_id, book_id, title, author, genre, rating, status, tags,
	timestamp, total_pages, pages_read, email, due_date, archived, archived_date`

func scanBook(sc scanner) (*domain.Book, error) {
	var (
		b            domain.Book
		rating       sql.NullInt64
		status       string
		tags         string
		timestamp    string
		dueDate      sql.NullString
		archived     sql.NullInt64
		archivedDate sql.NullString
	)
	err := sc.Scan(&b.UserID, &b.BookID, &b.Title, &b.Author, &b.Genre, &rating, &status, &tags,
		&timestamp, &b.TotalPages, &b.PagesRead, &b.Email, &dueDate, &archived, &archivedDate)
	if err != nil {
		return nil, err
	}

	b.Status = domain.Status(status)
	if rating.Valid {
		r := int(rating.Int64)
		b.Rating = &r
	}
	if err := json.Unmarshal([]byte(tags), &b.Tags); err != nil {
		return nil, fmt.Errorf("book %s tags: %w", b.BookID, err)
	}
	if b.Timestamp, err = parseTime(timestamp); err != nil {
		return nil, fmt.Errorf("book %s timestamp: %w", b.BookID, err)
	}
	b.DueDate = dueDate.String
	b.Archived = archived.Valid && archived.Int64 != 0
	if archivedDate.Valid {
		t, err := parseTime(archivedDate.String)
		if err != nil {
			return nil, fmt.Errorf("book %s archived_date: %w", b.BookID, err)
		}
		b.ArchivedDate = &t
	}
	return &b, nil
}

func bookArgs(b *domain.Book) ([]any, error) {
	tags := b.Tags
	if tags == nil {
		tags = []string{}
	}
	tagsJSON, err := json.Marshal(tags)
	if err != nil {
		return nil, fmt.Errorf("marshal tags: %w", err)
	}

	var rating sql.NullInt64
	if b.IsRated() {
		rating = sql.NullInt64{Int64: int64(b.RatingValue()), Valid: true}
	}
	var archived sql.NullInt64
	if b.Archived {
		archived = sql.NullInt64{Int64: 1, Valid: true}
	}
	var archivedDate sql.NullString
	if b.ArchivedDate != nil {
		archivedDate = nullString(formatTime(*b.ArchivedDate))
	}

	return []any{
		b.UserID, b.BookID, b.Title, b.Author, b.Genre, rating, string(b.Status), string(tagsJSON),
		formatTime(b.Timestamp), b.TotalPages, b.PagesRead, b.Email, nullString(b.DueDate), archived, archivedDate,
	}, nil
}

// SaveBook upserts a book keyed by (user_id, book_id).
func (s *Store) SaveBook(ctx context.Context, b *domain.Book) error {
	args, err := bookArgs(b)
	if err != nil {
		return fmt.Errorf("save book: %w", err)
	}
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO books (`+bookColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(user_id, book_id) DO UPDATE SET
			title = excluded.title,
			author = excluded.author,
			genre = excluded.genre,
			rating = excluded.rating,
			status = excluded.status,
			tags = excluded.tags,
			timestamp = excluded.timestamp,
			total_pages = excluded.total_pages,
			pages_read = excluded.pages_read,
			email = excluded.email,
			due_date = excluded.due_date,
			archived = excluded.archived,
			archived_date = excluded.archived_date`, args...)
	if err != nil {
		return fmt.Errorf("save book: %w", err)
	}
	return nil
}

// GetBook returns one book, or store.ErrBookNotFound.
func (s *Store) GetBook(ctx context.Context, userID, bookID string) (*domain.Book, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+bookColumns+` FROM books WHERE user_id = ? AND book_id = ?`, userID, bookID)
	b, err := scanBook(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, store.ErrBookNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get book: %w", err)
	}
	return b, nil
}

func (s *Store) queryBooks(ctx context.Context, query string, args ...any) ([]*domain.Book, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*domain.Book
	for rows.Next() {
		b, err := scanBook(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, b)
	}
	return out, rows.Err()
}

// GetUserBooks returns every book of a user, ordered by book ID.
func (s *Store) GetUserBooks(ctx context.Context, userID string) ([]*domain.Book, error) {
	books, err := s.queryBooks(ctx,
		`SELECT `+bookColumns+` FROM books WHERE user_id = ? ORDER BY book_id`, userID)
	if err != nil {
		return nil, fmt.Errorf("get user books: %w", err)
	}
	return books, nil
}

// ListUserBooks returns one page of a user's books. The cursor carries the
// owner and the last book ID of the previous page.
func (s *Store) ListUserBooks(ctx context.Context, userID string, params store.PaginationParams) (*store.PaginatedResult[*domain.Book], error) {
	params.Normalize()

	after, err := store.DecodeCursor(params.Cursor)
	if err != nil {
		return nil, fmt.Errorf("list user books: %w", err)
	}
	if after != "" {
		var ok bool
		if after, ok = strings.CutPrefix(after, userID+"/"); !ok {
			return nil, fmt.Errorf("list user books: %w", store.ErrInvalidCursor)
		}
	}

	books, err := s.queryBooks(ctx, `
		SELECT `+bookColumns+` FROM books
		WHERE user_id = ? AND book_id > ?
		ORDER BY book_id
		LIMIT ?`, userID, after, params.Limit+1)
	if err != nil {
		return nil, fmt.Errorf("list user books: %w", err)
	}

	result := &store.PaginatedResult[*domain.Book]{Items: books}
	if len(books) > params.Limit {
		result.Items = books[:params.Limit]
		result.HasMore = true
		last := result.Items[len(result.Items)-1]
		result.NextCursor = store.EncodeCursor(userID + "/" + last.BookID)
	}
	if result.Items == nil {
		result.Items = []*domain.Book{}
	}
	return result, nil
}

// ScanBooks yields every book in the table.
func (s *Store) ScanBooks(ctx context.Context) iter.Seq2[*domain.Book, error] {
	return func(yield func(*domain.Book, error) bool) {
		rows, err := s.db.QueryContext(ctx, `SELECT `+bookColumns+` FROM books ORDER BY user_id, book_id`)
		if err != nil {
			yield(nil, fmt.Errorf("scan books: %w", err))
			return
		}
		defer rows.Close()

		for rows.Next() {
			b, err := scanBook(rows)
			if err != nil {
				yield(nil, err)
				return
			}
			if !yield(b, nil) {
				return
			}
		}
		if err := rows.Err(); err != nil {
			yield(nil, err)
		}
	}
}

// DeleteBook removes a book. Counters are untouched, so IDs are not reused.
func (s *Store) DeleteBook(ctx context.Context, userID, bookID string) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM books WHERE user_id = ? AND book_id = ?`, userID, bookID); err != nil {
		return fmt.Errorf("delete book: %w", err)
	}
	return nil
}

// UpdateBook applies a partial update in a single statement.
func (s *Store) UpdateBook(ctx context.Context, userID, bookID string, u domain.BookUpdate) (*domain.Book, error) {
	if u.IsEmpty() {
		return s.GetBook(ctx, userID, bookID)
	}

	var (
		sets []string
		args []any
	)
	set := func(col string, v any) {
		sets = append(sets, col+" = ?")
		args = append(args, v)
	}
	if u.Status != nil {
		set("status", string(*u.Status))
	}
	if u.PagesRead != nil {
		set("pages_read", *u.PagesRead)
	}
	if u.TotalPages != nil {
		set("total_pages", *u.TotalPages)
	}
	if u.DueDate != nil {
		set("due_date", nullString(*u.DueDate))
	}
	if u.Rating != nil {
		set("rating", sql.NullInt64{Int64: int64(*u.Rating), Valid: *u.Rating != 0})
	}
	switch u.Archive {
	case domain.ArchiveSet:
		set("archived", 1)
		set("archived_date", formatTime(u.ArchivedAt))
	case domain.ArchiveRemove:
		sets = append(sets, "archived = NULL")
	}
	args = append(args, userID, bookID)

	row := s.db.QueryRowContext(ctx,
		`UPDATE books SET `+strings.Join(sets, ", ")+` WHERE user_id = ? AND book_id = ? RETURNING `+bookColumns,
		args...)
	b, err := scanBook(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, store.ErrBookNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("update book: %w", err)
	}
	return b, nil
}

// BooksByStatus uses the (user_id, status) index.
func (s *Store) BooksByStatus(ctx context.Context, userID string, status domain.Status) ([]*domain.Book, error) {
	books, err := s.queryBooks(ctx,
		`SELECT `+bookColumns+` FROM books WHERE user_id = ? AND status = ? ORDER BY book_id`, userID, string(status))
	if err != nil {
		return nil, fmt.Errorf("books by status: %w", err)
	}
	return books, nil
}

// BooksByGenre uses the (user_id, genre) index.
func (s *Store) BooksByGenre(ctx context.Context, userID, genre string) ([]*domain.Book, error) {
	books, err := s.queryBooks(ctx,
		`SELECT `+bookColumns+` FROM books WHERE user_id = ? AND genre = ? ORDER BY book_id`, userID, genre)
	if err != nil {
		return nil, fmt.Errorf("books by genre: %w", err)
	}
	return books, nil
}
