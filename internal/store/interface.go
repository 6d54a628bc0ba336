// Package store defines BookMate's persistence interfaces and implements
// them on an embedded Badger database. The sqlite and dynamo subpackages
// provide the other backends.
package store

import (
	"context"
	"iter"

	"github.com/bookmate/bookmate-server/internal/domain"
)

// UserStore persists readers, keyed by normalized email.
type UserStore interface {
	// SaveUser upserts unconditionally. Callers check for an existing email first.
	SaveUser(ctx context.Context, user *domain.User) error
	// LoadUser returns (nil, nil) when no user has the email.
	LoadUser(ctx context.Context, email string) (*domain.User, error)
	GetUserByID(ctx context.Context, userID string) (*domain.User, error)
	UserIDs(ctx context.Context) iter.Seq2[string, error]
}

// BookStore persists books, partitioned by owner.
type BookStore interface {
	SaveBook(ctx context.Context, book *domain.Book) error
	GetBook(ctx context.Context, userID, bookID string) (*domain.Book, error)
	GetUserBooks(ctx context.Context, userID string) ([]*domain.Book, error)
	ListUserBooks(ctx context.Context, userID string, params PaginationParams) (*PaginatedResult[*domain.Book], error)
	ScanBooks(ctx context.Context) iter.Seq2[*domain.Book, error]
	// DeleteBook is a no-op when the book does not exist.
	DeleteBook(ctx context.Context, userID, bookID string) error
	UpdateBook(ctx context.Context, userID, bookID string, update domain.BookUpdate) (*domain.Book, error)

	BooksByStatus(ctx context.Context, userID string, status domain.Status) ([]*domain.Book, error)
	BooksByGenre(ctx context.Context, userID, genre string) ([]*domain.Book, error)
}

// SessionStore persists login sessions.
type SessionStore interface {
	CreateSession(ctx context.Context, session *domain.Session) error
	GetSession(ctx context.Context, id string) (*domain.Session, error)
	// RotateSession swaps the refresh token hash of a session from oldHash
	// to newHash. A missing session or a stale oldHash gives
	// ErrSessionNotFound, so a refresh token is accepted at most once.
	RotateSession(ctx context.Context, id, oldHash, newHash string) error
	DeleteSession(ctx context.Context, id string) error
}

// IDAllocator hands out sequential identifiers. Each call returns a value
// no other call has returned, even under concurrency and after deletes.
type IDAllocator interface {
	AllocateUserID(ctx context.Context) (string, error)
	AllocateBookID(ctx context.Context, userID string) (string, error)
}

// RecordStore is everything a backend provides.
type RecordStore interface {
	UserStore
	BookStore
	SessionStore
	IDAllocator
	Close() error
}
