package store

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/dgraph-io/badger/v4"

	"github.com/bookmate/bookmate-server/internal/domain"
)

// Key prefixes.
const (
	userPrefix    = "user:"
	bookPrefix    = "book:"
	sessionPrefix = "session:"
	counterPrefix = "counter:"
)

// Store is the Badger backend.
type Store struct {
	db     *badger.DB
	logger *slog.Logger

	users    *Entity[domain.User]
	books    *Entity[domain.Book]
	sessions *Entity[domain.Session]
}

var _ RecordStore = (*Store)(nil)

// New opens (or creates) a Badger database at path.
func New(path string, logger *slog.Logger) (*Store, error) {
	opts := badger.DefaultOptions(path)
	opts.Logger = nil
	opts.SyncWrites = true
	opts.CompactL0OnClose = true

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("open badger db: %w", err)
	}
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	s := &Store{db: db, logger: logger}
	s.users = NewEntity(db, userPrefix, func(u *domain.User) string { return u.Email }).
		WithUniqueIndex("user_id", func(u *domain.User) []string { return []string{u.UserID} })
	s.books = NewEntity(db, bookPrefix, bookRecordID).
		WithIndex("owner_status", func(b *domain.Book) []string {
			return []string{b.UserID + ":" + string(b.Status) + ":" + b.BookID}
		}).
		WithIndex("owner_genre", func(b *domain.Book) []string {
			return []string{b.UserID + ":" + b.Genre + ":" + b.BookID}
		})
	s.sessions = NewEntity(db, sessionPrefix, func(ss *domain.Session) string { return ss.ID }).
		WithTTL(func(ss *domain.Session) time.Duration { return time.Until(ss.ExpiresAt) })

	logger.Info("badger store opened", "path", path)
	return s, nil
}

// Close flushes and closes the database.
func (s *Store) Close() error {
	s.logger.Info("closing badger store")
	return s.db.Close()
}

func bookRecordID(b *domain.Book) string {
	return b.UserID + ":" + b.BookID
}
