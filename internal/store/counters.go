package store

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"

	"github.com/dgraph-io/badger/v4"

	"github.com/bookmate/bookmate-server/internal/id"
)

// maxAllocAttempts bounds the retries of a conflicting counter increment.
const maxAllocAttempts = 64

// AllocateUserID returns the next US### ID.
func (s *Store) AllocateUserID(ctx context.Context) (string, error) {
	seq, err := s.increment(ctx, []byte(counterPrefix+"users"), func(txn *badger.Txn) (int, error) {
		return id.MaxUserSeq(keySuffixes(txn, []byte(s.users.indexPrefix("user_id")))), nil
	})
	if err != nil {
		return "", fmt.Errorf("allocate user id: %w", err)
	}
	return id.FormatUserID(seq), nil
}

// AllocateBookID returns the next BS_<userID>_### ID for userID.
func (s *Store) AllocateBookID(ctx context.Context, userID string) (string, error) {
	seq, err := s.increment(ctx, []byte(counterPrefix+"book:"+userID), func(txn *badger.Txn) (int, error) {
		return id.MaxBookSeq(keySuffixes(txn, []byte(bookPrefix+userID+":"))), nil
	})
	if err != nil {
		return "", fmt.Errorf("allocate book id: %w", err)
	}
	return id.FormatBookID(userID, seq), nil
}

// increment bumps the counter at key and returns the new value. A missing
// counter is seeded from the existing records. Concurrent increments of the
// same key conflict at commit, and the loser retries.
func (s *Store) increment(ctx context.Context, key []byte, seed func(*badger.Txn) (int, error)) (int, error) {
	for attempt := 1; attempt <= maxAllocAttempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return 0, err
		}

		var next int
		err := s.db.Update(func(txn *badger.Txn) error {
			cur, err := readCounter(txn, key)
			if errors.Is(err, badger.ErrKeyNotFound) {
				cur, err = seed(txn)
			}
			if err != nil {
				return err
			}
			next = cur + 1
			return txn.Set(key, []byte(strconv.Itoa(next)))
		})
		if errors.Is(err, badger.ErrConflict) {
			s.logger.Debug("counter conflict, retrying", slog.String("key", string(key)), slog.Int("attempt", attempt))
			continue
		}
		if err != nil {
			return 0, err
		}
		return next, nil
	}
	return 0, ErrAllocationContention
}

func readCounter(txn *badger.Txn, key []byte) (int, error) {
	raw, err := readString(txn, key)
	if err != nil {
		return 0, err
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("corrupt counter %s: %w", key, err)
	}
	return n, nil
}

// keySuffixes lists the remainder of every key under prefix.
func keySuffixes(txn *badger.Txn, prefix []byte) []string {
	opts := badger.DefaultIteratorOptions
	opts.Prefix = prefix
	opts.PrefetchValues = false
	it := txn.NewIterator(opts)
	defer it.Close()

	var out []string
	for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
		out = append(out, string(it.Item().Key()[len(prefix):]))
	}
	return out
}
