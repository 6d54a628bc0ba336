package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/bookmate/bookmate-server/internal/id"
)

const usersCounter = "users"

func bookCounter(userID string) string { return "book:" + userID }

// AllocateUserID returns the next US### ID.
func (s *Store) AllocateUserID(ctx context.Context) (string, error) {
	seq, err := s.increment(ctx, usersCounter, func() (int, error) {
		ids, err := s.column(ctx, `SELECT user_id FROM users`)
		return id.MaxUserSeq(ids), err
	})
	if err != nil {
		return "", fmt.Errorf("allocate user id: %w", err)
	}
	return id.FormatUserID(seq), nil
}

// AllocateBookID returns the next BS_<userID>_### ID for userID.
func (s *Store) AllocateBookID(ctx context.Context, userID string) (string, error) {
	seq, err := s.increment(ctx, bookCounter(userID), func() (int, error) {
		ids, err := s.column(ctx, `SELECT book_id FROM books WHERE user_id = ?`, userID)
		return id.MaxBookSeq(ids), err
	})
	if err != nil {
		return "", fmt.Errorf("allocate book id: %w", err)
	}
	return id.FormatBookID(userID, seq), nil
}

// increment bumps an existing counter in place. A missing counter is
// created at seed+1; if another writer created it first, the upsert
// increments theirs instead, so both callers still get distinct values.
func (s *Store) increment(ctx context.Context, name string, seed func() (int, error)) (int, error) {
	var seq int
	err := s.db.QueryRowContext(ctx,
		`UPDATE counters SET seq = seq + 1 WHERE name = ? RETURNING seq`, name).Scan(&seq)
	if err == nil {
		return seq, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return 0, err
	}

	start, err := seed()
	if err != nil {
		return 0, fmt.Errorf("seed counter %s: %w", name, err)
	}
	s.logger.Debug("seeding counter", "name", name, "start", start)
	err = s.db.QueryRowContext(ctx, `
		INSERT INTO counters (name, seq) VALUES (?, ?)
		ON CONFLICT(name) DO UPDATE SET seq = counters.seq + 1
		RETURNING seq`, name, start+1).Scan(&seq)
	if err != nil {
		return 0, err
	}
	return seq, nil
}

func (s *Store) column(ctx context.Context, query string, args ...any) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []string
	for rows.Next() {
		var v string
		if err := rows.Scan(&v); err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, rows.Err()
}
