package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"iter"

	"github.com/bookmate/bookmate-server/internal/domain"
	"github.com/bookmate/bookmate-server/internal/store"
)

const userColumns = `email, user_id, name, password_hash, created_at`

func scanUser(sc scanner) (*domain.User, error) {
	var (
		u         domain.User
		createdAt string
	)
	if err := sc.Scan(&u.Email, &u.UserID, &u.Name, &u.PasswordHash, &createdAt); err != nil {
		return nil, err
	}
	var err error
	if u.CreatedAt, err = parseTime(createdAt); err != nil {
		return nil, fmt.Errorf("user %s created_at: %w", u.Email, err)
	}
	return &u, nil
}

// SaveUser upserts a user keyed by email.
func (s *Store) SaveUser(ctx context.Context, u *domain.User) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO users (`+userColumns+`) VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(email) DO UPDATE SET
			user_id = excluded.user_id,
			name = excluded.name,
			password_hash = excluded.password_hash,
			created_at = excluded.created_at`,
		u.Email, u.UserID, u.Name, u.PasswordHash, formatTime(u.CreatedAt))
	if isUniqueViolation(err) {
		return fmt.Errorf("save user: user_id %s: %w", u.UserID, store.ErrAlreadyExists)
	}
	if err != nil {
		return fmt.Errorf("save user: %w", err)
	}
	return nil
}

// LoadUser returns the user with email, or (nil, nil).
func (s *Store) LoadUser(ctx context.Context, email string) (*domain.User, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+userColumns+` FROM users WHERE email = ?`, email)
	u, err := scanUser(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("load user: %w", err)
	}
	return u, nil
}

// GetUserByID looks a user up by the unique user_id column.
func (s *Store) GetUserByID(ctx context.Context, userID string) (*domain.User, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+userColumns+` FROM users WHERE user_id = ?`, userID)
	u, err := scanUser(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, store.ErrUserNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get user %s: %w", userID, err)
	}
	return u, nil
}

// UserIDs yields every user ID.
func (s *Store) UserIDs(ctx context.Context) iter.Seq2[string, error] {
	return func(yield func(string, error) bool) {
		rows, err := s.db.QueryContext(ctx, `SELECT user_id FROM users ORDER BY user_id`)
		if err != nil {
			yield("", fmt.Errorf("list user ids: %w", err))
			return
		}
		defer rows.Close()

		for rows.Next() {
			var id string
			if err := rows.Scan(&id); err != nil {
				yield("", err)
				return
			}
			if !yield(id, nil) {
				return
			}
		}
		if err := rows.Err(); err != nil {
			yield("", err)
		}
	}
}
