package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/bookmate/bookmate-server/internal/domain"
	"github.com/bookmate/bookmate-server/internal/store"
)

// CreateSession inserts a session.
func (s *Store) CreateSession(ctx context.Context, ss *domain.Session) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO sessions (id, user_id, email, refresh_token_hash, created_at, expires_at)
		VALUES (?, ?, ?, ?, ?, ?)`,
		ss.ID, ss.UserID, ss.Email, ss.RefreshTokenHash, formatTime(ss.CreatedAt), formatTime(ss.ExpiresAt))
	if isUniqueViolation(err) {
		return fmt.Errorf("create session: %w", store.ErrAlreadyExists)
	}
	if err != nil {
		return fmt.Errorf("create session: %w", err)
	}
	return nil
}

// GetSession returns a session, or store.ErrSessionNotFound.
func (s *Store) GetSession(ctx context.Context, id string) (*domain.Session, error) {
	var (
		ss                   domain.Session
		createdAt, expiresAt string
	)
	err := s.db.QueryRowContext(ctx, `
		SELECT id, user_id, email, refresh_token_hash, created_at, expires_at
		FROM sessions WHERE id = ?`, id).
		Scan(&ss.ID, &ss.UserID, &ss.Email, &ss.RefreshTokenHash, &createdAt, &expiresAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, store.ErrSessionNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get session: %w", err)
	}
	if ss.CreatedAt, err = parseTime(createdAt); err != nil {
		return nil, fmt.Errorf("session created_at: %w", err)
	}
	if ss.ExpiresAt, err = parseTime(expiresAt); err != nil {
		return nil, fmt.Errorf("session expires_at: %w", err)
	}
	return &ss, nil
}

// DeleteSession removes a session; missing sessions are ignored.
func (s *Store) DeleteSession(ctx context.Context, id string) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM sessions WHERE id = ?`, id); err != nil {
		return fmt.Errorf("delete session: %w", err)
	}
	return nil
}

// RotateSession swaps the refresh token hash in one conditional UPDATE.
func (s *Store) RotateSession(ctx context.Context, id, oldHash, newHash string) error {
	res, err := s.db.ExecContext(ctx, `
		UPDATE sessions SET refresh_token_hash = ?
		WHERE id = ? AND refresh_token_hash = ?`, newHash, id, oldHash)
	if err != nil {
		return fmt.Errorf("rotate session: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rotate session: %w", err)
	}
	if n == 0 {
		return store.ErrSessionNotFound
	}
	return nil
}
