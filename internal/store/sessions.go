package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/bookmate/bookmate-server/internal/domain"
)

// CreateSession stores a session until its expiry.
func (s *Store) CreateSession(ctx context.Context, session *domain.Session) error {
	if err := s.sessions.Put(ctx, session); err != nil {
		return fmt.Errorf("create session: %w", err)
	}
	return nil
}

// GetSession returns a live session, or ErrSessionNotFound.
func (s *Store) GetSession(ctx context.Context, id string) (*domain.Session, error) {
	ss, err := s.sessions.Get(ctx, id)
	if errors.Is(err, ErrNotFound) {
		return nil, ErrSessionNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get session: %w", err)
	}
	return ss, nil
}

// DeleteSession removes a session. Deleting a missing session is not an error.
func (s *Store) DeleteSession(ctx context.Context, id string) error {
	if err := s.sessions.Delete(ctx, id); err != nil {
		return fmt.Errorf("delete session: %w", err)
	}
	return nil
}

// RotateSession replaces the refresh token hash when oldHash still matches.
func (s *Store) RotateSession(ctx context.Context, id, oldHash, newHash string) error {
	_, err := s.sessions.Update(ctx, id, func(ss *domain.Session) error {
		if ss.RefreshTokenHash != oldHash {
			return ErrSessionNotFound
		}
		ss.RefreshTokenHash = newHash
		return nil
	})
	if errors.Is(err, ErrNotFound) {
		return ErrSessionNotFound
	}
	if err != nil {
		return fmt.Errorf("rotate session: %w", err)
	}
	return nil
}
