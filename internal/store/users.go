package store

import (
	"context"
	"errors"
	"fmt"
	"iter"

	"github.com/bookmate/bookmate-server/internal/domain"
)

// SaveUser upserts a user keyed by email.
func (s *Store) SaveUser(ctx context.Context, user *domain.User) error {
	if err := s.users.Put(ctx, user); err != nil {
		return fmt.Errorf("save user: %w", err)
	}
	return nil
}

// LoadUser returns the user with email, or (nil, nil).
func (s *Store) LoadUser(ctx context.Context, email string) (*domain.User, error) {
	u, err := s.users.Get(ctx, email)
	if errors.Is(err, ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("load user: %w", err)
	}
	return u, nil
}

// GetUserByID looks a user up through the user_id index.
func (s *Store) GetUserByID(ctx context.Context, userID string) (*domain.User, error) {
	u, err := s.users.GetByIndex(ctx, "user_id", userID)
	if errors.Is(err, ErrNotFound) {
		return nil, ErrUserNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get user %s: %w", userID, err)
	}
	return u, nil
}

// UserIDs yields every user ID in key order.
func (s *Store) UserIDs(ctx context.Context) iter.Seq2[string, error] {
	return s.users.IndexValues(ctx, "user_id")
}
