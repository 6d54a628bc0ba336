package store

import (
	"errors"
	"fmt"
)

// ErrNotFound is matched by every not-found error of this package.
var ErrNotFound = errors.New("not found")

// Store errors.
var (
	ErrUserNotFound    = fmt.Errorf("user %w", ErrNotFound)
	ErrBookNotFound    = fmt.Errorf("book %w", ErrNotFound)
	ErrSessionNotFound = fmt.Errorf("session %w", ErrNotFound)
	ErrAlreadyExists   = errors.New("already exists")
	ErrInvalidCursor   = errors.New("invalid cursor")

	// ErrAllocationContention means a counter could not be incremented
	// within the retry budget.
	ErrAllocationContention = errors.New("identifier allocation contention")
)
