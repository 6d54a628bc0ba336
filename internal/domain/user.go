package domain

import (
	"strings"
	"time"
)

// User is a registered reader. Email is the primary key of the users
// collection; UserID is the sequential, human-facing identifier.
type User struct {
	UserID       string    `json:"user_id"`
	Email        string    `json:"email"`
	Name         string    `json:"name"`
	PasswordHash string    `json:"password_hash,omitempty"` // argon2id, never sent to clients
	CreatedAt    time.Time `json:"created_at"`
}

// NormalizeEmail trims and lower-cases an email for use as a lookup key.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// Session is a logged-in device. Logging out deletes it, which invalidates
// every access token issued for it.
type Session struct {
	ID               string    `json:"id"`
	UserID           string    `json:"user_id"`
	Email            string    `json:"email"`
	RefreshTokenHash string    `json:"refresh_token_hash,omitempty"`
	CreatedAt        time.Time `json:"created_at"`
	ExpiresAt        time.Time `json:"expires_at"`
}

// IsExpired reports whether the session has passed its expiry.
func (s *Session) IsExpired(now time.Time) bool {
	return !now.Before(s.ExpiresAt)
}
