// Package id generates BookMate identifiers: random IDs for sessions and
// tokens, and the sequential user and book IDs shown to readers.
package id

import (
	"fmt"
	"strings"

	"github.com/google/uuid"
	gonanoid "github.com/matoous/go-nanoid/v2"
)

// Generate creates a prefixed random ID using NanoID.
// Format: prefix-nanoid (e.g., "sess-V1StGXR8_Z5jdHi6B-myT").
func Generate(prefix string) (string, error) {
	id, err := gonanoid.New()
	if err != nil {
		return "", fmt.Errorf("generate nanoid: %w", err)
	}
	return prefix + "-" + id, nil
}

// MustGenerate is like Generate but panics if the system has no entropy.
func MustGenerate(prefix string) string {
	id, err := Generate(prefix)
	if err != nil {
		panic(fmt.Sprintf("failed to generate ID: %v", err))
	}
	return id
}

// FallbackUserID returns a random, non-sequential user ID ("U_1a2b3c4d").
// It is only issued when sequential allocation fails, so it deliberately
// does not match the US### pattern and is never considered by NextUserID.
func FallbackUserID() string {
	hex := strings.ReplaceAll(uuid.NewString(), "-", "")
	return "U_" + hex[:8]
}
