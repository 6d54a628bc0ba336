// Package auth hashes passwords and issues the PASETO tokens that identify
// a logged-in reader.
package auth

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// KeyFileName is the file under the data directory that holds the token key.
const KeyFileName = "token.key"

// LoadOrCreateKey returns the hex-encoded token key stored in dir, creating
// and persisting a fresh random key on first use.
func LoadOrCreateKey(dir string) (string, error) {
	path := filepath.Join(dir, KeyFileName)

	raw, err := os.ReadFile(path) //nolint:gosec // path is under the configured data directory
	switch {
	case err == nil:
		keyHex := strings.TrimSpace(string(raw))
		if _, err := decodeKey(keyHex); err != nil {
			return "", fmt.Errorf("%s: %w", path, err)
		}
		return keyHex, nil
	case !os.IsNotExist(err):
		return "", fmt.Errorf("read token key: %w", err)
	}

	key := make([]byte, symmetricKeySize)
	if _, err := rand.Read(key); err != nil {
		return "", fmt.Errorf("generate token key: %w", err)
	}
	keyHex := hex.EncodeToString(key)

	if err := os.MkdirAll(dir, 0o700); err != nil {
		return "", fmt.Errorf("create key directory: %w", err)
	}
	if err := os.WriteFile(path, []byte(keyHex), 0o600); err != nil {
		return "", fmt.Errorf("write token key: %w", err)
	}
	return keyHex, nil
}

func decodeKey(keyHex string) ([]byte, error) {
	if len(keyHex) != symmetricKeySize*2 {
		return nil, fmt.Errorf("token key must be %d hex characters, got %d", symmetricKeySize*2, len(keyHex))
	}
	key, err := hex.DecodeString(keyHex)
	if err != nil {
		return nil, fmt.Errorf("token key is not valid hex: %w", err)
	}
	return key, nil
}
