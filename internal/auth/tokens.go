package auth

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"encoding/json/v2"
	"fmt"
	"time"

	"aidanwoods.dev/go-paseto"

	"github.com/bookmate/bookmate-server/internal/domain"
	"github.com/bookmate/bookmate-server/internal/id"
)

const (
	tokenIssuer   = "bookmate-server"
	tokenAudience = "bookmate"

	symmetricKeySize = 32
	refreshTokenSize = 32
)

// Claims are the decrypted contents of an access token.
type Claims struct {
	UserID    string    `json:"user_id"`
	Email     string    `json:"email"`
	SessionID string    `json:"sid"`
	TokenID   string    `json:"jti"`
	IssuedAt  time.Time `json:"iat"`
	ExpiresAt time.Time `json:"exp"`
}

// TokenService issues and verifies v4.local access tokens and opaque
// refresh tokens.
type TokenService struct {
	key             paseto.V4SymmetricKey
	accessDuration  time.Duration
	refreshDuration time.Duration
	now             func() time.Time
}

// NewTokenService builds a TokenService from a 64 character hex key.
func NewTokenService(keyHex string, accessDuration, refreshDuration time.Duration) (*TokenService, error) {
	raw, err := decodeKey(keyHex)
	if err != nil {
		return nil, err
	}
	key, err := paseto.V4SymmetricKeyFromBytes(raw)
	if err != nil {
		return nil, fmt.Errorf("build paseto key: %w", err)
	}
	return &TokenService{
		key:             key,
		accessDuration:  accessDuration,
		refreshDuration: refreshDuration,
		now:             time.Now,
	}, nil
}

// AccessDuration is the lifetime of issued access tokens.
func (s *TokenService) AccessDuration() time.Duration { return s.accessDuration }

// RefreshDuration is the lifetime of a session.
func (s *TokenService) RefreshDuration() time.Duration { return s.refreshDuration }

// IssueAccessToken encrypts an access token for user bound to session.
func (s *TokenService) IssueAccessToken(user *domain.User, session *domain.Session) (string, time.Time, error) {
	now := s.now()
	exp := now.Add(s.accessDuration)

	jti, err := id.Generate("tok")
	if err != nil {
		return "", time.Time{}, fmt.Errorf("token id: %w", err)
	}

	tok := paseto.NewToken()
	tok.SetIssuer(tokenIssuer)
	tok.SetAudience(tokenAudience)
	tok.SetSubject(user.UserID)
	tok.SetIssuedAt(now)
	tok.SetNotBefore(now)
	tok.SetExpiration(exp)
	tok.SetJti(jti)
	tok.SetString("user_id", user.UserID)
	tok.SetString("email", user.Email)
	tok.SetString("sid", session.ID)

	return tok.V4Encrypt(s.key, nil), exp, nil
}

// VerifyAccessToken decrypts token and checks issuer, audience and expiry.
func (s *TokenService) VerifyAccessToken(token string) (*Claims, error) {
	parser := paseto.NewParserWithoutExpiryCheck()
	parser.AddRule(paseto.IssuedBy(tokenIssuer))
	parser.AddRule(paseto.ForAudience(tokenAudience))
	parser.AddRule(paseto.ValidAt(s.now()))

	tok, err := parser.ParseV4Local(s.key, token, nil)
	if err != nil {
		return nil, fmt.Errorf("invalid token: %w", err)
	}

	var c Claims
	if err := json.Unmarshal(tok.ClaimsJSON(), &c); err != nil {
		return nil, fmt.Errorf("decode claims: %w", err)
	}
	if c.UserID == "" || c.SessionID == "" {
		return nil, fmt.Errorf("invalid token: missing subject")
	}
	return &c, nil
}

// NewRefreshToken returns a random opaque token and the hash to store.
func (s *TokenService) NewRefreshToken() (token, hash string, err error) {
	b := make([]byte, refreshTokenSize)
	if _, err := rand.Read(b); err != nil {
		return "", "", fmt.Errorf("refresh token: %w", err)
	}
	token = base64.RawURLEncoding.EncodeToString(b)
	return token, HashRefreshToken(token), nil
}

// HashRefreshToken is the stored form of a refresh token.
func HashRefreshToken(token string) string {
	sum := sha256.Sum256([]byte(token))
	return hex.EncodeToString(sum[:])
}
