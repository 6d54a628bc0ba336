package service

import (
	"context"
	"crypto/subtle"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/bookmate/bookmate-server/internal/auth"
	"github.com/bookmate/bookmate-server/internal/domain"
	domainerrors "github.com/bookmate/bookmate-server/internal/errors"
	"github.com/bookmate/bookmate-server/internal/id"
	"github.com/bookmate/bookmate-server/internal/store"
)

// AuthService registers readers and manages their sessions.
type AuthService struct {
	store  store.RecordStore
	tokens *auth.TokenService
	logger *slog.Logger
	now    func() time.Time
}

// NewAuthService creates an authentication service.
func NewAuthService(st store.RecordStore, tokens *auth.TokenService, logger *slog.Logger) *AuthService {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &AuthService{store: st, tokens: tokens, logger: logger, now: time.Now}
}

// RegisterRequest is open registration.
type RegisterRequest struct {
	Name     string `json:"name" validate:"required,max=200"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=8,max=1024"`
}

// LoginRequest carries credentials.
type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// AuthResponse is returned by register and login.
type AuthResponse struct {
	User         *domain.User `json:"user"`
	AccessToken  string       `json:"access_token"`
	RefreshToken string       `json:"refresh_token"`
	TokenType    string       `json:"token_type"`
	ExpiresAt    time.Time    `json:"expires_at"`
	SessionID    string       `json:"session_id"`
}

// Register creates a reader and logs them in. The email is trimmed and
// lower-cased before the duplicate check.
func (s *AuthService) Register(ctx context.Context, req RegisterRequest) (*AuthResponse, error) {
	req.Email = domain.NormalizeEmail(req.Email)
	req.Name = strings.TrimSpace(req.Name)
	if err := validateStruct(req); err != nil {
		return nil, err
	}

	existing, err := s.store.LoadUser(ctx, req.Email)
	if err != nil {
		return nil, fmt.Errorf("load user: %w", err)
	}
	if existing != nil {
		return nil, domainerrors.AlreadyExists("an account with this email already exists")
	}

	hash, err := auth.HashPassword(req.Password)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	userID, err := s.store.AllocateUserID(ctx)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		userID = id.FallbackUserID()
		s.logger.Warn("sequential user id allocation failed, using fallback",
			"email", req.Email,
			"user_id", userID,
			"error", err,
		)
	}

	user := &domain.User{
		UserID:       userID,
		Email:        req.Email,
		Name:         req.Name,
		PasswordHash: hash,
		CreatedAt:    s.now().UTC(),
	}
	if err := s.store.SaveUser(ctx, user); err != nil {
		if errors.Is(err, store.ErrAlreadyExists) {
			return nil, domainerrors.AlreadyExists("an account with this email already exists")
		}
		return nil, fmt.Errorf("save user: %w", err)
	}

	s.logger.Info("user registered", "user_id", user.UserID)
	return s.startSession(ctx, user)
}

// Login verifies credentials. Unknown emails and wrong passwords are
// indistinguishable to the caller.
func (s *AuthService) Login(ctx context.Context, req LoginRequest) (*AuthResponse, error) {
	req.Email = domain.NormalizeEmail(req.Email)
	if err := validateStruct(req); err != nil {
		return nil, err
	}

	user, err := s.store.LoadUser(ctx, req.Email)
	if err != nil {
		return nil, fmt.Errorf("load user: %w", err)
	}
	if user == nil || !auth.CheckPassword(user.PasswordHash, req.Password) {
		return nil, domainerrors.InvalidCredentials("invalid email or password")
	}
	return s.startSession(ctx, user)
}

func (s *AuthService) startSession(ctx context.Context, user *domain.User) (*AuthResponse, error) {
	refresh, refreshHash, err := s.tokens.NewRefreshToken()
	if err != nil {
		return nil, err
	}
	sessionID, err := id.Generate("sess")
	if err != nil {
		return nil, fmt.Errorf("session id: %w", err)
	}

	now := s.now().UTC()
	session := &domain.Session{
		ID:               sessionID,
		UserID:           user.UserID,
		Email:            user.Email,
		RefreshTokenHash: refreshHash,
		CreatedAt:        now,
		ExpiresAt:        now.Add(s.tokens.RefreshDuration()),
	}
	if err := s.store.CreateSession(ctx, session); err != nil {
		return nil, fmt.Errorf("save session: %w", err)
	}

	access, exp, err := s.tokens.IssueAccessToken(user, session)
	if err != nil {
		return nil, fmt.Errorf("issue access token: %w", err)
	}

	return &AuthResponse{
		User:         publicUser(user),
		AccessToken:  access,
		RefreshToken: refresh,
		TokenType:    "Bearer",
		ExpiresAt:    exp,
		SessionID:    sessionID,
	}, nil
}

// RefreshRequest trades a refresh token for a new access token.
type RefreshRequest struct {
	SessionID    string `json:"session_id" validate:"required"`
	RefreshToken string `json:"refresh_token" validate:"required"`
}

// Refresh rotates the session's refresh token and issues a new access
// token. The presented token is single use: a second refresh with it fails.
func (s *AuthService) Refresh(ctx context.Context, req RefreshRequest) (*AuthResponse, error) {
	if err := validateStruct(req); err != nil {
		return nil, err
	}
	invalid := domainerrors.Unauthorized("invalid refresh token")

	session, err := s.store.GetSession(ctx, req.SessionID)
	if errors.Is(err, store.ErrNotFound) {
		return nil, invalid
	}
	if err != nil {
		return nil, fmt.Errorf("get session: %w", err)
	}
	presented := auth.HashRefreshToken(req.RefreshToken)
	if subtle.ConstantTimeCompare([]byte(presented), []byte(session.RefreshTokenHash)) != 1 {
		return nil, invalid
	}
	if session.IsExpired(s.now()) {
		return nil, domainerrors.TokenExpired("session has expired")
	}

	user, err := s.sessionUser(ctx, session)
	if err != nil {
		return nil, err
	}

	refresh, refreshHash, err := s.tokens.NewRefreshToken()
	if err != nil {
		return nil, err
	}
	err = s.store.RotateSession(ctx, session.ID, presented, refreshHash)
	if errors.Is(err, store.ErrNotFound) {
		return nil, invalid
	}
	if err != nil {
		return nil, fmt.Errorf("rotate session: %w", err)
	}
	session.RefreshTokenHash = refreshHash

	access, exp, err := s.tokens.IssueAccessToken(user, session)
	if err != nil {
		return nil, fmt.Errorf("issue access token: %w", err)
	}
	s.logger.Debug("session refreshed", "session_id", session.ID, "user_id", user.UserID)

	return &AuthResponse{
		User:         publicUser(user),
		AccessToken:  access,
		RefreshToken: refresh,
		TokenType:    "Bearer",
		ExpiresAt:    exp,
		SessionID:    session.ID,
	}, nil
}

// Logout ends a session. Ending an unknown session is not an error.
func (s *AuthService) Logout(ctx context.Context, sessionID string) error {
	if err := s.store.DeleteSession(ctx, sessionID); err != nil {
		return fmt.Errorf("delete session: %w", err)
	}
	return nil
}

// Principal is the authenticated caller of a request.
type Principal struct {
	User      *domain.User
	SessionID string
}

// Authenticate resolves an access token to its user. The token's session
// must still exist.
func (s *AuthService) Authenticate(ctx context.Context, token string) (*Principal, error) {
	claims, err := s.tokens.VerifyAccessToken(token)
	if err != nil {
		return nil, domainerrors.Wrap(err, domainerrors.CodeUnauthorized, "invalid or expired access token")
	}

	session, err := s.store.GetSession(ctx, claims.SessionID)
	if errors.Is(err, store.ErrNotFound) {
		return nil, domainerrors.Unauthorized("session has ended")
	}
	if err != nil {
		return nil, fmt.Errorf("get session: %w", err)
	}
	if session.IsExpired(s.now()) {
		return nil, domainerrors.TokenExpired("session has expired")
	}
	if session.UserID != claims.UserID {
		return nil, domainerrors.Unauthorized("session does not belong to token")
	}
	user, err := s.sessionUser(ctx, session)
	if err != nil {
		return nil, err
	}
	return &Principal{User: publicUser(user), SessionID: session.ID}, nil
}

// sessionUser loads the session's owner by email, the users table key, and
// checks it is still the account the session was opened for.
func (s *AuthService) sessionUser(ctx context.Context, session *domain.Session) (*domain.User, error) {
	user, err := s.store.LoadUser(ctx, session.Email)
	if err != nil {
		return nil, fmt.Errorf("load user: %w", err)
	}
	if user == nil || user.UserID != session.UserID {
		return nil, domainerrors.Unauthorized("account no longer exists")
	}
	return user, nil
}

// Me returns the caller's profile.
func (s *AuthService) Me(ctx context.Context, userID string) (*domain.User, error) {
	user, err := s.store.GetUserByID(ctx, userID)
	if errors.Is(err, store.ErrNotFound) {
		return nil, domainerrors.NotFound("user not found")
	}
	if err != nil {
		return nil, fmt.Errorf("get user: %w", err)
	}
	return publicUser(user), nil
}

// publicUser strips the password hash.
func publicUser(u *domain.User) *domain.User {
	cp := *u
	cp.PasswordHash = ""
	return &cp
}
