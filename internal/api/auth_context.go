package api

import (
	"context"
	"net/http"
	"strings"

	"github.com/danielgtaylor/huma/v2"

	"github.com/bookmate/bookmate-server/internal/domain"
	"github.com/bookmate/bookmate-server/internal/service"
)

// ctxKey is the type for context keys to avoid collisions.
type ctxKey string

const (
	principalKey ctxKey = "principal"
	authErrKey   ctxKey = "authError"
)

// GetPrincipal returns the authenticated caller from context.
// Returns the token's failure if one was presented, 401 otherwise.
func GetPrincipal(ctx context.Context) (*service.Principal, error) {
	if p, ok := ctx.Value(principalKey).(*service.Principal); ok && p != nil {
		return p, nil
	}
	if err, ok := ctx.Value(authErrKey).(error); ok && err != nil {
		return nil, err
	}
	return nil, huma.Error401Unauthorized("Authentication required")
}

// RequireUser returns the authenticated user from context.
func RequireUser(ctx context.Context) (*domain.User, error) {
	p, err := GetPrincipal(ctx)
	if err != nil {
		return nil, err
	}
	return p.User, nil
}

// authMiddleware returns a middleware that validates Bearer tokens and stores
// the principal in context. Requests without a valid token continue
// unauthenticated; handlers use GetPrincipal to reject them.
func authMiddleware(auth *service.AuthService) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token, ok := bearerToken(r.Header.Get("Authorization"))
			if !ok {
				next.ServeHTTP(w, r)
				return
			}

			principal, err := auth.Authenticate(r.Context(), token)
			if err != nil {
				ctx := context.WithValue(r.Context(), authErrKey, err)
				next.ServeHTTP(w, r.WithContext(ctx))
				return
			}

			ctx := context.WithValue(r.Context(), principalKey, principal)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func bearerToken(header string) (string, bool) {
	scheme, token, ok := strings.Cut(header, " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") {
		return "", false
	}
	token = strings.TrimSpace(token)
	return token, token != ""
}
