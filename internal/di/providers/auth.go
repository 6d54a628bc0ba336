package providers

import (
	"github.com/samber/do/v2"

	"github.com/bookmate/bookmate-server/internal/auth"
	"github.com/bookmate/bookmate-server/internal/config"
	"github.com/bookmate/bookmate-server/internal/logger"
)

// AuthKey is the hex-encoded PASETO key.
type AuthKey string

// ProvideAuthKey returns the configured key, or the one persisted in the
// data directory.
func ProvideAuthKey(i do.Injector) (AuthKey, error) {
	cfg := do.MustInvoke[*config.Config](i)
	log := do.MustInvoke[*logger.Logger](i)

	if cfg.Auth.AccessTokenKey != "" {
		return AuthKey(cfg.Auth.AccessTokenKey), nil
	}

	key, err := auth.LoadOrCreateKey(cfg.Data.BasePath)
	if err != nil {
		return "", err
	}
	log.Debug("Token key loaded", "dir", cfg.Data.BasePath)
	return AuthKey(key), nil
}

// ProvideTokenService provides the PASETO token service.
func ProvideTokenService(i do.Injector) (*auth.TokenService, error) {
	cfg := do.MustInvoke[*config.Config](i)
	key := do.MustInvoke[AuthKey](i)

	return auth.NewTokenService(string(key), cfg.Auth.AccessTokenDuration, cfg.Auth.RefreshTokenDuration)
}
