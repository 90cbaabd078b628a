package bootstrap

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/redis/go-redis/v9"

	"github.com/target/genjobs/config"
	"github.com/target/genjobs/internal/adapters/devauth"
	redisadapter "github.com/target/genjobs/internal/adapters/redis"
	"github.com/target/genjobs/internal/ports"
)

// AuthConfig contains configuration for the API authenticator.
type AuthConfig struct {
	Auth        config.AuthConfig
	RedisClient redis.UniversalClient
	Logger      *slog.Logger
}

// BuildAuthenticator creates an authenticator based on the configured auth mode.
//
//nolint:ireturn // callers only need the port; the concrete type depends on the mode.
func BuildAuthenticator(cfg AuthConfig) (ports.Authenticator, error) {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	switch cfg.Auth.Mode {
	case config.AuthModeStatic:
		auth, err := devauth.NewStaticTokenAuthenticator(cfg.Auth.Tokens)
		if err != nil {
			return nil, err
		}
		logger.Info("auth enabled", "mode", cfg.Auth.Mode, "tokens", len(cfg.Auth.Tokens))
		return auth, nil

	case config.AuthModeRedis:
		if cfg.RedisClient == nil {
			return nil, errors.New("redis auth: redis client not configured")
		}
		logger.Info("auth enabled", "mode", cfg.Auth.Mode, "key", cfg.Auth.TokenSetKey)
		return redisadapter.NewTokenAuthenticator(cfg.RedisClient, cfg.Auth.TokenSetKey), nil

	case config.AuthModeScaffold, "":
		logger.Warn("auth running in scaffold mode; any bearer token is accepted")
		return devauth.NewScaffoldAuthenticator(), nil

	default:
		return nil, fmt.Errorf("unsupported auth mode %q", cfg.Auth.Mode)
	}
}
