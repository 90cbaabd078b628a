package config

import (
	"fmt"
	"strings"
)

// AuthMode represents the credential check used by the API.
type AuthMode string

const (
	// AuthModeScaffold accepts any non-empty token (demo deployments).
	AuthModeScaffold AuthMode = "scaffold"
	// AuthModeStatic accepts only tokens listed in AUTH_TOKENS.
	AuthModeStatic AuthMode = "static"
	// AuthModeRedis accepts tokens whose digest is registered in a Redis set.
	AuthModeRedis AuthMode = "redis"
)

// UnmarshalText implements encoding.TextUnmarshaler for AuthMode.
func (a *AuthMode) UnmarshalText(text []byte) error {
	v := strings.ToLower(strings.TrimSpace(string(text)))
	switch v {
	case "scaffold", "static", "redis":
		*a = AuthMode(v)
		return nil
	default:
		return fmt.Errorf("invalid AuthMode: %q (valid options: scaffold, static, redis)", v)
	}
}

// AuthConfig groups all authentication-related configuration.
type AuthConfig struct {
	// Mode determines which credential check to use.
	Mode AuthMode `env:"AUTH_MODE" envDefault:"scaffold"`

	// Tokens is the allow list used when Mode=static.
	Tokens []string `env:"AUTH_TOKENS" envSeparator:","`

	// TokenSetKey is the Redis set holding token digests when Mode=redis.
	TokenSetKey string `env:"AUTH_TOKEN_SET_KEY" envDefault:"auth:tokens"`
}

// Sanitize drops blank tokens.
func (a *AuthConfig) Sanitize() {
	a.Tokens = trimList(a.Tokens)
	a.TokenSetKey = strings.TrimSpace(a.TokenSetKey)
	if a.TokenSetKey == "" {
		a.TokenSetKey = "auth:tokens"
	}
}
