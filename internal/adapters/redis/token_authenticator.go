package redis

// Package redis provides Redis-based adapters for the genjobs service.

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strings"

	"github.com/redis/go-redis/v9"

	domainauth "github.com/target/genjobs/internal/domain/auth"
	apperrors "github.com/target/genjobs/internal/errors"
	"github.com/target/genjobs/internal/ports"
)

// DefaultTokenSetKey is the Redis set holding accepted token digests.
const DefaultTokenSetKey = "auth:tokens"

// MethodRedis marks identities accepted by TokenAuthenticator.
const MethodRedis domainauth.Method = "redis"

// TokenAuthenticator accepts tokens whose SHA-256 digest is a member of a Redis set,
// so credentials can be issued and revoked by whichever service mints them.
type TokenAuthenticator struct {
	client redis.UniversalClient
	key    string
}

var _ ports.Authenticator = (*TokenAuthenticator)(nil)

// NewTokenAuthenticator creates a Redis-backed authenticator. An empty key falls back to DefaultTokenSetKey.
func NewTokenAuthenticator(client redis.UniversalClient, key string) *TokenAuthenticator {
	if key == "" {
		key = DefaultTokenSetKey
	}
	return &TokenAuthenticator{client: client, key: key}
}

// Register adds token to the accepted set.
func (a *TokenAuthenticator) Register(ctx context.Context, token string) error {
	token = strings.TrimSpace(token)
	if token == "" {
		return apperrors.ValidationField("token", "token cannot be empty")
	}
	if err := a.client.SAdd(ctx, a.key, Digest(token)).Err(); err != nil {
		return fmt.Errorf("redis sadd %s: %w", a.key, err)
	}
	return nil
}

// Revoke removes token from the accepted set.
func (a *TokenAuthenticator) Revoke(ctx context.Context, token string) error {
	if err := a.client.SRem(ctx, a.key, Digest(strings.TrimSpace(token))).Err(); err != nil {
		return fmt.Errorf("redis srem %s: %w", a.key, err)
	}
	return nil
}

// Authenticate checks token membership. Redis failures are reported as unavailable, not as rejection.
func (a *TokenAuthenticator) Authenticate(ctx context.Context, token string) (domainauth.Identity, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return domainauth.Identity{}, apperrors.Unauthenticated("missing credentials")
	}

	digest := Digest(token)
	ok, err := a.client.SIsMember(ctx, a.key, digest).Result()
	if err != nil {
		return domainauth.Identity{}, apperrors.Wrap(err, apperrors.ErrCodeUnavailable, "token lookup failed")
	}
	if !ok {
		return domainauth.Identity{}, apperrors.Unauthenticated("invalid credentials")
	}
	return domainauth.Identity{UserID: "tok_" + digest[:12], Method: MethodRedis}, nil
}

// Digest returns the hex SHA-256 of token as stored in the set.
func Digest(token string) string {
	sum := sha256.Sum256([]byte(token))
	return hex.EncodeToString(sum[:])
}
