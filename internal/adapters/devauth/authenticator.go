// Package devauth provides config-driven Authenticators for the scaffold deployment.
package devauth

import (
	"context"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"errors"
	"strings"

	domainauth "github.com/target/genjobs/internal/domain/auth"
	apperrors "github.com/target/genjobs/internal/errors"
	"github.com/target/genjobs/internal/ports"
)

// Ensure compile-time conformance to ports.
var (
	_ ports.Authenticator = (*ScaffoldAuthenticator)(nil)
	_ ports.Authenticator = (*StaticTokenAuthenticator)(nil)
)

// ScaffoldAuthenticator accepts any non-empty token.
type ScaffoldAuthenticator struct{}

// NewScaffoldAuthenticator constructs a ScaffoldAuthenticator.
func NewScaffoldAuthenticator() *ScaffoldAuthenticator { return &ScaffoldAuthenticator{} }

// Authenticate accepts any non-empty token.
func (a *ScaffoldAuthenticator) Authenticate(_ context.Context, token string) (domainauth.Identity, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return domainauth.Identity{}, apperrors.Unauthenticated("missing credentials")
	}
	return domainauth.Identity{UserID: fingerprint(token), Method: domainauth.MethodScaffold}, nil
}

// StaticTokenAuthenticator accepts only tokens from a configured allow list.
type StaticTokenAuthenticator struct {
	tokens [][]byte
}

// NewStaticTokenAuthenticator constructs a StaticTokenAuthenticator. At least one token is required.
func NewStaticTokenAuthenticator(tokens []string) (*StaticTokenAuthenticator, error) {
	a := &StaticTokenAuthenticator{}
	for _, t := range tokens {
		if t = strings.TrimSpace(t); t != "" {
			a.tokens = append(a.tokens, []byte(t))
		}
	}
	if len(a.tokens) == 0 {
		return nil, errors.New("static auth: at least one token is required")
	}
	return a, nil
}

// Authenticate checks token against the allow list in constant time.
func (a *StaticTokenAuthenticator) Authenticate(_ context.Context, token string) (domainauth.Identity, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return domainauth.Identity{}, apperrors.Unauthenticated("missing credentials")
	}
	matched := false
	for _, t := range a.tokens {
		if subtle.ConstantTimeCompare(t, []byte(token)) == 1 {
			matched = true
		}
	}
	if !matched {
		return domainauth.Identity{}, apperrors.Unauthenticated("invalid credentials")
	}
	return domainauth.Identity{UserID: fingerprint(token), Method: domainauth.MethodStatic}, nil
}

// fingerprint derives a stable caller id without keeping the raw token.
func fingerprint(token string) string {
	sum := sha256.Sum256([]byte(token))
	return "tok_" + hex.EncodeToString(sum[:6])
}
