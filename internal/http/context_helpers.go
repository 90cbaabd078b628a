package httpx

import (
	"context"

	domainauth "github.com/target/genjobs/internal/domain/auth"
)

// identityKey is an unexported context key type to avoid collisions across packages.
type identityKey struct{}

// SetIdentityInContext returns a child context that carries the caller identity.
// A zero identity leaves ctx unchanged.
func SetIdentityInContext(ctx context.Context, id domainauth.Identity) context.Context {
	if id.IsZero() {
		return ctx
	}
	return context.WithValue(ctx, identityKey{}, id)
}

// GetIdentityFromContext returns the caller identity and whether one was set.
func GetIdentityFromContext(ctx context.Context) (domainauth.Identity, bool) {
	id, ok := ctx.Value(identityKey{}).(domainauth.Identity)
	return id, ok && !id.IsZero()
}
