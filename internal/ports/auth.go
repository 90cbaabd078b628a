package ports

// Package ports defines interfaces (hexagonal ports) for auth-related behavior.
// Implementations live in internal/adapters; orchestration in internal/http.

import (
	"context"

	domainauth "github.com/target/genjobs/internal/domain/auth"
)

// Authenticator verifies a caller credential and returns the caller identity.
// Rejected credentials return an unauthenticated AppError.
type Authenticator interface {
	Authenticate(ctx context.Context, token string) (domainauth.Identity, error)
}
