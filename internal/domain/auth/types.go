package auth

// Package auth contains domain-level types for authenticating API callers.
// It is pure and free of framework/adapter concerns.

// Method records how a caller's credential was accepted.
type Method string

const (
	MethodScaffold Method = "scaffold"
	MethodStatic   Method = "static"
)

// Identity represents an authenticated API caller.
// Adapters map their credential into this shape.
type Identity struct {
	UserID string // stable identifier derived from the credential, never the raw token
	Method Method
}

// IsZero reports whether the identity is unset.
func (i Identity) IsZero() bool { return i.UserID == "" }
