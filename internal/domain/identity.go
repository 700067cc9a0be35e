package domain

import "context"

type identityKey struct{}

// Identity is the already-authenticated caller. The core never verifies it.
type Identity struct {
	UserID string
	Email  string
	Role   string
}

// ContextWithIdentity returns a context carrying the caller identity.
func ContextWithIdentity(ctx context.Context, id Identity) context.Context {
	return context.WithValue(ctx, identityKey{}, id)
}

// IdentityFromContext extracts the caller identity. ok is false if none was set.
func IdentityFromContext(ctx context.Context) (Identity, bool) {
	id, ok := ctx.Value(identityKey{}).(Identity)
	return id, ok && id.UserID != ""
}
