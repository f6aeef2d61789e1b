package auth

import (
	"context"
	"fmt"

	svcErr "github.com/oggyb/campus-connect/internal/errors"
)

type identityKey struct{}

// Identity is the authenticated caller attached to a request context.
type Identity struct {
	UserID string
	Email  string
	Token  string
	Claims *Claims
}

// WithIdentity returns a copy of ctx carrying id.
func WithIdentity(ctx context.Context, id Identity) context.Context {
	return context.WithValue(ctx, identityKey{}, id)
}

// FromContext returns the caller identity, if any.
func FromContext(ctx context.Context) (Identity, bool) {
	id, ok := ctx.Value(identityKey{}).(Identity)
	return id, ok && id.UserID != ""
}

// UserID returns the caller identity or ErrUnauthenticated.
func UserID(ctx context.Context) (string, error) {
	id, ok := FromContext(ctx)
	if !ok {
		return "", fmt.Errorf("%w: missing session", svcErr.ErrUnauthenticated)
	}
	return id.UserID, nil
}
