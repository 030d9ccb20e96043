package identity

import (
	"context"

	"go-market/internal/apperr"
)

type contextKey string

const identityKey contextKey = "identity"

func WithContext(ctx context.Context, id Identity) context.Context {
	return context.WithValue(ctx, identityKey, id)
}

func FromContext(ctx context.Context) (Identity, bool) {
	id, ok := ctx.Value(identityKey).(Identity)
	return id, ok && id.UserID != ""
}

// UserID returns the verified caller or ErrUnauthenticated.
func UserID(ctx context.Context) (string, error) {
	id, ok := FromContext(ctx)
	if !ok {
		return "", apperr.ErrUnauthenticated
	}
	return id.UserID, nil
}
