package actor

import (
	"context"

	"fibertrack/models"
)

type actorKey struct{}

// NewContext stores the authenticated user on the request context.
func NewContext(ctx context.Context, u models.User) context.Context {
	return context.WithValue(ctx, actorKey{}, u)
}

// FromContext returns the authenticated user, if any.
func FromContext(ctx context.Context) (models.User, bool) {
	u, ok := ctx.Value(actorKey{}).(models.User)
	return u, ok
}
