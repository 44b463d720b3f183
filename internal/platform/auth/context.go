package auth

import (
	"context"

	"github.com/google/uuid"
)

type contextKey string

const userKey contextKey = "current_user"

// CurrentUser is the authenticated identity attached to a request. It comes
// from the user store, not from token claims, so a role change or deletion
// takes effect on the next request.
type CurrentUser struct {
	ID    uuid.UUID `json:"id"`
	Name  string    `json:"name"`
	Email string    `json:"email"`
	Role  Role      `json:"role"`
}

// WithUser attaches the authenticated user to the context.
func WithUser(ctx context.Context, u *CurrentUser) context.Context {
	return context.WithValue(ctx, userKey, u)
}

// UserFromContext returns the authenticated user, or nil when the request
// did not pass the auth middleware.
func UserFromContext(ctx context.Context) *CurrentUser {
	u, _ := ctx.Value(userKey).(*CurrentUser)
	return u
}
