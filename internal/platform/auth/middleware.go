package auth

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/medilink/medilink/internal/platform/db"
	"github.com/medilink/medilink/internal/platform/web"
)

// UserResolver looks up the current identity of a token subject. It must
// return db.ErrNotFound (possibly wrapped) when the user no longer exists.
type UserResolver interface {
	ResolveUser(ctx context.Context, id uuid.UUID) (*CurrentUser, error)
}

// Middleware validates the bearer token and re-fetches the user from the
// store, so deleting an account revokes its tokens immediately. Failure
// modes: missing/malformed/expired token and valid-token-but-deleted-user
// are 401; unexpected store errors are 500 (fail closed).
func Middleware(issuer *TokenIssuer, users UserResolver) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			authHeader := c.Request().Header.Get("Authorization")
			if authHeader == "" {
				return web.Unauthenticated("No token provided")
			}

			parts := strings.SplitN(authHeader, " ", 2)
			if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") {
				return web.Unauthenticated("No token provided")
			}

			claims, err := issuer.Parse(parts[1])
			if err != nil {
				return web.Unauthenticated("Invalid or expired token")
			}
			userID, err := claims.UserID()
			if err != nil {
				return web.Unauthenticated("Invalid or expired token")
			}

			user, err := users.ResolveUser(c.Request().Context(), userID)
			if err != nil {
				if errors.Is(err, db.ErrNotFound) {
					return web.Unauthenticated("User not found")
				}
				return web.Upstream("Authentication error", err)
			}

			c.SetRequest(c.Request().WithContext(WithUser(c.Request().Context(), user)))
			return next(c)
		}
	}
}
