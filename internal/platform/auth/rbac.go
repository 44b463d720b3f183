package auth

import (
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/medilink/medilink/internal/platform/web"
)

// RequireRole gates a route on the caller's stored role. Membership is
// exact: admin is not implicitly allowed unless listed.
func RequireRole(roles ...Role) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			user := UserFromContext(c.Request().Context())
			if user == nil {
				return web.Unauthenticated("No token provided")
			}
			for _, allowed := range roles {
				if user.Role == allowed {
					return next(c)
				}
			}

			names := make([]string, len(roles))
			for i, r := range roles {
				names[i] = r.String()
			}
			return web.Forbidden("Access denied. Required role: " + strings.Join(names, " or "))
		}
	}
}
