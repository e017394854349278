// Package middleware contains reusable HTTP middleware: session
// authentication, a Redis token bucket and a Redis response cache.
package middleware

import (
	"errors"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/menupress/menupress/internal/session"
)

// SessionAuth returns an Echo middleware that validates an opaque Bearer
// session token against the session manager and injects the resolved
// user into the request context. Handlers behind it can read the full
// user via c.Get("user") and the id via c.Get("user_id").
func SessionAuth(m *session.Manager) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			auth := c.Request().Header.Get("Authorization")
			if !strings.HasPrefix(auth, "Bearer ") {
				return c.JSON(http.StatusUnauthorized, echo.Map{"message": "missing bearer token"})
			}
			token := strings.TrimPrefix(auth, "Bearer ")

			u, err := m.Validate(c.Request().Context(), token)
			switch {
			case err == nil:
			case errors.Is(err, session.ErrSessionExpired):
				return c.JSON(http.StatusUnauthorized, echo.Map{"message": "session expired"})
			case errors.Is(err, session.ErrUserNotFound):
				return c.JSON(http.StatusUnauthorized, echo.Map{"message": "user not found"})
			case errors.Is(err, session.ErrUnauthenticated):
				return c.JSON(http.StatusUnauthorized, echo.Map{"message": "invalid session"})
			default:
				return c.JSON(http.StatusInternalServerError, echo.Map{"message": "failed to validate session"})
			}

			c.Set("user", u)
			c.Set("user_id", u.ID)
			return next(c)
		}
	}
}
