// Package handler defines the HTTP handlers.
package handler

import (
	"errors"

	"github.com/labstack/echo/v4"

	"github.com/menupress/menupress/internal/model"
)

// dbTimeout bounds every handler-initiated database call.
const dbTimeoutSeconds = 5

// currentUser extracts the authenticated user injected by the session
// middleware. Handlers behind SessionAuth can rely on it being present.
func currentUser(c echo.Context) (model.User, error) {
	u, ok := c.Get("user").(model.User)
	if !ok {
		return model.User{}, errors.New("no authenticated user in context")
	}
	return u, nil
}

// clientIP resolves the request's source address, honoring proxy headers
// the way Echo does.
func clientIP(c echo.Context) string {
	return c.RealIP()
}
