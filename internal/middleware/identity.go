package middleware

import "github.com/labstack/echo/v4"

// UserID returns the authenticated user id, or "" for anonymous requests.
func UserID(c echo.Context) string {
	if s, ok := c.Get(CtxUserID).(string); ok {
		return s
	}
	return ""
}

// Role returns the authenticated role, or "".
func Role(c echo.Context) string {
	if s, ok := c.Get(CtxRole).(string); ok {
		return s
	}
	return ""
}

func userOr(c echo.Context, fallback string) string {
	if id := UserID(c); id != "" {
		return id
	}
	return fallback
}
