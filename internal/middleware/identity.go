package middleware

// identity.go exposes the caller identity stored by Gate to handlers and to
// the rate limiter.

import (
	"strconv"

	"github.com/labstack/echo/v4"
)

// UserID returns the authenticated caller's id.  ok is false on routes that
// are not behind Gate.
func UserID(c echo.Context) (uint64, bool) {
	id, ok := c.Get(ctxUserID).(uint64)
	return id, ok && id != 0
}

// IsStaff reports whether the authenticated caller is staff.
func IsStaff(c echo.Context) bool {
	v, _ := c.Get(ctxIsStaff).(bool)
	return v
}

// userKey returns a rate limit key component for the caller, "anon" when no
// valid token was presented.
func userKey(secret string, c echo.Context) (string, bool) {
	if id, ok := UserID(c); ok {
		return strconv.FormatUint(id, 10), true
	}
	p, state := Authenticate(secret, c.Request().Header.Get(echo.HeaderAuthorization))
	if state != StateAuthenticated {
		return "anon", false
	}
	return strconv.FormatUint(p.UserID, 10), true
}
