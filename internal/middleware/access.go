package middleware

import (
	"net/http"

	"github.com/labstack/echo/v4"
)

// Requirement names what a route demands of the caller.
type Requirement int

const (
	// ReadOnlyForUsers lets any authenticated user read; writes need staff.
	ReadOnlyForUsers Requirement = iota
	// Authenticated accepts any authenticated user for every method.
	Authenticated
	// Staff requires a staff user for every method.
	Staff
)

// Decision is the result of Authorize.
type Decision int

const (
	Allow Decision = iota
	DenyUnauthenticated
	DenyForbidden
)

// Response bodies written by Gate.
const (
	msgNotAuthenticated = "authentication credentials were not provided"
	msgForbidden        = "you do not have permission to perform this action"
)

// Context keys set by Gate for downstream handlers.
const (
	ctxUserID  = "user_id"
	ctxIsStaff = "is_staff"
)

// Authorize decides whether a caller in state s may perform method on a route
// guarded by req.  Missing credentials always yield DenyUnauthenticated,
// never DenyForbidden.
func Authorize(s AuthState, p Principal, req Requirement, method string) Decision {
	if s != StateAuthenticated {
		return DenyUnauthenticated
	}
	switch req {
	case Authenticated:
		return Allow
	case Staff:
		if p.IsStaff {
			return Allow
		}
		return DenyForbidden
	default: // ReadOnlyForUsers
		if isSafeMethod(method) || p.IsStaff {
			return Allow
		}
		return DenyForbidden
	}
}

func isSafeMethod(method string) bool {
	switch method {
	case http.MethodGet, http.MethodHead, http.MethodOptions:
		return true
	}
	return false
}

// Gate returns an Echo middleware enforcing req.  It runs before the handler
// so request bodies are never read for rejected callers.  On success the
// caller's id and staff flag are stored under "user_id" and "is_staff".
func Gate(secret string, req Requirement) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			p, state := Authenticate(secret, c.Request().Header.Get(echo.HeaderAuthorization))
			switch Authorize(state, p, req, c.Request().Method) {
			case DenyUnauthenticated:
				c.Response().Header().Set(echo.HeaderWWWAuthenticate, `Bearer realm="api"`)
				return c.JSON(http.StatusUnauthorized, echo.Map{"error": msgNotAuthenticated})
			case DenyForbidden:
				return c.JSON(http.StatusForbidden, echo.Map{"error": msgForbidden})
			}
			c.Set(ctxUserID, p.UserID)
			c.Set(ctxIsStaff, p.IsStaff)
			return next(c)
		}
	}
}
