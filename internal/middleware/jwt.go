package middleware // middleware holds the reusable HTTP middleware of the API

import (
	"strings" // string utilities for prefix checking and trimming

	"github.com/iliyamo/cinema-catalog/internal/utils"
)

// AuthState is the outcome of reading the request credentials.
type AuthState int

const (
	// StateAnonymous means no usable credentials: the header was absent, not
	// a Bearer token, or the token failed verification.
	StateAnonymous AuthState = iota
	// StateAuthenticated means a valid access token was presented.
	StateAuthenticated
)

func (s AuthState) String() string {
	if s == StateAuthenticated {
		return "authenticated"
	}
	return "anonymous"
}

// Principal is the caller identified by an access token.
type Principal struct {
	UserID  uint64
	IsStaff bool
}

// Authenticate verifies the Authorization header against secret.  It never
// touches the store; the staff flag comes from the token claims.
func Authenticate(secret, authorization string) (Principal, AuthState) {
	// A valid header starts with "Bearer " followed by the JWT.
	if !strings.HasPrefix(authorization, "Bearer ") {
		return Principal{}, StateAnonymous
	}
	raw := strings.TrimSpace(strings.TrimPrefix(authorization, "Bearer "))
	if raw == "" {
		return Principal{}, StateAnonymous
	}
	claims, err := utils.ParseAccessToken(secret, raw)
	if err != nil {
		return Principal{}, StateAnonymous
	}
	return Principal{UserID: claims.UserID, IsStaff: claims.IsStaff}, StateAuthenticated
}
