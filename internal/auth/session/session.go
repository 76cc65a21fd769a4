// Package session owns the authenticated session lifecycle: login,
// registration, phone verification, refresh, and logout. It is the only
// writer of the token store; every other component reads snapshots and
// subscribes to change notifications.
package session

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Session holds the opaque token pair for the signed-in user.
//
// Invariant: both tokens are present or both are absent. A half-present
// pair loaded from storage is treated as corruption, cleared, and never
// observed by callers.
type Session struct {
	AccessToken  string
	RefreshToken string
	IssuedAt     time.Time

	// ExpiresAt is a best-effort hint read from the access token's
	// unverified exp claim when the opaque token happens to be a JWT.
	// Zero when unknown. Never used for validation; the identity
	// service is the only authority on token validity.
	ExpiresAt time.Time
}

// Authenticated reports whether the session holds a complete token pair.
func (s Session) Authenticated() bool {
	return s.AccessToken != "" && s.RefreshToken != ""
}

// expiryHint extracts the unverified exp claim from an access token.
// Returns zero for opaque non-JWT tokens or tokens without exp.
func expiryHint(accessToken string) time.Time {
	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(accessToken, claims); err != nil {
		return time.Time{}
	}
	exp, err := claims.GetExpirationTime()
	if err != nil || exp == nil {
		return time.Time{}
	}
	return exp.Time
}
