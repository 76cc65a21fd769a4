// Package token defines durable persistence for the opaque token pair
// and the cached profile snapshot.
//
// Absence is represented as the empty value, never as an error: a store
// with no tokens returns "" from both getters. Values are never logged.
package token

import "context"

// Store persists the access/refresh token pair and the cached profile.
//
// Implementations must keep the pair atomic: SetTokens writes both or
// neither, and ClearAll removes the pair and the profile together. A
// reader can never observe one token without the other.
type Store interface {
	// SetTokens atomically replaces the token pair.
	SetTokens(ctx context.Context, access, refresh string) error

	// AccessToken returns the stored access token, or "" when absent.
	AccessToken(ctx context.Context) (string, error)

	// RefreshToken returns the stored refresh token, or "" when absent.
	RefreshToken(ctx context.Context) (string, error)

	// SetProfile replaces the cached profile snapshot (canonical JSON).
	SetProfile(ctx context.Context, raw []byte) error

	// Profile returns the cached profile snapshot, or nil when absent.
	Profile(ctx context.Context) ([]byte, error)

	// ClearAll removes tokens and profile together. Idempotent.
	ClearAll(ctx context.Context) error
}
