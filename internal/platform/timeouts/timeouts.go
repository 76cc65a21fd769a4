// Package timeouts defines shared timeout constants used across the
// session core. Centralizing these values prevents drift between the
// identity client, the interceptor, and the gateway server.
package timeouts

import "time"

// IdentityRequest caps the time allowed for a single identity service
// call (login, register, verify, refresh, revoke).
const IdentityRequest = 10 * time.Second

// ProfileFetch caps the time allowed for a profile collaborator call.
const ProfileFetch = 10 * time.Second

// ReadHeader limits how long the gateway waits for request headers.
const ReadHeader = 5 * time.Second

// Shutdown limits how long the gateway waits for in-flight requests
// during graceful shutdown.
const Shutdown = 5 * time.Second
