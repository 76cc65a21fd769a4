// Package transport provides the authenticated HTTP round tripper.
//
// Outbound requests get the bearer token attached when one exists; a
// 401 response triggers one coordinated refresh and a single replay of
// the original request. Refresh coordination lives in the session
// manager, so any number of concurrent 401s collapse into one refresh.
package transport

import (
	"context"
	"io"
	"net/http"

	"github.com/meridianvest/meridian/internal/auth/session"
)

// SessionSource is the narrow session surface the interceptor needs.
type SessionSource interface {
	AccessToken() string
	Refresh(ctx context.Context) (session.Session, error)
}

// Interceptor is an http.RoundTripper that authenticates requests
// against the current session.
type Interceptor struct {
	sessions SessionSource
	base     http.RoundTripper
}

// New creates an interceptor over base. A nil base falls back to
// http.DefaultTransport.
func New(sessions SessionSource, base http.RoundTripper) *Interceptor {
	if base == nil {
		base = http.DefaultTransport
	}
	return &Interceptor{sessions: sessions, base: base}
}

// Client returns an *http.Client carrying the interceptor.
func (t *Interceptor) Client() *http.Client {
	return &http.Client{Transport: t}
}

// RoundTrip implements http.RoundTripper.
//
// Requests with a caller-set Authorization header pass through
// untouched. Requests without a stored token proceed unauthenticated;
// they are never blocked locally. A request is replayed at most once
// per 401: a second 401 from a refreshed-but-still-invalid token is
// returned to the caller as-is.
func (t *Interceptor) RoundTrip(req *http.Request) (*http.Response, error) {
	if req.Header.Get("Authorization") != "" {
		return t.base.RoundTrip(req)
	}

	accessToken := t.sessions.AccessToken()
	authed := req.Clone(req.Context())
	if accessToken != "" {
		authed.Header.Set("Authorization", "Bearer "+accessToken)
	}

	resp, err := t.base.RoundTrip(authed)
	if err != nil || resp.StatusCode != http.StatusUnauthorized || accessToken == "" {
		return resp, err
	}

	// A body-carrying request without GetBody cannot be replayed.
	if req.Body != nil && req.GetBody == nil {
		return resp, nil
	}

	// Discard the 401 before replaying so the connection can be reused.
	_, _ = io.Copy(io.Discard, resp.Body)
	_ = resp.Body.Close()

	refreshed, refreshErr := t.sessions.Refresh(req.Context())
	if refreshErr != nil {
		return nil, refreshErr
	}

	retry := req.Clone(req.Context())
	if req.GetBody != nil {
		body, bodyErr := req.GetBody()
		if bodyErr != nil {
			return nil, bodyErr
		}
		retry.Body = body
	}
	retry.Header.Set("Authorization", "Bearer "+refreshed.AccessToken)
	return t.base.RoundTrip(retry)
}
