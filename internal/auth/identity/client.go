// Package identity is the HTTP client for the remote identity service.
//
// The service issues and consumes the opaque token pair. This client
// never interprets token contents; it maps wire failures onto the
// domain error taxonomy and hands raw user payloads upstream for
// normalization.
package identity

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/google/uuid"
	platformerrors "github.com/meridianvest/meridian/internal/platform/errors"
	"github.com/meridianvest/meridian/internal/platform/timeouts"
)

// Route suffixes on the identity service base URL.
const (
	pathLogin       = "/v1/auth/login"
	pathRegister    = "/v1/auth/register"
	pathVerifyPhone = "/v1/auth/verify-phone"
	pathRefresh     = "/v1/auth/refresh"
	pathRevoke      = "/v1/auth/revoke"
)

// deviceIDHeader identifies the client install to the identity service.
const deviceIDHeader = "X-Device-ID"

// Grant is the token grant returned by login, register, verify and
// refresh endpoints. User is the raw (possibly snake_case) profile
// payload; callers normalize it at the ingestion boundary.
type Grant struct {
	AccessToken  string          `json:"access_token"`
	RefreshToken string          `json:"refresh_token"`
	User         json.RawMessage `json:"user"`
}

// Credentials identifies a returning user.
type Credentials struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Registration is the sign-up payload. Field-level rejections come back
// as a VALIDATION error with the server's field messages attached.
type Registration struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	Phone    string `json:"phone"`
	Country  string `json:"country,omitempty"`
}

// errorBody is the error envelope the identity service responds with.
type errorBody struct {
	Error  string            `json:"error"`
	Fields map[string]string `json:"fields"`
}

// Client calls the identity service over HTTP+JSON.
type Client struct {
	baseURL    string
	httpClient *http.Client
	deviceID   string
}

// New creates a client for the identity service at baseURL. A fresh
// device ID is minted per process and sent with every call.
func New(baseURL string, httpClient *http.Client) *Client {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: timeouts.IdentityRequest}
	}
	return &Client{
		baseURL:    baseURL,
		httpClient: httpClient,
		deviceID:   uuid.NewString(),
	}
}

// Login exchanges credentials for a token grant.
func (c *Client) Login(ctx context.Context, creds Credentials) (Grant, error) {
	return c.grantCall(ctx, pathLogin, creds, "", func(status int, body errorBody) error {
		if status == http.StatusUnauthorized {
			return platformerrors.New(platformerrors.CodeInvalidCredentials, "login rejected")
		}
		return nil
	})
}

// Register creates an account and returns its first token grant.
func (c *Client) Register(ctx context.Context, payload Registration) (Grant, error) {
	return c.grantCall(ctx, pathRegister, payload, "", func(status int, body errorBody) error {
		if status == http.StatusBadRequest || status == http.StatusUnprocessableEntity {
			return platformerrors.WithMetadata(platformerrors.CodeValidation, "register rejected", body.Fields)
		}
		return nil
	})
}

// VerifyPhone confirms the phone OTP for the current session.
func (c *Client) VerifyPhone(ctx context.Context, accessToken, otp string) (Grant, error) {
	payload := struct {
		OTP string `json:"otp"`
	}{OTP: otp}
	return c.grantCall(ctx, pathVerifyPhone, payload, accessToken, func(status int, body errorBody) error {
		switch status {
		case http.StatusUnauthorized, http.StatusBadRequest:
			return platformerrors.New(platformerrors.CodeInvalidOTP, "otp rejected")
		case http.StatusGone:
			return platformerrors.New(platformerrors.CodeOTPExpired, "otp expired")
		}
		return nil
	})
}

// Refresh exchanges the refresh token for a new access token. The
// service may rotate the refresh token; when it does not, the returned
// grant carries an empty RefreshToken.
func (c *Client) Refresh(ctx context.Context, refreshToken string) (Grant, error) {
	payload := struct {
		RefreshToken string `json:"refresh_token"`
	}{RefreshToken: refreshToken}
	return c.grantCall(ctx, pathRefresh, payload, "", func(status int, body errorBody) error {
		if status == http.StatusUnauthorized || status == http.StatusForbidden {
			return platformerrors.New(platformerrors.CodeSessionExpired, "refresh rejected")
		}
		return nil
	})
}

// Revoke invalidates the refresh token server-side. Best-effort: the
// caller clears local state regardless of the outcome.
func (c *Client) Revoke(ctx context.Context, refreshToken string) error {
	payload := struct {
		RefreshToken string `json:"refresh_token"`
	}{RefreshToken: refreshToken}
	resp, err := c.post(ctx, pathRevoke, payload, "")
	if err != nil {
		return platformerrors.Wrap(platformerrors.CodeNetwork, "revoke transport failure", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		return platformerrors.New(platformerrors.CodeUnknown, fmt.Sprintf("revoke status %d", resp.StatusCode))
	}
	return nil
}

// grantCall posts payload and decodes a Grant, routing non-2xx statuses
// through the endpoint-specific mapper first.
func (c *Client) grantCall(ctx context.Context, path string, payload any, accessToken string, mapStatus func(int, errorBody) error) (Grant, error) {
	resp, err := c.post(ctx, path, payload, accessToken)
	if err != nil {
		return Grant{}, platformerrors.Wrap(platformerrors.CodeNetwork, path+" transport failure", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		var body errorBody
		_ = json.NewDecoder(io.LimitReader(resp.Body, 1<<16)).Decode(&body)
		if mapped := mapStatus(resp.StatusCode, body); mapped != nil {
			return Grant{}, mapped
		}
		return Grant{}, platformerrors.New(platformerrors.CodeUnknown, fmt.Sprintf("%s status %d", path, resp.StatusCode))
	}

	var grant Grant
	if err := json.NewDecoder(resp.Body).Decode(&grant); err != nil {
		return Grant{}, platformerrors.Wrap(platformerrors.CodeUnknown, path+" malformed response", err)
	}
	return grant, nil
}

func (c *Client) post(ctx context.Context, path string, payload any, accessToken string) (*http.Response, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("encode %s payload: %w", path, err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("build %s request: %w", path, err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set(deviceIDHeader, c.deviceID)
	if accessToken != "" {
		req.Header.Set("Authorization", "Bearer "+accessToken)
	}
	return c.httpClient.Do(req)
}
