package profile

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	platformerrors "github.com/meridianvest/meridian/internal/platform/errors"
	"github.com/meridianvest/meridian/internal/platform/timeouts"
)

// pathMe is the profile collaborator endpoint for the current user.
const pathMe = "/v1/users/me"

// Fetcher retrieves the current user's profile from the profile
// collaborator. The HTTP client is expected to carry the bearer-and-
// retry transport, so a stale access token is refreshed transparently.
type Fetcher struct {
	baseURL    string
	httpClient *http.Client
}

// NewFetcher creates a fetcher against the collaborator at baseURL.
func NewFetcher(baseURL string, httpClient *http.Client) *Fetcher {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: timeouts.ProfileFetch}
	}
	return &Fetcher{baseURL: baseURL, httpClient: httpClient}
}

// Fetch returns the normalized profile for the current user.
func (f *Fetcher) Fetch(ctx context.Context) (UserProfile, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, f.baseURL+pathMe, nil)
	if err != nil {
		return UserProfile{}, fmt.Errorf("build profile request: %w", err)
	}

	resp, err := f.httpClient.Do(req)
	if err != nil {
		return UserProfile{}, platformerrors.Wrap(platformerrors.CodeNetwork, "profile transport failure", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusUnauthorized {
		return UserProfile{}, platformerrors.New(platformerrors.CodeSessionExpired, "profile fetch unauthorized")
	}
	if resp.StatusCode >= 300 {
		return UserProfile{}, platformerrors.New(platformerrors.CodeUnknown, fmt.Sprintf("profile status %d", resp.StatusCode))
	}

	var fetched UserProfile
	if err := json.NewDecoder(resp.Body).Decode(&fetched); err != nil {
		return UserProfile{}, platformerrors.Wrap(platformerrors.CodeUnknown, "profile malformed response", err)
	}
	return fetched, nil
}
