package webgate

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"time"

	"github.com/meridianvest/meridian/internal/auth/identity"
	"github.com/meridianvest/meridian/internal/auth/session"
	"github.com/meridianvest/meridian/internal/onboarding"
	platformerrors "github.com/meridianvest/meridian/internal/platform/errors"
	"github.com/meridianvest/meridian/internal/profile"
)

type handler struct {
	sessions *session.Manager
	profiles ProfileFetcher
}

// sessionView is the JSON shape of GET /auth/session and of successful
// auth responses. ExpiresAt is the access token's expiry hint when the
// token carries one; clients use it to schedule a refresh ahead of the
// first 401.
type sessionView struct {
	Authenticated bool                 `json:"authenticated"`
	Generation    uint64               `json:"generation"`
	ExpiresAt     *time.Time           `json:"expires_at,omitempty"`
	Profile       *profile.UserProfile `json:"profile,omitempty"`
	Onboarding    onboardingView       `json:"onboarding"`
}

type onboardingView struct {
	CurrentStep        onboarding.Step `json:"current_step"`
	NextStep           onboarding.Step `json:"next_step,omitempty"`
	Progress           int             `json:"progress"`
	CanAccessDashboard bool            `json:"can_access_dashboard"`
	CanInvest          bool            `json:"can_invest"`
	CanSubscribe       bool            `json:"can_subscribe"`
}

func (h *handler) login(w http.ResponseWriter, r *http.Request) {
	var creds identity.Credentials
	if err := json.NewDecoder(r.Body).Decode(&creds); err != nil {
		writeError(w, platformerrors.New(platformerrors.CodeValidation, "malformed login payload"))
		return
	}

	if _, err := h.sessions.Login(r.Context(), creds); err != nil {
		writeError(w, err)
		return
	}

	h.refreshProfile(r.Context())
	writeJSON(w, http.StatusOK, h.currentView())
}

func (h *handler) register(w http.ResponseWriter, r *http.Request) {
	var payload identity.Registration
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		writeError(w, platformerrors.New(platformerrors.CodeValidation, "malformed registration payload"))
		return
	}

	if _, err := h.sessions.Register(r.Context(), payload); err != nil {
		writeError(w, err)
		return
	}

	h.refreshProfile(r.Context())
	writeJSON(w, http.StatusCreated, h.currentView())
}

func (h *handler) verifyPhone(w http.ResponseWriter, r *http.Request) {
	var payload struct {
		OTP string `json:"otp"`
	}
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		writeError(w, platformerrors.New(platformerrors.CodeValidation, "malformed verification payload"))
		return
	}

	if _, err := h.sessions.VerifyPhone(r.Context(), payload.OTP); err != nil {
		writeError(w, err)
		return
	}

	h.refreshProfile(r.Context())
	writeJSON(w, http.StatusOK, h.currentView())
}

func (h *handler) logout(w http.ResponseWriter, r *http.Request) {
	h.sessions.Logout(r.Context())
	w.WriteHeader(http.StatusNoContent)
}

func (h *handler) currentSession(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.currentView())
}

// refreshProfile fetches the profile for the session that exists now.
// The generation is captured before the fetch so a result landing after
// a logout or a newer login is discarded instead of adopted.
func (h *handler) refreshProfile(ctx context.Context) {
	generation := h.sessions.Generation()
	fetched, err := h.profiles.Fetch(ctx)
	if err != nil {
		log.Printf("profile fetch: %v", err)
		return
	}
	h.sessions.UpdateProfile(ctx, fetched, generation)
}

func (h *handler) currentView() sessionView {
	snapshot := h.sessions.Current()
	derived := onboarding.Derive(snapshot.Profile)
	var expiresAt *time.Time
	if !snapshot.Session.ExpiresAt.IsZero() {
		expiry := snapshot.Session.ExpiresAt
		expiresAt = &expiry
	}
	return sessionView{
		Authenticated: snapshot.Session.Authenticated(),
		Generation:    snapshot.Generation,
		ExpiresAt:     expiresAt,
		Profile:       snapshot.Profile,
		Onboarding: onboardingView{
			CurrentStep:        derived.CurrentStep,
			NextStep:           derived.NextStep,
			Progress:           derived.Progress.Percentage,
			CanAccessDashboard: derived.CanAccessDashboard,
			CanInvest:          derived.CanInvest,
			CanSubscribe:       derived.CanSubscribe,
		},
	}
}

// errorResponse is the JSON error envelope for every auth endpoint.
type errorResponse struct {
	Error errorDetail `json:"error"`
}

type errorDetail struct {
	Code    platformerrors.Code `json:"code"`
	Message string              `json:"message"`
	Fields  map[string]string   `json:"fields,omitempty"`
}

func writeError(w http.ResponseWriter, err error) {
	code := platformerrors.CodeOf(err)
	detail := errorDetail{Code: code, Message: err.Error()}

	var domainErr *platformerrors.Error
	if errors.As(err, &domainErr) {
		detail.Message = domainErr.Message
		detail.Fields = domainErr.Metadata
	}

	writeJSON(w, code.HTTPStatus(), errorResponse{Error: detail})
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		log.Printf("encode response: %v", err)
	}
}
