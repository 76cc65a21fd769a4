package guard

import (
	"encoding/json"
	"net/http"

	"github.com/meridianvest/meridian/internal/auth/session"
	"github.com/meridianvest/meridian/internal/platform/requestctx"
)

// SessionReader is the narrow session surface the middleware needs.
type SessionReader interface {
	Current() session.Snapshot
}

// Middleware adapts guard decisions to HTTP.
type Middleware struct {
	sessions SessionReader
}

// NewMiddleware creates guard middleware over a session reader.
func NewMiddleware(sessions SessionReader) *Middleware {
	return &Middleware{sessions: sessions}
}

// Protect wraps next with a per-navigation guard decision:
// loading renders a retryable spinner response, redirects become 303s,
// interstitials render as informational pages, and allowed requests
// proceed with identity and gates in context.
func (m *Middleware) Protect(requirements Requirements, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		snapshot := m.sessions.Current()
		decision := Evaluate(Input{
			SessionResolved: true,
			Authenticated:   snapshot.Session.Authenticated(),
			Profile:         snapshot.Profile,
			Path:            r.URL.Path,
			Requirements:    requirements,
		})

		switch decision.Outcome {
		case OutcomeLoading:
			w.Header().Set("Retry-After", "1")
			writeJSON(w, http.StatusServiceUnavailable, map[string]any{
				"state": decision.State,
			})

		case OutcomeRedirect:
			http.Redirect(w, r, decision.RedirectTarget, http.StatusSeeOther)

		case OutcomeInterstitial:
			writeJSON(w, http.StatusOK, map[string]any{
				"state":        decision.State,
				"interstitial": decision.Interstitial,
				"progress":     decision.Onboarding.Progress,
			})

		default:
			ctx := r.Context()
			if snapshot.Profile != nil {
				ctx = requestctx.WithUserID(ctx, snapshot.Profile.ID)
			}
			ctx = requestctx.WithGates(ctx, requestctx.Gates{
				CanInvest:    decision.Onboarding.CanInvest,
				CanSubscribe: decision.Onboarding.CanSubscribe,
			})
			next.ServeHTTP(w, r.WithContext(ctx))
		}
	})
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}
