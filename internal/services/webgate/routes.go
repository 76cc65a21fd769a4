package webgate

import (
	"net/http"

	"github.com/meridianvest/meridian/internal/guard"
	"github.com/meridianvest/meridian/internal/platform/requestctx"
	"github.com/meridianvest/meridian/internal/routepath"
)

// registerAuthRoutes mounts the public auth endpoints and the health
// check. These never pass through the route guard.
func registerAuthRoutes(mux *http.ServeMux, h *handler) {
	mux.Handle(routepath.AuthLogin, postOnly(h.login))
	mux.Handle(routepath.AuthRegister, postOnly(h.register))
	mux.Handle(routepath.AuthVerifyPhone, postOnly(h.verifyPhone))
	mux.Handle(routepath.AuthLogout, postOnly(h.logout))
	mux.Handle(routepath.AuthSession, getOnly(h.currentSession))
	mux.Handle(routepath.Health, getOnly(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	}))
}

// registerAppRoutes mounts the guarded application pages. Each route
// declares its requirements; the guard derives everything else from the
// session snapshot.
func registerAppRoutes(mux *http.ServeMux, protect *guard.Middleware) {
	none := guard.Requirements{}
	kyc := guard.Requirements{RequireKYC: true}
	subscription := guard.Requirements{RequireSubscription: true}

	mux.Handle(routepath.Login, pageHandler("login"))
	mux.Handle(routepath.Dashboard, protect.Protect(none, pageHandler("dashboard")))

	mux.Handle(routepath.OnboardingVerifyPhone, protect.Protect(none, pageHandler("onboarding_verify_phone")))
	mux.Handle(routepath.OnboardingProfile, protect.Protect(none, pageHandler("onboarding_profile")))
	mux.Handle(routepath.KYCStart, protect.Protect(none, pageHandler("kyc_start")))
	mux.Handle(routepath.KYCResubmit, protect.Protect(none, pageHandler("kyc_resubmit")))

	mux.Handle(routepath.Invest, protect.Protect(kyc, pageHandler("invest")))
	mux.Handle(routepath.Portfolio, protect.Protect(kyc, pageHandler("portfolio")))
	mux.Handle(routepath.Premium, protect.Protect(subscription, pageHandler("premium")))
}

// pageHandler renders a page descriptor. The gateway serves the client
// shell; page bodies belong to the frontend bundle, so the descriptor
// carries only the page name and the request's resolved gates.
func pageHandler(name string) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gates := requestctx.GatesFromContext(r.Context())
		writeJSON(w, http.StatusOK, map[string]any{
			"page": name,
			"gates": map[string]bool{
				"can_invest":    gates.CanInvest,
				"can_subscribe": gates.CanSubscribe,
			},
		})
	})
}

func postOnly(next http.HandlerFunc) http.Handler {
	return methodHandler(http.MethodPost, next)
}

func getOnly(next http.HandlerFunc) http.Handler {
	return methodHandler(http.MethodGet, next)
}

func methodHandler(method string, next http.HandlerFunc) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != method {
			http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
			return
		}
		next(w, r)
	})
}
