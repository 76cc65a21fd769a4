// Package guard decides what the router should render for a
// navigation: allow, redirect, or an informational interstitial.
//
// The decision is a pure function of the session snapshot, the profile,
// the requested path, and the route's requirements. Nothing is
// persisted between navigations; every relevant change recomputes the
// decision from scratch.
package guard

import (
	"net/url"

	"github.com/meridianvest/meridian/internal/onboarding"
	"github.com/meridianvest/meridian/internal/profile"
	"github.com/meridianvest/meridian/internal/routepath"
)

// State is the resolved guard state for a navigation.
type State string

const (
	StateLoading              State = "loading"
	StateUnauthenticated      State = "unauthenticated"
	StatePhoneUnverified      State = "phone_unverified"
	StateOnboardingIncomplete State = "onboarding_incomplete"
	StateAllowed              State = "allowed"
	StateFeatureGated         State = "feature_gated"
)

// Outcome is what the router should do.
type Outcome string

const (
	// OutcomeLoading renders a spinner; no redirect is issued while the
	// session or profile is still being resolved.
	OutcomeLoading Outcome = "loading"

	OutcomeAllow        Outcome = "allow"
	OutcomeRedirect     Outcome = "redirect"
	OutcomeInterstitial Outcome = "interstitial"
)

// InterstitialKind names the informational page to render in place of
// the gated content. An interstitial never hard-fails and never
// redirects; the user stays on the current route context.
type InterstitialKind string

const (
	InterstitialKYCPending           InterstitialKind = "kyc_pending"
	InterstitialSubscriptionRequired InterstitialKind = "subscription_required"
)

// Requirements are the per-route feature flags.
type Requirements struct {
	RequireKYC          bool
	RequireSubscription bool
}

// Input is everything a navigation decision depends on.
type Input struct {
	// SessionResolved is false while persisted state is still loading.
	SessionResolved bool

	// Authenticated reports a complete token pair.
	Authenticated bool

	// Profile is the canonical snapshot, nil while not yet fetched.
	Profile *profile.UserProfile

	// Path is the route being navigated to.
	Path string

	Requirements Requirements
}

// Decision is the guard's verdict for one navigation.
type Decision struct {
	State          State
	Outcome        Outcome
	RedirectTarget string
	Interstitial   InterstitialKind

	// Onboarding carries the derived state so downstream rendering can
	// show progress without re-deriving.
	Onboarding onboarding.State
}

// Evaluate resolves the guard state for a navigation and maps it to an
// outcome. The mapping is exhaustive over the enumerated states; every
// row of the transition table is independently testable.
func Evaluate(in Input) Decision {
	// Session unresolved: spinner, never a redirect, so a slow restore
	// cannot bounce a logged-in user to the login page.
	if !in.SessionResolved {
		return Decision{State: StateLoading, Outcome: OutcomeLoading}
	}

	if !in.Authenticated {
		return Decision{
			State:          StateUnauthenticated,
			Outcome:        OutcomeRedirect,
			RedirectTarget: loginRedirect(in.Path),
			Onboarding:     onboarding.Derive(nil),
		}
	}

	// Authenticated but the profile snapshot has not arrived yet: we
	// cannot distinguish an onboarding redirect from an allow, so keep
	// loading.
	if in.Profile == nil {
		return Decision{State: StateLoading, Outcome: OutcomeLoading}
	}

	derived := onboarding.Derive(in.Profile)

	if !derived.CanAccessDashboard {
		// Onboarding pages stay reachable while onboarding is
		// incomplete; redirecting them would loop forever.
		if routepath.IsOnboarding(in.Path) {
			return Decision{State: StateAllowed, Outcome: OutcomeAllow, Onboarding: derived}
		}
		state := StateOnboardingIncomplete
		if derived.CurrentStep == onboarding.StepPhoneVerification {
			state = StatePhoneUnverified
		}
		return Decision{
			State:          state,
			Outcome:        OutcomeRedirect,
			RedirectTarget: derived.RedirectTarget,
			Onboarding:     derived,
		}
	}

	if in.Requirements.RequireKYC {
		switch in.Profile.KYCStatus {
		case profile.KYCPending:
			return Decision{
				State:        StateFeatureGated,
				Outcome:      OutcomeInterstitial,
				Interstitial: InterstitialKYCPending,
				Onboarding:   derived,
			}
		case profile.KYCRejected:
			return Decision{
				State:          StateFeatureGated,
				Outcome:        OutcomeRedirect,
				RedirectTarget: routepath.KYCResubmit,
				Onboarding:     derived,
			}
		case profile.KYCNotSubmitted:
			return Decision{
				State:          StateFeatureGated,
				Outcome:        OutcomeRedirect,
				RedirectTarget: routepath.KYCStart,
				Onboarding:     derived,
			}
		}
	}

	if in.Requirements.RequireSubscription && !in.Profile.SubscriptionStatus.Active() {
		return Decision{
			State:        StateFeatureGated,
			Outcome:      OutcomeInterstitial,
			Interstitial: InterstitialSubscriptionRequired,
			Onboarding:   derived,
		}
	}

	return Decision{State: StateAllowed, Outcome: OutcomeAllow, Onboarding: derived}
}

// loginRedirect preserves the originating path so the user returns to
// the same place after re-authenticating.
func loginRedirect(path string) string {
	if path == "" || path == routepath.Login {
		return routepath.Login
	}
	return routepath.Login + "?next=" + url.QueryEscape(path)
}
