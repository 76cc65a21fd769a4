// Package routepath defines the canonical application route paths
// shared by the onboarding deriver, the route guard, and the gateway.
package routepath

import "strings"

const (
	Root      = "/"
	Health    = "/healthz"
	Login     = "/login"
	Dashboard = "/dashboard"

	AuthLogin       = "/auth/login"
	AuthRegister    = "/auth/register"
	AuthVerifyPhone = "/auth/verify-phone"
	AuthLogout      = "/auth/logout"
	AuthSession     = "/auth/session"

	OnboardingVerifyPhone = "/onboarding/verify-phone"
	OnboardingProfile     = "/onboarding/profile"

	KYCStart    = "/kyc/start"
	KYCResubmit = "/kyc/resubmit"

	Invest    = "/invest"
	Portfolio = "/portfolio"
	Premium   = "/premium"
)

// onboardingPrefix groups the self-service onboarding pages.
const onboardingPrefix = "/onboarding/"

// IsOnboarding reports whether path is itself an onboarding page. Such
// pages stay reachable while onboarding is incomplete, otherwise the
// guard would redirect the user away from the very form it sent them to.
func IsOnboarding(path string) bool {
	return path == Login || strings.HasPrefix(path, onboardingPrefix)
}
