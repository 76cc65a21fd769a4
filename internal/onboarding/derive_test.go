package onboarding

import (
	"testing"

	"github.com/meridianvest/meridian/internal/profile"
	"github.com/meridianvest/meridian/internal/routepath"
)

func TestDeriveNilProfile(t *testing.T) {
	state := Derive(nil)
	if state.CurrentStep != StepLogin {
		t.Fatalf("CurrentStep = %q, want %q", state.CurrentStep, StepLogin)
	}
	if state.CanAccessDashboard {
		t.Fatal("unauthenticated user must not access the dashboard")
	}
	if state.RedirectTarget != routepath.Login {
		t.Fatalf("RedirectTarget = %q, want %q", state.RedirectTarget, routepath.Login)
	}
}

// Phone verification is the first mandatory step regardless of every
// other field.
func TestDerivePhoneUnverifiedDominates(t *testing.T) {
	profiles := []profile.UserProfile{
		{PhoneVerified: false},
		{PhoneVerified: false, ProfileCompleted: true},
		{PhoneVerified: false, ProfileCompleted: true, KYCStatus: profile.KYCApproved},
		{PhoneVerified: false, SubscriptionStatus: profile.SubscriptionActive},
	}
	for _, p := range profiles {
		state := Derive(&p)
		if state.CurrentStep != StepPhoneVerification {
			t.Fatalf("CurrentStep = %q for %+v, want %q", state.CurrentStep, p, StepPhoneVerification)
		}
		if state.CanAccessDashboard {
			t.Fatalf("CanAccessDashboard = true for unverified phone: %+v", p)
		}
		if state.RedirectTarget != routepath.OnboardingVerifyPhone {
			t.Fatalf("RedirectTarget = %q, want %q", state.RedirectTarget, routepath.OnboardingVerifyPhone)
		}
	}
}

func TestDeriveProfileIncomplete(t *testing.T) {
	p := profile.UserProfile{PhoneVerified: true}
	state := Derive(&p)
	if state.CurrentStep != StepProfileCompletion {
		t.Fatalf("CurrentStep = %q, want %q", state.CurrentStep, StepProfileCompletion)
	}
	if state.RedirectTarget != routepath.OnboardingProfile {
		t.Fatalf("RedirectTarget = %q, want %q", state.RedirectTarget, routepath.OnboardingProfile)
	}
	if state.CanAccessDashboard {
		t.Fatal("incomplete profile must not access the dashboard")
	}
}

// Dashboard access requires only the two mandatory steps; KYC is
// informational.
func TestDeriveDashboardOpenRegardlessOfKYC(t *testing.T) {
	tests := []struct {
		kyc      profile.KYCStatus
		wantStep Step
	}{
		{profile.KYCNotSubmitted, StepKYCOptional},
		{profile.KYCPending, StepKYCPending},
		{profile.KYCRejected, StepKYCRejected},
		{profile.KYCApproved, StepComplete},
	}
	for _, tc := range tests {
		p := profile.UserProfile{PhoneVerified: true, ProfileCompleted: true, KYCStatus: tc.kyc}
		state := Derive(&p)
		if !state.CanAccessDashboard {
			t.Fatalf("CanAccessDashboard = false for kyc %q", tc.kyc)
		}
		if state.CurrentStep != tc.wantStep {
			t.Fatalf("CurrentStep = %q for kyc %q, want %q", state.CurrentStep, tc.kyc, tc.wantStep)
		}
	}
}

func TestDeriveCanInvestRequiresApprovedKYC(t *testing.T) {
	for _, kyc := range []profile.KYCStatus{
		profile.KYCNotSubmitted, profile.KYCPending, profile.KYCRejected,
	} {
		p := profile.UserProfile{PhoneVerified: true, ProfileCompleted: true, KYCStatus: kyc}
		if Derive(&p).CanInvest {
			t.Fatalf("CanInvest = true for kyc %q", kyc)
		}
	}
	p := profile.UserProfile{PhoneVerified: true, ProfileCompleted: true, KYCStatus: profile.KYCApproved}
	if !Derive(&p).CanInvest {
		t.Fatal("CanInvest = false for approved KYC")
	}
}

// Percentage covers only the two mandatory steps and is one of 0, 50,
// or 100; KYC completion never moves it.
func TestDeriveProgressPercentage(t *testing.T) {
	tests := []struct {
		name string
		p    profile.UserProfile
		want int
	}{
		{"nothing done", profile.UserProfile{}, 0},
		{"phone only", profile.UserProfile{PhoneVerified: true}, 50},
		{"both done", profile.UserProfile{PhoneVerified: true, ProfileCompleted: true}, 100},
		{"both done kyc approved", profile.UserProfile{PhoneVerified: true, ProfileCompleted: true, KYCStatus: profile.KYCApproved}, 100},
		{"phone only kyc approved", profile.UserProfile{PhoneVerified: true, KYCStatus: profile.KYCApproved}, 50},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			state := Derive(&tc.p)
			if state.Progress.Percentage != tc.want {
				t.Fatalf("Percentage = %d, want %d", state.Progress.Percentage, tc.want)
			}
		})
	}
}
