// Package onboarding derives the user's onboarding position from a
// profile snapshot.
//
// Derivation is a pure function: no I/O, no side effects, no retained
// state. The result can never drift from its inputs because it is
// recomputed on every session or profile change.
package onboarding

import (
	"github.com/meridianvest/meridian/internal/profile"
	"github.com/meridianvest/meridian/internal/routepath"
)

// Step identifies a position in the onboarding sequence.
type Step string

const (
	StepLogin             Step = "login"
	StepPhoneVerification Step = "phone_verification"
	StepProfileCompletion Step = "profile_completion"

	// Informational sub-states once the mandatory steps are done. KYC
	// is not a gate for dashboard access.
	StepKYCOptional Step = "kyc_optional"
	StepKYCPending  Step = "kyc_pending"
	StepKYCRejected Step = "kyc_rejected"
	StepComplete    Step = "complete"
)

// mandatorySteps counts the steps required for dashboard access:
// phone verification and profile completion. KYC is optional.
const mandatorySteps = 2

// Progress reports completion over the mandatory steps only.
type Progress struct {
	CompletedMandatorySteps int
	Percentage              int
}

// State is the derived onboarding position. It is never persisted.
type State struct {
	CurrentStep    Step
	NextStep       Step
	RedirectTarget string

	CanAccessDashboard bool
	CanInvest          bool
	CanSubscribe       bool

	Progress Progress
}

// Derive maps a profile snapshot to its onboarding state. A nil profile
// means not authenticated.
func Derive(p *profile.UserProfile) State {
	if p == nil {
		return State{
			CurrentStep:    StepLogin,
			NextStep:       StepPhoneVerification,
			RedirectTarget: routepath.Login,
		}
	}

	if !p.PhoneVerified {
		return State{
			CurrentStep:    StepPhoneVerification,
			NextStep:       StepProfileCompletion,
			RedirectTarget: routepath.OnboardingVerifyPhone,
			Progress:       progressFor(0),
		}
	}

	if !p.ProfileCompleted {
		return State{
			CurrentStep:    StepProfileCompletion,
			NextStep:       StepKYCOptional,
			RedirectTarget: routepath.OnboardingProfile,
			Progress:       progressFor(1),
		}
	}

	// Mandatory onboarding done: dashboard opens regardless of KYC.
	state := State{
		CanAccessDashboard: true,
		CanInvest:          p.KYCStatus == profile.KYCApproved,
		CanSubscribe:       true,
		Progress:           progressFor(mandatorySteps),
	}

	switch p.KYCStatus {
	case profile.KYCApproved:
		state.CurrentStep = StepComplete
		state.NextStep = StepComplete
	case profile.KYCPending:
		state.CurrentStep = StepKYCPending
		state.NextStep = StepComplete
	case profile.KYCRejected:
		state.CurrentStep = StepKYCRejected
		state.NextStep = StepComplete
	default:
		state.CurrentStep = StepKYCOptional
		state.NextStep = StepComplete
	}
	return state
}

// progressFor computes mandatory-step progress. KYC never moves this
// number; it is optional for baseline access.
func progressFor(completed int) Progress {
	return Progress{
		CompletedMandatorySteps: completed,
		Percentage:              completed * 100 / mandatorySteps,
	}
}
