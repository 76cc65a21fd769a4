// Package profile holds the canonical user profile and its single
// ingestion boundary.
//
// Source systems report fields under either snake_case or camelCase.
// Normalize resolves both spellings once, at ingestion; everything
// downstream operates exclusively on the canonical shape.
package profile

import (
	"encoding/json"
	"strings"
)

// KYCStatus is the identity-verification workflow status.
type KYCStatus string

const (
	KYCNotSubmitted KYCStatus = "not_submitted"
	KYCPending      KYCStatus = "pending"
	KYCApproved     KYCStatus = "approved"
	KYCRejected     KYCStatus = "rejected"
)

// SubscriptionStatus is the plan status reported by the billing system.
type SubscriptionStatus string

const (
	SubscriptionNone      SubscriptionStatus = "none"
	SubscriptionTrial     SubscriptionStatus = "trial"
	SubscriptionActive    SubscriptionStatus = "active"
	SubscriptionCancelled SubscriptionStatus = "cancelled"
	SubscriptionExpired   SubscriptionStatus = "expired"
)

// Active reports whether the subscription grants premium access.
func (s SubscriptionStatus) Active() bool {
	return s == SubscriptionActive || s == SubscriptionTrial
}

// UserProfile is the canonical profile snapshot consumed by the
// onboarding deriver and the route guard. Only the fields the gating
// core reads are modeled; everything else in collaborator responses is
// ignored.
type UserProfile struct {
	ID                 string             `json:"id"`
	Email              string             `json:"email"`
	Phone              string             `json:"phone"`
	PhoneVerified      bool               `json:"phone_verified"`
	ProfileCompleted   bool               `json:"profile_completed"`
	DateOfBirth        string             `json:"date_of_birth"`
	Country            string             `json:"country"`
	City               string             `json:"city"`
	Address            string             `json:"address"`
	KYCStatus          KYCStatus          `json:"kyc_status"`
	SubscriptionStatus SubscriptionStatus `json:"subscription_status"`
}

// UnmarshalJSON routes raw payloads through Normalize so a profile can
// never be constructed from uncanonical field names.
func (p *UserProfile) UnmarshalJSON(data []byte) error {
	var raw map[string]any
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	*p = Normalize(raw)
	return nil
}

// Normalize maps a raw collaborator payload onto the canonical profile.
// Each field accepts the snake_case and camelCase spellings; unknown
// enum values collapse to their conservative defaults.
func Normalize(raw map[string]any) UserProfile {
	return UserProfile{
		ID:                 stringField(raw, "id"),
		Email:              stringField(raw, "email"),
		Phone:              stringField(raw, "phone"),
		PhoneVerified:      boolField(raw, "phone_verified", "phoneVerified"),
		ProfileCompleted:   boolField(raw, "profile_completed", "profileCompleted"),
		DateOfBirth:        stringField(raw, "date_of_birth", "dateOfBirth"),
		Country:            stringField(raw, "country"),
		City:               stringField(raw, "city"),
		Address:            stringField(raw, "address"),
		KYCStatus:          normalizeKYCStatus(stringField(raw, "kyc_status", "kycStatus")),
		SubscriptionStatus: normalizeSubscriptionStatus(stringField(raw, "subscription_status", "subscriptionStatus")),
	}
}

// normalizeKYCStatus collapses missing or unknown values to not_submitted.
func normalizeKYCStatus(value string) KYCStatus {
	switch KYCStatus(strings.ToLower(strings.TrimSpace(value))) {
	case KYCPending:
		return KYCPending
	case KYCApproved:
		return KYCApproved
	case KYCRejected:
		return KYCRejected
	default:
		return KYCNotSubmitted
	}
}

// normalizeSubscriptionStatus collapses missing or unknown values to none.
func normalizeSubscriptionStatus(value string) SubscriptionStatus {
	switch SubscriptionStatus(strings.ToLower(strings.TrimSpace(value))) {
	case SubscriptionTrial:
		return SubscriptionTrial
	case SubscriptionActive:
		return SubscriptionActive
	case SubscriptionCancelled:
		return SubscriptionCancelled
	case SubscriptionExpired:
		return SubscriptionExpired
	default:
		return SubscriptionNone
	}
}

func stringField(raw map[string]any, names ...string) string {
	for _, name := range names {
		if value, ok := raw[name].(string); ok {
			return strings.TrimSpace(value)
		}
	}
	return ""
}

func boolField(raw map[string]any, names ...string) bool {
	for _, name := range names {
		if value, ok := raw[name].(bool); ok {
			return value
		}
	}
	return false
}
