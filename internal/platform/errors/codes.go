// Package errors provides structured error handling for the session core.
package errors

import "net/http"

// Code is a machine-readable error code.
type Code string

const (
	// CodeUnknown represents an unknown error.
	CodeUnknown Code = "UNKNOWN"

	// Credential errors, surfaced verbatim to the caller.
	CodeInvalidCredentials Code = "INVALID_CREDENTIALS"
	CodeInvalidOTP         Code = "INVALID_OTP"
	CodeOTPExpired         Code = "OTP_EXPIRED"

	// CodeValidation carries server-side field errors for form display.
	CodeValidation Code = "VALIDATION"

	// CodeNetwork marks a transport failure. The core never retries
	// these; retry policy belongs to the caller.
	CodeNetwork Code = "NETWORK"

	// Session errors resolved locally, never surfaced to feature code.
	CodeSessionExpired   Code = "SESSION_EXPIRED"
	CodeSessionCorrupted Code = "SESSION_CORRUPTED"
)

// HTTPStatus maps the code to the HTTP status the gateway responds with.
func (c Code) HTTPStatus() int {
	switch c {
	case CodeInvalidCredentials, CodeInvalidOTP, CodeSessionExpired:
		return http.StatusUnauthorized
	case CodeOTPExpired:
		return http.StatusGone
	case CodeValidation:
		return http.StatusUnprocessableEntity
	case CodeNetwork:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}
