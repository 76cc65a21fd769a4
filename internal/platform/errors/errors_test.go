package errors

import (
	stderrors "errors"
	"fmt"
	"net/http"
	"testing"
)

func TestErrorIsMatchesByCode(t *testing.T) {
	err := New(CodeSessionExpired, "refresh rejected")
	if !stderrors.Is(err, New(CodeSessionExpired, "other message")) {
		t.Fatal("expected errors with the same code to match")
	}
	if stderrors.Is(err, New(CodeNetwork, "refresh rejected")) {
		t.Fatal("expected errors with different codes not to match")
	}
}

func TestWrapPreservesCause(t *testing.T) {
	cause := stderrors.New("connection reset")
	err := Wrap(CodeNetwork, "refresh transport failure", cause)
	if !stderrors.Is(err, cause) {
		t.Fatal("expected wrapped cause to be reachable via errors.Is")
	}
}

func TestCodeOf(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want Code
	}{
		{"domain error", New(CodeInvalidOTP, "bad otp"), CodeInvalidOTP},
		{"wrapped domain error", fmt.Errorf("login: %w", New(CodeInvalidCredentials, "nope")), CodeInvalidCredentials},
		{"plain error", stderrors.New("boom"), CodeUnknown},
		{"nil", nil, CodeUnknown},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := CodeOf(tc.err); got != tc.want {
				t.Fatalf("CodeOf() = %q, want %q", got, tc.want)
			}
		})
	}
}

func TestHTTPStatus(t *testing.T) {
	tests := []struct {
		code Code
		want int
	}{
		{CodeInvalidCredentials, http.StatusUnauthorized},
		{CodeInvalidOTP, http.StatusUnauthorized},
		{CodeOTPExpired, http.StatusGone},
		{CodeValidation, http.StatusUnprocessableEntity},
		{CodeNetwork, http.StatusBadGateway},
		{CodeUnknown, http.StatusInternalServerError},
	}
	for _, tc := range tests {
		if got := tc.code.HTTPStatus(); got != tc.want {
			t.Fatalf("%s.HTTPStatus() = %d, want %d", tc.code, got, tc.want)
		}
	}
}

func TestWithMetadataCarriesFieldErrors(t *testing.T) {
	err := WithMetadata(CodeValidation, "register rejected", map[string]string{
		"email": "already taken",
	})
	if err.Metadata["email"] != "already taken" {
		t.Fatalf("Metadata[email] = %q, want %q", err.Metadata["email"], "already taken")
	}
}
