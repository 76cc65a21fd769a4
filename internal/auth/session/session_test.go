package session

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

func TestAuthenticated(t *testing.T) {
	tests := []struct {
		name string
		sess Session
		want bool
	}{
		{"both present", Session{AccessToken: "a", RefreshToken: "r"}, true},
		{"both absent", Session{}, false},
		{"access only", Session{AccessToken: "a"}, false},
		{"refresh only", Session{RefreshToken: "r"}, false},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := tc.sess.Authenticated(); got != tc.want {
				t.Fatalf("Authenticated() = %v, want %v", got, tc.want)
			}
		})
	}
}

func TestExpiryHintFromJWT(t *testing.T) {
	exp := time.Now().Add(15 * time.Minute).Truncate(time.Second)
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"exp": exp.Unix(),
	}).SignedString([]byte("test-key"))
	if err != nil {
		t.Fatalf("sign test token: %v", err)
	}

	got := expiryHint(signed)
	if !got.Equal(exp) {
		t.Fatalf("expiryHint() = %v, want %v", got, exp)
	}
}

func TestExpiryHintOpaqueToken(t *testing.T) {
	if got := expiryHint("not-a-jwt-at-all"); !got.IsZero() {
		t.Fatalf("expiryHint() = %v, want zero for opaque token", got)
	}
}

func TestExpiryHintJWTWithoutExp(t *testing.T) {
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub": "u1",
	}).SignedString([]byte("test-key"))
	if err != nil {
		t.Fatalf("sign test token: %v", err)
	}
	if got := expiryHint(signed); !got.IsZero() {
		t.Fatalf("expiryHint() = %v, want zero when exp missing", got)
	}
}
