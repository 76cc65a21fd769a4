package webgate

import (
	"context"
	"flag"
	"testing"
)

func TestParseConfigDefaults(t *testing.T) {
	fs := flag.NewFlagSet("webgate", flag.ContinueOnError)
	cfg, err := ParseConfig(fs, nil, func(string) (string, bool) { return "", false })
	if err != nil {
		t.Fatalf("parse config: %v", err)
	}
	if cfg.HTTPAddr != defaultHTTPAddr {
		t.Fatalf("expected default http addr, got %q", cfg.HTTPAddr)
	}
	if cfg.IdentityBaseURL != defaultIdentityBaseURL {
		t.Fatalf("expected default identity base url, got %q", cfg.IdentityBaseURL)
	}
	if cfg.TokenBackend != defaultTokenBackend {
		t.Fatalf("expected default token backend, got %q", cfg.TokenBackend)
	}
}

func TestParseConfigOverrides(t *testing.T) {
	fs := flag.NewFlagSet("webgate", flag.ContinueOnError)
	lookup := func(key string) (string, bool) {
		switch key {
		case "MERIDIAN_WEBGATE_ADDR":
			return "env-addr", true
		case "MERIDIAN_TOKEN_BACKEND":
			return "redis", true
		default:
			return "", false
		}
	}
	args := []string{"-http-addr", "flag-addr", "-identity-base-url", "http://flag-identity"}
	cfg, err := ParseConfig(fs, args, lookup)
	if err != nil {
		t.Fatalf("parse config: %v", err)
	}
	if cfg.HTTPAddr != "flag-addr" {
		t.Fatalf("expected flag http addr, got %q", cfg.HTTPAddr)
	}
	if cfg.IdentityBaseURL != "http://flag-identity" {
		t.Fatalf("expected flag identity base url, got %q", cfg.IdentityBaseURL)
	}
	if cfg.TokenBackend != "redis" {
		t.Fatalf("expected env token backend, got %q", cfg.TokenBackend)
	}
}

func TestOpenTokenStoreMemory(t *testing.T) {
	store, closeStore, err := openTokenStore(context.Background(), Config{TokenBackend: BackendMemory})
	if err != nil {
		t.Fatalf("open memory store: %v", err)
	}
	defer closeStore()
	if store == nil {
		t.Fatal("expected a store")
	}
}

func TestOpenTokenStoreUnknownBackend(t *testing.T) {
	if _, _, err := openTokenStore(context.Background(), Config{TokenBackend: "postgres"}); err == nil {
		t.Fatal("expected error for unknown backend")
	}
}
