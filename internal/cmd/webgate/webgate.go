// Package webgate wires configuration into the gateway process.
package webgate

import (
	"context"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/meridianvest/meridian/internal/auth/identity"
	"github.com/meridianvest/meridian/internal/auth/session"
	"github.com/meridianvest/meridian/internal/auth/token"
	tokenredis "github.com/meridianvest/meridian/internal/auth/token/redis"
	tokensqlite "github.com/meridianvest/meridian/internal/auth/token/sqlite"
	"github.com/meridianvest/meridian/internal/auth/transport"
	"github.com/meridianvest/meridian/internal/profile"
	"github.com/meridianvest/meridian/internal/services/webgate"
)

const (
	defaultHTTPAddr        = "localhost:8090"
	defaultIdentityBaseURL = "http://localhost:8091"
	defaultProfileBaseURL  = "http://localhost:8092"
	defaultTokenBackend    = "sqlite"
)

// Token backend selectors.
const (
	BackendMemory = "memory"
	BackendSQLite = "sqlite"
	BackendRedis  = "redis"
)

// Config holds the gateway command configuration.
type Config struct {
	HTTPAddr        string
	IdentityBaseURL string
	ProfileBaseURL  string
	TokenBackend    string
	SQLitePath      string
	RedisAddr       string
}

// EnvLookup returns the value for a key when present.
type EnvLookup func(string) (string, bool)

// ParseConfig parses flags into a Config.
func ParseConfig(fs *flag.FlagSet, args []string, lookup EnvLookup) (Config, error) {
	cfg := Config{
		HTTPAddr:        envOrDefault(lookup, []string{"MERIDIAN_WEBGATE_ADDR"}, defaultHTTPAddr),
		IdentityBaseURL: envOrDefault(lookup, []string{"MERIDIAN_IDENTITY_BASE_URL"}, defaultIdentityBaseURL),
		ProfileBaseURL:  envOrDefault(lookup, []string{"MERIDIAN_PROFILE_BASE_URL"}, defaultProfileBaseURL),
		TokenBackend:    envOrDefault(lookup, []string{"MERIDIAN_TOKEN_BACKEND"}, defaultTokenBackend),
		SQLitePath:      envOrDefault(lookup, []string{"MERIDIAN_SQLITE_PATH"}, filepath.Join("data", "meridian.db")),
		RedisAddr:       envOrDefault(lookup, []string{"MERIDIAN_REDIS_ADDR"}, "localhost:6379"),
	}

	fs.StringVar(&cfg.HTTPAddr, "http-addr", cfg.HTTPAddr, "HTTP listen address")
	fs.StringVar(&cfg.IdentityBaseURL, "identity-base-url", cfg.IdentityBaseURL, "identity service HTTP base URL")
	fs.StringVar(&cfg.ProfileBaseURL, "profile-base-url", cfg.ProfileBaseURL, "profile service HTTP base URL")
	fs.StringVar(&cfg.TokenBackend, "token-backend", cfg.TokenBackend, "token store backend (memory, sqlite, redis)")
	fs.StringVar(&cfg.SQLitePath, "sqlite-path", cfg.SQLitePath, "sqlite token store path")
	fs.StringVar(&cfg.RedisAddr, "redis-addr", cfg.RedisAddr, "redis token store address")
	if err := fs.Parse(args); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

// Run starts the gateway server.
func Run(ctx context.Context, cfg Config) error {
	store, closeStore, err := openTokenStore(ctx, cfg)
	if err != nil {
		return fmt.Errorf("open token store: %w", err)
	}
	defer closeStore()

	identityClient := identity.New(cfg.IdentityBaseURL, nil)
	sessions, err := session.New(ctx, store, identityClient)
	if err != nil {
		return fmt.Errorf("restore session: %w", err)
	}

	interceptor := transport.New(sessions, nil)
	profiles := profile.NewFetcher(cfg.ProfileBaseURL, interceptor.Client())

	server, err := webgate.NewServer(webgate.Config{HTTPAddr: cfg.HTTPAddr}, sessions, profiles)
	if err != nil {
		return fmt.Errorf("init gateway server: %w", err)
	}

	if err := server.ListenAndServe(ctx); err != nil {
		return fmt.Errorf("serve gateway: %w", err)
	}
	return nil
}

// openTokenStore selects the persistence backend for session tokens.
func openTokenStore(ctx context.Context, cfg Config) (token.Store, func(), error) {
	switch strings.ToLower(strings.TrimSpace(cfg.TokenBackend)) {
	case BackendMemory:
		return token.NewMemoryStore(), func() {}, nil

	case BackendSQLite:
		if dir := filepath.Dir(cfg.SQLitePath); dir != "." {
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return nil, nil, fmt.Errorf("create storage dir: %w", err)
			}
		}
		store, err := tokensqlite.Open(cfg.SQLitePath)
		if err != nil {
			return nil, nil, err
		}
		return store, func() { _ = store.Close() }, nil

	case BackendRedis:
		store, err := tokenredis.Open(ctx, cfg.RedisAddr, "")
		if err != nil {
			return nil, nil, err
		}
		return store, func() { _ = store.Close() }, nil

	default:
		return nil, nil, fmt.Errorf("unknown token backend %q", cfg.TokenBackend)
	}
}

func envOrDefault(lookup EnvLookup, keys []string, fallback string) string {
	for _, key := range keys {
		if lookup == nil {
			break
		}
		value, ok := lookup(key)
		if ok {
			trimmed := strings.TrimSpace(value)
			if trimmed != "" {
				return trimmed
			}
		}
	}
	return fallback
}
