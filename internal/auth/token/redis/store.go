// Package redis implements token persistence over Redis, for gateway
// deployments that share client state across replicas.
package redis

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"
)

// Namespaced keys for the persisted state. Cleared together on logout.
const (
	keyAccessToken  = "meridian:client:access_token"
	keyRefreshToken = "meridian:client:refresh_token"
	keyProfile      = "meridian:client:profile"
)

// Store implements token.Store over a Redis client.
type Store struct {
	client redis.UniversalClient
}

// New creates a store over an already-configured Redis client.
func New(client redis.UniversalClient) *Store {
	return &Store{client: client}
}

// Open dials a single Redis node and returns a store over it.
func Open(ctx context.Context, addr, password string) (*Store, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       0,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("ping redis: %w", err)
	}
	return &Store{client: client}, nil
}

// Close releases the underlying Redis client.
func (s *Store) Close() error {
	if s == nil || s.client == nil {
		return nil
	}
	return s.client.Close()
}

// SetTokens atomically replaces the token pair in a single MSET.
func (s *Store) SetTokens(ctx context.Context, access, refresh string) error {
	if err := s.client.MSet(ctx, keyAccessToken, access, keyRefreshToken, refresh).Err(); err != nil {
		return fmt.Errorf("write token pair: %w", err)
	}
	return nil
}

// AccessToken returns the stored access token, or "" when absent.
func (s *Store) AccessToken(ctx context.Context) (string, error) {
	return s.read(ctx, keyAccessToken)
}

// RefreshToken returns the stored refresh token, or "" when absent.
func (s *Store) RefreshToken(ctx context.Context) (string, error) {
	return s.read(ctx, keyRefreshToken)
}

// SetProfile replaces the cached profile snapshot.
func (s *Store) SetProfile(ctx context.Context, raw []byte) error {
	if err := s.client.Set(ctx, keyProfile, raw, 0).Err(); err != nil {
		return fmt.Errorf("write profile: %w", err)
	}
	return nil
}

// Profile returns the cached profile snapshot, or nil when absent.
func (s *Store) Profile(ctx context.Context) ([]byte, error) {
	value, err := s.client.Get(ctx, keyProfile).Bytes()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read profile: %w", err)
	}
	return value, nil
}

// ClearAll removes tokens and profile in a single DEL. Idempotent.
func (s *Store) ClearAll(ctx context.Context) error {
	if err := s.client.Del(ctx, keyAccessToken, keyRefreshToken, keyProfile).Err(); err != nil {
		return fmt.Errorf("clear client state: %w", err)
	}
	return nil
}

func (s *Store) read(ctx context.Context, key string) (string, error) {
	value, err := s.client.Get(ctx, key).Result()
	if err == redis.Nil {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("read %s: %w", key, err)
	}
	return value, nil
}
