package token

import (
	"context"
	"sync"
)

// MemoryStore is a thread-safe in-memory Store. It is the default
// backend for tests and for ephemeral gateway runs.
type MemoryStore struct {
	mu      sync.RWMutex
	access  string
	refresh string
	profile []byte
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

// SetTokens atomically replaces the token pair.
func (s *MemoryStore) SetTokens(_ context.Context, access, refresh string) error {
	s.mu.Lock()
	s.access = access
	s.refresh = refresh
	s.mu.Unlock()
	return nil
}

// AccessToken returns the stored access token, or "" when absent.
func (s *MemoryStore) AccessToken(_ context.Context) (string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.access, nil
}

// RefreshToken returns the stored refresh token, or "" when absent.
func (s *MemoryStore) RefreshToken(_ context.Context) (string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.refresh, nil
}

// SetProfile replaces the cached profile snapshot.
func (s *MemoryStore) SetProfile(_ context.Context, raw []byte) error {
	copied := make([]byte, len(raw))
	copy(copied, raw)
	s.mu.Lock()
	s.profile = copied
	s.mu.Unlock()
	return nil
}

// Profile returns the cached profile snapshot, or nil when absent.
func (s *MemoryStore) Profile(_ context.Context) ([]byte, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if len(s.profile) == 0 {
		return nil, nil
	}
	copied := make([]byte, len(s.profile))
	copy(copied, s.profile)
	return copied, nil
}

// ClearAll removes tokens and profile together. Idempotent.
func (s *MemoryStore) ClearAll(_ context.Context) error {
	s.mu.Lock()
	s.access = ""
	s.refresh = ""
	s.profile = nil
	s.mu.Unlock()
	return nil
}
