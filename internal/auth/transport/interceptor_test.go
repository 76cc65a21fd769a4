package transport

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/meridianvest/meridian/internal/auth/session"
	platformerrors "github.com/meridianvest/meridian/internal/platform/errors"
)

// fakeSessions is a scriptable SessionSource.
type fakeSessions struct {
	mu           sync.Mutex
	accessToken  string
	refreshed    session.Session
	refreshErr   error
	refreshCalls int
}

func (f *fakeSessions) AccessToken() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.accessToken
}

func (f *fakeSessions) Refresh(context.Context) (session.Session, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.refreshCalls++
	if f.refreshErr != nil {
		return session.Session{}, f.refreshErr
	}
	f.accessToken = f.refreshed.AccessToken
	return f.refreshed, nil
}

func TestAttachesBearerToken(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.Header.Get("Authorization"); got != "Bearer at-1" {
			t.Errorf("Authorization = %q, want %q", got, "Bearer at-1")
		}
	}))
	defer server.Close()

	client := New(&fakeSessions{accessToken: "at-1"}, nil).Client()
	resp, err := client.Get(server.URL)
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	resp.Body.Close()
}

func TestUnauthenticatedRequestsProceed(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.Header.Get("Authorization"); got != "" {
			t.Errorf("Authorization = %q, want empty", got)
		}
	}))
	defer server.Close()

	sessions := &fakeSessions{}
	client := New(sessions, nil).Client()
	resp, err := client.Get(server.URL)
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	resp.Body.Close()
	if sessions.refreshCalls != 0 {
		t.Fatalf("refresh calls = %d, want 0", sessions.refreshCalls)
	}
}

func TestCallerSetAuthorizationUntouched(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.Header.Get("Authorization"); got != "Bearer caller-token" {
			t.Errorf("Authorization = %q, want caller value preserved", got)
		}
	}))
	defer server.Close()

	client := New(&fakeSessions{accessToken: "at-1"}, nil).Client()
	req, _ := http.NewRequest(http.MethodGet, server.URL, nil)
	req.Header.Set("Authorization", "Bearer caller-token")
	resp, err := client.Do(req)
	if err != nil {
		t.Fatalf("Do() error = %v", err)
	}
	resp.Body.Close()
}

func TestRetriesOnceAfterRefresh(t *testing.T) {
	var requests int
	var tokens []string
	var mu sync.Mutex
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		requests++
		tokens = append(tokens, r.Header.Get("Authorization"))
		n := requests
		mu.Unlock()
		if n == 1 {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		w.Write([]byte("ok"))
	}))
	defer server.Close()

	sessions := &fakeSessions{
		accessToken: "at-stale",
		refreshed:   session.Session{AccessToken: "at-fresh", RefreshToken: "rt-1"},
	}
	client := New(sessions, nil).Client()

	resp, err := client.Get(server.URL)
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	body, _ := io.ReadAll(resp.Body)
	resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want 200 after retry", resp.StatusCode)
	}
	if string(body) != "ok" {
		t.Fatalf("body = %q, want %q", body, "ok")
	}
	if sessions.refreshCalls != 1 {
		t.Fatalf("refresh calls = %d, want 1", sessions.refreshCalls)
	}
	if len(tokens) != 2 || tokens[0] != "Bearer at-stale" || tokens[1] != "Bearer at-fresh" {
		t.Fatalf("tokens = %v, want stale then fresh", tokens)
	}
}

func TestSecond401IsNotRetried(t *testing.T) {
	var requests int
	var mu sync.Mutex
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		requests++
		mu.Unlock()
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer server.Close()

	sessions := &fakeSessions{
		accessToken: "at-stale",
		refreshed:   session.Session{AccessToken: "at-still-bad", RefreshToken: "rt-1"},
	}
	client := New(sessions, nil).Client()

	resp, err := client.Get(server.URL)
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	resp.Body.Close()

	if resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("status = %d, want the second 401 surfaced", resp.StatusCode)
	}
	mu.Lock()
	defer mu.Unlock()
	if requests != 2 {
		t.Fatalf("requests = %d, want exactly 2 (original + one retry)", requests)
	}
	if sessions.refreshCalls != 1 {
		t.Fatalf("refresh calls = %d, want 1", sessions.refreshCalls)
	}
}

func TestRefreshFailurePropagates(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer server.Close()

	sessions := &fakeSessions{
		accessToken: "at-stale",
		refreshErr:  platformerrors.New(platformerrors.CodeSessionExpired, "refresh rejected"),
	}
	client := New(sessions, nil).Client()

	_, err := client.Get(server.URL)
	if err == nil {
		t.Fatal("expected error when refresh fails")
	}
	if got := platformerrors.CodeOf(err); got != platformerrors.CodeSessionExpired {
		t.Fatalf("CodeOf() = %q, want %q", got, platformerrors.CodeSessionExpired)
	}
}

func TestRetryReplaysRequestBody(t *testing.T) {
	var bodies []string
	var mu sync.Mutex
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		mu.Lock()
		bodies = append(bodies, string(body))
		n := len(bodies)
		mu.Unlock()
		if n == 1 {
			w.WriteHeader(http.StatusUnauthorized)
		}
	}))
	defer server.Close()

	sessions := &fakeSessions{
		accessToken: "at-stale",
		refreshed:   session.Session{AccessToken: "at-fresh", RefreshToken: "rt-1"},
	}
	client := New(sessions, nil).Client()

	resp, err := client.Post(server.URL, "application/json", bytes.NewReader([]byte(`{"amount":100}`)))
	if err != nil {
		t.Fatalf("Post() error = %v", err)
	}
	resp.Body.Close()

	mu.Lock()
	defer mu.Unlock()
	if len(bodies) != 2 {
		t.Fatalf("requests = %d, want 2", len(bodies))
	}
	if bodies[0] != bodies[1] || bodies[1] != `{"amount":100}` {
		t.Fatalf("bodies = %v, want identical payloads", bodies)
	}
}
