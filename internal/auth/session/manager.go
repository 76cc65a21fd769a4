package session

import (
	"context"
	"encoding/json"
	"log"
	"slices"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/meridianvest/meridian/internal/auth/identity"
	"github.com/meridianvest/meridian/internal/auth/token"
	platformerrors "github.com/meridianvest/meridian/internal/platform/errors"
	"github.com/meridianvest/meridian/internal/profile"
)

// IdentityAPI is the narrow identity surface the manager needs.
type IdentityAPI interface {
	Login(ctx context.Context, creds identity.Credentials) (identity.Grant, error)
	Register(ctx context.Context, payload identity.Registration) (identity.Grant, error)
	VerifyPhone(ctx context.Context, accessToken, otp string) (identity.Grant, error)
	Refresh(ctx context.Context, refreshToken string) (identity.Grant, error)
	Revoke(ctx context.Context, refreshToken string) error
}

// Snapshot is a consistent read of the session state.
type Snapshot struct {
	Session    Session
	Profile    *profile.UserProfile
	Generation uint64
}

// refreshCall is the shared handle for one in-flight refresh. All
// callers that arrive while it is pending wait on done and read the
// same outcome.
type refreshCall struct {
	done    chan struct{}
	session Session
	err     error
}

// Manager owns session state and is the sole writer of the token store.
type Manager struct {
	store  token.Store
	api    IdentityAPI
	tracer trace.Tracer

	mu          sync.Mutex
	current     Session
	profile     *profile.UserProfile
	generation  uint64
	inflight    *refreshCall
	nextSubID   int
	subscribers map[int]func(Event)
}

// New creates a manager and restores persisted state from the store.
//
// A half-present token pair is corruption: it is cleared and the
// manager starts logged out. Restore failures degrade to logged out
// rather than erroring; absence of storage is never fatal.
func New(ctx context.Context, store token.Store, api IdentityAPI) (*Manager, error) {
	m := &Manager{
		store:       store,
		api:         api,
		tracer:      otel.Tracer("meridianvest/session"),
		subscribers: make(map[int]func(Event)),
	}

	access, err := store.AccessToken(ctx)
	if err != nil {
		return nil, err
	}
	refresh, err := store.RefreshToken(ctx)
	if err != nil {
		return nil, err
	}

	switch {
	case access != "" && refresh != "":
		m.current = Session{
			AccessToken:  access,
			RefreshToken: refresh,
			ExpiresAt:    expiryHint(access),
		}
		if raw, err := store.Profile(ctx); err == nil && len(raw) > 0 {
			var restored profile.UserProfile
			if err := json.Unmarshal(raw, &restored); err == nil {
				m.profile = &restored
			}
		}
	case access != "" || refresh != "":
		// Corrupted pair: clear and start logged out. Resolved locally,
		// never surfaced.
		if err := store.ClearAll(ctx); err != nil {
			log.Printf("clear corrupted session: %v", err)
		}
	}

	return m, nil
}

// Current returns a snapshot of the session state.
func (m *Manager) Current() Snapshot {
	m.mu.Lock()
	defer m.mu.Unlock()
	snapshot := Snapshot{Session: m.current, Generation: m.generation}
	if m.profile != nil {
		copied := *m.profile
		snapshot.Profile = &copied
	}
	return snapshot
}

// AccessToken returns the current access token, or "" when logged out.
func (m *Manager) AccessToken() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.current.AccessToken
}

// Generation returns the current session generation. Async work started
// now should carry this value and be discarded when it no longer
// matches at completion time.
func (m *Manager) Generation() uint64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.generation
}

// Subscribe registers a listener for session transitions. Listeners are
// invoked synchronously in subscription order. The returned function
// removes the listener.
func (m *Manager) Subscribe(listener func(Event)) func() {
	m.mu.Lock()
	id := m.nextSubID
	m.nextSubID++
	m.subscribers[id] = listener
	m.mu.Unlock()
	return func() {
		m.mu.Lock()
		delete(m.subscribers, id)
		m.mu.Unlock()
	}
}

// Login exchanges credentials for a session. Credential rejections are
// surfaced verbatim; no local recovery.
func (m *Manager) Login(ctx context.Context, creds identity.Credentials) (Session, error) {
	ctx, span := m.tracer.Start(ctx, "session.login")
	defer span.End()

	grant, err := m.api.Login(ctx, creds)
	if err != nil {
		span.SetStatus(codes.Error, string(platformerrors.CodeOf(err)))
		return Session{}, err
	}
	return m.adopt(ctx, grant, true, EventSessionStarted)
}

// Register creates an account and starts its session. Validation errors
// pass through unmodified for form-level display.
func (m *Manager) Register(ctx context.Context, payload identity.Registration) (Session, error) {
	ctx, span := m.tracer.Start(ctx, "session.register")
	defer span.End()

	grant, err := m.api.Register(ctx, payload)
	if err != nil {
		span.SetStatus(codes.Error, string(platformerrors.CodeOf(err)))
		return Session{}, err
	}
	return m.adopt(ctx, grant, true, EventSessionStarted)
}

// VerifyPhone confirms the phone OTP and adopts the refreshed grant.
// The session identity continues; the generation is not advanced.
func (m *Manager) VerifyPhone(ctx context.Context, otp string) (Session, error) {
	ctx, span := m.tracer.Start(ctx, "session.verify_phone")
	defer span.End()

	m.mu.Lock()
	accessToken := m.current.AccessToken
	m.mu.Unlock()

	grant, err := m.api.VerifyPhone(ctx, accessToken, otp)
	if err != nil {
		span.SetStatus(codes.Error, string(platformerrors.CodeOf(err)))
		return Session{}, err
	}
	return m.adopt(ctx, grant, false, EventSessionRefreshed)
}

// Refresh exchanges the refresh token for a new access token.
//
// Concurrent callers are single-flighted: the first caller issues the
// network call, later callers share its pending handle, and all resolve
// with the same outcome. A definitive rejection transitions the manager
// to logged out, clears the store, and emits EventSessionEnded exactly
// once regardless of how many callers were waiting. Transport failures
// are forwarded unchanged and leave the session intact.
func (m *Manager) Refresh(ctx context.Context) (Session, error) {
	m.mu.Lock()
	if call := m.inflight; call != nil {
		m.mu.Unlock()
		select {
		case <-call.done:
			return call.session, call.err
		case <-ctx.Done():
			return Session{}, ctx.Err()
		}
	}
	if m.current.RefreshToken == "" {
		m.mu.Unlock()
		return Session{}, platformerrors.New(platformerrors.CodeSessionExpired, "no session to refresh")
	}
	call := &refreshCall{done: make(chan struct{})}
	m.inflight = call
	startGen := m.generation
	refreshToken := m.current.RefreshToken
	m.mu.Unlock()

	refreshCtx, span := m.tracer.Start(ctx, "session.refresh")
	grant, err := m.api.Refresh(refreshCtx, refreshToken)
	if err != nil {
		span.SetStatus(codes.Error, string(platformerrors.CodeOf(err)))
	}
	span.End()

	return m.finishRefresh(ctx, call, startGen, grant, err)
}

func (m *Manager) finishRefresh(ctx context.Context, call *refreshCall, startGen uint64, grant identity.Grant, err error) (Session, error) {
	var events []Event

	m.mu.Lock()
	m.inflight = nil
	switch {
	case startGen != m.generation:
		// A logout or login happened while the call was in flight. The
		// result belongs to a dead session; discard it.
		call.err = platformerrors.New(platformerrors.CodeSessionExpired, "session superseded during refresh")

	case err == nil && grant.AccessToken == "":
		// A 2xx response without an access token can never become a
		// valid pair; adopting it would strand a half-present session.
		// Fail the call and keep the current session.
		call.err = platformerrors.New(platformerrors.CodeUnknown, "identity service returned a partial grant")

	case err == nil:
		next := Session{
			AccessToken:  grant.AccessToken,
			RefreshToken: grant.RefreshToken,
			IssuedAt:     time.Now().UTC(),
			ExpiresAt:    expiryHint(grant.AccessToken),
		}
		if next.RefreshToken == "" {
			// Rotation is optional; keep the current refresh token.
			next.RefreshToken = m.current.RefreshToken
		}
		m.current = next
		call.session = next
		events = append(events, Event{Kind: EventSessionRefreshed, Generation: m.generation})
		if storeErr := m.store.SetTokens(context.WithoutCancel(ctx), next.AccessToken, next.RefreshToken); storeErr != nil {
			log.Printf("persist refreshed tokens: %v", storeErr)
		}

	case platformerrors.CodeOf(err) == platformerrors.CodeSessionExpired:
		// Terminal: the refresh token is dead. Transition to logged out.
		m.current = Session{}
		m.profile = nil
		m.generation++
		call.err = err
		events = append(events, Event{Kind: EventSessionEnded, Generation: m.generation})
		if storeErr := m.store.ClearAll(context.WithoutCancel(ctx)); storeErr != nil {
			log.Printf("clear expired session: %v", storeErr)
		}

	default:
		// Transport or unknown failure: forwarded unchanged, session
		// intact so the caller can apply its own retry policy.
		call.err = err
	}
	m.mu.Unlock()

	close(call.done)
	m.notify(events...)
	return call.session, call.err
}

// Logout ends the session. It always succeeds locally: remote revoke is
// best-effort and local state clears unconditionally.
func (m *Manager) Logout(ctx context.Context) {
	m.mu.Lock()
	refreshToken := m.current.RefreshToken
	wasAuthenticated := m.current.Authenticated()
	m.current = Session{}
	m.profile = nil
	m.generation++
	generation := m.generation
	m.mu.Unlock()

	if err := m.store.ClearAll(ctx); err != nil {
		log.Printf("clear session on logout: %v", err)
	}
	if refreshToken != "" {
		if err := m.api.Revoke(ctx, refreshToken); err != nil {
			log.Printf("revoke session: %v", err)
		}
	}
	if wasAuthenticated {
		m.notify(Event{Kind: EventSessionEnded, Generation: generation})
	}
}

// UpdateProfile adopts a freshly fetched profile snapshot. The fetch
// must carry the generation captured when it started; a snapshot from a
// stale generation is discarded. Reports whether the update was adopted.
func (m *Manager) UpdateProfile(ctx context.Context, fetched profile.UserProfile, generation uint64) bool {
	m.mu.Lock()
	if generation != m.generation || !m.current.Authenticated() {
		m.mu.Unlock()
		return false
	}
	copied := fetched
	m.profile = &copied
	current := m.generation
	m.mu.Unlock()

	if raw, err := json.Marshal(fetched); err == nil {
		if storeErr := m.store.SetProfile(ctx, raw); storeErr != nil {
			log.Printf("persist profile: %v", storeErr)
		}
	}
	m.notify(Event{Kind: EventProfileUpdated, Generation: current})
	return true
}

// adopt installs a grant as the current session, persists it, and
// notifies subscribers. bumpGeneration marks a new session identity
// (login/register) so stale async results are discarded.
func (m *Manager) adopt(ctx context.Context, grant identity.Grant, bumpGeneration bool, kind EventKind) (Session, error) {
	if grant.AccessToken == "" || grant.RefreshToken == "" {
		return Session{}, platformerrors.New(platformerrors.CodeUnknown, "identity service returned a partial grant")
	}

	next := Session{
		AccessToken:  grant.AccessToken,
		RefreshToken: grant.RefreshToken,
		IssuedAt:     time.Now().UTC(),
		ExpiresAt:    expiryHint(grant.AccessToken),
	}

	var adopted *profile.UserProfile
	if len(grant.User) > 0 {
		var parsed profile.UserProfile
		if err := json.Unmarshal(grant.User, &parsed); err == nil {
			adopted = &parsed
		}
	}

	m.mu.Lock()
	m.current = next
	if bumpGeneration {
		m.generation++
	}
	if adopted != nil {
		m.profile = adopted
	}
	generation := m.generation
	m.mu.Unlock()

	if err := m.store.SetTokens(ctx, next.AccessToken, next.RefreshToken); err != nil {
		log.Printf("persist session tokens: %v", err)
	}
	if adopted != nil {
		if raw, err := json.Marshal(*adopted); err == nil {
			if storeErr := m.store.SetProfile(ctx, raw); storeErr != nil {
				log.Printf("persist profile: %v", storeErr)
			}
		}
	}

	events := []Event{{Kind: kind, Generation: generation}}
	if adopted != nil {
		events = append(events, Event{Kind: EventProfileUpdated, Generation: generation})
	}
	m.notify(events...)
	return next, nil
}

// notify fans events out to subscribers outside the state lock.
func (m *Manager) notify(events ...Event) {
	if len(events) == 0 {
		return
	}
	m.mu.Lock()
	ids := make([]int, 0, len(m.subscribers))
	for id := range m.subscribers {
		ids = append(ids, id)
	}
	slices.Sort(ids)
	listeners := make([]func(Event), 0, len(ids))
	for _, id := range ids {
		listeners = append(listeners, m.subscribers[id])
	}
	m.mu.Unlock()

	for _, event := range events {
		for _, listener := range listeners {
			listener(event)
		}
	}
}
