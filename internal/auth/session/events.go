package session

// EventKind identifies a session transition.
type EventKind string

const (
	// EventSessionStarted fires after a successful login or register.
	EventSessionStarted EventKind = "session_started"

	// EventSessionRefreshed fires after a token rotation, including the
	// grant returned by phone verification.
	EventSessionRefreshed EventKind = "session_refreshed"

	// EventSessionEnded fires exactly once per transition to logged
	// out, whether by logout or by terminal refresh failure.
	EventSessionEnded EventKind = "session_ended"

	// EventProfileUpdated fires when a new profile snapshot is adopted.
	EventProfileUpdated EventKind = "profile_updated"
)

// Event notifies subscribers of a session transition. Generation is the
// session generation after the transition.
type Event struct {
	Kind       EventKind
	Generation uint64
}
