package auth

import (
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/mesh-intelligence/qmva/pkg/types"
)

// DefaultTTL is how long an idle session stays valid.
const DefaultTTL = 12 * time.Hour

// Sessions is an in-memory session table keyed by opaque ids. Sessions are
// lost on restart and users log in again.
type Sessions struct {
	mu      sync.Mutex
	ttl     time.Duration
	now     func() time.Time
	entries map[string]sessionEntry
}

type sessionEntry struct {
	session  types.Session
	lastSeen time.Time
}

// NewSessions returns an empty table. A non-positive ttl means DefaultTTL;
// a nil clock means time.Now.
func NewSessions(ttl time.Duration, now func() time.Time) *Sessions {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	if now == nil {
		now = time.Now
	}
	return &Sessions{ttl: ttl, now: now, entries: make(map[string]sessionEntry)}
}

// Create starts a new session and drops every expired one.
func (s *Sessions) Create(authorized bool) types.Session {
	sess := types.Session{ID: newID(), Authorized: authorized}
	s.mu.Lock()
	defer s.mu.Unlock()
	now := s.now()
	for id, e := range s.entries {
		if now.Sub(e.lastSeen) > s.ttl {
			delete(s.entries, id)
		}
	}
	s.entries[sess.ID] = sessionEntry{session: sess, lastSeen: now}
	return sess
}

// Get returns the session for id and refreshes its idle timer. Expired
// sessions are removed and reported as missing.
func (s *Sessions) Get(id string) (types.Session, bool) {
	if id == "" {
		return types.Session{}, false
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.entries[id]
	if !ok {
		return types.Session{}, false
	}
	now := s.now()
	if now.Sub(e.lastSeen) > s.ttl {
		delete(s.entries, id)
		return types.Session{}, false
	}
	e.lastSeen = now
	s.entries[id] = e
	return e.session, true
}

// Delete ends a session. Unknown ids are ignored.
func (s *Sessions) Delete(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.entries, id)
}

// Len returns the number of live and not yet collected sessions.
func (s *Sessions) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.entries)
}

// newID returns a time-ordered UUID v7, falling back to v4.
func newID() string {
	id, err := uuid.NewV7()
	if err != nil {
		return uuid.New().String()
	}
	return id.String()
}
