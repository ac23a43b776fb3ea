package main

import (
	"sync"
	"time"

	"github.com/google/uuid"
)

// Browse-session states. A session never returns to Active once it has left.
type sessionState string

const (
	sessionActive    sessionState = "active"
	sessionExhausted sessionState = "exhausted"
	sessionClosed    sessionState = "closed"
)

// Default inactivity timeout, matching the original interactive surface.
const defaultSessionTTL = 120 * time.Second

// BrowseSession is a cursor over one ranked candidate list. The list is fixed
// at creation and never re-ranked mid-session, even if profiles change
// underneath — staleness is accepted for snappy interaction.
type BrowseSession struct {
	ID     string
	UserID string

	mu         sync.Mutex
	matches    []ScoredCandidate
	index      int
	skipped    map[string]struct{}
	state      sessionState
	lastActive time.Time
}

// Current returns the candidate at the cursor, or false when the session is
// exhausted or closed.
func (s *BrowseSession) Current() (ScoredCandidate, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.currentLocked()
}

func (s *BrowseSession) currentLocked() (ScoredCandidate, bool) {
	if s.state != sessionActive || s.index >= len(s.matches) {
		return ScoredCandidate{}, false
	}
	return s.matches[s.index], true
}

// Skip dismisses the current candidate and advances the cursor to the next
// candidate not already skipped. The cursor only ever moves forward. Returns
// the new current candidate and the resulting state; calling Skip on a
// terminal session is a no-op that reports that state.
func (s *BrowseSession) Skip() (ScoredCandidate, sessionState) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state != sessionActive {
		return ScoredCandidate{}, s.state
	}
	s.lastActive = time.Now()

	if cur, ok := s.currentLocked(); ok {
		s.skipped[cur.Profile.UserID] = struct{}{}
	}
	for s.index < len(s.matches) {
		s.index++
		if s.index >= len(s.matches) {
			break
		}
		if _, gone := s.skipped[s.matches[s.index].Profile.UserID]; !gone {
			return s.matches[s.index], sessionActive
		}
	}
	s.state = sessionExhausted
	return ScoredCandidate{}, sessionExhausted
}

// Select returns the current candidate for handoff to the introduction
// protocol. Selecting does not consume the slot: the cursor stays put, and a
// later Skip still works on the same candidate.
func (s *BrowseSession) Select() (ScoredCandidate, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state != sessionActive {
		return ScoredCandidate{}, false
	}
	s.lastActive = time.Now()
	return s.currentLocked()
}

func (s *BrowseSession) close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state = sessionClosed
}

func (s *BrowseSession) expired(ttl time.Duration, now time.Time) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return now.Sub(s.lastActive) > ttl
}

// SessionTable is the addressable registry of live browse sessions, keyed by
// session id rather than captured in any UI callback.
type SessionTable struct {
	mu       sync.RWMutex
	sessions map[string]*BrowseSession
	ttl      time.Duration
}

func newSessionTable(ttl time.Duration) *SessionTable {
	return &SessionTable{
		sessions: make(map[string]*BrowseSession),
		ttl:      ttl,
	}
}

// Create registers a new active session over an already-ranked candidate
// list. Callers must pass a non-empty list.
func (t *SessionTable) Create(userID string, matches []ScoredCandidate) *BrowseSession {
	s := &BrowseSession{
		ID:         uuid.NewString(),
		UserID:     userID,
		matches:    matches,
		skipped:    make(map[string]struct{}),
		state:      sessionActive,
		lastActive: time.Now(),
	}
	t.mu.Lock()
	t.sessions[s.ID] = s
	t.mu.Unlock()
	return s
}

// Get returns the live session for id. Expired sessions are closed and
// dropped lazily here, so a caller racing the janitor sees them as gone.
func (t *SessionTable) Get(id string) (*BrowseSession, bool) {
	t.mu.RLock()
	s, ok := t.sessions[id]
	t.mu.RUnlock()
	if !ok {
		return nil, false
	}
	if s.expired(t.ttl, time.Now()) {
		t.Remove(id)
		return nil, false
	}
	return s, true
}

// Remove closes and drops a session (explicit end or exhaustion).
func (t *SessionTable) Remove(id string) {
	t.mu.Lock()
	s, ok := t.sessions[id]
	delete(t.sessions, id)
	t.mu.Unlock()
	if ok {
		s.close()
	}
}

// sweep drops every session idle longer than the TTL.
func (t *SessionTable) sweep(now time.Time) {
	t.mu.Lock()
	var stale []*BrowseSession
	for id, s := range t.sessions {
		if s.expired(t.ttl, now) {
			stale = append(stale, s)
			delete(t.sessions, id)
		}
	}
	t.mu.Unlock()
	for _, s := range stale {
		s.close()
	}
}

// startJanitor sweeps expired sessions in the background.
func (t *SessionTable) startJanitor(interval time.Duration) {
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for range ticker.C {
			t.sweep(time.Now())
		}
	}()
}
