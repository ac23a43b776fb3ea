package main

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// ============================================================================
// BROWSE SESSION TEST SUITE
// ============================================================================

func rankedTriple() []ScoredCandidate {
	return []ScoredCandidate{
		{Score: 12, Profile: testProfile("first", "First", 20, "chess", t0)},
		{Score: 10, Profile: testProfile("second", "Second", 20, "hiking", t0)},
		{Score: 8, Profile: testProfile("third", "Third", 21, "chess", t0)},
	}
}

func TestSessionCurrentAndSkip(t *testing.T) {
	table := newSessionTable(defaultSessionTTL)
	sess := table.Create("me", rankedTriple())

	cur, ok := sess.Current()
	require.True(t, ok)
	assert.Equal(t, "first", cur.Profile.UserID)

	next, state := sess.Skip()
	assert.Equal(t, sessionActive, state)
	assert.Equal(t, "second", next.Profile.UserID)

	next, state = sess.Skip()
	assert.Equal(t, sessionActive, state)
	assert.Equal(t, "third", next.Profile.UserID)

	_, state = sess.Skip()
	assert.Equal(t, sessionExhausted, state)

	// Terminal states stick: further skips report the same state
	_, state = sess.Skip()
	assert.Equal(t, sessionExhausted, state)
	_, ok = sess.Current()
	assert.False(t, ok)
}

func TestSessionSkipNeverRevisitsSkipped(t *testing.T) {
	table := newSessionTable(defaultSessionTTL)
	sess := table.Create("me", rankedTriple())

	seen := map[string]int{}
	for {
		cur, ok := sess.Current()
		if !ok {
			break
		}
		seen[cur.Profile.UserID]++
		sess.Skip()
	}
	for id, n := range seen {
		assert.Equalf(t, 1, n, "candidate %s shown %d times", id, n)
	}
}

func TestSessionSelectDoesNotAdvance(t *testing.T) {
	table := newSessionTable(defaultSessionTTL)
	sess := table.Create("me", rankedTriple())

	picked, ok := sess.Select()
	require.True(t, ok)
	assert.Equal(t, "first", picked.Profile.UserID)

	// Selecting does not consume the slot
	cur, ok := sess.Current()
	require.True(t, ok)
	assert.Equal(t, "first", cur.Profile.UserID)

	// Skipping afterwards still works on the same candidate
	next, state := sess.Skip()
	assert.Equal(t, sessionActive, state)
	assert.Equal(t, "second", next.Profile.UserID)
}

func TestSessionClosedIsTerminal(t *testing.T) {
	table := newSessionTable(defaultSessionTTL)
	sess := table.Create("me", rankedTriple())
	table.Remove(sess.ID)

	_, ok := sess.Current()
	assert.False(t, ok)
	_, state := sess.Skip()
	assert.Equal(t, sessionClosed, state)
	_, ok = sess.Select()
	assert.False(t, ok)

	_, found := table.Get(sess.ID)
	assert.False(t, found)
}

func TestSessionExpiry(t *testing.T) {
	table := newSessionTable(10 * time.Millisecond)
	sess := table.Create("me", rankedTriple())

	// Fresh sessions are reachable
	_, found := table.Get(sess.ID)
	require.True(t, found)

	time.Sleep(25 * time.Millisecond)

	// Lazy expiry on Get
	_, found = table.Get(sess.ID)
	assert.False(t, found)
	_, state := sess.Skip()
	assert.Equal(t, sessionClosed, state)
}

func TestSessionSweepClosesIdleSessions(t *testing.T) {
	table := newSessionTable(10 * time.Millisecond)
	sess := table.Create("me", rankedTriple())

	table.sweep(time.Now().Add(time.Second))

	_, found := table.Get(sess.ID)
	assert.False(t, found)
	_, ok := sess.Current()
	assert.False(t, ok)
}

func TestSessionCursorMonotonic(t *testing.T) {
	table := newSessionTable(defaultSessionTTL)
	sess := table.Create("me", rankedTriple())

	prev := -1
	for {
		sess.mu.Lock()
		idx := sess.index
		sess.mu.Unlock()
		require.GreaterOrEqual(t, idx, prev, "cursor moved backward")
		prev = idx

		if _, state := sess.Skip(); state != sessionActive {
			break
		}
	}
}

func TestSessionsAreIndependentPerRequester(t *testing.T) {
	table := newSessionTable(defaultSessionTTL)
	a := table.Create("alice", rankedTriple())
	b := table.Create("bob", rankedTriple())

	a.Skip()
	a.Skip()

	cur, ok := b.Current()
	require.True(t, ok)
	assert.Equal(t, "first", cur.Profile.UserID, "bob's session must not move with alice's")
}
