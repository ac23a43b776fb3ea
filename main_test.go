package main

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"
)

// Shared test doubles. The core only touches the store, the notifier and the
// tag resolver through their interfaces, so the suite runs without a live
// database or any open sockets.

func init() {
	jwtSecret = []byte("test-secret-key-for-testing")
}

// memStore is an in-memory ProfileStore.
type memStore struct {
	mu       sync.Mutex
	profiles map[string]Profile
}

func newMemStore() *memStore {
	return &memStore{profiles: make(map[string]Profile)}
}

func (s *memStore) Get(_ context.Context, userID string) (Profile, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.profiles[userID]
	return p, ok, nil
}

func (s *memStore) Upsert(_ context.Context, p Profile) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if existing, ok := s.profiles[p.UserID]; ok {
		p.CreatedAt = existing.CreatedAt
	} else if p.CreatedAt.IsZero() {
		p.CreatedAt = time.Now()
	}
	s.profiles[p.UserID] = p
	return nil
}

func (s *memStore) ListAllExcept(_ context.Context, userID string) ([]Profile, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []Profile
	for id, p := range s.profiles {
		if id != userID {
			out = append(out, p)
		}
	}
	return out, nil
}

func (s *memStore) Delete(_ context.Context, userID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.profiles, userID)
	return nil
}

// recordingNotifier records every delivery and can simulate unreachable
// users (the "DMs closed" case).
type recordingNotifier struct {
	mu      sync.Mutex
	events  map[string][]ServerEvent
	offline map[string]bool
}

func newRecordingNotifier() *recordingNotifier {
	return &recordingNotifier{
		events:  make(map[string][]ServerEvent),
		offline: make(map[string]bool),
	}
}

func (n *recordingNotifier) SendDirect(userID string, evt ServerEvent) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.offline[userID] {
		return fmt.Errorf("user %s has no open notification socket", userID)
	}
	n.events[userID] = append(n.events[userID], evt)
	return nil
}

func (n *recordingNotifier) setOffline(userID string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.offline[userID] = true
}

func (n *recordingNotifier) eventsFor(userID string) []ServerEvent {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]ServerEvent(nil), n.events[userID]...)
}

// testToken signs a bearer token for userID with the test secret.
func testToken(t *testing.T, userID string) string {
	t.Helper()
	token, err := signToken(userID)
	if err != nil {
		t.Fatalf("failed to sign test token: %v", err)
	}
	return token
}

// testProfile builds a valid profile with a controllable creation time.
func testProfile(id, name string, age int, hobbies string, createdAt time.Time) Profile {
	return Profile{
		UserID:    id,
		Name:      name,
		Age:       age,
		Hobbies:   hobbies,
		Bio:       "bio of " + name,
		Likes:     "cats",
		Dislikes:  "mondays",
		CreatedAt: createdAt,
	}
}
