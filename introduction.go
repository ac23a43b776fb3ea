package main

import (
	"log"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
)

// Consent decisions a target can make, exactly once.
const (
	decisionAccept = "accept"
	decisionIgnore = "ignore"
)

// Default consent window, matching the original interactive surface.
const defaultIntroductionTTL = 180 * time.Second

// IntroductionRequest is one mediated handshake between an initiator and a
// target. The initiator's profile is snapshotted at selection time and never
// re-fetched. The responded flag is single-use: whoever wins the
// compare-and-set — a consent decision or the lapse sweep — owns the terminal
// transition, so notifications can never double-fire.
type IntroductionRequest struct {
	ID               string
	InitiatorID      string
	TargetID         string
	InitiatorProfile Profile
	InitiatorTag     string

	createdAt time.Time
	responded atomic.Bool
}

// Pending reports whether no consent decision has landed yet.
func (r *IntroductionRequest) Pending() bool {
	return !r.responded.Load()
}

// IntroductionTable is the registry of in-flight introduction requests.
// Requests are independent of the browse session that spawned them: closing
// the session does not cancel them.
type IntroductionTable struct {
	mu       sync.RWMutex
	requests map[string]*IntroductionRequest
	ttl      time.Duration
}

func newIntroductionTable(ttl time.Duration) *IntroductionTable {
	return &IntroductionTable{
		requests: make(map[string]*IntroductionRequest),
		ttl:      ttl,
	}
}

// Start runs phase 1: records the request and notifies both parties. The two
// delivery attempts are independent; a failure on either is returned as a
// soft warning and never aborts the rest of the flow.
func (t *IntroductionTable) Start(initiator Profile, initiatorTag, targetID string, notifier Notifier) (*IntroductionRequest, []string) {
	req := &IntroductionRequest{
		ID:               uuid.NewString(),
		InitiatorID:      initiator.UserID,
		TargetID:         targetID,
		InitiatorProfile: initiator,
		InitiatorTag:     initiatorTag,
		createdAt:        time.Now(),
	}
	t.mu.Lock()
	t.requests[req.ID] = req
	t.mu.Unlock()

	var warnings []string

	// Invite the target to decide, showing who is asking.
	err := notifier.SendDirect(targetID, ServerEvent{
		Type: "introduction_request",
		From: initiator.UserID,
		Data: map[string]any{
			"request_id": req.ID,
			"card":       buildMatchCard(initiator, initiatorTag),
			"decisions":  []string{decisionAccept, decisionIgnore},
		},
	})
	if err != nil {
		log.Printf("introduction %s: could not reach target %s: %v", req.ID, targetID, err)
		warnings = append(warnings, "could not reach this user")
	}

	// Confirm to the initiator and hand them a direct-contact affordance.
	err = notifier.SendDirect(initiator.UserID, ServerEvent{
		Type: "introduction_sent",
		Data: map[string]any{
			"request_id": req.ID,
			"target_id":  targetID,
		},
	})
	if err != nil {
		log.Printf("introduction %s: could not confirm to initiator %s: %v", req.ID, initiator.UserID, err)
		warnings = append(warnings, "could not reach this user")
	}

	return req, warnings
}

// Outcomes of Respond.
type respondStatus string

const (
	respondAcknowledged     respondStatus = "acknowledged"
	respondAlreadyResponded respondStatus = "already_responded"
	respondNotFound         respondStatus = "not_found"
	respondForbidden        respondStatus = "forbidden"
)

// Respond runs phase 2 for one consent decision. The first decision of either
// kind wins the flag and is terminal; any later decision — a double click, a
// retry — gets respondAlreadyResponded and produces no notifications.
//
// On accept the initiator is told the target's identifier so they can make
// direct contact. On ignore the initiator hears nothing: rejections are not
// broadcast back. A delivery failure never reverses the recorded decision.
func (t *IntroductionTable) Respond(requestID, responderID, decision string, notifier Notifier) respondStatus {
	t.mu.RLock()
	req, ok := t.requests[requestID]
	t.mu.RUnlock()
	if !ok {
		return respondNotFound
	}
	if req.TargetID != responderID {
		return respondForbidden
	}

	if !req.responded.CompareAndSwap(false, true) {
		return respondAlreadyResponded
	}

	if decision == decisionAccept {
		err := notifier.SendDirect(req.InitiatorID, ServerEvent{
			Type: "introduction_accepted",
			From: req.TargetID,
			Data: map[string]any{
				"request_id": req.ID,
				"target_id":  req.TargetID,
			},
		})
		if err != nil {
			// Acceptance stands even if the initiator is unreachable.
			log.Printf("introduction %s: accepted but could not notify initiator %s: %v", req.ID, req.InitiatorID, err)
		}
	}

	// The request stays in the table until the janitor collects it, so a
	// duplicate decision still gets the already-responded answer instead of
	// looking like an unknown request.
	return respondAcknowledged
}

// PendingFor lists the requests still awaiting a decision from userID,
// newest first not guaranteed — callers sort if they care.
func (t *IntroductionTable) PendingFor(userID string) []*IntroductionRequest {
	t.mu.RLock()
	defer t.mu.RUnlock()
	var pending []*IntroductionRequest
	for _, req := range t.requests {
		if req.TargetID == userID && req.Pending() {
			pending = append(pending, req)
		}
	}
	return pending
}

// sweep lapses requests older than the TTL. The lapse is silent — neither
// party is notified — and it claims the single-use flag, so a late decision
// racing the sweep either wins (and notifies normally) or sees
// already-responded. It can never notify twice.
func (t *IntroductionTable) sweep(now time.Time) {
	t.mu.Lock()
	defer t.mu.Unlock()
	for id, req := range t.requests {
		if now.Sub(req.createdAt) <= t.ttl {
			continue
		}
		// Claim the flag so a late decision holding a stale pointer
		// cannot notify after the lapse.
		req.responded.CompareAndSwap(false, true)
		// Responded requests past the TTL are just garbage by now.
		delete(t.requests, id)
	}
}

func (t *IntroductionTable) startJanitor(interval time.Duration) {
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for range ticker.C {
			t.sweep(time.Now())
		}
	}()
}
