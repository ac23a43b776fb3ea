package main

import (
	"log"
	"net/http"
	"strings"
)

// Browsing surface: /matchme builds a ranked session, /sessions/{id}/skip and
// /sessions/{id}/select drive it. The candidate list is fixed when the
// session is created; skips only move the cursor.

// POST /matchme
func matchMeHandler(store ProfileStore, sessions *SessionTable, resolver *TagResolver) http.HandlerFunc {
	return authenticate(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			writeError(w, http.StatusMethodNotAllowed, "invalid_method")
			return
		}
		userID := r.Context().Value(userIDKey).(string)

		requester, ok, err := store.Get(r.Context(), userID)
		if err != nil {
			log.Println("Error fetching requester profile:", err)
			writeError(w, http.StatusInternalServerError, "db_error")
			return
		}
		if !ok {
			// Precondition fault: no session is created, nothing ranked.
			writeError(w, http.StatusForbidden, "not_registered")
			return
		}

		candidates, err := store.ListAllExcept(r.Context(), userID)
		if err != nil {
			log.Println("Error listing candidate profiles:", err)
			writeError(w, http.StatusInternalServerError, "db_error")
			return
		}

		matches := rankCandidates(requester, candidates, nil)
		if len(matches) == 0 {
			writeError(w, http.StatusNotFound, "no_matches")
			return
		}

		sess := sessions.Create(userID, matches)
		best := matches[0]
		writeJSON(w, http.StatusOK, map[string]interface{}{
			"session_id":   sess.ID,
			"card":         buildMatchCard(best.Profile, resolver.DisplayTagFor(r.Context(), best.Profile.UserID)),
			"score":        best.Score,
			"capabilities": browseCapabilities,
		})
	})
}

// A dispatcher router function for all /sessions/{id}/... requests
func sessionsActionsRouter(store ProfileStore, sessions *SessionTable, introductions *IntroductionTable, notifier Notifier, resolver *TagResolver) http.HandlerFunc {
	return authenticate(func(w http.ResponseWriter, r *http.Request) {
		parts := strings.Split(strings.Trim(r.URL.Path, "/"), "/")
		if len(parts) != 3 || parts[0] != "sessions" || r.Method != http.MethodPost {
			http.NotFound(w, r)
			return
		}
		sessionID := parts[1]
		userID := r.Context().Value(userIDKey).(string)

		sess, ok := sessions.Get(sessionID)
		if !ok {
			// Timed out, exhausted earlier, or never existed: same answer.
			writeError(w, http.StatusGone, "no_longer_active")
			return
		}
		if sess.UserID != userID {
			writeError(w, http.StatusForbidden, "not_your_session")
			return
		}

		switch parts[2] {
		case "skip":
			skipHandler(sessions, resolver, sess).ServeHTTP(w, r)
		case "select":
			selectHandler(store, introductions, notifier, resolver, sess).ServeHTTP(w, r)
		default:
			http.NotFound(w, r)
		}
	})
}

// POST /sessions/{id}/skip
// Dismisses the current candidate and shows the next one.
func skipHandler(sessions *SessionTable, resolver *TagResolver, sess *BrowseSession) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		next, state := sess.Skip()
		if state != sessionActive {
			// Exhausted sessions are gone for good; drop them now rather
			// than waiting for the janitor.
			sessions.Remove(sess.ID)
			writeJSON(w, http.StatusOK, map[string]interface{}{"state": string(state)})
			return
		}
		writeJSON(w, http.StatusOK, map[string]interface{}{
			"state":        string(state),
			"card":         buildMatchCard(next.Profile, resolver.DisplayTagFor(r.Context(), next.Profile.UserID)),
			"score":        next.Score,
			"capabilities": browseCapabilities,
		})
	}
}

// POST /sessions/{id}/select
// Starts an introduction with the current candidate. The selection does not
// consume the slot: the browser can still skip past the same candidate, and
// the introduction outlives the session.
func selectHandler(store ProfileStore, introductions *IntroductionTable, notifier Notifier, resolver *TagResolver, sess *BrowseSession) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		candidate, ok := sess.Select()
		if !ok {
			writeError(w, http.StatusConflict, "no_current_candidate")
			return
		}

		// Snapshot the initiator's profile now; the protocol never
		// re-fetches it.
		initiator, ok, err := store.Get(r.Context(), sess.UserID)
		if err != nil {
			log.Println("Error fetching initiator profile:", err)
			writeError(w, http.StatusInternalServerError, "db_error")
			return
		}
		if !ok {
			writeError(w, http.StatusForbidden, "not_registered")
			return
		}

		initiatorTag := resolver.DisplayTagFor(r.Context(), initiator.UserID)
		req, warnings := introductions.Start(initiator, initiatorTag, candidate.Profile.UserID, notifier)

		resp := map[string]interface{}{
			"state":      "introduction_sent",
			"request_id": req.ID,
			"target_id":  candidate.Profile.UserID,
		}
		if len(warnings) > 0 {
			resp["warnings"] = warnings
		}
		writeJSON(w, http.StatusOK, resp)
	}
}
