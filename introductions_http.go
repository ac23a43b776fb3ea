package main

import (
	"net/http"
	"sort"
	"strings"
)

// Consent surface for introduction requests.

// GET /introductions
// Lists the incoming requests still waiting on the caller's decision,
// oldest first so the longest-waiting initiator surfaces on top.
func introductionsHandler(introductions *IntroductionTable) http.HandlerFunc {
	return authenticate(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			writeError(w, http.StatusMethodNotAllowed, "invalid_method")
			return
		}
		userID := r.Context().Value(userIDKey).(string)

		pending := introductions.PendingFor(userID)
		sort.Slice(pending, func(i, j int) bool {
			return pending[i].createdAt.Before(pending[j].createdAt)
		})

		type pendingIntro struct {
			RequestID string    `json:"request_id"`
			From      MatchCard `json:"from"`
			Decisions []string  `json:"decisions"`
		}
		out := make([]pendingIntro, 0, len(pending))
		for _, req := range pending {
			out = append(out, pendingIntro{
				RequestID: req.ID,
				From:      buildMatchCard(req.InitiatorProfile, req.InitiatorTag),
				Decisions: []string{decisionAccept, decisionIgnore},
			})
		}
		writeJSON(w, http.StatusOK, map[string]interface{}{"introductions": out})
	})
}

// A dispatcher router function for all /introductions/{id}/... requests
func introductionsActionsRouter(introductions *IntroductionTable, notifier Notifier) http.HandlerFunc {
	return authenticate(func(w http.ResponseWriter, r *http.Request) {
		parts := strings.Split(strings.Trim(r.URL.Path, "/"), "/")
		if len(parts) != 3 || parts[0] != "introductions" || r.Method != http.MethodPost {
			http.NotFound(w, r)
			return
		}
		requestID := parts[1]

		var decision string
		switch parts[2] {
		case "accept":
			decision = decisionAccept
		case "ignore":
			decision = decisionIgnore
		default:
			http.NotFound(w, r)
			return
		}

		userID := r.Context().Value(userIDKey).(string)
		switch introductions.Respond(requestID, userID, decision, notifier) {
		case respondAcknowledged:
			// Private acknowledgement to the responder; on ignore this is
			// all that ever happens — the initiator hears nothing.
			writeJSON(w, http.StatusOK, map[string]string{
				"state":    "acknowledged",
				"decision": decision,
			})
		case respondAlreadyResponded:
			writeError(w, http.StatusConflict, "already_responded")
		case respondForbidden:
			writeError(w, http.StatusForbidden, "not_your_request")
		default:
			// Unknown or lapsed: either way there is nothing to decide.
			writeError(w, http.StatusNotFound, "not_found")
		}
	})
}
