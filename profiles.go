package main

import (
	"database/sql"
	"encoding/json"
	"log"
	"net/http"
)

// Handlers for the caller's own profile: the /register, /profile and
// /deleteprofile commands of the chat surface map here.

// GET|PUT|DELETE /me/profile
func meProfileHandler(store ProfileStore, resolver *TagResolver) http.HandlerFunc {
	return authenticate(func(w http.ResponseWriter, r *http.Request) {
		userID := r.Context().Value(userIDKey).(string)

		switch r.Method {
		case http.MethodGet:
			p, ok, err := store.Get(r.Context(), userID)
			if err != nil {
				log.Println("Error fetching profile:", err)
				writeError(w, http.StatusInternalServerError, "db_error")
				return
			}
			if !ok {
				writeError(w, http.StatusNotFound, "not_registered")
				return
			}
			writeJSON(w, http.StatusOK, map[string]interface{}{
				"card": buildMatchCard(p, resolver.DisplayTagFor(r.Context(), userID)),
			})

		case http.MethodPut, http.MethodPost:
			type ProfileRequest struct {
				Name     string `json:"name"`
				Age      int    `json:"age"`
				Hobbies  string `json:"hobbies"`
				Bio      string `json:"bio"`
				Likes    string `json:"likes"`
				Dislikes string `json:"dislikes"`
			}
			var req ProfileRequest
			if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
				writeError(w, http.StatusBadRequest, "invalid_json")
				return
			}
			if req.Name == "" {
				writeError(w, http.StatusBadRequest, "missing_fields")
				return
			}
			// Age is validated once, here at the creation boundary.
			if !validAge(req.Age) {
				writeError(w, http.StatusBadRequest, "invalid_age")
				return
			}
			p := Profile{
				UserID:   userID,
				Name:     req.Name,
				Age:      req.Age,
				Hobbies:  req.Hobbies,
				Bio:      req.Bio,
				Likes:    req.Likes,
				Dislikes: req.Dislikes,
			}
			if err := store.Upsert(r.Context(), p); err != nil {
				log.Println("Error upserting profile:", err)
				writeError(w, http.StatusInternalServerError, "db_error")
				return
			}
			writeJSON(w, http.StatusOK, map[string]bool{"registered": true})

		case http.MethodDelete:
			if err := store.Delete(r.Context(), userID); err != nil {
				log.Println("Error deleting profile:", err)
				writeError(w, http.StatusInternalServerError, "db_error")
				return
			}
			writeJSON(w, http.StatusOK, map[string]bool{"deleted": true})

		default:
			writeError(w, http.StatusMethodNotAllowed, "invalid_method")
		}
	})
}

// DELETE /me
// Removes the account and its profile together; the profile row goes with
// the user row via the FK, but we delete both explicitly inside one
// transaction so partial failure can't leave an orphan.
func meDeleteHandler(db *sql.DB) http.HandlerFunc {
	return authenticate(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodDelete {
			writeError(w, http.StatusMethodNotAllowed, "invalid_method")
			return
		}
		userID := r.Context().Value(userIDKey).(string)

		err := withTx(r.Context(), db, func(tx *sql.Tx) error {
			if _, err := tx.Exec("DELETE FROM profiles WHERE user_id = $1", userID); err != nil {
				return err
			}
			_, err := tx.Exec("DELETE FROM users WHERE id = $1", userID)
			return err
		})
		if err != nil {
			log.Println("Error deleting account:", err)
			writeError(w, http.StatusInternalServerError, "db_error")
			return
		}
		writeJSON(w, http.StatusOK, map[string]bool{"deleted": true})
	})
}
