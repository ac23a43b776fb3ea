package main

import (
	"log"
	"net/http"
	"os"
	"time"

	"github.com/joho/godotenv"
)

// JWT secret from environment variable or fallback
func getJWTSecret() []byte {
	if secret := os.Getenv("JWT_SECRET"); secret != "" {
		return []byte(secret)
	}
	return []byte("your_secret_key_please_change_in_production")
}

var jwtSecret = getJWTSecret()

func main() {
	// Load .env if present; real deployments set the environment directly
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file loaded:", err)
	}
	jwtSecret = getJWTSecret()

	initDB()

	store := newPostgresProfiles(db)
	resolver := newTagResolver(db)
	notifyHub := newHub()

	sessions := newSessionTable(defaultSessionTTL)
	sessions.startJanitor(30 * time.Second)
	introductions := newIntroductionTable(defaultIntroductionTTL)
	introductions.startJanitor(30 * time.Second)

	mux := http.NewServeMux()

	// Accounts
	mux.Handle("/register", registerHandler(db))
	mux.Handle("/login", loginHandler(db))
	mux.Handle("/me", meDeleteHandler(db))
	mux.Handle("/me/profile", meProfileHandler(store, resolver))

	// Matching & browsing
	mux.Handle("/matchme", matchMeHandler(store, sessions, resolver))
	mux.Handle("/sessions/", sessionsActionsRouter(store, sessions, introductions, notifyHub, resolver))

	// Introductions (two-sided consent)
	mux.Handle("/introductions", introductionsHandler(introductions))
	mux.Handle("/introductions/", introductionsActionsRouter(introductions, notifyHub))

	// Direct notification socket
	mux.Handle("/ws/notifications", wsNotificationsHandler(notifyHub))

	// Health check endpoint for Docker
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"status":"ok"}`))
	})

	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}
	log.Default().Println("Starting FriendFinder backend on port " + port + "...")
	http.ListenAndServe(":"+port, withCORS(mux))
}
