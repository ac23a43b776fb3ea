package main

import "time"

// Profile represents a user's registered matching attributes.
// The core treats a Profile as an immutable snapshot for the duration of one
// ranking/browsing operation; only the store mutates it.
type Profile struct {
	UserID    string    `json:"user_id"`
	Name      string    `json:"name"`
	Age       int       `json:"age"`
	Hobbies   string    `json:"hobbies"` // comma-delimited, normalized at scoring time
	Bio       string    `json:"bio"`
	Likes     string    `json:"likes"`
	Dislikes  string    `json:"dislikes"`
	CreatedAt time.Time `json:"created_at"`
}

// ScoredCandidate pairs a candidate profile with its compatibility score.
// Lives only for the duration of one browse session.
type ScoredCandidate struct {
	Score   int     `json:"score"`
	Profile Profile `json:"profile"`
}

// MatchCard is the full-field presentation payload for one candidate.
// The caller renders it however it likes; the core only decides what is shown.
type MatchCard struct {
	DisplayTag string `json:"display_tag"`
	Name       string `json:"name"`
	Age        int    `json:"age"`
	Bio        string `json:"bio,omitempty"`
	Hobbies    string `json:"hobbies,omitempty"`
	Likes      string `json:"likes,omitempty"`
	Dislikes   string `json:"dislikes,omitempty"`
	UserID     string `json:"user_id"`
}

func buildMatchCard(p Profile, displayTag string) MatchCard {
	return MatchCard{
		DisplayTag: displayTag,
		Name:       p.Name,
		Age:        p.Age,
		Bio:        p.Bio,
		Hobbies:    p.Hobbies,
		Likes:      p.Likes,
		Dislikes:   p.Dislikes,
		UserID:     p.UserID,
	}
}

// browseCapabilities is the action set the presentation layer may render for
// an active session. Queried by clients, not hard-coded, so surfaces can merge
// or split buttons without the core caring.
var browseCapabilities = []string{"advance", "select"}
