package main

import (
	"sort"
	"strings"
)

// Matching weights. Age proximity dominates a single shared hobby but a broad
// hobby overlap can outrank a close age.
const (
	sameAgeScore     = 10
	nearAgeScore     = 6 // |diff| of 1 or 2
	sharedHobbyScore = 2 // per distinct shared token
)

// Ages accepted at profile creation. Candidate records outside this range are
// treated as corrupt store data and skipped during ranking.
const (
	minAge = 10
	maxAge = 120
)

func validAge(age int) bool {
	return age >= minAge && age <= maxAge
}

// normalizeHobbies splits a comma-delimited hobby string into a set of
// trimmed, lower-cased tokens. "Chess, Reading" and "chess,reading " produce
// the same set.
func normalizeHobbies(raw string) map[string]struct{} {
	set := make(map[string]struct{})
	for _, tok := range strings.Split(raw, ",") {
		tok = strings.ToLower(strings.TrimSpace(tok))
		if tok != "" {
			set[tok] = struct{}{}
		}
	}
	return set
}

func ageProximityScore(a, b int) int {
	diff := a - b
	if diff < 0 {
		diff = -diff
	}
	switch {
	case diff == 0:
		return sameAgeScore
	case diff <= 2:
		return nearAgeScore
	default:
		return 0
	}
}

func sharedHobbyCount(userHobbies map[string]struct{}, candidateRaw string) int {
	shared := 0
	for tok := range normalizeHobbies(candidateRaw) {
		if _, ok := userHobbies[tok]; ok {
			shared++
		}
	}
	return shared
}

// rankCandidates scores every candidate against the requester and returns the
// matches ordered best-first.
//
// Rules:
//   - the requester themselves and anyone in skipped are never considered
//   - candidates with a malformed age are skipped so one corrupt record
//     can't deny everyone else's matches
//   - a total score of 0 is not a match and is dropped
//   - order is score descending, ties broken by earlier created_at
//
// Pure function over its inputs; no I/O, safe to call repeatedly.
func rankCandidates(requester Profile, candidates []Profile, skipped map[string]struct{}) []ScoredCandidate {
	userHobbies := normalizeHobbies(requester.Hobbies)

	var matches []ScoredCandidate
	for _, c := range candidates {
		if c.UserID == requester.UserID {
			continue
		}
		if _, gone := skipped[c.UserID]; gone {
			continue
		}
		if !validAge(c.Age) {
			continue
		}

		score := ageProximityScore(requester.Age, c.Age)
		score += sharedHobbyCount(userHobbies, c.Hobbies) * sharedHobbyScore
		if score <= 0 {
			continue
		}
		matches = append(matches, ScoredCandidate{Score: score, Profile: c})
	}

	sort.SliceStable(matches, func(i, j int) bool {
		if matches[i].Score != matches[j].Score {
			return matches[i].Score > matches[j].Score
		}
		return matches[i].Profile.CreatedAt.Before(matches[j].Profile.CreatedAt)
	})
	return matches
}
