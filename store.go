package main

import (
	"context"
	"database/sql"
	"log"
)

// ProfileStore is the durable map from user id to Profile the core consumes.
type ProfileStore interface {
	Get(ctx context.Context, userID string) (Profile, bool, error)
	Upsert(ctx context.Context, p Profile) error
	ListAllExcept(ctx context.Context, userID string) ([]Profile, error)
	Delete(ctx context.Context, userID string) error
}

// postgresProfiles backs ProfileStore with the profiles table.
type postgresProfiles struct {
	db *sql.DB
}

func newPostgresProfiles(db *sql.DB) *postgresProfiles {
	return &postgresProfiles{db: db}
}

func (s *postgresProfiles) Get(ctx context.Context, userID string) (Profile, bool, error) {
	var p Profile
	err := s.db.QueryRowContext(ctx, `
		SELECT user_id, name, age, hobbies, bio, likes, dislikes, created_at
		FROM profiles WHERE user_id = $1
	`, userID).Scan(&p.UserID, &p.Name, &p.Age, &p.Hobbies, &p.Bio, &p.Likes, &p.Dislikes, &p.CreatedAt)
	if err == sql.ErrNoRows {
		return Profile{}, false, nil
	}
	if err != nil {
		return Profile{}, false, err
	}
	return p, true, nil
}

// Upsert creates or replaces a profile. created_at is set once on insert and
// kept on update so it stays usable as a registration-order tie-break.
func (s *postgresProfiles) Upsert(ctx context.Context, p Profile) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO profiles (user_id, name, age, hobbies, bio, likes, dislikes, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, NOW())
		ON CONFLICT (user_id) DO UPDATE SET
			name = EXCLUDED.name,
			age = EXCLUDED.age,
			hobbies = EXCLUDED.hobbies,
			bio = EXCLUDED.bio,
			likes = EXCLUDED.likes,
			dislikes = EXCLUDED.dislikes
	`, p.UserID, p.Name, p.Age, p.Hobbies, p.Bio, p.Likes, p.Dislikes)
	return err
}

// ListAllExcept returns every registered profile other than userID. A row
// that fails to scan is logged and skipped so one corrupt record doesn't deny
// the whole population.
func (s *postgresProfiles) ListAllExcept(ctx context.Context, userID string) ([]Profile, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT user_id, name, age, hobbies, bio, likes, dislikes, created_at
		FROM profiles WHERE user_id <> $1
		ORDER BY created_at ASC
	`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var profiles []Profile
	for rows.Next() {
		var p Profile
		if err := rows.Scan(&p.UserID, &p.Name, &p.Age, &p.Hobbies, &p.Bio, &p.Likes, &p.Dislikes, &p.CreatedAt); err != nil {
			log.Println("Skipping unreadable profile row:", err)
			continue
		}
		profiles = append(profiles, p)
	}
	return profiles, rows.Err()
}

func (s *postgresProfiles) Delete(ctx context.Context, userID string) error {
	_, err := s.db.ExecContext(ctx, "DELETE FROM profiles WHERE user_id = $1", userID)
	return err
}
