package store

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// Profile is the identity owning resume records. The email is immutable once
// set; only the display name can change afterwards.
type Profile struct {
	ID          uuid.UUID
	DisplayName string
	Email       string
	CreatedAt   time.Time
}

var (
	ErrProfileNotFound = errors.New("profile not found")
	ErrEmailImmutable  = errors.New("profile email cannot be changed once set")
)

// EnsureProfile creates the profile row if it does not exist yet and returns
// the current state either way.
func (s *Store) EnsureProfile(ctx context.Context, id uuid.UUID, displayName, email string) (*Profile, error) {
	_, err := s.db.Exec(ctx, `
INSERT INTO profiles (id, display_name, email, created_at)
VALUES ($1, $2, $3, $4)
ON CONFLICT (id) DO NOTHING
`, id, strings.TrimSpace(displayName), strings.TrimSpace(email), time.Now().UTC())
	if err != nil {
		return nil, fmt.Errorf("ensure profile: %w", err)
	}

	return s.GetProfile(ctx, id)
}

func (s *Store) GetProfile(ctx context.Context, id uuid.UUID) (*Profile, error) {
	var profile Profile
	err := s.db.QueryRow(ctx, `
SELECT id, display_name, email, created_at FROM profiles WHERE id = $1
`, id).Scan(&profile.ID, &profile.DisplayName, &profile.Email, &profile.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrProfileNotFound
		}
		return nil, fmt.Errorf("get profile: %w", err)
	}
	profile.CreatedAt = profile.CreatedAt.UTC()
	return &profile, nil
}

// UpdateProfile changes the display name and, only when it was empty before,
// the email.
func (s *Store) UpdateProfile(ctx context.Context, id uuid.UUID, displayName, email string) (*Profile, error) {
	current, err := s.GetProfile(ctx, id)
	if err != nil {
		return nil, err
	}

	email = strings.TrimSpace(email)
	if current.Email != "" && email != "" && email != current.Email {
		return nil, ErrEmailImmutable
	}
	if current.Email != "" {
		email = current.Email
	}

	_, err = s.db.Exec(ctx, `
UPDATE profiles SET display_name = $2, email = $3 WHERE id = $1
`, id, strings.TrimSpace(displayName), email)
	if err != nil {
		return nil, fmt.Errorf("update profile: %w", err)
	}

	return s.GetProfile(ctx, id)
}
