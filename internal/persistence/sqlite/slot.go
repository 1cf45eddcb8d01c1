package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/example/club-events/internal/persistence"
)

// Load reads the single session slot row. A missing or malformed record is
// reported as persistence.ErrNotFound.
func (s *Store) Load(ctx context.Context) (persistence.UserProfile, error) {
	var payload string
	err := s.pool.DB().QueryRowContext(ctx, `SELECT profile FROM session_slot WHERE id = 1`).Scan(&payload)
	if err != nil {
		if err == sql.ErrNoRows {
			return persistence.UserProfile{}, persistence.ErrNotFound
		}
		return persistence.UserProfile{}, fmt.Errorf("read session slot: %w", err)
	}

	var profile persistence.UserProfile
	if err := json.Unmarshal([]byte(payload), &profile); err != nil {
		return persistence.UserProfile{}, errors.Join(persistence.ErrNotFound, err)
	}
	if profile.ID == 0 {
		return persistence.UserProfile{}, persistence.ErrNotFound
	}

	return profile, nil
}

// Save writes the profile into the slot, replacing any previous record.
func (s *Store) Save(ctx context.Context, profile persistence.UserProfile) error {
	payload, err := json.Marshal(profile)
	if err != nil {
		return fmt.Errorf("encode session slot: %w", err)
	}

	_, err = s.pool.DB().ExecContext(ctx, `
		INSERT INTO session_slot (id, profile) VALUES (1, ?)
		ON CONFLICT(id) DO UPDATE SET profile = excluded.profile`,
		string(payload),
	)
	if err != nil {
		return fmt.Errorf("write session slot: %w", err)
	}
	return nil
}

// Clear empties the slot. Clearing an empty slot is a no-op.
func (s *Store) Clear(ctx context.Context) error {
	if _, err := s.pool.DB().ExecContext(ctx, `DELETE FROM session_slot WHERE id = 1`); err != nil {
		return fmt.Errorf("clear session slot: %w", err)
	}
	return nil
}
