// Package slot persists the logged-in user profile as a single JSON file.
// Writes go through a temp file and rename so a crash never leaves a half
// written record; a malformed file reads as an empty slot.
package slot

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/example/club-events/internal/persistence"
)

// File is a file-backed persistence.SessionSlot.
type File struct {
	mu   sync.Mutex
	path string
}

// NewFile returns a slot stored at path. The parent directory is created on
// first save.
func NewFile(path string) *File {
	return &File{path: path}
}

// Load reads the persisted profile. A missing or malformed file is reported
// as persistence.ErrNotFound.
func (f *File) Load(ctx context.Context) (persistence.UserProfile, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	data, err := os.ReadFile(f.path)
	if err != nil {
		if os.IsNotExist(err) {
			return persistence.UserProfile{}, persistence.ErrNotFound
		}
		return persistence.UserProfile{}, fmt.Errorf("read session slot: %w", err)
	}

	var profile persistence.UserProfile
	if err := json.Unmarshal(data, &profile); err != nil {
		return persistence.UserProfile{}, errors.Join(persistence.ErrNotFound, err)
	}
	if profile.ID == 0 {
		return persistence.UserProfile{}, persistence.ErrNotFound
	}

	return profile, nil
}

// Save writes the profile, replacing any previous record atomically.
func (f *File) Save(ctx context.Context, profile persistence.UserProfile) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if err := os.MkdirAll(filepath.Dir(f.path), 0o700); err != nil {
		return fmt.Errorf("create session slot directory: %w", err)
	}

	data, err := json.MarshalIndent(profile, "", "  ")
	if err != nil {
		return fmt.Errorf("encode session slot: %w", err)
	}

	tmp := f.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o600); err != nil {
		return fmt.Errorf("write session slot: %w", err)
	}
	if err := os.Rename(tmp, f.path); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("replace session slot: %w", err)
	}

	return nil
}

// Clear removes the slot file. Clearing an absent slot is a no-op.
func (f *File) Clear(ctx context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if err := os.Remove(f.path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("clear session slot: %w", err)
	}
	return nil
}
