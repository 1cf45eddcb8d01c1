package memory

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/example/club-events/internal/persistence"
)

// Store provides an in-memory persistence layer implementation. Events are
// kept in insertion order and every read hands out deep clones so callers
// cannot mutate the store behind its back.
type Store struct {
	mu     sync.RWMutex
	events []persistence.Event
	slot   *persistence.UserProfile
}

// NewStore returns an empty in-memory store.
func NewStore() *Store {
	return &Store{}
}

// Seed replaces the event collection wholesale. Intended for fixtures and
// demo data; not part of the repository contract.
func (s *Store) Seed(events []persistence.Event) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.events = make([]persistence.Event, 0, len(events))
	for _, event := range events {
		s.events = append(s.events, cloneEvent(event))
	}
}

// --- EventRepository implementation ---

// CreateEvent appends a new event.
func (s *Store) CreateEvent(ctx context.Context, event persistence.Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.indexLocked(event.ID) >= 0 {
		return fmt.Errorf("memory: event %d already exists", event.ID)
	}

	s.events = append(s.events, cloneEvent(event))
	return nil
}

// UpdateEvent replaces an existing event in place, keeping its position.
func (s *Store) UpdateEvent(ctx context.Context, event persistence.Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	idx := s.indexLocked(event.ID)
	if idx < 0 {
		return persistence.ErrNotFound
	}

	s.events[idx] = cloneEvent(event)
	return nil
}

// GetEvent retrieves an event by id.
func (s *Store) GetEvent(ctx context.Context, id int64) (persistence.Event, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	idx := s.indexLocked(id)
	if idx < 0 {
		return persistence.Event{}, persistence.ErrNotFound
	}

	return cloneEvent(s.events[idx]), nil
}

// ListEvents returns all events in insertion order.
func (s *Store) ListEvents(ctx context.Context) ([]persistence.Event, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	events := make([]persistence.Event, 0, len(s.events))
	for _, event := range s.events {
		events = append(events, cloneEvent(event))
	}

	return events, nil
}

// DeleteEvent removes an event by id. Removing an unknown id is a no-op.
func (s *Store) DeleteEvent(ctx context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	idx := s.indexLocked(id)
	if idx < 0 {
		return nil
	}

	s.events = append(s.events[:idx], s.events[idx+1:]...)
	return nil
}

// AppendAttendee adds the attendee and bumps the participant counter in one
// critical section, so the two never disagree from a reader's point of view.
func (s *Store) AppendAttendee(ctx context.Context, eventID int64, attendee persistence.Attendee) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	idx := s.indexLocked(eventID)
	if idx < 0 {
		return persistence.ErrNotFound
	}

	event := s.events[idx]
	for _, existing := range event.Attendees {
		if strings.EqualFold(existing.Email, attendee.Email) {
			return persistence.ErrDuplicateAttendee
		}
	}

	event.Attendees = append(event.Attendees, cloneAttendee(attendee))
	event.CurrentParticipants = len(event.Attendees)
	s.events[idx] = event
	return nil
}

// SetAttendance records presence for one attendee session on one date.
func (s *Store) SetAttendance(ctx context.Context, eventID int64, email, dateKey, session string, present bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	idx := s.indexLocked(eventID)
	if idx < 0 {
		return persistence.ErrNotFound
	}

	event := s.events[idx]
	for i, attendee := range event.Attendees {
		if !strings.EqualFold(attendee.Email, email) {
			continue
		}

		if attendee.Attendance == nil {
			attendee.Attendance = make(map[string]persistence.DayAttendance)
		}
		day := attendee.Attendance[dateKey]
		switch session {
		case "morning":
			day.Morning = present
		case "afternoon":
			day.Afternoon = present
		default:
			return fmt.Errorf("memory: unknown session %q", session)
		}
		attendee.Attendance[dateKey] = day
		event.Attendees[i] = attendee
		s.events[idx] = event
		return nil
	}

	return persistence.ErrNotFound
}

// --- SessionSlot implementation ---

// Load returns the persisted profile, or ErrNotFound when the slot is empty.
func (s *Store) Load(ctx context.Context) (persistence.UserProfile, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.slot == nil {
		return persistence.UserProfile{}, persistence.ErrNotFound
	}
	return *s.slot, nil
}

// Save writes the profile into the slot, replacing any previous record.
func (s *Store) Save(ctx context.Context, profile persistence.UserProfile) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	clone := profile
	s.slot = &clone
	return nil
}

// Clear empties the slot. Clearing an empty slot is a no-op.
func (s *Store) Clear(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.slot = nil
	return nil
}

// --- Helpers ---

func (s *Store) indexLocked(id int64) int {
	for i, event := range s.events {
		if event.ID == id {
			return i
		}
	}
	return -1
}

func cloneEvent(event persistence.Event) persistence.Event {
	clone := event

	if event.EndDate != nil {
		end := *event.EndDate
		clone.EndDate = &end
	}

	clone.Organizers = append([]string(nil), event.Organizers...)

	clone.Attendees = make([]persistence.Attendee, 0, len(event.Attendees))
	for _, attendee := range event.Attendees {
		clone.Attendees = append(clone.Attendees, cloneAttendee(attendee))
	}

	return clone
}

func cloneAttendee(attendee persistence.Attendee) persistence.Attendee {
	clone := attendee
	if attendee.Attendance != nil {
		clone.Attendance = make(map[string]persistence.DayAttendance, len(attendee.Attendance))
		for key, day := range attendee.Attendance {
			clone.Attendance[key] = day
		}
	}
	return clone
}
