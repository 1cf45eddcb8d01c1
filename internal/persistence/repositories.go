package persistence

import "context"

// EventRepository stores events and their nested attendees.
//
// ListEvents returns events in insertion order. DeleteEvent is idempotent:
// deleting an unknown id is not an error. Mutations that touch the attendee
// list must keep CurrentParticipants equal to len(Attendees) atomically;
// callers never observe the two disagreeing.
type EventRepository interface {
	CreateEvent(ctx context.Context, event Event) error
	UpdateEvent(ctx context.Context, event Event) error
	GetEvent(ctx context.Context, id int64) (Event, error)
	ListEvents(ctx context.Context) ([]Event, error)
	DeleteEvent(ctx context.Context, id int64) error

	// AppendAttendee adds the attendee to the event and increments the
	// participant counter in the same atomic update.
	AppendAttendee(ctx context.Context, eventID int64, attendee Attendee) error

	// SetAttendance records presence for one attendee, date key, and session
	// ("morning" or "afternoon"). Missing date keys are initialised to an
	// all-absent record first.
	SetAttendance(ctx context.Context, eventID int64, email, dateKey, session string, present bool) error
}

// SessionSlot is the single durable key holding the logged-in user profile.
// Load returns ErrNotFound when the slot is absent; malformed contents are
// also reported as ErrNotFound so startup degrades to an anonymous session.
type SessionSlot interface {
	Load(ctx context.Context) (UserProfile, error)
	Save(ctx context.Context, profile UserProfile) error
	Clear(ctx context.Context) error
}
