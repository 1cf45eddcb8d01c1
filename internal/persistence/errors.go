package persistence

import "errors"

var (
	// ErrNotFound is returned when the requested record does not exist.
	ErrNotFound = errors.New("persistence: not found")
	// ErrDuplicateAttendee is returned when an attendee email already exists
	// within the target event.
	ErrDuplicateAttendee = errors.New("persistence: attendee email already registered")
)
