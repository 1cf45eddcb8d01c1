package testfixtures

import (
	"fmt"
	"sync/atomic"
	"time"

	"github.com/example/club-events/internal/persistence"
)

var (
	eventCounter    int64
	attendeeCounter int64
)

var referenceTime = time.Date(2023, time.December, 1, 12, 0, 0, 0, time.UTC)

// ReferenceTime returns the canonical baseline timestamp used by fixtures.
func ReferenceTime() time.Time {
	return referenceTime
}

// EventOption configures the generated event fixture.
type EventOption func(*persistence.Event)

// WithEventID overrides the generated event id.
func WithEventID(id int64) EventOption {
	return func(e *persistence.Event) { e.ID = id }
}

// WithEventTitle overrides the generated title.
func WithEventTitle(title string) EventOption {
	return func(e *persistence.Event) { e.Title = title }
}

// WithEventStatus overrides the administrative status.
func WithEventStatus(status persistence.EventStatus) EventOption {
	return func(e *persistence.Event) { e.Status = status }
}

// WithEventStart sets the start date and shifts the registration window to
// end the day before.
func WithEventStart(start time.Time) EventOption {
	return func(e *persistence.Event) {
		e.StartDate = start
		e.RegistrationStartDate = start.AddDate(0, -1, 0)
		e.RegistrationDeadline = start.AddDate(0, 0, -1)
	}
}

// WithEventDays sets the number of tracked attendance days.
func WithEventDays(days int) EventOption {
	return func(e *persistence.Event) { e.EventDays = days }
}

// WithEventCapacity sets the maximum participant count.
func WithEventCapacity(capacity int) EventOption {
	return func(e *persistence.Event) { e.MaxParticipants = capacity }
}

// WithoutAttendanceTracking disables per-day attendance for the event.
func WithoutAttendanceTracking() EventOption {
	return func(e *persistence.Event) { e.RequiresAttendance = false }
}

// WithEventAttendees seeds the attendee list and keeps the participant
// counter consistent with it.
func WithEventAttendees(attendees ...persistence.Attendee) EventOption {
	return func(e *persistence.Event) {
		e.Attendees = attendees
		e.CurrentParticipants = len(attendees)
	}
}

// NewEventFixture returns a deterministic registration-open event fixture
// with optional overrides.
func NewEventFixture(opts ...EventOption) persistence.Event {
	idx := atomic.AddInt64(&eventCounter, 1)
	start := referenceTime.AddDate(0, 0, int(idx)+14)
	event := persistence.Event{
		ID:                    idx,
		Title:                 fmt.Sprintf("Workshop %03d", idx),
		Description:           fmt.Sprintf("Description for workshop %03d", idx),
		Location:              "Tech Building, Room 101",
		StartDate:             start,
		RegistrationStartDate: start.AddDate(0, -1, 0),
		RegistrationDeadline:  start.AddDate(0, 0, -1),
		MaxParticipants:       50,
		Status:                persistence.StatusRegistrationOpen,
		EventDays:             1,
		RequiresAttendance:    true,
		Organizers:            []string{"Alex Johnson"},
		Attendees:             []persistence.Attendee{},
		CreatedAt:             referenceTime,
		UpdatedAt:             referenceTime,
	}
	for _, opt := range opts {
		opt(&event)
	}
	return event
}

// AttendeeOption configures the generated attendee fixture.
type AttendeeOption func(*persistence.Attendee)

// WithAttendeeEmail overrides the generated email.
func WithAttendeeEmail(email string) AttendeeOption {
	return func(a *persistence.Attendee) { a.Email = email }
}

// WithAttendeeName overrides the generated name.
func WithAttendeeName(name string) AttendeeOption {
	return func(a *persistence.Attendee) { a.Name = name }
}

// WithAttendance seeds the per-day attendance map.
func WithAttendance(attendance map[string]persistence.DayAttendance) AttendeeOption {
	return func(a *persistence.Attendee) { a.Attendance = attendance }
}

// NewAttendeeFixture returns a deterministic confirmed attendee fixture.
func NewAttendeeFixture(opts ...AttendeeOption) persistence.Attendee {
	idx := atomic.AddInt64(&attendeeCounter, 1)
	attendee := persistence.Attendee{
		Name:             fmt.Sprintf("Student %03d", idx),
		Email:            fmt.Sprintf("student%03d@example.com", idx),
		College:          "Example College",
		Department:       "Computer Science",
		Year:             "2",
		RegistrationDate: referenceTime,
		Status:           "confirmed",
		Attendance:       map[string]persistence.DayAttendance{},
	}
	for _, opt := range opts {
		opt(&attendee)
	}
	return attendee
}

