package persistence

import "time"

// EventStatus is the administrative lifecycle phase of an event. It is set
// explicitly by an administrator and never derived from dates.
type EventStatus string

const (
	StatusUpcoming         EventStatus = "upcoming"
	StatusRegistrationOpen EventStatus = "registration_open"
	StatusOngoing          EventStatus = "ongoing"
	StatusPast             EventStatus = "past"
)

// ValidStatus reports whether the supplied value is a known event status.
func ValidStatus(status EventStatus) bool {
	switch status {
	case StatusUpcoming, StatusRegistrationOpen, StatusOngoing, StatusPast:
		return true
	}
	return false
}

// DayAttendance records presence for the two sessions of one event day.
type DayAttendance struct {
	Morning   bool `json:"morning"`
	Afternoon bool `json:"afternoon"`
}

// Attendee is a participant registered for a specific event. Within an event
// an attendee is identified by email.
type Attendee struct {
	Name             string                   `json:"name"`
	Email            string                   `json:"email"`
	Phone            string                   `json:"phone,omitempty"`
	College          string                   `json:"college"`
	Department       string                   `json:"department"`
	Year             string                   `json:"year,omitempty"`
	RegistrationDate time.Time                `json:"registrationDate"`
	Status           string                   `json:"status"`
	Attendance       map[string]DayAttendance `json:"attendance"`
}

// Event is a scheduled club activity with registration and optional per-day
// attendance tracking. CurrentParticipants always equals len(Attendees); the
// store maintains that invariant on every mutation.
type Event struct {
	ID                    int64       `json:"id"`
	Title                 string      `json:"title"`
	Description           string      `json:"description"`
	Location              string      `json:"location"`
	StartDate             time.Time   `json:"startDate"`
	EndDate               *time.Time  `json:"endDate"`
	RegistrationStartDate time.Time   `json:"registrationStartDate"`
	RegistrationDeadline  time.Time   `json:"registrationDeadline"`
	MaxParticipants       int         `json:"maxParticipants"`
	CurrentParticipants   int         `json:"currentParticipants"`
	Status                EventStatus `json:"status"`
	EventDays             int         `json:"eventDays"`
	RequiresAttendance    bool        `json:"requiresAttendance"`
	Organizers            []string    `json:"organizers"`
	ImageURL              string      `json:"imageUrl,omitempty"`
	Attendees             []Attendee  `json:"attendees"`
	CreatedAt             time.Time   `json:"createdAt"`
	UpdatedAt             time.Time   `json:"updatedAt"`
}

// UserProfile is the logged-in identity record persisted to the durable
// session slot.
type UserProfile struct {
	ID         int64  `json:"id"`
	IsAdmin    bool   `json:"isAdmin"`
	Name       string `json:"name,omitempty"`
	Email      string `json:"email,omitempty"`
	Phone      string `json:"phone,omitempty"`
	College    string `json:"college,omitempty"`
	Department string `json:"department,omitempty"`
	Year       string `json:"year,omitempty"`
	Bio        string `json:"bio,omitempty"`
}
