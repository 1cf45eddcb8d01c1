package application

import "time"

// Principal identifies the caller of a service operation.
type Principal struct {
	UserID  int64
	IsAdmin bool
}

// EventInput carries the client supplied fields for creating or updating an event.
// Pointer fields distinguish "absent" from "zero" so updates can merge per field.
type EventInput struct {
	Title                 *string    `json:"title"`
	Description           *string    `json:"description"`
	Location              *string    `json:"location"`
	StartDate             *time.Time `json:"startDate"`
	EndDate               *time.Time `json:"endDate"`
	RegistrationStartDate *time.Time `json:"registrationStartDate"`
	RegistrationDeadline  *time.Time `json:"registrationDeadline"`
	MaxParticipants       *int       `json:"maxParticipants"`
	Status                *string    `json:"status"`
	EventDays             *int       `json:"eventDays"`
	RequiresAttendance    *bool      `json:"requiresAttendance"`
	Organizers            []string   `json:"organizers"`
	ImageURL              *string    `json:"imageUrl"`
}

// RegistrationInput carries the attendee details submitted during event registration.
type RegistrationInput struct {
	Name       string `json:"name"`
	Email      string `json:"email"`
	Phone      string `json:"phone"`
	College    string `json:"college"`
	Department string `json:"department"`
	Year       string `json:"year"`
}

// AttendanceUpdate identifies a single attendee session mark.
type AttendanceUpdate struct {
	Email   string `json:"email"`
	DateKey string `json:"date"`
	Session string `json:"session"`
	Present bool   `json:"present"`
}

// ProfileInput carries the editable fields of the signed-in user's profile.
type ProfileInput struct {
	Name       *string `json:"name"`
	Phone      *string `json:"phone"`
	College    *string `json:"college"`
	Department *string `json:"department"`
	Year       *string `json:"year"`
	Bio        *string `json:"bio"`
}

// Credentials carries the login request fields.
type Credentials struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Export is a rendered attendance sheet ready for download.
type Export struct {
	Filename string
	Content  []byte
}
