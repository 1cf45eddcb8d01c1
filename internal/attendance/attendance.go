// Package attendance holds the pure calendar logic for per-day attendance
// tracking: expanding an event's start date and day count into date keys and
// building the initial all-absent scaffold for a new registration.
package attendance

import (
	"time"

	"github.com/example/club-events/internal/persistence"
)

// Sessions an attendance day is divided into.
const (
	SessionMorning   = "morning"
	SessionAfternoon = "afternoon"
)

// ValidSession reports whether the supplied value names a known session.
func ValidSession(session string) bool {
	return session == SessionMorning || session == SessionAfternoon
}

// DateKey formats a timestamp as the UTC calendar-date key used throughout
// attendance maps and CSV exports.
func DateKey(t time.Time) string {
	return t.UTC().Format("2006-01-02")
}

// DateKeys expands an event's tracked range into one key per calendar day,
// covering [start, start+days). A non-positive day count is treated as a
// single day.
func DateKeys(start time.Time, days int) []string {
	if days < 1 {
		days = 1
	}
	keys := make([]string, 0, days)
	day := start.UTC()
	for i := 0; i < days; i++ {
		keys = append(keys, DateKey(day.AddDate(0, 0, i)))
	}
	return keys
}

// NewScaffold builds the initial attendance map for a registration: every
// tracked day present with both sessions absent. Events that do not require
// attendance get an empty map.
func NewScaffold(event persistence.Event) map[string]persistence.DayAttendance {
	scaffold := make(map[string]persistence.DayAttendance)
	if !event.RequiresAttendance {
		return scaffold
	}
	for _, key := range DateKeys(event.StartDate, event.EventDays) {
		scaffold[key] = persistence.DayAttendance{}
	}
	return scaffold
}

// InRange reports whether dateKey falls within the event's tracked days.
func InRange(event persistence.Event, dateKey string) bool {
	for _, key := range DateKeys(event.StartDate, event.EventDays) {
		if key == dateKey {
			return true
		}
	}
	return false
}
