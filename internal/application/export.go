package application

import (
	"bytes"
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"regexp"

	"github.com/example/club-events/internal/attendance"
	"github.com/example/club-events/internal/persistence"
)

var whitespaceRun = regexp.MustCompile(`\s+`)

// ExportAttendance renders the event's attendance sheet as CSV for
// administrators. One column pair per tracked day, one row per attendee,
// Present/Absent values.
func (s *EventService) ExportAttendance(ctx context.Context, principal Principal, eventID int64) (Export, error) {
	if s == nil {
		return Export{}, fmt.Errorf("EventService is nil")
	}
	if !principal.IsAdmin {
		return Export{}, ErrUnauthorized
	}
	if s.events == nil {
		return Export{}, fmt.Errorf("event repository not configured")
	}

	event, err := s.events.GetEvent(ctx, eventID)
	if err != nil {
		if errors.Is(err, persistence.ErrNotFound) {
			return Export{}, ErrNotFound
		}
		return Export{}, err
	}

	content, err := renderAttendanceCSV(event)
	if err != nil {
		return Export{}, err
	}

	export := Export{
		Filename: exportFilename(event.Title, attendance.DateKey(s.now())),
		Content:  content,
	}

	serviceLogger(ctx, s.logger, "event", "export_attendance", "event_id", eventID).
		InfoContext(ctx, "attendance exported", "filename", export.Filename, "attendees", len(event.Attendees))
	return export, nil
}

func renderAttendanceCSV(event persistence.Event) ([]byte, error) {
	dateKeys := attendance.DateKeys(event.StartDate, event.EventDays)

	header := []string{"Name", "Email", "College", "Department"}
	for _, key := range dateKeys {
		header = append(header, key+" (Morning)", key+" (Afternoon)")
	}

	var buf bytes.Buffer
	writer := csv.NewWriter(&buf)
	if err := writer.Write(header); err != nil {
		return nil, err
	}

	for _, attendee := range event.Attendees {
		row := []string{attendee.Name, attendee.Email, attendee.College, attendee.Department}
		for _, key := range dateKeys {
			day := attendee.Attendance[key]
			row = append(row, presence(day.Morning), presence(day.Afternoon))
		}
		if err := writer.Write(row); err != nil {
			return nil, err
		}
	}

	writer.Flush()
	if err := writer.Error(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func presence(present bool) string {
	if present {
		return "Present"
	}
	return "Absent"
}

func exportFilename(title, dateKey string) string {
	name := whitespaceRun.ReplaceAllString(title, "_")
	return fmt.Sprintf("%s_attendance_%s.csv", name, dateKey)
}
