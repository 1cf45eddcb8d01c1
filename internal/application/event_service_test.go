package application

import (
	"bytes"
	"context"
	"encoding/csv"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/example/club-events/internal/persistence"
	"github.com/example/club-events/internal/persistence/memory"
	"github.com/example/club-events/internal/testfixtures"
)

var (
	adminPrincipal  = Principal{UserID: 1, IsAdmin: true}
	memberPrincipal = Principal{UserID: 2}
)

func newEventService(store *memory.Store, clock *testfixtures.Clock) *EventService {
	ids := testfixtures.NewIDGenerator(100)
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return NewEventService(store, ids.NextFunc(), clock.NowFunc(), logger)
}

func strPtr(s string) *string        { return &s }
func intPtr(i int) *int              { return &i }
func boolPtr(b bool) *bool           { return &b }
func timePtr(t time.Time) *time.Time { return &t }

func validEventInput(start time.Time) EventInput {
	return EventInput{
		Title:                strPtr("Rust Study Group"),
		Description:          strPtr("Weekly systems programming study group."),
		Location:             strPtr("Library, Room 2"),
		StartDate:            timePtr(start),
		RegistrationDeadline: timePtr(start.AddDate(0, 0, -1)),
		MaxParticipants:      intPtr(25),
	}
}

func TestSaveEvent(t *testing.T) {
	t.Parallel()

	start := time.Date(2023, time.December, 15, 9, 0, 0, 0, time.UTC)

	t.Run("requires admin", func(t *testing.T) {
		t.Parallel()

		svc := newEventService(memory.NewStore(), testfixtures.NewClock(time.Time{}))
		_, err := svc.SaveEvent(context.Background(), SaveEventParams{
			Principal: memberPrincipal,
			Input:     validEventInput(start),
		})
		if !errors.Is(err, ErrUnauthorized) {
			t.Fatalf("expected ErrUnauthorized, got %v", err)
		}
	})

	t.Run("creates with defaults", func(t *testing.T) {
		t.Parallel()

		clock := testfixtures.NewClock(time.Time{})
		store := memory.NewStore()
		svc := newEventService(store, clock)

		event, err := svc.SaveEvent(context.Background(), SaveEventParams{
			Principal: adminPrincipal,
			Input:     validEventInput(start),
		})
		if err != nil {
			t.Fatalf("SaveEvent: %v", err)
		}

		if event.ID != 101 {
			t.Errorf("expected generated id 101, got %d", event.ID)
		}
		if event.Status != persistence.StatusUpcoming {
			t.Errorf("expected default status upcoming, got %q", event.Status)
		}
		if event.EventDays != 1 {
			t.Errorf("expected default event days 1, got %d", event.EventDays)
		}
		if !event.RequiresAttendance {
			t.Error("expected attendance tracking enabled by default")
		}
		if event.CurrentParticipants != 0 || len(event.Attendees) != 0 {
			t.Errorf("expected a fresh event with no participants, got %d/%d", event.CurrentParticipants, len(event.Attendees))
		}
		if !event.RegistrationStartDate.Equal(clock.Now()) {
			t.Errorf("expected registration start defaulted to now, got %v", event.RegistrationStartDate)
		}
		if !event.CreatedAt.Equal(clock.Now()) {
			t.Errorf("expected CreatedAt set to now, got %v", event.CreatedAt)
		}

		stored, err := store.GetEvent(context.Background(), event.ID)
		if err != nil {
			t.Fatalf("GetEvent: %v", err)
		}
		if stored.Title != "Rust Study Group" {
			t.Errorf("expected event persisted, got title %q", stored.Title)
		}
	})

	t.Run("honours explicit attendance opt-out", func(t *testing.T) {
		t.Parallel()

		svc := newEventService(memory.NewStore(), testfixtures.NewClock(time.Time{}))
		input := validEventInput(start)
		input.RequiresAttendance = boolPtr(false)

		event, err := svc.SaveEvent(context.Background(), SaveEventParams{Principal: adminPrincipal, Input: input})
		if err != nil {
			t.Fatalf("SaveEvent: %v", err)
		}
		if event.RequiresAttendance {
			t.Error("expected attendance tracking disabled")
		}
	})

	t.Run("rejects incomplete input", func(t *testing.T) {
		t.Parallel()

		svc := newEventService(memory.NewStore(), testfixtures.NewClock(time.Time{}))
		_, err := svc.SaveEvent(context.Background(), SaveEventParams{Principal: adminPrincipal})

		var vErr *ValidationError
		if !errors.As(err, &vErr) {
			t.Fatalf("expected validation error, got %v", err)
		}
		for _, field := range []string{"title", "description", "location", "startDate", "registrationDeadline", "maxParticipants"} {
			if _, ok := vErr.FieldErrors[field]; !ok {
				t.Errorf("expected validation error for %s", field)
			}
		}
	})

	t.Run("rejects deadline after start", func(t *testing.T) {
		t.Parallel()

		svc := newEventService(memory.NewStore(), testfixtures.NewClock(time.Time{}))
		input := validEventInput(start)
		input.RegistrationDeadline = timePtr(start.AddDate(0, 0, 1))

		_, err := svc.SaveEvent(context.Background(), SaveEventParams{Principal: adminPrincipal, Input: input})

		var vErr *ValidationError
		if !errors.As(err, &vErr) {
			t.Fatalf("expected validation error, got %v", err)
		}
		if _, ok := vErr.FieldErrors["registrationDeadline"]; !ok {
			t.Errorf("expected validation error for registrationDeadline, got %v", vErr.FieldErrors)
		}
	})

	t.Run("merges update without touching attendees", func(t *testing.T) {
		t.Parallel()

		clock := testfixtures.NewClock(time.Time{})
		store := memory.NewStore()
		seeded := testfixtures.NewEventFixture(
			testfixtures.WithEventStart(start),
			testfixtures.WithEventAttendees(testfixtures.NewAttendeeFixture(), testfixtures.NewAttendeeFixture()),
		)
		store.Seed([]persistence.Event{seeded})

		svc := newEventService(store, clock)
		clock.Advance(time.Hour)

		updated, err := svc.SaveEvent(context.Background(), SaveEventParams{
			Principal: adminPrincipal,
			EventID:   seeded.ID,
			Input:     EventInput{Title: strPtr("Renamed Workshop"), MaxParticipants: intPtr(80)},
		})
		if err != nil {
			t.Fatalf("SaveEvent: %v", err)
		}

		if updated.Title != "Renamed Workshop" {
			t.Errorf("expected title replaced, got %q", updated.Title)
		}
		if updated.MaxParticipants != 80 {
			t.Errorf("expected capacity replaced, got %d", updated.MaxParticipants)
		}
		if updated.Description != seeded.Description {
			t.Errorf("expected untouched description preserved, got %q", updated.Description)
		}
		if len(updated.Attendees) != 2 || updated.CurrentParticipants != 2 {
			t.Errorf("expected attendee list preserved, got %d/%d", len(updated.Attendees), updated.CurrentParticipants)
		}
		if !updated.CreatedAt.Equal(seeded.CreatedAt) {
			t.Errorf("expected CreatedAt preserved, got %v", updated.CreatedAt)
		}
		if !updated.UpdatedAt.Equal(clock.Now()) {
			t.Errorf("expected UpdatedAt refreshed, got %v", updated.UpdatedAt)
		}
	})

	t.Run("update of missing event", func(t *testing.T) {
		t.Parallel()

		svc := newEventService(memory.NewStore(), testfixtures.NewClock(time.Time{}))
		_, err := svc.SaveEvent(context.Background(), SaveEventParams{
			Principal: adminPrincipal,
			EventID:   9999,
			Input:     validEventInput(start),
		})
		if !errors.Is(err, ErrNotFound) {
			t.Fatalf("expected ErrNotFound, got %v", err)
		}
	})
}

func TestDeleteEvent(t *testing.T) {
	t.Parallel()

	t.Run("requires admin", func(t *testing.T) {
		t.Parallel()

		svc := newEventService(memory.NewStore(), testfixtures.NewClock(time.Time{}))
		if err := svc.DeleteEvent(context.Background(), memberPrincipal, 1); !errors.Is(err, ErrUnauthorized) {
			t.Fatalf("expected ErrUnauthorized, got %v", err)
		}
	})

	t.Run("removes event and tolerates repeats", func(t *testing.T) {
		t.Parallel()

		store := memory.NewStore()
		seeded := testfixtures.NewEventFixture()
		store.Seed([]persistence.Event{seeded})
		svc := newEventService(store, testfixtures.NewClock(time.Time{}))

		if err := svc.DeleteEvent(context.Background(), adminPrincipal, seeded.ID); err != nil {
			t.Fatalf("DeleteEvent: %v", err)
		}

		events, err := svc.ListEvents(context.Background())
		if err != nil {
			t.Fatalf("ListEvents: %v", err)
		}
		for _, event := range events {
			if event.ID == seeded.ID {
				t.Fatalf("expected event %d removed from listing", seeded.ID)
			}
		}

		if err := svc.DeleteEvent(context.Background(), adminPrincipal, seeded.ID); err != nil {
			t.Fatalf("expected repeated delete to be a no-op, got %v", err)
		}
	})
}

func TestRegisterParticipant(t *testing.T) {
	t.Parallel()

	start := time.Date(2023, time.December, 15, 9, 0, 0, 0, time.UTC)

	registration := RegistrationInput{
		Name:       "Dana Scott",
		Email:      "dana.scott@example.com",
		College:    "Example College",
		Department: "Computer Science",
		Year:       "3",
	}

	t.Run("appends attendee and keeps the counter in step", func(t *testing.T) {
		t.Parallel()

		clock := testfixtures.NewClock(time.Time{})
		store := memory.NewStore()
		seeded := testfixtures.NewEventFixture(testfixtures.WithEventStart(start))
		store.Seed([]persistence.Event{seeded})
		svc := newEventService(store, clock)

		event, err := svc.RegisterParticipant(context.Background(), seeded.ID, registration)
		if err != nil {
			t.Fatalf("RegisterParticipant: %v", err)
		}

		if event.CurrentParticipants != len(event.Attendees) {
			t.Errorf("counter %d disagrees with attendee count %d", event.CurrentParticipants, len(event.Attendees))
		}

		matches := 0
		for _, attendee := range event.Attendees {
			if attendee.Email == registration.Email {
				matches++
				if attendee.Status != "confirmed" {
					t.Errorf("expected status confirmed, got %q", attendee.Status)
				}
				if !attendee.RegistrationDate.Equal(clock.Now()) {
					t.Errorf("expected registration date now, got %v", attendee.RegistrationDate)
				}
			}
		}
		if matches != 1 {
			t.Errorf("expected attendee exactly once, found %d", matches)
		}
	})

	t.Run("builds the attendance scaffold over the event days", func(t *testing.T) {
		t.Parallel()

		store := memory.NewStore()
		seeded := testfixtures.NewEventFixture(
			testfixtures.WithEventStart(start),
			testfixtures.WithEventDays(2),
		)
		store.Seed([]persistence.Event{seeded})
		svc := newEventService(store, testfixtures.NewClock(time.Time{}))

		event, err := svc.RegisterParticipant(context.Background(), seeded.ID, registration)
		if err != nil {
			t.Fatalf("RegisterParticipant: %v", err)
		}

		attendance := event.Attendees[0].Attendance
		if len(attendance) != 2 {
			t.Fatalf("expected 2 scaffold days, got %d", len(attendance))
		}
		for _, key := range []string{"2023-12-15", "2023-12-16"} {
			day, ok := attendance[key]
			if !ok {
				t.Errorf("expected scaffold key %s", key)
				continue
			}
			if day.Morning || day.Afternoon {
				t.Errorf("expected %s all absent, got %+v", key, day)
			}
		}
	})

	t.Run("skips the scaffold when tracking is disabled", func(t *testing.T) {
		t.Parallel()

		store := memory.NewStore()
		seeded := testfixtures.NewEventFixture(
			testfixtures.WithEventStart(start),
			testfixtures.WithoutAttendanceTracking(),
		)
		store.Seed([]persistence.Event{seeded})
		svc := newEventService(store, testfixtures.NewClock(time.Time{}))

		event, err := svc.RegisterParticipant(context.Background(), seeded.ID, registration)
		if err != nil {
			t.Fatalf("RegisterParticipant: %v", err)
		}
		if len(event.Attendees[0].Attendance) != 0 {
			t.Errorf("expected empty attendance map, got %v", event.Attendees[0].Attendance)
		}
	})

	t.Run("rejects duplicate emails regardless of case", func(t *testing.T) {
		t.Parallel()

		store := memory.NewStore()
		seeded := testfixtures.NewEventFixture(testfixtures.WithEventStart(start))
		store.Seed([]persistence.Event{seeded})
		svc := newEventService(store, testfixtures.NewClock(time.Time{}))

		if _, err := svc.RegisterParticipant(context.Background(), seeded.ID, registration); err != nil {
			t.Fatalf("first registration: %v", err)
		}

		second := registration
		second.Email = "Dana.Scott@Example.com"
		if _, err := svc.RegisterParticipant(context.Background(), seeded.ID, second); !errors.Is(err, ErrAlreadyRegistered) {
			t.Fatalf("expected ErrAlreadyRegistered, got %v", err)
		}
	})

	t.Run("rejects registrations beyond capacity", func(t *testing.T) {
		t.Parallel()

		store := memory.NewStore()
		seeded := testfixtures.NewEventFixture(
			testfixtures.WithEventStart(start),
			testfixtures.WithEventCapacity(1),
			testfixtures.WithEventAttendees(testfixtures.NewAttendeeFixture()),
		)
		store.Seed([]persistence.Event{seeded})
		svc := newEventService(store, testfixtures.NewClock(time.Time{}))

		if _, err := svc.RegisterParticipant(context.Background(), seeded.ID, registration); !errors.Is(err, ErrEventFull) {
			t.Fatalf("expected ErrEventFull, got %v", err)
		}
	})

	t.Run("rejects registration outside the window", func(t *testing.T) {
		t.Parallel()

		cases := map[string]struct {
			option testfixtures.EventOption
			at     time.Time
		}{
			"status past": {
				option: testfixtures.WithEventStatus(persistence.StatusPast),
				at:     testfixtures.ReferenceTime(),
			},
			"status ongoing": {
				option: testfixtures.WithEventStatus(persistence.StatusOngoing),
				at:     testfixtures.ReferenceTime(),
			},
			"deadline passed": {
				option: testfixtures.WithEventStatus(persistence.StatusRegistrationOpen),
				at:     start.AddDate(0, 0, 1),
			},
			"window not yet open": {
				option: testfixtures.WithEventStatus(persistence.StatusRegistrationOpen),
				at:     start.AddDate(0, -2, 0),
			},
		}

		for name, tc := range cases {
			tc := tc
			t.Run(name, func(t *testing.T) {
				t.Parallel()

				store := memory.NewStore()
				seeded := testfixtures.NewEventFixture(testfixtures.WithEventStart(start), tc.option)
				store.Seed([]persistence.Event{seeded})
				svc := newEventService(store, testfixtures.NewClock(tc.at))

				if _, err := svc.RegisterParticipant(context.Background(), seeded.ID, registration); !errors.Is(err, ErrRegistrationClosed) {
					t.Fatalf("expected ErrRegistrationClosed, got %v", err)
				}
			})
		}
	})

	t.Run("rejects invalid input", func(t *testing.T) {
		t.Parallel()

		svc := newEventService(memory.NewStore(), testfixtures.NewClock(time.Time{}))
		bad := registration
		bad.Email = "not-an-email"

		_, err := svc.RegisterParticipant(context.Background(), 1, bad)
		var vErr *ValidationError
		if !errors.As(err, &vErr) {
			t.Fatalf("expected validation error, got %v", err)
		}
		if _, ok := vErr.FieldErrors["email"]; !ok {
			t.Errorf("expected validation error for email, got %v", vErr.FieldErrors)
		}
	})

	t.Run("missing event", func(t *testing.T) {
		t.Parallel()

		svc := newEventService(memory.NewStore(), testfixtures.NewClock(time.Time{}))
		if _, err := svc.RegisterParticipant(context.Background(), 404, registration); !errors.Is(err, ErrNotFound) {
			t.Fatalf("expected ErrNotFound, got %v", err)
		}
	})
}

func TestUpdateAttendance(t *testing.T) {
	t.Parallel()

	start := time.Date(2023, time.December, 15, 9, 0, 0, 0, time.UTC)

	seedStore := func() (*memory.Store, persistence.Event, persistence.Attendee) {
		attendee := testfixtures.NewAttendeeFixture(testfixtures.WithAttendance(map[string]persistence.DayAttendance{
			"2023-12-15": {},
			"2023-12-16": {},
		}))
		event := testfixtures.NewEventFixture(
			testfixtures.WithEventStart(start),
			testfixtures.WithEventDays(2),
			testfixtures.WithEventAttendees(attendee),
		)
		store := memory.NewStore()
		store.Seed([]persistence.Event{event})
		return store, event, attendee
	}

	t.Run("requires admin", func(t *testing.T) {
		t.Parallel()

		store, event, attendee := seedStore()
		svc := newEventService(store, testfixtures.NewClock(time.Time{}))

		err := svc.UpdateAttendance(context.Background(), memberPrincipal, event.ID, AttendanceUpdate{
			Email: attendee.Email, DateKey: "2023-12-15", Session: "morning", Present: true,
		})
		if !errors.Is(err, ErrUnauthorized) {
			t.Fatalf("expected ErrUnauthorized, got %v", err)
		}
	})

	t.Run("marks a session and stays idempotent", func(t *testing.T) {
		t.Parallel()

		store, event, attendee := seedStore()
		svc := newEventService(store, testfixtures.NewClock(time.Time{}))
		update := AttendanceUpdate{Email: attendee.Email, DateKey: "2023-12-15", Session: "morning", Present: true}

		for i := 0; i < 2; i++ {
			if err := svc.UpdateAttendance(context.Background(), adminPrincipal, event.ID, update); err != nil {
				t.Fatalf("UpdateAttendance (pass %d): %v", i+1, err)
			}
		}

		stored, err := svc.GetEvent(context.Background(), event.ID)
		if err != nil {
			t.Fatalf("GetEvent: %v", err)
		}
		day := stored.Attendees[0].Attendance["2023-12-15"]
		if !day.Morning || day.Afternoon {
			t.Errorf("expected morning present only, got %+v", day)
		}
	})

	t.Run("initialises a missing date key", func(t *testing.T) {
		t.Parallel()

		attendee := testfixtures.NewAttendeeFixture()
		event := testfixtures.NewEventFixture(
			testfixtures.WithEventStart(start),
			testfixtures.WithEventDays(2),
			testfixtures.WithEventAttendees(attendee),
		)
		store := memory.NewStore()
		store.Seed([]persistence.Event{event})
		svc := newEventService(store, testfixtures.NewClock(time.Time{}))

		err := svc.UpdateAttendance(context.Background(), adminPrincipal, event.ID, AttendanceUpdate{
			Email: attendee.Email, DateKey: "2023-12-16", Session: "morning", Present: true,
		})
		if err != nil {
			t.Fatalf("UpdateAttendance: %v", err)
		}

		stored, err := svc.GetEvent(context.Background(), event.ID)
		if err != nil {
			t.Fatalf("GetEvent: %v", err)
		}
		day, ok := stored.Attendees[0].Attendance["2023-12-16"]
		if !ok {
			t.Fatal("expected date key created")
		}
		if !day.Morning || day.Afternoon {
			t.Errorf("expected {morning:true, afternoon:false}, got %+v", day)
		}
	})

	t.Run("rejects unknown sessions", func(t *testing.T) {
		t.Parallel()

		store, event, attendee := seedStore()
		svc := newEventService(store, testfixtures.NewClock(time.Time{}))

		err := svc.UpdateAttendance(context.Background(), adminPrincipal, event.ID, AttendanceUpdate{
			Email: attendee.Email, DateKey: "2023-12-15", Session: "evening", Present: true,
		})
		var vErr *ValidationError
		if !errors.As(err, &vErr) {
			t.Fatalf("expected validation error, got %v", err)
		}
	})

	t.Run("rejects dates outside the event days", func(t *testing.T) {
		t.Parallel()

		store, event, attendee := seedStore()
		svc := newEventService(store, testfixtures.NewClock(time.Time{}))

		err := svc.UpdateAttendance(context.Background(), adminPrincipal, event.ID, AttendanceUpdate{
			Email: attendee.Email, DateKey: "2023-12-20", Session: "morning", Present: true,
		})
		var vErr *ValidationError
		if !errors.As(err, &vErr) {
			t.Fatalf("expected validation error, got %v", err)
		}
		if _, ok := vErr.FieldErrors["date"]; !ok {
			t.Errorf("expected validation error for date, got %v", vErr.FieldErrors)
		}
	})

	t.Run("missing attendee", func(t *testing.T) {
		t.Parallel()

		store, event, _ := seedStore()
		svc := newEventService(store, testfixtures.NewClock(time.Time{}))

		err := svc.UpdateAttendance(context.Background(), adminPrincipal, event.ID, AttendanceUpdate{
			Email: "nobody@example.com", DateKey: "2023-12-15", Session: "morning", Present: true,
		})
		if !errors.Is(err, ErrNotFound) {
			t.Fatalf("expected ErrNotFound, got %v", err)
		}
	})
}

func TestExportAttendance(t *testing.T) {
	t.Parallel()

	start := time.Date(2023, time.December, 15, 9, 0, 0, 0, time.UTC)

	t.Run("requires admin", func(t *testing.T) {
		t.Parallel()

		svc := newEventService(memory.NewStore(), testfixtures.NewClock(time.Time{}))
		if _, err := svc.ExportAttendance(context.Background(), memberPrincipal, 1); !errors.Is(err, ErrUnauthorized) {
			t.Fatalf("expected ErrUnauthorized, got %v", err)
		}
	})

	t.Run("renders the sheet", func(t *testing.T) {
		t.Parallel()

		present := testfixtures.NewAttendeeFixture(
			testfixtures.WithAttendeeName("Ava Torres"),
			testfixtures.WithAttendance(map[string]persistence.DayAttendance{
				"2023-12-15": {Morning: true, Afternoon: true},
				"2023-12-16": {Morning: true},
			}),
		)
		absent := testfixtures.NewAttendeeFixture(testfixtures.WithAttendeeName("Liam Patel"))
		event := testfixtures.NewEventFixture(
			testfixtures.WithEventTitle("Web Development Workshop"),
			testfixtures.WithEventStart(start),
			testfixtures.WithEventDays(2),
			testfixtures.WithEventAttendees(present, absent),
		)
		store := memory.NewStore()
		store.Seed([]persistence.Event{event})
		svc := newEventService(store, testfixtures.NewClock(time.Time{}))

		export, err := svc.ExportAttendance(context.Background(), adminPrincipal, event.ID)
		if err != nil {
			t.Fatalf("ExportAttendance: %v", err)
		}

		if export.Filename != "Web_Development_Workshop_attendance_2023-12-01.csv" {
			t.Errorf("unexpected filename %q", export.Filename)
		}

		records, err := csv.NewReader(bytes.NewReader(export.Content)).ReadAll()
		if err != nil {
			t.Fatalf("parse csv: %v", err)
		}

		if len(records) != 1+2 {
			t.Fatalf("expected header plus 2 rows, got %d", len(records))
		}
		if len(records[0]) != 4+2*2 {
			t.Fatalf("expected 8 header columns, got %d", len(records[0]))
		}
		if records[0][4] != "2023-12-15 (Morning)" || records[0][7] != "2023-12-16 (Afternoon)" {
			t.Errorf("unexpected day columns %v", records[0][4:])
		}

		if records[1][0] != "Ava Torres" {
			t.Errorf("expected first attendee row, got %v", records[1])
		}
		if got := records[1][4:]; got[0] != "Present" || got[1] != "Present" || got[2] != "Present" || got[3] != "Absent" {
			t.Errorf("unexpected presence values %v", got)
		}
		for _, value := range records[2][4:] {
			if value != "Absent" {
				t.Errorf("expected all absent for unmarked attendee, got %v", records[2][4:])
				break
			}
		}
	})

	t.Run("missing event", func(t *testing.T) {
		t.Parallel()

		svc := newEventService(memory.NewStore(), testfixtures.NewClock(time.Time{}))
		if _, err := svc.ExportAttendance(context.Background(), adminPrincipal, 404); !errors.Is(err, ErrNotFound) {
			t.Fatalf("expected ErrNotFound, got %v", err)
		}
	})
}
