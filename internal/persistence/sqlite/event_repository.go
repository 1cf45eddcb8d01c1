package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"sort"
	"time"

	"github.com/example/club-events/internal/persistence"
)

// Store implements persistence.EventRepository and persistence.SessionSlot
// on SQLite. Events keep a monotonic seq column so listings preserve
// insertion order across restarts.
type Store struct {
	pool *Pool
}

// NewStore wraps the connection pool.
func NewStore(pool *Pool) *Store {
	return &Store{pool: pool}
}

const eventColumns = `id, title, description, location, start_date, end_date,
	registration_start_date, registration_deadline, max_participants, status,
	event_days, requires_attendance, organizers, image_url, created_at, updated_at`

// CreateEvent inserts the event and any seeded attendees.
func (s *Store) CreateEvent(ctx context.Context, event persistence.Event) error {
	return s.pool.WithTransaction(ctx, func(tx *sql.Tx) error {
		organizers, err := json.Marshal(organizersOrEmpty(event.Organizers))
		if err != nil {
			return fmt.Errorf("encode organizers: %w", err)
		}

		_, err = tx.ExecContext(ctx, `
			INSERT INTO events (id, seq, title, description, location, start_date, end_date,
				registration_start_date, registration_deadline, max_participants, status,
				event_days, requires_attendance, organizers, image_url, created_at, updated_at)
			VALUES (?, (SELECT COALESCE(MAX(seq), 0) + 1 FROM events), ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			event.ID,
			event.Title,
			event.Description,
			event.Location,
			formatTime(event.StartDate),
			formatTimePtr(event.EndDate),
			formatTime(event.RegistrationStartDate),
			formatTime(event.RegistrationDeadline),
			event.MaxParticipants,
			string(event.Status),
			event.EventDays,
			event.RequiresAttendance,
			string(organizers),
			event.ImageURL,
			formatTime(event.CreatedAt),
			formatTime(event.UpdatedAt),
		)
		if err != nil {
			return fmt.Errorf("insert event %d: %w", event.ID, err)
		}

		for i, attendee := range event.Attendees {
			if err := insertAttendee(ctx, tx, event.ID, i+1, attendee); err != nil {
				return err
			}
		}

		return nil
	})
}

// UpdateEvent rewrites the event columns. Attendee rows change only through
// AppendAttendee and SetAttendance.
func (s *Store) UpdateEvent(ctx context.Context, event persistence.Event) error {
	organizers, err := json.Marshal(organizersOrEmpty(event.Organizers))
	if err != nil {
		return fmt.Errorf("encode organizers: %w", err)
	}

	result, err := s.pool.DB().ExecContext(ctx, `
		UPDATE events
		SET title = ?, description = ?, location = ?, start_date = ?, end_date = ?,
			registration_start_date = ?, registration_deadline = ?, max_participants = ?,
			status = ?, event_days = ?, requires_attendance = ?, organizers = ?,
			image_url = ?, updated_at = ?
		WHERE id = ?`,
		event.Title,
		event.Description,
		event.Location,
		formatTime(event.StartDate),
		formatTimePtr(event.EndDate),
		formatTime(event.RegistrationStartDate),
		formatTime(event.RegistrationDeadline),
		event.MaxParticipants,
		string(event.Status),
		event.EventDays,
		event.RequiresAttendance,
		string(organizers),
		event.ImageURL,
		formatTime(event.UpdatedAt),
		event.ID,
	)
	if err != nil {
		return fmt.Errorf("update event %d: %w", event.ID, err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if affected == 0 {
		return persistence.ErrNotFound
	}

	return nil
}

// GetEvent loads one event with its attendees and attendance.
func (s *Store) GetEvent(ctx context.Context, id int64) (persistence.Event, error) {
	row := s.pool.DB().QueryRowContext(ctx, `SELECT `+eventColumns+` FROM events WHERE id = ?`, id)
	event, err := scanEvent(row)
	if err != nil {
		if err == sql.ErrNoRows {
			return persistence.Event{}, persistence.ErrNotFound
		}
		return persistence.Event{}, err
	}

	if err := s.loadAttendees(ctx, &event); err != nil {
		return persistence.Event{}, err
	}

	return event, nil
}

// ListEvents returns all events in insertion order.
func (s *Store) ListEvents(ctx context.Context) ([]persistence.Event, error) {
	rows, err := s.pool.DB().QueryContext(ctx, `SELECT `+eventColumns+` FROM events ORDER BY seq`)
	if err != nil {
		return nil, fmt.Errorf("list events: %w", err)
	}
	defer rows.Close()

	events := make([]persistence.Event, 0)
	for rows.Next() {
		event, err := scanEvent(rows)
		if err != nil {
			return nil, err
		}
		events = append(events, event)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list events: %w", err)
	}

	for i := range events {
		if err := s.loadAttendees(ctx, &events[i]); err != nil {
			return nil, err
		}
	}

	return events, nil
}

// DeleteEvent removes the event and cascades to attendees and attendance.
// An unknown id is a no-op.
func (s *Store) DeleteEvent(ctx context.Context, id int64) error {
	if _, err := s.pool.DB().ExecContext(ctx, `DELETE FROM events WHERE id = ?`, id); err != nil {
		return fmt.Errorf("delete event %d: %w", id, err)
	}
	return nil
}

// AppendAttendee inserts the attendee and its attendance scaffold in one
// transaction.
func (s *Store) AppendAttendee(ctx context.Context, eventID int64, attendee persistence.Attendee) error {
	return s.pool.WithTransaction(ctx, func(tx *sql.Tx) error {
		var exists int
		if err := tx.QueryRowContext(ctx, `SELECT COUNT(1) FROM events WHERE id = ?`, eventID).Scan(&exists); err != nil {
			return fmt.Errorf("check event %d: %w", eventID, err)
		}
		if exists == 0 {
			return persistence.ErrNotFound
		}

		var duplicate int
		if err := tx.QueryRowContext(ctx,
			`SELECT COUNT(1) FROM attendees WHERE event_id = ? AND email = ?`,
			eventID, attendee.Email,
		).Scan(&duplicate); err != nil {
			return fmt.Errorf("check duplicate attendee: %w", err)
		}
		if duplicate > 0 {
			return persistence.ErrDuplicateAttendee
		}

		var count int
		if err := tx.QueryRowContext(ctx, `SELECT COUNT(1) FROM attendees WHERE event_id = ?`, eventID).Scan(&count); err != nil {
			return fmt.Errorf("count attendees: %w", err)
		}

		return insertAttendee(ctx, tx, eventID, count+1, attendee)
	})
}

// SetAttendance upserts one session mark, creating an all-absent day record
// when the date key is new.
func (s *Store) SetAttendance(ctx context.Context, eventID int64, email, dateKey, session string, present bool) error {
	var column string
	switch session {
	case "morning":
		column = "morning"
	case "afternoon":
		column = "afternoon"
	default:
		return fmt.Errorf("sqlite: unknown session %q", session)
	}

	return s.pool.WithTransaction(ctx, func(tx *sql.Tx) error {
		var exists int
		if err := tx.QueryRowContext(ctx,
			`SELECT COUNT(1) FROM attendees WHERE event_id = ? AND email = ?`,
			eventID, email,
		).Scan(&exists); err != nil {
			return fmt.Errorf("check attendee: %w", err)
		}
		if exists == 0 {
			return persistence.ErrNotFound
		}

		query := fmt.Sprintf(`
			INSERT INTO attendance (event_id, email, date_key, %[1]s)
			VALUES (?, ?, ?, ?)
			ON CONFLICT(event_id, email, date_key) DO UPDATE SET %[1]s = excluded.%[1]s`, column)
		if _, err := tx.ExecContext(ctx, query, eventID, email, dateKey, present); err != nil {
			return fmt.Errorf("upsert attendance: %w", err)
		}

		return nil
	})
}

func (s *Store) loadAttendees(ctx context.Context, event *persistence.Event) error {
	rows, err := s.pool.DB().QueryContext(ctx, `
		SELECT email, name, phone, college, department, year, registration_date, status
		FROM attendees WHERE event_id = ? ORDER BY seq`, event.ID)
	if err != nil {
		return fmt.Errorf("load attendees for event %d: %w", event.ID, err)
	}
	defer rows.Close()

	event.Attendees = make([]persistence.Attendee, 0)
	for rows.Next() {
		var attendee persistence.Attendee
		var registered string
		if err := rows.Scan(
			&attendee.Email,
			&attendee.Name,
			&attendee.Phone,
			&attendee.College,
			&attendee.Department,
			&attendee.Year,
			&registered,
			&attendee.Status,
		); err != nil {
			return fmt.Errorf("scan attendee: %w", err)
		}
		if attendee.RegistrationDate, err = parseTime(registered); err != nil {
			return err
		}
		attendee.Attendance = make(map[string]persistence.DayAttendance)
		event.Attendees = append(event.Attendees, attendee)
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("load attendees for event %d: %w", event.ID, err)
	}

	event.CurrentParticipants = len(event.Attendees)
	return s.loadAttendance(ctx, event)
}

func (s *Store) loadAttendance(ctx context.Context, event *persistence.Event) error {
	rows, err := s.pool.DB().QueryContext(ctx, `
		SELECT email, date_key, morning, afternoon
		FROM attendance WHERE event_id = ?`, event.ID)
	if err != nil {
		return fmt.Errorf("load attendance for event %d: %w", event.ID, err)
	}
	defer rows.Close()

	byEmail := make(map[string]int, len(event.Attendees))
	for i, attendee := range event.Attendees {
		byEmail[attendee.Email] = i
	}

	for rows.Next() {
		var email, dateKey string
		var day persistence.DayAttendance
		if err := rows.Scan(&email, &dateKey, &day.Morning, &day.Afternoon); err != nil {
			return fmt.Errorf("scan attendance: %w", err)
		}
		if idx, ok := byEmail[email]; ok {
			event.Attendees[idx].Attendance[dateKey] = day
		}
	}
	return rows.Err()
}

func insertAttendee(ctx context.Context, tx *sql.Tx, eventID int64, seq int, attendee persistence.Attendee) error {
	_, err := tx.ExecContext(ctx, `
		INSERT INTO attendees (event_id, seq, email, name, phone, college, department, year, registration_date, status)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		eventID,
		seq,
		attendee.Email,
		attendee.Name,
		attendee.Phone,
		attendee.College,
		attendee.Department,
		attendee.Year,
		formatTime(attendee.RegistrationDate),
		attendee.Status,
	)
	if err != nil {
		return fmt.Errorf("insert attendee %s: %w", attendee.Email, err)
	}

	keys := make([]string, 0, len(attendee.Attendance))
	for key := range attendee.Attendance {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	for _, key := range keys {
		day := attendee.Attendance[key]
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO attendance (event_id, email, date_key, morning, afternoon)
			VALUES (?, ?, ?, ?, ?)`,
			eventID, attendee.Email, key, day.Morning, day.Afternoon,
		); err != nil {
			return fmt.Errorf("insert attendance %s/%s: %w", attendee.Email, key, err)
		}
	}

	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanEvent(row rowScanner) (persistence.Event, error) {
	var event persistence.Event
	var start, regStart, regDeadline, created, updated, organizers string
	var end sql.NullString

	err := row.Scan(
		&event.ID,
		&event.Title,
		&event.Description,
		&event.Location,
		&start,
		&end,
		&regStart,
		&regDeadline,
		&event.MaxParticipants,
		(*string)(&event.Status),
		&event.EventDays,
		&event.RequiresAttendance,
		&organizers,
		&event.ImageURL,
		&created,
		&updated,
	)
	if err != nil {
		return persistence.Event{}, err
	}

	if event.StartDate, err = parseTime(start); err != nil {
		return persistence.Event{}, err
	}
	if end.Valid && end.String != "" {
		t, err := parseTime(end.String)
		if err != nil {
			return persistence.Event{}, err
		}
		event.EndDate = &t
	}
	if event.RegistrationStartDate, err = parseTime(regStart); err != nil {
		return persistence.Event{}, err
	}
	if event.RegistrationDeadline, err = parseTime(regDeadline); err != nil {
		return persistence.Event{}, err
	}
	if event.CreatedAt, err = parseTime(created); err != nil {
		return persistence.Event{}, err
	}
	if event.UpdatedAt, err = parseTime(updated); err != nil {
		return persistence.Event{}, err
	}
	if err := json.Unmarshal([]byte(organizers), &event.Organizers); err != nil {
		return persistence.Event{}, fmt.Errorf("decode organizers: %w", err)
	}

	return event, nil
}

func organizersOrEmpty(organizers []string) []string {
	if organizers == nil {
		return []string{}
	}
	return organizers
}

func formatTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339Nano)
}

func formatTimePtr(t *time.Time) any {
	if t == nil {
		return nil
	}
	return formatTime(*t)
}

func parseTime(value string) (time.Time, error) {
	t, err := time.Parse(time.RFC3339Nano, value)
	if err != nil {
		return time.Time{}, fmt.Errorf("parse stored timestamp %q: %w", value, err)
	}
	return t, nil
}
