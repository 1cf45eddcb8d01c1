package application

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/mail"
	"strings"
	"time"

	"github.com/example/club-events/internal/attendance"
	"github.com/example/club-events/internal/persistence"
)

// EventService orchestrates validation, authorization, and persistence for
// events, registrations, and attendance tracking.
type EventService struct {
	events      persistence.EventRepository
	idGenerator func() int64
	now         func() time.Time
	logger      *slog.Logger
}

// NewEventService wires dependencies for the event service.
func NewEventService(events persistence.EventRepository, idGenerator func() int64, now func() time.Time, logger *slog.Logger) *EventService {
	if idGenerator == nil {
		idGenerator = func() int64 { return time.Now().UnixMilli() }
	}
	if now == nil {
		now = time.Now
	}
	return &EventService{events: events, idGenerator: idGenerator, now: now, logger: defaultLogger(logger)}
}

// SaveEventParams carries the arguments for SaveEvent. A zero EventID creates
// a new event; a non-zero id updates the existing one.
type SaveEventParams struct {
	Principal Principal
	EventID   int64
	Input     EventInput
}

// ListEvents returns a snapshot of all events in insertion order.
func (s *EventService) ListEvents(ctx context.Context) ([]persistence.Event, error) {
	if s == nil {
		return nil, fmt.Errorf("EventService is nil")
	}
	if s.events == nil {
		return nil, nil
	}

	events, err := s.events.ListEvents(ctx)
	if err != nil {
		return nil, err
	}

	return events, nil
}

// GetEvent returns a single event by id.
func (s *EventService) GetEvent(ctx context.Context, eventID int64) (persistence.Event, error) {
	if s == nil {
		return persistence.Event{}, fmt.Errorf("EventService is nil")
	}
	if s.events == nil {
		return persistence.Event{}, fmt.Errorf("event repository not configured")
	}

	event, err := s.events.GetEvent(ctx, eventID)
	if err != nil {
		if errors.Is(err, persistence.ErrNotFound) {
			return persistence.Event{}, ErrNotFound
		}
		return persistence.Event{}, err
	}

	return event, nil
}

// SaveEvent creates or updates an event for administrators. Updates merge the
// provided fields into the stored event, never touching the attendee list,
// the participant counter, or the creation timestamp.
func (s *EventService) SaveEvent(ctx context.Context, params SaveEventParams) (persistence.Event, error) {
	if s == nil {
		return persistence.Event{}, fmt.Errorf("EventService is nil")
	}
	if !params.Principal.IsAdmin {
		return persistence.Event{}, ErrUnauthorized
	}
	if s.events == nil {
		return persistence.Event{}, fmt.Errorf("event repository not configured")
	}

	logger := serviceLogger(ctx, s.logger, "event", "save_event", "event_id", params.EventID)

	if params.EventID == 0 {
		event := s.newEvent(params.Input)
		if vErr := validateEvent(event); vErr.HasErrors() {
			return persistence.Event{}, vErr
		}
		if err := s.events.CreateEvent(ctx, event); err != nil {
			logger.ErrorContext(ctx, "event create failed", "error", err)
			return persistence.Event{}, err
		}
		logger.InfoContext(ctx, "event created", "event_id", event.ID)
		return event, nil
	}

	existing, err := s.events.GetEvent(ctx, params.EventID)
	if err != nil {
		if errors.Is(err, persistence.ErrNotFound) {
			return persistence.Event{}, ErrNotFound
		}
		return persistence.Event{}, err
	}

	merged := mergeEvent(existing, params.Input)
	merged.UpdatedAt = s.now()
	if vErr := validateEvent(merged); vErr.HasErrors() {
		return persistence.Event{}, vErr
	}

	if err := s.events.UpdateEvent(ctx, merged); err != nil {
		if errors.Is(err, persistence.ErrNotFound) {
			return persistence.Event{}, ErrNotFound
		}
		logger.ErrorContext(ctx, "event update failed", "error", err)
		return persistence.Event{}, err
	}

	logger.InfoContext(ctx, "event updated")
	return merged, nil
}

// DeleteEvent removes an event for administrators. Deleting an unknown id is
// a no-op.
func (s *EventService) DeleteEvent(ctx context.Context, principal Principal, eventID int64) error {
	if s == nil {
		return fmt.Errorf("EventService is nil")
	}
	if !principal.IsAdmin {
		return ErrUnauthorized
	}
	if s.events == nil {
		return fmt.Errorf("event repository not configured")
	}

	if err := s.events.DeleteEvent(ctx, eventID); err != nil {
		return err
	}

	serviceLogger(ctx, s.logger, "event", "delete_event", "event_id", eventID).InfoContext(ctx, "event deleted")
	return nil
}

// RegisterParticipant validates the registration, enforces the registration
// window, capacity, and email uniqueness, and appends the attendee with a
// fresh attendance scaffold.
func (s *EventService) RegisterParticipant(ctx context.Context, eventID int64, input RegistrationInput) (persistence.Event, error) {
	if s == nil {
		return persistence.Event{}, fmt.Errorf("EventService is nil")
	}
	if s.events == nil {
		return persistence.Event{}, fmt.Errorf("event repository not configured")
	}

	normalized := normalizeRegistration(input)
	if vErr := validateRegistration(normalized); vErr.HasErrors() {
		return persistence.Event{}, vErr
	}

	event, err := s.events.GetEvent(ctx, eventID)
	if err != nil {
		if errors.Is(err, persistence.ErrNotFound) {
			return persistence.Event{}, ErrNotFound
		}
		return persistence.Event{}, err
	}

	now := s.now()
	if !registrationOpen(event, now) {
		return persistence.Event{}, ErrRegistrationClosed
	}
	if event.MaxParticipants > 0 && event.CurrentParticipants >= event.MaxParticipants {
		return persistence.Event{}, ErrEventFull
	}

	attendee := persistence.Attendee{
		Name:             normalized.Name,
		Email:            normalized.Email,
		Phone:            normalized.Phone,
		College:          normalized.College,
		Department:       normalized.Department,
		Year:             normalized.Year,
		RegistrationDate: now,
		Status:           "confirmed",
		Attendance:       attendance.NewScaffold(event),
	}

	if err := s.events.AppendAttendee(ctx, eventID, attendee); err != nil {
		switch {
		case errors.Is(err, persistence.ErrDuplicateAttendee):
			return persistence.Event{}, ErrAlreadyRegistered
		case errors.Is(err, persistence.ErrNotFound):
			return persistence.Event{}, ErrNotFound
		}
		return persistence.Event{}, err
	}

	updated, err := s.events.GetEvent(ctx, eventID)
	if err != nil {
		return persistence.Event{}, err
	}

	serviceLogger(ctx, s.logger, "event", "register_participant", "event_id", eventID).
		InfoContext(ctx, "participant registered", "email", normalized.Email, "participants", updated.CurrentParticipants)
	return updated, nil
}

// UpdateAttendance records one attendee session mark for administrators.
// Setting a mark to its current value is a no-op.
func (s *EventService) UpdateAttendance(ctx context.Context, principal Principal, eventID int64, update AttendanceUpdate) error {
	if s == nil {
		return fmt.Errorf("EventService is nil")
	}
	if !principal.IsAdmin {
		return ErrUnauthorized
	}
	if s.events == nil {
		return fmt.Errorf("event repository not configured")
	}

	vErr := &ValidationError{}
	if strings.TrimSpace(update.Email) == "" {
		vErr.add("email", "email is required")
	}
	if !attendance.ValidSession(update.Session) {
		vErr.add("session", "session must be morning or afternoon")
	}
	if update.DateKey == "" {
		vErr.add("date", "date is required")
	}
	if vErr.HasErrors() {
		return vErr
	}

	event, err := s.events.GetEvent(ctx, eventID)
	if err != nil {
		if errors.Is(err, persistence.ErrNotFound) {
			return ErrNotFound
		}
		return err
	}
	if event.RequiresAttendance && !attendance.InRange(event, update.DateKey) {
		vErr.add("date", "date is outside the event days")
		return vErr
	}

	email := strings.ToLower(strings.TrimSpace(update.Email))
	if err := s.events.SetAttendance(ctx, eventID, email, update.DateKey, update.Session, update.Present); err != nil {
		if errors.Is(err, persistence.ErrNotFound) {
			return ErrNotFound
		}
		return err
	}

	serviceLogger(ctx, s.logger, "event", "update_attendance", "event_id", eventID).
		InfoContext(ctx, "attendance updated", "date", update.DateKey, "session", update.Session, "present", update.Present)
	return nil
}

func (s *EventService) newEvent(input EventInput) persistence.Event {
	now := s.now()

	event := persistence.Event{
		ID:                 s.idGenerator(),
		Status:             persistence.StatusUpcoming,
		EventDays:          1,
		RequiresAttendance: true,
		Attendees:          []persistence.Attendee{},
		CreatedAt:          now,
		UpdatedAt:          now,
	}
	event.RegistrationStartDate = now

	return mergeEvent(event, input)
}

// mergeEvent applies the provided input fields onto base, leaving absent
// fields untouched. ID, attendees, counters, and CreatedAt never change.
func mergeEvent(base persistence.Event, input EventInput) persistence.Event {
	event := base

	if input.Title != nil {
		event.Title = strings.TrimSpace(*input.Title)
	}
	if input.Description != nil {
		event.Description = strings.TrimSpace(*input.Description)
	}
	if input.Location != nil {
		event.Location = strings.TrimSpace(*input.Location)
	}
	if input.StartDate != nil {
		event.StartDate = *input.StartDate
	}
	if input.EndDate != nil {
		end := *input.EndDate
		event.EndDate = &end
	}
	if input.RegistrationStartDate != nil {
		event.RegistrationStartDate = *input.RegistrationStartDate
	}
	if input.RegistrationDeadline != nil {
		event.RegistrationDeadline = *input.RegistrationDeadline
	}
	if input.MaxParticipants != nil {
		event.MaxParticipants = *input.MaxParticipants
	}
	if input.Status != nil {
		event.Status = persistence.EventStatus(*input.Status)
	}
	if input.EventDays != nil {
		event.EventDays = *input.EventDays
	}
	if input.RequiresAttendance != nil {
		event.RequiresAttendance = *input.RequiresAttendance
	}
	if input.Organizers != nil {
		event.Organizers = dedupeOrganizers(input.Organizers)
	}
	if input.ImageURL != nil {
		event.ImageURL = strings.TrimSpace(*input.ImageURL)
	}

	return event
}

func dedupeOrganizers(organizers []string) []string {
	seen := make(map[string]struct{}, len(organizers))
	out := make([]string, 0, len(organizers))
	for _, organizer := range organizers {
		organizer = strings.TrimSpace(organizer)
		if organizer == "" {
			continue
		}
		if _, ok := seen[organizer]; ok {
			continue
		}
		seen[organizer] = struct{}{}
		out = append(out, organizer)
	}
	return out
}

func validateEvent(event persistence.Event) *ValidationError {
	vErr := &ValidationError{}

	if event.Title == "" {
		vErr.add("title", "title is required")
	}
	if event.Description == "" {
		vErr.add("description", "description is required")
	}
	if event.Location == "" {
		vErr.add("location", "location is required")
	}
	if event.StartDate.IsZero() {
		vErr.add("startDate", "start date is required")
	}
	if event.EndDate != nil && !event.StartDate.IsZero() && !event.EndDate.After(event.StartDate) {
		vErr.add("endDate", "end date must be after the start date")
	}
	if event.RegistrationDeadline.IsZero() {
		vErr.add("registrationDeadline", "registration deadline is required")
	} else if !event.StartDate.IsZero() && event.RegistrationDeadline.After(event.StartDate) {
		vErr.add("registrationDeadline", "registration deadline must not be after the start date")
	}
	if event.MaxParticipants <= 0 {
		vErr.add("maxParticipants", "maximum participants must be positive")
	}
	if event.EventDays < 1 {
		vErr.add("eventDays", "event days must be at least 1")
	}
	if !persistence.ValidStatus(event.Status) {
		vErr.add("status", "status is invalid")
	}

	return vErr
}

func registrationOpen(event persistence.Event, now time.Time) bool {
	switch event.Status {
	case persistence.StatusRegistrationOpen, persistence.StatusUpcoming:
	default:
		return false
	}
	if now.Before(event.RegistrationStartDate) {
		return false
	}
	if now.After(event.RegistrationDeadline) {
		return false
	}
	return true
}

func normalizeRegistration(input RegistrationInput) RegistrationInput {
	return RegistrationInput{
		Name:       strings.TrimSpace(input.Name),
		Email:      strings.ToLower(strings.TrimSpace(input.Email)),
		Phone:      strings.TrimSpace(input.Phone),
		College:    strings.TrimSpace(input.College),
		Department: strings.TrimSpace(input.Department),
		Year:       strings.TrimSpace(input.Year),
	}
}

func validateRegistration(input RegistrationInput) *ValidationError {
	vErr := &ValidationError{}

	if input.Name == "" {
		vErr.add("name", "name is required")
	}
	if input.Email == "" {
		vErr.add("email", "email is required")
	} else if _, err := mail.ParseAddress(input.Email); err != nil {
		vErr.add("email", "email is invalid")
	}
	if input.College == "" {
		vErr.add("college", "college is required")
	}
	if input.Department == "" {
		vErr.add("department", "department is required")
	}

	return vErr
}
