package http

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/example/club-events/internal/application"
	"github.com/example/club-events/internal/persistence"
)

type eventService interface {
	ListEvents(ctx context.Context) ([]persistence.Event, error)
	GetEvent(ctx context.Context, eventID int64) (persistence.Event, error)
	SaveEvent(ctx context.Context, params application.SaveEventParams) (persistence.Event, error)
	DeleteEvent(ctx context.Context, principal application.Principal, eventID int64) error
	RegisterParticipant(ctx context.Context, eventID int64, input application.RegistrationInput) (persistence.Event, error)
	UpdateAttendance(ctx context.Context, principal application.Principal, eventID int64, update application.AttendanceUpdate) error
	ExportAttendance(ctx context.Context, principal application.Principal, eventID int64) (application.Export, error)
}

// EventHandler exposes the event catalog, registrations, attendance, and the
// CSV export.
type EventHandler struct {
	service   eventService
	responder responder
	logger    *slog.Logger
}

func NewEventHandler(service eventService, logger *slog.Logger) *EventHandler {
	base := defaultLogger(logger)
	return &EventHandler{service: service, responder: newResponder(base), logger: base}
}

func (h *EventHandler) log(ctx context.Context, operation string, attrs ...any) *slog.Logger {
	if h == nil {
		return slog.Default()
	}
	return handlerLogger(ctx, h.logger, "EventHandler", operation, attrs...)
}

// List returns every event in insertion order.
func (h *EventHandler) List(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	events, err := h.service.ListEvents(r.Context())
	if err != nil {
		h.log(r.Context(), "List").ErrorContext(r.Context(), "failed to list events", "error", err)
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}
	if events == nil {
		events = []persistence.Event{}
	}

	h.responder.writeJSON(r.Context(), w, http.StatusOK, events)
}

// Get returns a single event.
func (h *EventHandler) Get(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	eventID, ok := EventIDFromContext(r.Context())
	if !ok {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errInvalidEventID)
		return
	}

	event, err := h.service.GetEvent(r.Context(), eventID)
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	h.responder.writeJSON(r.Context(), w, http.StatusOK, event)
}

// Create adds a new event for administrators.
func (h *EventHandler) Create(w http.ResponseWriter, r *http.Request) {
	h.save(w, r, 0)
}

// Update merges the submitted fields into an existing event.
func (h *EventHandler) Update(w http.ResponseWriter, r *http.Request) {
	eventID, ok := EventIDFromContext(r.Context())
	if !ok {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errInvalidEventID)
		return
	}
	h.save(w, r, eventID)
}

func (h *EventHandler) save(w http.ResponseWriter, r *http.Request, eventID int64) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	principal, ok := PrincipalFromContext(r.Context())
	if !ok {
		h.responder.writeError(r.Context(), w, http.StatusUnauthorized, errMissingSessionToken)
		return
	}

	var input application.EventInput
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		h.log(r.Context(), "Save", "error_kind", "bad_request").ErrorContext(r.Context(), "failed to decode event request", "error", err)
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errBadRequestBody)
		return
	}

	logger := h.log(r.Context(), "Save", "event_id", eventID, "actor_id", principal.UserID)

	event, err := h.service.SaveEvent(r.Context(), application.SaveEventParams{
		Principal: principal,
		EventID:   eventID,
		Input:     input,
	})
	if err != nil {
		logger.ErrorContext(r.Context(), "failed to save event", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	status := http.StatusOK
	if eventID == 0 {
		status = http.StatusCreated
		logger.InfoContext(r.Context(), "event created", "event_id", event.ID)
	} else {
		logger.InfoContext(r.Context(), "event updated")
	}
	h.responder.writeJSON(r.Context(), w, status, event)
}

// Delete removes an event for administrators. Removing an unknown id still
// responds with 204.
func (h *EventHandler) Delete(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	principal, ok := PrincipalFromContext(r.Context())
	if !ok {
		h.responder.writeError(r.Context(), w, http.StatusUnauthorized, errMissingSessionToken)
		return
	}

	eventID, ok := EventIDFromContext(r.Context())
	if !ok {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errInvalidEventID)
		return
	}

	if err := h.service.DeleteEvent(r.Context(), principal, eventID); err != nil {
		h.log(r.Context(), "Delete", "event_id", eventID).ErrorContext(r.Context(), "failed to delete event", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	h.log(r.Context(), "Delete", "event_id", eventID).InfoContext(r.Context(), "event deleted")
	h.responder.writeJSON(r.Context(), w, http.StatusNoContent, nil)
}

// Register adds a participant to an event.
func (h *EventHandler) Register(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	eventID, ok := EventIDFromContext(r.Context())
	if !ok {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errInvalidEventID)
		return
	}

	var input application.RegistrationInput
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		h.log(r.Context(), "Register", "error_kind", "bad_request").ErrorContext(r.Context(), "failed to decode registration request", "error", err)
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errBadRequestBody)
		return
	}

	event, err := h.service.RegisterParticipant(r.Context(), eventID, input)
	if err != nil {
		h.log(r.Context(), "Register", "event_id", eventID).ErrorContext(r.Context(), "registration failed", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	h.log(r.Context(), "Register", "event_id", eventID).InfoContext(r.Context(), "participant registered", "participants", event.CurrentParticipants)
	h.responder.writeJSON(r.Context(), w, http.StatusCreated, event)
}

// UpdateAttendance records one session mark for administrators.
func (h *EventHandler) UpdateAttendance(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	principal, ok := PrincipalFromContext(r.Context())
	if !ok {
		h.responder.writeError(r.Context(), w, http.StatusUnauthorized, errMissingSessionToken)
		return
	}

	eventID, ok := EventIDFromContext(r.Context())
	if !ok {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errInvalidEventID)
		return
	}

	var update application.AttendanceUpdate
	if err := json.NewDecoder(r.Body).Decode(&update); err != nil {
		h.log(r.Context(), "UpdateAttendance", "error_kind", "bad_request").ErrorContext(r.Context(), "failed to decode attendance request", "error", err)
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errBadRequestBody)
		return
	}

	if err := h.service.UpdateAttendance(r.Context(), principal, eventID, update); err != nil {
		h.log(r.Context(), "UpdateAttendance", "event_id", eventID).ErrorContext(r.Context(), "attendance update failed", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	h.responder.writeJSON(r.Context(), w, http.StatusNoContent, nil)
}

// Export streams the attendance sheet as a CSV download.
func (h *EventHandler) Export(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	principal, ok := PrincipalFromContext(r.Context())
	if !ok {
		h.responder.writeError(r.Context(), w, http.StatusUnauthorized, errMissingSessionToken)
		return
	}

	eventID, ok := EventIDFromContext(r.Context())
	if !ok {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errInvalidEventID)
		return
	}

	export, err := h.service.ExportAttendance(r.Context(), principal, eventID)
	if err != nil {
		h.log(r.Context(), "Export", "event_id", eventID).ErrorContext(r.Context(), "export failed", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", export.Filename))
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(export.Content); err != nil {
		h.log(r.Context(), "Export", "event_id", eventID).ErrorContext(r.Context(), "failed to write export", "error", err)
	}
}
