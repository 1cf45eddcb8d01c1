package http

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/example/club-events/internal/application"
	"github.com/example/club-events/internal/persistence"
)

type sessionService interface {
	Login(ctx context.Context, isAdmin bool, profile persistence.UserProfile) (application.Session, error)
	Logout(ctx context.Context, token string) error
	Current(token string) application.Session
	UpdateUserProfile(ctx context.Context, token string, input application.ProfileInput) (*persistence.UserProfile, error)
}

// SessionHandler exposes login, logout, session state, and profile updates.
type SessionHandler struct {
	service   sessionService
	responder responder
	logger    *slog.Logger
}

func NewSessionHandler(service sessionService, logger *slog.Logger) *SessionHandler {
	base := defaultLogger(logger)
	return &SessionHandler{service: service, responder: newResponder(base), logger: base}
}

func (h *SessionHandler) log(ctx context.Context, operation string, attrs ...any) *slog.Logger {
	if h == nil {
		return slog.Default()
	}
	return handlerLogger(ctx, h.logger, "SessionHandler", operation, attrs...)
}

// CreateSession performs the demo login: no password verification, and the
// account is an administrator when the email contains "admin".
func (h *SessionHandler) CreateSession(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	var req application.Credentials
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.log(r.Context(), "CreateSession", "error_kind", "bad_request").ErrorContext(r.Context(), "failed to decode login request", "error", err)
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errBadRequestBody)
		return
	}

	email := strings.ToLower(strings.TrimSpace(req.Email))
	isAdmin := strings.Contains(email, "admin")
	logger := h.log(r.Context(), "CreateSession", "email", email)

	session, err := h.service.Login(r.Context(), isAdmin, persistence.UserProfile{Email: email})
	if err != nil {
		logger.ErrorContext(r.Context(), "login failed", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	setSessionCookie(w, session.Token)
	w.Header().Set("X-Session-Token", session.Token)

	logger.InfoContext(r.Context(), "user logged in", "user_id", session.User.ID, "admin", session.Admin)
	h.responder.writeJSON(r.Context(), w, http.StatusCreated, newSessionResponse(session, true))
}

// CurrentSession reports the session state for the presented token. A missing
// or stale token yields the anonymous state, not an error.
func (h *SessionHandler) CurrentSession(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	session := h.service.Current(extractTokenFromRequest(r))
	h.responder.writeJSON(r.Context(), w, http.StatusOK, newSessionResponse(session, false))
}

// DeleteCurrentSession logs the current user out.
func (h *SessionHandler) DeleteCurrentSession(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	token := extractTokenFromRequest(r)
	if token == "" {
		h.log(r.Context(), "DeleteCurrentSession", "error_kind", "unauthorized").ErrorContext(r.Context(), "missing session token for logout")
		h.responder.writeError(r.Context(), w, http.StatusUnauthorized, errMissingSessionToken)
		return
	}

	if err := h.service.Logout(r.Context(), token); err != nil {
		h.log(r.Context(), "DeleteCurrentSession").ErrorContext(r.Context(), "logout failed", "error", err)
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	clearSessionCookie(w)
	h.log(r.Context(), "DeleteCurrentSession").InfoContext(r.Context(), "user logged out")
	h.responder.writeJSON(r.Context(), w, http.StatusNoContent, nil)
}

// UpdateProfile merges the submitted fields into the signed-in user's profile.
func (h *SessionHandler) UpdateProfile(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	var input application.ProfileInput
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		h.log(r.Context(), "UpdateProfile", "error_kind", "bad_request").ErrorContext(r.Context(), "failed to decode profile request", "error", err)
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errBadRequestBody)
		return
	}

	profile, err := h.service.UpdateUserProfile(r.Context(), extractTokenFromRequest(r), input)
	if err != nil {
		h.log(r.Context(), "UpdateProfile").ErrorContext(r.Context(), "profile update failed", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}
	if profile == nil {
		h.responder.writeJSON(r.Context(), w, http.StatusUnauthorized, errorResponse{
			ErrorCode: "AUTH_SESSION_INVALID",
			Message:   "the session is invalid or has expired; please log in again",
		})
		return
	}

	h.log(r.Context(), "UpdateProfile").InfoContext(r.Context(), "profile updated", "user_id", profile.ID)
	h.responder.writeJSON(r.Context(), w, http.StatusOK, profile)
}

type sessionResponse struct {
	Authenticated bool                     `json:"authenticated"`
	Admin         bool                     `json:"admin"`
	Token         string                   `json:"token,omitempty"`
	User          *persistence.UserProfile `json:"user,omitempty"`
}

func newSessionResponse(session application.Session, includeToken bool) sessionResponse {
	resp := sessionResponse{
		Authenticated: session.Authenticated,
		Admin:         session.Admin,
		User:          session.User,
	}
	if includeToken {
		resp.Token = session.Token
	}
	return resp
}

func setSessionCookie(w http.ResponseWriter, token string) {
	http.SetCookie(w, &http.Cookie{
		Name:     "session_token",
		Value:    token,
		HttpOnly: true,
		Path:     "/",
	})
}

func clearSessionCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     "session_token",
		Value:    "",
		Path:     "/",
		Expires:  time.Unix(0, 0),
		MaxAge:   -1,
		HttpOnly: true,
	})
}
