package application

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/mail"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/example/club-events/internal/persistence"
)

// Session is the in-memory authentication state. The service keeps a single
// current session mirroring the durable slot; Token is transport-level and
// never persisted.
type Session struct {
	Authenticated bool
	Admin         bool
	User          *persistence.UserProfile
	Token         string
}

// SessionService owns the current session and keeps it in lockstep with the
// durable slot: every login, logout, and profile update writes through before
// the in-memory state changes.
type SessionService struct {
	slot        persistence.SessionSlot
	idGenerator func() int64
	now         func() time.Time
	newToken    func() string
	ttl         time.Duration
	logger      *slog.Logger

	mu      sync.Mutex
	current Session
	expires time.Time
}

// NewSessionService wires dependencies for the session service. A zero ttl
// disables token expiry.
func NewSessionService(slot persistence.SessionSlot, idGenerator func() int64, now func() time.Time, ttl time.Duration, logger *slog.Logger) *SessionService {
	if idGenerator == nil {
		idGenerator = func() int64 { return time.Now().UnixMilli() }
	}
	if now == nil {
		now = time.Now
	}
	return &SessionService{
		slot:        slot,
		idGenerator: idGenerator,
		now:         now,
		newToken:    uuid.NewString,
		ttl:         ttl,
		logger:      defaultLogger(logger),
	}
}

// Login establishes a fresh session for the supplied profile. The caller
// decides the admin flag; no credentials are verified. The profile receives a
// fresh id and is written to the durable slot before the session changes.
func (s *SessionService) Login(ctx context.Context, isAdmin bool, profile persistence.UserProfile) (Session, error) {
	if s == nil {
		return Session{}, fmt.Errorf("SessionService is nil")
	}

	profile.Email = strings.ToLower(strings.TrimSpace(profile.Email))
	profile.Name = strings.TrimSpace(profile.Name)

	vErr := &ValidationError{}
	if profile.Email == "" {
		vErr.add("email", "email is required")
	} else if _, err := mail.ParseAddress(profile.Email); err != nil {
		vErr.add("email", "email is invalid")
	}
	if vErr.HasErrors() {
		return Session{}, vErr
	}

	if profile.Name == "" {
		profile.Name = profile.Email[:strings.Index(profile.Email, "@")]
	}
	profile.ID = s.idGenerator()
	profile.IsAdmin = isAdmin

	if s.slot != nil {
		if err := s.slot.Save(ctx, profile); err != nil {
			return Session{}, err
		}
	}

	session := Session{
		Authenticated: true,
		Admin:         isAdmin,
		User:          &profile,
		Token:         s.newToken(),
	}

	s.mu.Lock()
	s.current = session
	if s.ttl > 0 {
		s.expires = s.now().Add(s.ttl)
	} else {
		s.expires = time.Time{}
	}
	s.mu.Unlock()

	serviceLogger(ctx, s.logger, "session", "login").
		InfoContext(ctx, "session established", "user_id", profile.ID, "admin", isAdmin)
	return session, nil
}

// Logout ends the session identified by token and clears the durable slot.
// An unknown or stale token is a no-op.
func (s *SessionService) Logout(ctx context.Context, token string) error {
	if s == nil {
		return fmt.Errorf("SessionService is nil")
	}

	s.mu.Lock()
	active := s.current.Authenticated && token != "" && s.current.Token == token
	if active {
		s.current = Session{}
		s.expires = time.Time{}
	}
	s.mu.Unlock()

	if !active {
		return nil
	}

	if s.slot != nil {
		if err := s.slot.Clear(ctx); err != nil {
			return err
		}
	}

	serviceLogger(ctx, s.logger, "session", "logout").InfoContext(ctx, "session ended")
	return nil
}

// Current returns the session for the presented token, or the anonymous
// session when the token is missing, unknown, or expired.
func (s *SessionService) Current(token string) Session {
	if s == nil {
		return Session{}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.sessionValidLocked(token) {
		return Session{}
	}
	return s.cloneCurrentLocked()
}

// UpdateUserProfile merges the supplied fields into the signed-in user's
// profile and re-persists the slot. Returns nil without error when there is
// no authenticated session.
func (s *SessionService) UpdateUserProfile(ctx context.Context, token string, input ProfileInput) (*persistence.UserProfile, error) {
	if s == nil {
		return nil, fmt.Errorf("SessionService is nil")
	}

	s.mu.Lock()
	if !s.sessionValidLocked(token) {
		s.mu.Unlock()
		return nil, nil
	}

	profile := *s.current.User
	if input.Name != nil {
		profile.Name = strings.TrimSpace(*input.Name)
	}
	if input.Phone != nil {
		profile.Phone = strings.TrimSpace(*input.Phone)
	}
	if input.College != nil {
		profile.College = strings.TrimSpace(*input.College)
	}
	if input.Department != nil {
		profile.Department = strings.TrimSpace(*input.Department)
	}
	if input.Year != nil {
		profile.Year = strings.TrimSpace(*input.Year)
	}
	if input.Bio != nil {
		profile.Bio = strings.TrimSpace(*input.Bio)
	}
	s.mu.Unlock()

	if s.slot != nil {
		if err := s.slot.Save(ctx, profile); err != nil {
			return nil, err
		}
	}

	s.mu.Lock()
	if s.sessionValidLocked(token) {
		clone := profile
		s.current.User = &clone
	}
	s.mu.Unlock()

	serviceLogger(ctx, s.logger, "session", "update_profile").
		InfoContext(ctx, "profile updated", "user_id", profile.ID)

	updated := profile
	return &updated, nil
}

// Restore rebuilds the session from the durable slot at startup. A missing or
// malformed slot yields the anonymous session; restore never fails startup.
func (s *SessionService) Restore(ctx context.Context) Session {
	if s == nil || s.slot == nil {
		return Session{}
	}

	logger := serviceLogger(ctx, s.logger, "session", "restore")

	profile, err := s.slot.Load(ctx)
	if err != nil {
		if !errors.Is(err, persistence.ErrNotFound) {
			logger.WarnContext(ctx, "session slot unreadable, starting anonymous", "error", err)
		}
		return Session{}
	}

	session := Session{
		Authenticated: true,
		Admin:         profile.IsAdmin,
		User:          &profile,
		Token:         s.newToken(),
	}

	s.mu.Lock()
	s.current = session
	if s.ttl > 0 {
		s.expires = s.now().Add(s.ttl)
	} else {
		s.expires = time.Time{}
	}
	s.mu.Unlock()

	logger.InfoContext(ctx, "session restored", "user_id", profile.ID, "admin", profile.IsAdmin)
	return session
}

// ValidateToken resolves a bearer token to a principal for middleware.
func (s *SessionService) ValidateToken(token string) (Principal, bool) {
	if s == nil {
		return Principal{}, false
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.sessionValidLocked(token) {
		return Principal{}, false
	}
	return Principal{UserID: s.current.User.ID, IsAdmin: s.current.Admin}, true
}

// SweepExpired ends the session when its token has passed the ttl, clearing
// the durable slot as a full logout would. Returns the number of sessions
// removed (0 or 1).
func (s *SessionService) SweepExpired(ctx context.Context) int {
	if s == nil {
		return 0
	}

	s.mu.Lock()
	expired := s.current.Authenticated && !s.expires.IsZero() && s.now().After(s.expires)
	if expired {
		s.current = Session{}
		s.expires = time.Time{}
	}
	s.mu.Unlock()

	if !expired {
		return 0
	}

	if s.slot != nil {
		if err := s.slot.Clear(ctx); err != nil {
			serviceLogger(ctx, s.logger, "session", "sweep").
				WarnContext(ctx, "failed to clear session slot", "error", err)
		}
	}

	serviceLogger(ctx, s.logger, "session", "sweep").InfoContext(ctx, "expired session removed")
	return 1
}

func (s *SessionService) sessionValidLocked(token string) bool {
	if !s.current.Authenticated || token == "" || s.current.Token != token {
		return false
	}
	if !s.expires.IsZero() && s.now().After(s.expires) {
		return false
	}
	return true
}

func (s *SessionService) cloneCurrentLocked() Session {
	session := s.current
	if s.current.User != nil {
		user := *s.current.User
		session.User = &user
	}
	return session
}
