package http

import (
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/example/club-events/internal/application"
)

type stubValidator struct {
	token     string
	principal application.Principal
}

func (s stubValidator) ValidateToken(token string) (application.Principal, bool) {
	if token != s.token {
		return application.Principal{}, false
	}
	return s.principal, true
}

func TestRequireSession(t *testing.T) {
	t.Parallel()

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	validator := stubValidator{token: "valid-token", principal: application.Principal{UserID: 7, IsAdmin: true}}

	var captured *application.Principal
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if principal, ok := PrincipalFromContext(r.Context()); ok {
			captured = &principal
		}
		w.WriteHeader(http.StatusOK)
	})
	protected := RequireSession(validator, logger)(next)

	t.Run("missing token", func(t *testing.T) {
		recorder := httptest.NewRecorder()
		protected.ServeHTTP(recorder, httptest.NewRequest(http.MethodGet, "/protected", nil))
		if recorder.Code != http.StatusUnauthorized {
			t.Fatalf("expected 401, got %d", recorder.Code)
		}
	})

	t.Run("unknown token", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/protected", nil)
		req.Header.Set("Authorization", "Bearer bogus")
		recorder := httptest.NewRecorder()
		protected.ServeHTTP(recorder, req)
		if recorder.Code != http.StatusUnauthorized {
			t.Fatalf("expected 401, got %d", recorder.Code)
		}
	})

	t.Run("bearer header attaches the principal", func(t *testing.T) {
		captured = nil
		req := httptest.NewRequest(http.MethodGet, "/protected", nil)
		req.Header.Set("Authorization", "Bearer valid-token")
		recorder := httptest.NewRecorder()
		protected.ServeHTTP(recorder, req)

		if recorder.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d", recorder.Code)
		}
		if captured == nil || captured.UserID != 7 || !captured.IsAdmin {
			t.Errorf("expected principal passed through, got %+v", captured)
		}
	})

	t.Run("session cookie works as a fallback", func(t *testing.T) {
		captured = nil
		req := httptest.NewRequest(http.MethodGet, "/protected", nil)
		req.AddCookie(&http.Cookie{Name: "session_token", Value: "valid-token"})
		recorder := httptest.NewRecorder()
		protected.ServeHTTP(recorder, req)

		if recorder.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d", recorder.Code)
		}
		if captured == nil {
			t.Error("expected principal from cookie token")
		}
	})
}

func TestRequestLogger(t *testing.T) {
	t.Parallel()

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	var sawLogger bool
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		sawLogger = LoggerFromContext(r.Context()) != nil
		w.WriteHeader(http.StatusOK)
	})

	recorder := httptest.NewRecorder()
	RequestLogger(logger)(next).ServeHTTP(recorder, httptest.NewRequest(http.MethodGet, "/events", nil))

	if recorder.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", recorder.Code)
	}
	if !sawLogger {
		t.Error("expected request-scoped logger in context")
	}
}
