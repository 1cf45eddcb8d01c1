package http

import (
	"net/http"
	"strconv"
	"strings"
)

// RouterConfig wires handlers and middleware into the route table.
// RequireSession guards the authenticated routes; Middleware wraps the whole
// router (request logging and the like).
type RouterConfig struct {
	Sessions       *SessionHandler
	Events         *EventHandler
	RequireSession func(http.Handler) http.Handler
	Middleware     []func(http.Handler) http.Handler
}

func NewRouter(cfg RouterConfig) http.Handler {
	mux := http.NewServeMux()

	protect := cfg.RequireSession
	if protect == nil {
		protect = func(next http.Handler) http.Handler { return next }
	}

	if cfg.Sessions != nil {
		mux.HandleFunc("/sessions", func(w http.ResponseWriter, r *http.Request) {
			if r.Method != http.MethodPost {
				methodNotAllowed(w, http.MethodPost)
				return
			}
			cfg.Sessions.CreateSession(w, r)
		})
		mux.HandleFunc("/sessions/current", func(w http.ResponseWriter, r *http.Request) {
			switch r.Method {
			case http.MethodGet:
				cfg.Sessions.CurrentSession(w, r)
			case http.MethodDelete:
				cfg.Sessions.DeleteCurrentSession(w, r)
			default:
				methodNotAllowed(w, http.MethodGet, http.MethodDelete)
			}
		})
		mux.Handle("/profile", protect(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.Method != http.MethodPut {
				methodNotAllowed(w, http.MethodPut)
				return
			}
			cfg.Sessions.UpdateProfile(w, r)
		})))
	}

	if cfg.Events != nil {
		mux.HandleFunc("/events", func(w http.ResponseWriter, r *http.Request) {
			switch r.Method {
			case http.MethodGet:
				cfg.Events.List(w, r)
			case http.MethodPost:
				protect(http.HandlerFunc(cfg.Events.Create)).ServeHTTP(w, r)
			default:
				methodNotAllowed(w, http.MethodGet, http.MethodPost)
			}
		})
		mux.HandleFunc("/events/", func(w http.ResponseWriter, r *http.Request) {
			rest := strings.TrimPrefix(r.URL.Path, "/events/")
			idPart, subPath, _ := strings.Cut(rest, "/")
			eventID, err := strconv.ParseInt(idPart, 10, 64)
			if err != nil || eventID <= 0 {
				http.NotFound(w, r)
				return
			}
			r = r.WithContext(ContextWithEventID(r.Context(), eventID))

			switch subPath {
			case "":
				switch r.Method {
				case http.MethodGet:
					cfg.Events.Get(w, r)
				case http.MethodPut:
					protect(http.HandlerFunc(cfg.Events.Update)).ServeHTTP(w, r)
				case http.MethodDelete:
					protect(http.HandlerFunc(cfg.Events.Delete)).ServeHTTP(w, r)
				default:
					methodNotAllowed(w, http.MethodGet, http.MethodPut, http.MethodDelete)
				}
			case "registrations":
				if r.Method != http.MethodPost {
					methodNotAllowed(w, http.MethodPost)
					return
				}
				protect(http.HandlerFunc(cfg.Events.Register)).ServeHTTP(w, r)
			case "attendance":
				if r.Method != http.MethodPut {
					methodNotAllowed(w, http.MethodPut)
					return
				}
				protect(http.HandlerFunc(cfg.Events.UpdateAttendance)).ServeHTTP(w, r)
			case "attendance/export":
				if r.Method != http.MethodGet {
					methodNotAllowed(w, http.MethodGet)
					return
				}
				protect(http.HandlerFunc(cfg.Events.Export)).ServeHTTP(w, r)
			default:
				http.NotFound(w, r)
			}
		})
	}

	var handler http.Handler = mux
	for i := len(cfg.Middleware) - 1; i >= 0; i-- {
		if cfg.Middleware[i] != nil {
			handler = cfg.Middleware[i](handler)
		}
	}

	return handler
}

func methodNotAllowed(w http.ResponseWriter, allowed ...string) {
	if len(allowed) > 0 {
		w.Header().Set("Allow", strings.Join(allowed, ", "))
	}
	http.Error(w, http.StatusText(http.StatusMethodNotAllowed), http.StatusMethodNotAllowed)
}
