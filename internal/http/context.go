package http

import (
	"context"

	"github.com/example/club-events/internal/application"
)

type contextKey string

const (
	principalContextKey contextKey = "principal"
	eventIDContextKey   contextKey = "event_id"
)

// ContextWithPrincipal returns a derived context containing the authenticated principal.
func ContextWithPrincipal(ctx context.Context, principal application.Principal) context.Context {
	return context.WithValue(ctx, principalContextKey, principal)
}

// PrincipalFromContext extracts the authenticated principal from context if available.
func PrincipalFromContext(ctx context.Context) (application.Principal, bool) {
	principal, ok := ctx.Value(principalContextKey).(application.Principal)
	return principal, ok
}

// ContextWithEventID injects the event identifier resolved from the request path.
func ContextWithEventID(ctx context.Context, eventID int64) context.Context {
	return context.WithValue(ctx, eventIDContextKey, eventID)
}

// EventIDFromContext extracts an event identifier previously associated with the context.
func EventIDFromContext(ctx context.Context) (int64, bool) {
	id, ok := ctx.Value(eventIDContextKey).(int64)
	return id, ok
}
