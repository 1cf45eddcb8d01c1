// Package http provides the JSON API for the club events service.
//
// The router exposes the following endpoints:
//   - POST /sessions: demo login. Body: {"email","password"}. The password is
//     not verified; accounts whose email contains "admin" become
//     administrators. The token is returned in the body and surfaced via the
//     `X-Session-Token` header and a `session_token` cookie.
//   - GET /sessions/current: current session state; anonymous callers get
//     {"authenticated":false} rather than an error.
//   - DELETE /sessions/current: logout. Clears the cookie and the durable
//     session slot.
//   - PUT /profile: merges the submitted fields into the signed-in user's
//     profile (authenticated).
//   - GET /events, GET /events/{id}: public event catalog in insertion order.
//   - POST /events, PUT /events/{id}, DELETE /events/{id}: administrator
//     event management. Updates merge fields; deletes are idempotent.
//   - POST /events/{id}/registrations: register a participant (authenticated).
//   - PUT /events/{id}/attendance: mark one morning/afternoon session
//     (administrator).
//   - GET /events/{id}/attendance/export: download the attendance sheet as
//     CSV with a Content-Disposition filename (administrator).
//
// Request/response payloads reuse the persistence model types, which carry
// the JSON field names the original web client exchanged.
package http
