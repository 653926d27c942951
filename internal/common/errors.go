// Package common defines shared constants and sentinel errors used across
// NoteList components. Callers should use errors.Is to match these values.
package common

import "errors"

var (
	// Repository-level errors.
	ErrorNotFound = errors.New("not found")

	// Service-level errors (generic/internal flow control).
	ErrorInternal      = errors.New("internal error")
	ErrorUnauthorized  = errors.New("unauthorized")
	ErrVersionConflict = errors.New("version conflict")

	// Registration errors. Both may be returned joined when a single
	// registration attempt collides on username and email at once.
	ErrUsernameTaken = errors.New("username already taken")
	ErrEmailTaken    = errors.New("email already registered")

	// Auth errors (invalid or malformed token).
	ErrInvalidToken = errors.New("invalid token")

	// Session lifecycle errors.
	ErrTokenExpired   = errors.New("token expired")
	ErrSessionExpired = errors.New("session expired")
)

// SessionCookieName is the cookie that carries the signed session token.
const SessionCookieName = "notelist_session"
