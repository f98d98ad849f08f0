package session

import "errors"

// Guard failures. Every one of them forces a logout.
var (
	ErrSessionMissing = errors.New("session missing")
	ErrTokenMalformed = errors.New("token malformed")
	ErrTokenExpired   = errors.New("token expired")
	ErrRoleMismatch   = errors.New("role mismatch")
)

// Message returns the text shown to the user when the guard logs them out.
func Message(err error) string {
	switch {
	case errors.Is(err, ErrTokenExpired):
		return "Your session has expired. Please log in again."
	case errors.Is(err, ErrRoleMismatch):
		return "You do not have permission to access this page."
	case errors.Is(err, ErrTokenMalformed):
		return "Invalid session. Please log in again."
	}
	return "Session expired. Please log in again."
}
