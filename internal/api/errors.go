package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
)

// ErrNoToken is returned by Login when the backend accepted the
// credentials but sent no jwt-token header.
var ErrNoToken = errors.New("token not received from server")

// APIError is a non-2xx answer from the backend. Message is the "message"
// field of the JSON error body when there is one.
type APIError struct {
	Status  int
	Message string
	Path    string
}

func (e *APIError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("%s: status %d: %s", e.Path, e.Status, e.Message)
	}
	return fmt.Sprintf("%s: status %d", e.Path, e.Status)
}

// UserMessage is the server-provided text, shown verbatim.
func (e *APIError) UserMessage() string { return e.Message }

// Unauthorized reports whether the backend rejected the bearer token.
func (e *APIError) Unauthorized() bool {
	return e.Status == http.StatusUnauthorized || e.Status == http.StatusForbidden
}

func newAPIError(path string, status int, body []byte) *APIError {
	e := &APIError{Status: status, Path: path}
	var env struct {
		Message string `json:"message"`
	}
	if json.Unmarshal(body, &env) == nil {
		e.Message = strings.TrimSpace(env.Message)
	}
	return e
}

// Message returns the server message carried by err, or fallback.
func Message(err error, fallback string) string {
	var ae *APIError
	if errors.As(err, &ae) && ae.Message != "" {
		return ae.Message
	}
	return fallback
}

// IsUnauthorized reports whether err is a 401 or 403 from the backend.
func IsUnauthorized(err error) bool {
	var ae *APIError
	return errors.As(err, &ae) && ae.Unauthorized()
}
