// Package apperr defines the shared failure taxonomy for guarded
// operations and its mapping to HTTP status codes.
//
// Mutations propagate these errors loudly. Read paths deliberately do
// NOT use them for access-control failures: a query issued by a caller
// who lost access returns an empty collection or null instead of an
// error, so a live client whose membership changed mid-session degrades
// instead of crashing. Do not "unify" the two behaviors.
package apperr

import (
	"encoding/json"
	"errors"
	"net/http"
)

var (
	// ErrNotAuthenticated means no caller identity could be resolved.
	ErrNotAuthenticated = errors.New("not authenticated")

	// ErrNotAuthorized means the caller lacks the required membership,
	// role, or ownership.
	ErrNotAuthorized = errors.New("not authorized")

	// ErrNotFound means a referenced entity is absent.
	ErrNotFound = errors.New("not found")

	// ErrEmptyMessage means a message carries neither body text (after
	// trimming) nor an image reference.
	ErrEmptyMessage = errors.New("message must have text or an image")

	// ErrValidation means a content or argument constraint was violated.
	ErrValidation = errors.New("validation failed")

	// ErrCannotMessageSelf means a direct conversation was requested
	// with both sides being the same user.
	ErrCannotMessageSelf = errors.New("cannot start a conversation with yourself")
)

// Status maps an error to an HTTP status code. Unknown errors map to
// 500.
func Status(err error) int {
	switch {
	case err == nil:
		return http.StatusOK
	case errors.Is(err, ErrNotAuthenticated):
		return http.StatusUnauthorized
	case errors.Is(err, ErrNotAuthorized):
		return http.StatusForbidden
	case errors.Is(err, ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, ErrEmptyMessage),
		errors.Is(err, ErrValidation),
		errors.Is(err, ErrCannotMessageSelf):
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}

// WriteJSON writes err as a JSON error body with the mapped status.
// Internal errors are masked; the caller is expected to log them.
func WriteJSON(w http.ResponseWriter, err error) {
	code := Status(err)
	msg := err.Error()
	if code == http.StatusInternalServerError {
		msg = "internal error"
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(map[string]string{"error": msg})
}
