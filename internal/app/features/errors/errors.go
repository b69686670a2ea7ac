// Package errors centralizes API error rendering and logging.
package errors

import (
	"net/http"

	"github.com/dalemusser/threadhub/internal/app/system/apperr"
	"go.uber.org/zap"
)

// ErrorLogger renders errors as JSON and logs server-side failures.
// Client errors (4xx) render without logging noise; anything that maps
// to a 5xx is logged with the request path and the underlying error.
type ErrorLogger struct {
	Log *zap.Logger
}

// NewErrorLogger creates an ErrorLogger.
func NewErrorLogger(logger *zap.Logger) *ErrorLogger {
	return &ErrorLogger{Log: logger}
}

// WriteError renders err for the client. The response body never
// carries internal error detail; that goes to the log only.
func (e *ErrorLogger) WriteError(w http.ResponseWriter, r *http.Request, err error) {
	if apperr.Status(err) >= http.StatusInternalServerError {
		e.Log.Error("request failed",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Error(err))
	}
	apperr.WriteJSON(w, err)
}
