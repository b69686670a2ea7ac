// internal/app/features/logout/handler.go
package logout

import (
	"net/http"

	"github.com/dalemusser/threadhub/internal/app/system/auth"
	"go.uber.org/zap"
)

// Handler clears the session cookie.
type Handler struct {
	SessionMgr *auth.SessionManager
	Log        *zap.Logger
}

// NewHandler creates a logout Handler.
func NewHandler(sm *auth.SessionManager, logger *zap.Logger) *Handler {
	return &Handler{SessionMgr: sm, Log: logger}
}

// HandleLogout handles POST /logout. Always succeeds: an anonymous
// logout is a no-op.
func (h *Handler) HandleLogout(w http.ResponseWriter, r *http.Request) {
	if err := h.SessionMgr.SignOut(w, r); err != nil {
		h.Log.Warn("logout: failed to clear session", zap.Error(err))
	}
	w.WriteHeader(http.StatusNoContent)
}
