// internal/app/features/notifications/handler.go
package notifications

import (
	"context"
	"encoding/json"
	"net/http"

	uierrors "github.com/dalemusser/threadhub/internal/app/features/errors"
	notificationstore "github.com/dalemusser/threadhub/internal/app/store/notifications"
	"github.com/dalemusser/threadhub/internal/app/system/apperr"
	"github.com/dalemusser/threadhub/internal/app/system/authz"
	"github.com/dalemusser/threadhub/internal/app/system/timeouts"
	"github.com/go-chi/chi/v5"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

// Handler provides HTTP handlers for the notification inbox.
type Handler struct {
	DB            *mongo.Database
	Log           *zap.Logger
	ErrLog        *uierrors.ErrorLogger
	Notifications *notificationstore.Store
}

// NewHandler creates a notifications Handler.
func NewHandler(db *mongo.Database, errLog *uierrors.ErrorLogger, logger *zap.Logger) *Handler {
	return &Handler{
		DB:            db,
		Log:           logger,
		ErrLog:        errLog,
		Notifications: notificationstore.New(db),
	}
}

type markAllRequest struct {
	WorkspaceID string `json:"workspace_id"`
}

// ServeList handles GET /notifications: the caller's most recent
// notifications across all workspaces, newest first.
func (h *Handler) ServeList(w http.ResponseWriter, r *http.Request) {
	_, userID, _ := authz.UserCtx(r)

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	rows, err := h.Notifications.ListRecent(ctx, userID)
	if err != nil {
		h.ErrLog.WriteError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, rows)
}

// ServeCounts handles GET /notifications/counts: unread totals keyed by
// workspace ID, for badge rendering.
func (h *Handler) ServeCounts(w http.ResponseWriter, r *http.Request) {
	_, userID, _ := authz.UserCtx(r)

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	counts, err := h.Notifications.CountUnread(ctx, userID)
	if err != nil {
		h.ErrLog.WriteError(w, r, err)
		return
	}
	byWorkspace := make(map[string]int64, len(counts))
	for wsID, n := range counts {
		byWorkspace[wsID.Hex()] = n
	}
	writeJSON(w, http.StatusOK, byWorkspace)
}

// HandleMarkRead handles POST /notifications/{id}/read. Marking an
// already-read notification is a no-op; marking someone else's is not
// found.
func (h *Handler) HandleMarkRead(w http.ResponseWriter, r *http.Request) {
	_, userID, _ := authz.UserCtx(r)
	id, err := primitive.ObjectIDFromHex(chi.URLParam(r, "id"))
	if err != nil {
		h.ErrLog.WriteError(w, r, apperr.ErrNotFound)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	if err := h.Notifications.MarkRead(ctx, id, userID); err != nil {
		h.ErrLog.WriteError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// HandleMarkAllRead handles POST /notifications/read-all: marks every
// unread notification for the caller in one workspace.
func (h *Handler) HandleMarkAllRead(w http.ResponseWriter, r *http.Request) {
	_, userID, _ := authz.UserCtx(r)

	var req markAllRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.ErrLog.WriteError(w, r, apperr.ErrValidation)
		return
	}
	workspaceID, err := primitive.ObjectIDFromHex(req.WorkspaceID)
	if err != nil {
		h.ErrLog.WriteError(w, r, apperr.ErrValidation)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	if err := h.Notifications.MarkAllRead(ctx, userID, workspaceID); err != nil {
		h.ErrLog.WriteError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}
