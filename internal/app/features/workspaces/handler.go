// internal/app/features/workspaces/handler.go
package workspaces

import (
	"context"
	"encoding/json"
	"net/http"

	uierrors "github.com/dalemusser/threadhub/internal/app/features/errors"
	notificationstore "github.com/dalemusser/threadhub/internal/app/store/notifications"
	workspacestore "github.com/dalemusser/threadhub/internal/app/store/workspaces"
	"github.com/dalemusser/threadhub/internal/app/system/apperr"
	"github.com/dalemusser/threadhub/internal/app/system/authz"
	"github.com/dalemusser/threadhub/internal/app/system/guard"
	"github.com/dalemusser/threadhub/internal/app/system/timeouts"
	"github.com/dalemusser/threadhub/internal/domain/models"
	"github.com/go-chi/chi/v5"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

// Handler provides HTTP handlers for workspace management.
type Handler struct {
	DB            *mongo.Database
	Log           *zap.Logger
	ErrLog        *uierrors.ErrorLogger
	Workspaces    *workspacestore.Store
	Notifications *notificationstore.Store
}

// NewHandler creates a workspaces Handler.
func NewHandler(db *mongo.Database, errLog *uierrors.ErrorLogger, logger *zap.Logger) *Handler {
	return &Handler{
		DB:            db,
		Log:           logger,
		ErrLog:        errLog,
		Workspaces:    workspacestore.New(db),
		Notifications: notificationstore.New(db),
	}
}

type createRequest struct {
	Name string `json:"name"`
}

type workspaceView struct {
	models.Workspace
	UnreadCount int64 `json:"unread_count"`
}

// HandleCreate handles POST /workspaces. The creator becomes the
// workspace's first admin.
func (h *Handler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	_, userID, ok := authz.UserCtx(r)
	if !ok {
		h.ErrLog.WriteError(w, r, apperr.ErrNotAuthenticated)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	var req createRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Name == "" {
		h.ErrLog.WriteError(w, r, apperr.ErrValidation)
		return
	}

	ws, err := h.Workspaces.Create(ctx, req.Name, userID)
	if err != nil {
		h.ErrLog.WriteError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, ws)
}

// ServeList handles GET /workspaces: the caller's workspaces with
// per-workspace unread notification counts.
func (h *Handler) ServeList(w http.ResponseWriter, r *http.Request) {
	_, userID, ok := authz.UserCtx(r)
	if !ok {
		h.ErrLog.WriteError(w, r, apperr.ErrNotAuthenticated)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	list, err := h.Workspaces.ListForUser(ctx, userID)
	if err != nil {
		h.ErrLog.WriteError(w, r, err)
		return
	}
	unread, err := h.Notifications.CountUnread(ctx, userID)
	if err != nil {
		h.ErrLog.WriteError(w, r, err)
		return
	}

	views := make([]workspaceView, 0, len(list))
	for _, ws := range list {
		views = append(views, workspaceView{Workspace: ws, UnreadCount: unread[ws.ID]})
	}
	writeJSON(w, http.StatusOK, views)
}

// ServeGet handles GET /workspaces/{id}. Members only.
func (h *Handler) ServeGet(w http.ResponseWriter, r *http.Request) {
	_, userID, _ := authz.UserCtx(r)
	workspaceID, err := parseID(r)
	if err != nil {
		h.ErrLog.WriteError(w, r, apperr.ErrNotFound)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	if _, err := guard.RequireMember(ctx, h.DB, userID, workspaceID); err != nil {
		h.ErrLog.WriteError(w, r, err)
		return
	}
	ws, err := h.Workspaces.GetByID(ctx, workspaceID)
	if err != nil {
		h.ErrLog.WriteError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, ws)
}

// HandleRename handles POST /workspaces/{id}/rename. Admins only.
func (h *Handler) HandleRename(w http.ResponseWriter, r *http.Request) {
	_, userID, _ := authz.UserCtx(r)
	workspaceID, err := parseID(r)
	if err != nil {
		h.ErrLog.WriteError(w, r, apperr.ErrNotFound)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	if _, err := guard.RequireAdmin(ctx, h.DB, userID, workspaceID); err != nil {
		h.ErrLog.WriteError(w, r, err)
		return
	}

	var req createRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Name == "" {
		h.ErrLog.WriteError(w, r, apperr.ErrValidation)
		return
	}
	if err := h.Workspaces.Rename(ctx, workspaceID, req.Name); err != nil {
		h.ErrLog.WriteError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// HandleDelete handles DELETE /workspaces/{id}. Admins only; removes
// the workspace and everything scoped to it.
func (h *Handler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	_, userID, _ := authz.UserCtx(r)
	workspaceID, err := parseID(r)
	if err != nil {
		h.ErrLog.WriteError(w, r, apperr.ErrNotFound)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Long())
	defer cancel()

	if _, err := guard.RequireAdmin(ctx, h.DB, userID, workspaceID); err != nil {
		h.ErrLog.WriteError(w, r, err)
		return
	}
	if err := h.Workspaces.Delete(ctx, workspaceID); err != nil {
		h.ErrLog.WriteError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func parseID(r *http.Request) (primitive.ObjectID, error) {
	return primitive.ObjectIDFromHex(chi.URLParam(r, "id"))
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}
