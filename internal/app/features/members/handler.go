// internal/app/features/members/handler.go
package members

import (
	"context"
	"encoding/json"
	"net/http"

	uierrors "github.com/dalemusser/threadhub/internal/app/features/errors"
	memberstore "github.com/dalemusser/threadhub/internal/app/store/members"
	userstore "github.com/dalemusser/threadhub/internal/app/store/users"
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

// Handler provides HTTP handlers for workspace membership management.
type Handler struct {
	DB      *mongo.Database
	Log     *zap.Logger
	ErrLog  *uierrors.ErrorLogger
	Members *memberstore.Store
	Users   *userstore.Store
}

// NewHandler creates a members Handler.
func NewHandler(db *mongo.Database, errLog *uierrors.ErrorLogger, logger *zap.Logger) *Handler {
	return &Handler{
		DB:      db,
		Log:     logger,
		ErrLog:  errLog,
		Members: memberstore.New(db),
		Users:   userstore.New(db),
	}
}

type addRequest struct {
	Email string `json:"email"`
	Role  string `json:"role"`
}

type roleRequest struct {
	Role string `json:"role"`
}

type settingsRequest struct {
	NotificationLevel *string `json:"notification_level,omitempty"`
	Muted             *bool   `json:"muted,omitempty"`
}

type memberView struct {
	models.Member
	FullName string `json:"full_name"`
	Email    string `json:"email"`
}

// HandleAdd handles POST /workspaces/{id}/members. Admins only; the
// user is looked up by email.
func (h *Handler) HandleAdd(w http.ResponseWriter, r *http.Request) {
	_, userID, _ := authz.UserCtx(r)
	workspaceID, err := parseWorkspaceID(r)
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

	var req addRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.ErrLog.WriteError(w, r, apperr.ErrValidation)
		return
	}
	if req.Role == "" {
		req.Role = models.RoleMember
	}

	user, err := h.Users.GetByEmail(ctx, req.Email)
	if err != nil {
		h.ErrLog.WriteError(w, r, apperr.ErrNotFound)
		return
	}

	m, err := h.Members.Add(ctx, workspaceID, user.ID, req.Role)
	if err == memberstore.ErrDuplicateMember {
		http.Error(w, err.Error(), http.StatusConflict)
		return
	}
	if err != nil {
		h.ErrLog.WriteError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, m)
}

// ServeList handles GET /workspaces/{id}/members with user display
// fields joined in. Members only.
func (h *Handler) ServeList(w http.ResponseWriter, r *http.Request) {
	_, userID, _ := authz.UserCtx(r)
	workspaceID, err := parseWorkspaceID(r)
	if err != nil {
		h.ErrLog.WriteError(w, r, apperr.ErrNotFound)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	if _, err := guard.RequireMember(ctx, h.DB, userID, workspaceID); err != nil {
		h.ErrLog.WriteError(w, r, err)
		return
	}

	members, err := h.Members.ListByWorkspace(ctx, workspaceID)
	if err != nil {
		h.ErrLog.WriteError(w, r, err)
		return
	}
	ids := make([]primitive.ObjectID, 0, len(members))
	for _, m := range members {
		ids = append(ids, m.UserID)
	}
	users, err := h.Users.GetMany(ctx, ids)
	if err != nil {
		h.ErrLog.WriteError(w, r, err)
		return
	}

	views := make([]memberView, 0, len(members))
	for _, m := range members {
		u := users[m.UserID]
		views = append(views, memberView{Member: m, FullName: u.FullName, Email: u.Email})
	}
	writeJSON(w, http.StatusOK, views)
}

// HandleSetRole handles POST /workspaces/{id}/members/{userID}/role.
// Admins only.
func (h *Handler) HandleSetRole(w http.ResponseWriter, r *http.Request) {
	_, callerID, _ := authz.UserCtx(r)
	workspaceID, err := parseWorkspaceID(r)
	if err != nil {
		h.ErrLog.WriteError(w, r, apperr.ErrNotFound)
		return
	}
	targetID, err := primitive.ObjectIDFromHex(chi.URLParam(r, "userID"))
	if err != nil {
		h.ErrLog.WriteError(w, r, apperr.ErrNotFound)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	if _, err := guard.RequireAdmin(ctx, h.DB, callerID, workspaceID); err != nil {
		h.ErrLog.WriteError(w, r, err)
		return
	}

	var req roleRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.ErrLog.WriteError(w, r, apperr.ErrValidation)
		return
	}
	if err := h.Members.SetRole(ctx, workspaceID, targetID, req.Role); err != nil {
		h.ErrLog.WriteError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// HandleSettings handles POST /workspaces/{id}/settings: the caller's
// own notification level and mute flag.
func (h *Handler) HandleSettings(w http.ResponseWriter, r *http.Request) {
	_, userID, _ := authz.UserCtx(r)
	workspaceID, err := parseWorkspaceID(r)
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

	var req settingsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.ErrLog.WriteError(w, r, apperr.ErrValidation)
		return
	}
	if req.NotificationLevel != nil {
		if err := h.Members.SetNotificationLevel(ctx, workspaceID, userID, *req.NotificationLevel); err != nil {
			h.ErrLog.WriteError(w, r, err)
			return
		}
	}
	if req.Muted != nil {
		if err := h.Members.SetMuted(ctx, workspaceID, userID, *req.Muted); err != nil {
			h.ErrLog.WriteError(w, r, err)
			return
		}
	}
	w.WriteHeader(http.StatusNoContent)
}

// HandleRemove handles DELETE /workspaces/{id}/members/{userID}.
// Admins can remove anyone; a member can remove themselves (leave).
func (h *Handler) HandleRemove(w http.ResponseWriter, r *http.Request) {
	_, callerID, _ := authz.UserCtx(r)
	workspaceID, err := parseWorkspaceID(r)
	if err != nil {
		h.ErrLog.WriteError(w, r, apperr.ErrNotFound)
		return
	}
	targetID, err := primitive.ObjectIDFromHex(chi.URLParam(r, "userID"))
	if err != nil {
		h.ErrLog.WriteError(w, r, apperr.ErrNotFound)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	if targetID == callerID {
		if _, err := guard.RequireMember(ctx, h.DB, callerID, workspaceID); err != nil {
			h.ErrLog.WriteError(w, r, err)
			return
		}
	} else {
		if _, err := guard.RequireAdmin(ctx, h.DB, callerID, workspaceID); err != nil {
			h.ErrLog.WriteError(w, r, err)
			return
		}
	}

	if err := h.Members.Remove(ctx, workspaceID, targetID); err != nil {
		h.ErrLog.WriteError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func parseWorkspaceID(r *http.Request) (primitive.ObjectID, error) {
	return primitive.ObjectIDFromHex(chi.URLParam(r, "id"))
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}
