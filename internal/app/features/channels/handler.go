// internal/app/features/channels/handler.go
package channels

import (
	"context"
	"encoding/json"
	"net/http"

	uierrors "github.com/dalemusser/threadhub/internal/app/features/errors"
	channelstore "github.com/dalemusser/threadhub/internal/app/store/channels"
	"github.com/dalemusser/threadhub/internal/app/system/apperr"
	"github.com/dalemusser/threadhub/internal/app/system/authz"
	"github.com/dalemusser/threadhub/internal/app/system/guard"
	"github.com/dalemusser/threadhub/internal/app/system/timeouts"
	"github.com/go-chi/chi/v5"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

// Handler provides HTTP handlers for channel management.
type Handler struct {
	DB       *mongo.Database
	Log      *zap.Logger
	ErrLog   *uierrors.ErrorLogger
	Channels *channelstore.Store
}

// NewHandler creates a channels Handler.
func NewHandler(db *mongo.Database, errLog *uierrors.ErrorLogger, logger *zap.Logger) *Handler {
	return &Handler{
		DB:       db,
		Log:      logger,
		ErrLog:   errLog,
		Channels: channelstore.New(db),
	}
}

type channelRequest struct {
	Name  string `json:"name"`
	Topic string `json:"topic"`
}

// HandleCreate handles POST /workspaces/{id}/channels. Any member can
// create a channel.
func (h *Handler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	_, userID, _ := authz.UserCtx(r)
	workspaceID, err := primitive.ObjectIDFromHex(chi.URLParam(r, "id"))
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

	var req channelRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.ErrLog.WriteError(w, r, apperr.ErrValidation)
		return
	}

	ch, err := h.Channels.Create(ctx, workspaceID, req.Name, req.Topic, userID)
	switch err {
	case nil:
	case channelstore.ErrDuplicateName:
		http.Error(w, err.Error(), http.StatusConflict)
		return
	case channelstore.ErrEmptyName:
		h.ErrLog.WriteError(w, r, apperr.ErrValidation)
		return
	default:
		h.ErrLog.WriteError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, ch)
}

// ServeList handles GET /workspaces/{id}/channels. Members only.
func (h *Handler) ServeList(w http.ResponseWriter, r *http.Request) {
	_, userID, _ := authz.UserCtx(r)
	workspaceID, err := primitive.ObjectIDFromHex(chi.URLParam(r, "id"))
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

	channels, err := h.Channels.ListByWorkspace(ctx, workspaceID)
	if err != nil {
		h.ErrLog.WriteError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, channels)
}

// HandleUpdate handles POST /channels/{channelID}. Admins only.
func (h *Handler) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	_, userID, _ := authz.UserCtx(r)
	channelID, err := primitive.ObjectIDFromHex(chi.URLParam(r, "channelID"))
	if err != nil {
		h.ErrLog.WriteError(w, r, apperr.ErrNotFound)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	member, _, err := guard.RequireChannelMember(ctx, h.DB, userID, channelID)
	if err != nil {
		h.ErrLog.WriteError(w, r, err)
		return
	}
	if !member.IsAdmin() {
		h.ErrLog.WriteError(w, r, apperr.ErrNotAuthorized)
		return
	}

	var req channelRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.ErrLog.WriteError(w, r, apperr.ErrValidation)
		return
	}
	if err := h.Channels.Update(ctx, channelID, req.Name, req.Topic); err != nil {
		if err == channelstore.ErrDuplicateName {
			http.Error(w, err.Error(), http.StatusConflict)
			return
		}
		h.ErrLog.WriteError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// HandleDelete handles DELETE /channels/{channelID}. Admins only;
// takes the channel's messages and their notifications with it.
func (h *Handler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	_, userID, _ := authz.UserCtx(r)
	channelID, err := primitive.ObjectIDFromHex(chi.URLParam(r, "channelID"))
	if err != nil {
		h.ErrLog.WriteError(w, r, apperr.ErrNotFound)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Long())
	defer cancel()

	member, _, err := guard.RequireChannelMember(ctx, h.DB, userID, channelID)
	if err != nil {
		h.ErrLog.WriteError(w, r, err)
		return
	}
	if !member.IsAdmin() {
		h.ErrLog.WriteError(w, r, apperr.ErrNotAuthorized)
		return
	}

	if err := h.Channels.Delete(ctx, channelID); err != nil {
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
