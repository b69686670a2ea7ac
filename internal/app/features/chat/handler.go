// internal/app/features/chat/handler.go
package chat

import (
	"context"
	"encoding/json"
	"net/http"

	uierrors "github.com/dalemusser/threadhub/internal/app/features/errors"
	messagestore "github.com/dalemusser/threadhub/internal/app/store/messages"
	"github.com/dalemusser/threadhub/internal/app/system/apperr"
	"github.com/dalemusser/threadhub/internal/app/system/authz"
	"github.com/dalemusser/threadhub/internal/app/system/guard"
	"github.com/dalemusser/threadhub/internal/app/system/paging"
	"github.com/dalemusser/threadhub/internal/app/system/timeouts"
	"github.com/dalemusser/threadhub/internal/domain/models"
	"github.com/dalemusser/waffle/pantry/query"
	"github.com/go-chi/chi/v5"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

// Handler provides HTTP handlers for channel messaging.
type Handler struct {
	DB       *mongo.Database
	Log      *zap.Logger
	ErrLog   *uierrors.ErrorLogger
	Messages *messagestore.Store
}

// NewHandler creates a chat Handler.
func NewHandler(db *mongo.Database, errLog *uierrors.ErrorLogger, logger *zap.Logger) *Handler {
	return &Handler{
		DB:       db,
		Log:      logger,
		ErrLog:   errLog,
		Messages: messagestore.New(db),
	}
}

type sendRequest struct {
	Body    string `json:"body"`
	ImageID string `json:"image_id"`
}

type editRequest struct {
	Body string `json:"body"`
}

type reactRequest struct {
	Emoji string `json:"emoji"`
}

// messageView is a message with its reactions summarized for the
// requesting user.
type messageView struct {
	models.Message
	ReactionSummary []models.ReactionSummary `json:"reaction_summary,omitempty"`
}

type pageResponse struct {
	Messages []messageView `json:"messages"`
	HasMore  bool          `json:"has_more"`
}

func viewsFor(msgs []models.Message, viewer primitive.ObjectID) []messageView {
	views := make([]messageView, 0, len(msgs))
	for _, m := range msgs {
		views = append(views, messageView{
			Message:         m,
			ReactionSummary: models.SummarizeReactions(m.Reactions, viewer),
		})
	}
	return views
}

// ServeList handles GET /channels/{channelID}/messages. Returns one
// page newest-first; pass ?before=<message id> to page back, or ?all=1
// for the full history oldest first. Members only.
func (h *Handler) ServeList(w http.ResponseWriter, r *http.Request) {
	_, userID, _ := authz.UserCtx(r)
	channelID, err := primitive.ObjectIDFromHex(chi.URLParam(r, "channelID"))
	if err != nil {
		h.ErrLog.WriteError(w, r, apperr.ErrNotFound)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	if _, _, err := guard.RequireChannelMember(ctx, h.DB, userID, channelID); err != nil {
		h.ErrLog.WriteError(w, r, err)
		return
	}

	if query.Get(r, "all") != "" {
		msgs, err := h.Messages.List(ctx, channelID)
		if err != nil {
			h.ErrLog.WriteError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, pageResponse{Messages: viewsFor(msgs, userID)})
		return
	}

	before := primitive.NilObjectID
	if raw := query.Get(r, "before"); raw != "" {
		before, err = primitive.ObjectIDFromHex(raw)
		if err != nil {
			h.ErrLog.WriteError(w, r, apperr.ErrValidation)
			return
		}
	}

	msgs, hasMore, err := h.Messages.ListPage(ctx, channelID, before)
	if err != nil {
		h.ErrLog.WriteError(w, r, err)
		return
	}
	// Clients render oldest-first.
	paging.Reverse(msgs)
	writeJSON(w, http.StatusOK, pageResponse{Messages: viewsFor(msgs, userID), HasMore: hasMore})
}

// HandleSend handles POST /channels/{channelID}/messages.
func (h *Handler) HandleSend(w http.ResponseWriter, r *http.Request) {
	_, userID, _ := authz.UserCtx(r)
	channelID, err := primitive.ObjectIDFromHex(chi.URLParam(r, "channelID"))
	if err != nil {
		h.ErrLog.WriteError(w, r, apperr.ErrNotFound)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	_, ch, err := guard.RequireChannelMember(ctx, h.DB, userID, channelID)
	if err != nil {
		h.ErrLog.WriteError(w, r, err)
		return
	}

	var req sendRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.ErrLog.WriteError(w, r, apperr.ErrValidation)
		return
	}

	msg, err := h.Messages.Send(ctx, ch.WorkspaceID, channelID, userID, req.Body, req.ImageID)
	if err != nil {
		h.ErrLog.WriteError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, msg)
}

// HandleEdit handles POST /channels/{channelID}/messages/{messageID}.
func (h *Handler) HandleEdit(w http.ResponseWriter, r *http.Request) {
	_, userID, _ := authz.UserCtx(r)
	channelID, messageID, err := parseMessagePath(r)
	if err != nil {
		h.ErrLog.WriteError(w, r, apperr.ErrNotFound)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	if _, _, err := guard.RequireChannelMember(ctx, h.DB, userID, channelID); err != nil {
		h.ErrLog.WriteError(w, r, err)
		return
	}

	var req editRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.ErrLog.WriteError(w, r, apperr.ErrValidation)
		return
	}

	msg, err := h.Messages.Edit(ctx, messageID, userID, req.Body)
	if err != nil {
		h.ErrLog.WriteError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, msg)
}

// HandleDelete handles DELETE /channels/{channelID}/messages/{messageID}.
// Authors delete their own messages; workspace admins delete any.
func (h *Handler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	_, userID, _ := authz.UserCtx(r)
	channelID, messageID, err := parseMessagePath(r)
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

	if err := h.Messages.Delete(ctx, messageID, userID, member.IsAdmin()); err != nil {
		h.ErrLog.WriteError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// HandleReact handles POST /channels/{channelID}/messages/{messageID}/react.
func (h *Handler) HandleReact(w http.ResponseWriter, r *http.Request) {
	_, userID, _ := authz.UserCtx(r)
	channelID, messageID, err := parseMessagePath(r)
	if err != nil {
		h.ErrLog.WriteError(w, r, apperr.ErrNotFound)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	if _, _, err := guard.RequireChannelMember(ctx, h.DB, userID, channelID); err != nil {
		h.ErrLog.WriteError(w, r, err)
		return
	}

	var req reactRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.ErrLog.WriteError(w, r, apperr.ErrValidation)
		return
	}

	msg, err := h.Messages.ToggleReaction(ctx, messageID, userID, req.Emoji)
	if err != nil {
		h.ErrLog.WriteError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, messageView{
		Message:         msg,
		ReactionSummary: models.SummarizeReactions(msg.Reactions, userID),
	})
}

func parseMessagePath(r *http.Request) (channelID, messageID primitive.ObjectID, err error) {
	channelID, err = primitive.ObjectIDFromHex(chi.URLParam(r, "channelID"))
	if err != nil {
		return
	}
	messageID, err = primitive.ObjectIDFromHex(chi.URLParam(r, "messageID"))
	return
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}
