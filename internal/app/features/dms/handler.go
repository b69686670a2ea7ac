// internal/app/features/dms/handler.go
package dms

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	uierrors "github.com/dalemusser/threadhub/internal/app/features/errors"
	conversationstore "github.com/dalemusser/threadhub/internal/app/store/conversations"
	directmessagestore "github.com/dalemusser/threadhub/internal/app/store/directmessages"
	userstore "github.com/dalemusser/threadhub/internal/app/store/users"
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

// Handler provides HTTP handlers for direct messaging.
type Handler struct {
	DB             *mongo.Database
	Log            *zap.Logger
	ErrLog         *uierrors.ErrorLogger
	Conversations  *conversationstore.Store
	DirectMessages *directmessagestore.Store
	Users          *userstore.Store
}

// NewHandler creates a dms Handler.
func NewHandler(db *mongo.Database, errLog *uierrors.ErrorLogger, logger *zap.Logger) *Handler {
	return &Handler{
		DB:             db,
		Log:            logger,
		ErrLog:         errLog,
		Conversations:  conversationstore.New(db),
		DirectMessages: directmessagestore.New(db),
		Users:          userstore.New(db),
	}
}

type openRequest struct {
	UserID string `json:"user_id"`
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

// conversationView joins a conversation with the other participant's
// display fields and the caller's unread count.
type conversationView struct {
	models.Conversation
	OtherUserID   string `json:"other_user_id"`
	OtherUserName string `json:"other_user_name"`
	UnreadCount   int64  `json:"unread_count"`
}

type dmView struct {
	models.DirectMessage
	ReactionSummary []models.ReactionSummary `json:"reaction_summary,omitempty"`
}

type pageResponse struct {
	Messages []dmView `json:"messages"`
	HasMore  bool     `json:"has_more"`
}

// HandleOpen handles POST /workspaces/{id}/dms: finds or creates the
// caller's conversation with another member. Both users must belong to
// the workspace.
func (h *Handler) HandleOpen(w http.ResponseWriter, r *http.Request) {
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

	var req openRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.ErrLog.WriteError(w, r, apperr.ErrValidation)
		return
	}
	otherID, err := primitive.ObjectIDFromHex(req.UserID)
	if err != nil {
		h.ErrLog.WriteError(w, r, apperr.ErrValidation)
		return
	}
	// The counterpart must also be a member.
	if _, err := guard.RequireMember(ctx, h.DB, otherID, workspaceID); err != nil {
		h.ErrLog.WriteError(w, r, apperr.ErrNotFound)
		return
	}

	conv, err := h.Conversations.GetOrCreate(ctx, workspaceID, userID, otherID)
	if err != nil {
		h.ErrLog.WriteError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, conv)
}

// ServeList handles GET /workspaces/{id}/dms: the caller's
// conversations with counterpart names and unread counts.
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

	convs, err := h.Conversations.ListForUser(ctx, workspaceID, userID)
	if err != nil {
		h.ErrLog.WriteError(w, r, err)
		return
	}

	others := make([]primitive.ObjectID, 0, len(convs))
	for _, c := range convs {
		others = append(others, c.Other(userID))
	}
	users, err := h.Users.GetMany(ctx, others)
	if err != nil {
		h.ErrLog.WriteError(w, r, err)
		return
	}

	views := make([]conversationView, 0, len(convs))
	for _, c := range convs {
		otherID := c.Other(userID)
		unread, err := h.DirectMessages.CountUnreadFor(ctx, c, userID)
		if err != nil {
			h.ErrLog.WriteError(w, r, err)
			return
		}
		views = append(views, conversationView{
			Conversation:  c,
			OtherUserID:   otherID.Hex(),
			OtherUserName: users[otherID].FullName,
			UnreadCount:   unread,
		})
	}
	writeJSON(w, http.StatusOK, views)
}

// ServeMessages handles GET /dms/{conversationID}/messages. One page
// newest-first; ?before=<id> pages back; ?all=1 loads the full history
// oldest first. Participants only.
func (h *Handler) ServeMessages(w http.ResponseWriter, r *http.Request) {
	_, userID, _ := authz.UserCtx(r)
	conversationID, err := primitive.ObjectIDFromHex(chi.URLParam(r, "conversationID"))
	if err != nil {
		h.ErrLog.WriteError(w, r, apperr.ErrNotFound)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	if _, _, err := guard.RequireConversationParticipant(ctx, h.DB, userID, conversationID); err != nil {
		h.ErrLog.WriteError(w, r, err)
		return
	}

	if query.Get(r, "all") != "" {
		dms, err := h.DirectMessages.List(ctx, conversationID)
		if err != nil {
			h.ErrLog.WriteError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, pageResponse{Messages: dmViewsFor(dms, userID)})
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

	dms, hasMore, err := h.DirectMessages.ListPage(ctx, conversationID, before)
	if err != nil {
		h.ErrLog.WriteError(w, r, err)
		return
	}
	paging.Reverse(dms)
	writeJSON(w, http.StatusOK, pageResponse{Messages: dmViewsFor(dms, userID), HasMore: hasMore})
}

func dmViewsFor(dms []models.DirectMessage, viewer primitive.ObjectID) []dmView {
	views := make([]dmView, 0, len(dms))
	for _, dm := range dms {
		views = append(views, dmView{
			DirectMessage:   dm,
			ReactionSummary: models.SummarizeReactions(dm.Reactions, viewer),
		})
	}
	return views
}

// HandleSend handles POST /dms/{conversationID}/messages.
func (h *Handler) HandleSend(w http.ResponseWriter, r *http.Request) {
	_, userID, _ := authz.UserCtx(r)
	conversationID, err := primitive.ObjectIDFromHex(chi.URLParam(r, "conversationID"))
	if err != nil {
		h.ErrLog.WriteError(w, r, apperr.ErrNotFound)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	_, conv, err := guard.RequireConversationParticipant(ctx, h.DB, userID, conversationID)
	if err != nil {
		h.ErrLog.WriteError(w, r, err)
		return
	}

	var req sendRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.ErrLog.WriteError(w, r, apperr.ErrValidation)
		return
	}

	dm, err := h.DirectMessages.Send(ctx, conv, userID, req.Body, req.ImageID)
	if err != nil {
		h.ErrLog.WriteError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, dm)
}

type markReadResponse struct {
	LastRead time.Time `json:"last_read"`
}

// HandleMarkRead handles POST /dms/{conversationID}/read: advances the
// caller's read cursor to now and returns the effective cursor. Never
// moves it backward.
func (h *Handler) HandleMarkRead(w http.ResponseWriter, r *http.Request) {
	_, userID, _ := authz.UserCtx(r)
	conversationID, err := primitive.ObjectIDFromHex(chi.URLParam(r, "conversationID"))
	if err != nil {
		h.ErrLog.WriteError(w, r, apperr.ErrNotFound)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	if _, _, err := guard.RequireConversationParticipant(ctx, h.DB, userID, conversationID); err != nil {
		h.ErrLog.WriteError(w, r, err)
		return
	}
	readAt, err := h.Conversations.MarkRead(ctx, conversationID, userID, time.Now().UTC())
	if err != nil {
		h.ErrLog.WriteError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, markReadResponse{LastRead: readAt})
}

// HandleEdit handles POST /dms/{conversationID}/messages/{messageID}.
func (h *Handler) HandleEdit(w http.ResponseWriter, r *http.Request) {
	_, userID, _ := authz.UserCtx(r)
	conversationID, messageID, err := parseMessagePath(r)
	if err != nil {
		h.ErrLog.WriteError(w, r, apperr.ErrNotFound)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	if _, _, err := guard.RequireConversationParticipant(ctx, h.DB, userID, conversationID); err != nil {
		h.ErrLog.WriteError(w, r, err)
		return
	}

	var req editRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.ErrLog.WriteError(w, r, apperr.ErrValidation)
		return
	}

	dm, err := h.DirectMessages.Edit(ctx, messageID, userID, req.Body)
	if err != nil {
		h.ErrLog.WriteError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, dm)
}

// HandleDelete handles DELETE /dms/{conversationID}/messages/{messageID}.
func (h *Handler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	_, userID, _ := authz.UserCtx(r)
	conversationID, messageID, err := parseMessagePath(r)
	if err != nil {
		h.ErrLog.WriteError(w, r, apperr.ErrNotFound)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	if _, _, err := guard.RequireConversationParticipant(ctx, h.DB, userID, conversationID); err != nil {
		h.ErrLog.WriteError(w, r, err)
		return
	}
	if err := h.DirectMessages.Delete(ctx, messageID, userID); err != nil {
		h.ErrLog.WriteError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// HandleReact handles POST /dms/{conversationID}/messages/{messageID}/react.
func (h *Handler) HandleReact(w http.ResponseWriter, r *http.Request) {
	_, userID, _ := authz.UserCtx(r)
	conversationID, messageID, err := parseMessagePath(r)
	if err != nil {
		h.ErrLog.WriteError(w, r, apperr.ErrNotFound)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	if _, _, err := guard.RequireConversationParticipant(ctx, h.DB, userID, conversationID); err != nil {
		h.ErrLog.WriteError(w, r, err)
		return
	}

	var req reactRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.ErrLog.WriteError(w, r, apperr.ErrValidation)
		return
	}

	dm, err := h.DirectMessages.ToggleReaction(ctx, messageID, userID, req.Emoji)
	if err != nil {
		h.ErrLog.WriteError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, dmView{
		DirectMessage:   dm,
		ReactionSummary: models.SummarizeReactions(dm.Reactions, userID),
	})
}

func parseMessagePath(r *http.Request) (conversationID, messageID primitive.ObjectID, err error) {
	conversationID, err = primitive.ObjectIDFromHex(chi.URLParam(r, "conversationID"))
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
