// internal/app/features/search/handler.go
package search

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"

	uierrors "github.com/dalemusser/threadhub/internal/app/features/errors"
	"github.com/dalemusser/threadhub/internal/app/store/queries/searchqueries"
	"github.com/dalemusser/threadhub/internal/app/system/apperr"
	"github.com/dalemusser/threadhub/internal/app/system/authz"
	"github.com/dalemusser/threadhub/internal/app/system/guard"
	"github.com/dalemusser/threadhub/internal/app/system/timeouts"
	"github.com/dalemusser/waffle/pantry/query"
	"github.com/go-chi/chi/v5"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

// Handler provides the workspace search endpoint.
type Handler struct {
	DB     *mongo.Database
	Log    *zap.Logger
	ErrLog *uierrors.ErrorLogger
}

// NewHandler creates a search Handler.
func NewHandler(db *mongo.Database, errLog *uierrors.ErrorLogger, logger *zap.Logger) *Handler {
	return &Handler{DB: db, Log: logger, ErrLog: errLog}
}

// ServeSearch handles GET /workspaces/{id}/search?q=...&limit=...
// Members only. Matches are substring, case-insensitive, over the
// visible text of recent messages and of the caller's own direct
// messages.
func (h *Handler) ServeSearch(w http.ResponseWriter, r *http.Request) {
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

	limit := 0
	if raw := query.Get(r, "limit"); raw != "" {
		limit, err = strconv.Atoi(raw)
		if err != nil {
			h.ErrLog.WriteError(w, r, apperr.ErrValidation)
			return
		}
	}

	results, err := searchqueries.SearchMessagesAndDMs(ctx, h.DB, workspaceID, userID, query.Get(r, "q"), limit)
	if err != nil {
		h.ErrLog.WriteError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, results)
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}
