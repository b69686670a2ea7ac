// internal/app/features/uploads/handler.go
package uploads

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"path/filepath"
	"strings"
	"time"

	uierrors "github.com/dalemusser/threadhub/internal/app/features/errors"
	"github.com/dalemusser/threadhub/internal/app/system/apperr"
	"github.com/dalemusser/threadhub/internal/app/system/limits"
	"github.com/dalemusser/threadhub/internal/app/system/timeouts"
	"github.com/dalemusser/waffle/pantry/storage"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Handler accepts image attachments for messages and serves them back.
type Handler struct {
	Storage storage.Store
	Log     *zap.Logger
	ErrLog  *uierrors.ErrorLogger
}

// NewHandler creates an uploads Handler bound to the given file storage.
func NewHandler(store storage.Store, errLog *uierrors.ErrorLogger, logger *zap.Logger) *Handler {
	return &Handler{Storage: store, Log: logger, ErrLog: errLog}
}

type uploadResponse struct {
	ImageID string `json:"image_id"`
}

// HandleUpload handles POST /uploads. The multipart field "file" must
// be an image. The returned image_id is the storage path a message can
// carry in its image_id field.
func (h *Handler) HandleUpload(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(limits.MaxImageUploadSize); err != nil {
		h.ErrLog.WriteError(w, r, apperr.ErrValidation)
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil || header == nil || header.Size == 0 {
		h.ErrLog.WriteError(w, r, apperr.ErrValidation)
		return
	}
	defer file.Close()

	if header.Size > limits.MaxImageUploadSize {
		h.ErrLog.WriteError(w, r, apperr.ErrValidation)
		return
	}
	contentType := header.Header.Get("Content-Type")
	if !strings.HasPrefix(contentType, "image/") {
		h.ErrLog.WriteError(w, r, apperr.ErrValidation)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Long())
	defer cancel()

	// Unique path: images/YYYY/MM/uuid.ext
	now := time.Now().UTC()
	dateDir := fmt.Sprintf("images/%04d/%02d", now.Year(), now.Month())
	ext := filepath.Ext(header.Filename)
	path := filepath.ToSlash(filepath.Join(dateDir, uuid.New().String()+ext))

	opts := &storage.PutOptions{ContentType: contentType}
	if err := h.Storage.Put(ctx, path, file, opts); err != nil {
		h.Log.Error("image upload failed", zap.Error(err), zap.String("path", path))
		h.ErrLog.WriteError(w, r, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	_ = json.NewEncoder(w).Encode(uploadResponse{ImageID: path})
}

// ServeImage handles GET /uploads/*. Local storage serves the file
// directly; other backends redirect to a short-lived signed URL.
func (h *Handler) ServeImage(w http.ResponseWriter, r *http.Request) {
	path := chi.URLParam(r, "*")
	if path == "" || strings.Contains(path, "..") {
		h.ErrLog.WriteError(w, r, apperr.ErrNotFound)
		return
	}

	if localStorage, ok := h.Storage.(*storage.Local); ok {
		fullPath, err := localStorage.GetFullPath(path)
		if err != nil {
			h.ErrLog.WriteError(w, r, apperr.ErrNotFound)
			return
		}
		http.ServeFile(w, r, fullPath)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	signedURL, err := h.Storage.PresignedURL(ctx, path, &storage.PresignOptions{
		Expires: 15 * time.Minute,
	})
	if err != nil {
		h.Log.Error("signed url failed", zap.Error(err), zap.String("path", path))
		h.ErrLog.WriteError(w, r, err)
		return
	}
	http.Redirect(w, r, signedURL, http.StatusSeeOther)
}
