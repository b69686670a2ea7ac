// internal/app/features/notifications/routes.go
package notifications

import (
	"github.com/dalemusser/threadhub/internal/app/system/auth"
	"github.com/go-chi/chi/v5"
)

// Routes returns the router mounted under /notifications.
func Routes(h *Handler, sm *auth.SessionManager) chi.Router {
	r := chi.NewRouter()
	r.Use(sm.RequireSignedIn)

	r.Get("/", h.ServeList)
	r.Get("/counts", h.ServeCounts)
	r.Post("/{id}/read", h.HandleMarkRead)
	r.Post("/read-all", h.HandleMarkAllRead)

	return r
}
