// internal/app/features/workspaces/routes.go
package workspaces

import (
	"github.com/dalemusser/threadhub/internal/app/system/auth"
	"github.com/go-chi/chi/v5"
)

// Routes mounts the workspace management routes.
func Routes(h *Handler, sm *auth.SessionManager) chi.Router {
	r := chi.NewRouter()
	r.Use(sm.RequireSignedIn)

	r.Get("/", h.ServeList)
	r.Post("/", h.HandleCreate)
	r.Get("/{id}", h.ServeGet)
	r.Post("/{id}/rename", h.HandleRename)
	r.Delete("/{id}", h.HandleDelete)

	return r
}
