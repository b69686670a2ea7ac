// internal/app/features/channels/routes.go
package channels

import (
	"github.com/dalemusser/threadhub/internal/app/system/auth"
	"github.com/go-chi/chi/v5"
)

// WorkspaceRoutes mounts channel listing/creation under
// /workspaces/{id}.
func WorkspaceRoutes(h *Handler, sm *auth.SessionManager) chi.Router {
	r := chi.NewRouter()
	r.Use(sm.RequireSignedIn)
	r.Get("/", h.ServeList)
	r.Post("/", h.HandleCreate)
	return r
}

// Routes mounts per-channel management under /channels.
func Routes(h *Handler, sm *auth.SessionManager) chi.Router {
	r := chi.NewRouter()
	r.Use(sm.RequireSignedIn)
	r.Post("/{channelID}", h.HandleUpdate)
	r.Delete("/{channelID}", h.HandleDelete)
	return r
}
