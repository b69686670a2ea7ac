// internal/app/features/search/routes.go
package search

import (
	"github.com/dalemusser/threadhub/internal/app/system/auth"
	"github.com/go-chi/chi/v5"
)

// WorkspaceRoutes returns the router mounted under
// /workspaces/{id}/search.
func WorkspaceRoutes(h *Handler, sm *auth.SessionManager) chi.Router {
	r := chi.NewRouter()
	r.Use(sm.RequireSignedIn)

	r.Get("/", h.ServeSearch)

	return r
}
