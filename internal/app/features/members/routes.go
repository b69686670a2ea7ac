// internal/app/features/members/routes.go
package members

import (
	"github.com/dalemusser/threadhub/internal/app/system/auth"
	"github.com/go-chi/chi/v5"
)

// Routes mounts membership routes under /workspaces/{id}.
func Routes(h *Handler, sm *auth.SessionManager) chi.Router {
	r := chi.NewRouter()
	r.Use(sm.RequireSignedIn)

	r.Get("/members", h.ServeList)
	r.Post("/members", h.HandleAdd)
	r.Post("/members/{userID}/role", h.HandleSetRole)
	r.Delete("/members/{userID}", h.HandleRemove)
	r.Post("/settings", h.HandleSettings)

	return r
}
