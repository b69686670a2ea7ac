// internal/app/features/dms/routes.go
package dms

import (
	"github.com/dalemusser/threadhub/internal/app/system/auth"
	"github.com/go-chi/chi/v5"
)

// WorkspaceRoutes returns the router mounted under
// /workspaces/{id}/dms.
func WorkspaceRoutes(h *Handler, sm *auth.SessionManager) chi.Router {
	r := chi.NewRouter()
	r.Use(sm.RequireSignedIn)

	r.Get("/", h.ServeList)
	r.Post("/", h.HandleOpen)

	return r
}

// Routes returns the router mounted under /dms.
func Routes(h *Handler, sm *auth.SessionManager) chi.Router {
	r := chi.NewRouter()
	r.Use(sm.RequireSignedIn)

	r.Post("/{conversationID}/read", h.HandleMarkRead)

	r.Get("/{conversationID}/messages", h.ServeMessages)
	r.Post("/{conversationID}/messages", h.HandleSend)
	r.Post("/{conversationID}/messages/{messageID}", h.HandleEdit)
	r.Delete("/{conversationID}/messages/{messageID}", h.HandleDelete)
	r.Post("/{conversationID}/messages/{messageID}/react", h.HandleReact)

	return r
}
