// internal/app/features/chat/routes.go
package chat

import (
	"github.com/dalemusser/threadhub/internal/app/system/auth"
	"github.com/go-chi/chi/v5"
)

// Routes mounts channel messaging under /channels/{channelID}/messages.
func Routes(h *Handler, sm *auth.SessionManager) chi.Router {
	r := chi.NewRouter()
	r.Use(sm.RequireSignedIn)

	r.Get("/", h.ServeList)
	r.Post("/", h.HandleSend)
	r.Post("/{messageID}", h.HandleEdit)
	r.Delete("/{messageID}", h.HandleDelete)
	r.Post("/{messageID}/react", h.HandleReact)

	return r
}
