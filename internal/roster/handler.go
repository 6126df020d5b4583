// AngelaMos | 2026
// handler.go

package roster

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/Dramos02/employee-directory/internal/core"
)

type Handler struct {
	projection *Projection
	hub        *Hub
}

func NewHandler(projection *Projection, hub *Hub) *Handler {
	return &Handler{
		projection: projection,
		hub:        hub,
	}
}

// RegisterAdminRoutes mounts the roster under an already
// admin-guarded router. The websocket endpoint does its own token
// check because browser websocket clients cannot set headers.
func (h *Handler) RegisterAdminRoutes(r chi.Router) {
	r.Get("/roster", h.GetRoster)
}

type rosterResponse struct {
	Entries []Entry `json:"entries"`
	Count   int     `json:"count"`
}

func (h *Handler) GetRoster(w http.ResponseWriter, r *http.Request) {
	entries := h.projection.Snapshot()

	core.OK(w, rosterResponse{
		Entries: entries,
		Count:   len(entries),
	})
}
