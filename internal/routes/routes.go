package routes

import (
	"github.com/go-chi/chi/v5"

	"github.com/AnshRaj112/karmnik-backend/internal/handlers"
)

func SetupRoutes(r chi.Router, h *handlers.FeedingHandler) {
	// Page
	r.Get("/", h.Page)
	r.Get("/static/app.js", h.Script)

	// Feedings API
	r.Get("/api/feedings", h.ListFeedings)
	r.Post("/api/feedings", h.CreateFeeding)
	r.Delete("/api/feedings/{id}", h.DeleteFeeding)

	// Live snapshots
	r.Get("/ws/feedings", h.FeedingsWebSocket)
}
