package slot

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/groomly/groomly-api/internal/middleware"
)

// RegisterRoutes mounts slot routes on an authenticated router
func (h *Handler) RegisterRoutes(r chi.Router, writeLimit func(http.Handler) http.Handler) {
	r.Get("/shops/{shopID}/availability", h.Availability)

	r.Group(func(r chi.Router) {
		r.Use(middleware.RequireAdmin())
		r.Use(writeLimit)
		r.Post("/shops/{shopID}/time-slots", h.CreateTimeSlot)
		r.Post("/time-slots/{id}/sub-slots", h.CreateSubSlot)
		r.Delete("/sub-slots/{id}", h.DeleteSubSlot)
	})
}
