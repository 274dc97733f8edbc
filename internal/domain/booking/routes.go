package booking

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/groomly/groomly-api/internal/middleware"
)

// RegisterRoutes mounts booking routes on an authenticated router
func (h *Handler) RegisterRoutes(r chi.Router, writeLimit func(http.Handler) http.Handler) {
	r.Get("/bookings", h.List)
	r.Get("/bookings/{id}", h.Get)

	r.Group(func(r chi.Router) {
		r.Use(writeLimit)
		r.Post("/bookings", h.Create)
		r.Patch("/bookings/{id}/slot", h.Reschedule)
		r.Post("/bookings/{id}/cancel", h.Cancel)
		r.With(middleware.RequireAdmin()).Delete("/bookings/{id}", h.Delete)
	})
}
