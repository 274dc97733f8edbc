package catalog

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/groomly/groomly-api/internal/pkg/errorhandler"
	"github.com/groomly/groomly-api/internal/pkg/response"
)

// Handler handles catalog HTTP requests
type Handler struct {
	service *Service
}

// NewHandler creates catalog handler
func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// List handles GET /services?all=true
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	activeOnly := r.URL.Query().Get("all") != "true"

	entries, err := h.service.List(r.Context(), activeOnly)
	if err != nil {
		errorhandler.HandleDomainError(r.Context(), w, err)
		return
	}

	items := make([]ServiceResponse, len(entries))
	for i, e := range entries {
		items[i] = ServiceResponseFromEntity(e)
	}
	response.OK(w, items)
}

// RegisterRoutes mounts catalog routes on an authenticated router
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Get("/services", h.List)
}
