package selection

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/groomly/groomly-api/internal/middleware"
	"github.com/groomly/groomly-api/internal/pkg/errorhandler"
	"github.com/groomly/groomly-api/internal/pkg/response"
)

// Handler handles selection HTTP requests
type Handler struct {
	service *Service
}

// NewHandler creates selection handler
func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// List handles GET /bookings/{id}/services
// @Summary List services selected for a booking
// @Tags Selections
// @Produce json
// @Security BearerAuth
// @Param id path string true "Booking ID"
// @Success 200 {object} response.Response{data=[]SelectionResponse}
// @Router /bookings/{id}/services [get]
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	a, _ := middleware.GetActor(r.Context())

	bookingID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		response.BadRequest(w, "Invalid booking ID")
		return
	}

	views, err := h.service.ListSelections(r.Context(), a, bookingID)
	if err != nil {
		errorhandler.HandleDomainError(r.Context(), w, err)
		return
	}
	response.OK(w, ViewResponses(views))
}

// Select handles POST /bookings/{id}/services
// @Summary Attach a service to a booking
// @Tags Selections
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Booking ID"
// @Param request body SelectRequest true "Service and optional note"
// @Success 201 {object} response.Response{data=SelectedResponse}
// @Failure 404,409,422 {object} response.Response
// @Router /bookings/{id}/services [post]
func (h *Handler) Select(w http.ResponseWriter, r *http.Request) {
	a, _ := middleware.GetActor(r.Context())

	bookingID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		response.BadRequest(w, "Invalid booking ID")
		return
	}

	var req SelectRequest
	if err := response.DecodeJSON(r.Body, &req); err != nil {
		response.BadRequest(w, "Invalid JSON body")
		return
	}

	sel, err := h.service.SelectService(r.Context(), a, bookingID, &req)
	if err != nil {
		errorhandler.HandleDomainError(r.Context(), w, err)
		return
	}
	response.Created(w, SelectedResponseFromEntity(sel))
}

// Deselect handles DELETE /bookings/{id}/services/{serviceID}
func (h *Handler) Deselect(w http.ResponseWriter, r *http.Request) {
	a, _ := middleware.GetActor(r.Context())

	bookingID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		response.BadRequest(w, "Invalid booking ID")
		return
	}
	serviceID, err := uuid.Parse(chi.URLParam(r, "serviceID"))
	if err != nil {
		response.BadRequest(w, "Invalid service ID")
		return
	}

	if err := h.service.DeselectService(r.Context(), a, bookingID, serviceID); err != nil {
		errorhandler.HandleDomainError(r.Context(), w, err)
		return
	}
	response.NoContent(w)
}

// UpdateNote handles PATCH /selections/{id}
func (h *Handler) UpdateNote(w http.ResponseWriter, r *http.Request) {
	a, _ := middleware.GetActor(r.Context())

	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		response.BadRequest(w, "Invalid selection ID")
		return
	}

	var req UpdateNoteRequest
	if err := response.DecodeJSON(r.Body, &req); err != nil {
		response.BadRequest(w, "Invalid JSON body")
		return
	}

	sel, err := h.service.UpdateSelectionNote(r.Context(), a, id, &req)
	if err != nil {
		errorhandler.HandleDomainError(r.Context(), w, err)
		return
	}
	response.OK(w, SelectedResponseFromEntity(sel))
}

// RegisterRoutes mounts selection routes on an authenticated router
func (h *Handler) RegisterRoutes(r chi.Router, writeLimit func(http.Handler) http.Handler) {
	r.Get("/bookings/{id}/services", h.List)

	r.Group(func(r chi.Router) {
		r.Use(writeLimit)
		r.Post("/bookings/{id}/services", h.Select)
		r.Delete("/bookings/{id}/services/{serviceID}", h.Deselect)
		r.Patch("/selections/{id}", h.UpdateNote)
	})
}
