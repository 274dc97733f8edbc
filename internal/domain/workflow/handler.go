package workflow

import (
	"errors"
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/groomly/groomly-api/internal/domain/booking"
	"github.com/groomly/groomly-api/internal/middleware"
	"github.com/groomly/groomly-api/internal/pkg/errorhandler"
	"github.com/groomly/groomly-api/internal/pkg/response"
)

// Handler handles workflow HTTP requests
type Handler struct {
	service *Service
}

// NewHandler creates workflow handler
func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// Start handles POST /bookings/{id}/start
func (h *Handler) Start(w http.ResponseWriter, r *http.Request) {
	a, _ := middleware.GetActor(r.Context())

	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		response.BadRequest(w, "Invalid booking ID")
		return
	}

	b, err := h.service.StartService(r.Context(), a, id)
	if err != nil {
		errorhandler.HandleDomainError(r.Context(), w, err)
		return
	}
	response.OK(w, booking.ResponseFromEntity(b))
}

// Complete handles POST /bookings/{id}/complete
// @Summary Complete a booking and freeze its selected services
// @Tags Workflow
// @Produce json
// @Security BearerAuth
// @Param id path string true "Booking ID"
// @Success 200 {object} response.Response{data=CompletionResponse}
// @Failure 404,409 {object} response.Response
// @Router /bookings/{id}/complete [post]
func (h *Handler) Complete(w http.ResponseWriter, r *http.Request) {
	a, _ := middleware.GetActor(r.Context())

	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		response.BadRequest(w, "Invalid booking ID")
		return
	}

	result, err := h.service.CompleteBooking(r.Context(), a, id)
	if err != nil {
		errorhandler.HandleDomainError(r.Context(), w, err)
		return
	}
	response.OK(w, CompletionResponseFromResult(result))
}

// SubmitFeedback handles POST /bookings/{id}/feedback
// @Summary Record optional feedback for a completed booking
// @Tags Workflow
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Booking ID"
// @Param request body FeedbackRequest false "Rating and comment, both optional"
// @Success 201 {object} response.Response{data=FeedbackResponse}
// @Failure 404,409,422 {object} response.Response
// @Router /bookings/{id}/feedback [post]
func (h *Handler) SubmitFeedback(w http.ResponseWriter, r *http.Request) {
	a, _ := middleware.GetActor(r.Context())

	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		response.BadRequest(w, "Invalid booking ID")
		return
	}

	// An empty body submits feedback with neither rating nor comment
	var req FeedbackRequest
	if err := response.DecodeJSON(r.Body, &req); err != nil && !errors.Is(err, io.EOF) {
		response.BadRequest(w, "Invalid JSON body")
		return
	}

	f, err := h.service.SubmitFeedback(r.Context(), a, id, &req)
	if err != nil {
		errorhandler.HandleDomainError(r.Context(), w, err)
		return
	}
	response.Created(w, FeedbackResponseFromEntity(f))
}

// SkipFeedback handles POST /bookings/{id}/feedback/skip
func (h *Handler) SkipFeedback(w http.ResponseWriter, r *http.Request) {
	a, _ := middleware.GetActor(r.Context())

	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		response.BadRequest(w, "Invalid booking ID")
		return
	}

	if err := h.service.SkipFeedback(r.Context(), a, id); err != nil {
		errorhandler.HandleDomainError(r.Context(), w, err)
		return
	}
	response.NoContent(w)
}

// GetFeedback handles GET /bookings/{id}/feedback
func (h *Handler) GetFeedback(w http.ResponseWriter, r *http.Request) {
	a, _ := middleware.GetActor(r.Context())

	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		response.BadRequest(w, "Invalid booking ID")
		return
	}

	f, err := h.service.GetFeedback(r.Context(), a, id)
	if err != nil {
		errorhandler.HandleDomainError(r.Context(), w, err)
		return
	}
	response.OK(w, FeedbackResponseFromEntity(f))
}

// RegisterRoutes mounts workflow routes on an authenticated router
func (h *Handler) RegisterRoutes(r chi.Router, writeLimit func(http.Handler) http.Handler) {
	r.Get("/bookings/{id}/feedback", h.GetFeedback)

	r.Group(func(r chi.Router) {
		r.Use(writeLimit)
		r.Post("/bookings/{id}/start", h.Start)
		r.Post("/bookings/{id}/complete", h.Complete)
		r.Post("/bookings/{id}/feedback", h.SubmitFeedback)
		r.Post("/bookings/{id}/feedback/skip", h.SkipFeedback)
	})
}
