package booking

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/groomly/groomly-api/internal/middleware"
	"github.com/groomly/groomly-api/internal/pkg/errorhandler"
	"github.com/groomly/groomly-api/internal/pkg/response"
	"github.com/groomly/groomly-api/internal/pkg/validator"
)

// Handler handles booking HTTP requests
type Handler struct {
	service *Service
}

// NewHandler creates booking handler
func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// Create handles POST /bookings
// @Summary Create a booking, optionally claiming a sub-slot
// @Tags Bookings
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body CreateBookingRequest true "Booking details"
// @Success 201 {object} response.Response{data=BookingResponse}
// @Failure 400,404,409,422 {object} response.Response
// @Router /bookings [post]
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	a, ok := middleware.GetActor(r.Context())
	if !ok {
		response.Unauthorized(w, "Unauthorized")
		return
	}

	var req CreateBookingRequest
	if err := response.DecodeJSON(r.Body, &req); err != nil {
		response.BadRequest(w, "Invalid JSON body")
		return
	}

	b, err := h.service.CreateBooking(r.Context(), a, &req)
	if err != nil {
		errorhandler.HandleDomainError(r.Context(), w, err)
		return
	}
	response.Created(w, ResponseFromEntity(b))
}

// List handles GET /bookings
// @Summary List bookings of the actor's shop
// @Tags Bookings
// @Produce json
// @Security BearerAuth
// @Param date query string false "Date (YYYY-MM-DD)"
// @Param from query string false "From date"
// @Param to query string false "To date"
// @Param status query string false "Status"
// @Param page query int false "Page" default(1)
// @Param limit query int false "Limit" default(50)
// @Success 200 {object} response.Response{data=[]BookingResponse}
// @Router /bookings [get]
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	a, _ := middleware.GetActor(r.Context())

	q := r.URL.Query()
	query := ListQuery{
		ShopID: q.Get("shop_id"),
		Date:   q.Get("date"),
		From:   q.Get("from"),
		To:     q.Get("to"),
		Status: q.Get("status"),
	}
	query.Page, _ = strconv.Atoi(q.Get("page"))
	query.Limit, _ = strconv.Atoi(q.Get("limit"))
	if errs := validator.Validate(&query); errs != nil {
		response.ValidationError(w, errs)
		return
	}

	filter := query.Filter()
	bookings, total, err := h.service.ListBookings(r.Context(), a, filter)
	if err != nil {
		errorhandler.HandleDomainError(r.Context(), w, err)
		return
	}
	filter.Normalize()

	items := make([]BookingResponse, len(bookings))
	for i, b := range bookings {
		items[i] = ResponseFromEntity(b)
	}
	response.WithMeta(w, items, response.NewMeta(total, filter.Page, filter.Limit))
}

// Get handles GET /bookings/{id}
func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	a, _ := middleware.GetActor(r.Context())

	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		response.BadRequest(w, "Invalid booking ID")
		return
	}

	b, err := h.service.GetBooking(r.Context(), a, id)
	if err != nil {
		errorhandler.HandleDomainError(r.Context(), w, err)
		return
	}
	response.OK(w, ResponseFromEntity(b))
}

// Reschedule handles PATCH /bookings/{id}/slot
// @Summary Move a booking to another sub-slot or date
// @Tags Bookings
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Booking ID"
// @Param request body RescheduleRequest true "Target slot"
// @Success 200 {object} response.Response{data=BookingResponse}
// @Failure 404,409,422 {object} response.Response
// @Router /bookings/{id}/slot [patch]
func (h *Handler) Reschedule(w http.ResponseWriter, r *http.Request) {
	a, _ := middleware.GetActor(r.Context())

	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		response.BadRequest(w, "Invalid booking ID")
		return
	}

	var req RescheduleRequest
	if err := response.DecodeJSON(r.Body, &req); err != nil {
		response.BadRequest(w, "Invalid JSON body")
		return
	}

	b, err := h.service.RescheduleBooking(r.Context(), a, id, &req)
	if err != nil {
		errorhandler.HandleDomainError(r.Context(), w, err)
		return
	}
	response.OK(w, ResponseFromEntity(b))
}

// Cancel handles POST /bookings/{id}/cancel
func (h *Handler) Cancel(w http.ResponseWriter, r *http.Request) {
	a, _ := middleware.GetActor(r.Context())

	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		response.BadRequest(w, "Invalid booking ID")
		return
	}

	b, err := h.service.CancelBooking(r.Context(), a, id)
	if err != nil {
		errorhandler.HandleDomainError(r.Context(), w, err)
		return
	}
	response.OK(w, ResponseFromEntity(b))
}

// Delete handles DELETE /bookings/{id}
func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	a, _ := middleware.GetActor(r.Context())

	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		response.BadRequest(w, "Invalid booking ID")
		return
	}

	if err := h.service.DeleteBooking(r.Context(), a, id); err != nil {
		errorhandler.HandleDomainError(r.Context(), w, err)
		return
	}
	response.NoContent(w)
}
