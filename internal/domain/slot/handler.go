package slot

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/groomly/groomly-api/internal/middleware"
	"github.com/groomly/groomly-api/internal/pkg/errorhandler"
	"github.com/groomly/groomly-api/internal/pkg/response"
	"github.com/groomly/groomly-api/internal/pkg/validator"
)

// Handler handles slot catalog HTTP requests
type Handler struct {
	service *Service
}

// NewHandler creates slot handler
func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// Availability handles GET /shops/{shopID}/availability?date=YYYY-MM-DD
// @Summary List sub-slots and their occupancy for a date
// @Tags Slots
// @Produce json
// @Security BearerAuth
// @Param shopID path string true "Shop ID"
// @Param date query string true "Date (YYYY-MM-DD)"
// @Success 200 {object} response.Response{data=[]AvailabilityResponse}
// @Failure 400,401,404,500 {object} response.Response
// @Router /shops/{shopID}/availability [get]
func (h *Handler) Availability(w http.ResponseWriter, r *http.Request) {
	a, ok := middleware.GetActor(r.Context())
	if !ok {
		response.Unauthorized(w, "Unauthorized")
		return
	}

	shopID, err := uuid.Parse(chi.URLParam(r, "shopID"))
	if err != nil {
		response.BadRequest(w, "Invalid shop ID")
		return
	}
	date, err := validator.ParseDate(r.URL.Query().Get("date"))
	if err != nil {
		response.ValidationError(w, map[string]string{"date": "Invalid date. Expected YYYY-MM-DD"})
		return
	}

	rows, err := h.service.ListAvailableSlots(r.Context(), a, shopID, date)
	if err != nil {
		errorhandler.HandleDomainError(r.Context(), w, err)
		return
	}

	items := make([]AvailabilityResponse, len(rows))
	for i, row := range rows {
		items[i] = AvailabilityResponseFromEntity(row)
	}
	response.OK(w, items)
}

// CreateTimeSlot handles POST /shops/{shopID}/time-slots
func (h *Handler) CreateTimeSlot(w http.ResponseWriter, r *http.Request) {
	a, _ := middleware.GetActor(r.Context())

	shopID, err := uuid.Parse(chi.URLParam(r, "shopID"))
	if err != nil {
		response.BadRequest(w, "Invalid shop ID")
		return
	}

	var req CreateTimeSlotRequest
	if err := response.DecodeJSON(r.Body, &req); err != nil {
		response.BadRequest(w, "Invalid JSON body")
		return
	}
	if errs := validator.Validate(&req); errs != nil {
		response.ValidationError(w, errs)
		return
	}

	ts, err := h.service.CreateTimeSlot(r.Context(), a, shopID, &req)
	if err != nil {
		errorhandler.HandleDomainError(r.Context(), w, err)
		return
	}
	response.Created(w, TimeSlotResponseFromEntity(ts))
}

// CreateSubSlot handles POST /time-slots/{id}/sub-slots
func (h *Handler) CreateSubSlot(w http.ResponseWriter, r *http.Request) {
	a, _ := middleware.GetActor(r.Context())

	timeSlotID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		response.BadRequest(w, "Invalid time slot ID")
		return
	}

	var req CreateSubSlotRequest
	if err := response.DecodeJSON(r.Body, &req); err != nil {
		response.BadRequest(w, "Invalid JSON body")
		return
	}
	if errs := validator.Validate(&req); errs != nil {
		response.ValidationError(w, errs)
		return
	}

	sub, err := h.service.CreateSubSlot(r.Context(), a, timeSlotID, &req)
	if err != nil {
		errorhandler.HandleDomainError(r.Context(), w, err)
		return
	}
	response.Created(w, SubSlotResponseFromEntity(sub))
}

// DeleteSubSlot handles DELETE /sub-slots/{id}
func (h *Handler) DeleteSubSlot(w http.ResponseWriter, r *http.Request) {
	a, _ := middleware.GetActor(r.Context())

	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		response.BadRequest(w, "Invalid sub slot ID")
		return
	}

	if err := h.service.DeleteSubSlot(r.Context(), a, id); err != nil {
		errorhandler.HandleDomainError(r.Context(), w, err)
		return
	}
	response.NoContent(w)
}
