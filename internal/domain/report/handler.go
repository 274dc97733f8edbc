package report

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/groomly/groomly-api/internal/middleware"
	"github.com/groomly/groomly-api/internal/pkg/errorhandler"
	"github.com/groomly/groomly-api/internal/pkg/response"
	"github.com/groomly/groomly-api/internal/pkg/validator"
)

// Handler handles report HTTP requests
type Handler struct {
	service *Service
}

// NewHandler creates report handler
func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// Completed handles GET /reports/completed?from=YYYY-MM-DD&to=YYYY-MM-DD
// @Summary Completed bookings with frozen selections and feedback
// @Tags Reports
// @Produce json
// @Security BearerAuth
// @Param from query string true "From date, inclusive"
// @Param to query string true "To date, inclusive"
// @Param shop_id query string false "Shop (admin only)"
// @Success 200 {object} response.Response{data=[]CompletedBookingResponse}
// @Router /reports/completed [get]
func (h *Handler) Completed(w http.ResponseWriter, r *http.Request) {
	a, _ := middleware.GetActor(r.Context())

	q := r.URL.Query()
	errs := map[string]string{}
	from, err := validator.ParseDate(q.Get("from"))
	if err != nil {
		errs["from"] = "Invalid date. Expected YYYY-MM-DD"
	}
	to, err := validator.ParseDate(q.Get("to"))
	if err != nil {
		errs["to"] = "Invalid date. Expected YYYY-MM-DD"
	}

	var shopID uuid.NullUUID
	if raw := q.Get("shop_id"); raw != "" {
		id, err := uuid.Parse(raw)
		if err != nil {
			errs["shop_id"] = "Invalid id"
		}
		shopID = uuid.NullUUID{UUID: id, Valid: true}
	}
	if len(errs) > 0 {
		response.ValidationError(w, errs)
		return
	}

	// to is inclusive for callers
	rows, err := h.service.CompletedBookings(r.Context(), a, shopID, from, to.Add(24*time.Hour))
	if err != nil {
		errorhandler.HandleDomainError(r.Context(), w, err)
		return
	}

	items := make([]CompletedBookingResponse, len(rows))
	for i, row := range rows {
		items[i] = CompletedBookingResponseFrom(row)
	}
	response.OK(w, items)
}

// Receipt handles GET /bookings/{id}/receipt
func (h *Handler) Receipt(w http.ResponseWriter, r *http.Request) {
	a, _ := middleware.GetActor(r.Context())

	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		response.BadRequest(w, "Invalid booking ID")
		return
	}

	receipt, err := h.service.Receipt(r.Context(), a, id)
	if err != nil {
		errorhandler.HandleDomainError(r.Context(), w, err)
		return
	}
	response.OK(w, ReceiptResponseFrom(receipt))
}

// Archive handles GET /bookings/{id}/archive
func (h *Handler) Archive(w http.ResponseWriter, r *http.Request) {
	a, _ := middleware.GetActor(r.Context())

	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		response.BadRequest(w, "Invalid booking ID")
		return
	}

	record, url, err := h.service.ArchivedCompletion(r.Context(), a, id)
	if err != nil {
		errorhandler.HandleDomainError(r.Context(), w, err)
		return
	}
	response.OK(w, map[string]interface{}{
		"url":    url,
		"record": record,
	})
}

// RegisterRoutes mounts report routes on an authenticated router
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Get("/reports/completed", h.Completed)
	r.Get("/bookings/{id}/receipt", h.Receipt)
	r.Get("/bookings/{id}/archive", h.Archive)
}
