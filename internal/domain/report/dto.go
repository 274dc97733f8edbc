package report

import (
	"time"

	"github.com/groomly/groomly-api/internal/domain/booking"
	"github.com/groomly/groomly-api/internal/domain/selection"
	"github.com/groomly/groomly-api/internal/domain/workflow"
)

// CompletedBookingResponse represents one completed booking
type CompletedBookingResponse struct {
	Booking    booking.BookingResponse       `json:"booking"`
	Selections []selection.SelectionResponse `json:"selections"`
	Feedback   *workflow.FeedbackResponse    `json:"feedback,omitempty"`
	Total      float64                       `json:"total"`
}

func CompletedBookingResponseFrom(c CompletedBooking) CompletedBookingResponse {
	resp := CompletedBookingResponse{
		Booking:    booking.ResponseFromEntity(c.Booking),
		Selections: selection.ViewResponses(c.Selections),
		Total:      c.Total,
	}
	if c.Feedback != nil {
		f := workflow.FeedbackResponseFromEntity(c.Feedback)
		resp.Feedback = &f
	}
	return resp
}

// ReceiptResponse represents receipt data
type ReceiptResponse struct {
	Booking     booking.BookingResponse       `json:"booking"`
	Selections  []selection.SelectionResponse `json:"selections"`
	Feedback    *workflow.FeedbackResponse    `json:"feedback,omitempty"`
	Total       float64                       `json:"total"`
	GeneratedAt time.Time                     `json:"generated_at"`
}

func ReceiptResponseFrom(r *Receipt) ReceiptResponse {
	resp := ReceiptResponse{
		Booking:     booking.ResponseFromEntity(r.Booking),
		Selections:  selection.ViewResponses(r.Selections),
		Total:       r.Total,
		GeneratedAt: r.GeneratedAt,
	}
	if r.Feedback != nil {
		f := workflow.FeedbackResponseFromEntity(r.Feedback)
		resp.Feedback = &f
	}
	return resp
}

// ArchiveRecord is the JSON document written for every completed booking
type ArchiveRecord struct {
	Booking    booking.BookingResponse       `json:"booking"`
	Selections []selection.SelectionResponse `json:"selections"`
	Total      float64                       `json:"total"`
	ArchivedAt time.Time                     `json:"archived_at"`
}
