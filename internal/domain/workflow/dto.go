package workflow

import (
	"time"

	"github.com/google/uuid"

	"github.com/groomly/groomly-api/internal/domain/booking"
	"github.com/groomly/groomly-api/internal/domain/selection"
)

// FeedbackRequest is the body of POST /bookings/{id}/feedback
type FeedbackRequest struct {
	Rating  *int    `json:"rating,omitempty" validate:"omitempty,gte=1,lte=5"`
	Comment *string `json:"comment,omitempty" validate:"omitempty,max=2000"`
}

// FeedbackResponse represents recorded feedback
type FeedbackResponse struct {
	ID        uuid.UUID `json:"id"`
	BookingID uuid.UUID `json:"booking_id"`
	Rating    *int      `json:"rating,omitempty"`
	Comment   *string   `json:"comment,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

func FeedbackResponseFromEntity(f *Feedback) FeedbackResponse {
	resp := FeedbackResponse{
		ID:        f.ID,
		BookingID: f.BookingID,
		CreatedAt: f.CreatedAt,
	}
	if f.Rating.Valid {
		r := int(f.Rating.Int16)
		resp.Rating = &r
	}
	if f.Comment.Valid {
		c := f.Comment.String
		resp.Comment = &c
	}
	return resp
}

// CompletionResponse is returned by POST /bookings/{id}/complete
type CompletionResponse struct {
	Booking    booking.BookingResponse       `json:"booking"`
	Selections []selection.SelectionResponse `json:"selections"`
	Total      float64                       `json:"total"`
}

func CompletionResponseFromResult(r *CompletionResult) CompletionResponse {
	return CompletionResponse{
		Booking:    booking.ResponseFromEntity(r.Booking),
		Selections: selection.ViewResponses(r.Views()),
		Total:      r.Total(),
	}
}
