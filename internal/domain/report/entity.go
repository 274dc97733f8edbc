package report

import (
	"time"

	"github.com/groomly/groomly-api/internal/domain/booking"
	"github.com/groomly/groomly-api/internal/domain/selection"
	"github.com/groomly/groomly-api/internal/domain/workflow"
)

// CompletedBooking is one row of the completed-bookings report
type CompletedBooking struct {
	Booking    *booking.Booking
	Selections []selection.SelectionView
	Feedback   *workflow.Feedback
	Total      float64
}

// Receipt holds the data a receipt printer needs. Formatting is up to the
// consumer.
type Receipt struct {
	Booking     *booking.Booking
	Selections  []selection.SelectionView
	Feedback    *workflow.Feedback
	Total       float64
	GeneratedAt time.Time
}
