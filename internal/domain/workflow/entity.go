package workflow

import (
	"database/sql"
	"time"

	"github.com/google/uuid"

	"github.com/groomly/groomly-api/internal/domain/booking"
	"github.com/groomly/groomly-api/internal/domain/selection"
)

// Feedback is the optional customer rating left after completion
type Feedback struct {
	ID        uuid.UUID      `db:"id"`
	BookingID uuid.UUID      `db:"booking_id"`
	Rating    sql.NullInt16  `db:"rating"`
	Comment   sql.NullString `db:"comment"`
	CreatedBy uuid.NullUUID  `db:"created_by"`
	CreatedAt time.Time      `db:"created_at"`
}

// CompletionResult is the completed booking with the selections frozen in
// the same unit of work
type CompletionResult struct {
	Booking          *booking.Booking
	FrozenSelections []selection.FrozenSelection
}

// Views returns the frozen selections in listing shape
func (r CompletionResult) Views() []selection.SelectionView {
	return selection.FrozenViews(r.FrozenSelections)
}

// Total sums the frozen prices
func (r CompletionResult) Total() float64 {
	return selection.Total(r.Views())
}
