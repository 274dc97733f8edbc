package notification

import (
	"time"

	"github.com/google/uuid"
)

// Type represents a booking lifecycle event
type Type string

const (
	TypeBookingCreated     Type = "booking.created"
	TypeBookingRescheduled Type = "booking.rescheduled"
	TypeBookingCancelled   Type = "booking.cancelled"
	TypeBookingDeleted     Type = "booking.deleted"
	TypeBookingStarted     Type = "booking.started"
	TypeBookingCompleted   Type = "booking.completed"
	TypeFeedbackSubmitted  Type = "feedback.submitted"
	TypeFeedbackSkipped    Type = "feedback.skipped"
)

// Event is what the core hands to a Notifier after a successful write
type Event struct {
	BookingID  uuid.UUID `json:"booking_id"`
	ShopID     uuid.UUID `json:"shop_id"`
	Type       Type      `json:"type"`
	Status     string    `json:"status,omitempty"`
	ActorID    uuid.UUID `json:"actor_id,omitempty"`
	OccurredAt time.Time `json:"occurred_at"`
}
