package booking

import (
	"fmt"

	"github.com/groomly/groomly-api/internal/pkg/apperr"
)

var (
	ErrBookingNotFound   = apperr.New(apperr.ErrNotFound, "booking not found")
	ErrSlotTaken         = apperr.New(apperr.ErrSlotConflict, "slot is already booked for this date")
	ErrSlotBusy          = apperr.New(apperr.ErrSlotConflict, "slot is being claimed by another request")
	ErrSlotNotOffered    = apperr.New(apperr.ErrValidation, "slot is not offered on this date")
	ErrInvalidTransition = apperr.New(apperr.ErrInvalidTransition, "status change not allowed")
	ErrBookingCompleted  = apperr.New(apperr.ErrImmutableState, "booking is completed")
	ErrBookingCancelled  = apperr.New(apperr.ErrInvalidTransition, "booking is cancelled")
)

// TransitionError reports an illegal from -> to move
func TransitionError(from, to Status) error {
	return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, from, to)
}

// GuardOpen returns nil while the booking can still be edited
func GuardOpen(status Status) error {
	switch status {
	case StatusCompleted:
		return ErrBookingCompleted
	case StatusCancelled:
		return ErrBookingCancelled
	}
	return nil
}
