package selection

import (
	"github.com/groomly/groomly-api/internal/domain/booking"
	"github.com/groomly/groomly-api/internal/pkg/apperr"
)

var (
	ErrSelectionNotFound = apperr.New(apperr.ErrNotFound, "selection not found")
	ErrAlreadySelected   = apperr.New(apperr.ErrDuplicateSelection, "service already selected for this booking")
	ErrNoteRequired      = apperr.New(apperr.ErrValidation, "input_value is required for this service")
	ErrSelectionsFrozen  = apperr.New(apperr.ErrImmutableState, "selections are frozen for this booking")
)

// GuardWritable returns ErrSelectionsFrozen once a booking is completed or cancelled
func GuardWritable(status booking.Status) error {
	if status.IsTerminal() {
		return ErrSelectionsFrozen
	}
	return nil
}
