package slot

import "github.com/groomly/groomly-api/internal/pkg/apperr"

var (
	ErrNoSlotsConfigured = apperr.New(apperr.ErrNotFound, "no slots configured for this date")
	ErrShopNotFound      = apperr.New(apperr.ErrNotFound, "shop not found")
	ErrTimeSlotNotFound  = apperr.New(apperr.ErrNotFound, "time slot not found")
	ErrSubSlotNotFound   = apperr.New(apperr.ErrNotFound, "sub time slot not found")
	ErrDuplicateSlot     = apperr.New(apperr.ErrValidation, "slot number already used in this time slot")
)
