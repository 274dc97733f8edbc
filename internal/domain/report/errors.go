package report

import "github.com/groomly/groomly-api/internal/pkg/apperr"

var (
	ErrArchiveNotFound = apperr.New(apperr.ErrNotFound, "archived completion not found")
	ErrInvalidRange    = apperr.New(apperr.ErrValidation, "to must not be before from")
)
