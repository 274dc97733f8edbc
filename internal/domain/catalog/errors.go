package catalog

import "github.com/groomly/groomly-api/internal/pkg/apperr"

var (
	ErrServiceNotFound = apperr.New(apperr.ErrNotFound, "service not found")
	ErrInvalidType     = apperr.New(apperr.ErrValidation, "service type must be checkbox or input")
)
