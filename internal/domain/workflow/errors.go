package workflow

import "github.com/groomly/groomly-api/internal/pkg/apperr"

var (
	ErrFeedbackExists     = apperr.New(apperr.ErrInvalidTransition, "feedback already recorded")
	ErrFeedbackNotAllowed = apperr.New(apperr.ErrInvalidTransition, "feedback requires a completed booking")
	ErrFeedbackNotFound   = apperr.New(apperr.ErrNotFound, "feedback not found")
)
