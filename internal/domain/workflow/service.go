package workflow

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/groomly/groomly-api/internal/domain/booking"
	"github.com/groomly/groomly-api/internal/domain/notification"
	"github.com/groomly/groomly-api/internal/pkg/actor"
	"github.com/groomly/groomly-api/internal/pkg/apperr"
	"github.com/groomly/groomly-api/internal/pkg/logger"
	"github.com/groomly/groomly-api/internal/pkg/validator"
)

const sinkTimeout = 30 * time.Second

// BookingStore is the part of the booking repository the workflow drives
type BookingStore interface {
	GetByID(ctx context.Context, id uuid.UUID) (*booking.Booking, error)
	TransitionStatus(ctx context.Context, id uuid.UUID, from []booking.Status, to booking.Status, at time.Time) (*booking.Booking, error)
}

// CompletionSink receives every committed completion, e.g. for archiving.
// It runs after the response and cannot fail the completion.
type CompletionSink interface {
	OnCompleted(ctx context.Context, result CompletionResult) error
}

// Options configure the workflow
type Options struct {
	// AllowDirectCompletion lets walk-ins go reserved -> completed
	AllowDirectCompletion bool
	Sink                  CompletionSink
}

// Service drives bookings through service and completion
type Service struct {
	repo     Repository
	bookings BookingStore
	notifier notification.Notifier
	opts     Options
	now      func() time.Time

	wg sync.WaitGroup
}

// NewService creates workflow service
func NewService(repo Repository, bookings BookingStore, notifier notification.Notifier, opts Options) *Service {
	if notifier == nil {
		notifier = notification.Nop{}
	}
	return &Service{
		repo:     repo,
		bookings: bookings,
		notifier: notifier,
		opts:     opts,
		now:      time.Now,
	}
}

// StartService moves a reserved booking to in_progress
func (s *Service) StartService(ctx context.Context, a actor.Actor, id uuid.UUID) (*booking.Booking, error) {
	if _, err := s.load(ctx, a, id); err != nil {
		return nil, err
	}

	b, err := s.bookings.TransitionStatus(ctx, id, []booking.Status{booking.StatusReserved}, booking.StatusInProgress, s.now().UTC())
	if err != nil {
		return nil, err
	}

	s.emit(ctx, a, b, notification.TypeBookingStarted)
	return b, nil
}

// CompleteBooking completes a booking and freezes its selections. Feedback is
// not required.
func (s *Service) CompleteBooking(ctx context.Context, a actor.Actor, id uuid.UUID) (*CompletionResult, error) {
	if _, err := s.load(ctx, a, id); err != nil {
		return nil, err
	}

	from := []booking.Status{booking.StatusInProgress}
	if s.opts.AllowDirectCompletion {
		from = append(from, booking.StatusReserved)
	}

	result, err := s.repo.Complete(ctx, id, from, s.now().UTC())
	if err != nil {
		return nil, err
	}

	s.emit(ctx, a, result.Booking, notification.TypeBookingCompleted)
	s.dispatch(ctx, *result)
	return result, nil
}

// SubmitFeedback records the one optional feedback of a completed booking.
// Rating and comment may both be absent.
func (s *Service) SubmitFeedback(ctx context.Context, a actor.Actor, id uuid.UUID, req *FeedbackRequest) (*Feedback, error) {
	if errs := validator.Validate(req); errs != nil {
		return nil, apperr.ValidationErrors(errs)
	}

	b, err := s.completed(ctx, a, id)
	if err != nil {
		return nil, err
	}

	f := &Feedback{
		ID:        uuid.New(),
		BookingID: b.ID,
		CreatedBy: a.CreatedBy(),
		CreatedAt: s.now().UTC(),
	}
	if req.Rating != nil {
		f.Rating = sql.NullInt16{Int16: int16(*req.Rating), Valid: true}
	}
	if req.Comment != nil && strings.TrimSpace(*req.Comment) != "" {
		f.Comment = sql.NullString{String: strings.TrimSpace(*req.Comment), Valid: true}
	}

	if err := s.repo.CreateFeedback(ctx, f); err != nil {
		return nil, err
	}

	s.emit(ctx, a, b, notification.TypeFeedbackSubmitted)
	return f, nil
}

// SkipFeedback records that the customer declined feedback. Nothing is
// stored, so feedback can still be submitted later.
func (s *Service) SkipFeedback(ctx context.Context, a actor.Actor, id uuid.UUID) error {
	b, err := s.completed(ctx, a, id)
	if err != nil {
		return err
	}

	_, err = s.repo.GetFeedback(ctx, id)
	switch {
	case err == nil:
		return ErrFeedbackExists
	case !errors.Is(err, ErrFeedbackNotFound):
		return err
	}

	s.emit(ctx, a, b, notification.TypeFeedbackSkipped)
	return nil
}

// GetFeedback returns the feedback of a booking
func (s *Service) GetFeedback(ctx context.Context, a actor.Actor, id uuid.UUID) (*Feedback, error) {
	if _, err := s.load(ctx, a, id); err != nil {
		return nil, err
	}
	return s.repo.GetFeedback(ctx, id)
}

// Wait blocks until in-flight completion sinks return
func (s *Service) Wait() {
	s.wg.Wait()
}

func (s *Service) load(ctx context.Context, a actor.Actor, id uuid.UUID) (*booking.Booking, error) {
	b, err := s.bookings.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := booking.Authorize(a, b); err != nil {
		return nil, err
	}
	return b, nil
}

func (s *Service) completed(ctx context.Context, a actor.Actor, id uuid.UUID) (*booking.Booking, error) {
	b, err := s.load(ctx, a, id)
	if err != nil {
		return nil, err
	}
	if b.Status != booking.StatusCompleted {
		return nil, ErrFeedbackNotAllowed
	}
	return b, nil
}

func (s *Service) dispatch(ctx context.Context, result CompletionResult) {
	if s.opts.Sink == nil {
		return
	}

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()

		ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), sinkTimeout)
		defer cancel()

		if err := s.opts.Sink.OnCompleted(ctx, result); err != nil {
			logger.LogError(ctx, err, "Completion sink failed", "booking_id", result.Booking.ID.String())
		}
	}()
}

func (s *Service) emit(ctx context.Context, a actor.Actor, b *booking.Booking, t notification.Type) {
	s.notifier.Send(ctx, notification.Event{
		BookingID:  b.ID,
		ShopID:     b.ShopID,
		Type:       t,
		Status:     string(b.Status),
		ActorID:    a.UserID,
		OccurredAt: s.now().UTC(),
	})
}
