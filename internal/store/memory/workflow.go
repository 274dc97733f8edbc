package memory

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/groomly/groomly-api/internal/domain/booking"
	"github.com/groomly/groomly-api/internal/domain/selection"
	"github.com/groomly/groomly-api/internal/domain/workflow"
	"github.com/groomly/groomly-api/internal/pkg/apperr"
)

type workflowRepo struct{ s *Store }

func (r workflowRepo) Complete(ctx context.Context, id uuid.UUID, from []booking.Status, at time.Time) (*workflow.CompletionResult, error) {
	if err := r.s.lock(ctx); err != nil {
		return nil, err
	}
	defer r.s.mu.Unlock()

	b, ok := r.s.bookings[id]
	if !ok {
		return nil, booking.ErrBookingNotFound
	}
	if !containsStatus(from, b.Status) {
		return nil, booking.TransitionError(b.Status, booking.StatusCompleted)
	}

	frozen := selection.Freeze(r.s.liveLocked(id), at)
	if r.s.snapshotErr != nil {
		// Nothing has been written yet
		return nil, apperr.Storage("freeze selections", r.s.snapshotErr)
	}

	applyTransition(b, booking.StatusCompleted, at)
	r.s.snapshots[id] = frozen

	cp := *b
	return &workflow.CompletionResult{
		Booking:          &cp,
		FrozenSelections: append([]selection.FrozenSelection(nil), frozen...),
	}, nil
}

func (r workflowRepo) CreateFeedback(ctx context.Context, f *workflow.Feedback) error {
	if err := r.s.lock(ctx); err != nil {
		return err
	}
	defer r.s.mu.Unlock()

	if _, ok := r.s.bookings[f.BookingID]; !ok {
		return booking.ErrBookingNotFound
	}
	if _, exists := r.s.feedback[f.BookingID]; exists {
		return workflow.ErrFeedbackExists
	}

	cp := *f
	r.s.feedback[f.BookingID] = &cp
	return nil
}

func (r workflowRepo) GetFeedback(ctx context.Context, bookingID uuid.UUID) (*workflow.Feedback, error) {
	if err := r.s.lock(ctx); err != nil {
		return nil, err
	}
	defer r.s.mu.Unlock()

	f, ok := r.s.feedback[bookingID]
	if !ok {
		return nil, workflow.ErrFeedbackNotFound
	}
	cp := *f
	return &cp, nil
}

func (r workflowRepo) ListFeedback(ctx context.Context, bookingIDs []uuid.UUID) (map[uuid.UUID]*workflow.Feedback, error) {
	if err := r.s.lock(ctx); err != nil {
		return nil, err
	}
	defer r.s.mu.Unlock()

	out := make(map[uuid.UUID]*workflow.Feedback, len(bookingIDs))
	for _, id := range bookingIDs {
		if f, ok := r.s.feedback[id]; ok {
			cp := *f
			out[id] = &cp
		}
	}
	return out, nil
}
