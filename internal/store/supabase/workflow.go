package supabase

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/groomly/groomly-api/internal/domain/booking"
	"github.com/groomly/groomly-api/internal/domain/selection"
	"github.com/groomly/groomly-api/internal/domain/workflow"
	"github.com/groomly/groomly-api/internal/pkg/errorhandler"
)

type workflowRepo struct{ s *Store }

// Complete writes the snapshot first and flips the status second. If the
// status update does not land, this attempt's snapshot rows are deleted again.
// The attempt whose update lands then removes any other snapshot rows of the
// booking, left by an attempt that lost or died before cleaning up.
func (r workflowRepo) Complete(ctx context.Context, id uuid.UUID, from []booking.Status, at time.Time) (*workflow.CompletionResult, error) {
	release, err := r.s.lockBooking(ctx, "workflow.Complete", id)
	if err != nil {
		return nil, err
	}
	defer release()

	bookings := bookingRepo{r.s}

	current, err := bookings.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !containsStatus(from, current.Status) {
		return nil, booking.TransitionError(current.Status, booking.StatusCompleted)
	}

	live, err := selectionRepo{r.s}.ListLive(ctx, id)
	if err != nil {
		return nil, err
	}
	frozen := selection.Freeze(live, at)

	if len(frozen) > 0 {
		rows := make([]snapshotRow, 0, len(frozen))
		for _, f := range frozen {
			rows = append(rows, snapshotRowFrom(f))
		}
		q := r.s.from("booking_service_snapshots").Insert(rows, false, "", "minimal", "")
		if _, err := run(ctx, "workflow.Complete.snapshot", q, nil); err != nil {
			return nil, storageErr(ctx, "freeze selections", err)
		}
	}

	b, ok, err := bookings.updateOpen(ctx, "workflow.Complete", id, from, transitionPatch(booking.StatusCompleted, at))
	if err == nil && !ok {
		err = bookings.rejectTransition(ctx, id, booking.StatusCompleted)
	}
	if err != nil {
		r.discardSnapshots(ctx, frozen)
		return nil, err
	}

	r.dropForeignSnapshots(ctx, id, frozen)
	return &workflow.CompletionResult{Booking: b, FrozenSelections: frozen}, nil
}

// dropForeignSnapshots deletes snapshot rows of a completed booking that were
// not written by the winning attempt. Failures are logged: the completion
// itself has already been committed.
func (r workflowRepo) dropForeignSnapshots(ctx context.Context, bookingID uuid.UUID, frozen []selection.FrozenSelection) {
	ctx = context.WithoutCancel(ctx)
	const op = "workflow.Complete.foreign"

	var rows []struct {
		ID uuid.UUID `json:"id"`
	}
	q := r.s.from("booking_service_snapshots").Select("id", "", false).Eq("booking_id", bookingID.String())
	if _, err := run(ctx, op, q, &rows); err != nil {
		errorhandler.LogDatabaseError(ctx, op, err, "booking_id", bookingID)
		return
	}

	own := make(map[uuid.UUID]bool, len(frozen))
	for _, f := range frozen {
		own[f.ID] = true
	}
	var foreign []uuid.UUID
	for _, row := range rows {
		if !own[row.ID] {
			foreign = append(foreign, row.ID)
		}
	}
	if len(foreign) == 0 {
		return
	}

	q = r.s.from("booking_service_snapshots").Delete("minimal", "").In("id", uuidStrings(foreign))
	if _, err := run(ctx, op, q, nil); err != nil {
		errorhandler.LogDatabaseError(ctx, op, err, "booking_id", bookingID, "snapshots", len(foreign))
	}
}

func (r workflowRepo) discardSnapshots(ctx context.Context, frozen []selection.FrozenSelection) {
	if len(frozen) == 0 {
		return
	}
	ids := make([]uuid.UUID, 0, len(frozen))
	for _, f := range frozen {
		ids = append(ids, f.ID)
	}
	// Detached so a cancelled request still cleans up
	ctx = context.WithoutCancel(ctx)
	q := r.s.from("booking_service_snapshots").Delete("minimal", "").In("id", uuidStrings(ids))
	if _, err := run(ctx, "workflow.Complete.discard", q, nil); err != nil {
		errorhandler.LogDatabaseError(ctx, "workflow.Complete.discard", err, "snapshots", len(ids))
	}
}

func containsStatus(list []booking.Status, s booking.Status) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}

func (r workflowRepo) CreateFeedback(ctx context.Context, f *workflow.Feedback) error {
	q := r.s.from("booking_feedback").Insert(feedbackRowFrom(f), false, "", "minimal", "")
	if _, err := run(ctx, "workflow.CreateFeedback", q, nil); err != nil {
		switch {
		case isUniqueViolation(err):
			return workflow.ErrFeedbackExists
		case isForeignKeyViolation(err):
			return booking.ErrBookingNotFound
		}
		return storageErr(ctx, "create feedback", err)
	}
	return nil
}

func (r workflowRepo) GetFeedback(ctx context.Context, bookingID uuid.UUID) (*workflow.Feedback, error) {
	byBooking, err := r.ListFeedback(ctx, []uuid.UUID{bookingID})
	if err != nil {
		return nil, err
	}
	f, ok := byBooking[bookingID]
	if !ok {
		return nil, workflow.ErrFeedbackNotFound
	}
	return f, nil
}

func (r workflowRepo) ListFeedback(ctx context.Context, bookingIDs []uuid.UUID) (map[uuid.UUID]*workflow.Feedback, error) {
	out := make(map[uuid.UUID]*workflow.Feedback, len(bookingIDs))
	if len(bookingIDs) == 0 {
		return out, nil
	}

	var rows []feedbackRow
	q := r.s.from("booking_feedback").Select("*", "", false).In("booking_id", uuidStrings(bookingIDs))
	if _, err := run(ctx, "workflow.ListFeedback", q, &rows); err != nil {
		return nil, storageErr(ctx, "list feedback", err)
	}
	for _, row := range rows {
		out[row.BookingID] = row.entity()
	}
	return out, nil
}
