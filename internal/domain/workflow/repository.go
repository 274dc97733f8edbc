package workflow

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/groomly/groomly-api/internal/domain/booking"
	"github.com/groomly/groomly-api/internal/domain/selection"
	"github.com/groomly/groomly-api/internal/pkg/apperr"
	"github.com/groomly/groomly-api/internal/pkg/errorhandler"
)

const queryTimeout = 5 * time.Second

// Repository defines completion and feedback data access
type Repository interface {
	// Complete moves the booking from one of from to completed and freezes
	// its selections in one unit of work. On failure nothing is changed.
	Complete(ctx context.Context, id uuid.UUID, from []booking.Status, at time.Time) (*CompletionResult, error)
	CreateFeedback(ctx context.Context, f *Feedback) error
	GetFeedback(ctx context.Context, bookingID uuid.UUID) (*Feedback, error)
	ListFeedback(ctx context.Context, bookingIDs []uuid.UUID) (map[uuid.UUID]*Feedback, error)
}

type repository struct {
	db *sqlx.DB
}

// NewRepository creates a PostgreSQL workflow repository
func NewRepository(db *sqlx.DB) Repository {
	return &repository{db: db}
}

const feedbackColumns = `id, booking_id, rating, comment, created_by, created_at`

func (r *repository) Complete(ctx context.Context, id uuid.UUID, from []booking.Status, at time.Time) (*CompletionResult, error) {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, apperr.Storage("begin tx", err)
	}
	defer tx.Rollback()

	// The UPDATE row lock makes concurrent selection writes wait, so the
	// snapshot below sees their outcome.
	var b booking.Booking
	err = tx.GetContext(ctx, &b, booking.TransitionQuery(booking.StatusCompleted),
		id, booking.StatusCompleted, at, booking.StatusStrings(from))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, r.rejectCompletion(ctx, tx, id)
		}
		errorhandler.LogDatabaseError(ctx, "workflow.Complete", err, "booking_id", id)
		return nil, apperr.Storage("complete booking", err)
	}

	var live []selection.SelectionView
	if err := tx.SelectContext(ctx, &live, selection.LiveQuery, id); err != nil {
		errorhandler.LogDatabaseError(ctx, "workflow.Complete.selections", err, "booking_id", id)
		return nil, apperr.Storage("read selections", err)
	}

	frozen := selection.Freeze(live, at)
	for i := range frozen {
		if _, err := tx.NamedExecContext(ctx, selection.InsertSnapshotQuery, &frozen[i]); err != nil {
			errorhandler.LogDatabaseError(ctx, "workflow.Complete.snapshot", err, "booking_id", id)
			return nil, apperr.Storage("freeze selections", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, apperr.Storage("commit completion", err)
	}
	return &CompletionResult{Booking: &b, FrozenSelections: frozen}, nil
}

func (r *repository) rejectCompletion(ctx context.Context, tx *sqlx.Tx, id uuid.UUID) error {
	var status booking.Status
	if err := tx.GetContext(ctx, &status, `SELECT status FROM bookings WHERE id = $1`, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return booking.ErrBookingNotFound
		}
		return apperr.Storage("get booking status", err)
	}
	return booking.TransitionError(status, booking.StatusCompleted)
}

func (r *repository) CreateFeedback(ctx context.Context, f *Feedback) error {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	_, err := r.db.NamedExecContext(ctx, `
		INSERT INTO booking_feedback (id, booking_id, rating, comment, created_by, created_at)
		VALUES (:id, :booking_id, :rating, :comment, :created_by, :created_at)`, f)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) {
			switch pqErr.Code {
			case "23505":
				return fmt.Errorf("%w: %w", ErrFeedbackExists, err)
			case "23503":
				return fmt.Errorf("%w: %w", booking.ErrBookingNotFound, err)
			}
		}
		errorhandler.LogDatabaseError(ctx, "workflow.CreateFeedback", err, "booking_id", f.BookingID)
		return apperr.Storage("create feedback", err)
	}
	return nil
}

func (r *repository) GetFeedback(ctx context.Context, bookingID uuid.UUID) (*Feedback, error) {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	var f Feedback
	err := r.db.GetContext(ctx, &f, `SELECT `+feedbackColumns+` FROM booking_feedback WHERE booking_id = $1`, bookingID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrFeedbackNotFound
		}
		errorhandler.LogDatabaseError(ctx, "workflow.GetFeedback", err)
		return nil, apperr.Storage("get feedback", err)
	}
	return &f, nil
}

func (r *repository) ListFeedback(ctx context.Context, bookingIDs []uuid.UUID) (map[uuid.UUID]*Feedback, error) {
	out := make(map[uuid.UUID]*Feedback, len(bookingIDs))
	if len(bookingIDs) == 0 {
		return out, nil
	}

	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	ids := make([]string, len(bookingIDs))
	for i, id := range bookingIDs {
		ids[i] = id.String()
	}

	var rows []*Feedback
	err := r.db.SelectContext(ctx, &rows,
		`SELECT `+feedbackColumns+` FROM booking_feedback WHERE booking_id = ANY($1::uuid[])`, pq.Array(ids))
	if err != nil {
		errorhandler.LogDatabaseError(ctx, "workflow.ListFeedback", err)
		return nil, apperr.Storage("list feedback", err)
	}
	for _, f := range rows {
		out[f.BookingID] = f
	}
	return out, nil
}
