package selection

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
	"github.com/groomly/groomly-api/internal/domain/catalog"
	"github.com/groomly/groomly-api/internal/pkg/apperr"
	"github.com/groomly/groomly-api/internal/pkg/errorhandler"
)

const queryTimeout = 5 * time.Second

// Repository defines selection data access. Every write checks, atomically
// with the write, that the booking is still open and returns
// ErrSelectionsFrozen otherwise.
type Repository interface {
	Insert(ctx context.Context, sel *SelectedService) error
	GetByID(ctx context.Context, id uuid.UUID) (*SelectedService, error)
	UpdateNote(ctx context.Context, id uuid.UUID, note sql.NullString, at time.Time) (*SelectedService, error)
	Delete(ctx context.Context, bookingID, serviceID uuid.UUID) error
	ListLive(ctx context.Context, bookingID uuid.UUID) ([]SelectionView, error)
	ListFrozen(ctx context.Context, bookingID uuid.UUID) ([]FrozenSelection, error)
	ListFrozenForBookings(ctx context.Context, bookingIDs []uuid.UUID) (map[uuid.UUID][]FrozenSelection, error)
}

type repository struct {
	db *sqlx.DB
}

// NewRepository creates a PostgreSQL selection repository
func NewRepository(db *sqlx.DB) Repository {
	return &repository{db: db}
}

// LiveQuery joins a booking's selections with the catalog. $1 booking id.
const LiveQuery = `
	SELECT ss.id, ss.booking_id, ss.service_id, sc.name AS service_name,
	       sc.type AS service_type, sc.price, ss.input_value, ss.created_at, FALSE AS frozen
	FROM selected_services ss
	JOIN service_catalog sc ON sc.id = ss.service_id
	WHERE ss.booking_id = $1
	ORDER BY sc.name, ss.id`

// InsertSnapshotQuery writes one frozen selection
const InsertSnapshotQuery = `
	INSERT INTO booking_service_snapshots (
		id, booking_id, selection_id, service_id, service_name, service_type,
		price, input_value, frozen_at
	) VALUES (
		:id, :booking_id, :selection_id, :service_id, :service_name, :service_type,
		:price, :input_value, :frozen_at
	)`

const frozenColumns = `id, booking_id, selection_id, service_id, service_name, service_type, price, input_value, frozen_at`

const selectionColumns = `id, booking_id, service_id, input_value, created_at, updated_at`

// lockBooking takes a share lock on the booking row so a concurrent
// completion waits for this write, or this write sees the completion.
func lockBooking(ctx context.Context, tx *sqlx.Tx, bookingID uuid.UUID) error {
	var status booking.Status
	err := tx.GetContext(ctx, &status, `SELECT status FROM bookings WHERE id = $1 FOR SHARE`, bookingID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return booking.ErrBookingNotFound
		}
		return apperr.Storage("lock booking", err)
	}
	return GuardWritable(status)
}

func (r *repository) Insert(ctx context.Context, sel *SelectedService) error {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return apperr.Storage("begin tx", err)
	}
	defer tx.Rollback()

	if err := lockBooking(ctx, tx, sel.BookingID); err != nil {
		return err
	}

	_, err = tx.NamedExecContext(ctx, `
		INSERT INTO selected_services (id, booking_id, service_id, input_value, created_at, updated_at)
		VALUES (:id, :booking_id, :service_id, :input_value, :created_at, :updated_at)`, sel)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) {
			switch pqErr.Code {
			case "23505":
				return fmt.Errorf("%w: %w", ErrAlreadySelected, err)
			case "23503":
				return fmt.Errorf("%w: %w", catalog.ErrServiceNotFound, err)
			}
		}
		errorhandler.LogDatabaseError(ctx, "selection.Insert", err, "booking_id", sel.BookingID)
		return apperr.Storage("insert selection", err)
	}

	if err := tx.Commit(); err != nil {
		return apperr.Storage("commit selection", err)
	}
	return nil
}

func (r *repository) GetByID(ctx context.Context, id uuid.UUID) (*SelectedService, error) {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	var sel SelectedService
	if err := r.db.GetContext(ctx, &sel, `SELECT `+selectionColumns+` FROM selected_services WHERE id = $1`, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrSelectionNotFound
		}
		errorhandler.LogDatabaseError(ctx, "selection.GetByID", err)
		return nil, apperr.Storage("get selection", err)
	}
	return &sel, nil
}

func (r *repository) UpdateNote(ctx context.Context, id uuid.UUID, note sql.NullString, at time.Time) (*SelectedService, error) {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, apperr.Storage("begin tx", err)
	}
	defer tx.Rollback()

	var bookingID uuid.UUID
	if err := tx.GetContext(ctx, &bookingID, `SELECT booking_id FROM selected_services WHERE id = $1`, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrSelectionNotFound
		}
		return nil, apperr.Storage("get selection", err)
	}
	if err := lockBooking(ctx, tx, bookingID); err != nil {
		return nil, err
	}

	var sel SelectedService
	err = tx.GetContext(ctx, &sel, `
		UPDATE selected_services SET input_value = $2, updated_at = $3
		WHERE id = $1
		RETURNING `+selectionColumns, id, note, at)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrSelectionNotFound
		}
		errorhandler.LogDatabaseError(ctx, "selection.UpdateNote", err)
		return nil, apperr.Storage("update selection", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, apperr.Storage("commit selection", err)
	}
	return &sel, nil
}

func (r *repository) Delete(ctx context.Context, bookingID, serviceID uuid.UUID) error {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return apperr.Storage("begin tx", err)
	}
	defer tx.Rollback()

	if err := lockBooking(ctx, tx, bookingID); err != nil {
		return err
	}

	result, err := tx.ExecContext(ctx,
		`DELETE FROM selected_services WHERE booking_id = $1 AND service_id = $2`, bookingID, serviceID)
	if err != nil {
		errorhandler.LogDatabaseError(ctx, "selection.Delete", err)
		return apperr.Storage("delete selection", err)
	}
	if n, _ := result.RowsAffected(); n == 0 {
		return ErrSelectionNotFound
	}

	if err := tx.Commit(); err != nil {
		return apperr.Storage("commit selection", err)
	}
	return nil
}

func (r *repository) ListLive(ctx context.Context, bookingID uuid.UUID) ([]SelectionView, error) {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	var views []SelectionView
	if err := r.db.SelectContext(ctx, &views, LiveQuery, bookingID); err != nil {
		errorhandler.LogDatabaseError(ctx, "selection.ListLive", err)
		return nil, apperr.Storage("list selections", err)
	}
	return views, nil
}

func (r *repository) ListFrozen(ctx context.Context, bookingID uuid.UUID) ([]FrozenSelection, error) {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	var frozen []FrozenSelection
	err := r.db.SelectContext(ctx, &frozen, `
		SELECT `+frozenColumns+` FROM booking_service_snapshots
		WHERE booking_id = $1
		ORDER BY service_name, selection_id`, bookingID)
	if err != nil {
		errorhandler.LogDatabaseError(ctx, "selection.ListFrozen", err)
		return nil, apperr.Storage("list frozen selections", err)
	}
	return frozen, nil
}

func (r *repository) ListFrozenForBookings(ctx context.Context, bookingIDs []uuid.UUID) (map[uuid.UUID][]FrozenSelection, error) {
	out := make(map[uuid.UUID][]FrozenSelection, len(bookingIDs))
	if len(bookingIDs) == 0 {
		return out, nil
	}

	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	ids := make([]string, len(bookingIDs))
	for i, id := range bookingIDs {
		ids[i] = id.String()
	}

	var frozen []FrozenSelection
	err := r.db.SelectContext(ctx, &frozen, `
		SELECT `+frozenColumns+` FROM booking_service_snapshots
		WHERE booking_id = ANY($1::uuid[])
		ORDER BY booking_id, service_name, selection_id`, pq.Array(ids))
	if err != nil {
		errorhandler.LogDatabaseError(ctx, "selection.ListFrozenForBookings", err)
		return nil, apperr.Storage("list frozen selections", err)
	}

	for _, f := range frozen {
		out[f.BookingID] = append(out[f.BookingID], f)
	}
	return out, nil
}
