package booking

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/groomly/groomly-api/internal/domain/slot"
	"github.com/groomly/groomly-api/internal/pkg/apperr"
	"github.com/groomly/groomly-api/internal/pkg/errorhandler"
)

const queryTimeout = 5 * time.Second

// Repository defines booking data access. Implementations enforce at most one
// active booking per (booking_date, sub_time_slot_id) at write time and
// return ErrSlotTaken to the loser.
type Repository interface {
	Create(ctx context.Context, b *Booking) error
	GetByID(ctx context.Context, id uuid.UUID) (*Booking, error)
	// UpdateSlot moves an active booking to (date, subSlot). A null subSlot
	// unschedules it.
	UpdateSlot(ctx context.Context, id uuid.UUID, date time.Time, slotTime sql.NullString, subSlot uuid.NullUUID, at time.Time) (*Booking, error)
	// TransitionStatus moves the booking to `to` only if its current status is
	// one of from. Otherwise it returns an ErrInvalidTransition.
	TransitionStatus(ctx context.Context, id uuid.UUID, from []Status, to Status, at time.Time) (*Booking, error)
	List(ctx context.Context, filter ListFilter) ([]*Booking, int, error)
	Delete(ctx context.Context, id uuid.UUID) error
	// FindActiveOnSlot returns the active booking holding (date, subSlot) or nil.
	FindActiveOnSlot(ctx context.Context, date time.Time, subSlotID uuid.UUID) (*Booking, error)
}

type repository struct {
	db *sqlx.DB
}

// NewRepository creates a PostgreSQL booking repository
func NewRepository(db *sqlx.DB) Repository {
	return &repository{db: db}
}

// Columns is the select list shared with packages that read bookings in
// their own transactions.
const Columns = `id, shop_id, customer_name, contact_number, dog_name, dog_breed,
	booking_date, slot_time, sub_time_slot_id, status, notes, created_by,
	created_at, updated_at, started_at, completed_at, cancelled_at`

func (r *repository) Create(ctx context.Context, b *Booking) error {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	_, err := r.db.NamedExecContext(ctx, `
		INSERT INTO bookings (
			id, shop_id, customer_name, contact_number, dog_name, dog_breed,
			booking_date, slot_time, sub_time_slot_id, status, notes, created_by,
			created_at, updated_at
		) VALUES (
			:id, :shop_id, :customer_name, :contact_number, :dog_name, :dog_breed,
			:booking_date, :slot_time, :sub_time_slot_id, :status, :notes, :created_by,
			:created_at, :updated_at
		)`, b)
	if err != nil {
		return mapWriteError(ctx, "booking.Create", err)
	}
	return nil
}

func (r *repository) GetByID(ctx context.Context, id uuid.UUID) (*Booking, error) {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	var b Booking
	if err := r.db.GetContext(ctx, &b, `SELECT `+Columns+` FROM bookings WHERE id = $1`, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrBookingNotFound
		}
		errorhandler.LogDatabaseError(ctx, "booking.GetByID", err, "booking_id", id)
		return nil, apperr.Storage("get booking", err)
	}
	return &b, nil
}

func (r *repository) UpdateSlot(ctx context.Context, id uuid.UUID, date time.Time, slotTime sql.NullString, subSlot uuid.NullUUID, at time.Time) (*Booking, error) {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	var b Booking
	err := r.db.GetContext(ctx, &b, `
		UPDATE bookings
		SET booking_date = $2, slot_time = $3, sub_time_slot_id = $4, updated_at = $5
		WHERE id = $1 AND status IN ('reserved', 'in_progress')
		RETURNING `+Columns,
		id, date, slotTime, subSlot, at)
	if err == nil {
		return &b, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return nil, mapWriteError(ctx, "booking.UpdateSlot", err)
	}

	// Missing or no longer open
	current, err := r.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := GuardOpen(current.Status); err != nil {
		return nil, err
	}
	return nil, apperr.Storage("update booking slot", fmt.Errorf("booking %s changed concurrently", id))
}

func (r *repository) TransitionStatus(ctx context.Context, id uuid.UUID, from []Status, to Status, at time.Time) (*Booking, error) {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	var b Booking
	err := r.db.GetContext(ctx, &b, TransitionQuery(to), id, to, at, StatusStrings(from))
	if err == nil {
		return &b, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return nil, mapWriteError(ctx, "booking.TransitionStatus", err)
	}

	current, err := r.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	return nil, TransitionError(current.Status, to)
}

// TransitionQuery sets status and stamps the matching timestamp column.
// Args: $1 id, $2 status, $3 at, $4 allowed from statuses (StatusStrings).
func TransitionQuery(to Status) string {
	stamp := ""
	switch to {
	case StatusInProgress:
		stamp = ", started_at = $3"
	case StatusCompleted:
		stamp = ", completed_at = $3"
	case StatusCancelled:
		stamp = ", cancelled_at = $3"
	}
	return `UPDATE bookings SET status = $2, updated_at = $3` + stamp + `
		WHERE id = $1 AND status = ANY($4)
		RETURNING ` + Columns
}

// StatusStrings converts statuses into a Postgres text array argument
func StatusStrings(statuses []Status) interface{} {
	out := make([]string, len(statuses))
	for i, s := range statuses {
		out[i] = string(s)
	}
	return pq.Array(out)
}

func (r *repository) List(ctx context.Context, f ListFilter) ([]*Booking, int, error) {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	f.Normalize()

	var (
		conds []string
		args  []interface{}
	)
	add := func(cond string, v interface{}) {
		args = append(args, v)
		conds = append(conds, fmt.Sprintf(cond, len(args)))
	}

	if f.ShopID.Valid {
		add("shop_id = $%d", f.ShopID.UUID)
	}
	if f.Date != nil {
		add("booking_date = $%d", *f.Date)
	}
	if f.From != nil {
		add("booking_date >= $%d", *f.From)
	}
	if f.To != nil {
		add("booking_date <= $%d", *f.To)
	}
	if f.Status != "" {
		add("status = $%d", f.Status)
	}
	if f.SubTimeSlotID.Valid {
		add("sub_time_slot_id = $%d", f.SubTimeSlotID.UUID)
	}
	if f.CompletedFrom != nil {
		add("completed_at >= $%d", *f.CompletedFrom)
	}
	if f.CompletedTo != nil {
		add("completed_at < $%d", *f.CompletedTo)
	}
	if f.CompletedFrom != nil || f.CompletedTo != nil {
		conds = append(conds, "completed_at IS NOT NULL")
	}

	where := ""
	if len(conds) > 0 {
		where = " WHERE " + strings.Join(conds, " AND ")
	}

	var total int
	if err := r.db.GetContext(ctx, &total, `SELECT COUNT(*) FROM bookings`+where, args...); err != nil {
		errorhandler.LogDatabaseError(ctx, "booking.List.count", err)
		return nil, 0, apperr.Storage("count bookings", err)
	}

	query := fmt.Sprintf(`SELECT %s FROM bookings%s
		ORDER BY booking_date, slot_time NULLS LAST, created_at
		LIMIT $%d OFFSET $%d`, Columns, where, len(args)+1, len(args)+2)
	args = append(args, f.Limit, f.Offset())

	var bookings []*Booking
	if err := r.db.SelectContext(ctx, &bookings, query, args...); err != nil {
		errorhandler.LogDatabaseError(ctx, "booking.List", err)
		return nil, 0, apperr.Storage("list bookings", err)
	}
	return bookings, total, nil
}

func (r *repository) Delete(ctx context.Context, id uuid.UUID) error {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	// selected_services, snapshots and feedback cascade
	result, err := r.db.ExecContext(ctx, `DELETE FROM bookings WHERE id = $1`, id)
	if err != nil {
		errorhandler.LogDatabaseError(ctx, "booking.Delete", err, "booking_id", id)
		return apperr.Storage("delete booking", err)
	}
	if n, _ := result.RowsAffected(); n == 0 {
		return ErrBookingNotFound
	}
	return nil
}

func (r *repository) FindActiveOnSlot(ctx context.Context, date time.Time, subSlotID uuid.UUID) (*Booking, error) {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	var b Booking
	err := r.db.GetContext(ctx, &b, `
		SELECT `+Columns+` FROM bookings
		WHERE booking_date = $1 AND sub_time_slot_id = $2 AND status IN ('reserved', 'in_progress')`,
		date, subSlotID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		errorhandler.LogDatabaseError(ctx, "booking.FindActiveOnSlot", err)
		return nil, apperr.Storage("find active booking", err)
	}
	return &b, nil
}

func mapWriteError(ctx context.Context, op string, err error) error {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		switch pqErr.Code {
		case "23505":
			if pqErr.Constraint == "bookings_active_slot_uidx" {
				return fmt.Errorf("%w: %w", ErrSlotTaken, err)
			}
		case "23503":
			return fmt.Errorf("%w: %w", slot.ErrSubSlotNotFound, err)
		}
		errorhandler.LogDatabaseError(ctx, op, err, "pg_code", string(pqErr.Code), "constraint", pqErr.Constraint)
		return apperr.Storage(op, err)
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return err
	}
	errorhandler.LogDatabaseError(ctx, op, err)
	return apperr.Storage(op, err)
}
