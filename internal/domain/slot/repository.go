package slot

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/groomly/groomly-api/internal/pkg/apperr"
	"github.com/groomly/groomly-api/internal/pkg/errorhandler"
)

const queryTimeout = 5 * time.Second

// Repository defines slot catalog data access
type Repository interface {
	ListAvailability(ctx context.Context, shopID uuid.UUID, date time.Time) ([]Availability, error)
	GetSubSlot(ctx context.Context, id uuid.UUID) (*ConfiguredSlot, error)
	ListConfigured(ctx context.Context, shopID uuid.UUID) ([]ConfiguredSlot, error)
	GetTimeSlot(ctx context.Context, id uuid.UUID) (*TimeSlot, error)
	CreateTimeSlot(ctx context.Context, ts *TimeSlot) error
	CreateSubSlot(ctx context.Context, sub *SubTimeSlot) error
	// DeleteSubSlot removes the sub-slot and unschedules bookings that
	// referenced it. Bookings themselves are kept.
	DeleteSubSlot(ctx context.Context, id uuid.UUID) error
}

type repository struct {
	db *sqlx.DB
}

// NewRepository creates a PostgreSQL slot repository
func NewRepository(db *sqlx.DB) Repository {
	return &repository{db: db}
}

const configuredColumns = `
	sts.id AS sub_time_slot_id, ts.id AS time_slot_id, ts.shop_id, ts.start_time,
	ts.sort_order, ts.day_of_week, sts.slot_number, sts.description
`

func (r *repository) ListAvailability(ctx context.Context, shopID uuid.UUID, date time.Time) ([]Availability, error) {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	query := `
		SELECT sts.id AS sub_time_slot_id, ts.id AS time_slot_id, ts.start_time, ts.sort_order,
		       sts.slot_number, sts.description,
		       (b.id IS NOT NULL) AS is_occupied, b.id AS booking_id
		FROM time_slots ts
		JOIN sub_time_slots sts ON sts.time_slot_id = ts.id
		LEFT JOIN bookings b
		       ON b.sub_time_slot_id = sts.id
		      AND b.booking_date = $2
		      AND b.status IN ('reserved', 'in_progress')
		WHERE ts.shop_id = $1
		  AND (ts.day_of_week IS NULL OR ts.day_of_week = $3)
		ORDER BY ts.sort_order, ts.start_time, sts.slot_number
	`

	var rows []Availability
	if err := r.db.SelectContext(ctx, &rows, query, shopID, date, int(date.Weekday())); err != nil {
		errorhandler.LogDatabaseError(ctx, "slot.ListAvailability", err, "shop_id", shopID)
		return nil, apperr.Storage("list availability", err)
	}
	return rows, nil
}

func (r *repository) GetSubSlot(ctx context.Context, id uuid.UUID) (*ConfiguredSlot, error) {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	query := `SELECT ` + configuredColumns + `
		FROM sub_time_slots sts
		JOIN time_slots ts ON ts.id = sts.time_slot_id
		WHERE sts.id = $1`

	var c ConfiguredSlot
	if err := r.db.GetContext(ctx, &c, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrSubSlotNotFound
		}
		errorhandler.LogDatabaseError(ctx, "slot.GetSubSlot", err)
		return nil, apperr.Storage("get sub slot", err)
	}
	return &c, nil
}

func (r *repository) ListConfigured(ctx context.Context, shopID uuid.UUID) ([]ConfiguredSlot, error) {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	query := `SELECT ` + configuredColumns + `
		FROM time_slots ts
		JOIN sub_time_slots sts ON sts.time_slot_id = ts.id
		WHERE ts.shop_id = $1
		ORDER BY ts.sort_order, ts.start_time, sts.slot_number`

	var rows []ConfiguredSlot
	if err := r.db.SelectContext(ctx, &rows, query, shopID); err != nil {
		errorhandler.LogDatabaseError(ctx, "slot.ListConfigured", err)
		return nil, apperr.Storage("list configured slots", err)
	}
	return rows, nil
}

func (r *repository) GetTimeSlot(ctx context.Context, id uuid.UUID) (*TimeSlot, error) {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	var ts TimeSlot
	err := r.db.GetContext(ctx, &ts, `
		SELECT id, shop_id, start_time, sort_order, day_of_week, created_at
		FROM time_slots WHERE id = $1`, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrTimeSlotNotFound
		}
		return nil, apperr.Storage("get time slot", err)
	}
	return &ts, nil
}

func (r *repository) CreateTimeSlot(ctx context.Context, ts *TimeSlot) error {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	_, err := r.db.ExecContext(ctx, `
		INSERT INTO time_slots (id, shop_id, start_time, sort_order, day_of_week, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)`,
		ts.ID, ts.ShopID, ts.StartTime, ts.SortOrder, ts.DayOfWeek, ts.CreatedAt)
	if err != nil {
		errorhandler.LogDatabaseError(ctx, "slot.CreateTimeSlot", err)
		return apperr.Storage("create time slot", err)
	}
	return nil
}

func (r *repository) CreateSubSlot(ctx context.Context, sub *SubTimeSlot) error {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	_, err := r.db.ExecContext(ctx, `
		INSERT INTO sub_time_slots (id, time_slot_id, slot_number, description, created_at)
		VALUES ($1, $2, $3, $4, $5)`,
		sub.ID, sub.TimeSlotID, sub.SlotNumber, sub.Description, sub.CreatedAt)
	if err != nil {
		return mapSubSlotError(ctx, err)
	}
	return nil
}

func mapSubSlotError(ctx context.Context, err error) error {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		switch pqErr.Code {
		case "23505":
			return fmt.Errorf("%w: %w", ErrDuplicateSlot, err)
		case "23503":
			return fmt.Errorf("%w: %w", ErrTimeSlotNotFound, err)
		}
		errorhandler.LogDatabaseError(ctx, "slot.CreateSubSlot", err, "pg_code", string(pqErr.Code), "constraint", pqErr.Constraint)
	}
	return apperr.Storage("create sub slot", err)
}

func (r *repository) DeleteSubSlot(ctx context.Context, id uuid.UUID) error {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return apperr.Storage("begin tx", err)
	}
	defer tx.Rollback()

	// ON DELETE SET NULL would leave slot_time behind
	if _, err := tx.ExecContext(ctx, `
		UPDATE bookings
		SET sub_time_slot_id = NULL, slot_time = NULL, updated_at = NOW()
		WHERE sub_time_slot_id = $1`, id); err != nil {
		errorhandler.LogDatabaseError(ctx, "slot.DeleteSubSlot", err, "step", "unschedule")
		return apperr.Storage("unschedule bookings", err)
	}

	result, err := tx.ExecContext(ctx, `DELETE FROM sub_time_slots WHERE id = $1`, id)
	if err != nil {
		errorhandler.LogDatabaseError(ctx, "slot.DeleteSubSlot", err)
		return apperr.Storage("delete sub slot", err)
	}
	if n, _ := result.RowsAffected(); n == 0 {
		return ErrSubSlotNotFound
	}
	if err := tx.Commit(); err != nil {
		return apperr.Storage("commit delete sub slot", err)
	}
	return nil
}
