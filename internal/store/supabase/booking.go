package supabase

import (
	"context"
	"database/sql"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/supabase-community/postgrest-go"

	"github.com/groomly/groomly-api/internal/domain/booking"
	"github.com/groomly/groomly-api/internal/domain/slot"
	"github.com/groomly/groomly-api/internal/pkg/apperr"
	"github.com/groomly/groomly-api/internal/pkg/validator"
)

type bookingRepo struct{ s *Store }

func mapBookingWrite(ctx context.Context, op string, err error) error {
	switch {
	case isUniqueViolation(err) && strings.Contains(err.Error(), "bookings_active_slot_uidx"):
		return booking.ErrSlotTaken
	case isForeignKeyViolation(err):
		return slot.ErrSubSlotNotFound
	}
	return storageErr(ctx, op, err)
}

func timestamp(t time.Time) string {
	return t.UTC().Format(time.RFC3339Nano)
}

func (r bookingRepo) Create(ctx context.Context, b *booking.Booking) error {
	row := bookingRowFrom(b)
	q := r.s.from("bookings").Insert(row, false, "", "minimal", "")
	if _, err := run(ctx, "booking.Create", q, nil); err != nil {
		return mapBookingWrite(ctx, "create booking", err)
	}
	b.BookingDate = validator.TruncateDate(b.BookingDate)
	return nil
}

func (r bookingRepo) GetByID(ctx context.Context, id uuid.UUID) (*booking.Booking, error) {
	var rows []bookingRow
	q := r.s.from("bookings").Select("*", "", false).Eq("id", id.String())
	if _, err := run(ctx, "booking.GetByID", q, &rows); err != nil {
		return nil, storageErr(ctx, "get booking", err)
	}
	if len(rows) == 0 {
		return nil, booking.ErrBookingNotFound
	}
	b, err := rows[0].entity()
	if err != nil {
		return nil, apperr.Storage("decode booking", err)
	}
	return b, nil
}

// updateOpen applies patch while the booking is still in one of from. An
// empty result means the status moved underneath us; the current row is
// re-read to report why.
func (r bookingRepo) updateOpen(ctx context.Context, op string, id uuid.UUID, from []booking.Status, patch map[string]interface{}) (*booking.Booking, bool, error) {
	var rows []bookingRow
	q := r.s.from("bookings").Update(patch, "representation", "").
		Eq("id", id.String()).
		In("status", statusStrings(from))
	if _, err := run(ctx, op, q, &rows); err != nil {
		return nil, false, mapBookingWrite(ctx, op, err)
	}
	if len(rows) == 0 {
		return nil, false, nil
	}
	b, err := rows[0].entity()
	if err != nil {
		return nil, false, apperr.Storage(op, err)
	}
	return b, true, nil
}

func (r bookingRepo) UpdateSlot(ctx context.Context, id uuid.UUID, date time.Time, slotTime sql.NullString, subSlot uuid.NullUUID, at time.Time) (*booking.Booking, error) {
	patch := map[string]interface{}{
		"booking_date":     date.Format(validator.DateLayout),
		"slot_time":        strPtr(slotTime),
		"sub_time_slot_id": uuidPtr(subSlot),
		"updated_at":       timestamp(at),
	}
	open := []booking.Status{booking.StatusReserved, booking.StatusInProgress}
	b, ok, err := r.updateOpen(ctx, "booking.UpdateSlot", id, open, patch)
	if err != nil || ok {
		return b, err
	}

	current, err := r.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := booking.GuardOpen(current.Status); err != nil {
		return nil, err
	}
	return nil, apperr.Storage("update booking slot", errConcurrentUpdate)
}

func transitionPatch(to booking.Status, at time.Time) map[string]interface{} {
	patch := map[string]interface{}{
		"status":     string(to),
		"updated_at": timestamp(at),
	}
	switch to {
	case booking.StatusInProgress:
		patch["started_at"] = timestamp(at)
	case booking.StatusCompleted:
		patch["completed_at"] = timestamp(at)
	case booking.StatusCancelled:
		patch["cancelled_at"] = timestamp(at)
	}
	return patch
}

func (r bookingRepo) TransitionStatus(ctx context.Context, id uuid.UUID, from []booking.Status, to booking.Status, at time.Time) (*booking.Booking, error) {
	b, ok, err := r.updateOpen(ctx, "booking.TransitionStatus", id, from, transitionPatch(to, at))
	if err != nil || ok {
		return b, err
	}
	return nil, r.rejectTransition(ctx, id, to)
}

func (r bookingRepo) rejectTransition(ctx context.Context, id uuid.UUID, to booking.Status) error {
	current, err := r.GetByID(ctx, id)
	if err != nil {
		return err
	}
	return booking.TransitionError(current.Status, to)
}

func (r bookingRepo) List(ctx context.Context, f booking.ListFilter) ([]*booking.Booking, int, error) {
	f.Normalize()

	q := r.s.from("bookings").Select("*", "exact", false)
	if f.ShopID.Valid {
		q = q.Eq("shop_id", f.ShopID.UUID.String())
	}
	if f.Date != nil {
		q = q.Eq("booking_date", f.Date.Format(validator.DateLayout))
	}
	if f.From != nil {
		q = q.Gte("booking_date", f.From.Format(validator.DateLayout))
	}
	if f.To != nil {
		q = q.Lte("booking_date", f.To.Format(validator.DateLayout))
	}
	if f.Status != "" {
		q = q.Eq("status", string(f.Status))
	}
	if f.SubTimeSlotID.Valid {
		q = q.Eq("sub_time_slot_id", f.SubTimeSlotID.UUID.String())
	}
	if f.CompletedFrom != nil {
		q = q.Gte("completed_at", timestamp(*f.CompletedFrom))
	}
	if f.CompletedTo != nil {
		q = q.Lt("completed_at", timestamp(*f.CompletedTo))
	}
	q = q.Order("booking_date", ascending).
		Order("slot_time", &postgrest.OrderOpts{Ascending: true, NullsFirst: false}).
		Order("created_at", ascending).
		Range(f.Offset(), f.Offset()+f.Limit-1, "")

	var rows []bookingRow
	total, err := run(ctx, "booking.List", q, &rows)
	if err != nil {
		return nil, 0, storageErr(ctx, "list bookings", err)
	}
	list, err := bookingEntities(rows)
	if err != nil {
		return nil, 0, apperr.Storage("decode bookings", err)
	}
	return list, int(total), nil
}

// Delete removes owned rows first, the same as the cascading foreign keys
func (r bookingRepo) Delete(ctx context.Context, id uuid.UUID) error {
	if _, err := r.GetByID(ctx, id); err != nil {
		return err
	}

	for _, table := range []string{"selected_services", "booking_service_snapshots", "booking_feedback"} {
		q := r.s.from(table).Delete("minimal", "").Eq("booking_id", id.String())
		if _, err := run(ctx, "booking.Delete", q, nil); err != nil {
			return storageErr(ctx, "delete "+table, err)
		}
	}

	q := r.s.from("bookings").Delete("minimal", "").Eq("id", id.String())
	if _, err := run(ctx, "booking.Delete", q, nil); err != nil {
		return storageErr(ctx, "delete booking", err)
	}
	return nil
}

func (r bookingRepo) FindActiveOnSlot(ctx context.Context, date time.Time, subSlotID uuid.UUID) (*booking.Booking, error) {
	var rows []bookingRow
	q := r.s.from("bookings").Select("*", "", false).
		Eq("booking_date", date.Format(validator.DateLayout)).
		Eq("sub_time_slot_id", subSlotID.String()).
		In("status", statusStrings(booking.ActiveStatuses)).
		Limit(1, "")
	if _, err := run(ctx, "booking.FindActiveOnSlot", q, &rows); err != nil {
		return nil, storageErr(ctx, "find slot holder", err)
	}
	if len(rows) == 0 {
		return nil, nil
	}
	b, err := rows[0].entity()
	if err != nil {
		return nil, apperr.Storage("decode booking", err)
	}
	return b, nil
}
