package supabase

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/groomly/groomly-api/internal/domain/booking"
	"github.com/groomly/groomly-api/internal/domain/slot"
	"github.com/groomly/groomly-api/internal/pkg/validator"
)

type slotRepo struct{ s *Store }

func (r slotRepo) configured(ctx context.Context, shopID uuid.UUID) ([]slot.ConfiguredSlot, error) {
	var times []timeSlotRow
	q := r.s.from("time_slots").Select("*", "", false).Eq("shop_id", shopID.String())
	if _, err := run(ctx, "slot.ListConfigured", q, &times); err != nil {
		return nil, storageErr(ctx, "list time slots", err)
	}
	if len(times) == 0 {
		return nil, nil
	}

	byID := make(map[uuid.UUID]timeSlotRow, len(times))
	ids := make([]uuid.UUID, 0, len(times))
	for _, ts := range times {
		byID[ts.ID] = ts
		ids = append(ids, ts.ID)
	}

	var subs []subSlotRow
	q = r.s.from("sub_time_slots").Select("*", "", false).In("time_slot_id", uuidStrings(ids))
	if _, err := run(ctx, "slot.ListConfigured", q, &subs); err != nil {
		return nil, storageErr(ctx, "list sub slots", err)
	}

	out := make([]slot.ConfiguredSlot, 0, len(subs))
	for _, sub := range subs {
		out = append(out, configured(byID[sub.TimeSlotID], sub))
	}
	slot.SortConfigured(out)
	return out, nil
}

func (r slotRepo) ListAvailability(ctx context.Context, shopID uuid.UUID, date time.Time) ([]slot.Availability, error) {
	configuredSlots, err := r.configured(ctx, shopID)
	if err != nil {
		return nil, err
	}

	occupied := make(map[uuid.UUID]uuid.UUID)
	if len(configuredSlots) > 0 {
		var rows []bookingRow
		q := r.s.from("bookings").Select("id,sub_time_slot_id", "", false).
			Eq("shop_id", shopID.String()).
			Eq("booking_date", date.Format(validator.DateLayout)).
			In("status", statusStrings(booking.ActiveStatuses))
		if _, err := run(ctx, "slot.ListAvailability", q, &rows); err != nil {
			return nil, storageErr(ctx, "list occupancy", err)
		}
		for _, row := range rows {
			if row.SubTimeSlotID != nil {
				occupied[*row.SubTimeSlotID] = row.ID
			}
		}
	}
	return slot.JoinOccupancy(configuredSlots, date, occupied), nil
}

func (r slotRepo) GetSubSlot(ctx context.Context, id uuid.UUID) (*slot.ConfiguredSlot, error) {
	var subs []subSlotRow
	q := r.s.from("sub_time_slots").Select("*", "", false).Eq("id", id.String())
	if _, err := run(ctx, "slot.GetSubSlot", q, &subs); err != nil {
		return nil, storageErr(ctx, "get sub slot", err)
	}
	if len(subs) == 0 {
		return nil, slot.ErrSubSlotNotFound
	}

	var times []timeSlotRow
	q = r.s.from("time_slots").Select("*", "", false).Eq("id", subs[0].TimeSlotID.String())
	if _, err := run(ctx, "slot.GetSubSlot", q, &times); err != nil {
		return nil, storageErr(ctx, "get time slot", err)
	}
	if len(times) == 0 {
		return nil, slot.ErrSubSlotNotFound
	}

	c := configured(times[0], subs[0])
	return &c, nil
}

func (r slotRepo) ListConfigured(ctx context.Context, shopID uuid.UUID) ([]slot.ConfiguredSlot, error) {
	return r.configured(ctx, shopID)
}

func (r slotRepo) GetTimeSlot(ctx context.Context, id uuid.UUID) (*slot.TimeSlot, error) {
	var times []timeSlotRow
	q := r.s.from("time_slots").Select("*", "", false).Eq("id", id.String())
	if _, err := run(ctx, "slot.GetTimeSlot", q, &times); err != nil {
		return nil, storageErr(ctx, "get time slot", err)
	}
	if len(times) == 0 {
		return nil, slot.ErrTimeSlotNotFound
	}
	return times[0].entity(), nil
}

func (r slotRepo) CreateTimeSlot(ctx context.Context, ts *slot.TimeSlot) error {
	q := r.s.from("time_slots").Insert(timeSlotRowFrom(ts), false, "", "minimal", "")
	if _, err := run(ctx, "slot.CreateTimeSlot", q, nil); err != nil {
		return storageErr(ctx, "create time slot", err)
	}
	return nil
}

func (r slotRepo) CreateSubSlot(ctx context.Context, sub *slot.SubTimeSlot) error {
	q := r.s.from("sub_time_slots").Insert(subSlotRowFrom(sub), false, "", "minimal", "")
	if _, err := run(ctx, "slot.CreateSubSlot", q, nil); err != nil {
		switch {
		case isUniqueViolation(err):
			return slot.ErrDuplicateSlot
		case isForeignKeyViolation(err):
			return slot.ErrTimeSlotNotFound
		}
		return storageErr(ctx, "create sub slot", err)
	}
	return nil
}

// DeleteSubSlot clears the reference on bookings before deleting, matching
// ON DELETE SET NULL on projects whose schema lacks it.
func (r slotRepo) DeleteSubSlot(ctx context.Context, id uuid.UUID) error {
	if _, err := r.GetSubSlot(ctx, id); err != nil {
		return err
	}

	unset := map[string]interface{}{"sub_time_slot_id": nil, "slot_time": nil}
	q := r.s.from("bookings").Update(unset, "minimal", "").Eq("sub_time_slot_id", id.String())
	if _, err := run(ctx, "slot.DeleteSubSlot", q, nil); err != nil {
		return storageErr(ctx, "unschedule bookings", err)
	}

	q = r.s.from("sub_time_slots").Delete("minimal", "").Eq("id", id.String())
	if _, err := run(ctx, "slot.DeleteSubSlot", q, nil); err != nil {
		return storageErr(ctx, "delete sub slot", err)
	}
	return nil
}
