package memory

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"

	"github.com/groomly/groomly-api/internal/domain/slot"
)

type slotRepo struct{ s *Store }

func (r slotRepo) configuredLocked(shopID uuid.UUID) []slot.ConfiguredSlot {
	var out []slot.ConfiguredSlot
	for _, sub := range r.s.subSlots {
		ts := r.s.timeSlots[sub.TimeSlotID]
		if ts == nil || ts.ShopID != shopID {
			continue
		}
		out = append(out, configured(ts, sub))
	}
	slot.SortConfigured(out)
	return out
}

func configured(ts *slot.TimeSlot, sub *slot.SubTimeSlot) slot.ConfiguredSlot {
	return slot.ConfiguredSlot{
		SubTimeSlotID: sub.ID,
		TimeSlotID:    ts.ID,
		ShopID:        ts.ShopID,
		StartTime:     ts.StartTime,
		SortOrder:     ts.SortOrder,
		DayOfWeek:     ts.DayOfWeek,
		SlotNumber:    sub.SlotNumber,
		Description:   sub.Description,
	}
}

func (r slotRepo) ListAvailability(ctx context.Context, shopID uuid.UUID, date time.Time) ([]slot.Availability, error) {
	if err := r.s.lock(ctx); err != nil {
		return nil, err
	}
	defer r.s.mu.Unlock()

	occupied := make(map[uuid.UUID]uuid.UUID)
	for _, b := range r.s.bookings {
		if b.SubTimeSlotID.Valid && b.OccupiesSlot(date, b.SubTimeSlotID.UUID) {
			occupied[b.SubTimeSlotID.UUID] = b.ID
		}
	}
	return slot.JoinOccupancy(r.configuredLocked(shopID), date, occupied), nil
}

func (r slotRepo) GetSubSlot(ctx context.Context, id uuid.UUID) (*slot.ConfiguredSlot, error) {
	if err := r.s.lock(ctx); err != nil {
		return nil, err
	}
	defer r.s.mu.Unlock()

	sub, ok := r.s.subSlots[id]
	if !ok {
		return nil, slot.ErrSubSlotNotFound
	}
	ts, ok := r.s.timeSlots[sub.TimeSlotID]
	if !ok {
		return nil, slot.ErrSubSlotNotFound
	}
	c := configured(ts, sub)
	return &c, nil
}

func (r slotRepo) ListConfigured(ctx context.Context, shopID uuid.UUID) ([]slot.ConfiguredSlot, error) {
	if err := r.s.lock(ctx); err != nil {
		return nil, err
	}
	defer r.s.mu.Unlock()
	return r.configuredLocked(shopID), nil
}

func (r slotRepo) GetTimeSlot(ctx context.Context, id uuid.UUID) (*slot.TimeSlot, error) {
	if err := r.s.lock(ctx); err != nil {
		return nil, err
	}
	defer r.s.mu.Unlock()

	ts, ok := r.s.timeSlots[id]
	if !ok {
		return nil, slot.ErrTimeSlotNotFound
	}
	cp := *ts
	return &cp, nil
}

func (r slotRepo) CreateTimeSlot(ctx context.Context, ts *slot.TimeSlot) error {
	if err := r.s.lock(ctx); err != nil {
		return err
	}
	defer r.s.mu.Unlock()

	cp := *ts
	r.s.timeSlots[ts.ID] = &cp
	return nil
}

func (r slotRepo) CreateSubSlot(ctx context.Context, sub *slot.SubTimeSlot) error {
	if err := r.s.lock(ctx); err != nil {
		return err
	}
	defer r.s.mu.Unlock()

	if _, ok := r.s.timeSlots[sub.TimeSlotID]; !ok {
		return slot.ErrTimeSlotNotFound
	}
	for _, other := range r.s.subSlots {
		if other.TimeSlotID == sub.TimeSlotID && other.SlotNumber == sub.SlotNumber {
			return slot.ErrDuplicateSlot
		}
	}

	cp := *sub
	r.s.subSlots[sub.ID] = &cp
	return nil
}

func (r slotRepo) DeleteSubSlot(ctx context.Context, id uuid.UUID) error {
	if err := r.s.lock(ctx); err != nil {
		return err
	}
	defer r.s.mu.Unlock()

	if _, ok := r.s.subSlots[id]; !ok {
		return slot.ErrSubSlotNotFound
	}

	// Unscheduled bookings lose their time as well
	for _, b := range r.s.bookings {
		if b.SubTimeSlotID.Valid && b.SubTimeSlotID.UUID == id {
			b.SubTimeSlotID = uuid.NullUUID{}
			b.SlotTime = sql.NullString{}
		}
	}
	delete(r.s.subSlots, id)
	return nil
}
