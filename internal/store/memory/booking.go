package memory

import (
	"context"
	"database/sql"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/groomly/groomly-api/internal/domain/booking"
	"github.com/groomly/groomly-api/internal/domain/slot"
	"github.com/groomly/groomly-api/internal/pkg/validator"
)

type bookingRepo struct{ s *Store }

// slotTakenLocked reports whether another active booking holds (date, sub)
func (s *Store) slotTakenLocked(date time.Time, sub uuid.NullUUID, self uuid.UUID) bool {
	if !sub.Valid {
		return false
	}
	for _, other := range s.bookings {
		if other.ID != self && other.OccupiesSlot(date, sub.UUID) {
			return true
		}
	}
	return false
}

func (r bookingRepo) Create(ctx context.Context, b *booking.Booking) error {
	if err := r.s.lock(ctx); err != nil {
		return err
	}
	defer r.s.mu.Unlock()

	if b.SubTimeSlotID.Valid {
		if _, ok := r.s.subSlots[b.SubTimeSlotID.UUID]; !ok {
			return slot.ErrSubSlotNotFound
		}
	}
	if b.Status.IsActive() && r.s.slotTakenLocked(b.BookingDate, b.SubTimeSlotID, b.ID) {
		return booking.ErrSlotTaken
	}

	cp := *b
	cp.BookingDate = validator.TruncateDate(b.BookingDate)
	r.s.bookings[b.ID] = &cp
	return nil
}

func (r bookingRepo) GetByID(ctx context.Context, id uuid.UUID) (*booking.Booking, error) {
	if err := r.s.lock(ctx); err != nil {
		return nil, err
	}
	defer r.s.mu.Unlock()

	b, ok := r.s.bookings[id]
	if !ok {
		return nil, booking.ErrBookingNotFound
	}
	cp := *b
	return &cp, nil
}

func (r bookingRepo) UpdateSlot(ctx context.Context, id uuid.UUID, date time.Time, slotTime sql.NullString, subSlot uuid.NullUUID, at time.Time) (*booking.Booking, error) {
	if err := r.s.lock(ctx); err != nil {
		return nil, err
	}
	defer r.s.mu.Unlock()

	b, ok := r.s.bookings[id]
	if !ok {
		return nil, booking.ErrBookingNotFound
	}
	if err := booking.GuardOpen(b.Status); err != nil {
		return nil, err
	}
	if subSlot.Valid {
		if _, ok := r.s.subSlots[subSlot.UUID]; !ok {
			return nil, slot.ErrSubSlotNotFound
		}
	}
	if r.s.slotTakenLocked(date, subSlot, id) {
		return nil, booking.ErrSlotTaken
	}

	b.BookingDate = validator.TruncateDate(date)
	b.SlotTime = slotTime
	b.SubTimeSlotID = subSlot
	b.UpdatedAt = at
	cp := *b
	return &cp, nil
}

func (r bookingRepo) TransitionStatus(ctx context.Context, id uuid.UUID, from []booking.Status, to booking.Status, at time.Time) (*booking.Booking, error) {
	if err := r.s.lock(ctx); err != nil {
		return nil, err
	}
	defer r.s.mu.Unlock()

	b, ok := r.s.bookings[id]
	if !ok {
		return nil, booking.ErrBookingNotFound
	}
	if !containsStatus(from, b.Status) {
		return nil, booking.TransitionError(b.Status, to)
	}

	applyTransition(b, to, at)
	cp := *b
	return &cp, nil
}

func containsStatus(list []booking.Status, s booking.Status) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}

func applyTransition(b *booking.Booking, to booking.Status, at time.Time) {
	b.Status = to
	b.UpdatedAt = at
	stamp := sql.NullTime{Time: at, Valid: true}
	switch to {
	case booking.StatusInProgress:
		b.StartedAt = stamp
	case booking.StatusCompleted:
		b.CompletedAt = stamp
	case booking.StatusCancelled:
		b.CancelledAt = stamp
	}
}

func (r bookingRepo) List(ctx context.Context, f booking.ListFilter) ([]*booking.Booking, int, error) {
	if err := r.s.lock(ctx); err != nil {
		return nil, 0, err
	}
	defer r.s.mu.Unlock()

	f.Normalize()

	var matched []*booking.Booking
	for _, b := range r.s.bookings {
		if f.Matches(b) {
			cp := *b
			matched = append(matched, &cp)
		}
	}
	sortBookings(matched)

	total := len(matched)
	start := f.Offset()
	if start > total {
		start = total
	}
	end := start + f.Limit
	if end > total {
		end = total
	}
	return matched[start:end], total, nil
}

// sortBookings orders by date, slot time (unscheduled last), then creation
func sortBookings(list []*booking.Booking) {
	sort.SliceStable(list, func(i, j int) bool {
		a, b := list[i], list[j]
		if !a.BookingDate.Equal(b.BookingDate) {
			return a.BookingDate.Before(b.BookingDate)
		}
		if a.SlotTime.Valid != b.SlotTime.Valid {
			return a.SlotTime.Valid
		}
		if a.SlotTime.String != b.SlotTime.String {
			return a.SlotTime.String < b.SlotTime.String
		}
		return a.CreatedAt.Before(b.CreatedAt)
	})
}

func (r bookingRepo) Delete(ctx context.Context, id uuid.UUID) error {
	if err := r.s.lock(ctx); err != nil {
		return err
	}
	defer r.s.mu.Unlock()

	if _, ok := r.s.bookings[id]; !ok {
		return booking.ErrBookingNotFound
	}

	// Owned rows go with the booking
	for selID, sel := range r.s.selections {
		if sel.BookingID == id {
			delete(r.s.selections, selID)
		}
	}
	delete(r.s.snapshots, id)
	delete(r.s.feedback, id)
	delete(r.s.bookings, id)
	return nil
}

func (r bookingRepo) FindActiveOnSlot(ctx context.Context, date time.Time, subSlotID uuid.UUID) (*booking.Booking, error) {
	if err := r.s.lock(ctx); err != nil {
		return nil, err
	}
	defer r.s.mu.Unlock()

	for _, b := range r.s.bookings {
		if b.OccupiesSlot(date, subSlotID) {
			cp := *b
			return &cp, nil
		}
	}
	return nil, nil
}
