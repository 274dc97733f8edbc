package memory

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"

	"github.com/groomly/groomly-api/internal/domain/booking"
	"github.com/groomly/groomly-api/internal/domain/catalog"
	"github.com/groomly/groomly-api/internal/domain/selection"
)

type selectionRepo struct{ s *Store }

// writableLocked checks the booking exists and still accepts selection edits
func (s *Store) writableLocked(bookingID uuid.UUID) error {
	b, ok := s.bookings[bookingID]
	if !ok {
		return booking.ErrBookingNotFound
	}
	return selection.GuardWritable(b.Status)
}

func (s *Store) liveLocked(bookingID uuid.UUID) []selection.SelectionView {
	var views []selection.SelectionView
	for _, sel := range s.selections {
		if sel.BookingID != bookingID {
			continue
		}
		entry, ok := s.services[sel.ServiceID]
		if !ok {
			continue
		}
		views = append(views, selection.Join(sel, entry))
	}
	selection.SortViews(views)
	return views
}

func (r selectionRepo) Insert(ctx context.Context, sel *selection.SelectedService) error {
	if err := r.s.lock(ctx); err != nil {
		return err
	}
	defer r.s.mu.Unlock()

	if err := r.s.writableLocked(sel.BookingID); err != nil {
		return err
	}
	if _, ok := r.s.services[sel.ServiceID]; !ok {
		return catalog.ErrServiceNotFound
	}
	for _, other := range r.s.selections {
		if other.BookingID == sel.BookingID && other.ServiceID == sel.ServiceID {
			return selection.ErrAlreadySelected
		}
	}

	cp := *sel
	r.s.selections[sel.ID] = &cp
	return nil
}

func (r selectionRepo) GetByID(ctx context.Context, id uuid.UUID) (*selection.SelectedService, error) {
	if err := r.s.lock(ctx); err != nil {
		return nil, err
	}
	defer r.s.mu.Unlock()

	sel, ok := r.s.selections[id]
	if !ok {
		return nil, selection.ErrSelectionNotFound
	}
	cp := *sel
	return &cp, nil
}

func (r selectionRepo) UpdateNote(ctx context.Context, id uuid.UUID, note sql.NullString, at time.Time) (*selection.SelectedService, error) {
	if err := r.s.lock(ctx); err != nil {
		return nil, err
	}
	defer r.s.mu.Unlock()

	sel, ok := r.s.selections[id]
	if !ok {
		return nil, selection.ErrSelectionNotFound
	}
	if err := r.s.writableLocked(sel.BookingID); err != nil {
		return nil, err
	}

	sel.InputValue = note
	sel.UpdatedAt = at
	cp := *sel
	return &cp, nil
}

func (r selectionRepo) Delete(ctx context.Context, bookingID, serviceID uuid.UUID) error {
	if err := r.s.lock(ctx); err != nil {
		return err
	}
	defer r.s.mu.Unlock()

	if err := r.s.writableLocked(bookingID); err != nil {
		return err
	}
	for id, sel := range r.s.selections {
		if sel.BookingID == bookingID && sel.ServiceID == serviceID {
			delete(r.s.selections, id)
			return nil
		}
	}
	return selection.ErrSelectionNotFound
}

func (r selectionRepo) ListLive(ctx context.Context, bookingID uuid.UUID) ([]selection.SelectionView, error) {
	if err := r.s.lock(ctx); err != nil {
		return nil, err
	}
	defer r.s.mu.Unlock()
	return r.s.liveLocked(bookingID), nil
}

func (r selectionRepo) ListFrozen(ctx context.Context, bookingID uuid.UUID) ([]selection.FrozenSelection, error) {
	if err := r.s.lock(ctx); err != nil {
		return nil, err
	}
	defer r.s.mu.Unlock()
	return append([]selection.FrozenSelection(nil), r.s.snapshots[bookingID]...), nil
}

func (r selectionRepo) ListFrozenForBookings(ctx context.Context, bookingIDs []uuid.UUID) (map[uuid.UUID][]selection.FrozenSelection, error) {
	if err := r.s.lock(ctx); err != nil {
		return nil, err
	}
	defer r.s.mu.Unlock()

	out := make(map[uuid.UUID][]selection.FrozenSelection, len(bookingIDs))
	for _, id := range bookingIDs {
		if frozen, ok := r.s.snapshots[id]; ok {
			out[id] = append([]selection.FrozenSelection(nil), frozen...)
		}
	}
	return out, nil
}
