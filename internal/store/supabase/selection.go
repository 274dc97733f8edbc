package supabase

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"

	"github.com/groomly/groomly-api/internal/domain/catalog"
	"github.com/groomly/groomly-api/internal/domain/selection"
)

type selectionRepo struct{ s *Store }

func (r selectionRepo) writable(ctx context.Context, bookingID uuid.UUID) error {
	b, err := bookingRepo{r.s}.GetByID(ctx, bookingID)
	if err != nil {
		return err
	}
	return selection.GuardWritable(b.Status)
}

func (r selectionRepo) Insert(ctx context.Context, sel *selection.SelectedService) error {
	release, err := r.s.lockBooking(ctx, "selection.Insert", sel.BookingID)
	if err != nil {
		return err
	}
	defer release()

	if err := r.writable(ctx, sel.BookingID); err != nil {
		return err
	}

	q := r.s.from("selected_services").Insert(selectionRowFrom(sel), false, "", "minimal", "")
	if _, err := run(ctx, "selection.Insert", q, nil); err != nil {
		switch {
		case isUniqueViolation(err):
			return selection.ErrAlreadySelected
		case isForeignKeyViolation(err):
			return catalog.ErrServiceNotFound
		}
		return storageErr(ctx, "insert selection", err)
	}

	// The booking lock only spans one replica when it is in-process. A
	// completion elsewhere may have frozen the booking since the check.
	if err := r.writable(ctx, sel.BookingID); err != nil {
		q := r.s.from("selected_services").Delete("minimal", "").Eq("id", sel.ID.String())
		if _, delErr := run(ctx, "selection.Insert", q, nil); delErr != nil {
			return storageErr(ctx, "revert selection", delErr)
		}
		return err
	}
	return nil
}

func (r selectionRepo) GetByID(ctx context.Context, id uuid.UUID) (*selection.SelectedService, error) {
	var rows []selectionRow
	q := r.s.from("selected_services").Select("*", "", false).Eq("id", id.String())
	if _, err := run(ctx, "selection.GetByID", q, &rows); err != nil {
		return nil, storageErr(ctx, "get selection", err)
	}
	if len(rows) == 0 {
		return nil, selection.ErrSelectionNotFound
	}
	return rows[0].entity(), nil
}

func (r selectionRepo) UpdateNote(ctx context.Context, id uuid.UUID, note sql.NullString, at time.Time) (*selection.SelectedService, error) {
	current, err := r.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	release, err := r.s.lockBooking(ctx, "selection.UpdateNote", current.BookingID)
	if err != nil {
		return nil, err
	}
	defer release()

	if err := r.writable(ctx, current.BookingID); err != nil {
		return nil, err
	}

	patch := map[string]interface{}{
		"input_value": strPtr(note),
		"updated_at":  timestamp(at),
	}
	var rows []selectionRow
	q := r.s.from("selected_services").Update(patch, "representation", "").Eq("id", id.String())
	if _, err := run(ctx, "selection.UpdateNote", q, &rows); err != nil {
		return nil, storageErr(ctx, "update selection note", err)
	}
	if len(rows) == 0 {
		return nil, selection.ErrSelectionNotFound
	}
	return rows[0].entity(), nil
}

func (r selectionRepo) Delete(ctx context.Context, bookingID, serviceID uuid.UUID) error {
	release, err := r.s.lockBooking(ctx, "selection.Delete", bookingID)
	if err != nil {
		return err
	}
	defer release()

	if err := r.writable(ctx, bookingID); err != nil {
		return err
	}

	var rows []selectionRow
	q := r.s.from("selected_services").Delete("representation", "").
		Eq("booking_id", bookingID.String()).
		Eq("service_id", serviceID.String())
	if _, err := run(ctx, "selection.Delete", q, &rows); err != nil {
		return storageErr(ctx, "delete selection", err)
	}
	if len(rows) == 0 {
		return selection.ErrSelectionNotFound
	}
	return nil
}

func (r selectionRepo) ListLive(ctx context.Context, bookingID uuid.UUID) ([]selection.SelectionView, error) {
	var rows []selectionRow
	q := r.s.from("selected_services").Select("*", "", false).Eq("booking_id", bookingID.String())
	if _, err := run(ctx, "selection.ListLive", q, &rows); err != nil {
		return nil, storageErr(ctx, "list selections", err)
	}
	if len(rows) == 0 {
		return nil, nil
	}

	ids := make([]uuid.UUID, 0, len(rows))
	for _, row := range rows {
		ids = append(ids, row.ServiceID)
	}
	var services []serviceRow
	q = r.s.from("service_catalog").Select("*", "", false).In("id", uuidStrings(ids))
	if _, err := run(ctx, "selection.ListLive", q, &services); err != nil {
		return nil, storageErr(ctx, "list selected services", err)
	}
	entries := make(map[uuid.UUID]*catalog.ServiceEntry, len(services))
	for _, svc := range services {
		entries[svc.ID] = svc.entity()
	}

	views := make([]selection.SelectionView, 0, len(rows))
	for _, row := range rows {
		entry, ok := entries[row.ServiceID]
		if !ok {
			continue
		}
		views = append(views, selection.Join(row.entity(), entry))
	}
	selection.SortViews(views)
	return views, nil
}

func (r selectionRepo) ListFrozen(ctx context.Context, bookingID uuid.UUID) ([]selection.FrozenSelection, error) {
	byBooking, err := r.ListFrozenForBookings(ctx, []uuid.UUID{bookingID})
	if err != nil {
		return nil, err
	}
	return byBooking[bookingID], nil
}

func (r selectionRepo) ListFrozenForBookings(ctx context.Context, bookingIDs []uuid.UUID) (map[uuid.UUID][]selection.FrozenSelection, error) {
	out := make(map[uuid.UUID][]selection.FrozenSelection, len(bookingIDs))
	if len(bookingIDs) == 0 {
		return out, nil
	}

	var rows []snapshotRow
	q := r.s.from("booking_service_snapshots").Select("*", "", false).
		In("booking_id", uuidStrings(bookingIDs)).
		Order("service_name", ascending).
		Order("selection_id", ascending)
	if _, err := run(ctx, "selection.ListFrozen", q, &rows); err != nil {
		return nil, storageErr(ctx, "list frozen selections", err)
	}
	for _, row := range rows {
		out[row.BookingID] = append(out[row.BookingID], row.entity())
	}
	return out, nil
}
