package selection

import (
	"database/sql"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/groomly/groomly-api/internal/domain/catalog"
)

// SelectedService attaches a catalog service to a booking. InputValue holds
// the care tip or measurement note for input services.
type SelectedService struct {
	ID         uuid.UUID      `db:"id"`
	BookingID  uuid.UUID      `db:"booking_id"`
	ServiceID  uuid.UUID      `db:"service_id"`
	InputValue sql.NullString `db:"input_value"`
	CreatedAt  time.Time      `db:"created_at"`
	UpdatedAt  time.Time      `db:"updated_at"`
}

// FrozenSelection is a selection as it stood when its booking completed.
// Name, type and price are copied so later catalog edits do not leak in.
type FrozenSelection struct {
	ID          uuid.UUID           `db:"id"`
	BookingID   uuid.UUID           `db:"booking_id"`
	SelectionID uuid.UUID           `db:"selection_id"`
	ServiceID   uuid.UUID           `db:"service_id"`
	ServiceName string              `db:"service_name"`
	ServiceType catalog.ServiceType `db:"service_type"`
	Price       float64             `db:"price"`
	InputValue  sql.NullString      `db:"input_value"`
	FrozenAt    time.Time           `db:"frozen_at"`
}

// SelectionView is a selection joined with its catalog name and price
type SelectionView struct {
	ID          uuid.UUID           `db:"id"`
	BookingID   uuid.UUID           `db:"booking_id"`
	ServiceID   uuid.UUID           `db:"service_id"`
	ServiceName string              `db:"service_name"`
	ServiceType catalog.ServiceType `db:"service_type"`
	Price       float64             `db:"price"`
	InputValue  sql.NullString      `db:"input_value"`
	CreatedAt   time.Time           `db:"created_at"`
	Frozen      bool                `db:"frozen"`
}

// Join builds the live view of a selection
func Join(sel *SelectedService, entry *catalog.ServiceEntry) SelectionView {
	return SelectionView{
		ID:          sel.ID,
		BookingID:   sel.BookingID,
		ServiceID:   sel.ServiceID,
		ServiceName: entry.Name,
		ServiceType: entry.Type,
		Price:       entry.Price,
		InputValue:  sel.InputValue,
		CreatedAt:   sel.CreatedAt,
	}
}

// View presents a frozen selection in the same shape as a live one
func (f FrozenSelection) View() SelectionView {
	return SelectionView{
		ID:          f.SelectionID,
		BookingID:   f.BookingID,
		ServiceID:   f.ServiceID,
		ServiceName: f.ServiceName,
		ServiceType: f.ServiceType,
		Price:       f.Price,
		InputValue:  f.InputValue,
		CreatedAt:   f.FrozenAt,
		Frozen:      true,
	}
}

// Freeze snapshots live views. Every snapshot gets a fresh id.
func Freeze(live []SelectionView, at time.Time) []FrozenSelection {
	out := make([]FrozenSelection, len(live))
	for i, v := range live {
		out[i] = FrozenSelection{
			ID:          uuid.New(),
			BookingID:   v.BookingID,
			SelectionID: v.ID,
			ServiceID:   v.ServiceID,
			ServiceName: v.ServiceName,
			ServiceType: v.ServiceType,
			Price:       v.Price,
			InputValue:  v.InputValue,
			FrozenAt:    at,
		}
	}
	return out
}

// FrozenViews converts snapshots to views
func FrozenViews(frozen []FrozenSelection) []SelectionView {
	out := make([]SelectionView, len(frozen))
	for i, f := range frozen {
		out[i] = f.View()
	}
	return out
}

// Total sums the prices of the given selections
func Total(views []SelectionView) float64 {
	var total float64
	for _, v := range views {
		total += v.Price
	}
	return total
}

// SortViews orders selections by service name, then id
func SortViews(views []SelectionView) {
	sort.SliceStable(views, func(i, j int) bool {
		if views[i].ServiceName != views[j].ServiceName {
			return views[i].ServiceName < views[j].ServiceName
		}
		return views[i].ID.String() < views[j].ID.String()
	})
}
