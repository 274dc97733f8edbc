package supabase

import (
	"database/sql"
	"time"

	"github.com/google/uuid"

	"github.com/groomly/groomly-api/internal/domain/booking"
	"github.com/groomly/groomly-api/internal/domain/catalog"
	"github.com/groomly/groomly-api/internal/domain/selection"
	"github.com/groomly/groomly-api/internal/domain/slot"
	"github.com/groomly/groomly-api/internal/domain/workflow"
	"github.com/groomly/groomly-api/internal/pkg/validator"
)

// Row types mirror the tables as PostgREST renders them in JSON

type timeSlotRow struct {
	ID        uuid.UUID `json:"id"`
	ShopID    uuid.UUID `json:"shop_id"`
	StartTime string    `json:"start_time"`
	SortOrder int       `json:"sort_order"`
	DayOfWeek *int16    `json:"day_of_week"`
	CreatedAt time.Time `json:"created_at"`
}

func (r timeSlotRow) entity() *slot.TimeSlot {
	ts := &slot.TimeSlot{
		ID:        r.ID,
		ShopID:    r.ShopID,
		StartTime: r.StartTime,
		SortOrder: r.SortOrder,
		CreatedAt: r.CreatedAt,
	}
	if r.DayOfWeek != nil {
		ts.DayOfWeek = sql.NullInt16{Int16: *r.DayOfWeek, Valid: true}
	}
	return ts
}

func timeSlotRowFrom(ts *slot.TimeSlot) timeSlotRow {
	row := timeSlotRow{
		ID:        ts.ID,
		ShopID:    ts.ShopID,
		StartTime: ts.StartTime,
		SortOrder: ts.SortOrder,
		CreatedAt: ts.CreatedAt,
	}
	if ts.DayOfWeek.Valid {
		d := ts.DayOfWeek.Int16
		row.DayOfWeek = &d
	}
	return row
}

type subSlotRow struct {
	ID          uuid.UUID `json:"id"`
	TimeSlotID  uuid.UUID `json:"time_slot_id"`
	SlotNumber  int       `json:"slot_number"`
	Description *string   `json:"description"`
	CreatedAt   time.Time `json:"created_at"`
}

func subSlotRowFrom(sub *slot.SubTimeSlot) subSlotRow {
	return subSlotRow{
		ID:          sub.ID,
		TimeSlotID:  sub.TimeSlotID,
		SlotNumber:  sub.SlotNumber,
		Description: strPtr(sub.Description),
		CreatedAt:   sub.CreatedAt,
	}
}

func configured(ts timeSlotRow, sub subSlotRow) slot.ConfiguredSlot {
	t := ts.entity()
	return slot.ConfiguredSlot{
		SubTimeSlotID: sub.ID,
		TimeSlotID:    t.ID,
		ShopID:        t.ShopID,
		StartTime:     t.StartTime,
		SortOrder:     t.SortOrder,
		DayOfWeek:     t.DayOfWeek,
		SlotNumber:    sub.SlotNumber,
		Description:   nullStr(sub.Description),
	}
}

type serviceRow struct {
	ID        uuid.UUID           `json:"id"`
	Name      string              `json:"name"`
	Price     float64             `json:"price"`
	Type      catalog.ServiceType `json:"type"`
	IsActive  bool                `json:"is_active"`
	CreatedAt time.Time           `json:"created_at"`
	UpdatedAt time.Time           `json:"updated_at"`
}

func (r serviceRow) entity() *catalog.ServiceEntry {
	e := catalog.ServiceEntry(r)
	return &e
}

type bookingRow struct {
	ID            uuid.UUID      `json:"id"`
	ShopID        uuid.UUID      `json:"shop_id"`
	CustomerName  string         `json:"customer_name"`
	ContactNumber string         `json:"contact_number"`
	DogName       string         `json:"dog_name"`
	DogBreed      string         `json:"dog_breed"`
	BookingDate   string         `json:"booking_date"`
	SlotTime      *string        `json:"slot_time"`
	SubTimeSlotID *uuid.UUID     `json:"sub_time_slot_id"`
	Status        booking.Status `json:"status"`
	Notes         *string        `json:"notes"`
	CreatedBy     *uuid.UUID     `json:"created_by"`
	CreatedAt     time.Time      `json:"created_at"`
	UpdatedAt     time.Time      `json:"updated_at"`
	StartedAt     *time.Time     `json:"started_at"`
	CompletedAt   *time.Time     `json:"completed_at"`
	CancelledAt   *time.Time     `json:"cancelled_at"`
}

func bookingRowFrom(b *booking.Booking) bookingRow {
	return bookingRow{
		ID:            b.ID,
		ShopID:        b.ShopID,
		CustomerName:  b.CustomerName,
		ContactNumber: b.ContactNumber,
		DogName:       b.DogName,
		DogBreed:      b.DogBreed,
		BookingDate:   b.BookingDate.Format(validator.DateLayout),
		SlotTime:      strPtr(b.SlotTime),
		SubTimeSlotID: uuidPtr(b.SubTimeSlotID),
		Status:        b.Status,
		Notes:         strPtr(b.Notes),
		CreatedBy:     uuidPtr(b.CreatedBy),
		CreatedAt:     b.CreatedAt,
		UpdatedAt:     b.UpdatedAt,
		StartedAt:     timePtr(b.StartedAt),
		CompletedAt:   timePtr(b.CompletedAt),
		CancelledAt:   timePtr(b.CancelledAt),
	}
}

func (r bookingRow) entity() (*booking.Booking, error) {
	date, err := validator.ParseDate(r.BookingDate)
	if err != nil {
		return nil, err
	}
	return &booking.Booking{
		ID:            r.ID,
		ShopID:        r.ShopID,
		CustomerName:  r.CustomerName,
		ContactNumber: r.ContactNumber,
		DogName:       r.DogName,
		DogBreed:      r.DogBreed,
		BookingDate:   date,
		SlotTime:      nullStr(r.SlotTime),
		SubTimeSlotID: nullUUID(r.SubTimeSlotID),
		Status:        r.Status,
		Notes:         nullStr(r.Notes),
		CreatedBy:     nullUUID(r.CreatedBy),
		CreatedAt:     r.CreatedAt,
		UpdatedAt:     r.UpdatedAt,
		StartedAt:     nullTime(r.StartedAt),
		CompletedAt:   nullTime(r.CompletedAt),
		CancelledAt:   nullTime(r.CancelledAt),
	}, nil
}

func bookingEntities(rows []bookingRow) ([]*booking.Booking, error) {
	out := make([]*booking.Booking, 0, len(rows))
	for _, row := range rows {
		b, err := row.entity()
		if err != nil {
			return nil, err
		}
		out = append(out, b)
	}
	return out, nil
}

type selectionRow struct {
	ID         uuid.UUID `json:"id"`
	BookingID  uuid.UUID `json:"booking_id"`
	ServiceID  uuid.UUID `json:"service_id"`
	InputValue *string   `json:"input_value"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

func selectionRowFrom(sel *selection.SelectedService) selectionRow {
	return selectionRow{
		ID:         sel.ID,
		BookingID:  sel.BookingID,
		ServiceID:  sel.ServiceID,
		InputValue: strPtr(sel.InputValue),
		CreatedAt:  sel.CreatedAt,
		UpdatedAt:  sel.UpdatedAt,
	}
}

func (r selectionRow) entity() *selection.SelectedService {
	return &selection.SelectedService{
		ID:         r.ID,
		BookingID:  r.BookingID,
		ServiceID:  r.ServiceID,
		InputValue: nullStr(r.InputValue),
		CreatedAt:  r.CreatedAt,
		UpdatedAt:  r.UpdatedAt,
	}
}

type snapshotRow struct {
	ID          uuid.UUID           `json:"id"`
	BookingID   uuid.UUID           `json:"booking_id"`
	SelectionID uuid.UUID           `json:"selection_id"`
	ServiceID   uuid.UUID           `json:"service_id"`
	ServiceName string              `json:"service_name"`
	ServiceType catalog.ServiceType `json:"service_type"`
	Price       float64             `json:"price"`
	InputValue  *string             `json:"input_value"`
	FrozenAt    time.Time           `json:"frozen_at"`
}

func snapshotRowFrom(f selection.FrozenSelection) snapshotRow {
	return snapshotRow{
		ID:          f.ID,
		BookingID:   f.BookingID,
		SelectionID: f.SelectionID,
		ServiceID:   f.ServiceID,
		ServiceName: f.ServiceName,
		ServiceType: f.ServiceType,
		Price:       f.Price,
		InputValue:  strPtr(f.InputValue),
		FrozenAt:    f.FrozenAt,
	}
}

func (r snapshotRow) entity() selection.FrozenSelection {
	return selection.FrozenSelection{
		ID:          r.ID,
		BookingID:   r.BookingID,
		SelectionID: r.SelectionID,
		ServiceID:   r.ServiceID,
		ServiceName: r.ServiceName,
		ServiceType: r.ServiceType,
		Price:       r.Price,
		InputValue:  nullStr(r.InputValue),
		FrozenAt:    r.FrozenAt,
	}
}

type feedbackRow struct {
	ID        uuid.UUID  `json:"id"`
	BookingID uuid.UUID  `json:"booking_id"`
	Rating    *int16     `json:"rating"`
	Comment   *string    `json:"comment"`
	CreatedBy *uuid.UUID `json:"created_by"`
	CreatedAt time.Time  `json:"created_at"`
}

func feedbackRowFrom(f *workflow.Feedback) feedbackRow {
	row := feedbackRow{
		ID:        f.ID,
		BookingID: f.BookingID,
		Comment:   strPtr(f.Comment),
		CreatedBy: uuidPtr(f.CreatedBy),
		CreatedAt: f.CreatedAt,
	}
	if f.Rating.Valid {
		r := f.Rating.Int16
		row.Rating = &r
	}
	return row
}

func (r feedbackRow) entity() *workflow.Feedback {
	f := &workflow.Feedback{
		ID:        r.ID,
		BookingID: r.BookingID,
		Comment:   nullStr(r.Comment),
		CreatedBy: nullUUID(r.CreatedBy),
		CreatedAt: r.CreatedAt,
	}
	if r.Rating != nil {
		f.Rating = sql.NullInt16{Int16: *r.Rating, Valid: true}
	}
	return f
}

func strPtr(n sql.NullString) *string {
	if !n.Valid {
		return nil
	}
	return &n.String
}

func nullStr(p *string) sql.NullString {
	if p == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: *p, Valid: true}
}

func uuidPtr(n uuid.NullUUID) *uuid.UUID {
	if !n.Valid {
		return nil
	}
	return &n.UUID
}

func nullUUID(p *uuid.UUID) uuid.NullUUID {
	if p == nil {
		return uuid.NullUUID{}
	}
	return uuid.NullUUID{UUID: *p, Valid: true}
}

func timePtr(n sql.NullTime) *time.Time {
	if !n.Valid {
		return nil
	}
	return &n.Time
}

func nullTime(p *time.Time) sql.NullTime {
	if p == nil {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: *p, Valid: true}
}

func uuidStrings(ids []uuid.UUID) []string {
	out := make([]string, len(ids))
	for i, id := range ids {
		out[i] = id.String()
	}
	return out
}
