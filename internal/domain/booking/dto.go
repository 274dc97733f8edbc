package booking

import (
	"database/sql"
	"time"

	"github.com/google/uuid"

	"github.com/groomly/groomly-api/internal/pkg/validator"
)

// CreateBookingRequest is the body of POST /bookings
type CreateBookingRequest struct {
	ShopID        *uuid.UUID `json:"shop_id,omitempty"`
	CustomerName  string     `json:"customer_name" validate:"required,notblank,max=120"`
	ContactNumber string     `json:"contact_number" validate:"required,notblank,max=32"`
	DogName       string     `json:"dog_name" validate:"required,notblank,max=80"`
	DogBreed      string     `json:"dog_breed" validate:"max=80"`
	BookingDate   string     `json:"booking_date" validate:"required,date"`
	SubTimeSlotID *uuid.UUID `json:"sub_time_slot_id,omitempty"`
	Notes         *string    `json:"notes,omitempty" validate:"omitempty,max=2000"`
}

// RescheduleRequest is the body of PATCH /bookings/{id}/slot.
// A null sub_time_slot_id unschedules the booking.
type RescheduleRequest struct {
	SubTimeSlotID *uuid.UUID `json:"sub_time_slot_id"`
	BookingDate   *string    `json:"booking_date,omitempty" validate:"omitempty,date"`
}

// ListQuery holds GET /bookings query parameters
type ListQuery struct {
	ShopID string `validate:"omitempty,uuid"`
	Date   string `validate:"omitempty,date"`
	From   string `validate:"omitempty,date"`
	To     string `validate:"omitempty,date"`
	Status string `validate:"omitempty,booking_status"`
	Page   int    `validate:"gte=0"`
	Limit  int    `validate:"gte=0,lte=500"`
}

// Filter converts validated query parameters into a ListFilter
func (q ListQuery) Filter() ListFilter {
	f := ListFilter{Status: Status(q.Status), Page: q.Page, Limit: q.Limit}
	if id, err := uuid.Parse(q.ShopID); err == nil {
		f.ShopID = uuid.NullUUID{UUID: id, Valid: true}
	}
	f.Date = parseOptionalDate(q.Date)
	f.From = parseOptionalDate(q.From)
	f.To = parseOptionalDate(q.To)
	return f
}

func parseOptionalDate(s string) *time.Time {
	if s == "" {
		return nil
	}
	t, err := validator.ParseDate(s)
	if err != nil {
		return nil
	}
	return &t
}

// BookingResponse represents a booking in API responses
type BookingResponse struct {
	ID            uuid.UUID  `json:"id"`
	ShopID        uuid.UUID  `json:"shop_id"`
	CustomerName  string     `json:"customer_name"`
	ContactNumber string     `json:"contact_number"`
	DogName       string     `json:"dog_name"`
	DogBreed      string     `json:"dog_breed"`
	BookingDate   string     `json:"booking_date"`
	SlotTime      *string    `json:"slot_time,omitempty"`
	SubTimeSlotID *uuid.UUID `json:"sub_time_slot_id,omitempty"`
	Status        Status     `json:"status"`
	Notes         *string    `json:"notes,omitempty"`
	CreatedBy     *uuid.UUID `json:"created_by,omitempty"`
	CreatedAt     time.Time  `json:"created_at"`
	UpdatedAt     time.Time  `json:"updated_at"`
	StartedAt     *time.Time `json:"started_at,omitempty"`
	CompletedAt   *time.Time `json:"completed_at,omitempty"`
	CancelledAt   *time.Time `json:"cancelled_at,omitempty"`
}

// ResponseFromEntity converts a booking to its API shape
func ResponseFromEntity(b *Booking) BookingResponse {
	return BookingResponse{
		ID:            b.ID,
		ShopID:        b.ShopID,
		CustomerName:  b.CustomerName,
		ContactNumber: b.ContactNumber,
		DogName:       b.DogName,
		DogBreed:      b.DogBreed,
		BookingDate:   b.BookingDate.Format(validator.DateLayout),
		SlotTime:      nullString(b.SlotTime),
		SubTimeSlotID: nullUUID(b.SubTimeSlotID),
		Status:        b.Status,
		Notes:         nullString(b.Notes),
		CreatedBy:     nullUUID(b.CreatedBy),
		CreatedAt:     b.CreatedAt,
		UpdatedAt:     b.UpdatedAt,
		StartedAt:     nullTime(b.StartedAt),
		CompletedAt:   nullTime(b.CompletedAt),
		CancelledAt:   nullTime(b.CancelledAt),
	}
}

func nullString(ns sql.NullString) *string {
	if !ns.Valid {
		return nil
	}
	s := ns.String
	return &s
}

func nullUUID(nu uuid.NullUUID) *uuid.UUID {
	if !nu.Valid {
		return nil
	}
	id := nu.UUID
	return &id
}

func nullTime(nt sql.NullTime) *time.Time {
	if !nt.Valid {
		return nil
	}
	t := nt.Time
	return &t
}
