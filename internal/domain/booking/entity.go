package booking

import (
	"database/sql"
	"time"

	"github.com/google/uuid"

	"github.com/groomly/groomly-api/internal/pkg/validator"
)

// Status represents booking lifecycle status
type Status string

const (
	StatusReserved   Status = "reserved"
	StatusInProgress Status = "in_progress"
	StatusCompleted  Status = "completed"
	StatusCancelled  Status = "cancelled"
)

// ActiveStatuses count against slot occupancy
var ActiveStatuses = []Status{StatusReserved, StatusInProgress}

// IsActive returns true while the booking holds its slot
func (s Status) IsActive() bool {
	return s == StatusReserved || s == StatusInProgress
}

// IsTerminal returns true for completed and cancelled bookings
func (s Status) IsTerminal() bool {
	return s == StatusCompleted || s == StatusCancelled
}

// CanTransition reports whether from -> to is a legal move:
// reserved -> in_progress -> completed, and {reserved, in_progress} -> cancelled.
// reserved -> completed is a walk-in completion and is gated by the workflow.
func CanTransition(from, to Status) bool {
	switch from {
	case StatusReserved:
		return to == StatusInProgress || to == StatusCancelled || to == StatusCompleted
	case StatusInProgress:
		return to == StatusCompleted || to == StatusCancelled
	}
	return false
}

// Booking is one grooming appointment
type Booking struct {
	ID            uuid.UUID      `db:"id"`
	ShopID        uuid.UUID      `db:"shop_id"`
	CustomerName  string         `db:"customer_name"`
	ContactNumber string         `db:"contact_number"`
	DogName       string         `db:"dog_name"`
	DogBreed      string         `db:"dog_breed"`
	BookingDate   time.Time      `db:"booking_date"`
	SlotTime      sql.NullString `db:"slot_time"`
	SubTimeSlotID uuid.NullUUID  `db:"sub_time_slot_id"`
	Status        Status         `db:"status"`
	Notes         sql.NullString `db:"notes"`
	CreatedBy     uuid.NullUUID  `db:"created_by"`
	CreatedAt     time.Time      `db:"created_at"`
	UpdatedAt     time.Time      `db:"updated_at"`
	StartedAt     sql.NullTime   `db:"started_at"`
	CompletedAt   sql.NullTime   `db:"completed_at"`
	CancelledAt   sql.NullTime   `db:"cancelled_at"`
}

// IsScheduled returns true when the booking holds a sub-slot
func (b *Booking) IsScheduled() bool {
	return b.SubTimeSlotID.Valid
}

// OccupiesSlot returns true if b is an active booking on (date, subSlotID)
func (b *Booking) OccupiesSlot(date time.Time, subSlotID uuid.UUID) bool {
	return b.Status.IsActive() &&
		b.SubTimeSlotID.Valid && b.SubTimeSlotID.UUID == subSlotID &&
		validator.TruncateDate(b.BookingDate).Equal(validator.TruncateDate(date))
}

// SlotKey identifies a (date, sub-slot) claim for locking
func SlotKey(date time.Time, subSlotID uuid.UUID) string {
	return "slot:" + date.Format(validator.DateLayout) + ":" + subSlotID.String()
}

// LockKey identifies one booking for writes that span several statements
func LockKey(id uuid.UUID) string {
	return "booking:" + id.String()
}

// ListFilter narrows a booking listing. Zero values match everything.
type ListFilter struct {
	ShopID        uuid.NullUUID
	Date          *time.Time
	From          *time.Time
	To            *time.Time
	Status        Status
	SubTimeSlotID uuid.NullUUID
	CompletedFrom *time.Time
	CompletedTo   *time.Time
	Page          int
	Limit         int
}

// Normalize applies paging defaults
func (f *ListFilter) Normalize() {
	if f.Page < 1 {
		f.Page = 1
	}
	if f.Limit < 1 {
		f.Limit = 50
	}
	if f.Limit > 500 {
		f.Limit = 500
	}
}

// Offset returns the row offset of the current page
func (f *ListFilter) Offset() int {
	return (f.Page - 1) * f.Limit
}

// Matches applies the filter to a single booking, for drivers that filter in memory.
func (f *ListFilter) Matches(b *Booking) bool {
	if f.ShopID.Valid && b.ShopID != f.ShopID.UUID {
		return false
	}
	date := validator.TruncateDate(b.BookingDate)
	if f.Date != nil && !date.Equal(validator.TruncateDate(*f.Date)) {
		return false
	}
	if f.From != nil && date.Before(validator.TruncateDate(*f.From)) {
		return false
	}
	if f.To != nil && date.After(validator.TruncateDate(*f.To)) {
		return false
	}
	if f.Status != "" && b.Status != f.Status {
		return false
	}
	if f.SubTimeSlotID.Valid && (!b.SubTimeSlotID.Valid || b.SubTimeSlotID.UUID != f.SubTimeSlotID.UUID) {
		return false
	}
	if f.CompletedFrom != nil || f.CompletedTo != nil {
		if !b.CompletedAt.Valid {
			return false
		}
		if f.CompletedFrom != nil && b.CompletedAt.Time.Before(*f.CompletedFrom) {
			return false
		}
		if f.CompletedTo != nil && !b.CompletedAt.Time.Before(*f.CompletedTo) {
			return false
		}
	}
	return true
}
