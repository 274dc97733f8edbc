package slot

import (
	"database/sql"

	"github.com/google/uuid"
)

// CreateTimeSlotRequest is the body of POST /shops/{shopID}/time-slots
type CreateTimeSlotRequest struct {
	StartTime string `json:"start_time" validate:"required,clock"`
	SortOrder int    `json:"sort_order" validate:"gte=0"`
	DayOfWeek *int   `json:"day_of_week,omitempty" validate:"omitempty,gte=0,lte=6"`
}

// CreateSubSlotRequest is the body of POST /time-slots/{id}/sub-slots
type CreateSubSlotRequest struct {
	SlotNumber  int     `json:"slot_number" validate:"gte=1"`
	Description *string `json:"description,omitempty" validate:"omitempty,max=200"`
}

// AvailabilityResponse represents one sub-slot on a date
type AvailabilityResponse struct {
	SubTimeSlotID uuid.UUID  `json:"sub_time_slot_id"`
	TimeSlotID    uuid.UUID  `json:"time_slot_id"`
	StartTime     string     `json:"start_time"`
	SlotNumber    int        `json:"slot_number"`
	Description   *string    `json:"description,omitempty"`
	IsOccupied    bool       `json:"is_occupied"`
	BookingID     *uuid.UUID `json:"booking_id,omitempty"`
}

func AvailabilityResponseFromEntity(a Availability) AvailabilityResponse {
	resp := AvailabilityResponse{
		SubTimeSlotID: a.SubTimeSlotID,
		TimeSlotID:    a.TimeSlotID,
		StartTime:     a.StartTime,
		SlotNumber:    a.SlotNumber,
		Description:   nullString(a.Description),
		IsOccupied:    a.IsOccupied,
	}
	if a.BookingID.Valid {
		id := a.BookingID.UUID
		resp.BookingID = &id
	}
	return resp
}

// TimeSlotResponse represents a configured time slot
type TimeSlotResponse struct {
	ID        uuid.UUID `json:"id"`
	ShopID    uuid.UUID `json:"shop_id"`
	StartTime string    `json:"start_time"`
	SortOrder int       `json:"sort_order"`
	DayOfWeek *int      `json:"day_of_week,omitempty"`
}

func TimeSlotResponseFromEntity(ts *TimeSlot) TimeSlotResponse {
	resp := TimeSlotResponse{
		ID:        ts.ID,
		ShopID:    ts.ShopID,
		StartTime: ts.StartTime,
		SortOrder: ts.SortOrder,
	}
	if ts.DayOfWeek.Valid {
		d := int(ts.DayOfWeek.Int16)
		resp.DayOfWeek = &d
	}
	return resp
}

// SubSlotResponse represents a configured sub-slot
type SubSlotResponse struct {
	ID          uuid.UUID `json:"id"`
	TimeSlotID  uuid.UUID `json:"time_slot_id"`
	SlotNumber  int       `json:"slot_number"`
	Description *string   `json:"description,omitempty"`
}

func SubSlotResponseFromEntity(s *SubTimeSlot) SubSlotResponse {
	return SubSlotResponse{
		ID:          s.ID,
		TimeSlotID:  s.TimeSlotID,
		SlotNumber:  s.SlotNumber,
		Description: nullString(s.Description),
	}
}

func nullString(ns sql.NullString) *string {
	if !ns.Valid {
		return nil
	}
	s := ns.String
	return &s
}
