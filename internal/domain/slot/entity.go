package slot

import (
	"database/sql"
	"sort"
	"time"

	"github.com/google/uuid"
)

// TimeSlot is a coarse opening time of a shop, e.g. 09:00.
type TimeSlot struct {
	ID        uuid.UUID     `db:"id"`
	ShopID    uuid.UUID     `db:"shop_id"`
	StartTime string        `db:"start_time"` // HH:MM
	SortOrder int           `db:"sort_order"`
	DayOfWeek sql.NullInt16 `db:"day_of_week"` // 0 = Sunday; NULL = every day
	CreatedAt time.Time     `db:"created_at"`
}

// SubTimeSlot is a bookable unit inside a TimeSlot (one groomer table, one
// bath). Capacity is one active booking.
type SubTimeSlot struct {
	ID          uuid.UUID      `db:"id"`
	TimeSlotID  uuid.UUID      `db:"time_slot_id"`
	SlotNumber  int            `db:"slot_number"`
	Description sql.NullString `db:"description"`
	CreatedAt   time.Time      `db:"created_at"`
}

// ConfiguredSlot is a sub-slot resolved through its time slot to the shop.
type ConfiguredSlot struct {
	SubTimeSlotID uuid.UUID      `db:"sub_time_slot_id"`
	TimeSlotID    uuid.UUID      `db:"time_slot_id"`
	ShopID        uuid.UUID      `db:"shop_id"`
	StartTime     string         `db:"start_time"`
	SortOrder     int            `db:"sort_order"`
	DayOfWeek     sql.NullInt16  `db:"day_of_week"`
	SlotNumber    int            `db:"slot_number"`
	Description   sql.NullString `db:"description"`
}

// OfferedOn reports whether the slot is offered on the weekday of date.
func (c *ConfiguredSlot) OfferedOn(date time.Time) bool {
	return !c.DayOfWeek.Valid || int(c.DayOfWeek.Int16) == int(date.Weekday())
}

// Availability is one row of the availability listing for a date.
type Availability struct {
	SubTimeSlotID uuid.UUID      `db:"sub_time_slot_id"`
	TimeSlotID    uuid.UUID      `db:"time_slot_id"`
	StartTime     string         `db:"start_time"`
	SortOrder     int            `db:"sort_order"`
	SlotNumber    int            `db:"slot_number"`
	Description   sql.NullString `db:"description"`
	IsOccupied    bool           `db:"is_occupied"`
	BookingID     uuid.NullUUID  `db:"booking_id"`
}

// SortConfigured orders slots by (sort_order, start_time, slot_number).
func SortConfigured(slots []ConfiguredSlot) {
	sort.SliceStable(slots, func(i, j int) bool {
		a, b := slots[i], slots[j]
		if a.SortOrder != b.SortOrder {
			return a.SortOrder < b.SortOrder
		}
		if a.StartTime != b.StartTime {
			return a.StartTime < b.StartTime
		}
		return a.SlotNumber < b.SlotNumber
	})
}

// JoinOccupancy left-joins configured slots against the active bookings of a
// date, given as sub-slot id -> booking id. Slots not offered on the date's
// weekday are dropped. Used by drivers that cannot join server side.
func JoinOccupancy(configured []ConfiguredSlot, date time.Time, occupied map[uuid.UUID]uuid.UUID) []Availability {
	offered := make([]ConfiguredSlot, 0, len(configured))
	for _, c := range configured {
		if c.OfferedOn(date) {
			offered = append(offered, c)
		}
	}
	SortConfigured(offered)

	out := make([]Availability, 0, len(offered))
	for _, c := range offered {
		a := Availability{
			SubTimeSlotID: c.SubTimeSlotID,
			TimeSlotID:    c.TimeSlotID,
			StartTime:     c.StartTime,
			SortOrder:     c.SortOrder,
			SlotNumber:    c.SlotNumber,
			Description:   c.Description,
		}
		if bookingID, ok := occupied[c.SubTimeSlotID]; ok {
			a.IsOccupied = true
			a.BookingID = uuid.NullUUID{UUID: bookingID, Valid: true}
		}
		out = append(out, a)
	}
	return out
}
