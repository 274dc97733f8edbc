package memory

import (
	"database/sql"
	"time"

	"github.com/google/uuid"

	"github.com/groomly/groomly-api/internal/domain/catalog"
	"github.com/groomly/groomly-api/internal/domain/slot"
)

// SeedSubSlot configures a time slot with one sub-slot for a shop and
// returns the sub-slot id. dayOfWeek < 0 means every day.
func (s *Store) SeedSubSlot(shopID uuid.UUID, startTime string, slotNumber, dayOfWeek int) uuid.UUID {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now().UTC()
	ts := &slot.TimeSlot{ID: uuid.New(), ShopID: shopID, StartTime: startTime, CreatedAt: now}
	if dayOfWeek >= 0 {
		ts.DayOfWeek = sql.NullInt16{Int16: int16(dayOfWeek), Valid: true}
	}
	sub := &slot.SubTimeSlot{ID: uuid.New(), TimeSlotID: ts.ID, SlotNumber: slotNumber, CreatedAt: now}

	s.timeSlots[ts.ID] = ts
	s.subSlots[sub.ID] = sub
	return sub.ID
}

// SeedService adds an active catalog entry and returns its id
func (s *Store) SeedService(name string, price float64, t catalog.ServiceType) uuid.UUID {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now().UTC()
	e := &catalog.ServiceEntry{
		ID:        uuid.New(),
		Name:      name,
		Price:     price,
		Type:      t,
		IsActive:  true,
		CreatedAt: now,
		UpdatedAt: now,
	}
	s.services[e.ID] = e
	return e.ID
}
