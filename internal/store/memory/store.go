// Package memory is an in-process storage driver. A single mutex makes every
// multi-row write, such as completing a booking and freezing its selections,
// one unit of work. It backs the test suites and STORAGE_DRIVER=memory.
package memory

import (
	"context"
	"sync"

	"github.com/google/uuid"

	"github.com/groomly/groomly-api/internal/domain/booking"
	"github.com/groomly/groomly-api/internal/domain/catalog"
	"github.com/groomly/groomly-api/internal/domain/selection"
	"github.com/groomly/groomly-api/internal/domain/slot"
	"github.com/groomly/groomly-api/internal/domain/workflow"
)

// Store holds every entity of the scheduler in maps
type Store struct {
	mu sync.Mutex

	timeSlots  map[uuid.UUID]*slot.TimeSlot
	subSlots   map[uuid.UUID]*slot.SubTimeSlot
	services   map[uuid.UUID]*catalog.ServiceEntry
	bookings   map[uuid.UUID]*booking.Booking
	selections map[uuid.UUID]*selection.SelectedService
	snapshots  map[uuid.UUID][]selection.FrozenSelection
	feedback   map[uuid.UUID]*workflow.Feedback

	snapshotErr error
}

// New creates an empty store
func New() *Store {
	return &Store{
		timeSlots:  make(map[uuid.UUID]*slot.TimeSlot),
		subSlots:   make(map[uuid.UUID]*slot.SubTimeSlot),
		services:   make(map[uuid.UUID]*catalog.ServiceEntry),
		bookings:   make(map[uuid.UUID]*booking.Booking),
		selections: make(map[uuid.UUID]*selection.SelectedService),
		snapshots:  make(map[uuid.UUID][]selection.FrozenSelection),
		feedback:   make(map[uuid.UUID]*workflow.Feedback),
	}
}

// FailSnapshotWrites makes the next completions fail while freezing
// selections. Pass nil to restore normal behaviour.
func (s *Store) FailSnapshotWrites(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.snapshotErr = err
}

// Slots returns the slot repository view
func (s *Store) Slots() slot.Repository { return slotRepo{s} }

// Catalog returns the catalog repository view
func (s *Store) Catalog() catalog.Repository { return catalogRepo{s} }

// Bookings returns the booking repository view
func (s *Store) Bookings() booking.Repository { return bookingRepo{s} }

// Selections returns the selection repository view
func (s *Store) Selections() selection.Repository { return selectionRepo{s} }

// Workflow returns the completion and feedback repository view
func (s *Store) Workflow() workflow.Repository { return workflowRepo{s} }

// lock takes the store mutex unless ctx is already done
func (s *Store) lock(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	return nil
}
