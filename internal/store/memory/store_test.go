package memory

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/groomly/groomly-api/internal/domain/booking"
	"github.com/groomly/groomly-api/internal/domain/catalog"
	"github.com/groomly/groomly-api/internal/domain/selection"
	"github.com/groomly/groomly-api/internal/pkg/apperr"
)

func newBooking(shopID uuid.UUID, date time.Time, sub uuid.UUID) *booking.Booking {
	now := time.Now().UTC()
	b := &booking.Booking{
		ID:           uuid.New(),
		ShopID:       shopID,
		CustomerName: "Dana",
		DogName:      "Rex",
		BookingDate:  date,
		Status:       booking.StatusReserved,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if sub != uuid.Nil {
		b.SubTimeSlotID = uuid.NullUUID{UUID: sub, Valid: true}
	}
	return b
}

func TestCreateRejectsSecondActiveBookingOnSlot(t *testing.T) {
	ctx := context.Background()
	s := New()
	shop := uuid.New()
	sub := s.SeedSubSlot(shop, "09:00", 1, -1)
	date := time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)

	first := newBooking(shop, date, sub)
	if err := s.Bookings().Create(ctx, first); err != nil {
		t.Fatalf("first create: %v", err)
	}
	if err := s.Bookings().Create(ctx, newBooking(shop, date, sub)); !errors.Is(err, booking.ErrSlotTaken) {
		t.Fatalf("expected ErrSlotTaken, got %v", err)
	}

	// Different date is free
	if err := s.Bookings().Create(ctx, newBooking(shop, date.AddDate(0, 0, 1), sub)); err != nil {
		t.Fatalf("next day create: %v", err)
	}
}

func TestConcurrentCreateHasOneWinner(t *testing.T) {
	ctx := context.Background()
	s := New()
	shop := uuid.New()
	sub := s.SeedSubSlot(shop, "10:00", 1, -1)
	date := time.Date(2024, 5, 2, 0, 0, 0, 0, time.UTC)

	const writers = 25
	var (
		wg   sync.WaitGroup
		mu   sync.Mutex
		wins int
	)
	for i := 0; i < writers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			err := s.Bookings().Create(ctx, newBooking(shop, date, sub))
			if err == nil {
				mu.Lock()
				wins++
				mu.Unlock()
				return
			}
			if !errors.Is(err, apperr.ErrSlotConflict) {
				t.Errorf("unexpected error: %v", err)
			}
		}()
	}
	wg.Wait()

	if wins != 1 {
		t.Fatalf("expected exactly one winner, got %d", wins)
	}
}

func TestDeleteSubSlotUnschedulesBookings(t *testing.T) {
	ctx := context.Background()
	s := New()
	shop := uuid.New()
	sub := s.SeedSubSlot(shop, "11:00", 1, -1)
	b := newBooking(shop, time.Date(2024, 5, 3, 0, 0, 0, 0, time.UTC), sub)
	if err := s.Bookings().Create(ctx, b); err != nil {
		t.Fatalf("create: %v", err)
	}

	if err := s.Slots().DeleteSubSlot(ctx, sub); err != nil {
		t.Fatalf("delete sub slot: %v", err)
	}

	got, err := s.Bookings().GetByID(ctx, b.ID)
	if err != nil {
		t.Fatalf("booking should survive: %v", err)
	}
	if got.SubTimeSlotID.Valid {
		t.Fatalf("expected booking to be unscheduled")
	}
}

func TestCompleteFailureLeavesBookingUnchanged(t *testing.T) {
	ctx := context.Background()
	s := New()
	shop := uuid.New()
	bath := s.SeedService("Bath", 300, catalog.TypeCheckbox)

	b := newBooking(shop, time.Date(2024, 5, 4, 0, 0, 0, 0, time.UTC), uuid.Nil)
	b.Status = booking.StatusInProgress
	if err := s.Bookings().Create(ctx, b); err != nil {
		t.Fatalf("create: %v", err)
	}
	sel := &selection.SelectedService{ID: uuid.New(), BookingID: b.ID, ServiceID: bath}
	if err := s.Selections().Insert(ctx, sel); err != nil {
		t.Fatalf("insert selection: %v", err)
	}

	s.FailSnapshotWrites(errors.New("disk full"))
	_, err := s.Workflow().Complete(ctx, b.ID, []booking.Status{booking.StatusInProgress}, time.Now())
	if !errors.Is(err, apperr.ErrStorage) {
		t.Fatalf("expected storage error, got %v", err)
	}

	got, _ := s.Bookings().GetByID(ctx, b.ID)
	if got.Status != booking.StatusInProgress {
		t.Fatalf("expected status to stay in_progress, got %s", got.Status)
	}
	if frozen, _ := s.Selections().ListFrozen(ctx, b.ID); len(frozen) != 0 {
		t.Fatalf("expected no snapshot rows, got %d", len(frozen))
	}

	s.FailSnapshotWrites(nil)
	result, err := s.Workflow().Complete(ctx, b.ID, []booking.Status{booking.StatusInProgress}, time.Now())
	if err != nil {
		t.Fatalf("complete: %v", err)
	}
	if len(result.FrozenSelections) != 1 || result.FrozenSelections[0].ServiceName != "Bath" {
		t.Fatalf("unexpected snapshot %+v", result.FrozenSelections)
	}
}

func TestCancelledContextIsPropagated(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	s := New()
	if _, err := s.Bookings().GetByID(ctx, uuid.New()); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}
