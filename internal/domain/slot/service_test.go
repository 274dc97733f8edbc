package slot_test

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/groomly/groomly-api/internal/domain/booking"
	"github.com/groomly/groomly-api/internal/domain/slot"
	"github.com/groomly/groomly-api/internal/pkg/actor"
	"github.com/groomly/groomly-api/internal/pkg/apperr"
	"github.com/groomly/groomly-api/internal/store/memory"
)

// 2024-06-03 is a Monday
var monday = time.Date(2024, 6, 3, 0, 0, 0, 0, time.UTC)

func staffOf(shop uuid.UUID) actor.Actor {
	return actor.Actor{UserID: uuid.New(), ShopID: shop, Role: actor.RoleStaff}
}

func reserve(t *testing.T, store *memory.Store, shop, sub uuid.UUID, date time.Time) *booking.Booking {
	t.Helper()
	now := time.Now().UTC()
	b := &booking.Booking{
		ID:            uuid.New(),
		ShopID:        shop,
		CustomerName:  "Aigerim",
		ContactNumber: "+7 700 000 0000",
		DogName:       "Bobik",
		BookingDate:   date,
		SlotTime:      sql.NullString{String: "10:00", Valid: true},
		SubTimeSlotID: uuid.NullUUID{UUID: sub, Valid: true},
		Status:        booking.StatusReserved,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	if err := store.Bookings().Create(context.Background(), b); err != nil {
		t.Fatalf("create booking: %v", err)
	}
	return b
}

func TestListAvailableSlotsOrderAndOccupancy(t *testing.T) {
	ctx := context.Background()
	store := memory.New()
	shop := uuid.New()
	svc := slot.NewService(store.Slots())

	late := store.SeedSubSlot(shop, "11:00", 1, -1)
	early2 := store.SeedSubSlot(shop, "09:00", 2, -1)
	early1 := store.SeedSubSlot(shop, "09:00", 1, -1)
	store.SeedSubSlot(shop, "13:00", 1, int(time.Tuesday))

	b := reserve(t, store, shop, early2, monday)

	rows, err := svc.ListAvailableSlots(ctx, staffOf(shop), shop, monday)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(rows) != 3 {
		t.Fatalf("expected 3 slots offered on Monday, got %d", len(rows))
	}

	want := []uuid.UUID{early1, early2, late}
	for i, id := range want {
		if rows[i].SubTimeSlotID != id {
			t.Fatalf("row %d: expected %s, got %s", i, id, rows[i].SubTimeSlotID)
		}
	}
	if !rows[1].IsOccupied || rows[1].BookingID.UUID != b.ID {
		t.Fatalf("expected 09:00 #2 to be held by %s, got %+v", b.ID, rows[1])
	}
	if rows[0].IsOccupied || rows[2].IsOccupied {
		t.Fatalf("expected the other slots to be free")
	}

	// Another date is untouched by the booking
	rows, err = svc.ListAvailableSlots(ctx, staffOf(shop), shop, monday.AddDate(0, 0, 7))
	if err != nil {
		t.Fatalf("list next week: %v", err)
	}
	for _, r := range rows {
		if r.IsOccupied {
			t.Fatalf("expected next Monday to be free, got %+v", r)
		}
	}
}

func TestListAvailableSlotsNothingConfigured(t *testing.T) {
	store := memory.New()
	shop := uuid.New()
	store.SeedSubSlot(shop, "09:00", 1, int(time.Sunday))

	_, err := slot.NewService(store.Slots()).ListAvailableSlots(context.Background(), staffOf(shop), shop, monday)
	if !errors.Is(err, slot.ErrNoSlotsConfigured) || !errors.Is(err, apperr.ErrNotFound) {
		t.Fatalf("expected ErrNoSlotsConfigured, got %v", err)
	}
}

func TestFullyBookedDayIsAllOccupied(t *testing.T) {
	store := memory.New()
	shop := uuid.New()
	sub := store.SeedSubSlot(shop, "09:00", 1, -1)
	reserve(t, store, shop, sub, monday)

	rows, err := slot.NewService(store.Slots()).ListAvailableSlots(context.Background(), staffOf(shop), shop, monday)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(rows) != 1 || !rows[0].IsOccupied {
		t.Fatalf("expected a fully occupied list, got %+v", rows)
	}
}

func TestOtherShopIsHidden(t *testing.T) {
	store := memory.New()
	shop := uuid.New()
	store.SeedSubSlot(shop, "09:00", 1, -1)

	_, err := slot.NewService(store.Slots()).ListAvailableSlots(context.Background(), staffOf(uuid.New()), shop, monday)
	if !errors.Is(err, slot.ErrShopNotFound) {
		t.Fatalf("expected ErrShopNotFound, got %v", err)
	}
}

func TestCreateAndDeleteSubSlot(t *testing.T) {
	ctx := context.Background()
	store := memory.New()
	shop := uuid.New()
	admin := actor.Actor{UserID: uuid.New(), Role: actor.RoleAdmin}
	svc := slot.NewService(store.Slots())

	ts, err := svc.CreateTimeSlot(ctx, admin, shop, &slot.CreateTimeSlotRequest{StartTime: "10:00"})
	if err != nil {
		t.Fatalf("create time slot: %v", err)
	}
	sub, err := svc.CreateSubSlot(ctx, admin, ts.ID, &slot.CreateSubSlotRequest{SlotNumber: 1})
	if err != nil {
		t.Fatalf("create sub slot: %v", err)
	}
	if _, err := svc.CreateSubSlot(ctx, admin, ts.ID, &slot.CreateSubSlotRequest{SlotNumber: 1}); !errors.Is(err, slot.ErrDuplicateSlot) {
		t.Fatalf("expected ErrDuplicateSlot, got %v", err)
	}

	b := reserve(t, store, shop, sub.ID, monday)

	if err := svc.DeleteSubSlot(ctx, staffOf(uuid.New()), sub.ID); !errors.Is(err, slot.ErrSubSlotNotFound) {
		t.Fatalf("expected other shop to be refused, got %v", err)
	}
	if err := svc.DeleteSubSlot(ctx, admin, sub.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}

	got, err := store.Bookings().GetByID(ctx, b.ID)
	if err != nil {
		t.Fatalf("get booking: %v", err)
	}
	if got.SubTimeSlotID.Valid || got.SlotTime.Valid {
		t.Fatalf("expected booking to be unscheduled after its sub-slot was deleted, got %+v", got)
	}
	if got.Status != booking.StatusReserved {
		t.Fatalf("expected booking to be kept, got %s", got.Status)
	}
}

func TestConfiguredSlotOfferedOn(t *testing.T) {
	every := slot.ConfiguredSlot{}
	if !every.OfferedOn(monday) {
		t.Fatalf("a slot without weekday is offered every day")
	}
	tuesday := slot.ConfiguredSlot{}
	tuesday.DayOfWeek.Int16, tuesday.DayOfWeek.Valid = int16(time.Tuesday), true
	if tuesday.OfferedOn(monday) || !tuesday.OfferedOn(monday.AddDate(0, 0, 1)) {
		t.Fatalf("weekday filter is wrong")
	}
}
