package store_test

import (
	"context"
	"errors"
	"os"
	"sync"
	"testing"

	"github.com/google/uuid"

	"github.com/groomly/groomly-api/internal/domain/booking"
	"github.com/groomly/groomly-api/internal/domain/catalog"
	"github.com/groomly/groomly-api/internal/domain/selection"
	"github.com/groomly/groomly-api/internal/domain/slot"
	"github.com/groomly/groomly-api/internal/domain/workflow"
	"github.com/groomly/groomly-api/internal/pkg/actor"
	"github.com/groomly/groomly-api/internal/pkg/apperr"
	"github.com/groomly/groomly-api/internal/pkg/database"
	"github.com/groomly/groomly-api/internal/store"
)

// These tests run against a real database and every test uses its own shop,
// so they can share one schema.
func openPostgres(t *testing.T) *store.Repositories {
	t.Helper()
	url := os.Getenv("TEST_DATABASE_URL")
	if url == "" {
		t.Skipf("TEST_DATABASE_URL not set")
	}
	db, err := database.NewPostgres(context.Background(), url, database.PoolConfig{MaxOpenConns: 8})
	if err != nil {
		t.Skipf("postgres unavailable: %v", err)
	}
	if _, err := database.Migrate(context.Background(), db); err != nil {
		db.Close()
		t.Fatalf("migrate: %v", err)
	}
	repos := store.Postgres(db)
	t.Cleanup(repos.Close)
	return repos
}

func seedSlot(t *testing.T, repos *store.Repositories, shop uuid.UUID) uuid.UUID {
	t.Helper()
	ctx := context.Background()
	admin := actor.Actor{UserID: uuid.New(), Role: actor.RoleAdmin}
	svc := slot.NewService(repos.Slots)

	ts, err := svc.CreateTimeSlot(ctx, admin, shop, &slot.CreateTimeSlotRequest{StartTime: "09:00"})
	if err != nil {
		t.Fatalf("create time slot: %v", err)
	}
	sub, err := svc.CreateSubSlot(ctx, admin, ts.ID, &slot.CreateSubSlotRequest{SlotNumber: 1})
	if err != nil {
		t.Fatalf("create sub slot: %v", err)
	}
	return sub.ID
}

func bookingRequest(sub uuid.UUID, dog string) *booking.CreateBookingRequest {
	return &booking.CreateBookingRequest{
		CustomerName:  "Aigerim",
		ContactNumber: "+7 700 000 0000",
		DogName:       dog,
		BookingDate:   "2024-06-03",
		SubTimeSlotID: &sub,
	}
}

func TestPostgresConcurrentClaimsHaveOneWinner(t *testing.T) {
	repos := openPostgres(t)
	shop := uuid.New()
	sub := seedSlot(t, repos, shop)
	staff := actor.Actor{UserID: uuid.New(), ShopID: shop, Role: actor.RoleStaff}
	svc := booking.NewService(repos.Bookings, repos.Slots, nil, nil)

	const n = 8
	var wg sync.WaitGroup
	errs := make([]error, n)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = svc.CreateBooking(context.Background(), staff, bookingRequest(sub, "Dog"))
		}(i)
	}
	wg.Wait()

	wins := 0
	for _, err := range errs {
		switch {
		case err == nil:
			wins++
		case errors.Is(err, apperr.ErrSlotConflict):
		default:
			t.Fatalf("unexpected error: %v", err)
		}
	}
	if wins != 1 {
		t.Fatalf("expected exactly one winner, got %d", wins)
	}
}

func TestPostgresCompletionFreezesPrices(t *testing.T) {
	ctx := context.Background()
	repos := openPostgres(t)
	shop := uuid.New()
	sub := seedSlot(t, repos, shop)
	staff := actor.Actor{UserID: uuid.New(), ShopID: shop, Role: actor.RoleStaff}

	bookings := booking.NewService(repos.Bookings, repos.Slots, nil, nil)
	catalogs := catalog.NewService(repos.Catalog)
	selections := selection.NewService(repos.Selections, repos.Bookings, repos.Catalog)
	flow := workflow.NewService(repos.Workflow, repos.Bookings, nil, workflow.Options{AllowDirectCompletion: true})

	b, err := bookings.CreateBooking(ctx, staff, bookingRequest(sub, "Rex"))
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	entries, err := catalogs.Import(ctx, []catalog.ImportEntry{{Name: "Bath " + shop.String()[:8], Price: 25, Type: "checkbox"}})
	if err != nil {
		t.Fatalf("import: %v", err)
	}
	svcID := entries[0].ID
	if _, err := selections.SelectService(ctx, staff, b.ID, &selection.SelectRequest{ServiceID: svcID}); err != nil {
		t.Fatalf("select: %v", err)
	}
	if _, err := selections.SelectService(ctx, staff, b.ID, &selection.SelectRequest{ServiceID: svcID}); !errors.Is(err, selection.ErrAlreadySelected) {
		t.Fatalf("expected ErrAlreadySelected, got %v", err)
	}

	result, err := flow.CompleteBooking(ctx, staff, b.ID)
	if err != nil {
		t.Fatalf("complete: %v", err)
	}
	if len(result.FrozenSelections) != 1 || result.Total() != 25 {
		t.Fatalf("unexpected completion %+v", result)
	}

	// A later price change must not reach the completed booking
	if _, err := catalogs.Import(ctx, []catalog.ImportEntry{{ID: svcID, Name: entries[0].Name, Price: 99, Type: "checkbox"}}); err != nil {
		t.Fatalf("reprice: %v", err)
	}
	views, err := selections.ListSelections(ctx, staff, b.ID)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(views) != 1 || views[0].Price != 25 || !views[0].Frozen {
		t.Fatalf("expected the frozen price, got %+v", views)
	}

	// The slot is free again once the booking is completed
	if _, err := bookings.CreateBooking(ctx, staff, bookingRequest(sub, "Bella")); err != nil {
		t.Fatalf("rebook completed slot: %v", err)
	}
}

func TestPostgresDeleteSubSlotUnschedules(t *testing.T) {
	ctx := context.Background()
	repos := openPostgres(t)
	shop := uuid.New()
	sub := seedSlot(t, repos, shop)
	staff := actor.Actor{UserID: uuid.New(), ShopID: shop, Role: actor.RoleStaff}

	b, err := booking.NewService(repos.Bookings, repos.Slots, nil, nil).CreateBooking(ctx, staff, bookingRequest(sub, "Rex"))
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if err := repos.Slots.DeleteSubSlot(ctx, sub); err != nil {
		t.Fatalf("delete sub slot: %v", err)
	}

	got, err := repos.Bookings.GetByID(ctx, b.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if !b.SlotTime.Valid {
		t.Fatalf("expected the booking to copy the slot time on create")
	}
	if got.SubTimeSlotID.Valid || got.SlotTime.Valid || got.Status != booking.StatusReserved {
		t.Fatalf("expected an unscheduled reserved booking, got %+v", got)
	}
}
