package supabase

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/supabase-community/postgrest-go"

	"github.com/groomly/groomly-api/internal/domain/booking"
	"github.com/groomly/groomly-api/internal/domain/selection"
)

type row = map[string]interface{}

// tableREST is a small stateful PostgREST: it keeps rows per table and
// understands the eq. and in.() filters the driver sends. before and after
// run around every request, outside the table lock, so tests can hold one
// request while others go through.
type tableREST struct {
	mu     sync.Mutex
	tables map[string][]row

	before func(method, table string, n int)
	after  func(method, table string, n int)
	calls  map[string]int
}

func newTableREST(t *testing.T) (*tableREST, func() *Store) {
	t.Helper()
	fake := &tableREST{tables: make(map[string][]row), calls: make(map[string]int)}
	srv := httptest.NewServer(fake)
	t.Cleanup(srv.Close)
	// Each store has its own in-process lock, like a separate API replica.
	return fake, func() *Store {
		return New(postgrest.NewClient(srv.URL, "public", nil), nil)
	}
}

func (f *tableREST) seed(table string, r row) {
	data, _ := json.Marshal(r)
	var normalized row
	json.Unmarshal(data, &normalized)

	f.mu.Lock()
	defer f.mu.Unlock()
	f.tables[table] = append(f.tables[table], normalized)
}

func (f *tableREST) rows(table string) []row {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]row(nil), f.tables[table]...)
}

func matches(r row, query map[string][]string) bool {
	for col, values := range query {
		switch col {
		case "select", "order", "limit", "offset":
			continue
		}
		got := fmt.Sprint(r[col])
		cond := values[0]
		switch {
		case strings.HasPrefix(cond, "eq."):
			if got != strings.TrimPrefix(cond, "eq.") {
				return false
			}
		case strings.HasPrefix(cond, "in.("):
			list := strings.TrimSuffix(strings.TrimPrefix(cond, "in.("), ")")
			found := false
			for _, v := range strings.Split(list, ",") {
				if strings.Trim(v, `"`) == got {
					found = true
				}
			}
			if !found {
				return false
			}
		}
	}
	return true
}

func (f *tableREST) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	table := strings.TrimPrefix(r.URL.Path, "/")
	body, _ := io.ReadAll(r.Body)

	f.mu.Lock()
	key := r.Method + " " + table
	f.calls[key]++
	n := f.calls[key]
	f.mu.Unlock()

	if f.before != nil {
		f.before(r.Method, table, n)
	}

	status := http.StatusOK
	var out []row

	f.mu.Lock()
	query := r.URL.Query()
	switch r.Method {
	case http.MethodGet:
		for _, existing := range f.tables[table] {
			if matches(existing, query) {
				out = append(out, existing)
			}
		}
	case http.MethodPost:
		status = http.StatusCreated
		var many []row
		if err := json.Unmarshal(body, &many); err != nil {
			var one row
			json.Unmarshal(body, &one)
			many = []row{one}
		}
		f.tables[table] = append(f.tables[table], many...)
		out = many
	case http.MethodPatch:
		var patch row
		json.Unmarshal(body, &patch)
		for _, existing := range f.tables[table] {
			if matches(existing, query) {
				for k, v := range patch {
					existing[k] = v
				}
				out = append(out, existing)
			}
		}
	case http.MethodDelete:
		var kept []row
		for _, existing := range f.tables[table] {
			if matches(existing, query) {
				out = append(out, existing)
			} else {
				kept = append(kept, existing)
			}
		}
		f.tables[table] = kept
	}
	data, _ := json.Marshal(out)
	f.mu.Unlock()

	if f.after != nil {
		f.after(r.Method, table, n)
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if out == nil {
		data = []byte("[]")
	}
	w.Write(data)
}

// wait keeps a held request from hanging the test server forever
func wait(ch <-chan struct{}) {
	select {
	case <-ch:
	case <-time.After(5 * time.Second):
	}
}

func seedBookingWithBath(fake *tableREST) (bookingID, serviceID uuid.UUID) {
	bookingID, serviceID = uuid.New(), uuid.New()
	fake.seed("bookings", reservedRow(bookingID))
	fake.seed("service_catalog", row{
		"id": serviceID, "name": "Bath", "price": 25, "type": "checkbox", "is_active": true,
		"created_at": "2024-06-01T10:00:00Z", "updated_at": "2024-06-01T10:00:00Z",
	})
	fake.seed("selected_services", row{
		"id": uuid.New(), "booking_id": bookingID, "service_id": serviceID,
		"created_at": "2024-06-01T10:00:00Z", "updated_at": "2024-06-01T10:00:00Z",
	})
	return bookingID, serviceID
}

func TestConcurrentCompletionKeepsWinnersSnapshot(t *testing.T) {
	fake, newStore := newTableREST(t)
	id, _ := seedBookingWithBath(fake)
	first, second := newStore(), newStore()

	firstInserted := make(chan struct{})
	secondInserted := make(chan struct{})
	firstPatched := make(chan struct{})

	// The first completion has written its snapshot; its status update is
	// held until the second one has written its own.
	fake.after = func(method, table string, n int) {
		switch {
		case method == http.MethodPost && table == "booking_service_snapshots" && n == 1:
			close(firstInserted)
		case method == http.MethodPost && table == "booking_service_snapshots" && n == 2:
			close(secondInserted)
		case method == http.MethodPatch && table == "bookings" && n == 1:
			close(firstPatched)
		}
	}
	fake.before = func(method, table string, n int) {
		if method != http.MethodPatch || table != "bookings" {
			return
		}
		if n == 1 {
			wait(secondInserted)
		} else {
			wait(firstPatched)
		}
	}

	ctx := context.Background()
	var firstErr, secondErr error
	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		_, firstErr = first.Workflow().Complete(ctx, id, booking.ActiveStatuses, time.Now())
	}()
	wait(firstInserted)
	go func() {
		defer wg.Done()
		_, secondErr = second.Workflow().Complete(ctx, id, booking.ActiveStatuses, time.Now())
	}()
	wg.Wait()

	if firstErr != nil {
		t.Fatalf("first completion: %v", firstErr)
	}
	if !errors.Is(secondErr, booking.ErrInvalidTransition) {
		t.Fatalf("expected the second completion to be rejected, got %v", secondErr)
	}

	frozen, err := first.Selections().ListFrozen(ctx, id)
	if err != nil {
		t.Fatalf("list frozen: %v", err)
	}
	if len(frozen) != 1 || frozen[0].ServiceName != "Bath" {
		t.Fatalf("expected exactly the winner's snapshot, got %+v", frozen)
	}
}

func TestCompletionCleansLeftoverSnapshots(t *testing.T) {
	fake, newStore := newTableREST(t)
	id, serviceID := seedBookingWithBath(fake)
	// left behind by an attempt that died before its status update
	fake.seed("booking_service_snapshots", row{
		"id": uuid.New(), "booking_id": id, "selection_id": uuid.New(), "service_id": serviceID,
		"service_name": "Bath", "service_type": "checkbox", "price": 20,
		"frozen_at": "2024-06-01T11:00:00Z",
	})

	s := newStore()
	ctx := context.Background()
	if _, err := s.Workflow().Complete(ctx, id, booking.ActiveStatuses, time.Now()); err != nil {
		t.Fatalf("complete: %v", err)
	}
	frozen, err := s.Selections().ListFrozen(ctx, id)
	if err != nil {
		t.Fatalf("list frozen: %v", err)
	}
	if len(frozen) != 1 || frozen[0].Price != 25 {
		t.Fatalf("expected only the fresh snapshot, got %+v", frozen)
	}
}

func TestSelectionInsertWaitsForCompletion(t *testing.T) {
	fake, newStore := newTableREST(t)
	id, _ := seedBookingWithBath(fake)
	s := newStore()

	patching := make(chan struct{})
	resume := make(chan struct{})
	fake.before = func(method, table string, n int) {
		if method == http.MethodPatch && table == "bookings" && n == 1 {
			close(patching)
			wait(resume)
		}
	}

	ctx := context.Background()
	completeErr := make(chan error, 1)
	go func() {
		_, err := s.Workflow().Complete(ctx, id, booking.ActiveStatuses, time.Now())
		completeErr <- err
	}()
	wait(patching)

	insertErr := make(chan error, 1)
	go func() {
		insertErr <- s.Selections().Insert(ctx, &selection.SelectedService{
			ID: uuid.New(), BookingID: id, ServiceID: uuid.New(),
		})
	}()

	time.Sleep(50 * time.Millisecond)
	if n := len(fake.rows("selected_services")); n != 1 {
		t.Fatalf("selection written while completion was in flight, %d rows", n)
	}
	close(resume)

	if err := <-completeErr; err != nil {
		t.Fatalf("complete: %v", err)
	}
	if err := <-insertErr; !errors.Is(err, selection.ErrSelectionsFrozen) {
		t.Fatalf("expected ErrSelectionsFrozen, got %v", err)
	}
	if n := len(fake.rows("selected_services")); n != 1 {
		t.Fatalf("expected the completed booking to keep one selection, got %d", n)
	}
	if n := len(fake.rows("booking_service_snapshots")); n != 1 {
		t.Fatalf("expected one snapshot row, got %d", n)
	}
}

func TestDeleteSubSlotClearsBookingTime(t *testing.T) {
	fake, newStore := newTableREST(t)
	shopID, timeID, subID, bookingID := uuid.New(), uuid.New(), uuid.New(), uuid.New()
	fake.seed("time_slots", row{
		"id": timeID, "shop_id": shopID, "start_time": "10:00", "sort_order": 1,
		"created_at": "2024-06-01T10:00:00Z",
	})
	fake.seed("sub_time_slots", row{
		"id": subID, "time_slot_id": timeID, "slot_number": 1,
		"created_at": "2024-06-01T10:00:00Z",
	})
	b := reservedRow(bookingID)
	b["sub_time_slot_id"] = subID
	b["slot_time"] = "10:00"
	fake.seed("bookings", b)

	s := newStore()
	ctx := context.Background()
	if err := s.Slots().DeleteSubSlot(ctx, subID); err != nil {
		t.Fatalf("delete sub slot: %v", err)
	}
	if n := len(fake.rows("sub_time_slots")); n != 0 {
		t.Fatalf("expected the sub-slot to be gone, %d rows left", n)
	}

	got, err := s.Bookings().GetByID(ctx, bookingID)
	if err != nil {
		t.Fatalf("get booking: %v", err)
	}
	if got.SubTimeSlotID.Valid || got.SlotTime.Valid {
		t.Fatalf("expected the booking to be unscheduled, got %+v", got)
	}
}
