package supabase

import (
	"context"
	"encoding/json"
	"errors"
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
	"github.com/groomly/groomly-api/internal/pkg/apperr"
)

// fakeREST answers PostgREST calls from canned responses keyed by
// "METHOD /table", each used once, and records every request it sees. Once a
// queue is drained the answer is an empty result.
type fakeREST struct {
	mu        sync.Mutex
	responses map[string][]cannedResponse
	seen      []string
}

type cannedResponse struct {
	status int
	body   interface{}
}

func (f *fakeREST) on(method, table string, status int, body interface{}) {
	f.mu.Lock()
	defer f.mu.Unlock()
	key := method + " /" + table
	f.responses[key] = append(f.responses[key], cannedResponse{status: status, body: body})
}

func (f *fakeREST) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	key := r.Method + " " + r.URL.Path
	f.seen = append(f.seen, key)
	resp := cannedResponse{status: http.StatusOK, body: []interface{}{}}
	if queue := f.responses[key]; len(queue) > 0 {
		resp = queue[0]
		f.responses[key] = queue[1:]
	}
	f.mu.Unlock()

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(resp.status)
	if resp.body != nil {
		json.NewEncoder(w).Encode(resp.body)
	}
}

func (f *fakeREST) count(key string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, k := range f.seen {
		if k == key {
			n++
		}
	}
	return n
}

func newTestStore(t *testing.T) (*Store, *fakeREST) {
	t.Helper()
	fake := &fakeREST{responses: make(map[string][]cannedResponse)}
	srv := httptest.NewServer(fake)
	t.Cleanup(srv.Close)
	return New(postgrest.NewClient(srv.URL, "public", nil), nil), fake
}

func pgError(code, message string) map[string]string {
	return map[string]string{"code": code, "message": message}
}

func reservedRow(id uuid.UUID) map[string]interface{} {
	return map[string]interface{}{
		"id":             id,
		"shop_id":        uuid.New(),
		"customer_name":  "Dana",
		"contact_number": "+7 700 000 00 00",
		"dog_name":       "Rex",
		"dog_breed":      "Corgi",
		"booking_date":   "2024-06-03",
		"status":         "reserved",
		"created_at":     "2024-06-01T10:00:00Z",
		"updated_at":     "2024-06-01T10:00:00Z",
	}
}

func TestCreateMapsActiveSlotIndexToSlotTaken(t *testing.T) {
	s, fake := newTestStore(t)
	fake.on("POST", "bookings", http.StatusConflict,
		pgError("23505", `duplicate key value violates unique constraint "bookings_active_slot_uidx"`))

	b := &booking.Booking{
		ID:            uuid.New(),
		ShopID:        uuid.New(),
		BookingDate:   time.Date(2024, 6, 3, 0, 0, 0, 0, time.UTC),
		SubTimeSlotID: uuid.NullUUID{UUID: uuid.New(), Valid: true},
		Status:        booking.StatusReserved,
	}
	if err := s.Bookings().Create(context.Background(), b); !errors.Is(err, booking.ErrSlotTaken) {
		t.Fatalf("expected ErrSlotTaken, got %v", err)
	}
}

func TestGetByIDDecodesRow(t *testing.T) {
	s, fake := newTestStore(t)
	id := uuid.New()
	fake.on("GET", "bookings", http.StatusOK, []interface{}{reservedRow(id)})

	b, err := s.Bookings().GetByID(context.Background(), id)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if b.ID != id || b.DogName != "Rex" || b.Status != booking.StatusReserved {
		t.Fatalf("unexpected booking %+v", b)
	}
	if b.SubTimeSlotID.Valid || b.SlotTime.Valid {
		t.Fatalf("expected unscheduled booking")
	}
	if got := b.BookingDate.Format("2006-01-02"); got != "2024-06-03" {
		t.Fatalf("unexpected date %s", got)
	}

	// nothing queued for the second lookup, so the fake answers []
	if _, err := s.Bookings().GetByID(context.Background(), uuid.New()); !errors.Is(err, booking.ErrBookingNotFound) {
		t.Fatalf("expected ErrBookingNotFound, got %v", err)
	}
}

func TestUnexpectedErrorsAreStorageErrors(t *testing.T) {
	s, fake := newTestStore(t)
	fake.on("GET", "service_catalog", http.StatusInternalServerError, pgError("XX000", "boom"))

	_, err := s.Catalog().List(context.Background(), true)
	if !errors.Is(err, apperr.ErrStorage) {
		t.Fatalf("expected storage error, got %v", err)
	}
}

func TestCompleteDiscardsSnapshotWhenStatusMoved(t *testing.T) {
	s, fake := newTestStore(t)
	id := uuid.New()
	serviceID := uuid.New()

	fake.on("GET", "bookings", http.StatusOK, []interface{}{reservedRow(id)})
	fake.on("GET", "selected_services", http.StatusOK, []interface{}{map[string]interface{}{
		"id":         uuid.New(),
		"booking_id": id,
		"service_id": serviceID,
		"created_at": "2024-06-01T10:00:00Z",
		"updated_at": "2024-06-01T10:00:00Z",
	}})
	fake.on("GET", "service_catalog", http.StatusOK, []interface{}{map[string]interface{}{
		"id": serviceID, "name": "Bath", "price": 25, "type": "checkbox", "is_active": true,
		"created_at": "2024-06-01T10:00:00Z", "updated_at": "2024-06-01T10:00:00Z",
	}})
	fake.on("POST", "booking_service_snapshots", http.StatusCreated, nil)
	// Cancelled by someone else before the status update
	fake.on("PATCH", "bookings", http.StatusOK, []interface{}{})
	cancelled := reservedRow(id)
	cancelled["status"] = "cancelled"
	fake.on("GET", "bookings", http.StatusOK, []interface{}{cancelled})

	_, err := s.Workflow().Complete(context.Background(), id, booking.ActiveStatuses, time.Now())
	if !errors.Is(err, booking.ErrInvalidTransition) {
		t.Fatalf("expected invalid transition, got %v", err)
	}
	if n := fake.count("DELETE /booking_service_snapshots"); n != 1 {
		t.Fatalf("expected snapshot rows to be discarded, saw %d deletes", n)
	}
}

func TestSelectionInsertMapsDuplicate(t *testing.T) {
	s, fake := newTestStore(t)
	id := uuid.New()
	fake.on("GET", "bookings", http.StatusOK, []interface{}{reservedRow(id)})
	fake.on("POST", "selected_services", http.StatusConflict,
		pgError("23505", `duplicate key value violates unique constraint "selected_services_booking_service_uniq"`))

	err := s.Selections().Insert(context.Background(), &selection.SelectedService{
		ID: uuid.New(), BookingID: id, ServiceID: uuid.New(),
	})
	if !errors.Is(err, selection.ErrAlreadySelected) {
		t.Fatalf("expected ErrAlreadySelected, got %v", err)
	}
}

func TestUniqueViolationMatchesSQLState(t *testing.T) {
	if !isUniqueViolation(errors.New("(23505) duplicate key")) {
		t.Fatalf("expected unique violation")
	}
	if isUniqueViolation(errors.New("(23503) insert or update violates foreign key")) {
		t.Fatalf("foreign key violation is not a unique violation")
	}
	if !strings.Contains(errConcurrentUpdate.Error(), "retry") {
		t.Fatalf("unexpected message %q", errConcurrentUpdate)
	}
}
