package main

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/groomly/groomly-api/internal/config"
	"github.com/groomly/groomly-api/internal/domain/notification"
	"github.com/groomly/groomly-api/internal/middleware"
	"github.com/groomly/groomly-api/internal/pkg/actor"
	"github.com/groomly/groomly-api/internal/store"
	"github.com/groomly/groomly-api/internal/store/memory"
)

type testServer struct {
	handler http.Handler
	mem     *memory.Store
	app     *app
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	cfg := &config.Config{
		StorageDriver:         config.DriverMemory,
		JWTSecret:             "test-secret",
		JWTAccessTTL:          time.Hour,
		AllowedOrigins:        []string{"http://localhost:3000"},
		AllowDirectCompletion: true,
	}
	repos, mem := store.Memory()
	hub := notification.NewHub(nil)
	t.Cleanup(hub.Shutdown)

	a := newApp(cfg, repos, nil, nil, hub)
	limiter := middleware.NewRateLimiter(1000, 1000)
	return &testServer{handler: a.router(limiter), mem: mem, app: a}
}

func (s *testServer) token(t *testing.T, shopID uuid.UUID) string {
	t.Helper()
	token, err := s.app.jwt.GenerateAccessToken(uuid.New(), shopID, actor.RoleStaff)
	if err != nil {
		t.Fatalf("token: %v", err)
	}
	return token
}

func (s *testServer) do(t *testing.T, method, path, token string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encode: %v", err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rr := httptest.NewRecorder()
	s.handler.ServeHTTP(rr, req)
	return rr
}

func TestHealth(t *testing.T) {
	s := newTestServer(t)
	rr := s.do(t, http.MethodGet, "/health", "", nil)
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rr.Code)
	}
}

func TestBookingRoutesRequireToken(t *testing.T) {
	s := newTestServer(t)
	rr := s.do(t, http.MethodGet, "/api/v1/bookings", "", nil)
	if rr.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rr.Code)
	}
}

func TestDoubleBookingOverHTTP(t *testing.T) {
	s := newTestServer(t)
	shopID := uuid.New()
	subSlot := s.mem.SeedSubSlot(shopID, "09:00", 1, -1)
	token := s.token(t, shopID)

	body := map[string]interface{}{
		"customer_name":    "Dana",
		"contact_number":   "+7 700 000 00 00",
		"dog_name":         "Rex",
		"dog_breed":        "Corgi",
		"booking_date":     "2024-06-03",
		"sub_time_slot_id": subSlot,
	}

	rr := s.do(t, http.MethodPost, "/api/v1/bookings", token, body)
	if rr.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", rr.Code, rr.Body.String())
	}

	body["dog_name"] = "Bella"
	rr = s.do(t, http.MethodPost, "/api/v1/bookings", token, body)
	if rr.Code != http.StatusConflict {
		t.Fatalf("expected 409, got %d: %s", rr.Code, rr.Body.String())
	}

	rr = s.do(t, http.MethodGet, "/api/v1/shops/"+shopID.String()+"/availability?date=2024-06-03", token, nil)
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rr.Code, rr.Body.String())
	}
	var resp struct {
		Data []struct {
			SubTimeSlotID uuid.UUID `json:"sub_time_slot_id"`
			IsOccupied    bool      `json:"is_occupied"`
		} `json:"data"`
	}
	if err := json.Unmarshal(rr.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(resp.Data) != 1 || !resp.Data[0].IsOccupied {
		t.Fatalf("expected the only slot to be occupied, got %+v", resp.Data)
	}
}

func TestDeleteBookingIsAdminOnly(t *testing.T) {
	s := newTestServer(t)
	rr := s.do(t, http.MethodDelete, "/api/v1/bookings/"+uuid.New().String(), s.token(t, uuid.New()), nil)
	if rr.Code != http.StatusForbidden {
		t.Fatalf("expected 403, got %d", rr.Code)
	}
}
