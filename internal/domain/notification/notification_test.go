package notification

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/groomly/groomly-api/internal/middleware"
	"github.com/groomly/groomly-api/internal/pkg/actor"
)

type recorder struct {
	events []Event
}

func (r *recorder) Send(_ context.Context, e Event) {
	r.events = append(r.events, e)
}

func TestMultiForwardsToEveryNotifier(t *testing.T) {
	a, b := &recorder{}, &recorder{}
	m := Multi{a, nil, b, Nop{}, LogNotifier{}}

	m.Send(context.Background(), Event{BookingID: uuid.New(), Type: TypeBookingCreated})

	if len(a.events) != 1 || len(b.events) != 1 {
		t.Fatalf("expected both recorders to receive the event")
	}
}

func TestHubDeliversOnlyToSameShop(t *testing.T) {
	hub := NewHub(nil)
	defer hub.Shutdown()

	shopA, shopB := uuid.New(), uuid.New()
	ca := &Client{ShopID: shopA, Send: make(chan []byte, 1)}
	cb := &Client{ShopID: shopB, Send: make(chan []byte, 1)}
	hub.Register(ca)
	hub.Register(cb)

	hub.Send(context.Background(), Event{ShopID: shopA, BookingID: uuid.New(), Type: TypeBookingStarted})

	select {
	case msg := <-ca.Send:
		var e Event
		if err := json.Unmarshal(msg, &e); err != nil || e.Type != TypeBookingStarted {
			t.Fatalf("unexpected payload %s (%v)", msg, err)
		}
	default:
		t.Fatalf("shop A client should have received the event")
	}
	select {
	case <-cb.Send:
		t.Fatalf("shop B client must not receive shop A events")
	default:
	}
}

func TestHubDropsForSlowClients(t *testing.T) {
	hub := NewHub(nil)
	defer hub.Shutdown()

	shop := uuid.New()
	c := &Client{ShopID: shop, Send: make(chan []byte, 1)}
	hub.Register(c)

	hub.Send(context.Background(), Event{ShopID: shop, Type: TypeBookingCreated})
	hub.Send(context.Background(), Event{ShopID: shop, Type: TypeBookingCancelled})

	if hub.Dropped() != 1 {
		t.Fatalf("expected one dropped event, got %d", hub.Dropped())
	}

	hub.Unregister(c)
	if hub.ClientCount(shop) != 0 {
		t.Fatalf("expected client to be removed")
	}
}

func TestWebSocketStreamsShopEvents(t *testing.T) {
	hub := NewHub(nil)
	defer hub.Shutdown()
	h := NewHandler(hub, nil)

	shop := uuid.New()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := middleware.WithActor(r.Context(), actor.Actor{UserID: uuid.New(), ShopID: shop, Role: actor.RoleStaff})
		h.WebSocket(w, r.WithContext(ctx))
	}))
	defer srv.Close()

	conn, _, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(srv.URL, "http"), nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close()

	deadline := time.Now().Add(2 * time.Second)
	for hub.ClientCount(shop) == 0 {
		if time.Now().After(deadline) {
			t.Fatalf("client never registered")
		}
		time.Sleep(5 * time.Millisecond)
	}

	bookingID := uuid.New()
	hub.Send(context.Background(), Event{ShopID: shop, BookingID: bookingID, Type: TypeBookingCompleted})

	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	var got Event
	if err := conn.ReadJSON(&got); err != nil {
		t.Fatalf("read: %v", err)
	}
	if got.BookingID != bookingID || got.Type != TypeBookingCompleted {
		t.Fatalf("unexpected event %+v", got)
	}
}
