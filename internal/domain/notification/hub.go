package notification

import (
	"context"
	"encoding/json"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
)

// Client is one staff device listening to its shop's events
type Client struct {
	ShopID uuid.UUID
	UserID uuid.UUID
	Conn   *websocket.Conn
	Send   chan []byte
}

// Hub fans booking events out to websocket clients of the same shop. With
// Redis, events are published to the shop channel and every replica delivers
// them to its own clients from the pattern subscription.
type Hub struct {
	mu    sync.RWMutex
	shops map[uuid.UUID]map[*Client]struct{}

	publisher *RedisPublisher
	pubsub    *redis.PubSub

	dropped atomic.Int64

	ctx    context.Context
	cancel context.CancelFunc
}

// NewHub creates a hub. redisClient may be nil for a single replica.
func NewHub(redisClient *redis.Client) *Hub {
	ctx, cancel := context.WithCancel(context.Background())
	h := &Hub{
		shops:  make(map[uuid.UUID]map[*Client]struct{}),
		ctx:    ctx,
		cancel: cancel,
	}
	if redisClient != nil {
		h.publisher = NewRedisPublisher(redisClient)
		h.pubsub = redisClient.PSubscribe(ctx, channelPrefix+"*")
	}
	return h
}

// Run consumes the Redis subscription until Shutdown (call in goroutine)
func (h *Hub) Run() {
	if h.pubsub == nil {
		<-h.ctx.Done()
		return
	}

	ch := h.pubsub.Channel()
	for {
		select {
		case <-h.ctx.Done():
			return
		case msg, ok := <-ch:
			if !ok {
				return
			}
			if !strings.HasPrefix(msg.Channel, channelPrefix) {
				continue
			}
			var e Event
			if err := json.Unmarshal([]byte(msg.Payload), &e); err != nil {
				log.Warn().Err(err).Str("channel", msg.Channel).Msg("Dropping malformed booking event")
				continue
			}
			h.broadcastLocal(e)
		}
	}
}

// Send implements Notifier
func (h *Hub) Send(ctx context.Context, e Event) {
	if h.publisher != nil {
		h.publisher.Send(ctx, e)
		return
	}
	h.broadcastLocal(e)
}

func (h *Hub) broadcastLocal(e Event) {
	data, err := json.Marshal(e)
	if err != nil {
		return
	}

	h.mu.RLock()
	defer h.mu.RUnlock()

	for c := range h.shops[e.ShopID] {
		select {
		case c.Send <- data:
		default:
			// Slow client, drop rather than block the writer
			h.dropped.Add(1)
		}
	}
}

// Register adds a client to its shop
func (h *Hub) Register(c *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.shops[c.ShopID] == nil {
		h.shops[c.ShopID] = make(map[*Client]struct{})
	}
	h.shops[c.ShopID][c] = struct{}{}
	log.Debug().Str("shop_id", c.ShopID.String()).Str("user_id", c.UserID.String()).Msg("Client connected to event stream")
}

// Unregister removes a client and closes its send channel
func (h *Hub) Unregister(c *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	clients, ok := h.shops[c.ShopID]
	if !ok {
		return
	}
	if _, exists := clients[c]; exists {
		delete(clients, c)
		close(c.Send)
	}
	if len(clients) == 0 {
		delete(h.shops, c.ShopID)
	}
}

// ClientCount returns the number of local clients of a shop
func (h *Hub) ClientCount(shopID uuid.UUID) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.shops[shopID])
}

// Dropped returns how many events were dropped for slow clients
func (h *Hub) Dropped() int64 {
	return h.dropped.Load()
}

// Shutdown stops the subscriber and disconnects every client
func (h *Hub) Shutdown() {
	h.cancel()
	if h.pubsub != nil {
		h.pubsub.Close()
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	for shopID, clients := range h.shops {
		for c := range clients {
			close(c.Send)
		}
		delete(h.shops, shopID)
	}
}
