package notification

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/groomly/groomly-api/internal/pkg/logger"
)

const (
	channelPrefix  = "groomly:events:"
	publishTimeout = 2 * time.Second
)

// ShopChannel is the pub/sub channel carrying a shop's events
func ShopChannel(shopID uuid.UUID) string {
	return channelPrefix + shopID.String()
}

// RedisPublisher publishes events to the shop's Redis channel so other API
// replicas and external consumers can react.
type RedisPublisher struct {
	client *redis.Client
}

func NewRedisPublisher(client *redis.Client) *RedisPublisher {
	return &RedisPublisher{client: client}
}

func (p *RedisPublisher) Send(ctx context.Context, e Event) {
	payload, err := json.Marshal(e)
	if err != nil {
		logger.LogError(ctx, err, "Failed to encode booking event")
		return
	}

	// Request ctx may end right after the response is written.
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), publishTimeout)
	defer cancel()

	if err := p.client.Publish(ctx, ShopChannel(e.ShopID), payload).Err(); err != nil {
		logger.LogWarn(ctx, err, "Failed to publish booking event",
			"event", string(e.Type),
			"booking_id", e.BookingID.String(),
		)
	}
}
