package notification

import (
	"context"

	"github.com/groomly/groomly-api/internal/pkg/logger"
)

// Notifier dispatches events fire-and-forget. Delivery is the notifier's
// concern; Send never reports failure to the caller.
type Notifier interface {
	Send(ctx context.Context, event Event)
}

// Nop discards events
type Nop struct{}

func (Nop) Send(context.Context, Event) {}

// LogNotifier writes events to the structured log
type LogNotifier struct{}

func (LogNotifier) Send(ctx context.Context, e Event) {
	logger.LogInfo(ctx, "Booking event",
		"event", string(e.Type),
		"booking_id", e.BookingID.String(),
		"status", e.Status,
		"occurred_at", e.OccurredAt,
	)
}

// Multi fans an event out to several notifiers
type Multi []Notifier

func (m Multi) Send(ctx context.Context, e Event) {
	for _, n := range m {
		if n != nil {
			n.Send(ctx, e)
		}
	}
}
