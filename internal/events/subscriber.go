package events

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/go-redis/redis/v8"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

var tracer = otel.Tracer("events")

// Handler processes one received event.
type Handler func(ctx context.Context, event Event) error

// Subscribe delivers every event published on EventsChannel to handle until
// ctx is done. Messages that do not decode and handler errors are logged and
// skipped.
func Subscribe(ctx context.Context, rdb *redis.Client, handle Handler) error {
	pubsub := rdb.Subscribe(ctx, EventsChannel)
	defer pubsub.Close()

	if _, err := pubsub.Receive(ctx); err != nil {
		return fmt.Errorf("failed to subscribe to %s: %w", EventsChannel, err)
	}
	slog.InfoContext(ctx, "Subscribed to activity events", "channel", EventsChannel)

	ch := pubsub.Channel()
	for {
		select {
		case <-ctx.Done():
			return nil
		case msg, ok := <-ch:
			if !ok {
				return nil
			}
			dispatch(ctx, msg.Payload, handle)
		}
	}
}

func dispatch(ctx context.Context, payload string, handle Handler) {
	var event Event
	if err := json.Unmarshal([]byte(payload), &event); err != nil {
		slog.WarnContext(ctx, "Dropping undecodable event", "error", err)
		return
	}

	ctx, span := tracer.Start(ctx, "events.handle", trace.WithAttributes(
		attribute.String("event.type", event.Type),
	))
	defer span.End()

	if err := handle(ctx, event); err != nil {
		span.RecordError(err)
		slog.WarnContext(ctx, "Event handler failed", "event.type", event.Type, "error", err)
	}
}
