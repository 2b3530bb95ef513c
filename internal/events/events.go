package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
)

// Pub/Sub channel constants
const (
	EventsChannel = "channel:events"
)

// Event types
const (
	TypeAccountRegistered = "account_registered"
	TypeTokensCredited    = "tokens_credited"
	TypeBookDownloaded    = "book_downloaded"
)

// Event represents a global message published via Pub/Sub.
type Event struct {
	Type       string          `json:"event"`
	OccurredAt time.Time       `json:"occurred_at"`
	Payload    json.RawMessage `json:"payload"`
}

// AccountRegisteredPayload is the payload for the "account_registered" event.
type AccountRegisteredPayload struct {
	AccountID string `json:"account_id"`
	Username  string `json:"username"`
}

// TokensCreditedPayload is the payload for the "tokens_credited" event.
type TokensCreditedPayload struct {
	AccountID string `json:"account_id"`
	Amount    int64  `json:"amount"`
	Balance   int64  `json:"balance"`
}

// BookDownloadedPayload is the payload for the "book_downloaded" event.
type BookDownloadedPayload struct {
	AccountID string `json:"account_id"`
	BookID    string `json:"book_id"`
	Cost      int64  `json:"cost"`
	Balance   int64  `json:"balance"`
}

// New wraps payload in an Event of the given type.
func New(eventType string, payload any) (Event, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return Event{}, fmt.Errorf("failed to marshal %s payload: %w", eventType, err)
	}
	return Event{Type: eventType, OccurredAt: time.Now().UTC(), Payload: data}, nil
}

// Publisher delivers activity events to interested listeners.
type Publisher interface {
	Publish(ctx context.Context, eventType string, payload any) error
}

type redisPublisher struct {
	rdb *redis.Client
}

// NewRedisPublisher publishes events on EventsChannel.
func NewRedisPublisher(rdb *redis.Client) Publisher {
	return &redisPublisher{rdb: rdb}
}

func (p *redisPublisher) Publish(ctx context.Context, eventType string, payload any) error {
	event, err := New(eventType, payload)
	if err != nil {
		return err
	}
	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}
	if err := p.rdb.Publish(ctx, EventsChannel, data).Err(); err != nil {
		return fmt.Errorf("failed to publish %s event: %w", eventType, err)
	}
	return nil
}

type noopPublisher struct{}

// NewNoopPublisher returns a Publisher that drops every event.
func NewNoopPublisher() Publisher {
	return noopPublisher{}
}

func (noopPublisher) Publish(context.Context, string, any) error { return nil }
