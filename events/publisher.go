package events

import (
	"context"
	"encoding/json"
	"time"

	"go.uber.org/zap"
)

const (
	ProductCreated  = "product.created"
	ProductUpdated  = "product.updated"
	ProductDeleted  = "product.deleted"
	CategoryDeleted = "category.deleted"
	CartItemAdded   = "cart.item_added"
	CartCleared     = "cart.cleared"
)

// Event is the envelope written to every backend.
type Event struct {
	Type       string    `json:"type"`
	Key        string    `json:"key"`
	OccurredAt time.Time `json:"occurredAt"`
	Payload    any       `json:"payload"`
}

func New(eventType, key string, payload any) Event {
	return Event{Type: eventType, Key: key, OccurredAt: time.Now().UTC(), Payload: payload}
}

func (e Event) Encode() ([]byte, error) {
	return json.Marshal(e)
}

// Publisher delivers domain events to a broker.
type Publisher interface {
	Publish(ctx context.Context, event Event) error
	Close() error
}

// Noop discards events.
type Noop struct{}

func (Noop) Publish(context.Context, Event) error { return nil }
func (Noop) Close() error                         { return nil }

// Emitter publishes off the request path; failures are logged and never surface to callers.
type Emitter struct {
	publisher Publisher
	logger    *zap.Logger
	timeout   time.Duration
}

func NewEmitter(p Publisher, logger *zap.Logger) *Emitter {
	if p == nil {
		p = Noop{}
	}
	return &Emitter{publisher: p, logger: logger, timeout: 5 * time.Second}
}

// Emit sends event in the background.
func (e *Emitter) Emit(event Event) {
	if e == nil {
		return
	}
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), e.timeout)
		defer cancel()
		if err := e.publisher.Publish(ctx, event); err != nil {
			e.logger.Warn("Failed to publish event",
				zap.String("type", event.Type),
				zap.String("key", event.Key),
				zap.Error(err),
			)
		}
	}()
}
