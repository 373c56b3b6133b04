// Package messaging dispatches domain events to in-process handlers
package messaging

import (
	"context"
	"encoding/json"
	"sync"

	"github.com/nutriplan/planner/internal/domain/shared"
	"github.com/nutriplan/planner/internal/ports/outbound"
	"go.uber.org/zap"
)

// Handler reacts to one domain event
type Handler func(ctx context.Context, event shared.DomainEvent) error

// EventDispatcher fans published events out to the handlers registered for
// their name. Every event is also logged.
type EventDispatcher struct {
	mu       sync.RWMutex
	handlers map[string][]Handler
	log      *zap.Logger
}

var _ outbound.EventPublisher = (*EventDispatcher)(nil)

// NewEventDispatcher creates a new event dispatcher
func NewEventDispatcher(log *zap.Logger) *EventDispatcher {
	return &EventDispatcher{
		handlers: make(map[string][]Handler),
		log:      log.Named("events"),
	}
}

// Subscribe registers handler for events named name
func (d *EventDispatcher) Subscribe(name string, handler Handler) {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.handlers[name] = append(d.handlers[name], handler)
}

// Publish dispatches events in order. A failing handler is logged and the
// remaining handlers still run.
func (d *EventDispatcher) Publish(ctx context.Context, events ...shared.DomainEvent) error {
	for _, event := range events {
		d.log.Info("Domain event",
			zap.String("event", event.EventName()),
			zap.Time("occurred_at", event.OccurredAt()),
			zap.Any("payload", jsonPayload(event)),
		)

		d.mu.RLock()
		handlers := d.handlers[event.EventName()]
		d.mu.RUnlock()

		for _, handler := range handlers {
			if err := handler(ctx, event); err != nil {
				d.log.Error("Failed to handle event",
					zap.String("event", event.EventName()),
					zap.Error(err),
				)
			}
		}
	}

	return nil
}

func jsonPayload(event shared.DomainEvent) json.RawMessage {
	data, err := json.Marshal(event)
	if err != nil {
		return nil
	}
	return data
}
