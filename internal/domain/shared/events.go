// Package shared holds building blocks common to the plan and recipe aggregates.
package shared

import "time"

// DomainEvent is a fact raised by an aggregate once its change is valid
type DomainEvent interface {
	EventName() string
	OccurredAt() time.Time
}

// EventRecorder is embedded by aggregates. Events accumulate in the order
// they are raised until the application layer pulls them after a write.
type EventRecorder struct {
	pending []DomainEvent
}

// Record queues e for publication
func (r *EventRecorder) Record(e DomainEvent) {
	r.pending = append(r.pending, e)
}

// PullEvents hands over the queued events and forgets them
func (r *EventRecorder) PullEvents() []DomainEvent {
	out := r.pending
	r.pending = nil
	return out
}
