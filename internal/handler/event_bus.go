// internal/handler/event_bus.go
package handler

import (
	"sync"
	"time"

	"go.uber.org/zap"
)

// EventBus distributes job-completion events to websocket subscribers,
// trimmed from the teacher's multi-topic device event bus to this driver's
// single "job" event stream.
type EventBus struct {
	subscribers []chan Event
	events      chan Event
	mutex       sync.RWMutex
	logger      *zap.Logger
}

// Event is one job-completion notification.
type Event struct {
	Slot      int       `json:"slot"`
	Result    string    `json:"result"`
	Timestamp time.Time `json:"timestamp"`
}

// NewEventBus creates an event bus.
func NewEventBus(logger *zap.Logger) *EventBus {
	return &EventBus{
		events: make(chan Event, 1000),
		logger: logger,
	}
}

// Start runs the event bus's distribution loop until events is closed.
func (eb *EventBus) Start() {
	for event := range eb.events {
		eb.distribute(event)
	}
}

// Publish publishes a job event, dropping it if the bus is saturated.
func (eb *EventBus) Publish(event Event) {
	select {
	case eb.events <- event:
	default:
		eb.logger.Warn("event bus full, dropping job event", zap.Int("slot", event.Slot))
	}
}

// Subscribe registers a new subscriber channel.
func (eb *EventBus) Subscribe() chan Event {
	eb.mutex.Lock()
	defer eb.mutex.Unlock()
	ch := make(chan Event, 100)
	eb.subscribers = append(eb.subscribers, ch)
	return ch
}

// Unsubscribe removes a subscriber channel.
func (eb *EventBus) Unsubscribe(ch chan Event) {
	eb.mutex.Lock()
	defer eb.mutex.Unlock()
	for i, sub := range eb.subscribers {
		if sub == ch {
			eb.subscribers = append(eb.subscribers[:i], eb.subscribers[i+1:]...)
			close(ch)
			return
		}
	}
}

func (eb *EventBus) distribute(event Event) {
	eb.mutex.RLock()
	defer eb.mutex.RUnlock()
	for _, sub := range eb.subscribers {
		select {
		case sub <- event:
		default:
		}
	}
}
