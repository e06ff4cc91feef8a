// Package events implements the in-process broadcast channel that keeps
// the admin queue and cashier views synchronized. Delivery is at-most-once
// per attached subscriber: no persistence, no replay.
package events

import (
	"encoding/json"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Topic names a broadcast stream.
type Topic string

const (
	// TopicIncomingPayment fires when a cash checkout awaits admin confirmation.
	TopicIncomingPayment Topic = "incoming_payment"
	// TopicNewOrder fires on a successful product recognition.
	TopicNewOrder Topic = "new_order"
)

// Event is a single broadcast message.
type Event struct {
	ID      string          `json:"id"`
	Topic   Topic           `json:"topic"`
	Payload json.RawMessage `json:"payload"`
	At      time.Time       `json:"at"`
}

// DropObserver is notified when a slow subscriber loses an event.
type DropObserver interface {
	ObserveDroppedEvent(topic string)
}

// Bus fans events out to subscribers with bounded, non-blocking delivery.
// Publish never waits on a slow consumer; a full subscriber buffer means
// the event is dropped for that subscriber only.
type Bus struct {
	mu      sync.RWMutex
	subs    map[*Subscription]struct{}
	buffer  int
	logger  *slog.Logger
	metrics DropObserver
}

// NewBus constructs a Bus with the given per-subscriber buffer size.
func NewBus(buffer int, logger *slog.Logger, metrics DropObserver) *Bus {
	if buffer <= 0 {
		buffer = 16
	}
	return &Bus{
		subs:    make(map[*Subscription]struct{}),
		buffer:  buffer,
		logger:  logger,
		metrics: metrics,
	}
}

// Publish marshals the payload and delivers it to every subscriber of the
// topic. Fire-and-forget: marshal failures are logged, never returned.
func (b *Bus) Publish(topic Topic, payload any) {
	raw, err := json.Marshal(payload)
	if err != nil {
		if b.logger != nil {
			b.logger.Error("marshal event payload", slog.String("topic", string(topic)), slog.Any("error", err))
		}
		return
	}
	evt := Event{
		ID:      uuid.NewString(),
		Topic:   topic,
		Payload: raw,
		At:      time.Now().UTC(),
	}

	b.mu.RLock()
	defer b.mu.RUnlock()
	for sub := range b.subs {
		if !sub.wants(topic) {
			continue
		}
		select {
		case sub.ch <- evt:
		default:
			if b.metrics != nil {
				b.metrics.ObserveDroppedEvent(string(topic))
			}
			if b.logger != nil {
				b.logger.Warn("subscriber buffer full, dropping event",
					slog.String("topic", string(topic)), slog.String("event_id", evt.ID))
			}
		}
	}
}

// Subscribe attaches a new subscriber. With no topics given the subscriber
// receives every topic. Events published before Subscribe returns are not
// replayed.
func (b *Bus) Subscribe(topics ...Topic) *Subscription {
	sub := &Subscription{
		bus:    b,
		ch:     make(chan Event, b.buffer),
		topics: make(map[Topic]struct{}, len(topics)),
	}
	for _, t := range topics {
		sub.topics[t] = struct{}{}
	}
	b.mu.Lock()
	b.subs[sub] = struct{}{}
	b.mu.Unlock()
	return sub
}

func (b *Bus) unsubscribe(sub *Subscription) {
	b.mu.Lock()
	delete(b.subs, sub)
	b.mu.Unlock()
}

// SubscriberCount reports the number of attached subscribers.
func (b *Bus) SubscriberCount() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.subs)
}

// Subscription is one attached observer of the bus.
type Subscription struct {
	bus    *Bus
	ch     chan Event
	topics map[Topic]struct{}
	once   sync.Once
}

// C returns the receive channel. It is closed by Close.
func (s *Subscription) C() <-chan Event {
	return s.ch
}

// Close detaches the subscription and closes its channel.
func (s *Subscription) Close() {
	s.once.Do(func() {
		s.bus.unsubscribe(s)
		close(s.ch)
	})
}

func (s *Subscription) wants(topic Topic) bool {
	if len(s.topics) == 0 {
		return true
	}
	_, ok := s.topics[topic]
	return ok
}
