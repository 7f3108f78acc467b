package memory

import (
	"sync"
	"time"
)

// EventType classifies bank events published to the broker.
type EventType string

// Event types emitted by the bank.
const (
	EventTurnAdded      EventType = "turn_added"
	EventFactsExtracted EventType = "facts_extracted"
	EventSearchServed   EventType = "search_served"
)

// Event describes one bank operation, suitable for live feeds.
type Event struct {
	Type      EventType `json:"type"`
	UserID    string    `json:"user_id"`
	SessionID string    `json:"session_id,omitempty"`
	Count     int       `json:"count,omitempty"`
	Degraded  bool      `json:"degraded,omitempty"`
	At        time.Time `json:"at"`
}

// Broker fans bank events out to subscribers. Delivery is best-effort:
// a subscriber whose buffer is full misses the event rather than
// blocking a bank operation.
type Broker struct {
	mu   sync.Mutex
	next int
	subs map[int]chan Event
}

// NewBroker creates an empty broker.
func NewBroker() *Broker {
	return &Broker{subs: make(map[int]chan Event)}
}

// Subscribe returns a buffered event channel and a cancel function that
// removes the subscription and closes the channel.
func (b *Broker) Subscribe() (<-chan Event, func()) {
	b.mu.Lock()
	defer b.mu.Unlock()

	id := b.next
	b.next++
	ch := make(chan Event, 16)
	b.subs[id] = ch

	cancel := func() {
		b.mu.Lock()
		defer b.mu.Unlock()
		if c, ok := b.subs[id]; ok {
			delete(b.subs, id)
			close(c)
		}
	}
	return ch, cancel
}

// Publish sends the event to all current subscribers without blocking.
func (b *Broker) Publish(evt Event) {
	b.mu.Lock()
	defer b.mu.Unlock()
	for _, ch := range b.subs {
		select {
		case ch <- evt:
		default:
		}
	}
}
