package session

import "sync"

// Event reports a change in one session.
type Event struct {
	Session  string `json:"session"`
	Resource string `json:"resource"` // "session", "datasets", "map" or "download"
	Action   string `json:"action"`   // "created", "updated", "deleted"
	ID       string `json:"id,omitempty"`
}

// EventBus fans session events out to subscribers. A subscriber watches one
// session, or every session when subscribed with an empty id.
type EventBus struct {
	mu   sync.RWMutex
	subs map[chan Event]string
}

// NewEventBus creates a new event bus.
func NewEventBus() *EventBus {
	return &EventBus{subs: make(map[chan Event]string)}
}

// Publish sends e to the subscribers watching its session. Slow subscribers
// miss events rather than block the session.
func (b *EventBus) Publish(e Event) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	for ch, sid := range b.subs {
		if sid != "" && sid != e.Session {
			continue
		}
		select {
		case ch <- e:
		default:
		}
	}
}

// Subscribe returns a buffered channel receiving the events of session sid.
func (b *EventBus) Subscribe(sid string) chan Event {
	ch := make(chan Event, 16)
	b.mu.Lock()
	b.subs[ch] = sid
	b.mu.Unlock()
	return ch
}

// Unsubscribe removes a subscriber and closes its channel.
func (b *EventBus) Unsubscribe(ch chan Event) {
	b.mu.Lock()
	delete(b.subs, ch)
	b.mu.Unlock()
	close(ch)
}
