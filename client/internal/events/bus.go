// Package events is the in-process change feed that lets consumers react to
// store mutations without polling.
package events

import "sync"

// EventKind represents the type of change a store produced.
type EventKind string

const (
	EventSessionChanged      EventKind = "session_changed"
	EventConversationChanged EventKind = "conversation_changed"
	EventMessageAdded        EventKind = "message_added"
	EventMessagesRead        EventKind = "messages_read"
	EventTicketChanged       EventKind = "ticket_changed"
)

// Event carries only the identifier; consumers read the current value from
// the owning store.
type Event struct {
	Kind EventKind
	ID   string
}

// Bus is a lightweight in-process pub-sub. Each subscriber gets its own
// buffered channel; a slow subscriber loses events rather than blocking the
// publishing store.
type Bus struct {
	mu     sync.RWMutex
	subs   map[int]chan Event
	next   int
	buffer int
	closed bool
}

// NewBus creates a bus whose subscriber channels hold buffer events.
func NewBus(buffer int) *Bus {
	if buffer <= 0 {
		buffer = 64
	}
	return &Bus{subs: make(map[int]chan Event), buffer: buffer}
}

// Publish offers evt to every subscriber without blocking and returns how
// many accepted it. A nil bus accepts nothing.
func (b *Bus) Publish(evt Event) int {
	if b == nil {
		return 0
	}
	b.mu.RLock()
	defer b.mu.RUnlock()
	delivered := 0
	for _, ch := range b.subs {
		select {
		case ch <- evt:
			delivered++
		default:
		}
	}
	return delivered
}

// Subscribe returns a read-only channel of future events and a cancel func
// that unsubscribes and closes it. After Close the channel is already closed.
func (b *Bus) Subscribe() (<-chan Event, func()) {
	ch := make(chan Event, b.buffer)
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		close(ch)
		return ch, func() {}
	}
	id := b.next
	b.next++
	b.subs[id] = ch

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			b.mu.Lock()
			defer b.mu.Unlock()
			if c, ok := b.subs[id]; ok {
				delete(b.subs, id)
				close(c)
			}
		})
	}
}

// Close closes every subscriber channel. Later publishes are dropped.
func (b *Bus) Close() {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return
	}
	b.closed = true
	for id, ch := range b.subs {
		delete(b.subs, id)
		close(ch)
	}
}
