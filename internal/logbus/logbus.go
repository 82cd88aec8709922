// Package logbus broadcasts orchestration events to any number of
// subscribers. Publishing never blocks: each subscriber owns a bounded
// buffer and the oldest buffered event is dropped on overflow.
package logbus

import (
	"log/slog"
	"sync"
	"time"
)

// DefaultBuffer is the per-subscriber event buffer size.
const DefaultBuffer = 64

// Fields carries structured context on an event.
type Fields map[string]any

// Event is one orchestration log entry. Events are broadcast, never
// persisted beyond the in-memory subscriber buffers.
type Event struct {
	Time    time.Time  `json:"time"`
	Level   slog.Level `json:"level"`
	Message string     `json:"message"`
	Fields  Fields     `json:"fields,omitempty"`
}

// Bus is a process-scoped broadcast channel with an explicit lifecycle.
// The zero value is not usable; construct with New.
type Bus struct {
	mu     sync.Mutex
	subs   map[int]chan Event
	nextID int
	buffer int
	closed bool
}

// New creates a Bus. If buffer <= 0, DefaultBuffer is used.
func New(buffer int) *Bus {
	if buffer <= 0 {
		buffer = DefaultBuffer
	}
	return &Bus{
		subs:   make(map[int]chan Event),
		buffer: buffer,
	}
}

// Publish broadcasts an event to all current subscribers. A zero Time is
// filled in. Publish never blocks: when a subscriber's buffer is full, its
// oldest pending event is dropped to make room (drop-oldest policy).
func (b *Bus) Publish(ev Event) {
	if ev.Time.IsZero() {
		ev.Time = time.Now().UTC()
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return
	}
	for _, ch := range b.subs {
		select {
		case ch <- ev:
		default:
			select {
			case <-ch:
			default:
			}
			select {
			case ch <- ev:
			default:
			}
		}
	}
}

// Info publishes an informational event.
func (b *Bus) Info(message string, fields Fields) {
	b.Publish(Event{Level: slog.LevelInfo, Message: message, Fields: fields})
}

// Error publishes an error-level event.
func (b *Bus) Error(message string, fields Fields) {
	b.Publish(Event{Level: slog.LevelError, Message: message, Fields: fields})
}

// Subscribe registers a new subscriber and returns its event channel plus a
// cancel function. Past events are not replayed. The channel is closed by
// cancel or by Shutdown.
func (b *Bus) Subscribe() (<-chan Event, func()) {
	b.mu.Lock()
	defer b.mu.Unlock()

	ch := make(chan Event, b.buffer)
	if b.closed {
		close(ch)
		return ch, func() {}
	}

	id := b.nextID
	b.nextID++
	b.subs[id] = ch

	cancel := func() {
		b.mu.Lock()
		defer b.mu.Unlock()
		if sub, ok := b.subs[id]; ok {
			delete(b.subs, id)
			close(sub)
		}
	}
	return ch, cancel
}

// Shutdown closes all subscriber channels and stops accepting publishes.
func (b *Bus) Shutdown() {
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
