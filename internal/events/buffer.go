package events

import (
	"sync"
)

// DefaultBufferCapacity bounds event retention per analysis session.
// A long-running analysis can emit thousands of events; the buffer is a
// bounded ring, not a log.
const DefaultBufferCapacity = 200

// Buffer is a bounded FIFO buffer of agent events. When capacity is
// exceeded the oldest events are evicted first. It is safe for concurrent
// use: the feed goroutine appends while the view reads.
type Buffer struct {
	mu sync.Mutex

	// events holds the buffered events in arrival order (bounded by capacity)
	events []*AgentEvent
	// capacity is the maximum number of events to keep
	capacity int
}

// NewBuffer creates an event buffer with the given capacity.
// Non-positive capacities fall back to DefaultBufferCapacity.
func NewBuffer(capacity int) *Buffer {
	if capacity <= 0 {
		capacity = DefaultBufferCapacity
	}
	return &Buffer{
		events:   make([]*AgentEvent, 0, capacity),
		capacity: capacity,
	}
}

// Append adds an event to the buffer, evicting the oldest entries if the
// capacity is exceeded. Nil events are ignored.
func (b *Buffer) Append(event *AgentEvent) {
	if event == nil {
		return
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	b.events = append(b.events, event)
	if len(b.events) > b.capacity {
		copy(b.events, b.events[len(b.events)-b.capacity:])
		b.events = b.events[:b.capacity]
	}
}

// Events returns a snapshot copy of the buffered events in arrival order.
func (b *Buffer) Events() []*AgentEvent {
	b.mu.Lock()
	defer b.mu.Unlock()

	out := make([]*AgentEvent, len(b.events))
	copy(out, b.events)
	return out
}

// Len returns the number of buffered events.
func (b *Buffer) Len() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.events)
}

// Capacity returns the buffer's maximum size.
func (b *Buffer) Capacity() int {
	return b.capacity
}
