package events

import "sync"

// PublishEvents is an interface for shipping drained queue events to
// downstream consumers (settlement, market data feeds, analytics).
//
// Implementations may hold on to the events they receive: decoded events own
// copies of their callback bytes, so they stay valid after the queue slot
// they came from is reused.
type PublishEvents interface {
	Publish(...Event)
}

// MemoryPublishEvents stores events in memory, useful for testing.
type MemoryPublishEvents struct {
	mu     sync.RWMutex
	Events []Event
}

// NewMemoryPublishEvents creates a new MemoryPublishEvents.
func NewMemoryPublishEvents() *MemoryPublishEvents {
	return &MemoryPublishEvents{
		Events: make([]Event, 0),
	}
}

// Publish appends events to the in-memory slice.
func (m *MemoryPublishEvents) Publish(events ...Event) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Events = append(m.Events, events...)
}

// Count returns the number of events stored.
func (m *MemoryPublishEvents) Count() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.Events)
}

// Get returns the event at the specified index.
func (m *MemoryPublishEvents) Get(index int) Event {
	m.mu.RLock()
	defer m.mu.RUnlock()

	return m.Events[index]
}

// All returns a copy of all events stored.
func (m *MemoryPublishEvents) All() []Event {
	m.mu.RLock()
	defer m.mu.RUnlock()

	events := make([]Event, len(m.Events))
	copy(events, m.Events)
	return events
}

// DiscardPublishEvents discards all events, useful for benchmarking.
type DiscardPublishEvents struct {
}

// NewDiscardPublishEvents creates a new DiscardPublishEvents.
func NewDiscardPublishEvents() *DiscardPublishEvents {
	return &DiscardPublishEvents{}
}

// Publish does nothing.
func (p *DiscardPublishEvents) Publish(events ...Event) {

}
