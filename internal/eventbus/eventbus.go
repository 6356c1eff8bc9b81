// Package eventbus fans out scenario-change notifications to in-process
// subscribers, such as the cache invalidation hook in app.Service.
package eventbus

import "sync"

// Change names the kind of scenario write that occurred.
type Change string

const (
	ChangeAllocations Change = "allocations"
	ChangeAssumptions Change = "assumptions"
	ChangePriorities  Change = "priorities"
)

// ScenarioEvent signals that a scenario's derived results are stale.
type ScenarioEvent struct {
	ScenarioID string
	Change     Change
}

// Bus is a publish/subscribe fan-out for scenario events.
type Bus struct {
	mu     sync.RWMutex
	subs   []chan ScenarioEvent
	closed bool
}

// New creates a new Bus.
func New() *Bus { return &Bus{} }

// Publish sends the event to all subscribers. Delivery is non-blocking: a
// subscriber with a full buffer misses the event rather than stalling the
// writer.
func (b *Bus) Publish(e ScenarioEvent) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	if b.closed {
		return
	}
	for _, ch := range b.subs {
		select {
		case ch <- e:
		default:
		}
	}
}

// Subscribe registers a subscriber and returns its channel.
func (b *Bus) Subscribe() <-chan ScenarioEvent {
	ch := make(chan ScenarioEvent, 8)
	b.mu.Lock()
	if b.closed {
		close(ch)
	} else {
		b.subs = append(b.subs, ch)
	}
	b.mu.Unlock()
	return ch
}

// Unsubscribe removes the subscriber and closes its channel.
func (b *Bus) Unsubscribe(sub <-chan ScenarioEvent) {
	b.mu.Lock()
	defer b.mu.Unlock()
	for i, ch := range b.subs {
		if ch == sub {
			b.subs = append(b.subs[:i], b.subs[i+1:]...)
			if !b.closed {
				close(ch)
			}
			return
		}
	}
}

// Close closes all subscriber channels and clears the list.
func (b *Bus) Close() {
	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		return
	}
	b.closed = true
	for _, ch := range b.subs {
		close(ch)
	}
	b.subs = nil
	b.mu.Unlock()
}
