// Package cache defines the memoization port used by the gap calculator and
// forecast engine, plus an in-memory TTL implementation. Engines must work
// correctly when every Get misses, so Nop is a valid wiring.
package cache

import (
	"sync"
	"time"
)

// Cache memoizes derived results by key with a per-entry TTL.
type Cache interface {
	Get(key string) (any, bool)
	Set(key string, value any, ttl time.Duration)
	Delete(key string)
}

// Nop never stores anything.
type Nop struct{}

func (Nop) Get(string) (any, bool)           { return nil, false }
func (Nop) Set(string, any, time.Duration)   {}
func (Nop) Delete(string)                    {}

type entry struct {
	value   any
	expires time.Time
}

// Memory is a mutex-guarded in-memory TTL cache.
type Memory struct {
	mu    sync.Mutex
	data  map[string]entry
	clock func() time.Time
}

// NewMemory returns an empty Memory cache.
func NewMemory() *Memory {
	return &Memory{data: map[string]entry{}, clock: time.Now}
}

// Get returns the live value for key, expiring stale entries lazily.
func (m *Memory) Get(key string) (any, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	e, ok := m.data[key]
	if !ok {
		return nil, false
	}
	if m.clock().After(e.expires) {
		delete(m.data, key)
		return nil, false
	}
	return e.value, true
}

// Set stores value for key until now+ttl. A non-positive ttl stores nothing.
func (m *Memory) Set(key string, value any, ttl time.Duration) {
	if ttl <= 0 {
		return
	}
	m.mu.Lock()
	m.data[key] = entry{value: value, expires: m.clock().Add(ttl)}
	m.mu.Unlock()
}

// Delete removes key immediately. Used by explicit invalidation signals.
func (m *Memory) Delete(key string) {
	m.mu.Lock()
	delete(m.data, key)
	m.mu.Unlock()
}
