package cartsync

import (
	"context"
	"sync"
)

// MemoryBroker is an in-process broadcast medium. Each Context behaves like
// one browser tab sharing a storage area: a write becomes visible to every
// context through Get, and change events are delivered synchronously to all
// contexts except the writer, mirroring storage-event semantics. Useful for
// tests and single-process multi-session setups.
type MemoryBroker struct {
	mu       sync.Mutex
	values   map[string]string
	contexts []*memoryMedium
}

// NewMemoryBroker constructs an empty broker.
func NewMemoryBroker() *MemoryBroker {
	return &MemoryBroker{values: make(map[string]string)}
}

// Context creates a new execution context attached to the broker.
func (b *MemoryBroker) Context() Medium {
	b.mu.Lock()
	defer b.mu.Unlock()

	m := &memoryMedium{broker: b, handlers: make(map[int]func(key, value string))}
	b.contexts = append(b.contexts, m)
	return m
}

func (b *MemoryBroker) set(origin *memoryMedium, key, value string) {
	b.mu.Lock()
	b.values[key] = value
	var targets []func(key, value string)
	for _, ctx := range b.contexts {
		if ctx == origin {
			continue
		}
		targets = append(targets, ctx.snapshotHandlers()...)
	}
	b.mu.Unlock()

	for _, handler := range targets {
		handler(key, value)
	}
}

func (b *MemoryBroker) get(key string) (string, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	value, ok := b.values[key]
	return value, ok
}

type memoryMedium struct {
	broker *MemoryBroker

	mu       sync.Mutex
	nextID   int
	handlers map[int]func(key, value string)
}

func (m *memoryMedium) Get(_ context.Context, key string) (string, bool, error) {
	value, ok := m.broker.get(key)
	return value, ok, nil
}

func (m *memoryMedium) Set(_ context.Context, key, value string) error {
	m.broker.set(m, key, value)
	return nil
}

func (m *memoryMedium) Subscribe(handler func(key, value string)) (func(), error) {
	m.mu.Lock()
	m.nextID++
	id := m.nextID
	m.handlers[id] = handler
	m.mu.Unlock()

	return func() {
		m.mu.Lock()
		defer m.mu.Unlock()
		delete(m.handlers, id)
	}, nil
}

func (m *memoryMedium) snapshotHandlers() []func(key, value string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	out := make([]func(key, value string), 0, len(m.handlers))
	for _, handler := range m.handlers {
		out = append(out, handler)
	}
	return out
}
