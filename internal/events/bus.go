// Package events is the engine's event bus. Listeners are registered under a
// (event, name) pair; registering the same pair twice is a no-op, so a
// disconnect/reconnect cycle never produces duplicate side effects.
package events

import (
	"sync"

	"github.com/rs/zerolog"
)

// Payload is the data delivered with an event. Emit never alters it, so a
// forwarded event arrives with the exact shape it was emitted with.
type Payload map[string]any

// Handler receives the event name and its payload.
type Handler func(event string, payload Payload)

type Bus struct {
	mu        sync.RWMutex
	listeners map[string]map[string]Handler
	forwards  []*Bus
	log       zerolog.Logger
}

func New(logger zerolog.Logger) *Bus {
	return &Bus{
		listeners: make(map[string]map[string]Handler),
		log:       logger,
	}
}

// On registers a named listener for an event. Returns false without
// replacing when a listener with the same name is already registered.
func (b *Bus) On(event, name string, fn Handler) bool {
	b.mu.Lock()
	defer b.mu.Unlock()

	byName, ok := b.listeners[event]
	if !ok {
		byName = make(map[string]Handler)
		b.listeners[event] = byName
	}
	if _, exists := byName[name]; exists {
		b.log.Debug().Str("event", event).Str("listener", name).Msg("Listener already registered, skipping")
		return false
	}
	byName[name] = fn
	return true
}

// Off removes a named listener.
func (b *Bus) Off(event, name string) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if byName, ok := b.listeners[event]; ok {
		delete(byName, name)
		if len(byName) == 0 {
			delete(b.listeners, event)
		}
	}
}

// Emit delivers the event to all listeners and relays it to forwarded buses.
// Handlers run synchronously on the caller's goroutine.
func (b *Bus) Emit(event string, payload Payload) {
	b.mu.RLock()
	handlers := make([]Handler, 0, len(b.listeners[event]))
	for _, fn := range b.listeners[event] {
		handlers = append(handlers, fn)
	}
	forwards := make([]*Bus, len(b.forwards))
	copy(forwards, b.forwards)
	b.mu.RUnlock()

	for _, fn := range handlers {
		fn(event, payload)
	}
	for _, target := range forwards {
		target.Emit(event, payload)
	}
}

// Forward relays every event emitted on this bus to the target bus without
// altering the payload. A forward that would close a cycle (the target
// already reaches this bus) is dropped, since Emit would recurse forever.
func (b *Bus) Forward(target *Bus) {
	if target == b || target.reaches(b) {
		b.log.Warn().Msg("Forward would create a cycle, ignoring")
		return
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	b.forwards = append(b.forwards, target)
}

// reaches reports whether events emitted on b can arrive at target through
// the forward graph.
func (b *Bus) reaches(target *Bus) bool {
	visited := make(map[*Bus]bool)
	stack := []*Bus{b}
	for len(stack) > 0 {
		cur := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if cur == target {
			return true
		}
		if visited[cur] {
			continue
		}
		visited[cur] = true
		cur.mu.RLock()
		stack = append(stack, cur.forwards...)
		cur.mu.RUnlock()
	}
	return false
}

// RemoveAll drops every listener and forward target. Used at shutdown.
func (b *Bus) RemoveAll() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.listeners = make(map[string]map[string]Handler)
	b.forwards = nil
}
