package live

import (
	"encoding/json"
	"sync"
	"sync/atomic"
)

// Handler receives the raw payload of an inbound event
type Handler func(data json.RawMessage)

type handlerEntry struct {
	id int64
	fn Handler
}

// Registry maps event names to handlers. It can back any Socket
// implementation.
type Registry struct {
	mu       sync.RWMutex
	seq      atomic.Int64
	handlers map[string][]handlerEntry
}

func NewRegistry() *Registry {
	return &Registry{
		handlers: make(map[string][]handlerEntry),
	}
}

// On registers fn for event and returns a function removing it again
func (r *Registry) On(event string, fn Handler) (off func()) {
	id := r.seq.Add(1)
	r.mu.Lock()
	r.handlers[event] = append(r.handlers[event], handlerEntry{id: id, fn: fn})
	r.mu.Unlock()

	return func() {
		r.mu.Lock()
		defer r.mu.Unlock()
		handlers := r.handlers[event]
		for i, h := range handlers {
			if h.id == id {
				r.handlers[event] = append(handlers[:i:i], handlers[i+1:]...)
				break
			}
		}
	}
}

// Dispatch invokes the handlers of event in registration order and returns
// how many ran
func (r *Registry) Dispatch(event string, data json.RawMessage) int {
	r.mu.RLock()
	handlers := make([]handlerEntry, len(r.handlers[event]))
	copy(handlers, r.handlers[event])
	r.mu.RUnlock()

	for _, h := range handlers {
		h.fn(data)
	}
	return len(handlers)
}
