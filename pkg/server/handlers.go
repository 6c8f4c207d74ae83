package server

import "github.com/vango-dev/vdiff/pkg/vdom"

// Event is a client event delivered to a Handler.
type Event struct {
	Node vdom.ID
	Name string
	Data map[string]string
}

// Handler handles a client event. It runs on the session's bridge goroutine
// and may freely mutate app state; the session re-renders afterwards.
type Handler func(Event)

// Handlers maps handler ids to functions for one session. It is used from
// the session's bridge goroutine only.
type Handlers struct {
	next  vdom.HandlerID
	fns   map[vdom.HandlerID]Handler
	keys  map[string]vdom.HandlerID
	names map[vdom.HandlerID]string
}

// NewHandlers creates an empty registry.
func NewHandlers() *Handlers {
	return &Handlers{
		fns:   make(map[vdom.HandlerID]Handler),
		keys:  make(map[string]vdom.HandlerID),
		names: make(map[vdom.HandlerID]string),
	}
}

// Bind returns the id bound to key, registering fn under a new id on first
// use. Later calls keep the id and swap in fn, so a tree that re-renders with
// Bind produces unchanged event descriptors.
func (h *Handlers) Bind(key string, fn Handler) vdom.HandlerID {
	if fn == nil {
		panic("server: Bind with nil handler")
	}
	if id, ok := h.keys[key]; ok {
		h.fns[id] = fn
		return id
	}
	id := h.Register(fn)
	h.keys[key] = id
	h.names[id] = key
	return id
}

// Register stores fn under a fresh id.
func (h *Handlers) Register(fn Handler) vdom.HandlerID {
	if fn == nil {
		panic("server: Register with nil handler")
	}
	h.next++
	h.fns[h.next] = fn
	return h.next
}

// Lookup returns the handler for id.
func (h *Handlers) Lookup(id vdom.HandlerID) (Handler, bool) {
	fn, ok := h.fns[id]
	return fn, ok
}

// Release forgets id. A key bound to it gets a new id on its next Bind.
func (h *Handlers) Release(id vdom.HandlerID) {
	delete(h.fns, id)
	if key, ok := h.names[id]; ok {
		delete(h.keys, key)
		delete(h.names, id)
	}
}

// Len returns the number of live handlers.
func (h *Handlers) Len() int { return len(h.fns) }
