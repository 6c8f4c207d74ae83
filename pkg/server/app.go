package server

import "github.com/vango-dev/vdiff/pkg/vdom"

// App renders the tree of one session.
//
// Render builds a complete new tree in a and returns its root, or vdom.None
// for an empty surface. It must not reuse nodes from earlier renders unless
// they stay at the same position. Event descriptors reference ids from h.
type App interface {
	Render(a *vdom.Arena, h *Handlers) vdom.ID
}

// AppFunc adapts a function to App.
type AppFunc func(a *vdom.Arena, h *Handlers) vdom.ID

// Render calls f.
func (f AppFunc) Render(a *vdom.Arena, h *Handlers) vdom.ID { return f(a, h) }

// AppFactory creates the App for a new session.
type AppFactory func(s *Session) App
