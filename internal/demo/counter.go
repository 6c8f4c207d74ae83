// Package demo is the counter app served by vdiff serve.
package demo

import (
	"context"
	"time"

	"github.com/vango-dev/vdiff/pkg/server"
	"github.com/vango-dev/vdiff/pkg/vdom"
)

// Counter is a counter with increment and decrement buttons. The count turns
// red below zero.
type Counter struct {
	Count int
	Ticks int
}

// Render implements server.App.
func (c *Counter) Render(a *vdom.Arena, h *server.Handlers) vdom.ID {
	color := "black"
	if c.Count < 0 {
		color = "red"
	}

	inc := h.Bind("inc", func(server.Event) { c.Count++ })
	dec := h.Bind("dec", func(server.Event) { c.Count-- })

	var reset any
	if c.Count != 0 {
		reset = a.El("button",
			vdom.On("click", h.Bind("reset", func(server.Event) { c.Count = 0 }), vdom.PreventDefault()),
			"reset")
	}
	var ticks any
	if c.Ticks > 0 {
		ticks = a.El("small", a.Textf("ticks: %d", c.Ticks))
	}

	return a.El("div",
		vdom.Style("display", "flex"),
		a.El("button", vdom.On("click", dec), "-"),
		a.El("span", vdom.Style("color", color), a.Textf("%d", c.Count)),
		a.El("button", vdom.On("click", inc), "+"),
		reset,
		ticks,
	)
}

// Factory returns a server.AppFactory for counters. With a positive tick
// each session's counter also counts ticks, pushed through Session.Dispatch.
func Factory(tick time.Duration) server.AppFactory {
	return func(s *server.Session) server.App {
		c := &Counter{}
		if tick > 0 {
			go Tick(s.Done(), s, tick, func() { c.Ticks++ })
		}
		return c
	}
}

// Dispatcher runs a state change on a session's bridge goroutine.
type Dispatcher interface {
	Dispatch(fn func()) error
}

// Tick calls fn through d every interval until done is closed or d stops
// accepting work.
func Tick(done <-chan struct{}, d Dispatcher, interval time.Duration, fn func()) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-done:
			return
		case <-ticker.C:
			if err := d.Dispatch(fn); err != nil {
				return
			}
		}
	}
}

// Run serves counters until ctx is done.
func Run(ctx context.Context, addr string, tick time.Duration, cfg *server.Config) error {
	return server.New(Factory(tick), cfg).ListenAndServe(ctx, addr)
}
