package demo

import (
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/vango-dev/vdiff/pkg/host"
	"github.com/vango-dev/vdiff/pkg/server"
	"github.com/vango-dev/vdiff/pkg/vdom"
	"github.com/vango-dev/vdiff/pkg/vtest"
)

// harness renders a Counter into a Mirror the way a session does.
type harness struct {
	t        *testing.T
	counter  *Counter
	arena    *vdom.Arena
	handlers *server.Handlers
	mirror   *host.Mirror
	root     vdom.ID
}

func newHarness(t *testing.T) *harness {
	h := &harness{
		t:        t,
		counter:  &Counter{},
		arena:    vdom.NewArena(),
		handlers: server.NewHandlers(),
		mirror:   host.NewMirror(),
	}
	h.render()
	return h
}

func (h *harness) render() {
	next := h.counter.Render(h.arena, h.handlers)
	h.arena.Diff(h.mirror, vdom.None, h.root, next)
	h.root = next
	if err := h.mirror.Err(); err != nil {
		h.t.Fatalf("mirror error: %v", err)
	}
	vtest.ExpectMirror(h.t, h.mirror, h.arena, h.root)
}

func (h *harness) click(text string) {
	h.t.Helper()
	e, ok := h.mirror.Find(func(e *host.Element) bool {
		return e.Tag == "button" && h.mirror.TextOf(e.ID) == text
	})
	if !ok {
		h.t.Fatalf("no %q button in\n%s", text, h.mirror.Markup())
	}
	fn, ok := h.handlers.Lookup(e.Listeners["click"].Handler)
	if !ok {
		h.t.Fatalf("%q button has no registered handler", text)
	}
	fn(server.Event{Node: e.ID, Name: "click"})
	h.render()
}

func TestCounterRender(t *testing.T) {
	h := newHarness(t)
	vtest.ExpectMarkup(t, h.mirror.Markup(), `div style="display:flex"
  button on="click:2"
    #text "-"
  span style="color:black"
    #text "0"
  button on="click:1"
    #text "+"
`)
}

func TestCounterClicks(t *testing.T) {
	h := newHarness(t)

	h.click("+")
	h.click("+")
	if h.counter.Count != 2 {
		t.Errorf("Count = %d, want 2", h.counter.Count)
	}
	vtest.ExpectContains(t, h.mirror.Markup(), `button on="click:3+prevent"`)

	h.click("reset")
	h.click("-")
	if h.counter.Count != -1 {
		t.Errorf("Count = %d, want -1", h.counter.Count)
	}
	vtest.ExpectContains(t, h.mirror.Markup(), `span style="color:red"`)
}

func TestCounterShowsTicks(t *testing.T) {
	h := newHarness(t)
	h.counter.Ticks = 3
	h.render()
	vtest.ExpectContains(t, h.mirror.Markup(), `#text "ticks: 3"`)
}

type fakeDispatcher struct {
	mu    sync.Mutex
	calls int
	fail  int
}

func (d *fakeDispatcher) Dispatch(fn func()) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.fail > 0 && d.calls >= d.fail {
		return errors.New("closed")
	}
	d.calls++
	fn()
	return nil
}

func TestTickStopsWhenDispatchFails(t *testing.T) {
	d := &fakeDispatcher{fail: 3}
	ticks := 0
	finished := make(chan struct{})
	go func() {
		Tick(make(chan struct{}), d, time.Millisecond, func() { ticks++ })
		close(finished)
	}()

	select {
	case <-finished:
	case <-time.After(5 * time.Second):
		t.Fatal("Tick did not stop")
	}
	if ticks != 3 {
		t.Errorf("ticks = %d, want 3", ticks)
	}
}

func TestTickStopsWhenDone(t *testing.T) {
	done := make(chan struct{})
	finished := make(chan struct{})
	go func() {
		Tick(done, &fakeDispatcher{}, time.Hour, func() {})
		close(finished)
	}()
	close(done)

	select {
	case <-finished:
	case <-time.After(5 * time.Second):
		t.Fatal("Tick did not stop")
	}
}
