package client_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"github.com/vango-dev/vdiff/internal/logging"
	"github.com/vango-dev/vdiff/pkg/client"
	"github.com/vango-dev/vdiff/pkg/host"
	"github.com/vango-dev/vdiff/pkg/protocol"
	"github.com/vango-dev/vdiff/pkg/vdom"
)

// fakeServer upgrades one connection, writes frames and forwards the events
// it reads.
type fakeServer struct {
	*httptest.Server
	frames chan *protocol.Frame
	events chan *protocol.Event
}

func newFakeServer(t *testing.T) *fakeServer {
	t.Helper()
	fs := &fakeServer{
		frames: make(chan *protocol.Frame, 8),
		events: make(chan *protocol.Event, 8),
	}
	upgrader := websocket.Upgrader{}
	fs.Server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, http.Header{client.SessionHeader: {"sess-1"}})
		if err != nil {
			return
		}
		defer conn.Close()

		go func() {
			for f := range fs.frames {
				if conn.WriteMessage(websocket.BinaryMessage, f.Encode()) != nil {
					return
				}
			}
			conn.WriteMessage(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
		}()
		for {
			_, msg, err := conn.ReadMessage()
			if err != nil {
				return
			}
			f, err := protocol.DecodeFrame(msg)
			if err != nil || f.Type != protocol.FrameEvent {
				continue
			}
			if ev, err := protocol.DecodeEvent(f.Payload); err == nil {
				fs.events <- ev
			}
		}
	}))
	t.Cleanup(fs.Close)
	return fs
}

func (fs *fakeServer) url() string {
	return "ws" + strings.TrimPrefix(fs.URL, "http")
}

func (fs *fakeServer) sendDeltas(seq uint64, build func(s vdom.Sink)) {
	var w host.Wire
	build(&w)
	fs.frames <- &protocol.Frame{
		Type:    protocol.FrameDeltas,
		Flags:   protocol.FlagFinal,
		Payload: protocol.EncodeDeltas(&protocol.DeltasFrame{Seq: seq, Deltas: w.Take()}),
	}
}

func testContext(t *testing.T) context.Context {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	t.Cleanup(cancel)
	return ctx
}

func dial(t *testing.T, fs *fakeServer, opts ...client.Option) *client.Client {
	t.Helper()
	opts = append(opts, client.WithLogger(logging.NewNop()))
	c, err := client.Dial(testContext(t), fs.url(), opts...)
	if err != nil {
		t.Fatalf("Dial() error: %v", err)
	}
	t.Cleanup(func() { c.Close() })
	return c
}

func TestClientAppliesDeltas(t *testing.T) {
	fs := newFakeServer(t)
	c := dial(t, fs)
	ctx := testContext(t)

	if c.SessionID() != "sess-1" {
		t.Errorf("SessionID() = %q, want sess-1", c.SessionID())
	}

	fs.sendDeltas(1, func(s vdom.Sink) {
		s.AppendNode(vdom.None, 1, "button")
		s.ApplyStyle(1, "color", "red")
		s.AttachEvent(1, "click", true, false, 7)
		s.AppendNode(1, 2, vdom.TextTag)
		s.SetText(2, "go")
	})
	if err := c.WaitSeq(ctx, 1); err != nil {
		t.Fatalf("WaitSeq() error: %v", err)
	}

	got, err := c.Markup(ctx)
	if err != nil {
		t.Fatalf("Markup() error: %v", err)
	}
	want := "button style=\"color:red\" on=\"click:7+prevent\"\n  #text \"go\"\n"
	if got != want {
		t.Errorf("Markup() =\n%s\nwant:\n%s", got, want)
	}

	if err := c.Fire(ctx, 1, "click", map[string]string{"x": "1"}); err != nil {
		t.Fatalf("Fire() error: %v", err)
	}
	select {
	case ev := <-fs.events:
		if ev.Node != 1 || ev.Name != "click" || ev.Handler != 7 || ev.Data["x"] != "1" || ev.Seq != 1 {
			t.Errorf("event = %+v, want click on 1 with handler 7", ev)
		}
	case <-ctx.Done():
		t.Fatal("server got no event")
	}
}

func TestClientWaitForSeesLaterFrames(t *testing.T) {
	fs := newFakeServer(t)
	c := dial(t, fs)
	ctx := testContext(t)

	done := make(chan error, 1)
	go func() {
		done <- c.WaitFor(ctx, func(m *host.Mirror) bool { return m.Len() == 2 })
	}()

	fs.sendDeltas(1, func(s vdom.Sink) { s.AppendNode(vdom.None, 1, "ul") })
	fs.sendDeltas(2, func(s vdom.Sink) { s.AppendNode(1, 2, "li") })

	if err := <-done; err != nil {
		t.Fatalf("WaitFor() error: %v", err)
	}
	if c.Seq() != 2 {
		t.Errorf("Seq() = %d, want 2", c.Seq())
	}
}

func TestClientRecordsErrorFrames(t *testing.T) {
	fs := newFakeServer(t)
	got := make(chan *protocol.ErrorMessage, 1)
	c := dial(t, fs, client.OnError(func(em *protocol.ErrorMessage) { got <- em }))
	ctx := testContext(t)

	fs.frames <- protocol.NewFrame(protocol.FrameError,
		protocol.EncodeErrorMessage(protocol.NewError(protocol.ErrUnknownHandler, "stale")))

	select {
	case em := <-got:
		if em.Code != protocol.ErrUnknownHandler || em.Message != "stale" {
			t.Errorf("OnError() got %v", em)
		}
	case <-ctx.Done():
		t.Fatal("OnError not called")
	}
	if last := c.LastError(); last == nil || last.Message != "stale" {
		t.Errorf("LastError() = %v, want stale", last)
	}
}

func TestClientFireWithoutListener(t *testing.T) {
	fs := newFakeServer(t)
	c := dial(t, fs)
	ctx := testContext(t)

	fs.sendDeltas(1, func(s vdom.Sink) { s.AppendNode(vdom.None, 1, "div") })
	if err := c.WaitSeq(ctx, 1); err != nil {
		t.Fatalf("WaitSeq() error: %v", err)
	}
	if err := c.Fire(ctx, 1, "click", nil); err == nil {
		t.Error("Fire() without a listener should fail")
	}
}

func TestClientWaitForTimesOut(t *testing.T) {
	fs := newFakeServer(t)
	c := dial(t, fs)

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	err := c.WaitFor(ctx, func(m *host.Mirror) bool { return false })
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("WaitFor() error = %v, want DeadlineExceeded", err)
	}
}

func TestClientClose(t *testing.T) {
	fs := newFakeServer(t)
	c := dial(t, fs)

	if err := c.Close(); err != nil {
		t.Errorf("Close() error: %v", err)
	}
	if err := c.Close(); err != nil {
		t.Errorf("second Close() error: %v", err)
	}
	if err := c.Send(&protocol.Event{Node: 1, Name: "click"}); !errors.Is(err, client.ErrClosed) {
		t.Errorf("Send() after Close = %v, want ErrClosed", err)
	}
	ctx := testContext(t)
	if err := c.WaitFor(ctx, func(*host.Mirror) bool { return true }); !errors.Is(err, client.ErrClosed) {
		t.Errorf("WaitFor() after Close = %v, want ErrClosed", err)
	}
}

func TestClientEndsWhenServerCloses(t *testing.T) {
	fs := newFakeServer(t)
	c := dial(t, fs)
	close(fs.frames)

	select {
	case <-c.Done():
	case <-testContext(t).Done():
		t.Fatal("client did not notice the close")
	}
	if c.Err() == nil {
		t.Error("Err() = nil after the server closed")
	}
}

func TestDialFailure(t *testing.T) {
	ts := httptest.NewServer(http.NotFoundHandler())
	defer ts.Close()

	_, err := client.Dial(testContext(t), "ws"+strings.TrimPrefix(ts.URL, "http"))
	if err == nil {
		t.Fatal("Dial() to a non-websocket endpoint should fail")
	}
}
