package client

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"sync/atomic"

	"github.com/gorilla/websocket"

	"github.com/vango-dev/vdiff/pkg/bridge"
	"github.com/vango-dev/vdiff/pkg/host"
	"github.com/vango-dev/vdiff/pkg/protocol"
	"github.com/vango-dev/vdiff/pkg/vdom"
)

// SessionHeader carries the session id in the handshake response.
const SessionHeader = "X-Vdiff-Session"

// ErrClosed is returned after the connection has ended.
var ErrClosed = errors.New("client: closed")

// Client is a connection to a vdiff server.
type Client struct {
	conn      *websocket.Conn
	sessionID string
	logger    *slog.Logger
	onError   func(*protocol.ErrorMessage)

	bridge *bridge.Bridge
	mirror *host.Mirror // bridge goroutine only

	mu      sync.Mutex
	seq     uint64
	lastErr *protocol.ErrorMessage
	notify  chan struct{}
	readErr error

	eventSeq atomic.Uint64
	writeMu  sync.Mutex
	closed   atomic.Bool
	done     chan struct{}
}

// Option configures a Client.
type Option func(*options)

type options struct {
	logger  *slog.Logger
	header  http.Header
	dialer  *websocket.Dialer
	onError func(*protocol.ErrorMessage)
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(o *options) { o.logger = logger }
}

// WithHeader adds headers to the handshake request.
func WithHeader(h http.Header) Option {
	return func(o *options) { o.header = h }
}

// WithDialer replaces websocket.DefaultDialer.
func WithDialer(d *websocket.Dialer) Option {
	return func(o *options) { o.dialer = d }
}

// OnError registers a callback for error frames. It runs on the client's
// bridge goroutine, in frame order.
func OnError(fn func(*protocol.ErrorMessage)) Option {
	return func(o *options) { o.onError = fn }
}

// Dial connects to the websocket endpoint at url.
func Dial(ctx context.Context, url string, opts ...Option) (*Client, error) {
	o := options{logger: slog.Default(), dialer: websocket.DefaultDialer}
	for _, opt := range opts {
		opt(&o)
	}

	conn, resp, err := o.dialer.DialContext(ctx, url, o.header)
	if err != nil {
		return nil, fmt.Errorf("client: dial %s: %w", url, err)
	}
	sessionID := resp.Header.Get(SessionHeader)

	c := &Client{
		conn:      conn,
		sessionID: sessionID,
		logger:    o.logger.With("session_id", sessionID),
		onError:   o.onError,
		mirror:    host.NewMirror(),
		notify:    make(chan struct{}),
		done:      make(chan struct{}),
	}
	c.bridge = bridge.New(bridge.WithLogger(c.logger))

	go func() {
		if err := c.bridge.Run(context.Background()); err != nil {
			c.logger.Error("bridge loop stopped", "error", err)
		}
	}()
	go c.readLoop()
	return c, nil
}

func (c *Client) readLoop() {
	defer close(c.done)
	defer c.bridge.Close()

	for {
		_, msg, err := c.conn.ReadMessage()
		if err != nil {
			c.mu.Lock()
			c.readErr = err
			c.mu.Unlock()
			c.wake()
			return
		}
		frame, err := protocol.DecodeFrame(msg)
		if err != nil {
			c.logger.Warn("invalid frame", "error", err)
			continue
		}

		switch frame.Type {
		case protocol.FrameDeltas:
			df, err := protocol.DecodeDeltas(frame.Payload)
			if err != nil {
				c.logger.Warn("invalid deltas frame", "error", err)
				continue
			}
			c.bridge.Submit(c.applyDeltas, df)
		case protocol.FrameError:
			em, err := protocol.DecodeErrorMessage(frame.Payload)
			if err != nil {
				c.logger.Warn("invalid error frame", "error", err)
				continue
			}
			c.bridge.Submit(c.applyError, em)
		default:
			c.logger.Warn("unexpected frame", "type", frame.Type.String())
		}
	}
}

func (c *Client) applyDeltas(payload any) {
	df := payload.(*protocol.DeltasFrame)
	if err := host.Replay(c.mirror, df.Deltas); err != nil {
		c.logger.Error("replay failed", "seq", df.Seq, "error", err)
	}

	c.mu.Lock()
	if df.Seq != c.seq+1 {
		c.logger.Warn("deltas out of sequence", "seq", df.Seq, "last", c.seq)
	}
	c.seq = df.Seq
	c.mu.Unlock()
	c.wake()
}

func (c *Client) applyError(payload any) {
	em := payload.(*protocol.ErrorMessage)
	c.logger.Debug("server error", "code", em.Code.String(), "message", em.Message)

	c.mu.Lock()
	c.lastErr = em
	c.mu.Unlock()
	if c.onError != nil {
		c.onError(em)
	}
	c.wake()
}

// wake releases every WaitFor blocked on the current notify channel.
func (c *Client) wake() {
	c.mu.Lock()
	close(c.notify)
	c.notify = make(chan struct{})
	c.mu.Unlock()
}

// SessionID returns the id the server assigned.
func (c *Client) SessionID() string { return c.sessionID }

// Seq returns the sequence number of the last applied deltas frame.
func (c *Client) Seq() uint64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.seq
}

// LastError returns the last error frame received, if any.
func (c *Client) LastError() *protocol.ErrorMessage {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.lastErr
}

// Err returns the error that ended the read loop, or nil while connected.
func (c *Client) Err() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.readErr
}

// Send writes an event frame. A zero ev.Seq is numbered by the client.
func (c *Client) Send(ev *protocol.Event) error {
	if c.closed.Load() {
		return ErrClosed
	}
	if ev.Seq == 0 {
		ev.Seq = c.eventSeq.Add(1)
	}
	f := protocol.NewFrame(protocol.FrameEvent, protocol.EncodeEvent(ev))

	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	return c.conn.WriteMessage(websocket.BinaryMessage, f.Encode())
}

// Fire sends event name on node with the handler currently attached there.
func (c *Client) Fire(ctx context.Context, node vdom.ID, name string, data map[string]string) error {
	var (
		l  host.Listener
		ok bool
	)
	if err := c.Do(ctx, func(m *host.Mirror) { l, ok = m.Listener(node, name) }); err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("client: no %s listener at node %d", name, node)
	}
	return c.Send(&protocol.Event{
		Node:    uint64(node),
		Name:    name,
		Handler: uint64(l.Handler),
		Data:    data,
	})
}

// Do runs fn with the mirror on the client's bridge goroutine.
func (c *Client) Do(ctx context.Context, fn func(m *host.Mirror)) error {
	err := c.bridge.Do(ctx, func() { fn(c.mirror) })
	if errors.Is(err, bridge.ErrClosed) {
		return ErrClosed
	}
	return err
}

// Markup returns the mirror's markup.
func (c *Client) Markup(ctx context.Context) (string, error) {
	var out string
	err := c.Do(ctx, func(m *host.Mirror) { out = m.Markup() })
	return out, err
}

// WaitFor blocks until cond holds for the mirror, checking after every
// applied frame. It returns ErrClosed if the connection ends first.
func (c *Client) WaitFor(ctx context.Context, cond func(m *host.Mirror) bool) error {
	for {
		c.mu.Lock()
		notify := c.notify
		c.mu.Unlock()

		var ok bool
		if err := c.Do(ctx, func(m *host.Mirror) { ok = cond(m) }); err != nil {
			return err
		}
		if ok {
			return nil
		}

		select {
		case <-notify:
		case <-c.done:
			return ErrClosed
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

// WaitSeq blocks until the deltas frame with sequence number seq, or a later
// one, has been applied.
func (c *Client) WaitSeq(ctx context.Context, seq uint64) error {
	for {
		c.mu.Lock()
		notify, cur := c.notify, c.seq
		c.mu.Unlock()
		if cur >= seq {
			return nil
		}

		select {
		case <-notify:
		case <-c.done:
			return ErrClosed
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

// Done is closed when the connection has ended and every received frame has
// been handed to the bridge.
func (c *Client) Done() <-chan struct{} { return c.done }

// Close sends a close message and closes the connection.
func (c *Client) Close() error {
	if !c.closed.CompareAndSwap(false, true) {
		return nil
	}
	c.writeMu.Lock()
	c.conn.WriteMessage(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
	c.writeMu.Unlock()

	err := c.conn.Close()
	<-c.done
	return err
}
