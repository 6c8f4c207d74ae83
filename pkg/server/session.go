package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"runtime/debug"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/vango-dev/vdiff/pkg/bridge"
	"github.com/vango-dev/vdiff/pkg/host"
	"github.com/vango-dev/vdiff/pkg/protocol"
	"github.com/vango-dev/vdiff/pkg/vdom"
)

// Render causes, as the render.cause span attribute.
const (
	causeMount    = "mount"
	causeEvent    = "event"
	causeDispatch = "dispatch"
)

// Session is one connected client.
type Session struct {
	// ID is the session id, also sent in the SessionHeader.
	ID string

	conn    *websocket.Conn
	cfg     *Config
	logger  *slog.Logger
	tracer  trace.Tracer
	metrics *metrics
	onClose func(*Session)

	ctx    context.Context
	cancel context.CancelFunc
	bridge *bridge.Bridge

	// Owned by the bridge goroutine.
	app      App
	arena    *vdom.Arena
	handlers *Handlers
	mirror   *host.Mirror
	wire     host.Wire
	sink     vdom.Sink
	root     vdom.ID
	seq      uint64
	released []vdom.HandlerID

	writeMu sync.Mutex
	closed  atomic.Bool
	done    chan struct{}
}

func newSession(conn *websocket.Conn, s *Server) *Session {
	ctx, cancel := context.WithCancel(context.Background())
	id := uuid.NewString()
	logger := s.cfg.Logger.With("session_id", id)

	sess := &Session{
		ID:       id,
		conn:     conn,
		cfg:      s.cfg,
		logger:   logger,
		tracer:   s.tracer,
		metrics:  s.metrics,
		onClose:  s.removeSession,
		ctx:      ctx,
		cancel:   cancel,
		bridge:   bridge.New(bridge.WithLogger(logger)),
		arena:    vdom.NewArena(),
		handlers: NewHandlers(),
		mirror:   host.NewMirror(),
		done:     make(chan struct{}),
	}
	sess.mirror.OnRelease = func(h vdom.HandlerID) {
		sess.released = append(sess.released, h)
	}
	sinks := host.Tee{sess.mirror, &sess.wire}
	if s.metrics != nil {
		sinks = append(sinks, deltaCounter{s.metrics})
	}
	if logger.Enabled(ctx, slog.LevelDebug) {
		sinks = append(sinks, host.Log{Logger: logger})
	}
	sess.sink = sinks
	sess.app = s.factory(sess)
	return sess
}

// serve runs the session until the connection or the session closes.
func (s *Session) serve() {
	defer s.Close()

	go func() {
		if err := s.bridge.Run(s.ctx); err != nil && !errors.Is(err, context.Canceled) {
			s.logger.Error("bridge loop stopped", "error", err)
		}
		s.Close()
	}()
	if s.cfg.PingInterval > 0 {
		go s.pingLoop()
	}

	if err := s.bridge.Post(func() { s.render(causeMount) }); err != nil {
		return
	}
	s.readLoop()
}

func (s *Session) readLoop() {
	s.conn.SetReadLimit(s.cfg.MaxMessageSize)
	s.conn.SetReadDeadline(time.Now().Add(s.cfg.ReadTimeout))
	s.conn.SetPongHandler(func(string) error {
		return s.conn.SetReadDeadline(time.Now().Add(s.cfg.ReadTimeout))
	})

	for {
		_, msg, err := s.conn.ReadMessage()
		if err != nil {
			if !s.closed.Load() && websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				s.logger.Warn("read failed", "error", err)
			}
			return
		}
		s.conn.SetReadDeadline(time.Now().Add(s.cfg.ReadTimeout))

		frame, err := protocol.DecodeFrame(msg)
		if err != nil {
			s.sendError(protocol.NewError(protocol.ErrInvalidFrame, err.Error()))
			continue
		}
		if frame.Type != protocol.FrameEvent {
			s.sendError(protocol.NewError(protocol.ErrInvalidFrame, fmt.Sprintf("unexpected %s frame", frame.Type)))
			continue
		}
		ev, err := protocol.DecodeEvent(frame.Payload)
		if err != nil {
			s.metrics.event(eventInvalid)
			s.sendError(protocol.NewError(protocol.ErrInvalidEvent, err.Error()))
			continue
		}
		if err := s.bridge.Submit(s.handleEvent, ev); err != nil {
			return
		}
	}
}

func (s *Session) pingLoop() {
	ticker := time.NewTicker(s.cfg.PingInterval)
	defer ticker.Stop()

	for {
		select {
		case <-s.ctx.Done():
			return
		case <-ticker.C:
			deadline := time.Now().Add(s.cfg.WriteTimeout)
			if err := s.conn.WriteControl(websocket.PingMessage, nil, deadline); err != nil {
				s.logger.Debug("ping failed", "error", err)
				s.Close()
				return
			}
		}
	}
}

// handleEvent runs on the bridge goroutine.
func (s *Session) handleEvent(payload any) {
	ev := payload.(*protocol.Event)
	node := vdom.ID(ev.Node)

	l, ok := s.mirror.Listener(node, ev.Name)
	if !ok || uint64(l.Handler) != ev.Handler {
		s.reject(ev, "not attached")
		return
	}
	fn, ok := s.handlers.Lookup(l.Handler)
	if !ok {
		s.reject(ev, "not registered")
		return
	}

	if err := s.invoke(fn, Event{Node: node, Name: ev.Name, Data: ev.Data}); err != nil {
		s.metrics.event(eventPanic)
		s.sendError(protocol.NewError(protocol.ErrHandlerPanic, err.Error()))
	} else {
		s.metrics.event(eventOK)
	}
	s.render(causeEvent)
}

func (s *Session) reject(ev *protocol.Event, reason string) {
	s.metrics.event(eventRejected)
	s.logger.Debug("event rejected",
		"node", ev.Node,
		"event", ev.Name,
		"handler", ev.Handler,
		"reason", reason)
	s.sendError(protocol.NewError(protocol.ErrUnknownHandler,
		fmt.Sprintf("handler %d is %s at node %d %s", ev.Handler, reason, ev.Node, ev.Name)))
}

// invoke calls fn, converting a panic into an error.
func (s *Session) invoke(fn Handler, ev Event) (err error) {
	defer func() {
		if r := recover(); r != nil {
			s.logger.Error("handler panic",
				"event", ev.Name,
				"node", uint64(ev.Node),
				"panic", r,
				"stack", string(debug.Stack()))
			err = fmt.Errorf("handler panicked: %v", r)
		}
	}()
	fn(ev)
	return nil
}

// render runs on the bridge goroutine: it renders the app, diffs the new
// tree against the previous one and flushes the deltas as one frame.
func (s *Session) render(cause string) {
	_, span := s.tracer.Start(s.ctx, "vdiff.render", trace.WithAttributes(
		attribute.String("session.id", s.ID),
		attribute.String("render.cause", cause),
	))
	defer span.End()

	start := time.Now()
	next, err := s.reconcile()
	if err != nil {
		// The arena and the shadow tree are in an unknown state.
		s.logger.Error("render failed", "cause", cause, "error", err)
		span.RecordError(err)
		span.SetStatus(codes.Error, "render failed")
		s.wire.Take()
		s.sendError(protocol.NewFatalError(protocol.ErrInternal, err.Error()))
		s.Close()
		return
	}
	s.root = next
	s.releaseHandlers()
	s.metrics.pass(time.Since(start))

	deltas := s.wire.Take()
	span.SetAttributes(attribute.Int("render.deltas", len(deltas)))

	s.seq++
	payload := protocol.EncodeDeltas(&protocol.DeltasFrame{Seq: s.seq, Deltas: deltas})
	if err := s.writeFrame(protocol.FrameDeltas, protocol.FlagFinal, payload); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "write failed")
		s.logger.Debug("deltas write failed", "error", err)
		s.Close()
		return
	}

	// Events are validated against the shadow tree, so a session whose
	// shadow diverged cannot go on.
	if err := s.mirror.Err(); err != nil {
		s.logger.Error("shadow tree out of sync", "error", err)
		span.RecordError(err)
		span.SetStatus(codes.Error, "shadow tree out of sync")
		s.sendError(protocol.NewFatalError(protocol.ErrInternal, err.Error()))
		s.Close()
	}
}

// reconcile renders the app and diffs the result into the sink. A panic in
// either, such as a tree contract violation, is returned as an error.
func (s *Session) reconcile() (next vdom.ID, err error) {
	defer func() {
		if r := recover(); r != nil {
			s.logger.Debug("render panic", "panic", r, "stack", string(debug.Stack()))
			err = fmt.Errorf("render panicked: %v", r)
		}
	}()
	next = s.app.Render(s.arena, s.handlers)
	if s.root != vdom.None || next != vdom.None {
		s.arena.Diff(s.sink, vdom.None, s.root, next)
	}
	return next, nil
}

// releaseHandlers forgets handlers released during the pass that no
// listener picked up again.
func (s *Session) releaseHandlers() {
	for _, h := range s.released {
		if s.mirror.Refs(h) == 0 {
			s.handlers.Release(h)
		}
	}
	s.released = s.released[:0]
}

func (s *Session) writeFrame(ft protocol.FrameType, flags protocol.FrameFlags, payload []byte) error {
	f := &protocol.Frame{Type: ft, Flags: flags, Payload: payload}

	s.writeMu.Lock()
	defer s.writeMu.Unlock()
	s.conn.SetWriteDeadline(time.Now().Add(s.cfg.WriteTimeout))
	return s.conn.WriteMessage(websocket.BinaryMessage, f.Encode())
}

func (s *Session) sendError(em *protocol.ErrorMessage) {
	if err := s.writeFrame(protocol.FrameError, 0, protocol.EncodeErrorMessage(em)); err != nil {
		s.logger.Debug("error write failed", "error", err)
	}
}

// Dispatch runs fn on the session's bridge goroutine and re-renders. It is
// safe to call from any goroutine.
func (s *Session) Dispatch(fn func()) error {
	if fn == nil {
		panic("server: Dispatch with nil func")
	}
	return s.bridge.Post(func() {
		fn()
		s.render(causeDispatch)
	})
}

// Markup returns the shadow tree as rendered by host.Mirror.Markup.
func (s *Session) Markup(ctx context.Context) (string, error) {
	var out string
	err := s.bridge.Do(ctx, func() { out = s.mirror.Markup() })
	return out, err
}

// Done is closed when the session ends.
func (s *Session) Done() <-chan struct{} { return s.done }

// Close ends the session and its connection. It is idempotent.
func (s *Session) Close() {
	if !s.closed.CompareAndSwap(false, true) {
		return
	}
	s.cancel()
	s.bridge.Close()
	if s.conn != nil {
		if err := s.conn.Close(); err != nil {
			s.logger.Debug("close failed", "error", err)
		}
	}
	if s.onClose != nil {
		s.onClose(s)
	}
	close(s.done)
	s.logger.Info("session closed")
}
