package server

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"slices"
	"sync"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"
)

// Server accepts websocket connections and runs a Session for each.
type Server struct {
	cfg     *Config
	factory AppFactory
	logger  *slog.Logger

	router   chi.Router
	upgrader websocket.Upgrader
	registry *prometheus.Registry
	metrics  *metrics
	tracer   trace.Tracer

	mu       sync.RWMutex
	sessions map[string]*Session

	httpServer *http.Server
}

// Option configures a Server.
type Option func(*Server)

// WithRegistry collects metrics into reg instead of a private registry.
func WithRegistry(reg *prometheus.Registry) Option {
	return func(s *Server) { s.registry = reg }
}

// WithTracerProvider takes the tracer from tp instead of the global
// provider. It implies tracing.
func WithTracerProvider(tp trace.TracerProvider) Option {
	return func(s *Server) { s.tracer = tp.Tracer(s.cfg.TracerName) }
}

// New creates a server whose sessions run apps made by factory. A nil cfg
// means DefaultConfig.
func New(factory AppFactory, cfg *Config, opts ...Option) *Server {
	if factory == nil {
		panic("server: nil AppFactory")
	}
	cfg = cfg.withDefaults()

	s := &Server{
		cfg:      cfg,
		factory:  factory,
		logger:   cfg.Logger,
		sessions: make(map[string]*Session),
	}
	s.upgrader = websocket.Upgrader{
		ReadBufferSize:  4096,
		WriteBufferSize: 4096,
		CheckOrigin:     s.checkOrigin(),
	}
	for _, opt := range opts {
		opt(s)
	}

	if s.tracer == nil {
		if cfg.Tracing {
			s.tracer = otel.Tracer(cfg.TracerName)
		} else {
			s.tracer = noop.NewTracerProvider().Tracer(cfg.TracerName)
		}
	}
	if cfg.Metrics {
		if s.registry == nil {
			s.registry = prometheus.NewRegistry()
		}
		s.metrics = newMetrics(s.registry, cfg.Namespace)
	}

	s.router = s.routes()
	return s
}

func (s *Server) routes() chi.Router {
	r := chi.NewRouter()
	r.Get(s.cfg.Path, s.handleWebSocket)
	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		io.WriteString(w, "ok\n")
	})
	r.Get("/sessions/{id}/markup", s.handleMarkup)
	if s.metrics != nil {
		r.Handle(s.cfg.MetricsPath, promhttp.HandlerFor(s.registry, promhttp.HandlerOpts{}))
	}
	return r
}

// checkOrigin returns nil (gorilla's same-origin check) when no origins are
// configured.
func (s *Server) checkOrigin() func(r *http.Request) bool {
	allowed := s.cfg.AllowedOrigins
	switch {
	case len(allowed) == 0:
		return nil
	case slices.Contains(allowed, "*"):
		return func(*http.Request) bool { return true }
	default:
		return func(r *http.Request) bool {
			return slices.Contains(allowed, r.Header.Get("Origin"))
		}
	}
}

// Handler returns the HTTP handler serving every route.
func (s *Server) Handler() http.Handler { return s.router }

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	if !websocket.IsWebSocketUpgrade(r) {
		http.Error(w, "websocket upgrade required", http.StatusBadRequest)
		return
	}

	conn, session, err := s.upgrade(w, r)
	if err != nil {
		s.logger.Error("websocket upgrade failed", "error", err)
		return
	}

	s.mu.Lock()
	s.sessions[session.ID] = session
	s.mu.Unlock()
	s.metrics.sessionOpened()

	s.logger.Info("session started",
		"session_id", session.ID,
		"remote", conn.RemoteAddr().String())
	session.serve()
}

// upgrade creates the session first so its id can go in the handshake
// response.
func (s *Server) upgrade(w http.ResponseWriter, r *http.Request) (*websocket.Conn, *Session, error) {
	session := newSession(nil, s)
	header := http.Header{SessionHeader: []string{session.ID}}
	conn, err := s.upgrader.Upgrade(w, r, header)
	if err != nil {
		// Not registered yet, so there is nothing to remove.
		session.onClose = nil
		session.Close()
		return nil, nil, err
	}
	session.conn = conn
	return conn, session, nil
}

func (s *Server) handleMarkup(w http.ResponseWriter, r *http.Request) {
	session, ok := s.Session(chi.URLParam(r, "id"))
	if !ok {
		http.NotFound(w, r)
		return
	}
	markup, err := session.Markup(r.Context())
	if err != nil {
		http.Error(w, err.Error(), http.StatusServiceUnavailable)
		return
	}
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	io.WriteString(w, markup)
}

func (s *Server) removeSession(session *Session) {
	s.mu.Lock()
	_, ok := s.sessions[session.ID]
	delete(s.sessions, session.ID)
	s.mu.Unlock()
	if ok {
		s.metrics.sessionClosed()
	}
}

// Session returns the connected session with the given id.
func (s *Server) Session(id string) (*Session, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	session, ok := s.sessions[id]
	return session, ok
}

// SessionCount returns the number of connected sessions.
func (s *Server) SessionCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.sessions)
}

// Registry returns the metrics registry, or nil with metrics disabled.
func (s *Server) Registry() *prometheus.Registry { return s.registry }

// ListenAndServe serves on addr until ctx is done, then shuts down
// gracefully.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	s.httpServer = &http.Server{
		Addr:    addr,
		Handler: s,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("server starting", "address", addr)
		errCh <- s.httpServer.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	case <-ctx.Done():
		s.logger.Info("shutting down...")
		return s.Shutdown(context.Background())
	}
}

// Shutdown closes every session and stops the HTTP server.
func (s *Server) Shutdown(ctx context.Context) error {
	s.mu.RLock()
	sessions := make([]*Session, 0, len(s.sessions))
	for _, session := range s.sessions {
		sessions = append(sessions, session)
	}
	s.mu.RUnlock()

	for _, session := range sessions {
		session.Close()
	}

	if s.httpServer != nil {
		if err := s.httpServer.Shutdown(ctx); err != nil {
			s.logger.Error("shutdown error", "error", err)
			return err
		}
	}
	s.logger.Info("server shutdown complete")
	return nil
}
