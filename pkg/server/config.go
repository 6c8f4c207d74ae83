package server

import (
	"log/slog"
	"time"
)

// SessionHeader carries the session id in the websocket handshake response.
const SessionHeader = "X-Vdiff-Session"

// Config configures a Server.
type Config struct {
	// Path is the websocket endpoint.
	// Default: "/ws"
	Path string

	// ReadTimeout is how long a connection may stay silent. Pongs count as
	// traffic.
	// Default: 60s
	ReadTimeout time.Duration

	// WriteTimeout bounds each frame write.
	// Default: 10s
	WriteTimeout time.Duration

	// PingInterval is the keepalive period. Zero disables pings.
	// Default: 30s
	PingInterval time.Duration

	// MaxMessageSize caps an incoming websocket message in bytes.
	// Default: 64KB
	MaxMessageSize int64

	// AllowedOrigins lists accepted Origin headers. Empty means same-origin
	// only; a single "*" accepts any origin.
	AllowedOrigins []string

	// Metrics enables Prometheus collection and the metrics route.
	// Default: true
	Metrics bool

	// MetricsPath is the metrics route.
	// Default: "/metrics"
	MetricsPath string

	// Namespace prefixes every metric name.
	// Default: "vdiff"
	Namespace string

	// Tracing enables OpenTelemetry spans around render passes, using the
	// global tracer provider.
	// Default: false
	Tracing bool

	// TracerName names the tracer.
	// Default: "github.com/vango-dev/vdiff"
	TracerName string

	// Logger is the structured logger.
	// Default: slog.Default()
	Logger *slog.Logger
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		Path:           "/ws",
		ReadTimeout:    60 * time.Second,
		WriteTimeout:   10 * time.Second,
		PingInterval:   30 * time.Second,
		MaxMessageSize: 64 * 1024,
		Metrics:        true,
		MetricsPath:    "/metrics",
		Namespace:      "vdiff",
		TracerName:     "github.com/vango-dev/vdiff",
		Logger:         slog.Default(),
	}
}

// withDefaults returns a copy of c with zero fields filled in.
func (c *Config) withDefaults() *Config {
	d := DefaultConfig()
	if c == nil {
		return d
	}
	out := *c
	if out.Path == "" {
		out.Path = d.Path
	}
	if out.ReadTimeout <= 0 {
		out.ReadTimeout = d.ReadTimeout
	}
	if out.WriteTimeout <= 0 {
		out.WriteTimeout = d.WriteTimeout
	}
	if out.PingInterval < 0 {
		out.PingInterval = 0
	}
	if out.MaxMessageSize <= 0 {
		out.MaxMessageSize = d.MaxMessageSize
	}
	if out.MetricsPath == "" {
		out.MetricsPath = d.MetricsPath
	}
	if out.Namespace == "" {
		out.Namespace = d.Namespace
	}
	if out.TracerName == "" {
		out.TracerName = d.TracerName
	}
	if out.Logger == nil {
		out.Logger = d.Logger
	}
	return &out
}
