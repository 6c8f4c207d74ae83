package config

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/vango-dev/vdiff/internal/errors"
	"gopkg.in/yaml.v3"
)

// Configuration file names, in lookup order.
const (
	JSONFileName = "vdiff.json"
	YAMLFileName = "vdiff.yaml"
)

// Defaults.
const (
	DefaultAddr           = ":8080"
	DefaultPath           = "/ws"
	DefaultReadTimeout    = "60s"
	DefaultWriteTimeout   = "10s"
	DefaultPingInterval   = "30s"
	DefaultMaxMessageSize = 64 * 1024
	DefaultMetricsPath    = "/metrics"
	DefaultNamespace      = "vdiff"
	DefaultTracerName     = "github.com/vango-dev/vdiff"
)

// Config is the complete vdiff configuration.
type Config struct {
	Server  ServerConfig  `json:"server" yaml:"server"`
	Log     LogConfig     `json:"log" yaml:"log"`
	Metrics MetricsConfig `json:"metrics" yaml:"metrics"`
	Tracing TracingConfig `json:"tracing" yaml:"tracing"`

	// path the config was loaded from
	path string
}

// ServerConfig configures the websocket host.
type ServerConfig struct {
	// Addr is the listen address.
	Addr string `json:"addr,omitempty" yaml:"addr,omitempty"`

	// Path is the websocket endpoint.
	Path string `json:"path,omitempty" yaml:"path,omitempty"`

	// ReadTimeout is how long a connection may stay silent (pongs count).
	ReadTimeout string `json:"readTimeout,omitempty" yaml:"readTimeout,omitempty"`

	// WriteTimeout bounds each frame write.
	WriteTimeout string `json:"writeTimeout,omitempty" yaml:"writeTimeout,omitempty"`

	// PingInterval is the keepalive period.
	PingInterval string `json:"pingInterval,omitempty" yaml:"pingInterval,omitempty"`

	// MaxMessageSize caps an incoming websocket message in bytes.
	MaxMessageSize int64 `json:"maxMessageSize,omitempty" yaml:"maxMessageSize,omitempty"`

	// AllowedOrigins lists accepted Origin headers. Empty means same-origin
	// only; "*" allows any origin.
	AllowedOrigins []string `json:"allowedOrigins,omitempty" yaml:"allowedOrigins,omitempty"`
}

// LogConfig configures logging.
type LogConfig struct {
	Level  string `json:"level,omitempty" yaml:"level,omitempty"`
	Format string `json:"format,omitempty" yaml:"format,omitempty"`
}

// MetricsConfig configures the Prometheus endpoint.
type MetricsConfig struct {
	Enabled   bool   `json:"enabled" yaml:"enabled"`
	Path      string `json:"path,omitempty" yaml:"path,omitempty"`
	Namespace string `json:"namespace,omitempty" yaml:"namespace,omitempty"`
}

// TracingConfig configures OpenTelemetry spans around render passes.
type TracingConfig struct {
	Enabled    bool   `json:"enabled" yaml:"enabled"`
	TracerName string `json:"tracerName,omitempty" yaml:"tracerName,omitempty"`
}

// New returns a configuration with all defaults applied.
func New() *Config {
	c := &Config{Metrics: MetricsConfig{Enabled: true}}
	c.applyDefaults()
	return c
}

// Load reads vdiff.json or vdiff.yaml from dir. With neither present it
// returns the defaults.
func Load(dir string) (*Config, error) {
	for _, name := range []string{JSONFileName, YAMLFileName} {
		path := filepath.Join(dir, name)
		if _, err := os.Stat(path); err == nil {
			return LoadFile(path)
		}
	}
	return New(), nil
}

// LoadFile reads configuration from path. The format follows the file
// extension (.yaml/.yml or JSON otherwise).
func LoadFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.New("E101").
				WithDetail("No configuration file at " + path).
				WithSuggestion("Create vdiff.yaml or drop the --config flag to use defaults")
		}
		return nil, errors.New("E100").Wrap(err)
	}

	cfg := New()
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		err = yaml.Unmarshal(data, cfg)
	default:
		err = json.Unmarshal(data, cfg)
	}
	if err != nil {
		return nil, errors.New("E100").
			WithDetail("Failed to parse " + filepath.Base(path) + ": " + err.Error()).
			WithSuggestion("Check the file against the documented schema")
	}

	cfg.path = path
	cfg.applyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Path returns the file the configuration was loaded from, if any.
func (c *Config) Path() string {
	return c.path
}

func (c *Config) applyDefaults() {
	s := &c.Server
	if s.Addr == "" {
		s.Addr = DefaultAddr
	}
	if s.Path == "" {
		s.Path = DefaultPath
	}
	if s.ReadTimeout == "" {
		s.ReadTimeout = DefaultReadTimeout
	}
	if s.WriteTimeout == "" {
		s.WriteTimeout = DefaultWriteTimeout
	}
	if s.PingInterval == "" {
		s.PingInterval = DefaultPingInterval
	}
	if s.MaxMessageSize == 0 {
		s.MaxMessageSize = DefaultMaxMessageSize
	}
	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
	if c.Log.Format == "" {
		c.Log.Format = "text"
	}
	if c.Metrics.Path == "" {
		c.Metrics.Path = DefaultMetricsPath
	}
	if c.Metrics.Namespace == "" {
		c.Metrics.Namespace = DefaultNamespace
	}
	if c.Tracing.TracerName == "" {
		c.Tracing.TracerName = DefaultTracerName
	}
}

// Validate checks the configuration for invalid values.
func (c *Config) Validate() error {
	durations := []struct{ name, value string }{
		{"server.readTimeout", c.Server.ReadTimeout},
		{"server.writeTimeout", c.Server.WriteTimeout},
		{"server.pingInterval", c.Server.PingInterval},
	}
	for _, f := range durations {
		name, v := f.name, f.value
		d, err := time.ParseDuration(v)
		if err != nil || d <= 0 {
			return errors.New("E102").
				WithDetail(name + " must be a positive duration, got " + quote(v)).
				WithSuggestion(`Use Go duration syntax such as "30s" or "1m"`)
		}
	}
	if !strings.HasPrefix(c.Server.Path, "/") {
		return errors.New("E102").WithDetail("server.path must start with /, got " + quote(c.Server.Path))
	}
	if !strings.HasPrefix(c.Metrics.Path, "/") {
		return errors.New("E102").WithDetail("metrics.path must start with /, got " + quote(c.Metrics.Path))
	}
	if c.Server.MaxMessageSize < 0 {
		return errors.New("E102").WithDetail("server.maxMessageSize must not be negative")
	}
	switch strings.ToLower(c.Log.Level) {
	case "debug", "info", "warn", "warning", "error":
	default:
		return errors.New("E102").WithDetail("log.level must be debug, info, warn or error, got " + quote(c.Log.Level))
	}
	switch c.Log.Format {
	case "text", "json":
	default:
		return errors.New("E102").WithDetail("log.format must be text or json, got " + quote(c.Log.Format))
	}
	return nil
}

// ReadTimeout returns server.readTimeout as a duration.
func (c *Config) ReadTimeout() time.Duration {
	return parseDuration(c.Server.ReadTimeout, DefaultReadTimeout)
}

// WriteTimeout returns server.writeTimeout as a duration.
func (c *Config) WriteTimeout() time.Duration {
	return parseDuration(c.Server.WriteTimeout, DefaultWriteTimeout)
}

// PingInterval returns server.pingInterval as a duration.
func (c *Config) PingInterval() time.Duration {
	return parseDuration(c.Server.PingInterval, DefaultPingInterval)
}

func parseDuration(v, fallback string) time.Duration {
	if d, err := time.ParseDuration(v); err == nil && d > 0 {
		return d
	}
	d, _ := time.ParseDuration(fallback)
	return d
}

func quote(s string) string {
	return `"` + s + `"`
}
