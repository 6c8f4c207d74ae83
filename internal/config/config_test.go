package config

import (
	stderrors "errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/vango-dev/vdiff/internal/errors"
)

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestNewDefaults(t *testing.T) {
	c := New()
	if c.Server.Addr != DefaultAddr || c.Server.Path != DefaultPath {
		t.Errorf("Server = %+v", c.Server)
	}
	if c.ReadTimeout() != 60*time.Second {
		t.Errorf("ReadTimeout() = %v, want 60s", c.ReadTimeout())
	}
	if c.WriteTimeout() != 10*time.Second {
		t.Errorf("WriteTimeout() = %v, want 10s", c.WriteTimeout())
	}
	if c.PingInterval() != 30*time.Second {
		t.Errorf("PingInterval() = %v, want 30s", c.PingInterval())
	}
	if !c.Metrics.Enabled || c.Metrics.Path != "/metrics" || c.Metrics.Namespace != "vdiff" {
		t.Errorf("Metrics = %+v", c.Metrics)
	}
	if c.Tracing.Enabled {
		t.Error("tracing should be off by default")
	}
	if err := c.Validate(); err != nil {
		t.Errorf("Validate() error = %v", err)
	}
}

func TestLoadFileYAML(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "vdiff.yaml", `
server:
  addr: "127.0.0.1:9000"
  pingInterval: 5s
  allowedOrigins: ["https://example.com"]
log:
  level: debug
  format: json
metrics:
  enabled: false
tracing:
  enabled: true
`)
	c, err := LoadFile(path)
	if err != nil {
		t.Fatalf("LoadFile() error = %v", err)
	}
	if c.Server.Addr != "127.0.0.1:9000" {
		t.Errorf("Addr = %q", c.Server.Addr)
	}
	if c.PingInterval() != 5*time.Second {
		t.Errorf("PingInterval() = %v", c.PingInterval())
	}
	if c.Server.Path != DefaultPath {
		t.Errorf("Path = %q, want default", c.Server.Path)
	}
	if len(c.Server.AllowedOrigins) != 1 {
		t.Errorf("AllowedOrigins = %v", c.Server.AllowedOrigins)
	}
	if c.Log.Level != "debug" || c.Log.Format != "json" {
		t.Errorf("Log = %+v", c.Log)
	}
	if c.Metrics.Enabled || !c.Tracing.Enabled {
		t.Errorf("Metrics = %+v, Tracing = %+v", c.Metrics, c.Tracing)
	}
	if c.Path() != path {
		t.Errorf("Path() = %q, want %q", c.Path(), path)
	}
}

func TestLoadJSONPreferred(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, JSONFileName, `{"server": {"addr": ":1111"}}`)
	writeFile(t, dir, YAMLFileName, "server:\n  addr: \":2222\"\n")

	c, err := Load(dir)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if c.Server.Addr != ":1111" {
		t.Errorf("Addr = %q, want :1111", c.Server.Addr)
	}
}

func TestLoadWithoutFile(t *testing.T) {
	c, err := Load(t.TempDir())
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if c.Server.Addr != DefaultAddr {
		t.Errorf("Addr = %q, want default", c.Server.Addr)
	}
}

func TestLoadFileErrors(t *testing.T) {
	dir := t.TempDir()
	tests := []struct {
		name     string
		path     string
		wantCode string
	}{
		{"missing", filepath.Join(dir, "nope.yaml"), "E101"},
		{"bad_json", writeFile(t, dir, "bad.json", "{server"), "E100"},
		{"bad_yaml", writeFile(t, dir, "bad.yaml", "server: [1"), "E100"},
		{"bad_duration", writeFile(t, dir, "dur.yaml", "server:\n  readTimeout: soon\n"), "E102"},
		{"negative_duration", writeFile(t, dir, "neg.yaml", "server:\n  pingInterval: -1s\n"), "E102"},
		{"bad_path", writeFile(t, dir, "path.yaml", "server:\n  path: ws\n"), "E102"},
		{"bad_level", writeFile(t, dir, "level.yaml", "log:\n  level: loud\n"), "E102"},
		{"bad_format", writeFile(t, dir, "format.yaml", "log:\n  format: xml\n"), "E102"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := LoadFile(tt.path)
			var e *errors.Error
			if !stderrors.As(err, &e) {
				t.Fatalf("LoadFile() error = %v, want *errors.Error", err)
			}
			if e.Code != tt.wantCode {
				t.Errorf("Code = %q, want %q (%v)", e.Code, tt.wantCode, err)
			}
		})
	}
}

func TestValidateMessageNamesField(t *testing.T) {
	c := New()
	c.Server.WriteTimeout = "0s"
	err := c.Validate()
	if err == nil || !strings.Contains(err.(*errors.Error).Detail, "server.writeTimeout") {
		t.Errorf("Validate() error = %v", err)
	}
}
