package server

import (
	"testing"

	"github.com/vango-dev/vdiff/pkg/vdom"
)

func TestHandlersBindKeepsIDAndSwapsFunc(t *testing.T) {
	h := NewHandlers()
	var got string

	first := h.Bind("inc", func(Event) { got = "first" })
	second := h.Bind("inc", func(Event) { got = "second" })
	if first != second {
		t.Errorf("Bind() = %d then %d, want a stable id", first, second)
	}
	if h.Len() != 1 {
		t.Errorf("Len() = %d, want 1", h.Len())
	}

	fn, ok := h.Lookup(first)
	if !ok {
		t.Fatal("Lookup() found nothing")
	}
	fn(Event{})
	if got != "second" {
		t.Errorf("Lookup() ran %q, want the latest func", got)
	}
}

func TestHandlersRegisterAllocatesFreshIDs(t *testing.T) {
	h := NewHandlers()
	a := h.Register(func(Event) {})
	b := h.Register(func(Event) {})
	if a == b || a == 0 || b == 0 {
		t.Errorf("Register() = %d, %d, want distinct non-zero ids", a, b)
	}
}

func TestHandlersRelease(t *testing.T) {
	h := NewHandlers()
	bound := h.Bind("save", func(Event) {})
	other := h.Register(func(Event) {})

	h.Release(bound)
	if _, ok := h.Lookup(bound); ok {
		t.Error("released handler still found")
	}
	if _, ok := h.Lookup(other); !ok {
		t.Error("unrelated handler lost")
	}
	if again := h.Bind("save", func(Event) {}); again == bound {
		t.Errorf("Bind() after Release = %d, want a new id", again)
	}

	h.Release(vdom.HandlerID(999)) // unknown ids are ignored
	if h.Len() != 2 {
		t.Errorf("Len() = %d, want 2", h.Len())
	}
}

func TestHandlersNilFuncPanics(t *testing.T) {
	tests := []struct {
		name string
		run  func(h *Handlers)
	}{
		{"bind", func(h *Handlers) { h.Bind("k", nil) }},
		{"register", func(h *Handlers) { h.Register(nil) }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			defer func() {
				if r := recover(); r == nil {
					t.Error("Expected panic")
				}
			}()
			tt.run(NewHandlers())
		})
	}
}

func TestConfigWithDefaults(t *testing.T) {
	cfg := (&Config{Path: "/live", PingInterval: -1}).withDefaults()
	if cfg.Path != "/live" {
		t.Errorf("Path = %q, want /live", cfg.Path)
	}
	if cfg.PingInterval != 0 {
		t.Errorf("PingInterval = %v, want 0", cfg.PingInterval)
	}
	d := DefaultConfig()
	if cfg.ReadTimeout != d.ReadTimeout || cfg.MaxMessageSize != d.MaxMessageSize || cfg.Logger == nil {
		t.Errorf("withDefaults() = %+v, want zero fields defaulted", cfg)
	}
	if nilCfg := (*Config)(nil).withDefaults(); nilCfg.Path != "/ws" {
		t.Errorf("nil withDefaults().Path = %q, want /ws", nilCfg.Path)
	}
}
