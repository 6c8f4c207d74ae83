package main

import (
	"bytes"
	"encoding/json"
	stderrors "errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/vango-dev/vdiff/internal/config"
	"github.com/vango-dev/vdiff/internal/errors"
)

func writeTree(t *testing.T, name, data string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(data), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	cmd := newRootCmd()
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func errorCode(err error) string {
	var e *errors.Error
	if stderrors.As(err, &e) {
		return e.Code
	}
	return ""
}

const (
	oldTree = "tag: p\ntext: a\n"
	newTree = "tag: p\ntext: b\nstyle:\n  color: red\n"
)

func TestDiffText(t *testing.T) {
	oldPath := writeTree(t, "old.yaml", oldTree)
	newPath := writeTree(t, "new.yaml", newTree)

	tests := []struct {
		name string
		args []string
		want string
	}{
		{"update", []string{"diff", oldPath, newPath},
			"UpdateNode(1,2)\nApplyStyle(2,color,red)\nSetText(2,\"b\")\n"},
		{"mount", []string{"diff", "-", newPath},
			"AppendNode(0,1,p)\nApplyStyle(1,color,red)\nSetText(1,\"b\")\n"},
		{"unmount", []string{"diff", oldPath, "-"},
			"RemoveNode(0,1)\n"},
		{"markup", []string{"diff", oldPath, newPath, "--markup"},
			"UpdateNode(1,2)\nApplyStyle(2,color,red)\nSetText(2,\"b\")\n\np style=\"color:red\" \"b\"\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := execute(t, tt.args...)
			if err != nil {
				t.Fatalf("Execute() error: %v", err)
			}
			if got != tt.want {
				t.Errorf("output =\n%s\nwant:\n%s", got, tt.want)
			}
		})
	}
}

func TestDiffJSON(t *testing.T) {
	oldPath := writeTree(t, "old.json", `{"tag": "p", "text": "a"}`)
	newPath := writeTree(t, "new.yaml", newTree)

	out, err := execute(t, "diff", oldPath, newPath, "--format=json")
	if err != nil {
		t.Fatalf("Execute() error: %v", err)
	}
	var deltas []map[string]any
	if err := json.Unmarshal([]byte(out), &deltas); err != nil {
		t.Fatalf("output is not JSON: %v\n%s", err, out)
	}
	if len(deltas) != 3 {
		t.Fatalf("got %d deltas, want 3", len(deltas))
	}
	if deltas[0]["op"] != "UpdateNode" || deltas[0]["old"] != float64(1) || deltas[0]["id"] != float64(2) {
		t.Errorf("deltas[0] = %v, want UpdateNode 1 -> 2", deltas[0])
	}
	if deltas[2]["op"] != "SetText" || deltas[2]["value"] != "b" {
		t.Errorf("deltas[2] = %v, want SetText b", deltas[2])
	}
}

func TestDiffErrors(t *testing.T) {
	good := writeTree(t, "good.yaml", oldTree)
	bad := writeTree(t, "bad.yaml", "tag: p\ntext: a\nchildren:\n  - text: b\n")

	tests := []struct {
		name string
		args []string
		code string
	}{
		{"unknown_format", []string{"diff", good, good, "--format=xml"}, "E501"},
		{"both_empty", []string{"diff", "-", "-"}, "E500"},
		{"text_with_children", []string{"diff", good, bad}, "E202"},
		{"missing_file", []string{"diff", good, filepath.Join(t.TempDir(), "nope.yaml")}, "E200"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := execute(t, tt.args...)
			if err == nil {
				t.Fatal("Execute() error = nil")
			}
			if got := errorCode(err); got != tt.code {
				t.Errorf("code = %q, want %q (err: %v)", got, tt.code, err)
			}
		})
	}

	if _, err := execute(t, "diff", good); err == nil {
		t.Error("diff with one argument should fail")
	}
}

func TestVersion(t *testing.T) {
	out, err := execute(t, "version", "--short")
	if err != nil {
		t.Fatalf("Execute() error: %v", err)
	}
	if out != version+"\n" {
		t.Errorf("version --short = %q, want %q", out, version+"\n")
	}

	out, err = execute(t, "version")
	if err != nil {
		t.Fatalf("Execute() error: %v", err)
	}
	if !strings.Contains(out, "Go version:") {
		t.Errorf("version = %q, want build details", out)
	}
}

func TestServerConfigFromFile(t *testing.T) {
	cfg := config.New()
	cfg.Server.Path = "/live"
	cfg.Server.PingInterval = "5s"
	cfg.Server.AllowedOrigins = []string{"*"}
	cfg.Metrics.Enabled = false
	cfg.Tracing.Enabled = true

	scfg, err := serverConfig(cfg)
	if err != nil {
		t.Fatalf("serverConfig() error: %v", err)
	}
	if scfg.Path != "/live" || scfg.PingInterval != 5*time.Second {
		t.Errorf("serverConfig() = %+v, want path /live and 5s pings", scfg)
	}
	if scfg.Metrics || !scfg.Tracing || len(scfg.AllowedOrigins) != 1 {
		t.Errorf("serverConfig() = %+v, want metrics off and tracing on", scfg)
	}
	if scfg.ReadTimeout != 60*time.Second || scfg.MaxMessageSize != config.DefaultMaxMessageSize {
		t.Errorf("serverConfig() = %+v, want default timeouts", scfg)
	}
	if scfg.Logger == nil {
		t.Error("serverConfig() Logger is nil")
	}

	cfg.Log.Level = "loud"
	if _, err := serverConfig(cfg); errorCode(err) != "E102" {
		t.Errorf("serverConfig() error = %v, want E102", err)
	}
}

func TestServeRejectsMissingConfig(t *testing.T) {
	_, err := execute(t, "serve", "--config", filepath.Join(t.TempDir(), "vdiff.yaml"))
	if got := errorCode(err); got != "E101" {
		t.Errorf("code = %q, want E101 (err: %v)", got, err)
	}
}
