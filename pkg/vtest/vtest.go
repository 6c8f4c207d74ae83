package vtest

import (
	"strings"
	"testing"

	"github.com/vango-dev/vdiff/pkg/host"
	"github.com/vango-dev/vdiff/pkg/vdom"
)

// Markup renders the trees at roots in host.Mirror's Markup format.
func Markup(a *vdom.Arena, roots ...vdom.ID) string {
	var b strings.Builder
	for _, id := range roots {
		markup(&b, a, id, 0)
	}
	return b.String()
}

func markup(b *strings.Builder, a *vdom.Arena, id vdom.ID, depth int) {
	n := a.Node(id)
	if n == nil {
		b.WriteString(strings.Repeat("  ", depth) + "<missing>\n")
		return
	}

	style := make(map[string]string)
	for _, k := range n.StyleKeys() {
		style[k], _ = n.Style(k)
	}
	listeners := make(map[string]string)
	for _, name := range n.EventNames() {
		e, _ := n.Event(name)
		listeners[name] = host.FormatListener(e.Handler, e.PreventDefault, e.StopPropagation)
	}
	text := ""
	if n.IsText() {
		text = n.Text()
	}
	host.WriteMarkupLine(b, depth, n.Tag(), style, listeners, text)
	for _, c := range n.Children() {
		markup(b, a, c, depth+1)
	}
}

// ExpectCalls asserts the calls a recorder received, in order.
func ExpectCalls(t testing.TB, rec *host.Recorder, want ...string) {
	t.Helper()
	got := rec.Calls()
	if len(got) != len(want) {
		t.Fatalf("got %d calls, want %d\ngot:\n  %s\nwant:\n  %s",
			len(got), len(want), strings.Join(got, "\n  "), strings.Join(want, "\n  "))
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("call[%d] = %s, want %s", i, got[i], want[i])
		}
	}
}

// ExpectMirror asserts that m is consistent and holds exactly the trees at
// roots.
func ExpectMirror(t testing.TB, m *host.Mirror, a *vdom.Arena, roots ...vdom.ID) {
	t.Helper()
	if err := m.Err(); err != nil {
		t.Fatalf("mirror error: %v", err)
	}
	ExpectMarkup(t, m.Markup(), Markup(a, roots...))
}

// ExpectMarkup compares two Markup renderings line by line.
func ExpectMarkup(t testing.TB, got, want string) {
	t.Helper()
	if got == want {
		return
	}
	g := strings.Split(got, "\n")
	w := strings.Split(want, "\n")
	for i := 0; i < len(g) || i < len(w); i++ {
		var gl, wl string
		if i < len(g) {
			gl = g[i]
		}
		if i < len(w) {
			wl = w[i]
		}
		if gl != wl {
			t.Errorf("markup differs at line %d:\n got: %q\nwant: %q\n\nfull got:\n%s\nfull want:\n%s",
				i+1, gl, wl, truncate(got, 2000), truncate(want, 2000))
			return
		}
	}
}

// ExpectContains asserts that a markup rendering contains substr.
func ExpectContains(t testing.TB, markup, substr string) {
	t.Helper()
	if !strings.Contains(markup, substr) {
		t.Errorf("expected markup to contain %q, got:\n%s", substr, truncate(markup, 500))
	}
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max] + "..."
}
