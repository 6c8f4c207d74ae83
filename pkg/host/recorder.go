package host

import (
	"strings"

	"github.com/vango-dev/vdiff/pkg/protocol"
	"github.com/vango-dev/vdiff/pkg/vdom"
)

// Recorder keeps every call it receives, rendered the way protocol.Delta
// prints them, e.g. "ApplyStyle(3,color,red)".
type Recorder struct {
	Wire
}

var _ vdom.Sink = (*Recorder)(nil)

// Calls returns the recorded calls in order.
func (r *Recorder) Calls() []string {
	calls := make([]string, len(r.deltas))
	for i, d := range r.deltas {
		calls[i] = d.String()
	}
	return calls
}

// Count returns how many recorded calls have the given op.
func (r *Recorder) Count(op protocol.DeltaOp) int {
	n := 0
	for _, d := range r.deltas {
		if d.Op == op {
			n++
		}
	}
	return n
}

// Reset forgets all recorded calls.
func (r *Recorder) Reset() { r.deltas = nil }

// String returns the calls one per line.
func (r *Recorder) String() string {
	return strings.Join(r.Calls(), "\n")
}
