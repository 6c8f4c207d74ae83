package server

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/vango-dev/vdiff/pkg/protocol"
	"github.com/vango-dev/vdiff/pkg/vdom"
)

// Event outcomes, as the status label of events_total.
const (
	eventOK       = "ok"
	eventRejected = "rejected"
	eventInvalid  = "invalid"
	eventPanic    = "panic"
)

// metrics holds the Prometheus collectors of one Server. A nil *metrics
// records nothing.
type metrics struct {
	passes         prometheus.Counter
	passDuration   prometheus.Histogram
	deltas         *prometheus.CounterVec
	events         *prometheus.CounterVec
	activeSessions prometheus.Gauge

	byOp [protocol.OpAttachEvent + 1]prometheus.Counter
}

func newMetrics(reg prometheus.Registerer, namespace string) *metrics {
	factory := promauto.With(reg)

	m := &metrics{
		passes: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "diff_passes_total",
			Help:      "Total number of render passes diffed",
		}),
		passDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "diff_duration_seconds",
			Help:      "Render and diff duration in seconds",
			Buckets:   []float64{.0001, .0005, .001, .005, .01, .05, .1, .5},
		}),
		deltas: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "deltas_total",
			Help:      "Total number of deltas emitted, by op",
		}, []string{"op"}),
		events: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "events_total",
			Help:      "Total number of client events, by outcome",
		}, []string{"status"}),
		activeSessions: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "sessions_active",
			Help:      "Number of connected sessions",
		}),
	}
	for op := protocol.OpAppendNode; op <= protocol.OpAttachEvent; op++ {
		m.byOp[op] = m.deltas.WithLabelValues(op.String())
	}
	return m
}

func (m *metrics) pass(d time.Duration) {
	if m == nil {
		return
	}
	m.passes.Inc()
	m.passDuration.Observe(d.Seconds())
}

func (m *metrics) event(status string) {
	if m == nil {
		return
	}
	m.events.WithLabelValues(status).Inc()
}

func (m *metrics) sessionOpened() {
	if m != nil {
		m.activeSessions.Inc()
	}
}

func (m *metrics) sessionClosed() {
	if m != nil {
		m.activeSessions.Dec()
	}
}

// deltaCounter is a sink that counts calls by op.
type deltaCounter struct{ m *metrics }

var _ vdom.Sink = deltaCounter{}

func (c deltaCounter) inc(op protocol.DeltaOp) { c.m.byOp[op].Inc() }

func (c deltaCounter) AppendNode(parent, id vdom.ID, tag string) { c.inc(protocol.OpAppendNode) }
func (c deltaCounter) RemoveNode(parent, id vdom.ID) { c.inc(protocol.OpRemoveNode) }
func (c deltaCounter) UpdateNode(oldID, newID vdom.ID) { c.inc(protocol.OpUpdateNode) }
func (c deltaCounter) ReplaceNode(oldID, newID vdom.ID, tag string) {
	c.inc(protocol.OpReplaceNode)
}
func (c deltaCounter) InsertNode(parent, ref, id vdom.ID, tag string) {
	c.inc(protocol.OpInsertNode)
}
func (c deltaCounter) SetText(id vdom.ID, text string) { c.inc(protocol.OpSetText) }
func (c deltaCounter) EraseStyle(id vdom.ID, key string) { c.inc(protocol.OpEraseStyle) }
func (c deltaCounter) ApplyStyle(id vdom.ID, key, value string) { c.inc(protocol.OpApplyStyle) }
func (c deltaCounter) DetachEvent(id vdom.ID, event string, disposeHandler bool) {
	c.inc(protocol.OpDetachEvent)
}
func (c deltaCounter) AttachEvent(id vdom.ID, event string, preventDefault, stopPropagation bool, handler vdom.HandlerID) {
	c.inc(protocol.OpAttachEvent)
}
