package host

import (
	"context"
	"log/slog"

	"github.com/vango-dev/vdiff/pkg/vdom"
)

// Log is a sink that writes each call to a logger at debug level.
type Log struct {
	Logger *slog.Logger
}

var _ vdom.Sink = Log{}

func (l Log) log(op string, args ...any) {
	logger := l.Logger
	if logger == nil {
		logger = slog.Default()
	}
	if !logger.Enabled(context.Background(), slog.LevelDebug) {
		return
	}
	logger.Debug("delta", append([]any{"op", op}, args...)...)
}

func (l Log) AppendNode(parent, id vdom.ID, tag string) {
	l.log("AppendNode", "parent", parent, "id", id, "tag", tag)
}

func (l Log) RemoveNode(parent, id vdom.ID) {
	l.log("RemoveNode", "parent", parent, "id", id)
}

func (l Log) UpdateNode(oldID, newID vdom.ID) {
	l.log("UpdateNode", "old", oldID, "id", newID)
}

func (l Log) ReplaceNode(oldID, newID vdom.ID, tag string) {
	l.log("ReplaceNode", "old", oldID, "id", newID, "tag", tag)
}

func (l Log) InsertNode(parent, ref, id vdom.ID, tag string) {
	l.log("InsertNode", "parent", parent, "ref", ref, "id", id, "tag", tag)
}

func (l Log) SetText(id vdom.ID, text string) {
	l.log("SetText", "id", id, "text", text)
}

func (l Log) EraseStyle(id vdom.ID, key string) {
	l.log("EraseStyle", "id", id, "key", key)
}

func (l Log) ApplyStyle(id vdom.ID, key, value string) {
	l.log("ApplyStyle", "id", id, "key", key, "value", value)
}

func (l Log) DetachEvent(id vdom.ID, event string, disposeHandler bool) {
	l.log("DetachEvent", "id", id, "event", event, "dispose", disposeHandler)
}

func (l Log) AttachEvent(id vdom.ID, event string, preventDefault, stopPropagation bool, handler vdom.HandlerID) {
	l.log("AttachEvent", "id", id, "event", event,
		"prevent", preventDefault, "stop", stopPropagation, "handler", handler)
}
