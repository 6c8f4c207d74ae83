package host

import (
	"fmt"

	"github.com/vango-dev/vdiff/pkg/protocol"
	"github.com/vango-dev/vdiff/pkg/vdom"
)

// Wire is a sink that records each call as a protocol delta, ready to be
// framed and sent.
type Wire struct {
	deltas []protocol.Delta
}

var _ vdom.Sink = (*Wire)(nil)

// Len returns the number of buffered deltas.
func (w *Wire) Len() int { return len(w.deltas) }

// Deltas returns the buffered deltas.
func (w *Wire) Deltas() []protocol.Delta { return w.deltas }

// Take returns the buffered deltas and empties the buffer.
func (w *Wire) Take() []protocol.Delta {
	d := w.deltas
	w.deltas = nil
	return d
}

func (w *Wire) add(d protocol.Delta) { w.deltas = append(w.deltas, d) }

func (w *Wire) AppendNode(parent, id vdom.ID, tag string) {
	w.add(protocol.Delta{Op: protocol.OpAppendNode, Parent: uint64(parent), ID: uint64(id), Tag: tag})
}

func (w *Wire) RemoveNode(parent, id vdom.ID) {
	w.add(protocol.Delta{Op: protocol.OpRemoveNode, Parent: uint64(parent), ID: uint64(id)})
}

func (w *Wire) UpdateNode(oldID, newID vdom.ID) {
	w.add(protocol.Delta{Op: protocol.OpUpdateNode, Old: uint64(oldID), ID: uint64(newID)})
}

func (w *Wire) ReplaceNode(oldID, newID vdom.ID, tag string) {
	w.add(protocol.Delta{Op: protocol.OpReplaceNode, Old: uint64(oldID), ID: uint64(newID), Tag: tag})
}

func (w *Wire) InsertNode(parent, ref, id vdom.ID, tag string) {
	w.add(protocol.Delta{Op: protocol.OpInsertNode, Parent: uint64(parent), Ref: uint64(ref), ID: uint64(id), Tag: tag})
}

func (w *Wire) SetText(id vdom.ID, text string) {
	w.add(protocol.Delta{Op: protocol.OpSetText, ID: uint64(id), Value: text})
}

func (w *Wire) EraseStyle(id vdom.ID, key string) {
	w.add(protocol.Delta{Op: protocol.OpEraseStyle, ID: uint64(id), Key: key})
}

func (w *Wire) ApplyStyle(id vdom.ID, key, value string) {
	w.add(protocol.Delta{Op: protocol.OpApplyStyle, ID: uint64(id), Key: key, Value: value})
}

func (w *Wire) DetachEvent(id vdom.ID, event string, disposeHandler bool) {
	w.add(protocol.Delta{Op: protocol.OpDetachEvent, ID: uint64(id), Key: event, Dispose: disposeHandler})
}

func (w *Wire) AttachEvent(id vdom.ID, event string, preventDefault, stopPropagation bool, handler vdom.HandlerID) {
	w.add(protocol.Delta{
		Op:              protocol.OpAttachEvent,
		ID:              uint64(id),
		Key:             event,
		PreventDefault:  preventDefault,
		StopPropagation: stopPropagation,
		Handler:         uint64(handler),
	})
}

// Replay issues deltas on sink in order. It stops at the first delta with
// an unknown op.
func Replay(sink vdom.Sink, deltas []protocol.Delta) error {
	for i, d := range deltas {
		if err := apply(sink, d); err != nil {
			return fmt.Errorf("host: delta %d: %w", i, err)
		}
	}
	return nil
}

func apply(sink vdom.Sink, d protocol.Delta) error {
	id := vdom.ID(d.ID)
	switch d.Op {
	case protocol.OpAppendNode:
		sink.AppendNode(vdom.ID(d.Parent), id, d.Tag)
	case protocol.OpRemoveNode:
		sink.RemoveNode(vdom.ID(d.Parent), id)
	case protocol.OpUpdateNode:
		sink.UpdateNode(vdom.ID(d.Old), id)
	case protocol.OpReplaceNode:
		sink.ReplaceNode(vdom.ID(d.Old), id, d.Tag)
	case protocol.OpInsertNode:
		sink.InsertNode(vdom.ID(d.Parent), vdom.ID(d.Ref), id, d.Tag)
	case protocol.OpSetText:
		sink.SetText(id, d.Value)
	case protocol.OpEraseStyle:
		sink.EraseStyle(id, d.Key)
	case protocol.OpApplyStyle:
		sink.ApplyStyle(id, d.Key, d.Value)
	case protocol.OpDetachEvent:
		sink.DetachEvent(id, d.Key, d.Dispose)
	case protocol.OpAttachEvent:
		sink.AttachEvent(id, d.Key, d.PreventDefault, d.StopPropagation, vdom.HandlerID(d.Handler))
	default:
		return fmt.Errorf("unknown op %s", d.Op)
	}
	return nil
}
