package vdom

// Sink receives the changes computed by Diff. It is implemented by whatever
// adapts to the real UI surface.
//
// Calls are synchronous and ordered, and each call's effect must be visible
// before the next call arrives: an UpdateNode is followed by style, event and
// child patches that already refer to the new id. Implementations must not
// panic for any call Diff makes; failures are the sink's own concern.
type Sink interface {
	// AppendNode instantiates a new node and appends it as the last child
	// of parent (None for the mount point).
	AppendNode(parent, id ID, tag string)

	// RemoveNode detaches id from parent and disposes it with its subtree.
	RemoveNode(parent, id ID)

	// UpdateNode re-associates the host object of oldID with newID. The tag
	// is unchanged.
	UpdateNode(oldID, newID ID)

	// ReplaceNode swaps the host object of oldID for a new one of tag at the
	// same position, identified by newID. The style, event and child patches
	// that follow are computed against the old node's content, so hosts
	// carry that content over to the new object.
	ReplaceNode(oldID, newID ID, tag string)

	// InsertNode inserts a new node before ref under parent. Diff never
	// calls it; it exists for out-of-band insertion by the driver.
	InsertNode(parent, ref, id ID, tag string)

	// SetText replaces the text payload of id.
	SetText(id ID, text string)

	// EraseStyle removes a style key.
	EraseStyle(id ID, key string)

	// ApplyStyle sets a style key. Diff re-asserts every current style on
	// every pass, so this must be idempotent.
	ApplyStyle(id ID, key, value string)

	// DetachEvent removes a listener. disposeHandler is true when the event
	// name disappeared and false when a new descriptor for the same name is
	// attached right after.
	DetachEvent(id ID, event string, disposeHandler bool)

	// AttachEvent installs a listener with the given options.
	AttachEvent(id ID, event string, preventDefault, stopPropagation bool, handler HandlerID)
}

// NopSink ignores every call. Embed it to implement only part of Sink.
type NopSink struct{}

var _ Sink = NopSink{}

func (NopSink) AppendNode(parent, id ID, tag string) {}
func (NopSink) RemoveNode(parent, id ID) {}
func (NopSink) UpdateNode(oldID, newID ID) {}
func (NopSink) ReplaceNode(oldID, newID ID, tag string) {}
func (NopSink) InsertNode(parent, ref, id ID, tag string) {}
func (NopSink) SetText(id ID, text string) {}
func (NopSink) EraseStyle(id ID, key string) {}
func (NopSink) ApplyStyle(id ID, key, value string) {}
func (NopSink) DetachEvent(id ID, event string, disposeHandler bool) {}
func (NopSink) AttachEvent(id ID, event string, p, s bool, h HandlerID) {}
