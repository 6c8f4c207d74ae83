package host

import "github.com/vango-dev/vdiff/pkg/vdom"

// Tee forwards every call to each sink in order.
type Tee []vdom.Sink

var _ vdom.Sink = Tee(nil)

func (t Tee) AppendNode(parent, id vdom.ID, tag string) {
	for _, s := range t {
		s.AppendNode(parent, id, tag)
	}
}

func (t Tee) RemoveNode(parent, id vdom.ID) {
	for _, s := range t {
		s.RemoveNode(parent, id)
	}
}

func (t Tee) UpdateNode(oldID, newID vdom.ID) {
	for _, s := range t {
		s.UpdateNode(oldID, newID)
	}
}

func (t Tee) ReplaceNode(oldID, newID vdom.ID, tag string) {
	for _, s := range t {
		s.ReplaceNode(oldID, newID, tag)
	}
}

func (t Tee) InsertNode(parent, ref, id vdom.ID, tag string) {
	for _, s := range t {
		s.InsertNode(parent, ref, id, tag)
	}
}

func (t Tee) SetText(id vdom.ID, text string) {
	for _, s := range t {
		s.SetText(id, text)
	}
}

func (t Tee) EraseStyle(id vdom.ID, key string) {
	for _, s := range t {
		s.EraseStyle(id, key)
	}
}

func (t Tee) ApplyStyle(id vdom.ID, key, value string) {
	for _, s := range t {
		s.ApplyStyle(id, key, value)
	}
}

func (t Tee) DetachEvent(id vdom.ID, event string, disposeHandler bool) {
	for _, s := range t {
		s.DetachEvent(id, event, disposeHandler)
	}
}

func (t Tee) AttachEvent(id vdom.ID, event string, preventDefault, stopPropagation bool, handler vdom.HandlerID) {
	for _, s := range t {
		s.AttachEvent(id, event, preventDefault, stopPropagation, handler)
	}
}
