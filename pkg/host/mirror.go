package host

import (
	"fmt"
	"sort"
	"strings"

	"github.com/vango-dev/vdiff/pkg/vdom"
)

// Listener is an event listener installed on a host element.
type Listener struct {
	PreventDefault  bool
	StopPropagation bool
	Handler         vdom.HandlerID
}

// Element is a host-side node.
type Element struct {
	ID        vdom.ID
	Tag       string
	Parent    vdom.ID
	Children  []vdom.ID
	Style     map[string]string
	Listeners map[string]Listener
	Text      string
}

type listenerKey struct {
	id    vdom.ID
	event string
}

// Mirror is an in-memory host tree driven through vdom.Sink.
//
// It never panics on a bad call: the first inconsistency (an unknown id, a
// duplicate id) is kept and reported by Err, and the call is ignored.
//
// Handler ids are reference counted across listeners. OnRelease is called
// when the last listener using a handler goes away, whether by a disposing
// DetachEvent, by a replacing AttachEvent or by a removed subtree.
type Mirror struct {
	// OnRelease, if set, is called with handlers no listener uses anymore.
	OnRelease func(vdom.HandlerID)

	nodes map[vdom.ID]*Element
	roots []vdom.ID
	refs  map[vdom.HandlerID]int
	// handlers detached without disposal, pending the attach that follows
	pending map[listenerKey]vdom.HandlerID
	err     error
}

var _ vdom.Sink = (*Mirror)(nil)

// NewMirror creates an empty mirror.
func NewMirror() *Mirror {
	return &Mirror{
		nodes:   make(map[vdom.ID]*Element),
		refs:    make(map[vdom.HandlerID]int),
		pending: make(map[listenerKey]vdom.HandlerID),
	}
}

// Err returns the first inconsistency the mirror saw.
func (m *Mirror) Err() error { return m.err }

// Len returns the number of host elements.
func (m *Mirror) Len() int { return len(m.nodes) }

// Roots returns the elements mounted at the root slot.
func (m *Mirror) Roots() []vdom.ID { return m.roots }

// Lookup returns the element for id. The element must not be modified.
func (m *Mirror) Lookup(id vdom.ID) (*Element, bool) {
	e, ok := m.nodes[id]
	return e, ok
}

// Listener returns the listener installed for event on id.
func (m *Mirror) Listener(id vdom.ID, event string) (Listener, bool) {
	e, ok := m.nodes[id]
	if !ok {
		return Listener{}, false
	}
	l, ok := e.Listeners[event]
	return l, ok
}

// Find returns the first element, in document order, for which match
// returns true.
func (m *Mirror) Find(match func(*Element) bool) (*Element, bool) {
	var walk func(ids []vdom.ID) *Element
	walk = func(ids []vdom.ID) *Element {
		for _, id := range ids {
			e, ok := m.nodes[id]
			if !ok {
				continue
			}
			if match(e) {
				return e
			}
			if found := walk(e.Children); found != nil {
				return found
			}
		}
		return nil
	}
	e := walk(m.roots)
	return e, e != nil
}

// TextOf returns the concatenated text of id and its descendants.
func (m *Mirror) TextOf(id vdom.ID) string {
	var b strings.Builder
	var walk func(id vdom.ID)
	walk = func(id vdom.ID) {
		e, ok := m.nodes[id]
		if !ok {
			return
		}
		b.WriteString(e.Text)
		for _, c := range e.Children {
			walk(c)
		}
	}
	walk(id)
	return b.String()
}

// Refs returns how many listeners use handler.
func (m *Mirror) Refs(handler vdom.HandlerID) int { return m.refs[handler] }

func (m *Mirror) fail(format string, args ...any) {
	if m.err == nil {
		m.err = fmt.Errorf("host: "+format, args...)
	}
}

func (m *Mirror) element(op string, id vdom.ID) *Element {
	e, ok := m.nodes[id]
	if !ok {
		m.fail("%s: unknown node %d", op, id)
	}
	return e
}

// children returns the child list of parent (the roots for None).
func (m *Mirror) children(op string, parent vdom.ID) (*[]vdom.ID, bool) {
	if parent == vdom.None {
		return &m.roots, true
	}
	p := m.element(op, parent)
	if p == nil {
		return nil, false
	}
	return &p.Children, true
}

func (m *Mirror) create(op string, parent, id vdom.ID, tag string) *Element {
	if _, dup := m.nodes[id]; dup || id == vdom.None {
		m.fail("%s: node %d already exists", op, id)
		return nil
	}
	e := &Element{ID: id, Tag: tag, Parent: parent}
	m.nodes[id] = e
	return e
}

func (m *Mirror) AppendNode(parent, id vdom.ID, tag string) {
	list, ok := m.children("AppendNode", parent)
	if !ok {
		return
	}
	if m.create("AppendNode", parent, id, tag) != nil {
		*list = append(*list, id)
	}
}

func (m *Mirror) InsertNode(parent, ref, id vdom.ID, tag string) {
	list, ok := m.children("InsertNode", parent)
	if !ok {
		return
	}
	at := indexOf(*list, ref)
	if at < 0 {
		m.fail("InsertNode: %d is not a child of %d", ref, parent)
		return
	}
	if m.create("InsertNode", parent, id, tag) != nil {
		*list = append(*list, vdom.None)
		copy((*list)[at+1:], (*list)[at:])
		(*list)[at] = id
	}
}

func (m *Mirror) RemoveNode(parent, id vdom.ID) {
	list, ok := m.children("RemoveNode", parent)
	if !ok {
		return
	}
	at := indexOf(*list, id)
	if at < 0 {
		m.fail("RemoveNode: %d is not a child of %d", id, parent)
		return
	}
	*list = append((*list)[:at], (*list)[at+1:]...)
	m.dispose(id)
}

func (m *Mirror) dispose(id vdom.ID) {
	e, ok := m.nodes[id]
	if !ok {
		return
	}
	for _, c := range e.Children {
		m.dispose(c)
	}
	for _, l := range e.Listeners {
		m.unref(l.Handler)
	}
	delete(m.nodes, id)
}

func (m *Mirror) UpdateNode(oldID, newID vdom.ID) {
	m.rename("UpdateNode", oldID, newID)
}

// ReplaceNode changes the element kind in place and keeps its content so
// the patches that follow, computed against the old node, still apply.
func (m *Mirror) ReplaceNode(oldID, newID vdom.ID, tag string) {
	if e := m.rename("ReplaceNode", oldID, newID); e != nil {
		e.Tag = tag
	}
}

func (m *Mirror) rename(op string, oldID, newID vdom.ID) *Element {
	e := m.element(op, oldID)
	if e == nil {
		return nil
	}
	if oldID == newID {
		return e
	}
	if _, dup := m.nodes[newID]; dup {
		m.fail("%s: node %d already exists", op, newID)
		return nil
	}

	delete(m.nodes, oldID)
	e.ID = newID
	m.nodes[newID] = e

	if list, ok := m.children(op, e.Parent); ok {
		if at := indexOf(*list, oldID); at >= 0 {
			(*list)[at] = newID
		}
	}
	for _, c := range e.Children {
		if child, ok := m.nodes[c]; ok {
			child.Parent = newID
		}
	}
	for k, h := range m.pending {
		if k.id == oldID {
			delete(m.pending, k)
			m.pending[listenerKey{newID, k.event}] = h
		}
	}
	return e
}

func (m *Mirror) SetText(id vdom.ID, text string) {
	if e := m.element("SetText", id); e != nil {
		e.Text = text
	}
}

func (m *Mirror) EraseStyle(id vdom.ID, key string) {
	if e := m.element("EraseStyle", id); e != nil {
		delete(e.Style, key)
	}
}

func (m *Mirror) ApplyStyle(id vdom.ID, key, value string) {
	e := m.element("ApplyStyle", id)
	if e == nil {
		return
	}
	if e.Style == nil {
		e.Style = make(map[string]string)
	}
	e.Style[key] = value
}

func (m *Mirror) DetachEvent(id vdom.ID, event string, disposeHandler bool) {
	e := m.element("DetachEvent", id)
	if e == nil {
		return
	}
	l, ok := e.Listeners[event]
	if !ok {
		m.fail("DetachEvent: no %s listener on %d", event, id)
		return
	}
	delete(e.Listeners, event)
	if disposeHandler {
		m.unref(l.Handler)
		return
	}
	m.pending[listenerKey{id, event}] = l.Handler
}

func (m *Mirror) AttachEvent(id vdom.ID, event string, preventDefault, stopPropagation bool, handler vdom.HandlerID) {
	e := m.element("AttachEvent", id)
	if e == nil {
		return
	}
	if e.Listeners == nil {
		e.Listeners = make(map[string]Listener)
	}
	old, replaced := e.Listeners[event]
	e.Listeners[event] = Listener{
		PreventDefault:  preventDefault,
		StopPropagation: stopPropagation,
		Handler:         handler,
	}
	m.ref(handler)

	key := listenerKey{id, event}
	if h, ok := m.pending[key]; ok {
		delete(m.pending, key)
		m.unref(h)
	}
	if replaced {
		m.unref(old.Handler)
	}
}

func (m *Mirror) ref(h vdom.HandlerID) {
	if h != 0 {
		m.refs[h]++
	}
}

func (m *Mirror) unref(h vdom.HandlerID) {
	if h == 0 {
		return
	}
	n := m.refs[h] - 1
	if n > 0 {
		m.refs[h] = n
		return
	}
	delete(m.refs, h)
	if m.OnRelease != nil {
		m.OnRelease(h)
	}
}

// Markup renders the host tree, one element per line, indented by depth:
//
//	ul style="color:red"
//	  li on="click:3+prevent"
//	    #text "Item 1"
func (m *Mirror) Markup() string {
	var b strings.Builder
	for _, id := range m.roots {
		m.markup(&b, id, 0)
	}
	return b.String()
}

func (m *Mirror) markup(b *strings.Builder, id vdom.ID, depth int) {
	e, ok := m.nodes[id]
	if !ok {
		fmt.Fprintf(b, "%s<missing %d>\n", strings.Repeat("  ", depth), id)
		return
	}
	listeners := make(map[string]string, len(e.Listeners))
	for name, l := range e.Listeners {
		listeners[name] = FormatListener(l.Handler, l.PreventDefault, l.StopPropagation)
	}
	WriteMarkupLine(b, depth, e.Tag, e.Style, listeners, e.Text)
	for _, c := range e.Children {
		m.markup(b, c, depth+1)
	}
}

// FormatListener renders a listener as handler[+prevent][+stop].
func FormatListener(handler vdom.HandlerID, preventDefault, stopPropagation bool) string {
	s := fmt.Sprint(handler)
	if preventDefault {
		s += "+prevent"
	}
	if stopPropagation {
		s += "+stop"
	}
	return s
}

// WriteMarkupLine writes one Markup line. Keys are sorted.
func WriteMarkupLine(b *strings.Builder, depth int, tag string, style, listeners map[string]string, text string) {
	b.WriteString(strings.Repeat("  ", depth))
	b.WriteString(tag)
	if len(style) > 0 {
		b.WriteString(` style="`)
		writePairs(b, style)
		b.WriteByte('"')
	}
	if len(listeners) > 0 {
		b.WriteString(` on="`)
		writePairs(b, listeners)
		b.WriteByte('"')
	}
	if text != "" {
		fmt.Fprintf(b, " %q", text)
	}
	b.WriteByte('\n')
}

func writePairs(b *strings.Builder, m map[string]string) {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for i, k := range keys {
		if i > 0 {
			b.WriteByte(';')
		}
		b.WriteString(k)
		b.WriteByte(':')
		b.WriteString(m[k])
	}
}

func indexOf(ids []vdom.ID, id vdom.ID) int {
	for i, v := range ids {
		if v == id {
			return i
		}
	}
	return -1
}
