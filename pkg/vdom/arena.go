package vdom

import (
	"fmt"
	"sort"
)

// ID is the identity of a node. IDs are allocated by an Arena, are unique for
// the arena's lifetime and are never reused. The same value is the node's
// wire-visible id on the sink side.
type ID uint64

// None is the zero ID. It stands for "no node" and for the parent of a root.
const None ID = 0

// TextTag is the tag given to text nodes.
const TextTag = "#text"

// Node is one element of a desired tree. Nodes are created and mutated
// through their Arena; the accessors here are read-only.
type Node struct {
	id       ID
	parent   ID
	tag      string
	style    map[string]string
	events   map[string]EventDescriptor
	children []ID
	isText   bool
	text     string
}

// ID returns the node's identity.
func (n *Node) ID() ID { return n.id }

// Tag returns the element kind.
func (n *Node) Tag() string { return n.tag }

// IsText reports whether the node is a text leaf.
func (n *Node) IsText() bool { return n.isText }

// Text returns the text payload of a text node.
func (n *Node) Text() string { return n.text }

// Children returns the ordered child IDs. The slice must not be modified.
func (n *Node) Children() []ID { return n.children }

// Style returns the value of a style key.
func (n *Node) Style(key string) (string, bool) {
	v, ok := n.style[key]
	return v, ok
}

// StyleKeys returns the node's style keys in sorted order.
func (n *Node) StyleKeys() []string { return sortedKeys(n.style) }

// Event returns the descriptor attached for an event name.
func (n *Node) Event(name string) (EventDescriptor, bool) {
	e, ok := n.events[name]
	return e, ok
}

// EventNames returns the node's event names in sorted order.
func (n *Node) EventNames() []string { return sortedKeys(n.events) }

// Stats counts what an arena currently holds.
type Stats struct {
	Nodes  int
	Events int
}

// Arena owns the nodes of one or more trees and hands out their IDs.
type Arena struct {
	nodes   map[ID]*Node
	next    ID
	diffing bool
}

// NewArena creates an empty arena.
func NewArena() *Arena {
	return &Arena{
		nodes: make(map[ID]*Node),
	}
}

// Element creates a container node with the given tag.
func (a *Arena) Element(tag string) ID {
	return a.alloc(&Node{tag: tag})
}

// Text creates a text leaf.
func (a *Arena) Text(text string) ID {
	return a.alloc(&Node{tag: TextTag, isText: true, text: text})
}

func (a *Arena) alloc(n *Node) ID {
	a.mustNotDiff()
	a.next++
	n.id = a.next
	a.nodes[n.id] = n
	return n.id
}

// Node returns the node for id, or nil if the arena does not hold it.
func (a *Arena) Node(id ID) *Node {
	return a.nodes[id]
}

// Contains reports whether id is a live node in the arena.
func (a *Arena) Contains(id ID) bool {
	_, ok := a.nodes[id]
	return ok
}

// Len returns the number of live nodes.
func (a *Arena) Len() int {
	return len(a.nodes)
}

// Stats returns the number of live nodes and live event descriptors.
func (a *Arena) Stats() Stats {
	s := Stats{Nodes: len(a.nodes)}
	for _, n := range a.nodes {
		s.Events += len(n.events)
	}
	return s
}

// SetStyle sets a style key on a node.
func (a *Arena) SetStyle(id ID, key, value string) {
	n := a.mutable(id)
	if n.style == nil {
		n.style = make(map[string]string)
	}
	n.style[key] = value
}

// RemoveStyle deletes a style key from a node.
func (a *Arena) RemoveStyle(id ID, key string) {
	delete(a.mutable(id).style, key)
}

// SetEvent attaches (or overwrites) the descriptor for an event name.
func (a *Arena) SetEvent(id ID, name string, desc EventDescriptor) {
	n := a.mutable(id)
	if n.events == nil {
		n.events = make(map[string]EventDescriptor)
	}
	n.events[name] = desc
}

// RemoveEvent deletes the descriptor for an event name.
func (a *Arena) RemoveEvent(id ID, name string) {
	delete(a.mutable(id).events, name)
}

// SetText sets the payload of a text node. It panics if the node has
// children.
func (a *Arena) SetText(id ID, text string) {
	n := a.mutable(id)
	if len(n.children) > 0 {
		panic(fmt.Sprintf("vdom: SetText on node %d which has children", id))
	}
	n.isText = true
	n.text = text
}

// AppendChild appends child as the last child of parent. It panics if parent
// is a text node, if child is already a child of parent or if the append
// would create a cycle.
//
// A subtree of the previous tree may be appended to a new parent to carry it
// over unchanged; Diff then skips it by identity.
func (a *Arena) AppendChild(parent, child ID) {
	p := a.mutable(parent)
	c := a.mutable(child)
	if p.isText {
		panic(fmt.Sprintf("vdom: AppendChild on text node %d", parent))
	}
	if indexOf(p.children, child) >= 0 {
		panic(fmt.Sprintf("vdom: node %d is already a child of %d", child, parent))
	}
	// Carried nodes have more than one parent, so walk down from child
	// rather than up from parent.
	if a.reaches(child, parent, make(map[ID]struct{})) {
		panic(fmt.Sprintf("vdom: appending node %d to %d creates a cycle", child, parent))
	}
	c.parent = parent
	p.children = append(p.children, child)
}

// reaches reports whether target is from or one of its descendants.
func (a *Arena) reaches(from, target ID, seen map[ID]struct{}) bool {
	if from == target {
		return true
	}
	if _, ok := seen[from]; ok {
		return false
	}
	seen[from] = struct{}{}
	n, ok := a.nodes[from]
	if !ok {
		return false
	}
	for _, c := range n.children {
		if a.reaches(c, target, seen) {
			return true
		}
	}
	return false
}

func indexOf(ids []ID, id ID) int {
	for i, v := range ids {
		if v == id {
			return i
		}
	}
	return -1
}

// Destroy releases a node and its whole subtree from the arena and unlinks
// it from its parent. Destroying an unknown ID is a no-op.
func (a *Arena) Destroy(id ID) {
	a.mustNotDiff()
	n, ok := a.nodes[id]
	if !ok {
		return
	}
	if p, ok := a.nodes[n.parent]; ok {
		if i := indexOf(p.children, id); i >= 0 {
			p.children = append(p.children[:i:i], p.children[i+1:]...)
		}
	}
	a.destroy(id, nil)
}

// destroy frees id and its descendants, skipping (and not descending into)
// nodes in keep.
func (a *Arena) destroy(id ID, keep map[ID]struct{}) {
	n, ok := a.nodes[id]
	if !ok {
		return
	}
	if _, live := keep[id]; live {
		return
	}
	children := n.children
	a.free(n)
	for _, c := range children {
		a.destroy(c, keep)
	}
}

func (a *Arena) free(n *Node) {
	n.events = nil
	n.style = nil
	n.children = nil
	delete(a.nodes, n.id)
}

func (a *Arena) mutable(id ID) *Node {
	a.mustNotDiff()
	n, ok := a.nodes[id]
	if !ok {
		panic(fmt.Sprintf("vdom: unknown node %d", id))
	}
	return n
}

func (a *Arena) mustNotDiff() {
	if a.diffing {
		panic("vdom: arena mutated during a diff pass")
	}
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
