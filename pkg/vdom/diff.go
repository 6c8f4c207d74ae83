package vdom

import "fmt"

// Diff compares the tree rooted at prev with the tree rooted at next and
// reports every difference to sink, in order, as it is found. parent is the
// id of the slot both trees hang from (None for a root). Either prev or next
// may be None, but not both.
//
// Nodes of the previous tree that are not reachable from next are released
// from the arena once the pass is over. A subtree of prev that next reuses
// by reference at the same position is skipped and kept.
//
// Diff panics on a nil sink, on None for both trees, on unknown ids and when
// called while another pass on the same arena is in flight. A sink that
// panics aborts the pass with the deltas emitted so far left applied.
func (a *Arena) Diff(sink Sink, parent, prev, next ID) {
	if sink == nil {
		panic("vdom: Diff with nil sink")
	}
	if prev == None && next == None {
		panic("vdom: Diff with neither a previous nor a new node")
	}
	if a.diffing {
		panic("vdom: Diff called while another pass is in flight")
	}

	p := &pass{arena: a, sink: sink}
	oldNode := p.lookup(prev)
	newNode := p.lookup(next)

	a.diffing = true
	defer func() { a.diffing = false }()

	p.diff(parent, oldNode, newNode)
	p.dispose(next)
}

// pass holds the state of one Diff call.
type pass struct {
	arena *Arena
	sink  Sink

	// superseded are old nodes whose position was taken by a new node;
	// only the node itself is released, its children are handled by their
	// own comparisons.
	superseded []ID
	// dropped are roots of old subtrees removed from the tree.
	dropped []ID
}

func (p *pass) lookup(id ID) *Node {
	if id == None {
		return nil
	}
	n, ok := p.arena.nodes[id]
	if !ok {
		panic(fmt.Sprintf("vdom: unknown node %d", id))
	}
	return n
}

func (p *pass) diff(parent ID, old, next *Node) {
	if old == next {
		return
	}

	switch {
	case old == nil:
		p.sink.AppendNode(parent, next.id, next.tag)
	case next == nil:
		p.sink.RemoveNode(parent, old.id)
		p.dropped = append(p.dropped, old.id)
		return
	case old.tag == next.tag:
		p.sink.UpdateNode(old.id, next.id)
	default:
		p.sink.ReplaceNode(old.id, next.id, next.tag)
	}
	if old != nil {
		p.superseded = append(p.superseded, old.id)
	}

	p.diffStyle(old, next)
	p.diffEvents(old, next)
	p.diffText(old, next)
	p.diffChildren(old, next)
}

// diffStyle erases keys that disappeared and then re-asserts every current
// key, changed or not.
func (p *pass) diffStyle(old, next *Node) {
	id := next.id
	if old != nil {
		for _, key := range sortedKeys(old.style) {
			if _, ok := next.style[key]; !ok {
				p.sink.EraseStyle(id, key)
			}
		}
	}
	for _, key := range sortedKeys(next.style) {
		p.sink.ApplyStyle(id, key, next.style[key])
	}
}

func (p *pass) diffEvents(old, next *Node) {
	id := next.id
	if old != nil {
		for _, name := range sortedKeys(old.events) {
			prevDesc := old.events[name]
			desc, ok := next.events[name]
			switch {
			case !ok:
				p.sink.DetachEvent(id, name, true)
			case !desc.Equal(prevDesc):
				p.sink.DetachEvent(id, name, false)
				p.attach(id, name, desc)
			}
		}
	}
	for _, name := range sortedKeys(next.events) {
		if old != nil {
			if _, ok := old.events[name]; ok {
				continue
			}
		}
		p.attach(id, name, next.events[name])
	}
}

func (p *pass) attach(id ID, name string, desc EventDescriptor) {
	p.sink.AttachEvent(id, name, desc.PreventDefault, desc.StopPropagation, desc.Handler)
}

func (p *pass) diffText(old, next *Node) {
	switch {
	case next.isText:
		if old == nil || !old.isText || old.text != next.text {
			p.sink.SetText(next.id, next.text)
		}
	case old != nil && old.isText && old.text != "":
		p.sink.SetText(next.id, "")
	}
}

// diffChildren compares children by index, then removes the trailing old
// children that have no counterpart.
func (p *pass) diffChildren(old, next *Node) {
	for i, child := range next.children {
		var oldChild *Node
		if old != nil && i < len(old.children) {
			oldChild = p.lookup(old.children[i])
		}
		p.diff(next.id, oldChild, p.lookup(child))
	}
	if old == nil {
		return
	}
	for i := len(next.children); i < len(old.children); i++ {
		p.diff(next.id, p.lookup(old.children[i]), nil)
	}
}

// dispose releases the old nodes this pass left behind, sparing anything
// still reachable from next.
func (p *pass) dispose(next ID) {
	if len(p.superseded) == 0 && len(p.dropped) == 0 {
		return
	}
	live := make(map[ID]struct{})
	if next != None {
		p.mark(next, live)
	}
	a := p.arena
	for _, id := range p.superseded {
		if _, ok := live[id]; ok {
			continue
		}
		if n, ok := a.nodes[id]; ok {
			a.free(n)
		}
	}
	for _, id := range p.dropped {
		a.destroy(id, live)
	}
}

func (p *pass) mark(id ID, live map[ID]struct{}) {
	if _, seen := live[id]; seen {
		return
	}
	n, ok := p.arena.nodes[id]
	if !ok {
		return
	}
	live[id] = struct{}{}
	for _, c := range n.children {
		p.mark(c, live)
	}
}
