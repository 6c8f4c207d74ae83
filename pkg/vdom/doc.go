// Package vdom provides the node tree model and the reconciler for vdiff.
//
// A tree is built inside an Arena, which owns every Node and hands out stable
// integer handles (ID). Identity, not content, decides whether two nodes at
// the same tree position are the same node: two different IDs are unrelated
// even if their content is identical.
//
// # Building trees
//
// Trees are built bottom-up, fresh for every render pass:
//
//	a := vdom.NewArena()
//	root := a.El("div", vdom.Style("color", "red"),
//	    a.El("h1", "Title"),
//	    a.El("button", vdom.On("click", 1, vdom.PreventDefault()), "Go"),
//	)
//
// # Diffing
//
// Arena.Diff walks the previous and the new tree in lock-step and reports
// every change to a Sink, synchronously and in order. Children are compared
// by position only: there is no keyed matching and no move detection. Nodes
// of the previous tree are released from the arena at the end of the pass,
// after the sink has been told about them.
//
// The arena is not safe for concurrent use. Building, diffing and applying
// deltas must all happen on the goroutine that owns the tree; other
// goroutines reach it through a bridge.Bridge.
package vdom
