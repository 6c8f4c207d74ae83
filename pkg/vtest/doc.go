// Package vtest provides testing helpers for code built on vdom.
//
// Markup renders an arena tree in the same line format host.Mirror uses, so
// a test can check that a host driven by Diff ends up matching the desired
// tree:
//
//	a := vdom.NewArena()
//	m := host.NewMirror()
//	root := a.El("ul", a.El("li", "one"))
//	a.Diff(m, vdom.None, vdom.None, root)
//	vtest.ExpectMirror(t, m, a, root)
//
// Call assertions work on a host.Recorder:
//
//	rec := &host.Recorder{}
//	a.Diff(rec, vdom.None, prev, next)
//	vtest.ExpectCalls(t, rec, "UpdateNode(1,4)", "ApplyStyle(4,color,red)")
package vtest
