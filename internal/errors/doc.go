// Package errors provides structured, actionable error messages for vdiff.
//
// Each error carries a registered code (e.g. "E202") that maps to a short
// message and a longer explanation, an optional source location (tree and
// config files), and a hint on how to fix it.
//
// # Error Categories
//
//   - config: configuration file errors
//   - tree: tree file errors (invalid nodes, text with children)
//   - protocol: wire protocol errors
//   - runtime: session and host errors
//   - cli: command line usage errors
//
// # Usage
//
//	err := errors.New("E202").
//	    WithLocation("trees/list.yaml", 12, 5).
//	    WithSuggestion("Move the text into a child text node")
//
//	fmt.Println(err.Format())
package errors
