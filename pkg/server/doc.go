// Package server hosts node trees for remote surfaces over websockets.
//
// Every connection gets a Session that owns an arena, a handler registry, a
// shadow host.Mirror of the remote tree and a bridge loop. All of them are
// touched only from the bridge goroutine. The read loop decodes event frames
// and submits them to the bridge; there the handler runs, the App renders a
// new tree, and the pass is diffed against the previous one and flushed to
// the client as a single deltas frame.
//
//	srv := server.New(func(s *server.Session) server.App {
//		return counter.New()
//	}, server.DefaultConfig())
//	err := srv.ListenAndServe(ctx, ":8080")
//
// Routes:
//
//	GET {Path}               websocket endpoint (default /ws)
//	GET {MetricsPath}        Prometheus metrics (default /metrics)
//	GET /healthz             liveness
//	GET /sessions/{id}/markup  the shadow tree of a session, as text
//
// Events name a node, an event and the handler id the client saw attached.
// An event is rejected with ErrUnknownHandler unless that handler is still
// attached at that node in the shadow tree.
package server
