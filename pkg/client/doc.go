// Package client is a Go client for a vdiff server.
//
// A Client keeps its own host.Mirror of the remote tree. Frames read from the
// websocket are replayed onto it from the client's bridge loop, so the Mirror
// is never touched concurrently; callers reach it through Do and WaitFor.
//
//	c, err := client.Dial(ctx, "ws://localhost:8080/ws")
//	...
//	err = c.WaitFor(ctx, func(m *host.Mirror) bool { return m.Len() > 0 })
//	err = c.Fire(ctx, buttonID, "click", nil)
package client
