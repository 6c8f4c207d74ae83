// Package host provides vdom.Sink implementations that stand in for, or feed,
// a real UI surface.
//
// Mirror keeps an in-memory copy of the host tree and is what a server keeps
// per session as its shadow of the remote surface. Wire turns sink calls into
// protocol deltas and Replay feeds decoded deltas back into any sink, so
// a Mirror on the far side of a websocket ends up identical to the one on
// the server. Tee fans calls out to several sinks, Log traces them with slog
// and Recorder keeps them for assertions.
package host
