// Package bridge runs callbacks on the goroutine that owns a node tree.
//
// A UI tree, its arena and its delta sink belong to a single goroutine. Other
// goroutines (network readers, timers, workers) never touch them; they hand
// work over with Submit, Post or Do, and the owner executes it from Run:
//
//	b := bridge.New()
//	go func() {
//		b.Submit(func(p any) { app.SetCount(p.(int)); app.Render() }, 42)
//	}()
//	err := b.Run(ctx)
//
// Tasks run in submission order, exactly once. The queue is unbounded:
// submitting never blocks and never drops a task. Tasks still queued when
// Run returns because its context was cancelled stay queued for the next
// Run. After Close, Run executes whatever is queued and returns.
//
// Toolkits with thread affinity can pin the loop to one OS thread with
// WithLockOSThread.
package bridge
