package bridge

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"runtime"
	"runtime/debug"
	"sync"
	"sync/atomic"
)

// ErrClosed is returned when submitting to a closed bridge.
var ErrClosed = errors.New("bridge: closed")

// PanicError is returned by Do when the task panicked.
type PanicError struct {
	Value any
	Stack []byte
}

func (e *PanicError) Error() string {
	return fmt.Sprintf("bridge: task panicked: %v", e.Value)
}

type task struct {
	fn      func(any)
	payload any
	done    chan error // Do only
}

// Bridge is a FIFO queue of callbacks drained by a single Run loop.
type Bridge struct {
	mu     sync.Mutex
	queue  []task
	closed bool
	wake   chan struct{}

	running atomic.Bool

	lockOSThread bool
	logger       *slog.Logger
}

// Option configures a Bridge.
type Option func(*Bridge)

// WithLockOSThread makes Run lock its goroutine to the current OS thread.
func WithLockOSThread() Option {
	return func(b *Bridge) { b.lockOSThread = true }
}

// WithLogger sets the logger used for task panics.
func WithLogger(logger *slog.Logger) Option {
	return func(b *Bridge) {
		if logger != nil {
			b.logger = logger
		}
	}
}

// New creates a bridge.
func New(opts ...Option) *Bridge {
	b := &Bridge{
		wake:   make(chan struct{}, 1),
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Submit queues fn to be called with payload on the Run goroutine. It is
// safe for concurrent use and never blocks.
func (b *Bridge) Submit(fn func(payload any), payload any) error {
	if fn == nil {
		panic("bridge: Submit with nil func")
	}
	return b.enqueue(task{fn: fn, payload: payload})
}

// Post queues fn to run on the Run goroutine.
func (b *Bridge) Post(fn func()) error {
	if fn == nil {
		panic("bridge: Post with nil func")
	}
	return b.enqueue(task{fn: func(any) { fn() }})
}

// Do queues fn and waits until it has run or ctx is done. A task whose wait
// was abandoned still runs. Do must not be called from the Run goroutine.
func (b *Bridge) Do(ctx context.Context, fn func()) error {
	if fn == nil {
		panic("bridge: Do with nil func")
	}
	done := make(chan error, 1)
	if err := b.enqueue(task{fn: func(any) { fn() }, done: done}); err != nil {
		return err
	}
	select {
	case err := <-done:
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (b *Bridge) enqueue(t task) error {
	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		return ErrClosed
	}
	b.queue = append(b.queue, t)
	b.mu.Unlock()

	select {
	case b.wake <- struct{}{}:
	default:
	}
	return nil
}

// Pending returns the number of queued tasks.
func (b *Bridge) Pending() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.queue)
}

// Close stops accepting tasks. A running (or later) Run drains the queue and
// returns nil. Close is idempotent.
func (b *Bridge) Close() {
	b.mu.Lock()
	b.closed = true
	b.mu.Unlock()

	select {
	case b.wake <- struct{}{}:
	default:
	}
}

// Run executes queued tasks until ctx is done or the bridge is closed and
// drained. Only one Run may be active at a time; a second concurrent call
// panics. It returns ctx.Err() on cancellation and nil after Close.
func (b *Bridge) Run(ctx context.Context) error {
	if !b.running.CompareAndSwap(false, true) {
		panic("bridge: Run called while another Run is active")
	}
	defer b.running.Store(false)

	if b.lockOSThread {
		runtime.LockOSThread()
		defer runtime.UnlockOSThread()
	}

	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		t, ok, closed := b.next()
		if ok {
			b.execute(t)
			continue
		}
		if closed {
			return nil
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-b.wake:
		}
	}
}

func (b *Bridge) next() (task, bool, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if len(b.queue) == 0 {
		return task{}, false, b.closed
	}
	t := b.queue[0]
	b.queue[0] = task{}
	b.queue = b.queue[1:]
	if len(b.queue) == 0 {
		b.queue = nil
	}
	return t, true, b.closed
}

// execute runs one task, converting a panic into a logged PanicError so
// the loop survives.
func (b *Bridge) execute(t task) {
	var err error
	func() {
		defer func() {
			if r := recover(); r != nil {
				stack := debug.Stack()
				b.logger.Error("bridge task panic",
					"panic", r,
					"stack", string(stack))
				err = &PanicError{Value: r, Stack: stack}
			}
		}()
		t.fn(t.payload)
	}()
	if t.done != nil {
		t.done <- err
	}
}
