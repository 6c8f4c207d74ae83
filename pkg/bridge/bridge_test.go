package bridge

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"
)

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// runAsync starts Run in a goroutine and returns a channel with its result.
func runAsync(ctx context.Context, b *Bridge) <-chan error {
	errc := make(chan error, 1)
	go func() { errc <- b.Run(ctx) }()
	return errc
}

func TestSubmitRunsInOrder(t *testing.T) {
	b := New()
	var got []int
	for i := 0; i < 100; i++ {
		if err := b.Submit(func(p any) { got = append(got, p.(int)) }, i); err != nil {
			t.Fatalf("Submit() error = %v", err)
		}
	}
	if b.Pending() != 100 {
		t.Errorf("Pending() = %d, want 100", b.Pending())
	}
	b.Close()

	if err := b.Run(context.Background()); err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if len(got) != 100 {
		t.Fatalf("ran %d tasks, want 100", len(got))
	}
	for i, v := range got {
		if v != i {
			t.Fatalf("task %d ran with payload %d", i, v)
		}
	}
	if b.Pending() != 0 {
		t.Errorf("Pending() = %d, want 0", b.Pending())
	}
}

func TestConcurrentProducersExactlyOnce(t *testing.T) {
	const producers, perProducer = 8, 500
	b := New()
	errc := runAsync(context.Background(), b)

	// Touched only by the Run goroutine.
	seen := make(map[int]int)
	lastByProducer := make(map[int]int)
	var ordered = true

	var wg sync.WaitGroup
	for p := 0; p < producers; p++ {
		wg.Add(1)
		go func(p int) {
			defer wg.Done()
			for i := 0; i < perProducer; i++ {
				v := p*perProducer + i
				_ = b.Submit(func(payload any) {
					v := payload.(int)
					seen[v]++
					prod := v / perProducer
					if last, ok := lastByProducer[prod]; ok && last >= v {
						ordered = false
					}
					lastByProducer[prod] = v
				}, v)
			}
		}(p)
	}
	wg.Wait()
	b.Close()

	if err := <-errc; err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if len(seen) != producers*perProducer {
		t.Errorf("ran %d distinct tasks, want %d", len(seen), producers*perProducer)
	}
	for v, n := range seen {
		if n != 1 {
			t.Errorf("task %d ran %d times", v, n)
		}
	}
	if !ordered {
		t.Error("tasks of one producer ran out of order")
	}
}

func TestCancelledRunKeepsQueue(t *testing.T) {
	b := New()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	ran := 0
	_ = b.Post(func() { ran++ })
	if err := b.Run(ctx); !errors.Is(err, context.Canceled) {
		t.Fatalf("Run() error = %v, want %v", err, context.Canceled)
	}
	if ran != 0 || b.Pending() != 1 {
		t.Fatalf("ran = %d, Pending() = %d, want 0 and 1", ran, b.Pending())
	}

	b.Close()
	if err := b.Run(context.Background()); err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if ran != 1 {
		t.Errorf("ran = %d, want 1", ran)
	}
}

func TestCancelWhileIdle(t *testing.T) {
	b := New()
	ctx, cancel := context.WithCancel(context.Background())
	errc := runAsync(ctx, b)
	cancel()

	select {
	case err := <-errc:
		if !errors.Is(err, context.Canceled) {
			t.Errorf("Run() error = %v, want %v", err, context.Canceled)
		}
	case <-time.After(time.Second):
		t.Fatal("Run did not return after cancel")
	}
}

func TestSubmitAfterClose(t *testing.T) {
	b := New()
	b.Close()
	b.Close()
	if err := b.Post(func() {}); err != ErrClosed {
		t.Errorf("Post() error = %v, want %v", err, ErrClosed)
	}
	if err := b.Submit(func(any) {}, nil); err != ErrClosed {
		t.Errorf("Submit() error = %v, want %v", err, ErrClosed)
	}
	if err := b.Do(context.Background(), func() {}); err != ErrClosed {
		t.Errorf("Do() error = %v, want %v", err, ErrClosed)
	}
}

func TestDoWaitsForCompletion(t *testing.T) {
	b := New()
	errc := runAsync(context.Background(), b)
	defer func() {
		b.Close()
		<-errc
	}()

	value := 0
	if err := b.Do(context.Background(), func() { value = 7 }); err != nil {
		t.Fatalf("Do() error = %v", err)
	}
	if value != 7 {
		t.Errorf("value = %d, want 7", value)
	}
}

func TestDoContextDone(t *testing.T) {
	b := New()
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()

	// No Run loop: the wait is abandoned but the task stays queued.
	if err := b.Do(ctx, func() {}); !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("Do() error = %v, want %v", err, context.DeadlineExceeded)
	}
	if b.Pending() != 1 {
		t.Errorf("Pending() = %d, want 1", b.Pending())
	}
}

func TestTaskPanicIsRecovered(t *testing.T) {
	b := New(WithLogger(quietLogger()))
	errc := runAsync(context.Background(), b)

	err := b.Do(context.Background(), func() { panic("boom") })
	var pe *PanicError
	if !errors.As(err, &pe) || pe.Value != "boom" {
		t.Fatalf("Do() error = %v, want PanicError(boom)", err)
	}

	ran := false
	if err := b.Do(context.Background(), func() { ran = true }); err != nil || !ran {
		t.Errorf("loop did not survive panic: err = %v, ran = %v", err, ran)
	}
	b.Close()
	<-errc
}

func TestConcurrentRunPanics(t *testing.T) {
	b := New()
	ctx, cancel := context.WithCancel(context.Background())
	errc := runAsync(ctx, b)
	defer func() {
		cancel()
		<-errc
	}()

	// Make sure the first Run is active.
	if err := b.Do(context.Background(), func() {}); err != nil {
		t.Fatalf("Do() error = %v", err)
	}

	defer func() {
		if r := recover(); r == nil {
			t.Error("Expected panic")
		}
	}()
	b.Run(context.Background())
}

func TestLockOSThread(t *testing.T) {
	b := New(WithLockOSThread())
	ran := false
	_ = b.Post(func() { ran = true })
	b.Close()
	if err := b.Run(context.Background()); err != nil || !ran {
		t.Errorf("Run() = %v, ran = %v", err, ran)
	}
}

func TestNilFuncPanics(t *testing.T) {
	defer func() {
		if r := recover(); r == nil {
			t.Error("Expected panic")
		}
	}()
	New().Post(nil)
}
