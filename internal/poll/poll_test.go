package poll

import (
	"context"
	"sync/atomic"
	"testing"
	"time"
)

func TestRunsImmediatelyThenTicks(t *testing.T) {
	var runs atomic.Int32
	task := Start(context.Background(), 20*time.Millisecond, func(context.Context) {
		runs.Add(1)
	})
	defer task.Stop()

	time.Sleep(5 * time.Millisecond)
	if got := runs.Load(); got != 1 {
		t.Fatalf("expected 1 immediate run, got %d", got)
	}

	time.Sleep(70 * time.Millisecond)
	if got := runs.Load(); got < 3 {
		t.Errorf("expected at least 3 runs after ticking, got %d", got)
	}
}

func TestStopHaltsTicking(t *testing.T) {
	var runs atomic.Int32
	task := Start(context.Background(), 10*time.Millisecond, func(context.Context) {
		runs.Add(1)
	})

	time.Sleep(35 * time.Millisecond)
	task.Stop()
	after := runs.Load()

	time.Sleep(50 * time.Millisecond)
	if got := runs.Load(); got != after {
		t.Errorf("task kept running after Stop: %d -> %d", after, got)
	}
}

func TestStopIsIdempotent(t *testing.T) {
	task := Start(context.Background(), time.Hour, func(context.Context) {})
	task.Stop()
	task.Stop()

	select {
	case <-task.Done():
	case <-time.After(time.Second):
		t.Fatal("task did not report done")
	}
}

func TestZeroIntervalRunsOnce(t *testing.T) {
	var runs atomic.Int32
	task := Start(context.Background(), 0, func(context.Context) {
		runs.Add(1)
	})

	select {
	case <-task.Done():
	case <-time.After(time.Second):
		t.Fatal("one-shot task did not finish")
	}
	if got := runs.Load(); got != 1 {
		t.Errorf("expected exactly 1 run, got %d", got)
	}
}

func TestParentContextCancels(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	var runs atomic.Int32
	task := Start(ctx, 10*time.Millisecond, func(context.Context) {
		runs.Add(1)
	})

	time.Sleep(25 * time.Millisecond)
	cancel()

	select {
	case <-task.Done():
	case <-time.After(time.Second):
		t.Fatal("task did not stop when parent context ended")
	}
}

func TestStopCancelsFnContext(t *testing.T) {
	started := make(chan struct{})
	canceled := make(chan struct{})
	task := Start(context.Background(), time.Hour, func(ctx context.Context) {
		close(started)
		<-ctx.Done()
		close(canceled)
	})

	<-started
	done := make(chan struct{})
	go func() {
		task.Stop()
		close(done)
	}()

	select {
	case <-canceled:
	case <-time.After(time.Second):
		t.Fatal("fn context was not canceled by Stop")
	}
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Stop did not return")
	}
}
