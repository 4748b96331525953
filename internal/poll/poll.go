// Package poll runs a function on a fixed cadence and hands back a handle
// that stops it deterministically.
package poll

import (
	"context"
	"sync"
	"time"
)

// Task is the handle of a running periodic job.
type Task struct {
	cancel context.CancelFunc
	done   chan struct{}
	once   sync.Once
}

// Start runs fn once immediately, then every interval until Stop is called
// or the parent context ends. An interval of zero or less runs fn a single
// time. The context passed to fn is canceled when the task stops.
func Start(ctx context.Context, interval time.Duration, fn func(context.Context)) *Task {
	ctx, cancel := context.WithCancel(ctx)
	t := &Task{cancel: cancel, done: make(chan struct{})}

	go func() {
		defer close(t.done)

		fn(ctx)
		if interval <= 0 {
			return
		}

		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				fn(ctx)
			}
		}
	}()

	return t
}

// Stop cancels the task and waits for the loop to exit. Safe to call more
// than once and from multiple goroutines.
func (t *Task) Stop() {
	t.once.Do(t.cancel)
	<-t.done
}

// Done reports loop exit, for callers that only want to observe it.
func (t *Task) Done() <-chan struct{} { return t.done }
