package orchestrator

import (
	"context"
	"sync"
)

// CompletionFuture is resolved exactly once when its batch reaches a
// terminal state. It is returned by TaskManager.Schedule so callers can
// wait on a specific batch without registering callbacks.
type CompletionFuture struct {
	scheduleID string
	done       chan struct{}
	once       sync.Once

	mu     sync.Mutex
	result string
	err    error
}

func newCompletionFuture(scheduleID string) *CompletionFuture {
	return &CompletionFuture{
		scheduleID: scheduleID,
		done:       make(chan struct{}),
	}
}

// ScheduleID returns the schedule identifier this future tracks.
func (f *CompletionFuture) ScheduleID() string {
	return f.scheduleID
}

// resolve marks the batch completed. Later calls to resolve or fail are no-ops.
func (f *CompletionFuture) resolve(result string) {
	f.once.Do(func() {
		f.mu.Lock()
		f.result = result
		f.mu.Unlock()
		close(f.done)
	})
}

// fail marks the batch failed. Later calls to resolve or fail are no-ops.
func (f *CompletionFuture) fail(err error) {
	f.once.Do(func() {
		f.mu.Lock()
		f.err = err
		f.mu.Unlock()
		close(f.done)
	})
}

// Done returns a channel closed when the batch reaches a terminal state.
func (f *CompletionFuture) Done() <-chan struct{} {
	return f.done
}

// Resolved reports whether the future has reached a terminal state.
func (f *CompletionFuture) Resolved() bool {
	select {
	case <-f.done:
		return true
	default:
		return false
	}
}

// Wait blocks until the batch terminates or the context is cancelled.
// A failed batch returns its error; a cancelled wait returns ctx.Err().
func (f *CompletionFuture) Wait(ctx context.Context) (string, error) {
	select {
	case <-ctx.Done():
		return "", ctx.Err()
	case <-f.done:
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	return f.result, f.err
}
