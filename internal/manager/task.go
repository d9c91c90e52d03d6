package manager

import (
	"context"
	"sync"
)

// Task is the handle for an asynchronous install/update/uninstall operation.
type Task struct {
	cancel context.CancelFunc
	done   chan struct{}

	mu  sync.Mutex
	err error
}

func newTask(cancel context.CancelFunc) *Task {
	return &Task{cancel: cancel, done: make(chan struct{})}
}

// Cancel requests the operation to stop. Cancellation is prompt but not
// instantaneous; the operation still cleans up and completes with an error.
func (t *Task) Cancel() { t.cancel() }

// Done is closed when the operation has finished, on every exit path.
func (t *Task) Done() <-chan struct{} { return t.done }

// Err returns the operation outcome. Only valid after Done is closed.
func (t *Task) Err() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.err
}

// Wait blocks until the operation finishes or ctx expires.
func (t *Task) Wait(ctx context.Context) error {
	select {
	case <-t.done:
		return t.Err()
	case <-ctx.Done():
		return ctx.Err()
	}
}

// finish records the outcome and releases waiters. Must be called exactly once.
func (t *Task) finish(err error) {
	t.mu.Lock()
	t.err = err
	t.mu.Unlock()
	close(t.done)
}
