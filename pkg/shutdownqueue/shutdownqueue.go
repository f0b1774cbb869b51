// Package shutdownqueue is a process-wide LIFO queue of cleanup tasks.
// The API entrypoint registers its teardown here in startup order (DB
// pool close, then HTTP server shutdown) and drains the queue once at
// the end of main:
//
//	ctx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
//	defer cancel()
//	defer shutdownqueue.Shutdown(ctx)
//
// Draining runs each task once, in reverse order of registration, so
// the server stops accepting requests before the pool it depends on is
// closed. Panics are recovered. Shutdown is idempotent and aggregates
// task errors with errors.Join.
package shutdownqueue

import (
	"context"
	"errors"
	"fmt"
	"sync"
)

// Task is one cleanup step. It must honor ctx and report an error if it
// cannot finish before ctx is done.
type Task func(ctx context.Context) error

type queue struct {
	mu     sync.Mutex
	tasks  []Task
	closed bool
}

var (
	q         *queue
	onceSetup sync.Once
)

func init() {
	onceSetup.Do(func() {
		q = &queue{tasks: make([]Task, 0, 8)}
	})
}

// Add registers a task to be run on Shutdown, in LIFO order. Safe to
// call from any goroutine. A nil task, or a task added after shutdown
// has started, is ignored.
func Add(t Task) {
	if t == nil {
		return
	}

	q.mu.Lock()
	defer q.mu.Unlock()

	if q.closed {
		return
	}

	q.tasks = append(q.tasks, t)
}

// Shutdown drains the registered tasks in LIFO order. Calling it again
// after the first (complete or partial) drain is a no-op.
//
// If ctx ends mid-drain, Shutdown stops early; the returned error joins
// the context error with any task errors collected so far.
func Shutdown(ctx context.Context) error {
	// Take ownership of the task list and mark the queue closed.
	q.mu.Lock()

	if q.closed && len(q.tasks) == 0 {
		q.mu.Unlock()

		return nil
	}

	q.closed = true

	tasks := q.tasks

	q.tasks = nil

	q.mu.Unlock()

	var errs []error

	// Run in strict LIFO.
	for i := len(tasks) - 1; i >= 0; i-- {
		// Stop draining once ctx is done.
		select {
		case <-ctx.Done():
			errs = append(errs, fmt.Errorf("shutdown canceled: %w", ctx.Err()))

			return errors.Join(errs...)
		default:
		}

		// A panicking task must not abort the rest of the drain.
		func(t Task) {
			defer func() {
				r := recover()
				if r != nil {
					errs = append(errs, fmt.Errorf("panic in shutdown task: %v", r))
				}
			}()

			err := t(ctx)
			if err != nil {
				errs = append(errs, err)
			}
		}(tasks[i])
	}

	return errors.Join(errs...)
}
