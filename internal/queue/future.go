package queue

import (
	"context"
	"sync"
)

// Future is a one-shot result handle. The actor completes it exactly once;
// any number of callers may wait on it.
type Future[T any] struct {
	once sync.Once
	done chan struct{}
	val  T
	err  error
}

func newFuture[T any]() *Future[T] {
	return &Future[T]{done: make(chan struct{})}
}

func completedFuture[T any](v T) *Future[T] {
	f := newFuture[T]()
	f.complete(v)
	return f
}

func failedFuture[T any](err error) *Future[T] {
	f := newFuture[T]()
	f.fail(err)
	return f
}

func (f *Future[T]) complete(v T) {
	f.once.Do(func() {
		f.val = v
		close(f.done)
	})
}

func (f *Future[T]) fail(err error) {
	f.once.Do(func() {
		f.err = err
		close(f.done)
	})
}

// Done returns a channel closed when the result is available.
func (f *Future[T]) Done() <-chan struct{} { return f.done }

// Wait blocks until the result is available or ctx is cancelled. Abandoning
// the wait does not cancel the operation; the actor still runs it to
// completion since later operations depend on it.
func (f *Future[T]) Wait(ctx context.Context) (T, error) {
	select {
	case <-f.done:
		return f.val, f.err
	case <-ctx.Done():
		var zero T
		return zero, ctx.Err()
	}
}
