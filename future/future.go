// Package future provides a single-resolution completion primitive
package future

import (
	"context"
	"errors"
	"sync"
)

// Status is the lifecycle position of a Future
type Status int

const (
	Pending Status = iota
	Resolved
	Rejected
)

func (s Status) String() string {
	switch s {
	case Resolved:
		return "resolved"
	case Rejected:
		return "rejected"
	default:
		return "pending"
	}
}

// ErrRejected is returned by Wait when Reject was called with a nil error
var ErrRejected = errors.New("future rejected")

// Future resolves or rejects exactly once
// Subscribers registered after settlement are invoked immediately
// Safe for concurrent use; callbacks run on the settling goroutine
type Future[T any] struct {
	mu     sync.Mutex
	status Status
	value  T
	err    error

	doneList []func(T)
	failList []func(error)
	settled  chan struct{}
}

// New creates a pending future
func New[T any]() *Future[T] {
	return &Future[T]{settled: make(chan struct{})}
}

// Resolve settles the future with v, returns false if already settled
func (f *Future[T]) Resolve(v T) bool {
	f.mu.Lock()
	if f.status != Pending {
		f.mu.Unlock()
		return false
	}
	f.status = Resolved
	f.value = v
	list := f.doneList
	f.doneList, f.failList = nil, nil
	close(f.settled)
	f.mu.Unlock()

	for _, fn := range list {
		fn(v)
	}
	return true
}

// Reject settles the future with err, returns false if already settled
func (f *Future[T]) Reject(err error) bool {
	if err == nil {
		err = ErrRejected
	}

	f.mu.Lock()
	if f.status != Pending {
		f.mu.Unlock()
		return false
	}
	f.status = Rejected
	f.err = err
	list := f.failList
	f.doneList, f.failList = nil, nil
	close(f.settled)
	f.mu.Unlock()

	for _, fn := range list {
		fn(err)
	}
	return true
}

// Done subscribes to resolution
func (f *Future[T]) Done(fns ...func(T)) *Future[T] {
	f.mu.Lock()
	switch f.status {
	case Pending:
		for _, fn := range fns {
			if fn != nil {
				f.doneList = append(f.doneList, fn)
			}
		}
		f.mu.Unlock()
	case Resolved:
		v := f.value
		f.mu.Unlock()
		for _, fn := range fns {
			if fn != nil {
				fn(v)
			}
		}
	default:
		f.mu.Unlock()
	}
	return f
}

// Fail subscribes to rejection
func (f *Future[T]) Fail(fns ...func(error)) *Future[T] {
	f.mu.Lock()
	switch f.status {
	case Pending:
		for _, fn := range fns {
			if fn != nil {
				f.failList = append(f.failList, fn)
			}
		}
		f.mu.Unlock()
	case Rejected:
		err := f.err
		f.mu.Unlock()
		for _, fn := range fns {
			if fn != nil {
				fn(err)
			}
		}
	default:
		f.mu.Unlock()
	}
	return f
}

// Then subscribes to both outcomes
func (f *Future[T]) Then(done func(T), fail func(error)) *Future[T] {
	return f.Done(done).Fail(fail)
}

// Always runs fn on either outcome
func (f *Future[T]) Always(fn func()) *Future[T] {
	if fn == nil {
		return f
	}
	return f.Then(func(T) { fn() }, func(error) { fn() })
}

// Status returns the current lifecycle position
func (f *Future[T]) Status() Status {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.status
}

// IsResolved reports whether the future has settled either way
func (f *Future[T]) IsResolved() bool {
	return f.Status() != Pending
}

// Settled returns a channel closed on settlement
func (f *Future[T]) Settled() <-chan struct{} {
	return f.settled
}

// Wait blocks until settlement or ctx cancellation
func (f *Future[T]) Wait(ctx context.Context) (T, error) {
	select {
	case <-f.settled:
	case <-ctx.Done():
		var zero T
		return zero, ctx.Err()
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	if f.status == Rejected {
		var zero T
		return zero, f.err
	}
	return f.value, nil
}
