// Package uiloop provides the single-consumer callback queue that owns the
// UI thread. Background goroutines schedule callbacks; exactly one loop
// (Run, or a host pumping RunPending) executes them in FIFO order.
package uiloop

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
)

// ErrClosed is returned by Schedule once the dispatcher has been closed.
var ErrClosed = errors.New("uiloop: dispatcher closed")

// Dispatcher queues callbacks for execution on the UI goroutine.
// Schedule never blocks: the queue is unbounded.
type Dispatcher struct {
	mu      sync.Mutex
	pending []func()
	closed  bool

	// wake has capacity 1 so repeated Schedule calls collapse into a
	// single wake-up of the loop.
	wake chan struct{}
	done chan struct{}

	closeOnce sync.Once
	logger    *slog.Logger
}

// New creates a dispatcher. A nil logger discards panics reported by
// callbacks.
func New(logger *slog.Logger) *Dispatcher {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Dispatcher{
		wake:   make(chan struct{}, 1),
		done:   make(chan struct{}),
		logger: logger,
	}
}

// Schedule enqueues fn to run on the UI goroutine at the next iteration of
// its loop. Callbacks run in the order they were scheduled. Once scheduled
// a callback cannot be cancelled.
func (d *Dispatcher) Schedule(fn func()) error {
	if fn == nil {
		return fmt.Errorf("uiloop: nil callback")
	}

	d.mu.Lock()
	if d.closed {
		d.mu.Unlock()
		return ErrClosed
	}
	d.pending = append(d.pending, fn)
	d.mu.Unlock()

	select {
	case d.wake <- struct{}{}:
	default:
	}
	return nil
}

// take removes and returns everything queued so far.
func (d *Dispatcher) take() []func() {
	d.mu.Lock()
	defer d.mu.Unlock()
	batch := d.pending
	d.pending = nil
	return batch
}

// RunPending runs the callbacks queued at the time of the call on the
// calling goroutine and returns how many ran. Callbacks scheduled while the
// batch runs are left for the next call. Hosts that own their event loop
// call this once per iteration instead of using Run.
func (d *Dispatcher) RunPending() int {
	batch := d.take()
	for _, fn := range batch {
		d.invoke(fn)
	}
	return len(batch)
}

// invoke runs fn, keeping the loop alive if it panics.
func (d *Dispatcher) invoke(fn func()) {
	defer func() {
		if r := recover(); r != nil {
			d.logger.Error("ui callback panicked", "panic", r)
		}
	}()
	fn()
}

// Run executes callbacks on the calling goroutine, which becomes the UI
// goroutine, until Close is called and the queue is drained, or ctx is
// cancelled. It returns ctx.Err() on cancellation and nil after Close.
func (d *Dispatcher) Run(ctx context.Context) error {
	for {
		d.RunPending()

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-d.wake:
		case <-d.done:
			// Drain anything scheduled before Close.
			for d.RunPending() > 0 {
			}
			return nil
		}
	}
}

// Close stops accepting new callbacks. Callbacks already scheduled still
// run. Close is safe to call more than once and from any goroutine.
func (d *Dispatcher) Close() {
	d.closeOnce.Do(func() {
		d.mu.Lock()
		d.closed = true
		d.mu.Unlock()
		close(d.done)
	})
}
