// Package rxtest provides recording helpers for testing observable
// sequences. A Recording captures every notification a sequence delivers,
// with arrival offsets, so tests can assert on values, terminal events,
// and coarse timing.
package rxtest

import (
	"context"
	"time"

	"github.com/marbleworks/rxkit/pkg/rx"
)

// Recorded is one captured notification with its offset from subscription.
type Recorded[T any] struct {
	At time.Duration
	N  rx.Notification[T]
}

// Recording is the full capture of one subscription.
type Recording[T any] struct {
	Events []Recorded[T]
}

// Record subscribes to src, blocks until the sequence terminates or ctx is
// cancelled, and returns everything that was delivered.
func Record[T any](ctx context.Context, src rx.Observable[T]) Recording[T] {
	var rec Recording[T]
	start := time.Now()
	push := func(n rx.Notification[T]) {
		rec.Events = append(rec.Events, Recorded[T]{At: time.Since(start), N: n})
	}

	sub := src.SubscribeFunc(ctx,
		func(v T) { push(rx.NextOf(v)) },
		func(err error) { push(rx.ErrorOf[T](err)) },
		func() { push(rx.CompleteOf[T]()) },
	)
	<-sub.Done()
	return rec
}

// Values returns the next-element payloads in order.
func (r Recording[T]) Values() []T {
	var out []T
	for _, e := range r.Events {
		if e.N.Kind == rx.KindNext {
			out = append(out, e.N.Value)
		}
	}
	return out
}

// Completed reports whether the recording ended with a completion.
func (r Recording[T]) Completed() bool {
	n := len(r.Events)
	return n > 0 && r.Events[n-1].N.Kind == rx.KindComplete
}

// Err returns the terminal error, or nil when the sequence completed or
// was cancelled.
func (r Recording[T]) Err() error {
	for _, e := range r.Events {
		if e.N.Kind == rx.KindError {
			return e.N.Err
		}
	}
	return nil
}
