package rx

import (
	"context"
	"sync"

	"github.com/marbleworks/rxkit/pkg/observability"
)

// Observer receives the events of an observable sequence.
//
// Implementations are not required to be safe for concurrent use: the
// subscription machinery serializes callbacks before they reach an observer.
type Observer[T any] interface {
	// OnNext delivers the next element.
	OnNext(value T)

	// OnError delivers a terminal error. No further calls follow.
	OnError(err error)

	// OnComplete signals successful termination. No further calls follow.
	OnComplete()
}

// funcObserver adapts three callbacks to the Observer interface.
type funcObserver[T any] struct {
	next     func(T)
	err      func(error)
	complete func()
}

func (o funcObserver[T]) OnNext(v T) {
	if o.next != nil {
		o.next(v)
	}
}

func (o funcObserver[T]) OnError(err error) {
	if o.err != nil {
		o.err(err)
	}
}

func (o funcObserver[T]) OnComplete() {
	if o.complete != nil {
		o.complete()
	}
}

// NewObserver builds an Observer from callbacks. Any callback may be nil,
// in which case the corresponding event is ignored.
func NewObserver[T any](onNext func(T), onError func(error), onComplete func()) Observer[T] {
	return funcObserver[T]{next: onNext, err: onError, complete: onComplete}
}

// gate serializes observer callbacks and latches the terminal state so that
// nothing is delivered after OnError or OnComplete. Concurrent operators
// (Merge, FlatMap, timers) route their emissions through a gate before they
// reach downstream observers.
//
// When hooks is non-nil the gate also reports delivered events, which is
// only done for the outermost gate created by Subscribe.
type gate[T any] struct {
	mu  sync.Mutex
	dst Observer[T]

	done      bool
	completed bool
	err       error

	hooks observability.StreamHooks
	ctx   context.Context
	id    string
}

func newGate[T any](dst Observer[T]) *gate[T] {
	return &gate[T]{dst: dst}
}

func (g *gate[T]) OnNext(v T) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.done {
		return
	}
	if g.hooks != nil {
		g.hooks.OnEvent(g.ctx, g.id, observability.EventNext)
	}
	g.dst.OnNext(v)
}

func (g *gate[T]) OnError(err error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.done {
		return
	}
	g.done = true
	g.err = err
	if g.hooks != nil {
		g.hooks.OnEvent(g.ctx, g.id, observability.EventError)
	}
	g.dst.OnError(err)
}

func (g *gate[T]) OnComplete() {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.done {
		return
	}
	g.done = true
	g.completed = true
	if g.hooks != nil {
		g.hooks.OnEvent(g.ctx, g.id, observability.EventComplete)
	}
	g.dst.OnComplete()
}

// state reports whether the gate saw a terminal event and which one.
func (g *gate[T]) state() (terminated bool, err error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.done, g.err
}
