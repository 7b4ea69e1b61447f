package rx

import (
	"context"
	"sync"
	"time"
)

// registration tracks one live subscriber of a subject.
type registration[T any] struct {
	dst  *gate[T]
	done chan struct{} // closed when the subject delivered a terminal event
}

// subjectCore holds the shared machinery of all subject flavors: the
// subscriber registry and the latched terminal state.
//
// History updates (replay buffer, behavior value) and the subscriber
// snapshot happen in one critical section, so registration plus history
// replay stays atomic with respect to live emissions; connectables rely on
// that to avoid duplicated or missed values. Dispatch itself runs after the
// lock is released, so observer callbacks may read the subject (Value,
// isTerminated) without deadlocking. Publishing back into the same subject
// from a callback is still not allowed: delivery to each subscriber is
// serialized by its gate, which the re-entrant dispatch would need again.
type subjectCore[T any] struct {
	mu     sync.Mutex
	subs   map[int]*registration[T]
	nextID int

	terminated bool
	err        error
}

func newSubjectCore[T any]() *subjectCore[T] {
	return &subjectCore[T]{subs: make(map[int]*registration[T])}
}

// snapshotLocked copies the current registrations. Caller holds c.mu.
func (c *subjectCore[T]) snapshotLocked() []*registration[T] {
	out := make([]*registration[T], 0, len(c.subs))
	for _, reg := range c.subs {
		out = append(out, reg)
	}
	return out
}

// emit multicasts v to all current subscribers. before, when non-nil, runs
// in the critical section and is where subject flavors update their
// history (replay buffer, behavior value). The subscriber list is
// snapshotted in the same section; delivery happens outside the lock.
func (c *subjectCore[T]) emit(v T, before func()) {
	c.mu.Lock()
	if c.terminated {
		c.mu.Unlock()
		return
	}
	if before != nil {
		before()
	}
	targets := c.snapshotLocked()
	c.mu.Unlock()

	for _, reg := range targets {
		reg.dst.OnNext(v)
	}
}

// terminate latches the terminal state and delivers it to every
// subscriber. Later calls are no-ops.
func (c *subjectCore[T]) terminate(err error) {
	c.mu.Lock()
	if c.terminated {
		c.mu.Unlock()
		return
	}
	c.terminated = true
	c.err = err
	targets := c.snapshotLocked()
	c.subs = make(map[int]*registration[T])
	c.mu.Unlock()

	for _, reg := range targets {
		if err != nil {
			reg.dst.OnError(err)
		} else {
			reg.dst.OnComplete()
		}
		close(reg.done)
	}
}

// isTerminated reports the latched terminal state.
func (c *subjectCore[T]) isTerminated() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.terminated
}

// register wires dst into the subject and blocks until the subject
// terminates or ctx is cancelled.
//
// replay, when non-nil, is called with an emit function to deliver history
// and a flag telling whether the subject is still live; it runs inside the
// registry critical section for live subjects (atomic with emissions) and
// plain for already-terminated subjects. Behavior subjects use the flag to
// suppress their stale value once terminated. registered, when non-nil, is
// called once dst is guaranteed to observe all future emissions;
// connectables use it to trigger connection.
func (c *subjectCore[T]) register(ctx context.Context, dst Observer[T], replay func(emit func(T), live bool), registered func()) {
	g := newGate[T](dst)
	reg := &registration[T]{dst: g, done: make(chan struct{})}

	c.mu.Lock()
	if c.terminated {
		err := c.err
		c.mu.Unlock()
		if registered != nil {
			registered()
		}
		if replay != nil {
			replay(func(v T) {
				if ctx.Err() == nil {
					g.OnNext(v)
				}
			}, false)
		}
		if err != nil {
			g.OnError(err)
		} else {
			g.OnComplete()
		}
		return
	}
	if replay != nil {
		replay(g.OnNext, true)
	}
	id := c.nextID
	c.nextID++
	c.subs[id] = reg
	c.mu.Unlock()

	if registered != nil {
		registered()
	}

	select {
	case <-ctx.Done():
		c.mu.Lock()
		delete(c.subs, id)
		c.mu.Unlock()
	case <-reg.done:
	}
}

// Subject is a hot multicast entry point: it is an Observer that forwards
// every event to all current subscribers of its Observable side. Events
// published while nobody is subscribed are lost (publish semantics).
//
// After OnError or OnComplete the subject is terminated: further OnNext
// calls are dropped and late subscribers immediately receive the terminal
// event. Observer callbacks may read the subject but must not synchronously
// publish back into it.
type Subject[T any] struct {
	core *subjectCore[T]
}

// NewSubject creates an empty publish subject.
func NewSubject[T any]() *Subject[T] {
	return &Subject[T]{core: newSubjectCore[T]()}
}

// OnNext multicasts v to current subscribers.
func (s *Subject[T]) OnNext(v T) { s.core.emit(v, nil) }

// OnError terminates the subject with err.
func (s *Subject[T]) OnError(err error) { s.core.terminate(err) }

// OnComplete terminates the subject successfully.
func (s *Subject[T]) OnComplete() { s.core.terminate(nil) }

func (s *Subject[T]) observeSub(ctx context.Context, dst Observer[T], registered func()) {
	s.core.register(ctx, dst, nil, registered)
}

// Observable returns the subscribable side of the subject. The returned
// observable is hot: subscribing registers an observer and parks the
// subscription goroutine until the subject terminates or the context is
// cancelled.
func (s *Subject[T]) Observable() Observable[T] {
	return New(func(ctx context.Context, dst Observer[T]) {
		s.observeSub(ctx, dst, nil)
	}).Named("subject")
}

// BehaviorSubject is a Subject that remembers the most recent value and
// replays it to every new subscriber before live events.
type BehaviorSubject[T any] struct {
	core *subjectCore[T]

	// current has its own lock, not core.mu, so Value stays callable
	// from observer callbacks while the subject replays or dispatches.
	valMu   sync.Mutex
	current T
}

// NewBehaviorSubject creates a behavior subject seeded with initial.
func NewBehaviorSubject[T any](initial T) *BehaviorSubject[T] {
	return &BehaviorSubject[T]{core: newSubjectCore[T](), current: initial}
}

// Value returns the most recent value.
func (s *BehaviorSubject[T]) Value() T {
	s.valMu.Lock()
	defer s.valMu.Unlock()
	return s.current
}

// OnNext updates the current value and multicasts it.
func (s *BehaviorSubject[T]) OnNext(v T) {
	s.core.emit(v, func() {
		s.valMu.Lock()
		s.current = v
		s.valMu.Unlock()
	})
}

// OnError terminates the subject with err.
func (s *BehaviorSubject[T]) OnError(err error) { s.core.terminate(err) }

// OnComplete terminates the subject successfully.
func (s *BehaviorSubject[T]) OnComplete() { s.core.terminate(nil) }

func (s *BehaviorSubject[T]) observeSub(ctx context.Context, dst Observer[T], registered func()) {
	s.core.register(ctx, dst, func(emit func(T), live bool) {
		if !live {
			// Only the terminal event reaches late subscribers.
			return
		}
		emit(s.Value()) // inside core.mu
	}, registered)
}

// Observable returns the subscribable side. New subscribers receive the
// current value first, then live events. A terminated behavior subject
// delivers only the terminal event.
func (s *BehaviorSubject[T]) Observable() Observable[T] {
	return New(func(ctx context.Context, dst Observer[T]) {
		s.observeSub(ctx, dst, nil)
	}).Named("behaviorsubject")
}

// replayItem is one buffered ReplaySubject element with its arrival time.
type replayItem[T any] struct {
	value T
	at    time.Time
}

// ReplaySubject is a Subject that buffers past values and replays them to
// new subscribers, before and after termination. The buffer is bounded by
// size (0 means unbounded) and optionally by a maximum element age.
type ReplaySubject[T any] struct {
	core   *subjectCore[T]
	buf    []replayItem[T] // guarded by core.mu
	size   int
	maxAge time.Duration
}

// NewReplaySubject creates a replay subject buffering the last size
// values. size <= 0 buffers everything.
func NewReplaySubject[T any](size int) *ReplaySubject[T] {
	return &ReplaySubject[T]{core: newSubjectCore[T](), size: size}
}

// NewReplaySubjectWithWindow additionally drops buffered values older than
// maxAge at replay time.
func NewReplaySubjectWithWindow[T any](size int, maxAge time.Duration) *ReplaySubject[T] {
	return &ReplaySubject[T]{core: newSubjectCore[T](), size: size, maxAge: maxAge}
}

// OnNext buffers v and multicasts it.
func (s *ReplaySubject[T]) OnNext(v T) {
	s.core.emit(v, func() {
		s.buf = append(s.buf, replayItem[T]{value: v, at: time.Now()})
		if s.size > 0 && len(s.buf) > s.size {
			s.buf = s.buf[len(s.buf)-s.size:]
		}
	})
}

// OnError terminates the subject with err. The buffer is still replayed to
// late subscribers before the error.
func (s *ReplaySubject[T]) OnError(err error) { s.core.terminate(err) }

// OnComplete terminates the subject successfully. The buffer is still
// replayed to late subscribers before the completion.
func (s *ReplaySubject[T]) OnComplete() { s.core.terminate(nil) }

// replayInto emits the buffered values inside the age window, before and
// after termination alike. Caller holds core.mu or the subject is
// terminated.
func (s *ReplaySubject[T]) replayInto(emit func(T), _ bool) {
	cutoff := time.Time{}
	if s.maxAge > 0 {
		cutoff = time.Now().Add(-s.maxAge)
	}
	for _, item := range s.buf {
		if !cutoff.IsZero() && item.at.Before(cutoff) {
			continue
		}
		emit(item.value)
	}
}

func (s *ReplaySubject[T]) observeSub(ctx context.Context, dst Observer[T], registered func()) {
	s.core.register(ctx, dst, s.replayInto, registered)
}

// Observable returns the subscribable side. New subscribers receive the
// buffered history first, then live events; after termination they receive
// the history followed by the terminal event.
func (s *ReplaySubject[T]) Observable() Observable[T] {
	return New(func(ctx context.Context, dst Observer[T]) {
		s.observeSub(ctx, dst, nil)
	}).Named("replaysubject")
}
