// Package marble implements the marble-diagram notation used throughout the
// playground to describe timed event sequences.
//
// A diagram is a single line read left to right, one frame per step:
//
//	-   advance one frame without emitting
//	a   emit the token (single lowercase letter or digit); with a values
//	    map the token is replaced by its mapped value
//	|   complete the sequence
//	#   fail the sequence
//	(ab)  emit several tokens in the same frame
//	^   subscription marker, ignored
//
// "-a--b-|" emits a at frame 1, b at frame 4 and completes at frame 6.
// Diagrams parse into [Diagram] values which can be played back as a cold
// observable, and recordings render back into the same notation.
package marble

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/marbleworks/rxkit/pkg/rx"
)

// EventKind distinguishes the three diagram event types.
type EventKind int

const (
	// EventNext is a value emission.
	EventNext EventKind = iota
	// EventComplete is successful termination.
	EventComplete
	// EventError is failed termination.
	EventError
)

// Event is one parsed diagram event at a frame offset from subscription.
type Event struct {
	Frame int
	Kind  EventKind
	Value string // next events only
}

// Diagram is a parsed marble diagram: its events in frame order and the
// total frame span of the notation.
type Diagram struct {
	Events []Event
	Frames int
}

// ErrDiagram tags all parse failures so callers can branch with errors.Is.
var ErrDiagram = fmt.Errorf("invalid marble diagram")

func parseErr(pos int, format string, args ...any) error {
	return fmt.Errorf("%w: column %d: %s", ErrDiagram, pos+1, fmt.Sprintf(format, args...))
}

// Options adjusts parsing.
type Options struct {
	// Values maps single-rune tokens to replacement values. Tokens without
	// a mapping emit the token itself.
	Values map[string]string
}

// Parse reads a marble diagram into its timed events. The syntax errors it
// reports (unknown rune, unclosed group, events after the terminal) all wrap
// [ErrDiagram].
func Parse(diagram string, opts Options) (Diagram, error) {
	var d Diagram
	frame := 0
	terminal := false
	inGroup := false
	groupStart := 0

	push := func(pos int, ev Event) error {
		if terminal {
			return parseErr(pos, "event after terminal")
		}
		ev.Frame = frame
		d.Events = append(d.Events, ev)
		if ev.Kind != EventNext {
			terminal = true
		}
		return nil
	}

	for pos, r := range diagram {
		switch {
		case r == '-':
			if inGroup {
				return Diagram{}, parseErr(pos, "frame marker inside group")
			}
			frame++
		case r == '^':
			// Subscription marker, purely decorative.
		case r == '(':
			if inGroup {
				return Diagram{}, parseErr(pos, "nested group")
			}
			inGroup = true
			groupStart = pos
		case r == ')':
			if !inGroup {
				return Diagram{}, parseErr(pos, "unmatched group close")
			}
			inGroup = false
			frame++
		case r == '|':
			if err := push(pos, Event{Kind: EventComplete}); err != nil {
				return Diagram{}, err
			}
			if !inGroup {
				frame++
			}
		case r == '#':
			if err := push(pos, Event{Kind: EventError}); err != nil {
				return Diagram{}, err
			}
			if !inGroup {
				frame++
			}
		case r >= 'a' && r <= 'z' || r >= '0' && r <= '9':
			token := string(r)
			if v, ok := opts.Values[token]; ok {
				token = v
			}
			if err := push(pos, Event{Kind: EventNext, Value: token}); err != nil {
				return Diagram{}, err
			}
			if !inGroup {
				frame++
			}
		case r == ' ':
			// Whitespace is allowed for readability and consumes no frame.
		default:
			return Diagram{}, parseErr(pos, "unknown rune %q", r)
		}
	}
	if inGroup {
		return Diagram{}, parseErr(groupStart, "unclosed group")
	}
	d.Frames = frame
	return d, nil
}

// Err is the error used when a diagram plays back its '#' marker.
var Err = fmt.Errorf("marble error")

// Observable turns the diagram into a cold observable that replays the
// events on the real clock, one frame per the given duration. Each
// subscription starts its own playback.
func (d Diagram) Observable(frame time.Duration) rx.Observable[string] {
	events := append([]Event(nil), d.Events...)
	return rx.Create(func(ctx context.Context, dst rx.Observer[string]) {
		start := time.Now()
		for _, ev := range events {
			due := start.Add(time.Duration(ev.Frame) * frame)
			if wait := time.Until(due); wait > 0 {
				t := time.NewTimer(wait)
				select {
				case <-ctx.Done():
					t.Stop()
					return
				case <-t.C:
				}
			}
			if ctx.Err() != nil {
				return
			}
			switch ev.Kind {
			case EventNext:
				dst.OnNext(ev.Value)
			case EventError:
				dst.OnError(Err)
				return
			case EventComplete:
				dst.OnComplete()
				return
			}
		}
		dst.OnComplete()
	})
}

// Render converts recorded events back into diagram notation using the
// given frame duration to quantize timestamps. Events landing in the same
// frame render as a group. Multi-rune values render verbatim inside a
// group so they stay delimited.
func Render(events []TimedEvent, frame time.Duration) string {
	if frame <= 0 {
		frame = time.Millisecond
	}

	byFrame := map[int][]TimedEvent{}
	last := 0
	for _, ev := range events {
		f := int(ev.At / frame)
		byFrame[f] = append(byFrame[f], ev)
		if f > last {
			last = f
		}
	}

	var b strings.Builder
	for f := 0; f <= last; f++ {
		evs := byFrame[f]
		switch {
		case len(evs) == 0:
			b.WriteByte('-')
		case len(evs) == 1 && len(token(evs[0])) == 1:
			b.WriteString(token(evs[0]))
		default:
			b.WriteByte('(')
			for _, ev := range evs {
				b.WriteString(token(ev))
			}
			b.WriteByte(')')
		}
	}
	return b.String()
}

// TimedEvent is a recorded playback event with its offset from
// subscription, the input to [Render].
type TimedEvent struct {
	At    time.Duration
	Kind  EventKind
	Value string
}

func token(ev TimedEvent) string {
	switch ev.Kind {
	case EventComplete:
		return "|"
	case EventError:
		return "#"
	default:
		return ev.Value
	}
}
