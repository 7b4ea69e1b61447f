package marble

import (
	"context"
	"errors"
	"reflect"
	"testing"
	"time"
)

func TestParse(t *testing.T) {
	tests := []struct {
		name    string
		diagram string
		opts    Options
		want    []Event
		frames  int
	}{
		{
			name:    "values and completion",
			diagram: "-a--b-|",
			want: []Event{
				{Frame: 1, Kind: EventNext, Value: "a"},
				{Frame: 4, Kind: EventNext, Value: "b"},
				{Frame: 6, Kind: EventComplete},
			},
			frames: 7,
		},
		{
			name:    "error terminal",
			diagram: "a#",
			want: []Event{
				{Frame: 0, Kind: EventNext, Value: "a"},
				{Frame: 1, Kind: EventError},
			},
			frames: 2,
		},
		{
			name:    "simultaneous group",
			diagram: "-(ab)-c|",
			want: []Event{
				{Frame: 1, Kind: EventNext, Value: "a"},
				{Frame: 1, Kind: EventNext, Value: "b"},
				{Frame: 3, Kind: EventNext, Value: "c"},
				{Frame: 4, Kind: EventComplete},
			},
			frames: 5,
		},
		{
			name:    "group with terminal",
			diagram: "-(a|)",
			want: []Event{
				{Frame: 1, Kind: EventNext, Value: "a"},
				{Frame: 1, Kind: EventComplete},
			},
			frames: 2,
		},
		{
			name:    "values map",
			diagram: "ab|",
			opts:    Options{Values: map[string]string{"a": "10", "b": "20"}},
			want: []Event{
				{Frame: 0, Kind: EventNext, Value: "10"},
				{Frame: 1, Kind: EventNext, Value: "20"},
				{Frame: 2, Kind: EventComplete},
			},
			frames: 3,
		},
		{
			name:    "subscription marker ignored",
			diagram: "^-a|",
			want: []Event{
				{Frame: 1, Kind: EventNext, Value: "a"},
				{Frame: 2, Kind: EventComplete},
			},
			frames: 3,
		},
		{
			name:    "whitespace for readability",
			diagram: "-a -b |",
			want: []Event{
				{Frame: 1, Kind: EventNext, Value: "a"},
				{Frame: 3, Kind: EventNext, Value: "b"},
				{Frame: 4, Kind: EventComplete},
			},
			frames: 5,
		},
		{
			name:    "empty diagram",
			diagram: "---",
			want:    nil,
			frames:  3,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Parse(tt.diagram, tt.opts)
			if err != nil {
				t.Fatalf("Parse(%q): %v", tt.diagram, err)
			}
			if !reflect.DeepEqual(got.Events, tt.want) {
				t.Errorf("events = %+v, want %+v", got.Events, tt.want)
			}
			if got.Frames != tt.frames {
				t.Errorf("frames = %d, want %d", got.Frames, tt.frames)
			}
		})
	}
}

func TestParseErrors(t *testing.T) {
	tests := []struct {
		name    string
		diagram string
	}{
		{"unknown rune", "-a-%-|"},
		{"uppercase token", "-A|"},
		{"unclosed group", "-(ab"},
		{"nested group", "-((a))"},
		{"unmatched close", "-a)|"},
		{"frame marker inside group", "(a-b)"},
		{"value after complete", "-|a"},
		{"value after error", "-#a"},
		{"two terminals", "-|-|"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse(tt.diagram, Options{})
			if !errors.Is(err, ErrDiagram) {
				t.Fatalf("Parse(%q) err = %v, want ErrDiagram", tt.diagram, err)
			}
		})
	}
}

func TestObservablePlayback(t *testing.T) {
	d, err := Parse("-a-b-|", Options{})
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}

	start := time.Now()
	got, err := d.Observable(10 * time.Millisecond).Blocking().Slice(context.Background())
	if err != nil {
		t.Fatalf("Slice: %v", err)
	}
	if !reflect.DeepEqual(got, []string{"a", "b"}) {
		t.Errorf("values = %v, want [a b]", got)
	}
	// Completion sits at frame 5.
	if elapsed := time.Since(start); elapsed < 50*time.Millisecond {
		t.Errorf("elapsed = %v, want at least five frames", elapsed)
	}
}

func TestObservableError(t *testing.T) {
	d, err := Parse("a#", Options{})
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	got, err := d.Observable(time.Millisecond).Blocking().Slice(context.Background())
	if !errors.Is(err, Err) {
		t.Fatalf("err = %v, want marble error", err)
	}
	if !reflect.DeepEqual(got, []string{"a"}) {
		t.Errorf("values = %v, want [a]", got)
	}
}

func TestObservableIsCold(t *testing.T) {
	d, err := Parse("ab|", Options{})
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	obs := d.Observable(time.Millisecond)
	for i := 0; i < 2; i++ {
		got, err := obs.Blocking().Slice(context.Background())
		if err != nil {
			t.Fatalf("Slice: %v", err)
		}
		if !reflect.DeepEqual(got, []string{"a", "b"}) {
			t.Fatalf("playback %d = %v, want [a b]", i, got)
		}
	}
}

func TestObservableCancel(t *testing.T) {
	d, err := Parse("-----------a|", Options{})
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(20 * time.Millisecond)
		cancel()
	}()
	_, err = d.Observable(50 * time.Millisecond).Blocking().Slice(ctx)
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("err = %v, want context.Canceled", err)
	}
}

func TestRender(t *testing.T) {
	frame := 10 * time.Millisecond
	tests := []struct {
		name   string
		events []TimedEvent
		want   string
	}{
		{
			name: "spaced values",
			events: []TimedEvent{
				{At: 10 * time.Millisecond, Kind: EventNext, Value: "a"},
				{At: 40 * time.Millisecond, Kind: EventNext, Value: "b"},
				{At: 60 * time.Millisecond, Kind: EventComplete},
			},
			want: "-a--b-|",
		},
		{
			name: "same frame grouped",
			events: []TimedEvent{
				{At: 10 * time.Millisecond, Kind: EventNext, Value: "a"},
				{At: 12 * time.Millisecond, Kind: EventNext, Value: "b"},
				{At: 30 * time.Millisecond, Kind: EventComplete},
			},
			want: "-(ab)-|",
		},
		{
			name: "error marker",
			events: []TimedEvent{
				{At: 0, Kind: EventNext, Value: "x"},
				{At: 10 * time.Millisecond, Kind: EventError},
			},
			want: "x#",
		},
		{
			name: "multi-rune value grouped",
			events: []TimedEvent{
				{At: 0, Kind: EventNext, Value: "42"},
				{At: 10 * time.Millisecond, Kind: EventComplete},
			},
			want: "(42)|",
		},
		{
			name:   "no events",
			events: nil,
			want:   "-",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Render(tt.events, frame); got != tt.want {
				t.Errorf("Render = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestParseRenderRoundTrip(t *testing.T) {
	const diagram = "-a--b-(cd)-|"
	d, err := Parse(diagram, Options{})
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	frame := 10 * time.Millisecond
	var events []TimedEvent
	for _, ev := range d.Events {
		events = append(events, TimedEvent{
			At:    time.Duration(ev.Frame) * frame,
			Kind:  ev.Kind,
			Value: ev.Value,
		})
	}
	if got := Render(events, frame); got != diagram {
		t.Errorf("round trip = %q, want %q", got, diagram)
	}
}
