package pipeline

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/charmbracelet/log"

	"github.com/marbleworks/rxkit/pkg/marble"
	"github.com/marbleworks/rxkit/pkg/rx"
)

// Runner encapsulates pipeline execution. Both CLI and server use this to
// avoid duplicating the parse/build/run/render plumbing.
//
// The Runner is stateless except for the logger - it doesn't store run
// results. Multiple goroutines can safely use the same Runner with
// different options.
type Runner struct {
	Logger *log.Logger
}

// NewRunner creates a runner. If logger is nil, the default logger is used.
func NewRunner(logger *log.Logger) *Runner {
	if logger == nil {
		logger = log.Default()
	}
	return &Runner{Logger: logger}
}

// Execute runs the complete parse → build → run → render pipeline.
func (r *Runner) Execute(ctx context.Context, opts Options) (*Result, error) {
	if err := opts.ValidateAndSetDefaults(); err != nil {
		return nil, fmt.Errorf("invalid options: %w", err)
	}
	r.applyLogger(&opts)

	result := &Result{
		Artifacts: make(map[string][]byte),
	}

	// Stage 1: Parse
	d, err := r.Parse(opts)
	if err != nil {
		return nil, fmt.Errorf("parse: %w", err)
	}
	result.Diagram = d
	result.Stats.SourceEvents = len(d.Events)

	r.Logger.Info("parsed diagram",
		"events", len(d.Events),
		"frames", d.Frames)

	// Stage 2: Build
	chain, err := r.Build(d, opts)
	if err != nil {
		return nil, fmt.Errorf("build: %w", err)
	}

	// Stage 3: Run
	runStart := time.Now()
	events, err := r.Run(ctx, chain)
	if err != nil {
		return nil, fmt.Errorf("run: %w", err)
	}
	result.Events = events
	result.Stats.RunTime = time.Since(runStart)
	for _, ev := range events {
		switch ev.Kind {
		case marble.EventNext:
			result.Stats.NextCount++
		case marble.EventError:
			result.Stats.Errored = true
		case marble.EventComplete:
			result.Stats.Completed = true
		}
	}

	r.Logger.Info("ran pipeline",
		"emitted", result.Stats.NextCount,
		"completed", result.Stats.Completed,
		"duration", result.Stats.RunTime)

	// Stage 4: Render
	for _, format := range opts.Formats {
		data, err := r.RenderFormat(ctx, format, events, opts)
		if err != nil {
			return nil, fmt.Errorf("render %s: %w", format, err)
		}
		result.Artifacts[format] = data
	}

	r.Logger.Info("rendered outputs", "formats", opts.Formats)

	return result, nil
}

// Parse reads the source diagram of the options.
func (r *Runner) Parse(opts Options) (marble.Diagram, error) {
	return marble.Parse(opts.Source, marble.Options{Values: opts.Values})
}

// Build chains the configured operators onto the diagram's playback
// observable.
func (r *Runner) Build(d marble.Diagram, opts Options) (rx.Observable[string], error) {
	frame := opts.Frame()
	chain := d.Observable(frame)
	for i, spec := range opts.Ops {
		st, err := spec.buildStage()
		if err != nil {
			return rx.Observable[string]{}, fmt.Errorf("op %d (%s): %w", i, spec.Name, err)
		}
		chain = st(chain, frame)
	}
	return chain, nil
}

// Run plays the chain to termination and records every delivery with its
// offset from subscription. The recorded error event stands in for the
// stream error; Run itself only fails when ctx is cancelled.
func (r *Runner) Run(ctx context.Context, chain rx.Observable[string]) ([]marble.TimedEvent, error) {
	var mu sync.Mutex
	var events []marble.TimedEvent
	start := time.Now()

	record := func(kind marble.EventKind, value string) {
		mu.Lock()
		events = append(events, marble.TimedEvent{
			At:    time.Since(start),
			Kind:  kind,
			Value: value,
		})
		mu.Unlock()
	}

	sub := chain.Subscribe(ctx, rx.NewObserver(
		func(v string) { record(marble.EventNext, v) },
		func(err error) { record(marble.EventError, "") },
		func() { record(marble.EventComplete, "") },
	))
	<-sub.Done()

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	mu.Lock()
	defer mu.Unlock()
	return events, nil
}

// RenderFormat renders recorded events in one output format.
func (r *Runner) RenderFormat(ctx context.Context, format string, events []marble.TimedEvent, opts Options) ([]byte, error) {
	if err := ValidateFormat(format); err != nil {
		return nil, err
	}
	switch format {
	case FormatMarble:
		return []byte(marble.Render(events, opts.Frame())), nil
	case FormatJSON:
		return marshalEvents(events)
	case FormatDOT:
		return []byte(ToDOT(opts)), nil
	case FormatSVG:
		return RenderSVG(ctx, opts)
	}
	return nil, fmt.Errorf("invalid format: %q", format)
}

// eventJSON is the wire shape of one recorded event.
type eventJSON struct {
	AtMS  int64  `json:"at_ms"`
	Kind  string `json:"kind"`
	Value string `json:"value,omitempty"`
}

func marshalEvents(events []marble.TimedEvent) ([]byte, error) {
	out := make([]eventJSON, 0, len(events))
	for _, ev := range events {
		kind := "next"
		switch ev.Kind {
		case marble.EventComplete:
			kind = "complete"
		case marble.EventError:
			kind = "error"
		}
		out = append(out, eventJSON{
			AtMS:  ev.At.Milliseconds(),
			Kind:  kind,
			Value: ev.Value,
		})
	}
	return json.MarshalIndent(out, "", "  ")
}

// applyLogger sets the runner's logger on options if not already set.
func (r *Runner) applyLogger(opts *Options) {
	if opts.Logger == nil {
		opts.Logger = r.Logger
	}
}
