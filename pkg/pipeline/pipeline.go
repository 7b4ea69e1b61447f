// Package pipeline provides the marble playground pipeline for rxkit.
//
// This package implements the complete parse → build → run → render pipeline
// that can be used by CLI, server, and TUI components. By centralizing this
// logic, we ensure consistent behavior across all entry points and avoid code
// duplication.
//
// # Architecture
//
// The pipeline consists of four stages:
//
//  1. Parse: Read the marble diagram into timed events
//  2. Build: Chain the configured operators onto the source observable
//  3. Run: Play the sequence on the clock and record what the chain emits
//  4. Render: Generate output in various formats (marble, JSON, DOT, SVG)
//
// Each stage can be run independently or as part of the complete pipeline.
//
// # Usage
//
// Create a Runner and execute the pipeline:
//
//	runner := pipeline.NewRunner(logger)
//	opts := pipeline.Options{
//	    Source:  "-a-b-c-|",
//	    Ops:     []pipeline.OpSpec{{Name: "take", Arg: "2"}},
//	    Formats: []string{"marble"},
//	}
//	result, err := runner.Execute(ctx, opts)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	fmt.Println(string(result.Artifacts["marble"]))
package pipeline

import (
	"fmt"
	"io"
	"time"

	"github.com/charmbracelet/log"

	"github.com/marbleworks/rxkit/pkg/marble"
)

// =============================================================================
// Default Values - Single Source of Truth for CLI, Server, and TUI
// =============================================================================

const (
	// DefaultFrameMS is the default marble frame duration in milliseconds.
	// Short enough that diagrams replay quickly, long enough that the
	// time-based operators (debounce, delay) behave deterministically.
	DefaultFrameMS = 10

	// MaxFrameMS caps the frame duration so a single run stays interactive.
	MaxFrameMS = 1000
)

// Format constants for output formats.
const (
	FormatMarble = "marble"
	FormatJSON   = "json"
	FormatDOT    = "dot"
	FormatSVG    = "svg"
)

// ValidFormats is the set of supported output formats.
var ValidFormats = map[string]bool{
	FormatMarble: true,
	FormatJSON:   true,
	FormatDOT:    true,
	FormatSVG:    true,
}

// =============================================================================
// Options - Pipeline Configuration
// =============================================================================

// Options contains all configuration for a playground run.
// This struct supports JSON serialization for server requests.
type Options struct {
	// Source is the marble diagram to play.
	Source string `json:"source"`

	// Values maps diagram tokens to emitted values.
	Values map[string]string `json:"values,omitempty"`

	// Ops is the operator chain applied to the source, in order.
	Ops []OpSpec `json:"ops,omitempty"`

	// FrameMS is the marble frame duration in milliseconds.
	FrameMS int `json:"frame_ms,omitempty"`

	// Formats selects the rendered outputs.
	Formats []string `json:"formats,omitempty"`

	// Runtime options (not serialized)
	Logger *log.Logger `json:"-"`

	// validated tracks whether ValidateAndSetDefaults has been called.
	validated bool `json:"-"`
}

// Result contains the outputs of a pipeline run.
type Result struct {
	// Diagram is the parsed source diagram.
	Diagram marble.Diagram

	// Events are the recorded chain outputs with their offsets.
	Events []marble.TimedEvent

	// Artifacts contains rendered outputs keyed by format.
	Artifacts map[string][]byte

	// Stats contains counts and timing information.
	Stats Stats
}

// Stats contains pipeline execution statistics.
type Stats struct {
	SourceEvents int
	NextCount    int
	Errored      bool
	Completed    bool
	RunTime      time.Duration
}

// =============================================================================
// Validation Functions
// =============================================================================

// ValidateFormat checks that a format is valid.
func ValidateFormat(format string) error {
	if !ValidFormats[format] {
		return fmt.Errorf("invalid format: %q (must be one of: marble, json, dot, svg)", format)
	}
	return nil
}

// ValidateFormats checks that all formats are valid.
func ValidateFormats(formats []string) error {
	for _, f := range formats {
		if err := ValidateFormat(f); err != nil {
			return err
		}
	}
	return nil
}

// =============================================================================
// Options Methods
// =============================================================================

// ValidateAndSetDefaults checks required fields and applies defaults.
// This method is idempotent - calling it multiple times has the same effect
// as calling it once.
func (o *Options) ValidateAndSetDefaults() error {
	if o.validated {
		return nil
	}
	if o.Source == "" {
		return fmt.Errorf("source diagram is required")
	}
	if o.FrameMS < 0 {
		return fmt.Errorf("frame_ms must not be negative")
	}
	if o.FrameMS == 0 {
		o.FrameMS = DefaultFrameMS
	}
	if o.FrameMS > MaxFrameMS {
		return fmt.Errorf("frame_ms %d exceeds maximum %d", o.FrameMS, MaxFrameMS)
	}
	if len(o.Formats) == 0 {
		o.Formats = []string{FormatMarble}
	}
	if err := ValidateFormats(o.Formats); err != nil {
		return err
	}
	for i := range o.Ops {
		if err := o.Ops[i].Validate(); err != nil {
			return fmt.Errorf("op %d: %w", i, err)
		}
	}
	if o.Logger == nil {
		o.Logger = log.NewWithOptions(io.Discard, log.Options{})
	}
	o.validated = true
	return nil
}

// Frame returns the frame duration.
func (o *Options) Frame() time.Duration {
	ms := o.FrameMS
	if ms <= 0 {
		ms = DefaultFrameMS
	}
	return time.Duration(ms) * time.Millisecond
}

// NeedsGraphviz reports whether any requested format requires the Graphviz
// renderer.
func (o *Options) NeedsGraphviz() bool {
	for _, f := range o.Formats {
		if f == FormatSVG {
			return true
		}
	}
	return false
}
