package cli

import (
	"fmt"
	"time"

	"github.com/charmbracelet/lipgloss"

	"github.com/marbleworks/rxkit/pkg/marble"
)

// timeRounding is the display precision for event offsets.
const timeRounding = time.Millisecond

// =============================================================================
// Color Palette
// =============================================================================

var (
	colorCyan  = lipgloss.Color("36")  // Teal - primary actions
	colorGreen = lipgloss.Color("35")  // Green - success
	colorRed   = lipgloss.Color("167") // Soft red - errors
	colorWhite = lipgloss.Color("255") // Bright white - values
	colorDim   = lipgloss.Color("240") // Dim gray - muted text
)

// =============================================================================
// Styles
// =============================================================================

var (
	// StyleTitle for main headings.
	StyleTitle = lipgloss.NewStyle().Bold(true).Foreground(colorCyan)

	// StyleDim for secondary/muted text.
	StyleDim = lipgloss.NewStyle().Foreground(colorDim)

	// StyleValue for emitted values.
	StyleValue = lipgloss.NewStyle().Foreground(colorWhite)

	// StyleSuccess for completion markers.
	StyleSuccess = lipgloss.NewStyle().Foreground(colorGreen)

	// StyleError for error markers.
	StyleError = lipgloss.NewStyle().Foreground(colorRed)

	styleIconSuccess = lipgloss.NewStyle().Foreground(colorGreen)
	styleIconError   = lipgloss.NewStyle().Foreground(colorRed)
	styleMarble      = lipgloss.NewStyle().Bold(true).Foreground(colorCyan)
)

// Icons
const (
	iconSuccess = "✓"
	iconError   = "✗"
	iconNext    = "→"
)

// printSuccess prints a success message.
func printSuccess(format string, args ...any) {
	msg := fmt.Sprintf(format, args...)
	fmt.Println(styleIconSuccess.Render(iconSuccess) + " " + msg)
}

// printError prints an error message.
func printError(format string, args ...any) {
	msg := fmt.Sprintf(format, args...)
	fmt.Println(styleIconError.Render(iconError) + " " + msg)
}

// formatEvent renders one recorded event as a terminal line.
func formatEvent(ev marble.TimedEvent) string {
	at := StyleDim.Render(fmt.Sprintf("%8s", ev.At.Round(timeRounding)))
	switch ev.Kind {
	case marble.EventComplete:
		return fmt.Sprintf("%s  %s", at, StyleSuccess.Render("complete"))
	case marble.EventError:
		return fmt.Sprintf("%s  %s", at, StyleError.Render("error"))
	default:
		return fmt.Sprintf("%s  %s %s", at, StyleDim.Render(iconNext), StyleValue.Render(ev.Value))
	}
}
