package cli

import (
	"context"
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/marbleworks/rxkit/pkg/marble"
	"github.com/marbleworks/rxkit/pkg/pipeline"
	"github.com/marbleworks/rxkit/pkg/rx"
)

// playCommand creates the play command: an interactive, frame-by-frame view
// of a pipeline run.
func (c *CLI) playCommand() *cobra.Command {
	var opts runOpts

	cmd := &cobra.Command{
		Use:   "play [diagram]",
		Short: "Watch a pipeline run frame by frame in the terminal",
		Long: `Play runs the pipeline like run does, but shows each event as it
happens: emitted values appear on a live marble track, one frame per frame
duration.

Examples:
  rxkit play "-a--b--c--|"
  rxkit play "-a-b-c-d-|" --op take:3 --frame-ms 250`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			opts.source = args[0]
			popts, err := c.pipelineOptions(&opts)
			if err != nil {
				return err
			}
			if err := popts.ValidateAndSetDefaults(); err != nil {
				return err
			}
			return c.play(cmd, popts)
		},
	}

	cmd.Flags().StringSliceVar(&opts.values, "value", nil, "token mapping (token=value, repeatable)")
	cmd.Flags().StringArrayVar(&opts.opSpecs, "op", nil, "operator to chain (name or name:arg, repeatable)")
	cmd.Flags().IntVar(&opts.frameMS, "frame-ms", 0, "frame duration in milliseconds")
	cmd.Flags().StringVar(&opts.configPath, "config", "", "config file path")

	return cmd
}

// play builds the chain and feeds its events into the bubbletea program.
func (c *CLI) play(cmd *cobra.Command, popts pipeline.Options) error {
	runner := c.newRunner()
	d, err := runner.Parse(popts)
	if err != nil {
		return err
	}
	chain, err := runner.Build(d, popts)
	if err != nil {
		return err
	}

	model := newPlayModel(popts)
	p := tea.NewProgram(model)

	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()

	start := time.Now()
	sub := chain.Subscribe(ctx, rx.NewObserver(
		func(v string) {
			p.Send(eventMsg{marble.TimedEvent{At: time.Since(start), Kind: marble.EventNext, Value: v}})
		},
		func(err error) {
			p.Send(eventMsg{marble.TimedEvent{At: time.Since(start), Kind: marble.EventError}})
		},
		func() {
			p.Send(eventMsg{marble.TimedEvent{At: time.Since(start), Kind: marble.EventComplete}})
		},
	))

	final, err := p.Run()
	cancel()
	<-sub.Done()
	if err != nil {
		return err
	}

	if m, ok := final.(playModel); ok && len(m.events) > 0 {
		fmt.Println(styleMarble.Render(marble.Render(m.events, popts.Frame())))
	}
	return nil
}

// =============================================================================
// playModel - live pipeline playback
// =============================================================================

// eventMsg carries one chain delivery into the program.
type eventMsg struct {
	event marble.TimedEvent
}

// frameMsg advances the marble track clock.
type frameMsg time.Time

// playModel is the bubbletea model for live playback.
type playModel struct {
	opts   pipeline.Options
	events []marble.TimedEvent
	frames int
	done   bool
}

func newPlayModel(opts pipeline.Options) playModel {
	return playModel{opts: opts}
}

func (m playModel) Init() tea.Cmd {
	return m.tick()
}

func (m playModel) tick() tea.Cmd {
	return tea.Tick(m.opts.Frame(), func(t time.Time) tea.Msg {
		return frameMsg(t)
	})
}

func (m playModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c", "esc":
			return m, tea.Quit
		}
	case frameMsg:
		if m.done {
			return m, nil
		}
		m.frames++
		return m, m.tick()
	case eventMsg:
		m.events = append(m.events, msg.event)
		if msg.event.Kind != marble.EventNext {
			m.done = true
			// Leave the final track on screen briefly before quitting.
			return m, tea.Sequence(m.tick(), tea.Quit)
		}
	}
	return m, nil
}

func (m playModel) View() string {
	var b strings.Builder

	b.WriteString(StyleTitle.Render("rxkit play"))
	b.WriteString("\n")
	b.WriteString(StyleDim.Render(m.opts.Source))
	b.WriteString("\n\n")

	b.WriteString(styleMarble.Render(marble.Render(m.events, m.opts.Frame())))
	b.WriteString("\n\n")

	for _, ev := range m.events {
		b.WriteString(formatEvent(ev))
		b.WriteString("\n")
	}

	b.WriteString("\n")
	if m.done {
		b.WriteString(StyleSuccess.Render("finished"))
	} else {
		b.WriteString(StyleDim.Render(fmt.Sprintf("frame %d  ·  q to quit", m.frames)))
	}
	b.WriteString("\n")

	return b.String()
}
