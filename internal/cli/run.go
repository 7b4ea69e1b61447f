package cli

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/marbleworks/rxkit/pkg/pipeline"
)

// runOpts holds the command-line flags for the run command.
type runOpts struct {
	source     string   // marble diagram to play
	values     []string // token=value mappings
	opSpecs    []string // operator chain, "name" or "name:arg"
	frameMS    int      // frame duration in milliseconds
	formats    []string // output formats
	output     string   // output file base path (stdout when empty)
	configPath string   // explicit config file
}

// runCommand creates the run command for playing a pipeline to completion.
func (c *CLI) runCommand() *cobra.Command {
	var opts runOpts

	cmd := &cobra.Command{
		Use:   "run [diagram]",
		Short: "Play a marble diagram through an operator chain",
		Long: `Run parses a marble diagram, plays it through the configured operator
chain on the real clock, and prints the recorded events plus the rendered
output diagram.

Examples:
  rxkit run "-a-b-c-|"
  rxkit run "-a-b-c-|" --op take:2 --op upper
  rxkit run "ab|" --value a=apple --value b=pear --op filter:a*
  rxkit run "-1-2-3-|" --format marble,json -o out`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 1 {
				opts.source = args[0]
			}
			popts, err := c.pipelineOptions(&opts)
			if err != nil {
				return err
			}
			return c.runPipeline(cmd.Context(), popts, &opts)
		},
	}

	cmd.Flags().StringSliceVar(&opts.values, "value", nil, "token mapping (token=value, repeatable)")
	cmd.Flags().StringArrayVar(&opts.opSpecs, "op", nil, "operator to chain (name or name:arg, repeatable)")
	cmd.Flags().IntVar(&opts.frameMS, "frame-ms", 0, "frame duration in milliseconds")
	cmd.Flags().StringSliceVarP(&opts.formats, "format", "f", nil, "output format(s): marble (default), json, dot, svg")
	cmd.Flags().StringVarP(&opts.output, "output", "o", "", "output file base path (stdout when empty)")
	cmd.Flags().StringVar(&opts.configPath, "config", "", "config file path")

	return cmd
}

// pipelineOptions merges config file, flags, and defaults into pipeline
// options.
func (c *CLI) pipelineOptions(opts *runOpts) (pipeline.Options, error) {
	cfg, err := loadConfig(opts.configPath)
	if err != nil {
		return pipeline.Options{}, err
	}

	values := make(map[string]string)
	for k, v := range cfg.Values {
		values[k] = v
	}
	for _, pair := range opts.values {
		k, v, ok := strings.Cut(pair, "=")
		if !ok || k == "" {
			return pipeline.Options{}, fmt.Errorf("invalid --value %q (want token=value)", pair)
		}
		values[k] = v
	}
	if len(values) == 0 {
		values = nil
	}

	specs := make([]pipeline.OpSpec, 0, len(opts.opSpecs))
	for _, raw := range opts.opSpecs {
		spec, err := pipeline.ParseOpSpec(raw)
		if err != nil {
			return pipeline.Options{}, err
		}
		specs = append(specs, spec)
	}

	frameMS := opts.frameMS
	if frameMS == 0 {
		frameMS = cfg.FrameMS
	}

	return pipeline.Options{
		Source:  opts.source,
		Values:  values,
		Ops:     specs,
		FrameMS: frameMS,
		Formats: opts.formats,
		Logger:  c.Logger,
	}, nil
}

// runPipeline executes the pipeline and writes the artifacts.
func (c *CLI) runPipeline(ctx context.Context, popts pipeline.Options, opts *runOpts) error {
	prog := newProgress(loggerFromContext(ctx))
	result, err := c.newRunner().Execute(ctx, popts)
	if err != nil {
		return err
	}

	fmt.Println(StyleTitle.Render("Events"))
	for _, ev := range result.Events {
		fmt.Println(formatEvent(ev))
	}
	if result.Stats.Errored {
		printError("Stream terminated with an error")
	}
	fmt.Println()

	if err := writeArtifacts(result, opts.output); err != nil {
		return err
	}

	prog.done(fmt.Sprintf("Emitted %d values", result.Stats.NextCount))
	return nil
}

// writeArtifacts prints artifacts to stdout or writes them next to base.
func writeArtifacts(result *pipeline.Result, base string) error {
	for _, format := range artifactOrder(result) {
		data := result.Artifacts[format]
		if base == "" {
			if format == pipeline.FormatMarble {
				fmt.Println(styleMarble.Render(string(data)))
			} else {
				fmt.Println(string(data))
			}
			continue
		}
		path := base + "." + extensionFor(format)
		if err := os.WriteFile(path, data, 0o644); err != nil {
			return fmt.Errorf("write %s: %w", path, err)
		}
		printSuccess("Wrote %s", filepath.Clean(path))
	}
	return nil
}

// artifactOrder returns the artifact formats in a stable display order.
func artifactOrder(result *pipeline.Result) []string {
	order := []string{pipeline.FormatMarble, pipeline.FormatJSON, pipeline.FormatDOT, pipeline.FormatSVG}
	out := make([]string, 0, len(result.Artifacts))
	for _, f := range order {
		if _, ok := result.Artifacts[f]; ok {
			out = append(out, f)
		}
	}
	return out
}

func extensionFor(format string) string {
	switch format {
	case pipeline.FormatMarble:
		return "marble.txt"
	case pipeline.FormatJSON:
		return "json"
	case pipeline.FormatDOT:
		return "dot"
	case pipeline.FormatSVG:
		return "svg"
	}
	return format
}
