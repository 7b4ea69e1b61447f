package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/marbleworks/rxkit/pkg/pipeline"
)

// dotCommand creates the dot command for emitting the chain topology.
func (c *CLI) dotCommand() *cobra.Command {
	var (
		opSpecs []string
		svg     bool
		output  string
	)

	cmd := &cobra.Command{
		Use:   "dot [diagram]",
		Short: "Emit the operator chain topology as DOT or SVG",
		Long: `Dot renders the pipeline topology - source, operators, observer - as a
Graphviz graph without running it.

Examples:
  rxkit dot "-a-b-|" --op take:2 --op upper
  rxkit dot "-a-b-|" --op debounce:2 --svg -o chain.svg`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			specs := make([]pipeline.OpSpec, 0, len(opSpecs))
			for _, raw := range opSpecs {
				spec, err := pipeline.ParseOpSpec(raw)
				if err != nil {
					return err
				}
				specs = append(specs, spec)
			}
			opts := pipeline.Options{Source: args[0], Ops: specs}

			var data []byte
			if svg {
				rendered, err := pipeline.RenderSVG(cmd.Context(), opts)
				if err != nil {
					return err
				}
				data = rendered
			} else {
				data = []byte(pipeline.ToDOT(opts))
			}

			if output == "" {
				fmt.Print(string(data))
				return nil
			}
			if err := os.WriteFile(output, data, 0o644); err != nil {
				return fmt.Errorf("write %s: %w", output, err)
			}
			printSuccess("Wrote %s", output)
			return nil
		},
	}

	cmd.Flags().StringArrayVar(&opSpecs, "op", nil, "operator to chain (name or name:arg, repeatable)")
	cmd.Flags().BoolVar(&svg, "svg", false, "render SVG instead of DOT")
	cmd.Flags().StringVarP(&output, "output", "o", "", "output file (stdout when empty)")

	return cmd
}

// operatorsCommand creates the operators command listing supported ops.
func (c *CLI) operatorsCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "operators",
		Short: "List the supported pipeline operators",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Println(StyleTitle.Render("Operators"))
			for _, name := range pipeline.OpNames() {
				fmt.Println("  " + StyleValue.Render(name))
			}
		},
	}
}
