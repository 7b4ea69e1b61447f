package pipeline

import (
	"bytes"
	"context"
	"fmt"

	"github.com/goccy/go-graphviz"
)

// ToDOT returns a Graphviz DOT representation of the operator chain.
//
// The topology is a straight line: the source diagram node, one node per
// configured operator, and the observer node at the end. The DOT output can
// be rendered with Graphviz tools (dot, neato, etc.) or programmatically
// with RenderSVG.
//
// Example:
//
//	opts := pipeline.Options{
//	    Source: "-a-b-|",
//	    Ops:    []pipeline.OpSpec{{Name: "take", Arg: "1"}},
//	}
//	dot := pipeline.ToDOT(opts)
//	// Use the 'dot' command or RenderSVG to visualize
func ToDOT(opts Options) string {
	var buf bytes.Buffer
	buf.WriteString("digraph Pipeline {\n")
	buf.WriteString("  rankdir=LR;\n")
	buf.WriteString("  bgcolor=\"transparent\";\n")
	buf.WriteString("  node [fontname=\"SF Mono, Menlo, monospace\", fontsize=12, style=filled, fillcolor=white];\n")
	buf.WriteString("  edge [arrowhead=vee];\n\n")

	fmt.Fprintf(&buf, "  n0 [label=%q, shape=ellipse];\n", opts.Source)
	prev := "n0"
	for i, spec := range opts.Ops {
		id := fmt.Sprintf("n%d", i+1)
		fmt.Fprintf(&buf, "  %s [label=%q, shape=box, style=\"filled,rounded\"];\n", id, spec.String())
		fmt.Fprintf(&buf, "  %s -> %s;\n", prev, id)
		prev = id
	}
	fmt.Fprintf(&buf, "  out [label=\"observer\", shape=ellipse];\n")
	fmt.Fprintf(&buf, "  %s -> out;\n", prev)

	buf.WriteString("}\n")
	return buf.String()
}

// RenderSVG renders the operator chain topology as an SVG image.
//
// RenderSVG generates a DOT representation via ToDOT, then uses Graphviz to
// render it to SVG format. The returned bytes are a complete SVG document
// suitable for embedding in HTML or saving to a file.
//
// RenderSVG requires the Graphviz library (github.com/goccy/go-graphviz) and
// its dependencies to be available. Errors are returned if Graphviz cannot
// initialize, the DOT is malformed, or rendering fails. All errors are
// wrapped with fmt.Errorf %w, suitable for errors.Is and errors.Unwrap.
func RenderSVG(ctx context.Context, opts Options) ([]byte, error) {
	dot := ToDOT(opts)

	gv, err := graphviz.New(ctx)
	if err != nil {
		return nil, fmt.Errorf("init graphviz: %w", err)
	}
	defer gv.Close()

	g, err := graphviz.ParseBytes([]byte(dot))
	if err != nil {
		return nil, fmt.Errorf("parse DOT: %w", err)
	}
	defer g.Close()

	var buf bytes.Buffer
	if err := gv.Render(ctx, g, graphviz.SVG, &buf); err != nil {
		return nil, fmt.Errorf("render: %w", err)
	}
	return buf.Bytes(), nil
}
