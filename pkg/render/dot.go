package render

import (
	"bytes"
	"context"
	"fmt"

	"github.com/goccy/go-graphviz"

	"github.com/matzehuels/platepack/pkg/packing"
)

// dotUnit is the size of one plate cell in inches.
const dotUnit = 0.5

// ToDOT converts a packing to a Graphviz graph with one pinned box per
// circuit and a dashed frame for the plate. Positions are absolute, so the
// graph must be laid out with neato (see [RenderNeato]).
func ToDOT(inst *packing.Instance, sol *packing.Solution) string {
	var buf bytes.Buffer
	buf.WriteString("graph plate {\n")
	buf.WriteString("  layout=neato;\n")
	buf.WriteString("  bgcolor=\"transparent\";\n")
	buf.WriteString("  node [shape=box, style=filled, fixedsize=true, fontsize=10, penwidth=1];\n")
	buf.WriteString("\n")

	fmt.Fprintf(&buf, "  plate [label=\"\", style=dashed, %s];\n",
		dotBox(0, 0, inst.Width, sol.Length))
	for _, pl := range sol.Placements {
		k := pl.Circuit
		fmt.Fprintf(&buf, "  c%d [label=\"%d\", fillcolor=%q, %s];\n",
			k, k, Color(k), dotBox(pl.X, pl.Y, inst.X[k], inst.Y[k]))
	}
	buf.WriteString("}\n")
	return buf.String()
}

// dotBox sizes and pins a node over cells [x, x+w) × [y, y+h). Graphviz
// positions are node centres in points with y pointing up.
func dotBox(x, y, w, h int) string {
	const pt = 72 * dotUnit
	cx := (float64(x) + float64(w)/2) * pt
	cy := (float64(y) + float64(h)/2) * pt
	return fmt.Sprintf("width=%g, height=%g, pos=\"%g,%g!\"",
		float64(w)*dotUnit, float64(h)*dotUnit, cx, cy)
}

// RenderNeato lays out [ToDOT] with Graphviz neato and returns SVG.
func RenderNeato(ctx context.Context, inst *packing.Instance, sol *packing.Solution) ([]byte, error) {
	gv, err := graphviz.New(ctx)
	if err != nil {
		return nil, fmt.Errorf("init graphviz: %w", err)
	}
	defer gv.Close()
	gv.SetLayout(graphviz.NEATO)

	g, err := graphviz.ParseBytes([]byte(ToDOT(inst, sol)))
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
