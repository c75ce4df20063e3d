package render

import (
	"bytes"
	"fmt"

	"github.com/matzehuels/platepack/pkg/errors"
)

// Style defines the visual appearance of a rendered plate.
type Style interface {
	// RenderDefs writes SVG <defs> content and the background.
	RenderDefs(buf *bytes.Buffer, p Plate)
	// RenderGrid writes the unit grid lines.
	RenderGrid(buf *bytes.Buffer, p Plate)
	// RenderBlock writes the shape of one circuit.
	RenderBlock(buf *bytes.Buffer, b Block)
	// RenderText writes the label of one circuit.
	RenderText(buf *bytes.Buffer, b Block)
	// RenderFrame writes the plate outline.
	RenderFrame(buf *bytes.Buffer, p Plate)
}

// Plate is the drawing area in pixels.
type Plate struct {
	W, H  float64 // plate size
	Scale float64 // pixels per unit cell
	Cols  int
	Rows  int
}

// Block is one circuit in pixel space.
type Block struct {
	ID         string
	Label      string
	Index      int
	X, Y, W, H float64 // top-left corner and size
	CX, CY     float64
}

// Style names.
const (
	StyleSimple    = "simple"
	StyleBlueprint = "blueprint"
)

// StyleNames lists the accepted style names.
var StyleNames = []string{StyleSimple, StyleBlueprint}

// StyleByName resolves a style name.
func StyleByName(name string) (Style, error) {
	switch name {
	case StyleSimple, "":
		return Simple{}, nil
	case StyleBlueprint:
		return Blueprint{}, nil
	}
	return nil, errors.New(errors.ErrCodeInvalidStyle, "unknown style %q", name)
}

// palette is indexed by circuit modulo its length.
var palette = []string{
	"#4e79a7", "#f28e2b", "#e15759", "#76b7b2", "#59a14f", "#edc948",
	"#b07aa1", "#ff9da7", "#9c755f", "#bab0ac", "#86bcb6", "#d4a6c8",
}

// Color returns the fill colour of circuit k.
func Color(k int) string { return palette[k%len(palette)] }

// Simple draws flat colour blocks on white.
type Simple struct{}

func (Simple) RenderDefs(buf *bytes.Buffer, p Plate) {
	fmt.Fprintf(buf, `  <rect x="0" y="0" width="%.1f" height="%.1f" fill="#ffffff"/>`+"\n", p.W, p.H)
}

func (Simple) RenderGrid(buf *bytes.Buffer, p Plate) {
	gridLines(buf, p, "#e0e0e0", 0.5)
}

func (Simple) RenderBlock(buf *bytes.Buffer, b Block) {
	fmt.Fprintf(buf, `  <rect id="circuit-%s" class="circuit" x="%.1f" y="%.1f" width="%.1f" height="%.1f" fill="%s" stroke="#333333" stroke-width="1"/>`+"\n",
		b.ID, b.X, b.Y, b.W, b.H, Color(b.Index))
}

func (Simple) RenderText(buf *bytes.Buffer, b Block) {
	label(buf, b, "#111111")
}

func (Simple) RenderFrame(buf *bytes.Buffer, p Plate) {
	fmt.Fprintf(buf, `  <rect x="0.5" y="0.5" width="%.1f" height="%.1f" fill="none" stroke="#000000" stroke-width="1"/>`+"\n", p.W-1, p.H-1)
}

// Blueprint draws outlined blocks on a dark grid.
type Blueprint struct{}

func (Blueprint) RenderDefs(buf *bytes.Buffer, p Plate) {
	fmt.Fprintf(buf, `  <rect x="0" y="0" width="%.1f" height="%.1f" fill="#0b3d91"/>`+"\n", p.W, p.H)
}

func (Blueprint) RenderGrid(buf *bytes.Buffer, p Plate) {
	gridLines(buf, p, "#3f6fc1", 0.5)
}

func (Blueprint) RenderBlock(buf *bytes.Buffer, b Block) {
	fmt.Fprintf(buf, `  <rect id="circuit-%s" class="circuit" x="%.1f" y="%.1f" width="%.1f" height="%.1f" fill="%s" fill-opacity="0.25" stroke="#ffffff" stroke-width="1.5"/>`+"\n",
		b.ID, b.X, b.Y, b.W, b.H, Color(b.Index))
}

func (Blueprint) RenderText(buf *bytes.Buffer, b Block) {
	label(buf, b, "#ffffff")
}

func (Blueprint) RenderFrame(buf *bytes.Buffer, p Plate) {
	fmt.Fprintf(buf, `  <rect x="1" y="1" width="%.1f" height="%.1f" fill="none" stroke="#ffffff" stroke-width="2" stroke-dasharray="6 3"/>`+"\n", p.W-2, p.H-2)
}

func gridLines(buf *bytes.Buffer, p Plate, color string, width float64) {
	fmt.Fprintf(buf, `  <g stroke="%s" stroke-width="%.1f">`+"\n", color, width)
	for c := 1; c < p.Cols; c++ {
		x := float64(c) * p.Scale
		fmt.Fprintf(buf, `    <line x1="%.1f" y1="0" x2="%.1f" y2="%.1f"/>`+"\n", x, x, p.H)
	}
	for r := 1; r < p.Rows; r++ {
		y := float64(r) * p.Scale
		fmt.Fprintf(buf, `    <line x1="0" y1="%.1f" x2="%.1f" y2="%.1f"/>`+"\n", y, p.W, y)
	}
	buf.WriteString("  </g>\n")
}

func label(buf *bytes.Buffer, b Block, color string) {
	size := FontSize(b)
	fmt.Fprintf(buf, `  <text x="%.1f" y="%.1f" font-family="monospace" font-size="%.1f" fill="%s" text-anchor="middle" dominant-baseline="central">%s</text>`+"\n",
		b.CX, b.CY, size, color, EscapeXML(b.Label))
}
