package render

import (
	"bytes"
	"fmt"
	"strconv"

	"github.com/matzehuels/platepack/pkg/packing"
)

// DefaultScale is the number of pixels per unit cell.
const DefaultScale = 20

type SVGOption func(*svgRenderer)

type svgRenderer struct {
	style  Style
	scale  float64
	labels bool
	grid   bool
}

func WithStyle(s Style) SVGOption { return func(r *svgRenderer) { r.style = s } }
func WithLabels() SVGOption       { return func(r *svgRenderer) { r.labels = true } }
func WithGrid() SVGOption         { return func(r *svgRenderer) { r.grid = true } }

// WithScale sets the pixels per unit cell; non-positive values are ignored.
func WithScale(px int) SVGOption {
	return func(r *svgRenderer) {
		if px > 0 {
			r.scale = float64(px)
		}
	}
}

func newSVGRenderer(opts ...SVGOption) svgRenderer {
	r := svgRenderer{style: Simple{}, scale: DefaultScale}
	for _, opt := range opts {
		opt(&r)
	}
	return r
}

// RenderSVG draws sol on a plate of the instance width and the solved
// length.
func RenderSVG(inst *packing.Instance, sol *packing.Solution, opts ...SVGOption) []byte {
	r := newSVGRenderer(opts...)
	p := Plate{
		Cols:  inst.Width,
		Rows:  sol.Length,
		Scale: r.scale,
		W:     float64(inst.Width) * r.scale,
		H:     float64(sol.Length) * r.scale,
	}
	blocks := buildBlocks(inst, sol, p)

	var buf bytes.Buffer
	fmt.Fprintf(&buf, `<svg xmlns="http://www.w3.org/2000/svg" viewBox="0 0 %.1f %.1f" width="%.0f" height="%.0f">`+"\n",
		p.W, p.H, p.W, p.H)
	r.style.RenderDefs(&buf, p)
	if r.grid {
		r.style.RenderGrid(&buf, p)
	}
	for _, b := range blocks {
		r.style.RenderBlock(&buf, b)
	}
	if r.labels {
		for _, b := range blocks {
			r.style.RenderText(&buf, b)
		}
	}
	r.style.RenderFrame(&buf, p)
	buf.WriteString("</svg>\n")
	return buf.Bytes()
}

func buildBlocks(inst *packing.Instance, sol *packing.Solution, p Plate) []Block {
	blocks := make([]Block, 0, len(sol.Placements))
	for _, pl := range sol.Placements {
		k := pl.Circuit
		w, h := float64(inst.X[k])*p.Scale, float64(inst.Y[k])*p.Scale
		x := float64(pl.X) * p.Scale
		y := p.H - float64(pl.Y)*p.Scale - h
		blocks = append(blocks, Block{
			ID:    strconv.Itoa(k),
			Label: fmt.Sprintf("%d", k),
			Index: k,
			X:     x, Y: y, W: w, H: h,
			CX: x + w/2, CY: y + h/2,
		})
	}
	return blocks
}
