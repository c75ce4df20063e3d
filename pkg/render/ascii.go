package render

import (
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/matzehuels/platepack/pkg/packing"
)

const glyphs = "ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz0123456789"

// Glyph returns the character drawn for circuit k.
func Glyph(k int) byte { return glyphs[k%len(glyphs)] }

type ASCIIOption func(*asciiRenderer)

type asciiRenderer struct {
	color bool
	empty byte
}

// WithColor paints each circuit in its palette colour.
func WithColor() ASCIIOption { return func(r *asciiRenderer) { r.color = true } }

// WithEmpty sets the character used for free cells (default '.').
func WithEmpty(c byte) ASCIIOption { return func(r *asciiRenderer) { r.empty = c } }

// RenderASCII prints the occupancy grid of sol, one line per row with the
// top row first.
func RenderASCII(inst *packing.Instance, sol *packing.Solution, opts ...ASCIIOption) string {
	r := asciiRenderer{empty: '.'}
	for _, opt := range opts {
		opt(&r)
	}

	grid := packing.Grid(inst, sol)
	styles := make(map[int]lipgloss.Style)
	var b strings.Builder
	for i := len(grid) - 1; i >= 0; i-- {
		for _, k := range grid[i] {
			if k < 0 {
				b.WriteByte(r.empty)
				continue
			}
			ch := string(Glyph(k))
			if r.color {
				st, ok := styles[k]
				if !ok {
					st = lipgloss.NewStyle().Foreground(lipgloss.Color(Color(k))).Bold(true)
					styles[k] = st
				}
				ch = st.Render(ch)
			}
			b.WriteString(ch)
		}
		b.WriteByte('\n')
	}
	return b.String()
}
