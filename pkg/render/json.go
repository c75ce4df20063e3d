package render

import (
	"encoding/json"

	"github.com/matzehuels/platepack/pkg/packing"
)

// JSONOption configures JSON rendering via [RenderJSON].
type JSONOption func(*jsonRenderer)

type jsonRenderer struct {
	style string
	scale int
}

// WithJSONStyle records the style name for round-trip rendering.
func WithJSONStyle(s string) JSONOption { return func(r *jsonRenderer) { r.style = s } }

// WithJSONScale records the pixel scale alongside unit coordinates.
func WithJSONScale(px int) JSONOption { return func(r *jsonRenderer) { r.scale = px } }

type jsonOutput struct {
	Width  int         `json:"width"`
	Length int         `json:"length"`
	Style  string      `json:"style,omitempty"`
	Scale  int         `json:"scale,omitempty"`
	Blocks []jsonBlock `json:"blocks"`
}

type jsonBlock struct {
	Circuit int    `json:"circuit"`
	X       int    `json:"x"`
	Y       int    `json:"y"`
	Width   int    `json:"width"`
	Height  int    `json:"height"`
	Color   string `json:"color"`
	Glyph   string `json:"glyph"`
}

// RenderJSON describes sol as blocks in unit coordinates with row 0 at the
// bottom, for front ends that draw their own plate.
func RenderJSON(inst *packing.Instance, sol *packing.Solution, opts ...JSONOption) ([]byte, error) {
	var r jsonRenderer
	for _, opt := range opts {
		opt(&r)
	}
	out := jsonOutput{
		Width:  inst.Width,
		Length: sol.Length,
		Style:  r.style,
		Scale:  r.scale,
		Blocks: make([]jsonBlock, 0, len(sol.Placements)),
	}
	for _, p := range sol.Placements {
		k := p.Circuit
		out.Blocks = append(out.Blocks, jsonBlock{
			Circuit: k,
			X:       p.X,
			Y:       p.Y,
			Width:   inst.X[k],
			Height:  inst.Y[k],
			Color:   Color(k),
			Glyph:   string(Glyph(k)),
		})
	}
	return json.MarshalIndent(out, "", "  ")
}
