package pipeline

import (
	"bytes"
	"context"
	"fmt"

	pio "github.com/matzehuels/platepack/pkg/io"
	"github.com/matzehuels/platepack/pkg/packing"
	"github.com/matzehuels/platepack/pkg/render"
)

// Render generates output artifacts in the requested formats. Formats that
// draw the packing are skipped when the outcome has none.
func Render(inst *packing.Instance, out *packing.Outcome, opts Options) (map[string][]byte, error) {
	if err := opts.ValidateForRender(); err != nil {
		return nil, err
	}
	style, err := render.StyleByName(opts.Style)
	if err != nil {
		return nil, err
	}

	artifacts := make(map[string][]byte, len(opts.Formats))
	for _, format := range opts.Formats {
		if NeedsSolution(format) && out.Solution == nil {
			opts.Logger.Debug("skipping format without a packing", "format", format, "status", out.Status)
			continue
		}

		var data []byte
		var buf bytes.Buffer
		switch format {
		case FormatText:
			err = pio.WriteResult(&buf, inst, out)
			data = buf.Bytes()
		case FormatJSON:
			err = pio.WriteOutcomeJSON(&buf, out)
			data = buf.Bytes()
		case FormatSVG:
			data = render.RenderSVG(inst, out.Solution, buildSVGOptions(style, opts)...)
		case FormatASCII:
			var ascii []render.ASCIIOption
			if opts.Color {
				ascii = append(ascii, render.WithColor())
			}
			data = []byte(render.RenderASCII(inst, out.Solution, ascii...))
		case FormatDOT:
			data = []byte(render.ToDOT(inst, out.Solution))
		case FormatNeato:
			data, err = render.RenderNeato(context.Background(), inst, out.Solution)
		case FormatBlocks:
			data, err = render.RenderJSON(inst, out.Solution,
				render.WithJSONStyle(opts.Style), render.WithJSONScale(opts.Scale))
		default:
			return nil, fmt.Errorf("unsupported format: %s", format)
		}

		if err != nil {
			return nil, fmt.Errorf("render %s: %w", format, err)
		}
		artifacts[format] = data
	}
	return artifacts, nil
}

func buildSVGOptions(style render.Style, opts Options) []render.SVGOption {
	svgOpts := []render.SVGOption{render.WithStyle(style), render.WithScale(opts.Scale)}
	if opts.Labels {
		svgOpts = append(svgOpts, render.WithLabels())
	}
	if opts.Grid {
		svgOpts = append(svgOpts, render.WithGrid())
	}
	return svgOpts
}
