// Package render draws packings.
//
// [RenderSVG] produces a standalone SVG of the plate with one rectangle per
// circuit, coloured by circuit index. Options control the pixel scale per
// unit cell, circuit labels, the unit grid and the [Style]:
//
//	svg := render.RenderSVG(inst, sol, render.WithScale(24), render.WithGrid())
//
// Two styles ship with the package: "simple" (flat colours on white) and
// "blueprint" (outlined circuits on a dark grid).
//
// [RenderASCII] prints the occupancy grid for terminals, top row first,
// optionally coloured with lipgloss.
//
// [ToDOT] writes the packing as a Graphviz graph of pinned boxes and
// [RenderNeato] lays it out with neato into SVG.
//
// Row 0 is the bottom of the plate. The SVG y axis points down, so blocks
// are flipped when drawn.
package render
