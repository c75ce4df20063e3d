package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	pio "github.com/matzehuels/platepack/pkg/io"
	"github.com/matzehuels/platepack/pkg/pipeline"
)

// renderOpts holds the command-line flags for the render command.
type renderOpts struct {
	opts    pipeline.Options
	formats string
	output  string
	noCache bool
}

// renderCommand creates the render command for drawing an existing result.
func (c *CLI) renderCommand() *cobra.Command {
	var r renderOpts

	cmd := &cobra.Command{
		Use:   "render [result.txt]",
		Short: "Render a result file as SVG, ASCII, or block JSON",
		Long: `Render a result file as SVG, ASCII, or block JSON.

The render command takes a result file (produced by 'solve') and draws the
packing without solving again. SVG output supports two styles, optional
circuit labels, and grid lines.

Results are cached locally for faster subsequent runs.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runRender(cmd.Context(), args[0], &r)
		},
	}

	cmd.Flags().StringVarP(&r.formats, "format", "f", pipeline.FormatSVG, "output format(s): svg (default), ascii, blocks, dot, neato (comma-separated)")
	cmd.Flags().StringVarP(&r.output, "output", "o", "", "output file (single format, - for stdout) or base path")
	cmd.Flags().BoolVar(&r.noCache, "no-cache", false, "disable caching")
	cmd.Flags().StringVar(&r.opts.Style, "style", "", "svg style: simple (default), blueprint")
	cmd.Flags().IntVar(&r.opts.Scale, "scale", 0, "svg pixels per grid cell (default 20)")
	cmd.Flags().BoolVar(&r.opts.Labels, "labels", false, "label circuits")
	cmd.Flags().BoolVar(&r.opts.Grid, "grid", false, "draw grid lines")
	cmd.Flags().BoolVar(&r.opts.Color, "color", false, "colour ascii output")
	registerValueCompletions(cmd)

	return cmd
}

// runRender loads the result and renders it.
func (c *CLI) runRender(ctx context.Context, input string, r *renderOpts) error {
	inst, out, err := pio.ImportResult(input)
	if err != nil {
		return fmt.Errorf("load result %s: %w", input, err)
	}
	if out.Solution == nil {
		return fmt.Errorf("%s has no packing to render (status %s)", input, out.Status)
	}

	defaults, err := c.solveDefaults()
	if err != nil {
		return err
	}
	r.opts.Formats = parseFormats(r.formats)
	r.opts.Logger = c.Logger
	opts := defaults.Overlay(r.opts)
	if err := opts.ValidateAndSetDefaults(); err != nil {
		return err
	}

	runner, err := c.newRunner(ctx, r.noCache)
	if err != nil {
		return fmt.Errorf("initialize runner: %w", err)
	}
	defer runner.Close()

	prog := newProgress(c.Logger)
	artifacts, cacheHit, err := runner.RenderWithCacheInfo(ctx, inst, out, opts)
	if err != nil {
		printError("Render failed")
		return fmt.Errorf("render: %w", err)
	}
	prog.done(fmt.Sprintf("Rendered %d artifact(s)", len(artifacts)))

	written, err := writeArtifacts(artifactWriteParams{
		artifacts: artifacts,
		formats:   opts.Formats,
		input:     input,
		output:    r.output,
	})
	if err != nil {
		return err
	}
	if len(written) == 0 {
		return nil
	}

	printSuccess("Render complete")
	for _, p := range written {
		printFile(p)
	}
	printStats(inst.N, 0, 0, cacheHit)
	return nil
}
