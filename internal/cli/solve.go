package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"

	pio "github.com/matzehuels/platepack/pkg/io"
	"github.com/matzehuels/platepack/pkg/packing"
	"github.com/matzehuels/platepack/pkg/pipeline"
	"github.com/matzehuels/platepack/pkg/render"
	"github.com/matzehuels/platepack/pkg/store"
)

// solveFlags holds the command-line flags shared by solve and batch.
type solveFlags struct {
	opts      pipeline.Options
	timeout   time.Duration
	formats   string
	output    string
	noCache   bool
	noSave    bool
	noPreview bool
	name      string
	dumpVars  string
	dumpPB    string
}

// register adds the solver and render flags to cmd.
func (f *solveFlags) register(cmd *cobra.Command) {
	fl := cmd.Flags()
	fl.StringVarP(&f.opts.Strategy, "strategy", "s", "", "strategy: boolean (default), arith, portfolio")
	fl.DurationVarP(&f.timeout, "timeout", "t", 0, "solve budget (default 5m)")
	fl.StringVar(&f.opts.Domain, "domain", "", "arith coordinate domain: per-circuit (default), min")
	fl.IntVar(&f.opts.MagW, "mag-w", 0, "arith magnitude weight (default: max length + 1)")
	fl.BoolVar(&f.opts.NoSymmetry, "no-symmetry", false, "do not pin the tallest circuit to the origin")
	fl.BoolVar(&f.opts.Refresh, "refresh", false, "ignore cached outcomes")
	fl.BoolVar(&f.noCache, "no-cache", false, "disable caching")
	fl.BoolVar(&f.noSave, "no-save", false, "do not archive the run")

	fl.StringVarP(&f.formats, "format", "f", "", "output format(s): txt (default), json, svg, ascii, blocks, dot, neato (comma-separated)")
	fl.StringVarP(&f.output, "output", "o", "", "output file (single format, - for stdout) or base path")
	fl.StringVar(&f.opts.Style, "style", "", "svg style: simple (default), blueprint")
	fl.IntVar(&f.opts.Scale, "scale", 0, "svg pixels per grid cell (default 20)")
	fl.BoolVar(&f.opts.Labels, "labels", false, "label circuits in svg output")
	fl.BoolVar(&f.opts.Grid, "grid", false, "draw grid lines in svg output")
	fl.BoolVar(&f.opts.Color, "color", false, "colour ascii output")
	registerValueCompletions(cmd)
}

// options layers the flags over the configured defaults and validates.
func (f *solveFlags) options(defaults pipeline.Options) (pipeline.Options, error) {
	over := f.opts
	over.Formats = parseFormats(f.formats)
	if f.timeout > 0 {
		over.TimeoutMS = int(f.timeout / time.Millisecond)
	}
	opts := defaults.Overlay(over)
	if err := opts.ValidateAndSetDefaults(); err != nil {
		return opts, err
	}
	return opts, nil
}

// solveCommand creates the solve command.
func (c *CLI) solveCommand() *cobra.Command {
	var f solveFlags

	cmd := &cobra.Command{
		Use:   "solve [instance]",
		Short: "Pack the circuits of an instance at minimal length",
		Long: `Pack the circuits of an instance at minimal length.

The instance is read in the format implied by its extension: .json and
.toml documents, or the text format (width, count, one "x y" line per
circuit, optional maximum length) otherwise.

The result file is written next to the instance as <name>-out.txt unless
--output says otherwise. Optimal and infeasible outcomes are cached, so
solving the same instance again is instant. Every run is archived and can
be browsed with 'platepack runs'.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runSolve(cmd.Context(), args[0], &f)
		},
	}

	f.register(cmd)
	cmd.Flags().StringVar(&f.name, "name", "", "run name in the archive (default: instance file name)")
	cmd.Flags().BoolVar(&f.noPreview, "no-preview", false, "do not print the packing")
	cmd.Flags().StringVar(&f.dumpVars, "dump-vars", "", "write boolean variable names to this file")
	cmd.Flags().StringVar(&f.dumpPB, "dump-pb", "", "write the pseudo-boolean model (OPB) to this file")

	return cmd
}

// runSolve loads the instance, solves it, and writes the artifacts.
func (c *CLI) runSolve(ctx context.Context, input string, f *solveFlags) error {
	inst, err := pio.ImportInstance(input)
	if err != nil {
		return err
	}
	c.Logger.Infof("Loaded %s: %d circuits, width %d, max length %d", input, inst.N, inst.Width, inst.MaxLength)

	defaults, err := c.solveDefaults()
	if err != nil {
		return err
	}
	f.opts.Logger = c.Logger
	opts, err := f.options(defaults)
	if err != nil {
		return err
	}

	closeDumps, err := openDumps(&opts, f.dumpVars, f.dumpPB)
	if err != nil {
		return err
	}
	defer closeDumps()

	runner, err := c.newRunner(ctx, f.noCache)
	if err != nil {
		return fmt.Errorf("initialize runner: %w", err)
	}
	defer runner.Close()

	reporter := newSolveReporter(ctx, opts.Budget())
	opts.Progress = reporter.onImprovement

	spinner := newSpinnerWithContext(ctx, fmt.Sprintf("Solving with %s...", opts.Strategy))
	reporter.attach(spinner)
	spinner.Start()
	reporter.start(ctx)

	res, err := runner.Execute(ctx, inst, opts)
	spinner.Stop()
	if err != nil {
		reporter.finish(nil)
		printError("Solve failed")
		return fmt.Errorf("solve: %w", err)
	}
	reporter.finish(res.Outcome)

	written, err := writeArtifacts(artifactWriteParams{
		artifacts: res.Artifacts,
		formats:   opts.Formats,
		input:     input,
		output:    f.output,
	})
	if err != nil {
		return err
	}

	printOutcome(res.Outcome)
	if !f.noPreview && f.output != stdoutPath && res.Outcome.Solution != nil {
		printNewline()
		fmt.Println(render.RenderASCII(inst, res.Outcome.Solution, render.WithColor()))
	}
	for _, p := range written {
		printFile(p)
	}
	printStats(inst.N, res.Outcome.Iterations, res.Stats.SolveTime, res.CacheInfo.SolveHit)

	if !f.noSave {
		name := f.name
		if name == "" {
			name = runName(input)
		}
		c.archive(ctx, store.NewRecord(name, inst, opts.Strategy, res.Outcome))
	}

	if len(written) > 0 && res.Outcome.Solution != nil {
		printNewline()
		printNextStep("Render", fmt.Sprintf("%s render %s -f svg", appName, written[0]))
	}
	return res.Outcome.Err()
}

// archive saves rec to the configured store. Failures are logged, not fatal.
func (c *CLI) archive(ctx context.Context, rec *store.Record) {
	st, err := c.openStore(ctx)
	if err != nil {
		c.Logger.Warn("run archive unavailable", "error", err)
		return
	}
	if st == nil {
		return
	}
	defer st.Close()
	if err := st.Save(ctx, rec); err != nil {
		c.Logger.Warn("archive run failed", "error", err)
		return
	}
	printDetail("Run %s", rec.ID)
}

// runName derives an archive name from an instance path.
func runName(input string) string {
	base := filepath.Base(input)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

// openDumps points the debug dump writers at files. The returned func
// closes them.
func openDumps(opts *pipeline.Options, varsPath, pbPath string) (func(), error) {
	var files []*os.File
	closeAll := func() {
		for _, f := range files {
			f.Close()
		}
	}
	open := func(path string) (io.Writer, error) {
		f, err := os.Create(path)
		if err != nil {
			closeAll()
			return nil, fmt.Errorf("create dump %s: %w", path, err)
		}
		files = append(files, f)
		return f, nil
	}

	if varsPath != "" {
		w, err := open(varsPath)
		if err != nil {
			return nil, err
		}
		opts.DumpVars = w
	}
	if pbPath != "" {
		w, err := open(pbPath)
		if err != nil {
			return nil, err
		}
		opts.DumpPB = w
	}
	return closeAll, nil
}

// outcomeSummary is a one-line description used by batch.
func outcomeSummary(out *packing.Outcome) string {
	if out.Status.HasSolution() {
		return fmt.Sprintf("%s, length %d", out.Status, out.Length())
	}
	return out.Status.String()
}
