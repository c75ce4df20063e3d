package cli

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	pio "github.com/matzehuels/platepack/pkg/io"
	"github.com/matzehuels/platepack/pkg/packing"
	"github.com/matzehuels/platepack/pkg/pipeline"
	"github.com/matzehuels/platepack/pkg/store"
)

// batchResult is the outcome of one instance in a batch.
type batchResult struct {
	input   string
	out     *packing.Outcome
	elapsed time.Duration
	cached  bool
	err     error
}

// batchCommand creates the batch command for solving many instances.
func (c *CLI) batchCommand() *cobra.Command {
	var (
		f      solveFlags
		jobs   int
		outDir string
	)

	cmd := &cobra.Command{
		Use:   "batch [instance...]",
		Short: "Solve many instances concurrently",
		Long: `Solve many instances concurrently.

Each instance is solved with the same options and its artifacts are written
next to it (or into --out-dir) as <name>-out.txt and friends. A summary
table is printed at the end; the command fails if any instance failed.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runBatch(cmd.Context(), args, &f, jobs, outDir)
		},
	}

	f.register(cmd)
	cmd.Flags().IntVarP(&jobs, "jobs", "j", max(1, runtime.NumCPU()/2), "instances solved at once")
	cmd.Flags().StringVar(&outDir, "out-dir", "", "directory for artifacts (default: next to each instance)")
	_ = cmd.Flags().MarkHidden("output")

	return cmd
}

// runBatch solves inputs with at most jobs solves in flight.
func (c *CLI) runBatch(ctx context.Context, inputs []string, f *solveFlags, jobs int, outDir string) error {
	defaults, err := c.solveDefaults()
	if err != nil {
		return err
	}
	f.opts.Logger = c.Logger
	opts, err := f.options(defaults)
	if err != nil {
		return err
	}
	if outDir != "" {
		if err := os.MkdirAll(outDir, 0755); err != nil {
			return fmt.Errorf("create %s: %w", outDir, err)
		}
	}

	runner, err := c.newRunner(ctx, f.noCache)
	if err != nil {
		return fmt.Errorf("initialize runner: %w", err)
	}
	defer runner.Close()

	var st store.Store
	if !f.noSave {
		if st, err = c.openStore(ctx); err != nil {
			c.Logger.Warn("run archive unavailable", "error", err)
		}
		if st != nil {
			defer st.Close()
		}
	}

	prog := newProgress(c.Logger)
	c.Logger.Infof("Solving %d instances (%d at a time, %s each)", len(inputs), jobs, opts.Budget())

	results := make([]batchResult, len(inputs))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(max(1, jobs))
	for i, input := range inputs {
		g.Go(func() error {
			results[i] = c.solveOne(gctx, runner, st, input, opts, outDir)
			// Only cancellation aborts the batch; instance failures are reported.
			return ctx.Err()
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}
	prog.done(fmt.Sprintf("Batch complete: %d instances", len(inputs)), "jobs", jobs)

	printNewline()
	fmt.Println(batchTable(results))

	failed := 0
	for _, r := range results {
		if r.err != nil {
			failed++
		}
	}
	if failed > 0 {
		return fmt.Errorf("%d of %d instances failed", failed, len(inputs))
	}
	return nil
}

// solveOne runs the pipeline for a single instance and writes its artifacts.
func (c *CLI) solveOne(ctx context.Context, runner *pipeline.Runner, st store.Store, input string, opts pipeline.Options, outDir string) batchResult {
	res := batchResult{input: input}
	inst, err := pio.ImportInstance(input)
	if err != nil {
		res.err = err
		instanceLogger(c.Logger, input, nil).Error("load failed", "error", err)
		return res
	}
	logger := instanceLogger(c.Logger, input, inst)

	opts.Logger = logger
	opts.Progress = func(imp packing.Improvement) {
		logger.Debug("improved", "length", imp.Length, "strategy", imp.Strategy)
	}
	start := time.Now()
	r, err := runner.Execute(ctx, inst, opts)
	res.elapsed = time.Since(start)
	if err != nil {
		res.err = err
		logger.Error("solve failed", "error", err)
		return res
	}
	res.out, res.cached = r.Outcome, r.CacheInfo.SolveHit
	logger.Info(outcomeSummary(r.Outcome), "elapsed", res.elapsed.Round(time.Millisecond))

	target := input
	if outDir != "" {
		target = filepath.Join(outDir, filepath.Base(input))
	}
	if _, err := writeArtifacts(artifactWriteParams{
		artifacts: r.Artifacts,
		formats:   opts.Formats,
		input:     target,
	}); err != nil {
		res.err = err
		logger.Error("write failed", "error", err)
		return res
	}

	if st != nil {
		rec := store.NewRecord(runName(input), inst, opts.Strategy, r.Outcome)
		if err := st.Save(ctx, rec); err != nil {
			logger.Warn("archive run failed", "error", err)
		}
	}
	return res
}

// batchTable renders the batch summary.
func batchTable(results []batchResult) string {
	headerStyle := lipgloss.NewStyle().Foreground(colorGray).Bold(true)

	rows := make([][]string, 0, len(results))
	for _, r := range results {
		status, length, cached := "error", "-", ""
		if r.err == nil {
			status = r.out.Status.String()
			if r.out.Status.HasSolution() {
				length = fmt.Sprint(r.out.Length())
			}
			if r.cached {
				cached = iconCached
			}
		}
		rows = append(rows, []string{filepath.Base(r.input), status, length, r.elapsed.Round(time.Millisecond).String(), cached})
	}

	return table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(colorDim)).
		Headers("Instance", "Status", "Length", "Time", "").
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == -1 {
				return headerStyle
			}
			if col == 1 {
				return statusStyle(rows[row][1])
			}
			if col == 4 {
				return styleCached
			}
			return lipgloss.NewStyle()
		}).
		Render()
}
