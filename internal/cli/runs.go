package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"

	"github.com/matzehuels/platepack/pkg/errors"
	pio "github.com/matzehuels/platepack/pkg/io"
	"github.com/matzehuels/platepack/pkg/render"
	"github.com/matzehuels/platepack/pkg/store"
)

// runsCommand creates the runs command for browsing the run archive.
func (c *CLI) runsCommand() *cobra.Command {
	var (
		filter  store.Filter
		asJSON  bool
		noInter bool
	)

	cmd := &cobra.Command{
		Use:   "runs",
		Short: "Browse archived runs",
		Long: `Browse archived runs.

On a terminal this opens an interactive list: arrows move, enter previews
the packing, d deletes the run. Use --plain for a static table or --json
for machine-readable output.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runRuns(cmd.Context(), filter, asJSON, noInter)
		},
	}

	cmd.Flags().StringVar(&filter.Name, "name", "", "only runs with this name")
	cmd.Flags().StringVar(&filter.Status, "status", "", "only runs with this status")
	cmd.Flags().IntVarP(&filter.Limit, "limit", "n", store.DefaultLimit, "maximum runs to list")
	cmd.Flags().BoolVar(&asJSON, "json", false, "print runs as JSON")
	cmd.Flags().BoolVar(&noInter, "plain", false, "print a table instead of the interactive list")

	cmd.AddCommand(c.runsShowCommand())
	cmd.AddCommand(c.runsDeleteCommand())

	return cmd
}

// withStore opens the archive and runs fn against it.
func (c *CLI) withStore(ctx context.Context, fn func(store.Store) error) error {
	st, err := c.openStore(ctx)
	if err != nil {
		return err
	}
	if st == nil {
		return errors.New(errors.ErrCodeUnsupported, "run archive is disabled (store.backend = \"none\")")
	}
	defer st.Close()
	return fn(st)
}

func (c *CLI) runRuns(ctx context.Context, filter store.Filter, asJSON, plain bool) error {
	return c.withStore(ctx, func(st store.Store) error {
		runs, err := st.List(ctx, filter)
		if err != nil {
			return err
		}

		switch {
		case asJSON:
			enc := json.NewEncoder(os.Stdout)
			enc.SetIndent("", "  ")
			return enc.Encode(runs)
		case plain || !isatty.IsTerminal(os.Stdout.Fd()):
			if len(runs) == 0 {
				printInfo("No runs archived")
				return nil
			}
			fmt.Println(runTable(runs, 0, len(runs), -1, time.Now()))
			return nil
		}

		final, err := tea.NewProgram(NewRunListModel(runs), tea.WithContext(ctx)).Run()
		if err != nil {
			return fmt.Errorf("run browser: %w", err)
		}
		m := final.(RunListModel)
		for _, id := range m.Deleted {
			if err := st.Delete(ctx, id); err != nil {
				return err
			}
		}
		if n := len(m.Deleted); n > 0 {
			printSuccess("Deleted %d run(s)", n)
		}
		return nil
	})
}

// runsShowCommand creates the "runs show" subcommand.
func (c *CLI) runsShowCommand() *cobra.Command {
	var (
		asJSON bool
		output string
	)

	cmd := &cobra.Command{
		Use:   "show [id]",
		Short: "Show one archived run",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			return c.withStore(ctx, func(st store.Store) error {
				rec, err := st.Get(ctx, args[0])
				if err != nil {
					return err
				}
				if asJSON {
					enc := json.NewEncoder(os.Stdout)
					enc.SetIndent("", "  ")
					return enc.Encode(rec)
				}
				if output != "" {
					if err := pio.ExportResult(output, rec.Instance, rec.Outcome); err != nil {
						return err
					}
					printSuccess("Result written")
					printFile(output)
					return nil
				}
				printRecord(rec)
				return nil
			})
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "print the full record as JSON")
	cmd.Flags().StringVarP(&output, "output", "o", "", "write the run's result file to this path")

	return cmd
}

// runsDeleteCommand creates the "runs delete" subcommand.
func (c *CLI) runsDeleteCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "delete [id...]",
		Short: "Delete archived runs",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			return c.withStore(ctx, func(st store.Store) error {
				for _, id := range args {
					if err := st.Delete(ctx, id); err != nil {
						return err
					}
				}
				printSuccess("Deleted %d run(s)", len(args))
				return nil
			})
		},
	}
}

// printRecord prints a run's details and packing.
func printRecord(rec *store.Record) {
	printKeyValue("ID", rec.ID)
	printKeyValue("Name", rec.Name)
	printKeyValue("Created", rec.CreatedAt.Local().Format(time.DateTime))
	printKeyValue("Strategy", rec.Strategy)
	printKeyValue("Status", statusStyle(rec.Status).Render(rec.Status))
	if rec.Instance != nil {
		printKeyValue("Circuits", fmt.Sprint(rec.Instance.N))
		printKeyValue("Width", fmt.Sprint(rec.Instance.Width))
	}
	if rec.Length > 0 {
		printKeyValue("Length", fmt.Sprint(rec.Length))
	}
	if rec.Outcome != nil {
		printKeyValue("Elapsed", rec.Outcome.Elapsed.Round(time.Millisecond).String())
		if rec.Outcome.Solution != nil && rec.Instance != nil {
			printNewline()
			fmt.Println(render.RenderASCII(rec.Instance, rec.Outcome.Solution, render.WithColor()))
		}
	}
}
