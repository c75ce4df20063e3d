package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/matzehuels/platepack/pkg/errors"
	pio "github.com/matzehuels/platepack/pkg/io"
	"github.com/matzehuels/platepack/pkg/packing"
	"github.com/matzehuels/platepack/pkg/render"
)

// verifyCommand creates the verify command for checking result files.
func (c *CLI) verifyCommand() *cobra.Command {
	var (
		instancePath string
		quiet        bool
	)

	cmd := &cobra.Command{
		Use:   "verify [result.txt]",
		Short: "Check a result file for overlaps and bounds",
		Long: `Check a result file for overlaps and bounds.

Every circuit must lie on the plate, no two circuits may share a cell, and
the reported length must equal the top edge of the packing. With --instance
the echoed circuit dimensions are also compared against the original
instance and its maximum length is enforced.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runVerify(cmd.Context(), args[0], instancePath, quiet)
		},
	}

	cmd.Flags().StringVarP(&instancePath, "instance", "i", "", "original instance file to compare against")
	cmd.Flags().BoolVarP(&quiet, "quiet", "q", false, "do not print the packing")

	return cmd
}

func (c *CLI) runVerify(ctx context.Context, input, instancePath string, quiet bool) error {
	inst, out, err := pio.ImportResult(input)
	if err != nil {
		return fmt.Errorf("load result %s: %w", input, err)
	}
	if out.Solution == nil {
		return errors.New(errors.ErrCodeInvalidSolution, "%s has no packing (status %s)", input, out.Status)
	}

	if instancePath != "" {
		orig, err := pio.ImportInstance(instancePath)
		if err != nil {
			return err
		}
		if err := sameCircuits(orig, inst); err != nil {
			return err
		}
		if out.Length() > orig.MaxLength {
			return errors.New(errors.ErrCodeInvalidSolution, "length %d exceeds the maximum %d", out.Length(), orig.MaxLength)
		}
		inst.MaxLength = orig.MaxLength
	}

	if err := packing.Verify(inst, out.Solution); err != nil {
		printError("Invalid packing")
		return err
	}
	loggerFromContext(ctx).Debugf("Verified %d placements", len(out.Solution.Placements))

	printSuccess("Valid packing of length %d", out.Length())
	printKeyValue("Circuits", fmt.Sprint(inst.N))
	printKeyValue("Plate", fmt.Sprintf("%d × %d", inst.Width, out.Length()))
	printKeyValue("Status", out.Status.String())
	if !quiet {
		printNewline()
		fmt.Println(render.RenderASCII(inst, out.Solution, render.WithColor()))
	}
	return nil
}

// sameCircuits reports a mismatch between an instance and a result's echo.
func sameCircuits(want, got *packing.Instance) error {
	if want.Width != got.Width || want.N != got.N {
		return errors.New(errors.ErrCodeInvalidSolution,
			"result is for a %d-wide plate with %d circuits, instance has width %d and %d circuits",
			got.Width, got.N, want.Width, want.N)
	}
	for k := 0; k < want.N; k++ {
		if want.X[k] != got.X[k] || want.Y[k] != got.Y[k] {
			return errors.New(errors.ErrCodeInvalidSolution,
				"circuit %d is %dx%d in the result but %dx%d in the instance",
				k, got.X[k], got.Y[k], want.X[k], want.Y[k])
		}
	}
	return nil
}
