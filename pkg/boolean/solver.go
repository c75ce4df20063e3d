package boolean

import (
	"context"
	"io"
	"time"

	"github.com/go-air/gini/z"

	"github.com/matzehuels/platepack/pkg/boolean/cnf"
	"github.com/matzehuels/platepack/pkg/errors"
	"github.com/matzehuels/platepack/pkg/packing"
)

// Name is the strategy name reported in outcomes.
const Name = "boolean"

// DefaultTimeout bounds a whole solve when Search.Timeout is zero.
const DefaultTimeout = 300 * time.Second

// DebugInfo describes the encoding handed to the engine.
type DebugInfo struct {
	Variables int
	Clauses   int
	Symmetry  bool
}

// Search is the iterative-bound SAT strategy. The formula is encoded once;
// every satisfying assignment of length L adds the clause
// l[0] ∨ … ∨ l[L−2] and the engine is asked again, until it answers unsat
// (the last packing is optimal) or the budget runs out.
//
// The zero value is ready to use: 300 s budget, symmetry breaking on.
type Search struct {
	// Timeout bounds the whole loop, not each check.
	Timeout time.Duration
	// NoSymmetry disables pinning the tallest circuit to the origin.
	NoSymmetry bool
	// Progress is called after every improvement.
	Progress packing.ProgressFunc
	// Debug is called once the formula is built.
	Debug func(DebugInfo)
	// DumpVars receives the variable table when non-nil.
	DumpVars io.Writer
}

// Name implements packing.Strategy.
func (Search) Name() string { return Name }

// Solve implements packing.Strategy.
func (b Search) Solve(ctx context.Context, inst *packing.Instance) (*packing.Outcome, error) {
	start := time.Now()
	if err := inst.Validate(); err != nil {
		return nil, err
	}
	out := &packing.Outcome{Strategy: Name}
	finish := func(st packing.Status) (*packing.Outcome, error) {
		out.Status = st
		out.Elapsed = time.Since(start)
		return out, nil
	}
	if reason, ok := inst.TriviallyInfeasible(); ok {
		out.Reason = reason
		return finish(packing.Infeasible)
	}

	timeout := b.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	reg := cnf.NewRegistry(inst.N * inst.Width * inst.MaxLength)
	sess := Open(reg)
	defer sess.Close()

	if err := encode(ctx, sess, reg, inst, !b.NoSymmetry); err != nil {
		return finish(packing.TimeoutNoSolution)
	}
	if b.Debug != nil {
		b.Debug(DebugInfo{Variables: reg.Len(), Clauses: sess.Clauses(), Symmetry: !b.NoSymmetry})
	}
	if b.DumpVars != nil {
		if err := reg.Dump(b.DumpVars); err != nil {
			return nil, errors.Wrap(errors.ErrCodeInternal, err, "dump variables")
		}
	}

	lits := cnf.LengthLits(reg, inst.MaxLength)
	lower := inst.LowerBound()
	for {
		v, err := sess.Check(ctx)
		if err != nil && ctx.Err() == nil {
			return nil, errors.Wrap(errors.ErrCodeSolver, err, "check at iteration %d", out.Iterations+1)
		}
		if v != Unknown {
			out.Iterations++
		}

		switch v {
		case Sat:
			sol, err := Extract(sess, reg, inst)
			if err != nil {
				return nil, err
			}
			out.Solution = sol
			if b.Progress != nil {
				b.Progress(packing.Improvement{
					Strategy:  Name,
					Iteration: out.Iterations,
					Length:    sol.Length,
					Elapsed:   time.Since(start),
				})
			}
			if sol.Length <= lower {
				return finish(packing.Optimal)
			}
			sess.Add(cnf.Formula{shorter(lits, sol.Length)})
		case Unsat:
			if out.Solution == nil {
				out.Reason = "no packing within the maximum length"
				return finish(packing.Infeasible)
			}
			return finish(packing.Optimal)
		default:
			if out.Solution == nil {
				return finish(packing.TimeoutNoSolution)
			}
			return finish(packing.TimeoutPartial)
		}
	}
}

// encode streams the whole formula into sess. The position clauses grow
// with the square of the grid, so the budget is checked between rows and
// anchors; the context error is returned once it runs out.
func encode(ctx context.Context, sess *Session, reg *cnf.Registry, inst *packing.Instance, symmetry bool) error {
	for i := 0; i < inst.MaxLength; i++ {
		if err := ctx.Err(); err != nil {
			return err
		}
		sess.Add(cnf.RowExclusion(reg, inst, i))
	}
	for k := 0; k < inst.N; k++ {
		for _, a := range cnf.Anchors(inst, k) {
			if err := ctx.Err(); err != nil {
				return err
			}
			sess.Add(cnf.AnchorFootprint(reg, inst, a))
		}
		sess.Add(cnf.AnchorChoice(reg, inst, k))
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	lf, roots := cnf.Length(reg, inst)
	sess.Add(lf)
	sess.AddGates(roots...)
	if symmetry {
		sess.Add(cnf.Symmetry(reg, inst, inst.Tallest()))
	}
	return ctx.Err()
}

// shorter is the clause requiring a length strictly below length.
func shorter(lits []z.Lit, length int) cnf.Clause {
	return append(cnf.Clause(nil), lits[:length-1]...)
}
