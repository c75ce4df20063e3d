package arith

import (
	"context"
	"io"
	"time"

	"github.com/crillab/gophersat/solver"

	"github.com/matzehuels/platepack/pkg/errors"
	"github.com/matzehuels/platepack/pkg/packing"
)

// Name is the strategy name reported in outcomes.
const Name = "arith"

// DefaultTimeout bounds a whole solve when Optimizer.Timeout is zero.
const DefaultTimeout = 300 * time.Second

// DebugInfo describes the formulation handed to the engine.
type DebugInfo struct {
	Variables   int
	Constraints int
	Domain      Domain
	Symmetry    bool
}

// Optimizer minimizes the length of the arithmetic formulation on one
// incremental gophersat solver. Each model found tightens L < best with a
// new clause until the engine reports unsat.
//
// gophersat cannot be interrupted: when the budget runs out mid-check the
// running Solve is abandoned to finish on its own goroutine and its
// result is discarded. Detached, when set, receives a channel that closes
// once that goroutine exits.
type Optimizer struct {
	Timeout    time.Duration
	Domain     Domain
	MagW       int
	NoSymmetry bool
	Progress   packing.ProgressFunc
	Debug      func(DebugInfo)
	// DumpPB receives the OPB text of the initial problem when non-nil.
	DumpPB   io.Writer
	Detached func(exited <-chan struct{})
}

// Name implements packing.Strategy.
func (Optimizer) Name() string { return Name }

// Solve implements packing.Strategy.
func (o Optimizer) Solve(ctx context.Context, inst *packing.Instance) (*packing.Outcome, error) {
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

	timeout := o.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	m, err := Build(inst, Config{Domain: o.Domain, MagW: o.MagW, NoSymmetry: o.NoSymmetry})
	if err != nil {
		return nil, err
	}
	if ctx.Err() != nil {
		return finish(packing.TimeoutNoSolution)
	}
	s := solver.New(solver.ParsePBConstrs(m.Constrs))
	if o.Debug != nil {
		domain := o.Domain
		if domain == "" {
			domain = DomainPerCircuit
		}
		o.Debug(DebugInfo{Variables: m.Vars.Len(), Constraints: len(m.Constrs), Domain: domain, Symmetry: !o.NoSymmetry})
	}
	if o.DumpPB != nil {
		if _, err := io.WriteString(o.DumpPB, s.PBString()+"\n"); err != nil {
			return nil, errors.Wrap(errors.ErrCodeInternal, err, "dump pseudo-boolean problem")
		}
	}

	for {
		st, ok := check(ctx, s.Solve, o.Detached)
		if !ok {
			if out.Solution == nil {
				return finish(packing.TimeoutNoSolution)
			}
			return finish(packing.TimeoutPartial)
		}
		out.Iterations++

		switch st {
		case solver.Sat:
			sol := m.Extract(s.Model(), inst)
			out.Solution = sol
			if o.Progress != nil {
				o.Progress(packing.Improvement{
					Strategy:  Name,
					Iteration: out.Iterations,
					Length:    sol.Length,
					Elapsed:   time.Since(start),
				})
			}
			if sol.Length <= m.Length.Lo {
				return finish(packing.Optimal)
			}
			s.AppendClause(solver.PropClause(-m.Length.Ge(sol.Length)).Clause())
		case solver.Unsat:
			if out.Solution == nil {
				out.Reason = "no packing within the maximum length"
				return finish(packing.Infeasible)
			}
			return finish(packing.Optimal)
		default:
			return nil, errors.New(errors.ErrCodeSolver, "engine returned %v", st)
		}
	}
}

// check runs solve until it returns or ctx is done. ok is false on
// timeout; the solver must not be used afterwards since the search may
// still be running, and detached is told when it stops.
func check(ctx context.Context, solve func() solver.Status, detached func(<-chan struct{})) (solver.Status, bool) {
	if ctx.Err() != nil {
		return solver.Indet, false
	}
	done := make(chan solver.Status, 1)
	exited := make(chan struct{})
	go func() {
		defer close(exited)
		done <- solve()
	}()
	select {
	case st := <-done:
		return st, true
	case <-ctx.Done():
		if detached != nil {
			detached(exited)
		}
		return solver.Indet, false
	}
}
