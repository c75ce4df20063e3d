package pipeline

import (
	"context"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"golang.org/x/sync/errgroup"

	"github.com/matzehuels/platepack/pkg/arith"
	"github.com/matzehuels/platepack/pkg/boolean"
	"github.com/matzehuels/platepack/pkg/errors"
	"github.com/matzehuels/platepack/pkg/packing"
)

// NewStrategy builds the strategy named by opts. Progress is reported to
// progress, which may be nil.
func NewStrategy(opts Options, progress packing.ProgressFunc) (packing.Strategy, error) {
	if err := opts.ValidateForSolve(); err != nil {
		return nil, err
	}
	logger := opts.Logger
	switch opts.Strategy {
	case boolean.Name:
		return boolean.Search{
			Timeout:    opts.Budget(),
			NoSymmetry: opts.NoSymmetry,
			Progress:   progress,
			DumpVars:   opts.DumpVars,
			Debug: func(d boolean.DebugInfo) {
				logger.Debug("encoded formula", "strategy", boolean.Name,
					"variables", d.Variables, "clauses", d.Clauses, "symmetry", d.Symmetry)
			},
		}, nil
	case arith.Name:
		return arith.Optimizer{
			Timeout:    opts.Budget(),
			Domain:     arith.Domain(opts.Domain),
			MagW:       opts.MagW,
			NoSymmetry: opts.NoSymmetry,
			Progress:   progress,
			DumpPB:     opts.DumpPB,
			Detached:   opts.Detached,
			Debug: func(d arith.DebugInfo) {
				logger.Debug("encoded model", "strategy", arith.Name,
					"variables", d.Variables, "constraints", d.Constraints,
					"domain", d.Domain, "symmetry", d.Symmetry)
			},
		}, nil
	case StrategyPortfolio:
		// dumps are per-engine; run each engine alone to get them
		single := opts
		single.DumpVars, single.DumpPB = nil, nil
		var members []packing.Strategy
		for _, name := range []string{boolean.Name, arith.Name} {
			single.Strategy = name
			s, err := NewStrategy(single, progress)
			if err != nil {
				return nil, err
			}
			members = append(members, s)
		}
		return Portfolio{Members: members, Logger: logger}, nil
	}
	return nil, errors.New(errors.ErrCodeInvalidStrategy, "invalid strategy: %q", opts.Strategy)
}

// Portfolio runs several strategies on the same instance concurrently.
// The first proven verdict cancels the others; otherwise every member runs
// to its own budget. The best outcome wins (see packing.Outcome.Better).
type Portfolio struct {
	Members []packing.Strategy
	Logger  *log.Logger
}

// Name implements packing.Strategy.
func (Portfolio) Name() string { return StrategyPortfolio }

// Solve implements packing.Strategy.
func (p Portfolio) Solve(ctx context.Context, inst *packing.Instance) (*packing.Outcome, error) {
	if len(p.Members) == 0 {
		return nil, errors.New(errors.ErrCodeInvalidStrategy, "portfolio has no members")
	}
	start := time.Now()
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	outs := make([]*packing.Outcome, len(p.Members))
	g, gctx := errgroup.WithContext(ctx)
	for i, s := range p.Members {
		g.Go(func() error {
			out, err := s.Solve(gctx, inst)
			if err != nil {
				return err
			}
			outs[i] = out
			if out.Status == packing.Optimal || out.Status == packing.Infeasible {
				if p.Logger != nil {
					p.Logger.Debug("portfolio member finished first", "strategy", s.Name(), "status", out.Status)
				}
				cancel()
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	var best *packing.Outcome
	iterations := 0
	for _, out := range outs {
		iterations += out.Iterations
		if out.Better(best) {
			best = out
		}
	}
	res := *best
	res.Iterations = iterations
	res.Elapsed = time.Since(start)
	return &res, nil
}

// monotonic drops improvements that are not shorter than the best one
// reported so far. Portfolio members improve independently, so their
// streams interleave.
func monotonic(next packing.ProgressFunc) packing.ProgressFunc {
	if next == nil {
		return nil
	}
	var mu sync.Mutex
	best := 0
	return func(imp packing.Improvement) {
		mu.Lock()
		if best != 0 && imp.Length >= best {
			mu.Unlock()
			return
		}
		best = imp.Length
		mu.Unlock()
		next(imp)
	}
}
