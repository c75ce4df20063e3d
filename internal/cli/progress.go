package cli

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/platepack/pkg/packing"
)

// heartbeatInterval is how often a running solve reports that it is alive.
const heartbeatInterval = 10 * time.Second

// solveReporter turns strategy improvements into log lines: the first
// packing, each shorter one, and a periodic heartbeat while the search runs.
// Improvements arrive on the solving goroutine, so state is guarded.
type solveReporter struct {
	prog   *progress
	logger *log.Logger
	budget time.Duration

	mu       sync.Mutex
	best     int
	lastLog  time.Time
	spinner  *Spinner
	stopBeat chan struct{}
	beatDone chan struct{}
}

// newSolveReporter creates a reporter with a logger from ctx.
func newSolveReporter(ctx context.Context, budget time.Duration) *solveReporter {
	logger := loggerFromContext(ctx)
	return &solveReporter{
		prog:   newProgress(logger),
		logger: logger,
		budget: budget,
		best:   -1,
	}
}

// attach mirrors the current best length in the spinner message.
func (r *solveReporter) attach(s *Spinner) {
	r.mu.Lock()
	r.spinner = s
	r.mu.Unlock()
}

// onImprovement is passed as pipeline.Options.Progress.
func (r *solveReporter) onImprovement(imp packing.Improvement) {
	r.mu.Lock()
	defer r.mu.Unlock()

	switch {
	case r.best < 0:
		r.logger.Infof("Initial: length %d (%s, iteration %d)", imp.Length, imp.Strategy, imp.Iteration)
	case imp.Length < r.best:
		r.logger.Infof("Improved: length %d (↓%d, %s)", imp.Length, r.best-imp.Length, imp.Strategy)
	default:
		return
	}
	r.best = imp.Length
	r.lastLog = time.Now()
	if r.spinner != nil {
		r.spinner.SetMessage(fmt.Sprintf("Solving... best length %d", imp.Length))
	}
}

// start begins the heartbeat. It stops when ctx ends or finish is called.
func (r *solveReporter) start(ctx context.Context) {
	r.stopBeat = make(chan struct{})
	r.beatDone = make(chan struct{})
	go func() {
		defer close(r.beatDone)
		ticker := time.NewTicker(heartbeatInterval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-r.stopBeat:
				return
			case <-ticker.C:
				r.heartbeat()
			}
		}
	}()
}

func (r *solveReporter) heartbeat() {
	r.mu.Lock()
	defer r.mu.Unlock()
	if time.Since(r.lastLog) < heartbeatInterval {
		return
	}
	elapsed := r.prog.elapsed()
	if r.best < 0 {
		r.logger.Infof("Searching... %v/%.0fs elapsed, no packing yet", elapsed, r.budget.Seconds())
	} else {
		r.logger.Infof("Searching... %v/%.0fs elapsed, best length %d", elapsed, r.budget.Seconds(), r.best)
	}
	r.lastLog = time.Now()
}

// finish stops the heartbeat and logs the verdict. A nil outcome only
// stops the heartbeat.
func (r *solveReporter) finish(out *packing.Outcome) {
	if r.stopBeat != nil {
		close(r.stopBeat)
		<-r.beatDone
		r.stopBeat = nil
	}
	if out == nil {
		return
	}

	switch out.Status {
	case packing.Optimal:
		r.prog.done(fmt.Sprintf("Solve complete: optimal length %d", out.Length()), "iterations", out.Iterations)
	case packing.TimeoutPartial:
		r.prog.done(fmt.Sprintf("Solve stopped: best length %d", out.Length()), "iterations", out.Iterations)
		r.logger.Warn("Packing is not proven optimal; try increasing the timeout (--timeout)")
	case packing.TimeoutNoSolution:
		r.prog.done("Solve stopped: no packing found")
		r.logger.Warn("No packing found within the budget; try increasing the timeout (--timeout)")
	case packing.Infeasible:
		r.prog.done("Solve complete: infeasible")
	}
	r.logger.Debugf("Strategy %s, %d iterations", out.Strategy, out.Iterations)
}
