package boolean

import (
	"context"
	"sync"
	"time"

	"github.com/go-air/gini"
	"github.com/go-air/gini/inter"
	"github.com/go-air/gini/z"

	"github.com/matzehuels/platepack/pkg/boolean/cnf"
	"github.com/matzehuels/platepack/pkg/errors"
)

// Verdict is the answer of one satisfiability check.
type Verdict int

const (
	Unknown Verdict = iota
	Sat
	Unsat
)

func (v Verdict) String() string {
	switch v {
	case Sat:
		return "sat"
	case Unsat:
		return "unsat"
	}
	return "unknown"
}

// pollInterval is how often a running check looks at its context.
const pollInterval = 5 * time.Millisecond

// Session owns one incremental gini instance for the lifetime of a solve.
// Clauses are only ever added; the variable space is the one of the
// registry's circuit. A Session must be closed, and Close is idempotent.
type Session struct {
	mu      sync.Mutex
	g       *gini.Gini
	reg     *cnf.Registry
	marks   []int8
	empty   bool
	closed  bool
	running inter.Solve
	clauses int
}

// Open starts a session over reg. The circuit's constant true literal is
// asserted so that gates folded to constants stay consistent.
func Open(reg *cnf.Registry) *Session {
	s := &Session{g: gini.New(), reg: reg}
	s.g.Add(reg.Circuit().T)
	s.g.Add(z.LitNull)
	s.clauses = 1
	return s
}

// Add sends every clause of f to the solver. An empty clause is recorded
// and makes all further checks Unsat without reaching the engine.
func (s *Session) Add(f cnf.Formula) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	for _, c := range f {
		if len(c) == 0 {
			s.empty = true
			continue
		}
		for _, m := range c {
			s.g.Add(m)
		}
		s.g.Add(z.LitNull)
		s.clauses++
	}
}

// AddGates Tseitin-encodes the gates reachable from roots that have not
// been sent yet.
func (s *Session) AddGates(roots ...z.Lit) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	var n int
	s.marks, n = s.reg.Circuit().CnfSince(s.g, s.marks, roots...)
	s.clauses += n
}

// Clauses returns the number of clauses sent so far.
func (s *Session) Clauses() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.clauses
}

// Check decides the clauses added so far. The search runs in the
// background and is stopped when ctx is done, in which case Check returns
// Unknown together with the context error.
func (s *Session) Check(ctx context.Context) (Verdict, error) {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return Unknown, errors.New(errors.ErrCodeSolver, "session is closed")
	}
	if s.empty {
		s.mu.Unlock()
		return Unsat, nil
	}
	if err := ctx.Err(); err != nil {
		s.mu.Unlock()
		return Unknown, err
	}
	h := s.g.GoSolve()
	s.running = h
	s.mu.Unlock()

	defer func() {
		s.mu.Lock()
		s.running = nil
		s.mu.Unlock()
	}()

	ticker := time.NewTicker(pollInterval)
	defer ticker.Stop()
	for {
		if res, done := h.Test(); done {
			return verdict(res), nil
		}
		select {
		case <-ctx.Done():
			if res := h.Stop(); res != 0 {
				return verdict(res), nil
			}
			return Unknown, ctx.Err()
		case <-ticker.C:
		}
	}
}

func verdict(res int) Verdict {
	switch res {
	case 1:
		return Sat
	case -1:
		return Unsat
	}
	return Unknown
}

// Value returns the value of m in the last satisfying assignment.
func (s *Session) Value(m z.Lit) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return false
	}
	return s.g.Value(m)
}

// Close stops a running check and releases the engine.
func (s *Session) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil
	}
	if s.running != nil {
		s.running.Stop()
		s.running = nil
	}
	s.closed = true
	s.g = nil
	s.marks = nil
	return nil
}
