package arith

import (
	"fmt"

	"github.com/crillab/gophersat/solver"

	"github.com/matzehuels/platepack/pkg/errors"
	"github.com/matzehuels/platepack/pkg/packing"
)

// Domain selects how coordinate bounds are derived.
type Domain string

const (
	// DomainPerCircuit bounds p_x[k] by w−x_k and p_y[k] by l_max−y_k.
	DomainPerCircuit Domain = "per-circuit"
	// DomainMinDimension bounds every coordinate by the smallest circuit
	// dimension and relies on the explicit max_w/max_h constraints.
	DomainMinDimension Domain = "min"
)

// Domains lists the accepted Domain values.
var Domains = []string{string(DomainPerCircuit), string(DomainMinDimension)}

// Model is the arithmetic formulation of one instance: order-encoded
// coordinates, the length variable and the constraint list handed to the
// engine.
type Model struct {
	Vars    *Vars
	PX, PY  []*IntVar
	Length  *IntVar
	Constrs []solver.PBConstr
}

// Config controls the optional parts of the formulation.
type Config struct {
	Domain     Domain
	MagW       int
	NoSymmetry bool
}

// Build assembles the full formulation.
func Build(inst *packing.Instance, cfg Config) (*Model, error) {
	if cfg.Domain == "" {
		cfg.Domain = DomainPerCircuit
	}
	if cfg.MagW == 0 {
		cfg.MagW = inst.MaxLength + 1
	}
	if cfg.MagW <= inst.MaxLength {
		return nil, errors.New(errors.ErrCodeInvalidInput, "mag_w must exceed the maximum length %d, got %d", inst.MaxLength, cfg.MagW)
	}

	vs := NewVars()
	m := &Model{Vars: vs}
	m.Constrs = append(m.Constrs, solver.PropClause(True))

	cs, err := Coordinates(vs, m, inst, cfg.Domain)
	if err != nil {
		return nil, err
	}
	m.Constrs = append(m.Constrs, cs...)
	m.Constrs = append(m.Constrs, AllDifferent(vs, m, cfg.MagW)...)
	m.Constrs = append(m.Constrs, NoOverlap(vs, m, inst)...)
	m.Constrs = append(m.Constrs, Cumulative(vs, m, inst)...)
	if !cfg.NoSymmetry {
		m.Constrs = append(m.Constrs, Symmetry(m, inst.Tallest())...)
	}
	m.Constrs = append(m.Constrs, Objective(vs, m, inst)...)

	// ParsePBConstrs sizes the problem from the literals it sees; this
	// trivially true term makes every allocated variable part of it.
	m.Constrs = append(m.Constrs, solver.PBConstr{Lits: []int{vs.Len()}, Weights: []int{1}, AtLeast: 0})
	return m, nil
}

// Coordinates allocates p_x and p_y for every circuit and asserts the
// max_w / max_h bounds p_x+x_k ≤ w and p_y+y_k ≤ l_max.
func Coordinates(vs *Vars, m *Model, inst *packing.Instance, domain Domain) ([]solver.PBConstr, error) {
	var hiX, hiY func(k int) int
	switch domain {
	case DomainPerCircuit:
		hiX = func(k int) int { return inst.Width - inst.X[k] }
		hiY = func(k int) int { return inst.MaxLength - inst.Y[k] }
	case DomainMinDimension:
		minX, minY := inst.MinX(), inst.MinY()
		hiX = func(int) int { return inst.Width - minX }
		hiY = func(int) int { return inst.MaxLength - minY }
	default:
		return nil, errors.New(errors.ErrCodeInvalidInput, "unknown domain %q", domain)
	}

	var cs []solver.PBConstr
	m.PX = make([]*IntVar, inst.N)
	m.PY = make([]*IntVar, inst.N)
	for k := 0; k < inst.N; k++ {
		px, chain := vs.Int(fmt.Sprintf("px_%d", k), 0, hiX(k))
		cs = append(cs, chain...)
		py, chain := vs.Int(fmt.Sprintf("py_%d", k), 0, hiY(k))
		cs = append(cs, chain...)
		m.PX[k], m.PY[k] = px, py

		cs = appendClause(cs, px.Le(inst.Width-inst.X[k]))
		cs = appendClause(cs, py.Le(inst.MaxLength-inst.Y[k]))
	}
	return cs, nil
}

// AllDifferent gives every circuit a distinct anchor key
// mag_w·p_x+p_y. Each pair orders its keys one way or the other through
// two reified linear inequalities over the order literals; mag_w > l_max
// keeps the key injective on the coordinate domain.
func AllDifferent(vs *Vars, m *Model, magW int) []solver.PBConstr {
	var cs []solver.PBConstr
	n := len(m.PX)
	for i := 0; i < n; i++ {
		for j := i + 1; j < n; j++ {
			lt := vs.New(fmt.Sprintf("key_lt_%d_%d", i, j))
			gt := vs.New(fmt.Sprintf("key_gt_%d_%d", i, j))
			cs = append(cs, KeyBelow(lt, m.PX[i], m.PY[i], m.PX[j], m.PY[j], magW)...)
			cs = append(cs, KeyBelow(gt, m.PX[j], m.PY[j], m.PX[i], m.PY[i], magW)...)
			cs = append(cs, solver.PropClause(lt, gt))
		}
	}
	return cs
}

// KeyBelow returns s ⇒ mag_w·ax+ay+1 ≤ mag_w·bx+by.
func KeyBelow(s int, ax, ay, bx, by *IntVar, magW int) []solver.PBConstr {
	var lits, weights []int
	add := func(x *IntVar, w int) {
		for _, g := range x.ge {
			lits = append(lits, g)
			weights = append(weights, w)
		}
	}
	add(bx, magW)
	add(by, 1)
	add(ax, -magW)
	add(ay, -1)
	// constant parts of both keys move to the right-hand side
	rhs := 1 + magW*ax.Lo + ay.Lo - magW*bx.Lo - by.Lo
	return reifiedGtEq(s, lits, weights, rhs)
}

// reifiedGtEq returns s ⇒ Σ weights·lits ≥ n; weights may be negative.
// An inequality that always holds yields no constraint.
func reifiedGtEq(s int, lits, weights []int, n int) []solver.PBConstr {
	c := solver.GtEq(lits, weights, n)
	if c.AtLeast <= 0 {
		return nil
	}
	c.Lits = append(c.Lits, -s)
	c.Weights = append(c.Weights, c.AtLeast)
	return []solver.PBConstr{c}
}

// NoOverlap separates every unordered pair along at least one axis:
// left of, right of, below or above.
func NoOverlap(vs *Vars, m *Model, inst *packing.Instance) []solver.PBConstr {
	var cs []solver.PBConstr
	for i := 0; i < inst.N; i++ {
		for j := i + 1; j < inst.N; j++ {
			sel := make([]int, 4)
			for d := range sel {
				sel[d] = vs.New(fmt.Sprintf("sep_%d_%d_%d", i, j, d))
			}
			cs = append(cs, Precede(sel[0], m.PX[i], inst.X[i], m.PX[j])...)
			cs = append(cs, Precede(sel[1], m.PX[j], inst.X[j], m.PX[i])...)
			cs = append(cs, Precede(sel[2], m.PY[i], inst.Y[i], m.PY[j])...)
			cs = append(cs, Precede(sel[3], m.PY[j], inst.Y[j], m.PY[i])...)
			cs = append(cs, solver.PropClause(sel...))
		}
	}
	return cs
}

// Cumulative treats each axis as a resource. For every row u the widths
// of the circuits covering u sum to at most w; for every column u the
// heights of the circuits covering u sum to at most l_max. Rows or
// columns that can never be overloaded get no constraint.
func Cumulative(vs *Vars, m *Model, inst *packing.Instance) []solver.PBConstr {
	var cs []solver.PBConstr
	for u := 0; u < inst.MaxLength; u++ {
		cs = append(cs, cumulative(vs, fmt.Sprintf("row_%d", u), m.PY, inst.Y, inst.X, u, inst.Width)...)
	}
	for u := 0; u < inst.Width; u++ {
		cs = append(cs, cumulative(vs, fmt.Sprintf("col_%d", u), m.PX, inst.X, inst.Y, u, inst.MaxLength)...)
	}
	return cs
}

// cumulative bounds the weights of the tasks (start, size) running at u.
func cumulative(vs *Vars, name string, start []*IntVar, size, weight []int, u, capacity int) []solver.PBConstr {
	var (
		tasks []int
		total int
	)
	for k, s := range start {
		// s covers u iff s ≥ u−size+1 and not s ≥ u+1
		if s.Ge(u-size[k]+1) == -True || s.Ge(u+1) == True {
			continue
		}
		tasks = append(tasks, k)
		total += weight[k]
	}
	if total <= capacity {
		return nil
	}

	var cs []solver.PBConstr
	lits := make([]int, 0, len(tasks))
	weights := make([]int, 0, len(tasks))
	for _, k := range tasks {
		c := vs.New(fmt.Sprintf("%s_%d", name, k))
		s := start[k]
		cs = appendClause(cs, -s.Ge(u-size[k]+1), s.Ge(u+1), c)
		lits = append(lits, c)
		weights = append(weights, weight[k])
	}
	return append(cs, solver.LtEq(lits, weights, capacity))
}

// Symmetry pins circuit k to the origin.
func Symmetry(m *Model, k int) []solver.PBConstr {
	var cs []solver.PBConstr
	cs = appendClause(cs, m.PX[k].Le(0))
	cs = appendClause(cs, m.PY[k].Le(0))
	return cs
}

// Objective allocates the length L over [LowerBound, l_max] and ties it
// to max_k(p_y[k]+y_k): every top is at most L, and L ≥ v forces some
// circuit to reach v.
func Objective(vs *Vars, m *Model, inst *packing.Instance) []solver.PBConstr {
	l, cs := vs.Int("length", inst.LowerBound(), inst.MaxLength)
	m.Length = l
	for k, py := range m.PY {
		for v := py.Lo; v <= py.Hi; v++ {
			cs = appendClause(cs, -py.Ge(v), l.Ge(v+inst.Y[k]))
		}
	}
	for v := l.Lo + 1; v <= l.Hi; v++ {
		lits := []int{-l.Ge(v)}
		for k, py := range m.PY {
			lits = append(lits, py.Ge(v-inst.Y[k]))
		}
		cs = appendClause(cs, lits...)
	}
	return cs
}

// Extract decodes a packing from a model indexed by variable−1.
func (m *Model) Extract(model []bool, inst *packing.Instance) *packing.Solution {
	sol := &packing.Solution{Placements: make([]packing.Placement, inst.N)}
	for k := range m.PX {
		x, y := m.PX[k].Value(model), m.PY[k].Value(model)
		sol.Placements[k] = packing.Placement{Circuit: k, X: x, Y: y}
		sol.Length = max(sol.Length, y+inst.Y[k])
	}
	return sol
}
