package cnf

import (
	"github.com/go-air/gini/z"

	"github.com/matzehuels/platepack/pkg/packing"
)

// CellExclusion forbids two circuits from covering the same cell: one
// bimander instance per cell over p[i][j][*].
func CellExclusion(reg *Registry, inst *packing.Instance) Formula {
	var f Formula
	for i := 0; i < inst.MaxLength; i++ {
		f = append(f, RowExclusion(reg, inst, i)...)
	}
	return f
}

// RowExclusion is CellExclusion restricted to row i.
func RowExclusion(reg *Registry, inst *packing.Instance, i int) Formula {
	m := GroupSize(inst.N)
	var f Formula
	cell := make([]z.Lit, inst.N)
	for j := 0; j < inst.Width; j++ {
		for k := 0; k < inst.N; k++ {
			cell[k] = reg.Lit(CellKey{Row: i, Col: j, Circuit: k})
		}
		f = append(f, Bimander(cell, m, reg.Aux(ScopeCell, i, j))...)
	}
	return f
}

// Anchors lists the admissible lower-left anchors of circuit k in row-major
// order: rows [0, l_max−y_k], columns [0, w−x_k].
func Anchors(inst *packing.Instance, k int) []AnchorKey {
	rows, cols := inst.MaxLength-inst.Y[k]+1, inst.Width-inst.X[k]+1
	if rows <= 0 || cols <= 0 {
		return nil
	}
	out := make([]AnchorKey, 0, rows*cols)
	for i := 0; i < rows; i++ {
		for j := 0; j < cols; j++ {
			out = append(out, AnchorKey{Circuit: k, Row: i, Col: j})
		}
	}
	return out
}

// Positions makes every circuit occupy exactly one anchor. Each anchor
// selector a implies its exact footprint of cells true and every other cell
// of the grid false for that circuit; ExactlyOne then runs over the
// selectors. A circuit with no admissible anchor yields the empty clause.
func Positions(reg *Registry, inst *packing.Instance) Formula {
	var f Formula
	for k := 0; k < inst.N; k++ {
		f = append(f, CircuitPositions(reg, inst, k)...)
	}
	return f
}

// CircuitPositions is Positions restricted to circuit k.
func CircuitPositions(reg *Registry, inst *packing.Instance, k int) Formula {
	var f Formula
	for _, a := range Anchors(inst, k) {
		f = append(f, AnchorFootprint(reg, inst, a)...)
	}
	return append(f, AnchorChoice(reg, inst, k)...)
}

// AnchorFootprint makes the selector of a imply its footprint cells true
// and every other cell of the grid false for circuit a.Circuit. It holds
// l_max·w binary clauses.
func AnchorFootprint(reg *Registry, inst *packing.Instance, a AnchorKey) Formula {
	xk, yk := inst.X[a.Circuit], inst.Y[a.Circuit]
	s := reg.Lit(a)
	f := make(Formula, 0, inst.MaxLength*inst.Width)
	for i := 0; i < inst.MaxLength; i++ {
		inRows := i >= a.Row && i < a.Row+yk
		for j := 0; j < inst.Width; j++ {
			p := reg.Lit(CellKey{Row: i, Col: j, Circuit: a.Circuit})
			if !inRows || j < a.Col || j >= a.Col+xk {
				p = p.Not()
			}
			f = append(f, Clause{s.Not(), p})
		}
	}
	return f
}

// AnchorChoice is ExactlyOne over the anchor selectors of circuit k. A
// circuit with no admissible anchor yields the empty clause.
func AnchorChoice(reg *Registry, inst *packing.Instance, k int) Formula {
	anchors := Anchors(inst, k)
	sel := make([]z.Lit, len(anchors))
	for t, a := range anchors {
		sel[t] = reg.Lit(a)
	}
	return ExactlyOne(sel, GroupSize(len(sel)), reg.Aux(ScopeAnchor, k, 0))
}

// Length ties the one-hot vector l to the geometry:
//
//	l[i] ⇔ r[i] ∧ ¬(r[i+1] ∨ … ∨ r[l_max−1])
//
// where r[i] is the disjunction of all cells of row i. The row and suffix
// disjunctions are gates on the registry's circuit; the returned roots must
// be Tseitin-encoded by the caller. The formula also holds ExactlyOne(l).
func Length(reg *Registry, inst *packing.Instance) (Formula, []z.Lit) {
	c := reg.Circuit()
	lmax := inst.MaxLength

	rows := make([]z.Lit, lmax)
	cells := make([]z.Lit, 0, inst.Width*inst.N)
	for i := 0; i < lmax; i++ {
		cells = cells[:0]
		for j := 0; j < inst.Width; j++ {
			for k := 0; k < inst.N; k++ {
				cells = append(cells, reg.Lit(CellKey{Row: i, Col: j, Circuit: k}))
			}
		}
		rows[i] = c.Ors(cells...)
	}

	lits := make([]z.Lit, lmax)
	roots := make([]z.Lit, lmax)
	var f Formula
	above := c.F
	for i := lmax - 1; i >= 0; i-- {
		d := c.And(rows[i], above.Not())
		above = c.Or(above, rows[i])
		l := reg.Lit(LengthKey{Row: i})
		lits[i], roots[i] = l, d
		f = append(f, Clause{l.Not(), d}, Clause{l, d.Not()})
	}
	f = append(f, ExactlyOne(lits, GroupSize(lmax), reg.Aux(ScopeLength, 0, 0))...)
	return f, roots
}

// Symmetry pins circuit k (normally the tallest) to the origin anchor:
// its footprint at (0,0) is forced on, every other circuit is forced off
// those cells, and the (0,0) anchor selector is asserted.
func Symmetry(reg *Registry, inst *packing.Instance, k int) Formula {
	var f Formula
	for i := 0; i < inst.Y[k] && i < inst.MaxLength; i++ {
		for j := 0; j < inst.X[k] && j < inst.Width; j++ {
			for q := 0; q < inst.N; q++ {
				p := reg.Lit(CellKey{Row: i, Col: j, Circuit: q})
				if q != k {
					p = p.Not()
				}
				f = append(f, Clause{p})
			}
		}
	}
	return append(f, Clause{reg.Lit(AnchorKey{Circuit: k})})
}

// LengthLits returns l[0..n) in order.
func LengthLits(reg *Registry, n int) []z.Lit {
	out := make([]z.Lit, n)
	for i := range out {
		out[i] = reg.Lit(LengthKey{Row: i})
	}
	return out
}
