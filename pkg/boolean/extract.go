package boolean

import (
	"github.com/matzehuels/platepack/pkg/boolean/cnf"
	"github.com/matzehuels/platepack/pkg/errors"
	"github.com/matzehuels/platepack/pkg/packing"
)

// Extract reads a packing out of the last satisfying assignment: the
// length from the true l[i] and each circuit's corner from the lowest,
// leftmost cell it covers. The corner is cross-checked against the
// selected anchor and the cell count against the footprint; a mismatch
// means the encoding is broken and is reported as an internal error.
func Extract(s *Session, reg *cnf.Registry, inst *packing.Instance) (*packing.Solution, error) {
	row := -1
	for i, l := range cnf.LengthLits(reg, inst.MaxLength) {
		if !s.Value(l) {
			continue
		}
		if row >= 0 {
			return nil, errors.New(errors.ErrCodeInternal, "model sets both l_%d and l_%d", row, i)
		}
		row = i
	}
	if row < 0 {
		return nil, errors.New(errors.ErrCodeInternal, "model sets no length variable")
	}

	sol := &packing.Solution{
		Length:     row + 1,
		Placements: make([]packing.Placement, inst.N),
	}
	for k := 0; k < inst.N; k++ {
		found := false
		for _, a := range cnf.Anchors(inst, k) {
			m, ok := reg.Lookup(a)
			if !ok || !s.Value(m) {
				continue
			}
			if found {
				return nil, errors.New(errors.ErrCodeInternal, "circuit %d has more than one anchor", k)
			}
			sol.Placements[k] = packing.Placement{Circuit: k, X: a.Col, Y: a.Row}
			found = true
		}
		if !found {
			return nil, errors.New(errors.ErrCodeInternal, "circuit %d has no anchor", k)
		}
		row, col, cells := corner(s, reg, inst, k)
		p := sol.Placements[k]
		if row != p.Y || col != p.X || cells != inst.X[k]*inst.Y[k] {
			return nil, errors.New(errors.ErrCodeInternal,
				"circuit %d: anchor (%d,%d) disagrees with %d cells from (%d,%d)", k, p.X, p.Y, cells, col, row)
		}
	}
	return sol, nil
}

// corner scans the cells of circuit k for the lowest row and leftmost
// column it covers.
func corner(s *Session, reg *cnf.Registry, inst *packing.Instance, k int) (row, col, cells int) {
	row, col = inst.MaxLength, inst.Width
	for i := 0; i < inst.MaxLength; i++ {
		for j := 0; j < inst.Width; j++ {
			m, ok := reg.Lookup(cnf.CellKey{Row: i, Col: j, Circuit: k})
			if !ok || !s.Value(m) {
				continue
			}
			cells++
			row, col = min(row, i), min(col, j)
		}
	}
	return row, col, cells
}
