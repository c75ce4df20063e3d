package packing

import (
	"github.com/matzehuels/platepack/pkg/errors"
)

// Verify checks a packing against its instance: every circuit placed once,
// inside [0,w)×[0,length), pairwise axis-separated, and length equal to the
// highest top edge. Anchors are also checked for distinctness under the
// key magW·x+y with magW = MaxLength+1.
func Verify(inst *Instance, sol *Solution) error {
	if sol == nil {
		return errors.New(errors.ErrCodeInvalidSolution, "no solution")
	}
	if len(sol.Placements) != inst.N {
		return errors.New(errors.ErrCodeInvalidSolution, "expected %d placements, got %d", inst.N, len(sol.Placements))
	}

	seen := make([]bool, inst.N)
	top := 0
	for _, p := range sol.Placements {
		k := p.Circuit
		if k < 0 || k >= inst.N || seen[k] {
			return errors.New(errors.ErrCodeInvalidSolution, "circuit index %d missing, duplicated or out of range", k)
		}
		seen[k] = true
		if p.Rotated {
			return errors.New(errors.ErrCodeInvalidSolution, "circuit %d is rotated", k)
		}
		if p.X < 0 || p.Y < 0 || p.X+inst.X[k] > inst.Width || p.Y+inst.Y[k] > sol.Length {
			return errors.New(errors.ErrCodeInvalidSolution, "circuit %d at (%d,%d) leaves the %dx%d plate", k, p.X, p.Y, inst.Width, sol.Length)
		}
		if t := p.Y + inst.Y[k]; t > top {
			top = t
		}
	}
	if top != sol.Length {
		return errors.New(errors.ErrCodeInvalidSolution, "length %d does not match highest edge %d", sol.Length, top)
	}

	magW := inst.MaxLength + 1
	keys := make(map[int]int, inst.N)
	for i, a := range sol.Placements {
		key := magW*a.X + a.Y
		if j, dup := keys[key]; dup {
			return errors.New(errors.ErrCodeInvalidSolution, "circuits %d and %d share anchor (%d,%d)", sol.Placements[j].Circuit, a.Circuit, a.X, a.Y)
		}
		keys[key] = i
		for _, b := range sol.Placements[i+1:] {
			if Overlap(inst, a, b) {
				return errors.New(errors.ErrCodeInvalidSolution, "circuits %d and %d overlap", a.Circuit, b.Circuit)
			}
		}
	}
	return nil
}

// Overlap reports whether two placed circuits share an interior point.
func Overlap(inst *Instance, a, b Placement) bool {
	return a.X < b.X+inst.X[b.Circuit] &&
		b.X < a.X+inst.X[a.Circuit] &&
		a.Y < b.Y+inst.Y[b.Circuit] &&
		b.Y < a.Y+inst.Y[a.Circuit]
}

// Grid returns the plate as rows of circuit indices, -1 for free cells.
// Row 0 is the bottom of the plate. Overlapping cells keep the later circuit.
func Grid(inst *Instance, sol *Solution) [][]int {
	grid := make([][]int, sol.Length)
	for i := range grid {
		grid[i] = make([]int, inst.Width)
		for j := range grid[i] {
			grid[i][j] = -1
		}
	}
	for _, p := range sol.Placements {
		k := p.Circuit
		for i := p.Y; i < p.Y+inst.Y[k] && i < sol.Length; i++ {
			for j := p.X; j < p.X+inst.X[k] && j < inst.Width; j++ {
				if i >= 0 && j >= 0 {
					grid[i][j] = k
				}
			}
		}
	}
	return grid
}
