// Package arith solves strip packing instances with an arithmetic
// formulation: integer corner coordinates, pairwise non-overlap
// disjunctions, a cumulative resource view of both axes, and the length
// L = max_k(p_y[k] + y_k) as the objective.
//
// Integers are order encoded over pseudo-boolean variables and the
// problem is handed to the gophersat engine, which supports cardinality
// and weighted constraints natively. [Optimizer] keeps a single
// incremental solver and tightens L after every model.
//
// Each builder ([Coordinates], [AllDifferent], [NoOverlap], [Cumulative],
// [Symmetry], [Objective]) returns its own constraint list; [Build]
// composes them.
package arith
