// Package packing defines the strip packing problem shared by every solver:
// the [Instance], the [Solution] a solver produces, the terminal [Status]
// of a solve call and the [Strategy] interface both pipelines implement.
//
// # Coordinates
//
// The plate is Width cells wide and grows upward. A [Placement] names the
// lower-left cell of a circuit: circuit k covers columns [X, X+x_k) and
// rows [Y, Y+y_k). Row 0 is the bottom of the plate.
//
// # Outcomes
//
// Every solve call ends in exactly one of four statuses:
//
//   - [Optimal]: the length is proven minimal
//   - [TimeoutPartial]: a packing was found but the budget ran out before
//     optimality was proven; the best packing is attached
//   - [TimeoutNoSolution]: the budget ran out before any packing was found
//   - [Infeasible]: no packing fits within MaxLength
//
// [Verify] checks the geometric invariants of a packing (no overlap,
// containment, exact length) independently of the solver that produced it.
package packing
