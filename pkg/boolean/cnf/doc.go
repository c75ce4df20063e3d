// Package cnf builds the propositional encoding of a strip packing
// instance as plain clause lists.
//
// Variables are addressed through a [Registry] by typed keys ([CellKey],
// [LengthKey], [AnchorKey], [AuxKey]); the textual names such as p_i_j_k are
// only produced for debug dumps. Every encoder is a pure function of the
// registry and the instance that returns a fresh [Formula], so the encoders
// can be tested without a solver and composed in any order.
//
// At-most-one constraints use the bimander encoding ([Bimander]) with
// groups of ⌈√N⌉ literals and ⌈log2 ⌈N/m⌉⌉ selector bits per instance.
package cnf
