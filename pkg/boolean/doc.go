// Package boolean solves strip packing instances with a pure SAT encoding
// on the gini engine.
//
// The plate is a grid of w columns by l_max rows. Cell variables
// p_i_j_k say that circuit k covers cell (i, j); the one-hot vector l says
// which row is the topmost occupied one. The formula is built once by the
// encoders of package cnf and handed to a [Session]; [Search] then
// tightens the length bound clause by clause until the engine proves no
// shorter packing exists or the time budget runs out.
//
// Rows are counted from the bottom of the plate, so a placement's Y is
// the row of its lower-left cell.
package boolean
