// Package io reads instances and reads and writes results.
//
// # Instance files
//
// The text format is line oriented; blank lines and '#' comments are
// ignored:
//
//	8        plate width w
//	4        number of circuits n
//	3 3      x_k y_k, one line per circuit
//	3 5
//	5 3
//	5 5
//	16       optional maximum length l_max (default Σ y_k)
//
// JSON and TOML documents carry the same data:
//
//	{"width": 8, "max_length": 16, "circuits": [{"x": 3, "y": 3}, ...]}
//
// [ImportInstance] picks the format from the file extension.
//
// # Result files
//
// [WriteResult] echoes the instance and the placement:
//
//	8 8          w length
//	4            n
//	3 3 0 5 false    x_k y_k p_x p_y rotated
//	...
//	# status optimal
//	# strategy boolean
//	# elapsed_ms 41.7
//
// Outcomes without a packing write length 0 and omit the coordinates.
// [ReadResult] parses the same layout back. [WriteOutcomeJSON] and
// [ReadOutcomeJSON] handle the JSON form used by the cache and the API.
package io
