// Package pkg provides the core libraries for platepack, an exact solver
// for placing rectangular circuits on a plate of fixed width while
// minimizing the plate length.
//
// # Overview
//
// A circuit is an axis-aligned block of x by y cells. Circuits are never
// rotated and never overlap. The plate length is the topmost occupied row
// plus one. Two independent pipelines prove a packing optimal:
//
//  1. [boolean] - bimander CNF encoding solved incrementally with gini,
//     assuming one-hot length literals from the lower bound upward
//  2. [arith] - pseudo-boolean encoding solved with gophersat, tightening
//     an integer length variable after every model
//
// Both return a [packing.Outcome]: optimal, timeout with a partial packing,
// timeout with nothing found, or infeasible.
//
// # Architecture
//
//	instance file (txt or json)
//	         ↓
//	    [io] package (parse, validate)
//	         ↓
//	    [pipeline] package (strategy, budget, cache)
//	         ↓
//	    [packing] package (verify)
//	         ↓
//	    [render] package (txt, json, svg, ascii, blocks, dot, neato)
//
// # Quick Start
//
//	inst, _ := io.ImportInstance("ins-1.txt")
//	runner := pipeline.NewRunner(cache.NewNullCache(), nil, logger)
//	res, err := runner.Execute(ctx, inst, pipeline.Options{
//	    Strategy:  "boolean",
//	    TimeoutMS: 300000,
//	    Formats:   []string{"txt", "svg"},
//	})
//
// # Packages
//
// [packing] - Instance, Solution, Status and the Verify oracle.
//
// [boolean] - Incremental SAT pipeline. The clause builders live in
// [boolean/cnf] and are independent of the solver.
//
// [arith] - Pseudo-boolean pipeline with domain reduction and optional
// symmetry breaking.
//
// [pipeline] - Orchestration shared by the CLI, the batch command and the
// HTTP API.
//
// [render] - Output sinks: result text, JSON, SVG, ASCII, blocks and Graphviz.
//
// [io] - Instance and result readers and writers.
//
// [cache] - Outcome cache with file, Redis and null backends.
//
// [store] - Run archive with file and MongoDB backends.
//
// [errors] - Coded errors shared by every layer.
//
// [observability] - Hooks for solver and HTTP events.
//
// [packing]: https://pkg.go.dev/github.com/matzehuels/platepack/pkg/packing
// [packing.Outcome]: https://pkg.go.dev/github.com/matzehuels/platepack/pkg/packing#Outcome
// [boolean]: https://pkg.go.dev/github.com/matzehuels/platepack/pkg/boolean
// [boolean/cnf]: https://pkg.go.dev/github.com/matzehuels/platepack/pkg/boolean/cnf
// [arith]: https://pkg.go.dev/github.com/matzehuels/platepack/pkg/arith
// [pipeline]: https://pkg.go.dev/github.com/matzehuels/platepack/pkg/pipeline
// [render]: https://pkg.go.dev/github.com/matzehuels/platepack/pkg/render
// [io]: https://pkg.go.dev/github.com/matzehuels/platepack/pkg/io
// [cache]: https://pkg.go.dev/github.com/matzehuels/platepack/pkg/cache
// [store]: https://pkg.go.dev/github.com/matzehuels/platepack/pkg/store
// [errors]: https://pkg.go.dev/github.com/matzehuels/platepack/pkg/errors
// [observability]: https://pkg.go.dev/github.com/matzehuels/platepack/pkg/observability
package pkg
