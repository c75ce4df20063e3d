package cnf

import (
	"fmt"
	"io"
	"sort"

	"github.com/go-air/gini/logic"
	"github.com/go-air/gini/z"
)

// Key identifies a propositional variable by what it means rather than by
// a formatted name. Implementations are small comparable structs.
type Key interface {
	fmt.Stringer
	isKey()
}

// CellKey is p[i][j][k]: circuit k covers the cell at (Row, Col).
type CellKey struct{ Row, Col, Circuit int }

// LengthKey is l[i]: the packing ends at Row (length Row+1).
type LengthKey struct{ Row int }

// AnchorKey selects the placement of Circuit with its lower-left cell at
// (Row, Col).
type AnchorKey struct{ Circuit, Row, Col int }

// Scope says which family of at-most-one constraints an auxiliary
// variable belongs to.
type Scope uint8

const (
	// ScopeCell covers the per-cell circuit exclusion (b1).
	ScopeCell Scope = iota + 1
	// ScopeAnchor covers the per-circuit anchor choice (b2).
	ScopeAnchor
	// ScopeLength covers the one-hot length vector (b3).
	ScopeLength
)

// AuxKey is bit Bit of the binary group selector of one bimander
// instance. Group and Index locate the instance within its Scope.
type AuxKey struct {
	Scope        Scope
	Group, Index int
	Bit          int
}

func (CellKey) isKey()   {}
func (LengthKey) isKey() {}
func (AnchorKey) isKey() {}
func (AuxKey) isKey()    {}

func (k CellKey) String() string   { return fmt.Sprintf("p_%d_%d_%d", k.Row, k.Col, k.Circuit) }
func (k LengthKey) String() string { return fmt.Sprintf("l_%d", k.Row) }
func (k AnchorKey) String() string { return fmt.Sprintf("a_%d_%d_%d", k.Circuit, k.Row, k.Col) }

func (k AuxKey) String() string {
	switch k.Scope {
	case ScopeCell:
		return fmt.Sprintf("b1_%d_%d_%d", k.Group, k.Index, k.Bit)
	case ScopeAnchor:
		return fmt.Sprintf("b2_%d_%d", k.Group, k.Bit)
	case ScopeLength:
		return fmt.Sprintf("b3_%d", k.Bit)
	}
	return fmt.Sprintf("b?_%d_%d_%d", k.Group, k.Index, k.Bit)
}

// Registry binds keys to solver variables. Variables are allocated as
// inputs of a logic.C so that gates built later on the same circuit share
// one variable space with them.
type Registry struct {
	c    *logic.C
	lits map[Key]z.Lit
	keys map[z.Var]Key
}

// NewRegistry creates an empty registry. capHint sizes the circuit.
func NewRegistry(capHint int) *Registry {
	if capHint < 128 {
		capHint = 128
	}
	return &Registry{
		c:    logic.NewCCap(capHint),
		lits: make(map[Key]z.Lit, capHint),
		keys: make(map[z.Var]Key, capHint),
	}
}

// Circuit returns the logic.C backing the registry.
func (r *Registry) Circuit() *logic.C { return r.c }

// Lit returns the positive literal for k, allocating it on first use.
func (r *Registry) Lit(k Key) z.Lit {
	if m, ok := r.lits[k]; ok {
		return m
	}
	m := r.c.Lit()
	r.lits[k] = m
	r.keys[m.Var()] = k
	return m
}

// Lookup returns the literal for k without allocating.
func (r *Registry) Lookup(k Key) (z.Lit, bool) {
	m, ok := r.lits[k]
	return m, ok
}

// Key returns the key bound to the variable of m.
func (r *Registry) Key(m z.Lit) (Key, bool) {
	k, ok := r.keys[m.Var()]
	return k, ok
}

// Aux returns an allocator for the bits of one bimander instance.
func (r *Registry) Aux(scope Scope, group, index int) func(bit int) z.Lit {
	return func(bit int) z.Lit {
		return r.Lit(AuxKey{Scope: scope, Group: group, Index: index, Bit: bit})
	}
}

// Len returns the number of registered variables.
func (r *Registry) Len() int { return len(r.lits) }

// Name renders m for debugging: the key name, negated with '-', or
// g<var> for gate variables the registry did not allocate.
func (r *Registry) Name(m z.Lit) string {
	name := fmt.Sprintf("g%d", m.Var())
	if k, ok := r.keys[m.Var()]; ok {
		name = k.String()
	}
	if !m.IsPos() {
		return "-" + name
	}
	return name
}

// Dump writes "var name" lines ordered by variable.
func (r *Registry) Dump(w io.Writer) error {
	vars := make([]z.Var, 0, len(r.keys))
	for v := range r.keys {
		vars = append(vars, v)
	}
	sort.Slice(vars, func(i, j int) bool { return vars[i] < vars[j] })
	for _, v := range vars {
		if _, err := fmt.Fprintf(w, "%d %s\n", v, r.keys[v]); err != nil {
			return err
		}
	}
	return nil
}
