package arith

import (
	"fmt"
	"io"

	"github.com/crillab/gophersat/solver"
)

// Vars allocates pseudo-boolean variables. Variables are the positive
// integers used by solver.PBConstr; variable 1 is constantly true. Names
// exist only for debug dumps.
type Vars struct {
	names []string
}

// True is the constant-true variable every Vars starts with.
const True = 1

// NewVars returns an allocator holding only the constant-true variable.
func NewVars() *Vars {
	return &Vars{names: []string{"true"}}
}

// New allocates a fresh variable.
func (vs *Vars) New(name string) int {
	vs.names = append(vs.names, name)
	return len(vs.names)
}

// Len returns the highest allocated variable.
func (vs *Vars) Len() int { return len(vs.names) }

// Name renders a literal, with '~' marking negation as in OPB files.
func (vs *Vars) Name(lit int) string {
	v, sign := lit, ""
	if v < 0 {
		v, sign = -v, "~"
	}
	if v < 1 || v > len(vs.names) {
		return fmt.Sprintf("%sx%d", sign, v)
	}
	return sign + vs.names[v-1]
}

// Dump writes "x<var> name" lines in allocation order.
func (vs *Vars) Dump(w io.Writer) error {
	for i, name := range vs.names {
		if _, err := fmt.Fprintf(w, "x%d %s\n", i+1, name); err != nil {
			return err
		}
	}
	return nil
}

// Int allocates an order-encoded integer over [lo, hi] and returns it with
// the chain constraints x≥v+1 ⇒ x≥v. An empty domain yields the false
// constraint.
func (vs *Vars) Int(name string, lo, hi int) (*IntVar, []solver.PBConstr) {
	if hi < lo {
		return &IntVar{Name: name, Lo: lo, Hi: lo}, []solver.PBConstr{solver.PropClause()}
	}
	x := &IntVar{Name: name, Lo: lo, Hi: hi, ge: make([]int, hi-lo)}
	for i := range x.ge {
		x.ge[i] = vs.New(fmt.Sprintf("%s>=%d", name, lo+i+1))
	}
	var cs []solver.PBConstr
	for i := 1; i < len(x.ge); i++ {
		cs = append(cs, solver.PropClause(-x.ge[i], x.ge[i-1]))
	}
	return x, cs
}

// IntVar is an integer in [Lo, Hi] represented by the literals x≥v for
// v in (Lo, Hi].
type IntVar struct {
	Name   string
	Lo, Hi int
	ge     []int
}

// Ge returns the literal for x ≥ v. Bounds outside the domain fold to the
// constant-true variable or its negation.
func (x *IntVar) Ge(v int) int {
	switch {
	case v <= x.Lo:
		return True
	case v > x.Hi:
		return -True
	}
	return x.ge[v-x.Lo-1]
}

// Le returns the literal for x ≤ v.
func (x *IntVar) Le(v int) int { return -x.Ge(v + 1) }

// Value decodes x from a model indexed by variable−1.
func (x *IntVar) Value(model []bool) int {
	val := x.Lo
	for i, g := range x.ge {
		if g-1 >= len(model) || !model[g-1] {
			break
		}
		val = x.Lo + i + 1
	}
	return val
}

// clause builds the disjunction of lits with constant literals folded.
// ok is false when the clause is trivially satisfied.
func clause(lits ...int) (c solver.PBConstr, ok bool) {
	out := make([]int, 0, len(lits))
	for _, l := range lits {
		switch l {
		case True:
			return solver.PBConstr{}, false
		case -True:
			continue
		}
		out = append(out, l)
	}
	return solver.PropClause(out...), true
}

// appendClause adds the folded clause to cs unless it is trivially true.
func appendClause(cs []solver.PBConstr, lits ...int) []solver.PBConstr {
	if c, ok := clause(lits...); ok {
		return append(cs, c)
	}
	return cs
}

// Precede returns the constraints of s ⇒ a + c ≤ b.
func Precede(s int, a *IntVar, c int, b *IntVar) []solver.PBConstr {
	var cs []solver.PBConstr
	for v := a.Lo; v <= a.Hi; v++ {
		cs = appendClause(cs, -s, -a.Ge(v), b.Ge(v+c))
	}
	return cs
}
