package cnf

import (
	"strings"

	"github.com/go-air/gini/inter"
	"github.com/go-air/gini/z"
)

// Clause is a disjunction of literals.
type Clause []z.Lit

// Formula is a conjunction of clauses. Encoders return fresh formulas and
// never mutate their inputs.
type Formula []Clause

// Concat joins formulas into one.
func Concat(fs ...Formula) Formula {
	n := 0
	for _, f := range fs {
		n += len(f)
	}
	out := make(Formula, 0, n)
	for _, f := range fs {
		out = append(out, f...)
	}
	return out
}

// AddTo sends every clause to dst, each terminated by z.LitNull.
func (f Formula) AddTo(dst inter.Adder) {
	for _, c := range f {
		for _, m := range c {
			dst.Add(m)
		}
		dst.Add(z.LitNull)
	}
}

// Eval reports whether f holds under the assignment value.
func (f Formula) Eval(value func(z.Lit) bool) bool {
	for _, c := range f {
		sat := false
		for _, m := range c {
			if value(m) {
				sat = true
				break
			}
		}
		if !sat {
			return false
		}
	}
	return true
}

// Format renders f in a DIMACS-like form using name for literals.
func (f Formula) Format(name func(z.Lit) string) string {
	var b strings.Builder
	for _, c := range f {
		for i, m := range c {
			if i > 0 {
				b.WriteByte(' ')
			}
			b.WriteString(name(m))
		}
		b.WriteString(" 0\n")
	}
	return b.String()
}
