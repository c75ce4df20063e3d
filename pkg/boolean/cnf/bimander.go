package cnf

import (
	"math"
	"math/bits"

	"github.com/go-air/gini/z"
)

// GroupSize returns ⌈√n⌉, the bimander group size used for n literals.
func GroupSize(n int) int {
	if n <= 1 {
		return 1
	}
	m := int(math.Sqrt(float64(n)))
	for m*m < n {
		m++
	}
	return m
}

// SelectorBits returns ⌈log2 groups⌉.
func SelectorBits(groups int) int {
	if groups <= 1 {
		return 0
	}
	return bits.Len(uint(groups - 1))
}

// Bimander encodes "at most one of lits" with groups of m literals.
// Literals within a group are pairwise exclusive; every literal of group g
// implies the binary code of g on ⌈log2(⌈N/m⌉)⌉ selector bits drawn from
// aux, so two literals of different groups cannot both hold. N ≤ 1 yields
// no clauses and aux is only called when more than one group exists.
func Bimander(lits []z.Lit, m int, aux func(bit int) z.Lit) Formula {
	n := len(lits)
	if n <= 1 {
		return nil
	}
	if m < 1 {
		m = 1
	}
	groups := (n + m - 1) / m
	nbits := SelectorBits(groups)

	var f Formula
	for g := 0; g < groups; g++ {
		lo, hi := g*m, min((g+1)*m, n)
		for i := lo; i < hi; i++ {
			for j := i + 1; j < hi; j++ {
				f = append(f, Clause{lits[i].Not(), lits[j].Not()})
			}
		}
	}
	if nbits == 0 {
		return f
	}

	sel := make([]z.Lit, nbits)
	for h := range sel {
		sel[h] = aux(h)
	}
	for g := 0; g < groups; g++ {
		lo, hi := g*m, min((g+1)*m, n)
		for i := lo; i < hi; i++ {
			for h, b := range sel {
				if g>>h&1 == 0 {
					b = b.Not()
				}
				f = append(f, Clause{lits[i].Not(), b})
			}
		}
	}
	return f
}

// AtLeastOne is the single clause ⋁ lits. An empty lits yields the empty
// clause.
func AtLeastOne(lits []z.Lit) Formula {
	return Formula{append(Clause(nil), lits...)}
}

// ExactlyOne is AtLeastOne plus Bimander.
func ExactlyOne(lits []z.Lit, m int, aux func(bit int) z.Lit) Formula {
	return Concat(AtLeastOne(lits), Bimander(lits, m, aux))
}
