package arith

import (
	"bytes"
	"context"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/crillab/gophersat/solver"

	"github.com/matzehuels/platepack/pkg/errors"
	"github.com/matzehuels/platepack/pkg/packing"
)

func TestIntVarGe(t *testing.T) {
	vs := NewVars()
	x, chain := vs.Int("x", 2, 5)
	if len(chain) != 2 {
		t.Errorf("chain = %d constraints, want 2", len(chain))
	}
	tests := []struct {
		v    int
		want int
	}{
		{1, True},
		{2, True},
		{3, 2},
		{5, 4},
		{6, -True},
	}
	for _, tt := range tests {
		if got := x.Ge(tt.v); got != tt.want {
			t.Errorf("Ge(%d) = %d, want %d", tt.v, got, tt.want)
		}
	}
	if got := x.Le(5); got != True {
		t.Errorf("Le(hi) = %d, want true", got)
	}
}

func TestIntVarValue(t *testing.T) {
	vs := NewVars()
	x, _ := vs.Int("x", 2, 5) // vars 2,3,4 are x>=3, x>=4, x>=5
	tests := []struct {
		model []bool
		want  int
	}{
		{[]bool{true, false, false, false}, 2},
		{[]bool{true, true, false, false}, 3},
		{[]bool{true, true, true, true}, 5},
		{[]bool{true, true}, 3},
	}
	for _, tt := range tests {
		if got := x.Value(tt.model); got != tt.want {
			t.Errorf("Value(%v) = %d, want %d", tt.model, got, tt.want)
		}
	}
}

func TestIntEmptyDomain(t *testing.T) {
	_, cs := NewVars().Int("x", 3, 2)
	pb := solver.ParsePBConstrs(append(cs, solver.PropClause(True)))
	if pb.Status != solver.Unsat {
		t.Errorf("empty domain problem status = %v, want unsat", pb.Status)
	}
}

func TestClauseFolding(t *testing.T) {
	if _, ok := clause(5, True); ok {
		t.Error("clause with true literal should be dropped")
	}
	c, ok := clause(-True, 4, -True)
	if !ok || len(c.Lits) != 1 || c.Lits[0] != 4 {
		t.Errorf("clause(-true, 4, -true) = %+v, %v", c, ok)
	}
	c, ok = clause(-True)
	if !ok || len(c.Lits) != 0 {
		t.Errorf("clause(-true) = %+v, %v; want the empty clause", c, ok)
	}
}

// values enumerates the solutions of cs projected onto vars.
func values(t *testing.T, cs []solver.PBConstr, vars ...*IntVar) [][]int {
	t.Helper()
	s := solver.New(solver.ParsePBConstrs(cs))
	var out [][]int
	for s.Solve() == solver.Sat {
		model := s.Model()
		row := make([]int, len(vars))
		var block []int
		for i, x := range vars {
			row[i] = x.Value(model)
			for v := x.Lo + 1; v <= x.Hi; v++ {
				if x.Value(model) >= v {
					block = append(block, -x.Ge(v))
				} else {
					block = append(block, x.Ge(v))
				}
			}
		}
		out = append(out, row)
		if len(block) == 0 {
			break
		}
		s.AppendClause(solver.PropClause(block...).Clause())
	}
	return out
}

func TestPrecede(t *testing.T) {
	vs := NewVars()
	a, ca := vs.Int("a", 0, 3)
	b, cb := vs.Int("b", 0, 3)
	cs := []solver.PBConstr{solver.PropClause(True)}
	cs = append(cs, ca...)
	cs = append(cs, cb...)
	cs = append(cs, Precede(True, a, 2, b)...)
	cs = append(cs, solver.PBConstr{Lits: []int{vs.Len()}, Weights: []int{1}})

	got := values(t, cs, a, b)
	// a+2 ≤ b over [0,3]²: (0,2) (0,3) (1,3)
	if len(got) != 3 {
		t.Fatalf("got %d solutions %v, want 3", len(got), got)
	}
	for _, ab := range got {
		if ab[0]+2 > ab[1] {
			t.Errorf("solution %v violates a+2 <= b", ab)
		}
	}
}

func TestKeyBelow(t *testing.T) {
	vs := NewVars()
	ax, cax := vs.Int("ax", 0, 2)
	ay, cay := vs.Int("ay", 0, 2)
	bx, cbx := vs.Int("bx", 0, 2)
	by, cby := vs.Int("by", 0, 2)
	s := vs.New("s")
	cs := []solver.PBConstr{solver.PropClause(True), solver.PropClause(s)}
	for _, c := range [][]solver.PBConstr{cax, cay, cbx, cby} {
		cs = append(cs, c...)
	}
	cs = append(cs, KeyBelow(s, ax, ay, bx, by, 3)...)

	got := values(t, cs, ax, ay, bx, by)
	// keys 3x+y cover 0..8 once each, so 36 ordered pairs are increasing
	if len(got) != 36 {
		t.Fatalf("got %d solutions, want 36", len(got))
	}
	for _, v := range got {
		if 3*v[0]+v[1] >= 3*v[2]+v[3] {
			t.Errorf("solution %v violates key(a) < key(b)", v)
		}
	}
}

func TestAllDifferent(t *testing.T) {
	vs := NewVars()
	m := &Model{Vars: vs}
	cs := []solver.PBConstr{solver.PropClause(True)}
	for k := 0; k < 2; k++ {
		x, cx := vs.Int(fmt.Sprintf("x%d", k), 0, 1)
		y, cy := vs.Int(fmt.Sprintf("y%d", k), 0, 1)
		m.PX = append(m.PX, x)
		m.PY = append(m.PY, y)
		cs = append(cs, cx...)
		cs = append(cs, cy...)
	}
	cs = append(cs, AllDifferent(vs, m, 2)...)

	got := values(t, cs, m.PX[0], m.PY[0], m.PX[1], m.PY[1])
	seen := map[[4]int]bool{}
	for _, v := range got {
		seen[[4]int{v[0], v[1], v[2], v[3]}] = true
		if v[0] == v[2] && v[1] == v[3] {
			t.Errorf("solution %v shares an anchor", v)
		}
	}
	// 4 anchors, 4·3 ordered distinct pairs
	if len(seen) != 12 {
		t.Errorf("got %d distinct placements, want 12", len(seen))
	}
}

func TestBuildRejectsSmallMagW(t *testing.T) {
	inst := packing.NewInstance(4, []int{1, 1}, []int{1, 1}, 5)
	_, err := Build(inst, Config{MagW: 5})
	if !errors.Is(err, errors.ErrCodeInvalidInput) {
		t.Errorf("Build(mag_w = l_max) error = %v, want INVALID_INPUT", err)
	}
	if _, err := Build(inst, Config{Domain: "diagonal"}); err == nil {
		t.Error("Build(unknown domain) succeeded")
	}
}

func TestOptimizerSolve(t *testing.T) {
	scenarioA := packing.NewInstance(8, []int{3, 3, 5, 5}, []int{3, 5, 3, 5}, 16)
	tests := []struct {
		name       string
		inst       *packing.Instance
		opt        Optimizer
		wantStatus packing.Status
		wantLength int
	}{
		{"two columns", scenarioA, Optimizer{}, packing.Optimal, 8},
		{"two columns min domain", scenarioA, Optimizer{Domain: DomainMinDimension}, packing.Optimal, 8},
		{"two columns without symmetry", scenarioA, Optimizer{NoSymmetry: true}, packing.Optimal, 8},
		{"single full-width circuit", packing.NewInstance(4, []int{4}, []int{1}, 1), Optimizer{}, packing.Optimal, 1},
		{"squares stack", packing.NewInstance(3, []int{2, 2}, []int{2, 2}, 0), Optimizer{}, packing.Optimal, 4},
		{"area exceeds plate", packing.NewInstance(2, []int{2, 2}, []int{2, 2}, 3), Optimizer{}, packing.Infeasible, 0},
		{"fits by area but not by shape", packing.NewInstance(3, []int{2, 2}, []int{2, 2}, 3), Optimizer{}, packing.Infeasible, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.opt.Timeout = 30 * time.Second
			out, err := tt.opt.Solve(context.Background(), tt.inst)
			if err != nil {
				t.Fatalf("Solve: %v", err)
			}
			if out.Status != tt.wantStatus {
				t.Fatalf("status = %v, want %v", out.Status, tt.wantStatus)
			}
			if out.Strategy != Name {
				t.Errorf("strategy = %q, want %q", out.Strategy, Name)
			}
			if !tt.wantStatus.HasSolution() {
				return
			}
			if got := out.Length(); got != tt.wantLength {
				t.Errorf("length = %d, want %d", got, tt.wantLength)
			}
			if err := packing.Verify(tt.inst, out.Solution); err != nil {
				t.Errorf("Verify: %v", err)
			}
		})
	}
}

func TestOptimizerImprovementsDecrease(t *testing.T) {
	inst := packing.NewInstance(8, []int{3, 3, 5, 5}, []int{3, 5, 3, 5}, 16)
	var lengths []int
	o := Optimizer{Progress: func(imp packing.Improvement) { lengths = append(lengths, imp.Length) }}
	out, err := o.Solve(context.Background(), inst)
	if err != nil {
		t.Fatalf("Solve: %v", err)
	}
	for i := 1; i < len(lengths); i++ {
		if lengths[i] >= lengths[i-1] {
			t.Errorf("improvement %d: length %d does not beat %d", i, lengths[i], lengths[i-1])
		}
	}
	if len(lengths) == 0 || lengths[len(lengths)-1] != out.Length() {
		t.Errorf("improvements %v do not end at %d", lengths, out.Length())
	}
}

func TestOptimizerTimeout(t *testing.T) {
	inst := packing.NewInstance(3, []int{2, 2}, []int{2, 2}, 8)

	t.Run("partial", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()
		o := Optimizer{NoSymmetry: true, Progress: func(packing.Improvement) { cancel() }}
		out, err := o.Solve(ctx, inst)
		if err != nil {
			t.Fatalf("Solve: %v", err)
		}
		if out.Status != packing.TimeoutPartial {
			t.Fatalf("status = %v, want %v", out.Status, packing.TimeoutPartial)
		}
		if err := packing.Verify(inst, out.Solution); err != nil {
			t.Errorf("Verify: %v", err)
		}
	})

	t.Run("no solution", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		out, err := Optimizer{}.Solve(ctx, inst)
		if err != nil {
			t.Fatalf("Solve: %v", err)
		}
		if out.Status != packing.TimeoutNoSolution {
			t.Errorf("status = %v, want %v", out.Status, packing.TimeoutNoSolution)
		}
	})
}

func TestOptimizerDebugAndDump(t *testing.T) {
	inst := packing.NewInstance(2, []int{1, 1}, []int{1, 1}, 0)
	var info DebugInfo
	var dump bytes.Buffer
	o := Optimizer{Debug: func(d DebugInfo) { info = d }, DumpPB: &dump}
	if _, err := o.Solve(context.Background(), inst); err != nil {
		t.Fatalf("Solve: %v", err)
	}
	if info.Variables == 0 || info.Constraints == 0 || info.Domain != DomainPerCircuit {
		t.Errorf("DebugInfo = %+v", info)
	}
	if !strings.Contains(dump.String(), "#variable=") {
		t.Errorf("dump is not OPB: %q", dump.String())
	}
}

func TestVarsName(t *testing.T) {
	vs := NewVars()
	v := vs.New("sep_0_1_2")
	if got := vs.Name(-v); got != "~sep_0_1_2" {
		t.Errorf("Name(-v) = %q", got)
	}
	if got := vs.Name(99); got != "x99" {
		t.Errorf("Name(unknown) = %q", got)
	}
	var buf bytes.Buffer
	if err := vs.Dump(&buf); err != nil {
		t.Fatal(err)
	}
	if want := "x1 true\nx2 sep_0_1_2\n"; buf.String() != want {
		t.Errorf("Dump() = %q, want %q", buf.String(), want)
	}
}

func TestCheckDetachesOnTimeout(t *testing.T) {
	release := make(chan struct{})
	solve := func() solver.Status {
		<-release
		return solver.Sat
	}
	var exited <-chan struct{}
	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	st, ok := check(ctx, solve, func(ch <-chan struct{}) { exited = ch })
	if ok || st != solver.Indet {
		t.Fatalf("check = %v, %v; want Indet, false", st, ok)
	}
	if exited == nil {
		t.Fatal("detached was not called")
	}
	select {
	case <-exited:
		t.Fatal("exited closed while the search is still running")
	default:
	}
	close(release)
	select {
	case <-exited:
	case <-time.After(time.Second):
		t.Fatal("exited not closed after the search returned")
	}
}

func TestCheckCompletesWithoutDetach(t *testing.T) {
	called := false
	st, ok := check(context.Background(), func() solver.Status { return solver.Unsat }, func(<-chan struct{}) { called = true })
	if !ok || st != solver.Unsat {
		t.Errorf("check = %v, %v; want Unsat, true", st, ok)
	}
	if called {
		t.Error("detached called for a completed search")
	}
}
