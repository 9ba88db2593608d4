package milp

import (
	"strings"
	"testing"
)

func TestExprMergesCoefficients(t *testing.T) {
	m := New("t")
	x := m.AddBinary("x")
	y := m.AddBinary("y")

	e := NewExpr().Add(x, 1).Add(y, 2).Add(x, 0.5)
	if got := e.Coef(x); got != 1.5 {
		t.Errorf("Coef(x) = %v, want 1.5", got)
	}
	if got := e.Len(); got != 2 {
		t.Errorf("Len = %d, want 2", got)
	}

	e.AddExpr(Term(y, 3), 2)
	if got := e.Coef(y); got != 8 {
		t.Errorf("Coef(y) = %v, want 8", got)
	}
}

func TestConstraintFoldsConstantIntoRHS(t *testing.T) {
	m := New("t")
	x := m.AddBinary("x")

	e := Term(x, 1).AddConst(3)
	m.AddConstraint("c", e, LessEq, 5)

	cons := m.Constraints()
	if len(cons) != 1 {
		t.Fatalf("constraints = %d, want 1", len(cons))
	}
	if cons[0].RHS != 2 {
		t.Errorf("RHS = %v, want 2 (5 minus folded constant 3)", cons[0].RHS)
	}
}

func TestDuplicateVariableName(t *testing.T) {
	m := New("t")
	m.AddBinary("x")
	m.AddBinary("x")
	if m.Err() == nil {
		t.Fatal("expected duplicate variable error")
	}
}

func TestResetAndSetValues(t *testing.T) {
	m := New("t")
	x := m.AddBinary("x")
	y := m.AddBinary("y")

	x.Value = 1
	y.Value = 1
	m.ResetValues()
	if x.Value != 0 || y.Value != 0 {
		t.Errorf("values after reset = %v, %v, want 0, 0", x.Value, y.Value)
	}

	if err := m.SetValue("x", 1); err != nil {
		t.Fatalf("SetValue: %v", err)
	}
	if err := m.SetValue("ghost", 1); err == nil {
		t.Error("expected error for unknown variable")
	}
	if got := m.Value("x"); got != 1 {
		t.Errorf("Value(x) = %v, want 1", got)
	}
}

func TestObjectiveValue(t *testing.T) {
	m := New("t")
	x := m.AddBinary("x")
	y := m.AddBinary("y")
	m.Maximize(NewExpr().Add(x, 2).Add(y, 3))

	x.Value = 1
	y.Value = 0
	if got := m.ObjectiveValue(); got != 2 {
		t.Errorf("ObjectiveValue = %v, want 2", got)
	}
}

func TestCheckSolution(t *testing.T) {
	m := New("t")
	x := m.AddBinary("x")
	y := m.AddBinary("y")
	m.AddConstraint("sum", Sum(x, y), LessEq, 1)

	x.Value = 1
	y.Value = 0
	if err := m.CheckSolution(1e-6); err != nil {
		t.Errorf("feasible assignment rejected: %v", err)
	}

	y.Value = 1
	if err := m.CheckSolution(1e-6); err == nil {
		t.Error("infeasible assignment accepted")
	}
}

func TestWriteMPS(t *testing.T) {
	m := New("small")
	x := m.AddBinary("x")
	n := m.AddInteger("n", 1, 2)
	m.AddConstraint("cap", NewExpr().Add(x, 1).Add(n, 1), LessEq, 2)
	m.Maximize(NewExpr().Add(x, 3).Add(n, 1))

	var sb strings.Builder
	if err := m.WriteMPS(&sb); err != nil {
		t.Fatalf("WriteMPS: %v", err)
	}
	out := sb.String()

	for _, want := range []string{
		"NAME small",
		"ROWS",
		" N OBJ",
		" L cap",
		// Maximization exports as minimization of the negation.
		"x OBJ -3",
		"n OBJ -1",
		"x cap 1",
		"RHS cap 2",
		" BV BND x",
		" LI BND n 1",
		" UI BND n 2",
		"ENDATA",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("MPS output missing %q:\n%s", want, out)
		}
	}
	if !strings.Contains(out, "'INTORG'") || !strings.Contains(out, "'INTEND'") {
		t.Errorf("MPS output missing integer markers:\n%s", out)
	}
}

func TestWriteMPSDeterministic(t *testing.T) {
	build := func() string {
		m := New("same")
		vars := make([]*Var, 0, 10)
		for i := 0; i < 10; i++ {
			vars = append(vars, m.AddBinary("x"+string(rune('a'+i))))
		}
		e := NewExpr()
		for _, v := range vars {
			e.Add(v, 1)
		}
		m.AddConstraint("all", e, LessEq, 5)
		m.Maximize(e)
		var sb strings.Builder
		if err := m.WriteMPS(&sb); err != nil {
			t.Fatalf("WriteMPS: %v", err)
		}
		return sb.String()
	}

	if a, b := build(), build(); a != b {
		t.Error("identical models serialized differently")
	}
}

func TestWriteMPSRequiresObjective(t *testing.T) {
	m := New("empty")
	m.AddBinary("x")
	var sb strings.Builder
	if err := m.WriteMPS(&sb); err == nil {
		t.Error("expected error for model without objective")
	}
}
