// Package milp builds mixed-integer linear models and exports them in
// MPS form for an external solver.
package milp

import (
	"fmt"
	"math"
)

type VarKind int

const (
	Binary VarKind = iota
	Integer
	Continuous
)

// Var is a single decision variable. Value is populated after a solve.
type Var struct {
	Name  string
	Kind  VarKind
	Lb    float64
	Ub    float64
	Value float64

	col int
}

type Sense int

const (
	LessEq Sense = iota
	Equal
	GreaterEq
)

func (s Sense) String() string {
	switch s {
	case LessEq:
		return "<="
	case Equal:
		return "=="
	case GreaterEq:
		return ">="
	}
	return "?"
}

type Constraint struct {
	Name  string
	Expr  *Expr
	Sense Sense
	RHS   float64
}

// Model accumulates variables, constraints and one linear objective.
// A Model belongs to a single planning run and is not safe for
// concurrent use.
type Model struct {
	Name string

	vars   []*Var
	byName map[string]*Var
	cons   []*Constraint

	objective *Expr
	maximize  bool

	err error
}

func New(name string) *Model {
	return &Model{
		Name:   name,
		byName: make(map[string]*Var),
	}
}

// Err reports the first variable or constraint registration problem.
// Checked once after the build instead of threading an error through
// every add call.
func (m *Model) Err() error {
	return m.err
}

func (m *Model) addVar(v *Var) *Var {
	if _, ok := m.byName[v.Name]; ok {
		if m.err == nil {
			m.err = fmt.Errorf("duplicate variable %q", v.Name)
		}
		return m.byName[v.Name]
	}
	v.col = len(m.vars)
	m.vars = append(m.vars, v)
	m.byName[v.Name] = v
	return v
}

func (m *Model) AddBinary(name string) *Var {
	return m.addVar(&Var{Name: name, Kind: Binary, Lb: 0, Ub: 1})
}

func (m *Model) AddInteger(name string, lb, ub float64) *Var {
	return m.addVar(&Var{Name: name, Kind: Integer, Lb: lb, Ub: ub})
}

func (m *Model) AddContinuous(name string, lb, ub float64) *Var {
	return m.addVar(&Var{Name: name, Kind: Continuous, Lb: lb, Ub: ub})
}

func (m *Model) AddConstraint(name string, expr *Expr, sense Sense, rhs float64) {
	if expr == nil {
		if m.err == nil {
			m.err = fmt.Errorf("constraint %q has nil expression", name)
		}
		return
	}
	// Fold the expression constant into the right-hand side.
	c := &Constraint{Name: name, Expr: expr, Sense: sense, RHS: rhs - expr.constant}
	m.cons = append(m.cons, c)
}

// Maximize installs expr as the objective. The model is exported as a
// minimization of the negated expression, which is what MPS solvers
// expect by default.
func (m *Model) Maximize(expr *Expr) {
	m.objective = expr
	m.maximize = true
}

func (m *Model) Vars() []*Var            { return m.vars }
func (m *Model) Constraints() []*Constraint { return m.cons }

func (m *Model) Var(name string) (*Var, bool) {
	v, ok := m.byName[name]
	return v, ok
}

// ResetValues zeroes every variable so that solver output omitting
// zero-valued variables still leaves them explicitly resolved.
func (m *Model) ResetValues() {
	for _, v := range m.vars {
		v.Value = 0
	}
}

// SetValue binds a solved value to a named variable. An unknown name is
// a parse failure upstream, never silently dropped.
func (m *Model) SetValue(name string, value float64) error {
	v, ok := m.byName[name]
	if !ok {
		return fmt.Errorf("solution references unknown variable %q", name)
	}
	v.Value = value
	return nil
}

// Value returns the solved value of a named variable, 0 if undeclared.
func (m *Model) Value(name string) float64 {
	if v, ok := m.byName[name]; ok {
		return v.Value
	}
	return 0
}

// ObjectiveValue evaluates the installed objective against the bound
// variable values.
func (m *Model) ObjectiveValue() float64 {
	if m.objective == nil {
		return 0
	}
	total := m.objective.constant
	for i, v := range m.objective.vars {
		total += m.objective.coefs[i] * v.Value
	}
	return total
}

// CheckSolution verifies every constraint against the bound values
// within tolerance. Used to reject inconsistent solver output.
func (m *Model) CheckSolution(tol float64) error {
	for _, c := range m.cons {
		lhs := 0.0
		for i, v := range c.Expr.vars {
			lhs += c.Expr.coefs[i] * v.Value
		}
		diff := lhs - c.RHS
		switch c.Sense {
		case LessEq:
			if diff > tol {
				return fmt.Errorf("constraint %q violated: %.6f > %.6f", c.Name, lhs, c.RHS)
			}
		case GreaterEq:
			if diff < -tol {
				return fmt.Errorf("constraint %q violated: %.6f < %.6f", c.Name, lhs, c.RHS)
			}
		case Equal:
			if math.Abs(diff) > tol {
				return fmt.Errorf("constraint %q violated: %.6f != %.6f", c.Name, lhs, c.RHS)
			}
		}
	}
	return nil
}
