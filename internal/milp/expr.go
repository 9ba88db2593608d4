package milp

// Expr is a linear expression: sum of coefficient*variable terms plus a
// constant. Terms keep insertion order so exports stay deterministic;
// repeated adds of the same variable merge coefficients.
type Expr struct {
	vars     []*Var
	coefs    []float64
	index    map[*Var]int
	constant float64
}

func NewExpr() *Expr {
	return &Expr{index: make(map[*Var]int)}
}

// Term returns coef*v as a fresh expression.
func Term(v *Var, coef float64) *Expr {
	return NewExpr().Add(v, coef)
}

func (e *Expr) Add(v *Var, coef float64) *Expr {
	if i, ok := e.index[v]; ok {
		e.coefs[i] += coef
		return e
	}
	e.index[v] = len(e.vars)
	e.vars = append(e.vars, v)
	e.coefs = append(e.coefs, coef)
	return e
}

func (e *Expr) AddConst(c float64) *Expr {
	e.constant += c
	return e
}

// AddExpr folds scale*other into e.
func (e *Expr) AddExpr(other *Expr, scale float64) *Expr {
	for i, v := range other.vars {
		e.Add(v, other.coefs[i]*scale)
	}
	e.constant += other.constant * scale
	return e
}

// Sum builds the unweighted sum of vars.
func Sum(vars ...*Var) *Expr {
	e := NewExpr()
	for _, v := range vars {
		e.Add(v, 1)
	}
	return e
}

func (e *Expr) Constant() float64 { return e.constant }

func (e *Expr) Len() int { return len(e.vars) }

// Coef returns the current coefficient on v.
func (e *Expr) Coef(v *Var) float64 {
	if i, ok := e.index[v]; ok {
		return e.coefs[i]
	}
	return 0
}
