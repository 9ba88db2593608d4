package milp

import (
	"bufio"
	"fmt"
	"io"
	"math"
)

const objRow = "OBJ"

type colEntry struct {
	row  string
	coef float64
}

// WriteMPS exports the model in free-format MPS. A maximization
// objective is written as the minimization of its negation. Variables
// and rows are emitted in declaration order so that the same model
// always serializes identically.
func (m *Model) WriteMPS(w io.Writer) error {
	if m.err != nil {
		return m.err
	}
	if m.objective == nil {
		return fmt.Errorf("model %q has no objective", m.Name)
	}

	entries := make([][]colEntry, len(m.vars))

	objSign := 1.0
	if m.maximize {
		objSign = -1.0
	}
	for i, v := range m.objective.vars {
		entries[v.col] = append(entries[v.col], colEntry{objRow, objSign * m.objective.coefs[i]})
	}
	for _, c := range m.cons {
		for i, v := range c.Expr.vars {
			entries[v.col] = append(entries[v.col], colEntry{c.Name, c.Expr.coefs[i]})
		}
	}

	bw := bufio.NewWriter(w)
	fmt.Fprintf(bw, "NAME %s\n", m.Name)

	fmt.Fprintln(bw, "ROWS")
	fmt.Fprintf(bw, " N %s\n", objRow)
	for _, c := range m.cons {
		fmt.Fprintf(bw, " %s %s\n", senseLetter(c.Sense), c.Name)
	}

	fmt.Fprintln(bw, "COLUMNS")
	inInteger := false
	markers := 0
	for _, v := range m.vars {
		isInt := v.Kind == Binary || v.Kind == Integer
		if isInt && !inInteger {
			fmt.Fprintf(bw, "    MARKER%d 'MARKER' 'INTORG'\n", markers)
			markers++
			inInteger = true
		}
		if !isInt && inInteger {
			fmt.Fprintf(bw, "    MARKER%d 'MARKER' 'INTEND'\n", markers)
			markers++
			inInteger = false
		}
		cols := entries[v.col]
		if len(cols) == 0 {
			// A column absent from every row would be undeclared; pin
			// it to the objective with a zero coefficient.
			cols = []colEntry{{objRow, 0}}
		}
		for _, e := range cols {
			fmt.Fprintf(bw, "    %s %s %s\n", v.Name, e.row, trimFloat(e.coef))
		}
	}
	if inInteger {
		fmt.Fprintf(bw, "    MARKER%d 'MARKER' 'INTEND'\n", markers)
	}

	fmt.Fprintln(bw, "RHS")
	for _, c := range m.cons {
		if c.RHS != 0 {
			fmt.Fprintf(bw, "    RHS %s %s\n", c.Name, trimFloat(c.RHS))
		}
	}

	fmt.Fprintln(bw, "BOUNDS")
	for _, v := range m.vars {
		switch v.Kind {
		case Binary:
			fmt.Fprintf(bw, " BV BND %s\n", v.Name)
		case Integer:
			fmt.Fprintf(bw, " LI BND %s %d\n", v.Name, int64(v.Lb))
			fmt.Fprintf(bw, " UI BND %s %d\n", v.Name, int64(v.Ub))
		case Continuous:
			if v.Lb != 0 {
				fmt.Fprintf(bw, " LO BND %s %s\n", v.Name, trimFloat(v.Lb))
			}
			if !math.IsInf(v.Ub, 1) {
				fmt.Fprintf(bw, " UP BND %s %s\n", v.Name, trimFloat(v.Ub))
			}
		}
	}

	fmt.Fprintln(bw, "ENDATA")
	return bw.Flush()
}

func senseLetter(s Sense) string {
	switch s {
	case LessEq:
		return "L"
	case GreaterEq:
		return "G"
	default:
		return "E"
	}
}

// trimFloat renders coefficients without trailing zero noise so MPS
// files stay diffable.
func trimFloat(f float64) string {
	if f == math.Trunc(f) && math.Abs(f) < 1e15 {
		return fmt.Sprintf("%d", int64(f))
	}
	return fmt.Sprintf("%g", f)
}
