// Package solve runs an exported model through an external CBC solver
// and binds the result back onto the model's variables.
package solve

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"fpl-planner-mcp/internal/milp"
)

// ErrInfeasible marks a model the solver proved has no feasible
// trajectory. Distinct from a zero-valued plan.
var ErrInfeasible = errors.New("model is infeasible")

// RunError wraps an export, process or parse failure.
type RunError struct {
	Stage string // export | solve | parse
	Err   error
}

func (e *RunError) Error() string {
	return fmt.Sprintf("solve: %s: %v", e.Stage, e.Err)
}

func (e *RunError) Unwrap() error { return e.Err }

// Runner invokes a CBC-compatible solver binary. The zero value is not
// usable; construct with NewRunner.
type Runner struct {
	Binary    string // solver executable, default "cbc"
	WorkDir   string // scratch directory for MPS/solution files
	KeepFiles bool   // keep scratch files for inspection
}

func NewRunner() *Runner {
	return &Runner{
		Binary:  "cbc",
		WorkDir: os.TempDir(),
	}
}

// Result carries the solver-reported status line objective. The
// decoded objective should be recomputed from bound values; this one is
// for logging.
type Result struct {
	Status    string
	Objective float64
}

// Solve exports m, runs the solver and binds every variable value.
// Solve blocks until the solver exits; the caller bounds the run
// through ctx since MILP solve time is data dependent. Every variable
// is zeroed before the parse so values the solver omits resolve to 0.
func (r *Runner) Solve(ctx context.Context, m *milp.Model) (*Result, error) {
	base := filepath.Join(r.WorkDir, fmt.Sprintf("%s-%s", m.Name, uuid.NewString()[:8]))
	mpsPath := base + ".mps"
	solPath := base + ".sol"
	if !r.KeepFiles {
		defer os.Remove(mpsPath)
		defer os.Remove(solPath)
	}

	f, err := os.Create(mpsPath)
	if err != nil {
		return nil, &RunError{Stage: "export", Err: err}
	}
	if err := m.WriteMPS(f); err != nil {
		f.Close()
		return nil, &RunError{Stage: "export", Err: err}
	}
	if err := f.Close(); err != nil {
		return nil, &RunError{Stage: "export", Err: err}
	}

	log.Debug().Str("model", m.Name).Str("mps", mpsPath).Msg("invoking solver")
	cmd := exec.CommandContext(ctx, r.Binary, mpsPath, "solve", "solu", solPath)
	cmd.Stdout = nil
	cmd.Stderr = nil
	if err := cmd.Run(); err != nil {
		if ctx.Err() != nil {
			return nil, &RunError{Stage: "solve", Err: ctx.Err()}
		}
		return nil, &RunError{Stage: "solve", Err: err}
	}

	sf, err := os.Open(solPath)
	if err != nil {
		return nil, &RunError{Stage: "parse", Err: err}
	}
	defer sf.Close()

	res, err := ParseSolution(sf, m)
	if err != nil {
		return nil, err
	}
	log.Debug().Str("model", m.Name).Str("status", res.Status).Float64("objective", res.Objective).Msg("solver finished")
	return res, nil
}

// ParseSolution reads a CBC solution file: a status line
// ("Optimal - objective value X") followed by "index name value cost"
// rows. Any variable the file omits stays at zero. A missing or
// non-optimal status line is a solve failure, not a partial success.
func ParseSolution(r io.Reader, m *milp.Model) (*Result, error) {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)

	if !sc.Scan() {
		return nil, &RunError{Stage: "parse", Err: fmt.Errorf("empty solution file")}
	}
	status := strings.TrimSpace(sc.Text())
	switch {
	case strings.HasPrefix(status, "Optimal"):
	case strings.HasPrefix(status, "Infeasible"):
		return nil, fmt.Errorf("model %q: %w", m.Name, ErrInfeasible)
	default:
		return nil, &RunError{Stage: "parse", Err: fmt.Errorf("unexpected solver status %q", status)}
	}

	res := &Result{Status: "Optimal"}
	if fields := strings.Fields(status); len(fields) > 0 {
		if v, err := strconv.ParseFloat(fields[len(fields)-1], 64); err == nil {
			// CBC minimizes the negated objective.
			res.Objective = -v
		}
	}

	m.ResetValues()
	for sc.Scan() {
		fields := strings.Fields(sc.Text())
		if len(fields) > 0 && fields[0] == "**" {
			// CBC flags superbasic rows with a leading marker.
			fields = fields[1:]
		}
		if len(fields) < 3 {
			continue
		}
		value, err := strconv.ParseFloat(fields[2], 64)
		if err != nil {
			return nil, &RunError{Stage: "parse", Err: fmt.Errorf("bad value %q for %q", fields[2], fields[1])}
		}
		if err := m.SetValue(fields[1], value); err != nil {
			return nil, &RunError{Stage: "parse", Err: err}
		}
	}
	if err := sc.Err(); err != nil {
		return nil, &RunError{Stage: "parse", Err: err}
	}
	return res, nil
}
