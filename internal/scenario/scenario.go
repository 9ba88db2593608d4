// Package scenario measures plan sensitivity to projection noise by
// re-solving independently randomized copies of one planning run.
package scenario

import (
	"context"
	"fmt"
	"math"
	"sort"
	"sync"

	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"

	"fpl-planner-mcp/internal/plandata"
	"fpl-planner-mcp/internal/planner"
	"fpl-planner-mcp/internal/solve"
)

type Config struct {
	Runs        int
	Seed        uint64
	Parallelism int // concurrent solves, default 2
	Options     planner.Options
	Chips       *planner.ChipPlan // nil = no chip model
	Solver      *solve.Runner
}

// MoveCount is how often one player was traded in the first planned
// week across runs.
type MoveCount struct {
	ID    int    `json:"id"`
	Name  string `json:"name"`
	Count int    `json:"count"`
}

type Summary struct {
	Runs          int         `json:"runs"`
	MeanObjective float64     `json:"mean_objective"`
	StdObjective  float64     `json:"std_objective"`
	Buys          []MoveCount `json:"first_week_buys"`
	Sells         []MoveCount `json:"first_week_sells"`
}

// Run solves cfg.Runs noised copies of base. Every run owns its own
// data copy, planner and model; only the aggregate is shared, under a
// lock. The first error cancels the remaining runs.
func Run(ctx context.Context, base *plandata.Data, cfg Config) (*Summary, error) {
	if cfg.Runs < 1 {
		return nil, fmt.Errorf("scenario: runs must be positive, got %d", cfg.Runs)
	}
	parallelism := cfg.Parallelism
	if parallelism < 1 {
		parallelism = 2
	}

	var (
		mu         sync.Mutex
		objectives []float64
		buys       = make(map[int]*MoveCount)
		sells      = make(map[int]*MoveCount)
	)

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(parallelism)
	for i := 0; i < cfg.Runs; i++ {
		i := i
		g.Go(func() error {
			data := base.Randomize(cfg.Seed + uint64(i))
			pl, err := planner.New(fmt.Sprintf("scenario_%d", i), data, cfg.Options)
			if err != nil {
				return err
			}
			if err := pl.Build(); err != nil {
				return err
			}
			if cfg.Chips != nil {
				if err := pl.ApplyChips(*cfg.Chips); err != nil {
					return err
				}
			}
			if _, err := cfg.Solver.Solve(ctx, pl.Model()); err != nil {
				return fmt.Errorf("scenario %d: %w", i, err)
			}
			plan, err := pl.Decode()
			if err != nil {
				return fmt.Errorf("scenario %d: %w", i, err)
			}

			mu.Lock()
			defer mu.Unlock()
			objectives = append(objectives, plan.Objective)
			first := plan.Weeks[0]
			for _, t := range first.Buys {
				tally(buys, t)
			}
			for _, t := range first.Sells {
				tally(sells, t)
			}
			log.Debug().Int("run", i).Float64("objective", plan.Objective).Msg("scenario solved")
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	mean, std := meanStd(objectives)
	return &Summary{
		Runs:          cfg.Runs,
		MeanObjective: mean,
		StdObjective:  std,
		Buys:          sorted(buys),
		Sells:         sorted(sells),
	}, nil
}

func tally(counts map[int]*MoveCount, t planner.Transfer) {
	if mc, ok := counts[t.ID]; ok {
		mc.Count++
		return
	}
	counts[t.ID] = &MoveCount{ID: t.ID, Name: t.Name, Count: 1}
}

func sorted(counts map[int]*MoveCount) []MoveCount {
	out := make([]MoveCount, 0, len(counts))
	for _, mc := range counts {
		out = append(out, *mc)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Count != out[j].Count {
			return out[i].Count > out[j].Count
		}
		return out[i].ID < out[j].ID
	})
	return out
}

func meanStd(xs []float64) (float64, float64) {
	if len(xs) == 0 {
		return 0, 0
	}
	var sum float64
	for _, x := range xs {
		sum += x
	}
	mean := sum / float64(len(xs))
	var ss float64
	for _, x := range xs {
		ss += (x - mean) * (x - mean)
	}
	return mean, math.Sqrt(ss / float64(len(xs)))
}
