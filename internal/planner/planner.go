// Package planner turns per-gameweek projections and a manager's real
// squad state into a mixed-integer model whose solutions are feasible
// multi-gameweek squad trajectories.
package planner

import (
	"fmt"
	"math"
	"strings"

	"fpl-planner-mcp/internal/milp"
	"fpl-planner-mcp/internal/plandata"
)

type pw struct {
	p, w int
}

// Planner owns one planning run end to end: input data, options, the
// model under construction and the variable handles needed to decode a
// solution. Not safe for concurrent use; parallel scenarios construct
// independent Planners.
type Planner struct {
	data *plandata.Data
	opts Options

	model *milp.Model

	team        map[pw]*milp.Var
	starter     map[pw]*milp.Var
	captain     map[pw]*milp.Var
	vicecaptain map[pw]*milp.Var
	buy         map[pw]*milp.Var
	sell        map[pw]*milp.Var

	freeTransfers map[int]*milp.Var
	hits          map[int]*milp.Var
	rolling       map[int]*milp.Var

	// transfersMade is the per-week sell sum; the anchor week entry is
	// the constant count of transfers already made.
	transfersMade map[int]*milp.Expr

	objective *milp.Expr

	chips *ChipPlan
	fh    map[int]*milp.Var
	wc    map[int]*milp.Var
	bb    map[int]*milp.Var
	tc    map[pw]*milp.Var

	built bool
}

// New validates options and anchor state and prepares an empty model.
func New(name string, data *plandata.Data, opts Options) (*Planner, error) {
	if err := opts.validate(); err != nil {
		return nil, err
	}
	if err := validateAnchor(data); err != nil {
		return nil, err
	}
	return &Planner{
		data:          data,
		opts:          opts,
		model:         milp.New(name),
		team:          make(map[pw]*milp.Var),
		starter:       make(map[pw]*milp.Var),
		captain:       make(map[pw]*milp.Var),
		vicecaptain:   make(map[pw]*milp.Var),
		buy:           make(map[pw]*milp.Var),
		sell:          make(map[pw]*milp.Var),
		freeTransfers: make(map[int]*milp.Var),
		hits:          make(map[int]*milp.Var),
		rolling:       make(map[int]*milp.Var),
		transfersMade: make(map[int]*milp.Expr),
	}, nil
}

func (pl *Planner) Data() *plandata.Data { return pl.data }
func (pl *Planner) Model() *milp.Model   { return pl.model }

// weekWeight is the objective weight of planned week w.
func (pl *Planner) weekWeight(w int) float64 {
	if pl.opts.Objective == ObjectiveDecay {
		return math.Pow(pl.opts.DecayGameweek, float64(w-pl.data.Start))
	}
	return 1
}

// Build constructs the base trajectory model: variables, the expected
// points objective and every squad, lineup, budget and transfer
// constraint.
func (pl *Planner) Build() error {
	if pl.built {
		return fmt.Errorf("planner: model already built")
	}
	d := pl.data
	m := pl.model
	weeks := d.Gameweeks()
	allWeeks := d.AllGameweeks()

	// Decision variables.
	for _, p := range d.Table.Players {
		for _, w := range allWeeks {
			pl.team[pw{p.ID, w}] = m.AddBinary(fmt.Sprintf("team_%d_%d", p.ID, w))
		}
		for _, w := range weeks {
			pl.starter[pw{p.ID, w}] = m.AddBinary(fmt.Sprintf("starter_%d_%d", p.ID, w))
			pl.captain[pw{p.ID, w}] = m.AddBinary(fmt.Sprintf("captain_%d_%d", p.ID, w))
			pl.vicecaptain[pw{p.ID, w}] = m.AddBinary(fmt.Sprintf("vicecaptain_%d_%d", p.ID, w))
			pl.buy[pw{p.ID, w}] = m.AddBinary(fmt.Sprintf("buy_%d_%d", p.ID, w))
			pl.sell[pw{p.ID, w}] = m.AddBinary(fmt.Sprintf("sell_%d_%d", p.ID, w))
		}
	}
	for _, w := range allWeeks {
		pl.freeTransfers[w] = m.AddInteger(fmt.Sprintf("ft_%d", w), 1, 2)
	}
	for _, w := range weeks {
		pl.hits[w] = m.AddInteger(fmt.Sprintf("hits_%d", w), 0, maxHits)
		pl.rolling[w] = m.AddBinary(fmt.Sprintf("rolling_%d", w))
	}

	// Objective: full credit for starters, a second share for the
	// captain, partial credit for bench and vice cover, minus the hit
	// penalty. Banking a free transfer earns FTValue in the week the
	// transfer rolls in.
	obj := milp.NewExpr()
	for _, w := range weeks {
		weight := pl.weekWeight(w)
		for _, p := range d.Table.Players {
			pts := p.Pts(w)
			if pts == 0 {
				continue
			}
			obj.Add(pl.starter[pw{p.ID, w}], weight*pts*(1-pl.opts.DecayBench))
			obj.Add(pl.captain[pw{p.ID, w}], weight*pts)
			obj.Add(pl.vicecaptain[pw{p.ID, w}], weight*pts*pl.opts.DecayBench)
			obj.Add(pl.team[pw{p.ID, w}], weight*pts*pl.opts.DecayBench)
		}
		obj.Add(pl.hits[w], -hitCost*weight)
	}
	if pl.opts.FTValue > 0 {
		for _, w := range weeks[1:] {
			weight := 1.0
			if pl.opts.Objective == ObjectiveDecay {
				weight = math.Pow(pl.opts.DecayGameweek, float64(w-d.Start-1))
			}
			obj.Add(pl.rolling[w], pl.opts.FTValue*weight)
		}
	}
	pl.objective = obj
	m.Maximize(obj)

	anchor := d.Start - 1

	// Anchor week: the real squad is fixed, and the free transfer count
	// is the carried transfer plus the weekly one.
	for _, id := range d.Squad {
		m.AddConstraint(fmt.Sprintf("initial_team_%d", id),
			milp.Term(pl.team[pw{id, anchor}], 1), milp.Equal, 1)
	}
	m.AddConstraint("initial_ft",
		milp.Term(pl.freeTransfers[anchor], 1), milp.Equal, float64(d.RollingFT+1))

	// Budget: squad valuation never exceeds current value plus bank.
	for _, w := range allWeeks {
		e := milp.NewExpr()
		for _, p := range d.Table.Players {
			e.Add(pl.team[pw{p.ID, w}], p.SaleValue)
		}
		m.AddConstraint(fmt.Sprintf("budget_%d", w), e, milp.LessEq, d.Budget)
	}

	// Cardinality: 15 in the squad every week, 11 starters, one captain
	// and one vice, captain and vice disjoint.
	for _, w := range allWeeks {
		e := milp.NewExpr()
		for _, p := range d.Table.Players {
			e.Add(pl.team[pw{p.ID, w}], 1)
		}
		m.AddConstraint(fmt.Sprintf("squad_size_%d", w), e, milp.Equal, squadSize)
	}
	for _, w := range weeks {
		m.AddConstraint(fmt.Sprintf("starters_%d", w), pl.sumOver(pl.starter, w), milp.Equal, starterCount)
		m.AddConstraint(fmt.Sprintf("one_captain_%d", w), pl.sumOver(pl.captain, w), milp.Equal, 1)
		m.AddConstraint(fmt.Sprintf("one_vicecaptain_%d", w), pl.sumOver(pl.vicecaptain, w), milp.Equal, 1)
		for _, p := range d.Table.Players {
			m.AddConstraint(fmt.Sprintf("cap_or_vice_%d_%d", p.ID, w),
				milp.Sum(pl.captain[pw{p.ID, w}], pl.vicecaptain[pw{p.ID, w}]), milp.LessEq, 1)
		}
	}

	// Club quota: at most three squad players per club.
	for _, club := range d.Table.Clubs() {
		for _, w := range weeks {
			e := milp.NewExpr()
			for _, p := range d.Table.Players {
				if p.Club == club {
					e.Add(pl.team[pw{p.ID, w}], 1)
				}
			}
			m.AddConstraint(fmt.Sprintf("club_limit_%s_%d", mpsName(club), w), e, milp.LessEq, clubLimit)
		}
	}

	// Position quotas on the squad, formation minimums on the lineup.
	for _, w := range weeks {
		for _, pos := range []plandata.Position{plandata.Goalkeeper, plandata.Defender, plandata.Midfielder, plandata.Forward} {
			m.AddConstraint(fmt.Sprintf("squad_%s_%d", strings.ToLower(pos.String()), w),
				pl.sumPosition(pl.team, pos, w), milp.Equal, float64(plandata.SquadQuota(pos)))
		}
		m.AddConstraint(fmt.Sprintf("lineup_g_%d", w), pl.sumPosition(pl.starter, plandata.Goalkeeper, w), milp.Equal, 1)
		m.AddConstraint(fmt.Sprintf("lineup_d_%d", w), pl.sumPosition(pl.starter, plandata.Defender, w), milp.GreaterEq, 3)
		m.AddConstraint(fmt.Sprintf("lineup_m_%d", w), pl.sumPosition(pl.starter, plandata.Midfielder, w), milp.GreaterEq, 2)
		m.AddConstraint(fmt.Sprintf("lineup_f_%d", w), pl.sumPosition(pl.starter, plandata.Forward, w), milp.GreaterEq, 1)
	}

	// Role containment: captain and vice start, starters are owned.
	for _, p := range d.Table.Players {
		for _, w := range weeks {
			k := pw{p.ID, w}
			m.AddConstraint(fmt.Sprintf("captain_starts_%d_%d", p.ID, w),
				milp.NewExpr().Add(pl.captain[k], 1).Add(pl.starter[k], -1), milp.LessEq, 0)
			m.AddConstraint(fmt.Sprintf("vice_starts_%d_%d", p.ID, w),
				milp.NewExpr().Add(pl.vicecaptain[k], 1).Add(pl.starter[k], -1), milp.LessEq, 0)
			m.AddConstraint(fmt.Sprintf("starter_owned_%d_%d", p.ID, w),
				milp.NewExpr().Add(pl.starter[k], 1).Add(pl.team[k], -1), milp.LessEq, 0)
		}
	}

	// Transfer continuity ties the weekly squads into one trajectory,
	// and a player is never bought and sold in the same week.
	for _, p := range d.Table.Players {
		for _, w := range weeks {
			k := pw{p.ID, w}
			m.AddConstraint(fmt.Sprintf("continuity_%d_%d", p.ID, w),
				milp.NewExpr().
					Add(pl.team[k], 1).
					Add(pl.team[pw{p.ID, w - 1}], -1).
					Add(pl.buy[k], -1).
					Add(pl.sell[k], 1),
				milp.Equal, 0)
			m.AddConstraint(fmt.Sprintf("buy_or_sell_%d_%d", p.ID, w),
				milp.Sum(pl.buy[k], pl.sell[k]), milp.LessEq, 1)
		}
	}

	// Free transfer rollover. The big-M pair forces rolling_w to 1
	// exactly when the prior week left a transfer unused, tolerating a
	// negative surplus when hits were taken.
	for _, w := range weeks {
		e := milp.NewExpr()
		for _, p := range d.Table.Players {
			e.Add(pl.sell[pw{p.ID, w}], 1)
		}
		pl.transfersMade[w] = e
	}
	pl.transfersMade[anchor] = milp.NewExpr().AddConst(float64(d.LastTransfers))

	for _, w := range weeks {
		m.AddConstraint(fmt.Sprintf("ft_rel_%d", w),
			milp.NewExpr().Add(pl.freeTransfers[w], 1).Add(pl.rolling[w], -1), milp.Equal, 1)

		surplus := milp.NewExpr().Add(pl.freeTransfers[w-1], 1)
		surplus.AddExpr(pl.transfersMade[w-1], -1)

		upper := milp.NewExpr().AddExpr(surplus, 1).Add(pl.rolling[w], -2)
		m.AddConstraint(fmt.Sprintf("rolling_hi_%d", w), upper, milp.LessEq, 0)

		lower := milp.NewExpr().AddExpr(surplus, 1).Add(pl.rolling[w], -15)
		m.AddConstraint(fmt.Sprintf("rolling_lo_%d", w), lower, milp.GreaterEq, -14)
	}

	// Transfers beyond the free allotment are hits; the objective
	// penalty drives hits_w down to exactly the overage.
	for _, w := range weeks {
		e := milp.NewExpr().Add(pl.hits[w], 1).Add(pl.freeTransfers[w], 1)
		e.AddExpr(pl.transfersMade[w], -1)
		m.AddConstraint(fmt.Sprintf("hits_%d", w), e, milp.GreaterEq, 0)
	}

	if err := m.Err(); err != nil {
		return fmt.Errorf("planner: %w", err)
	}
	pl.built = true
	return nil
}

// AddDifferentials requires at least opts.MinStarters low-ownership
// starters every planned week.
func (pl *Planner) AddDifferentials(opts DifferentialOptions) error {
	if !pl.built {
		return fmt.Errorf("planner: model not built")
	}
	if opts.MinStarters < 1 || opts.MinStarters > starterCount {
		return &ConfigError{Field: "differentials", Reason: fmt.Sprintf("min starters %d out of range", opts.MinStarters)}
	}
	for _, w := range pl.data.Gameweeks() {
		e := milp.NewExpr()
		for _, p := range pl.data.Table.Players {
			if p.Ownership < opts.Threshold {
				e.Add(pl.starter[pw{p.ID, w}], 1)
			}
		}
		if e.Len() < opts.MinStarters {
			return &ConfigError{Field: "differentials", Reason: fmt.Sprintf("only %d players under ownership %.1f", e.Len(), opts.Threshold)}
		}
		pl.model.AddConstraint(fmt.Sprintf("differentials_%d", w), e, milp.GreaterEq, float64(opts.MinStarters))
	}
	return pl.model.Err()
}

func (pl *Planner) sumOver(vars map[pw]*milp.Var, w int) *milp.Expr {
	e := milp.NewExpr()
	for _, p := range pl.data.Table.Players {
		e.Add(vars[pw{p.ID, w}], 1)
	}
	return e
}

func (pl *Planner) sumPosition(vars map[pw]*milp.Var, pos plandata.Position, w int) *milp.Expr {
	e := milp.NewExpr()
	for _, p := range pl.data.Table.Players {
		if p.Position == pos {
			e.Add(vars[pw{p.ID, w}], 1)
		}
	}
	return e
}

// mpsName strips characters MPS row names cannot carry.
func mpsName(s string) string {
	var b strings.Builder
	for _, r := range s {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
			b.WriteRune(r)
		default:
			b.WriteRune('_')
		}
	}
	return b.String()
}
