package planner

import (
	"fmt"

	"fpl-planner-mcp/internal/milp"
)

// Chip kind labels, matching the official API's active_chip values.
const (
	ChipFreeHit       = "freehit"
	ChipWildcard      = "wildcard"
	ChipBenchBoost    = "bboost"
	ChipTripleCaptain = "3xc"
)

// ChipPlan schedules the one-time chips. Each field is a week offset
// within the horizon (0 = first planned week) or NoChip.
type ChipPlan struct {
	FreeHit       int `json:"freehit"`
	Wildcard      int `json:"wildcard"`
	BenchBoost    int `json:"bboost"`
	TripleCaptain int `json:"threexc"`
}

const NoChip = -1

func NoChips() ChipPlan {
	return ChipPlan{FreeHit: NoChip, Wildcard: NoChip, BenchBoost: NoChip, TripleCaptain: NoChip}
}

// Active reports the chip kind scheduled at offset k, if any.
func (cp ChipPlan) Active(k int) (string, bool) {
	switch k {
	case cp.FreeHit:
		return ChipFreeHit, true
	case cp.Wildcard:
		return ChipWildcard, true
	case cp.BenchBoost:
		return ChipBenchBoost, true
	case cp.TripleCaptain:
		return ChipTripleCaptain, true
	}
	return "", false
}

// chip is one chip kind's model extension: its own availability check,
// constraint injection and objective contribution. Keeping each kind
// behind this interface keeps the four rule effects composable.
type chip interface {
	kind() string
	offset() int
	validate(pl *Planner) error
	apply(pl *Planner) error
}

// ApplyChips extends a built base model with the requested chip
// activations. Unused chips are pinned to zero so they cannot fire
// spuriously; all requests are validated before the model is touched.
func (pl *Planner) ApplyChips(plan ChipPlan) error {
	if !pl.built {
		return fmt.Errorf("planner: model not built")
	}
	if pl.chips != nil {
		return fmt.Errorf("planner: chips already applied")
	}

	chips := []chip{
		&freeHitChip{gw: plan.FreeHit},
		&wildcardChip{gw: plan.Wildcard},
		&benchBoostChip{gw: plan.BenchBoost},
		&tripleCaptainChip{gw: plan.TripleCaptain},
	}

	// Validation first: offsets inside the horizon, availability, and
	// at most one chip firing in any week. Config errors surface before
	// a single variable is added.
	active := make(map[int]string)
	for _, c := range chips {
		if err := c.validate(pl); err != nil {
			return err
		}
		if c.offset() == NoChip {
			continue
		}
		if prev, ok := active[c.offset()]; ok {
			return &ConfigError{Field: c.kind(), Reason: fmt.Sprintf("week %d already takes %s", pl.data.Start+c.offset(), prev)}
		}
		active[c.offset()] = c.kind()
	}

	pl.fh = make(map[int]*milp.Var)
	pl.wc = make(map[int]*milp.Var)
	pl.bb = make(map[int]*milp.Var)
	pl.tc = make(map[pw]*milp.Var)
	for _, w := range pl.data.Gameweeks() {
		pl.fh[w] = pl.model.AddInteger(fmt.Sprintf("fh_%d", w), 0, maxHits)
		pl.wc[w] = pl.model.AddInteger(fmt.Sprintf("wc_%d", w), 0, maxHits)
		pl.bb[w] = pl.model.AddBinary(fmt.Sprintf("bb_%d", w))
		for _, p := range pl.data.Table.Players {
			pl.tc[pw{p.ID, w}] = pl.model.AddBinary(fmt.Sprintf("tc_%d_%d", p.ID, w))
		}
	}

	for _, c := range chips {
		if err := c.apply(pl); err != nil {
			return err
		}
	}

	pl.model.Maximize(pl.objective)
	if err := pl.model.Err(); err != nil {
		return fmt.Errorf("planner: chips: %w", err)
	}
	cp := plan
	pl.chips = &cp
	return nil
}

func validateOffset(pl *Planner, kind string, gw int, usedAt int) error {
	if gw == NoChip {
		return nil
	}
	if gw < 0 || gw >= pl.data.Period {
		return &ConfigError{Field: kind, Reason: fmt.Sprintf("offset %d outside horizon [0, %d)", gw, pl.data.Period)}
	}
	if usedAt > 0 {
		return &ConfigError{Field: kind, Reason: fmt.Sprintf("already played in gameweek %d", usedAt)}
	}
	return nil
}

// chipWeight is the objective weight used for a chip firing in planned
// week w.
func chipWeight(pl *Planner, w int) float64 {
	return pl.weekWeight(w)
}

type freeHitChip struct{ gw int }

func (c *freeHitChip) kind() string { return ChipFreeHit }
func (c *freeHitChip) offset() int  { return c.gw }

func (c *freeHitChip) validate(pl *Planner) error {
	if err := validateOffset(pl, c.kind(), c.gw, pl.data.Chips.FreeHit); err != nil {
		return err
	}
	// The revert week must also sit inside the horizon, otherwise the
	// one-week-only effect cannot be expressed.
	if c.gw != NoChip && c.gw >= pl.data.Period-1 {
		return &ConfigError{Field: c.kind(), Reason: fmt.Sprintf("offset %d leaves no week to revert in (horizon %d)", c.gw, pl.data.Period)}
	}
	return nil
}

func (c *freeHitChip) apply(pl *Planner) error {
	m := pl.model
	weeks := pl.data.Gameweeks()

	// Hits covered by the chip are refunded in the objective.
	for _, w := range weeks {
		pl.objective.Add(pl.fh[w], hitCost*chipWeight(pl, w))
	}

	total := milp.NewExpr()
	for _, w := range weeks {
		total.Add(pl.fh[w], 1)
	}

	if c.gw == NoChip {
		m.AddConstraint("freehit_unused", total, milp.Equal, 0)
		return nil
	}

	on := pl.data.Start + c.gw
	// The chip week's transfers and the forced revert transfers are
	// both free of the hit penalty.
	m.AddConstraint("freehit_active",
		milp.NewExpr().Add(pl.fh[on], 1).Add(pl.hits[on], -1), milp.Equal, 0)
	m.AddConstraint("freehit_revert_free",
		milp.NewExpr().Add(pl.fh[on+1], 1).Add(pl.hits[on+1], -1), milp.Equal, 0)
	m.AddConstraint("freehit_once",
		milp.NewExpr().AddExpr(total, 1).Add(pl.hits[on], -1).Add(pl.hits[on+1], -1), milp.Equal, 0)

	// The free hit squad lives exactly one week: next week's sells undo
	// this week's buys and vice versa.
	for _, p := range pl.data.Table.Players {
		m.AddConstraint(fmt.Sprintf("freehit_buyback_%d", p.ID),
			milp.NewExpr().Add(pl.buy[pw{p.ID, on}], 1).Add(pl.sell[pw{p.ID, on + 1}], -1), milp.Equal, 0)
		m.AddConstraint(fmt.Sprintf("freehit_sellback_%d", p.ID),
			milp.NewExpr().Add(pl.sell[pw{p.ID, on}], 1).Add(pl.buy[pw{p.ID, on + 1}], -1), milp.Equal, 0)
	}
	return nil
}

type wildcardChip struct{ gw int }

func (c *wildcardChip) kind() string { return ChipWildcard }
func (c *wildcardChip) offset() int  { return c.gw }

func (c *wildcardChip) validate(pl *Planner) error {
	return validateOffset(pl, c.kind(), c.gw, pl.data.Chips.Wildcard)
}

func (c *wildcardChip) apply(pl *Planner) error {
	m := pl.model
	weeks := pl.data.Gameweeks()

	for _, w := range weeks {
		pl.objective.Add(pl.wc[w], hitCost*chipWeight(pl, w))
	}

	total := milp.NewExpr()
	for _, w := range weeks {
		total.Add(pl.wc[w], 1)
	}

	if c.gw == NoChip {
		m.AddConstraint("wildcard_unused", total, milp.Equal, 0)
		return nil
	}

	on := pl.data.Start + c.gw
	m.AddConstraint("wildcard_active",
		milp.NewExpr().Add(pl.wc[on], 1).Add(pl.hits[on], -1), milp.Equal, 0)
	m.AddConstraint("wildcard_once",
		milp.NewExpr().AddExpr(total, 1).Add(pl.hits[on], -1), milp.Equal, 0)
	return nil
}

type benchBoostChip struct{ gw int }

func (c *benchBoostChip) kind() string { return ChipBenchBoost }
func (c *benchBoostChip) offset() int  { return c.gw }

func (c *benchBoostChip) validate(pl *Planner) error {
	return validateOffset(pl, c.kind(), c.gw, pl.data.Chips.BenchBoost)
}

func (c *benchBoostChip) apply(pl *Planner) error {
	m := pl.model
	weeks := pl.data.Gameweeks()

	total := milp.NewExpr()
	for _, w := range weeks {
		total.Add(pl.bb[w], 1)
	}

	if c.gw == NoChip {
		m.AddConstraint("bboost_unused", total, milp.Equal, 0)
		return nil
	}

	on := pl.data.Start + c.gw
	m.AddConstraint("bboost_active", milp.Term(pl.bb[on], 1), milp.Equal, 1)
	m.AddConstraint("bboost_once", total, milp.Equal, 1)

	// Bench players earn full credit that week: top the discounted
	// bench share up to 1.
	weight := chipWeight(pl, on)
	for _, p := range pl.data.Table.Players {
		pts := p.Pts(on)
		if pts == 0 {
			continue
		}
		pl.objective.Add(pl.team[pw{p.ID, on}], weight*pts*(1-pl.opts.DecayBench))
		pl.objective.Add(pl.starter[pw{p.ID, on}], -weight*pts*(1-pl.opts.DecayBench))
	}
	return nil
}

type tripleCaptainChip struct{ gw int }

func (c *tripleCaptainChip) kind() string { return ChipTripleCaptain }
func (c *tripleCaptainChip) offset() int  { return c.gw }

func (c *tripleCaptainChip) validate(pl *Planner) error {
	return validateOffset(pl, c.kind(), c.gw, pl.data.Chips.TripleCaptain)
}

func (c *tripleCaptainChip) apply(pl *Planner) error {
	m := pl.model
	weeks := pl.data.Gameweeks()

	// One extra full share of the tripled player's points.
	for _, w := range weeks {
		weight := chipWeight(pl, w)
		for _, p := range pl.data.Table.Players {
			if pts := p.Pts(w); pts != 0 {
				pl.objective.Add(pl.tc[pw{p.ID, w}], weight*pts)
			}
		}
	}

	total := milp.NewExpr()
	for _, w := range weeks {
		for _, p := range pl.data.Table.Players {
			total.Add(pl.tc[pw{p.ID, w}], 1)
		}
	}

	if c.gw == NoChip {
		m.AddConstraint("threexc_unused", total, milp.Equal, 0)
		return nil
	}

	on := pl.data.Start + c.gw
	onWeek := milp.NewExpr()
	for _, p := range pl.data.Table.Players {
		onWeek.Add(pl.tc[pw{p.ID, on}], 1)
	}
	m.AddConstraint("threexc_active", onWeek, milp.Equal, 1)
	m.AddConstraint("threexc_once", total, milp.Equal, 1)

	// The tripled player must already wear the armband.
	for _, w := range weeks {
		for _, p := range pl.data.Table.Players {
			m.AddConstraint(fmt.Sprintf("threexc_is_captain_%d_%d", p.ID, w),
				milp.NewExpr().Add(pl.tc[pw{p.ID, w}], 1).Add(pl.captain[pw{p.ID, w}], -1), milp.LessEq, 0)
		}
	}
	return nil
}
