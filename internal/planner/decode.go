package planner

import (
	"fmt"
	"math"

	"fpl-planner-mcp/internal/plandata"
)

// Transfer is one bought or sold player in a week.
type Transfer struct {
	ID   int    `json:"id"`
	Name string `json:"name"`
}

// SquadRow is one owned player in a decoded week.
type SquadRow struct {
	ID        int     `json:"id"`
	Name      string  `json:"name"`
	Position  string  `json:"position"`
	Club      string  `json:"club"`
	SaleValue float64 `json:"sale_value"`
	Points    float64 `json:"xp"`
	Starter   bool    `json:"starter"`
	Captain   bool    `json:"captain"`
	Vice      bool    `json:"vice"`
}

// WeekPlan is the decoded trajectory for one planned gameweek.
type WeekPlan struct {
	Gameweek       int        `json:"gameweek"`
	FreeTransfers  int        `json:"free_transfers"`
	Hits           int        `json:"hits"`
	Rolled         bool       `json:"rolled_transfer"`
	Buys           []Transfer `json:"buys"`
	Sells          []Transfer `json:"sells"`
	Squad          []SquadRow `json:"squad"`
	ExpectedPoints float64    `json:"expected_points"`
	Chip           string     `json:"chip,omitempty"`
	ChipValue      float64    `json:"chip_value,omitempty"`
}

// Plan is a fully decoded squad trajectory.
type Plan struct {
	Start     int        `json:"start"`
	Period    int        `json:"period"`
	Objective float64    `json:"objective"`
	Weeks     []WeekPlan `json:"weeks"`
}

func isOn(v float64) bool { return v > 0.5 }

// Decode reads the solved variable values back into a Plan and
// re-checks every squad invariant. Inconsistent solver output is an
// error, never a partial plan.
func (pl *Planner) Decode() (*Plan, error) {
	if !pl.built {
		return nil, fmt.Errorf("planner: model not built")
	}
	if err := pl.model.CheckSolution(1e-6); err != nil {
		return nil, fmt.Errorf("decode: %w", err)
	}
	d := pl.data

	plan := &Plan{
		Start:     d.Start,
		Period:    d.Period,
		Objective: pl.model.ObjectiveValue(),
		Weeks:     make([]WeekPlan, 0, d.Period),
	}

	for _, w := range d.Gameweeks() {
		wp := WeekPlan{
			Gameweek:      w,
			FreeTransfers: int(math.Round(pl.freeTransfers[w].Value)),
			Hits:          int(math.Round(pl.hits[w].Value)),
			Rolled:        isOn(pl.rolling[w].Value),
		}

		var starters, captains, vices int
		posCount := make(map[plandata.Position]int)
		clubCount := make(map[string]int)
		valuation := 0.0

		for _, p := range d.Table.Players {
			k := pw{p.ID, w}
			owned := isOn(pl.team[k].Value)
			bought := isOn(pl.buy[k].Value)
			sold := isOn(pl.sell[k].Value)

			if bought && sold {
				return nil, decodeErr("player %d bought and sold in gameweek %d", p.ID, w)
			}
			// Continuity re-derived from the booleans: owned now means
			// owned before and not sold, or bought now.
			prev := isOn(pl.team[pw{p.ID, w - 1}].Value)
			if owned != ((prev && !sold) || bought) {
				return nil, decodeErr("continuity broken for player %d in gameweek %d", p.ID, w)
			}
			if bought {
				wp.Buys = append(wp.Buys, Transfer{ID: p.ID, Name: p.Name})
			}
			if sold {
				wp.Sells = append(wp.Sells, Transfer{ID: p.ID, Name: p.Name})
			}
			if !owned {
				continue
			}

			row := SquadRow{
				ID:        p.ID,
				Name:      p.Name,
				Position:  p.Position.String(),
				Club:      p.Club,
				SaleValue: p.SaleValue,
				Points:    p.Pts(w),
				Starter:   isOn(pl.starter[k].Value),
				Captain:   isOn(pl.captain[k].Value),
				Vice:      isOn(pl.vicecaptain[k].Value),
			}
			if row.Captain && row.Vice {
				return nil, decodeErr("player %d is both captain and vice in gameweek %d", p.ID, w)
			}
			if (row.Captain || row.Vice) && !row.Starter {
				return nil, decodeErr("armband on a bench player %d in gameweek %d", p.ID, w)
			}
			if row.Starter {
				starters++
				wp.ExpectedPoints += row.Points
			}
			if row.Captain {
				captains++
				wp.ExpectedPoints += row.Points
			}
			if row.Vice {
				vices++
			}
			posCount[p.Position]++
			clubCount[p.Club]++
			valuation += p.SaleValue
			wp.Squad = append(wp.Squad, row)
		}

		if len(wp.Squad) != squadSize {
			return nil, decodeErr("gameweek %d squad has %d players", w, len(wp.Squad))
		}
		if starters != starterCount || captains != 1 || vices != 1 {
			return nil, decodeErr("gameweek %d lineup has %d starters, %d captains, %d vices", w, starters, captains, vices)
		}
		for _, pos := range []plandata.Position{plandata.Goalkeeper, plandata.Defender, plandata.Midfielder, plandata.Forward} {
			if posCount[pos] != plandata.SquadQuota(pos) {
				return nil, decodeErr("gameweek %d squad has %d %s", w, posCount[pos], pos)
			}
		}
		for club, n := range clubCount {
			if n > clubLimit {
				return nil, decodeErr("gameweek %d squad has %d players from %s", w, n, club)
			}
		}
		if valuation > d.Budget+1e-6 {
			return nil, decodeErr("gameweek %d valuation %.1f exceeds budget %.1f", w, valuation, d.Budget)
		}

		wp.ExpectedPoints -= float64(hitCost * wp.Hits)
		pl.annotateChip(&wp, w)

		plan.Weeks = append(plan.Weeks, wp)
	}

	return plan, nil
}

// annotateChip records the chip firing in week w and its added value.
func (pl *Planner) annotateChip(wp *WeekPlan, w int) {
	if pl.chips == nil {
		return
	}
	offset := w - pl.data.Start
	kind, ok := pl.chips.Active(offset)
	if !ok {
		// The forced unwind after a free hit is also penalty free.
		if pl.chips.FreeHit != NoChip && offset == pl.chips.FreeHit+1 {
			wp.ExpectedPoints += float64(hitCost * wp.Hits)
		}
		return
	}
	wp.Chip = kind
	switch kind {
	case ChipFreeHit, ChipWildcard:
		// Transfers this week were free; give the refunded hits back.
		wp.ExpectedPoints += float64(hitCost * wp.Hits)
	case ChipBenchBoost:
		for _, row := range wp.Squad {
			if !row.Starter {
				wp.ChipValue += row.Points
			}
		}
		wp.ExpectedPoints += wp.ChipValue
	case ChipTripleCaptain:
		for _, row := range wp.Squad {
			if row.Captain {
				wp.ChipValue += row.Points
			}
		}
		wp.ExpectedPoints += wp.ChipValue
	}
}

func decodeErr(format string, args ...any) error {
	return fmt.Errorf("decode: inconsistent assignment: "+format, args...)
}
