package plandata

import "fmt"

// ChipRecord holds, per chip kind, the gameweek it was played in or 0
// if it is still available.
type ChipRecord struct {
	FreeHit       int `json:"freehit"`
	Wildcard      int `json:"wildcard"`
	BenchBoost    int `json:"bboost"`
	TripleCaptain int `json:"threexc"`
}

// Data is the immutable per-run planning input: projection table plus
// the manager's real state anchored at gameweek Start-1.
type Data struct {
	Table  *Table
	Start  int // first planned gameweek
	Period int // number of planned gameweeks

	Squad         []int   // 15 owned player ids at Start-1
	Bank          float64 // in the same unit as SaleValue
	Budget        float64 // squad valuation + bank
	RollingFT     int     // 1 if a free transfer was carried into Start
	LastTransfers int     // transfers made in gameweek Start-1
	Chips         ChipRecord
}

// New assembles run data. The horizon is clipped to the projected
// weeks actually available from Start onward.
func New(table *Table, start, horizon int, squad []int, bank float64, rollingFT, lastTransfers int, chips ChipRecord) (*Data, error) {
	if table == nil || table.Len() == 0 {
		return nil, fmt.Errorf("plandata: empty projection table")
	}
	if start < 1 {
		return nil, fmt.Errorf("plandata: start gameweek %d out of range", start)
	}
	if horizon < 1 {
		return nil, fmt.Errorf("plandata: horizon must be positive, got %d", horizon)
	}
	if rollingFT < 0 || rollingFT > 1 {
		return nil, fmt.Errorf("plandata: rolling free transfers must be 0 or 1, got %d", rollingFT)
	}

	available := 0
	for _, w := range table.Gameweeks() {
		if w >= start {
			available++
		}
	}
	if available == 0 {
		return nil, fmt.Errorf("plandata: no projections at or after gameweek %d", start)
	}
	period := horizon
	if available < period {
		period = available
	}

	value := 0.0
	for _, id := range squad {
		p, ok := table.Get(id)
		if !ok {
			return nil, fmt.Errorf("plandata: squad player %d missing from projection table", id)
		}
		value += p.SaleValue
	}

	table.SortByEV()

	return &Data{
		Table:         table,
		Start:         start,
		Period:        period,
		Squad:         append([]int(nil), squad...),
		Bank:          bank,
		Budget:        value + bank,
		RollingFT:     rollingFT,
		LastTransfers: lastTransfers,
		Chips:         chips,
	}, nil
}

// Gameweeks returns the planned weeks [Start, Start+Period).
func (d *Data) Gameweeks() []int {
	out := make([]int, d.Period)
	for i := range out {
		out[i] = d.Start + i
	}
	return out
}

// AllGameweeks returns the planned weeks plus the anchor week Start-1.
func (d *Data) AllGameweeks() []int {
	out := make([]int, d.Period+1)
	for i := range out {
		out[i] = d.Start - 1 + i
	}
	return out
}

// InSquad reports whether id is in the anchor squad.
func (d *Data) InSquad(id int) bool {
	for _, s := range d.Squad {
		if s == id {
			return true
		}
	}
	return false
}
