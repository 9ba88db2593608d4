package planner

import (
	"fmt"

	"fpl-planner-mcp/internal/plandata"
)

const (
	squadSize    = 15
	starterCount = 11
	clubLimit    = 3
	hitCost      = 4
	maxHits      = 15 // a full-squad churn in one week
)

// validateAnchor checks the real squad state before any model is built.
// A violation here means the external data is stale or inconsistent,
// not that the plan is merely bad.
func validateAnchor(data *plandata.Data) error {
	if n := len(data.Squad); n != squadSize {
		return &InputError{Reason: fmt.Sprintf("anchor squad has %d players, want %d", n, squadSize)}
	}

	seen := make(map[int]bool, squadSize)
	posCount := make(map[plandata.Position]int)
	clubCount := make(map[string]int)
	for _, id := range data.Squad {
		if seen[id] {
			return &InputError{Reason: fmt.Sprintf("anchor squad lists player %d twice", id)}
		}
		seen[id] = true
		p, ok := data.Table.Get(id)
		if !ok {
			return &InputError{Reason: fmt.Sprintf("anchor squad player %d missing from projection table", id)}
		}
		posCount[p.Position]++
		clubCount[p.Club]++
	}

	for _, pos := range []plandata.Position{plandata.Goalkeeper, plandata.Defender, plandata.Midfielder, plandata.Forward} {
		if got, want := posCount[pos], plandata.SquadQuota(pos); got != want {
			return &InputError{Reason: fmt.Sprintf("anchor squad has %d %s, want %d", got, pos, want)}
		}
	}
	for club, n := range clubCount {
		if n > clubLimit {
			return &InputError{Reason: fmt.Sprintf("anchor squad has %d players from %s, limit %d", n, club, clubLimit)}
		}
	}

	if data.Bank < 0 {
		return &InputError{Reason: fmt.Sprintf("bank %.1f cannot retain the anchor squad", data.Bank)}
	}
	if data.RollingFT < 0 || data.RollingFT > 1 {
		return &InputError{Reason: fmt.Sprintf("carried free transfers %d out of range", data.RollingFT)}
	}
	return nil
}
