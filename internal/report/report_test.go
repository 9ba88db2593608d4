package report

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fpl-planner-mcp/internal/planner"
)

func samplePlan() *planner.Plan {
	return &planner.Plan{
		Start:     12,
		Period:    1,
		Objective: 61.25,
		Weeks: []planner.WeekPlan{{
			Gameweek:      12,
			FreeTransfers: 2,
			Hits:          1,
			Buys:          []planner.Transfer{{ID: 7, Name: "Palmer"}},
			Sells:         []planner.Transfer{{ID: 3, Name: "Gordon"}},
			Squad: []planner.SquadRow{
				{ID: 1, Name: "Raya", Position: "G", Club: "ARS", SaleValue: 5.5, Points: 4.1, Starter: true},
				{ID: 7, Name: "Palmer", Position: "M", Club: "CHE", SaleValue: 10.8, Points: 7.9, Starter: true, Captain: true},
				{ID: 9, Name: "Watkins", Position: "F", Club: "AVL", SaleValue: 8.9, Points: 5.2, Starter: true, Vice: true},
				{ID: 2, Name: "Dubravka", Position: "G", Club: "NEW", SaleValue: 4.4, Points: 2.0},
			},
			ExpectedPoints: 61.25,
			Chip:           planner.ChipBenchBoost,
			ChipValue:      2.0,
		}},
	}
}

func TestRender(t *testing.T) {
	var b strings.Builder
	require.NoError(t, Render(&b, samplePlan()))
	out := b.String()

	for _, want := range []string{
		"GW 12 - FT: 2",
		"Buy:  Palmer",
		"Sell: Gordon",
		"C M Palmer",
		"V F Watkins",
		"(bench)",
		"xPts: 61.25 - Hits: 1 - Chip: Bench Boost - Added value: 2.00",
		"Total objective: 61.25",
	} {
		assert.Contains(t, out, want)
	}
}

func TestRenderSortsStartersFirst(t *testing.T) {
	var b strings.Builder
	require.NoError(t, Render(&b, samplePlan()))
	lines := strings.Split(b.String(), "\n")

	var names []string
	for _, line := range lines {
		for _, name := range []string{"Raya", "Palmer", "Watkins", "Dubravka"} {
			if strings.Contains(line, name) && !strings.Contains(line, "Buy") && !strings.Contains(line, "Sell") {
				names = append(names, name)
			}
		}
	}
	assert.Equal(t, []string{"Raya", "Palmer", "Watkins", "Dubravka"}, names, "starters in position order, bench last")
}

func TestRenderNoChip(t *testing.T) {
	plan := samplePlan()
	plan.Weeks[0].Chip = ""
	plan.Weeks[0].ChipValue = 0

	var b strings.Builder
	require.NoError(t, Render(&b, plan))
	assert.NotContains(t, b.String(), "Chip:")
}
