// Package report renders a decoded plan as a gameweek-by-gameweek
// listing. No modeling logic lives here.
package report

import (
	"fmt"
	"io"
	"sort"
	"strings"

	"fpl-planner-mcp/internal/planner"
)

var chipLabels = map[string]string{
	planner.ChipFreeHit:       "Free Hit",
	planner.ChipWildcard:      "Wildcard",
	planner.ChipBenchBoost:    "Bench Boost",
	planner.ChipTripleCaptain: "Triple Captain",
}

var posOrder = map[string]int{"G": 0, "D": 1, "M": 2, "F": 3}

// Render writes the full plan to w.
func Render(w io.Writer, plan *planner.Plan) error {
	for i := range plan.Weeks {
		if err := renderWeek(w, &plan.Weeks[i]); err != nil {
			return err
		}
	}
	_, err := fmt.Fprintf(w, "Total objective: %.2f\n", plan.Objective)
	return err
}

func renderWeek(w io.Writer, wp *planner.WeekPlan) error {
	if _, err := fmt.Fprintf(w, "GW %d - FT: %d\n", wp.Gameweek, wp.FreeTransfers); err != nil {
		return err
	}
	for _, t := range wp.Buys {
		fmt.Fprintf(w, "  Buy:  %s\n", t.Name)
	}
	for _, t := range wp.Sells {
		fmt.Fprintf(w, "  Sell: %s\n", t.Name)
	}

	rows := append([]planner.SquadRow(nil), wp.Squad...)
	sort.SliceStable(rows, func(i, j int) bool {
		if rows[i].Starter != rows[j].Starter {
			return rows[i].Starter
		}
		return posOrder[rows[i].Position] < posOrder[rows[j].Position]
	})
	for _, r := range rows {
		marker := " "
		switch {
		case r.Captain:
			marker = "C"
		case r.Vice:
			marker = "V"
		}
		bench := ""
		if !r.Starter {
			bench = " (bench)"
		}
		fmt.Fprintf(w, "  %s %s %-20s %-4s %5.1f %5.2f%s\n",
			marker, r.Position, r.Name, r.Club, r.SaleValue, r.Points, bench)
	}

	summary := fmt.Sprintf("  xPts: %.2f - Hits: %d", wp.ExpectedPoints, wp.Hits)
	if wp.Chip != "" {
		summary += " - Chip: " + chipLabel(wp.Chip)
		if wp.ChipValue > 0 {
			summary += fmt.Sprintf(" - Added value: %.2f", wp.ChipValue)
		}
	}
	_, err := fmt.Fprintln(w, summary+"\n"+strings.Repeat("-", 48))
	return err
}

func chipLabel(kind string) string {
	if label, ok := chipLabels[kind]; ok {
		return label
	}
	return kind
}
