package fetch

import (
	"encoding/json"
	"fmt"

	"github.com/rs/zerolog/log"

	"fpl-planner-mcp/internal/plandata"
)

type bootstrapEvent struct {
	ID       int  `json:"id"`
	Finished bool `json:"finished"`
}

type bootstrapResponse struct {
	Events []bootstrapEvent `json:"events"`
}

type entryPick struct {
	Element  int `json:"element"`
	Position int `json:"position"`
}

type picksResponse struct {
	Picks        []entryPick `json:"picks"`
	ActiveChip   *string     `json:"active_chip"`
	EntryHistory struct {
		Bank           int `json:"bank"`
		EventTransfers int `json:"event_transfers"`
	} `json:"entry_history"`
}

// ManagerState is everything the planner needs about a real manager,
// anchored at a finished gameweek.
type ManagerState struct {
	Squad         []int
	Bank          float64 // in the projection table's value unit
	RollingFT     int
	LastTransfers int
	Chips         plandata.ChipRecord
}

// NextGameweek returns the first unfinished gameweek.
func (c *Client) NextGameweek(force bool) (int, error) {
	raw, err := c.FetchRaw("/bootstrap-static/", "bootstrap/bootstrap-static.json", force)
	if err != nil {
		return 0, err
	}
	var resp bootstrapResponse
	if err := json.Unmarshal(raw, &resp); err != nil {
		return 0, fmt.Errorf("bootstrap: %w", err)
	}
	for _, ev := range resp.Events {
		if !ev.Finished {
			return ev.ID, nil
		}
	}
	return 0, fmt.Errorf("bootstrap: no unfinished gameweek")
}

func (c *Client) picks(teamID, gw int, force bool) (*picksResponse, error) {
	raw, err := c.FetchRaw(
		fmt.Sprintf("/entry/%d/event/%d/picks/", teamID, gw),
		fmt.Sprintf("entry/%d/gw/%d.json", teamID, gw),
		force)
	if err != nil {
		return nil, err
	}
	var resp picksResponse
	if err := json.Unmarshal(raw, &resp); err != nil {
		return nil, fmt.Errorf("picks %d/%d: %w", teamID, gw, err)
	}
	return &resp, nil
}

// EntryState returns the squad and bank at gameweek gw. The API quotes
// the bank in tenths of a million; convert to the table's unit.
func (c *Client) EntryState(teamID, gw int) ([]int, float64, error) {
	resp, err := c.picks(teamID, gw, false)
	if err != nil {
		return nil, 0, err
	}
	squad := make([]int, 0, len(resp.Picks))
	for _, p := range resp.Picks {
		squad = append(squad, p.Element)
	}
	return squad, float64(resp.EntryHistory.Bank) / 10, nil
}

// TransferState reconstructs the carried free transfer by replaying
// weekly transfer counts backwards from lastGW until a reset event: a
// week with 2+ transfers, or a chip that rebuilt the squad (wildcard or
// free hit reset the counter, bench boost and triple captain do not).
func (c *Client) TransferState(teamID, lastGW int) (rolling int, lastTransfers int, err error) {
	if lastGW < 1 {
		return 0, 0, fmt.Errorf("transfer state: no history before gameweek 1")
	}
	transfers := make([]int, 0, 8)
	for gw := lastGW; gw >= 1; gw-- {
		resp, err := c.picks(teamID, gw, false)
		if err != nil {
			return 0, 0, err
		}
		transfers = append(transfers, resp.EntryHistory.EventTransfers)

		chip := ""
		if resp.ActiveChip != nil {
			chip = *resp.ActiveChip
		}
		if resp.EntryHistory.EventTransfers > 1 || (chip != "" && chip != "3xc" && chip != "bboost") {
			break
		}
	}

	for i := len(transfers) - 1; i >= 0; i-- {
		rolling = rolling + 1 - transfers[i]
		if rolling < 0 {
			rolling = 0
		}
		if rolling > 1 {
			rolling = 1
		}
	}
	log.Debug().Int("team", teamID).Int("rolling", rolling).Int("last_transfers", transfers[0]).Msg("transfer state")
	return rolling, transfers[0], nil
}

// ChipState walks the season history and records the gameweek each
// chip was played in (0 = still available).
func (c *Client) ChipState(teamID, lastGW int) (plandata.ChipRecord, error) {
	var rec plandata.ChipRecord
	for gw := lastGW; gw >= 1; gw-- {
		resp, err := c.picks(teamID, gw, false)
		if err != nil {
			return rec, err
		}
		if resp.ActiveChip == nil {
			continue
		}
		switch *resp.ActiveChip {
		case "freehit":
			rec.FreeHit = gw
		case "wildcard":
			if rec.Wildcard == 0 {
				rec.Wildcard = gw
			}
		case "bboost":
			rec.BenchBoost = gw
		case "3xc":
			rec.TripleCaptain = gw
		}
	}
	return rec, nil
}

// ManagerState bundles squad, bank, transfer and chip state at lastGW.
func (c *Client) ManagerState(teamID, lastGW int) (*ManagerState, error) {
	squad, bank, err := c.EntryState(teamID, lastGW)
	if err != nil {
		return nil, err
	}
	rolling, lastTransfers, err := c.TransferState(teamID, lastGW)
	if err != nil {
		return nil, err
	}
	chips, err := c.ChipState(teamID, lastGW)
	if err != nil {
		return nil, err
	}
	return &ManagerState{
		Squad:         squad,
		Bank:          bank,
		RollingFT:     rolling,
		LastTransfers: lastTransfers,
		Chips:         chips,
	}, nil
}
