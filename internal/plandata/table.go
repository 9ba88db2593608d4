package plandata

import (
	"encoding/csv"
	"fmt"
	"io"
	"sort"
	"strconv"
	"strings"
)

// Table holds every candidate player for one planning run.
type Table struct {
	Players []*Player
	byID    map[int]*Player
}

func NewTable(players []*Player) *Table {
	t := &Table{Players: players, byID: make(map[int]*Player, len(players))}
	for _, p := range players {
		t.byID[p.ID] = p
	}
	return t
}

func (t *Table) Get(id int) (*Player, bool) {
	p, ok := t.byID[id]
	return p, ok
}

func (t *Table) Len() int { return len(t.Players) }

// Gameweeks lists the projected weeks in ascending order, taken as the
// union across players (rows normally share the same columns).
func (t *Table) Gameweeks() []int {
	seen := make(map[int]bool)
	for _, p := range t.Players {
		for w := range p.Points {
			seen[w] = true
		}
	}
	weeks := make([]int, 0, len(seen))
	for w := range seen {
		weeks = append(weeks, w)
	}
	sort.Ints(weeks)
	return weeks
}

// SortByEV orders players by descending total expected points. The
// solver branches on high-value players first, which shortens solves.
func (t *Table) SortByEV() {
	sort.SliceStable(t.Players, func(i, j int) bool {
		return t.Players[i].totalEV() > t.Players[j].totalEV()
	})
}

// Clone deep-copies the table so noise passes never touch the source.
func (t *Table) Clone() *Table {
	players := make([]*Player, len(t.Players))
	for i, p := range t.Players {
		players[i] = p.clone()
	}
	return NewTable(players)
}

// Clubs lists every distinct club name.
func (t *Table) Clubs() []string {
	seen := make(map[string]bool)
	out := make([]string, 0, 20)
	for _, p := range t.Players {
		if !seen[p.Club] {
			seen[p.Club] = true
			out = append(out, p.Club)
		}
	}
	sort.Strings(out)
	return out
}

// LoadProjections reads a projection CSV with columns ID, Name, Pos,
// Team, SV and one "<gw>_Pts" column per projected gameweek. Pos
// accepts either the numeric element type or a letter code.
func LoadProjections(r io.Reader) (*Table, error) {
	cr := csv.NewReader(r)
	cr.TrimLeadingSpace = true

	header, err := cr.Read()
	if err != nil {
		return nil, fmt.Errorf("projections: read header: %w", err)
	}

	col := make(map[string]int, len(header))
	ptsCols := make(map[int]int) // gameweek -> column index
	for i, h := range header {
		h = strings.TrimSpace(h)
		if gw, ok := strings.CutSuffix(h, "_Pts"); ok {
			n, err := strconv.Atoi(gw)
			if err != nil {
				return nil, fmt.Errorf("projections: bad points column %q", h)
			}
			ptsCols[n] = i
			continue
		}
		col[strings.ToLower(h)] = i
	}
	for _, name := range []string{"id", "name", "pos", "team", "sv"} {
		if _, ok := col[name]; !ok {
			return nil, fmt.Errorf("projections: missing column %q", name)
		}
	}
	if len(ptsCols) == 0 {
		return nil, fmt.Errorf("projections: no gameweek points columns")
	}

	players := make([]*Player, 0, 700)
	for line := 2; ; line++ {
		rec, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("projections: line %d: %w", line, err)
		}

		id, err := strconv.Atoi(rec[col["id"]])
		if err != nil {
			return nil, fmt.Errorf("projections: line %d: bad id %q", line, rec[col["id"]])
		}
		pos, err := ParsePosition(strings.TrimSpace(rec[col["pos"]]))
		if err != nil {
			return nil, fmt.Errorf("projections: line %d: %w", line, err)
		}
		sv, err := strconv.ParseFloat(rec[col["sv"]], 64)
		if err != nil {
			return nil, fmt.Errorf("projections: line %d: bad sale value %q", line, rec[col["sv"]])
		}

		pts := make(map[int]float64, len(ptsCols))
		for gw, i := range ptsCols {
			if rec[i] == "" {
				pts[gw] = 0
				continue
			}
			v, err := strconv.ParseFloat(rec[i], 64)
			if err != nil {
				return nil, fmt.Errorf("projections: line %d: bad points %q", line, rec[i])
			}
			pts[gw] = v
		}

		players = append(players, &Player{
			ID:        id,
			Name:      strings.TrimSpace(rec[col["name"]]),
			Position:  pos,
			Club:      strings.TrimSpace(rec[col["team"]]),
			SaleValue: sv,
			Points:    pts,
			Ownership: 100, // fully owned unless an ownership file narrows it
		})
	}
	if len(players) == 0 {
		return nil, fmt.Errorf("projections: empty table")
	}
	return NewTable(players), nil
}

// MergeOwnership joins an ownership CSV (columns ID plus the named
// percentile column) onto the table. Players absent from the ownership
// file are dropped, matching an inner join.
func (t *Table) MergeOwnership(r io.Reader, column string) error {
	cr := csv.NewReader(r)
	cr.TrimLeadingSpace = true

	header, err := cr.Read()
	if err != nil {
		return fmt.Errorf("ownership: read header: %w", err)
	}
	idCol, valCol := -1, -1
	for i, h := range header {
		switch {
		case strings.EqualFold(strings.TrimSpace(h), "id"):
			idCol = i
		case strings.TrimSpace(h) == column:
			valCol = i
		}
	}
	if idCol < 0 || valCol < 0 {
		return fmt.Errorf("ownership: missing id or %q column", column)
	}

	values := make(map[int]float64)
	for line := 2; ; line++ {
		rec, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return fmt.Errorf("ownership: line %d: %w", line, err)
		}
		id, err := strconv.Atoi(rec[idCol])
		if err != nil {
			return fmt.Errorf("ownership: line %d: bad id %q", line, rec[idCol])
		}
		v, err := strconv.ParseFloat(rec[valCol], 64)
		if err != nil {
			return fmt.Errorf("ownership: line %d: bad value %q", line, rec[valCol])
		}
		values[id] = v
	}

	kept := make([]*Player, 0, len(t.Players))
	for _, p := range t.Players {
		v, ok := values[p.ID]
		if !ok {
			continue
		}
		p.Ownership = v
		kept = append(kept, p)
	}
	if len(kept) == 0 {
		return fmt.Errorf("ownership: no overlap with projection table")
	}
	t.Players = kept
	t.byID = make(map[int]*Player, len(kept))
	for _, p := range kept {
		t.byID[p.ID] = p
	}
	return nil
}
