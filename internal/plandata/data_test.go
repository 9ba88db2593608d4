package plandata

import (
	"fmt"
	"testing"
)

// testTable builds n players with projections for weeks 9..11.
func testTable(n int) *Table {
	players := make([]*Player, 0, n)
	for i := 1; i <= n; i++ {
		players = append(players, &Player{
			ID:        i,
			Name:      fmt.Sprintf("P%d", i),
			Position:  Position(i%4 + 1),
			Club:      fmt.Sprintf("Club%d", i%8),
			SaleValue: 5.0,
			Points:    map[int]float64{9: float64(i), 10: float64(i) / 2, 11: 1},
			Ownership: 100,
		})
	}
	return NewTable(players)
}

func squadIDs(n int) []int {
	ids := make([]int, n)
	for i := range ids {
		ids[i] = i + 1
	}
	return ids
}

func TestNewData(t *testing.T) {
	d, err := New(testTable(20), 9, 3, squadIDs(15), 1.5, 1, 1, ChipRecord{})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if d.Period != 3 {
		t.Errorf("Period = %d, want 3", d.Period)
	}
	if d.Budget != 15*5.0+1.5 {
		t.Errorf("Budget = %v, want 76.5", d.Budget)
	}

	weeks := d.Gameweeks()
	if len(weeks) != 3 || weeks[0] != 9 {
		t.Errorf("Gameweeks = %v", weeks)
	}
	all := d.AllGameweeks()
	if len(all) != 4 || all[0] != 8 {
		t.Errorf("AllGameweeks = %v", all)
	}
}

func TestNewDataClipsHorizon(t *testing.T) {
	// Projections only cover weeks 9..11, so horizon 5 clips to 3.
	d, err := New(testTable(20), 9, 5, squadIDs(15), 0, 0, 1, ChipRecord{})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if d.Period != 3 {
		t.Errorf("Period = %d, want 3", d.Period)
	}
}

func TestNewDataErrors(t *testing.T) {
	table := testTable(20)

	if _, err := New(table, 9, 0, squadIDs(15), 0, 0, 1, ChipRecord{}); err == nil {
		t.Error("expected error for zero horizon")
	}
	if _, err := New(table, 9, 3, []int{999}, 0, 0, 1, ChipRecord{}); err == nil {
		t.Error("expected error for unknown squad player")
	}
	if _, err := New(table, 20, 3, squadIDs(15), 0, 0, 1, ChipRecord{}); err == nil {
		t.Error("expected error when no projections cover the horizon")
	}
	if _, err := New(table, 9, 3, squadIDs(15), 0, 2, 1, ChipRecord{}); err == nil {
		t.Error("expected error for rolling transfers above 1")
	}
}

func TestRandomizeReproducibleAndIsolated(t *testing.T) {
	d, err := New(testTable(20), 9, 3, squadIDs(15), 0, 0, 1, ChipRecord{})
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	before, _ := d.Table.Get(5)
	orig := before.Pts(9)

	a := d.Randomize(7)
	b := d.Randomize(7)
	c := d.Randomize(8)

	after, _ := d.Table.Get(5)
	if after.Pts(9) != orig {
		t.Error("Randomize mutated the source table")
	}

	pa, _ := a.Table.Get(5)
	pb, _ := b.Table.Get(5)
	pc, _ := c.Table.Get(5)
	if pa.Pts(9) != pb.Pts(9) {
		t.Error("same seed produced different noise")
	}
	if pa.Pts(9) == pc.Pts(9) {
		t.Error("different seeds produced identical noise")
	}
	if pa.Pts(9) < 0 {
		t.Error("noised points went negative")
	}
}
