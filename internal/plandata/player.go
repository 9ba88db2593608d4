package plandata

import "fmt"

// Position is the FPL element type (1=GK .. 4=FWD).
type Position int

const (
	Goalkeeper Position = iota + 1
	Defender
	Midfielder
	Forward
)

func (p Position) String() string {
	switch p {
	case Goalkeeper:
		return "G"
	case Defender:
		return "D"
	case Midfielder:
		return "M"
	case Forward:
		return "F"
	}
	return "?"
}

func ParsePosition(s string) (Position, error) {
	switch s {
	case "1", "G", "GK", "GKP":
		return Goalkeeper, nil
	case "2", "D", "DEF":
		return Defender, nil
	case "3", "M", "MID":
		return Midfielder, nil
	case "4", "F", "FWD", "FOR":
		return Forward, nil
	}
	return 0, fmt.Errorf("unknown position %q", s)
}

// SquadQuota is how many squad slots each position gets (2 GK, 5 DEF,
// 5 MID, 3 FWD).
func SquadQuota(p Position) int {
	switch p {
	case Goalkeeper:
		return 2
	case Defender, Midfielder:
		return 5
	case Forward:
		return 3
	}
	return 0
}

// Player is one row of the projection table. Immutable for the length
// of a planning run; Randomize works on copies.
type Player struct {
	ID        int
	Name      string
	Position  Position
	Club      string
	SaleValue float64
	Points    map[int]float64 // expected points keyed by gameweek
	Ownership float64         // ownership percentile within the target bucket
}

// Pts returns the expected points for gameweek w (0 when outside the
// projection horizon).
func (p *Player) Pts(w int) float64 {
	return p.Points[w]
}

func (p *Player) totalEV() float64 {
	var sum float64
	for _, v := range p.Points {
		sum += v
	}
	return sum
}

func (p *Player) clone() *Player {
	cp := *p
	cp.Points = make(map[int]float64, len(p.Points))
	for w, v := range p.Points {
		cp.Points[w] = v
	}
	return &cp
}
