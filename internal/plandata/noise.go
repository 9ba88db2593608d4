package plandata

import (
	"math"

	"golang.org/x/exp/rand"
	"gonum.org/v1/gonum/stat/distuv"
)

// noiseScale is the relative one-week projection error applied during
// randomization. Uncertainty widens with the distance from Start.
const noiseScale = 0.1

// Randomize returns a copy of the run data with Normal noise applied to
// every projected score. The source data is never mutated, so parallel
// scenario runs can share one base Data. The same seed always yields
// the same perturbation.
func (d *Data) Randomize(seed uint64) *Data {
	normal := distuv.Normal{Mu: 0, Sigma: 1, Src: rand.NewSource(seed)}

	table := d.Table.Clone()
	weeks := table.Gameweeks()
	for _, p := range table.Players {
		// Walk weeks in order: map iteration would shuffle the draw
		// sequence and break seed reproducibility.
		for _, w := range weeks {
			pts, ok := p.Points[w]
			if !ok || w < d.Start || pts == 0 {
				continue
			}
			dist := float64(w - d.Start + 1)
			noised := pts * (1 + noiseScale*math.Sqrt(dist)*normal.Rand())
			if noised < 0 {
				noised = 0
			}
			p.Points[w] = noised
		}
	}
	table.SortByEV()

	cp := *d
	cp.Table = table
	cp.Squad = append([]int(nil), d.Squad...)
	return &cp
}
