package scenario

import (
	"context"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"

	"fpl-planner-mcp/internal/planner"
)

func TestTallyAccumulates(t *testing.T) {
	counts := make(map[int]*MoveCount)
	tally(counts, planner.Transfer{ID: 7, Name: "Palmer"})
	tally(counts, planner.Transfer{ID: 7, Name: "Palmer"})
	tally(counts, planner.Transfer{ID: 9, Name: "Watkins"})

	assert.Equal(t, 2, counts[7].Count)
	assert.Equal(t, 1, counts[9].Count)
	assert.Equal(t, "Palmer", counts[7].Name)
}

func TestSortedByCountThenID(t *testing.T) {
	counts := map[int]*MoveCount{
		9: {ID: 9, Name: "Watkins", Count: 2},
		7: {ID: 7, Name: "Palmer", Count: 5},
		3: {ID: 3, Name: "Gordon", Count: 2},
	}
	got := sorted(counts)

	want := []MoveCount{
		{ID: 7, Name: "Palmer", Count: 5},
		{ID: 3, Name: "Gordon", Count: 2},
		{ID: 9, Name: "Watkins", Count: 2},
	}
	assert.Equal(t, want, got)
}

func TestMeanStd(t *testing.T) {
	mean, std := meanStd([]float64{2, 4, 4, 4, 5, 5, 7, 9})
	assert.InDelta(t, 5.0, mean, 1e-9)
	assert.InDelta(t, 2.0, std, 1e-9)

	mean, std = meanStd(nil)
	assert.Equal(t, 0.0, mean)
	assert.Equal(t, 0.0, std)

	mean, std = meanStd([]float64{3.5})
	assert.Equal(t, 3.5, mean)
	assert.True(t, math.Abs(std) < 1e-12)
}

func TestRunRejectsBadConfig(t *testing.T) {
	_, err := Run(context.Background(), nil, Config{Runs: 0})
	assert.Error(t, err)
}
