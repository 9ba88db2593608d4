package planner

import "fmt"

type ObjectiveMode string

const (
	// ObjectiveDecay geometrically discounts weeks beyond the first.
	ObjectiveDecay ObjectiveMode = "decay"
	// ObjectiveFlat weights every planned week equally.
	ObjectiveFlat ObjectiveMode = "flat"
)

// DifferentialOptions forces low-ownership starters into the lineup.
type DifferentialOptions struct {
	MinStarters int     // starters per week below the threshold
	Threshold   float64 // ownership percentile cutoff
}

type Options struct {
	Objective     ObjectiveMode
	DecayGameweek float64 // per-week geometric discount, 0 < f <= 1
	DecayBench    float64 // credit for bench and vice minutes, 0 <= f <= 1
	FTValue       float64 // objective reward for banking a free transfer
}

func DefaultOptions() Options {
	return Options{
		Objective:     ObjectiveDecay,
		DecayGameweek: 0.9,
		DecayBench:    0.1,
		FTValue:       0,
	}
}

func (o Options) validate() error {
	switch o.Objective {
	case ObjectiveDecay, ObjectiveFlat:
	default:
		return &ConfigError{Field: "objective", Reason: fmt.Sprintf("unknown mode %q", o.Objective)}
	}
	if o.DecayGameweek <= 0 || o.DecayGameweek > 1 {
		return &ConfigError{Field: "decay_gameweek", Reason: fmt.Sprintf("must be in (0, 1], got %g", o.DecayGameweek)}
	}
	if o.DecayBench < 0 || o.DecayBench > 1 {
		return &ConfigError{Field: "decay_bench", Reason: fmt.Sprintf("must be in [0, 1], got %g", o.DecayBench)}
	}
	if o.FTValue < 0 {
		return &ConfigError{Field: "ft_value", Reason: fmt.Sprintf("must be non-negative, got %g", o.FTValue)}
	}
	return nil
}
