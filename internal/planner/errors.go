package planner

import "fmt"

// ConfigError reports a bad planning request (horizon, chip offsets,
// objective knobs). Raised before any model construction and never
// silently corrected.
type ConfigError struct {
	Field  string
	Reason string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("config: %s: %s", e.Field, e.Reason)
}

// InputError reports anchor state that cannot produce a feasible model:
// a squad violating quotas, a negative bank, stale projection rows.
// External data changed underneath us; the run fails hard.
type InputError struct {
	Reason string
}

func (e *InputError) Error() string {
	return "input: " + e.Reason
}
