// Package config loads planner defaults from an optional TOML file.
// Command-line flags override whatever the file sets.
package config

import (
	"fmt"
	"os"

	"github.com/pelletier/go-toml/v2"
)

type Config struct {
	Planner PlannerConfig `toml:"planner"`
	Solver  SolverConfig  `toml:"solver"`
	Data    DataConfig    `toml:"data"`
}

type PlannerConfig struct {
	Horizon       int     `toml:"horizon"`        // planned gameweeks
	Objective     string  `toml:"objective"`      // "decay" or "flat"
	DecayGameweek float64 `toml:"decay_gameweek"` // per-week discount
	DecayBench    float64 `toml:"decay_bench"`    // bench credit
	FTValue       float64 `toml:"ft_value"`       // rolled transfer reward
}

type SolverConfig struct {
	Binary     string `toml:"binary"`      // cbc executable
	WorkDir    string `toml:"work_dir"`    // scratch dir ("" = temp)
	TimeoutSec int    `toml:"timeout_sec"` // 0 = unbounded
	KeepFiles  bool   `toml:"keep_files"`
}

type DataConfig struct {
	RawRoot         string `toml:"raw_root"`         // API cache root
	ProjectionsPath string `toml:"projections_path"` // projection CSV
	OwnershipPath   string `toml:"ownership_path"`   // optional ownership CSV
	OwnershipColumn string `toml:"ownership_column"` // percentile column name
}

func Default() *Config {
	return &Config{
		Planner: PlannerConfig{
			Horizon:       5,
			Objective:     "decay",
			DecayGameweek: 0.9,
			DecayBench:    0.1,
			FTValue:       0,
		},
		Solver: SolverConfig{
			Binary:     "cbc",
			TimeoutSec: 600,
		},
		Data: DataConfig{
			RawRoot:         "data/raw",
			OwnershipColumn: "Top_100K",
		},
	}
}

// Load reads path over the defaults. An empty path returns defaults; a
// missing file is an error, never silently ignored.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	if err := toml.Unmarshal(b, cfg); err != nil {
		return nil, fmt.Errorf("config: parse %s: %w", path, err)
	}
	return cfg, nil
}
