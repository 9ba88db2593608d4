package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadEmptyPathReturnsDefaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, 5, cfg.Planner.Horizon)
	assert.Equal(t, "decay", cfg.Planner.Objective)
	assert.Equal(t, 0.9, cfg.Planner.DecayGameweek)
	assert.Equal(t, "cbc", cfg.Solver.Binary)
	assert.Equal(t, 600, cfg.Solver.TimeoutSec)
	assert.Equal(t, "Top_100K", cfg.Data.OwnershipColumn)
}

func TestLoadOverridesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "planner.toml")
	require.NoError(t, os.WriteFile(path, []byte(`
[planner]
horizon = 8
objective = "flat"

[solver]
binary = "/opt/cbc/bin/cbc"
keep_files = true
`), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 8, cfg.Planner.Horizon)
	assert.Equal(t, "flat", cfg.Planner.Objective)
	// Untouched keys keep their defaults.
	assert.Equal(t, 0.9, cfg.Planner.DecayGameweek)
	assert.Equal(t, "/opt/cbc/bin/cbc", cfg.Solver.Binary)
	assert.True(t, cfg.Solver.KeepFiles)
	assert.Equal(t, 600, cfg.Solver.TimeoutSec)
}

func TestLoadMissingFileFails(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "absent.toml"))
	assert.Error(t, err)
}

func TestLoadBadTOMLFails(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.toml")
	require.NoError(t, os.WriteFile(path, []byte("planner = {"), 0o644))

	_, err := Load(path)
	assert.Error(t, err)
}
