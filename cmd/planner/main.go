package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"fpl-planner-mcp/internal/config"
	"fpl-planner-mcp/internal/fetch"
	"fpl-planner-mcp/internal/plandata"
	"fpl-planner-mcp/internal/planner"
	"fpl-planner-mcp/internal/report"
	"fpl-planner-mcp/internal/scenario"
	"fpl-planner-mcp/internal/solve"
	"fpl-planner-mcp/internal/store"
)

func main() {
	var (
		configPath  = flag.String("config", "", "TOML config file (optional)")
		teamID      = flag.Int("team", 0, "FPL team id (required)")
		gw          = flag.Int("gw", 0, "first planned gameweek (0 = next)")
		horizon     = flag.Int("horizon", 0, "planned gameweeks (0 = config default)")
		projections = flag.String("projections", "", "projection CSV path")
		ownership   = flag.String("ownership", "", "ownership CSV path (optional)")
		objective   = flag.String("objective", "", "objective mode: decay|flat")
		decayGW     = flag.Float64("decay-gameweek", -1, "per-week discount factor")
		decayBench  = flag.Float64("decay-bench", -1, "bench credit factor")
		ftValue     = flag.Float64("ft-value", -1, "reward for banking a free transfer")

		freehit    = flag.Int("freehit", -1, "free hit week offset (-1 = unused)")
		wildcard   = flag.Int("wildcard", -1, "wildcard week offset (-1 = unused)")
		bboost     = flag.Int("bboost", -1, "bench boost week offset (-1 = unused)")
		threexc    = flag.Int("threexc", -1, "triple captain week offset (-1 = unused)")
		diffCount  = flag.Int("differentials", 0, "minimum low-ownership starters (0 = off)")
		diffCutoff = flag.Float64("differential-threshold", 10, "ownership percentile cutoff")

		noiseRuns = flag.Int("noise-runs", 0, "sensitivity runs with noised projections (0 = off)")
		seed      = flag.Uint64("seed", 42, "noise seed")

		rawRoot = flag.String("raw-root", "", "root directory for raw API JSON")
		live    = flag.Bool("live", false, "disable API cache and disk writes")
		debug   = flag.Bool("debug", false, "debug logging")
	)
	flag.Parse()

	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: "15:04:05"})
	if *debug {
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	} else {
		zerolog.SetGlobalLevel(zerolog.InfoLevel)
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatal().Err(err).Msg("load config")
	}
	if *horizon > 0 {
		cfg.Planner.Horizon = *horizon
	}
	if *objective != "" {
		cfg.Planner.Objective = *objective
	}
	if *decayGW >= 0 {
		cfg.Planner.DecayGameweek = *decayGW
	}
	if *decayBench >= 0 {
		cfg.Planner.DecayBench = *decayBench
	}
	if *ftValue >= 0 {
		cfg.Planner.FTValue = *ftValue
	}
	if *projections != "" {
		cfg.Data.ProjectionsPath = *projections
	}
	if *ownership != "" {
		cfg.Data.OwnershipPath = *ownership
	}
	if *rawRoot != "" {
		cfg.Data.RawRoot = *rawRoot
	}

	if *teamID == 0 {
		log.Fatal().Msg("-team is required")
	}
	if cfg.Data.ProjectionsPath == "" {
		log.Fatal().Msg("projection CSV is required (-projections or config)")
	}

	st := store.NewJSONStore(cfg.Data.RawRoot)
	client := fetch.NewClient(st)
	if *live {
		client.Live()
	}

	start := *gw
	if start == 0 {
		start, err = client.NextGameweek(*live)
		if err != nil {
			log.Fatal().Err(err).Msg("resolve next gameweek")
		}
	}
	log.Info().Int("team", *teamID).Int("start", start).Int("horizon", cfg.Planner.Horizon).Msg("planning run")

	state, err := client.ManagerState(*teamID, start-1)
	if err != nil {
		log.Fatal().Err(err).Msg("fetch manager state")
	}

	table, err := loadTable(cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("load projections")
	}

	data, err := plandata.New(table, start, cfg.Planner.Horizon, state.Squad, state.Bank, state.RollingFT, state.LastTransfers, state.Chips)
	if err != nil {
		log.Fatal().Err(err).Msg("assemble plan data")
	}

	opts := planner.Options{
		Objective:     planner.ObjectiveMode(cfg.Planner.Objective),
		DecayGameweek: cfg.Planner.DecayGameweek,
		DecayBench:    cfg.Planner.DecayBench,
		FTValue:       cfg.Planner.FTValue,
	}
	chips := planner.ChipPlan{FreeHit: *freehit, Wildcard: *wildcard, BenchBoost: *bboost, TripleCaptain: *threexc}
	useChips := chips != planner.NoChips()

	runner := solve.NewRunner()
	runner.Binary = cfg.Solver.Binary
	runner.KeepFiles = cfg.Solver.KeepFiles
	if cfg.Solver.WorkDir != "" {
		runner.WorkDir = cfg.Solver.WorkDir
	}

	ctx := context.Background()
	if cfg.Solver.TimeoutSec > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, time.Duration(cfg.Solver.TimeoutSec)*time.Second)
		defer cancel()
	}

	if *noiseRuns > 0 {
		scenCfg := scenario.Config{
			Runs:    *noiseRuns,
			Seed:    *seed,
			Options: opts,
			Solver:  runner,
		}
		if useChips {
			scenCfg.Chips = &chips
		}
		summary, err := scenario.Run(ctx, data, scenCfg)
		if err != nil {
			log.Fatal().Err(err).Msg("sensitivity run")
		}
		b, _ := json.MarshalIndent(summary, "", "  ")
		fmt.Println(string(b))
		return
	}

	pl, err := planner.New("plan", data, opts)
	if err != nil {
		log.Fatal().Err(err).Msg("planner setup")
	}
	if err := pl.Build(); err != nil {
		log.Fatal().Err(err).Msg("build model")
	}
	if useChips {
		if err := pl.ApplyChips(chips); err != nil {
			log.Fatal().Err(err).Msg("apply chips")
		}
	}
	if *diffCount > 0 {
		if err := pl.AddDifferentials(planner.DifferentialOptions{MinStarters: *diffCount, Threshold: *diffCutoff}); err != nil {
			log.Fatal().Err(err).Msg("add differentials")
		}
	}

	if _, err := runner.Solve(ctx, pl.Model()); err != nil {
		if errors.Is(err, solve.ErrInfeasible) {
			log.Fatal().Err(err).Msg("no feasible trajectory; check anchor state and budget")
		}
		log.Fatal().Err(err).Msg("solve")
	}

	plan, err := pl.Decode()
	if err != nil {
		log.Fatal().Err(err).Msg("decode plan")
	}
	if err := report.Render(os.Stdout, plan); err != nil {
		log.Fatal().Err(err).Msg("render plan")
	}
}

func loadTable(cfg *config.Config) (*plandata.Table, error) {
	f, err := os.Open(cfg.Data.ProjectionsPath)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	table, err := plandata.LoadProjections(f)
	if err != nil {
		return nil, err
	}

	if cfg.Data.OwnershipPath != "" {
		of, err := os.Open(cfg.Data.OwnershipPath)
		if err != nil {
			return nil, err
		}
		defer of.Close()
		if err := table.MergeOwnership(of, cfg.Data.OwnershipColumn); err != nil {
			return nil, err
		}
	}
	return table, nil
}
