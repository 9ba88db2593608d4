package main

import (
	"context"
	"crypto/subtle"
	"encoding/json"
	"flag"
	"fmt"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"fpl-planner-mcp/internal/config"
	"fpl-planner-mcp/internal/fetch"
	"fpl-planner-mcp/internal/plandata"
	"fpl-planner-mcp/internal/planner"
	"fpl-planner-mcp/internal/scenario"
	"fpl-planner-mcp/internal/solve"
	"fpl-planner-mcp/internal/store"
)

type ServerConfig struct {
	Cfg  *config.Config
	Live bool
}

type PlanSquadArgs struct {
	TeamID        int      `json:"team_id" jsonschema:"FPL team id (required)"`
	GW            *int     `json:"gw,omitempty" jsonschema:"First planned gameweek (0 = next)"`
	Horizon       *int     `json:"horizon,omitempty" jsonschema:"Planned gameweeks (default 5)"`
	Objective     *string  `json:"objective,omitempty" jsonschema:"Objective mode: decay|flat"`
	DecayGameweek *float64 `json:"decay_gameweek,omitempty" jsonschema:"Per-week discount factor"`
	DecayBench    *float64 `json:"decay_bench,omitempty" jsonschema:"Bench credit factor"`
	FTValue       *float64 `json:"ft_value,omitempty" jsonschema:"Reward for banking a free transfer"`
}

type PlanChipsArgs struct {
	PlanSquadArgs
	FreeHit       *int `json:"freehit,omitempty" jsonschema:"Free hit week offset (-1 = unused)"`
	Wildcard      *int `json:"wildcard,omitempty" jsonschema:"Wildcard week offset (-1 = unused)"`
	BenchBoost    *int `json:"bboost,omitempty" jsonschema:"Bench boost week offset (-1 = unused)"`
	TripleCaptain *int `json:"threexc,omitempty" jsonschema:"Triple captain week offset (-1 = unused)"`
}

type SensitivityArgs struct {
	PlanSquadArgs
	Runs *int    `json:"runs,omitempty" jsonschema:"Noised re-solves (default 10)"`
	Seed *uint64 `json:"seed,omitempty" jsonschema:"Noise seed (default 42)"`
}

type toolInfo struct {
	Name        string `json:"name"`
	Description string `json:"description"`
}

func main() {
	var (
		addr        = flag.String("addr", ":8080", "HTTP listen address")
		mcpPath     = flag.String("path", "/mcp", "HTTP path for MCP endpoint")
		configPath  = flag.String("config", "", "TOML config file")
		live        = flag.Bool("live", false, "disable API cache and disk writes")
		requireAuth = flag.Bool("require-auth", true, "require API key auth via FPL_PLANNER_API_KEY")
		authHeader  = flag.String("auth-header", "X-API-Key", "HTTP header to read API key from")
		debug       = flag.Bool("debug", false, "debug logging")
	)
	flag.Parse()

	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: "15:04:05"})
	if *debug {
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	} else {
		zerolog.SetGlobalLevel(zerolog.InfoLevel)
	}

	fileCfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatal().Err(err).Msg("load config")
	}
	if fileCfg.Data.ProjectionsPath == "" {
		log.Fatal().Msg("config must set data.projections_path")
	}
	cfg := ServerConfig{Cfg: fileCfg, Live: *live}

	server := mcp.NewServer(
		&mcp.Implementation{
			Name:    "fpl-planner-mcp",
			Version: "0.1.0",
		},
		nil,
	)

	registry := make([]toolInfo, 0, 4)

	addTool(server, &registry, &mcp.Tool{
		Name:        "plan_squad",
		Description: "Optimal multi-gameweek squad, lineup, captaincy and transfer plan",
	}, func(ctx context.Context, req *mcp.CallToolRequest, args PlanSquadArgs) (*mcp.CallToolResult, any, error) {
		if args.TeamID == 0 {
			return toolError(fmt.Errorf("team_id is required")), nil, nil
		}
		return toolJSON(runPlan(ctx, cfg, args, planner.NoChips()))
	})

	addTool(server, &registry, &mcp.Tool{
		Name:        "plan_chips",
		Description: "Squad plan with chip activations (free hit, wildcard, bench boost, triple captain)",
	}, func(ctx context.Context, req *mcp.CallToolRequest, args PlanChipsArgs) (*mcp.CallToolResult, any, error) {
		if args.TeamID == 0 {
			return toolError(fmt.Errorf("team_id is required")), nil, nil
		}
		chips := planner.NoChips()
		if args.FreeHit != nil {
			chips.FreeHit = *args.FreeHit
		}
		if args.Wildcard != nil {
			chips.Wildcard = *args.Wildcard
		}
		if args.BenchBoost != nil {
			chips.BenchBoost = *args.BenchBoost
		}
		if args.TripleCaptain != nil {
			chips.TripleCaptain = *args.TripleCaptain
		}
		return toolJSON(runPlan(ctx, cfg, args.PlanSquadArgs, chips))
	})

	addTool(server, &registry, &mcp.Tool{
		Name:        "plan_sensitivity",
		Description: "Plan stability under projection noise: first-week move frequencies and objective spread",
	}, func(ctx context.Context, req *mcp.CallToolRequest, args SensitivityArgs) (*mcp.CallToolResult, any, error) {
		if args.TeamID == 0 {
			return toolError(fmt.Errorf("team_id is required")), nil, nil
		}
		return toolJSON(runSensitivity(ctx, cfg, args))
	})

	handler := mcp.NewStreamableHTTPHandler(func(r *http.Request) *mcp.Server {
		return server
	}, &mcp.StreamableHTTPOptions{JSONResponse: true})

	apiKey := strings.TrimSpace(os.Getenv("FPL_PLANNER_API_KEY"))
	if *requireAuth && apiKey == "" {
		log.Fatal().Msg("FPL_PLANNER_API_KEY is required (set env var or run with --require-auth=false)")
	}

	withAuth := func(next http.HandlerFunc) http.HandlerFunc {
		return func(w http.ResponseWriter, r *http.Request) {
			if apiKey == "" {
				next(w, r)
				return
			}
			key := strings.TrimSpace(r.Header.Get(*authHeader))
			if key == "" {
				if authz := r.Header.Get("Authorization"); strings.HasPrefix(strings.ToLower(authz), "bearer ") {
					key = strings.TrimSpace(authz[7:])
				}
			}
			if subtle.ConstantTimeCompare([]byte(key), []byte(apiKey)) != 1 {
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(http.StatusUnauthorized)
				w.Write([]byte(`{"error":"unauthorized"}`))
				return
			}
			next(w, r)
		}
	}

	http.HandleFunc("/health", withAuth(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"status":"ok"}`))
	}))

	http.HandleFunc("/tools", withAuth(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		b, _ := json.MarshalIndent(map[string]any{"tools": registry}, "", "  ")
		w.Write(b)
	}))

	http.HandleFunc(*mcpPath, withAuth(handler.ServeHTTP))

	log.Info().Str("addr", *addr).Str("path", *mcpPath).Msg("planner MCP server listening")
	if err := http.ListenAndServe(*addr, nil); err != nil {
		log.Fatal().Err(err).Msg("serve")
	}
}

func addTool[T any](server *mcp.Server, registry *[]toolInfo, tool *mcp.Tool, handler func(context.Context, *mcp.CallToolRequest, T) (*mcp.CallToolResult, any, error)) {
	*registry = append(*registry, toolInfo{Name: tool.Name, Description: tool.Description})
	mcp.AddTool(server, tool, handler)
}

// buildRun assembles the per-request planner inputs. Every request gets
// fresh Data and a fresh Planner; nothing is shared between calls.
func buildRun(cfg ServerConfig, args PlanSquadArgs) (*plandata.Data, planner.Options, error) {
	c := cfg.Cfg
	st := store.NewJSONStore(c.Data.RawRoot)
	client := fetch.NewClient(st)
	if cfg.Live {
		client.Live()
	}

	start := 0
	if args.GW != nil {
		start = *args.GW
	}
	if start == 0 {
		var err error
		start, err = client.NextGameweek(cfg.Live)
		if err != nil {
			return nil, planner.Options{}, err
		}
	}

	state, err := client.ManagerState(args.TeamID, start-1)
	if err != nil {
		return nil, planner.Options{}, err
	}

	f, err := os.Open(c.Data.ProjectionsPath)
	if err != nil {
		return nil, planner.Options{}, err
	}
	defer f.Close()
	table, err := plandata.LoadProjections(f)
	if err != nil {
		return nil, planner.Options{}, err
	}
	if c.Data.OwnershipPath != "" {
		of, err := os.Open(c.Data.OwnershipPath)
		if err != nil {
			return nil, planner.Options{}, err
		}
		defer of.Close()
		if err := table.MergeOwnership(of, c.Data.OwnershipColumn); err != nil {
			return nil, planner.Options{}, err
		}
	}

	horizon := c.Planner.Horizon
	if args.Horizon != nil && *args.Horizon > 0 {
		horizon = *args.Horizon
	}
	data, err := plandata.New(table, start, horizon, state.Squad, state.Bank, state.RollingFT, state.LastTransfers, state.Chips)
	if err != nil {
		return nil, planner.Options{}, err
	}

	opts := planner.Options{
		Objective:     planner.ObjectiveMode(c.Planner.Objective),
		DecayGameweek: c.Planner.DecayGameweek,
		DecayBench:    c.Planner.DecayBench,
		FTValue:       c.Planner.FTValue,
	}
	if args.Objective != nil {
		opts.Objective = planner.ObjectiveMode(*args.Objective)
	}
	if args.DecayGameweek != nil {
		opts.DecayGameweek = *args.DecayGameweek
	}
	if args.DecayBench != nil {
		opts.DecayBench = *args.DecayBench
	}
	if args.FTValue != nil {
		opts.FTValue = *args.FTValue
	}
	return data, opts, nil
}

func (cfg ServerConfig) runner() *solve.Runner {
	r := solve.NewRunner()
	r.Binary = cfg.Cfg.Solver.Binary
	r.KeepFiles = cfg.Cfg.Solver.KeepFiles
	if cfg.Cfg.Solver.WorkDir != "" {
		r.WorkDir = cfg.Cfg.Solver.WorkDir
	}
	return r
}

func (cfg ServerConfig) solveCtx(ctx context.Context) (context.Context, context.CancelFunc) {
	if cfg.Cfg.Solver.TimeoutSec > 0 {
		return context.WithTimeout(ctx, time.Duration(cfg.Cfg.Solver.TimeoutSec)*time.Second)
	}
	return context.WithCancel(ctx)
}

func runPlan(ctx context.Context, cfg ServerConfig, args PlanSquadArgs, chips planner.ChipPlan) ([]byte, error) {
	data, opts, err := buildRun(cfg, args)
	if err != nil {
		return nil, err
	}
	pl, err := planner.New("plan", data, opts)
	if err != nil {
		return nil, err
	}
	if err := pl.Build(); err != nil {
		return nil, err
	}
	if chips != planner.NoChips() {
		if err := pl.ApplyChips(chips); err != nil {
			return nil, err
		}
	}

	sctx, cancel := cfg.solveCtx(ctx)
	defer cancel()
	if _, err := cfg.runner().Solve(sctx, pl.Model()); err != nil {
		return nil, err
	}
	plan, err := pl.Decode()
	if err != nil {
		return nil, err
	}
	return json.MarshalIndent(plan, "", "  ")
}

func runSensitivity(ctx context.Context, cfg ServerConfig, args SensitivityArgs) ([]byte, error) {
	data, opts, err := buildRun(cfg, args.PlanSquadArgs)
	if err != nil {
		return nil, err
	}
	runs := 10
	if args.Runs != nil && *args.Runs > 0 {
		runs = *args.Runs
	}
	var seed uint64 = 42
	if args.Seed != nil {
		seed = *args.Seed
	}

	sctx, cancel := cfg.solveCtx(ctx)
	defer cancel()
	summary, err := scenario.Run(sctx, data, scenario.Config{
		Runs:    runs,
		Seed:    seed,
		Options: opts,
		Solver:  cfg.runner(),
	})
	if err != nil {
		return nil, err
	}
	return json.MarshalIndent(summary, "", "  ")
}

func toolJSON(res []byte, err error) (*mcp.CallToolResult, any, error) {
	if err != nil {
		return toolError(err), nil, nil
	}
	return &mcp.CallToolResult{
		Content: []mcp.Content{
			&mcp.TextContent{Text: string(res)},
		},
	}, nil, nil
}

func toolError(err error) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		IsError: true,
		Content: []mcp.Content{
			&mcp.TextContent{Text: fmt.Sprintf("error: %v", err)},
		},
	}
}
