// Command chainflow runs the supply chain finance simulation: it builds a
// three-tier agent population, evolves it for a number of simulated days
// across one or more Monte Carlo replications, persists the recorded
// series, and prints a summary.
package main

import (
	"flag"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"

	"github.com/dustin/go-humanize"
	"github.com/mattn/go-isatty"

	"github.com/talgya/chainflow/internal/engine"
	"github.com/talgya/chainflow/internal/montecarlo"
	"github.com/talgya/chainflow/internal/persistence"
	"github.com/talgya/chainflow/internal/population"
)

func main() {
	var (
		retailers     = flag.Int("retailers", 5, "number of retailers in the synthetic population")
		manufacturers = flag.Int("manufacturers", 5, "number of manufacturers")
		suppliers     = flag.Int("suppliers", 5, "number of suppliers")
		steps         = flag.Int("steps", 365, "simulated days per replication")
		replications  = flag.Int("replications", 1, "independent Monte Carlo replications")
		seed          = flag.Int64("seed", envInt64("CHAINFLOW_SEED", 42), "base random seed (0 = non-reproducible)")
		dbPath        = flag.String("db", envOr("CHAINFLOW_DB", "data/chainflow.db"), "SQLite path for recorded series ('' = skip persistence)")
		shuffle       = flag.Bool("shuffle", true, "shuffle order-processing sequence each matching pass")
		wcapFin       = flag.Bool("wcap-financing", false, "enable short-term working-capital financing")
		scFin         = flag.Bool("sc-financing", false, "enable reverse factoring of receivables")
		disruption    = flag.Bool("disruption", false, "enable random node-level delivery disruption")
	)
	flag.Parse()

	// JSON logs when piped, text on a terminal.
	var handler slog.Handler
	if isatty.IsTerminal(os.Stdout.Fd()) {
		handler = slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo})
	} else {
		handler = slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo})
	}
	slog.SetDefault(slog.New(handler))

	slog.Info("chainflow: supply chain finance simulation",
		"retailers", *retailers,
		"manufacturers", *manufacturers,
		"suppliers", *suppliers,
		"steps", *steps,
		"replications", *replications,
		"seed", *seed,
	)

	// ── Population ────────────────────────────────────────────────────
	genCfg := population.GenConfig{
		Retailers:     *retailers,
		Manufacturers: *manufacturers,
		Suppliers:     *suppliers,
		Seed:          *seed,
	}
	pop, err := population.Generate(genCfg)
	if err != nil {
		slog.Error("failed to generate population", "error", err)
		os.Exit(1)
	}
	specs := specsOf(genCfg)
	slog.Info("population ready", "agents", len(pop.Agents()))

	// ── Simulation ────────────────────────────────────────────────────
	result, err := montecarlo.Run(montecarlo.Config{
		Specs:         specs,
		Steps:         *steps,
		Replications:  *replications,
		BaseSeed:      *seed,
		Engine:        engine.DefaultConfig(),
		WcapFinancing: *wcapFin,
		SCFinancing:   *scFin,
		Shuffle:       *shuffle,
		Disruption:    *disruption,
	})
	if err != nil {
		slog.Error("simulation failed", "error", err)
		os.Exit(1)
	}

	// ── Persistence ───────────────────────────────────────────────────
	if *dbPath != "" {
		os.MkdirAll(filepath.Dir(*dbPath), 0755)
		db, err := persistence.Open(*dbPath)
		if err != nil {
			slog.Error("failed to open database", "error", err)
			os.Exit(1)
		}
		defer db.Close()

		for _, rep := range result.Replications {
			if err := db.SaveRun(rep.RunID.String(), rep.Seed, rep.Recorder); err != nil {
				slog.Error("failed to persist run", "run_id", rep.RunID.String(), "error", err)
				os.Exit(1)
			}
		}
		slog.Info("runs persisted", "path", *dbPath, "runs", len(result.Replications))
	}

	// ── Summary ───────────────────────────────────────────────────────
	created, completed, infeasible, bankruptcies := 0, 0, 0, 0
	for _, rep := range result.Replications {
		created += rep.Recorder.OrdersCreated
		completed += rep.Recorder.OrdersCompleted
		infeasible += rep.Recorder.OrdersInfeasible
		bankruptcies += rep.Recorder.Bankruptcies
	}

	fmt.Println()
	fmt.Printf("replications:       %s\n", humanize.Comma(int64(len(result.Replications))))
	fmt.Printf("orders created:     %s\n", humanize.Comma(int64(created)))
	fmt.Printf("orders completed:   %s\n", humanize.Comma(int64(completed)))
	fmt.Printf("orders infeasible:  %s\n", humanize.Comma(int64(infeasible)))
	fmt.Printf("bankruptcies:       %s\n", humanize.Comma(int64(bankruptcies)))

	for _, id := range result.Replications[0].Recorder.AgentIDs() {
		series, ok := result.Replications[0].Recorder.SeriesFor(id)
		if !ok {
			continue
		}
		path := result.MeanWcapPath[id]
		fmt.Printf("agent %-3d %-13s mean final wcap %10.2f\n",
			uint64(id), series.Role, path[len(path)-1])
	}
}

// specsOf regenerates the spec records behind a synthetic population so
// every replication rebuilds an identical starting state.
func specsOf(cfg population.GenConfig) []population.AgentSpec {
	return population.GenerateSpecs(cfg)
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt64(key string, fallback int64) int64 {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.ParseInt(v, 10, 64)
	if err != nil {
		return fallback
	}
	return n
}
